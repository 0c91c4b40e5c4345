// tlshift - battle timeline timestamp shifter
//
// tlshift rewrites the timestamps of a battle timeline for a battle that
// starts with less than the full time remaining.
package main

import (
	"os"

	"github.com/pcrtools/tlshift/internal/cli"
)

func main() {
	os.Exit(cli.Execute())
}
