// Package input reads timeline documents from files and standard input and
// decodes them to UTF-8.
package input

// StdinName is the document name used for standard input, and the argument
// that selects it.
const StdinName = "-"

// Document is one input text, decoded to UTF-8.
type Document struct {
	// Name is the file path, or StdinName.
	Name string

	// Text is the decoded content with any byte order mark removed.
	Text string

	// Encoding is the name of the character set the content was decoded from.
	Encoding string
}
