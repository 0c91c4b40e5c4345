package input

import (
	"bytes"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"golang.org/x/net/html/charset"
	"golang.org/x/text/encoding"
	"golang.org/x/text/transform"
)

// AutoEncoding detects the character set from a byte order mark, then from
// UTF-8 validity, then falls back to the configured fallback encoding.
const AutoEncoding = "auto"

const byteOrderMark = "\uFEFF"

// Decoder converts raw input bytes to UTF-8 text.
type Decoder struct {
	encoding string
	fallback string
}

// NewDecoder returns a decoder for the named encoding (any WHATWG label such
// as "utf-8", "big5", "shift_jis", "utf-16le", or AutoEncoding). fallback is
// only consulted in auto mode for content that is not valid UTF-8 and may be
// empty.
func NewDecoder(name, fallback string) (*Decoder, error) {
	if name == "" {
		name = AutoEncoding
	}
	if err := CheckEncoding(name); err != nil {
		return nil, err
	}
	if fallback != "" {
		if err := CheckEncoding(fallback); err != nil {
			return nil, fmt.Errorf("fallback: %w", err)
		}
		if strings.EqualFold(fallback, AutoEncoding) {
			return nil, fmt.Errorf("fallback encoding cannot be %q", AutoEncoding)
		}
	}
	return &Decoder{encoding: name, fallback: fallback}, nil
}

// CheckEncoding reports whether name is AutoEncoding or a known label.
func CheckEncoding(name string) error {
	if strings.EqualFold(name, AutoEncoding) {
		return nil
	}
	if e, _ := charset.Lookup(name); e == nil {
		return fmt.Errorf("unknown encoding %q", name)
	}
	return nil
}

// Decode returns content as UTF-8 text and the name of the encoding used.
func (d *Decoder) Decode(content []byte) (string, string, error) {
	enc, name := d.resolve(content)

	text, err := decodeWith(enc, content)
	if err != nil {
		return "", name, fmt.Errorf("decoding %s: %w", name, err)
	}
	return strings.TrimPrefix(text, byteOrderMark), name, nil
}

func (d *Decoder) resolve(content []byte) (encoding.Encoding, string) {
	if !strings.EqualFold(d.encoding, AutoEncoding) {
		return charset.Lookup(d.encoding)
	}

	enc, name, certain := charset.DetermineEncoding(content, "text/plain")
	if certain {
		return enc, name
	}
	if utf8.Valid(content) {
		return encoding.Nop, "utf-8"
	}
	if d.fallback != "" {
		return charset.Lookup(d.fallback)
	}
	return enc, name
}

func decodeWith(enc encoding.Encoding, content []byte) (string, error) {
	if enc == nil || enc == encoding.Nop {
		return string(content), nil
	}
	out, err := io.ReadAll(transform.NewReader(bytes.NewReader(content), enc.NewDecoder()))
	if err != nil {
		return "", err
	}
	return string(out), nil
}
