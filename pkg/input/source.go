package input

import (
	"context"
	"fmt"
	"io"
	"os"
)

// MaxDocumentSize bounds how much of a single input is read.
const MaxDocumentSize = 16 * 1024 * 1024

// FileSource implements Source over a list of paths. The path StdinName
// reads from the configured stdin reader.
type FileSource struct {
	paths   []string
	decoder *Decoder
	stdin   io.Reader
	index   int
}

// NewFileSource creates a Source that reads the given paths in order.
func NewFileSource(paths []string, decoder *Decoder) *FileSource {
	return &FileSource{
		paths:   paths,
		decoder: decoder,
		stdin:   os.Stdin,
		index:   -1,
	}
}

// WithStdin replaces the reader used for StdinName.
func (s *FileSource) WithStdin(r io.Reader) *FileSource {
	s.stdin = r
	return s
}

// Next reads and decodes the next path.
// Returns io.EOF when all paths have been read.
func (s *FileSource) Next(ctx context.Context) (*Document, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	s.index++
	if s.index >= len(s.paths) {
		return nil, io.EOF
	}

	path := s.paths[s.index]
	raw, err := s.read(path)
	if err != nil {
		return nil, err
	}

	text, enc, err := s.decoder.Decode(raw)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	return &Document{Name: path, Text: text, Encoding: enc}, nil
}

// Close releases resources. Files are closed as soon as they are read.
func (s *FileSource) Close() error {
	return nil
}

func (s *FileSource) read(path string) ([]byte, error) {
	if path == StdinName {
		raw, err := readLimited(s.stdin)
		if err != nil {
			return nil, fmt.Errorf("reading stdin: %w", err)
		}
		return raw, nil
	}

	f, err := os.Open(path) // #nosec G304 -- user-provided paths are expected
	if err != nil {
		return nil, fmt.Errorf("opening input %s: %w", path, err)
	}
	defer f.Close()

	raw, err := readLimited(f)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	return raw, nil
}

func readLimited(r io.Reader) ([]byte, error) {
	raw, err := io.ReadAll(io.LimitReader(r, MaxDocumentSize+1))
	if err != nil {
		return nil, err
	}
	if len(raw) > MaxDocumentSize {
		return nil, fmt.Errorf("input exceeds %d bytes", MaxDocumentSize)
	}
	return raw, nil
}
