package input

import "context"

// Source provides an iterator over input documents.
// Implementations must be safe for sequential access (not concurrent).
type Source interface {
	// Next returns the next document.
	// Returns io.EOF when no more documents are available.
	Next(ctx context.Context) (*Document, error)

	// Close releases any resources held by the source.
	Close() error
}
