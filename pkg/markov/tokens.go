package markov

import (
	"io"
)

// Tokenizer is an interface that defines the contract for splitting input
// text into words. This keeps chain construction independent of how words
// are recognised.
type Tokenizer interface {
	// NewStream returns a stateful StreamTokenizer for processing an io.Reader.
	NewStream(io.Reader) StreamTokenizer
}

// StreamTokenizer is an interface for a stateful tokenizer that processes a
// stream of data, returning one word at a time.
type StreamTokenizer interface {
	// Next returns the next word from the stream. It returns io.EOF as the
	// error when the stream is fully consumed.
	Next() (string, error)
}
