package markov

import (
	"bufio"
	"io"
)

// WhitespaceTokenizer splits text on runs of Unicode whitespace and returns
// every remaining run of characters verbatim, punctuation included. It is the
// streaming counterpart of strings.Fields.
type WhitespaceTokenizer struct {
	maxTokenSize int
}

// Option is a function that configures a WhitespaceTokenizer.
type Option func(*WhitespaceTokenizer)

// WithMaxTokenSize sets the longest single word the tokenizer accepts, in
// bytes. Longer words make Next fail with bufio.ErrTooLong.
// Default: bufio.MaxScanTokenSize
func WithMaxTokenSize(n int) Option {
	return func(t *WhitespaceTokenizer) {
		if n > 0 {
			t.maxTokenSize = n
		}
	}
}

// NewWhitespaceTokenizer creates a tokenizer with default settings, which can
// be overridden by providing one or more Option functions.
func NewWhitespaceTokenizer(opts ...Option) *WhitespaceTokenizer {
	t := &WhitespaceTokenizer{maxTokenSize: bufio.MaxScanTokenSize}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// NewStream returns the stream processor.
func (t *WhitespaceTokenizer) NewStream(r io.Reader) StreamTokenizer {
	scanner := bufio.NewScanner(r)
	initial := 4096
	if t.maxTokenSize < initial {
		initial = t.maxTokenSize
	}
	scanner.Buffer(make([]byte, 0, initial), t.maxTokenSize)
	scanner.Split(bufio.ScanWords)
	return &whitespaceStream{scanner: scanner}
}

type whitespaceStream struct {
	scanner *bufio.Scanner
}

// Next returns the next word. When the stream is exhausted it returns io.EOF;
// any other error comes from the underlying reader or the scanner.
func (s *whitespaceStream) Next() (string, error) {
	if !s.scanner.Scan() {
		if err := s.scanner.Err(); err != nil {
			return "", err
		}
		return "", io.EOF
	}
	return s.scanner.Text(), nil
}
