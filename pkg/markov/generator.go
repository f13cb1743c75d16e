package markov

import (
	"errors"
	"io"
	"log/slog"
)

var (
	// ErrEmptyChain is returned when generation is asked to walk a chain with
	// no bigram keys, which happens for inputs of fewer than three words.
	ErrEmptyChain = errors.New("markov: chain has no bigram keys to start from")
	// ErrUnknownSeed is returned when a requested starting bigram is not a key
	// of the chain.
	ErrUnknownSeed = errors.New("markov: seed bigram not found in chain")
	// ErrInvalidStart is returned by ParseStart when the start text does not
	// hold exactly two words.
	ErrInvalidStart = errors.New("markov: start text must contain exactly two words")
)

// Generator walks chains to produce text. It holds the Selector used for
// every random choice and a logger.
type Generator struct {
	selector Selector
	logger   *slog.Logger
}

// NewGenerator creates a Generator that draws its random choices from
// selector. A nil selector selects RandomSelector.
func NewGenerator(selector Selector) *Generator {
	if selector == nil {
		selector = RandomSelector()
	}
	return &Generator{
		selector: selector,
		logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
}

// SetLogger sets the logger for the Generator. By default, all logs are discarded.
func (g *Generator) SetLogger(logger *slog.Logger) {
	if logger != nil {
		g.logger = logger
	}
}

// choose returns one element of a non-empty slice using the selector.
func choose[T any](s Selector, items []T) T {
	return items[s.Select(len(items))]
}
