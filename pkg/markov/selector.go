package markov

import (
	"math/rand/v2"
)

// Selector picks one position uniformly from a non-empty ordered sequence.
// Select is only ever called with n >= 1 and must return a value in [0, n).
type Selector interface {
	Select(n int) int
}

// SelectorFunc adapts an ordinary function to the Selector interface.
type SelectorFunc func(n int) int

// Select calls f(n).
func (f SelectorFunc) Select(n int) int {
	return f(n)
}

// RandomSelector returns a Selector backed by the process-wide math/rand/v2
// source. It is safe for concurrent use.
func RandomSelector() Selector {
	return SelectorFunc(rand.IntN)
}

// NewSeededSelector returns a deterministic Selector. Two selectors created
// with the same seed produce the same sequence of choices. It is not safe for
// concurrent use.
func NewSeededSelector(seed uint64) Selector {
	r := rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
	return SelectorFunc(r.IntN)
}
