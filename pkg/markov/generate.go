package markov

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"unicode"
	"unicode/utf8"
)

// generateOptions is used by the generate functions to configure default options.
type generateOptions struct {
	maxWords int
	start    *BigramKey
}

// GenerateOption is a function that configures generation parameters. It's
// used as a variadic argument in Generate and Walk.
type GenerateOption func(*generateOptions)

// WithMaxWords stops the walk once n words have been emitted. The seed pair
// is always emitted, so values below 2 still yield two words. A value of 0,
// the default, leaves the walk unbounded: it ends only at a dead end.
func WithMaxWords(n int) GenerateOption {
	return func(o *generateOptions) { o.maxWords = n }
}

// WithStart begins the walk at key instead of a randomly selected key.
// The walk fails with ErrUnknownSeed if key is not in the chain.
func WithStart(key BigramKey) GenerateOption {
	return func(o *generateOptions) { o.start = &key }
}

// Walk is the result of one generation run.
type Walk struct {
	// Seed is the bigram the walk started from, as stored in the chain.
	Seed BigramKey
	// Words are the emitted words. The first one carries the capitalized
	// form of Seed.First.
	Words []string
}

// String joins the emitted words with single spaces.
func (w *Walk) String() string {
	return strings.Join(w.Words, " ")
}

// Generate walks chain once and returns the generated text.
func (g *Generator) Generate(ctx context.Context, chain *Chain, opts ...GenerateOption) (string, error) {
	walk, err := g.Walk(ctx, chain, opts...)
	if err != nil {
		return "", err
	}
	return walk.String(), nil
}

// ParseStart splits text on whitespace into a starting bigram. Any word count
// other than two yields an error wrapping ErrInvalidStart.
func ParseStart(text string) (BigramKey, error) {
	words := strings.Fields(text)
	if len(words) != 2 {
		return BigramKey{}, fmt.Errorf("%w, got %d", ErrInvalidStart, len(words))
	}
	return BigramKey{First: words[0], Second: words[1]}, nil
}

// GenerateFromString is a convenience wrapper around Generate that starts
// from the two words in startText. If startText is empty or blank it behaves
// identically to Generate.
func (g *Generator) GenerateFromString(ctx context.Context, chain *Chain, startText string, opts ...GenerateOption) (string, error) {
	if strings.TrimSpace(startText) == "" {
		return g.Generate(ctx, chain, opts...)
	}
	seed, err := ParseStart(startText)
	if err != nil {
		return "", err
	}
	return g.Generate(ctx, chain, append(opts, WithStart(seed))...)
}

// Walk performs a random walk over chain.
//
// The starting key is drawn uniformly from all keys. Its first word is
// emitted with the leading character uppercased, its second word verbatim.
// While the last two emitted words form a key, one of that key's successors
// is drawn uniformly (repeated successors weigh more) and emitted. The walk
// ends the first time the last two words are not a key.
//
// There is no length cap unless WithMaxWords is given, so a chain with
// cycles can walk for a long time; ctx cancellation stops it.
func (g *Generator) Walk(ctx context.Context, chain *Chain, opts ...GenerateOption) (*Walk, error) {
	options := &generateOptions{}
	for _, opt := range opts {
		opt(options)
	}

	if chain.Len() == 0 {
		return nil, ErrEmptyChain
	}

	var seed BigramKey
	if options.start != nil {
		seed = *options.start
		if !chain.Contains(seed) {
			return nil, fmt.Errorf("%w: %q", ErrUnknownSeed, seed.String())
		}
	} else {
		seed = choose(g.selector, chain.keys)
	}

	words := []string{capitalizeFirst(seed.First), seed.Second}
	link := seed
	reason := "dead_end"

	for {
		successors, ok := chain.Successors(link)
		if !ok {
			break
		}
		if options.maxWords > 0 && len(words) >= options.maxWords {
			reason = "max_words"
			break
		}
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("generation stopped after %d words: %w", len(words), err)
		}

		next := choose(g.selector, successors)
		words = append(words, next)
		link = BigramKey{First: link.Second, Second: next}
	}

	g.logger.DebugContext(ctx, "Generation terminated",
		slog.String("seed_first", seed.First),
		slog.String("seed_second", seed.Second),
		slog.Int("generated_length", len(words)),
		slog.String("reason", reason),
	)

	return &Walk{Seed: seed, Words: words}, nil
}

// capitalizeFirst uppercases the leading character of word and leaves the
// rest untouched.
func capitalizeFirst(word string) string {
	r, size := utf8.DecodeRuneInString(word)
	if r == utf8.RuneError && size <= 1 {
		return word
	}
	upper := unicode.ToUpper(r)
	if upper == r {
		return word
	}
	return string(upper) + word[size:]
}
