package markov

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"unicode"
)

// Build creates a chain from an ordered word sequence. For every run of three
// consecutive words the third is appended to the successor list of the first
// two. Sequences shorter than three words produce an empty chain.
//
// Words are used verbatim: no case folding and no punctuation stripping.
func Build(words []string) *Chain {
	chain := newChain()
	for i := 0; i+2 < len(words); i++ {
		chain.add(BigramKey{First: words[i], Second: words[i+1]}, words[i+2])
	}
	return chain
}

// BuildString strips trailing whitespace from text, splits it on runs of
// whitespace and builds a chain from the resulting words.
func BuildString(text string) *Chain {
	return Build(strings.Fields(strings.TrimRightFunc(text, unicode.IsSpace)))
}

// BuildFromReader tokenizes everything readable from r with the given
// tokenizer and builds a chain from the tokens. A nil tokenizer selects the
// WhitespaceTokenizer.
func BuildFromReader(r io.Reader, tokenizer Tokenizer) (*Chain, error) {
	if tokenizer == nil {
		tokenizer = NewWhitespaceTokenizer()
	}
	stream := tokenizer.NewStream(r)

	var words []string
	for {
		word, err := stream.Next()
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, fmt.Errorf("tokenizer error: %w", err)
		}
		words = append(words, word)
	}
	return Build(words), nil
}
