package markov

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"
)

const juanita = "hi there mary hi there juanita"

func TestGenerateScripted(t *testing.T) {
	chain := BuildString(juanita)
	ctx := context.Background()

	testCases := []struct {
		name     string
		choices  []int
		expected string
	}{
		{
			name:     "Straight to the tail",
			choices:  []int{0, 1},
			expected: "Hi there juanita",
		},
		{
			name:     "One loop then tail",
			choices:  []int{0, 0, 0, 0, 1},
			expected: "Hi there mary hi there juanita",
		},
		{
			name:     "Seed mid chain",
			choices:  []int{2, 0, 1},
			expected: "Mary hi there juanita",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			g := NewGenerator(newScriptedSelector(t, tc.choices...))
			output, err := g.Generate(ctx, chain)
			if err != nil {
				t.Fatalf("Generate() failed: %v", err)
			}
			if output != tc.expected {
				t.Errorf("expected %q, got %q", tc.expected, output)
			}
		})
	}
}

func TestGenerateSelectorCalls(t *testing.T) {
	chain := BuildString(juanita)
	selector := newScriptedSelector(t, 0, 0, 0, 0, 1)
	if _, err := NewGenerator(selector).Generate(context.Background(), chain); err != nil {
		t.Fatalf("Generate() failed: %v", err)
	}
	// One draw over all keys, then one draw per successor list.
	expected := []int{3, 2, 1, 1, 2}
	if len(selector.calls) != len(expected) {
		t.Fatalf("expected %d selector calls, got %v", len(expected), selector.calls)
	}
	for i, n := range expected {
		if selector.calls[i] != n {
			t.Errorf("call %d: expected sequence length %d, got %d", i, n, selector.calls[i])
		}
	}
}

func TestGenerateCapitalization(t *testing.T) {
	ctx := context.Background()
	testCases := []struct {
		text     string
		expected string
	}{
		{text: "hi there mary", expected: "Hi"},
		{text: "hI there mary", expected: "HI"},
		{text: "Hi there mary", expected: "Hi"},
		{text: "élan vital force", expected: "Élan"},
		{text: "\"quoted words\" here", expected: "\"quoted"},
		{text: "42 is answer", expected: "42"},
	}

	for _, tc := range testCases {
		walk, err := NewGenerator(newScriptedSelector(t, 0)).Walk(ctx, BuildString(tc.text))
		if err != nil {
			t.Fatalf("Walk(%q) failed: %v", tc.text, err)
		}
		if walk.Words[0] != tc.expected {
			t.Errorf("text %q: expected first word %q, got %q", tc.text, tc.expected, walk.Words[0])
		}
		if walk.Seed.First != strings.Fields(tc.text)[0] {
			t.Errorf("seed must keep the stored key, got %q", walk.Seed.First)
		}
	}
}

func TestGenerateEmptyChain(t *testing.T) {
	g := NewGenerator(nil)
	for _, text := range []string{"", "one", "one two"} {
		_, err := g.Generate(context.Background(), BuildString(text))
		if !errors.Is(err, ErrEmptyChain) {
			t.Errorf("text %q: expected ErrEmptyChain, got %v", text, err)
		}
	}
	if _, err := g.Generate(context.Background(), nil); !errors.Is(err, ErrEmptyChain) {
		t.Errorf("nil chain: expected ErrEmptyChain, got %v", err)
	}
}

func TestGenerateMembershipAndTermination(t *testing.T) {
	text := "the quick brown fox jumps over a lazy dog while seven wizards quietly hex jumbo dwarves"
	words := strings.Fields(text)
	vocab := make(map[string]bool)
	for _, w := range words {
		vocab[w] = true
	}
	chain := BuildString(text)
	g := NewGenerator(NewSeededSelector(7))

	for i := 0; i < 50; i++ {
		walk, err := g.Walk(context.Background(), chain)
		if err != nil {
			t.Fatalf("Walk() failed: %v", err)
		}
		for _, w := range walk.Words[1:] {
			if !vocab[w] {
				t.Errorf("generated word %q is not in the input", w)
			}
		}
		// Seed plus at most one step per key.
		if steps := len(walk.Words) - 2; steps > chain.Len()+1 {
			t.Errorf("walk took %d steps for %d keys", steps, chain.Len())
		}
		// Distinct words mean the walk is a suffix of the input.
		if !strings.HasSuffix(text, strings.Join(walk.Words[1:], " ")) {
			t.Errorf("walk %q is not a suffix of the input", walk.String())
		}
	}
}

func TestGenerateSeededReproducible(t *testing.T) {
	chain := BuildString(strings.Repeat("a b c a b d b c a d c b ", 20))
	ctx := context.Background()

	first, err := NewGenerator(NewSeededSelector(42)).Generate(ctx, chain, WithMaxWords(200))
	if err != nil {
		t.Fatal(err)
	}
	second, err := NewGenerator(NewSeededSelector(42)).Generate(ctx, chain, WithMaxWords(200))
	if err != nil {
		t.Fatal(err)
	}
	if first != second {
		t.Errorf("same seed produced different output:\n%q\n%q", first, second)
	}
}

func TestGenerateMaxWords(t *testing.T) {
	// A perfect cycle never reaches a dead end on its own.
	chain := Build([]string{"a", "b", "c", "a", "b", "c", "a", "b"})
	g := NewGenerator(NewSeededSelector(1))

	walk, err := g.Walk(context.Background(), chain, WithMaxWords(10))
	if err != nil {
		t.Fatalf("Walk() failed: %v", err)
	}
	if len(walk.Words) != 10 {
		t.Errorf("expected 10 words, got %d (%q)", len(walk.Words), walk.String())
	}

	walk, err = g.Walk(context.Background(), chain, WithMaxWords(1))
	if err != nil {
		t.Fatalf("Walk() failed: %v", err)
	}
	if len(walk.Words) != 2 {
		t.Errorf("the seed pair is always emitted, got %q", walk.String())
	}
}

func TestGenerateCancelled(t *testing.T) {
	chain := Build([]string{"a", "b", "c", "a", "b", "c", "a", "b"})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewGenerator(nil).Generate(ctx, chain)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

func TestGenerateFromString(t *testing.T) {
	chain := BuildString(juanita)
	ctx := context.Background()

	testCases := []struct {
		name          string
		start         string
		choices       []int
		expected      string
		expectError   error
		errorContains string
	}{
		{name: "Known seed", start: "there mary", expected: "There mary hi there juanita", choices: []int{0, 0, 1}},
		{name: "Mid-chain seed", start: "mary hi", expected: "Mary hi there juanita", choices: []int{0, 1}},
		{name: "Unknown seed", start: "there juanita", expectError: ErrUnknownSeed},
		{name: "Wrong arity", start: "hi", expectError: ErrInvalidStart},
		{name: "Too many words", start: "hi there mary", errorContains: "got 3"},
		{name: "Empty behaves like Generate", start: "  ", choices: []int{0, 1}, expected: "Hi there juanita"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			g := NewGenerator(newScriptedSelector(t, tc.choices...))
			output, err := g.GenerateFromString(ctx, chain, tc.start)
			switch {
			case tc.expectError != nil:
				if !errors.Is(err, tc.expectError) {
					t.Errorf("expected %v, got %v", tc.expectError, err)
				}
			case tc.errorContains != "":
				if err == nil || !strings.Contains(err.Error(), tc.errorContains) {
					t.Errorf("expected error containing %q, got %v", tc.errorContains, err)
				}
			default:
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				if output != tc.expected {
					t.Errorf("expected %q, got %q", tc.expected, output)
				}
			}
		})
	}
}

func TestParseStart(t *testing.T) {
	testCases := []struct {
		name     string
		text     string
		expected BigramKey
		valid    bool
	}{
		{name: "Two words", text: "we are", expected: BigramKey{First: "we", Second: "are"}, valid: true},
		{name: "Extra whitespace", text: "  we\t are\n", expected: BigramKey{First: "we", Second: "are"}, valid: true},
		{name: "Punctuation kept", text: "nation, conceived", expected: BigramKey{First: "nation,", Second: "conceived"}, valid: true},
		{name: "Empty", text: ""},
		{name: "Blank", text: "   "},
		{name: "One word", text: "we"},
		{name: "Three words", text: "we are met"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			key, err := ParseStart(tc.text)
			if !tc.valid {
				if !errors.Is(err, ErrInvalidStart) {
					t.Errorf("expected ErrInvalidStart, got key %v and error %v", key, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if key != tc.expected {
				t.Errorf("expected %v, got %v", tc.expected, key)
			}
		})
	}
}

func TestGenerateLogs(t *testing.T) {
	var buf bytes.Buffer
	g := NewGenerator(newScriptedSelector(t, 0, 1))
	g.SetLogger(slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})))

	if _, err := g.Generate(context.Background(), BuildString(juanita)); err != nil {
		t.Fatal(err)
	}
	logged := buf.String()
	for _, want := range []string{"Generation terminated", "reason=dead_end", "generated_length=3"} {
		if !strings.Contains(logged, want) {
			t.Errorf("expected log to contain %q, got %q", want, logged)
		}
	}
}

func BenchmarkGenerate(b *testing.B) {
	chain := BuildString(createBenchmarkCorpus())
	g := NewGenerator(nil)
	ctx := context.Background()

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		s, err := g.Generate(ctx, chain, WithMaxWords(50))
		b.SetBytes(int64(len(s)))
		if err != nil {
			b.Fatalf("Generate() failed: %v", err)
		}
	}
}
