package markov

import (
	"go/build"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
)

// scriptedSelector returns the queued choices in order and falls back to 0
// once the script is exhausted. Choices outside [0, n) fail the test.
type scriptedSelector struct {
	tb      testing.TB
	choices []int
	calls   []int // the n passed to every Select call
}

func newScriptedSelector(tb testing.TB, choices ...int) *scriptedSelector {
	tb.Helper()
	return &scriptedSelector{tb: tb, choices: choices}
}

func (s *scriptedSelector) Select(n int) int {
	s.calls = append(s.calls, n)
	if len(s.choices) == 0 {
		return 0
	}
	choice := s.choices[0]
	s.choices = s.choices[1:]
	if choice < 0 || choice >= n {
		s.tb.Fatalf("scripted choice %d out of range for sequence of length %d", choice, n)
	}
	return choice
}

var (
	benchmarkCorpus string
	corpusOnce      sync.Once
)

// createBenchmarkCorpus reads Go source files to create a corpus for benchmarking.
func createBenchmarkCorpus() string {
	corpusOnce.Do(func() {
		var sb strings.Builder
		goRoot := build.Default.GOROOT
		filesToRead := []string{
			filepath.Join(goRoot, "src/net/http/server.go"),
			filepath.Join(goRoot, "src/go/parser/parser.go"),
			filepath.Join(goRoot, "src/encoding/json/encode.go"),
		}

		for _, file := range filesToRead {
			content, err := os.ReadFile(file)
			if err != nil {
				benchmarkCorpus = "this is a fallback corpus for benchmarking. it is not very long but will prevent a crash. "
				return
			}
			sb.Write(content)
			sb.WriteString("\n")
		}
		benchmarkCorpus = sb.String()
	})
	return benchmarkCorpus
}
