// Package source loads the text a chain is built from. Plain text, xz
// compressed text and HTML documents are supported; every failure is
// reported as an *InputError.
package source

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"mime"
	"os"
	"path/filepath"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
	"github.com/ulikunitz/xz"
)

// ErrInvalidEncoding is wrapped by InputError when the decoded text is not
// valid UTF-8.
var ErrInvalidEncoding = errors.New("source is not valid UTF-8 text")

// InputError reports a source that could not be opened, read or decoded.
type InputError struct {
	Path string
	Err  error
}

func (e *InputError) Error() string {
	return fmt.Sprintf("cannot read source %q: %v", e.Path, e.Err)
}

func (e *InputError) Unwrap() error {
	return e.Err
}

// Kind selects how raw bytes are turned into text.
type Kind int

const (
	KindPlain Kind = iota
	KindXZ
	KindHTML
)

func (k Kind) String() string {
	switch k {
	case KindXZ:
		return "xz"
	case KindHTML:
		return "html"
	default:
		return "plain"
	}
}

// KindFromPath guesses the kind from a file extension.
func KindFromPath(path string) Kind {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xz", ".txz":
		return KindXZ
	case ".html", ".htm", ".xhtml":
		return KindHTML
	default:
		return KindPlain
	}
}

// KindFromContentType maps an HTTP Content-Type header to a kind. Unknown or
// malformed types are treated as plain text.
func KindFromContentType(contentType string) Kind {
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return KindPlain
	}
	switch mediaType {
	case "application/x-xz", "application/xz":
		return KindXZ
	case "text/html", "application/xhtml+xml":
		return KindHTML
	default:
		return KindPlain
	}
}

// LoadText reads the whole file at path into memory, decodes it according to
// its extension and strips trailing whitespace. There is no size guard: the
// file is expected to fit in memory.
func LoadText(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", &InputError{Path: path, Err: err}
	}
	defer func(f *os.File) {
		_ = f.Close()
	}(f)

	text, err := Decode(f, KindFromPath(path))
	if err != nil {
		return "", &InputError{Path: path, Err: err}
	}
	return text, nil
}

// Decode reads everything from r and turns it into text of the given kind
// with trailing whitespace stripped.
func Decode(r io.Reader, kind Kind) (string, error) {
	switch kind {
	case KindXZ:
		xr, err := xz.NewReader(r)
		if err != nil {
			return "", fmt.Errorf("failed to open xz stream: %w", err)
		}
		r = xr
	case KindHTML:
		return decodeHTML(r)
	}

	data, err := io.ReadAll(r)
	if err != nil {
		return "", err
	}
	if !utf8.Valid(data) {
		return "", ErrInvalidEncoding
	}
	return strings.TrimRightFunc(string(data), unicode.IsSpace), nil
}

// decodeHTML returns the visible text of an HTML document. Script, style and
// template contents are dropped and block elements are separated by newlines
// so adjacent paragraphs do not run together.
func decodeHTML(r io.Reader) (string, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return "", err
	}
	if !utf8.Valid(data) {
		return "", ErrInvalidEncoding
	}
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("failed to parse html: %w", err)
	}
	doc.Find("script, style, noscript, template").Remove()
	doc.Find("p, div, br, li, h1, h2, h3, h4, h5, h6, tr, blockquote, pre").Each(func(_ int, s *goquery.Selection) {
		s.AppendHtml("\n")
	})

	root := doc.Find("body")
	if root.Length() == 0 {
		root = doc.Selection
	}
	return strings.TrimRightFunc(root.Text(), unicode.IsSpace), nil
}
