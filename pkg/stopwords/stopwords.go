// Package stopwords provides the immutable stopword set used by the filter.
//
// A Set is built once at startup and shared read-only by every request;
// nothing in this package mutates a Set after construction.
package stopwords

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/kljensen/snowball/english"
)

// Set answers membership queries. A nil *Set contains nothing.
type Set struct {
	language string
	words    map[string]struct{}
	// lookup is an optional bundled list consulted after words.
	lookup func(string) bool
}

// New builds a set from literal words. Words are lowercased and trimmed.
func New(words ...string) *Set {
	s := &Set{language: "en", words: make(map[string]struct{}, len(words))}
	for _, w := range words {
		if w = normalize(w); w != "" {
			s.words[w] = struct{}{}
		}
	}
	return s
}

// English returns the Snowball English stopword list.
func English() *Set {
	return &Set{
		language: "en",
		words:    map[string]struct{}{},
		lookup:   english.IsStopWord,
	}
}

// LoadFile reads a flat word list: one word per line, blank lines and
// lines starting with # are ignored.
func LoadFile(path string) (*Set, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open stopword file: %w", err)
	}
	defer f.Close()

	words, err := readWords(f)
	if err != nil {
		return nil, fmt.Errorf("failed to read stopword file %s: %w", path, err)
	}
	return New(words...), nil
}

func readWords(r io.Reader) ([]string, error) {
	var words []string
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		words = append(words, line)
	}
	return words, scanner.Err()
}

// With returns a new set holding s plus extra words. s is left untouched.
func (s *Set) With(extra ...string) *Set {
	out := New(extra...)
	if s == nil {
		return out
	}
	out.language = s.language
	out.lookup = s.lookup
	for w := range s.words {
		out.words[w] = struct{}{}
	}
	return out
}

// WithLanguage returns a copy of s tagged with an ISO-639-1 code.
func (s *Set) WithLanguage(lang string) *Set {
	out := s.With()
	out.language = strings.ToLower(strings.TrimSpace(lang))
	return out
}

// Contains reports whether word is a stopword. Callers pass lowercase tokens.
func (s *Set) Contains(word string) bool {
	if s == nil {
		return false
	}
	if _, ok := s.words[word]; ok {
		return true
	}
	return s.lookup != nil && s.lookup(word)
}

// Language is the ISO-639-1 code of the list.
func (s *Set) Language() string {
	if s == nil {
		return ""
	}
	return s.language
}

func normalize(w string) string {
	return strings.ToLower(strings.TrimSpace(w))
}
