package analytics

import (
	"strings"
	"unicode"

	"github.com/RCarmona53/amazon-word-cloud/pkg/stopwords"
)

// Tokenize splits text into maximal runs of letters and returns, lowercased and
// in source order, the runs made only of ASCII letters. A run holding any other
// letter ("café") is dropped whole. Duplicates are kept.
func Tokenize(text string) []string {
	var words []string
	for _, run := range strings.FieldsFunc(text, func(r rune) bool { return !unicode.IsLetter(r) }) {
		if asciiLetters(run) {
			words = append(words, strings.ToLower(run))
		}
	}
	return words
}

func asciiLetters(s string) bool {
	for i := 0; i < len(s); i++ {
		c := s[i] | 0x20
		if c < 'a' || c > 'z' {
			return false
		}
	}
	return true
}

// FilterStopwords returns the tokens not in set, preserving order.
func FilterStopwords(tokens []string, set *stopwords.Set) []string {
	kept := make([]string, 0, len(tokens))
	for _, token := range tokens {
		if set.Contains(token) {
			continue
		}
		kept = append(kept, token)
	}
	return kept
}

// Analytics binds the tokenizer to the process-wide stopword set.
type Analytics struct {
	stopwords *stopwords.Set
}

func New(set *stopwords.Set) *Analytics {
	return &Analytics{stopwords: set}
}

// Words returns the meaningful words of text.
func (a *Analytics) Words(text string) []string {
	return FilterStopwords(Tokenize(text), a.stopwords)
}

// Language is the language of the configured stopword list.
func (a *Analytics) Language() string {
	return a.stopwords.Language()
}
