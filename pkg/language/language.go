// Package language guesses the language of a product description.
package language

import (
	"strings"

	"github.com/pemistahl/lingua-go"
)

// Languages the detector chooses between.
var Languages = []lingua.Language{
	lingua.English,
	lingua.Spanish,
	lingua.French,
	lingua.German,
	lingua.Italian,
	lingua.Portuguese,
}

type Detector struct {
	detector lingua.LanguageDetector
}

// NewDetector builds the language models once; reuse the result.
func NewDetector() *Detector {
	return &Detector{
		detector: lingua.NewLanguageDetectorBuilder().
			FromLanguages(Languages...).
			WithPreloadedLanguageModels().
			Build(),
	}
}

// Detect returns the lowercase ISO 639-1 code of text, e.g. "en".
// ok is false when the text is too short or ambiguous to call.
func (d *Detector) Detect(text string) (string, bool) {
	if strings.TrimSpace(text) == "" {
		return "", false
	}
	lang, ok := d.detector.DetectLanguageOf(text)
	if !ok {
		return "", false
	}
	return strings.ToLower(lang.IsoCode639_1().String()), true
}
