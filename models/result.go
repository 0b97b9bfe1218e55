package models

// Result is the answer to a word frequency request.
type Result struct {
	URL           string     `json:"url" yaml:"url"`
	WordFrequency RankedList `json:"word_frequency" yaml:"word_frequency"`
	Cached        bool       `json:"cached" yaml:"cached"`
	Language      string     `json:"language,omitempty" yaml:"language,omitempty"`
}

// Outcome values recorded for every request.
const (
	OutcomeComputed  = "computed"
	OutcomeCached    = "cached"
	OutcomeDuplicate = "duplicate"
	OutcomeFailed    = "failed"
)

// Access is one recorded request outcome for a URL.
type Access struct {
	URL       string `json:"url" yaml:"url"`
	Outcome   string `json:"outcome" yaml:"outcome"`
	ErrorType string `json:"error_type,omitempty" yaml:"error_type,omitempty"`
	WordCount int    `json:"word_count" yaml:"word_count"`
	Language  string `json:"language,omitempty" yaml:"language,omitempty"`
	// AccessedAt is filled in when reading history back.
	AccessedAt string `json:"accessed_at,omitempty" yaml:"accessed_at,omitempty"`
}
