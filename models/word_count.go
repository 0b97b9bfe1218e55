package models

import (
	"encoding/json"
	"fmt"
)

// WordCount is a single ranked entry: a word and how often it occurred.
type WordCount struct {
	Word  string `json:"word" yaml:"word"`
	Count int    `json:"count" yaml:"count"`
}

// MarshalJSON encodes the entry as a two element array, e.g. ["cotton", 3].
func (w WordCount) MarshalJSON() ([]byte, error) {
	return json.Marshal([]any{w.Word, w.Count})
}

func (w *WordCount) UnmarshalJSON(data []byte) error {
	var pair []json.RawMessage
	if err := json.Unmarshal(data, &pair); err != nil {
		return fmt.Errorf("failed to decode word count: %w", err)
	}
	if len(pair) != 2 {
		return fmt.Errorf("failed to decode word count: expected 2 elements, got %d", len(pair))
	}
	if err := json.Unmarshal(pair[0], &w.Word); err != nil {
		return fmt.Errorf("failed to decode word: %w", err)
	}
	if err := json.Unmarshal(pair[1], &w.Count); err != nil {
		return fmt.Errorf("failed to decode count: %w", err)
	}
	return nil
}

// RankedList is ordered by count descending, then word ascending.
type RankedList []WordCount

// Total returns the sum of all counts.
func (l RankedList) Total() int {
	total := 0
	for _, wc := range l {
		total += wc.Count
	}
	return total
}
