package mapreduce

import (
	"fmt"
	"sort"

	"github.com/RCarmona53/amazon-word-cloud/models"
)

// Rank orders counts by count descending, then word ascending. Words are
// distinct map keys, so the order is total.
func Rank(wordCounts map[string]int) models.RankedList {
	list := make(models.RankedList, 0, len(wordCounts))
	for word, count := range wordCounts {
		list = append(list, models.WordCount{Word: word, Count: count})
	}

	sort.Slice(list, func(i, j int) bool {
		return Less(list[i], list[j])
	})
	return list
}

// Less is the ranking order shared by every code path that sorts words.
func Less(a, b models.WordCount) bool {
	if a.Count != b.Count {
		return a.Count > b.Count
	}
	return a.Word < b.Word
}

// TopN returns the first n entries of list. n <= 0 means all of them.
func TopN(list models.RankedList, n int) models.RankedList {
	if n <= 0 || n >= len(list) {
		return list
	}
	return list[:n]
}

// TopKeywords formats each entry as "word:count" (e.g., "learning:1153").
func TopKeywords(list models.RankedList) []string {
	keywords := make([]string, len(list))
	for i, wc := range list {
		keywords[i] = fmt.Sprintf("%s:%d", wc.Word, wc.Count)
	}
	return keywords
}
