package mapreduce

// Map counts exact occurrences of each token.
func Map(tokens []string) map[string]int {
	counts := make(map[string]int, len(tokens))
	for _, token := range tokens {
		counts[token]++
	}
	return counts
}
