package service

import (
	"strings"

	"github.com/lithammer/fuzzysearch/fuzzy"
)

const matchThreshold = 0.6

// bestMatch returns the index of the choice whose aliases are closest to query, or -1 when
// nothing is similar enough. An exact case-insensitive alias always wins.
func bestMatch(query string, choices [][]string) int {
	query = strings.ToLower(strings.TrimSpace(query))
	if query == "" {
		return -1
	}

	best := -1
	bestScore := 0.0
	for i, aliases := range choices {
		for _, alias := range aliases {
			alias = strings.ToLower(alias)
			if alias == "" {
				continue
			}
			if alias == query {
				return i
			}
			distance := fuzzy.LevenshteinDistance(query, alias)
			maxLen := float64(max(len(query), len(alias)))
			similarity := 1 - float64(distance)/maxLen

			if similarity > matchThreshold && similarity > bestScore {
				bestScore = similarity
				best = i
			}
		}
	}
	return best
}
