package backend

import (
	"sort"
	"strings"
	"unicode"
)

// Tokenize splits text into lowercase terms on non-letter/digit boundaries.
// Shared by the local reference adapters; real vendor backends bring their
// own analyzers.
func Tokenize(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

// OverlapScore scores content against a query by term overlap, normalized by
// the query length. Returns 0 for an empty query.
func OverlapScore(queryTerms []string, content string) float64 {
	if len(queryTerms) == 0 {
		return 0
	}
	contentTerms := make(map[string]struct{})
	for _, t := range Tokenize(content) {
		contentTerms[t] = struct{}{}
	}
	matched := 0
	for _, t := range queryTerms {
		if _, ok := contentTerms[t]; ok {
			matched++
		}
	}
	return float64(matched) / float64(len(queryTerms))
}

// Ranked pairs an ID with its score for sorting.
type Ranked struct {
	ID    string
	Score float64
}

// SortRanked orders candidates by descending score with ID as tiebreaker so
// equal-score results are stable across runs.
func SortRanked(candidates []Ranked) {
	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].Score != candidates[j].Score {
			return candidates[i].Score > candidates[j].Score
		}
		return candidates[i].ID < candidates[j].ID
	})
}
