package import_feature

import (
	"sort"

	"github.com/lithammer/fuzzysearch/fuzzy"
)

// SuggestFields ranks fields whose label or fieldname fuzzily contains q.
// An empty query returns every field in its original order.
func SuggestFields(q string, fields []TargetField) []TargetField {
	if q == "" {
		return append([]TargetField(nil), fields...)
	}

	words := make([]string, 0, len(fields)*2)
	owner := make([]int, 0, len(fields)*2)
	for i, f := range fields {
		words = append(words, f.DisplayLabel())
		owner = append(owner, i)
		if f.Fieldname != f.DisplayLabel() {
			words = append(words, f.Fieldname)
			owner = append(owner, i)
		}
	}

	ranks := fuzzy.RankFindNormalizedFold(q, words)
	sort.Stable(ranks)

	seen := make(map[int]bool, len(ranks))
	result := make([]TargetField, 0, len(ranks))
	for _, rank := range ranks {
		idx := owner[rank.OriginalIndex]
		if seen[idx] {
			continue
		}
		seen[idx] = true
		result = append(result, fields[idx])
	}
	return result
}
