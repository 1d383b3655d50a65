package candidate

import "strings"

// duplicateThreshold is the Jaccard similarity above which two
// candidates are considered near-duplicates. Exactly at the threshold
// is NOT a duplicate (spec §8 edge case).
const duplicateThreshold = 0.85

// jaccardSimilarity computes case-folded, whitespace-tokenized Jaccard
// similarity between two strings (spec §4.6).
func jaccardSimilarity(a, b string) float64 {
	setA := tokenSet(a)
	setB := tokenSet(b)
	if len(setA) == 0 && len(setB) == 0 {
		return 1.0
	}

	intersection := 0
	for tok := range setA {
		if _, ok := setB[tok]; ok {
			intersection++
		}
	}
	union := len(setA) + len(setB) - intersection
	if union == 0 {
		return 0
	}
	return float64(intersection) / float64(union)
}

func tokenSet(s string) map[string]struct{} {
	fields := strings.Fields(strings.ToLower(strings.TrimSpace(s)))
	set := make(map[string]struct{}, len(fields))
	for _, f := range fields {
		set[f] = struct{}{}
	}
	return set
}

// isDuplicateOf reports whether content is a near-duplicate of any
// entry in against.
func isDuplicateOf(content string, against []string) bool {
	for _, other := range against {
		if jaccardSimilarity(content, other) > duplicateThreshold {
			return true
		}
	}
	return false
}

// IsNearDuplicate is the exported form of isDuplicateOf, used by
// pkg/finalize to run the same (spec §4.6) global duplicate check across
// the whole session's accepted candidates.
func IsNearDuplicate(content string, against []string) bool {
	return isDuplicateOf(content, against)
}
