package relevance

import (
	"fmt"

	"github.com/meetingcore/notecore/pkg/config"
)

// Strictness thresholds (spec §4.8): minimum score required for
// in_scope_minor and unclear to survive in balanced/loose modes.
const (
	minorThresholdBalanced = 0.3
	minorThresholdLoose    = 0.2
	unclearThresholdLoose  = 0.4
)

// Decide applies the strictness-mode filter to one (class, score) pair
// and reports whether the candidate survives, plus a reason code for
// the exclusion (empty when included). Score comparisons are inclusive
// (spec §8: "exactly at a threshold is included").
func Decide(class Class, score float64, mode config.StrictnessMode) (include bool, reasonCode string) {
	switch class {
	case OutOfScope:
		return false, "out_of_scope"

	case InScopeImportant:
		return true, ""

	case InScopeMinor:
		switch mode {
		case config.StrictnessStrict:
			return false, "minor_excluded"
		case config.StrictnessBalanced:
			if score >= minorThresholdBalanced {
				return true, ""
			}
			return false, "below_threshold"
		case config.StrictnessLoose:
			if score >= minorThresholdLoose {
				return true, ""
			}
			return false, "below_threshold"
		default:
			return false, "unknown_strictness"
		}

	case Unclear:
		switch mode {
		case config.StrictnessStrict, config.StrictnessBalanced:
			return false, "unclear_excluded"
		case config.StrictnessLoose:
			if score >= unclearThresholdLoose {
				return true, ""
			}
			return false, "below_threshold"
		default:
			return false, "unknown_strictness"
		}

	default:
		return false, "unknown_relevance"
	}
}

// ExclusionReason encodes a reason code with the strictness mode that
// produced it, e.g. "below_threshold_balanced" (spec §4.8).
func ExclusionReason(reasonCode string, mode config.StrictnessMode) string {
	return fmt.Sprintf("%s_%s", reasonCode, mode)
}
