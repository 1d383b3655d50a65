package relevance

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/meetingcore/notecore/pkg/config"
)

func TestDecide_OutOfScopeAlwaysDropped(t *testing.T) {
	for _, mode := range []config.StrictnessMode{config.StrictnessStrict, config.StrictnessBalanced, config.StrictnessLoose} {
		include, reason := Decide(OutOfScope, 1.0, mode)
		assert.False(t, include)
		assert.Equal(t, "out_of_scope", reason)
	}
}

func TestDecide_ImportantAlwaysKept(t *testing.T) {
	for _, mode := range []config.StrictnessMode{config.StrictnessStrict, config.StrictnessBalanced, config.StrictnessLoose} {
		include, _ := Decide(InScopeImportant, 0.0, mode)
		assert.True(t, include)
	}
}

func TestDecide_MinorStrictDropsRegardlessOfScore(t *testing.T) {
	include, reason := Decide(InScopeMinor, 1.0, config.StrictnessStrict)
	assert.False(t, include)
	assert.Equal(t, "minor_excluded", reason)
}

func TestDecide_MinorBalancedThresholdIsInclusive(t *testing.T) {
	include, _ := Decide(InScopeMinor, 0.3, config.StrictnessBalanced)
	assert.True(t, include, "score exactly at threshold must be included")

	include, reason := Decide(InScopeMinor, 0.29, config.StrictnessBalanced)
	assert.False(t, include)
	assert.Equal(t, "below_threshold", reason)
}

func TestDecide_MinorLooseLowerThreshold(t *testing.T) {
	include, _ := Decide(InScopeMinor, 0.2, config.StrictnessLoose)
	assert.True(t, include)
}

func TestDecide_UnclearDroppedUnderStrictAndBalanced(t *testing.T) {
	include, reason := Decide(Unclear, 0.99, config.StrictnessStrict)
	assert.False(t, include)
	assert.Equal(t, "unclear_excluded", reason)

	include, reason = Decide(Unclear, 0.99, config.StrictnessBalanced)
	assert.False(t, include)
	assert.Equal(t, "unclear_excluded", reason)
}

func TestDecide_UnclearLooseThresholdIsInclusive(t *testing.T) {
	include, _ := Decide(Unclear, 0.4, config.StrictnessLoose)
	assert.True(t, include)

	include, reason := Decide(Unclear, 0.39, config.StrictnessLoose)
	assert.False(t, include)
	assert.Equal(t, "below_threshold", reason)
}

func TestExclusionReason_EncodesModeSuffix(t *testing.T) {
	assert.Equal(t, "below_threshold_balanced", ExclusionReason("below_threshold", config.StrictnessBalanced))
}
