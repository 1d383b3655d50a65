package subject

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUpdate_IgnoresDetectionBelowMinScopeKeywords(t *testing.T) {
	e := New(2, 10)
	now := time.Now()

	ok, _, err := e.Update(Detection{Title: "Budget review", Goal: "approve spend", Keywords: []string{"budget"}, DetectedAt: now}, now)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Empty(t, e.History())
}

func TestUpdate_ConvergesOnRepeatedTitle(t *testing.T) {
	e := New(1, 10)
	base := time.Now()

	ok, sub, err := e.Update(Detection{Title: "Q3 Budget Review", Goal: "finalize budget", Keywords: []string{"budget", "q3"}, DetectedAt: base}, base)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "Q3 Budget Review", sub.Title)

	ok, sub, err = e.Update(Detection{Title: "Q3 Budget Review", Goal: "finalize budget", Keywords: []string{"budget", "forecast"}, DetectedAt: base.Add(30 * time.Second)}, base.Add(30*time.Second))
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "Q3 Budget Review", sub.Title)
	assert.Contains(t, sub.ScopeKeywords, "budget")
}

func TestUpdate_RejectsAfterLock(t *testing.T) {
	e := New(1, 10)
	now := time.Now()
	_, _, err := e.Update(Detection{Title: "Standup", Goal: "sync", Keywords: []string{"sync"}, DetectedAt: now}, now)
	require.NoError(t, err)

	_, err = e.Lock(now)
	require.NoError(t, err)

	ok, _, err := e.Update(Detection{Title: "Standup", Goal: "sync", Keywords: []string{"sync"}, DetectedAt: now}, now)
	assert.False(t, ok)
	assert.ErrorIs(t, err, ErrLocked)
}

func TestLock_TwiceIsError(t *testing.T) {
	e := New(1, 10)
	now := time.Now()
	_, err := e.Lock(now)
	require.NoError(t, err)
	_, err = e.Lock(now)
	assert.Error(t, err)
}

func TestLock_FreezesStatusAndTimestamp(t *testing.T) {
	e := New(1, 10)
	now := time.Now()
	_, _, err := e.Update(Detection{Title: "Standup", Goal: "sync", Keywords: []string{"sync"}, DetectedAt: now}, now)
	require.NoError(t, err)

	locked, err := e.Lock(now)
	require.NoError(t, err)
	assert.Equal(t, StatusLocked, locked.Status)
	require.NotNil(t, locked.LockedAt)
	assert.WithinDuration(t, now, *locked.LockedAt, time.Millisecond)
}

func TestWeight_DecaysTowardFloorButNeverBelowIt(t *testing.T) {
	now := time.Now()
	// Far in the past: should clamp to the floor, not to zero.
	w := weight(now.Add(-24*time.Hour), now)
	assert.Equal(t, minWeight, w)

	// At zero age: full weight.
	w = weight(now, now)
	assert.Equal(t, maxWeight, w)

	// At exactly one half-life: weight should be ~0.5.
	w = weight(now.Add(-halfLife), now)
	assert.InDelta(t, 0.5, w, 0.001)
}

func TestConfidence_SparseHistoryIsFixedScore(t *testing.T) {
	e := New(1, 10)
	now := time.Now()
	_, _, err := e.Update(Detection{Title: "Standup", Goal: "sync", Keywords: []string{"sync"}, DetectedAt: now}, now)
	require.NoError(t, err)

	c := e.Confidence()
	assert.Equal(t, sparseHistoryScore, c.Score)
	assert.Equal(t, 1, c.DetectionCount)
}

func TestConfidence_RisesWithRepeatedAgreement(t *testing.T) {
	e := New(1, 10)
	base := time.Now()

	for i := 0; i < 5; i++ {
		at := base.Add(time.Duration(i) * 10 * time.Second)
		_, _, err := e.Update(Detection{
			Title:      "Q3 Budget Review",
			Goal:       "finalize budget",
			Keywords:   []string{"budget", "forecast"},
			DetectedAt: at,
		}, at)
		require.NoError(t, err)
	}

	c := e.Confidence()
	assert.Equal(t, ConfidenceStable, c.Status)
	assert.Equal(t, 5, c.DetectionCount)
}

func TestConfidence_StatusThresholdBoundaries(t *testing.T) {
	assert.Equal(t, ConfidenceUnstable, statusForScore(0))
	assert.Equal(t, ConfidenceEmerging, statusForScore(unstableCeiling))
	assert.Equal(t, ConfidenceLikelyStable, statusForScore(emergingCeiling))
	assert.Equal(t, ConfidenceStable, statusForScore(likelyStableCeiling))
}

func TestTopValues_RespectsMaxScopeKeywords(t *testing.T) {
	e := New(1, 2)
	now := time.Now()
	_, sub, err := e.Update(Detection{
		Title:      "Planning",
		Goal:       "plan",
		Keywords:   []string{"alpha", "beta", "gamma"},
		DetectedAt: now,
	}, now)
	require.NoError(t, err)
	assert.Len(t, sub.ScopeKeywords, 2)
}
