package subject

import (
	"errors"
	"math"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// halfLife is the time after which a detection's weight decays to 0.5
// (spec §4.2).
const halfLife = 120_000 * time.Millisecond

// minWeight/maxWeight bound the decay curve so old evidence never fully
// vanishes and a brand-new detection never exceeds full weight.
const (
	minWeight = 0.1
	maxWeight = 1.0
)

// ErrLocked is returned by Update once the subject has been locked.
var ErrLocked = errors.New("subject estimator: subject is locked")

// Estimator maintains the three weighted maps (title, goal, keyword) and
// detection history for one session (spec §4.2). Not safe for concurrent
// use across sessions; one Estimator belongs to exactly one session, but
// its internal lock protects concurrent AddSegment-triggered and
// ticker-triggered calls.
type Estimator struct {
	mu sync.Mutex

	titles   map[string]*WeightedComponent
	goals    map[string]*WeightedComponent
	keywords map[string]*WeightedComponent

	history []History

	minScopeKeywords int
	maxScopeKeywords int

	locked   bool
	lockedAt time.Time

	subjectID string
}

// New creates an Estimator bounded by the configured keyword-count range
// (spec §6 minScopeKeywords/maxScopeKeywords).
func New(minScopeKeywords, maxScopeKeywords int) *Estimator {
	return &Estimator{
		titles:           make(map[string]*WeightedComponent),
		goals:            make(map[string]*WeightedComponent),
		keywords:         make(map[string]*WeightedComponent),
		minScopeKeywords: minScopeKeywords,
		maxScopeKeywords: maxScopeKeywords,
		subjectID:        uuid.New().String(),
	}
}

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// weight computes the exponential time-decay weight for a detection made
// at detectedAt, observed at now (spec §4.2).
func weight(detectedAt, now time.Time) float64 {
	age := now.Sub(detectedAt)
	if age < 0 {
		age = 0
	}
	w := math.Exp(-math.Ln2 * float64(age) / float64(halfLife))
	if w < minWeight {
		return minWeight
	}
	if w > maxWeight {
		return maxWeight
	}
	return w
}

// Update folds one subject detection into the weighted maps and appends
// a History row. ok is false (no error) when the detection is ignored
// for carrying too few keywords (spec §4.2, §8 boundary behavior).
// Returns ErrLocked if the subject has already been locked for this
// session (spec §4.2 "Locking").
func (e *Estimator) Update(d Detection, now time.Time) (ok bool, sub Subject, err error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.locked {
		return false, Subject{}, ErrLocked
	}
	if len(d.Keywords) < e.minScopeKeywords {
		return false, e.currentLocked(now), nil
	}

	w := weight(d.DetectedAt, now)

	bumpComponent(e.titles, d.Title, w, d.DetectedAt)
	bumpComponent(e.goals, d.Goal, w, d.DetectedAt)
	for _, kw := range d.Keywords {
		bumpComponent(e.keywords, kw, w, d.DetectedAt)
	}

	cur := e.currentLocked(now)

	// Record the detection's own values, not the running-best snapshot,
	// so computeConfidence's modalAgreement measures agreement across
	// raw detections (spec §4.2) rather than over sticky best-so-far
	// values that barely change once a leader is established.
	e.history = append(e.history, History{
		ID:               uuid.New().String(),
		Title:            d.Title,
		Goal:             d.Goal,
		Keywords:         d.Keywords,
		Confidence:       cur.ConfidenceScore,
		DetectedAt:       d.DetectedAt,
		ChunkWindowStart: 0,
		ChunkWindowEnd:   0,
	})

	return true, cur, nil
}

// UpdateWithWindow is Update plus the chunk window the detection came
// from, recorded on the appended History row (spec §3 SubjectHistory
// chunkWindow). Session Controller calls this variant; Update alone is
// kept for estimator-only unit tests.
func (e *Estimator) UpdateWithWindow(d Detection, now time.Time, windowStart, windowEnd int64) (ok bool, sub Subject, err error) {
	ok, sub, err = e.Update(d, now)
	if ok && err == nil {
		e.mu.Lock()
		if n := len(e.history); n > 0 {
			e.history[n-1].ChunkWindowStart = windowStart
			e.history[n-1].ChunkWindowEnd = windowEnd
		}
		e.mu.Unlock()
	}
	return ok, sub, err
}

func bumpComponent(m map[string]*WeightedComponent, value string, w float64, detectedAt time.Time) {
	value = strings.TrimSpace(value)
	if value == "" {
		return
	}
	key := normalize(value)
	c, ok := m[key]
	if !ok {
		c = &WeightedComponent{Value: value, FirstSeenAt: detectedAt}
		m[key] = c
	}
	c.CumulativeWeight += w
	c.OccurrenceCount++
	if detectedAt.After(c.LastSeenAt) {
		c.LastSeenAt = detectedAt
	}
}

// currentLocked computes the current best subject snapshot. Caller must
// hold e.mu.
func (e *Estimator) currentLocked(now time.Time) Subject {
	conf := e.computeConfidence()
	status := StatusDraft
	var lockedAt *time.Time
	if e.locked {
		status = StatusLocked
		t := e.lockedAt
		lockedAt = &t
	}
	return Subject{
		ID:              e.subjectID,
		Title:           bestValue(e.titles),
		Goal:            bestValue(e.goals),
		ScopeKeywords:   topValues(e.keywords, e.maxScopeKeywords),
		Status:          status,
		ConfidenceScore: conf.Score,
		LockedAt:        lockedAt,
	}
}

// Current returns the current subject snapshot as of now.
func (e *Estimator) Current(now time.Time) Subject {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.currentLocked(now)
}

// Lock freezes the subject and rejects further updates (spec §4.2). It
// is an error to lock twice.
func (e *Estimator) Lock(now time.Time) (Subject, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.locked {
		return Subject{}, errors.New("subject estimator: already locked")
	}
	e.locked = true
	e.lockedAt = now
	return e.currentLocked(now), nil
}

// History returns a copy of the append-only detection history.
func (e *Estimator) History() []History {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]History, len(e.history))
	copy(out, e.history)
	return out
}

// Confidence returns the current stability/confidence summary.
func (e *Estimator) Confidence() Confidence {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.computeConfidence()
}

func bestValue(m map[string]*WeightedComponent) string {
	var best *WeightedComponent
	for _, c := range m {
		if best == nil ||
			c.CumulativeWeight > best.CumulativeWeight ||
			(c.CumulativeWeight == best.CumulativeWeight && c.FirstSeenAt.Before(best.FirstSeenAt)) {
			best = c
		}
	}
	if best == nil {
		return ""
	}
	return best.Value
}

func topValues(m map[string]*WeightedComponent, n int) []string {
	components := make([]*WeightedComponent, 0, len(m))
	for _, c := range m {
		components = append(components, c)
	}
	sort.SliceStable(components, func(i, j int) bool {
		if components[i].CumulativeWeight != components[j].CumulativeWeight {
			return components[i].CumulativeWeight > components[j].CumulativeWeight
		}
		return components[i].FirstSeenAt.Before(components[j].FirstSeenAt)
	})
	if n > len(components) {
		n = len(components)
	}
	out := make([]string, n)
	for i := 0; i < n; i++ {
		out[i] = components[i].Value
	}
	return out
}
