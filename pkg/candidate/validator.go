package candidate

import (
	"context"
	"regexp"
	"strings"
)

// actionVerbs is the fixed list of verbs recognized as opening (or
// appearing in) a clear, actionable task (spec §4.5 criterion 1).
var actionVerbs = map[string]struct{}{
	"send": {}, "create": {}, "update": {}, "schedule": {}, "prepare": {},
	"draft": {}, "finalize": {}, "submit": {}, "contact": {}, "call": {},
	"email": {}, "write": {}, "implement": {}, "fix": {}, "deploy": {},
	"test": {}, "verify": {}, "confirm": {}, "arrange": {}, "organize": {},
	"coordinate": {}, "present": {}, "share": {}, "distribute": {}, "collect": {},
	"gather": {}, "research": {}, "investigate": {}, "analyze": {}, "document": {},
	"publish": {}, "release": {}, "migrate": {}, "configure": {}, "install": {},
	"upgrade": {}, "resolve": {}, "escalate": {}, "notify": {}, "assign": {},
	"delegate": {}, "approve": {}, "file": {}, "book": {}, "design": {},
	"build": {}, "review": {},
}

// vaguePrefixes disqualify a task regardless of verb position (spec
// §4.5 criterion 1).
var vaguePrefixes = []string{
	"follow up", "check", "maybe", "think about", "consider", "look into", "see if", "try to",
}

// leadInTokens are the words that may precede an action verb in the
// second-token form ("will send", "should call", ...).
var leadInTokens = map[string]struct{}{
	"to": {}, "should": {}, "will": {}, "must": {}, "need": {}, "can": {},
}

var (
	isoDate       = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)
	usDate        = regexp.MustCompile(`^\d{1,2}/\d{1,2}/\d{4}$`)
	slashISODate  = regexp.MustCompile(`^\d{4}/\d{1,2}/\d{1,2}$`)
	longMonthDate = regexp.MustCompile(`(?i)^(january|february|march|april|may|june|july|august|september|october|november|december)\s+\d{1,2},?\s*\d{4}$|^\d{1,2}\s+(january|february|march|april|may|june|july|august|september|october|november|december)\s*,?\s*\d{4}$`)
	weekdayDate   = regexp.MustCompile(`(?i)^(monday|tuesday|wednesday|thursday|friday|saturday|sunday),\s*(january|february|march|april|may|june|july|august|september|october|november|december)\s+\d{1,2}$`)
)

// acceptedOwnerLiterals and acceptedDeadlineLiterals are the
// placeholder values the validator treats as valid even though they
// don't carry real information (spec §4.5 criteria 2 and 3).
var acceptedOwnerLiterals = map[string]struct{}{
	"tbd": {}, "need assignment": {}, "to be determined": {}, "unassigned": {},
}
var acceptedDeadlineLiterals = map[string]struct{}{
	"tbd": {}, "to be determined": {},
}

// Verdict is the per-criterion outcome of validating one action item.
type Verdict struct {
	ClearTask        bool
	HasOwner         bool
	HasDeadline      bool
	SubjectRelated   bool
	FailureReasons   []string
}

// Passed reports whether all four criteria held.
func (v Verdict) Passed() bool {
	return v.ClearTask && v.HasOwner && v.HasDeadline && v.SubjectRelated
}

// Validator checks action-item candidates against the four rule-based
// criteria, with an optional LLM override that can only upgrade a
// rule-based failure (spec §4.5).
type Validator struct {
	llm OverrideProvider
}

// OverrideProvider is the narrow interface the optional LLM validator
// needs.
type OverrideProvider interface {
	Override(ctx context.Context, content, assignee, deadline string) (approve bool, reasoning string, err error)
}

// NewValidator creates a Validator. llm may be nil to disable the
// optional override path.
func NewValidator(llm OverrideProvider) *Validator {
	return &Validator{llm: llm}
}

// Validate runs the four rule-based criteria and, if they fail and an
// override provider is configured, asks it for a final say. content
// and chunkContent together form the text checked against subject
// relevance (criterion 4); chunkContent is the surrounding chunk the
// item was extracted from.
func (v *Validator) Validate(ctx context.Context, content, assignee, deadline string, title, goal string, keywords []string, chunkContent string) Verdict {
	verdict := ruleBasedVerdict(content, assignee, deadline, title, goal, keywords, chunkContent)
	if verdict.Passed() || v.llm == nil {
		return verdict
	}

	approve, reasoning, err := v.llm.Override(ctx, content, assignee, deadline)
	if err != nil || !approve {
		return verdict
	}

	return Verdict{
		ClearTask:      true,
		HasOwner:       true,
		HasDeadline:    true,
		SubjectRelated: true,
		FailureReasons: []string{reasoning},
	}
}

func ruleBasedVerdict(content, assignee, deadline, title, goal string, keywords []string, chunkContent string) Verdict {
	var v Verdict
	v.ClearTask = isClearTask(content)
	v.HasOwner = isValidOwner(assignee)
	v.HasDeadline = isValidDeadline(deadline)
	v.SubjectRelated = isSubjectRelated(content, chunkContent, title, goal, keywords)

	if !v.ClearTask {
		v.FailureReasons = append(v.FailureReasons, "task is not clearly actionable")
	}
	if !v.HasOwner {
		v.FailureReasons = append(v.FailureReasons, "no valid owner assigned")
	}
	if !v.HasDeadline {
		v.FailureReasons = append(v.FailureReasons, "no valid deadline")
	}
	if !v.SubjectRelated {
		v.FailureReasons = append(v.FailureReasons, "not clearly related to the subject")
	}
	return v
}

// ExclusionSummary renders a human-readable summary of the criteria a
// verdict failed (spec §4.5: "human-readable summary of failed
// criteria").
func ExclusionSummary(v Verdict) string {
	if v.Passed() {
		return ""
	}
	return "action item demoted: " + strings.Join(v.FailureReasons, "; ")
}

func isClearTask(content string) bool {
	normalized := strings.ToLower(strings.TrimSpace(content))
	if len(normalized) < 5 {
		return false
	}
	for _, prefix := range vaguePrefixes {
		if strings.HasPrefix(normalized, prefix) {
			return false
		}
	}

	tokens := strings.Fields(normalized)
	if len(tokens) == 0 {
		return false
	}

	if _, ok := actionVerbs[strip(tokens[0])]; ok {
		return true
	}
	if len(tokens) >= 2 {
		if _, leadIn := leadInTokens[strip(tokens[0])]; leadIn {
			if _, ok := actionVerbs[strip(tokens[1])]; ok {
				return true
			}
		}
	}
	if len(tokens) >= 3 {
		first2 := strip(tokens[0]) + " " + strip(tokens[1])
		if first2 == "need to" || first2 == "have to" {
			if _, ok := actionVerbs[strip(tokens[2])]; ok {
				return true
			}
		}
	}
	for _, tok := range tokens {
		if _, ok := actionVerbs[strip(tok)]; ok {
			return true
		}
	}
	return false
}

func strip(tok string) string {
	return strings.Trim(tok, ".,!?:;\"'")
}

func isValidOwner(assignee string) bool {
	trimmed := strings.TrimSpace(assignee)
	if trimmed == "" {
		return false
	}
	if _, ok := acceptedOwnerLiterals[strings.ToLower(trimmed)]; ok {
		return true
	}
	return len(trimmed) >= 2
}

func isValidDeadline(deadline string) bool {
	trimmed := strings.TrimSpace(deadline)
	if trimmed == "" {
		return false
	}
	if _, ok := acceptedDeadlineLiterals[strings.ToLower(trimmed)]; ok {
		return true
	}
	if isoDate.MatchString(trimmed) || usDate.MatchString(trimmed) || slashISODate.MatchString(trimmed) {
		return true
	}
	if longMonthDate.MatchString(trimmed) || weekdayDate.MatchString(trimmed) {
		return true
	}
	return false
}

func isSubjectRelated(task, chunkContent, title, goal string, keywords []string) bool {
	if title == "" && goal == "" && len(keywords) == 0 {
		return true
	}

	haystack := strings.ToLower(task + " " + chunkContent)
	var matchCount int
	if title != "" && strings.Contains(haystack, strings.ToLower(title)) {
		matchCount += 3
	}
	if goal != "" && strings.Contains(haystack, strings.ToLower(goal)) {
		matchCount += 2
	}
	for _, kw := range keywords {
		if kw == "" {
			continue
		}
		if strings.Contains(haystack, strings.ToLower(kw)) {
			matchCount++
		}
	}

	score := float64(matchCount) / float64(len(keywords)+5)
	return score >= 0.3
}
