package candidate

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidate_AllCriteriaPass(t *testing.T) {
	v := NewValidator(nil)
	verdict := v.Validate(context.Background(), "Prepare the budget review summary for the finance team", "Alice Chen", "2025-03-15", "Budget Review", "finalize Q3 budget", []string{"budget", "finance"}, "")
	assert.True(t, verdict.Passed())
}

func TestValidate_VaguePrefixFailsClearTask(t *testing.T) {
	v := NewValidator(nil)
	verdict := v.Validate(context.Background(), "Maybe look into the vendor contract", "Alice", "2025-03-15", "", "", nil, "")
	assert.False(t, verdict.ClearTask)
}

func TestValidate_TryToPrefixFailsClearTask(t *testing.T) {
	v := NewValidator(nil)
	verdict := v.Validate(context.Background(), "Try to deploy the release", "Alice", "2025-03-15", "", "", nil, "")
	assert.False(t, verdict.ClearTask)
}

func TestValidate_SecondTokenVerbFormPasses(t *testing.T) {
	v := NewValidator(nil)
	verdict := v.Validate(context.Background(), "Will send the updated deck by Friday", "Alice", "2025-03-15", "", "", nil, "")
	assert.True(t, verdict.ClearTask)
}

func TestValidate_NeedToPrefixFormPasses(t *testing.T) {
	v := NewValidator(nil)
	verdict := v.Validate(context.Background(), "Need to review the contract before signing", "Alice", "2025-03-15", "", "", nil, "")
	assert.True(t, verdict.ClearTask)
}

func TestValidate_OwnerLiteralsAccepted(t *testing.T) {
	v := NewValidator(nil)
	for _, literal := range []string{"tbd", "TBD", "need assignment", "to be determined", "unassigned"} {
		verdict := v.Validate(context.Background(), "Send the report to finance", literal, "2025-03-15", "", "", nil, "")
		assert.True(t, verdict.HasOwner, "literal %q should be accepted", literal)
	}
}

func TestValidate_OwnerTooShortFails(t *testing.T) {
	v := NewValidator(nil)
	verdict := v.Validate(context.Background(), "Send the report to finance", "A", "2025-03-15", "", "", nil, "")
	assert.False(t, verdict.HasOwner)
}

func TestValidate_DeadlineFormats(t *testing.T) {
	v := NewValidator(nil)
	cases := []string{"2025-03-15", "03/15/2025", "2025/03/15", "March 15, 2025", "15 March 2025", "Saturday, March 15", "tbd", "to be determined"}
	for _, d := range cases {
		verdict := v.Validate(context.Background(), "Send the report to finance", "Alice", d, "", "", nil, "")
		assert.True(t, verdict.HasDeadline, "deadline %q should be accepted", d)
	}
}

func TestValidate_VagueDeadlineRejected(t *testing.T) {
	v := NewValidator(nil)
	for _, d := range []string{"soon", "later", "next week", "asap"} {
		verdict := v.Validate(context.Background(), "Send the report to finance", "Alice", d, "", "", nil, "")
		assert.False(t, verdict.HasDeadline, "deadline %q should be rejected", d)
	}
}

func TestValidate_SubjectRelatedPassesWithoutKnownSubject(t *testing.T) {
	v := NewValidator(nil)
	verdict := v.Validate(context.Background(), "Send the report to finance", "Alice", "2025-03-15", "", "", nil, "")
	assert.True(t, verdict.SubjectRelated)
}

func TestValidate_SubjectRelatedFailsWhenUnrelated(t *testing.T) {
	v := NewValidator(nil)
	verdict := v.Validate(context.Background(), "Order more coffee for the kitchen", "Alice", "2025-03-15", "Budget Review", "finalize Q3 budget", []string{"budget", "forecast", "finance", "spend", "variance"}, "")
	assert.False(t, verdict.SubjectRelated)
}

func TestValidate_SubjectRelatedUsesChunkContentNotJustTaskText(t *testing.T) {
	v := NewValidator(nil)
	chunk := "We reviewed the Q3 budget forecast and variance in detail before assigning follow-up work."
	verdict := v.Validate(context.Background(), "Send the summary to the team", "Alice", "2025-03-15", "Budget Review", "finalize Q3 budget", []string{"budget", "forecast", "finance", "spend", "variance"}, chunk)
	assert.True(t, verdict.SubjectRelated, "keywords present only in the surrounding chunk should still count toward relevance")
}

func TestValidate_OverrideCanOnlyUpgradeFailure(t *testing.T) {
	rejecting := stubOverride{approve: false}
	v := NewValidator(rejecting)
	verdict := v.Validate(context.Background(), "maybe check on this", "", "", "", "", nil, "")
	assert.False(t, verdict.Passed())

	approving := stubOverride{approve: true, reasoning: "llm judged this actionable enough"}
	v = NewValidator(approving)
	verdict = v.Validate(context.Background(), "maybe check on this", "", "", "", "", nil, "")
	assert.True(t, verdict.Passed())
}

type stubOverride struct {
	approve   bool
	reasoning string
}

func (s stubOverride) Override(ctx context.Context, content, assignee, deadline string) (bool, string, error) {
	return s.approve, s.reasoning, nil
}
