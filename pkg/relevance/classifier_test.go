package relevance

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meetingcore/notecore/pkg/config"
	"github.com/meetingcore/notecore/pkg/llmclient/llmtest"
)

func TestClassify_ParsesWellFormedResponse(t *testing.T) {
	llm := llmtest.NewScriptedClient()
	llm.EnqueueText(`{"relevanceType": "in_scope_important", "score": 0.9, "reasoning": "directly about the budget"}`)

	c := New(llm)
	res, err := c.Classify(context.Background(), "Budget Review", "approve Q3 budget", []string{"budget"}, config.StrictnessBalanced, "let's approve the Q3 numbers", 4096, 0.3)
	require.NoError(t, err)
	assert.Equal(t, InScopeImportant, res.Class)
	assert.Equal(t, 0.9, res.Score)
	assert.Equal(t, "directly about the budget", res.Reasoning)
}

func TestClassify_FencedJSONIsAccepted(t *testing.T) {
	llm := llmtest.NewScriptedClient()
	llm.EnqueueText("```json\n{\"relevanceType\": \"out_of_scope\", \"score\": 0.1, \"reasoning\": \"small talk\"}\n```")

	c := New(llm)
	res, err := c.Classify(context.Background(), "Budget Review", "approve Q3 budget", []string{"budget"}, config.StrictnessStrict, "how about this weather", 4096, 0.3)
	require.NoError(t, err)
	assert.Equal(t, OutOfScope, res.Class)
}

func TestClassify_MalformedJSONCoercesToDefaults(t *testing.T) {
	llm := llmtest.NewScriptedClient()
	llm.EnqueueText("not json at all")

	c := New(llm)
	res, err := c.Classify(context.Background(), "Budget Review", "approve Q3 budget", []string{"budget"}, config.StrictnessStrict, "garbled", 4096, 0.3)
	require.NoError(t, err)
	assert.Equal(t, defaultResult, res)
}

func TestClassify_UnknownRelevanceTypeFallsBackToUnclear(t *testing.T) {
	llm := llmtest.NewScriptedClient()
	llm.EnqueueText(`{"relevanceType": "extremely_relevant", "score": 0.7, "reasoning": "hmm"}`)

	c := New(llm)
	res, err := c.Classify(context.Background(), "Budget Review", "approve Q3 budget", []string{"budget"}, config.StrictnessStrict, "content", 4096, 0.3)
	require.NoError(t, err)
	assert.Equal(t, Unclear, res.Class)
	assert.Equal(t, 0.7, res.Score)
}

func TestClassify_ScoreClampedToUnitInterval(t *testing.T) {
	llm := llmtest.NewScriptedClient()
	llm.EnqueueText(`{"relevanceType": "in_scope_minor", "score": 1.7, "reasoning": "over"}`)

	c := New(llm)
	res, err := c.Classify(context.Background(), "Budget Review", "approve Q3 budget", []string{"budget"}, config.StrictnessLoose, "content", 4096, 0.3)
	require.NoError(t, err)
	assert.Equal(t, 1.0, res.Score)
}

func TestClassify_PropagatesProviderError(t *testing.T) {
	llm := llmtest.NewScriptedClient()
	llm.Enqueue(llmtest.ScriptEntry{Err: assertError{}})

	c := New(llm)
	_, err := c.Classify(context.Background(), "Budget Review", "approve Q3 budget", []string{"budget"}, config.StrictnessStrict, "content", 4096, 0.3)
	assert.Error(t, err)
}

type assertError struct{}

func (assertError) Error() string { return "provider unavailable" }
