package relevance

import (
	"context"
	"fmt"
	"strings"

	"github.com/meetingcore/notecore/pkg/config"
	"github.com/meetingcore/notecore/pkg/jsoncoerce"
	"github.com/meetingcore/notecore/pkg/llmclient"
)

const systemPrompt = `You are a meeting relevance classifier. Given a meeting subject and one
chunk of transcript, classify the chunk into exactly one of:

- in_scope_important: directly advances the meeting's stated goal.
- in_scope_minor: related to the subject but tangential or low-impact.
- out_of_scope: unrelated to the subject.
- unclear: not enough signal to decide.

Treat greetings, small talk, repetition, inconclusive brainstorming, and
off-topic tangents as noise — classify them out_of_scope or unclear, not
in_scope_minor, unless they carry a concrete decision or action.

Respond with a single JSON object: {"relevanceType": "...", "score": 0.0,
"reasoning": "..."}. score is in [0,1] and reflects confidence and
importance combined.`

// defaultResult is what the coercer falls back to on malformed or
// partial JSON (spec §4.3).
var defaultResult = Result{Class: Unclear, Score: 0.5, Reasoning: ""}

// decoded mirrors the classifier's expected response shape with
// pointer fields so jsoncoerce can tell "absent" from "zero value".
type decoded struct {
	RelevanceType *string  `json:"relevanceType"`
	Score         *float64 `json:"score"`
	Reasoning     *string  `json:"reasoning"`
}

// Classifier scores chunk content against a subject using an LLM
// provider. It carries no state across calls (spec §4.3 "pure with
// respect to inputs").
type Classifier struct {
	llm llmclient.Provider
}

// New creates a Classifier backed by the given provider.
func New(llm llmclient.Provider) *Classifier {
	return &Classifier{llm: llm}
}

// Classify invokes the LLM once and returns a coerced Result. Only the
// LLM call itself can fail; a malformed response degrades to
// defaultResult rather than returning an error (spec §4.3, §7).
func (c *Classifier) Classify(ctx context.Context, title, goal string, keywords []string, strictness config.StrictnessMode, chunkContent string, maxTokens int, temperature float64) (Result, error) {
	userPrompt := buildUserPrompt(title, goal, keywords, strictness, chunkContent)

	completion, err := c.llm.ChatComplete(ctx, []llmclient.Message{
		{Role: llmclient.RoleSystem, Content: systemPrompt},
		{Role: llmclient.RoleUser, Content: userPrompt},
	}, maxTokens, temperature)
	if err != nil {
		return Result{}, fmt.Errorf("relevance classifier: llm call failed: %w", err)
	}

	return coerce(completion.Text()), nil
}

func buildUserPrompt(title, goal string, keywords []string, strictness config.StrictnessMode, content string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Subject title: %s\n", title)
	fmt.Fprintf(&b, "Subject goal: %s\n", goal)
	fmt.Fprintf(&b, "Scope keywords: %s\n", strings.Join(keywords, ", "))
	fmt.Fprintf(&b, "Strictness mode: %s\n\n", strictness)
	b.WriteString("Transcript chunk:\n")
	b.WriteString(content)
	return b.String()
}

func coerce(raw string) Result {
	d := jsoncoerce.DecodeOrZero[decoded](raw)

	res := defaultResult
	if d.RelevanceType != nil {
		cls := Class(strings.TrimSpace(*d.RelevanceType))
		if cls.IsValid() {
			res.Class = cls
		}
	}
	if d.Score != nil {
		s := *d.Score
		if s < 0 {
			s = 0
		}
		if s > 1 {
			s = 1
		}
		res.Score = s
	}
	if d.Reasoning != nil {
		res.Reasoning = *d.Reasoning
	}
	return res
}
