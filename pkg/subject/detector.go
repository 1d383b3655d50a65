package subject

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/meetingcore/notecore/pkg/jsoncoerce"
	"github.com/meetingcore/notecore/pkg/llmclient"
)

const detectSystemPrompt = `You are a meeting subject detector. Given one chunk of transcript,
infer the meeting's title, its goal, and a list of scope keywords that
capture what it's about. Titles and goals should be short and concrete;
keywords should be single words or short phrases a relevance classifier
could later match against.

Respond with a single JSON object: {"title": "...", "goal": "...",
"keywords": ["...", ...]}.`

type detectResponse struct {
	Title    *string  `json:"title"`
	Goal     *string  `json:"goal"`
	Keywords []string `json:"keywords"`
}

// Detector invokes the LLM once per chunk to produce a candidate
// Detection, the input to Estimator.Update (spec §4.2).
type Detector struct {
	llm llmclient.Provider
}

// NewDetector creates a Detector backed by the given provider.
func NewDetector(llm llmclient.Provider) *Detector {
	return &Detector{llm: llm}
}

// Detect returns the coerced detection for chunkContent. A malformed
// response degrades to an empty Detection (title/goal empty, no
// keywords) so the caller's minScopeKeywords gate naturally ignores it
// (spec §4.2, §7 "malformed JSON is always recoverable").
func (d *Detector) Detect(ctx context.Context, chunkContent string, maxTokens int, temperature float64, detectedAt time.Time) (Detection, error) {
	completion, err := d.llm.ChatComplete(ctx, []llmclient.Message{
		{Role: llmclient.RoleSystem, Content: detectSystemPrompt},
		{Role: llmclient.RoleUser, Content: "Transcript chunk:\n" + chunkContent},
	}, maxTokens, temperature)
	if err != nil {
		return Detection{}, fmt.Errorf("subject detector: llm call failed: %w", err)
	}

	var raw detectResponse
	if decodeErr := jsoncoerce.Decode(completion.Text(), &raw); decodeErr != nil {
		return Detection{DetectedAt: detectedAt}, nil
	}

	det := Detection{DetectedAt: detectedAt}
	if raw.Title != nil {
		det.Title = strings.TrimSpace(*raw.Title)
	}
	if raw.Goal != nil {
		det.Goal = strings.TrimSpace(*raw.Goal)
	}
	for _, kw := range raw.Keywords {
		kw = strings.TrimSpace(kw)
		if kw != "" {
			det.Keywords = append(det.Keywords, kw)
		}
	}
	return det, nil
}
