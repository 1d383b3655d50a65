// Package llmtest provides a scripted implementation of llmclient.Provider
// for tests, grounded on the teacher's test/e2e/mock_llm.go
// ScriptedLLMClient: a sequential queue of canned responses consumed in
// call order, plus capture of every request for assertions.
package llmtest

import (
	"context"
	"fmt"
	"sync"

	"github.com/meetingcore/notecore/pkg/llmclient"
)

// ScriptEntry is a single scripted ChatComplete response.
type ScriptEntry struct {
	Text    string // shorthand: wrapped as a single Choice
	Err     error  // if set, ChatComplete returns this error instead
	Unhealthy bool // not read by ScriptedClient; CheckHealth reports the SetHealthy flag
}

// ScriptedClient implements llmclient.Provider with a FIFO queue of
// responses. Exhausting the queue makes subsequent calls return an error,
// surfacing test setup mistakes immediately instead of silently looping.
type ScriptedClient struct {
	mu             sync.Mutex
	queue          []ScriptEntry
	index          int
	healthy        bool
	capturedInputs []CapturedCall
}

// CapturedCall records one ChatComplete invocation for assertions.
type CapturedCall struct {
	Messages    []llmclient.Message
	MaxTokens   int
	Temperature float64
}

// NewScriptedClient creates a client that reports healthy by default.
func NewScriptedClient() *ScriptedClient {
	return &ScriptedClient{healthy: true}
}

// SetHealthy overrides the CheckHealth result.
func (c *ScriptedClient) SetHealthy(healthy bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.healthy = healthy
}

// Enqueue appends one scripted response, consumed in order.
func (c *ScriptedClient) Enqueue(entry ScriptEntry) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.queue = append(c.queue, entry)
}

// EnqueueText is shorthand for Enqueue(ScriptEntry{Text: text}).
func (c *ScriptedClient) EnqueueText(text string) {
	c.Enqueue(ScriptEntry{Text: text})
}

// CapturedCalls returns every ChatComplete call observed so far.
func (c *ScriptedClient) CapturedCalls() []CapturedCall {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]CapturedCall, len(c.capturedInputs))
	copy(out, c.capturedInputs)
	return out
}

// CheckHealth implements llmclient.Provider.
func (c *ScriptedClient) CheckHealth(_ context.Context, _ bool) (llmclient.Health, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.healthy {
		return llmclient.Health{Healthy: false, Error: "scripted unhealthy"}, nil
	}
	return llmclient.Health{Healthy: true, LoadedModel: "scripted-model"}, nil
}

// ChatComplete implements llmclient.Provider.
func (c *ScriptedClient) ChatComplete(_ context.Context, messages []llmclient.Message, maxTokens int, temperature float64) (llmclient.Completion, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.capturedInputs = append(c.capturedInputs, CapturedCall{Messages: messages, MaxTokens: maxTokens, Temperature: temperature})

	if c.index >= len(c.queue) {
		return llmclient.Completion{}, fmt.Errorf("llmtest: script exhausted after %d calls", c.index)
	}
	entry := c.queue[c.index]
	c.index++

	if entry.Err != nil {
		return llmclient.Completion{}, entry.Err
	}

	return llmclient.Completion{
		Choices: []llmclient.Choice{{Message: llmclient.Message{Role: llmclient.RoleSystem, Content: entry.Text}}},
	}, nil
}
