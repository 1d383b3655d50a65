// Package llmclient defines the narrow interface the core consumes from
// the LLM provider (spec §6). The provider itself — health checks,
// retries, the actual model backend — is an out-of-scope external
// collaborator per spec §1; this package only pins down the contract and
// a reference implementation used in tests
// (see llmtest.ScriptedClient).
package llmclient

import "context"

// Role identifies a chat message's author, mirroring the teacher's
// pkg/agent.ConversationMessage roles.
type Role string

const (
	RoleSystem Role = "system"
	RoleUser   Role = "user"
)

// Message is one entry in the ordered conversation sent to ChatComplete.
type Message struct {
	Role    Role
	Content string
}

// Health is the result of a CheckHealth probe.
type Health struct {
	Healthy     bool
	LoadedModel string
	Error       string
}

// Choice mirrors a single completion choice, following the
// choices[0].message.content shape spec §6 describes.
type Choice struct {
	Message Message
}

// Completion is the result of a ChatComplete call.
type Completion struct {
	Choices []Choice
	Error   string
}

// Text returns the first choice's content, or "" if there are no
// choices (defensive — spec §9 never trusts provider output to be
// schema-complete).
func (c Completion) Text() string {
	if len(c.Choices) == 0 {
		return ""
	}
	return c.Choices[0].Message.Content
}

// Provider is the opaque LLM capability consumed throughout the core:
// subject detection, relevance scoring, candidate extraction, and
// optional action-item validation all go through this interface.
type Provider interface {
	// CheckHealth probes provider availability. force bypasses any
	// internal caching the implementation may apply.
	CheckHealth(ctx context.Context, force bool) (Health, error)

	// ChatComplete sends an ordered message list and returns the model's
	// response. maxTokens and temperature are per-call overrides of the
	// config defaults (spec §6).
	ChatComplete(ctx context.Context, messages []Message, maxTokens int, temperature float64) (Completion, error)
}
