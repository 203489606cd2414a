package domain

import "context"

// Message roles understood by chat completion providers.
const (
	RoleSystem = "system"
	RoleUser   = "user"
)

// Message is a single role/content pair sent to a completion provider.
type Message struct {
	Role    string
	Content string
}

// CompletionRequest is a non-streaming chat completion call.
// Model may be empty, in which case the provider default (and its fallback chain) is used.
type CompletionRequest struct {
	Model       string
	Messages    []Message
	MaxTokens   int
	Temperature float32
}

// CompletionResult carries the first choice content and token usage.
type CompletionResult struct {
	Content          string
	Model            string
	PromptTokens     int
	CompletionTokens int
	TotalTokens      int
}

// Completer is the chat completion contract consumed by the relevance filter.
type Completer interface {
	Complete(ctx context.Context, req CompletionRequest) (CompletionResult, error)
}
