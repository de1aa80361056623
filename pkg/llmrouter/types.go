// Package llmrouter resolves a reasoning-loop purpose (thinking, speaking,
// ...) to a configured provider, dispatches the chat call, retries across an
// ordered fallback chain on retriable failure, and records every attempt as
// an llm_usage_metrics row (spec.md §4.2, §10).
package llmrouter

import "time"

// Message is one turn of conversation handed to a provider, generalized
// across the vendor wire formats the way the teacher's llms.Message does.
type Message struct {
	Role       string // "system", "user", "assistant", "tool"
	Content    string
	ToolCallID string     // set on role "tool": which call this is a result for
	ToolCalls  []ToolCall // set on role "assistant" when the model invoked tools
}

// ToolDefinition is one action exposed to the model for this call, carrying
// the JSON-Schema pkg/action generated for its arguments.
type ToolDefinition struct {
	Name        string
	Description string
	Parameters  map[string]any
}

// ToolCall is one tool invocation the model produced.
type ToolCall struct {
	ID        string
	Name      string
	Arguments map[string]any
	RawArgs   string
}

// ChatRequest is one call into the router for a given purpose.
type ChatRequest struct {
	Purpose  string // routing purpose: thinking, speaking, summarizing, ...
	Messages []Message
	Tools    []ToolDefinition
}

// ChatResponse is a provider's reply, normalized across vendors.
type ChatResponse struct {
	Text         string
	ToolCalls    []ToolCall
	InputTokens  int
	OutputTokens int
	Provider     string // vendor: anthropic, openai, gemini, ollama
	Model        string
	LatencyMS    int64
	TTFTMS       *int64
}

// Attempt records one provider try within a routed call, successful or not,
// for the metrics row recorded after the call settles.
type Attempt struct {
	ProviderName string
	Vendor       string
	Model        string
	Err          error
	LatencyMS    int64
}

func since(start time.Time) int64 {
	return time.Since(start).Milliseconds()
}
