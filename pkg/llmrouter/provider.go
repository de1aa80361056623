package llmrouter

import "context"

// Provider is one configured LLM backend instance: a (vendor, model) pair
// reachable under a single router-facing name, grounded on the teacher's
// llms.LLMProvider interface and generalized from its single-prompt
// Generate/GenerateStreaming pair to a message-list Chat call carrying tool
// definitions, the shape every modern provider SDK in the pack (Anthropic,
// OpenAI, Gemini) actually expects.
type Provider interface {
	// Name is this instance's router-facing name (an agentcfg.LLMProviderConfig.Name).
	Name() string
	// Vendor identifies the backend family for metrics/pricing lookups.
	Vendor() string
	// Model is the vendor-side model identifier this instance calls.
	Model() string
	// Chat issues one call and returns a normalized response.
	Chat(ctx context.Context, req ChatRequest) (ChatResponse, error)
	// HealthCheck reports whether the provider is currently reachable.
	HealthCheck(ctx context.Context) error
}

// RetriableError wraps a provider error the router should retry against the
// next link in the fallback chain (rate limits, timeouts, 5xx responses).
type RetriableError struct {
	Err error
}

func (e *RetriableError) Error() string { return e.Err.Error() }
func (e *RetriableError) Unwrap() error { return e.Err }

// Retriable marks err as retriable by the router's fallback logic.
func Retriable(err error) error {
	if err == nil {
		return nil
	}
	return &RetriableError{Err: err}
}

// IsRetriable reports whether err was marked retriable by a provider.
func IsRetriable(err error) bool {
	_, ok := err.(*RetriableError)
	return ok
}
