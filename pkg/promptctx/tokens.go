package promptctx

import (
	"context"
	"log/slog"
	"sync"

	"github.com/pkoukk/tiktoken-go"
)

// defaultEncoding is used for every model: this package only estimates a
// soft budget for logging, so exact per-model tokenization (the teacher's
// EncodingForModel-with-fallback dance in pkg/utils.NewTokenCounter) would
// be wasted precision here.
const defaultEncoding = "cl100k_base"

var (
	encodingOnce sync.Once
	encoding     *tiktoken.Tiktoken
	encodingErr  error
)

func getEncoding() (*tiktoken.Tiktoken, error) {
	encodingOnce.Do(func() {
		encoding, encodingErr = tiktoken.GetEncoding(defaultEncoding)
	})
	return encoding, encodingErr
}

// EstimateTokens returns an approximate token count for text. On any
// tokenizer failure it falls back to the teacher's own rough
// characters/4 heuristic (pkg/utils.EstimateTokens) rather than erroring,
// since this is a soft-budget estimate, never a hard limit.
func EstimateTokens(text string) int {
	enc, err := getEncoding()
	if err != nil || enc == nil {
		return len(text) / 4
	}
	return len(enc.Encode(text, nil, nil))
}

// LogIfOverBudget logs at debug level when prompt exceeds budget tokens.
// This package never truncates a built prompt — SPEC_FULL.md leaves
// truncation policy unspecified, so the budget is observability only, not
// enforcement.
func LogIfOverBudget(ctx context.Context, logger *slog.Logger, agentID, prompt string, budget int) {
	if logger == nil || budget <= 0 {
		return
	}
	count := EstimateTokens(prompt)
	if count > budget {
		logger.DebugContext(ctx, "system prompt exceeds soft token budget",
			slog.String("agent_id", agentID),
			slog.Int("estimated_tokens", count),
			slog.Int("budget", budget),
		)
	}
}
