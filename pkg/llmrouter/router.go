package llmrouter

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/kadirpekel/agentcore/pkg/action"
	"github.com/kadirpekel/agentcore/pkg/agentcfg"
	"github.com/kadirpekel/agentcore/pkg/store"
	"github.com/kadirpekel/agentcore/pkg/telemetry"
)

// ErrNoProvider is returned when a purpose resolves to no usable provider.
var ErrNoProvider = errors.New("llmrouter: no provider available for purpose")

// Router resolves a purpose to a provider name (checking a live
// select_llm override before the static alias table), dispatches the call,
// walks the fallback chain on retriable failure, and records every
// attempted call as telemetry.
type Router struct {
	mu        sync.RWMutex
	providers map[string]Provider
	cfg       agentcfg.RouterConfig
	db        *store.DB
	telemetry *telemetry.Manager
}

// NewRouter builds a router over cfg's alias/fallback configuration. The
// caller registers each configured provider instance afterward. telem may be
// nil; every Manager/Tracer/Metrics method is nil-safe.
func NewRouter(cfg agentcfg.RouterConfig, db *store.DB, telem *telemetry.Manager) *Router {
	return &Router{providers: make(map[string]Provider), cfg: cfg, db: db, telemetry: telem}
}

// Register adds a provider instance under its own Name().
func (r *Router) Register(p Provider) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.providers[p.Name()] = p
}

func (r *Router) get(name string) (Provider, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.providers[name]
	return p, ok
}

// resolveChain builds the ordered list of provider names to try: the
// select_llm override (if one is set for this purpose), then the statically
// configured alias, then the fallback chain, default alias last, each
// appearing at most once.
func (r *Router) resolveChain(purpose string, override *action.ModelOverride) []string {
	seen := make(map[string]bool)
	var chain []string
	add := func(name string) {
		if name == "" || seen[name] {
			return
		}
		seen[name] = true
		chain = append(chain, name)
	}

	if override != nil {
		if alias, ok := override.Get(purpose); ok {
			add(r.cfg.Aliases[alias])
		}
	}
	add(r.cfg.Aliases[purpose])
	for _, name := range r.cfg.FallbackChain {
		add(name)
	}
	add(r.cfg.Aliases[r.cfg.DefaultAlias])
	return chain
}

// Chat resolves purpose to a provider chain, tries each in order until one
// succeeds or the chain is exhausted, and records the outcome of every
// attempt as an llm_usage_metrics row. It returns the successful response
// and the id of the metric row recorded for it, so the caller can set
// ctx.last_metrics_id for a subsequent evaluate_response action.
func (r *Router) Chat(ctx context.Context, agentID, sessionID string, override *action.ModelOverride, req ChatRequest) (ChatResponse, int64, error) {
	chain := r.resolveChain(req.Purpose, override)
	if len(chain) == 0 {
		return ChatResponse{}, 0, ErrNoProvider
	}

	var lastErr error
	for i, name := range chain {
		p, ok := r.get(name)
		if !ok {
			lastErr = fmt.Errorf("llmrouter: provider %q not registered", name)
			continue
		}

		spanCtx, span := r.telemetry.Tracer().StartLLMCall(ctx, agentID, req.Purpose, p.Vendor(), p.Model())
		start := time.Now()
		resp, err := p.Chat(spanCtx, req)
		latency := since(start)
		r.telemetry.Tracer().AddLLMUsage(span, resp.InputTokens, resp.OutputTokens)
		r.telemetry.Tracer().RecordError(span, err)
		span.End()

		metricID, cost, recErr := r.record(agentID, sessionID, req.Purpose, p, resp, latency, err)
		if recErr != nil {
			// Telemetry failures never mask the call's own result.
			metricID = 0
		}
		r.telemetry.Metrics().RecordLLMCall(p.Vendor(), p.Model(), req.Purpose, latency, resp.InputTokens, resp.OutputTokens, cost, err)

		if err == nil {
			resp.LatencyMS = latency
			return resp, metricID, nil
		}

		lastErr = err
		if !IsRetriable(err) || i == len(chain)-1 {
			return ChatResponse{}, metricID, fmt.Errorf("llmrouter: %s failed: %w", name, err)
		}
	}
	return ChatResponse{}, 0, lastErr
}

func (r *Router) record(agentID, sessionID, purpose string, p Provider, resp ChatResponse, latencyMS int64, callErr error) (int64, float64, error) {
	model := p.Model()
	vendor := p.Vendor()
	cost := 0.0
	if callErr == nil {
		if pricing, err := r.db.GetModelPricing(vendor, model); err == nil {
			cost = float64(resp.InputTokens)/1_000_000*pricing.InputPricePer1M +
				float64(resp.OutputTokens)/1_000_000*pricing.OutputPricePer1M
		}
	}
	evaluation := ""
	if callErr != nil {
		evaluation = callErr.Error()
	}
	id, err := r.db.RecordUsageMetric(store.LlmUsageMetric{
		AgentID:      agentID,
		SessionID:    sessionID,
		Timestamp:    time.Now().UTC(),
		Provider:     vendor,
		Model:        model,
		Purpose:      purpose,
		InputTokens:  resp.InputTokens,
		OutputTokens: resp.OutputTokens,
		CostUSD:      cost,
		LatencyMS:    latencyMS,
		Evaluation:   evaluation,
	})
	return id, cost, err
}
