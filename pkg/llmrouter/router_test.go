package llmrouter_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kadirpekel/agentcore/pkg/action"
	"github.com/kadirpekel/agentcore/pkg/agentcfg"
	"github.com/kadirpekel/agentcore/pkg/llmrouter"
	"github.com/kadirpekel/agentcore/pkg/store"
)

type fakeProvider struct {
	name, vendor, model string
	resp                llmrouter.ChatResponse
	err                 error
}

func (f *fakeProvider) Name() string   { return f.name }
func (f *fakeProvider) Vendor() string { return f.vendor }
func (f *fakeProvider) Model() string  { return f.model }
func (f *fakeProvider) Chat(_ context.Context, _ llmrouter.ChatRequest) (llmrouter.ChatResponse, error) {
	return f.resp, f.err
}
func (f *fakeProvider) HealthCheck(_ context.Context) error { return nil }

func newTestRouter(t *testing.T, cfg agentcfg.RouterConfig) (*llmrouter.Router, *store.DB) {
	t.Helper()
	db, err := store.Open(agentcfg.StoreConfig{Dialect: "sqlite", DSN: ":memory:"})
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, db.UpsertAgent(store.Agent{ID: "agent-1", Name: "Test"}))
	return llmrouter.NewRouter(cfg, db, nil), db
}

func TestChatResolvesAliasAndRecordsMetric(t *testing.T) {
	r, db := newTestRouter(t, agentcfg.RouterConfig{
		Aliases:       map[string]string{"thinking": "claude-main"},
		FallbackChain: []string{"claude-main"},
	})
	r.Register(&fakeProvider{name: "claude-main", vendor: "anthropic", model: "claude-x",
		resp: llmrouter.ChatResponse{Text: "hi", InputTokens: 10, OutputTokens: 5}})

	resp, metricID, err := r.Chat(context.Background(), "agent-1", "sess-1", &action.ModelOverride{}, llmrouter.ChatRequest{Purpose: "thinking"})
	require.NoError(t, err)
	assert.Equal(t, "hi", resp.Text)
	assert.Greater(t, metricID, int64(0))

	metrics, err := db.QueryUsageMetrics(store.UsageMetricFilter{AgentID: "agent-1"})
	require.NoError(t, err)
	require.Len(t, metrics, 1)
	assert.Equal(t, "anthropic", metrics[0].Provider)
}

func TestChatFallsBackOnRetriableError(t *testing.T) {
	r, _ := newTestRouter(t, agentcfg.RouterConfig{
		Aliases:       map[string]string{"thinking": "primary"},
		FallbackChain: []string{"primary", "secondary"},
	})
	r.Register(&fakeProvider{name: "primary", vendor: "anthropic", model: "m1",
		err: llmrouter.Retriable(errors.New("rate limited"))})
	r.Register(&fakeProvider{name: "secondary", vendor: "openai", model: "m2",
		resp: llmrouter.ChatResponse{Text: "fallback ok"}})

	resp, _, err := r.Chat(context.Background(), "agent-1", "sess-1", &action.ModelOverride{}, llmrouter.ChatRequest{Purpose: "thinking"})
	require.NoError(t, err)
	assert.Equal(t, "fallback ok", resp.Text)
}

func TestChatStopsOnNonRetriableError(t *testing.T) {
	r, _ := newTestRouter(t, agentcfg.RouterConfig{
		Aliases:       map[string]string{"thinking": "primary"},
		FallbackChain: []string{"primary", "secondary"},
	})
	r.Register(&fakeProvider{name: "primary", vendor: "anthropic", model: "m1",
		err: errors.New("bad request")})
	r.Register(&fakeProvider{name: "secondary", vendor: "openai", model: "m2",
		resp: llmrouter.ChatResponse{Text: "should not be reached"}})

	_, _, err := r.Chat(context.Background(), "agent-1", "sess-1", &action.ModelOverride{}, llmrouter.ChatRequest{Purpose: "thinking"})
	assert.Error(t, err)
}

func TestChatHonorsSelectLLMOverride(t *testing.T) {
	r, _ := newTestRouter(t, agentcfg.RouterConfig{
		Aliases:       map[string]string{"thinking": "slow-model", "fast": "fast-model"},
		FallbackChain: []string{"slow-model"},
	})
	r.Register(&fakeProvider{name: "slow-model", vendor: "anthropic", model: "m-slow",
		resp: llmrouter.ChatResponse{Text: "slow"}})
	r.Register(&fakeProvider{name: "fast-model", vendor: "openai", model: "m-fast",
		resp: llmrouter.ChatResponse{Text: "fast"}})

	override := &action.ModelOverride{}
	override.Set("thinking", "fast", action.DurationThisTurn, "cheaper")

	resp, _, err := r.Chat(context.Background(), "agent-1", "sess-1", override, llmrouter.ChatRequest{Purpose: "thinking"})
	require.NoError(t, err)
	assert.Equal(t, "fast", resp.Text)
}
