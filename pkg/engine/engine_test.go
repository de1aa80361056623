package engine_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kadirpekel/agentcore/pkg/action"
	"github.com/kadirpekel/agentcore/pkg/agentcfg"
	"github.com/kadirpekel/agentcore/pkg/engine"
	"github.com/kadirpekel/agentcore/pkg/llmrouter"
	"github.com/kadirpekel/agentcore/pkg/memory"
	"github.com/kadirpekel/agentcore/pkg/skill"
	"github.com/kadirpekel/agentcore/pkg/store"
	"github.com/kadirpekel/agentcore/pkg/telemetry"
	"github.com/kadirpekel/agentcore/pkg/workspace"
)

// sequenceProvider replays a fixed sequence of responses, one per Chat call,
// so a test can script a multi-iteration conversation.
type sequenceProvider struct {
	name, vendor, model string
	responses           []llmrouter.ChatResponse
	calls               int
}

func (p *sequenceProvider) Name() string   { return p.name }
func (p *sequenceProvider) Vendor() string { return p.vendor }
func (p *sequenceProvider) Model() string  { return p.model }
func (p *sequenceProvider) Chat(_ context.Context, _ llmrouter.ChatRequest) (llmrouter.ChatResponse, error) {
	if p.calls >= len(p.responses) {
		return llmrouter.ChatResponse{Text: "out of scripted responses"}, nil
	}
	resp := p.responses[p.calls]
	p.calls++
	return resp, nil
}
func (p *sequenceProvider) HealthCheck(_ context.Context) error { return nil }

func newTestEngine(t *testing.T, responses []llmrouter.ChatResponse) *engine.Engine {
	t.Helper()
	db, err := store.Open(agentcfg.StoreConfig{Dialect: "sqlite", DSN: ":memory:"})
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, db.UpsertAgent(store.Agent{ID: "agent-1", Name: "Test"}))

	routerCfg := agentcfg.RouterConfig{
		Aliases:       map[string]string{"tool_calling": "primary"},
		FallbackChain: []string{"primary"},
	}
	telem, err := telemetry.NewManager(context.Background(), telemetry.Config{})
	require.NoError(t, err)

	r := llmrouter.NewRouter(routerCfg, db, telem)
	r.Register(&sequenceProvider{name: "primary", vendor: "anthropic", model: "m1", responses: responses})

	dispatcher := action.NewDispatcher()
	action.RegisterAll(dispatcher)

	ws, err := workspace.Open(agentcfg.WorkspaceConfig{Root: t.TempDir()}, "agent-1")
	require.NoError(t, err)

	mem := memory.NewService(db, "agent-1")
	skills := skill.NewManager(db, "agent-1")
	_, err = skills.Acquire(skill.Skill{
		Name:    "core",
		Actions: []string{"send_speech", "send_noreact", "ws_write"},
	})
	require.NoError(t, err)

	return &engine.Engine{
		DB:         db,
		Router:     r,
		Dispatcher: dispatcher,
		Telemetry:  telem,
		AgentID:    "agent-1",
		Identity:   agentcfg.IdentityConfig{DisplayName: "Scout"},
		RouterCfg:  routerCfg,
		Reasoning:  agentcfg.ReasoningConfig{MaxIterations: 5},
		Whitelist:  []string{"tool_calling"},
		Workspace:  ws,
		Memory:     mem,
		Skills:     skills,
	}
}

func TestRunFreeFormReplyExitsWithoutToolCalls(t *testing.T) {
	e := newTestEngine(t, []llmrouter.ChatResponse{
		{Text: "hello there, no tools needed"},
	})

	result, err := e.Run(context.Background(), "sess-1", "agent-1", "hi")
	require.NoError(t, err)
	assert.False(t, result.Exhausted)
	assert.Empty(t, result.Outcomes)
	assert.Equal(t, "hello there, no tools needed", result.Transcript[len(result.Transcript)-1].Content)
}

func TestRunTerminalActionCommitsAndStops(t *testing.T) {
	e := newTestEngine(t, []llmrouter.ChatResponse{
		{ToolCalls: []llmrouter.ToolCall{{ID: "call-1", Name: "send_speech", Arguments: map[string]any{"content": "hi there"}}}},
	})

	result, err := e.Run(context.Background(), "sess-1", "agent-1", "hi")
	require.NoError(t, err)
	require.Len(t, result.Outcomes, 1)
	assert.True(t, result.Outcomes[0].Success)

	entries, err := e.Memory.Transcript("sess-1")
	require.NoError(t, err)
	require.NotEmpty(t, entries)
}

func TestRunDropsCallsAfterTerminalInSameResponse(t *testing.T) {
	e := newTestEngine(t, []llmrouter.ChatResponse{
		{ToolCalls: []llmrouter.ToolCall{
			{ID: "call-1", Name: "send_speech", Arguments: map[string]any{"content": "first"}},
			{ID: "call-2", Name: "send_noreact", Arguments: map[string]any{}},
		}},
	})

	result, err := e.Run(context.Background(), "sess-1", "agent-1", "hi")
	require.NoError(t, err)
	assert.Len(t, result.Outcomes, 1)
}

func TestRunExhaustsIterationBound(t *testing.T) {
	responses := make([]llmrouter.ChatResponse, 5)
	for i := range responses {
		responses[i] = llmrouter.ChatResponse{ToolCalls: []llmrouter.ToolCall{
			{ID: "call", Name: "ws_write", Arguments: map[string]any{"path": "note.txt", "content": "x"}},
		}}
	}
	e := newTestEngine(t, responses)

	result, err := e.Run(context.Background(), "sess-1", "agent-1", "hi")
	require.ErrorIs(t, err, engine.ErrLoopExhausted)
	assert.True(t, result.Exhausted)
	assert.Len(t, result.Outcomes, 6) // 5 ws_write outcomes + the synthesized loop_exhausted outcome
}

func TestRunHandlesUnparsableArgumentsWithoutAborting(t *testing.T) {
	e := newTestEngine(t, []llmrouter.ChatResponse{
		// "content" must be a string; a number fails ParseArgs's
		// schema-typed unmarshal, so send_speech (though in the
		// terminal set) fails rather than committing a reply.
		{ToolCalls: []llmrouter.ToolCall{{ID: "bad", Name: "send_speech", Arguments: map[string]any{"content": 123}}}},
		{Text: "recovered"},
	})

	result, err := e.Run(context.Background(), "sess-1", "agent-1", "hi")
	require.NoError(t, err)
	require.Len(t, result.Outcomes, 1)
	assert.False(t, result.Outcomes[0].Success)
	assert.Equal(t, "recovered", result.Transcript[len(result.Transcript)-1].Content)
}
