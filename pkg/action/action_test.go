package action_test

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kadirpekel/agentcore/pkg/action"
	"github.com/kadirpekel/agentcore/pkg/agentcfg"
	"github.com/kadirpekel/agentcore/pkg/memory"
	"github.com/kadirpekel/agentcore/pkg/skill"
	"github.com/kadirpekel/agentcore/pkg/store"
	"github.com/kadirpekel/agentcore/pkg/workspace"
)

func newTestContext(t *testing.T) (*action.Dispatcher, *action.Context) {
	t.Helper()

	db, err := store.Open(agentcfg.StoreConfig{Dialect: "sqlite", DSN: ":memory:"})
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	require.NoError(t, db.UpsertAgent(store.Agent{ID: "agent-1", Name: "Test"}))
	now := time.Now().UTC()
	require.NoError(t, db.CreateSession(store.Session{
		ID: "sess-1", AgentID: "agent-1", Status: store.SessionStatusActive,
		CreatedAt: now, UpdatedAt: now,
	}))

	wsCfg := agentcfg.WorkspaceConfig{Root: t.TempDir(), QuotaBytes: 1024 * 1024}
	ws, err := workspace.Open(wsCfg, "agent-1")
	require.NoError(t, err)

	mem := memory.NewService(db, "agent-1")
	skills := skill.NewManager(db, "agent-1")

	d := action.NewDispatcher()
	action.RegisterAll(d)

	ctx := &action.Context{
		DB: db, Workspace: ws, Memory: mem, Skills: skills,
		Override:  &action.ModelOverride{},
		AgentID:   "agent-1",
		SessionID: "sess-1",
		SpeakerID: "agent-1",
		Turn:      1,
		Whitelist: []string{"fast", "smart"},
	}
	return d, ctx
}

func mustJSON(t *testing.T, v any) json.RawMessage {
	t.Helper()
	b, err := json.Marshal(v)
	require.NoError(t, err)
	return b
}

func TestSendSpeechIsTerminalAndLogs(t *testing.T) {
	d, ctx := newTestContext(t)

	assert.True(t, d.IsTerminal("send_speech"))
	out := d.Execute(ctx, "send_speech", mustJSON(t, map[string]any{"content": "hello there"}))
	require.True(t, out.Success)

	entries, err := ctx.Memory.Transcript("sess-1")
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "hello there", entries[0].Content)
}

func TestDeclareDoneIncrementsDoneCount(t *testing.T) {
	d, ctx := newTestContext(t)

	out := d.Execute(ctx, "declare_done", mustJSON(t, map[string]any{}))
	require.True(t, out.Success)

	sess, err := ctx.DB.GetSession("agent-1", "sess-1")
	require.NoError(t, err)
	assert.Equal(t, 1, sess.DoneCount)
}

func TestWorkspaceWriteReadRoundTrip(t *testing.T) {
	d, ctx := newTestContext(t)

	out := d.Execute(ctx, "ws_write", mustJSON(t, map[string]any{"path": "notes.txt", "content": "draft one"}))
	require.True(t, out.Success)

	out = d.Execute(ctx, "ws_read", mustJSON(t, map[string]any{"path": "notes.txt"}))
	require.True(t, out.Success)
	data := out.Data.(map[string]any)
	assert.Equal(t, "draft one", data["content"])
}

func TestWorkspaceEscapeIsRejected(t *testing.T) {
	d, ctx := newTestContext(t)

	out := d.Execute(ctx, "ws_read", mustJSON(t, map[string]any{"path": "../../etc/passwd"}))
	assert.False(t, out.Success)
	assert.NotEmpty(t, out.Error)
}

func TestLearnFromExperienceAcquiresSkill(t *testing.T) {
	d, ctx := newTestContext(t)

	out := d.Execute(ctx, "learn_from_experience", mustJSON(t, map[string]any{
		"experience":        "tried X",
		"outcome":           "it failed",
		"lesson":            "do Y instead",
		"skill_name":        "retry-with-backoff",
		"situation_pattern": "transient network errors",
		"guidance":          "back off and retry",
	}))
	require.True(t, out.Success)

	active := ctx.Skills.ActiveSkills()
	require.Len(t, active, 1)
	assert.Equal(t, "retry-with-backoff", active[0].Name)
	assert.Equal(t, skill.SourceAcquiredExperience, active[0].Source)
}

func TestSearchMyHistoryFindsLoggedContent(t *testing.T) {
	d, ctx := newTestContext(t)

	out := d.Execute(ctx, "send_speech", mustJSON(t, map[string]any{"content": "the deploy failed at midnight"}))
	require.True(t, out.Success)

	out = d.Execute(ctx, "search_my_history", mustJSON(t, map[string]any{"query": "deploy failed"}))
	require.True(t, out.Success)
	data := out.Data.(map[string]any)
	results := data["results"].([]store.SearchResult)
	require.NotEmpty(t, results)
}

func TestSelectLLMRejectsUnlistedAlias(t *testing.T) {
	d, ctx := newTestContext(t)

	out := d.Execute(ctx, "select_llm", mustJSON(t, map[string]any{
		"purpose": "thinking", "model_alias": "exotic", "reason": "testing", "duration": "this_turn",
	}))
	assert.False(t, out.Success)

	_, ok := ctx.Override.Get("thinking")
	assert.False(t, ok)
}

func TestSelectLLMAcceptsWhitelistedAlias(t *testing.T) {
	d, ctx := newTestContext(t)

	out := d.Execute(ctx, "select_llm", mustJSON(t, map[string]any{
		"purpose": "thinking", "model_alias": "fast", "reason": "cheaper", "duration": "this_turn",
	}))
	require.True(t, out.Success)

	alias, ok := ctx.Override.Get("thinking")
	require.True(t, ok)
	assert.Equal(t, "fast", alias)
}

func TestEvaluateResponseRequiresLastMetricsID(t *testing.T) {
	d, ctx := newTestContext(t)

	out := d.Execute(ctx, "evaluate_response", mustJSON(t, map[string]any{"evaluation": "good"}))
	assert.False(t, out.Success)
}

func TestEvaluateResponseAttachesToRecordedMetric(t *testing.T) {
	d, ctx := newTestContext(t)

	id, err := ctx.DB.RecordUsageMetric(store.LlmUsageMetric{
		AgentID: "agent-1", SessionID: "sess-1", Timestamp: time.Now().UTC(),
		Provider: "anthropic", Model: "claude", Purpose: "thinking",
	})
	require.NoError(t, err)
	ctx.LastMetricsID = &id

	score := 0.9
	out := d.Execute(ctx, "evaluate_response", mustJSON(t, map[string]any{
		"quality_score": score, "evaluation": "solid answer",
	}))
	require.True(t, out.Success)
}

func TestOptimizeModelSelectionRanksByGoal(t *testing.T) {
	d, ctx := newTestContext(t)

	cheap := 0.001
	pricey := 0.05
	_, err := ctx.DB.RecordUsageMetric(store.LlmUsageMetric{
		AgentID: "agent-1", SessionID: "sess-1", Timestamp: time.Now().UTC(),
		Provider: "anthropic", Model: "cheap-model", Purpose: "thinking", CostUSD: cheap,
	})
	require.NoError(t, err)
	_, err = ctx.DB.RecordUsageMetric(store.LlmUsageMetric{
		AgentID: "agent-1", SessionID: "sess-1", Timestamp: time.Now().UTC(),
		Provider: "anthropic", Model: "pricey-model", Purpose: "thinking", CostUSD: pricey,
	})
	require.NoError(t, err)

	out := d.Execute(ctx, "optimize_model_selection", mustJSON(t, map[string]any{"goal": "minimize_cost"}))
	require.True(t, out.Success)
	data := out.Data.(map[string]any)
	assert.Equal(t, "cheap-model", data["suggested_model"])
}

func TestUnknownActionReturnsFailure(t *testing.T) {
	d, ctx := newTestContext(t)

	out := d.Execute(ctx, "does_not_exist", mustJSON(t, map[string]any{}))
	assert.False(t, out.Success)
}

func TestInvalidArgumentsReturnsFailureNotPanic(t *testing.T) {
	d, ctx := newTestContext(t)

	out := d.Execute(ctx, "ws_write", json.RawMessage(`{"path": 5}`))
	assert.False(t, out.Success)
	assert.NotEmpty(t, out.Error)
}
