package store_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kadirpekel/agentcore/pkg/agentcfg"
	"github.com/kadirpekel/agentcore/pkg/store"
)

func newTestDB(t *testing.T) *store.DB {
	t.Helper()
	db, err := store.Open(agentcfg.StoreConfig{Dialect: "sqlite", DSN: ":memory:"})
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestUpsertAndGetAgent(t *testing.T) {
	db := newTestDB(t)
	require.NoError(t, db.UpsertAgent(store.Agent{ID: "scout", Name: "Scout"}))

	got, err := db.GetAgent("scout")
	require.NoError(t, err)
	assert.Equal(t, "Scout", got.Name)

	require.NoError(t, db.UpsertAgent(store.Agent{ID: "scout", Name: "Scout Renamed"}))
	got, err = db.GetAgent("scout")
	require.NoError(t, err)
	assert.Equal(t, "Scout Renamed", got.Name)
}

func TestGetAgentNotFound(t *testing.T) {
	db := newTestDB(t)
	_, err := db.GetAgent("nonexistent")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestSessionCreateGetUpdate(t *testing.T) {
	db := newTestDB(t)
	require.NoError(t, db.UpsertAgent(store.Agent{ID: "scout", Name: "Scout"}))

	now := time.Now().UTC()
	session := store.Session{
		ID: "sess-1", AgentID: "scout", Status: store.SessionStatusActive,
		CreatedAt: now, UpdatedAt: now,
	}
	require.NoError(t, db.CreateSession(session))

	got, err := db.GetSession("scout", "sess-1")
	require.NoError(t, err)
	assert.Equal(t, store.SessionStatusActive, got.Status)

	got.TurnCounter = 3
	got.Status = store.SessionStatusDone
	require.NoError(t, db.UpdateSession(got))

	got, err = db.GetSession("scout", "sess-1")
	require.NoError(t, err)
	assert.Equal(t, 3, got.TurnCounter)
	assert.Equal(t, store.SessionStatusDone, got.Status)
}

func TestSkillLifecycle(t *testing.T) {
	db := newTestDB(t)
	require.NoError(t, db.UpsertAgent(store.Agent{ID: "scout", Name: "Scout"}))

	id, err := db.InsertSkill(store.Skill{
		AgentID: "scout", Name: "note-taking", Guidance: "write durable facts",
		ActionsJSON: `["memory_upsert"]`, Source: store.SkillSourceAcquired, Active: true,
	})
	require.NoError(t, err)
	assert.NotZero(t, id)

	active, err := db.ListActiveSkills("scout")
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, "note-taking", active[0].Name)

	quality := 0.9
	require.NoError(t, db.RecordSkillUsage(id, &quality))
	active, err = db.ListActiveSkills("scout")
	require.NoError(t, err)
	assert.Equal(t, 1, active[0].UsageCount)

	require.NoError(t, db.DeactivateSkill(id))
	active, err = db.ListActiveSkills("scout")
	require.NoError(t, err)
	assert.Empty(t, active)
}

func TestUsageMetricsRecordAndQuery(t *testing.T) {
	db := newTestDB(t)
	require.NoError(t, db.UpsertAgent(store.Agent{ID: "scout", Name: "Scout"}))

	id, err := db.RecordUsageMetric(store.LlmUsageMetric{
		AgentID: "scout", SessionID: "sess-1", Timestamp: time.Now().UTC(),
		Provider: "anthropic", Model: "claude-sonnet-4-20250514", Purpose: "tool_calling",
		InputTokens: 100, OutputTokens: 50, CostUSD: 0.01,
	})
	require.NoError(t, err)
	require.NotZero(t, id)

	quality := 0.8
	require.NoError(t, db.AttachEvaluation(id, store.EvaluationFields{QualityScore: &quality}))

	metrics, err := db.QueryUsageMetrics(store.UsageMetricFilter{AgentID: "scout"})
	require.NoError(t, err)
	require.Len(t, metrics, 1)
	require.NotNil(t, metrics[0].QualityScore)
	assert.Equal(t, 0.8, *metrics[0].QualityScore)
}

func TestModelPricingDefaultsWhenMissing(t *testing.T) {
	db := newTestDB(t)
	pricing, err := db.GetModelPricing("anthropic", "claude-sonnet-4-20250514")
	require.NoError(t, err)
	assert.Zero(t, pricing.InputPricePer1M)
	assert.Zero(t, pricing.OutputPricePer1M)

	require.NoError(t, db.UpsertModelPricing(store.ModelPricing{
		Provider: "anthropic", Model: "claude-sonnet-4-20250514",
		InputPricePer1M: 3.0, OutputPricePer1M: 15.0,
	}))
	pricing, err = db.GetModelPricing("anthropic", "claude-sonnet-4-20250514")
	require.NoError(t, err)
	assert.Equal(t, 3.0, pricing.InputPricePer1M)
}
