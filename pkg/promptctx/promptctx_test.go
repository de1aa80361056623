package promptctx_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kadirpekel/agentcore/pkg/agentcfg"
	"github.com/kadirpekel/agentcore/pkg/memory"
	"github.com/kadirpekel/agentcore/pkg/promptctx"
	"github.com/kadirpekel/agentcore/pkg/skill"
	"github.com/kadirpekel/agentcore/pkg/store"
)

func newTestDB(t *testing.T) *store.DB {
	t.Helper()
	db, err := store.Open(agentcfg.StoreConfig{Dialect: "sqlite", DSN: ":memory:"})
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, db.UpsertAgent(store.Agent{ID: "agent-1", Name: "Test"}))
	return db
}

func TestBuildOmitsEmptyBlocks(t *testing.T) {
	b := &promptctx.Builder{}
	prompt, err := b.Build()
	require.NoError(t, err)
	assert.NotContains(t, prompt, "# Identity")
	assert.NotContains(t, prompt, "# Persona")
	assert.NotContains(t, prompt, "# Memory")
	assert.NotContains(t, prompt, "# Skills")
	assert.NotContains(t, prompt, "# LLM configuration")
	assert.Contains(t, prompt, promptctx.Directive)
}

func TestBuildIncludesPopulatedBlocks(t *testing.T) {
	db := newTestDB(t)
	mem := memory.NewService(db, "agent-1")
	require.NoError(t, mem.Upsert(memory.CuratedCategory, "the user's name is Alex"))

	skills := skill.NewManager(db, "agent-1")
	_, err := skills.Acquire(skill.Skill{
		Name:     "note-taking",
		Guidance: "Write durable facts to memory before replying.",
		Actions:  []string{"memory_upsert"},
	})
	require.NoError(t, err)

	b := &promptctx.Builder{
		Identity: agentcfg.IdentityConfig{DisplayName: "Scout", Role: "research assistant"},
		Persona: agentcfg.PersonaConfig{
			BigFive:     agentcfg.BigFiveVector{Openness: 0.8, Conscientiousness: 0.6, Extraversion: 0.4, Agreeableness: 0.7, Neuroticism: 0.2},
			SocialStyle: agentcfg.SocialStyle{Assertiveness: 0.6, Responsiveness: 0.7},
			Thinking:    agentcfg.ThinkingStyle{Primary: "analytical", Secondary: "creative"},
		},
		Memory: mem,
		Skills: skills,
		Router: agentcfg.RouterConfig{
			Aliases:   map[string]string{"fast": "openai-main", "smart": "anthropic-main"},
			Whitelist: []string{"fast", "smart"},
		},
		Override: promptctx.ModelSelection{CurrentPurpose: "reflection", SelectedAlias: "smart"},
	}

	prompt, err := b.Build()
	require.NoError(t, err)
	assert.Contains(t, prompt, "You are Scout.")
	assert.Contains(t, prompt, "Role: research assistant")
	assert.Contains(t, prompt, "expressive") // assertive=0.6, responsive=0.7 -> expressive quadrant
	assert.Contains(t, prompt, "Alex")
	assert.Contains(t, prompt, "note-taking")
	assert.Contains(t, prompt, "Write durable facts")
	assert.Contains(t, prompt, "Current purpose: reflection (alias: smart)")
	assert.Contains(t, prompt, "fast, smart")
	assert.Contains(t, prompt, promptctx.Directive)
}

func TestActiveSkillActionsUnion(t *testing.T) {
	db := newTestDB(t)
	skills := skill.NewManager(db, "agent-1")
	_, err := skills.Acquire(skill.Skill{Name: "a", Actions: []string{"x", "y"}})
	require.NoError(t, err)
	_, err = skills.Acquire(skill.Skill{Name: "b", Actions: []string{"y", "z"}})
	require.NoError(t, err)

	actions := promptctx.ActiveSkillActions(skills)
	assert.ElementsMatch(t, []string{"x", "y", "z"}, actions)
}

func TestEstimateTokensIsPositiveForNonEmptyText(t *testing.T) {
	assert.Greater(t, promptctx.EstimateTokens("hello, world"), 0)
	assert.Equal(t, 0, promptctx.EstimateTokens(""))
}
