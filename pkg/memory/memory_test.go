package memory_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kadirpekel/agentcore/pkg/agentcfg"
	"github.com/kadirpekel/agentcore/pkg/memory"
	"github.com/kadirpekel/agentcore/pkg/store"
)

func newTestService(t *testing.T) *memory.Service {
	t.Helper()
	db, err := store.Open(agentcfg.StoreConfig{Dialect: "sqlite", DSN: ":memory:"})
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, db.UpsertAgent(store.Agent{ID: "agent-1", Name: "Test"}))
	return memory.NewService(db, "agent-1")
}

func TestUpsertAndBuildContext(t *testing.T) {
	svc := newTestService(t)

	require.NoError(t, svc.Upsert(memory.CuratedCategory, "the user's name is Alex"))
	require.NoError(t, svc.Upsert(memory.CuratedCategory, "prefers terse answers"))

	ctx, err := svc.BuildContext()
	require.NoError(t, err)
	assert.Contains(t, ctx, "Alex")
	assert.Contains(t, ctx, "terse")
}

func TestUpsertOverwritesByCategory(t *testing.T) {
	svc := newTestService(t)

	require.NoError(t, svc.Upsert("preferences", "likes dogs"))
	require.NoError(t, svc.Upsert("preferences", "likes cats"))

	entries, err := svc.List("preferences")
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "likes cats", entries[0].Content)
}

func TestAppendIsImmutableAndSearchable(t *testing.T) {
	svc := newTestService(t)

	_, err := svc.Append("sess-1", "utterance", "user", 1, "the deploy failed at midnight", "")
	require.NoError(t, err)
	_, err = svc.Append("sess-1", "utterance", "agent", 2, "investigating the deploy failure now", "")
	require.NoError(t, err)

	results, err := svc.Search("deploy failure", 10, "sess-1")
	require.NoError(t, err)
	require.NotEmpty(t, results)
	assert.Contains(t, results[0].Entry.Content, "deploy")
}

func TestSearchRequiresAllTermsPresent(t *testing.T) {
	svc := newTestService(t)

	_, err := svc.Append("sess-1", "utterance", "user", 1, "the cat sat on the mat", "")
	require.NoError(t, err)

	results, err := svc.Search("cat dog", 10, "sess-1")
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestSearchAcrossAllSessionsWhenUnscoped(t *testing.T) {
	svc := newTestService(t)

	_, err := svc.Append("sess-1", "utterance", "user", 1, "release rollback started for the api", "")
	require.NoError(t, err)
	_, err = svc.Append("sess-2", "utterance", "user", 1, "another release rollback happened here", "")
	require.NoError(t, err)

	results, err := svc.Search("release rollback", 10, "")
	require.NoError(t, err)
	assert.Len(t, results, 2)
}

func TestRepairIsIdempotent(t *testing.T) {
	svc := newTestService(t)
	_, err := svc.Append("sess-1", "utterance", "user", 1, "some content", "")
	require.NoError(t, err)

	assert.NoError(t, svc.Repair())
	assert.NoError(t, svc.Repair())
}
