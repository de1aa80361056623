package skill

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kadirpekel/agentcore/pkg/agentcfg"
	"github.com/kadirpekel/agentcore/pkg/store"
)

func newTestManager(t *testing.T) (*Manager, *store.DB) {
	t.Helper()
	db, err := store.Open(agentcfg.StoreConfig{Dialect: "sqlite", DSN: ":memory:"})
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, db.UpsertAgent(store.Agent{ID: "scout", Name: "Scout"}))
	return NewManager(db, "scout"), db
}

func TestAcquireAddsToActiveSet(t *testing.T) {
	m, _ := newTestManager(t)

	id, err := m.Acquire(Skill{
		Name:             "notekeeper",
		SituationPattern: "user asks to remember something",
		Guidance:         "write it to notes/<topic>.md",
		Actions:          []string{"ws_write"},
		Source:           SourceAcquiredExperience,
	})
	require.NoError(t, err)
	assert.NotZero(t, id)

	active := m.ActiveSkills()
	require.Len(t, active, 1)
	assert.Equal(t, "notekeeper", active[0].Name)
	assert.Equal(t, SourceAcquiredExperience, active[0].Source)
	assert.Equal(t, 0, active[0].UsageCount)
}

func TestRecordUsageIncrementsCountAndRefreshesCache(t *testing.T) {
	m, _ := newTestManager(t)

	id, err := m.Acquire(Skill{Name: "searcher", SituationPattern: "always", Guidance: "search first", Source: SourceAcquiredReflection})
	require.NoError(t, err)

	require.NoError(t, m.RecordUsage(id, nil))
	require.NoError(t, m.RecordUsage(id, nil))

	active := m.ActiveSkills()
	require.Len(t, active, 1)
	assert.Equal(t, 2, active[0].UsageCount)

	score := 0.8
	require.NoError(t, m.RecordUsage(id, &score))
	active = m.ActiveSkills()
	require.Len(t, active, 1)
	require.NotNil(t, active[0].Effectiveness)
	assert.Equal(t, 0.8, *active[0].Effectiveness)
}

func TestDeactivateRemovesFromActiveSetButKeepsHistory(t *testing.T) {
	m, db := newTestManager(t)

	id, err := m.Acquire(Skill{Name: "transient", SituationPattern: "once", Guidance: "one-off", Source: SourceAcquiredPeer})
	require.NoError(t, err)
	require.Len(t, m.ActiveSkills(), 1)

	require.NoError(t, m.Deactivate(id))
	assert.Empty(t, m.ActiveSkills())

	row, err := db.GetSkillByName("scout", "transient")
	require.NoError(t, err)
	assert.False(t, row.Active)
}

func TestRefreshReflectsStoreState(t *testing.T) {
	m, db := newTestManager(t)
	assert.Empty(t, m.ActiveSkills())

	_, err := db.InsertSkill(store.Skill{
		AgentID: "scout", Name: "seeded", Guidance: "seeded directly",
		Source: string(SourceBundled), Active: true,
	})
	require.NoError(t, err)

	// Not visible until Refresh runs — the cache, not the store, is what
	// ActiveSkills reads.
	assert.Empty(t, m.ActiveSkills())

	require.NoError(t, m.Refresh())
	active := m.ActiveSkills()
	require.Len(t, active, 1)
	assert.Equal(t, "seeded", active[0].Name)
}

func TestActionNamesUnionsAcrossActiveSkills(t *testing.T) {
	m, _ := newTestManager(t)

	_, err := m.Acquire(Skill{Name: "a", SituationPattern: "x", Guidance: "g", Actions: []string{"send_speech", "ws_write"}, Source: SourceAcquiredExperience})
	require.NoError(t, err)
	_, err = m.Acquire(Skill{Name: "b", SituationPattern: "y", Guidance: "g", Actions: []string{"ws_write", "ws_read"}, Source: SourceAcquiredExperience})
	require.NoError(t, err)

	assert.Equal(t, []string{"send_speech", "ws_read", "ws_write"}, ActionNames(m.ActiveSkills()))
}

func TestLoadBundledDirUpsertsAndSkipsMalformed(t *testing.T) {
	m, _ := newTestManager(t)
	dir := t.TempDir()

	good := "name: greeter\ndescription: says hello\nactions: send_speech\n\nGreet the user warmly.\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "greeter.skill"), []byte(good), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "broken.skill"), []byte("description: missing a name\n\nbody\n"), 0o644))

	require.NoError(t, m.LoadBundledDir(dir))

	active := m.ActiveSkills()
	require.Len(t, active, 1)
	assert.Equal(t, "greeter", active[0].Name)
	assert.Equal(t, SourceBundled, active[0].Source)
}

func TestLoadBundledDirMissingDirIsNotAnError(t *testing.T) {
	m, _ := newTestManager(t)
	require.NoError(t, m.LoadBundledDir(filepath.Join(t.TempDir(), "does-not-exist")))
	assert.Empty(t, m.ActiveSkills())
}

func TestWatchBundledDirReloadsOnWrite(t *testing.T) {
	m, _ := newTestManager(t)
	dir := t.TempDir()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, m.WatchBundledDir(ctx, dir))

	body := "name: watcher-skill\ndescription: appears after the watch starts\nactions: ws_read\n\nRead files when asked.\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "watcher.skill"), []byte(body), 0o644))

	require.Eventually(t, func() bool {
		return len(m.ActiveSkills()) == 1
	}, 2*time.Second, 20*time.Millisecond, "bundled skill was not picked up by the watch loop")

	active := m.ActiveSkills()
	require.Len(t, active, 1)
	assert.Equal(t, "watcher-skill", active[0].Name)
}
