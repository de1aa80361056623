package workspace

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kadirpekel/agentcore/pkg/agentcfg"
)

func newTestWorkspace(t *testing.T, quota int64) *Workspace {
	t.Helper()
	cfg := agentcfg.WorkspaceConfig{Root: t.TempDir(), QuotaBytes: quota}
	ws, err := Open(cfg, "agent-1")
	require.NoError(t, err)
	return ws
}

func TestWriteAndRead(t *testing.T) {
	ws := newTestWorkspace(t, 0)

	require.NoError(t, ws.Write("notes/today.md", []byte("hello")))
	data, err := ws.Read("notes/today.md")
	require.NoError(t, err)
	assert.Equal(t, "hello", string(data))
}

func TestResolveRejectsAbsolutePaths(t *testing.T) {
	ws := newTestWorkspace(t, 0)
	err := ws.Write(filepath.Join(ws.root, "x.txt"), []byte("x"))
	assert.Error(t, err)
}

func TestResolveRejectsTraversal(t *testing.T) {
	ws := newTestWorkspace(t, 0)
	_, err := ws.Read("../outside.txt")
	assert.ErrorIs(t, err, ErrEscape)
}

func TestEditRequiresUniqueMatch(t *testing.T) {
	ws := newTestWorkspace(t, 0)
	require.NoError(t, ws.Write("f.txt", []byte("foo foo")))

	err := ws.Edit("f.txt", "foo", "bar")
	assert.Error(t, err)

	require.NoError(t, ws.Write("g.txt", []byte("foo baz")))
	require.NoError(t, ws.Edit("g.txt", "foo", "bar"))
	data, _ := ws.Read("g.txt")
	assert.Equal(t, "bar baz", string(data))
}

func TestQuotaEnforced(t *testing.T) {
	ws := newTestWorkspace(t, 10)
	require.NoError(t, ws.Write("a.txt", []byte("12345")))
	err := ws.Write("b.txt", []byte("123456"))
	assert.ErrorIs(t, err, ErrQuotaExceeded)
}

func TestDeleteRefusesRoot(t *testing.T) {
	ws := newTestWorkspace(t, 0)
	err := ws.Delete(".")
	assert.Error(t, err)
}

func TestListRecursive(t *testing.T) {
	ws := newTestWorkspace(t, 0)
	require.NoError(t, ws.Write("a/b/c.txt", []byte("x")))
	entries, err := ws.List(".")
	require.NoError(t, err)
	assert.NotEmpty(t, entries)
}
