// Package workspace gives each agent a sandboxed slice of the filesystem —
// read/write/edit/list/mkdir/delete confined to a per-agent root, with a
// byte quota enforced lazily rather than tracked live.
package workspace

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/kadirpekel/agentcore/pkg/agentcfg"
)

// ErrEscape is returned when a requested path would resolve outside the
// workspace root.
var ErrEscape = errors.New("workspace: path escapes workspace root")

// ErrQuotaExceeded is returned when a write would push the workspace over
// its configured byte quota.
var ErrQuotaExceeded = errors.New("workspace: quota exceeded")

// Entry describes one file or directory returned by List.
type Entry struct {
	Path    string
	IsDir   bool
	Size    int64
	ModTime time.Time
}

// Workspace is one agent's sandboxed root directory.
type Workspace struct {
	root  string
	quota int64
}

// Open resolves and creates (if needed) the agent's workspace root,
// computed as base / agent_id / "workspace" per spec.md §4.4.
func Open(cfg agentcfg.WorkspaceConfig, agentID string) (*Workspace, error) {
	root, err := filepath.Abs(filepath.Join(cfg.Root, agentID, "workspace"))
	if err != nil {
		return nil, fmt.Errorf("workspace: resolve root: %w", err)
	}
	if err := os.MkdirAll(root, 0755); err != nil {
		return nil, fmt.Errorf("workspace: create root: %w", err)
	}
	return &Workspace{root: root, quota: cfg.QuotaBytes}, nil
}

// resolve validates path against the sandbox rules — no absolute paths, no
// ".." traversal, and the resolved path must stay under root — the same
// three checks the teacher's file-writer tool applies before touching disk.
func (w *Workspace) resolve(path string) (string, error) {
	if filepath.IsAbs(path) {
		return "", fmt.Errorf("workspace: absolute paths not allowed: %q", path)
	}
	cleaned := filepath.Clean(path)
	if cleaned == ".." || strings.HasPrefix(cleaned, "../") {
		return "", fmt.Errorf("%w: %q", ErrEscape, path)
	}

	full, err := filepath.Abs(filepath.Join(w.root, cleaned))
	if err != nil {
		return "", fmt.Errorf("workspace: resolve %q: %w", path, err)
	}
	if full != w.root && !strings.HasPrefix(full, w.root+string(filepath.Separator)) {
		return "", fmt.Errorf("%w: %q", ErrEscape, path)
	}
	return full, nil
}

// Read returns the contents of a file relative to the workspace root.
func (w *Workspace) Read(path string) ([]byte, error) {
	full, err := w.resolve(path)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(full)
	if err != nil {
		return nil, fmt.Errorf("workspace: read %q: %w", path, err)
	}
	return data, nil
}

// Write creates or overwrites a file, enforcing the byte quota first.
func (w *Workspace) Write(path string, content []byte) error {
	full, err := w.resolve(path)
	if err != nil {
		return err
	}
	if w.quota > 0 {
		used, err := w.Usage()
		if err != nil {
			return err
		}
		existing, _ := fileSize(full)
		if used-existing+int64(len(content)) > w.quota {
			return fmt.Errorf("%w: writing %q would exceed %d bytes", ErrQuotaExceeded, path, w.quota)
		}
	}
	if err := os.MkdirAll(filepath.Dir(full), 0755); err != nil {
		return fmt.Errorf("workspace: create directory for %q: %w", path, err)
	}
	if err := os.WriteFile(full, content, 0644); err != nil {
		return fmt.Errorf("workspace: write %q: %w", path, err)
	}
	return nil
}

// Edit replaces the first occurrence of oldText with newText in the file at
// path, failing if oldText isn't found or isn't unique enough to apply
// safely (mirrors the common "find and replace a snippet" editing action).
func (w *Workspace) Edit(path, oldText, newText string) error {
	data, err := w.Read(path)
	if err != nil {
		return err
	}
	content := string(data)
	count := strings.Count(content, oldText)
	if count == 0 {
		return fmt.Errorf("workspace: edit %q: old text not found", path)
	}
	if count > 1 {
		return fmt.Errorf("workspace: edit %q: old text is not unique (%d occurrences)", path, count)
	}
	return w.Write(path, []byte(strings.Replace(content, oldText, newText, 1)))
}

// Mkdir creates a directory (and parents) relative to the workspace root.
func (w *Workspace) Mkdir(path string) error {
	full, err := w.resolve(path)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(full, 0755); err != nil {
		return fmt.Errorf("workspace: mkdir %q: %w", path, err)
	}
	return nil
}

// Delete removes a file or directory (recursively) relative to the
// workspace root.
func (w *Workspace) Delete(path string) error {
	full, err := w.resolve(path)
	if err != nil {
		return err
	}
	if full == w.root {
		return fmt.Errorf("workspace: refusing to delete workspace root")
	}
	if err := os.RemoveAll(full); err != nil {
		return fmt.Errorf("workspace: delete %q: %w", path, err)
	}
	return nil
}

// List returns every entry under path (relative to root), recursively.
func (w *Workspace) List(path string) ([]Entry, error) {
	full, err := w.resolve(path)
	if err != nil {
		return nil, err
	}
	var out []Entry
	err = filepath.WalkDir(full, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if p == full {
			return nil
		}
		rel, relErr := filepath.Rel(w.root, p)
		if relErr != nil {
			return relErr
		}
		info, infoErr := d.Info()
		if infoErr != nil {
			return infoErr
		}
		out = append(out, Entry{
			Path:    rel,
			IsDir:   d.IsDir(),
			Size:    info.Size(),
			ModTime: info.ModTime(),
		})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("workspace: list %q: %w", path, err)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Path < out[j].Path })
	return out, nil
}

// Usage computes total bytes used under the workspace root by walking the
// tree — a lazy recompute rather than a live running counter, since quota
// checks happen only on writes and a quota breach is expected to be rare.
func (w *Workspace) Usage() (int64, error) {
	var total int64
	err := filepath.WalkDir(w.root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		info, infoErr := d.Info()
		if infoErr != nil {
			return infoErr
		}
		total += info.Size()
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("workspace: usage: %w", err)
	}
	return total, nil
}

func fileSize(path string) (int64, error) {
	info, err := os.Stat(path)
	if err != nil {
		return 0, err
	}
	return info.Size(), nil
}
