// Package memory is the agent's durable memory: curated long-term entries
// plus an immutable, BM25-searchable session log (spec.md §3, §4.5). The
// ranking itself lives in pkg/store (it needs direct access to the
// session_log_index table); this package is the agent-facing API surface
// the reasoning loop and action handlers call.
package memory

import (
	"fmt"
	"strings"
	"time"

	"github.com/kadirpekel/agentcore/pkg/store"
)

// CuratedCategory is the category build_context reads from — spec.md
// §4.5's "curated entries of the core category".
const CuratedCategory = "core"

// Service is one agent's memory surface.
type Service struct {
	db      *store.DB
	agentID string
}

// NewService binds a memory service to one agent.
func NewService(db *store.DB, agentID string) *Service {
	return &Service{db: db, agentID: agentID}
}

// Upsert writes (or overwrites) a curated entry by category.
func (s *Service) Upsert(category, content string) error {
	if strings.TrimSpace(category) == "" {
		return fmt.Errorf("memory: category must not be empty")
	}
	if err := s.db.UpsertCuratedMemory(s.agentID, category, content, time.Now().UTC()); err != nil {
		return fmt.Errorf("memory: upsert: %w", err)
	}
	return nil
}

// List returns curated entries, optionally filtered to one category (empty
// string means every category).
func (s *Service) List(category string) ([]store.CuratedMemoryEntry, error) {
	entries, err := s.db.ListCuratedMemory(s.agentID, category)
	if err != nil {
		return nil, fmt.Errorf("memory: list: %w", err)
	}
	return entries, nil
}

// Delete removes a curated entry's category.
func (s *Service) Delete(category string) error {
	if err := s.db.DeleteCuratedMemory(s.agentID, category); err != nil {
		return fmt.Errorf("memory: delete: %w", err)
	}
	return nil
}

// Append writes one immutable session-log turn and returns its id. This is
// the only session-log write operation; entries are never edited.
func (s *Service) Append(sessionID, kind, speakerID string, turn int, content, metadataJSON string) (int64, error) {
	id, err := s.db.AppendSessionLog(store.SessionLogEntry{
		AgentID:   s.agentID,
		SessionID: sessionID,
		Kind:      kind,
		SpeakerID: speakerID,
		Turn:      turn,
		Content:   content,
		Metadata:  metadataJSON,
		CreatedAt: time.Now().UTC(),
	})
	if err != nil {
		return 0, fmt.Errorf("memory: append: %w", err)
	}
	return id, nil
}

// Transcript returns a session's full log in chronological order.
func (s *Service) Transcript(sessionID string) ([]store.SessionLogEntry, error) {
	entries, err := s.db.ListSessionLog(s.agentID, sessionID)
	if err != nil {
		return nil, fmt.Errorf("memory: transcript: %w", err)
	}
	return entries, nil
}

// Search ranks the agent's session log against query with BM25. sessionID
// empty means search across every session the agent owns (search_my_history
// with no session_id argument, spec.md §4.3).
func (s *Service) Search(query string, limit int, sessionID string) ([]store.SearchResult, error) {
	results, err := s.db.SearchSessionLog(s.agentID, sessionID, query, limit)
	if err != nil {
		return nil, fmt.Errorf("memory: search: %w", err)
	}
	return results, nil
}

// Repair re-derives the full-text index against session_log — run once at
// startup to restore the invariant that every log row has matching index
// rows (spec.md §3).
func (s *Service) Repair() error {
	if err := s.db.Repair(); err != nil {
		return fmt.Errorf("memory: repair: %w", err)
	}
	return nil
}

// BuildContext returns the compact text block of curated `core` entries the
// Context Builder embeds verbatim (spec.md §4.5, §4.7 block 3).
func (s *Service) BuildContext() (string, error) {
	entries, err := s.List(CuratedCategory)
	if err != nil {
		return "", err
	}
	if len(entries) == 0 {
		return "", nil
	}
	var b strings.Builder
	for i, e := range entries {
		if i > 0 {
			b.WriteString("\n")
		}
		b.WriteString(e.Content)
	}
	return b.String(), nil
}
