// Package skill manages an agent's skill set: bundled skills parsed from
// text files at creation time, and acquired skills the reasoning loop
// creates at runtime via the learning actions (spec.md §3, §4.6).
package skill

import (
	"encoding/json"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/kadirpekel/agentcore/pkg/store"
)

// Source identifies how a skill came to exist.
type Source string

const (
	SourceBundled             Source = "bundled"
	SourceAcquiredExperience  Source = "acquired-via-experience"
	SourceAcquiredPeer        Source = "acquired-via-peer"
	SourceAcquiredReflection  Source = "acquired-via-reflection"
)

// Skill is the in-memory, action-list-typed view of store.Skill.
type Skill struct {
	ID               int64
	AgentID          string
	Name             string
	Description      string
	SituationPattern string
	Guidance         string
	Actions          []string
	Source           Source
	UsageCount       int
	Effectiveness    *float64
	Active           bool
	CreatedAt        time.Time
}

func fromRow(row store.Skill) (Skill, error) {
	var actions []string
	if row.ActionsJSON != "" {
		if err := json.Unmarshal([]byte(row.ActionsJSON), &actions); err != nil {
			return Skill{}, fmt.Errorf("skill: decode actions for %q: %w", row.Name, err)
		}
	}
	return Skill{
		ID:               row.ID,
		AgentID:          row.AgentID,
		Name:             row.Name,
		Description:      row.Description,
		SituationPattern: row.SituationPattern,
		Guidance:         row.Guidance,
		Actions:          actions,
		Source:           Source(row.Source),
		UsageCount:       row.UsageCount,
		Effectiveness:    row.Effectiveness,
		Active:           row.Active,
		CreatedAt:        row.CreatedAt,
	}, nil
}

func (s Skill) toRow() (store.Skill, error) {
	actionsJSON, err := json.Marshal(s.Actions)
	if err != nil {
		return store.Skill{}, fmt.Errorf("skill: encode actions for %q: %w", s.Name, err)
	}
	return store.Skill{
		ID:               s.ID,
		AgentID:          s.AgentID,
		Name:             s.Name,
		Description:      s.Description,
		SituationPattern: s.SituationPattern,
		Guidance:         s.Guidance,
		ActionsJSON:      string(actionsJSON),
		Source:           string(s.Source),
		UsageCount:       s.UsageCount,
		Effectiveness:    s.Effectiveness,
		Active:           s.Active,
		CreatedAt:        s.CreatedAt,
	}, nil
}

// Manager owns one agent's skill set: the bundled-file loader, the acquired
// skill writer, and the active-set cache the reasoning loop reads every
// iteration.
type Manager struct {
	db      *store.DB
	agentID string

	mu     sync.RWMutex
	active []Skill
}

// NewManager creates a skill manager bound to one agent; call Refresh (or
// LoadBundledDir) before ActiveSkills returns anything useful.
func NewManager(db *store.DB, agentID string) *Manager {
	return &Manager{db: db, agentID: agentID}
}

// Refresh reloads the active-set cache from the store.
func (m *Manager) Refresh() error {
	rows, err := m.db.ListActiveSkills(m.agentID)
	if err != nil {
		return fmt.Errorf("skill: refresh: %w", err)
	}
	skills := make([]Skill, 0, len(rows))
	for _, row := range rows {
		s, err := fromRow(row)
		if err != nil {
			return err
		}
		skills = append(skills, s)
	}
	m.mu.Lock()
	m.active = skills
	m.mu.Unlock()
	return nil
}

// ActiveSkills returns the cached active set (spec.md §4.6's active_skills).
func (m *Manager) ActiveSkills() []Skill {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]Skill, len(m.active))
	copy(out, m.active)
	return out
}

// ActionNames returns the deduplicated, sorted union of action names the
// active skill set exposes (spec.md §4.1 step 2).
func ActionNames(skills []Skill) []string {
	seen := make(map[string]bool)
	for _, s := range skills {
		for _, a := range s.Actions {
			seen[a] = true
		}
	}
	out := make([]string, 0, len(seen))
	for a := range seen {
		out = append(out, a)
	}
	sort.Strings(out)
	return out
}

// Acquire persists a new acquired skill (learn_from_experience /
// learn_from_peer / reflect_and_learn / create_my_skill all route here with
// the appropriate Source) and refreshes the active-set cache.
func (m *Manager) Acquire(s Skill) (int64, error) {
	s.AgentID = m.agentID
	s.Active = true
	if s.CreatedAt.IsZero() {
		s.CreatedAt = time.Now().UTC()
	}
	row, err := s.toRow()
	if err != nil {
		return 0, err
	}
	id, err := m.db.InsertSkill(row)
	if err != nil {
		return 0, fmt.Errorf("skill: acquire %q: %w", s.Name, err)
	}
	return id, m.Refresh()
}

// RecordUsage increments a skill's usage count and optionally updates its
// effectiveness estimate, then refreshes the cache.
func (m *Manager) RecordUsage(skillID int64, effectiveness *float64) error {
	if err := m.db.RecordSkillUsage(skillID, effectiveness); err != nil {
		return fmt.Errorf("skill: record usage: %w", err)
	}
	return m.Refresh()
}

// Deactivate turns a skill off without deleting its history, then refreshes
// the cache.
func (m *Manager) Deactivate(skillID int64) error {
	if err := m.db.DeactivateSkill(skillID); err != nil {
		return fmt.Errorf("skill: deactivate: %w", err)
	}
	return m.Refresh()
}
