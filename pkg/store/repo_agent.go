package store

import (
	"database/sql"
	"errors"
)

// ErrNotFound is returned by single-row lookups that find nothing, so
// callers can distinguish "absent" from a genuine PersistenceError.
var ErrNotFound = errors.New("store: not found")

// UpsertAgent inserts or replaces the agent identity row.
func (db *DB) UpsertAgent(a Agent) error {
	_, err := db.exec(db.upsertSQL("agents", []string{"id"}, []string{"name", "created_at", "updated_at"}),
		a.ID, a.Name, a.CreatedAt, a.UpdatedAt)
	return wrapErr("upsert_agent", err)
}

// GetAgent loads an agent by id.
func (db *DB) GetAgent(id string) (Agent, error) {
	row := db.queryRow(`SELECT id, name, created_at, updated_at FROM agents WHERE id = ?`, id)
	var a Agent
	if err := row.Scan(&a.ID, &a.Name, &a.CreatedAt, &a.UpdatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Agent{}, ErrNotFound
		}
		return Agent{}, wrapErr("get_agent", err)
	}
	return a, nil
}

// UpsertPersona inserts or replaces the persona row for an agent.
func (db *DB) UpsertPersona(p Persona) error {
	_, err := db.exec(db.upsertSQL("personas", []string{"agent_id"},
		[]string{"big_five_json", "social_assertiveness", "social_responsiveness", "thinking_primary", "thinking_secondary", "thinking_notes"}),
		p.AgentID, p.BigFiveJSON, p.SocialAssertiveness, p.SocialResponsiveness, p.ThinkingPrimary, p.ThinkingSecondary, p.ThinkingNotes)
	return wrapErr("upsert_persona", err)
}

// GetPersona loads the persona row for an agent.
func (db *DB) GetPersona(agentID string) (Persona, error) {
	row := db.queryRow(`SELECT agent_id, big_five_json, social_assertiveness, social_responsiveness, thinking_primary, thinking_secondary, thinking_notes FROM personas WHERE agent_id = ?`, agentID)
	var p Persona
	if err := row.Scan(&p.AgentID, &p.BigFiveJSON, &p.SocialAssertiveness, &p.SocialResponsiveness, &p.ThinkingPrimary, &p.ThinkingSecondary, &p.ThinkingNotes); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Persona{}, ErrNotFound
		}
		return Persona{}, wrapErr("get_persona", err)
	}
	return p, nil
}

// UpsertIdentity inserts or replaces the identity row for an agent.
func (db *DB) UpsertIdentity(id Identity) error {
	_, err := db.exec(db.upsertSQL("identities", []string{"agent_id"},
		[]string{"display_name", "role", "job_title", "organization", "avatar_url"}),
		id.AgentID, id.DisplayName, id.Role, id.JobTitle, id.Organization, id.AvatarURL)
	return wrapErr("upsert_identity", err)
}

// GetIdentity loads the identity row for an agent.
func (db *DB) GetIdentity(agentID string) (Identity, error) {
	row := db.queryRow(`SELECT agent_id, display_name, role, job_title, organization, avatar_url FROM identities WHERE agent_id = ?`, agentID)
	var id Identity
	if err := row.Scan(&id.AgentID, &id.DisplayName, &id.Role, &id.JobTitle, &id.Organization, &id.AvatarURL); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Identity{}, ErrNotFound
		}
		return Identity{}, wrapErr("get_identity", err)
	}
	return id, nil
}
