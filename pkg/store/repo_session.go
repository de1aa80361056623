package store

import (
	"database/sql"
	"errors"
)

// CreateSession inserts a new session row.
func (db *DB) CreateSession(s Session) error {
	_, err := db.exec(
		`INSERT INTO sessions (id, agent_id, mode, theme, phase, turn_counter, status, participants_json, done_count, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		s.ID, s.AgentID, s.Mode, s.Theme, s.Phase, s.TurnCounter, s.Status, s.ParticipantsJSON, s.DoneCount, s.CreatedAt, s.UpdatedAt)
	return wrapErr("create_session", err)
}

// GetSession loads a session by (id, agent_id).
func (db *DB) GetSession(agentID, sessionID string) (Session, error) {
	row := db.queryRow(
		`SELECT id, agent_id, mode, theme, phase, turn_counter, status, participants_json, done_count, created_at, updated_at
		 FROM sessions WHERE id = ? AND agent_id = ?`, sessionID, agentID)
	var s Session
	if err := row.Scan(&s.ID, &s.AgentID, &s.Mode, &s.Theme, &s.Phase, &s.TurnCounter, &s.Status, &s.ParticipantsJSON, &s.DoneCount, &s.CreatedAt, &s.UpdatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Session{}, ErrNotFound
		}
		return Session{}, wrapErr("get_session", err)
	}
	return s, nil
}

// UpdateSession persists a session's mutable fields (turn counter, phase,
// status, done count, participants) after a reasoning-loop iteration.
func (db *DB) UpdateSession(s Session) error {
	_, err := db.exec(
		`UPDATE sessions SET mode = ?, theme = ?, phase = ?, turn_counter = ?, status = ?, participants_json = ?, done_count = ?, updated_at = ?
		 WHERE id = ? AND agent_id = ?`,
		s.Mode, s.Theme, s.Phase, s.TurnCounter, s.Status, s.ParticipantsJSON, s.DoneCount, s.UpdatedAt, s.ID, s.AgentID)
	return wrapErr("update_session", err)
}
