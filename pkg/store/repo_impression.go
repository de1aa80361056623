package store

import (
	"database/sql"
	"errors"
)

// UpsertImpression inserts or refreshes one agent's impression of another
// within a session (spec's social-model entity).
func (db *DB) UpsertImpression(imp Impression) error {
	existing, err := db.findImpression(imp.ObserverAgentID, imp.SessionID, imp.TargetAgentID)
	if errors.Is(err, ErrNotFound) {
		_, insertErr := db.exec(
			`INSERT INTO impressions (observer_agent_id, session_id, target_agent_id, content, updated_at) VALUES (?, ?, ?, ?, ?)`,
			imp.ObserverAgentID, imp.SessionID, imp.TargetAgentID, imp.Content, imp.UpdatedAt)
		return wrapErr("insert_impression", insertErr)
	}
	if err != nil {
		return err
	}
	_, execErr := db.exec(`UPDATE impressions SET content = ?, updated_at = ? WHERE id = ?`, imp.Content, imp.UpdatedAt, existing.ID)
	return wrapErr("update_impression", execErr)
}

func (db *DB) findImpression(observerID, sessionID, targetID string) (Impression, error) {
	row := db.queryRow(
		`SELECT id, observer_agent_id, session_id, target_agent_id, content, updated_at
		 FROM impressions WHERE observer_agent_id = ? AND session_id = ? AND target_agent_id = ?`,
		observerID, sessionID, targetID)
	var imp Impression
	if err := row.Scan(&imp.ID, &imp.ObserverAgentID, &imp.SessionID, &imp.TargetAgentID, &imp.Content, &imp.UpdatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Impression{}, ErrNotFound
		}
		return Impression{}, wrapErr("find_impression", err)
	}
	return imp, nil
}

// ListImpressions returns everything one agent has recorded about others in
// a session.
func (db *DB) ListImpressions(observerID, sessionID string) ([]Impression, error) {
	rows, err := db.query(
		`SELECT id, observer_agent_id, session_id, target_agent_id, content, updated_at
		 FROM impressions WHERE observer_agent_id = ? AND session_id = ? ORDER BY target_agent_id`,
		observerID, sessionID)
	if err != nil {
		return nil, wrapErr("list_impressions", err)
	}
	defer rows.Close()

	var out []Impression
	for rows.Next() {
		var imp Impression
		if err := rows.Scan(&imp.ID, &imp.ObserverAgentID, &imp.SessionID, &imp.TargetAgentID, &imp.Content, &imp.UpdatedAt); err != nil {
			return nil, wrapErr("list_impressions", err)
		}
		out = append(out, imp)
	}
	return out, wrapErr("list_impressions", rows.Err())
}
