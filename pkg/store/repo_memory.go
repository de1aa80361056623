package store

import (
	"database/sql"
	"errors"
	"time"
)

// UpsertCuratedMemory inserts a new curated entry, or updates content and
// updated_at when one already exists for (agent_id, category) — curated
// entries are upserted by category, never appended (spec §3).
func (db *DB) UpsertCuratedMemory(agentID, category, content string, now time.Time) error {
	existing, err := db.findCuratedMemory(agentID, category)
	if err != nil && !errors.Is(err, ErrNotFound) {
		return err
	}
	if errors.Is(err, ErrNotFound) {
		_, execErr := db.exec(
			`INSERT INTO curated_memory (agent_id, category, content, created_at, updated_at) VALUES (?, ?, ?, ?, ?)`,
			agentID, category, content, now, now)
		return wrapErr("insert_curated_memory", execErr)
	}
	_, execErr := db.exec(`UPDATE curated_memory SET content = ?, updated_at = ? WHERE id = ?`, content, now, existing.ID)
	return wrapErr("update_curated_memory", execErr)
}

func (db *DB) findCuratedMemory(agentID, category string) (CuratedMemoryEntry, error) {
	row := db.queryRow(`SELECT id, agent_id, category, content, created_at, updated_at FROM curated_memory WHERE agent_id = ? AND category = ?`, agentID, category)
	var e CuratedMemoryEntry
	if err := row.Scan(&e.ID, &e.AgentID, &e.Category, &e.Content, &e.CreatedAt, &e.UpdatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return CuratedMemoryEntry{}, ErrNotFound
		}
		return CuratedMemoryEntry{}, wrapErr("find_curated_memory", err)
	}
	return e, nil
}

// ListCuratedMemory returns every curated entry for an agent, optionally
// filtered to a single category (empty string means all categories).
func (db *DB) ListCuratedMemory(agentID, category string) ([]CuratedMemoryEntry, error) {
	var rows *sql.Rows
	var err error
	if category == "" {
		rows, err = db.query(`SELECT id, agent_id, category, content, created_at, updated_at FROM curated_memory WHERE agent_id = ? ORDER BY category`, agentID)
	} else {
		rows, err = db.query(`SELECT id, agent_id, category, content, created_at, updated_at FROM curated_memory WHERE agent_id = ? AND category = ? ORDER BY category`, agentID, category)
	}
	if err != nil {
		return nil, wrapErr("list_curated_memory", err)
	}
	defer rows.Close()

	var out []CuratedMemoryEntry
	for rows.Next() {
		var e CuratedMemoryEntry
		if err := rows.Scan(&e.ID, &e.AgentID, &e.Category, &e.Content, &e.CreatedAt, &e.UpdatedAt); err != nil {
			return nil, wrapErr("list_curated_memory", err)
		}
		out = append(out, e)
	}
	return out, wrapErr("list_curated_memory", rows.Err())
}

// DeleteCuratedMemory removes a curated entry by category; a no-op (not an
// error) if the category doesn't exist.
func (db *DB) DeleteCuratedMemory(agentID, category string) error {
	_, err := db.exec(`DELETE FROM curated_memory WHERE agent_id = ? AND category = ?`, agentID, category)
	return wrapErr("delete_curated_memory", err)
}

// AppendSessionLog writes one immutable transcript row and derives its
// term-frequency entries into session_log_index in the same call — the two
// tables are meant to stay in lockstep (spec §6's full-text-index invariant;
// Repair re-derives either side if they ever drift).
func (db *DB) AppendSessionLog(e SessionLogEntry) (int64, error) {
	res, err := db.exec(
		`INSERT INTO session_log (agent_id, session_id, kind, speaker_id, turn, content, metadata_json, created_at) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		e.AgentID, e.SessionID, e.Kind, e.SpeakerID, e.Turn, e.Content, e.Metadata, e.CreatedAt)
	if err != nil {
		return 0, wrapErr("append_session_log", err)
	}
	logID, err := res.LastInsertId()
	if err != nil {
		return 0, wrapErr("append_session_log", err)
	}
	if err := db.indexSessionLog(e.AgentID, e.SessionID, logID, e.Content); err != nil {
		return logID, err
	}
	return logID, nil
}

func (db *DB) indexSessionLog(agentID, sessionID string, logID int64, content string) error {
	freqs := termFrequencies(content)
	for term, freq := range freqs {
		if _, err := db.exec(
			`INSERT INTO session_log_index (agent_id, session_id, log_id, term, frequency) VALUES (?, ?, ?, ?, ?)`,
			agentID, sessionID, logID, term, freq); err != nil {
			return wrapErr("index_session_log", err)
		}
	}
	return nil
}

// ListSessionLog returns a session's transcript in chronological order.
func (db *DB) ListSessionLog(agentID, sessionID string) ([]SessionLogEntry, error) {
	rows, err := db.query(
		`SELECT id, agent_id, session_id, kind, speaker_id, turn, content, metadata_json, created_at
		 FROM session_log WHERE agent_id = ? AND session_id = ? ORDER BY id ASC`,
		agentID, sessionID)
	if err != nil {
		return nil, wrapErr("list_session_log", err)
	}
	defer rows.Close()

	var out []SessionLogEntry
	for rows.Next() {
		var e SessionLogEntry
		if err := rows.Scan(&e.ID, &e.AgentID, &e.SessionID, &e.Kind, &e.SpeakerID, &e.Turn, &e.Content, &e.Metadata, &e.CreatedAt); err != nil {
			return nil, wrapErr("list_session_log", err)
		}
		out = append(out, e)
	}
	return out, wrapErr("list_session_log", rows.Err())
}

// Repair re-derives session_log_index rows for any session_log entry missing
// one, and drops index rows whose log_id no longer exists. It is idempotent
// and meant to run once at startup (spec §3 invariant: the index must
// always mirror session_log).
func (db *DB) Repair() error {
	rows, err := db.query(`
		SELECT sl.id, sl.agent_id, sl.session_id, sl.content
		FROM session_log sl
		LEFT JOIN session_log_index sli ON sli.log_id = sl.id
		WHERE sli.log_id IS NULL`)
	if err != nil {
		return wrapErr("repair_scan", err)
	}
	type orphan struct {
		id        int64
		agentID   string
		sessionID string
		content   string
	}
	var missing []orphan
	for rows.Next() {
		var o orphan
		if err := rows.Scan(&o.id, &o.agentID, &o.sessionID, &o.content); err != nil {
			rows.Close()
			return wrapErr("repair_scan", err)
		}
		missing = append(missing, o)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return wrapErr("repair_scan", err)
	}

	for _, o := range missing {
		if err := db.indexSessionLog(o.agentID, o.sessionID, o.id, o.content); err != nil {
			return err
		}
	}

	_, err = db.exec(`DELETE FROM session_log_index WHERE log_id NOT IN (SELECT id FROM session_log)`)
	return wrapErr("repair_prune", err)
}
