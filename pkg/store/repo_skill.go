package store

import (
	"database/sql"
	"errors"
)

// InsertSkill stores a new skill row (bundled at load time, or acquired at
// runtime via the learning actions) and returns its id.
func (db *DB) InsertSkill(s Skill) (int64, error) {
	res, err := db.exec(
		`INSERT INTO skills (agent_id, name, description, situation_pattern, guidance, actions_json, source, usage_count, effectiveness, active, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		s.AgentID, s.Name, s.Description, s.SituationPattern, s.Guidance, s.ActionsJSON, s.Source, s.UsageCount, s.Effectiveness, s.Active, s.CreatedAt)
	if err != nil {
		return 0, wrapErr("insert_skill", err)
	}
	id, err := res.LastInsertId()
	return id, wrapErr("insert_skill", err)
}

// ListActiveSkills returns every active skill for an agent, bundled and
// acquired alike, in the order the context builder should present them.
func (db *DB) ListActiveSkills(agentID string) ([]Skill, error) {
	rows, err := db.query(
		`SELECT id, agent_id, name, description, situation_pattern, guidance, actions_json, source, usage_count, effectiveness, active, created_at
		 FROM skills WHERE agent_id = ? AND active = ? ORDER BY id ASC`, agentID, true)
	if err != nil {
		return nil, wrapErr("list_active_skills", err)
	}
	defer rows.Close()

	var out []Skill
	for rows.Next() {
		var s Skill
		if err := rows.Scan(&s.ID, &s.AgentID, &s.Name, &s.Description, &s.SituationPattern, &s.Guidance, &s.ActionsJSON, &s.Source, &s.UsageCount, &s.Effectiveness, &s.Active, &s.CreatedAt); err != nil {
			return nil, wrapErr("list_active_skills", err)
		}
		out = append(out, s)
	}
	return out, wrapErr("list_active_skills", rows.Err())
}

// GetSkillByName finds a skill by (agent_id, name); bundled skills are
// upserted by name on hot-reload, so names are unique per agent.
func (db *DB) GetSkillByName(agentID, name string) (Skill, error) {
	row := db.queryRow(
		`SELECT id, agent_id, name, description, situation_pattern, guidance, actions_json, source, usage_count, effectiveness, active, created_at
		 FROM skills WHERE agent_id = ? AND name = ?`, agentID, name)
	var s Skill
	if err := row.Scan(&s.ID, &s.AgentID, &s.Name, &s.Description, &s.SituationPattern, &s.Guidance, &s.ActionsJSON, &s.Source, &s.UsageCount, &s.Effectiveness, &s.Active, &s.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Skill{}, ErrNotFound
		}
		return Skill{}, wrapErr("get_skill_by_name", err)
	}
	return s, nil
}

// UpsertBundledSkill replaces a bundled skill's content on hot-reload while
// preserving its usage statistics, or inserts it if new.
func (db *DB) UpsertBundledSkill(s Skill) error {
	existing, err := db.GetSkillByName(s.AgentID, s.Name)
	if errors.Is(err, ErrNotFound) {
		_, insertErr := db.InsertSkill(s)
		return insertErr
	}
	if err != nil {
		return err
	}
	_, execErr := db.exec(
		`UPDATE skills SET description = ?, situation_pattern = ?, guidance = ?, actions_json = ?, active = ? WHERE id = ?`,
		s.Description, s.SituationPattern, s.Guidance, s.ActionsJSON, s.Active, existing.ID)
	return wrapErr("upsert_bundled_skill", execErr)
}

// RecordSkillUsage increments a skill's usage_count and optionally updates
// its effectiveness estimate (nil leaves effectiveness untouched).
func (db *DB) RecordSkillUsage(skillID int64, effectiveness *float64) error {
	if effectiveness == nil {
		_, err := db.exec(`UPDATE skills SET usage_count = usage_count + 1 WHERE id = ?`, skillID)
		return wrapErr("record_skill_usage", err)
	}
	_, err := db.exec(`UPDATE skills SET usage_count = usage_count + 1, effectiveness = ? WHERE id = ?`, *effectiveness, skillID)
	return wrapErr("record_skill_usage", err)
}

// DeactivateSkill marks a skill inactive rather than deleting it, keeping
// its usage history intact.
func (db *DB) DeactivateSkill(skillID int64) error {
	_, err := db.exec(`UPDATE skills SET active = ? WHERE id = ?`, false, skillID)
	return wrapErr("deactivate_skill", err)
}
