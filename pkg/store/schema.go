package store

import "fmt"

// schemaStatements returns the idempotent CREATE TABLE/INDEX statements for
// the given dialect. Column types stick to the common subset all three
// drivers accept cleanly (VARCHAR for identifiers, TEXT for free text,
// following the teacher's own SQLSessionService convention), with only the
// autoincrement syntax varying per engine.
func schemaStatements(d Dialect) []string {
	pk := autoIncrementPK(d)
	boolType := booleanType(d)

	return []string{
		`CREATE TABLE IF NOT EXISTS agents (
			id VARCHAR(255) PRIMARY KEY,
			name VARCHAR(255) NOT NULL,
			created_at TIMESTAMP NOT NULL,
			updated_at TIMESTAMP NOT NULL
		);`,

		`CREATE TABLE IF NOT EXISTS personas (
			agent_id VARCHAR(255) PRIMARY KEY,
			big_five_json TEXT NOT NULL,
			social_assertiveness REAL NOT NULL DEFAULT 0,
			social_responsiveness REAL NOT NULL DEFAULT 0,
			thinking_primary VARCHAR(255),
			thinking_secondary VARCHAR(255),
			thinking_notes TEXT,
			FOREIGN KEY (agent_id) REFERENCES agents(id) ON DELETE CASCADE
		);`,

		`CREATE TABLE IF NOT EXISTS identities (
			agent_id VARCHAR(255) PRIMARY KEY,
			display_name VARCHAR(255) NOT NULL,
			role VARCHAR(255),
			job_title VARCHAR(255),
			organization VARCHAR(255),
			avatar_url VARCHAR(1024),
			FOREIGN KEY (agent_id) REFERENCES agents(id) ON DELETE CASCADE
		);`,

		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS curated_memory (
			id %s,
			agent_id VARCHAR(255) NOT NULL,
			category VARCHAR(255) NOT NULL,
			content TEXT NOT NULL,
			created_at TIMESTAMP NOT NULL,
			updated_at TIMESTAMP NOT NULL,
			FOREIGN KEY (agent_id) REFERENCES agents(id) ON DELETE CASCADE
		);`, pk),
		`CREATE INDEX IF NOT EXISTS idx_curated_memory_agent ON curated_memory(agent_id, category);`,

		`CREATE TABLE IF NOT EXISTS sessions (
			id VARCHAR(255) NOT NULL,
			agent_id VARCHAR(255) NOT NULL,
			mode VARCHAR(255),
			theme VARCHAR(255),
			phase VARCHAR(255),
			turn_counter INTEGER NOT NULL DEFAULT 0,
			status VARCHAR(32) NOT NULL DEFAULT 'active',
			participants_json TEXT NOT NULL DEFAULT '[]',
			done_count INTEGER NOT NULL DEFAULT 0,
			created_at TIMESTAMP NOT NULL,
			updated_at TIMESTAMP NOT NULL,
			PRIMARY KEY (id, agent_id)
		);`,

		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS session_log (
			id %s,
			agent_id VARCHAR(255) NOT NULL,
			session_id VARCHAR(255) NOT NULL,
			kind VARCHAR(32) NOT NULL,
			speaker_id VARCHAR(255),
			turn INTEGER NOT NULL DEFAULT 0,
			content TEXT NOT NULL,
			metadata_json TEXT,
			created_at TIMESTAMP NOT NULL
		);`, pk),
		`CREATE INDEX IF NOT EXISTS idx_session_log_scope ON session_log(agent_id, session_id);`,

		`CREATE TABLE IF NOT EXISTS session_log_index (
			agent_id VARCHAR(255) NOT NULL,
			session_id VARCHAR(255) NOT NULL,
			log_id INTEGER NOT NULL,
			term VARCHAR(255) NOT NULL,
			frequency INTEGER NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_session_log_index_term ON session_log_index(agent_id, term);`,
		`CREATE INDEX IF NOT EXISTS idx_session_log_index_log ON session_log_index(log_id);`,

		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS skills (
			id %s,
			agent_id VARCHAR(255) NOT NULL,
			name VARCHAR(255) NOT NULL,
			description TEXT,
			situation_pattern TEXT,
			guidance TEXT,
			actions_json TEXT NOT NULL DEFAULT '[]',
			source VARCHAR(64) NOT NULL,
			usage_count INTEGER NOT NULL DEFAULT 0,
			effectiveness REAL,
			active %s NOT NULL DEFAULT %s,
			created_at TIMESTAMP NOT NULL
		);`, pk, boolType, trueLiteral(d)),
		`CREATE INDEX IF NOT EXISTS idx_skills_agent ON skills(agent_id, active);`,

		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS impressions (
			id %s,
			observer_agent_id VARCHAR(255) NOT NULL,
			session_id VARCHAR(255) NOT NULL,
			target_agent_id VARCHAR(255) NOT NULL,
			content TEXT NOT NULL,
			updated_at TIMESTAMP NOT NULL
		);`, pk),
		`CREATE INDEX IF NOT EXISTS idx_impressions_scope ON impressions(observer_agent_id, session_id, target_agent_id);`,

		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS llm_usage_metrics (
			id %s,
			agent_id VARCHAR(255) NOT NULL,
			session_id VARCHAR(255),
			ts TIMESTAMP NOT NULL,
			provider VARCHAR(64) NOT NULL,
			model VARCHAR(255) NOT NULL,
			purpose VARCHAR(64) NOT NULL,
			task_type VARCHAR(64),
			input_tokens INTEGER NOT NULL,
			output_tokens INTEGER NOT NULL,
			cost_usd REAL NOT NULL,
			latency_ms INTEGER NOT NULL,
			ttft_ms INTEGER,
			quality_score REAL,
			task_success %s,
			evaluation TEXT,
			would_use_again %s,
			suggested_alternative VARCHAR(255)
		);`, pk, boolType, boolType),
		`CREATE INDEX IF NOT EXISTS idx_metrics_agent_ts ON llm_usage_metrics(agent_id, ts);`,
		`CREATE INDEX IF NOT EXISTS idx_metrics_purpose ON llm_usage_metrics(agent_id, purpose, model);`,

		`CREATE TABLE IF NOT EXISTS model_pricing (
			provider VARCHAR(64) NOT NULL,
			model VARCHAR(255) NOT NULL,
			input_price_per_1m REAL NOT NULL,
			output_price_per_1m REAL NOT NULL,
			context_window INTEGER NOT NULL DEFAULT 0,
			PRIMARY KEY (provider, model)
		);`,

		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS model_experience_notes (
			id %s,
			agent_id VARCHAR(255) NOT NULL,
			purpose VARCHAR(64),
			model VARCHAR(255),
			situation TEXT,
			observation TEXT,
			recommendation TEXT,
			created_at TIMESTAMP NOT NULL
		);`, pk),
		`CREATE INDEX IF NOT EXISTS idx_model_notes_agent ON model_experience_notes(agent_id);`,
	}
}

func autoIncrementPK(d Dialect) string {
	switch d {
	case DialectPostgres:
		return "SERIAL PRIMARY KEY"
	case DialectMySQL:
		return "INTEGER PRIMARY KEY AUTO_INCREMENT"
	default: // sqlite
		return "INTEGER PRIMARY KEY AUTOINCREMENT"
	}
}

func booleanType(d Dialect) string {
	if d == DialectMySQL {
		return "TINYINT"
	}
	return "BOOLEAN"
}

func trueLiteral(d Dialect) string {
	if d == DialectMySQL {
		return "1"
	}
	return "TRUE"
}
