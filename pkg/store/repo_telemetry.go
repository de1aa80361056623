package store

import (
	"database/sql"
	"errors"
	"time"
)

// RecordUsageMetric appends one LLM-call telemetry row and returns its id,
// which becomes ctx.last_metrics_id for a subsequent evaluate_response call.
func (db *DB) RecordUsageMetric(m LlmUsageMetric) (int64, error) {
	res, err := db.exec(
		`INSERT INTO llm_usage_metrics
		 (agent_id, session_id, ts, provider, model, purpose, task_type, input_tokens, output_tokens, cost_usd, latency_ms, ttft_ms, quality_score, task_success, evaluation, would_use_again, suggested_alternative)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		m.AgentID, m.SessionID, m.Timestamp, m.Provider, m.Model, m.Purpose, m.TaskType, m.InputTokens, m.OutputTokens, m.CostUSD, m.LatencyMS, m.TTFTMS, m.QualityScore, m.TaskSuccess, m.Evaluation, m.WouldUseAgain, m.SuggestedAlternative)
	if err != nil {
		return 0, wrapErr("record_usage_metric", err)
	}
	id, err := res.LastInsertId()
	return id, wrapErr("record_usage_metric", err)
}

// EvaluationFields are the optional fields evaluate_response attaches to a
// previously recorded metric row.
type EvaluationFields struct {
	QualityScore         *float64
	TaskSuccess          *bool
	Evaluation           string
	WouldUseAgain        *bool
	SuggestedAlternative string
}

// AttachEvaluation writes evaluate_response's fields onto an existing
// metric row, rejecting (at the caller level) if metricID is unset.
func (db *DB) AttachEvaluation(metricID int64, f EvaluationFields) error {
	_, err := db.exec(
		`UPDATE llm_usage_metrics SET quality_score = ?, task_success = ?, evaluation = ?, would_use_again = ?, suggested_alternative = ? WHERE id = ?`,
		f.QualityScore, f.TaskSuccess, f.Evaluation, f.WouldUseAgain, f.SuggestedAlternative, metricID)
	return wrapErr("attach_evaluation", err)
}

// UsageMetricFilter narrows analyze_llm_usage / optimize_model_selection
// queries; zero-value fields are treated as "don't filter on this".
type UsageMetricFilter struct {
	AgentID string
	Since   time.Time
	Purpose string
	Model   string
}

// QueryUsageMetrics returns metrics matching filter, most recent first.
func (db *DB) QueryUsageMetrics(f UsageMetricFilter) ([]LlmUsageMetric, error) {
	query := `SELECT id, agent_id, session_id, ts, provider, model, purpose, task_type, input_tokens, output_tokens, cost_usd, latency_ms, ttft_ms, quality_score, task_success, evaluation, would_use_again, suggested_alternative
		FROM llm_usage_metrics WHERE agent_id = ?`
	args := []any{f.AgentID}
	if !f.Since.IsZero() {
		query += ` AND ts >= ?`
		args = append(args, f.Since)
	}
	if f.Purpose != "" {
		query += ` AND purpose = ?`
		args = append(args, f.Purpose)
	}
	if f.Model != "" {
		query += ` AND model = ?`
		args = append(args, f.Model)
	}
	query += ` ORDER BY ts DESC`

	rows, err := db.query(query, args...)
	if err != nil {
		return nil, wrapErr("query_usage_metrics", err)
	}
	defer rows.Close()

	var out []LlmUsageMetric
	for rows.Next() {
		var m LlmUsageMetric
		if err := rows.Scan(&m.ID, &m.AgentID, &m.SessionID, &m.Timestamp, &m.Provider, &m.Model, &m.Purpose, &m.TaskType, &m.InputTokens, &m.OutputTokens, &m.CostUSD, &m.LatencyMS, &m.TTFTMS, &m.QualityScore, &m.TaskSuccess, &m.Evaluation, &m.WouldUseAgain, &m.SuggestedAlternative); err != nil {
			return nil, wrapErr("query_usage_metrics", err)
		}
		out = append(out, m)
	}
	return out, wrapErr("query_usage_metrics", rows.Err())
}

// GetModelPricing looks up a (provider, model) pricing row; callers treat a
// missing row as zero cost rather than an error (spec §10).
func (db *DB) GetModelPricing(provider, model string) (ModelPricing, error) {
	row := db.queryRow(`SELECT provider, model, input_price_per_1m, output_price_per_1m, context_window FROM model_pricing WHERE provider = ? AND model = ?`, provider, model)
	var p ModelPricing
	if err := row.Scan(&p.Provider, &p.Model, &p.InputPricePer1M, &p.OutputPricePer1M, &p.ContextWindow); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ModelPricing{Provider: provider, Model: model}, ErrNotFound
		}
		return ModelPricing{}, wrapErr("get_model_pricing", err)
	}
	return p, nil
}

// UpsertModelPricing inserts or replaces a pricing row, used to seed/refresh
// the cost table from operator-supplied configuration.
func (db *DB) UpsertModelPricing(p ModelPricing) error {
	_, err := db.exec(db.upsertSQL("model_pricing", []string{"provider", "model"},
		[]string{"input_price_per_1m", "output_price_per_1m", "context_window"}),
		p.Provider, p.Model, p.InputPricePer1M, p.OutputPricePer1M, p.ContextWindow)
	return wrapErr("upsert_model_pricing", err)
}

// SaveModelExperienceNote records a free-text insight about a model's
// behavior for a purpose, surfaced later by RecallModelExperiences.
func (db *DB) SaveModelExperienceNote(n ModelExperienceNote) (int64, error) {
	res, err := db.exec(
		`INSERT INTO model_experience_notes (agent_id, purpose, model, situation, observation, recommendation, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		n.AgentID, n.Purpose, n.Model, n.Situation, n.Observation, n.Recommendation, n.CreatedAt)
	if err != nil {
		return 0, wrapErr("save_model_experience_note", err)
	}
	id, err := res.LastInsertId()
	return id, wrapErr("save_model_experience_note", err)
}

// RecallModelExperiences returns past notes for an agent, optionally scoped
// to purpose and/or model (empty string means unfiltered), newest first.
func (db *DB) RecallModelExperiences(agentID, purpose, model string) ([]ModelExperienceNote, error) {
	query := `SELECT id, agent_id, purpose, model, situation, observation, recommendation, created_at FROM model_experience_notes WHERE agent_id = ?`
	args := []any{agentID}
	if purpose != "" {
		query += ` AND purpose = ?`
		args = append(args, purpose)
	}
	if model != "" {
		query += ` AND model = ?`
		args = append(args, model)
	}
	query += ` ORDER BY created_at DESC`

	rows, err := db.query(query, args...)
	if err != nil {
		return nil, wrapErr("recall_model_experiences", err)
	}
	defer rows.Close()

	var out []ModelExperienceNote
	for rows.Next() {
		var n ModelExperienceNote
		if err := rows.Scan(&n.ID, &n.AgentID, &n.Purpose, &n.Model, &n.Situation, &n.Observation, &n.Recommendation, &n.CreatedAt); err != nil {
			return nil, wrapErr("recall_model_experiences", err)
		}
		out = append(out, n)
	}
	return out, wrapErr("recall_model_experiences", rows.Err())
}
