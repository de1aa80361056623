package store

import "time"

// Agent is the durable identity row backing an agentcfg.AgentConfig instance.
type Agent struct {
	ID        string
	Name      string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Persona is the stored form of agentcfg.PersonaConfig: the Big-Five vector
// is kept as JSON since it is always read/written whole, never queried by
// individual trait.
type Persona struct {
	AgentID              string
	BigFiveJSON          string
	SocialAssertiveness  float64
	SocialResponsiveness float64
	ThinkingPrimary      string
	ThinkingSecondary    string
	ThinkingNotes        string
}

// Identity is the stored form of agentcfg.IdentityConfig.
type Identity struct {
	AgentID      string
	DisplayName  string
	Role         string
	JobTitle     string
	Organization string
	AvatarURL    string
}

// CuratedMemoryEntry is a curated (agent-authored, durable) memory row —
// spec §3's "curated entries", upserted by category rather than appended.
type CuratedMemoryEntry struct {
	ID        int64
	AgentID   string
	Category  string
	Content   string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Session is a conversation/session scope: a named, bounded interaction with
// its own turn counter and completion bookkeeping (spec §3, §4.2's
// declare_done quorum).
type Session struct {
	ID               string
	AgentID          string
	Mode             string
	Theme            string
	Phase            string
	TurnCounter      int
	Status           string
	ParticipantsJSON string
	DoneCount        int
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

const (
	SessionStatusActive = "active"
	SessionStatusDone   = "done"
)

// SessionLogEntry is one immutable turn in a session's transcript. Every
// append also derives term-frequency rows into session_log_index (spec §6's
// "full-text index mirroring session logs").
type SessionLogEntry struct {
	ID        int64
	AgentID   string
	SessionID string
	Kind      string
	SpeakerID string
	Turn      int
	Content   string
	Metadata  string
	CreatedAt time.Time
}

const (
	LogKindUtterance = "utterance"
	LogKindAction    = "action"
	LogKindSystem    = "system"
)

// Skill is a stored, reusable behavior pattern: either bundled at deploy
// time or acquired at runtime via the learning actions (spec §4.3, §4.5).
type Skill struct {
	ID               int64
	AgentID          string
	Name             string
	Description      string
	SituationPattern string
	Guidance         string
	ActionsJSON      string
	Source           string
	UsageCount       int
	Effectiveness    *float64
	Active           bool
	CreatedAt        time.Time
}

const (
	SkillSourceBundled  = "bundled"
	SkillSourceAcquired = "acquired"
)

// Impression is one agent's running read on another, scoped to a session
// (spec §3's social-model entity).
type Impression struct {
	ID              int64
	ObserverAgentID string
	SessionID       string
	TargetAgentID   string
	Content         string
	UpdatedAt       time.Time
}

// LlmUsageMetric is one recorded LLM call, the telemetry unit spec §10
// builds analyze_llm_usage and optimize_model_selection on top of.
type LlmUsageMetric struct {
	ID                    int64
	AgentID               string
	SessionID             string
	Timestamp             time.Time
	Provider              string
	Model                 string
	Purpose               string
	TaskType              string
	InputTokens           int
	OutputTokens          int
	CostUSD               float64
	LatencyMS             int64
	TTFTMS                *int64
	QualityScore          *float64
	TaskSuccess           *bool
	Evaluation            string
	WouldUseAgain         *bool
	SuggestedAlternative  string
}

// ModelPricing is a per-(provider, model) cost lookup row; missing entries
// default to zero cost rather than failing a call (spec §10).
type ModelPricing struct {
	Provider          string
	Model             string
	InputPricePer1M   float64
	OutputPricePer1M  float64
	ContextWindow     int
}

// ModelExperienceNote is the supplemented entity from SPEC_FULL.md: a
// free-text insight an agent records about a model's behavior for a given
// purpose, surfaced back by recall_model_experiences / save_model_insight.
type ModelExperienceNote struct {
	ID             int64
	AgentID        string
	Purpose        string
	Model          string
	Situation      string
	Observation    string
	Recommendation string
	CreatedAt      time.Time
}
