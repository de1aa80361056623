package action

import (
	"sync"

	"github.com/kadirpekel/agentcore/pkg/memory"
	"github.com/kadirpekel/agentcore/pkg/skill"
	"github.com/kadirpekel/agentcore/pkg/store"
	"github.com/kadirpekel/agentcore/pkg/workspace"
)

// OverrideDuration is how long a select_llm override stays in effect.
type OverrideDuration string

const (
	DurationThisTurn    OverrideDuration = "this_turn"
	DurationThisSession OverrideDuration = "this_session"
	DurationPermanent   OverrideDuration = "permanent"
)

// ModelOverride is the single mutable cell select_llm writes and the
// reasoning loop reads before each iteration's LLM call. Spec.md §4.1
// guarantees single-writer/single-reader per iteration (the loop is
// sequential), but the mutex keeps the type safe to reuse across agents
// running concurrently in the same process.
type ModelOverride struct {
	mu       sync.Mutex
	Purpose  string
	Alias    string
	Duration OverrideDuration
	Reason   string
	set      bool
}

// Set records a new override. Writes inside iteration k take effect in
// iteration k+1, never retroactively — the caller (pkg/engine) enforces
// that by reading Get only at the top of the next iteration.
func (m *ModelOverride) Set(purpose, alias string, duration OverrideDuration, reason string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Purpose, m.Alias, m.Duration, m.Reason, m.set = purpose, alias, duration, reason, true
}

// Get returns the override for purpose, if any is currently in effect.
func (m *ModelOverride) Get(purpose string) (alias string, ok bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.set || m.Purpose != purpose {
		return "", false
	}
	return m.Alias, true
}

// ClearTurnScoped drops a this_turn override after the iteration that
// follows its write has consumed it.
func (m *ModelOverride) ClearTurnScoped() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.set && m.Duration == DurationThisTurn {
		m.set = false
	}
}

// ClearSession drops this_turn and this_session overrides at session end;
// permanent overrides survive.
func (m *ModelOverride) ClearSession() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.set && m.Duration != DurationPermanent {
		m.set = false
	}
}

// Context is the shared, per-invocation state every action handler runs
// against: the agent's workspace, memory, skills, persistence handle, the
// session scope of the current turn, and the model-override cell.
type Context struct {
	DB        *store.DB
	Workspace *workspace.Workspace
	Memory    *memory.Service
	Skills    *skill.Manager
	Override  *ModelOverride

	AgentID         string
	SessionID       string
	SpeakerID       string
	Turn            int
	Whitelist       []string // aliases select_llm may choose from
	LastMetricsID   *int64   // set by the engine after each LLM call
}

// AllowsAlias reports whether alias is in the agent's select_llm whitelist;
// an empty whitelist allows every alias.
func (c *Context) AllowsAlias(alias string) bool {
	if len(c.Whitelist) == 0 {
		return true
	}
	for _, a := range c.Whitelist {
		if a == alias {
			return true
		}
	}
	return false
}

// appendLog is the shared helper every utterance/workspace/learning action
// uses to record its side effect in the session log.
func (c *Context) appendLog(kind, content, metadataJSON string) (int64, error) {
	return c.Memory.Append(c.SessionID, kind, c.SpeakerID, c.Turn, content, metadataJSON)
}
