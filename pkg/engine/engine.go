// Package engine is the reasoning loop of spec.md §4.1: given an agent and
// one inbound user message, it builds the system prompt, drives a bounded
// function-calling loop against the LLM router, dispatches tool calls
// through pkg/action, and returns the ordered list of outcomes including at
// most one terminal reply. There is no single teacher file that implements
// this exact loop shape (function-calling agent loop with a terminal-action
// set and a mutable model-override cell); its control flow is this
// package's own, grounded directly on spec.md §4.1's algorithm, written in
// the teacher's general style of small sequential methods on a per-run
// struct rather than a generic executor/graph abstraction.
package engine

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/kadirpekel/agentcore/pkg/action"
	"github.com/kadirpekel/agentcore/pkg/agentcfg"
	"github.com/kadirpekel/agentcore/pkg/llmrouter"
	"github.com/kadirpekel/agentcore/pkg/memory"
	"github.com/kadirpekel/agentcore/pkg/promptctx"
	"github.com/kadirpekel/agentcore/pkg/skill"
	"github.com/kadirpekel/agentcore/pkg/store"
	"github.com/kadirpekel/agentcore/pkg/telemetry"
	"github.com/kadirpekel/agentcore/pkg/workspace"
)

// DefaultPurpose is the routing purpose used for every tool-calling
// iteration unless the loop enters a different phase.
const DefaultPurpose = "tool_calling"

// terminalSet mirrors action.Dispatcher's own Terminal flag but is kept
// here too as the exact set spec.md §4.1 names, so a registration bug in
// pkg/action (a terminal action registered non-terminal) cannot silently
// change the loop's exit behavior.
var terminalSet = map[string]bool{
	"send_speech":        true,
	"send_noreact":       true,
	"declare_done":       true,
	"broadcast_guidance": true,
}

// ErrLoopExhausted is returned (wrapped) when the iteration bound is
// reached without a terminal action. Per spec.md §4.1 step 4 this is not a
// failure — callers should check errors.Is and treat it as a tagged
// outcome, not surface it as an operational error.
var ErrLoopExhausted = errors.New("engine: reasoning loop exhausted its iteration bound")

// ErrCancelled is returned (wrapped) when ctx is cancelled mid-loop.
var ErrCancelled = errors.New("engine: reasoning loop cancelled")

// Engine holds the process-wide, read-mostly collaborators one agent's
// reasoning loop dispatches against (spec.md §3's ownership semantics: the
// router, dispatcher, and telemetry manager are shared singletons).
type Engine struct {
	DB         *store.DB
	Router     *llmrouter.Router
	Dispatcher *action.Dispatcher
	Telemetry  *telemetry.Manager

	AgentID   string
	Identity  agentcfg.IdentityConfig
	Persona   agentcfg.PersonaConfig
	RouterCfg agentcfg.RouterConfig
	Reasoning agentcfg.ReasoningConfig
	Whitelist []string

	Workspace *workspace.Workspace
	Memory    *memory.Service
	Skills    *skill.Manager
}

// Result is what one invocation of Run produces: the ordered list of
// action outcomes the loop committed, whether the iteration bound was
// reached, and the final transcript (for callers that log or replay it).
type Result struct {
	Outcomes   []action.Outcome
	Transcript []llmrouter.Message
	Exhausted  bool
}

// Run drives the reasoning loop for one inbound user message from
// speakerID within sessionID, per spec.md §4.1's algorithm.
func (e *Engine) Run(ctx context.Context, sessionID, speakerID, userMessage string) (Result, error) {
	session, turn, err := e.nextTurn(sessionID)
	if err != nil {
		return Result{}, fmt.Errorf("engine: load session: %w", err)
	}

	actx := &action.Context{
		DB:        e.DB,
		Workspace: e.Workspace,
		Memory:    e.Memory,
		Skills:    e.Skills,
		Override:  &action.ModelOverride{},
		AgentID:   e.AgentID,
		SessionID: sessionID,
		SpeakerID: speakerID,
		Turn:      turn,
		Whitelist: e.Whitelist,
	}

	systemPrompt, err := e.buildSystemPrompt(actx)
	if err != nil {
		return Result{}, fmt.Errorf("engine: build system prompt: %w", err)
	}

	transcript := []llmrouter.Message{
		{Role: "system", Content: systemPrompt},
		{Role: "user", Content: userMessage},
	}

	tools := e.toolDefinitions(actx)
	maxIterations := e.Reasoning.MaxIterations
	if maxIterations <= 0 {
		maxIterations = 10
	}

	var outcomes []action.Outcome
	currentPurpose := DefaultPurpose

	for iteration := 1; iteration <= maxIterations; iteration++ {
		if err := ctx.Err(); err != nil {
			return Result{Outcomes: outcomes, Transcript: transcript}, fmt.Errorf("%w: %v", ErrCancelled, err)
		}

		iterCtx, span := e.Telemetry.Tracer().StartReasoningIteration(ctx, e.AgentID, sessionID, iteration)

		resp, metricID, chatErr := e.Router.Chat(iterCtx, e.AgentID, sessionID, actx.Override, llmrouter.ChatRequest{
			Purpose:  currentPurpose,
			Messages: transcript,
			Tools:    tools,
		})
		e.Telemetry.Tracer().RecordError(span, chatErr)
		span.End()

		actx.Override.ClearTurnScoped()

		if chatErr != nil {
			if metricID != 0 {
				actx.LastMetricsID = &metricID
			}
			e.Telemetry.Metrics().RecordReasoningIteration(e.AgentID, false)
			return Result{Outcomes: outcomes, Transcript: transcript}, fmt.Errorf("engine: llm call failed: %w", chatErr)
		}
		actx.LastMetricsID = &metricID

		if len(resp.ToolCalls) == 0 {
			transcript = append(transcript, llmrouter.Message{Role: "assistant", Content: resp.Text})
			e.Telemetry.Metrics().RecordReasoningIteration(e.AgentID, false)
			return Result{Outcomes: outcomes, Transcript: transcript}, nil
		}

		done, newTranscript, newOutcomes, lastAction := e.dispatchToolCalls(actx, transcript, resp.ToolCalls)
		transcript = newTranscript
		outcomes = append(outcomes, newOutcomes...)
		e.Telemetry.Metrics().RecordReasoningIteration(e.AgentID, false)
		if done {
			e.persistTurn(session, turn)
			return Result{Outcomes: outcomes, Transcript: transcript}, nil
		}
		if purpose := e.Dispatcher.PurposeFor(lastAction); purpose != "" {
			currentPurpose = purpose
		} else {
			currentPurpose = DefaultPurpose
		}
	}

	e.Telemetry.Metrics().RecordReasoningIteration(e.AgentID, true)
	outcomes = append(outcomes, action.Outcome{Success: true, Data: "loop_exhausted"})
	e.persistTurn(session, turn)
	return Result{Outcomes: outcomes, Transcript: transcript, Exhausted: true}, ErrLoopExhausted
}

// dispatchToolCalls processes one response's tool calls in order. It
// returns done=true once a terminal action has committed, at which point
// any remaining calls in the same response are dropped per spec.md §4.1's
// tie-break rule. lastAction is the name of the last call actually
// dispatched, which the caller uses to derive the next iteration's purpose.
func (e *Engine) dispatchToolCalls(actx *action.Context, transcript []llmrouter.Message, calls []llmrouter.ToolCall) (done bool, out []llmrouter.Message, outcomes []action.Outcome, lastAction string) {
	out = transcript
	for _, call := range calls {
		lastAction = call.Name
		argsJSON, err := json.Marshal(call.Arguments)
		if err != nil {
			out = append(out,
				llmrouter.Message{Role: "assistant", ToolCalls: []llmrouter.ToolCall{call}},
				llmrouter.Message{Role: "tool", ToolCallID: call.ID, Content: fmt.Sprintf("invalid_arguments: %v", err)},
			)
			continue
		}

		start := time.Now()
		outcome := e.Dispatcher.Execute(actx, call.Name, argsJSON)
		latency := time.Since(start).Milliseconds()
		e.Telemetry.Metrics().RecordAction(call.Name, latency, !outcome.Success)
		if outcome.Success {
			e.recordSkillUsage(actx, call.Name)
		}

		outcomeJSON, _ := json.Marshal(outcome)
		out = append(out,
			llmrouter.Message{Role: "assistant", ToolCalls: []llmrouter.ToolCall{call}},
			llmrouter.Message{Role: "tool", ToolCallID: call.ID, Content: string(outcomeJSON)},
		)
		outcomes = append(outcomes, outcome)

		// A failed terminal call (e.g. invalid arguments) produced no
		// reply, so the loop continues rather than returning an empty
		// commit — only a successful terminal call ends the loop.
		if outcome.Success && (terminalSet[call.Name] || e.Dispatcher.IsTerminal(call.Name)) {
			return true, out, outcomes, lastAction
		}
	}
	return false, out, outcomes, lastAction
}

// recordSkillUsage increments the usage counter of every active skill that
// grants actionName, since the tool list the model dispatched against is
// itself the union of active skills' action lists (spec.md §4.6).
func (e *Engine) recordSkillUsage(actx *action.Context, actionName string) {
	if actx.Skills == nil {
		return
	}
	for _, s := range actx.Skills.ActiveSkills() {
		for _, a := range s.Actions {
			if a != actionName {
				continue
			}
			if err := actx.Skills.RecordUsage(s.ID, nil); err != nil {
				slog.Warn("engine: record skill usage", "skill", s.Name, "error", err)
			}
			break
		}
	}
}

func (e *Engine) buildSystemPrompt(actx *action.Context) (string, error) {
	b := &promptctx.Builder{
		Identity: e.Identity,
		Persona:  e.Persona,
		Memory:   e.Memory,
		Skills:   e.Skills,
		Router:   e.RouterCfg,
		Override: promptctx.ModelSelection{CurrentPurpose: DefaultPurpose},
	}
	if alias, ok := actx.Override.Get(DefaultPurpose); ok {
		b.Override.SelectedAlias = alias
	}
	return b.Build()
}

func (e *Engine) toolDefinitions(actx *action.Context) []llmrouter.ToolDefinition {
	actionNames := promptctx.ActiveSkillActions(e.Skills)
	descriptors := e.Dispatcher.Filter(actionNames)
	defs := make([]llmrouter.ToolDefinition, 0, len(descriptors))
	for _, d := range descriptors {
		defs = append(defs, llmrouter.ToolDefinition{
			Name:        d.Name,
			Description: d.Description,
			Parameters:  d.Schema,
		})
	}
	return defs
}

// nextTurn loads (or creates) the session and returns its post-increment
// turn number; the caller persists it back via persistTurn once the loop
// commits.
func (e *Engine) nextTurn(sessionID string) (store.Session, int, error) {
	session, err := e.DB.GetSession(e.AgentID, sessionID)
	if errors.Is(err, store.ErrNotFound) {
		session = store.Session{
			ID:        sessionID,
			AgentID:   e.AgentID,
			Status:    store.SessionStatusActive,
			CreatedAt: time.Now().UTC(),
		}
		session.UpdatedAt = session.CreatedAt
		if err := e.DB.CreateSession(session); err != nil {
			return store.Session{}, 0, err
		}
	} else if err != nil {
		return store.Session{}, 0, err
	}
	session.TurnCounter++
	return session, session.TurnCounter, nil
}

func (e *Engine) persistTurn(session store.Session, turn int) {
	session.TurnCounter = turn
	session.UpdatedAt = time.Now().UTC()
	_ = e.DB.UpdateSession(session)
}
