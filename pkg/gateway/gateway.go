// Package gateway is the one entry point spec.md §6/§7 promises the
// outside world: everything else (HTTP servers, CLI adapters, process
// supervision, config-file parsing) stays external to the core. Gateway
// wires the process-wide router/dispatcher/telemetry singletons, builds
// one pkg/engine.Engine per configured agent, and exposes
// Process(ctx, agentID, IncomingMessage) ([]OutgoingMessage, error) as the
// only call surface the core requires a host to know about — the shape the
// teacher's own pkg/runner and pkg/server packages converge on for "the
// thing an HTTP handler or CLI actually calls".
package gateway

import (
	"context"
	"errors"
	"fmt"

	"github.com/kadirpekel/agentcore/pkg/action"
	"github.com/kadirpekel/agentcore/pkg/agentcfg"
	"github.com/kadirpekel/agentcore/pkg/engine"
	"github.com/kadirpekel/agentcore/pkg/llmrouter"
	"github.com/kadirpekel/agentcore/pkg/memory"
	"github.com/kadirpekel/agentcore/pkg/providers/anthropic"
	"github.com/kadirpekel/agentcore/pkg/providers/gemini"
	"github.com/kadirpekel/agentcore/pkg/providers/ollama"
	"github.com/kadirpekel/agentcore/pkg/providers/openai"
	"github.com/kadirpekel/agentcore/pkg/skill"
	"github.com/kadirpekel/agentcore/pkg/store"
	"github.com/kadirpekel/agentcore/pkg/telemetry"
	"github.com/kadirpekel/agentcore/pkg/workspace"
)

// IncomingMessage is one inbound turn addressed to an agent.
type IncomingMessage struct {
	SessionID string
	SpeakerID string
	Content   string
}

// OutgoingMessage is one reply or side-effect surfaced back to the host.
// Kind is "reply" for text content produced by a successful action (or the
// model's final plain-text answer) and "loop_exhausted" when the reasoning
// loop ran out of iterations; Content is the human-readable text, if any.
type OutgoingMessage struct {
	Kind    string
	Content string
	Data    any
}

// Gateway owns the process-wide provider pool, action dispatcher, and
// telemetry manager, and one engine.Engine (with its own Router bound to
// that agent's alias/fallback config) per configured agent.
type Gateway struct {
	db         *store.DB
	providers  []llmrouter.Provider
	dispatcher *action.Dispatcher
	telemetry  *telemetry.Manager
	engines    map[string]*engine.Engine
}

// New builds a Gateway from cfg: opens the store, registers every
// configured provider against a shared router, registers the full action
// taxonomy once, and constructs one engine per configured agent.
func New(ctx context.Context, cfg agentcfg.Config, telemCfg telemetry.Config) (*Gateway, error) {
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("gateway: invalid config: %w", err)
	}

	db, err := store.Open(cfg.Store)
	if err != nil {
		return nil, fmt.Errorf("gateway: open store: %w", err)
	}
	if err := db.Repair(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("gateway: repair session log index: %w", err)
	}

	telem, err := telemetry.NewManager(ctx, telemCfg)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("gateway: init telemetry: %w", err)
	}

	dispatcher := action.NewDispatcher()
	action.RegisterAll(dispatcher)

	g := &Gateway{
		db:         db,
		dispatcher: dispatcher,
		telemetry:  telem,
		engines:    make(map[string]*engine.Engine),
	}

	// Provider client instances are process-wide singletons per
	// spec.md §3's ownership semantics (each wraps a single vendor SDK
	// client, safe to share). Alias/fallback resolution is per-agent,
	// though, so each agent below gets its own Router registered with
	// the same provider instances.
	for name, pc := range cfg.Providers {
		provider, err := buildProvider(name, *pc)
		if err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("gateway: build provider %q: %w", name, err)
		}
		g.providers = append(g.providers, provider)
	}

	for agentID, ac := range cfg.Agents {
		if err := db.UpsertAgent(store.Agent{ID: ac.ID, Name: ac.Name}); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("gateway: register agent %q: %w", agentID, err)
		}
		eng, err := g.buildEngine(*ac)
		if err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("gateway: build engine for %q: %w", agentID, err)
		}
		g.engines[ac.ID] = eng
	}

	return g, nil
}

func (g *Gateway) buildEngine(ac agentcfg.AgentConfig) (*engine.Engine, error) {
	ws, err := workspace.Open(ac.Workspace, ac.ID)
	if err != nil {
		return nil, fmt.Errorf("open workspace: %w", err)
	}
	mem := memory.NewService(g.db, ac.ID)
	skills := skill.NewManager(g.db, ac.ID)
	if ac.SkillsDir != "" {
		if err := skills.LoadBundledDir(ac.SkillsDir); err != nil {
			return nil, fmt.Errorf("load bundled skills: %w", err)
		}
	}

	router := llmrouter.NewRouter(ac.Router, g.db, g.telemetry)
	for _, p := range g.providers {
		router.Register(p)
	}

	return &engine.Engine{
		DB:         g.db,
		Router:     router,
		Dispatcher: g.dispatcher,
		Telemetry:  g.telemetry,
		AgentID:    ac.ID,
		Identity:   ac.Identity,
		Persona:    ac.Persona,
		RouterCfg:  ac.Router,
		Reasoning:  ac.Reasoning,
		Whitelist:  ac.Router.Whitelist,
		Workspace:  ws,
		Memory:     mem,
		Skills:     skills,
	}, nil
}

func buildProvider(name string, pc agentcfg.LLMProviderConfig) (llmrouter.Provider, error) {
	pc.Name = name
	switch pc.Type {
	case agentcfg.ProviderAnthropic:
		return anthropic.New(pc)
	case agentcfg.ProviderOpenAI:
		return openai.New(pc, string(agentcfg.ProviderOpenAI))
	case agentcfg.ProviderGemini:
		return gemini.New(pc)
	case agentcfg.ProviderOllama:
		return ollama.New(pc)
	default:
		return nil, fmt.Errorf("gateway: unsupported provider type %q", pc.Type)
	}
}

// RegisterProvider adds an additional provider instance to every agent's
// router — for a custom or test backend cfg.Providers doesn't describe.
func (g *Gateway) RegisterProvider(p llmrouter.Provider) {
	g.providers = append(g.providers, p)
	for _, eng := range g.engines {
		eng.Router.Register(p)
	}
}

// Process routes one inbound message to agentID's engine and returns the
// outgoing messages its reasoning loop produced. A loop-exhausted outcome
// is reported as an OutgoingMessage, not an error, per spec.md §4.1 step 4.
func (g *Gateway) Process(ctx context.Context, agentID string, msg IncomingMessage) ([]OutgoingMessage, error) {
	eng, ok := g.engines[agentID]
	if !ok {
		return nil, fmt.Errorf("gateway: unknown agent %q", agentID)
	}

	result, err := eng.Run(ctx, msg.SessionID, msg.SpeakerID, msg.Content)
	if err != nil && !errors.Is(err, engine.ErrLoopExhausted) {
		return nil, fmt.Errorf("gateway: process message: %w", err)
	}

	return toOutgoing(result), nil
}

func toOutgoing(result engine.Result) []OutgoingMessage {
	var out []OutgoingMessage
	if result.Exhausted {
		out = append(out, OutgoingMessage{Kind: "loop_exhausted"})
	}
	for _, outcome := range result.Outcomes {
		if !outcome.Success {
			continue
		}
		if data, ok := outcome.Data.(map[string]any); ok {
			if content, ok := data["content"].(string); ok && content != "" {
				out = append(out, OutgoingMessage{Kind: "reply", Content: content, Data: data})
			}
		}
	}
	if len(out) == 0 && len(result.Transcript) > 0 {
		last := result.Transcript[len(result.Transcript)-1]
		if last.Role == "assistant" && last.Content != "" {
			out = append(out, OutgoingMessage{Kind: "reply", Content: last.Content})
		}
	}
	return out
}

// Close releases the gateway's store handle.
func (g *Gateway) Close() error {
	return g.db.Close()
}
