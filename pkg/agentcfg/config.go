// Package agentcfg holds the configuration types the core engine needs to
// wire an agent together: which LLM providers exist, how aliases and
// fallback chains resolve, where the persistence store lives, and the
// per-agent knobs (persona, identity, reasoning bounds, workspace quota).
//
// Parsing a full deployment's config file, resolving secrets from a vault,
// and hot-reloading on SIGHUP are host concerns and stay out of this
// package; agentcfg only defines the shapes and their defaults/validation,
// the same way the teacher's config package separates "what a value means"
// from "how it got there".
package agentcfg

import (
	"fmt"
	"os"
	"strings"
	"time"
)

// LLMProvider identifies a backend vendor.
type LLMProvider string

const (
	ProviderAnthropic LLMProvider = "anthropic"
	ProviderOpenAI    LLMProvider = "openai"
	ProviderGemini    LLMProvider = "gemini"
	ProviderOllama    LLMProvider = "ollama"
)

// LLMProviderConfig configures one named backend the router can dispatch to.
type LLMProviderConfig struct {
	Name        string        `yaml:"name"`
	Type        LLMProvider   `yaml:"type"`
	Model       string        `yaml:"model"`
	APIKey      string        `yaml:"api_key,omitempty"`
	BaseURL     string        `yaml:"base_url,omitempty"`
	Temperature *float64      `yaml:"temperature,omitempty"`
	MaxTokens   int           `yaml:"max_tokens,omitempty"`
	Timeout     time.Duration `yaml:"timeout,omitempty"`
}

// SetDefaults fills in provider-appropriate defaults. API keys are resolved
// from the environment when the literal value looks like a ${VAR}
// reference or is empty, mirroring the teacher's getAPIKeyFromEnv pattern.
func (c *LLMProviderConfig) SetDefaults() {
	if c.Temperature == nil {
		t := 0.7
		c.Temperature = &t
	}
	if c.MaxTokens == 0 {
		c.MaxTokens = 4096
	}
	if c.Timeout == 0 {
		c.Timeout = 60 * time.Second
	}
	c.APIKey = ExpandEnv(c.APIKey)
	if c.APIKey == "" {
		c.APIKey = apiKeyFromEnv(c.Type)
	}
}

// Validate returns an error describing the first invalid field, if any.
func (c *LLMProviderConfig) Validate() error {
	if c.Name == "" {
		return fmt.Errorf("provider name cannot be empty")
	}
	switch c.Type {
	case ProviderAnthropic, ProviderOpenAI, ProviderGemini, ProviderOllama:
	default:
		return fmt.Errorf("provider %q: unsupported type %q", c.Name, c.Type)
	}
	if c.Model == "" {
		return fmt.Errorf("provider %q: model is required", c.Name)
	}
	if c.Type != ProviderOllama && c.APIKey == "" {
		return fmt.Errorf("provider %q: api key is required", c.Name)
	}
	return nil
}

func apiKeyFromEnv(p LLMProvider) string {
	switch p {
	case ProviderAnthropic:
		return os.Getenv("ANTHROPIC_API_KEY")
	case ProviderOpenAI:
		return os.Getenv("OPENAI_API_KEY")
	case ProviderGemini:
		return os.Getenv("GEMINI_API_KEY")
	default:
		return ""
	}
}

// RouterConfig describes alias resolution and fallback behavior for the
// LLM router (spec §4.2).
type RouterConfig struct {
	// Aliases maps a symbolic name (fast, smart, reasoning, creative, cheap,
	// local, ...) to a registered provider name.
	Aliases map[string]string `yaml:"aliases,omitempty"`

	// FallbackChain is the ordered list of provider names tried for a
	// purpose when the primary fails retriably.
	FallbackChain []string `yaml:"fallback_chain,omitempty"`

	// DefaultAlias is used when a requested alias cannot be resolved.
	DefaultAlias string `yaml:"default_alias,omitempty"`

	// Whitelist restricts which aliases select_llm may switch to for this
	// agent; empty means all configured aliases are selectable.
	Whitelist []string `yaml:"whitelist,omitempty"`
}

func (c *RouterConfig) SetDefaults() {
	if c.Aliases == nil {
		c.Aliases = map[string]string{}
	}
	if c.DefaultAlias == "" {
		c.DefaultAlias = "default"
	}
}

func (c *RouterConfig) Validate() error {
	if len(c.FallbackChain) == 0 {
		return fmt.Errorf("router: fallback_chain must name at least one provider")
	}
	return nil
}

// AllowsAlias reports whether alias may be selected by select_llm.
func (c *RouterConfig) AllowsAlias(alias string) bool {
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

// ReasoningConfig bounds the reasoning loop (spec §4.1).
type ReasoningConfig struct {
	MaxIterations int `yaml:"max_iterations,omitempty"`
}

func (c *ReasoningConfig) SetDefaults() {
	if c.MaxIterations <= 0 {
		c.MaxIterations = 10
	}
}

// WorkspaceConfig bounds the per-agent sandboxed filesystem (spec §4.4).
type WorkspaceConfig struct {
	Root       string `yaml:"root,omitempty"`
	QuotaBytes int64  `yaml:"quota_bytes,omitempty"`
}

func (c *WorkspaceConfig) SetDefaults() {
	if c.Root == "" {
		c.Root = "./data/workspaces"
	}
	if c.QuotaBytes <= 0 {
		c.QuotaBytes = 100 * 1024 * 1024
	}
}

// StoreConfig selects the persistence dialect and connection string.
type StoreConfig struct {
	Dialect string `yaml:"dialect,omitempty"` // sqlite, postgres, mysql
	DSN     string `yaml:"dsn,omitempty"`
}

func (c *StoreConfig) SetDefaults() {
	if c.Dialect == "" {
		c.Dialect = "sqlite"
	}
	if c.DSN == "" && c.Dialect == "sqlite" {
		c.DSN = "./data/agentcore.db"
	}
}

func (c *StoreConfig) Validate() error {
	switch c.Dialect {
	case "sqlite", "postgres", "mysql":
	default:
		return fmt.Errorf("store: unsupported dialect %q", c.Dialect)
	}
	if c.DSN == "" {
		return fmt.Errorf("store: dsn is required")
	}
	return nil
}

// AgentConfig is the full configuration for one agent.
type AgentConfig struct {
	ID        string          `yaml:"id"`
	Name      string          `yaml:"name"`
	Persona   PersonaConfig   `yaml:"persona,omitempty"`
	Identity  IdentityConfig  `yaml:"identity,omitempty"`
	Router    RouterConfig    `yaml:"router,omitempty"`
	Reasoning ReasoningConfig `yaml:"reasoning,omitempty"`
	Workspace WorkspaceConfig `yaml:"workspace,omitempty"`
	SkillsDir string          `yaml:"skills_dir,omitempty"`
}

func (c *AgentConfig) SetDefaults() {
	c.Persona.SetDefaults()
	c.Router.SetDefaults()
	c.Reasoning.SetDefaults()
	c.Workspace.SetDefaults()
}

func (c *AgentConfig) Validate() error {
	if c.ID == "" {
		return fmt.Errorf("agent: id is required")
	}
	if err := c.Router.Validate(); err != nil {
		return fmt.Errorf("agent %q: %w", c.ID, err)
	}
	return nil
}

// Config is the root configuration document.
type Config struct {
	Providers map[string]*LLMProviderConfig `yaml:"providers"`
	Store     StoreConfig                   `yaml:"store,omitempty"`
	Agents    map[string]*AgentConfig       `yaml:"agents"`
}

func (c *Config) SetDefaults() {
	c.Store.SetDefaults()
	for name, p := range c.Providers {
		if p.Name == "" {
			p.Name = name
		}
		p.SetDefaults()
	}
	for _, a := range c.Agents {
		a.SetDefaults()
	}
}

func (c *Config) Validate() error {
	if err := c.Store.Validate(); err != nil {
		return err
	}
	for name, p := range c.Providers {
		if err := p.Validate(); err != nil {
			return fmt.Errorf("provider %q: %w", name, err)
		}
	}
	for name, a := range c.Agents {
		if err := a.Validate(); err != nil {
			return fmt.Errorf("agent %q: %w", name, err)
		}
		for _, provName := range a.Router.FallbackChain {
			if _, ok := c.Providers[provName]; !ok {
				return fmt.Errorf("agent %q: fallback_chain references unknown provider %q", name, provName)
			}
		}
	}
	return nil
}

// ExpandEnv resolves ${VAR} / $VAR references against the process
// environment, leaving the literal untouched if nothing matches.
func ExpandEnv(value string) string {
	if value == "" || !strings.Contains(value, "$") {
		return value
	}
	return os.Expand(value, os.Getenv)
}
