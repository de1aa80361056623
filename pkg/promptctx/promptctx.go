// Package promptctx builds the system prompt the reasoning loop hands the
// LLM router each iteration (spec.md §4.7): a fixed-order sequence of text
// blocks — identity, persona, curated core memory, active skills, the
// current LLM configuration, and a closing directive — each one cleanly
// omitted when its inputs are empty. There is no single teacher file that
// composes a prompt this way; the shape here is the spec's own block list,
// rendered with the teacher's general preference for plain string-builder
// composition over a templating engine (pkg/instruction's {variable}
// substitution solves a different problem — runtime session-state
// interpolation — and is not a fit for fixed-order block assembly).
package promptctx

import (
	"fmt"
	"strings"

	"github.com/kadirpekel/agentcore/pkg/agentcfg"
	"github.com/kadirpekel/agentcore/pkg/memory"
	"github.com/kadirpekel/agentcore/pkg/skill"
)

// Directive is the fixed closing paragraph appended to every system prompt,
// instructing the model how to choose between a tool call and a free-form
// reply. It never varies with agent state.
const Directive = `When you need to take an action, call exactly one of the tools listed above with ` +
	`well-formed arguments. If no tool applies, reply with a direct message instead of calling a tool. ` +
	`Never invent a tool name or argument that was not listed.`

// Builder composes system prompts for one agent from its configured
// identity/persona, its memory service, and its skill manager.
type Builder struct {
	Identity agentcfg.IdentityConfig
	Persona  agentcfg.PersonaConfig
	Memory   *memory.Service
	Skills   *skill.Manager
	Router   agentcfg.RouterConfig
	Override ModelSelection
}

// ModelSelection describes the LLM-config block: the purpose this turn is
// dispatching under, and the alias set the agent may switch to via
// select_llm.
type ModelSelection struct {
	CurrentPurpose string
	SelectedAlias  string // alias currently bound to CurrentPurpose, if overridden
}

// Build renders the six-block system prompt. Any block whose inputs are
// empty is omitted entirely rather than rendered with placeholder text.
func (b *Builder) Build() (string, error) {
	var blocks []string

	if block := b.identityBlock(); block != "" {
		blocks = append(blocks, block)
	}
	if block := b.personaBlock(); block != "" {
		blocks = append(blocks, block)
	}
	if block, err := b.memoryBlock(); err != nil {
		return "", fmt.Errorf("promptctx: build memory block: %w", err)
	} else if block != "" {
		blocks = append(blocks, block)
	}
	if block := b.skillsBlock(); block != "" {
		blocks = append(blocks, block)
	}
	if block := b.llmConfigBlock(); block != "" {
		blocks = append(blocks, block)
	}
	blocks = append(blocks, Directive)

	return strings.Join(blocks, "\n\n"), nil
}

func (b *Builder) identityBlock() string {
	id := b.Identity
	if id.DisplayName == "" && id.Role == "" {
		return ""
	}
	var sb strings.Builder
	sb.WriteString("# Identity\n")
	if id.DisplayName != "" {
		fmt.Fprintf(&sb, "You are %s.\n", id.DisplayName)
	}
	if id.Role != "" {
		fmt.Fprintf(&sb, "Role: %s\n", id.Role)
	}
	if id.JobTitle != "" {
		fmt.Fprintf(&sb, "Job title: %s\n", id.JobTitle)
	}
	if id.Organization != "" {
		fmt.Fprintf(&sb, "Organization: %s\n", id.Organization)
	}
	return strings.TrimRight(sb.String(), "\n")
}

func (b *Builder) personaBlock() string {
	p := b.Persona
	zero := agentcfg.BigFiveVector{}
	social := agentcfg.SocialStyle{}
	thinking := agentcfg.ThinkingStyle{}
	if p.BigFive == zero && p.SocialStyle == social && p.Thinking == thinking {
		return ""
	}
	var sb strings.Builder
	sb.WriteString("# Persona\n")
	fmt.Fprintf(&sb, "Big Five: openness=%.2f conscientiousness=%.2f extraversion=%.2f agreeableness=%.2f neuroticism=%.2f\n",
		p.BigFive.Openness, p.BigFive.Conscientiousness, p.BigFive.Extraversion, p.BigFive.Agreeableness, p.BigFive.Neuroticism)
	fmt.Fprintf(&sb, "Social style: %s (assertiveness=%.2f, responsiveness=%.2f)\n",
		p.SocialStyle.Label(), p.SocialStyle.Assertiveness, p.SocialStyle.Responsiveness)
	if p.Thinking.Primary != "" {
		thinkingLine := p.Thinking.Primary
		if p.Thinking.Secondary != "" {
			thinkingLine += "/" + p.Thinking.Secondary
		}
		fmt.Fprintf(&sb, "Thinking style: %s\n", thinkingLine)
		if p.Thinking.Notes != "" {
			fmt.Fprintf(&sb, "Notes: %s\n", p.Thinking.Notes)
		}
	}
	return strings.TrimRight(sb.String(), "\n")
}

func (b *Builder) memoryBlock() (string, error) {
	if b.Memory == nil {
		return "", nil
	}
	text, err := b.Memory.BuildContext()
	if err != nil {
		return "", err
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return "", nil
	}
	return "# Memory\n" + text, nil
}

func (b *Builder) skillsBlock() string {
	if b.Skills == nil {
		return ""
	}
	active := b.Skills.ActiveSkills()
	if len(active) == 0 {
		return ""
	}
	var sb strings.Builder
	sb.WriteString("# Skills\n")
	for _, s := range active {
		fmt.Fprintf(&sb, "## %s\n", s.Name)
		if s.Guidance != "" {
			sb.WriteString(s.Guidance)
			sb.WriteString("\n")
		}
	}
	return strings.TrimRight(sb.String(), "\n")
}

// ActiveSkillActions returns the union of action names every active skill
// grants, the set the reasoning loop filters its tool list through.
func ActiveSkillActions(mgr *skill.Manager) []string {
	if mgr == nil {
		return nil
	}
	seen := make(map[string]bool)
	var names []string
	for _, s := range mgr.ActiveSkills() {
		for _, a := range s.Actions {
			if !seen[a] {
				seen[a] = true
				names = append(names, a)
			}
		}
	}
	return names
}

func (b *Builder) llmConfigBlock() string {
	if len(b.Router.Aliases) == 0 {
		return ""
	}
	var sb strings.Builder
	sb.WriteString("# LLM configuration\n")
	if b.Override.CurrentPurpose != "" {
		alias := b.Override.SelectedAlias
		if alias == "" {
			alias = b.Router.Aliases[b.Override.CurrentPurpose]
		}
		fmt.Fprintf(&sb, "Current purpose: %s (alias: %s)\n", b.Override.CurrentPurpose, alias)
	}
	var selectable []string
	if len(b.Router.Whitelist) > 0 {
		selectable = b.Router.Whitelist
	} else {
		for alias := range b.Router.Aliases {
			selectable = append(selectable, alias)
		}
	}
	if len(selectable) > 0 {
		fmt.Fprintf(&sb, "Selectable aliases via select_llm: %s\n", strings.Join(sortedCopy(selectable), ", "))
	}
	return strings.TrimRight(sb.String(), "\n")
}

func sortedCopy(in []string) []string {
	out := make([]string, len(in))
	copy(out, in)
	for i := 1; i < len(out); i++ {
		for j := i; j > 0 && out[j-1] > out[j]; j-- {
			out[j-1], out[j] = out[j], out[j-1]
		}
	}
	return out
}
