package action

import (
	"encoding/json"
	"fmt"

	"github.com/kadirpekel/agentcore/pkg/skill"
)

type learnFromExperienceArgs struct {
	Experience       string `json:"experience" jsonschema:"required,description=What happened"`
	Outcome          string `json:"outcome" jsonschema:"required,description=What resulted from it"`
	Lesson           string `json:"lesson" jsonschema:"required,description=What should change next time"`
	SkillName        string `json:"skill_name" jsonschema:"required,description=Name for the new skill"`
	SituationPattern string `json:"situation_pattern" jsonschema:"required,description=When this skill applies"`
	Guidance         string `json:"guidance" jsonschema:"required,description=Guidance text to add to the system prompt when active"`
}

type learnFromPeerArgs struct {
	PeerAgentID      string `json:"peer_agent_id" jsonschema:"required,description=The agent this lesson came from"`
	Lesson           string `json:"lesson" jsonschema:"required,description=What was learned from the peer"`
	SkillName        string `json:"skill_name" jsonschema:"required,description=Name for the new skill"`
	SituationPattern string `json:"situation_pattern" jsonschema:"required,description=When this skill applies"`
	Guidance         string `json:"guidance" jsonschema:"required,description=Guidance text to add to the system prompt when active"`
}

type reflectAndLearnArgs struct {
	Reflection       string `json:"reflection" jsonschema:"required,description=Self-reflection that produced this insight"`
	SkillName        string `json:"skill_name" jsonschema:"required,description=Name for the new skill"`
	SituationPattern string `json:"situation_pattern" jsonschema:"required,description=When this skill applies"`
	Guidance         string `json:"guidance" jsonschema:"required,description=Guidance text to add to the system prompt when active"`
}

type createMySkillArgs struct {
	SkillName        string   `json:"skill_name" jsonschema:"required,description=Name for the new skill"`
	Description      string   `json:"description" jsonschema:"required,description=One-line description"`
	SituationPattern string   `json:"situation_pattern" jsonschema:"required,description=When this skill applies"`
	Guidance         string   `json:"guidance" jsonschema:"required,description=Guidance text to add to the system prompt when active"`
	Actions          []string `json:"actions,omitempty" jsonschema:"description=Action names this skill grants access to"`
}

// RegisterLearning adds the learning group of spec.md §4.3. Every variant
// creates a new acquired Skill; only the source tag and the narrative
// fields folded into its guidance differ.
func RegisterLearning(d *Dispatcher) {
	d.Register(Descriptor{
		Name:        "learn_from_experience",
		Description: "Create a new skill distilled from a first-hand experience.",
		Purpose:     "analysis",
		Schema:      GenerateSchema[learnFromExperienceArgs](),
		Handler: func(ctx *Context, raw json.RawMessage) Outcome {
			args, err := ParseArgs[learnFromExperienceArgs](raw)
			if err != nil {
				return ErrorOutcome(err)
			}
			guidance := fmt.Sprintf("%s\n\nLearned from experience: %s -> %s. Lesson: %s", args.Guidance, args.Experience, args.Outcome, args.Lesson)
			return acquireSkill(ctx, skill.Skill{
				Name: args.SkillName, SituationPattern: args.SituationPattern,
				Guidance: guidance, Source: skill.SourceAcquiredExperience,
			})
		},
	})

	d.Register(Descriptor{
		Name:        "learn_from_peer",
		Description: "Create a new skill distilled from another agent's lesson.",
		Purpose:     "analysis",
		Schema:      GenerateSchema[learnFromPeerArgs](),
		Handler: func(ctx *Context, raw json.RawMessage) Outcome {
			args, err := ParseArgs[learnFromPeerArgs](raw)
			if err != nil {
				return ErrorOutcome(err)
			}
			guidance := fmt.Sprintf("%s\n\nLearned from peer %s: %s", args.Guidance, args.PeerAgentID, args.Lesson)
			return acquireSkill(ctx, skill.Skill{
				Name: args.SkillName, SituationPattern: args.SituationPattern,
				Guidance: guidance, Source: skill.SourceAcquiredPeer,
			})
		},
	})

	d.Register(Descriptor{
		Name:        "reflect_and_learn",
		Description: "Create a new skill distilled from self-reflection.",
		Purpose:     "analysis",
		Schema:      GenerateSchema[reflectAndLearnArgs](),
		Handler: func(ctx *Context, raw json.RawMessage) Outcome {
			args, err := ParseArgs[reflectAndLearnArgs](raw)
			if err != nil {
				return ErrorOutcome(err)
			}
			guidance := fmt.Sprintf("%s\n\nReflection: %s", args.Guidance, args.Reflection)
			return acquireSkill(ctx, skill.Skill{
				Name: args.SkillName, SituationPattern: args.SituationPattern,
				Guidance: guidance, Source: skill.SourceAcquiredReflection,
			})
		},
	})

	d.Register(Descriptor{
		Name:        "create_my_skill",
		Description: "Explicitly create a new skill with no originating experience.",
		Purpose:     "creative",
		Schema:      GenerateSchema[createMySkillArgs](),
		Handler: func(ctx *Context, raw json.RawMessage) Outcome {
			args, err := ParseArgs[createMySkillArgs](raw)
			if err != nil {
				return ErrorOutcome(err)
			}
			return acquireSkill(ctx, skill.Skill{
				Name: args.SkillName, Description: args.Description,
				SituationPattern: args.SituationPattern, Guidance: args.Guidance,
				Actions: args.Actions, Source: skill.SourceAcquiredExperience,
			})
		},
	})
}

func acquireSkill(ctx *Context, s skill.Skill) Outcome {
	id, err := ctx.Skills.Acquire(s)
	if err != nil {
		return ErrorOutcome(fmt.Errorf("acquire skill: %w", err))
	}
	return Outcome{Success: true, Data: map[string]any{"skill_id": id, "name": s.Name}, SideEffects: []string{"skill:acquired"}}
}
