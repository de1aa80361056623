package action

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/kadirpekel/agentcore/pkg/store"
)

type sendSpeechArgs struct {
	Content string `json:"content" jsonschema:"required,description=The message to say aloud to the user or other participants"`
}

type sendNoReactArgs struct{}

type declareDoneArgs struct{}

type generateInnerVoiceArgs struct {
	Content string `json:"content" jsonschema:"required,description=A private reasoning note; never shown to the user"`
}

type broadcastGuidanceArgs struct {
	Content string `json:"content" jsonschema:"required,description=Guidance broadcast to every participant in the session"`
}

// RegisterUtterance adds the utterance group of spec.md §4.3: send_speech,
// send_noreact, and declare_done are terminal; generate_inner_voice is not.
func RegisterUtterance(d *Dispatcher) {
	d.Register(Descriptor{
		Name:        "send_speech",
		Description: "Say something out loud; ends the current reasoning loop iteration.",
		Terminal:    true,
		Purpose:     "conversation",
		Schema:      GenerateSchema[sendSpeechArgs](),
		Handler: func(ctx *Context, raw json.RawMessage) Outcome {
			args, err := ParseArgs[sendSpeechArgs](raw)
			if err != nil {
				return ErrorOutcome(err)
			}
			if _, err := ctx.appendLog(store.LogKindUtterance, args.Content, ""); err != nil {
				return ErrorOutcome(err)
			}
			return Outcome{Success: true, Data: map[string]any{"content": args.Content}, SideEffects: []string{"session_log:utterance"}}
		},
	})

	d.Register(Descriptor{
		Name:        "send_noreact",
		Description: "Deliberately say nothing; ends the current reasoning loop iteration.",
		Terminal:    true,
		Purpose:     "conversation",
		Schema:      GenerateSchema[sendNoReactArgs](),
		Handler: func(ctx *Context, _ json.RawMessage) Outcome {
			if _, err := ctx.appendLog(store.LogKindSystem, "", ""); err != nil {
				return ErrorOutcome(err)
			}
			return Outcome{Success: true, SideEffects: []string{"session_log:noreact"}}
		},
	})

	d.Register(Descriptor{
		Name:        "declare_done",
		Description: "Mark this agent as done participating in the current session.",
		Terminal:    true,
		Schema:      GenerateSchema[declareDoneArgs](),
		Handler: func(ctx *Context, _ json.RawMessage) Outcome {
			sess, err := ctx.DB.GetSession(ctx.AgentID, ctx.SessionID)
			if err != nil {
				return ErrorOutcome(fmt.Errorf("declare_done: %w", err))
			}
			sess.DoneCount++
			sess.UpdatedAt = time.Now().UTC()

			var participants []string
			if sess.ParticipantsJSON != "" {
				if err := json.Unmarshal([]byte(sess.ParticipantsJSON), &participants); err != nil {
					return ErrorOutcome(fmt.Errorf("declare_done: decode participants: %w", err))
				}
			}
			if sess.DoneCount >= len(participants) {
				sess.Status = store.SessionStatusDone
			}

			if err := ctx.DB.UpdateSession(sess); err != nil {
				return ErrorOutcome(fmt.Errorf("declare_done: %w", err))
			}
			if _, err := ctx.appendLog(store.LogKindSystem, "declared done", ""); err != nil {
				return ErrorOutcome(err)
			}
			return Outcome{Success: true, Data: map[string]any{"done_count": sess.DoneCount, "session_status": sess.Status}, SideEffects: []string{"session:done_count"}}
		},
	})

	d.Register(Descriptor{
		Name:        "generate_inner_voice",
		Description: "Record a private reasoning note. Not shown to the user; does not end the iteration.",
		Terminal:    false,
		Purpose:     "thinking",
		Schema:      GenerateSchema[generateInnerVoiceArgs](),
		Handler: func(ctx *Context, raw json.RawMessage) Outcome {
			args, err := ParseArgs[generateInnerVoiceArgs](raw)
			if err != nil {
				return ErrorOutcome(err)
			}
			if _, err := ctx.appendLog("inner_voice", args.Content, ""); err != nil {
				return ErrorOutcome(err)
			}
			return Outcome{Success: true, SideEffects: []string{"session_log:inner_voice"}}
		},
	})

	d.Register(Descriptor{
		Name:        "broadcast_guidance",
		Description: "Broadcast a guidance message to every participant in the session; ends the current iteration.",
		Terminal:    true,
		Schema:      GenerateSchema[broadcastGuidanceArgs](),
		Handler: func(ctx *Context, raw json.RawMessage) Outcome {
			args, err := ParseArgs[broadcastGuidanceArgs](raw)
			if err != nil {
				return ErrorOutcome(err)
			}
			if _, err := ctx.appendLog("guidance", args.Content, ""); err != nil {
				return ErrorOutcome(err)
			}
			return Outcome{Success: true, Data: map[string]any{"content": args.Content}, SideEffects: []string{"session_log:guidance"}}
		},
	})
}
