package action

import (
	"encoding/json"
)

type searchMyHistoryArgs struct {
	Query     string `json:"query" jsonschema:"required,description=Search query"`
	Limit     int    `json:"limit,omitempty" jsonschema:"description=Maximum results,default=10"`
	SessionID string `json:"session_id,omitempty" jsonschema:"description=Restrict the search to one session; omit to search every session"`
}

type summarizeAndSaveArgs struct {
	Content  string `json:"content" jsonschema:"required,description=Summary text to persist"`
	Category string `json:"category" jsonschema:"required,description=Curated memory category to write to"`
}

// RegisterSearch adds the search/summarization group of spec.md §4.3.
func RegisterSearch(d *Dispatcher) {
	d.Register(Descriptor{
		Name:        "search_my_history",
		Description: "Run BM25 full-text search over this agent's session logs.",
		Purpose:     "analysis",
		Schema:      GenerateSchema[searchMyHistoryArgs](),
		Handler: func(ctx *Context, raw json.RawMessage) Outcome {
			args, err := ParseArgs[searchMyHistoryArgs](raw)
			if err != nil {
				return ErrorOutcome(err)
			}
			limit := args.Limit
			if limit <= 0 {
				limit = 10
			}
			results, err := ctx.Memory.Search(args.Query, limit, args.SessionID)
			if err != nil {
				return ErrorOutcome(err)
			}
			return Outcome{Success: true, Data: map[string]any{"results": results}}
		},
	})

	d.Register(Descriptor{
		Name:        "summarize_and_save",
		Description: "Write a curated memory entry.",
		Purpose:     "analysis",
		Schema:      GenerateSchema[summarizeAndSaveArgs](),
		Handler: func(ctx *Context, raw json.RawMessage) Outcome {
			args, err := ParseArgs[summarizeAndSaveArgs](raw)
			if err != nil {
				return ErrorOutcome(err)
			}
			if err := ctx.Memory.Upsert(args.Category, args.Content); err != nil {
				return ErrorOutcome(err)
			}
			return Outcome{Success: true, Data: map[string]any{"saved": true}, SideEffects: []string{"memory:curated_upsert"}}
		},
	})
}
