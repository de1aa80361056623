package action

import (
	"encoding/json"
)

type wsReadArgs struct {
	Path string `json:"path" jsonschema:"required,description=Workspace-relative file path to read"`
}

type wsWriteArgs struct {
	Path    string `json:"path" jsonschema:"required,description=Workspace-relative file path to create or overwrite"`
	Content string `json:"content" jsonschema:"required,description=File content"`
}

type wsEditArgs struct {
	Path string `json:"path" jsonschema:"required,description=Workspace-relative file path to edit"`
	Old  string `json:"old" jsonschema:"required,description=Exact text to replace; must match exactly once in the file"`
	New  string `json:"new" jsonschema:"required,description=Replacement text"`
}

type wsListArgs struct {
	Path string `json:"path" jsonschema:"required,description=Workspace-relative directory path to list"`
}

type wsMkdirArgs struct {
	Path string `json:"path" jsonschema:"required,description=Workspace-relative directory path to create"`
}

type wsDeleteArgs struct {
	Path string `json:"path" jsonschema:"required,description=Workspace-relative file or directory path to delete"`
}

// RegisterWorkspace adds the workspace group of spec.md §4.3 — every path
// is resolved through the sandbox rules of §4.4, so a traversal attempt
// surfaces as a failed Outcome rather than aborting the loop.
func RegisterWorkspace(d *Dispatcher) {
	d.Register(Descriptor{
		Name:        "ws_read",
		Description: "Read a file from the agent's sandboxed workspace.",
		Schema:      GenerateSchema[wsReadArgs](),
		Handler: func(ctx *Context, raw json.RawMessage) Outcome {
			args, err := ParseArgs[wsReadArgs](raw)
			if err != nil {
				return ErrorOutcome(err)
			}
			data, err := ctx.Workspace.Read(args.Path)
			if err != nil {
				return ErrorOutcome(err)
			}
			return Outcome{Success: true, Data: map[string]any{"content": string(data)}}
		},
	})

	d.Register(Descriptor{
		Name:        "ws_write",
		Description: "Create or overwrite a file in the agent's sandboxed workspace.",
		Schema:      GenerateSchema[wsWriteArgs](),
		Handler: func(ctx *Context, raw json.RawMessage) Outcome {
			args, err := ParseArgs[wsWriteArgs](raw)
			if err != nil {
				return ErrorOutcome(err)
			}
			if err := ctx.Workspace.Write(args.Path, []byte(args.Content)); err != nil {
				return ErrorOutcome(err)
			}
			return Outcome{Success: true, Data: map[string]any{"written": true}, SideEffects: []string{"workspace:write"}}
		},
	})

	d.Register(Descriptor{
		Name:        "ws_edit",
		Description: "Replace an exact, unique snippet of text within a workspace file.",
		Schema:      GenerateSchema[wsEditArgs](),
		Handler: func(ctx *Context, raw json.RawMessage) Outcome {
			args, err := ParseArgs[wsEditArgs](raw)
			if err != nil {
				return ErrorOutcome(err)
			}
			if err := ctx.Workspace.Edit(args.Path, args.Old, args.New); err != nil {
				return ErrorOutcome(err)
			}
			return Outcome{Success: true, Data: map[string]any{"edited": true}, SideEffects: []string{"workspace:edit"}}
		},
	})

	d.Register(Descriptor{
		Name:        "ws_list",
		Description: "List files and directories under a workspace path.",
		Schema:      GenerateSchema[wsListArgs](),
		Handler: func(ctx *Context, raw json.RawMessage) Outcome {
			args, err := ParseArgs[wsListArgs](raw)
			if err != nil {
				return ErrorOutcome(err)
			}
			entries, err := ctx.Workspace.List(args.Path)
			if err != nil {
				return ErrorOutcome(err)
			}
			return Outcome{Success: true, Data: map[string]any{"entries": entries}}
		},
	})

	d.Register(Descriptor{
		Name:        "ws_mkdir",
		Description: "Create a directory (and parents) in the agent's sandboxed workspace.",
		Schema:      GenerateSchema[wsMkdirArgs](),
		Handler: func(ctx *Context, raw json.RawMessage) Outcome {
			args, err := ParseArgs[wsMkdirArgs](raw)
			if err != nil {
				return ErrorOutcome(err)
			}
			if err := ctx.Workspace.Mkdir(args.Path); err != nil {
				return ErrorOutcome(err)
			}
			return Outcome{Success: true, Data: map[string]any{"created": true}, SideEffects: []string{"workspace:mkdir"}}
		},
	})

	d.Register(Descriptor{
		Name:        "ws_delete",
		Description: "Delete a file or directory from the agent's sandboxed workspace.",
		Schema:      GenerateSchema[wsDeleteArgs](),
		Handler: func(ctx *Context, raw json.RawMessage) Outcome {
			args, err := ParseArgs[wsDeleteArgs](raw)
			if err != nil {
				return ErrorOutcome(err)
			}
			if err := ctx.Workspace.Delete(args.Path); err != nil {
				return ErrorOutcome(err)
			}
			return Outcome{Success: true, Data: map[string]any{"deleted": true}, SideEffects: []string{"workspace:delete"}}
		},
	})
}
