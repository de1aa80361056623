package action

import (
	"encoding/json"
	"fmt"

	"github.com/invopop/jsonschema"
)

// GenerateSchema reflects a Go argument struct into the parameter schema an
// action descriptor advertises to the model. Same reflector settings and
// object-unwrapping the teacher's function-tool schema generator uses, so
// tool parameter shapes stay drop-in compatible with the same tool-calling
// conventions.
func GenerateSchema[T any]() map[string]any {
	reflector := &jsonschema.Reflector{
		RequiredFromJSONSchemaTags: true,
		ExpandedStruct:             true,
		DoNotReference:             true,
	}
	schema := reflector.Reflect(new(T))

	data, err := json.Marshal(schema)
	if err != nil {
		panic(fmt.Sprintf("action: marshal schema: %v", err))
	}
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		panic(fmt.Sprintf("action: unmarshal schema: %v", err))
	}
	delete(raw, "$schema")
	delete(raw, "$id")

	if raw["type"] != "object" {
		return raw
	}
	result := map[string]any{
		"type":       "object",
		"properties": raw["properties"],
	}
	if required, ok := raw["required"]; ok {
		result["required"] = toStringSlice(required)
	}
	if addProps, ok := raw["additionalProperties"]; ok {
		result["additionalProperties"] = addProps
	}
	return result
}

// toStringSlice converts a "required" field decoded off the back of
// json.Unmarshal — always []any, never []string, since encoding/json never
// produces typed slices into a map[string]any — into the []string providers
// expect.
func toStringSlice(v any) []string {
	items, ok := v.([]any)
	if !ok {
		return nil
	}
	out := make([]string, 0, len(items))
	for _, item := range items {
		if s, ok := item.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

// ParseArgs unmarshals a tool call's JSON arguments into T, returning the
// "invalid_arguments" error the reasoning loop turns into a synthetic tool
// result on failure.
func ParseArgs[T any](raw json.RawMessage) (T, error) {
	var args T
	if len(raw) == 0 {
		return args, nil
	}
	if err := json.Unmarshal(raw, &args); err != nil {
		return args, fmt.Errorf("invalid_arguments: %w", err)
	}
	return args, nil
}
