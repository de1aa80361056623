package gemini

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kadirpekel/agentcore/pkg/agentcfg"
	"github.com/kadirpekel/agentcore/pkg/llmrouter"
)

func TestNewRequiresAPIKey(t *testing.T) {
	_, err := New(agentcfg.LLMProviderConfig{Name: "main", Model: "gemini-2.0-flash"})
	require.Error(t, err)
}

func TestAdaptMessagesSeparatesSystemInstruction(t *testing.T) {
	contents, system := adaptMessages([]llmrouter.Message{
		{Role: "system", Content: "be concise"},
		{Role: "user", Content: "hi"},
		{Role: "assistant", Content: "hello", ToolCalls: []llmrouter.ToolCall{
			{ID: "call-1", Name: "ws_list", Arguments: map[string]any{"path": "."}},
		}},
		{Role: "tool", ToolCallID: "call-1", Content: "[a.txt]"},
	})

	require.NotNil(t, system)
	assert.Equal(t, "be concise", system.Parts[0].Text)
	require.Len(t, contents, 3)
	assert.Equal(t, "model", contents[1].Role)
}

func TestAdaptToolsBuildsFunctionDeclarations(t *testing.T) {
	tools := adaptTools([]llmrouter.ToolDefinition{
		{Name: "ws_list", Description: "list files", Parameters: map[string]any{
			"type":       "object",
			"properties": map[string]any{"path": map[string]any{"type": "string"}},
			"required":   []string{"path"},
		}},
	})

	require.Len(t, tools, 1)
	require.Len(t, tools[0].FunctionDeclarations, 1)
	decl := tools[0].FunctionDeclarations[0]
	assert.Equal(t, "ws_list", decl.Name)
	require.NotNil(t, decl.Parameters)
	assert.Contains(t, decl.Parameters.Properties, "path")
}

func TestToGenaiSchemaNilInputYieldsNil(t *testing.T) {
	assert.Nil(t, toGenaiSchema(nil))
}
