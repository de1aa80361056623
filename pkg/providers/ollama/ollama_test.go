package ollama

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kadirpekel/agentcore/pkg/agentcfg"
	"github.com/kadirpekel/agentcore/pkg/llmrouter"
)

func TestNewAppliesDefaults(t *testing.T) {
	p, err := New(agentcfg.LLMProviderConfig{Name: "local"})
	require.NoError(t, err)
	assert.Equal(t, "local", p.Name())
	assert.Equal(t, string(agentcfg.ProviderOllama), p.Vendor())
	assert.Equal(t, defaultModel, p.Model())
	assert.Equal(t, defaultBaseURL, p.baseURL)
}

func TestNewTrimsTrailingSlashFromBaseURL(t *testing.T) {
	p, err := New(agentcfg.LLMProviderConfig{Name: "local", BaseURL: "http://host:11434/"})
	require.NoError(t, err)
	assert.Equal(t, "http://host:11434", p.baseURL)
}

func TestAdaptMessagesCarriesToolCalls(t *testing.T) {
	msgs := adaptMessages([]llmrouter.Message{
		{Role: "user", Content: "hi"},
		{Role: "assistant", Content: "", ToolCalls: []llmrouter.ToolCall{
			{Name: "ws_write", Arguments: map[string]any{"path": "a.txt"}},
		}},
		{Role: "tool", Content: "ok"},
	})

	require.Len(t, msgs, 3)
	require.Len(t, msgs[1].ToolCalls, 1)
	assert.Equal(t, "ws_write", msgs[1].ToolCalls[0].Function.Name)
}

func TestParseResponseMapsUsageAndToolCalls(t *testing.T) {
	resp := &chatResponse{
		Message: &chatMessage{
			Content: "done",
			ToolCalls: []toolCall{
				{Function: functionCall{Name: "ws_read", Arguments: map[string]any{"path": "a.txt"}}},
			},
		},
		PromptEvalCount: 10,
		EvalCount:       5,
	}

	out := parseResponse(resp, "ollama", "llama3.2")
	assert.Equal(t, "done", out.Text)
	require.Len(t, out.ToolCalls, 1)
	assert.Equal(t, "ws_read", out.ToolCalls[0].Name)
	assert.Equal(t, 10, out.InputTokens)
	assert.Equal(t, 5, out.OutputTokens)
}

func TestParseResponseHandlesNilMessage(t *testing.T) {
	out := parseResponse(&chatResponse{}, "ollama", "llama3.2")
	assert.Empty(t, out.Text)
	assert.Empty(t, out.ToolCalls)
}
