package openai

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	sdk "github.com/openai/openai-go/v2"

	"github.com/kadirpekel/agentcore/pkg/agentcfg"
	"github.com/kadirpekel/agentcore/pkg/llmrouter"
)

func TestNewDefaultsTemperatureAndVendor(t *testing.T) {
	p, err := New(agentcfg.LLMProviderConfig{Name: "main", Model: "gpt-4o-mini", APIKey: "sk-test"}, "openai")
	require.NoError(t, err)
	assert.Equal(t, "main", p.Name())
	assert.Equal(t, "openai", p.Vendor())
	assert.Equal(t, "gpt-4o-mini", p.Model())
	assert.Equal(t, 0.7, p.temperature)
}

func TestNewHonorsExplicitTemperature(t *testing.T) {
	temp := 0.1
	p, err := New(agentcfg.LLMProviderConfig{Name: "main", Model: "gpt-4o-mini", APIKey: "sk-test", Temperature: &temp}, "openai")
	require.NoError(t, err)
	assert.Equal(t, 0.1, p.temperature)
}

func TestAdaptMessagesIncludesToolCallsOnAssistantTurn(t *testing.T) {
	msgs := adaptMessages([]llmrouter.Message{
		{Role: "system", Content: "be terse"},
		{Role: "user", Content: "hi"},
		{Role: "assistant", Content: "", ToolCalls: []llmrouter.ToolCall{
			{ID: "call-1", Name: "ws_write", RawArgs: `{"path":"a.txt"}`},
		}},
		{Role: "tool", ToolCallID: "call-1", Content: "ok"},
	})

	require.Len(t, msgs, 4)
	require.NotNil(t, msgs[2].OfAssistant)
	require.Len(t, msgs[2].OfAssistant.ToolCalls, 1)
	assert.Equal(t, "ws_write", msgs[2].OfAssistant.ToolCalls[0].OfFunction.Function.Name)
}

func TestAdaptToolsBuildsFunctionDefinitions(t *testing.T) {
	tools := adaptTools([]llmrouter.ToolDefinition{
		{Name: "ws_read", Description: "read a file", Parameters: map[string]any{"type": "object"}},
	})
	require.Len(t, tools, 1)
}

func TestClassifyMarksRateLimitRetriable(t *testing.T) {
	err := classify(&sdk.Error{StatusCode: http.StatusTooManyRequests})
	assert.True(t, llmrouter.IsRetriable(err))
}
