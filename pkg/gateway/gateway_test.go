package gateway_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kadirpekel/agentcore/pkg/agentcfg"
	"github.com/kadirpekel/agentcore/pkg/gateway"
	"github.com/kadirpekel/agentcore/pkg/llmrouter"
	"github.com/kadirpekel/agentcore/pkg/telemetry"
)

type fakeProvider struct {
	name, vendor, model string
	resp                llmrouter.ChatResponse
}

func (f *fakeProvider) Name() string   { return f.name }
func (f *fakeProvider) Vendor() string { return f.vendor }
func (f *fakeProvider) Model() string  { return f.model }
func (f *fakeProvider) Chat(_ context.Context, _ llmrouter.ChatRequest) (llmrouter.ChatResponse, error) {
	return f.resp, nil
}
func (f *fakeProvider) HealthCheck(_ context.Context) error { return nil }

func newTestGateway(t *testing.T) *gateway.Gateway {
	t.Helper()
	cfg := agentcfg.Config{
		Store: agentcfg.StoreConfig{Dialect: "sqlite", DSN: ":memory:"},
		Providers: map[string]*agentcfg.LLMProviderConfig{
			// Built for real (ollama needs no API key) so config
			// validation's fallback_chain/provider cross-check
			// passes; the test then overwrites this entry with a
			// scripted fakeProvider under the same router name.
			"fake": {Type: agentcfg.ProviderOllama, Model: "llama3.2"},
		},
		Agents: map[string]*agentcfg.AgentConfig{
			"scout": {
				ID:       "scout",
				Name:     "Scout",
				Identity: agentcfg.IdentityConfig{DisplayName: "Scout", Role: "assistant"},
				Router: agentcfg.RouterConfig{
					Aliases:       map[string]string{"tool_calling": "fake"},
					FallbackChain: []string{"fake"},
				},
				Workspace: agentcfg.WorkspaceConfig{Root: t.TempDir()},
			},
		},
	}

	gw, err := gateway.New(context.Background(), cfg, telemetry.Config{})
	require.NoError(t, err)
	t.Cleanup(func() { _ = gw.Close() })

	gw.RegisterProvider(&fakeProvider{
		name: "fake", vendor: "anthropic", model: "m1",
		resp: llmrouter.ChatResponse{Text: "hello from scout"},
	})
	return gw
}

func TestProcessReturnsFreeFormReply(t *testing.T) {
	gw := newTestGateway(t)

	out, err := gw.Process(context.Background(), "scout", gateway.IncomingMessage{
		SessionID: "sess-1", SpeakerID: "user-1", Content: "hi",
	})
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, "reply", out[0].Kind)
	assert.Equal(t, "hello from scout", out[0].Content)
}

func TestProcessUnknownAgentErrors(t *testing.T) {
	gw := newTestGateway(t)

	_, err := gw.Process(context.Background(), "nonexistent", gateway.IncomingMessage{
		SessionID: "sess-1", SpeakerID: "user-1", Content: "hi",
	})
	assert.Error(t, err)
}
