package agentcfg_test

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kadirpekel/agentcore/pkg/agentcfg"
)

func TestLLMProviderConfigSetDefaults(t *testing.T) {
	os.Setenv("ANTHROPIC_API_KEY", "sk-ant-from-env")
	defer os.Unsetenv("ANTHROPIC_API_KEY")

	cfg := agentcfg.LLMProviderConfig{Name: "main", Type: agentcfg.ProviderAnthropic}
	cfg.SetDefaults()

	require.NotNil(t, cfg.Temperature)
	assert.Equal(t, 0.7, *cfg.Temperature)
	assert.Equal(t, 4096, cfg.MaxTokens)
	assert.Equal(t, "sk-ant-from-env", cfg.APIKey)
}

func TestLLMProviderConfigValidateRejectsMissingAPIKey(t *testing.T) {
	cfg := agentcfg.LLMProviderConfig{Name: "main", Type: agentcfg.ProviderOpenAI, Model: "gpt-4o-mini"}
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "api key is required")
}

func TestLLMProviderConfigValidateAllowsOllamaWithoutAPIKey(t *testing.T) {
	cfg := agentcfg.LLMProviderConfig{Name: "local", Type: agentcfg.ProviderOllama, Model: "llama3.2"}
	assert.NoError(t, cfg.Validate())
}

func TestRouterConfigAllowsAlias(t *testing.T) {
	cfg := agentcfg.RouterConfig{Whitelist: []string{"fast", "smart"}}
	assert.True(t, cfg.AllowsAlias("fast"))
	assert.False(t, cfg.AllowsAlias("reasoning"))

	unrestricted := agentcfg.RouterConfig{}
	assert.True(t, unrestricted.AllowsAlias("anything"))
}

func TestRouterConfigValidateRequiresFallbackChain(t *testing.T) {
	cfg := agentcfg.RouterConfig{}
	require.Error(t, cfg.Validate())
}

func TestConfigValidateCatchesUnknownFallbackProvider(t *testing.T) {
	cfg := agentcfg.Config{
		Store: agentcfg.StoreConfig{Dialect: "sqlite", DSN: ":memory:"},
		Providers: map[string]*agentcfg.LLMProviderConfig{
			"main": {Name: "main", Type: agentcfg.ProviderOllama, Model: "llama3.2"},
		},
		Agents: map[string]*agentcfg.AgentConfig{
			"scout": {ID: "scout", Router: agentcfg.RouterConfig{FallbackChain: []string{"missing"}}},
		},
	}

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown provider")
}

func TestConfigValidateAcceptsKnownFallbackProvider(t *testing.T) {
	cfg := agentcfg.Config{
		Store: agentcfg.StoreConfig{Dialect: "sqlite", DSN: ":memory:"},
		Providers: map[string]*agentcfg.LLMProviderConfig{
			"main": {Name: "main", Type: agentcfg.ProviderOllama, Model: "llama3.2"},
		},
		Agents: map[string]*agentcfg.AgentConfig{
			"scout": {ID: "scout", Router: agentcfg.RouterConfig{FallbackChain: []string{"main"}}},
		},
	}
	assert.NoError(t, cfg.Validate())
}

func TestExpandEnvLeavesLiteralsUntouched(t *testing.T) {
	assert.Equal(t, "plain-value", agentcfg.ExpandEnv("plain-value"))
}

func TestExpandEnvResolvesVariables(t *testing.T) {
	os.Setenv("AGENTCORE_TEST_VAR", "resolved")
	defer os.Unsetenv("AGENTCORE_TEST_VAR")
	assert.Equal(t, "resolved", agentcfg.ExpandEnv("${AGENTCORE_TEST_VAR}"))
}
