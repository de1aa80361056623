package telemetry_test

import (
	"context"
	"errors"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kadirpekel/agentcore/pkg/telemetry"
)

func TestNewManagerDisabledIsNilSafe(t *testing.T) {
	m, err := telemetry.NewManager(context.Background(), telemetry.Config{})
	require.NoError(t, err)

	m.Metrics().RecordLLMCall("anthropic", "claude-x", "thinking", 120, 10, 5, 0.002, nil)
	m.Metrics().RecordAction("send_speech", 5, false)
	m.Metrics().RecordReasoningIteration("agent-1", false)
	m.Metrics().RecordMemorySearch("agent-1", 3)

	ctx, span := m.Tracer().StartLLMCall(context.Background(), "agent-1", "thinking", "anthropic", "claude-x")
	m.Tracer().AddLLMUsage(span, 10, 5)
	span.End()
	assert.NotNil(t, ctx)

	require.NoError(t, m.Shutdown(context.Background()))
}

func TestMetricsRecordingWithRegistry(t *testing.T) {
	m, err := telemetry.NewManager(context.Background(), telemetry.Config{
		Metrics: telemetry.MetricsConfig{Enabled: true, Namespace: "test"},
	})
	require.NoError(t, err)
	require.NotNil(t, m.Metrics())

	m.Metrics().RecordLLMCall("openai", "gpt-x", "reflection", 200, 100, 50, 0.01, errors.New("boom"))
	m.Metrics().RecordAction("ws_write", 10, true)
	m.Metrics().RecordReasoningIteration("agent-1", true)

	req := httptest.NewRequest("GET", "/metrics", nil)
	rec := httptest.NewRecorder()
	m.Metrics().Handler().ServeHTTP(rec, req)
	assert.Equal(t, 200, rec.Code)
	assert.Contains(t, rec.Body.String(), "test_llm_calls_total")
}
