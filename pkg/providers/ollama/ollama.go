// Package ollama adapts a local/self-hosted Ollama server to
// llmrouter.Provider. No official Go SDK exists for Ollama, so this
// generalizes the teacher's hand-rolled Chat API client
// (pkg/model/ollama/ollama.go), simplified to non-streaming and built on
// the teacher's own retrying pkg/httpclient instead of a bare http.Client.
package ollama

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/kadirpekel/agentcore/pkg/agentcfg"
	"github.com/kadirpekel/agentcore/pkg/httpclient"
	"github.com/kadirpekel/agentcore/pkg/llmrouter"
)

const (
	defaultBaseURL = "http://localhost:11434"
	defaultModel   = "llama3.2"
)

// Provider implements llmrouter.Provider against Ollama's /api/chat endpoint.
type Provider struct {
	http        *httpclient.Client
	name        string
	baseURL     string
	model       string
	temperature float64
	numPredict  int
}

// New builds a provider instance from one configured backend.
func New(cfg agentcfg.LLMProviderConfig) (*Provider, error) {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	baseURL = strings.TrimSuffix(baseURL, "/")

	model := cfg.Model
	if model == "" {
		model = defaultModel
	}

	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 300 * time.Second
	}

	temp := 0.7
	if cfg.Temperature != nil {
		temp = *cfg.Temperature
	}

	return &Provider{
		http: httpclient.New(
			httpclient.WithHTTPClient(&http.Client{Timeout: timeout}),
			httpclient.WithMaxRetries(3),
			httpclient.WithBaseDelay(2*time.Second),
		),
		name:        cfg.Name,
		baseURL:     baseURL,
		model:       model,
		temperature: temp,
		numPredict:  cfg.MaxTokens,
	}, nil
}

func (p *Provider) Name() string   { return p.name }
func (p *Provider) Vendor() string { return string(agentcfg.ProviderOllama) }
func (p *Provider) Model() string  { return p.model }

// Chat issues one non-streaming /api/chat call.
func (p *Provider) Chat(ctx context.Context, req llmrouter.ChatRequest) (llmrouter.ChatResponse, error) {
	apiReq := chatRequest{
		Model:    p.model,
		Stream:   false,
		Messages: adaptMessages(req.Messages),
		Options: map[string]any{
			"temperature": p.temperature,
		},
	}
	if p.numPredict > 0 {
		apiReq.Options["num_predict"] = p.numPredict
	}
	if len(req.Tools) > 0 {
		apiReq.Tools = adaptTools(req.Tools)
	}

	body, err := json.Marshal(apiReq)
	if err != nil {
		return llmrouter.ChatResponse{}, fmt.Errorf("ollama provider %q: marshal request: %w", p.name, err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/api/chat", bytes.NewReader(body))
	if err != nil {
		return llmrouter.ChatResponse{}, fmt.Errorf("ollama provider %q: build request: %w", p.name, err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := p.http.Do(httpReq)
	if err != nil {
		return llmrouter.ChatResponse{}, llmrouter.Retriable(fmt.Errorf("ollama provider %q: %w", p.name, err))
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		errBody, _ := io.ReadAll(resp.Body)
		callErr := fmt.Errorf("ollama provider %q: status %d: %s", p.name, resp.StatusCode, string(errBody))
		if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
			return llmrouter.ChatResponse{}, llmrouter.Retriable(callErr)
		}
		return llmrouter.ChatResponse{}, callErr
	}

	var apiResp chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&apiResp); err != nil {
		return llmrouter.ChatResponse{}, fmt.Errorf("ollama provider %q: decode response: %w", p.name, err)
	}
	return parseResponse(&apiResp, p.Vendor(), p.model), nil
}

// HealthCheck issues a minimal, cheap request to confirm reachability.
func (p *Provider) HealthCheck(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	_, err := p.Chat(ctx, llmrouter.ChatRequest{Messages: []llmrouter.Message{{Role: "user", Content: "ping"}}})
	return err
}

func adaptMessages(msgs []llmrouter.Message) []chatMessage {
	out := make([]chatMessage, 0, len(msgs))
	for _, m := range msgs {
		switch m.Role {
		case "system", "user":
			out = append(out, chatMessage{Role: m.Role, Content: m.Content})
		case "assistant":
			cm := chatMessage{Role: "assistant", Content: m.Content}
			for _, tc := range m.ToolCalls {
				cm.ToolCalls = append(cm.ToolCalls, toolCall{Function: functionCall{Name: tc.Name, Arguments: tc.Arguments}})
			}
			out = append(out, cm)
		case "tool":
			out = append(out, chatMessage{Role: "tool", Content: m.Content})
		}
	}
	return out
}

func adaptTools(tools []llmrouter.ToolDefinition) []apiTool {
	out := make([]apiTool, 0, len(tools))
	for _, t := range tools {
		out = append(out, apiTool{
			Type:     "function",
			Function: functionDef{Name: t.Name, Description: t.Description, Parameters: t.Parameters},
		})
	}
	return out
}

func parseResponse(resp *chatResponse, vendor, model string) llmrouter.ChatResponse {
	out := llmrouter.ChatResponse{Provider: vendor, Model: model}
	if resp.Message == nil {
		return out
	}
	out.Text = resp.Message.Content
	for i, tc := range resp.Message.ToolCalls {
		out.ToolCalls = append(out.ToolCalls, llmrouter.ToolCall{
			ID: fmt.Sprintf("call_%d", i), Name: tc.Function.Name, Arguments: tc.Function.Arguments,
		})
	}
	out.InputTokens = resp.PromptEvalCount
	out.OutputTokens = resp.EvalCount
	return out
}

type chatRequest struct {
	Model    string         `json:"model"`
	Messages []chatMessage  `json:"messages"`
	Tools    []apiTool      `json:"tools,omitempty"`
	Options  map[string]any `json:"options,omitempty"`
	Stream   bool           `json:"stream"`
}

type chatMessage struct {
	Role      string     `json:"role"`
	Content   string     `json:"content"`
	ToolCalls []toolCall `json:"tool_calls,omitempty"`
}

type toolCall struct {
	Function functionCall `json:"function"`
}

type functionCall struct {
	Name      string         `json:"name"`
	Arguments map[string]any `json:"arguments"`
}

type apiTool struct {
	Type     string      `json:"type"`
	Function functionDef `json:"function"`
}

type functionDef struct {
	Name        string         `json:"name"`
	Description string         `json:"description,omitempty"`
	Parameters  map[string]any `json:"parameters,omitempty"`
}

type chatResponse struct {
	Message         *chatMessage `json:"message,omitempty"`
	Done            bool         `json:"done"`
	PromptEvalCount int          `json:"prompt_eval_count,omitempty"`
	EvalCount       int          `json:"eval_count,omitempty"`
}
