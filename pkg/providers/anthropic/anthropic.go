// Package anthropic adapts Anthropic's Claude models to llmrouter.Provider
// using the official SDK, generalizing the teacher's hand-rolled
// net/http Messages-API client (llms/anthropic.go) to the typed client the
// pack's other examples (intelligencedev-manifold) build on top of.
package anthropic

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	sdk "github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/kadirpekel/agentcore/pkg/agentcfg"
	"github.com/kadirpekel/agentcore/pkg/llmrouter"
)

// Provider implements llmrouter.Provider against the Anthropic Messages API.
type Provider struct {
	name        string
	model       string
	maxTokens   int64
	temperature float64
	client      sdk.Client
}

// New builds a provider instance from one configured backend.
func New(cfg agentcfg.LLMProviderConfig) (*Provider, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("anthropic provider %q: api key is required", cfg.Name)
	}
	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		option.WithHTTPClient(&http.Client{Timeout: cfg.Timeout}),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(strings.TrimSuffix(cfg.BaseURL, "/")))
	}
	temp := 1.0
	if cfg.Temperature != nil {
		temp = *cfg.Temperature
	}
	return &Provider{
		name:        cfg.Name,
		model:       cfg.Model,
		maxTokens:   int64(cfg.MaxTokens),
		temperature: temp,
		client:      sdk.NewClient(opts...),
	}, nil
}

func (p *Provider) Name() string   { return p.name }
func (p *Provider) Vendor() string { return string(agentcfg.ProviderAnthropic) }
func (p *Provider) Model() string  { return p.model }

// Chat issues one non-streaming Messages API call.
func (p *Provider) Chat(ctx context.Context, req llmrouter.ChatRequest) (llmrouter.ChatResponse, error) {
	system, messages := adaptMessages(req.Messages)

	params := sdk.MessageNewParams{
		Model:       sdk.Model(p.model),
		Messages:    messages,
		System:      system,
		MaxTokens:   p.maxTokens,
		Temperature: sdk.Float(p.temperature),
	}
	if len(req.Tools) > 0 {
		params.Tools = adaptTools(req.Tools)
	}

	resp, err := p.client.Messages.New(ctx, params)
	if err != nil {
		return llmrouter.ChatResponse{}, classify(err)
	}

	var text strings.Builder
	var toolCalls []llmrouter.ToolCall
	for _, block := range resp.Content {
		switch v := block.AsAny().(type) {
		case sdk.TextBlock:
			text.WriteString(v.Text)
		case sdk.ToolUseBlock:
			args := map[string]any{}
			_ = json.Unmarshal(v.Input, &args)
			rawArgs, _ := json.Marshal(v.Input)
			toolCalls = append(toolCalls, llmrouter.ToolCall{
				ID: v.ID, Name: v.Name, Arguments: args, RawArgs: string(rawArgs),
			})
		}
	}

	return llmrouter.ChatResponse{
		Text:         text.String(),
		ToolCalls:    toolCalls,
		InputTokens:  int(resp.Usage.InputTokens),
		OutputTokens: int(resp.Usage.OutputTokens),
		Provider:     p.Vendor(),
		Model:        p.model,
	}, nil
}

// HealthCheck issues a minimal, cheap request to confirm reachability.
func (p *Provider) HealthCheck(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	_, err := p.client.Messages.New(ctx, sdk.MessageNewParams{
		Model:     sdk.Model(p.model),
		MaxTokens: 1,
		Messages:  []sdk.MessageParam{sdk.NewUserMessage(sdk.NewTextBlock("ping"))},
	})
	if err != nil {
		return classify(err)
	}
	return nil
}

func adaptMessages(msgs []llmrouter.Message) ([]sdk.TextBlockParam, []sdk.MessageParam) {
	var system []sdk.TextBlockParam
	out := make([]sdk.MessageParam, 0, len(msgs))
	for _, m := range msgs {
		switch m.Role {
		case "system":
			if m.Content != "" {
				system = append(system, sdk.TextBlockParam{Text: m.Content})
			}
		case "user":
			out = append(out, sdk.NewUserMessage(sdk.NewTextBlock(m.Content)))
		case "assistant":
			blocks := []sdk.ContentBlockParamUnion{}
			if m.Content != "" {
				blocks = append(blocks, sdk.NewTextBlock(m.Content))
			}
			for _, tc := range m.ToolCalls {
				blocks = append(blocks, sdk.NewToolUseBlock(tc.ID, tc.Arguments, tc.Name))
			}
			if len(blocks) > 0 {
				out = append(out, sdk.NewAssistantMessage(blocks...))
			}
		case "tool":
			out = append(out, sdk.NewUserMessage(sdk.NewToolResultBlock(m.ToolCallID, m.Content, false)))
		}
	}
	return system, out
}

func adaptTools(tools []llmrouter.ToolDefinition) []sdk.ToolUnionParam {
	out := make([]sdk.ToolUnionParam, 0, len(tools))
	for _, t := range tools {
		schema := sdk.ToolInputSchemaParam{}
		if props, ok := t.Parameters["properties"]; ok {
			schema.Properties = props
		}
		if req, ok := t.Parameters["required"].([]string); ok {
			schema.Required = req
		}
		param := sdk.ToolParam{
			Name:        t.Name,
			Description: sdk.String(t.Description),
			InputSchema: schema,
		}
		out = append(out, sdk.ToolUnionParam{OfTool: &param})
	}
	return out
}

// classify marks 429/5xx/network-timeout failures retriable so the router's
// fallback chain advances past this provider instead of failing outright.
func classify(err error) error {
	var apiErr *sdk.Error
	if ok := asAPIError(err, &apiErr); ok {
		switch apiErr.StatusCode {
		case http.StatusTooManyRequests, http.StatusRequestTimeout,
			http.StatusInternalServerError, http.StatusBadGateway,
			http.StatusServiceUnavailable, http.StatusGatewayTimeout:
			return llmrouter.Retriable(err)
		}
		return err
	}
	return llmrouter.Retriable(err)
}

func asAPIError(err error, target **sdk.Error) bool {
	if apiErr, ok := err.(*sdk.Error); ok {
		*target = apiErr
		return true
	}
	return false
}
