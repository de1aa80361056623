// Package openai adapts OpenAI-compatible chat-completion backends to
// llmrouter.Provider using the official SDK, the same library the pack's
// intelligencedev-manifold example wraps for its own provider client.
package openai

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	sdk "github.com/openai/openai-go/v2"
	"github.com/openai/openai-go/v2/option"

	"github.com/kadirpekel/agentcore/pkg/agentcfg"
	"github.com/kadirpekel/agentcore/pkg/llmrouter"
)

// Provider implements llmrouter.Provider against the Chat Completions API.
// The same client also serves Ollama-compatible and other OpenAI-shaped
// self-hosted backends when cfg.BaseURL is set, mirroring the teacher's
// single-vendor-many-backends pattern.
type Provider struct {
	name        string
	vendor      string
	model       string
	maxTokens   int64
	temperature float64
	client      sdk.Client
}

// New builds a provider instance from one configured backend.
func New(cfg agentcfg.LLMProviderConfig, vendor string) (*Provider, error) {
	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		option.WithHTTPClient(&http.Client{Timeout: cfg.Timeout}),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(strings.TrimSuffix(cfg.BaseURL, "/")))
	}
	temp := 0.7
	if cfg.Temperature != nil {
		temp = *cfg.Temperature
	}
	return &Provider{
		name:        cfg.Name,
		vendor:      vendor,
		model:       cfg.Model,
		maxTokens:   int64(cfg.MaxTokens),
		temperature: temp,
		client:      sdk.NewClient(opts...),
	}, nil
}

func (p *Provider) Name() string   { return p.name }
func (p *Provider) Vendor() string { return p.vendor }
func (p *Provider) Model() string  { return p.model }

// Chat issues one non-streaming Chat Completions call.
func (p *Provider) Chat(ctx context.Context, req llmrouter.ChatRequest) (llmrouter.ChatResponse, error) {
	params := sdk.ChatCompletionNewParams{
		Model:       sdk.ChatModel(p.model),
		Messages:    adaptMessages(req.Messages),
		Temperature: sdk.Float(p.temperature),
		MaxTokens:   sdk.Int(p.maxTokens),
	}
	if len(req.Tools) > 0 {
		params.Tools = adaptTools(req.Tools)
	}

	comp, err := p.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return llmrouter.ChatResponse{}, classify(err)
	}
	if len(comp.Choices) == 0 {
		return llmrouter.ChatResponse{}, fmt.Errorf("openai provider %q: empty choices", p.name)
	}

	choice := comp.Choices[0].Message
	var toolCalls []llmrouter.ToolCall
	for _, tc := range choice.ToolCalls {
		args := map[string]any{}
		_ = json.Unmarshal([]byte(tc.Function.Arguments), &args)
		toolCalls = append(toolCalls, llmrouter.ToolCall{
			ID: tc.ID, Name: tc.Function.Name, Arguments: args, RawArgs: tc.Function.Arguments,
		})
	}

	return llmrouter.ChatResponse{
		Text:         choice.Content,
		ToolCalls:    toolCalls,
		InputTokens:  int(comp.Usage.PromptTokens),
		OutputTokens: int(comp.Usage.CompletionTokens),
		Provider:     p.vendor,
		Model:        p.model,
	}, nil
}

// HealthCheck issues a minimal, cheap request to confirm reachability.
func (p *Provider) HealthCheck(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	_, err := p.client.Chat.Completions.New(ctx, sdk.ChatCompletionNewParams{
		Model:     sdk.ChatModel(p.model),
		MaxTokens: sdk.Int(1),
		Messages:  []sdk.ChatCompletionMessageParamUnion{sdk.UserMessage("ping")},
	})
	if err != nil {
		return classify(err)
	}
	return nil
}

func adaptMessages(msgs []llmrouter.Message) []sdk.ChatCompletionMessageParamUnion {
	out := make([]sdk.ChatCompletionMessageParamUnion, 0, len(msgs))
	for _, m := range msgs {
		switch m.Role {
		case "system":
			out = append(out, sdk.SystemMessage(m.Content))
		case "user":
			out = append(out, sdk.UserMessage(m.Content))
		case "assistant":
			if len(m.ToolCalls) == 0 {
				out = append(out, sdk.AssistantMessage(m.Content))
				continue
			}
			asst := sdk.ChatCompletionAssistantMessageParam{}
			asst.Content.OfString = sdk.String(m.Content)
			for _, tc := range m.ToolCalls {
				fn := sdk.ChatCompletionMessageFunctionToolCallParam{
					ID: tc.ID,
					Function: sdk.ChatCompletionMessageFunctionToolCallFunctionParam{
						Name: tc.Name, Arguments: tc.RawArgs,
					},
				}
				asst.ToolCalls = append(asst.ToolCalls, sdk.ChatCompletionMessageToolCallUnionParam{OfFunction: &fn})
			}
			out = append(out, sdk.ChatCompletionMessageParamUnion{OfAssistant: &asst})
		case "tool":
			out = append(out, sdk.ToolMessage(m.Content, m.ToolCallID))
		}
	}
	return out
}

func adaptTools(tools []llmrouter.ToolDefinition) []sdk.ChatCompletionToolUnionParam {
	out := make([]sdk.ChatCompletionToolUnionParam, 0, len(tools))
	for _, t := range tools {
		out = append(out, sdk.ChatCompletionFunctionTool(sdk.FunctionDefinitionParam{
			Name:        t.Name,
			Description: sdk.String(t.Description),
			Parameters:  t.Parameters,
		}))
	}
	return out
}

// classify marks 429/5xx failures retriable so the router's fallback chain
// advances past this provider instead of failing outright.
func classify(err error) error {
	if apiErr, ok := err.(*sdk.Error); ok {
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
