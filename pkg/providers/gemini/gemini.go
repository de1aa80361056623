// Package gemini adapts Google's Gemini models to llmrouter.Provider using
// the official google.golang.org/genai SDK, simplified from the teacher's
// streaming-aggregator client (pkg/model/gemini/gemini.go) to the
// non-streaming GenerateContent call the router needs.
package gemini

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"google.golang.org/genai"

	"github.com/kadirpekel/agentcore/pkg/agentcfg"
	"github.com/kadirpekel/agentcore/pkg/llmrouter"
)

// Provider implements llmrouter.Provider against the Gemini GenerateContent API.
type Provider struct {
	client      *genai.Client
	name        string
	model       string
	maxTokens   int32
	temperature float32
}

// New builds a provider instance from one configured backend.
func New(cfg agentcfg.LLMProviderConfig) (*Provider, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("gemini provider %q: api key is required", cfg.Name)
	}
	model := cfg.Model
	if model == "" {
		model = "gemini-2.0-flash"
	}
	client, err := genai.NewClient(context.Background(), &genai.ClientConfig{APIKey: cfg.APIKey})
	if err != nil {
		return nil, fmt.Errorf("gemini provider %q: %w", cfg.Name, err)
	}
	temp := float32(1.0)
	if cfg.Temperature != nil {
		temp = float32(*cfg.Temperature)
	}
	return &Provider{
		client:      client,
		name:        cfg.Name,
		model:       model,
		maxTokens:   int32(cfg.MaxTokens),
		temperature: temp,
	}, nil
}

func (p *Provider) Name() string   { return p.name }
func (p *Provider) Vendor() string { return string(agentcfg.ProviderGemini) }
func (p *Provider) Model() string  { return p.model }

// Chat issues one non-streaming GenerateContent call.
func (p *Provider) Chat(ctx context.Context, req llmrouter.ChatRequest) (llmrouter.ChatResponse, error) {
	contents, systemInstruction := adaptMessages(req.Messages)

	config := &genai.GenerateContentConfig{
		SystemInstruction: systemInstruction,
		Temperature:       genai.Ptr(p.temperature),
		MaxOutputTokens:   p.maxTokens,
	}
	if len(req.Tools) > 0 {
		config.Tools = adaptTools(req.Tools)
	}

	resp, err := p.client.Models.GenerateContent(ctx, p.model, contents, config)
	if err != nil {
		return llmrouter.ChatResponse{}, classify(err)
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return llmrouter.ChatResponse{}, fmt.Errorf("gemini provider %q: empty response", p.name)
	}

	var text string
	var toolCalls []llmrouter.ToolCall
	for _, part := range resp.Candidates[0].Content.Parts {
		if part.Text != "" {
			text += part.Text
		}
		if part.FunctionCall != nil {
			rawArgs, _ := json.Marshal(part.FunctionCall.Args)
			toolCalls = append(toolCalls, llmrouter.ToolCall{
				ID: part.FunctionCall.ID, Name: part.FunctionCall.Name,
				Arguments: part.FunctionCall.Args, RawArgs: string(rawArgs),
			})
		}
	}

	out := llmrouter.ChatResponse{Text: text, ToolCalls: toolCalls, Provider: p.Vendor(), Model: p.model}
	if resp.UsageMetadata != nil {
		out.InputTokens = int(resp.UsageMetadata.PromptTokenCount)
		out.OutputTokens = int(resp.UsageMetadata.CandidatesTokenCount)
	}
	return out, nil
}

// HealthCheck issues a minimal, cheap request to confirm reachability.
func (p *Provider) HealthCheck(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	_, err := p.client.Models.GenerateContent(ctx, p.model,
		[]*genai.Content{{Role: "user", Parts: []*genai.Part{{Text: "ping"}}}},
		&genai.GenerateContentConfig{MaxOutputTokens: 1})
	if err != nil {
		return classify(err)
	}
	return nil
}

func adaptMessages(msgs []llmrouter.Message) ([]*genai.Content, *genai.Content) {
	var system *genai.Content
	var contents []*genai.Content
	for _, m := range msgs {
		switch m.Role {
		case "system":
			if m.Content != "" {
				system = &genai.Content{Role: "user", Parts: []*genai.Part{{Text: m.Content}}}
			}
		case "user":
			contents = append(contents, &genai.Content{Role: "user", Parts: []*genai.Part{{Text: m.Content}}})
		case "assistant":
			var parts []*genai.Part
			if m.Content != "" {
				parts = append(parts, &genai.Part{Text: m.Content})
			}
			for _, tc := range m.ToolCalls {
				parts = append(parts, &genai.Part{FunctionCall: &genai.FunctionCall{
					ID: tc.ID, Name: tc.Name, Args: tc.Arguments,
				}})
			}
			if len(parts) > 0 {
				contents = append(contents, &genai.Content{Role: "model", Parts: parts})
			}
		case "tool":
			response := map[string]any{"content": m.Content}
			contents = append(contents, &genai.Content{Role: "user", Parts: []*genai.Part{{
				FunctionResponse: &genai.FunctionResponse{ID: m.ToolCallID, Response: response},
			}}})
		}
	}
	return contents, system
}

func adaptTools(tools []llmrouter.ToolDefinition) []*genai.Tool {
	out := make([]*genai.Tool, 0, len(tools))
	for _, t := range tools {
		out = append(out, &genai.Tool{FunctionDeclarations: []*genai.FunctionDeclaration{{
			Name:        t.Name,
			Description: t.Description,
			Parameters:  toGenaiSchema(t.Parameters),
		}}})
	}
	return out
}

func toGenaiSchema(schema map[string]any) *genai.Schema {
	if schema == nil {
		return nil
	}
	s := &genai.Schema{}
	if t, ok := schema["type"].(string); ok {
		s.Type = genai.Type(t)
	}
	if props, ok := schema["properties"].(map[string]any); ok {
		s.Properties = map[string]*genai.Schema{}
		for k, v := range props {
			if m, ok := v.(map[string]any); ok {
				s.Properties[k] = toGenaiSchema(m)
			}
		}
	}
	if req, ok := schema["required"].([]string); ok {
		s.Required = req
	}
	if desc, ok := schema["description"].(string); ok {
		s.Description = desc
	}
	return s
}

// classify marks network/5xx failures retriable; the genai SDK does not
// expose a stable typed API error, so anything other than a clear
// client-side validation failure is treated as retriable by default.
func classify(err error) error {
	return llmrouter.Retriable(err)
}
