package llm

import (
	"context"
	"fmt"
	"time"

	"google.golang.org/genai"
)

const defaultModel = "gemini-2.0-flash"

var _ Provider = (*Gemini)(nil)

// Gemini calls the Gemini API with constrained JSON output.
type Gemini struct {
	client *genai.Client
	model  string
}

func NewGemini(ctx context.Context, apiKey, model string) (*Gemini, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("gemini api key is required")
	}
	if model == "" {
		model = defaultModel
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{APIKey: apiKey})
	if err != nil {
		return nil, fmt.Errorf("creating gemini client: %w", err)
	}
	return &Gemini{client: client, model: model}, nil
}

func (g *Gemini) Available() bool {
	return g != nil && g.client != nil
}

func (g *Gemini) Execute(ctx context.Context, req Request) (*Response, error) {
	if !g.Available() {
		return nil, fmt.Errorf("gemini provider is not configured")
	}

	config := &genai.GenerateContentConfig{}
	if req.Schema != nil {
		config.ResponseMIMEType = "application/json"
		config.ResponseSchema = toGenAISchema(req.Schema)
	}

	start := time.Now()
	result, err := g.client.Models.GenerateContent(ctx, g.model, genai.Text(req.Prompt), config)
	if err != nil {
		return nil, fmt.Errorf("generating content: %w", err)
	}

	text := result.Text()
	if text == "" {
		return nil, fmt.Errorf("empty model reply")
	}
	return &Response{Content: text, Duration: time.Since(start)}, nil
}

func toGenAISchema(s *Schema) *genai.Schema {
	if s == nil {
		return nil
	}
	out := &genai.Schema{
		Description: s.Description,
		Enum:        append([]string{}, s.Enum...),
		Required:    append([]string{}, s.Required...),
	}
	switch s.Type {
	case TypeObject:
		out.Type = genai.TypeObject
	case TypeNumber:
		out.Type = genai.TypeNumber
	default:
		out.Type = genai.TypeString
	}
	if len(s.Properties) > 0 {
		out.Properties = make(map[string]*genai.Schema, len(s.Properties))
		for name, prop := range s.Properties {
			out.Properties[name] = toGenAISchema(prop)
		}
	}
	return out
}
