package llm

import (
	"context"
	"fmt"
	"strings"

	"google.golang.org/genai"

	"github.com/fmuoria/resmo/internal/apperr"
)

// GeminiClient talks to the Gemini Developer API with an API key
type GeminiClient struct {
	client    *genai.Client
	modelName string
}

// NewGeminiClient creates a client for the Gemini Developer API
func NewGeminiClient(ctx context.Context, apiKey, model string) (*GeminiClient, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("gemini api key is required")
	}
	if model == "" {
		model = "gemini-2.5-flash"
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	return &GeminiClient{client: client, modelName: model}, nil
}

// GenerateStructured requests a JSON response constrained by schema
func (g *GeminiClient) GenerateStructured(ctx context.Context, schema *Schema, out any, parts ...Part) (err error) {
	ctx, span := startSpan(ctx, "gemini.GenerateStructured", g.modelName, parts)
	defer func() { endSpan(span, err) }()

	config := &genai.GenerateContentConfig{
		Temperature:      genai.Ptr[float32](0.2),
		ResponseMIMEType: "application/json",
		ResponseSchema:   toGeminiSchema(schema),
	}

	text, err := g.generate(ctx, parts, config)
	if err != nil {
		return err
	}
	return DecodeJSON(text, out)
}

// GenerateText sends the parts to the model and returns the response text
func (g *GeminiClient) GenerateText(ctx context.Context, parts ...Part) (text string, err error) {
	ctx, span := startSpan(ctx, "gemini.GenerateText", g.modelName, parts)
	defer func() { endSpan(span, err) }()

	text, err = g.generate(ctx, parts, &genai.GenerateContentConfig{
		Temperature: genai.Ptr[float32](0.2),
	})
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(text) == "" {
		return "", apperr.InvalidResponse("empty response from AI model", nil)
	}
	return text, nil
}

func (g *GeminiClient) generate(ctx context.Context, parts []Part, config *genai.GenerateContentConfig) (string, error) {
	contents := []*genai.Content{{
		Role:  "user",
		Parts: toGeminiParts(parts),
	}}

	resp, err := g.client.Models.GenerateContent(ctx, g.modelName, contents, config)
	if err != nil {
		return "", apperr.RemoteCallFailure("failed to generate content", err)
	}
	if len(resp.Candidates) == 0 {
		return "", apperr.InvalidResponse("no response candidates returned", nil)
	}
	return resp.Text(), nil
}

// Close is a no-op; the Gemini client holds no resources that need releasing.
func (g *GeminiClient) Close() error {
	return nil
}

func toGeminiParts(parts []Part) []*genai.Part {
	out := make([]*genai.Part, 0, len(parts))
	for _, p := range parts {
		if p.IsBlob() {
			out = append(out, &genai.Part{InlineData: &genai.Blob{MIMEType: p.MIMEType, Data: p.Data}})
			continue
		}
		out = append(out, &genai.Part{Text: p.Text})
	}
	return out
}

func toGeminiSchema(s *Schema) *genai.Schema {
	if s == nil {
		return nil
	}
	out := &genai.Schema{
		Type:        toGeminiType(s.Type),
		Description: s.Description,
		Required:    s.Required,
		Items:       toGeminiSchema(s.Items),
	}
	if len(s.Properties) > 0 {
		out.Properties = make(map[string]*genai.Schema, len(s.Properties))
		for name, prop := range s.Properties {
			out.Properties[name] = toGeminiSchema(prop)
		}
	}
	return out
}

func toGeminiType(t SchemaType) genai.Type {
	switch t {
	case TypeObject:
		return genai.TypeObject
	case TypeArray:
		return genai.TypeArray
	case TypeString:
		return genai.TypeString
	case TypeNumber:
		return genai.TypeNumber
	case TypeInteger:
		return genai.TypeInteger
	case TypeBoolean:
		return genai.TypeBoolean
	default:
		return genai.TypeUnspecified
	}
}
