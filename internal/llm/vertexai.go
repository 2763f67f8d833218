package llm

import (
	"context"
	"fmt"
	"strings"

	"cloud.google.com/go/vertexai/genai"
	"google.golang.org/api/option"

	"github.com/fmuoria/resmo/internal/apperr"
)

// VertexConfig selects the Vertex AI project and model
type VertexConfig struct {
	ProjectID       string
	Location        string
	Model           string
	CredentialsFile string
}

// VertexAIClient wraps the Vertex AI Gemini API
type VertexAIClient struct {
	client    *genai.Client
	modelName string
}

// NewVertexAIClient creates a new Vertex AI client
func NewVertexAIClient(ctx context.Context, cfg VertexConfig) (*VertexAIClient, error) {
	if cfg.ProjectID == "" {
		return nil, fmt.Errorf("google cloud project is required for vertex ai")
	}
	if cfg.Location == "" {
		cfg.Location = "us-central1"
	}
	if cfg.Model == "" {
		cfg.Model = "gemini-2.5-flash"
	}

	var opts []option.ClientOption
	if cfg.CredentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(cfg.CredentialsFile))
	}

	client, err := genai.NewClient(ctx, cfg.ProjectID, cfg.Location, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create Vertex AI client: %w", err)
	}

	return &VertexAIClient{client: client, modelName: cfg.Model}, nil
}

// model returns a fresh model handle; GenerativeModel config is not safe to
// mutate across concurrent calls.
func (v *VertexAIClient) model() *genai.GenerativeModel {
	m := v.client.GenerativeModel(v.modelName)
	m.SetTemperature(0.2)
	m.SetTopK(40)
	m.SetTopP(0.95)
	m.SetMaxOutputTokens(8192)
	return m
}

// GenerateStructured requests a JSON response constrained by schema
func (v *VertexAIClient) GenerateStructured(ctx context.Context, schema *Schema, out any, parts ...Part) (err error) {
	ctx, span := startSpan(ctx, "vertexai.GenerateStructured", v.modelName, parts)
	defer func() { endSpan(span, err) }()

	m := v.model()
	m.ResponseMIMEType = "application/json"
	if schema != nil {
		m.ResponseSchema = toVertexSchema(schema)
	}

	text, err := v.generate(ctx, m, parts)
	if err != nil {
		return err
	}
	return DecodeJSON(text, out)
}

// GenerateText sends the parts to the model and returns the response text
func (v *VertexAIClient) GenerateText(ctx context.Context, parts ...Part) (text string, err error) {
	ctx, span := startSpan(ctx, "vertexai.GenerateText", v.modelName, parts)
	defer func() { endSpan(span, err) }()

	text, err = v.generate(ctx, v.model(), parts)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(text) == "" {
		return "", apperr.InvalidResponse("empty response from AI model", nil)
	}
	return text, nil
}

func (v *VertexAIClient) generate(ctx context.Context, m *genai.GenerativeModel, parts []Part) (string, error) {
	resp, err := m.GenerateContent(ctx, toVertexParts(parts)...)
	if err != nil {
		return "", apperr.RemoteCallFailure("failed to generate content", err)
	}

	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "", apperr.InvalidResponse("no response candidates returned", nil)
	}

	var sb strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if text, ok := part.(genai.Text); ok {
			sb.WriteString(string(text))
		}
	}
	return sb.String(), nil
}

// Close closes the Vertex AI client
func (v *VertexAIClient) Close() error {
	return v.client.Close()
}

func toVertexParts(parts []Part) []genai.Part {
	out := make([]genai.Part, 0, len(parts))
	for _, p := range parts {
		if p.IsBlob() {
			out = append(out, genai.Blob{MIMEType: p.MIMEType, Data: p.Data})
			continue
		}
		out = append(out, genai.Text(p.Text))
	}
	return out
}

func toVertexSchema(s *Schema) *genai.Schema {
	if s == nil {
		return nil
	}
	out := &genai.Schema{
		Type:        toVertexType(s.Type),
		Description: s.Description,
		Required:    s.Required,
		Items:       toVertexSchema(s.Items),
	}
	if len(s.Properties) > 0 {
		out.Properties = make(map[string]*genai.Schema, len(s.Properties))
		for name, prop := range s.Properties {
			out.Properties[name] = toVertexSchema(prop)
		}
	}
	return out
}

func toVertexType(t SchemaType) genai.Type {
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
