package llm

import (
	"context"
	"encoding/json"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/fmuoria/resmo/internal/apperr"
)

var tracer = otel.Tracer("github.com/fmuoria/resmo/internal/llm")

// Gateway sends prompts to a generative model
type Gateway interface {
	// GenerateStructured asks for JSON matching schema and decodes it into out.
	GenerateStructured(ctx context.Context, schema *Schema, out any, parts ...Part) error
	// GenerateText returns the model's plain text answer.
	GenerateText(ctx context.Context, parts ...Part) (string, error)
	Close() error
}

// SchemaType mirrors the JSON schema primitive types the models accept
type SchemaType string

const (
	TypeObject  SchemaType = "object"
	TypeArray   SchemaType = "array"
	TypeString  SchemaType = "string"
	TypeNumber  SchemaType = "number"
	TypeInteger SchemaType = "integer"
	TypeBoolean SchemaType = "boolean"
)

// Schema is a provider-neutral description of the expected response shape
type Schema struct {
	Type        SchemaType
	Description string
	Properties  map[string]*Schema
	Items       *Schema
	Required    []string
}

// Part is one piece of prompt content: text or an inline image
type Part struct {
	Text     string
	MIMEType string
	Data     []byte
}

// Text builds a text part.
func Text(s string) Part {
	return Part{Text: s}
}

// Image builds an inline binary part.
func Image(mimeType string, data []byte) Part {
	return Part{MIMEType: mimeType, Data: data}
}

// IsBlob reports whether the part carries binary data.
func (p Part) IsBlob() bool {
	return len(p.Data) > 0
}

// CleanJSON strips markdown code fences models sometimes wrap around JSON.
func CleanJSON(raw string) string {
	s := strings.TrimSpace(raw)
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```JSON")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}

// DecodeJSON parses a model response into out. Anything other than valid
// JSON of the expected shape is an InvalidResponseKind failure.
func DecodeJSON(raw string, out any) error {
	cleaned := CleanJSON(raw)
	if cleaned == "" {
		return apperr.InvalidResponse("empty response from AI model", nil)
	}
	if err := json.Unmarshal([]byte(cleaned), out); err != nil {
		return apperr.InvalidResponse("invalid JSON response from AI model", err)
	}
	return nil
}

func startSpan(ctx context.Context, name, model string, parts []Part) (context.Context, trace.Span) {
	images := 0
	for _, p := range parts {
		if p.IsBlob() {
			images++
		}
	}
	return tracer.Start(ctx, name, trace.WithAttributes(
		attribute.String("llm.model", model),
		attribute.Int("llm.parts", len(parts)),
		attribute.Int("llm.images", images),
	))
}

func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}
