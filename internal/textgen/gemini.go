package textgen

import (
	"context"
	"fmt"

	"github.com/google/jsonschema-go/jsonschema"
	"github.com/rs/zerolog/log"
	"google.golang.org/genai"
)

// NewGeminiClient creates a genai client for the Gemini API backend.
func NewGeminiClient(ctx context.Context, apiKey string) (*genai.Client, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}
	return client, nil
}

// Gemini generates structured JSON through the Gemini API.
type Gemini struct {
	client      *genai.Client
	model       string
	temperature float32
}

// NewGemini wraps an existing genai client. An empty model selects the
// provider default.
func NewGemini(client *genai.Client, model string, temperature float64) *Gemini {
	return &Gemini{
		client:      client,
		model:       ResolveModel(ProviderGemini, model),
		temperature: float32(temperature),
	}
}

func (g *Gemini) Provider() string { return ProviderGemini }
func (g *Gemini) Model() string    { return g.model }

// Generate asks Gemini for application/json output constrained by the
// request's schema.
func (g *Gemini) Generate(ctx context.Context, req Request) (Response, error) {
	config := &genai.GenerateContentConfig{
		Temperature:      genai.Ptr(g.temperature),
		ResponseMIMEType: "application/json",
		ResponseSchema:   geminiSchema(req.Shape.Schema),
	}
	if req.System != "" {
		config.SystemInstruction = &genai.Content{
			Parts: []*genai.Part{{Text: req.System}},
		}
	}

	contents := []*genai.Content{{Role: "user", Parts: []*genai.Part{{Text: req.Prompt}}}}
	resp, err := g.client.Models.GenerateContent(ctx, g.model, contents, config)
	if err != nil {
		return Response{}, fmt.Errorf("gemini %s: %w", req.Operation, err)
	}

	out := Response{
		Text:  resp.Text(),
		Usage: Usage{Provider: ProviderGemini, Model: g.model},
	}
	if resp.UsageMetadata != nil {
		out.Usage.InputTokens = int(resp.UsageMetadata.PromptTokenCount)
		out.Usage.OutputTokens = int(resp.UsageMetadata.CandidatesTokenCount)
	}
	if out.Text == "" {
		log.Warn().Str("operation", req.Operation).Str("model", g.model).Msg("Gemini returned no text")
	}
	return out, nil
}

// geminiSchema converts a JSON schema into the subset genai understands.
// Nullable unions such as ["null","array"] collapse to their non-null type.
func geminiSchema(schema *jsonschema.Schema) *genai.Schema {
	if schema == nil {
		return nil
	}

	enums := make([]string, 0, len(schema.Enum))
	for _, v := range schema.Enum {
		enums = append(enums, fmt.Sprintf("%v", v))
	}

	gs := &genai.Schema{
		Format:      schema.Format,
		Description: schema.Description,
		Items:       geminiSchema(schema.Items),
		Required:    schema.Required,
	}
	if len(enums) > 0 {
		gs.Enum = enums
	}
	if n := len(schema.Properties); n > 0 {
		gs.Properties = make(map[string]*genai.Schema, n)
		for k, prop := range schema.Properties {
			gs.Properties[k] = geminiSchema(prop)
		}
	}

	typ := schema.Type
	for _, t := range schema.Types {
		if t != "null" {
			typ = t
			break
		}
	}
	switch typ {
	case "object":
		gs.Type = genai.TypeObject
	case "array":
		gs.Type = genai.TypeArray
	case "string":
		gs.Type = genai.TypeString
	case "number":
		gs.Type = genai.TypeNumber
	case "integer":
		gs.Type = genai.TypeInteger
	case "boolean":
		gs.Type = genai.TypeBoolean
	}
	return gs
}
