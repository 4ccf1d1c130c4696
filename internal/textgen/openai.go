package textgen

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/jsonschema-go/jsonschema"
	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/packages/param"
)

// OpenAI generates structured JSON through chat completions with a
// json_schema response format.
type OpenAI struct {
	client      openai.Client
	model       string
	temperature float64
}

// NewOpenAI creates an OpenAI provider. baseURL may be empty; it is set for
// OpenAI-compatible gateways.
func NewOpenAI(apiKey, baseURL, model string, temperature float64) (*OpenAI, error) {
	if apiKey == "" {
		return nil, errors.New("openai api key missing")
	}
	opts := []option.RequestOption{option.WithAPIKey(apiKey)}
	if baseURL != "" {
		opts = append(opts, option.WithBaseURL(baseURL))
	}
	return &OpenAI{
		client:      openai.NewClient(opts...),
		model:       ResolveModel(ProviderOpenAI, model),
		temperature: temperature,
	}, nil
}

func (o *OpenAI) Provider() string { return ProviderOpenAI }
func (o *OpenAI) Model() string    { return o.model }

func (o *OpenAI) Generate(ctx context.Context, req Request) (Response, error) {
	msgs := []openai.ChatCompletionMessageParamUnion{}
	if req.System != "" {
		msgs = append(msgs, openai.SystemMessage(req.System))
	}
	msgs = append(msgs, openai.UserMessage(req.Prompt))

	params := openai.ChatCompletionNewParams{
		Model:       openai.ChatModel(o.model),
		Messages:    msgs,
		Temperature: openai.Float(o.temperature),
	}
	if req.Shape.Schema != nil {
		params.ResponseFormat = openai.ChatCompletionNewParamsResponseFormatUnion{
			OfJSONSchema: &openai.ResponseFormatJSONSchemaParam{
				JSONSchema: openai.ResponseFormatJSONSchemaJSONSchemaParam{
					Name:        req.Shape.Name,
					Description: param.NewOpt(req.Shape.Description),
					Schema:      req.Shape.Schema,
					Strict:      param.NewOpt(strictCompatible(req.Shape.Schema)),
				},
			},
		}
	} else {
		params.ResponseFormat = openai.ChatCompletionNewParamsResponseFormatUnion{
			OfJSONObject: &openai.ResponseFormatJSONObjectParam{},
		}
	}

	resp, err := o.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return Response{}, fmt.Errorf("openai %s: %w", req.Operation, err)
	}
	if len(resp.Choices) == 0 {
		return Response{}, fmt.Errorf("openai %s: no choices", req.Operation)
	}
	choice := resp.Choices[0]
	if choice.Message.Refusal != "" {
		return Response{}, fmt.Errorf("openai %s: refused: %s", req.Operation, choice.Message.Refusal)
	}

	return Response{
		Text: choice.Message.Content,
		Usage: Usage{
			Provider:     ProviderOpenAI,
			Model:        o.model,
			InputTokens:  int(resp.Usage.PromptTokens),
			OutputTokens: int(resp.Usage.CompletionTokens),
		},
	}, nil
}

// strictCompatible reports whether every object in the schema requires all
// of its properties, which OpenAI strict mode demands.
func strictCompatible(s *jsonschema.Schema) bool {
	if s == nil {
		return true
	}
	if len(s.Properties) > 0 {
		required := make(map[string]bool, len(s.Required))
		for _, k := range s.Required {
			required[k] = true
		}
		for k, prop := range s.Properties {
			if !required[k] || !strictCompatible(prop) {
				return false
			}
		}
	}
	return strictCompatible(s.Items)
}
