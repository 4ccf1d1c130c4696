// Package textgen is the text generation port: it sends a rendered prompt to
// an LLM provider, asks for JSON matching a schema, and decodes the answer.
//
// Providers never substitute defaults. Every failure (provider error,
// timeout, undecodable output, missing keys) comes back as a
// *GenerationError and the caller picks its own fallback.
package textgen

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"text/template"
	"time"

	"github.com/google/jsonschema-go/jsonschema"
	"github.com/rs/zerolog/log"

	"github.com/fpang/ai-slide-generator/internal/assets"
	"github.com/fpang/ai-slide-generator/internal/jsonutil"
)

// Request is one structured generation call.
type Request struct {
	Operation string // outline, slide_content, critique, refine, feedback
	System    string
	Prompt    string
	Shape     Shape
}

// Response is the raw provider answer plus token accounting.
type Response struct {
	Text  string
	Usage Usage
}

// Usage is the token accounting for one call.
type Usage struct {
	Provider     string `json:"provider"`
	Model        string `json:"model"`
	InputTokens  int    `json:"inputTokens"`
	OutputTokens int    `json:"outputTokens"`
	Estimated    bool   `json:"estimated,omitempty"`
}

// TotalTokens returns input plus output tokens.
func (u Usage) TotalTokens() int {
	return u.InputTokens + u.OutputTokens
}

// Generator is implemented by every LLM provider.
type Generator interface {
	Generate(ctx context.Context, req Request) (Response, error)
	Provider() string
	Model() string
}

// Shape describes the JSON the caller expects back.
type Shape struct {
	Name        string
	Description string
	Schema      *jsonschema.Schema
	// Keys are the top-level object keys that must be present. Empty means
	// the decoded type is trusted to validate itself.
	Keys []string
}

// ShapeFor derives a Shape from a Go type. Fields without omitempty become
// required keys.
func ShapeFor[T any](name, description string) Shape {
	schema, err := jsonschema.For[T](&jsonschema.ForOptions{})
	if err != nil {
		panic(fmt.Sprintf("textgen: schema for %s: %v", name, err))
	}
	return Shape{
		Name:        name,
		Description: description,
		Schema:      schema,
		Keys:        schema.Required,
	}
}

// ErrorKind classifies a GenerationError.
type ErrorKind string

const (
	KindConfig   ErrorKind = "config"   // prompt could not be rendered
	KindProvider ErrorKind = "provider" // the API call failed
	KindTimeout  ErrorKind = "timeout"  // the context expired
	KindDecode   ErrorKind = "decode"   // the answer was not usable JSON
	KindShape    ErrorKind = "shape"    // JSON lacked expected keys or failed validation
)

// GenerationError is returned for every failed structured generation.
type GenerationError struct {
	Op   string
	Kind ErrorKind
	Err  error
}

func (e *GenerationError) Error() string {
	return fmt.Sprintf("%s: %s: %v", e.Op, e.Kind, e.Err)
}

func (e *GenerationError) Unwrap() error {
	return e.Err
}

// IsKind reports whether err is a GenerationError of the given kind.
func IsKind(err error, kind ErrorKind) bool {
	var genErr *GenerationError
	return errors.As(err, &genErr) && genErr.Kind == kind
}

// GenerateStructured renders tmpl with vars, calls g and decodes the answer
// into T. validate, if non-nil, runs on the decoded value and may reject it.
// Usage is returned even when decoding fails, since the tokens were spent.
func GenerateStructured[T any](ctx context.Context, g Generator, op string, tmpl *template.Template, vars any, shape Shape, validate func(T) (T, error)) (T, Usage, error) {
	var zero T

	prompt, err := assets.Render(tmpl, vars)
	if err != nil {
		return zero, Usage{}, &GenerationError{Op: op, Kind: KindConfig, Err: err}
	}

	log.Debug().
		Str("operation", op).
		Str("provider", g.Provider()).
		Str("model", g.Model()).
		Int("prompt_length", len(prompt)).
		Msg("Starting structured generation")

	start := time.Now()
	resp, err := g.Generate(ctx, Request{
		Operation: op,
		System:    assets.SystemPrompt,
		Prompt:    prompt,
		Shape:     shape,
	})
	duration := time.Since(start)

	if err != nil {
		kind := KindProvider
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
			kind = KindTimeout
		}
		observe(g, op, duration, resp.Usage, statusFor(kind, err))
		log.Error().Err(err).Str("operation", op).Dur("duration", duration).Msg("Text generation failed")
		return zero, resp.Usage, &GenerationError{Op: op, Kind: kind, Err: err}
	}

	usage := resp.Usage
	if usage.InputTokens == 0 && usage.OutputTokens == 0 {
		usage = Usage{
			Provider:     g.Provider(),
			Model:        g.Model(),
			InputTokens:  EstimateTokens(g.Model(), assets.SystemPrompt+prompt),
			OutputTokens: EstimateTokens(g.Model(), resp.Text),
			Estimated:    true,
		}
	}

	result := decode[T](resp.Text, shape)
	if validate != nil {
		result = jsonutil.Then(result, validate)
	}
	value, err := result.Unwrap()
	if err != nil {
		kind := KindDecode
		if errors.Is(err, errInvalid) {
			kind = KindShape
		}
		observe(g, op, duration, usage, string(kind))
		log.Warn().
			Err(err).
			Str("operation", op).
			Int("response_length", len(resp.Text)).
			Msg("Model output rejected")
		return zero, usage, &GenerationError{Op: op, Kind: kind, Err: err}
	}

	observe(g, op, duration, usage, "success")
	log.Info().
		Str("operation", op).
		Str("model", usage.Model).
		Int("input_tokens", usage.InputTokens).
		Int("output_tokens", usage.OutputTokens).
		Dur("duration", duration).
		Msg("Structured generation complete")
	return value, usage, nil
}

// errInvalid marks validation failures so they classify as KindShape.
var errInvalid = errors.New("invalid model output")

// Invalid wraps a validation failure message for use in validate callbacks.
func Invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", errInvalid, fmt.Sprintf(format, args...))
}

// decode parses text into T after checking the shape's required keys.
func decode[T any](text string, shape Shape) jsonutil.Result[T] {
	raw := jsonutil.Decode[json.RawMessage](text)
	if len(shape.Keys) > 0 {
		raw = jsonutil.Then(raw, func(msg json.RawMessage) (json.RawMessage, error) {
			var obj map[string]json.RawMessage
			if err := json.Unmarshal(msg, &obj); err != nil {
				return nil, Invalid("expected a JSON object: %v", err)
			}
			for _, k := range shape.Keys {
				if _, ok := obj[k]; !ok {
					return nil, Invalid("missing key %q", k)
				}
			}
			return msg, nil
		})
	}
	msg, err := raw.Unwrap()
	if err != nil {
		return jsonutil.Err[T](err)
	}
	var v T
	if err := json.Unmarshal(msg, &v); err != nil {
		return jsonutil.Err[T](fmt.Errorf("decode %s: %w", shape.Name, err))
	}
	return jsonutil.Ok(v)
}
