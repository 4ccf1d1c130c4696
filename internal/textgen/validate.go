package textgen

import (
	"context"

	"github.com/rs/zerolog/log"

	"github.com/fpang/ai-slide-generator/internal/auth"
)

// Validator is implemented by providers that can check their credentials
// with a cheap call before serving traffic.
type Validator interface {
	Validate(ctx context.Context) error
}

// Validate checks the Gemini key with a minimal generation call.
func (g *Gemini) Validate(ctx context.Context) error {
	return auth.ValidateAPIKey(ctx, g.client, g.model)
}

// Validate checks the OpenAI key by looking up the configured model.
func (o *OpenAI) Validate(ctx context.Context) error {
	if _, err := o.client.Models.Get(ctx, o.model); err != nil {
		return auth.ClassifyError(err)
	}
	log.Info().Str("model", o.model).Msg("API key validated successfully")
	return nil
}
