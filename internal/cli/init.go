package cli

import (
	"context"

	"github.com/rs/zerolog/log"

	"github.com/fpang/ai-slide-generator/internal/config"
	"github.com/fpang/ai-slide-generator/internal/textgen"
)

// InitTextGenerator creates the configured text provider and, when
// validate is set, checks its key with a minimal call. Exits fatally on
// failure.
func InitTextGenerator(ctx context.Context, cfg *config.Config, validate bool) textgen.Generator {
	gen, err := cfg.TextGenerator(ctx)
	if err != nil {
		HandleValidationError(err)
	}
	log.Info().
		Str("provider", gen.Provider()).
		Str("model", gen.Model()).
		Msg("Text generator initialized")

	if !validate {
		return gen
	}
	if v, ok := gen.(textgen.Validator); ok {
		if err := v.Validate(ctx); err != nil {
			HandleValidationError(err)
		}
		log.Info().Msg("API key validation complete - ready for operations")
	}
	return gen
}
