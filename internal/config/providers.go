package config

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/fpang/ai-slide-generator/internal/auth"
	"github.com/fpang/ai-slide-generator/internal/imagegen"
	"github.com/fpang/ai-slide-generator/internal/textgen"
)

// TextGenerator builds the configured text provider. The API key comes
// from the environment or the encrypted credential file.
func (c *Config) TextGenerator(ctx context.Context) (textgen.Generator, error) {
	switch c.TextProvider {
	case textgen.ProviderOpenAI:
		key, err := auth.GetAPIKey(auth.ProviderOpenAI)
		if err != nil {
			return nil, err
		}
		return textgen.NewOpenAI(key, c.OpenAIBaseURL, c.TextModel, c.Temperature)
	default:
		key, err := auth.GetAPIKey(auth.ProviderGemini)
		if err != nil {
			return nil, err
		}
		client, err := textgen.NewGeminiClient(ctx, key)
		if err != nil {
			return nil, fmt.Errorf("create Gemini client: %w", err)
		}
		return textgen.NewGemini(client, c.TextModel, c.Temperature), nil
	}
}

// ImageRegistry registers both image providers: HuggingFace with the
// primary deadline and Gemini with the secondary one. Requests naming no
// known provider use ImageProvider. A provider without a key is still
// registered and reports not configured, so its races resolve to the
// placeholder at once.
func (c *Config) ImageRegistry(sink imagegen.Sink) *imagegen.Registry {
	out := imagegen.Output{MaxWidth: c.ImageMaxWidth, Sink: sink}

	hfKey, err := auth.GetAPIKey(auth.ProviderHuggingFace)
	if err != nil {
		log.Warn().Msg("HuggingFace API key not configured, its slides will use placeholder images")
	}
	geminiKey, err := auth.GetAPIKey(auth.ProviderGemini)
	if err != nil {
		log.Debug().Msg("Gemini API key not configured, Gemini image generation disabled")
	}

	return imagegen.NewRegistry(c.ImageProvider).
		Register(imagegen.NewHuggingFace(hfKey, c.HFModel, out), c.PrimaryImageTimeout).
		Register(imagegen.NewGemini(geminiKey, c.GeminiImageModel, out), c.SecondaryImageTimeout)
}

// FeedbackImages returns the generator feedback revisions regenerate
// images with: the default image provider.
func (c *Config) FeedbackImages(reg *imagegen.Registry) imagegen.Generator {
	g, _ := reg.Lookup(c.ImageProvider)
	return g
}
