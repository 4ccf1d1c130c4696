package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/rs/zerolog/log"

	"github.com/fpang/ai-slide-generator/internal/auth"
	"github.com/fpang/ai-slide-generator/internal/deck"
)

// ReadDeck loads a slide list saved by "generate --out". Either a bare
// array or an object with a "slides" key is accepted.
func ReadDeck(path string) ([]deck.Slide, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read deck: %w", err)
	}
	var slides []deck.Slide
	if err := json.Unmarshal(data, &slides); err == nil {
		return slides, nil
	}
	var wrapped struct {
		Slides []deck.Slide `json:"slides"`
	}
	if err := json.Unmarshal(data, &wrapped); err != nil {
		return nil, fmt.Errorf("parse deck %s: %w", path, err)
	}
	if len(wrapped.Slides) == 0 {
		return nil, fmt.Errorf("deck %s has no slides", path)
	}
	return wrapped.Slides, nil
}

// WriteDeck saves slides as indented JSON under a "slides" key.
func WriteDeck(path string, slides []deck.Slide) error {
	data, err := json.MarshalIndent(struct {
		Slides []deck.Slide `json:"slides"`
	}{slides}, "", "  ")
	if err != nil {
		return fmt.Errorf("encode deck: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write deck: %w", err)
	}
	return nil
}

// HandleValidationError processes auth.ValidationError and exits with appropriate messaging.
func HandleValidationError(err error) {
	var validationErr *auth.ValidationError
	if errors.As(err, &validationErr) {
		switch validationErr.Type {
		case auth.ErrTypeNoKey:
			log.Fatal().Err(err).Msg("No API key configured. Set GEMINI_API_KEY or OPENAI_API_KEY, or run scripts/setup-gpg-credentials.sh")
		case auth.ErrTypeInvalidKey:
			log.Fatal().Err(err).Msg("Invalid API key. Please check your API key and try again")
		case auth.ErrTypeNetworkError:
			log.Fatal().Err(err).Msg("Network error. Please check your internet connection")
		case auth.ErrTypeQuotaExceeded:
			log.Fatal().Err(err).Msg("API quota exceeded. Please try again later or check your usage limits")
		default:
			log.Fatal().Err(err).Msg("API key validation failed")
		}
	} else {
		log.Fatal().Err(err).Msg("unexpected error during API key validation")
	}
	os.Exit(1)
}
