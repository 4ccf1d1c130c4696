// Package config loads runtime settings from the environment. A .env file
// in the working directory is read first when present; real environment
// variables always win over it.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"github.com/rs/zerolog/log"

	"github.com/fpang/ai-slide-generator/internal/imagegen"
	"github.com/fpang/ai-slide-generator/internal/textgen"
)

// Prefix is the environment variable prefix for every setting.
const Prefix = "SLIDES"

// Config holds every SLIDES_* setting.
type Config struct {
	Port int `envconfig:"PORT" default:"8080"`

	TextProvider  string  `envconfig:"TEXT_PROVIDER" default:"gemini"`
	TextModel     string  `envconfig:"TEXT_MODEL"`
	Temperature   float64 `envconfig:"TEMPERATURE" default:"0.4"`
	OpenAIBaseURL string  `envconfig:"OPENAI_BASE_URL"`

	ImageProvider    string `envconfig:"IMAGE_PROVIDER" default:"huggingface"`
	HFModel          string `envconfig:"HF_MODEL" default:"black-forest-labs/FLUX.1-schnell"`
	GeminiImageModel string `envconfig:"GEMINI_IMAGE_MODEL" default:"gemini-2.5-flash-image"`
	ImageMaxWidth    int    `envconfig:"IMAGE_MAX_WIDTH" default:"512"`

	PrimaryImageTimeout   time.Duration `envconfig:"PRIMARY_IMAGE_TIMEOUT" default:"10s"`
	SecondaryImageTimeout time.Duration `envconfig:"SECONDARY_IMAGE_TIMEOUT" default:"15s"`
	FeedbackImageTimeout  time.Duration `envconfig:"FEEDBACK_IMAGE_TIMEOUT" default:"8s"`
	FeedbackConcurrency   int           `envconfig:"FEEDBACK_CONCURRENCY" default:"8"`

	ImageBucket string `envconfig:"IMAGE_BUCKET"`
	ImagePrefix string `envconfig:"IMAGE_PREFIX" default:"slides"`
	UsageTable  string `envconfig:"USAGE_TABLE"`

	AllowedOrigins []string `envconfig:"ALLOWED_ORIGINS" default:"http://localhost:3000,http://localhost:5173"`
}

// Load reads .env (if any) and the environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		log.Warn().Err(err).Msg("Failed to read .env file")
	}

	var cfg Config
	if err := envconfig.Process(Prefix, &cfg); err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	cfg.TextModel = textgen.ResolveModel(cfg.TextProvider, cfg.TextModel)
	return &cfg, nil
}

// Validate rejects settings no component can serve.
func (c *Config) Validate() error {
	switch c.TextProvider {
	case textgen.ProviderGemini, textgen.ProviderOpenAI:
	default:
		return fmt.Errorf("config: unknown text provider %q (want %s or %s)",
			c.TextProvider, textgen.ProviderGemini, textgen.ProviderOpenAI)
	}
	switch c.ImageProvider {
	case imagegen.ProviderHuggingFace, imagegen.ProviderGemini:
	default:
		return fmt.Errorf("config: unknown image provider %q", c.ImageProvider)
	}
	if c.Temperature < 0 || c.Temperature > 2 {
		return fmt.Errorf("config: temperature %.2f out of range [0, 2]", c.Temperature)
	}
	for name, d := range map[string]time.Duration{
		"primary image timeout":   c.PrimaryImageTimeout,
		"secondary image timeout": c.SecondaryImageTimeout,
		"feedback image timeout":  c.FeedbackImageTimeout,
	} {
		if d <= 0 {
			return fmt.Errorf("config: %s must be positive", name)
		}
	}
	return nil
}

// Addr is the listen address for the web server.
func (c *Config) Addr() string {
	return fmt.Sprintf(":%d", c.Port)
}
