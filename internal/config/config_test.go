package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/fpang/ai-slide-generator/internal/imagegen"
	"github.com/fpang/ai-slide-generator/internal/textgen"
)

// inTempDir runs the test from an empty directory so no stray .env is read.
func inTempDir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Chdir(dir)
	return dir
}

// --- Load Tests ---

func TestLoadDefaults(t *testing.T) {
	inTempDir(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Port != 8080 {
		t.Errorf("expected port 8080, got %d", cfg.Port)
	}
	if cfg.TextProvider != textgen.ProviderGemini {
		t.Errorf("expected gemini text provider, got %s", cfg.TextProvider)
	}
	if cfg.TextModel != textgen.DefaultModel(textgen.ProviderGemini) {
		t.Errorf("expected default model, got %s", cfg.TextModel)
	}
	if cfg.PrimaryImageTimeout != 10*time.Second || cfg.SecondaryImageTimeout != 15*time.Second || cfg.FeedbackImageTimeout != 8*time.Second {
		t.Errorf("unexpected image timeouts: %v %v %v", cfg.PrimaryImageTimeout, cfg.SecondaryImageTimeout, cfg.FeedbackImageTimeout)
	}
	if len(cfg.AllowedOrigins) != 2 {
		t.Errorf("expected 2 default origins, got %v", cfg.AllowedOrigins)
	}
	if cfg.Addr() != ":8080" {
		t.Errorf("expected :8080, got %s", cfg.Addr())
	}
}

func TestLoadFromEnv(t *testing.T) {
	inTempDir(t)
	t.Setenv("SLIDES_PORT", "9090")
	t.Setenv("SLIDES_TEXT_PROVIDER", "openai")
	t.Setenv("SLIDES_PRIMARY_IMAGE_TIMEOUT", "3s")
	t.Setenv("SLIDES_ALLOWED_ORIGINS", "https://a.example,https://b.example,https://c.example")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Port != 9090 {
		t.Errorf("expected port 9090, got %d", cfg.Port)
	}
	if cfg.TextModel != textgen.DefaultModel(textgen.ProviderOpenAI) {
		t.Errorf("expected openai default model, got %s", cfg.TextModel)
	}
	if cfg.PrimaryImageTimeout != 3*time.Second {
		t.Errorf("expected 3s, got %v", cfg.PrimaryImageTimeout)
	}
	if len(cfg.AllowedOrigins) != 3 {
		t.Errorf("expected 3 origins, got %v", cfg.AllowedOrigins)
	}
}

func TestLoadDotEnv(t *testing.T) {
	dir := inTempDir(t)
	if err := os.WriteFile(filepath.Join(dir, ".env"), []byte("SLIDES_IMAGE_BUCKET=deck-images\n"), 0o600); err != nil {
		t.Fatalf("write .env: %v", err)
	}
	t.Cleanup(func() { os.Unsetenv("SLIDES_IMAGE_BUCKET") })

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.ImageBucket != "deck-images" {
		t.Errorf("expected bucket from .env, got %q", cfg.ImageBucket)
	}
}

func TestLoadRejectsUnknownProvider(t *testing.T) {
	inTempDir(t)
	t.Setenv("SLIDES_TEXT_PROVIDER", "llama")

	_, err := Load()
	if err == nil || !strings.Contains(err.Error(), "llama") {
		t.Errorf("expected unknown provider error, got %v", err)
	}
}

func TestLoadRejectsBadDuration(t *testing.T) {
	inTempDir(t)
	t.Setenv("SLIDES_FEEDBACK_IMAGE_TIMEOUT", "soon")

	if _, err := Load(); err == nil {
		t.Error("expected parse error for bad duration")
	}
}

func TestValidateTimeouts(t *testing.T) {
	cfg := &Config{
		TextProvider:          textgen.ProviderGemini,
		ImageProvider:         imagegen.ProviderHuggingFace,
		PrimaryImageTimeout:   time.Second,
		SecondaryImageTimeout: 0,
		FeedbackImageTimeout:  time.Second,
	}
	if err := cfg.Validate(); err == nil {
		t.Error("expected error for zero timeout")
	}
}

// --- Provider Tests ---

func TestImageRegistryWithoutKeys(t *testing.T) {
	inTempDir(t)
	t.Setenv("HOME", t.TempDir())
	t.Setenv("HUGGINGFACE_API_KEY", "")
	t.Setenv("GEMINI_API_KEY", "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	reg := cfg.ImageRegistry(nil)

	g, timeout := reg.Lookup("")
	if g == nil || g.Name() != imagegen.ProviderHuggingFace || timeout != 10*time.Second {
		t.Errorf("expected huggingface with 10s by default, got %v %v", g, timeout)
	}
	g, timeout = reg.Lookup(imagegen.ProviderGemini)
	if g == nil || g.Name() != imagegen.ProviderGemini || timeout != 15*time.Second {
		t.Errorf("expected gemini with 15s, got %v %v", g, timeout)
	}
	if cfg.FeedbackImages(reg).Name() != imagegen.ProviderHuggingFace {
		t.Error("expected feedback images from the default provider")
	}
}

func TestTextGeneratorWithoutKey(t *testing.T) {
	inTempDir(t)
	t.Setenv("HOME", t.TempDir())
	t.Setenv("GEMINI_API_KEY", "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := cfg.TextGenerator(t.Context()); err == nil {
		t.Error("expected error without an API key")
	}
}
