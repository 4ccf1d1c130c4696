package logging

import (
	"testing"

	"github.com/rs/zerolog"
)

func TestParseLevel(t *testing.T) {
	cases := map[string]zerolog.Level{
		"debug":   zerolog.DebugLevel,
		"WARN":    zerolog.WarnLevel,
		" error ": zerolog.ErrorLevel,
		"":        zerolog.InfoLevel,
		"verbose": zerolog.InfoLevel,
	}
	for in, want := range cases {
		if got := ParseLevel(in); got != want {
			t.Errorf("ParseLevel(%q): expected %v, got %v", in, want, got)
		}
	}
}

func TestEnvOrDefault(t *testing.T) {
	t.Setenv("SLIDES_TEST_VALUE", "")
	if got := EnvOrDefault("SLIDES_TEST_VALUE", "fallback"); got != "fallback" {
		t.Errorf("expected fallback, got %s", got)
	}
	t.Setenv("SLIDES_TEST_VALUE", "set")
	if got := EnvOrDefault("SLIDES_TEST_VALUE", "fallback"); got != "set" {
		t.Errorf("expected set, got %s", got)
	}
}

func TestStartupLoggerSkipsEmptyResources(t *testing.T) {
	s := NewStartupLogger("slides-web").
		S3Bucket("images", "").
		DynamoTable("usage", "usage-table").
		Provider("text", "gemini")
	if len(s.s3Buckets) != 0 {
		t.Errorf("expected empty bucket to be skipped, got %v", s.s3Buckets)
	}
	if s.dynamoTables["usage"] != "usage-table" {
		t.Errorf("expected usage table registered, got %v", s.dynamoTables)
	}
	if s.providers["text"] != "gemini" {
		t.Errorf("expected text provider gemini, got %v", s.providers)
	}
}
