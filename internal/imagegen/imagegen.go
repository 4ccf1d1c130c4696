// Package imagegen is the image generation port. Remote generators are
// always raced against a deadline; whenever they lose, fail or return
// nothing, the caller gets a deterministic SVG placeholder instead.
package imagegen

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"html"
	"time"
	"unicode/utf8"

	"github.com/rs/zerolog/log"
)

// Provider names accepted in requests and SLIDES_IMAGE_PROVIDER.
const (
	ProviderHuggingFace = "huggingface"
	ProviderGemini      = "gemini"
)

var (
	// ErrNotConfigured means the provider has no API key.
	ErrNotConfigured = errors.New("image provider not configured")
	// ErrNoImage means the provider answered without image data.
	ErrNoImage = errors.New("no image returned")
	// ErrQuota means the provider rejected the call for billing or quota reasons.
	ErrQuota = errors.New("image provider quota exceeded")
)

// Image is a generated image reference: an http(s) URL or a data URI.
type Image struct {
	Ref      string
	Provider string
	Model    string
}

// Generator produces an image for a slide.
type Generator interface {
	Generate(ctx context.Context, title, content string) (Image, error)
	Name() string
	Model() string
}

var placeholderColors = [...]string{"3b82f6", "10b981", "f59e0b", "ef4444", "8b5cf6", "ec4899"}

const placeholderTitleLen = 30

// Placeholder returns a 400x300 SVG data URI showing the slide title. The
// background colour is chosen by title length, so the result depends only
// on title.
func Placeholder(title string) string {
	if title == "" {
		title = "Slide"
	}
	n := utf8.RuneCountInString(title)
	color := placeholderColors[n%len(placeholderColors)]

	label := title
	if n > placeholderTitleLen {
		label = string([]rune(title)[:placeholderTitleLen]) + "..."
	}

	svg := fmt.Sprintf(`<svg width="400" height="300" xmlns="http://www.w3.org/2000/svg">`+
		`<rect width="100%%" height="100%%" fill="#%s"/>`+
		`<text x="50%%" y="50%%" font-family="Arial, sans-serif" font-size="16" fill="white" text-anchor="middle" dominant-baseline="central">%s</text>`+
		`</svg>`, color, html.EscapeString(label))

	return "data:image/svg+xml;base64," + base64.StdEncoding.EncodeToString([]byte(svg))
}

// Race outcome reasons.
const (
	ReasonOK            = "ok"
	ReasonTimeout       = "timeout"
	ReasonError         = "error"
	ReasonNotConfigured = "not_configured"
	ReasonEmpty         = "empty"
	ReasonCanceled      = "canceled"
)

// Outcome is the result of a Race. When Placeholder is true, Image.Ref holds
// the placeholder and Reason says why.
type Outcome struct {
	Image       Image
	Placeholder bool
	Reason      string
	Err         error
}

type result struct {
	img Image
	err error
}

// Race runs g with a deadline. The generator's context is cancelled as soon
// as the race is decided, and a late result is dropped. A nil generator
// yields the placeholder immediately.
func Race(ctx context.Context, g Generator, title, content string, timeout time.Duration) Outcome {
	if g == nil {
		return placeholderOutcome(title, ReasonNotConfigured, ErrNotConfigured)
	}

	raceCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	done := make(chan result, 1)
	go func() {
		img, err := g.Generate(raceCtx, title, content)
		done <- result{img, err}
	}()

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	var out Outcome
	select {
	case r := <-done:
		switch {
		case errors.Is(r.err, ErrNotConfigured):
			out = placeholderOutcome(title, ReasonNotConfigured, r.err)
		case r.err != nil:
			out = placeholderOutcome(title, ReasonError, r.err)
		case r.img.Ref == "":
			out = placeholderOutcome(title, ReasonEmpty, ErrNoImage)
		default:
			out = Outcome{Image: r.img, Reason: ReasonOK}
		}
	case <-timer.C:
		out = placeholderOutcome(title, ReasonTimeout, fmt.Errorf("image generation exceeded %s", timeout))
	case <-ctx.Done():
		out = placeholderOutcome(title, ReasonCanceled, ctx.Err())
	}

	raceOutcomes.WithLabelValues(g.Name(), out.Reason).Inc()
	if out.Placeholder {
		ev := log.Warn()
		if out.Reason == ReasonNotConfigured {
			ev = log.Debug()
		}
		ev.Err(out.Err).
			Str("provider", g.Name()).
			Str("title", title).
			Str("reason", out.Reason).
			Msg("Using placeholder image")
	}
	return out
}

func placeholderOutcome(title, reason string, err error) Outcome {
	return Outcome{
		Image:       Image{Ref: Placeholder(title), Provider: "placeholder"},
		Placeholder: true,
		Reason:      reason,
		Err:         err,
	}
}

// Attempted reports whether the race actually called a remote provider, so
// usage accounting can skip unconfigured providers.
func (o Outcome) Attempted() bool {
	return o.Reason != ReasonNotConfigured
}
