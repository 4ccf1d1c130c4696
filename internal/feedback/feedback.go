// Package feedback revises finished slides from free-text human feedback,
// either one slide or every slide at once.
//
// A revision failure is not masked: the slide comes back unchanged with a
// critique explaining what failed and revision_needed set, so the user can
// rephrase and retry.
package feedback

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/fpang/ai-slide-generator/internal/assets"
	"github.com/fpang/ai-slide-generator/internal/deck"
	"github.com/fpang/ai-slide-generator/internal/imagegen"
	"github.com/fpang/ai-slide-generator/internal/metrics"
	"github.com/fpang/ai-slide-generator/internal/textgen"
	"github.com/fpang/ai-slide-generator/internal/usage"
)

// Op is the usage and metrics operation name for feedback revisions.
const Op = "feedback"

// DefaultImageTimeout bounds image regeneration after a revision.
const DefaultImageTimeout = 8 * time.Second

// DefaultConcurrency caps parallel revisions in apply-to-all mode.
const DefaultConcurrency = 8

// ErrMissingFields is returned when slides or feedback are absent.
var ErrMissingFields = errors.New("missing required fields: slides and feedback")

// Request is one feedback revision. SlideIndex selects a single slide; nil
// or out of range revises all of them.
type Request struct {
	Slides     []deck.Slide   `json:"slides"`
	Feedback   string         `json:"feedback"`
	SlideIndex *int           `json:"slideIndex,omitempty"`
	Template   *deck.Template `json:"template,omitempty"`
}

// Reviser applies feedback to slides.
type Reviser struct {
	text         textgen.Generator
	images       imagegen.Generator
	imageTimeout time.Duration
	concurrency  int
}

// New creates a Reviser. images may be nil, in which case regenerated
// images fall back to the placeholder.
func New(text textgen.Generator, images imagegen.Generator) *Reviser {
	return &Reviser{
		text:         text,
		images:       images,
		imageTimeout: DefaultImageTimeout,
		concurrency:  DefaultConcurrency,
	}
}

// WithImageTimeout overrides the image regeneration deadline.
func (r *Reviser) WithImageTimeout(d time.Duration) *Reviser {
	if d > 0 {
		r.imageTimeout = d
	}
	return r
}

// WithConcurrency overrides the apply-to-all fan-out limit.
func (r *Reviser) WithConcurrency(n int) *Reviser {
	if n > 0 {
		r.concurrency = n
	}
	return r
}

// Apply returns a new slide list of the same length as req.Slides. The
// input is never modified. The only error besides ErrMissingFields is ctx
// ending before every revision finished.
func (r *Reviser) Apply(ctx context.Context, req Request, session *usage.Session) ([]deck.Slide, error) {
	if len(req.Slides) == 0 || strings.TrimSpace(req.Feedback) == "" {
		return nil, ErrMissingFields
	}

	start := time.Now()
	tmplCtx := TemplateContext(req.Template)
	out := deck.Clone(req.Slides)
	results := make([]revision, len(out))

	single := req.SlideIndex != nil && *req.SlideIndex >= 0 && *req.SlideIndex < len(out)
	mode := "all"
	if single {
		mode = "single"
		i := *req.SlideIndex
		results[i] = r.revise(ctx, out[i], req.Feedback, tmplCtx, "N/A", session)
		out[i] = results[i].slide
	} else {
		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(r.concurrency)
		for i := range out {
			g.Go(func() error {
				results[i] = r.revise(gctx, out[i], req.Feedback, tmplCtx, strconv.Itoa(i+1), session)
				return gctx.Err()
			})
		}
		if err := g.Wait(); err != nil {
			return nil, fmt.Errorf("apply feedback: %w", err)
		}
		for i := range out {
			out[i] = results[i].slide
		}
	}
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("apply feedback: %w", err)
	}

	revised, failed, regenerated := 0, 0, 0
	for _, res := range results {
		if !res.attempted {
			continue
		}
		revised++
		if res.failed {
			failed++
		}
		if res.regenerated {
			regenerated++
		}
	}
	duration := time.Since(start)
	metrics.RecordFeedback(mode, revised, failed, regenerated, duration)
	revisionsTotal.WithLabelValues(mode, "ok").Add(float64(revised - failed))
	revisionsTotal.WithLabelValues(mode, "failed").Add(float64(failed))

	log.Info().
		Str("session_id", session.ID()).
		Str("mode", mode).
		Int("slides", revised).
		Int("failed", failed).
		Int("images_regenerated", regenerated).
		Dur("duration", duration).
		Msg("Feedback applied")
	return out, nil
}

type revision struct {
	slide       deck.Slide
	attempted   bool
	failed      bool
	regenerated bool
}

func (r *Reviser) revise(ctx context.Context, slide deck.Slide, feedback, tmplCtx, number string, session *usage.Session) revision {
	draft, u, err := textgen.GenerateStructured(ctx, r.text, Op,
		assets.FeedbackTemplate,
		assets.FeedbackVars{
			Title:           slide.Title,
			Content:         slide.Content,
			Feedback:        feedback,
			TemplateContext: tmplCtx,
			SlideNumber:     number,
		},
		textgen.SlideShape, textgen.ValidateDraft)
	if u.TotalTokens() > 0 {
		session.RecordTokens(Op, u.Model, u.InputTokens, u.OutputTokens, u.Estimated)
	}
	if err != nil {
		log.Warn().Err(err).Str("slide", number).Msg("Feedback revision failed")
		slide.Critique = FailureCritique(feedback)
		slide.RevisionNeeded = true
		return revision{slide: slide, attempted: true, failed: true}
	}

	revised := deck.Slide{
		Title:    draft.Title,
		Content:  draft.Content,
		ImageURL: slide.ImageURL,
		Critique: SuccessCritique(feedback),
	}
	res := revision{slide: revised, attempted: true}
	if ShouldRegenerateImage(slide.Title, draft.Title, feedback) {
		out := imagegen.Race(ctx, r.images, revised.Title, revised.Content, r.imageTimeout)
		if r.images != nil && out.Attempted() {
			images := 0
			if !out.Placeholder {
				images = 1
			}
			session.RecordImage(r.images.Name(), r.images.Model(), Op, images, !out.Placeholder)
		}
		res.slide.ImageURL = out.Image.Ref
		res.regenerated = true
	}
	return res
}

var imageKeywords = []string{"visual", "image", "chart", "graphic"}

// ShouldRegenerateImage reports whether a revised slide needs a new image:
// its title changed, or the feedback asks for something visual.
func ShouldRegenerateImage(oldTitle, newTitle, feedback string) bool {
	if oldTitle != newTitle {
		return true
	}
	lower := strings.ToLower(feedback)
	for _, kw := range imageKeywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}

// TemplateContext describes the template to the model.
func TemplateContext(t *deck.Template) string {
	if t == nil || t.Name == "" {
		return "This is a general presentation"
	}
	return fmt.Sprintf("This is part of a %s presentation template", t.Name)
}

// SuccessCritique is attached to a slide that absorbed the feedback.
func SuccessCritique(feedback string) string {
	return fmt.Sprintf(`Applied feedback: "%s"`, feedback)
}

// FailureCritique is attached to a slide whose revision failed.
func FailureCritique(feedback string) string {
	return fmt.Sprintf(`Failed to apply feedback: "%s". Please try rephrasing your request.`, feedback)
}
