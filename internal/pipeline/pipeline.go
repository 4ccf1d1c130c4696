// Package pipeline runs the slide generation state machine: outline, then
// for every outline entry generate, critique, refine at most once, critique
// again and advance. Every AI failure is replaced by a local fallback so a
// run always produces a complete deck; only unexpected faults end a run
// with a Failed event.
package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"iter"
	"runtime/debug"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/fpang/ai-slide-generator/internal/assets"
	"github.com/fpang/ai-slide-generator/internal/deck"
	"github.com/fpang/ai-slide-generator/internal/imagegen"
	"github.com/fpang/ai-slide-generator/internal/metrics"
	"github.com/fpang/ai-slide-generator/internal/textgen"
	"github.com/fpang/ai-slide-generator/internal/usage"
)

// Operation names used for token accounting and metrics.
const (
	OpOutline      = "outline"
	OpSlideContent = "slide_content"
	OpCritique     = "critique"
	OpRefine       = "refine"
	OpSlideImage   = "slide_image"
)

// Request starts a run.
type Request struct {
	Topic         string
	Template      *deck.Template
	Theme         json.RawMessage
	Language      string
	ImageProvider string
	// Session receives token and image usage. It may be nil.
	Session *usage.Session
}

// Pipeline generates presentations.
type Pipeline struct {
	text   textgen.Generator
	images *imagegen.Registry
}

// New creates a Pipeline.
func New(text textgen.Generator, images *imagegen.Registry) *Pipeline {
	return &Pipeline{text: text, images: images}
}

// Run returns the event sequence for one presentation. The sequence ends
// with Done or Failed, or earlier when the consumer stops ranging or ctx is
// cancelled, in which case no further provider calls are made.
func (p *Pipeline) Run(ctx context.Context, req Request) iter.Seq[Event] {
	return func(yield func(Event) bool) {
		r := &run{
			p:     p,
			ctx:   ctx,
			req:   req,
			start: time.Now(),
			st: &state{
				topic:         req.Topic,
				template:      req.Template,
				theme:         req.Theme,
				language:      normalizeLanguage(req.Language),
				imageProvider: p.images.Resolve(req.ImageProvider),
				outline:       deck.Outline{},
				slides:        []deck.Slide{},
			},
		}
		r.stats = metrics.RunStats{
			SessionID:     req.Session.ID(),
			TextProvider:  p.text.Provider(),
			ImageProvider: r.st.imageProvider,
			Language:      r.st.language,
		}

		log.Info().
			Str("session_id", req.Session.ID()).
			Str("topic", req.Topic).
			Str("language", r.st.language).
			Str("image_provider", r.st.imageProvider).
			Msg("Starting presentation generation")

		result := r.loop(yield)
		r.finish(result)
	}
}

// run holds the mutable state of one Run invocation.
type run struct {
	p     *Pipeline
	ctx   context.Context
	req   Request
	st    *state
	start time.Time
	stats metrics.RunStats
}

type runResult string

const (
	resultCompleted runResult = "completed"
	resultFailed    runResult = "failed"
	resultAbandoned runResult = "abandoned"
)

func (r *run) loop(yield func(Event) bool) runResult {
	emit := func(kind Kind) bool {
		log.Debug().Str("event", kind.String()).Int("current_slide", r.st.current).Msg("Pipeline event")
		return yield(Event{Kind: kind, Snapshot: r.st.snapshot()}) && r.ctx.Err() == nil
	}
	fail := func(err error) runResult {
		log.Error().Err(err).Str("session_id", r.req.Session.ID()).Msg("Presentation generation failed")
		yield(Event{Kind: Failed, Snapshot: r.st.snapshot(), Err: err})
		return resultFailed
	}

	if err := r.guard(r.generateOutline); err != nil {
		return fail(err)
	}
	if !emit(OutlineGenerated) {
		return resultAbandoned
	}

	for r.st.current < len(r.st.outline) {
		if err := r.guard(r.generateSlide); err != nil {
			return fail(err)
		}
		if !emit(SlideGenerated) {
			return resultAbandoned
		}

		if err := r.guard(r.critiqueSlide); err != nil {
			return fail(err)
		}
		if !emit(SlideCritiqued) {
			return resultAbandoned
		}

		if r.st.slides[r.st.current].RevisionNeeded {
			r.st.slides[r.st.current].RevisionNeeded = false
			if err := r.guard(r.refineSlide); err != nil {
				return fail(err)
			}
			r.stats.Refined++
			if !emit(SlideRefined) {
				return resultAbandoned
			}

			if err := r.guard(r.critiqueSlide); err != nil {
				return fail(err)
			}
			// One refinement pass only; the second verdict is reported but not acted on.
			r.st.slides[r.st.current].RevisionNeeded = false
			if !emit(SlideCritiqued) {
				return resultAbandoned
			}
		}

		r.st.current++
		if r.st.current < len(r.st.outline) {
			if !emit(SlideAdvanced) {
				return resultAbandoned
			}
		}
	}

	summary := r.req.Session.Summary()
	yield(Event{
		Kind:     Done,
		Snapshot: r.st.snapshot(),
		Usage: &UsageReport{
			SessionID: r.req.Session.ID(),
			Report:    r.req.Session.Report(),
			Summary:   summary,
		},
	})
	return resultCompleted
}

// guard runs one step, turning a panic into an error.
func (r *run) guard(step func()) (err error) {
	if err := r.ctx.Err(); err != nil {
		return err
	}
	defer func() {
		if rec := recover(); rec != nil {
			log.Error().Interface("panic", rec).Bytes("stack", debug.Stack()).Msg("Pipeline step panicked")
			err = fmt.Errorf("pipeline step failed: %v", rec)
		}
	}()
	step()
	return nil
}

func (r *run) finish(result runResult) {
	r.stats.Slides = len(r.st.slides)
	r.stats.Duration = time.Since(r.start)
	r.stats.Failed = result == resultFailed
	metrics.RecordRun(r.stats)
	runsTotal.WithLabelValues(string(result)).Inc()
	slidesTotal.Add(float64(len(r.st.slides)))

	log.Info().
		Str("session_id", r.req.Session.ID()).
		Str("result", string(result)).
		Int("slides", r.stats.Slides).
		Int("refined", r.stats.Refined).
		Int("fallbacks", r.stats.Fallbacks).
		Int("placeholders", r.stats.Placeholders).
		Dur("duration", r.stats.Duration).
		Msg("Presentation generation finished")
}

func (r *run) recordTokens(op string, u textgen.Usage) {
	if u.TotalTokens() == 0 {
		return
	}
	r.req.Session.RecordTokens(op, u.Model, u.InputTokens, u.OutputTokens, u.Estimated)
}

func (r *run) fallback(op string, err error) {
	r.stats.Fallbacks++
	fallbacksTotal.WithLabelValues(op).Inc()
	kind := "unknown"
	var genErr *textgen.GenerationError
	if errors.As(err, &genErr) {
		kind = string(genErr.Kind)
	}
	log.Warn().Err(err).Str("operation", op).Str("kind", kind).Int("slide", r.st.current).Msg("Using fallback")
}

// --- Steps ---

func (r *run) generateOutline() {
	lang := r.st.language
	out, u, err := textgen.GenerateStructured(r.ctx, r.p.text, OpOutline,
		assets.OutlineTemplate(lang),
		assets.OutlineVars{Topic: r.st.topic, TemplatePrefix: r.st.template.Prefix(lang)},
		textgen.OutlineShape, textgen.ValidateOutline)
	r.recordTokens(OpOutline, u)
	if err != nil {
		r.fallback(OpOutline, err)
		r.st.outline = deck.FallbackOutline(r.st.topic)
	} else {
		r.st.outline = deck.Outline(out.Titles)
	}
	r.st.current = 0
}

func (r *run) generateSlide() {
	title := r.st.outline[r.st.current]
	draft, u, err := textgen.GenerateStructured(r.ctx, r.p.text, OpSlideContent,
		assets.SlideTemplate(r.st.language),
		assets.SlideVars{Topic: r.st.topic, SlideTitle: title},
		textgen.SlideShape, textgen.ValidateDraft)
	r.recordTokens(OpSlideContent, u)

	if err != nil {
		r.fallback(OpSlideContent, err)
		slide := deck.FallbackSlide(r.st.topic, title)
		slide.ImageURL = imagegen.Placeholder(title)
		r.stats.Placeholders++
		r.st.slides = append(r.st.slides, slide)
		return
	}

	slide := deck.Slide{Title: draft.Title, Content: draft.Content}
	slide.ImageURL = r.attachImage(slide)
	r.st.slides = append(r.st.slides, slide)
}

func (r *run) attachImage(slide deck.Slide) string {
	g, timeout := r.p.images.Lookup(r.st.imageProvider)
	out := imagegen.Race(r.ctx, g, slide.Title, slide.Content, timeout)
	if out.Placeholder {
		r.stats.Placeholders++
	}
	if g != nil && out.Attempted() {
		images := 0
		if !out.Placeholder {
			images = 1
		}
		r.req.Session.RecordImage(g.Name(), g.Model(), OpSlideImage, images, !out.Placeholder)
	}
	return out.Image.Ref
}

func (r *run) critiqueSlide() {
	slide := &r.st.slides[r.st.current]
	verdict, u, err := textgen.GenerateStructured[textgen.CritiqueResult](r.ctx, r.p.text, OpCritique,
		assets.CritiqueTemplate,
		assets.CritiqueVars{Title: slide.Title, Content: slide.Content},
		textgen.CritiqueShape, nil)
	r.recordTokens(OpCritique, u)
	if err != nil {
		r.fallback(OpCritique, err)
		verdict = textgen.CritiqueResult{RevisionNeeded: false, Critique: deck.CritiqueNoIssues}
	}
	slide.RevisionNeeded = verdict.RevisionNeeded
	slide.Critique = verdict.Critique
}

func (r *run) refineSlide() {
	slide := &r.st.slides[r.st.current]
	critique := slide.Critique
	if critique == "" {
		critique = deck.CritiqueNotProvided
	}
	draft, u, err := textgen.GenerateStructured(r.ctx, r.p.text, OpRefine,
		assets.RefineTemplate,
		assets.RefineVars{Topic: r.st.topic, Title: slide.Title, Content: slide.Content, Critique: critique},
		textgen.SlideShape, textgen.ValidateDraft)
	r.recordTokens(OpRefine, u)
	if err != nil {
		r.fallback(OpRefine, err)
		slide.RevisionNeeded = false
		slide.Critique = deck.CritiqueRefinementDone
		return
	}
	*slide = deck.Slide{Title: draft.Title, Content: draft.Content, ImageURL: slide.ImageURL}
}

func normalizeLanguage(lang string) string {
	if lang == deck.LanguageChinese {
		return lang
	}
	return deck.LanguageEnglish
}
