package textgen

import (
	"encoding/json"
	"strings"

	"github.com/fpang/ai-slide-generator/internal/deck"
)

// OutlineResult is the model's answer to the outline prompt.
type OutlineResult struct {
	Titles []string `json:"titles" jsonschema:"ordered slide titles, five to seven entries"`
}

// UnmarshalJSON accepts {"titles": [...]} or a bare array of titles.
func (o *OutlineResult) UnmarshalJSON(data []byte) error {
	var titles []string
	if err := json.Unmarshal(data, &titles); err == nil {
		o.Titles = titles
		return nil
	}
	type plain OutlineResult
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	*o = OutlineResult(p)
	return nil
}

// SlideDraft is a generated or rewritten slide body.
type SlideDraft struct {
	Title   string `json:"title"`
	Content string `json:"content" jsonschema:"3-5 bullet lines, each starting with '- '"`
}

// CritiqueResult is the model's judgement of a slide.
type CritiqueResult struct {
	RevisionNeeded bool   `json:"revision_needed"`
	Critique       string `json:"critique"`
}

// Shapes for each structured call. The outline shape lists no required keys
// because OutlineResult also accepts a bare array.
var (
	OutlineShape = Shape{
		Name:        "outline",
		Description: "Ordered slide titles for a presentation",
		Schema:      ShapeFor[OutlineResult]("outline", "").Schema,
	}
	SlideShape    = ShapeFor[SlideDraft]("slide", "Slide title and bullet content")
	CritiqueShape = ShapeFor[CritiqueResult]("critique", "Slide critique and whether it needs revision")
)

// ValidateOutline trims blank titles and caps the outline at seven entries.
// Fewer than five usable titles is rejected.
func ValidateOutline(o OutlineResult) (OutlineResult, error) {
	titles := make([]string, 0, len(o.Titles))
	for _, t := range o.Titles {
		if t = strings.TrimSpace(t); t != "" {
			titles = append(titles, t)
		}
	}
	if len(titles) > deck.MaxOutlineLen {
		titles = titles[:deck.MaxOutlineLen]
	}
	if len(titles) < deck.MinOutlineLen {
		return OutlineResult{}, Invalid("outline has %d titles, need at least %d", len(titles), deck.MinOutlineLen)
	}
	return OutlineResult{Titles: titles}, nil
}

// ValidateDraft rejects drafts without a title or content.
func ValidateDraft(d SlideDraft) (SlideDraft, error) {
	d.Title = strings.TrimSpace(d.Title)
	if d.Title == "" {
		return SlideDraft{}, Invalid("slide title is empty")
	}
	if strings.TrimSpace(d.Content) == "" {
		return SlideDraft{}, Invalid("slide content is empty")
	}
	return d, nil
}
