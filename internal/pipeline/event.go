package pipeline

import (
	"encoding/json"

	"github.com/fpang/ai-slide-generator/internal/deck"
	"github.com/fpang/ai-slide-generator/internal/usage"
)

// Kind tags an Event.
type Kind int

const (
	OutlineGenerated Kind = iota + 1
	SlideGenerated
	SlideCritiqued
	SlideRefined
	SlideAdvanced
	Done
	Failed
)

var kindNames = map[Kind]string{
	OutlineGenerated: "outline_generated",
	SlideGenerated:   "slide_content_generated",
	SlideCritiqued:   "slide_critiqued",
	SlideRefined:     "slide_refined",
	SlideAdvanced:    "advanced",
	Done:             "done",
	Failed:           "error",
}

func (k Kind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return "unknown"
}

// Terminal reports whether no event follows k.
func (k Kind) Terminal() bool {
	return k == Done || k == Failed
}

// Snapshot is the full pipeline state at the moment an event was emitted.
// It shares nothing with the running pipeline.
type Snapshot struct {
	Topic         string          `json:"topic"`
	Template      *deck.Template  `json:"template"`
	Theme         json.RawMessage `json:"theme"`
	Language      string          `json:"language"`
	ImageProvider string          `json:"imageProvider"`
	Outline       deck.Outline    `json:"outline"`
	Slides        []deck.Slide    `json:"slides"`
	CurrentSlide  int             `json:"current_slide"`
}

// UsageReport is attached to the Done event.
type UsageReport struct {
	SessionID string        `json:"session_id"`
	Report    string        `json:"usage_report"`
	Summary   usage.Summary `json:"usage_summary"`
}

// Event is one step of a pipeline run. Err is set only for Failed; Usage
// only for Done.
type Event struct {
	Kind     Kind
	Snapshot Snapshot
	Err      error
	Usage    *UsageReport
}
