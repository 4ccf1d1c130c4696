// Package sse frames pipeline events as Server-Sent Events and reads them
// back on the client side.
//
// Every frame is "data: <json>\n\n". The JSON object has exactly one key
// naming the step (generate_outline, generate_slide_content, critique_slide,
// refine_slide, move_to_next_slide, error) whose value is the full pipeline
// snapshot, except for the final usage frame which carries
// {usage_report, session_id, usage_summary}.
package sse

import (
	"encoding/json"
	"fmt"

	"github.com/fpang/ai-slide-generator/internal/pipeline"
)

// Frame names on the wire.
const (
	NameOutline  = "generate_outline"
	NameSlide    = "generate_slide_content"
	NameCritique = "critique_slide"
	NameRefine   = "refine_slide"
	NameAdvance  = "move_to_next_slide"
	NameError    = "error"
	NameUsage    = "usage"
)

var wireNames = map[pipeline.Kind]string{
	pipeline.OutlineGenerated: NameOutline,
	pipeline.SlideGenerated:   NameSlide,
	pipeline.SlideCritiqued:   NameCritique,
	pipeline.SlideRefined:     NameRefine,
	pipeline.SlideAdvanced:    NameAdvance,
	pipeline.Failed:           NameError,
	pipeline.Done:             NameUsage,
}

// WireName returns the frame name for an event kind.
func WireName(k pipeline.Kind) string {
	if name, ok := wireNames[k]; ok {
		return name
	}
	return k.String()
}

// ErrorBody is the value of an error frame.
type ErrorBody struct {
	Message string `json:"message"`
}

// Encode returns the JSON payload of one frame.
func Encode(ev pipeline.Event) ([]byte, error) {
	switch ev.Kind {
	case pipeline.Done:
		if ev.Usage == nil {
			return json.Marshal(pipeline.UsageReport{})
		}
		return json.Marshal(ev.Usage)
	case pipeline.Failed:
		msg := "An unexpected error occurred"
		if ev.Err != nil {
			msg = ev.Err.Error()
		}
		return EncodeError(msg)
	}
	name, ok := wireNames[ev.Kind]
	if !ok {
		return nil, fmt.Errorf("sse: no frame name for event %v", ev.Kind)
	}
	return json.Marshal(map[string]pipeline.Snapshot{name: ev.Snapshot})
}

// EncodeError returns the payload of an error frame.
func EncodeError(message string) ([]byte, error) {
	return json.Marshal(map[string]ErrorBody{NameError: {Message: message}})
}
