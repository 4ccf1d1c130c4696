package sse

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/fpang/ai-slide-generator/internal/pipeline"
)

// ErrStreamingUnsupported is returned when the ResponseWriter cannot flush.
var ErrStreamingUnsupported = errors.New("streaming not supported")

// Writer sends frames over an HTTP response, flushing after each one.
type Writer struct {
	w      http.ResponseWriter
	f      http.Flusher
	frames int
}

// NewWriter sets the event-stream headers. It fails before anything is
// written if w cannot flush, so the caller can still send a normal error.
func NewWriter(w http.ResponseWriter) (*Writer, error) {
	f, ok := w.(http.Flusher)
	if !ok {
		return nil, ErrStreamingUnsupported
	}
	h := w.Header()
	h.Set("Content-Type", "text/event-stream")
	h.Set("Cache-Control", "no-cache")
	h.Set("Connection", "keep-alive")
	h.Set("X-Accel-Buffering", "no")
	return &Writer{w: w, f: f}, nil
}

// WriteFrame writes one data frame and flushes it.
func (sw *Writer) WriteFrame(payload []byte) error {
	if _, err := fmt.Fprintf(sw.w, "data: %s\n\n", payload); err != nil {
		return fmt.Errorf("write frame: %w", err)
	}
	sw.f.Flush()
	sw.frames++
	return nil
}

// Send encodes and writes one event.
func (sw *Writer) Send(ev pipeline.Event) error {
	payload, err := Encode(ev)
	if err != nil {
		return err
	}
	return sw.WriteFrame(payload)
}

// SendError writes an error frame.
func (sw *Writer) SendError(message string) error {
	payload, err := EncodeError(message)
	if err != nil {
		return err
	}
	return sw.WriteFrame(payload)
}

// Frames returns the number of frames written so far.
func (sw *Writer) Frames() int {
	return sw.frames
}

// Stream writes every event in order. It stops when ctx is done (the client
// went away) or a write fails; ranging stops the producer as well.
func Stream(ctx context.Context, sw *Writer, events iter.Seq[pipeline.Event]) error {
	for ev := range events {
		if err := ctx.Err(); err != nil {
			log.Info().Int("frames", sw.frames).Msg("Client disconnected, stopping stream")
			return err
		}
		if err := sw.Send(ev); err != nil {
			log.Warn().Err(err).Str("event", WireName(ev.Kind)).Msg("Failed to send frame")
			return err
		}
		log.Debug().Str("event", WireName(ev.Kind)).Msg("Frame sent")
	}
	return ctx.Err()
}
