package sse

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/fpang/ai-slide-generator/internal/deck"
	"github.com/fpang/ai-slide-generator/internal/pipeline"
)

// Frame is one decoded frame. Data holds the value under Name, or the whole
// object for the usage frame.
type Frame struct {
	Name string
	Data json.RawMessage
}

// Reader reads frames from an event stream.
type Reader struct {
	r    *bufio.Reader
	body io.Closer
}

// NewReader wraps an event-stream body.
func NewReader(r io.Reader) *Reader {
	rd := &Reader{r: bufio.NewReader(r)}
	if c, ok := r.(io.Closer); ok {
		rd.body = c
	}
	return rd
}

// Next returns the next frame, or io.EOF when the stream ends.
func (rd *Reader) Next() (Frame, error) {
	var data []byte
	for {
		line, err := rd.r.ReadBytes('\n')
		if err != nil && !errors.Is(err, io.EOF) {
			return Frame{}, err
		}
		eof := errors.Is(err, io.EOF)

		line = bytes.TrimRight(line, "\r\n")
		switch {
		case len(line) == 0:
			if len(data) > 0 {
				return decodeFrame(data)
			}
		case bytes.HasPrefix(line, []byte("data:")):
			payload := bytes.TrimSpace(bytes.TrimPrefix(line, []byte("data:")))
			if len(data) > 0 {
				data = append(data, '\n')
			}
			data = append(data, payload...)
		}

		if eof {
			if len(data) > 0 {
				return decodeFrame(data)
			}
			return Frame{}, io.EOF
		}
	}
}

// Close closes the underlying body if it has one.
func (rd *Reader) Close() error {
	if rd.body == nil {
		return nil
	}
	return rd.body.Close()
}

func decodeFrame(data []byte) (Frame, error) {
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(data, &obj); err != nil {
		return Frame{}, fmt.Errorf("decode frame: %w", err)
	}
	if _, ok := obj["usage_report"]; ok {
		return Frame{Name: NameUsage, Data: data}, nil
	}
	if len(obj) != 1 {
		return Frame{}, fmt.Errorf("decode frame: expected one key, got %d", len(obj))
	}
	for k, v := range obj {
		return Frame{Name: k, Data: v}, nil
	}
	return Frame{}, nil
}

// Dial posts body to url and returns a Reader over the event stream. A
// non-200 answer is returned as an error carrying the server's message.
func Dial(ctx context.Context, client *http.Client, url string, body any) (*Reader, error) {
	data, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("marshal request body: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "text/event-stream")

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("do request: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		defer resp.Body.Close()
		var e struct {
			Error string `json:"error"`
		}
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		if json.Unmarshal(raw, &e) == nil && e.Error != "" {
			return nil, fmt.Errorf("server returned %d: %s", resp.StatusCode, e.Error)
		}
		return nil, fmt.Errorf("server returned %d: %s", resp.StatusCode, bytes.TrimSpace(raw))
	}
	return NewReader(resp.Body), nil
}

// Accumulator rebuilds the deck from frames the way a browser client does.
type Accumulator struct {
	Outline deck.Outline
	Slides  []deck.Slide
	Current int
	Usage   *pipeline.UsageReport
}

// Apply folds one frame into the accumulator. Slide arrays are snapshots:
// generate and refine frames replace the local slides only when they carry
// more slides than held locally; critique frames always replace. An error
// frame is returned as an error.
func (a *Accumulator) Apply(f Frame) error {
	switch f.Name {
	case NameError:
		var body ErrorBody
		if err := json.Unmarshal(f.Data, &body); err != nil {
			return fmt.Errorf("decode error frame: %w", err)
		}
		return fmt.Errorf("generation failed: %s", body.Message)
	case NameUsage:
		var u pipeline.UsageReport
		if err := json.Unmarshal(f.Data, &u); err != nil {
			return fmt.Errorf("decode usage frame: %w", err)
		}
		a.Usage = &u
		return nil
	}

	var snap pipeline.Snapshot
	if err := json.Unmarshal(f.Data, &snap); err != nil {
		return fmt.Errorf("decode %s frame: %w", f.Name, err)
	}
	switch f.Name {
	case NameOutline:
		a.Outline = snap.Outline
	case NameSlide, NameRefine:
		if len(snap.Slides) > len(a.Slides) {
			a.Slides = snap.Slides
		}
	case NameCritique:
		a.Slides = snap.Slides
	case NameAdvance:
		a.Current = snap.CurrentSlide
	}
	return nil
}

// Done reports whether the usage frame has arrived.
func (a *Accumulator) Done() bool {
	return a.Usage != nil
}
