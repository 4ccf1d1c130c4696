package pipeline

import (
	"encoding/json"
	"slices"

	"github.com/fpang/ai-slide-generator/internal/deck"
)

// state is owned by a single run and never escapes it; events carry copies.
type state struct {
	topic         string
	template      *deck.Template
	theme         json.RawMessage
	language      string
	imageProvider string
	outline       deck.Outline
	slides        []deck.Slide
	current       int
}

func (s *state) snapshot() Snapshot {
	var tmpl *deck.Template
	if s.template != nil {
		t := *s.template
		t.Tags = slices.Clone(t.Tags)
		tmpl = &t
	}
	return Snapshot{
		Topic:         s.topic,
		Template:      tmpl,
		Theme:         slices.Clone(s.theme),
		Language:      s.language,
		ImageProvider: s.imageProvider,
		Outline:       slices.Clone(s.outline),
		Slides:        deck.Clone(s.slides),
		CurrentSlide:  s.current,
	}
}
