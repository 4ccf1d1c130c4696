// Package deck holds the slide-deck data model shared by the generation
// pipeline, the feedback reviser and the stream encoders.
package deck

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Slide is one slide of a presentation. Content is newline-delimited bullet
// lines, each prefixed with "- ". ImageURL is either an http(s) URL or an
// inline data URI.
type Slide struct {
	Title          string `json:"title"`
	Content        string `json:"content"`
	ImageURL       string `json:"imageUrl,omitempty"`
	Critique       string `json:"critique,omitempty"`
	RevisionNeeded bool   `json:"revision_needed,omitempty"`
}

// Outline is the ordered list of slide titles for a presentation.
type Outline []string

// Outline length bounds for a model-produced outline.
const (
	MinOutlineLen = 5
	MaxOutlineLen = 7
)

// Template is a presentation template that steers the outline prompt.
type Template struct {
	ID             string   `json:"id,omitempty" yaml:"id"`
	Name           string   `json:"name" yaml:"name"`
	Description    string   `json:"description,omitempty" yaml:"description"`
	PromptPrefix   string   `json:"promptPrefix" yaml:"promptPrefix"`
	PromptPrefixCN string   `json:"promptPrefixCN,omitempty" yaml:"promptPrefixCN"`
	SlideCount     string   `json:"slideCount,omitempty" yaml:"slideCount"`
	Tags           []string `json:"tags,omitempty" yaml:"tags"`
}

// UnmarshalJSON accepts either a template object or a bare template name.
func (t *Template) UnmarshalJSON(data []byte) error {
	var name string
	if err := json.Unmarshal(data, &name); err == nil {
		*t = Template{Name: name}
		return nil
	}
	type plain Template
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return fmt.Errorf("template: %w", err)
	}
	*t = Template(p)
	return nil
}

// DefaultPromptPrefix is the outline guidance used when no template applies.
const DefaultPromptPrefix = "Create a presentation about"

// Prefix returns the template guidance for the given language.
func (t *Template) Prefix(language string) string {
	if t == nil {
		return DefaultPromptPrefix
	}
	if language == LanguageChinese && t.PromptPrefixCN != "" {
		return t.PromptPrefixCN
	}
	if t.PromptPrefix != "" {
		return t.PromptPrefix
	}
	if t.PromptPrefixCN != "" {
		return t.PromptPrefixCN
	}
	return DefaultPromptPrefix
}

// Supported presentation languages.
const (
	LanguageEnglish = "en"
	LanguageChinese = "zh"
)

// Bullets returns the bullet lines of content with their "-" prefix and
// surrounding whitespace removed. Non-bullet lines are skipped.
func Bullets(content string) []string {
	var out []string
	for _, line := range strings.Split(content, "\n") {
		line = strings.TrimSpace(line)
		if !strings.HasPrefix(line, "-") {
			continue
		}
		out = append(out, strings.TrimSpace(strings.TrimPrefix(line, "-")))
	}
	return out
}

// FormatBullets joins bullet texts back into slide content.
func FormatBullets(bullets []string) string {
	lines := make([]string, len(bullets))
	for i, b := range bullets {
		lines[i] = "- " + b
	}
	return strings.Join(lines, "\n")
}

// Clone returns a deep copy of the slides.
func Clone(slides []Slide) []Slide {
	if slides == nil {
		return nil
	}
	out := make([]Slide, len(slides))
	copy(out, slides)
	return out
}
