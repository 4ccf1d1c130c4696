// Package assets provides embedded static assets for the application.
//
// Prompt templates are stored as text files under prompts/ and embedded at
// compile time. The presentation template catalogue lives in templates.yaml.
package assets

import (
	"bytes"
	"embed"
	"fmt"
	"strings"
	"sync"
	"text/template"

	"github.com/goccy/go-yaml"

	"github.com/fpang/ai-slide-generator/internal/deck"
)

//go:embed prompts/*.tmpl
var promptFS embed.FS

// SystemPrompt is the system instruction shared by every text generation call.
//
//go:embed prompts/system.txt
var SystemPrompt string

//go:embed templates.yaml
var templatesYAML []byte

// Pre-parsed templates. template.Must panics on malformed templates,
// catching errors at program startup rather than at call time.
var (
	outlineTmpl = map[string]*template.Template{
		deck.LanguageEnglish: mustParse("outline.en.tmpl"),
		deck.LanguageChinese: mustParse("outline.zh.tmpl"),
	}
	slideTmpl = map[string]*template.Template{
		deck.LanguageEnglish: mustParse("slide.en.tmpl"),
		deck.LanguageChinese: mustParse("slide.zh.tmpl"),
	}

	// CritiqueTemplate renders the slide critique prompt (CritiqueVars).
	CritiqueTemplate = mustParse("critique.tmpl")
	// RefineTemplate renders the slide refinement prompt (RefineVars).
	RefineTemplate = mustParse("refine.tmpl")
	// FeedbackTemplate renders the human feedback prompt (FeedbackVars).
	FeedbackTemplate = mustParse("feedback.tmpl")

	imageTmpl = mustParse("image.tmpl")
)

func mustParse(name string) *template.Template {
	return template.Must(template.New(name).Option("missingkey=error").ParseFS(promptFS, "prompts/"+name))
}

// OutlineVars feeds OutlineTemplate.
type OutlineVars struct {
	Topic          string
	TemplatePrefix string
}

// SlideVars feeds SlideTemplate.
type SlideVars struct {
	Topic      string
	SlideTitle string
}

// CritiqueVars feeds CritiqueTemplate.
type CritiqueVars struct {
	Title   string
	Content string
}

// RefineVars feeds RefineTemplate.
type RefineVars struct {
	Topic    string
	Title    string
	Content  string
	Critique string
}

// FeedbackVars feeds FeedbackTemplate.
type FeedbackVars struct {
	Title           string
	Content         string
	Feedback        string
	TemplateContext string
	SlideNumber     string
}

// OutlineTemplate returns the outline prompt for the language, defaulting to English.
func OutlineTemplate(language string) *template.Template {
	if t, ok := outlineTmpl[language]; ok {
		return t
	}
	return outlineTmpl[deck.LanguageEnglish]
}

// SlideTemplate returns the slide content prompt for the language, defaulting to English.
func SlideTemplate(language string) *template.Template {
	if t, ok := slideTmpl[language]; ok {
		return t
	}
	return slideTmpl[deck.LanguageEnglish]
}

// Render executes tmpl with vars. A template that references a field the
// vars do not provide fails here rather than sending a broken prompt.
func Render(tmpl *template.Template, vars any) (string, error) {
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, vars); err != nil {
		return "", fmt.Errorf("render %s: %w", tmpl.Name(), err)
	}
	return buf.String(), nil
}

// RenderImagePrompt builds the text-to-image prompt from a slide title and
// the first three bullet points of its content.
func RenderImagePrompt(title, content string) string {
	if title == "" {
		title = "Slide"
	}
	bullets := deck.Bullets(content)
	if len(bullets) > 3 {
		bullets = bullets[:3]
	}
	var buf bytes.Buffer
	_ = imageTmpl.Execute(&buf, struct {
		Title    string
		Concepts string
	}{Title: title, Concepts: strings.Join(bullets, ", ")})
	return strings.TrimSpace(buf.String())
}

// --- Template catalogue ---

type catalogue struct {
	Templates []deck.Template `yaml:"templates"`
}

var loadTemplates = sync.OnceValues(func() ([]deck.Template, error) {
	var c catalogue
	if err := yaml.Unmarshal(templatesYAML, &c); err != nil {
		return nil, fmt.Errorf("parse templates.yaml: %w", err)
	}
	return c.Templates, nil
})

// Templates returns the presentation template catalogue.
func Templates() ([]deck.Template, error) {
	tmpls, err := loadTemplates()
	if err != nil {
		return nil, err
	}
	out := make([]deck.Template, len(tmpls))
	copy(out, tmpls)
	return out, nil
}

// TemplateByID looks up a catalogue template.
func TemplateByID(id string) (deck.Template, bool) {
	tmpls, err := loadTemplates()
	if err != nil {
		return deck.Template{}, false
	}
	for _, t := range tmpls {
		if t.ID == id {
			return t, true
		}
	}
	return deck.Template{}, false
}
