package textgen

import (
	"context"
	"errors"
	"strings"
	"testing"
	"text/template"

	"github.com/fpang/ai-slide-generator/internal/assets"
)

// fakeGenerator returns a scripted answer and records the last request.
type fakeGenerator struct {
	text  string
	usage Usage
	err   error
	last  Request
}

func (f *fakeGenerator) Generate(ctx context.Context, req Request) (Response, error) {
	f.last = req
	if f.err != nil {
		return Response{}, f.err
	}
	return Response{Text: f.text, Usage: f.usage}, nil
}

func (f *fakeGenerator) Provider() string { return "fake" }
func (f *fakeGenerator) Model() string    { return "fake-model" }

// --- GenerateStructured Tests ---

func TestGenerateStructuredSlide(t *testing.T) {
	g := &fakeGenerator{
		text:  "```json\n{\"title\": \"Qubits\", \"content\": \"- Superposition\\n- Entanglement\"}\n```",
		usage: Usage{Provider: "fake", Model: "fake-model", InputTokens: 120, OutputTokens: 30},
	}

	draft, usage, err := GenerateStructured(context.Background(), g, "slide_content",
		assets.SlideTemplate("en"), assets.SlideVars{Topic: "Quantum Computing", SlideTitle: "Qubits"},
		SlideShape, ValidateDraft)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if draft.Title != "Qubits" {
		t.Errorf("expected title Qubits, got %q", draft.Title)
	}
	if !strings.HasPrefix(draft.Content, "- Superposition") {
		t.Errorf("unexpected content %q", draft.Content)
	}
	if usage.InputTokens != 120 || usage.OutputTokens != 30 || usage.Estimated {
		t.Errorf("expected provider usage to pass through, got %+v", usage)
	}
	if !strings.Contains(g.last.Prompt, "Quantum Computing") {
		t.Errorf("expected rendered prompt to contain topic, got %q", g.last.Prompt)
	}
	if g.last.System != assets.SystemPrompt {
		t.Error("expected system prompt to be sent")
	}
	if g.last.Shape.Name != "slide" {
		t.Errorf("expected slide shape, got %q", g.last.Shape.Name)
	}
}

func TestGenerateStructuredEstimatesMissingUsage(t *testing.T) {
	g := &fakeGenerator{text: `{"revision_needed": false, "critique": "No issues found."}`}

	_, usage, err := GenerateStructured[CritiqueResult](context.Background(), g, "critique",
		assets.CritiqueTemplate, assets.CritiqueVars{Title: "A", Content: "- b"}, CritiqueShape, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !usage.Estimated {
		t.Error("expected usage to be marked estimated")
	}
	if usage.InputTokens == 0 || usage.OutputTokens == 0 {
		t.Errorf("expected non-zero estimates, got %+v", usage)
	}
	if usage.Model != "fake-model" {
		t.Errorf("expected model fake-model, got %q", usage.Model)
	}
}

func TestGenerateStructuredProviderError(t *testing.T) {
	g := &fakeGenerator{err: errors.New("upstream exploded")}

	_, _, err := GenerateStructured[CritiqueResult](context.Background(), g, "critique",
		assets.CritiqueTemplate, assets.CritiqueVars{Title: "A", Content: "- b"}, CritiqueShape, nil)
	if !IsKind(err, KindProvider) {
		t.Errorf("expected provider error, got %v", err)
	}
	var genErr *GenerationError
	if !errors.As(err, &genErr) || genErr.Op != "critique" {
		t.Errorf("expected GenerationError for critique, got %v", err)
	}
}

func TestGenerateStructuredTimeout(t *testing.T) {
	g := &fakeGenerator{err: context.DeadlineExceeded}

	_, _, err := GenerateStructured[CritiqueResult](context.Background(), g, "critique",
		assets.CritiqueTemplate, assets.CritiqueVars{Title: "A", Content: "- b"}, CritiqueShape, nil)
	if !IsKind(err, KindTimeout) {
		t.Errorf("expected timeout error, got %v", err)
	}
}

func TestGenerateStructuredMissingKey(t *testing.T) {
	g := &fakeGenerator{text: `{"critique": "too long"}`}

	_, usage, err := GenerateStructured[CritiqueResult](context.Background(), g, "critique",
		assets.CritiqueTemplate, assets.CritiqueVars{Title: "A", Content: "- b"}, CritiqueShape, nil)
	if !IsKind(err, KindShape) {
		t.Errorf("expected shape error, got %v", err)
	}
	if usage.TotalTokens() == 0 {
		t.Error("expected usage to be reported even on rejected output")
	}
}

func TestGenerateStructuredNotJSON(t *testing.T) {
	g := &fakeGenerator{text: "I cannot help with that."}

	_, _, err := GenerateStructured[SlideDraft](context.Background(), g, "slide_content",
		assets.SlideTemplate("en"), assets.SlideVars{Topic: "T", SlideTitle: "S"}, SlideShape, nil)
	if !IsKind(err, KindDecode) {
		t.Errorf("expected decode error, got %v", err)
	}
}

func TestGenerateStructuredMissingTemplateVariable(t *testing.T) {
	g := &fakeGenerator{text: "{}"}
	tmpl := template.Must(template.New("t").Option("missingkey=error").Parse("{{.Missing}}"))

	_, _, err := GenerateStructured[SlideDraft](context.Background(), g, "slide_content",
		tmpl, map[string]string{}, SlideShape, nil)
	if !IsKind(err, KindConfig) {
		t.Errorf("expected config error, got %v", err)
	}
	if g.last.Prompt != "" {
		t.Error("expected provider not to be called")
	}
}

// --- Outline Tests ---

func TestOutlineAcceptsObjectAndArray(t *testing.T) {
	vars := assets.OutlineVars{Topic: "Quantum Computing", TemplatePrefix: "Create a presentation about"}
	for _, text := range []string{
		`{"titles": ["Intro", "Qubits", "Gates", "Algorithms", "Hardware", "Outlook"]}`,
		`["Intro", "Qubits", "Gates", "Algorithms", "Hardware", "Outlook"]`,
	} {
		g := &fakeGenerator{text: text}
		out, _, err := GenerateStructured(context.Background(), g, "outline",
			assets.OutlineTemplate("en"), vars, OutlineShape, ValidateOutline)
		if err != nil {
			t.Fatalf("unexpected error for %s: %v", text, err)
		}
		if len(out.Titles) != 6 {
			t.Errorf("expected 6 titles, got %d", len(out.Titles))
		}
	}
}

func TestValidateOutline(t *testing.T) {
	out, err := ValidateOutline(OutlineResult{Titles: []string{"a", " ", "b", "c", "d", "e", "f", "g", "h", "i"}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(out.Titles) != 7 {
		t.Errorf("expected outline capped at 7, got %d", len(out.Titles))
	}
	if out.Titles[1] != "b" {
		t.Errorf("expected blank title dropped, got %q", out.Titles[1])
	}

	if _, err := ValidateOutline(OutlineResult{Titles: []string{"a", "b", "", "c"}}); !errors.Is(err, errInvalid) {
		t.Errorf("expected short outline to be invalid, got %v", err)
	}
}

func TestValidateDraft(t *testing.T) {
	if _, err := ValidateDraft(SlideDraft{Title: " ", Content: "- x"}); err == nil {
		t.Error("expected empty title to be rejected")
	}
	if _, err := ValidateDraft(SlideDraft{Title: "T", Content: ""}); err == nil {
		t.Error("expected empty content to be rejected")
	}
}

// --- Shape Tests ---

func TestShapeForRequiredKeys(t *testing.T) {
	if len(CritiqueShape.Keys) != 2 {
		t.Errorf("expected 2 required keys, got %v", CritiqueShape.Keys)
	}
	if OutlineShape.Keys != nil {
		t.Errorf("expected outline shape to have no required keys, got %v", OutlineShape.Keys)
	}
	if OutlineShape.Schema == nil {
		t.Error("expected outline schema")
	}
}

func TestGeminiSchemaConversion(t *testing.T) {
	gs := geminiSchema(SlideShape.Schema)
	if gs.Type != "OBJECT" {
		t.Errorf("expected OBJECT, got %s", gs.Type)
	}
	if gs.Properties["content"] == nil || gs.Properties["content"].Type != "STRING" {
		t.Errorf("expected string content property, got %+v", gs.Properties["content"])
	}

	outline := geminiSchema(OutlineShape.Schema)
	titles := outline.Properties["titles"]
	if titles == nil || titles.Type != "ARRAY" || titles.Items == nil || titles.Items.Type != "STRING" {
		t.Errorf("expected array of strings for titles, got %+v", titles)
	}
}

func TestStrictCompatible(t *testing.T) {
	if !strictCompatible(CritiqueShape.Schema) {
		t.Error("expected critique schema to be strict compatible")
	}
	type loose struct {
		A string `json:"a"`
		B string `json:"b,omitempty"`
	}
	if strictCompatible(ShapeFor[loose]("loose", "").Schema) {
		t.Error("expected schema with optional field to be rejected for strict mode")
	}
}

// --- EstimateTokens Tests ---

func TestEstimateTokensFallback(t *testing.T) {
	if got := EstimateTokens("fake-model", "abcdefgh"); got != 2 {
		t.Errorf("expected 2 tokens, got %d", got)
	}
	if got := EstimateTokens("fake-model", "abcde"); got != 2 {
		t.Errorf("expected 2 tokens for 5 chars, got %d", got)
	}
	if got := EstimateTokens("fake-model", ""); got != 0 {
		t.Errorf("expected 0 tokens for empty text, got %d", got)
	}
}

func TestResolveModel(t *testing.T) {
	if got := ResolveModel(ProviderOpenAI, ""); got != ModelGPT4oMini {
		t.Errorf("expected %s, got %s", ModelGPT4oMini, got)
	}
	if got := ResolveModel(ProviderGemini, "gemini-2.5-pro"); got != "gemini-2.5-pro" {
		t.Errorf("expected explicit model to win, got %s", got)
	}
	if isOpenAIModel(ModelGemini25Flash) {
		t.Error("expected gemini model not to use tiktoken")
	}
}
