package deck

import (
	"encoding/json"
	"testing"
)

func TestBulletsRoundTrip(t *testing.T) {
	content := "- First point\n- Second point\nnot a bullet\n  - Indented third"
	bullets := Bullets(content)
	if len(bullets) != 3 {
		t.Fatalf("expected 3 bullets, got %d: %v", len(bullets), bullets)
	}
	if bullets[2] != "Indented third" {
		t.Errorf("expected trimmed bullet, got %q", bullets[2])
	}
	again := Bullets(FormatBullets(bullets))
	for i := range bullets {
		if again[i] != bullets[i] {
			t.Errorf("bullet %d changed on round trip: %q -> %q", i, bullets[i], again[i])
		}
	}
}

func TestFallbackOutline(t *testing.T) {
	outline := FallbackOutline("Quantum Computing")
	if len(outline) != 7 {
		t.Fatalf("expected 7 titles, got %d", len(outline))
	}
	if outline[0] != "Introduction to Quantum Computing" {
		t.Errorf("unexpected first title: %s", outline[0])
	}
	if outline[6] != "Conclusion and Summary" {
		t.Errorf("unexpected last title: %s", outline[6])
	}
}

func TestFallbackSlide(t *testing.T) {
	s := FallbackSlide("Rust", "Key Concepts")
	if s.Title != "Key Concepts" {
		t.Errorf("expected outline title, got %s", s.Title)
	}
	bullets := Bullets(s.Content)
	if len(bullets) != 5 || bullets[0] != "Key aspects of Rust" {
		t.Errorf("unexpected fallback bullets: %v", bullets)
	}
}

func TestTemplatePrefix(t *testing.T) {
	var nilTemplate *Template
	if got := nilTemplate.Prefix(LanguageEnglish); got != DefaultPromptPrefix {
		t.Errorf("expected default prefix, got %s", got)
	}
	tmpl := &Template{PromptPrefix: "Create a pitch about", PromptPrefixCN: "创建一个关于"}
	if got := tmpl.Prefix(LanguageChinese); got != "创建一个关于" {
		t.Errorf("expected Chinese prefix, got %s", got)
	}
	if got := tmpl.Prefix(LanguageEnglish); got != "Create a pitch about" {
		t.Errorf("expected English prefix, got %s", got)
	}
}

func TestTemplateUnmarshalName(t *testing.T) {
	var tmpl Template
	if err := json.Unmarshal([]byte(`"modern"`), &tmpl); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if tmpl.Name != "modern" {
		t.Errorf("expected name modern, got %s", tmpl.Name)
	}
	if err := json.Unmarshal([]byte(`{"name":"Business Pitch","promptPrefix":"Pitch"}`), &tmpl); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if tmpl.Name != "Business Pitch" || tmpl.PromptPrefix != "Pitch" {
		t.Errorf("unexpected template: %+v", tmpl)
	}
}

func TestSlideWireShape(t *testing.T) {
	data, err := json.Marshal(Slide{Title: "T", Content: "- c", RevisionNeeded: true})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var m map[string]any
	json.Unmarshal(data, &m)
	if m["revision_needed"] != true {
		t.Errorf("expected revision_needed key, got %s", data)
	}
	if _, ok := m["imageUrl"]; ok {
		t.Errorf("expected empty imageUrl to be omitted, got %s", data)
	}
}
