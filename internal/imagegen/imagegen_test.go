package imagegen

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"image"
	"image/color"
	"image/png"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

// fakeGenerator returns a scripted image after an optional delay.
type fakeGenerator struct {
	name  string
	ref   string
	err   error
	delay time.Duration
	block bool
	ctxCh chan context.Context
}

func (f *fakeGenerator) Generate(ctx context.Context, title, content string) (Image, error) {
	if f.ctxCh != nil {
		f.ctxCh <- ctx
	}
	if f.block {
		<-ctx.Done()
		return Image{}, ctx.Err()
	}
	if f.delay > 0 {
		time.Sleep(f.delay)
	}
	if f.err != nil {
		return Image{}, f.err
	}
	return Image{Ref: f.ref, Provider: f.Name()}, nil
}

func (f *fakeGenerator) Name() string {
	if f.name == "" {
		return "fake"
	}
	return f.name
}

func (f *fakeGenerator) Model() string { return "fake-model" }

func decodePlaceholder(t *testing.T, ref string) string {
	t.Helper()
	const prefix = "data:image/svg+xml;base64,"
	if !strings.HasPrefix(ref, prefix) {
		t.Fatalf("expected svg data URI, got %.40s", ref)
	}
	svg, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(ref, prefix))
	if err != nil {
		t.Fatalf("invalid base64: %v", err)
	}
	return string(svg)
}

// --- Placeholder Tests ---

func TestPlaceholderDeterministic(t *testing.T) {
	if Placeholder("Quantum Gates") != Placeholder("Quantum Gates") {
		t.Error("expected identical placeholders for identical titles")
	}
	if Placeholder("abcdef") == Placeholder("ghijkl") {
		t.Error("expected same-length titles to still embed different text")
	}
}

func TestPlaceholderColourAndText(t *testing.T) {
	svg := decodePlaceholder(t, Placeholder("Intro"))
	if !strings.Contains(svg, `fill="#ec4899"`) {
		t.Errorf("expected colour bucket 5, got %s", svg)
	}
	if !strings.Contains(svg, ">Intro</text>") {
		t.Errorf("expected title text, got %s", svg)
	}
	if !strings.Contains(svg, `width="400" height="300"`) {
		t.Errorf("expected 400x300 canvas, got %s", svg)
	}
}

func TestPlaceholderTruncatesAndEscapes(t *testing.T) {
	long := strings.Repeat("x", 40)
	svg := decodePlaceholder(t, Placeholder(long))
	if !strings.Contains(svg, ">"+strings.Repeat("x", 30)+"...</text>") {
		t.Errorf("expected 30 chars plus ellipsis, got %s", svg)
	}

	svg = decodePlaceholder(t, Placeholder("R&D <2026>"))
	if !strings.Contains(svg, "R&amp;D &lt;2026&gt;") {
		t.Errorf("expected escaped title, got %s", svg)
	}
}

func TestPlaceholderEmptyTitle(t *testing.T) {
	if Placeholder("") != Placeholder("Slide") {
		t.Error("expected empty title to render as Slide")
	}
}

// --- Race Tests ---

func TestRaceSuccess(t *testing.T) {
	g := &fakeGenerator{ref: "data:image/png;base64,AAAA"}
	out := Race(context.Background(), g, "Title", "- a", time.Second)
	if out.Placeholder || out.Reason != ReasonOK {
		t.Errorf("expected success, got %+v", out)
	}
	if out.Image.Ref != g.ref {
		t.Errorf("expected generator ref, got %s", out.Image.Ref)
	}
}

func TestRaceTimeoutReturnsPlaceholder(t *testing.T) {
	ctxCh := make(chan context.Context, 1)
	g := &fakeGenerator{block: true, ctxCh: ctxCh}

	start := time.Now()
	out := Race(context.Background(), g, "Slow", "", 50*time.Millisecond)
	if elapsed := time.Since(start); elapsed > time.Second {
		t.Errorf("expected race to finish near its deadline, took %s", elapsed)
	}
	if !out.Placeholder || out.Reason != ReasonTimeout {
		t.Errorf("expected timeout placeholder, got %+v", out)
	}
	if out.Image.Ref != Placeholder("Slow") {
		t.Error("expected placeholder for the slide title")
	}

	genCtx := <-ctxCh
	select {
	case <-genCtx.Done():
	case <-time.After(time.Second):
		t.Error("expected losing generator's context to be cancelled")
	}
}

func TestRaceError(t *testing.T) {
	out := Race(context.Background(), &fakeGenerator{err: errors.New("boom")}, "T", "", time.Second)
	if !out.Placeholder || out.Reason != ReasonError {
		t.Errorf("expected error placeholder, got %+v", out)
	}
}

func TestRaceNotConfigured(t *testing.T) {
	out := Race(context.Background(), &fakeGenerator{err: ErrNotConfigured}, "T", "", time.Second)
	if !out.Placeholder || out.Reason != ReasonNotConfigured || out.Attempted() {
		t.Errorf("expected not_configured placeholder, got %+v", out)
	}
	out = Race(context.Background(), nil, "T", "", time.Second)
	if !out.Placeholder || out.Reason != ReasonNotConfigured {
		t.Errorf("expected nil generator to use placeholder, got %+v", out)
	}
}

func TestRaceEmptyRef(t *testing.T) {
	out := Race(context.Background(), &fakeGenerator{}, "T", "", time.Second)
	if !out.Placeholder || out.Reason != ReasonEmpty {
		t.Errorf("expected empty placeholder, got %+v", out)
	}
}

func TestRaceCanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	out := Race(ctx, &fakeGenerator{block: true}, "T", "", time.Minute)
	if !out.Placeholder {
		t.Errorf("expected placeholder on cancelled context, got %+v", out)
	}
}

// --- Registry Tests ---

func TestRegistryLookup(t *testing.T) {
	hf := &fakeGenerator{name: ProviderHuggingFace}
	gm := &fakeGenerator{name: ProviderGemini}
	r := NewRegistry(ProviderHuggingFace).
		Register(hf, 10*time.Second).
		Register(gm, 15*time.Second)

	g, timeout := r.Lookup(ProviderGemini)
	if g != gm || timeout != 15*time.Second {
		t.Errorf("expected gemini with 15s, got %v %s", g, timeout)
	}
	g, timeout = r.Lookup("dall-e")
	if g != hf || timeout != 10*time.Second {
		t.Errorf("expected fallback to huggingface with 10s, got %v %s", g, timeout)
	}
	if r.Resolve("") != ProviderHuggingFace {
		t.Errorf("expected empty name to resolve to fallback, got %s", r.Resolve(""))
	}
}

// --- Provider Tests ---

func testPNG(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		img.Set(x, 0, color.RGBA{R: 200, A: 255})
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	return buf.Bytes()
}

func TestHuggingFaceGenerate(t *testing.T) {
	pngData := testPNG(t, 64, 48)
	var gotAuth string
	var gotReq hfRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		if !strings.HasSuffix(r.URL.Path, "/black-forest-labs/FLUX.1-schnell") {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		_ = json.NewDecoder(r.Body).Decode(&gotReq)
		w.Header().Set("Content-Type", "image/png")
		_, _ = w.Write(pngData)
	}))
	defer srv.Close()

	hf := NewHuggingFace("hf-key", "", Output{MaxWidth: 512})
	hf.baseURL = srv.URL

	img, err := hf.Generate(context.Background(), "Qubits", "- Superposition\n- Entanglement")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gotAuth != "Bearer hf-key" {
		t.Errorf("expected bearer auth, got %q", gotAuth)
	}
	if gotReq.Parameters.NumInferenceSteps != 4 || gotReq.Parameters.Width != 1024 || gotReq.Parameters.Height != 768 {
		t.Errorf("unexpected parameters %+v", gotReq.Parameters)
	}
	if !strings.Contains(gotReq.Inputs, `"Qubits"`) || !strings.Contains(gotReq.Inputs, "Superposition, Entanglement") {
		t.Errorf("unexpected prompt %q", gotReq.Inputs)
	}
	if img.Ref != DataURI(pngData, "image/png") {
		t.Errorf("expected small png to be inlined unchanged")
	}
}

func TestHuggingFaceNoKey(t *testing.T) {
	_, err := NewHuggingFace("", "", Output{}).Generate(context.Background(), "T", "")
	if !errors.Is(err, ErrNotConfigured) {
		t.Errorf("expected ErrNotConfigured, got %v", err)
	}
}

func TestHuggingFaceQuota(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "You have exceeded your monthly included credits", http.StatusPaymentRequired)
	}))
	defer srv.Close()

	hf := NewHuggingFace("k", "", Output{})
	hf.baseURL = srv.URL
	if _, err := hf.Generate(context.Background(), "T", ""); !errors.Is(err, ErrQuota) {
		t.Errorf("expected ErrQuota, got %v", err)
	}
}

func TestGeminiGenerate(t *testing.T) {
	pngData := testPNG(t, 32, 32)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("x-goog-api-key") != "g-key" {
			t.Errorf("expected api key header")
		}
		if !strings.HasSuffix(r.URL.Path, "/models/"+DefaultGeminiModel+":generateContent") {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		var req geminiRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		if len(req.GenerationConfig.ResponseModalities) != 1 || req.GenerationConfig.ResponseModalities[0] != "IMAGE" {
			t.Errorf("expected IMAGE modality, got %v", req.GenerationConfig.ResponseModalities)
		}
		resp := map[string]any{
			"candidates": []any{map[string]any{
				"content": map[string]any{"parts": []any{
					map[string]any{"inlineData": map[string]any{
						"mimeType": "image/png",
						"data":     base64.StdEncoding.EncodeToString(pngData),
					}},
				}},
			}},
		}
		_ = json.NewEncoder(w).Encode(resp)
	}))
	defer srv.Close()

	g := NewGemini("g-key", "", Output{})
	g.baseURL = srv.URL
	img, err := g.Generate(context.Background(), "T", "- a")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if img.Provider != ProviderGemini || !strings.HasPrefix(img.Ref, "data:image/png;base64,") {
		t.Errorf("unexpected image %+v", img)
	}
}

func TestGeminiNoImage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"candidates":[{"content":{"parts":[{"text":"I can't draw that"}]}}]}`))
	}))
	defer srv.Close()

	g := NewGemini("k", "", Output{})
	g.baseURL = srv.URL
	if _, err := g.Generate(context.Background(), "T", ""); !errors.Is(err, ErrNoImage) {
		t.Errorf("expected ErrNoImage, got %v", err)
	}
}

// --- Output Tests ---

func TestDownscale(t *testing.T) {
	data := testPNG(t, 1024, 768)
	out, mimeType, err := Downscale(data, 256)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if mimeType != "image/jpeg" {
		t.Errorf("expected jpeg, got %s", mimeType)
	}
	img, _, err := image.Decode(bytes.NewReader(out))
	if err != nil {
		t.Fatalf("decode output: %v", err)
	}
	if img.Bounds().Dx() != 256 || img.Bounds().Dy() != 192 {
		t.Errorf("expected 256x192, got %v", img.Bounds())
	}
}

func TestDownscaleRejectsGarbage(t *testing.T) {
	if _, _, err := Downscale([]byte("not an image"), 100); err == nil {
		t.Error("expected decode error")
	}
}

type memorySink struct {
	data        []byte
	contentType string
}

func (m *memorySink) Put(ctx context.Context, data []byte, contentType string) (string, error) {
	m.data, m.contentType = data, contentType
	return "https://example.com/img.jpg", nil
}

func TestOutputUsesSink(t *testing.T) {
	sink := &memorySink{}
	ref, err := Output{MaxWidth: 16, Sink: sink}.publish(context.Background(), testPNG(t, 64, 64), "image/png")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ref != "https://example.com/img.jpg" {
		t.Errorf("expected sink URL, got %s", ref)
	}
	if sink.contentType != "image/jpeg" {
		t.Errorf("expected downscaled jpeg in sink, got %s", sink.contentType)
	}
}

func TestExtensionFor(t *testing.T) {
	if extensionFor("image/jpeg") != ".jpg" || extensionFor("image/png") != ".png" {
		t.Error("unexpected extension mapping")
	}
}
