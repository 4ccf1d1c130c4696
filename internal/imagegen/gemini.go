package imagegen

// gemini.go calls the Gemini REST API directly for image output rather than
// going through the genai SDK, so the response's inline image parts can be
// read without SDK version coupling.

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/fpang/ai-slide-generator/internal/assets"
)

// DefaultGeminiModel is the Gemini model used for slide illustrations.
const DefaultGeminiModel = "gemini-2.5-flash-image"

const geminiBaseURL = "https://generativelanguage.googleapis.com/v1beta"

// Gemini generates slide images with a Gemini image model.
type Gemini struct {
	apiKey     string
	model      string
	baseURL    string
	out        Output
	httpClient *http.Client
}

// NewGemini creates a Gemini image client. An empty apiKey makes Generate
// report ErrNotConfigured.
func NewGemini(apiKey, model string, out Output) *Gemini {
	if model == "" {
		model = DefaultGeminiModel
	}
	return &Gemini{
		apiKey:  apiKey,
		model:   model,
		baseURL: geminiBaseURL,
		out:     out,
		httpClient: &http.Client{
			Timeout: 60 * time.Second,
		},
	}
}

func (g *Gemini) Name() string  { return ProviderGemini }
func (g *Gemini) Model() string { return g.model }

// --- REST API request/response types ---

type geminiRequest struct {
	Contents         []geminiContent         `json:"contents"`
	GenerationConfig *geminiGenerationConfig `json:"generationConfig,omitempty"`
}

type geminiContent struct {
	Role  string       `json:"role,omitempty"`
	Parts []geminiPart `json:"parts"`
}

type geminiPart struct {
	Text       string          `json:"text,omitempty"`
	InlineData *geminiBlobData `json:"inlineData,omitempty"`
}

type geminiGenerationConfig struct {
	ResponseModalities []string `json:"responseModalities,omitempty"`
}

type geminiBlobData struct {
	MIMEType string `json:"mimeType"`
	Data     string `json:"data"`
}

type geminiResponse struct {
	Candidates []struct {
		Content geminiContent `json:"content"`
	} `json:"candidates"`
	Error *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
		Status  string `json:"status"`
	} `json:"error,omitempty"`
}

func (g *Gemini) Generate(ctx context.Context, title, content string) (Image, error) {
	if g.apiKey == "" {
		return Image{}, ErrNotConfigured
	}

	prompt := assets.RenderImagePrompt(title, content)
	body, err := json.Marshal(geminiRequest{
		Contents: []geminiContent{{
			Role:  "user",
			Parts: []geminiPart{{Text: prompt}},
		}},
		GenerationConfig: &geminiGenerationConfig{
			ResponseModalities: []string{"IMAGE"},
		},
	})
	if err != nil {
		return Image{}, fmt.Errorf("failed to marshal request: %w", err)
	}

	log.Debug().
		Str("model", g.model).
		Str("title", title).
		Int("prompt_length", len(prompt)).
		Msg("Requesting Gemini image")

	start := time.Now()
	url := fmt.Sprintf("%s/models/%s:generateContent", g.baseURL, g.model)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return Image{}, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-goog-api-key", g.apiKey)

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return Image{}, fmt.Errorf("HTTP request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return Image{}, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		log.Error().
			Int("status", resp.StatusCode).
			Str("body", truncate(string(respBody), 500)).
			Msg("Gemini image API returned error")
		if resp.StatusCode == http.StatusTooManyRequests {
			return Image{}, fmt.Errorf("%w: status %d", ErrQuota, resp.StatusCode)
		}
		return Image{}, fmt.Errorf("API returned status %d: %s", resp.StatusCode, truncate(string(respBody), 200))
	}

	var parsed geminiResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return Image{}, fmt.Errorf("failed to parse response: %w", err)
	}
	if parsed.Error != nil {
		return Image{}, fmt.Errorf("API error: %s (code: %d)", parsed.Error.Message, parsed.Error.Code)
	}

	var data []byte
	var mimeType, text string
	for _, candidate := range parsed.Candidates {
		for _, part := range candidate.Content.Parts {
			if part.InlineData != nil && data == nil {
				decoded, err := base64.StdEncoding.DecodeString(part.InlineData.Data)
				if err != nil {
					return Image{}, fmt.Errorf("failed to decode image data: %w", err)
				}
				data, mimeType = decoded, part.InlineData.MIMEType
			}
			text += part.Text
		}
	}
	if data == nil {
		return Image{}, fmt.Errorf("%w (text: %s)", ErrNoImage, truncate(text, 200))
	}

	ref, err := g.out.publish(ctx, data, mimeType)
	if err != nil {
		return Image{}, err
	}
	imageBytes.WithLabelValues(ProviderGemini).Observe(float64(len(data)))

	log.Info().
		Str("title", title).
		Int("bytes", len(data)).
		Str("mime", mimeType).
		Dur("duration", time.Since(start)).
		Msg("Gemini image generated")

	return Image{Ref: ref, Provider: ProviderGemini, Model: g.model}, nil
}
