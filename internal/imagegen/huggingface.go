package imagegen

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/fpang/ai-slide-generator/internal/assets"
)

// Hugging Face text-to-image defaults.
const (
	DefaultHuggingFaceModel = "black-forest-labs/FLUX.1-schnell"
	huggingFaceBaseURL      = "https://router.huggingface.co/hf-inference/models"
	hfInferenceSteps        = 4
	hfWidth                 = 1024
	hfHeight                = 768
)

// HuggingFace calls the Hugging Face inference API.
type HuggingFace struct {
	apiKey     string
	model      string
	baseURL    string
	out        Output
	httpClient *http.Client
}

// NewHuggingFace creates a Hugging Face client. An empty apiKey is allowed;
// Generate then reports ErrNotConfigured.
func NewHuggingFace(apiKey, model string, out Output) *HuggingFace {
	if model == "" {
		model = DefaultHuggingFaceModel
	}
	return &HuggingFace{
		apiKey:  apiKey,
		model:   model,
		baseURL: huggingFaceBaseURL,
		out:     out,
		httpClient: &http.Client{
			Timeout: 60 * time.Second,
		},
	}
}

func (h *HuggingFace) Name() string  { return ProviderHuggingFace }
func (h *HuggingFace) Model() string { return h.model }

type hfRequest struct {
	Inputs     string       `json:"inputs"`
	Parameters hfParameters `json:"parameters"`
}

type hfParameters struct {
	NumInferenceSteps int `json:"num_inference_steps"`
	Width             int `json:"width"`
	Height            int `json:"height"`
}

func (h *HuggingFace) Generate(ctx context.Context, title, content string) (Image, error) {
	if h.apiKey == "" {
		return Image{}, ErrNotConfigured
	}

	prompt := assets.RenderImagePrompt(title, content)
	body, err := json.Marshal(hfRequest{
		Inputs: prompt,
		Parameters: hfParameters{
			NumInferenceSteps: hfInferenceSteps,
			Width:             hfWidth,
			Height:            hfHeight,
		},
	})
	if err != nil {
		return Image{}, fmt.Errorf("failed to marshal request: %w", err)
	}

	log.Debug().
		Str("model", h.model).
		Str("title", title).
		Int("prompt_length", len(prompt)).
		Msg("Requesting Hugging Face image")

	start := time.Now()
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, h.baseURL+"/"+h.model, bytes.NewReader(body))
	if err != nil {
		return Image{}, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+h.apiKey)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "image/png")

	resp, err := h.httpClient.Do(req)
	if err != nil {
		return Image{}, fmt.Errorf("HTTP request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return Image{}, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		msg := truncate(string(respBody), 200)
		if resp.StatusCode == http.StatusPaymentRequired || strings.Contains(msg, "exceeded") {
			return Image{}, fmt.Errorf("%w: status %d: %s", ErrQuota, resp.StatusCode, msg)
		}
		return Image{}, fmt.Errorf("API returned status %d: %s", resp.StatusCode, msg)
	}
	if len(respBody) == 0 {
		return Image{}, ErrNoImage
	}

	mimeType := resp.Header.Get("Content-Type")
	if !strings.HasPrefix(mimeType, "image/") {
		mimeType = http.DetectContentType(respBody)
		if !strings.HasPrefix(mimeType, "image/") {
			return Image{}, fmt.Errorf("%w: got %s", ErrNoImage, mimeType)
		}
	}

	ref, err := h.out.publish(ctx, respBody, mimeType)
	if err != nil {
		return Image{}, err
	}
	imageBytes.WithLabelValues(ProviderHuggingFace).Observe(float64(len(respBody)))

	log.Info().
		Str("title", title).
		Int("bytes", len(respBody)).
		Dur("duration", time.Since(start)).
		Msg("Hugging Face image generated")

	return Image{Ref: ref, Provider: ProviderHuggingFace, Model: h.model}, nil
}

// truncate shortens s to maxLen bytes, appending "..." if truncated.
func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
