package textgen

import "strings"

// Provider names accepted by SLIDES_TEXT_PROVIDER.
const (
	ProviderGemini = "gemini"
	ProviderOpenAI = "openai"
)

// Gemini Model IDs
//
// | Model Name               | API Model ID           | Use Case                      |
// |--------------------------|------------------------|-------------------------------|
// | Gemini 3 Flash (Preview) | gemini-3-flash-preview | Best for speed + intelligence |
// | Gemini 2.5 Pro           | gemini-2.5-pro         | Stable, high-reasoning tasks  |
// | Gemini 2.5 Flash         | gemini-2.5-flash       | Stable, balanced performance  |
// | Gemini 2.5 Flash-Lite    | gemini-2.5-flash-lite  | High-throughput, lowest cost  |
const (
	ModelGemini3FlashPreview = "gemini-3-flash-preview"
	ModelGemini25Pro         = "gemini-2.5-pro"
	ModelGemini25Flash       = "gemini-2.5-flash"
	ModelGemini25FlashLite   = "gemini-2.5-flash-lite"
)

// OpenAI chat models known to support json_schema response formats.
const (
	ModelGPT4o     = "gpt-4o"
	ModelGPT4oMini = "gpt-4o-mini"
	ModelGPT41Mini = "gpt-4.1-mini"
)

// DefaultModel returns the model used when SLIDES_TEXT_MODEL is empty.
func DefaultModel(provider string) string {
	switch provider {
	case ProviderOpenAI:
		return ModelGPT4oMini
	default:
		return ModelGemini25Flash
	}
}

// ResolveModel returns model, or the provider default when model is empty.
func ResolveModel(provider, model string) string {
	if model != "" {
		return model
	}
	return DefaultModel(provider)
}

func isOpenAIModel(model string) bool {
	m := strings.ToLower(model)
	return strings.HasPrefix(m, "gpt-") || strings.HasPrefix(m, "o1") ||
		strings.HasPrefix(m, "o3") || strings.HasPrefix(m, "o4") ||
		strings.HasPrefix(m, "text-embedding-")
}
