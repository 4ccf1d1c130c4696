package usage

import "strings"

type tokenRate struct {
	input, output float64 // USD per 1K tokens
}

// Approximate list prices, USD per 1K tokens.
var tokenCosts = map[string]tokenRate{
	"gpt-4":           {0.03, 0.06},
	"gpt-3.5-turbo":   {0.0015, 0.002},
	"claude-3-opus":   {0.015, 0.075},
	"claude-3-sonnet": {0.003, 0.015},
	"claude-3-haiku":  {0.00025, 0.00125},
	"gemini-pro":      {0.0005, 0.0015},
	"gemini-1.5-pro":  {0.0035, 0.0105},
	"llama-2-70b":     {0.0007, 0.0009},
	"mistral-7b":      {0.0002, 0.0002},
}

var defaultTokenRate = tokenRate{0.001, 0.002}

// USD per image, by provider then model. The empty model is the provider default.
var imageCosts = map[string]map[string]float64{
	"huggingface": {
		"black-forest-labs/FLUX.1-schnell": 0.003,
		"runwayml/stable-diffusion-v1-5":   0.002,
		"":                                 0.002,
	},
	"gemini": {
		"imagegeneration": 0.004,
		"":                0.004,
	},
}

// TokenCost estimates the cost of one call. Unknown models use the default rate.
func TokenCost(model string, input, output int) float64 {
	rate, ok := tokenCosts[strings.ToLower(model)]
	if !ok {
		rate = defaultTokenRate
	}
	return float64(input)/1000*rate.input + float64(output)/1000*rate.output
}

// ImageCost estimates the cost of images from a provider. Unknown providers
// cost nothing; placeholders are never billed.
func ImageCost(provider, model string, images int) float64 {
	models, ok := imageCosts[provider]
	if !ok {
		return 0
	}
	perImage, ok := models[model]
	if !ok {
		perImage = models[""]
	}
	return float64(images) * perImage
}
