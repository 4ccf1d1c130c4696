package textgen

import (
	"sync"
	"unicode/utf8"

	"github.com/pkoukk/tiktoken-go"
)

// encodings caches tiktoken encoders per model. A nil entry records a model
// tiktoken does not know, so the lookup is not retried.
var encodings sync.Map

// EstimateTokens counts tokens in text for model. Models tiktoken knows
// (the OpenAI families) are counted exactly; anything else falls back to
// one token per four characters, rounded up.
func EstimateTokens(model, text string) int {
	if text == "" {
		return 0
	}
	if enc := encodingFor(model); enc != nil {
		return len(enc.Encode(text, nil, nil))
	}
	return (utf8.RuneCountInString(text) + 3) / 4
}

func encodingFor(model string) *tiktoken.Tiktoken {
	if v, ok := encodings.Load(model); ok {
		enc, _ := v.(*tiktoken.Tiktoken)
		return enc
	}
	if !isOpenAIModel(model) {
		encodings.Store(model, (*tiktoken.Tiktoken)(nil))
		return nil
	}
	enc, err := tiktoken.EncodingForModel(model)
	if err != nil {
		enc = nil
	}
	encodings.Store(model, enc)
	return enc
}
