package auth

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/openai/openai-go"
	"github.com/rs/zerolog/log"
	"google.golang.org/genai"

	"github.com/fpang/ai-slide-generator/internal/metrics"
)

// ValidationError represents a classified provider failure: a missing or
// rejected key, a quota problem, or a network fault.
type ValidationError struct {
	Type    ValidationErrorType
	Message string
	Err     error
}

// ValidationErrorType categorizes provider failures.
type ValidationErrorType int

const (
	// ErrTypeNoKey indicates no API key was found.
	ErrTypeNoKey ValidationErrorType = iota
	// ErrTypeInvalidKey indicates the API key is invalid or revoked.
	ErrTypeInvalidKey
	// ErrTypeNetworkError indicates a network connectivity issue or server fault.
	ErrTypeNetworkError
	// ErrTypeQuotaExceeded indicates the API quota has been exceeded.
	ErrTypeQuotaExceeded
	// ErrTypeUnknown indicates an unknown error occurred.
	ErrTypeUnknown
)

// Label returns a short metric-friendly name for the type.
func (t ValidationErrorType) Label() string {
	switch t {
	case ErrTypeNoKey:
		return "no_key"
	case ErrTypeInvalidKey:
		return "invalid_key"
	case ErrTypeNetworkError:
		return "network_error"
	case ErrTypeQuotaExceeded:
		return "quota"
	default:
		return "unknown"
	}
}

func (e *ValidationError) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

// ValidateAPIKey verifies a Gemini key by making a minimal API call with the
// given model. Returns nil if the key works, or a classified ValidationError.
func ValidateAPIKey(ctx context.Context, client *genai.Client, model string) error {
	log.Debug().Str("model", model).Msg("Validating API key with Gemini API")

	start := time.Now()
	resp, err := client.Models.GenerateContent(ctx, model, genai.Text("hi"), nil)
	elapsed := time.Since(start)

	result := "success"
	var valErr *ValidationError
	switch {
	case err != nil:
		valErr = ClassifyError(err)
		result = valErr.Type.Label()
	case resp == nil || len(resp.Candidates) == 0:
		log.Warn().Msg("API key validation returned empty response")
		result = "empty_response"
		valErr = &ValidationError{Type: ErrTypeUnknown, Message: "API returned empty response"}
	}

	metrics.New(metrics.Namespace).
		Dimension("Result", result).
		Metric("ApiKeyValidationMs", float64(elapsed.Milliseconds()), metrics.UnitMilliseconds).
		Count("ApiKeyValidationResult").
		Flush()

	if valErr != nil {
		return valErr
	}

	log.Info().Dur("duration", elapsed).Msg("API key validated successfully")
	return nil
}

// ClassifyError analyzes a provider error and returns a ValidationError with
// the appropriate type. Gemini and OpenAI API errors are classified by HTTP
// status; anything else by message.
func ClassifyError(err error) *ValidationError {
	if err == nil {
		return nil
	}

	var valErr *ValidationError
	if errors.As(err, &valErr) {
		return valErr
	}

	var apiErr *genai.APIError
	if errors.As(err, &apiErr) {
		return classifyStatus(apiErr.Code, apiErr.Message, err)
	}

	var oaiErr *openai.Error
	if errors.As(err, &oaiErr) {
		return classifyStatus(oaiErr.StatusCode, oaiErr.Message, err)
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return &ValidationError{Type: ErrTypeNetworkError, Message: "Request timed out", Err: err}
	}

	errLower := strings.ToLower(err.Error())
	switch {
	case strings.Contains(errLower, "api key not valid") ||
		strings.Contains(errLower, "invalid api key") ||
		strings.Contains(errLower, "api_key_invalid") ||
		strings.Contains(errLower, "permission denied"):
		return &ValidationError{Type: ErrTypeInvalidKey, Message: "API key is invalid or has been revoked", Err: err}

	case strings.Contains(errLower, "quota") ||
		strings.Contains(errLower, "resource exhausted") ||
		strings.Contains(errLower, "rate limit") ||
		strings.Contains(errLower, "exceeded"):
		return &ValidationError{Type: ErrTypeQuotaExceeded, Message: "API quota exceeded or rate limited", Err: err}

	case strings.Contains(errLower, "connection") ||
		strings.Contains(errLower, "network") ||
		strings.Contains(errLower, "timeout") ||
		strings.Contains(errLower, "dial") ||
		strings.Contains(errLower, "no such host") ||
		strings.Contains(errLower, "unreachable"):
		return &ValidationError{Type: ErrTypeNetworkError, Message: "Network error - check your internet connection", Err: err}

	default:
		return &ValidationError{Type: ErrTypeUnknown, Message: "Provider request failed", Err: err}
	}
}

// classifyStatus categorizes an HTTP status returned by a provider API.
func classifyStatus(code int, message string, err error) *ValidationError {
	switch code {
	case 400:
		return &ValidationError{Type: ErrTypeInvalidKey, Message: "Bad request - API key may be malformed", Err: err}
	case 401, 403:
		return &ValidationError{Type: ErrTypeInvalidKey, Message: "API key is invalid, expired, or lacks permissions", Err: err}
	case 402, 429:
		return &ValidationError{Type: ErrTypeQuotaExceeded, Message: "API rate limit or credits exceeded - try again later", Err: err}
	case 500, 502, 503, 504:
		return &ValidationError{Type: ErrTypeNetworkError, Message: "Provider server error - try again later", Err: err}
	default:
		if message == "" {
			message = "Provider API error"
		}
		return &ValidationError{Type: ErrTypeUnknown, Message: message, Err: err}
	}
}
