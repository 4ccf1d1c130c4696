// Package jsonutil provides utilities for extracting and parsing JSON from
// LLM responses that may be wrapped in markdown code fences, embedded in
// prose, or truncated mid-object.
package jsonutil

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/kaptinlin/jsonrepair"
)

// ErrNoJSON is returned when the text contains no object or array at all.
var ErrNoJSON = errors.New("no JSON content found")

// StripMarkdownFences removes ```json ... ``` or ``` ... ``` wrapping from text.
// Returns the content between the fences, or the original text if no fences are found.
func StripMarkdownFences(text string) string {
	text = strings.TrimSpace(text)
	if !strings.HasPrefix(text, "```") {
		return text
	}

	lines := strings.Split(text, "\n")
	if len(lines) < 3 {
		return text
	}

	startIdx := 1 // skip the opening ``` line
	endIdx := len(lines) - 1

	for i := len(lines) - 1; i > 0; i-- {
		if strings.TrimSpace(lines[i]) == "```" {
			endIdx = i
			break
		}
	}

	return strings.Join(lines[startIdx:endIdx], "\n")
}

// jsonStart returns the index of the first { or [ and the matching closer.
func jsonStart(text string) (int, string) {
	objIdx := strings.Index(text, "{")
	arrIdx := strings.Index(text, "[")
	switch {
	case objIdx == -1 && arrIdx == -1:
		return -1, ""
	case arrIdx == -1 || (objIdx != -1 && objIdx <= arrIdx):
		return objIdx, "}"
	default:
		return arrIdx, "]"
	}
}

// ExtractJSON finds and returns the JSON content (object or array) from text
// that may contain surrounding non-JSON content.
// It finds the first { or [ and matches it with the last corresponding } or ].
func ExtractJSON(text string) (string, error) {
	text = strings.TrimSpace(text)

	startIdx, endChar := jsonStart(text)
	if startIdx == -1 {
		return "", ErrNoJSON
	}

	text = text[startIdx:]
	endIdx := strings.LastIndex(text, endChar)
	if endIdx == -1 {
		return "", fmt.Errorf("no closing %s found", endChar)
	}

	return text[:endIdx+1], nil
}

// Decode strips fences, extracts the JSON payload and unmarshals it into T.
// Syntactically broken or truncated payloads get one pass through jsonrepair
// before the result is reported as an error. Decode never substitutes a
// default value; callers decide what to do with an Err result.
func Decode[T any](raw string) Result[T] {
	text := StripMarkdownFences(raw)

	jsonStr, err := ExtractJSON(text)
	if err != nil {
		if errors.Is(err, ErrNoJSON) {
			return Err[T](fmt.Errorf("%w (raw length: %d)", err, len(raw)))
		}
		// Opening delimiter without a closer: the model was cut off.
		start, _ := jsonStart(strings.TrimSpace(text))
		return repairAndDecode[T](strings.TrimSpace(text)[start:], err)
	}

	var result T
	err = json.Unmarshal([]byte(jsonStr), &result)
	if err == nil {
		return Ok(result)
	}
	var syntaxErr *json.SyntaxError
	if errors.As(err, &syntaxErr) {
		return repairAndDecode[T](jsonStr, err)
	}
	return Err[T](fmt.Errorf("invalid JSON: %w (text: %s)", err, preview(jsonStr)))
}

func repairAndDecode[T any](text string, cause error) Result[T] {
	fixed, err := jsonrepair.JSONRepair(text)
	if err != nil {
		return Err[T](fmt.Errorf("invalid JSON: %w (repair failed: %v) (text: %s)", cause, err, preview(text)))
	}
	var result T
	if err := json.Unmarshal([]byte(fixed), &result); err != nil {
		return Err[T](fmt.Errorf("invalid JSON after repair: %w (text: %s)", err, preview(fixed)))
	}
	return Ok(result)
}

// ParseJSON is Decode for callers that prefer the (value, error) form.
func ParseJSON[T any](raw string) (T, error) {
	return Decode[T](raw).Unwrap()
}

// preview truncates text for inclusion in error messages.
func preview(s string) string {
	if len(s) > 200 {
		return s[:200] + "..."
	}
	return s
}
