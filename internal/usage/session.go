// Package usage tracks token and image consumption for one generation
// request and renders the informational usage report sent at the end of
// the stream.
//
// A Session is created when a request starts and passed explicitly to
// everything that spends tokens. Finished sessions can be kept in a Store
// for 24 hours so the report can be fetched again.
package usage

import (
	"crypto/rand"
	"math/big"
	"strconv"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

// TokenUsage is one text generation call.
type TokenUsage struct {
	InputTokens  int     `json:"inputTokens" dynamodbav:"inputTokens"`
	OutputTokens int     `json:"outputTokens" dynamodbav:"outputTokens"`
	TotalTokens  int     `json:"totalTokens" dynamodbav:"totalTokens"`
	Model        string  `json:"model" dynamodbav:"model"`
	Operation    string  `json:"operation" dynamodbav:"operation"`
	Timestamp    int64   `json:"timestamp" dynamodbav:"timestamp"`
	Cost         float64 `json:"cost" dynamodbav:"cost"`
	Estimated    bool    `json:"estimated,omitempty" dynamodbav:"estimated,omitempty"`
}

// ImageUsage is one image generation attempt.
type ImageUsage struct {
	Provider   string  `json:"provider" dynamodbav:"provider"`
	Model      string  `json:"model" dynamodbav:"model"`
	Operation  string  `json:"operation" dynamodbav:"operation"`
	ImageCount int     `json:"imageCount" dynamodbav:"imageCount"`
	Timestamp  int64   `json:"timestamp" dynamodbav:"timestamp"`
	Cost       float64 `json:"cost" dynamodbav:"cost"`
	Success    bool    `json:"success" dynamodbav:"success"`
}

// Summary is the serializable state of a session. Timestamps are Unix
// milliseconds.
type Summary struct {
	ID                string       `json:"id" dynamodbav:"sessionId"`
	StartTime         int64        `json:"startTime" dynamodbav:"startTime"`
	TokenUsages       []TokenUsage `json:"tokenUsages" dynamodbav:"tokenUsages"`
	ImageUsages       []ImageUsage `json:"imageUsages" dynamodbav:"imageUsages"`
	TotalInputTokens  int          `json:"totalInputTokens" dynamodbav:"totalInputTokens"`
	TotalOutputTokens int          `json:"totalOutputTokens" dynamodbav:"totalOutputTokens"`
	TotalTokens       int          `json:"totalTokens" dynamodbav:"totalTokens"`
	TotalImages       int          `json:"totalImages" dynamodbav:"totalImages"`
	EstimatedCost     float64      `json:"estimatedCost" dynamodbav:"estimatedCost"`
}

// Session accumulates usage for one request. It is safe for concurrent use;
// the feedback reviser records from several goroutines at once.
type Session struct {
	mu  sync.Mutex
	sum Summary
	now func() time.Time
}

// NewSession starts a session with the given id.
func NewSession(id string) *Session {
	return newSessionAt(id, time.Now)
}

func newSessionAt(id string, now func() time.Time) *Session {
	return &Session{
		sum: Summary{ID: id, StartTime: now().UnixMilli()},
		now: now,
	}
}

// ID returns the session id.
func (s *Session) ID() string {
	if s == nil {
		return ""
	}
	return s.sum.ID
}

// RecordTokens adds one text generation call. A nil session records nothing.
func (s *Session) RecordTokens(operation, model string, input, output int, estimated bool) {
	if s == nil {
		return
	}
	cost := TokenCost(model, input, output)
	u := TokenUsage{
		InputTokens:  input,
		OutputTokens: output,
		TotalTokens:  input + output,
		Model:        model,
		Operation:    operation,
		Timestamp:    s.now().UnixMilli(),
		Cost:         cost,
		Estimated:    estimated,
	}

	s.mu.Lock()
	s.sum.TokenUsages = append(s.sum.TokenUsages, u)
	s.sum.TotalInputTokens += input
	s.sum.TotalOutputTokens += output
	s.sum.TotalTokens += u.TotalTokens
	s.sum.EstimatedCost += cost
	s.mu.Unlock()

	costTotal.WithLabelValues("tokens").Add(cost)
	log.Debug().
		Str("session_id", s.sum.ID).
		Str("operation", operation).
		Str("model", model).
		Int("input", input).
		Int("output", output).
		Float64("cost", cost).
		Msg("Token usage recorded")
}

// RecordImage adds one image generation attempt. Failed attempts are kept
// with zero images so the report can show the success ratio.
func (s *Session) RecordImage(provider, model, operation string, images int, success bool) {
	if s == nil {
		return
	}
	cost := ImageCost(provider, model, images)
	u := ImageUsage{
		Provider:   provider,
		Model:      model,
		Operation:  operation,
		ImageCount: images,
		Timestamp:  s.now().UnixMilli(),
		Cost:       cost,
		Success:    success,
	}

	s.mu.Lock()
	s.sum.ImageUsages = append(s.sum.ImageUsages, u)
	s.sum.TotalImages += images
	s.sum.EstimatedCost += cost
	s.mu.Unlock()

	costTotal.WithLabelValues("images").Add(cost)
	log.Debug().
		Str("session_id", s.sum.ID).
		Str("provider", provider).
		Str("operation", operation).
		Bool("success", success).
		Float64("cost", cost).
		Msg("Image usage recorded")
}

// Summary returns a copy of the accumulated usage.
func (s *Session) Summary() Summary {
	if s == nil {
		return Summary{}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	out := s.sum
	out.TokenUsages = append([]TokenUsage(nil), s.sum.TokenUsages...)
	out.ImageUsages = append([]ImageUsage(nil), s.sum.ImageUsages...)
	return out
}

// Report renders the human-readable usage report as of now.
func (s *Session) Report() string {
	if s == nil {
		return "Session not found"
	}
	return FormatReport(s.Summary(), s.now())
}

const base36 = "0123456789abcdefghijklmnopqrstuvwxyz"

// NewSessionID returns an id of the form session_<unixMillis>_<9 base36 chars>.
func NewSessionID() string {
	suffix := make([]byte, 9)
	max := big.NewInt(int64(len(base36)))
	for i := range suffix {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to generate session ID")
		}
		suffix[i] = base36[n.Int64()]
	}
	return "session_" + strconv.FormatInt(time.Now().UnixMilli(), 10) + "_" + string(suffix)
}
