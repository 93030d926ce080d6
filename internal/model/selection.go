package model

import (
	"errors"
	"time"
)

// SelectionSource names the path that produced a SelectionResult
type SelectionSource string

const (
	SourceBypass     SelectionSource = "bypass"
	SourceCache      SelectionSource = "cache"
	SourceCompletion SelectionSource = "completion"
	SourceFallback   SelectionSource = "fallback"
)

var ErrInvalidRequest = errors.New("invalid selection request")

// SelectionRequest asks for the next questions after CurrentQuestionIndex
type SelectionRequest struct {
	CurrentAnswers       []AnsweredQuestion `json:"currentAnswers"`
	CurrentQuestionIndex int                `json:"currentQuestionIndex"`
}

// Validate rejects requests that cannot address the catalog
func (r *SelectionRequest) Validate() error {
	if r.CurrentQuestionIndex < 0 {
		return ErrInvalidRequest
	}
	return nil
}

// SelectionResult is what the engine returns; it is always populated
type SelectionResult struct {
	NextQuestions     []Question      `json:"nextQuestions"`
	UsedAdaptiveLogic bool            `json:"usedAdaptiveLogic"`
	DiagnosticError   string          `json:"diagnosticError,omitempty"`
	Source            SelectionSource `json:"source"`
}

// CacheEntry is a memoized selection keyed by the request fingerprint
type CacheEntry struct {
	Key               string     `json:"key"`
	SelectedQuestions []Question `json:"selectedQuestions"`
	CreatedAt         time.Time  `json:"createdAt"`
}

// Expired reports whether the entry is older than ttl at now
func (e *CacheEntry) Expired(now time.Time, ttl time.Duration) bool {
	return now.Sub(e.CreatedAt) >= ttl
}

// NextQuestionsRequest is the wire body of POST /v1/adaptive/next-questions
type NextQuestionsRequest = SelectionRequest

// NextQuestionsResponse is the wire reply of POST /v1/adaptive/next-questions
type NextQuestionsResponse struct {
	NextQuestions []Question `json:"nextQuestions"`
	IsAdaptive    bool       `json:"isAdaptive"`
	Success       bool       `json:"success"`
	Error         string     `json:"error,omitempty"`
}
