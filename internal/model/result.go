package model

import "time"

// TraitScore is the aggregate of all answers for one trait
type TraitScore struct {
	Score float64 `json:"score" bson:"score"`
	Count int     `json:"count" bson:"count"`
}

// TestResult is a completed questionnaire as handed to scoring/persistence
type TestResult struct {
	ID           string               `json:"id" bson:"_id"`
	RespondentID string               `json:"respondentId" bson:"respondentId"`
	Answers      []AnsweredQuestion   `json:"answers" bson:"answers"`
	TraitScores  map[Trait]TraitScore `json:"traitScores" bson:"traitScores"`
	UsedAdaptive bool                 `json:"usedAdaptive" bson:"usedAdaptive"`
	CompletedAt  time.Time            `json:"completedAt" bson:"completedAt"`
}

// HistoricalSession is the compact view of a past result used as context
type HistoricalSession struct {
	TraitScores map[Trait]float64  `json:"traitScores"`
	PastAnswers []AnsweredQuestion `json:"pastAnswers"`
	CompletedAt time.Time          `json:"completedAt"`
}

// History converts a stored result to its historical view
func (r *TestResult) History() HistoricalSession {
	scores := make(map[Trait]float64, len(r.TraitScores))
	for t, s := range r.TraitScores {
		scores[t] = s.Score
	}
	return HistoricalSession{
		TraitScores: scores,
		PastAnswers: r.Answers,
		CompletedAt: r.CompletedAt,
	}
}

// CompleteTestRequest is the body of POST /v1/results
type CompleteTestRequest struct {
	Answers      []AnsweredQuestion   `json:"answers"`
	TraitScores  map[Trait]TraitScore `json:"traitScores,omitempty"`
	UsedAdaptive bool                 `json:"usedAdaptive"`
}
