package model

import "time"

// AnsweredQuestion records one response. The trait and texts are captured at
// answer time so the record stays meaningful if the catalog changes later.
type AnsweredQuestion struct {
	QuestionID    string    `json:"questionId" bson:"questionId"`
	Trait         Trait     `json:"traitAtTimeOfAnswer" bson:"trait"`
	SelectedValue int       `json:"selectedValue" bson:"selectedValue"`
	QuestionText  string    `json:"questionText" bson:"questionText"`
	AnswerText    string    `json:"answerText" bson:"answerText"`
	AnsweredAt    time.Time `json:"answeredAt,omitempty" bson:"answeredAt,omitempty"`
}

// NewAnswer builds an AnsweredQuestion from a catalog question and the chosen value
func NewAnswer(q Question, value int, at time.Time) AnsweredQuestion {
	text, _ := q.OptionText(value)
	return AnsweredQuestion{
		QuestionID:    q.ID,
		Trait:         q.Trait,
		SelectedValue: value,
		QuestionText:  q.Text,
		AnswerText:    text,
		AnsweredAt:    at,
	}
}
