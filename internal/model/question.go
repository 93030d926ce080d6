package model

import (
	"errors"
	"fmt"
)

// Option is one selectable answer of a question
type Option struct {
	Value int    `json:"value" bson:"value" yaml:"value"`
	Text  string `json:"text" bson:"text" yaml:"text"`
}

// Question is a catalog entry. Catalog order is given by Position.
type Question struct {
	ID       string   `json:"id" bson:"_id" yaml:"id"`
	Text     string   `json:"text" bson:"text" yaml:"text"`
	Trait    Trait    `json:"trait" bson:"trait" yaml:"trait"`
	Weight   float64  `json:"weight" bson:"weight" yaml:"weight"`
	Options  []Option `json:"options" bson:"options" yaml:"options"`
	Position int      `json:"position" bson:"position" yaml:"position"`
}

var ErrInvalidQuestion = errors.New("invalid question")

// Validate checks the catalog constraints of a single question
func (q *Question) Validate() error {
	if q.ID == "" {
		return fmt.Errorf("%w: missing id", ErrInvalidQuestion)
	}
	if q.Text == "" {
		return fmt.Errorf("%w: %s has no text", ErrInvalidQuestion, q.ID)
	}
	if !q.Trait.Valid() {
		return fmt.Errorf("%w: %s has unknown trait %q", ErrInvalidQuestion, q.ID, q.Trait)
	}
	if q.Weight <= 0 {
		return fmt.Errorf("%w: %s weight must be positive", ErrInvalidQuestion, q.ID)
	}
	if len(q.Options) == 0 {
		return fmt.Errorf("%w: %s has no options", ErrInvalidQuestion, q.ID)
	}
	return nil
}

// OptionText returns the label of the option with the given value
func (q *Question) OptionText(value int) (string, bool) {
	for _, o := range q.Options {
		if o.Value == value {
			return o.Text, true
		}
	}
	return "", false
}
