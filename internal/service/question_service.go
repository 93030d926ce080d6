package service

import (
	"context"
	"errors"
	"fmt"

	"adaptivequiz/internal/model"
	"adaptivequiz/internal/repository"
)

var ErrCatalogUnavailable = errors.New("question catalog unavailable")

// QuestionService serves the ordered question catalog
type QuestionService struct {
	questionRepo repository.QuestionRepo
}

// NewQuestionService creates a new question service
func NewQuestionService(questionRepo repository.QuestionRepo) *QuestionService {
	return &QuestionService{
		questionRepo: questionRepo,
	}
}

// GetQuestions returns the catalog in order
func (s *QuestionService) GetQuestions(ctx context.Context) ([]model.Question, error) {
	questions, err := s.questionRepo.GetCatalog(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCatalogUnavailable, err)
	}
	return questions, nil
}

// Seed validates and replaces the catalog, assigning positions in order
func (s *QuestionService) Seed(ctx context.Context, questions []model.Question) error {
	seen := make(map[string]struct{}, len(questions))
	for i := range questions {
		questions[i].Position = i
		if err := questions[i].Validate(); err != nil {
			return err
		}
		if _, dup := seen[questions[i].ID]; dup {
			return fmt.Errorf("%w: duplicate id %s", model.ErrInvalidQuestion, questions[i].ID)
		}
		seen[questions[i].ID] = struct{}{}
	}
	return s.questionRepo.ReplaceAll(ctx, questions)
}
