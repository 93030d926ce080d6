package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"adaptivequiz/internal/event"
	"adaptivequiz/internal/model"
	"adaptivequiz/internal/repository"
	"adaptivequiz/internal/scoring"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

var (
	ErrNoAnswers      = errors.New("a completed test needs at least one answer")
	ErrResultNotFound = errors.New("result not found")
)

// ResultService scores and stores completed questionnaires
type ResultService struct {
	questions    *QuestionService
	resultRepo   repository.ResultRepo
	publisher    Publisher
	historyLimit int
	logger       *zap.Logger
}

// NewResultService creates a new result service
func NewResultService(questions *QuestionService, resultRepo repository.ResultRepo, historyLimit int, logger *zap.Logger) *ResultService {
	return &ResultService{
		questions:    questions,
		resultRepo:   resultRepo,
		historyLimit: historyLimit,
		logger:       logger,
	}
}

// SetPublisher sets the event publisher
func (s *ResultService) SetPublisher(p Publisher) {
	s.publisher = p
}

// Complete scores the answers against the catalog and persists the result.
// Scores sent by the client are replaced by the server's own aggregation.
func (s *ResultService) Complete(ctx context.Context, respondentID string, req *model.CompleteTestRequest) (*model.TestResult, error) {
	if len(req.Answers) == 0 {
		return nil, ErrNoAnswers
	}

	catalog, err := s.questions.GetQuestions(ctx)
	if err != nil {
		return nil, err
	}

	result := &model.TestResult{
		ID:           uuid.New().String(),
		RespondentID: respondentID,
		Answers:      req.Answers,
		TraitScores:  scoring.Aggregate(req.Answers, catalog),
		UsedAdaptive: req.UsedAdaptive,
		CompletedAt:  time.Now().UTC(),
	}

	if err := s.resultRepo.Create(ctx, result); err != nil {
		return nil, fmt.Errorf("failed to store result: %w", err)
	}

	s.logger.Info("test completed",
		zap.String("resultId", result.ID),
		zap.String("respondentId", respondentID),
		zap.Int("answers", len(result.Answers)),
		zap.Bool("adaptive", result.UsedAdaptive))

	if s.publisher != nil {
		if err := s.publisher.Publish(ctx, event.TestCompleted, result); err != nil {
			s.logger.Warn("failed to publish completion event", zap.Error(err))
		}
	}
	return result, nil
}

// Recent returns the respondent's latest results, most recent first
func (s *ResultService) Recent(ctx context.Context, respondentID string) ([]model.TestResult, error) {
	return s.resultRepo.GetRecentByRespondent(ctx, respondentID, s.historyLimit)
}

// Get returns one stored result. Results of other respondents are reported as
// not found.
func (s *ResultService) Get(ctx context.Context, respondentID, id string) (*model.TestResult, error) {
	result, err := s.resultRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if result == nil || result.RespondentID != respondentID {
		return nil, ErrResultNotFound
	}
	return result, nil
}
