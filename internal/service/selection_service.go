package service

import (
	"context"
	"sync"
	"time"

	"adaptivequiz/internal/event"
	"adaptivequiz/internal/model"
	"adaptivequiz/internal/repository"

	"go.uber.org/zap"
)

// Selector picks the next questions; implemented by selection.Engine
type Selector interface {
	Select(ctx context.Context, req model.SelectionRequest, history []model.HistoricalSession, catalog []model.Question) *model.SelectionResult
}

// publishTimeout bounds a selection event publish, which runs off the request path
const publishTimeout = 2 * time.Second

// SelectionService resolves catalog and history for a respondent and asks the
// engine for the next batch
type SelectionService struct {
	questions    *QuestionService
	resultRepo   repository.ResultRepo
	selector     Selector
	publisher    Publisher
	historyLimit int
	logger       *zap.Logger
	pending      sync.WaitGroup
}

// NewSelectionService creates a new selection service
func NewSelectionService(questions *QuestionService, resultRepo repository.ResultRepo, selector Selector, historyLimit int, logger *zap.Logger) *SelectionService {
	return &SelectionService{
		questions:    questions,
		resultRepo:   resultRepo,
		selector:     selector,
		historyLimit: historyLimit,
		logger:       logger,
	}
}

// SetPublisher sets the event publisher
func (s *SelectionService) SetPublisher(p Publisher) {
	s.publisher = p
}

// NextQuestions returns the engine's selection. Only an invalid request or an
// unreadable catalog produce an error.
func (s *SelectionService) NextQuestions(ctx context.Context, respondentID string, req model.SelectionRequest) (*model.SelectionResult, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	catalog, err := s.questions.GetQuestions(ctx)
	if err != nil {
		return nil, err
	}

	history := s.history(ctx, respondentID)

	start := time.Now()
	result := s.selector.Select(ctx, req, history, catalog)

	s.logger.Info("selected next questions",
		zap.String("respondentId", respondentID),
		zap.Int("index", req.CurrentQuestionIndex),
		zap.String("source", string(result.Source)),
		zap.Bool("adaptive", result.UsedAdaptiveLogic),
		zap.Int("count", len(result.NextQuestions)),
		zap.Duration("latency", time.Since(start)))

	if s.publisher != nil {
		s.publish(ctx, map[string]interface{}{
			"respondentId":         respondentID,
			"currentQuestionIndex": req.CurrentQuestionIndex,
			"source":               result.Source,
			"isAdaptive":           result.UsedAdaptiveLogic,
			"diagnosticError":      result.DiagnosticError,
		})
	}

	return result, nil
}

// publish sends the selection event in the background. The event outlives the
// request but not publishTimeout.
func (s *SelectionService) publish(ctx context.Context, payload map[string]interface{}) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
	s.pending.Add(1)
	go func() {
		defer s.pending.Done()
		defer cancel()
		if err := s.publisher.Publish(ctx, event.SelectionCompleted, payload); err != nil {
			s.logger.Warn("failed to publish selection event", zap.Error(err))
		}
	}()
}

// Wait blocks until background event publishes have finished
func (s *SelectionService) Wait() {
	s.pending.Wait()
}

// history loads the most recent results; failures degrade to no history
func (s *SelectionService) history(ctx context.Context, respondentID string) []model.HistoricalSession {
	if respondentID == "" || s.resultRepo == nil {
		return nil
	}
	results, err := s.resultRepo.GetRecentByRespondent(ctx, respondentID, s.historyLimit)
	if err != nil {
		s.logger.Warn("failed to load session history", zap.String("respondentId", respondentID), zap.Error(err))
		return nil
	}
	out := make([]model.HistoricalSession, 0, len(results))
	for i := range results {
		out = append(out, results[i].History())
	}
	return out
}
