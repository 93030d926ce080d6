package client

import (
	"context"

	"adaptivequiz/internal/model"
	"adaptivequiz/internal/service"
)

// Local runs selection and persistence in-process, for offline sessions
type Local struct {
	Selection    *service.SelectionService
	Results      *service.ResultService
	RespondentID string
}

// NextQuestions implements Selector
func (l *Local) NextQuestions(ctx context.Context, req model.SelectionRequest) (*model.NextQuestionsResponse, error) {
	result, err := l.Selection.NextQuestions(ctx, l.RespondentID, req)
	if err != nil {
		return nil, err
	}
	return &model.NextQuestionsResponse{
		NextQuestions: result.NextQuestions,
		IsAdaptive:    result.UsedAdaptiveLogic,
		Success:       true,
		Error:         result.DiagnosticError,
	}, nil
}

// Submit implements Submitter
func (l *Local) Submit(ctx context.Context, result *model.TestResult) error {
	_, err := l.Results.Complete(ctx, l.RespondentID, &model.CompleteTestRequest{
		Answers:      result.Answers,
		TraitScores:  result.TraitScores,
		UsedAdaptive: result.UsedAdaptive,
	})
	return err
}
