package repository

import (
	"context"
	"sort"
	"sync"

	"adaptivequiz/internal/model"
)

// MemoryQuestionRepo is a process-local QuestionRepo
type MemoryQuestionRepo struct {
	mu        sync.RWMutex
	questions []model.Question
}

func NewMemoryQuestionRepo(questions []model.Question) *MemoryQuestionRepo {
	r := &MemoryQuestionRepo{}
	r.set(questions)
	return r
}

func (r *MemoryQuestionRepo) set(questions []model.Question) {
	qs := append([]model.Question(nil), questions...)
	sort.SliceStable(qs, func(i, j int) bool { return qs[i].Position < qs[j].Position })
	r.questions = qs
}

func (r *MemoryQuestionRepo) GetCatalog(_ context.Context) ([]model.Question, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]model.Question{}, r.questions...), nil
}

func (r *MemoryQuestionRepo) ReplaceAll(_ context.Context, questions []model.Question) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.set(questions)
	return nil
}

// MemoryResultRepo is a process-local ResultRepo
type MemoryResultRepo struct {
	mu      sync.RWMutex
	results []model.TestResult
}

func NewMemoryResultRepo() *MemoryResultRepo {
	return &MemoryResultRepo{}
}

func (r *MemoryResultRepo) Create(_ context.Context, result *model.TestResult) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.results = append(r.results, *result)
	return nil
}

func (r *MemoryResultRepo) GetByID(_ context.Context, id string) (*model.TestResult, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, res := range r.results {
		if res.ID == id {
			res := res
			return &res, nil
		}
	}
	return nil, nil
}

func (r *MemoryResultRepo) GetRecentByRespondent(_ context.Context, respondentID string, limit int) ([]model.TestResult, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := []model.TestResult{}
	for _, res := range r.results {
		if res.RespondentID == respondentID {
			out = append(out, res)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CompletedAt.After(out[j].CompletedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *MemoryResultRepo) EnsureIndexes(context.Context) error { return nil }
