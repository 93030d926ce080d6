package selection

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"adaptivequiz/internal/cache"
	"adaptivequiz/internal/completion"
	"adaptivequiz/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testCatalog returns n questions cycling through the traits with ids q01..qNN
func testCatalog(n int) []model.Question {
	out := make([]model.Question, n)
	for i := range out {
		out[i] = model.Question{
			ID:     fmt.Sprintf("q%02d", i+1),
			Text:   fmt.Sprintf("Statement number %d", i+1),
			Trait:  model.AllTraits[i%len(model.AllTraits)],
			Weight: 1,
			Options: []model.Option{
				{Value: 1, Text: "Disagree"},
				{Value: 3, Text: "Neutral"},
				{Value: 5, Text: "Agree"},
			},
			Position: i,
		}
	}
	return out
}

func answersFor(catalog []model.Question, n int) []model.AnsweredQuestion {
	out := make([]model.AnsweredQuestion, n)
	for i := 0; i < n; i++ {
		out[i] = model.NewAnswer(catalog[i], 3, time.Time{})
	}
	return out
}

type recorded struct {
	source model.SelectionSource
	reason string
}

type fakeRecorder struct {
	mu   sync.Mutex
	seen []recorded
}

func (r *fakeRecorder) ObserveSelection(source model.SelectionSource, reason string, _ time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seen = append(r.seen, recorded{source, reason})
}

func replying(text string, calls *int32) completion.Client {
	return completion.Func(func(ctx context.Context, _ []completion.Message, _ completion.Options) (string, error) {
		if calls != nil {
			atomic.AddInt32(calls, 1)
		}
		return text, nil
	})
}

func newTestEngine(client completion.Client) *Engine {
	return NewEngine(client, cache.NewMemorySelectionCache(time.Hour), Options{
		Deadline:          500 * time.Millisecond,
		CompletionTimeout: 100 * time.Millisecond,
	})
}

func checkpointRequest(catalog []model.Question) model.SelectionRequest {
	return model.SelectionRequest{
		CurrentAnswers:       answersFor(catalog, 6),
		CurrentQuestionIndex: 5,
	}
}

func TestSelectDeduplicatesAndBackfills(t *testing.T) {
	catalog := testCatalog(20)
	engine := newTestEngine(replying("[3,3,9]", nil))

	result := engine.Select(context.Background(), checkpointRequest(catalog), nil, catalog)

	require.NotNil(t, result)
	assert.True(t, result.UsedAdaptiveLogic)
	assert.Empty(t, result.DiagnosticError)
	assert.Equal(t, model.SourceCompletion, result.Source)
	// remaining[2], remaining[8], then the first remaining question
	assert.Equal(t, []string{"q09", "q15", "q07"}, ids(result.NextQuestions))
}

func TestSelectOnlyReturnsQuestionsAfterIndex(t *testing.T) {
	catalog := testCatalog(20)
	engine := newTestEngine(replying("[1, 2, 14]", nil))

	result := engine.Select(context.Background(), checkpointRequest(catalog), nil, catalog)

	require.Len(t, result.NextQuestions, 3)
	for _, q := range result.NextQuestions {
		assert.Greater(t, q.Position, 5)
	}
	assert.Equal(t, []string{"q07", "q08", "q20"}, ids(result.NextQuestions))
}

func TestSelectTakesOnlyFirstThreeIndices(t *testing.T) {
	catalog := testCatalog(20)
	engine := newTestEngine(replying("[4, 4, 4, 10, 11]", nil))

	result := engine.Select(context.Background(), checkpointRequest(catalog), nil, catalog)

	// [4,4,4] collapses to one question and the rest is backfilled
	assert.Equal(t, []string{"q10", "q07", "q08"}, ids(result.NextQuestions))
	assert.True(t, result.UsedAdaptiveLogic)
}

func TestSelectNoDuplicateTexts(t *testing.T) {
	catalog := testCatalog(20)
	catalog[8].Text = catalog[6].Text
	engine := newTestEngine(replying("[3, 1]", nil))

	result := engine.Select(context.Background(), checkpointRequest(catalog), nil, catalog)

	texts := map[string]bool{}
	for _, q := range result.NextQuestions {
		assert.False(t, texts[q.Text], "duplicate text %q", q.Text)
		texts[q.Text] = true
	}
	assert.Len(t, result.NextQuestions, 3)
}

func TestSelectBypassWhenFewRemain(t *testing.T) {
	catalog := testCatalog(20)
	var calls int32
	engine := newTestEngine(replying("[1]", &calls))

	result := engine.Select(context.Background(), model.SelectionRequest{CurrentQuestionIndex: 14}, nil, catalog)

	assert.False(t, result.UsedAdaptiveLogic)
	assert.Empty(t, result.DiagnosticError)
	assert.Equal(t, model.SourceBypass, result.Source)
	assert.Equal(t, []string{"q16", "q17", "q18", "q19", "q20"}, ids(result.NextQuestions))
	assert.Zero(t, atomic.LoadInt32(&calls))
}

func TestSelectPastEndOfCatalog(t *testing.T) {
	catalog := testCatalog(20)
	engine := newTestEngine(replying("[1]", nil))

	result := engine.Select(context.Background(), model.SelectionRequest{CurrentQuestionIndex: 19}, nil, catalog)

	assert.NotNil(t, result.NextQuestions)
	assert.Empty(t, result.NextQuestions)
	assert.False(t, result.UsedAdaptiveLogic)
}

func TestSelectCacheHitSkipsCompletion(t *testing.T) {
	catalog := testCatalog(20)
	var calls int32
	engine := newTestEngine(replying("[2, 7, 12]", &calls))
	req := checkpointRequest(catalog)

	first := engine.Select(context.Background(), req, nil, catalog)
	second := engine.Select(context.Background(), req, nil, catalog)

	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
	assert.Equal(t, model.SourceCache, second.Source)
	assert.True(t, second.UsedAdaptiveLogic)
	assert.Equal(t, ids(first.NextQuestions), ids(second.NextQuestions))
}

func TestSelectFallbackOnTimeout(t *testing.T) {
	catalog := testCatalog(20)
	slow := completion.Func(func(ctx context.Context, _ []completion.Message, _ completion.Options) (string, error) {
		<-ctx.Done()
		return "", ctx.Err()
	})
	rec := &fakeRecorder{}
	engine := newTestEngine(slow)
	engine.SetRecorder(rec)

	result := engine.Select(context.Background(), checkpointRequest(catalog), nil, catalog)

	assert.False(t, result.UsedAdaptiveLogic)
	assert.Equal(t, model.SourceFallback, result.Source)
	assert.Contains(t, result.DiagnosticError, "timed out")
	assert.Equal(t, ids(SelectDiverse(catalog[6:], 3)), ids(result.NextQuestions))
	require.Len(t, rec.seen, 1)
	assert.Equal(t, recorded{model.SourceFallback, "timeout"}, rec.seen[0])
}

func TestSelectMeetsDeadlineWhenClientIgnoresContext(t *testing.T) {
	catalog := testCatalog(20)
	stuck := completion.Func(func(ctx context.Context, _ []completion.Message, _ completion.Options) (string, error) {
		time.Sleep(time.Second)
		return "[1]", nil
	})
	engine := newTestEngine(stuck)

	start := time.Now()
	result := engine.Select(context.Background(), checkpointRequest(catalog), nil, catalog)

	assert.Less(t, time.Since(start), 500*time.Millisecond)
	assert.Equal(t, model.SourceFallback, result.Source)
	assert.Len(t, result.NextQuestions, 3)
}

func TestSelectFallbackDiagnostics(t *testing.T) {
	tests := []struct {
		name   string
		client completion.Client
		want   string
	}{
		{"service error", completion.Func(func(context.Context, []completion.Message, completion.Options) (string, error) {
			return "", errors.New("connection refused")
		}), "unavailable"},
		{"timed out marker", replying("Request timed out", nil), "reported an error"},
		{"error processing marker", replying("Error processing your request", nil), "reported an error"},
		{"empty text", replying("   ", nil), "empty"},
		{"unparseable", replying("I cannot determine this.", nil), "no indices"},
		{"out of range", replying("[0, 99]", nil), "out of range"},
		{"not configured", completion.Disabled{}, "not configured"},
		{"client panic", completion.Func(func(context.Context, []completion.Message, completion.Options) (string, error) {
			panic("boom")
		}), "panicked"},
	}

	catalog := testCatalog(20)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			engine := newTestEngine(tt.client)

			result := engine.Select(context.Background(), checkpointRequest(catalog), nil, catalog)

			assert.False(t, result.UsedAdaptiveLogic)
			assert.Equal(t, model.SourceFallback, result.Source)
			assert.Contains(t, result.DiagnosticError, tt.want)
			assert.Len(t, result.NextQuestions, 3)
		})
	}
}

func TestSelectCachesFallback(t *testing.T) {
	catalog := testCatalog(20)
	var calls int32
	failing := completion.Func(func(context.Context, []completion.Message, completion.Options) (string, error) {
		atomic.AddInt32(&calls, 1)
		return "", errors.New("down")
	})
	engine := newTestEngine(failing)
	req := checkpointRequest(catalog)

	first := engine.Select(context.Background(), req, nil, catalog)
	second := engine.Select(context.Background(), req, nil, catalog)

	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
	assert.Equal(t, ids(first.NextQuestions), ids(second.NextQuestions))
	assert.Equal(t, model.SourceCache, second.Source)
}

type brokenCache struct{}

func (brokenCache) Get(context.Context, string) (*model.CacheEntry, error) {
	return nil, errors.New("redis: connection refused")
}

func (brokenCache) Set(context.Context, string, []model.Question) error {
	return errors.New("redis: connection refused")
}

func TestSelectCacheErrorsAreMisses(t *testing.T) {
	catalog := testCatalog(20)
	engine := NewEngine(replying("[2]", nil), brokenCache{}, Options{Deadline: time.Second})

	result := engine.Select(context.Background(), checkpointRequest(catalog), nil, catalog)

	assert.True(t, result.UsedAdaptiveLogic)
	assert.Equal(t, model.SourceCompletion, result.Source)
}

// stalledCache never answers until released, whatever its context says
type stalledCache struct {
	release chan struct{}
}

func newStalledCache(t *testing.T) *stalledCache {
	c := &stalledCache{release: make(chan struct{})}
	t.Cleanup(func() { close(c.release) })
	return c
}

func (c *stalledCache) Get(context.Context, string) (*model.CacheEntry, error) {
	<-c.release
	return nil, nil
}

func (c *stalledCache) Set(context.Context, string, []model.Question) error {
	<-c.release
	return nil
}

func TestSelectStalledCacheKeepsDeadline(t *testing.T) {
	catalog := testCatalog(20)
	engine := NewEngine(replying("[1,2,3]", nil), newStalledCache(t), Options{
		Deadline:          time.Second,
		CompletionTimeout: 200 * time.Millisecond,
		CacheTimeout:      50 * time.Millisecond,
	})

	start := time.Now()
	result := engine.Select(context.Background(), checkpointRequest(catalog), nil, catalog)
	elapsed := time.Since(start)

	assert.Less(t, elapsed, 400*time.Millisecond)
	assert.True(t, result.UsedAdaptiveLogic)
	assert.Equal(t, model.SourceCompletion, result.Source)
	assert.Empty(t, result.DiagnosticError)
	assert.Equal(t, []string{"q07", "q08", "q09"}, ids(result.NextQuestions))
}

func TestSelectStalledCacheWithSlowCompletion(t *testing.T) {
	catalog := testCatalog(20)
	slow := completion.Func(func(ctx context.Context, _ []completion.Message, _ completion.Options) (string, error) {
		<-ctx.Done()
		return "", ctx.Err()
	})
	rec := &fakeRecorder{}
	engine := NewEngine(slow, newStalledCache(t), Options{
		Deadline:          time.Second,
		CompletionTimeout: 200 * time.Millisecond,
		CacheTimeout:      50 * time.Millisecond,
	})
	engine.SetRecorder(rec)

	start := time.Now()
	result := engine.Select(context.Background(), checkpointRequest(catalog), nil, catalog)

	assert.Less(t, time.Since(start), time.Second)
	assert.Equal(t, model.SourceFallback, result.Source)
	assert.Contains(t, result.DiagnosticError, "completion service timed out")
	require.Len(t, rec.seen, 1)
	assert.Equal(t, "timeout", rec.seen[0].reason)
}

func TestSelectExpiredDeadlineIsNotBlamedOnCompletion(t *testing.T) {
	catalog := testCatalog(20)
	var calls int32
	rec := &fakeRecorder{}
	engine := newTestEngine(replying("[1]", &calls))
	engine.SetRecorder(rec)

	ctx, cancel := context.WithDeadline(context.Background(), time.Now().Add(-time.Second))
	defer cancel()
	result := engine.Select(ctx, checkpointRequest(catalog), nil, catalog)

	assert.Equal(t, int32(0), atomic.LoadInt32(&calls))
	assert.Equal(t, model.SourceFallback, result.Source)
	assert.Contains(t, result.DiagnosticError, "selection deadline exceeded")
	assert.NotContains(t, result.DiagnosticError, "completion service")
	require.Len(t, rec.seen, 1)
	assert.Equal(t, "deadline", rec.seen[0].reason)
}

func TestSelectPromptContents(t *testing.T) {
	catalog := testCatalog(20)
	var got []completion.Message
	var opts completion.Options
	client := completion.Func(func(_ context.Context, m []completion.Message, o completion.Options) (string, error) {
		got, opts = m, o
		return "[1]", nil
	})
	history := make([]model.HistoricalSession, 5)
	for i := range history {
		history[i] = model.HistoricalSession{TraitScores: map[model.Trait]float64{model.TraitOpenness: float64(i)}}
	}
	engine := NewEngine(client, nil, Options{Deadline: time.Second, Temperature: 0.3, MaxTokens: 50})

	engine.Select(context.Background(), checkpointRequest(catalog), history, catalog)

	require.Len(t, got, 2)
	assert.Equal(t, completion.RoleSystem, got[0].Role)
	assert.Contains(t, got[0].Content, "JSON array")
	user := got[1].Content
	assert.Contains(t, user, "Q: Statement number 1 [openness]")
	assert.Contains(t, user, "1. [conscientiousness] Statement number 7")
	assert.Contains(t, user, "14. [neuroticism] Statement number 20")
	assert.Contains(t, user, "openness=2.00")
	assert.NotContains(t, user, "openness=3.00")
	assert.Equal(t, 3, strings.Count(user, "openness="))
	assert.Equal(t, completion.Options{Temperature: 0.3, MaxTokens: 50}, opts)
}
