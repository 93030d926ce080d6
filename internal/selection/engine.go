// Package selection chooses the next questions of an adaptive questionnaire.
package selection

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"adaptivequiz/internal/completion"
	"adaptivequiz/internal/config"
	"adaptivequiz/internal/logging"
	"adaptivequiz/internal/model"

	"go.uber.org/zap"
)

// failure markers some completion gateways return as ordinary text
var failureMarkers = []string{"timed out", "Error processing"}

// Cache is the memo the engine reads and writes
type Cache interface {
	Get(ctx context.Context, key string) (*model.CacheEntry, error)
	Set(ctx context.Context, key string, questions []model.Question) error
}

// Recorder observes finished selections
type Recorder interface {
	ObserveSelection(source model.SelectionSource, reason string, elapsed time.Duration)
}

// Options tune the engine
type Options struct {
	Deadline          time.Duration
	CompletionTimeout time.Duration
	// CacheTimeout bounds each cache read and write
	CacheTimeout      time.Duration
	BypassThreshold   int
	MaxQuestions      int
	HistoryLimit      int
	Temperature       float64
	MaxTokens         int
}

// OptionsFromConfig combines the selection and completion settings
func OptionsFromConfig(sel config.SelectionConfig, comp *config.CompletionConfig) Options {
	return Options{
		Deadline:          sel.Deadline,
		CompletionTimeout: comp.Timeout,
		CacheTimeout:      sel.CacheTimeout,
		BypassThreshold:   sel.BypassThreshold,
		MaxQuestions:      sel.MaxQuestions,
		HistoryLimit:      sel.HistoryLimit,
		Temperature:       comp.Temperature,
		MaxTokens:         comp.MaxTokens,
	}
}

// Engine picks the next batch of questions, preferring the completion
// service and falling back to SelectDiverse on any failure.
type Engine struct {
	client   completion.Client
	cache    Cache
	opts     Options
	log      *logging.RateLimited
	recorder Recorder
	now      func() time.Time
}

// NewEngine creates an engine. Zero-valued options take the defaults.
func NewEngine(client completion.Client, cache Cache, opts Options) *Engine {
	sel := config.DefaultSelectionConfig()
	comp := config.DefaultCompletionConfig()
	if opts.Deadline <= 0 {
		opts.Deadline = sel.Deadline
	}
	if opts.CompletionTimeout <= 0 || opts.CompletionTimeout >= opts.Deadline {
		opts.CompletionTimeout = opts.Deadline * 7 / 10
	}
	if opts.CacheTimeout <= 0 || opts.CacheTimeout >= opts.Deadline {
		opts.CacheTimeout = sel.CacheTimeout
		if opts.CacheTimeout >= opts.Deadline {
			opts.CacheTimeout = opts.Deadline / 10
		}
	}
	if opts.BypassThreshold <= 0 {
		opts.BypassThreshold = sel.BypassThreshold
	}
	if opts.MaxQuestions <= 0 {
		opts.MaxQuestions = DefaultMaxQuestions
	}
	if opts.HistoryLimit <= 0 {
		opts.HistoryLimit = sel.HistoryLimit
	}
	if opts.MaxTokens <= 0 {
		opts.MaxTokens = comp.MaxTokens
	}
	return &Engine{
		client: client,
		cache:  cache,
		opts:   opts,
		log:    logging.NewRateLimited(zap.NewNop(), 0),
		now:    time.Now,
	}
}

// SetLogger sets the throttled logger
func (e *Engine) SetLogger(l *logging.RateLimited) {
	e.log = l
}

// SetRecorder sets the metrics recorder
func (e *Engine) SetRecorder(r Recorder) {
	e.recorder = r
}

// Select returns the next questions after req.CurrentQuestionIndex. It always
// returns a result within the engine deadline; failures are reported through
// DiagnosticError.
func (e *Engine) Select(ctx context.Context, req model.SelectionRequest, history []model.HistoricalSession, catalog []model.Question) *model.SelectionResult {
	start := e.now()
	result, cause := e.run(ctx, req, history, catalog)
	if e.recorder != nil {
		why := ""
		if cause != nil {
			why = reason(cause)
		}
		e.recorder.ObserveSelection(result.Source, why, e.now().Sub(start))
	}
	return result
}

func (e *Engine) run(ctx context.Context, req model.SelectionRequest, history []model.HistoricalSession, catalog []model.Question) (result *model.SelectionResult, cause error) {
	ctx, cancel := context.WithTimeout(ctx, e.opts.Deadline)
	defer cancel()

	remaining := remainingAfter(catalog, req.CurrentQuestionIndex)
	key := ""

	defer func() {
		if r := recover(); r != nil {
			cause = fmt.Errorf("%w: %v", ErrInternal, r)
			result = e.fallback(ctx, key, remaining, cause)
		}
	}()

	if len(remaining) <= e.opts.BypassThreshold {
		return &model.SelectionResult{
			NextQuestions:     append([]model.Question{}, remaining...),
			UsedAdaptiveLogic: false,
			Source:            model.SourceBypass,
		}, nil
	}

	key = Fingerprint(req.CurrentQuestionIndex, req.CurrentAnswers)
	if cached := e.lookup(ctx, key); cached != nil {
		return &model.SelectionResult{
			NextQuestions:     cached.SelectedQuestions,
			UsedAdaptiveLogic: true,
			Source:            model.SourceCache,
		}, nil
	}

	messages := buildMessages(req.CurrentAnswers, history, remaining, e.opts.MaxQuestions, e.opts.HistoryLimit)
	text, err := e.complete(ctx, messages)
	if err != nil {
		return e.fallback(ctx, key, remaining, err), err
	}

	chosen, err := e.pick(text, remaining)
	if err != nil {
		return e.fallback(ctx, key, remaining, err), err
	}

	e.store(ctx, key, chosen)
	return &model.SelectionResult{
		NextQuestions:     chosen,
		UsedAdaptiveLogic: true,
		Source:            model.SourceCompletion,
	}, nil
}

func remainingAfter(catalog []model.Question, index int) []model.Question {
	from := index + 1
	if from < 0 {
		from = 0
	}
	if from >= len(catalog) {
		return []model.Question{}
	}
	return catalog[from:]
}

func (e *Engine) lookup(ctx context.Context, key string) *model.CacheEntry {
	if e.cache == nil {
		return nil
	}
	entry, err := bounded(ctx, e.opts.CacheTimeout, func(cctx context.Context) (*model.CacheEntry, error) {
		return e.cache.Get(cctx, key)
	})
	if err != nil {
		e.log.Warn("cache_read", "selection cache read failed", zap.Error(err))
		return nil
	}
	if entry != nil {
		e.log.Debug("cache_hit", "selection cache hit", zap.String("key", key))
	}
	return entry
}

func (e *Engine) store(ctx context.Context, key string, questions []model.Question) {
	if e.cache == nil || key == "" {
		return
	}
	_, err := bounded(ctx, e.opts.CacheTimeout, func(cctx context.Context) (struct{}, error) {
		return struct{}{}, e.cache.Set(cctx, key, questions)
	})
	if err != nil {
		e.log.Warn("cache_write", "selection cache write failed", zap.Error(err))
	}
}

// bounded runs op in its own goroutine and stops waiting after timeout or
// when ctx ends, whichever is first. A store that ignores its context keeps
// running in the background but no longer holds up the caller.
func bounded[T any](ctx context.Context, timeout time.Duration, op func(context.Context) (T, error)) (T, error) {
	cctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	type reply struct {
		val T
		err error
	}
	done := make(chan reply, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- reply{err: fmt.Errorf("cache panicked: %v", r)}
			}
		}()
		v, err := op(cctx)
		done <- reply{val: v, err: err}
	}()

	select {
	case r := <-done:
		return r.val, r.err
	case <-cctx.Done():
		var zero T
		return zero, cctx.Err()
	}
}

// complete calls the completion service under the shorter sub-deadline. The
// call runs in its own goroutine so a client that ignores its context cannot
// hold the engine past the deadline.
func (e *Engine) complete(ctx context.Context, messages []completion.Message) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", fmt.Errorf("%w: %v", ErrDeadline, err)
	}
	cctx, cancel := context.WithTimeout(ctx, e.opts.CompletionTimeout)
	defer cancel()

	type reply struct {
		text string
		err  error
	}
	done := make(chan reply, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- reply{err: fmt.Errorf("completion client panicked: %v", r)}
			}
		}()
		text, err := e.client.Complete(cctx, messages, completion.Options{
			Temperature: e.opts.Temperature,
			MaxTokens:   e.opts.MaxTokens,
		})
		done <- reply{text: text, err: err}
	}()

	var r reply
	select {
	case r = <-done:
	case <-cctx.Done():
		r = reply{err: cctx.Err()}
	}

	if r.err != nil {
		if ctx.Err() != nil {
			return "", fmt.Errorf("%w: %v", ErrDeadline, r.err)
		}
		if errors.Is(cctx.Err(), context.DeadlineExceeded) {
			return "", fmt.Errorf("%w: %v", ErrUpstreamTimeout, r.err)
		}
		return "", classify(r.err)
	}
	for _, marker := range failureMarkers {
		if strings.Contains(r.text, marker) {
			return "", fmt.Errorf("%w: %q", ErrUpstreamErrorMarker, marker)
		}
	}
	if strings.TrimSpace(r.text) == "" {
		return "", ErrEmptyResponse
	}
	return r.text, nil
}

// pick turns the model's answer into a batch: at most MaxQuestions indices,
// range-checked, deduplicated by text, then topped up in catalog order.
func (e *Engine) pick(text string, remaining []model.Question) ([]model.Question, error) {
	indices := ParseIndices(text, len(remaining))
	if len(indices) == 0 {
		return nil, ErrUnparseable
	}
	if len(indices) > e.opts.MaxQuestions {
		indices = indices[:e.opts.MaxQuestions]
	}

	want := e.opts.MaxQuestions
	if want > len(remaining) {
		want = len(remaining)
	}
	p := newPicker(want)
	for _, idx := range indices {
		i := idx - 1
		if i < 0 || i >= len(remaining) {
			continue
		}
		p.add(remaining[i])
	}
	if len(p.out) == 0 {
		return nil, fmt.Errorf("%w: %v", ErrNoValidIndices, indices)
	}
	p.backfill(remaining)
	return p.out, nil
}

func (e *Engine) fallback(ctx context.Context, key string, remaining []model.Question, cause error) *model.SelectionResult {
	questions := SelectDiverse(remaining, e.opts.MaxQuestions)
	e.store(ctx, key, questions)
	e.log.Warn("fallback:"+reason(cause), "adaptive selection fell back to diversity selector",
		zap.String("reason", reason(cause)),
		zap.Error(cause))
	return &model.SelectionResult{
		NextQuestions:     questions,
		UsedAdaptiveLogic: false,
		DiagnosticError:   cause.Error(),
		Source:            model.SourceFallback,
	}
}
