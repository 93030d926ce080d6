// Package client drives a respondent through the questionnaire and decides
// when to ask the selection engine for personalized questions.
package client

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"adaptivequiz/internal/model"
	"adaptivequiz/internal/scoring"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// State of a test-taking session
type State string

const (
	StateAnsweringStandard State = "answering_standard"
	StateAwaitingAdaptive  State = "awaiting_adaptive"
	StateAnsweringAdaptive State = "answering_adaptive"
	StateCompleted         State = "completed"
)

var (
	ErrNotReady         = errors.New("no question is ready to answer")
	ErrCompleted        = errors.New("test already completed")
	ErrClosed           = errors.New("session closed")
	ErrInvalidOption    = errors.New("value is not an option of the current question")
	ErrSkipNotAvailable = errors.New("personalization can only be skipped while it is loading")
)

// Selector asks the engine for the next questions
type Selector interface {
	NextQuestions(ctx context.Context, req model.SelectionRequest) (*model.NextQuestionsResponse, error)
}

// Submitter receives the finished test
type Submitter interface {
	Submit(ctx context.Context, result *model.TestResult) error
}

// Timings of the checkpoint race
type Timings struct {
	// AbortAfter cancels the selection request
	AbortAfter time.Duration
	// AutoAdvanceAfter gives up waiting and continues with standard questions
	AutoAdvanceAfter time.Duration
	// ConfirmDelay shows the adaptive indicator before the first injected
	// question; negative means none
	ConfirmDelay time.Duration
}

func DefaultTimings() Timings {
	return Timings{
		AbortAfter:       10 * time.Second,
		AutoAdvanceAfter: 8 * time.Second,
		ConfirmDelay:     1500 * time.Millisecond,
	}
}

// Config of an Orchestrator
type Config struct {
	Timings Timings
	// CheckpointAfter is the number of answers after which selection runs once
	CheckpointAfter int
	SubmitTimeout   time.Duration
	RespondentID    string
	Logger          *zap.Logger
	// OnChange is called with a fresh snapshot after every transition, never
	// while the orchestrator holds its lock
	OnChange func(Snapshot)
}

// Notice is a dismissible, non-blocking message for the respondent
type Notice struct {
	ID      int
	Message string
	At      time.Time
}

// Snapshot is a read-only view of the session
type Snapshot struct {
	State        State
	Current      *model.Question
	Answered     int
	Total        int
	AdaptiveMode bool
	Notices      []Notice
	Result       *model.TestResult
}

// Orchestrator is the per-session state machine
type Orchestrator struct {
	selector  Selector
	submitter Submitter
	cfg       Config
	logger    *zap.Logger

	mu           sync.Mutex
	sequence     []model.Question
	answers      []model.AnsweredQuestion
	state        State
	ready        bool
	adaptiveMode bool
	requested    bool
	token        context.Context
	cancel       context.CancelFunc
	abortTimer   *time.Timer
	advanceTimer *time.Timer
	confirmTimer *time.Timer
	notices      []Notice
	nextNotice   int
	result       *model.TestResult
	closed       bool

	inflight sync.WaitGroup
}

// New starts a session over catalog in AnsweringStandard. An empty catalog
// starts Completed and is never submitted.
func New(catalog []model.Question, selector Selector, submitter Submitter, cfg Config) *Orchestrator {
	def := DefaultTimings()
	if cfg.Timings.AbortAfter <= 0 {
		cfg.Timings.AbortAfter = def.AbortAfter
	}
	if cfg.Timings.AutoAdvanceAfter <= 0 {
		cfg.Timings.AutoAdvanceAfter = def.AutoAdvanceAfter
	}
	switch {
	case cfg.Timings.ConfirmDelay == 0:
		cfg.Timings.ConfirmDelay = def.ConfirmDelay
	case cfg.Timings.ConfirmDelay < 0:
		cfg.Timings.ConfirmDelay = 0
	}
	if cfg.CheckpointAfter <= 0 {
		cfg.CheckpointAfter = 6
	}
	if cfg.SubmitTimeout <= 0 {
		cfg.SubmitTimeout = 15 * time.Second
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	o := &Orchestrator{
		selector:  selector,
		submitter: submitter,
		cfg:       cfg,
		logger:    logger,
		sequence:  append([]model.Question(nil), catalog...),
		state:     StateAnsweringStandard,
		ready:     true,
	}
	// nothing to answer is a finished test, not an error
	if len(catalog) == 0 {
		o.completeLocked()
	}
	return o
}

// Snapshot returns the current view
func (o *Orchestrator) Snapshot() Snapshot {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.snapshotLocked()
}

func (o *Orchestrator) snapshotLocked() Snapshot {
	s := Snapshot{
		State:        o.state,
		Answered:     len(o.answers),
		Total:        len(o.sequence),
		AdaptiveMode: o.adaptiveMode,
		Notices:      append([]Notice(nil), o.notices...),
		Result:       o.result,
	}
	if o.state != StateCompleted && o.state != StateAwaitingAdaptive && o.ready && len(o.answers) < len(o.sequence) {
		q := o.sequence[len(o.answers)]
		s.Current = &q
	}
	return s
}

// Answer commits value for the current question and advances. Completing the
// test hands the result to the Submitter; a submission error is returned but
// the session stays completed.
func (o *Orchestrator) Answer(ctx context.Context, value int) error {
	o.mu.Lock()
	switch {
	case o.closed:
		o.mu.Unlock()
		return ErrClosed
	case o.state == StateCompleted:
		o.mu.Unlock()
		return ErrCompleted
	case o.state == StateAwaitingAdaptive || !o.ready || len(o.answers) >= len(o.sequence):
		o.mu.Unlock()
		return ErrNotReady
	}

	q := o.sequence[len(o.answers)]
	if len(q.Options) > 0 {
		if _, ok := q.OptionText(value); !ok {
			o.mu.Unlock()
			return fmt.Errorf("%w: %d", ErrInvalidOption, value)
		}
	}
	o.answers = append(o.answers, model.NewAnswer(q, value, time.Now()))

	var result *model.TestResult
	switch {
	case len(o.answers) == len(o.sequence):
		result = o.completeLocked()
	case !o.requested && len(o.answers) == o.cfg.CheckpointAfter:
		o.startSelectionLocked()
	}
	snap := o.snapshotLocked()
	o.mu.Unlock()
	o.notify(snap)

	if result != nil {
		return o.submit(ctx, result)
	}
	return nil
}

// SkipPersonalization abandons the pending selection and continues with the
// standard order. Only valid while the selection is loading.
func (o *Orchestrator) SkipPersonalization() error {
	o.mu.Lock()
	if o.state != StateAwaitingAdaptive {
		o.mu.Unlock()
		return ErrSkipNotAvailable
	}
	o.leaveCheckpointLocked("Personalization skipped; continuing with standard questions.")
	snap := o.snapshotLocked()
	o.mu.Unlock()
	o.notify(snap)
	return nil
}

// DismissNotice removes a notice by id
func (o *Orchestrator) DismissNotice(id int) {
	o.mu.Lock()
	for i, n := range o.notices {
		if n.ID == id {
			o.notices = append(o.notices[:i], o.notices[i+1:]...)
			break
		}
	}
	snap := o.snapshotLocked()
	o.mu.Unlock()
	o.notify(snap)
}

// Close stops timers, cancels any pending request and waits for it to return
func (o *Orchestrator) Close() {
	o.mu.Lock()
	o.closed = true
	o.stopTimersLocked()
	if o.confirmTimer != nil {
		o.confirmTimer.Stop()
	}
	if o.cancel != nil {
		o.cancel()
	}
	o.mu.Unlock()
	o.inflight.Wait()
}

// startSelectionLocked enters AwaitingAdaptive and issues the one request of
// this checkpoint. The request context is the cancellation token: every
// transition away from the checkpoint cancels it, and callbacks holding a
// cancelled token do nothing.
func (o *Orchestrator) startSelectionLocked() {
	o.requested = true
	o.state = StateAwaitingAdaptive
	o.ready = false

	token, cancel := context.WithCancel(context.Background())
	o.token, o.cancel = token, cancel

	req := model.SelectionRequest{
		CurrentAnswers:       append([]model.AnsweredQuestion(nil), o.answers...),
		CurrentQuestionIndex: len(o.answers) - 1,
	}

	o.abortTimer = time.AfterFunc(o.cfg.Timings.AbortAfter, func() {
		o.onTimer(token, "Personalization request was aborted; continuing with standard questions.")
	})
	o.advanceTimer = time.AfterFunc(o.cfg.Timings.AutoAdvanceAfter, func() {
		o.onTimer(token, "Personalization is taking longer than expected; continuing with standard questions.")
	})

	o.inflight.Add(1)
	go func() {
		defer o.inflight.Done()
		resp, err := o.selector.NextQuestions(token, req)
		o.onResponse(token, resp, err)
	}()

	o.logger.Debug("requested adaptive selection", zap.Int("index", req.CurrentQuestionIndex))
}

func (o *Orchestrator) onTimer(token context.Context, message string) {
	o.mu.Lock()
	if token.Err() != nil {
		o.mu.Unlock()
		return
	}
	o.leaveCheckpointLocked(message)
	snap := o.snapshotLocked()
	o.mu.Unlock()
	o.notify(snap)
}

func (o *Orchestrator) onResponse(token context.Context, resp *model.NextQuestionsResponse, err error) {
	o.mu.Lock()
	if token.Err() != nil {
		o.mu.Unlock()
		o.logger.Debug("discarded late selection response")
		return
	}

	switch {
	case err != nil:
		o.logger.Warn("adaptive selection request failed", zap.Error(err))
		o.leaveCheckpointLocked("Personalization unavailable; continuing with standard questions.")
	case resp == nil || !resp.Success || len(resp.NextQuestions) == 0:
		msg := "Personalization unavailable; continuing with standard questions."
		if resp != nil && resp.Error != "" {
			msg = fmt.Sprintf("Personalization unavailable (%s); continuing with standard questions.", resp.Error)
		}
		o.leaveCheckpointLocked(msg)
	default:
		o.applyLocked(resp)
	}

	snap := o.snapshotLocked()
	o.mu.Unlock()
	o.notify(snap)
}

// applyLocked splices the returned questions right after the checkpoint
func (o *Orchestrator) applyLocked(resp *model.NextQuestionsResponse) {
	o.stopTimersLocked()
	o.cancel()

	o.sequence = splice(o.sequence, len(o.answers), resp.NextQuestions)

	if !resp.IsAdaptive {
		o.state = StateAnsweringStandard
		o.ready = true
		if resp.Error != "" {
			o.addNoticeLocked(fmt.Sprintf("Personalized selection unavailable (%s); using a balanced selection instead.", resp.Error))
		}
		return
	}

	o.state = StateAnsweringAdaptive
	o.adaptiveMode = true
	o.ready = false
	o.confirmTimer = time.AfterFunc(o.cfg.Timings.ConfirmDelay, o.confirm)
}

func (o *Orchestrator) confirm() {
	o.mu.Lock()
	if o.closed || o.state != StateAnsweringAdaptive || o.ready {
		o.mu.Unlock()
		return
	}
	o.ready = true
	snap := o.snapshotLocked()
	o.mu.Unlock()
	o.notify(snap)
}

// leaveCheckpointLocked abandons the selection and continues in catalog order
func (o *Orchestrator) leaveCheckpointLocked(message string) {
	o.stopTimersLocked()
	if o.cancel != nil {
		o.cancel()
	}
	o.state = StateAnsweringStandard
	o.ready = true
	o.addNoticeLocked(message)
}

func (o *Orchestrator) stopTimersLocked() {
	if o.abortTimer != nil {
		o.abortTimer.Stop()
	}
	if o.advanceTimer != nil {
		o.advanceTimer.Stop()
	}
}

func (o *Orchestrator) addNoticeLocked(message string) {
	o.nextNotice++
	o.notices = append(o.notices, Notice{ID: o.nextNotice, Message: message, At: time.Now()})
}

func (o *Orchestrator) completeLocked() *model.TestResult {
	o.state = StateCompleted
	o.stopTimersLocked()
	if o.cancel != nil {
		o.cancel()
	}
	o.result = &model.TestResult{
		ID:           uuid.New().String(),
		RespondentID: o.cfg.RespondentID,
		Answers:      append([]model.AnsweredQuestion(nil), o.answers...),
		TraitScores:  scoring.Aggregate(o.answers, o.sequence),
		UsedAdaptive: o.adaptiveMode,
		CompletedAt:  time.Now().UTC(),
	}
	return o.result
}

func (o *Orchestrator) submit(ctx context.Context, result *model.TestResult) error {
	if o.submitter == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, o.cfg.SubmitTimeout)
	defer cancel()

	if err := o.submitter.Submit(ctx, result); err != nil {
		o.logger.Warn("failed to submit result", zap.Error(err))
		o.mu.Lock()
		o.addNoticeLocked("Your answers could not be saved.")
		snap := o.snapshotLocked()
		o.mu.Unlock()
		o.notify(snap)
		return fmt.Errorf("submit result: %w", err)
	}
	return nil
}

func (o *Orchestrator) notify(s Snapshot) {
	if o.cfg.OnChange != nil {
		o.cfg.OnChange(s)
	}
}

// splice places injected right after the first `at` entries of seq and drops
// their later duplicates, so every question appears once
func splice(seq []model.Question, at int, injected []model.Question) []model.Question {
	seen := make(map[string]struct{}, len(seq))
	for _, q := range seq[:at] {
		seen[q.ID] = struct{}{}
	}

	out := make([]model.Question, 0, len(seq)+len(injected))
	out = append(out, seq[:at]...)
	for _, q := range injected {
		if _, dup := seen[q.ID]; dup {
			continue
		}
		seen[q.ID] = struct{}{}
		out = append(out, q)
	}
	for _, q := range seq[at:] {
		if _, dup := seen[q.ID]; dup {
			continue
		}
		seen[q.ID] = struct{}{}
		out = append(out, q)
	}
	return out
}
