package logging

import (
	"sync"
	"time"

	"go.uber.org/zap"
)

// RateLimited emits at most one entry per key per interval. Entries dropped in
// between are counted and reported on the next emitted entry for that key.
type RateLimited struct {
	logger   *zap.Logger
	interval time.Duration
	now      func() time.Time

	mu         sync.Mutex
	last       map[string]time.Time
	suppressed map[string]int
}

// NewRateLimited wraps logger. A non-positive interval disables throttling.
func NewRateLimited(logger *zap.Logger, interval time.Duration) *RateLimited {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RateLimited{
		logger:     logger,
		interval:   interval,
		now:        time.Now,
		last:       make(map[string]time.Time),
		suppressed: make(map[string]int),
	}
}

// Allow reports whether an entry for key may be written now and how many
// entries were suppressed since the last one.
func (r *RateLimited) Allow(key string) (bool, int) {
	if r.interval <= 0 {
		return true, 0
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	if last, ok := r.last[key]; ok && now.Sub(last) < r.interval {
		r.suppressed[key]++
		return false, 0
	}
	r.last[key] = now
	n := r.suppressed[key]
	delete(r.suppressed, key)
	return true, n
}

func (r *RateLimited) Debug(key, msg string, fields ...zap.Field) {
	r.log(r.logger.Debug, key, msg, fields)
}

func (r *RateLimited) Info(key, msg string, fields ...zap.Field) {
	r.log(r.logger.Info, key, msg, fields)
}

func (r *RateLimited) Warn(key, msg string, fields ...zap.Field) {
	r.log(r.logger.Warn, key, msg, fields)
}

func (r *RateLimited) log(write func(string, ...zap.Field), key, msg string, fields []zap.Field) {
	ok, dropped := r.Allow(key)
	if !ok {
		return
	}
	if dropped > 0 {
		fields = append(fields, zap.Int("suppressed", dropped))
	}
	write(msg, fields...)
}
