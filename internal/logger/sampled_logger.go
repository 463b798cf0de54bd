package logger

import (
	"sync"
	"sync/atomic"
	"time"
)

// SampledLogger rate-limits log output per category. The frame path can
// reject hundreds of undersized fragments per second during a stall; the
// first message of each interval is logged with a suppressed-count field,
// the rest are counted and dropped.
type SampledLogger struct {
	base     Logger
	mu       sync.RWMutex
	samplers map[string]*logSampler
}

type logSampler struct {
	minInterval time.Duration
	lastLog     int64 // unix nanos, atomic
	suppressed  int64 // atomic
}

// NewSampledLogger creates a sampled logger on top of base.
func NewSampledLogger(base Logger) *SampledLogger {
	return &SampledLogger{
		base:     base,
		samplers: make(map[string]*logSampler),
	}
}

// WithSampler registers a category that logs at most once per minInterval.
// Unregistered categories always log.
func (s *SampledLogger) WithSampler(category string, minInterval time.Duration) *SampledLogger {
	s.mu.Lock()
	s.samplers[category] = &logSampler{minInterval: minInterval}
	s.mu.Unlock()
	return s
}

// Entry returns a Logger for the category, or nil when the message should be
// dropped this interval. The returned logger carries a suppressed_count
// field with the number of messages dropped since the last emission.
func (s *SampledLogger) Entry(category string) Logger {
	s.mu.RLock()
	sampler, ok := s.samplers[category]
	s.mu.RUnlock()

	if !ok {
		return s.base.WithField("log_category", category)
	}

	now := time.Now().UnixNano()
	last := atomic.LoadInt64(&sampler.lastLog)
	if now-last < sampler.minInterval.Nanoseconds() {
		atomic.AddInt64(&sampler.suppressed, 1)
		return nil
	}
	if !atomic.CompareAndSwapInt64(&sampler.lastLog, last, now) {
		// Another goroutine won the interval.
		atomic.AddInt64(&sampler.suppressed, 1)
		return nil
	}

	suppressed := atomic.SwapInt64(&sampler.suppressed, 0)
	entry := s.base.WithField("log_category", category)
	if suppressed > 0 {
		entry = entry.WithField("suppressed_count", suppressed)
	}
	return entry
}

// Suppressed returns the number of messages dropped for a category since the
// last emission.
func (s *SampledLogger) Suppressed(category string) int64 {
	s.mu.RLock()
	sampler, ok := s.samplers[category]
	s.mu.RUnlock()
	if !ok {
		return 0
	}
	return atomic.LoadInt64(&sampler.suppressed)
}
