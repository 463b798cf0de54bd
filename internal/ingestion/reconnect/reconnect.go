package reconnect

import (
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/viefmoon/rawstream/internal/config"
)

// Strategy defines the reconnection backoff policy. Strategies only compute
// delays; the session's connection state machine owns the actual waiting,
// so backoff behavior is testable without wall-clock sleeps.
type Strategy interface {
	// NextDelay returns the next delay duration and whether to keep retrying.
	NextDelay() (time.Duration, bool)
	// Reset resets the strategy to initial state after a successful connect.
	Reset()
}

// FromConfig builds a strategy from the stream backoff configuration.
func FromConfig(cfg *config.BackoffConfig) (Strategy, error) {
	switch cfg.Strategy {
	case "linear":
		return NewLinearBackoff(cfg.InitialDelay, cfg.MaxRetries), nil
	case "exponential":
		return NewExponentialBackoff(cfg.InitialDelay, cfg.MaxDelay, cfg.Multiplier, cfg.MaxRetries), nil
	default:
		return nil, fmt.Errorf("unknown backoff strategy %q", cfg.Strategy)
	}
}

// ExponentialBackoff implements exponential backoff with jitter.
type ExponentialBackoff struct {
	InitialDelay time.Duration
	MaxDelay     time.Duration
	Multiplier   float64
	MaxRetries   int // 0 retries forever

	currentDelay time.Duration
	retryCount   int
	mu           sync.Mutex
}

// NewExponentialBackoff creates a new exponential backoff strategy.
func NewExponentialBackoff(initialDelay, maxDelay time.Duration, multiplier float64, maxRetries int) *ExponentialBackoff {
	return &ExponentialBackoff{
		InitialDelay: initialDelay,
		MaxDelay:     maxDelay,
		Multiplier:   multiplier,
		MaxRetries:   maxRetries,
		currentDelay: initialDelay,
	}
}

// NextDelay returns the next delay with exponential backoff and ±20% jitter.
func (e *ExponentialBackoff) NextDelay() (time.Duration, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.MaxRetries > 0 && e.retryCount >= e.MaxRetries {
		return 0, false
	}

	jitter := 0.8 + (0.4 * rand.Float64())
	delay := time.Duration(float64(e.currentDelay) * jitter)

	e.currentDelay = time.Duration(float64(e.currentDelay) * e.Multiplier)
	if e.currentDelay > e.MaxDelay {
		e.currentDelay = e.MaxDelay
	}
	e.retryCount++

	return delay, true
}

// Reset resets the backoff strategy.
func (e *ExponentialBackoff) Reset() {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.currentDelay = e.InitialDelay
	e.retryCount = 0
}

// LinearBackoff implements a fixed-delay retry policy. This is the sensor
// default: the camera usually comes back within a connection attempt or
// two, and a growing delay would only add dead air to the viewfinder.
type LinearBackoff struct {
	Delay      time.Duration
	MaxRetries int // 0 retries forever

	retryCount int
	mu         sync.Mutex
}

// NewLinearBackoff creates a new linear backoff strategy.
func NewLinearBackoff(delay time.Duration, maxRetries int) *LinearBackoff {
	return &LinearBackoff{
		Delay:      delay,
		MaxRetries: maxRetries,
	}
}

// NextDelay returns the fixed delay.
func (l *LinearBackoff) NextDelay() (time.Duration, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.MaxRetries > 0 && l.retryCount >= l.MaxRetries {
		return 0, false
	}

	l.retryCount++
	return l.Delay, true
}

// Reset resets the backoff strategy.
func (l *LinearBackoff) Reset() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.retryCount = 0
}
