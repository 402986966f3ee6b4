// Package breaker provides a generic circuit breaker that isolates a single
// fallible operation. One Breaker instance guards one protected operation
// for the lifetime of the process.
package breaker

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"
)

// State captures the breaker states.
type State int

const (
	// StateClosed indicates normal operation; calls pass through.
	StateClosed State = iota
	// StateOpen indicates the breaker is rejecting calls.
	StateOpen
	// StateHalfOpen indicates a single trial call is in flight.
	StateHalfOpen
)

func (s State) String() string {
	switch s {
	case StateClosed:
		return "closed"
	case StateOpen:
		return "open"
	case StateHalfOpen:
		return "half_open"
	default:
		return "unknown"
	}
}

// ErrCircuitOpen is returned by Execute when the breaker rejects a call
// without invoking the wrapped operation.
var ErrCircuitOpen = errors.New("circuit breaker is open")

const (
	// DefaultFailureThreshold is the consecutive-failure count that trips
	// the breaker.
	DefaultFailureThreshold = 5
	// DefaultResetTimeout is how long the breaker stays open before
	// allowing a trial call.
	DefaultResetTimeout = 30 * time.Second
)

// Breaker guards an operation returning T. It is safe for concurrent use;
// all state transitions happen under a single mutex.
type Breaker[T any] struct {
	name         string
	threshold    int
	resetTimeout time.Duration
	logger       *slog.Logger

	mu            sync.Mutex
	state         State
	failures      int
	openedAt      time.Time
	probeInFlight bool

	now func() time.Time
}

// Option configures a Breaker.
type Option[T any] func(*Breaker[T])

// WithLogger sets the logger used for state transition logs.
func WithLogger[T any](logger *slog.Logger) Option[T] {
	return func(b *Breaker[T]) {
		b.logger = logger
	}
}

// New creates a breaker named for the operation it protects. A threshold or
// resetTimeout of zero selects the default.
func New[T any](name string, threshold int, resetTimeout time.Duration, opts ...Option[T]) *Breaker[T] {
	b := &Breaker[T]{
		name:         name,
		threshold:    threshold,
		resetTimeout: resetTimeout,
		logger:       slog.Default(),
		state:        StateClosed,
		now:          time.Now,
	}
	if b.threshold <= 0 {
		b.threshold = DefaultFailureThreshold
	}
	if b.resetTimeout <= 0 {
		b.resetTimeout = DefaultResetTimeout
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Execute runs op through the breaker. When the breaker is open and the
// reset timeout has not elapsed, it returns ErrCircuitOpen without invoking
// op. Any error from op counts as a failure; the breaker is agnostic to the
// error kind.
func (b *Breaker[T]) Execute(ctx context.Context, op func(context.Context) (T, error)) (T, error) {
	probe, err := b.acquire()
	if err != nil {
		var zero T
		return zero, err
	}

	result, err := op(ctx)
	if err != nil {
		b.recordFailure(probe)
		return result, err
	}

	b.recordSuccess()
	return result, nil
}

// State returns the current breaker state.
func (b *Breaker[T]) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

// Failures returns the current consecutive-failure count.
func (b *Breaker[T]) Failures() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.failures
}

// acquire decides whether a call may proceed. The bool result reports
// whether the call is the half-open trial.
func (b *Breaker[T]) acquire() (bool, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.state {
	case StateClosed:
		return false, nil

	case StateOpen:
		if b.now().Before(b.openedAt.Add(b.resetTimeout)) {
			return false, ErrCircuitOpen
		}
		// Reset timeout elapsed: let exactly one trial through.
		b.state = StateHalfOpen
		b.probeInFlight = true
		b.logger.Info("circuit breaker half-open, allowing trial call",
			slog.String("breaker", b.name))
		return true, nil

	case StateHalfOpen:
		if b.probeInFlight {
			return false, ErrCircuitOpen
		}
		b.probeInFlight = true
		return true, nil

	default:
		b.state = StateClosed
		return false, nil
	}
}

func (b *Breaker[T]) recordSuccess() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.state == StateHalfOpen {
		b.logger.Info("circuit breaker closed after successful trial",
			slog.String("breaker", b.name))
	}
	b.state = StateClosed
	b.failures = 0
	b.probeInFlight = false
}

func (b *Breaker[T]) recordFailure(probe bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.probeInFlight = false
	b.failures++

	if probe || b.state == StateHalfOpen || b.failures >= b.threshold {
		b.state = StateOpen
		b.openedAt = b.now()
		b.failures = 0
		b.logger.Warn("circuit breaker opened",
			slog.String("breaker", b.name),
			slog.Duration("reset_timeout", b.resetTimeout))
	}
}
