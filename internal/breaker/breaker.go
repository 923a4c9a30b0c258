// Package breaker provides a generic circuit breaker guarding calls to
// unreliable external dependencies. One breaker guards exactly one logical
// dependency and must be reused across calls so failure state accumulates.
package breaker

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// State identifies the breaker's position in its state machine.
type State string

const (
	StateClosed   State = "CLOSED"
	StateOpen     State = "OPEN"
	StateHalfOpen State = "HALF_OPEN"
)

// DefaultSuccessThreshold is applied when Config.SuccessThreshold is unset.
const DefaultSuccessThreshold = 3

// Config holds the breaker thresholds. FailureThreshold and RecoveryTimeout
// are required; SuccessThreshold defaults to DefaultSuccessThreshold.
// MonitoringPeriod is informational and surfaced through Metrics only.
type Config struct {
	FailureThreshold int
	RecoveryTimeout  time.Duration
	MonitoringPeriod time.Duration
	SuccessThreshold int
}

// CircuitOpenError is the synthetic failure returned when the breaker
// rejects a call without invoking the wrapped operation. Callers can branch
// on it to fall back to an alternate channel.
type CircuitOpenError struct {
	Name string
}

func (e *CircuitOpenError) Error() string {
	return fmt.Sprintf("circuit breaker %q is open", e.Name)
}

// Metrics is a read-only snapshot of the breaker's state for observability.
type Metrics struct {
	State           State     `json:"state"`
	FailureCount    int       `json:"failure_count"`
	SuccessCount    int       `json:"success_count"`
	LastFailureTime time.Time `json:"last_failure_time"`
}

// Breaker is a mutex-guarded circuit breaker. The lock is held across the
// whole check-invoke-update sequence so concurrent callers cannot
// double-count failures or slip through a HALF_OPEN trial beyond the
// success threshold.
type Breaker struct {
	name string
	cfg  Config

	mu              sync.Mutex
	state           State
	failureCount    int
	successCount    int
	lastFailureTime time.Time

	now func() time.Time
}

// New creates a breaker for one named external dependency.
func New(name string, cfg Config) (*Breaker, error) {
	if cfg.FailureThreshold < 1 {
		return nil, fmt.Errorf("failure threshold must be at least 1")
	}
	if cfg.RecoveryTimeout <= 0 {
		return nil, fmt.Errorf("recovery timeout must be positive")
	}
	if cfg.SuccessThreshold == 0 {
		cfg.SuccessThreshold = DefaultSuccessThreshold
	}
	if cfg.SuccessThreshold < 1 {
		return nil, fmt.Errorf("success threshold must be at least 1")
	}
	return &Breaker{
		name:  name,
		cfg:   cfg,
		state: StateClosed,
		now:   time.Now,
	}, nil
}

// Execute runs op under the breaker. While OPEN it fails immediately with a
// *CircuitOpenError until the recovery timeout elapses; the next call then
// transitions to HALF_OPEN before invoking op. The breaker knows nothing
// about what op does; timeouts belong to op's own context.
func (b *Breaker) Execute(ctx context.Context, op func(ctx context.Context) error) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.state == StateOpen {
		if b.now().Sub(b.lastFailureTime) < b.cfg.RecoveryTimeout {
			return &CircuitOpenError{Name: b.name}
		}
		b.state = StateHalfOpen
		b.successCount = 0
	}

	err := op(ctx)
	if err != nil {
		b.onFailure()
		return err
	}
	b.onSuccess()
	return nil
}

// onFailure is called with the lock held.
func (b *Breaker) onFailure() {
	b.lastFailureTime = b.now()
	if b.state == StateHalfOpen {
		// A single failure during trial recovery re-opens the breaker.
		b.state = StateOpen
		b.failureCount = 0
		b.successCount = 0
		return
	}
	b.failureCount++
	if b.failureCount >= b.cfg.FailureThreshold {
		b.state = StateOpen
	}
}

// onSuccess is called with the lock held.
func (b *Breaker) onSuccess() {
	if b.state == StateHalfOpen {
		b.successCount++
		if b.successCount >= b.cfg.SuccessThreshold {
			b.state = StateClosed
			b.failureCount = 0
			b.successCount = 0
		}
		return
	}
	b.failureCount = 0
}

// Reset forces the breaker CLOSED with all counters zeroed, regardless of
// current state.
func (b *Breaker) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.state = StateClosed
	b.failureCount = 0
	b.successCount = 0
	b.lastFailureTime = time.Time{}
}

// Name returns the guarded dependency's name.
func (b *Breaker) Name() string { return b.name }

// Metrics returns a snapshot of the breaker's state.
func (b *Breaker) Metrics() Metrics {
	b.mu.Lock()
	defer b.mu.Unlock()
	return Metrics{
		State:           b.state,
		FailureCount:    b.failureCount,
		SuccessCount:    b.successCount,
		LastFailureTime: b.lastFailureTime,
	}
}
