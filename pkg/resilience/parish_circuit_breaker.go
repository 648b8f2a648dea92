// Package resilience provides a lock-free circuit breaker used around
// outbound provider calls.
package resilience

import (
	"errors"
	"sync/atomic"
	"time"
)

type CircuitState int32

const (
	StateClosed CircuitState = iota
	StateOpen
	StateHalfOpen
)

func (s CircuitState) String() string {
	switch s {
	case StateClosed:
		return "closed"
	case StateOpen:
		return "open"
	case StateHalfOpen:
		return "half-open"
	default:
		return "unknown"
	}
}

var ErrCircuitOpen = errors.New("circuit breaker is open")

type CircuitBreakerConfig struct {
	Name string
	// FailureThreshold consecutive failures trip the breaker.
	FailureThreshold int64
	// SuccessThreshold consecutive half-open successes close it again.
	SuccessThreshold int64
	// Timeout is how long the breaker stays open before probing.
	Timeout time.Duration
	// MaxHalfOpenRequests limits concurrent probes while half-open.
	MaxHalfOpenRequests int64
	OnStateChange       func(name string, from, to CircuitState)
}

func DefaultConfig(name string) CircuitBreakerConfig {
	return CircuitBreakerConfig{
		Name:                name,
		FailureThreshold:    5,
		SuccessThreshold:    2,
		Timeout:             30 * time.Second,
		MaxHalfOpenRequests: 1,
	}
}

type CircuitBreaker struct {
	cfg CircuitBreakerConfig

	state            atomic.Int32
	failures         atomic.Int64
	successes        atomic.Int64
	halfOpenInFlight atomic.Int64
	openedAt         atomic.Int64
}

func NewCircuitBreaker(cfg CircuitBreakerConfig) *CircuitBreaker {
	if cfg.FailureThreshold <= 0 {
		cfg.FailureThreshold = 5
	}
	if cfg.SuccessThreshold <= 0 {
		cfg.SuccessThreshold = 2
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.MaxHalfOpenRequests <= 0 {
		cfg.MaxHalfOpenRequests = 1
	}
	return &CircuitBreaker{cfg: cfg}
}

func (cb *CircuitBreaker) State() CircuitState {
	return CircuitState(cb.state.Load())
}

// Execute runs fn under the breaker. When the breaker is open the call
// is rejected with ErrCircuitOpen without invoking fn.
func (cb *CircuitBreaker) Execute(fn func() error) error {
	state := cb.State()

	switch state {
	case StateOpen:
		opened := time.Unix(0, cb.openedAt.Load())
		if time.Since(opened) < cb.cfg.Timeout {
			return ErrCircuitOpen
		}
		cb.transition(StateOpen, StateHalfOpen)
		fallthrough
	case StateHalfOpen:
		if cb.halfOpenInFlight.Add(1) > cb.cfg.MaxHalfOpenRequests {
			cb.halfOpenInFlight.Add(-1)
			return ErrCircuitOpen
		}
		defer cb.halfOpenInFlight.Add(-1)
	}

	err := fn()
	if err != nil {
		cb.onFailure()
		return err
	}
	cb.onSuccess()
	return nil
}

func (cb *CircuitBreaker) onSuccess() {
	switch cb.State() {
	case StateHalfOpen:
		if cb.successes.Add(1) >= cb.cfg.SuccessThreshold {
			cb.transition(StateHalfOpen, StateClosed)
		}
	case StateClosed:
		cb.failures.Store(0)
	}
}

func (cb *CircuitBreaker) onFailure() {
	switch cb.State() {
	case StateHalfOpen:
		cb.transition(StateHalfOpen, StateOpen)
	case StateClosed:
		if cb.failures.Add(1) >= cb.cfg.FailureThreshold {
			cb.transition(StateClosed, StateOpen)
		}
	}
}

func (cb *CircuitBreaker) transition(from, to CircuitState) {
	if !cb.state.CompareAndSwap(int32(from), int32(to)) {
		return
	}
	switch to {
	case StateOpen:
		cb.openedAt.Store(time.Now().UnixNano())
	case StateClosed:
		cb.failures.Store(0)
		cb.successes.Store(0)
	case StateHalfOpen:
		cb.successes.Store(0)
	}
	if cb.cfg.OnStateChange != nil {
		cb.cfg.OnStateChange(cb.cfg.Name, from, to)
	}
}

type Stats struct {
	Name     string       `json:"name"`
	State    CircuitState `json:"state"`
	Failures int64        `json:"failures"`
}

func (cb *CircuitBreaker) Stats() Stats {
	return Stats{
		Name:     cb.cfg.Name,
		State:    cb.State(),
		Failures: cb.failures.Load(),
	}
}
