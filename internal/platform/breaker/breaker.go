// Package breaker provides circuit breaking for calls to external
// collaborators (generation, push, chat). Breaker state is process-local;
// a fresh process starts closed.
package breaker

import (
	"sync"
	"time"

	"github.com/lumehq/lume-backend/internal/platform/apperr"
)

type State int

const (
	// StateClosed is the normal operating state, calls pass through.
	StateClosed State = iota
	// StateOpen means the breaker has tripped, calls fail fast.
	StateOpen
	// StateHalfOpen is the probing state after the reset timeout.
	StateHalfOpen
)

func (s State) String() string {
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

type Config struct {
	// FailureThreshold is the failure count that trips the breaker.
	FailureThreshold int
	// ResetTimeout is how long after the last failure an open breaker
	// stays fail-fast before allowing a trial call.
	ResetTimeout time.Duration
	// SuccessThreshold is the consecutive successes needed in half-open
	// state to close the breaker again.
	SuccessThreshold int
}

func DefaultConfig() Config {
	return Config{
		FailureThreshold: 5,
		ResetTimeout:     30 * time.Second,
		SuccessThreshold: 2,
	}
}

type Breaker struct {
	name string
	cfg  Config
	now  func() time.Time

	mu              sync.Mutex
	state           State
	failures        int
	consecutiveSucc int
	lastFailure     time.Time
	// probing marks a half-open trial already in flight; concurrent
	// callers fail fast until it reports back.
	probing bool
}

func New(name string, cfg Config) *Breaker {
	if cfg.FailureThreshold <= 0 {
		cfg.FailureThreshold = 5
	}
	if cfg.ResetTimeout <= 0 {
		cfg.ResetTimeout = 30 * time.Second
	}
	if cfg.SuccessThreshold <= 0 {
		cfg.SuccessThreshold = 2
	}
	return &Breaker{
		name:  name,
		cfg:   cfg,
		now:   time.Now,
		state: StateClosed,
	}
}

// Execute runs fn if the breaker allows it. While open and inside the
// reset timeout it returns apperr.ErrCircuitOpen without invoking fn;
// once the timeout has elapsed the breaker moves to half-open and the
// call proceeds as a trial.
func (b *Breaker) Execute(fn func() error) error {
	if !b.allow() {
		return apperr.ErrCircuitOpen
	}
	err := fn()
	if err != nil {
		b.recordFailure()
		return err
	}
	b.recordSuccess()
	return nil
}

func (b *Breaker) Name() string { return b.name }

func (b *Breaker) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

// SetClock overrides the breaker's time source. Tests only.
func (b *Breaker) SetClock(now func() time.Time) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.now = now
}

func (b *Breaker) allow() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	switch b.state {
	case StateClosed:
		return true
	case StateHalfOpen:
		if b.probing {
			return false
		}
		b.probing = true
		return true
	case StateOpen:
		if b.now().Sub(b.lastFailure) >= b.cfg.ResetTimeout {
			b.state = StateHalfOpen
			b.consecutiveSucc = 0
			b.probing = true
			return true
		}
		return false
	default:
		return false
	}
}

func (b *Breaker) recordSuccess() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.probing = false
	switch b.state {
	case StateClosed:
		b.failures = 0
	case StateHalfOpen:
		b.consecutiveSucc++
		if b.consecutiveSucc >= b.cfg.SuccessThreshold {
			b.state = StateClosed
			b.failures = 0
			b.consecutiveSucc = 0
		}
	}
}

func (b *Breaker) recordFailure() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.probing = false
	b.failures++
	b.consecutiveSucc = 0
	b.lastFailure = b.now()
	if b.failures >= b.cfg.FailureThreshold {
		b.state = StateOpen
	}
}

// Do runs fn through the breaker and returns its value.
func Do[T any](b *Breaker, fn func() (T, error)) (T, error) {
	var out T
	err := b.Execute(func() error {
		v, err := fn()
		if err != nil {
			return err
		}
		out = v
		return nil
	})
	if err != nil {
		var zero T
		return zero, err
	}
	return out, nil
}

// DoWithFallback runs fn through the breaker and returns fallback on
// an open circuit or an underlying failure. It never returns an error.
func DoWithFallback[T any](b *Breaker, fn func() (T, error), fallback T) T {
	v, err := Do(b, fn)
	if err != nil {
		return fallback
	}
	return v
}
