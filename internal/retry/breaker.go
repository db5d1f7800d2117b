package retry

import (
	"context"
	"errors"
	"sync"
	"time"
)

// ErrOpen возвращается, пока предохранитель разомкнут.
var ErrOpen = errors.New("circuit breaker is open")

type State int

const (
	StateClosed State = iota
	StateOpen
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

// Breaker размыкается после maxFailures подряд и пропускает пробный вызов через resetTimeout.
type Breaker struct {
	maxFailures  int
	resetTimeout time.Duration
	now          func() time.Time

	mu          sync.Mutex
	state       State
	failures    int
	lastFailure time.Time
}

func NewBreaker(maxFailures int, resetTimeout time.Duration) *Breaker {
	if maxFailures <= 0 {
		maxFailures = 5
	}
	if resetTimeout <= 0 {
		resetTimeout = 30 * time.Second
	}
	return &Breaker{
		maxFailures:  maxFailures,
		resetTimeout: resetTimeout,
		now:          time.Now,
	}
}

func (b *Breaker) Call(ctx context.Context, fn func(ctx context.Context) error) error {
	b.mu.Lock()
	if b.state == StateOpen {
		if b.now().Sub(b.lastFailure) <= b.resetTimeout {
			b.mu.Unlock()
			return ErrOpen
		}
		b.state = StateHalfOpen
	}
	b.mu.Unlock()

	err := fn(ctx)

	b.mu.Lock()
	defer b.mu.Unlock()

	if err != nil {
		b.failures++
		b.lastFailure = b.now()
		if b.state == StateHalfOpen || b.failures >= b.maxFailures {
			b.state = StateOpen
		}
		return err
	}

	b.state = StateClosed
	b.failures = 0
	return nil
}

func (b *Breaker) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

func (b *Breaker) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.state = StateClosed
	b.failures = 0
}
