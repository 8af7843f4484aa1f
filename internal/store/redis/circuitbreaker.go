package redis

import (
	"errors"
	"sync"
	"time"
)

// ErrOpen is returned while the breaker rejects calls.
var ErrOpen = errors.New("circuit breaker is open")

// State is the breaker position.
type State int

const (
	Closed   State = iota // calls pass through
	Open                  // calls rejected until the cool-off elapses
	HalfOpen              // one probe call allowed through
)

func (s State) String() string {
	switch s {
	case Closed:
		return "closed"
	case Open:
		return "open"
	case HalfOpen:
		return "half-open"
	default:
		return "unknown"
	}
}

// Breaker trips to Open after maxFailures consecutive failures and rejects
// calls until the cool-off elapses. The next call then runs as a probe: on
// success the breaker closes, on failure it reopens.
type Breaker struct {
	mu          sync.Mutex
	state       State
	failures    int
	maxFailures int
	coolOff     time.Duration
	lastFailure time.Time

	// OnStateChange, when set, is called on every transition.
	OnStateChange func(from, to State)
}

// NewBreaker creates a breaker tripping after maxFailures consecutive
// failures and probing again after coolOff.
func NewBreaker(maxFailures int, coolOff time.Duration) *Breaker {
	return &Breaker{
		maxFailures: maxFailures,
		coolOff:     coolOff,
		state:       Closed,
	}
}

// Execute runs fn unless the breaker is open. The error from fn is returned
// unchanged; ErrOpen is returned without calling fn.
func (b *Breaker) Execute(fn func() error) error {
	b.mu.Lock()
	if b.state == Open {
		if time.Since(b.lastFailure) <= b.coolOff {
			b.mu.Unlock()
			return ErrOpen
		}
		b.transition(HalfOpen)
	}
	b.mu.Unlock()

	err := fn()

	b.mu.Lock()
	defer b.mu.Unlock()

	if err != nil {
		b.failures++
		b.lastFailure = time.Now()
		if b.state == HalfOpen || b.failures >= b.maxFailures {
			b.transition(Open)
		}
		return err
	}

	if b.state == HalfOpen {
		b.transition(Closed)
	}
	b.failures = 0
	return nil
}

// CurrentState returns the breaker position.
func (b *Breaker) CurrentState() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

func (b *Breaker) transition(to State) {
	from := b.state
	b.state = to
	if to == Closed {
		b.failures = 0
	}
	if b.OnStateChange != nil {
		b.OnStateChange(from, to)
	}
}
