package media

import (
	"errors"
	"sync"
	"time"
)

// ErrHostUnavailable is returned while the breaker keeps requests away from
// a failing image host.
var ErrHostUnavailable = errors.New("media host temporarily unavailable")

type breakerState int

const (
	breakerClosed breakerState = iota
	breakerOpen
	breakerHalfOpen
)

// hostBreaker trips after consecutive upload failures so a dead bucket does
// not hold every request for the full operation timeout. After cooldown one
// probe request is let through; its outcome decides whether the breaker
// closes again.
type hostBreaker struct {
	maxFailures int
	cooldown    time.Duration

	mu       sync.Mutex
	state    breakerState
	failures int
	openedAt time.Time
}

func newHostBreaker(maxFailures int, cooldown time.Duration) *hostBreaker {
	return &hostBreaker{maxFailures: maxFailures, cooldown: cooldown}
}

func (b *hostBreaker) do(fn func() error) error {
	if !b.allow() {
		return ErrHostUnavailable
	}
	if err := fn(); err != nil {
		b.onFailure()
		return err
	}
	b.onSuccess()
	return nil
}

func (b *hostBreaker) allow() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	switch b.state {
	case breakerOpen:
		if time.Since(b.openedAt) > b.cooldown {
			b.state = breakerHalfOpen
			return true
		}
		return false
	default:
		return true
	}
}

func (b *hostBreaker) onFailure() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.openedAt = time.Now()
	if b.state == breakerHalfOpen {
		b.state = breakerOpen
		b.failures = 0
		return
	}
	b.failures++
	if b.failures >= b.maxFailures {
		b.state = breakerOpen
	}
}

func (b *hostBreaker) onSuccess() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.state = breakerClosed
	b.failures = 0
}
