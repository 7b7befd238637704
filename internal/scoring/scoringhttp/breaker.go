package scoringhttp

import (
	"sync"
	"time"
)

// breaker is a two-state circuit breaker guarding the scoring API. After
// failureThreshold consecutive transport failures it opens and short-circuits
// calls for cooldown; after the cooldown a single probe call is let through
// and a success closes the circuit again. 4xx responses are not failures:
// the service answered, it just disliked the payload.
type breaker struct {
	mu               sync.Mutex
	failureThreshold int
	cooldown         time.Duration
	now              func() time.Time

	failures int
	openedAt time.Time
	open     bool
	probing  bool
}

func newBreaker(failureThreshold int, cooldown time.Duration) *breaker {
	return &breaker{
		failureThreshold: failureThreshold,
		cooldown:         cooldown,
		now:              time.Now,
	}
}

// allow reports whether a call may proceed.
func (b *breaker) allow() bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.open {
		return true
	}
	if b.probing || b.now().Sub(b.openedAt) < b.cooldown {
		return false
	}
	// one probe at a time once the cooldown elapsed
	b.probing = true
	return true
}

// isOpen reports the current circuit state without mutating it.
func (b *breaker) isOpen() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.open
}

func (b *breaker) recordSuccess() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.failures = 0
	b.open = false
	b.probing = false
}

// recordFailure registers a transport failure and reports whether the
// circuit transitioned to open.
func (b *breaker) recordFailure() (opened bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.failures++
	b.probing = false
	if b.open {
		// failed probe: restart the cooldown window
		b.openedAt = b.now()
		return false
	}
	if b.failures >= b.failureThreshold {
		b.open = true
		b.openedAt = b.now()
		return true
	}
	return false
}
