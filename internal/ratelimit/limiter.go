package ratelimit

import (
	"fmt"
	"sync"
	"time"

	"strang/internal/domain"
)

// RateLimitError reports a rejected request. RetryAfter is the time until the
// oldest request in the window expires.
type RateLimitError struct {
	Window     time.Duration
	RetryAfter time.Duration
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("Rate limit exceeded. Try again in %d minutes.", int(e.Window/time.Minute))
}

func (e *RateLimitError) Is(target error) bool {
	return target == domain.ErrRateLimited
}

// Limiter is a per-client sliding window limiter. State lives in memory only.
type Limiter struct {
	mu      sync.Mutex
	limit   int
	window  time.Duration
	clients map[string][]time.Time
	now     func() time.Time
}

// New creates a limiter allowing limit requests per window for each client.
func New(limit int, window time.Duration) *Limiter {
	return &Limiter{
		limit:   limit,
		window:  window,
		clients: make(map[string][]time.Time),
		now:     time.Now,
	}
}

// Check records a request for clientID, or returns a *RateLimitError without
// recording it when the client already used its budget for the window.
func (l *Limiter) Check(clientID string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	cutoff := now.Add(-l.window)
	l.pruneLocked(cutoff)

	stamps := l.clients[clientID]
	if len(stamps) >= l.limit {
		retry := stamps[0].Add(l.window).Sub(now)
		if retry < time.Second {
			retry = time.Second
		}
		return &RateLimitError{Window: l.window, RetryAfter: retry}
	}
	l.clients[clientID] = append(stamps, now)
	return nil
}

// Clients returns the number of clients with requests inside the window.
func (l *Limiter) Clients() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.pruneLocked(l.now().Add(-l.window))
	return len(l.clients)
}

func (l *Limiter) pruneLocked(cutoff time.Time) {
	for id, stamps := range l.clients {
		i := 0
		for i < len(stamps) && !stamps[i].After(cutoff) {
			i++
		}
		if i == len(stamps) {
			delete(l.clients, id)
			continue
		}
		if i > 0 {
			l.clients[id] = append(stamps[:0:0], stamps[i:]...)
		}
	}
}
