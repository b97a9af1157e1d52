package resolver

import (
	"errors"
	"log"
	"time"

	"github.com/sony/gobreaker"

	"github.com/opencargos/tenura/internal/storage"
)

// Guard gates every outbound store lookup behind a circuit breaker that
// reacts only to administrative read blocks. The backing store can enter a
// temporary read-suspended state (bulk reloads, permission rotation);
// hammering it with retries during that window is wasteful and slows every
// page view.
//
// A single detected access-denial opens the breaker for the configured
// cooldown, during which all lookups short-circuit to "no result" without
// contacting the store. Ordinary query failures pass through untouched and
// never trip the guard. The open transition is logged exactly once per
// cooldown window.
type Guard struct {
	breaker *gobreaker.CircuitBreaker
}

// NewGuard creates a guard with the given cooldown window.
func NewGuard(cooldown time.Duration) *Guard {
	settings := gobreaker.Settings{
		Name:        "store-access",
		MaxRequests: 1, // one trial lookup when the window elapses
		Timeout:     cooldown,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 1
		},
		IsSuccessful: func(err error) bool {
			// Only administrative read blocks count as breaker failures.
			return !storage.IsAccessBlocked(err)
		},
		OnStateChange: func(_ string, _ gobreaker.State, to gobreaker.State) {
			if to == gobreaker.StateOpen {
				log.Printf("resolver: store denied read access, suppressing lookups for %s", cooldown)
			}
		},
	}
	return &Guard{breaker: gobreaker.NewCircuitBreaker(settings)}
}

// Do runs fn unless the guard is open. While open (or during a half-open
// trial already in flight), it returns storage.ErrAccessBlocked without
// invoking fn, which callers degrade to the same "no result" contract as a
// genuine NotFound.
func (g *Guard) Do(fn func() error) error {
	_, err := g.breaker.Execute(func() (interface{}, error) {
		return nil, fn()
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return storage.ErrAccessBlocked
	}
	return err
}

// Blocked reports whether the guard is currently suppressing lookups.
func (g *Guard) Blocked() bool {
	return g.breaker.State() == gobreaker.StateOpen
}
