// Package breaker wraps sony/gobreaker with the settings shared by outbound calls.
package breaker

import (
	"errors"
	"time"

	gobreaker "github.com/sony/gobreaker/v2"
)

// Config tunes a single circuit breaker.
type Config struct {
	Name             string
	FailureThreshold uint32
	OpenTimeout      time.Duration
	// MaxRequests allowed through while half-open. Defaults to 1.
	MaxRequests uint32
	// IsSuccessful classifies errors that should not count towards tripping.
	IsSuccessful  func(err error) bool
	OnStateChange func(name string, from, to string)
}

// Breaker guards calls returning T.
type Breaker[T any] struct {
	cb *gobreaker.CircuitBreaker[T]
}

// New builds a breaker that opens after FailureThreshold consecutive failures.
func New[T any](cfg Config) *Breaker[T] {
	threshold := cfg.FailureThreshold
	if threshold == 0 {
		threshold = 5
	}
	maxRequests := cfg.MaxRequests
	if maxRequests == 0 {
		maxRequests = 1
	}
	settings := gobreaker.Settings{
		Name:         cfg.Name,
		MaxRequests:  maxRequests,
		Timeout:      cfg.OpenTimeout,
		IsSuccessful: cfg.IsSuccessful,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= threshold
		},
	}
	if cfg.OnStateChange != nil {
		settings.OnStateChange = func(name string, from, to gobreaker.State) {
			cfg.OnStateChange(name, from.String(), to.String())
		}
	}
	return &Breaker[T]{cb: gobreaker.NewCircuitBreaker[T](settings)}
}

// Execute runs fn unless the breaker is open.
func (b *Breaker[T]) Execute(fn func() (T, error)) (T, error) {
	return b.cb.Execute(fn)
}

// State reports closed, half-open or open.
func (b *Breaker[T]) State() string {
	return b.cb.State().String()
}

// IsOpen reports whether err was produced by the breaker rejecting the call.
func IsOpen(err error) bool {
	return errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests)
}
