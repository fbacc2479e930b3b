/*
The backoff package decides how long the socket waits between reconnect
attempts. The socket only ever talks to the Policy interface, so tests can
substitute a deterministic implementation; the default is an exponential
policy with jitter built on cenkalti/backoff.
*/
package backoff

import (
	"time"

	backoff "github.com/cenkalti/backoff/v4"
)

const (
	// Defaults chosen to recover quickly from a blip without hammering a
	// struggling server
	DefaultMin        = 100 * time.Millisecond
	DefaultMax        = 60 * time.Second
	DefaultJitter     = 0.5
	DefaultMultiplier = 2

	// Zero means retry forever
	DefaultMaxRetries = 0
)

// Policy hands out the delay before each reconnect attempt.
//
// Next returns the delay to wait before the upcoming attempt, or false when
// the retry budget is exhausted. Reset rewinds the policy to its initial
// delay; the socket calls it after a connection proves healthy.
type Policy interface {
	Next() (time.Duration, bool)
	Reset()
}

type Config struct {
	// Delay before the first retry. Must be > 0.
	Min time.Duration

	// Ceiling for the computed delay
	Max time.Duration

	// Randomization factor in [0, 1). Each delay is perturbed by up to
	// +/- Jitter of itself so that a fleet of clients doesn't reconnect in
	// lockstep. Zero makes the policy deterministic.
	Jitter float64

	// Attempts before giving up, zero for unlimited
	MaxRetries int
}

func (c Config) withDefaults() Config {
	if c.Min == 0 {
		c.Min = DefaultMin
	}
	if c.Max == 0 {
		c.Max = DefaultMax
	}
	return c
}

// Exponential is the default Policy: delays double from Min up to Max with
// optional jitter, and an optional cap on the number of attempts.
type Exponential struct {
	engine     *backoff.ExponentialBackOff
	maxRetries int
	attempt    int
}

func NewExponential(config Config) *Exponential {
	config = config.withDefaults()

	engine := backoff.NewExponentialBackOff()
	engine.InitialInterval = config.Min
	engine.MaxInterval = config.Max
	engine.RandomizationFactor = config.Jitter
	engine.Multiplier = DefaultMultiplier

	// The attempt budget is ours to enforce; never stop on elapsed time
	engine.MaxElapsedTime = 0

	engine.Reset()

	return &Exponential{
		engine:     engine,
		maxRetries: config.MaxRetries,
	}
}

func (e *Exponential) Next() (time.Duration, bool) {
	e.attempt++
	if e.maxRetries > 0 && e.attempt > e.maxRetries {
		return 0, false
	}

	delay := e.engine.NextBackOff()
	if delay == backoff.Stop {
		return 0, false
	}
	return delay, true
}

func (e *Exponential) Reset() {
	e.attempt = 0
	e.engine.Reset()
}
