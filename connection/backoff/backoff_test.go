package backoff

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestExhaustsAfterMaxRetries(t *testing.T) {
	policy := NewExponential(Config{
		Min:        10 * time.Millisecond,
		Max:        time.Second,
		Jitter:     0,
		MaxRetries: 3,
	})

	for i := 0; i < 3; i++ {
		_, ok := policy.Next()
		assert.True(t, ok, "attempt %d should be within budget", i+1)
	}

	_, ok := policy.Next()
	assert.False(t, ok, "attempt 4 should be exhausted")

	// Exhaustion is sticky until reset
	_, ok = policy.Next()
	assert.False(t, ok)
}

func TestZeroMaxRetriesMeansUnlimited(t *testing.T) {
	policy := NewExponential(Config{
		Min:    time.Millisecond,
		Max:    10 * time.Millisecond,
		Jitter: 0,
	})

	for i := 0; i < 1000; i++ {
		_, ok := policy.Next()
		assert.True(t, ok)
	}
}

func TestDelaysGrowAndCap(t *testing.T) {
	policy := NewExponential(Config{
		Min:        100 * time.Millisecond,
		Max:        time.Second,
		Jitter:     0,
		MaxRetries: 10,
	})

	var previous time.Duration
	for i := 0; i < 10; i++ {
		delay, ok := policy.Next()
		assert.True(t, ok)
		assert.GreaterOrEqual(t, delay, previous, "delays should be non-decreasing without jitter")
		assert.LessOrEqual(t, delay, time.Second)
		previous = delay
	}

	assert.Equal(t, time.Second, previous, "delay should have reached the cap")
}

func TestResetRewindsDelayAndBudget(t *testing.T) {
	policy := NewExponential(Config{
		Min:        100 * time.Millisecond,
		Max:        time.Second,
		Jitter:     0,
		MaxRetries: 2,
	})

	first, _ := policy.Next()
	policy.Next()
	_, ok := policy.Next()
	assert.False(t, ok, "budget should be spent")

	policy.Reset()

	delay, ok := policy.Next()
	assert.True(t, ok, "reset should restore the budget")
	assert.Equal(t, first, delay, "reset should rewind to the initial delay")
}

func TestJitterStaysWithinBounds(t *testing.T) {
	min := 100 * time.Millisecond
	policy := NewExponential(Config{
		Min:        min,
		Max:        time.Minute,
		Jitter:     0.5,
		MaxRetries: 1,
	})

	delay, ok := policy.Next()
	assert.True(t, ok)
	assert.GreaterOrEqual(t, delay, min/2)
	assert.LessOrEqual(t, delay, min+min/2)
}

func TestDefaultsAreApplied(t *testing.T) {
	policy := NewExponential(Config{Jitter: 0})

	delay, ok := policy.Next()
	assert.True(t, ok)
	assert.Equal(t, DefaultMin, delay)
}
