package retry

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

// fixedJitter returns 0.5, which maps to zero jitter offset.
func fixedJitter() float64 { return 0.5 }

func TestNextDelayGrowsExponentially(t *testing.T) {
	b := NewExponentialBackoff(5,
		WithInitialDelay(100*time.Millisecond),
		WithMaxDelay(10*time.Second),
		WithJitterFunc(fixedJitter),
	)

	assert.Equal(t, 100*time.Millisecond, b.NextDelay(0))
	assert.Equal(t, 200*time.Millisecond, b.NextDelay(1))
	assert.Equal(t, 400*time.Millisecond, b.NextDelay(2))
}

func TestNextDelayIsCappedAtMaxDelay(t *testing.T) {
	b := NewExponentialBackoff(20,
		WithInitialDelay(100*time.Millisecond),
		WithMaxDelay(1*time.Second),
		WithJitterFunc(fixedJitter),
	)

	assert.Equal(t, 1*time.Second, b.NextDelay(10))
	assert.Equal(t, 1*time.Second, b.NextDelay(19))
}

func TestNextDelayJitterStaysWithinBand(t *testing.T) {
	b := NewExponentialBackoff(3,
		WithInitialDelay(1*time.Second),
		WithJitter(0.1),
	)

	for i := 0; i < 100; i++ {
		d := b.NextDelay(0)
		assert.GreaterOrEqual(t, d, 900*time.Millisecond)
		assert.LessOrEqual(t, d, 1100*time.Millisecond)
	}
}

func TestBackoffAccessors(t *testing.T) {
	b := NewExponentialBackoff(7,
		WithInitialDelay(250*time.Millisecond),
		WithMaxDelay(5*time.Second),
		WithMultiplier(3),
	)

	assert.Equal(t, 7, b.MaxAttempts())
	assert.Equal(t, 250*time.Millisecond, b.InitialDelay())
	assert.Equal(t, 5*time.Second, b.MaxDelay())
}
