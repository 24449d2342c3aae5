package circuit

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// trip records n failures and returns the last outcome.
func trip(b *Breaker, n int) (bool, StateChange) {
	var (
		fallback bool
		change   StateChange
	)
	for range n {
		fallback, change = b.RecordFailure()
	}
	return fallback, change
}

func TestNewBreaker(t *testing.T) {
	b := New("redis")
	assert.Equal(t, "redis", b.Name())
	assert.Equal(t, StateClosed, b.State())
	assert.False(t, b.IsOpen())

	fallback, change := trip(b, 4)
	assert.False(t, fallback, "default threshold is five failures")
	assert.False(t, change.Opened)

	fallback, change = b.RecordFailure()
	assert.True(t, fallback)
	assert.True(t, change.Opened)
}

func TestRecordFailure(t *testing.T) {
	t.Run("stays closed below threshold", func(t *testing.T) {
		b := New("redis", WithFailureThreshold(3))
		fallback, change := trip(b, 2)
		assert.False(t, fallback)
		assert.Equal(t, StateChange{}, change)
		assert.Equal(t, StateClosed, b.State())
	})

	t.Run("opens once at threshold", func(t *testing.T) {
		b := New("redis", WithFailureThreshold(3))
		fallback, change := trip(b, 3)
		assert.True(t, fallback)
		assert.True(t, change.Opened)

		fallback, change = b.RecordFailure()
		assert.True(t, fallback)
		assert.False(t, change.Opened, "already open")
	})

	t.Run("a success resets the streak", func(t *testing.T) {
		b := New("redis", WithFailureThreshold(2))
		b.RecordFailure()
		usePrimary, _ := b.RecordSuccess()
		assert.True(t, usePrimary)

		fallback, _ := b.RecordFailure()
		assert.False(t, fallback)
	})

	t.Run("a failure while open restarts recovery", func(t *testing.T) {
		b := New("redis", WithFailureThreshold(1), WithSuccessThreshold(2))
		b.RecordFailure()
		b.RecordSuccess()
		b.RecordFailure()

		usePrimary, change := b.RecordSuccess()
		assert.False(t, usePrimary)
		assert.False(t, change.Closed)
		assert.True(t, b.IsOpen())
	})
}

func TestRecordSuccess(t *testing.T) {
	b := New("redis", WithFailureThreshold(1), WithSuccessThreshold(3))
	trip(b, 1)
	require.True(t, b.IsOpen())

	for range 2 {
		usePrimary, change := b.RecordSuccess()
		assert.False(t, usePrimary)
		assert.False(t, change.Closed)
	}

	usePrimary, change := b.RecordSuccess()
	assert.True(t, usePrimary)
	assert.True(t, change.Closed)
	assert.Equal(t, StateClosed, b.State())
}

func TestInvalidThresholdsKeepDefaults(t *testing.T) {
	b := New("redis", WithFailureThreshold(0), WithSuccessThreshold(-1))
	fallback, _ := trip(b, 4)
	assert.False(t, fallback)
}

func TestReset(t *testing.T) {
	b := New("redis", WithFailureThreshold(1))
	trip(b, 1)
	b.Reset()
	assert.Equal(t, StateClosed, b.State())

	fallback, change := b.RecordFailure()
	assert.True(t, fallback)
	assert.True(t, change.Opened)
}

func TestConcurrentFailuresOpenOnce(t *testing.T) {
	b := New("redis", WithFailureThreshold(10))

	var (
		wg     sync.WaitGroup
		mu     sync.Mutex
		opened int
	)
	for range 50 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, change := b.RecordFailure(); change.Opened {
				mu.Lock()
				opened++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, opened)
	assert.True(t, b.IsOpen())
}

func TestStateString(t *testing.T) {
	assert.Equal(t, "closed", StateClosed.String())
	assert.Equal(t, "open", StateOpen.String())
}
