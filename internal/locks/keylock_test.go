package locks

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alanyoungcy/swapsniper/internal/domain"
)

func TestAcquireRelease(t *testing.T) {
	l := NewKeyLock()
	ctx := context.Background()

	release, err := l.Acquire(ctx, "0xabc")
	require.NoError(t, err)
	assert.True(t, l.Held("0xabc"))

	// Second acquisition fails fast while held.
	_, err = l.Acquire(ctx, "0xabc")
	require.ErrorIs(t, err, domain.ErrLockHeld)

	// Different key is independent.
	release2, err := l.Acquire(ctx, "0xdef")
	require.NoError(t, err)
	release2()

	release()
	assert.False(t, l.Held("0xabc"))

	// Re-acquirable after release.
	release3, err := l.Acquire(ctx, "0xabc")
	require.NoError(t, err)
	release3()
}

func TestReleaseIsIdempotent(t *testing.T) {
	l := NewKeyLock()
	ctx := context.Background()

	release, err := l.Acquire(ctx, "0xabc")
	require.NoError(t, err)
	release()

	// A new holder takes the lock; the stale release must not free it.
	_, err = l.Acquire(ctx, "0xabc")
	require.NoError(t, err)
	release()
	assert.True(t, l.Held("0xabc"))
}

func TestConcurrentAcquireSingleWinner(t *testing.T) {
	l := NewKeyLock()
	ctx := context.Background()

	const goroutines = 16
	var wg sync.WaitGroup
	var mu sync.Mutex
	wins, conflicts := 0, 0

	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := l.Acquire(ctx, "0xabc")
			mu.Lock()
			defer mu.Unlock()
			if err == nil {
				wins++
			} else if err == domain.ErrLockHeld {
				conflicts++
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, wins)
	assert.Equal(t, goroutines-1, conflicts)
}
