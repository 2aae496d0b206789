package limiter

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDoBoundsConcurrency(t *testing.T) {
	l := New(2)
	var cur, peak int32
	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = l.Do(context.Background(), func() error {
				n := atomic.AddInt32(&cur, 1)
				for {
					p := atomic.LoadInt32(&peak)
					if n <= p || atomic.CompareAndSwapInt32(&peak, p, n) {
						break
					}
				}
				time.Sleep(5 * time.Millisecond)
				atomic.AddInt32(&cur, -1)
				return nil
			})
		}()
	}
	wg.Wait()
	assert.LessOrEqual(t, peak, int32(2))
}

func TestDoCancelledContextSkipsWork(t *testing.T) {
	l := New(1)
	release := make(chan struct{})
	go func() {
		_ = l.Do(context.Background(), func() error { <-release; return nil })
	}()
	time.Sleep(10 * time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	ran := false
	err := l.Do(ctx, func() error { ran = true; return nil })
	close(release)

	require.Error(t, err)
	assert.True(t, errors.Is(err, context.DeadlineExceeded))
	assert.False(t, ran)
}

func TestNilLimiter(t *testing.T) {
	var l *Limiter
	called := false
	require.NoError(t, l.Do(context.Background(), func() error { called = true; return nil }))
	assert.True(t, called)
	assert.Equal(t, 0, l.Size())
}

func TestNewDefaultsToGOMAXPROCS(t *testing.T) {
	assert.Positive(t, New(0).Size())
	assert.Equal(t, 3, New(3).Size())
}
