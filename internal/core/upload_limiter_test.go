package core

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUploadLimiter_AcquireRelease(t *testing.T) {
	l := NewUploadLimiter(2, time.Second)
	ctx := context.Background()

	assert.Equal(t, UploadStatus{Available: 2, MaxConcurrent: 2}, l.Status())

	release1, err := l.Acquire(ctx)
	require.NoError(t, err)
	release2, err := l.Acquire(ctx)
	require.NoError(t, err)

	st := l.Status()
	assert.Equal(t, 2, st.Active)
	assert.Equal(t, 0, st.Available)

	release1()
	release1() // second call is a no-op
	assert.Equal(t, 1, l.Active())

	release2()
	st = l.Status()
	assert.Equal(t, 0, st.Active)
	assert.Equal(t, 2, st.Available)
	assert.Equal(t, int64(2), st.Completed)
}

func TestUploadLimiter_Defaults(t *testing.T) {
	l := NewUploadLimiter(0, 0)
	assert.Equal(t, DefaultMaxConcurrentUploads, l.Status().MaxConcurrent)
	assert.Equal(t, DefaultUploadWaitTime, l.maxWait)
}

func TestUploadLimiter_RefusesWhenFull(t *testing.T) {
	l := NewUploadLimiter(1, 50*time.Millisecond)

	release, err := l.Acquire(context.Background())
	require.NoError(t, err)
	defer release()

	start := time.Now()
	_, err = l.Acquire(context.Background())
	assert.ErrorIs(t, err, ErrTooManyUploads)
	assert.GreaterOrEqual(t, time.Since(start), 40*time.Millisecond)
	assert.Equal(t, int64(1), l.Status().Refused)
}

func TestUploadLimiter_ContextCancellation(t *testing.T) {
	l := NewUploadLimiter(1, 5*time.Second)

	release, err := l.Acquire(context.Background())
	require.NoError(t, err)
	defer release()

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() {
		_, err := l.Acquire(ctx)
		errCh <- err
	}()

	time.Sleep(20 * time.Millisecond)
	cancel()

	select {
	case err := <-errCh:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("Acquire did not return after cancellation")
	}
	assert.Equal(t, int64(0), l.Status().Refused)
}

func TestUploadLimiter_ConcurrentAccess(t *testing.T) {
	const maxConcurrent = 3
	l := NewUploadLimiter(maxConcurrent, time.Second)

	var (
		wg      sync.WaitGroup
		running atomic.Int64
		peak    atomic.Int64
	)
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			release, err := l.Acquire(context.Background())
			if !assert.NoError(t, err) {
				return
			}
			defer release()

			n := running.Add(1)
			for {
				p := peak.Load()
				if n <= p || peak.CompareAndSwap(p, n) {
					break
				}
			}
			time.Sleep(5 * time.Millisecond)
			running.Add(-1)
		}()
	}
	wg.Wait()

	assert.LessOrEqual(t, peak.Load(), int64(maxConcurrent))
	assert.Equal(t, 0, l.Active())
	assert.Equal(t, int64(10), l.Status().Completed)
}

func TestUploadLimiter_Drain(t *testing.T) {
	l := NewUploadLimiter(2, time.Second)
	require.NoError(t, l.Drain(context.Background()))

	release, err := l.Acquire(context.Background())
	require.NoError(t, err)

	go func() {
		time.Sleep(30 * time.Millisecond)
		release()
	}()
	require.NoError(t, l.Drain(context.Background()))
	assert.Equal(t, 0, l.Active())
}

func TestUploadLimiter_DrainTimeout(t *testing.T) {
	l := NewUploadLimiter(1, time.Second)
	release, err := l.Acquire(context.Background())
	require.NoError(t, err)
	defer release()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, l.Drain(ctx), context.DeadlineExceeded)
}
