package core

// upload_limiter.go bounds how many files are ingested at once.
//
// Parsing a workbook and copying its measurements holds a pool connection
// and several megabytes of memory, so IngestFile takes a slot before any
// work starts. A caller that cannot get a slot within the wait time gets
// ErrTooManyUploads. Shutdown uses Drain to let running ingestions finish.

import (
	"context"
	"errors"
	"sync/atomic"
	"time"
)

// ErrTooManyUploads is returned when no ingest slot frees up in time.
var ErrTooManyUploads = errors.New("too many concurrent uploads")

const (
	DefaultMaxConcurrentUploads = 5
	DefaultUploadWaitTime       = 30 * time.Second
	drainPollInterval           = 100 * time.Millisecond
)

// UploadLimiter is a counting semaphore over ingest slots.
type UploadLimiter struct {
	slots   chan struct{}
	maxWait time.Duration
	active  atomic.Int64
	total   atomic.Int64
	refused atomic.Int64
}

// UploadStatus is a snapshot of the limiter for health reporting.
type UploadStatus struct {
	Active        int   `json:"active"`
	Available     int   `json:"available"`
	MaxConcurrent int   `json:"maxConcurrent"`
	Completed     int64 `json:"completed"`
	Refused       int64 `json:"refused"`
}

// NewUploadLimiter allows maxConcurrent ingestions; zero values use defaults.
func NewUploadLimiter(maxConcurrent int, maxWait time.Duration) *UploadLimiter {
	if maxConcurrent <= 0 {
		maxConcurrent = DefaultMaxConcurrentUploads
	}
	if maxWait <= 0 {
		maxWait = DefaultUploadWaitTime
	}
	return &UploadLimiter{
		slots:   make(chan struct{}, maxConcurrent),
		maxWait: maxWait,
	}
}

// Acquire waits for a slot and returns the function that frees it.
// The release function is safe to call more than once.
func (l *UploadLimiter) Acquire(ctx context.Context) (func(), error) {
	timer := time.NewTimer(l.maxWait)
	defer timer.Stop()

	select {
	case l.slots <- struct{}{}:
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-timer.C:
		l.refused.Add(1)
		return nil, ErrTooManyUploads
	}

	l.active.Add(1)
	var released atomic.Bool
	return func() {
		if released.Swap(true) {
			return
		}
		l.active.Add(-1)
		l.total.Add(1)
		<-l.slots
	}, nil
}

// Active returns the number of ingestions holding a slot.
func (l *UploadLimiter) Active() int {
	return int(l.active.Load())
}

// Status returns the current counters.
func (l *UploadLimiter) Status() UploadStatus {
	return UploadStatus{
		Active:        l.Active(),
		Available:     cap(l.slots) - len(l.slots),
		MaxConcurrent: cap(l.slots),
		Completed:     l.total.Load(),
		Refused:       l.refused.Load(),
	}
}

// Drain blocks until no ingestion is running or ctx ends.
func (l *UploadLimiter) Drain(ctx context.Context) error {
	if l.Active() == 0 {
		return nil
	}
	ticker := time.NewTicker(drainPollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if l.Active() == 0 {
				return nil
			}
		}
	}
}
