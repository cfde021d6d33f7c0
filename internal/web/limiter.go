package web

// limiter.go caps the number of cleaning runs processed at once. Requests
// that find every slot busy wait up to maxWait, then fail with ErrTooManyRuns.
// Shutdown uses WaitForDrain to let in-flight runs finish.

import (
	"context"
	"errors"
	"sync"
	"time"
)

// ErrTooManyRuns is returned when no run slot frees up within the wait time.
var ErrTooManyRuns = errors.New("too many cleaning runs in progress")

const (
	defaultMaxRuns = 4
	defaultMaxWait = 10 * time.Second
)

// runLimiter is a counting semaphore over cleaning runs.
type runLimiter struct {
	slots   chan struct{}
	maxWait time.Duration

	mu     sync.RWMutex
	active int
}

func newRunLimiter(maxRuns int, maxWait time.Duration) *runLimiter {
	if maxRuns <= 0 {
		maxRuns = defaultMaxRuns
	}
	if maxWait <= 0 {
		maxWait = defaultMaxWait
	}
	return &runLimiter{slots: make(chan struct{}, maxRuns), maxWait: maxWait}
}

// Acquire takes a slot. Every successful Acquire must be paired with Release.
func (l *runLimiter) Acquire(ctx context.Context) error {
	wait := time.NewTimer(l.maxWait)
	defer wait.Stop()

	select {
	case l.slots <- struct{}{}:
		l.mu.Lock()
		l.active++
		l.mu.Unlock()
		return nil
	case <-wait.C:
		return ErrTooManyRuns
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Release frees a slot taken by Acquire.
func (l *runLimiter) Release() {
	l.mu.Lock()
	l.active--
	l.mu.Unlock()
	<-l.slots
}

func (l *runLimiter) activeCount() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.active
}

// WaitForDrain blocks until no run is active or ctx is done.
func (l *runLimiter) WaitForDrain(ctx context.Context) error {
	ticker := time.NewTicker(50 * time.Millisecond)
	defer ticker.Stop()

	for {
		if l.activeCount() == 0 {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// RunStatus is the limiter state reported by /healthz.
type RunStatus struct {
	Active        int `json:"active"`
	Available     int `json:"available"`
	MaxConcurrent int `json:"max_concurrent"`
}

func (l *runLimiter) Status() RunStatus {
	return RunStatus{
		Active:        l.activeCount(),
		Available:     cap(l.slots) - len(l.slots),
		MaxConcurrent: cap(l.slots),
	}
}
