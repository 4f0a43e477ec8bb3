package themepdf

import (
	"context"
	"runtime"
	"sync"
)

// Job slot sizing constants.
const (
	// MinJobSlots ensures at least one render job can run.
	MinJobSlots = 1

	// MaxJobSlots caps concurrent browsers to limit memory (~200MB each).
	MaxJobSlots = 8

	// cpuDivisor leaves headroom for Chrome child processes.
	cpuDivisor = 2
)

// JobLimiter bounds the number of render jobs running at once. Each job
// still owns its browser; the limiter only gates admission.
type JobLimiter struct {
	size   int
	slots  chan struct{}
	mu     sync.Mutex
	closed bool
	done   chan struct{}
}

// NewJobLimiter creates a limiter admitting at most n concurrent jobs.
func NewJobLimiter(n int) *JobLimiter {
	if n < MinJobSlots {
		n = MinJobSlots
	}
	return &JobLimiter{
		size:  n,
		slots: make(chan struct{}, n),
		done:  make(chan struct{}),
	}
}

// Acquire blocks until a slot is free, ctx is done, or the limiter is closed.
// The returned release func is safe to call more than once.
func (l *JobLimiter) Acquire(ctx context.Context) (release func(), err error) {
	select {
	case <-l.done:
		return nil, ErrLimiterClosed
	default:
	}

	select {
	case l.slots <- struct{}{}:
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-l.done:
		return nil, ErrLimiterClosed
	}

	var once sync.Once
	return func() {
		once.Do(func() { <-l.slots })
	}, nil
}

// Close rejects waiting and future Acquire calls. Jobs already admitted run
// to completion.
func (l *JobLimiter) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if !l.closed {
		l.closed = true
		close(l.done)
	}
	return nil
}

// Size returns the limiter capacity.
func (l *JobLimiter) Size() int {
	return l.size
}

// InFlight returns the number of admitted jobs not yet released.
func (l *JobLimiter) InFlight() int {
	return len(l.slots)
}

// ResolveJobSlots determines the limiter size.
// Positive values are used as-is, 0 means unbounded (no limiter) and
// negative values size from GOMAXPROCS (adjusted by automaxprocs for
// containers).
func ResolveJobSlots(n int) int {
	if n > 0 {
		return n
	}
	if n == 0 {
		return 0
	}

	available := runtime.GOMAXPROCS(0)
	slots := available / cpuDivisor

	if slots < MinJobSlots {
		return MinJobSlots
	}
	if slots > MaxJobSlots {
		return MaxJobSlots
	}
	return slots
}
