package themepdf

import (
	"context"
	"errors"
	"runtime"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestResolveJobSlots(t *testing.T) {
	t.Parallel()

	gomaxprocs := runtime.GOMAXPROCS(0)

	tests := []struct {
		name string
		n    int
		want int
	}{
		{name: "explicit takes priority", n: 4, want: 4},
		{name: "explicit can exceed max", n: 32, want: 32},
		{name: "zero disables the limiter", n: 0, want: 0},
		{
			name: "negative uses auto calculation",
			n:    -1,
			want: min(max(gomaxprocs/cpuDivisor, MinJobSlots), MaxJobSlots),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if got := ResolveJobSlots(tt.n); got != tt.want {
				t.Errorf("ResolveJobSlots(%d) = %d, want %d", tt.n, got, tt.want)
			}
		})
	}
}

func TestNewJobLimiter_MinimumSize(t *testing.T) {
	t.Parallel()

	if got := NewJobLimiter(0).Size(); got != MinJobSlots {
		t.Errorf("Size() = %d, want %d", got, MinJobSlots)
	}
}

func TestJobLimiter_BoundsConcurrency(t *testing.T) {
	t.Parallel()

	const size = 2
	lim := NewJobLimiter(size)

	var running, peak atomic.Int32
	var wg sync.WaitGroup
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			release, err := lim.Acquire(context.Background())
			if err != nil {
				t.Errorf("Acquire: %v", err)
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

	if p := peak.Load(); p > size {
		t.Errorf("peak concurrency %d exceeds limit %d", p, size)
	}
	if lim.InFlight() != 0 {
		t.Errorf("InFlight = %d, want 0", lim.InFlight())
	}
}

func TestJobLimiter_Acquire_ContextDone(t *testing.T) {
	t.Parallel()

	lim := NewJobLimiter(1)
	release, err := lim.Acquire(context.Background())
	if err != nil {
		t.Fatalf("first Acquire: %v", err)
	}
	defer release()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	if _, err := lim.Acquire(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("expected DeadlineExceeded, got %v", err)
	}
}

func TestJobLimiter_Close(t *testing.T) {
	t.Parallel()

	lim := NewJobLimiter(1)
	release, err := lim.Acquire(context.Background())
	if err != nil {
		t.Fatalf("Acquire: %v", err)
	}

	waiter := make(chan error, 1)
	go func() {
		_, err := lim.Acquire(context.Background())
		waiter <- err
	}()

	if err := lim.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if err := lim.Close(); err != nil {
		t.Fatalf("second Close: %v", err)
	}

	select {
	case err := <-waiter:
		if !errors.Is(err, ErrLimiterClosed) {
			t.Errorf("waiter got %v, want ErrLimiterClosed", err)
		}
	case <-time.After(time.Second):
		t.Fatal("waiter not woken by Close")
	}

	// Admitted jobs still release normally.
	release()
	release()
	if lim.InFlight() != 0 {
		t.Errorf("InFlight = %d, want 0", lim.InFlight())
	}
}
