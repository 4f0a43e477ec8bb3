package themepdf

import "sync"

// ProgressFunc receives checkpoints: percent in [0, 100] and a status line.
// 100 means success; 0 after any earlier checkpoint means failure.
type ProgressFunc func(percent int, message string)

// progressTracker forwards checkpoints only while they strictly increase and
// stops after the first terminal report (100 or a failure).
type progressTracker struct {
	mu   sync.Mutex
	fn   ProgressFunc
	last int
	done bool
}

func newProgressTracker(fn ProgressFunc) *progressTracker {
	return &progressTracker{fn: fn}
}

// step reports an intermediate checkpoint. Values outside (last, 100) are dropped.
func (p *progressTracker) step(percent int, message string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.done || percent <= p.last || percent >= 100 {
		return
	}
	p.last = percent
	p.emit(percent, message)
}

// complete reports 100 and closes the tracker.
func (p *progressTracker) complete(message string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.done {
		return
	}
	p.done = true
	p.last = 100
	p.emit(100, message)
}

// fail reports 0 with "Failed: <err>" and closes the tracker.
func (p *progressTracker) fail(err error) {
	p.failf("Failed: " + err.Error())
}

func (p *progressTracker) failf(message string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.done {
		return
	}
	p.done = true
	p.emit(0, message)
}

func (p *progressTracker) finished() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.done
}

func (p *progressTracker) emit(percent int, message string) {
	if p.fn != nil {
		p.fn(percent, message)
	}
}

// span maps a child's 0..100 scale onto [lo, hi] of this tracker. A child
// 100 becomes a step at hi; a child 0 fails this tracker.
func (p *progressTracker) span(lo, hi int) ProgressFunc {
	return func(percent int, message string) {
		switch {
		case percent <= 0:
			p.failf(message)
		case percent >= 100:
			p.step(hi, message)
		default:
			p.step(lo+percent*(hi-lo)/100, message)
		}
	}
}
