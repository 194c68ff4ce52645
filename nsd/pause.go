package main

import (
	"sync"
	"time"
)

// pauseState is a self-expiring freeze switch for the volume readout: pausing
// arms a deadline, and the state reads as unpaused once the deadline passes
// even if nobody ever resumes.
type pauseState struct {
	window time.Duration

	mu    sync.Mutex
	until time.Time
	// injectable clock
	now func() time.Time
}

func newPauseState(window time.Duration) *pauseState {
	return &pauseState{
		window: window,
		now:    time.Now,
	}
}

func (p *pauseState) Pause() time.Time {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.until = p.now().Add(p.window)
	return p.until
}

func (p *pauseState) Resume() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.until = time.Time{}
}

func (p *pauseState) Paused() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.now().Before(p.until)
}

// Until returns the active deadline, or the zero time when not paused.
func (p *pauseState) Until() time.Time {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.now().Before(p.until) {
		return time.Time{}
	}
	return p.until
}
