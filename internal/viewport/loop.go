package viewport

import (
	"sync"
	"time"
)

// Loop redraws once per frame. Each callback first requests the next frame,
// then renders, so exactly one request is outstanding while the loop runs.
type Loop struct {
	mu      sync.Mutex
	sched   Scheduler
	render  func() error
	running bool
	gen     uint64
	pending FrameID
	frames  uint64
	lastErr error

	onError func(error)
	onFrame func(time.Duration)
}

func NewLoop(sched Scheduler, render func() error) *Loop {
	return &Loop{sched: sched, render: render}
}

// OnError sets a handler for render failures. The loop keeps running after one.
func (l *Loop) OnError(fn func(error)) {
	l.mu.Lock()
	l.onError = fn
	l.mu.Unlock()
}

// OnFrame sets an observer that receives each frame's render duration.
func (l *Loop) OnFrame(fn func(time.Duration)) {
	l.mu.Lock()
	l.onFrame = fn
	l.mu.Unlock()
}

// Start schedules the first frame. Calling Start on a running loop does nothing.
func (l *Loop) Start() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.running {
		return
	}
	l.running = true
	l.gen++
	l.pending = l.schedule(l.gen)
}

// Stop cancels the outstanding frame request. A callback already taken by the
// host neither renders nor reschedules, even if Start runs again first.
func (l *Loop) Stop() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if !l.running {
		return
	}
	l.running = false
	if l.pending != 0 {
		l.sched.CancelFrame(l.pending)
		l.pending = 0
	}
}

func (l *Loop) Running() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.running
}

// Frames returns how many frames have been rendered.
func (l *Loop) Frames() uint64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.frames
}

// Err returns the most recent render error, if any.
func (l *Loop) Err() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.lastErr
}

// schedule requests a frame bound to generation gen. Callers hold l.mu.
func (l *Loop) schedule(gen uint64) FrameID {
	return l.sched.RequestFrame(func() { l.tick(gen) })
}

func (l *Loop) tick(gen uint64) {
	l.mu.Lock()
	if !l.running || gen != l.gen {
		l.mu.Unlock()
		return
	}
	l.pending = l.schedule(gen)
	l.frames++
	onError, onFrame := l.onError, l.onFrame
	l.mu.Unlock()

	start := time.Now()
	err := l.render()
	elapsed := time.Since(start)

	if err != nil {
		l.mu.Lock()
		l.lastErr = err
		l.mu.Unlock()
		if onError != nil {
			onError(err)
		}
	}
	if onFrame != nil {
		onFrame(elapsed)
	}
}
