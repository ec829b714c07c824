// Package runloop provides a cooperative single-goroutine scheduler that
// event sources attach to. Work posted to a Loop runs only while some
// goroutine is inside Run, and always on that goroutine.
package runloop

import (
	"context"
	"runtime"
	"sync"
)

// Mode labels the set of sources a loop services while running.
type Mode string

const (
	DefaultMode Mode = "default"
	// CommonModes work is serviced by a loop running in any mode.
	CommonModes Mode = "common"
)

// Source is something that can be attached to a Loop, such as a hook tap.
type Source interface {
	Schedule(l *Loop, mode Mode)
	Cancel(l *Loop, mode Mode)
}

type work struct {
	mode Mode
	fn   func()
}

type Loop struct {
	mu      sync.Mutex
	cond    *sync.Cond
	queue   []work
	sources map[Source][]Mode
	running bool
	stopped bool
}

func New() *Loop {
	l := &Loop{sources: make(map[Source][]Mode)}
	l.cond = sync.NewCond(&l.mu)
	return l
}

var (
	currentOnce sync.Once
	current     *Loop
)

// Current returns the process default loop. It is the loop a source is
// attached to when the caller does not name one.
func Current() *Loop {
	currentOnce.Do(func() {
		current = New()
	})
	return current
}

// Add attaches src in mode. Adding the same source twice in one mode is a no-op.
func (l *Loop) Add(src Source, mode Mode) {
	l.mu.Lock()
	for _, m := range l.sources[src] {
		if m == mode {
			l.mu.Unlock()
			return
		}
	}
	l.sources[src] = append(l.sources[src], mode)
	l.mu.Unlock()

	src.Schedule(l, mode)
}

// Remove detaches src from mode.
func (l *Loop) Remove(src Source, mode Mode) {
	l.mu.Lock()
	modes := l.sources[src]
	found := false
	for i, m := range modes {
		if m == mode {
			modes = append(modes[:i], modes[i+1:]...)
			found = true
			break
		}
	}
	if len(modes) == 0 {
		delete(l.sources, src)
	} else {
		l.sources[src] = modes
	}
	l.mu.Unlock()

	if found {
		src.Cancel(l, mode)
	}
}

// Contains reports whether src is attached in mode.
func (l *Loop) Contains(src Source, mode Mode) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, m := range l.sources[src] {
		if m == mode {
			return true
		}
	}
	return false
}

// Perform queues fn to run on the loop goroutine. It never blocks and may be
// called from any goroutine.
func (l *Loop) Perform(mode Mode, fn func()) {
	l.mu.Lock()
	l.queue = append(l.queue, work{mode: mode, fn: fn})
	l.mu.Unlock()
	l.cond.Broadcast()
}

// Run services the loop in DefaultMode until Stop is called or ctx is done.
func (l *Loop) Run(ctx context.Context) error {
	return l.RunMode(ctx, DefaultMode)
}

// RunMode services work queued for mode (and CommonModes) on the calling
// goroutine, which is locked to its OS thread for the duration.
func (l *Loop) RunMode(ctx context.Context, mode Mode) error {
	if ctx == nil {
		ctx = context.Background()
	}

	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	l.mu.Lock()
	l.running = true
	l.stopped = false
	l.mu.Unlock()

	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			l.Stop()
		case <-done:
		}
	}()

	for {
		fn, ok := l.next(mode)
		if !ok {
			break
		}
		fn()
	}

	l.mu.Lock()
	l.running = false
	l.mu.Unlock()
	return ctx.Err()
}

// next blocks until runnable work exists or the loop is stopped.
func (l *Loop) next(mode Mode) (func(), bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for {
		if l.stopped {
			return nil, false
		}
		if fn, ok := l.popLocked(mode); ok {
			return fn, true
		}
		l.cond.Wait()
	}
}

func (l *Loop) popLocked(mode Mode) (func(), bool) {
	for i, w := range l.queue {
		if w.mode == mode || w.mode == CommonModes {
			l.queue = append(l.queue[:i], l.queue[i+1:]...)
			return w.fn, true
		}
	}
	return nil, false
}

// RunPending runs the work already queued for DefaultMode on the calling
// goroutine and returns how many items ran. Work queued while draining is
// also run.
func (l *Loop) RunPending() int {
	n := 0
	for {
		l.mu.Lock()
		fn, ok := l.popLocked(DefaultMode)
		l.mu.Unlock()
		if !ok {
			return n
		}
		fn()
		n++
	}
}

// Stop makes a running Run return after the work item in progress.
func (l *Loop) Stop() {
	l.mu.Lock()
	l.stopped = true
	l.mu.Unlock()
	l.cond.Broadcast()
}

// Running reports whether a goroutine is inside Run.
func (l *Loop) Running() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.running
}
