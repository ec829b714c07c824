// Package hooktap implements monitor.Facility on top of gohook, the
// libuiohook binding that drives a Quartz event tap on macOS and the native
// hooks on Windows and X11.
package hooktap

import (
	"errors"
	"log/slog"
	"sync"
	"time"

	"gridtap/monitor"
	"gridtap/runloop"
)

// ErrActiveTap is returned for taps that ask to modify events; gohook can
// only listen.
var ErrActiveTap = errors.New("gohook taps are listen-only")

const DefaultEnableTimeout = 250 * time.Millisecond

type Facility struct {
	hub           *hub
	enableTimeout time.Duration
	logger        *slog.Logger
}

// New returns a facility backed by the process-wide gohook stream.
// enableTimeout bounds how long Tap.Enabled waits for gohook to confirm its
// hook is running; a tap not confirmed in time is reported disabled.
func New(logger *slog.Logger, enableTimeout time.Duration) *Facility {
	return newFacility(sharedHub(logger), logger, enableTimeout)
}

func newFacility(h *hub, logger *slog.Logger, enableTimeout time.Duration) *Facility {
	if logger == nil {
		logger = h.logger
	}
	if enableTimeout <= 0 {
		enableTimeout = DefaultEnableTimeout
	}
	return &Facility{hub: h, enableTimeout: enableTimeout, logger: logger}
}

func (f *Facility) CreateTap(spec monitor.TapSpec) (monitor.Tap, error) {
	if spec.Options != monitor.TapOptionListenOnly {
		return nil, ErrActiveTap
	}
	if spec.Callback == nil {
		return nil, errors.New("tap callback is nil")
	}
	t := &tap{
		hub:     f.hub,
		spec:    spec,
		types:   monitor.CategorySetFromMask(spec.Mask),
		timeout: f.enableTimeout,
		valid:   true,
	}
	f.hub.acquire(t)
	f.logger.Debug("gohook tap created", slog.String("categories", t.types.String()))
	return t, nil
}

type attachment struct {
	loop *runloop.Loop
	mode runloop.Mode
}

type tap struct {
	hub     *hub
	sess    *session
	spec    monitor.TapSpec
	types   monitor.CategorySet
	timeout time.Duration

	mu       sync.Mutex
	valid    bool
	attached []attachment
}

func (t *tap) Enabled() bool {
	if !t.isValid() {
		return false
	}
	return t.sess.enabled(t.timeout)
}

func (t *tap) Invalidate() {
	t.mu.Lock()
	if !t.valid {
		t.mu.Unlock()
		return
	}
	t.valid = false
	t.attached = nil
	t.mu.Unlock()

	t.hub.release(t)
}

func (t *tap) Schedule(l *runloop.Loop, mode runloop.Mode) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.valid {
		t.attached = append(t.attached, attachment{loop: l, mode: mode})
	}
}

func (t *tap) Cancel(l *runloop.Loop, mode runloop.Mode) {
	t.mu.Lock()
	defer t.mu.Unlock()
	for i, a := range t.attached {
		if a.loop == l && a.mode == mode {
			t.attached = append(t.attached[:i], t.attached[i+1:]...)
			return
		}
	}
}

func (t *tap) isValid() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.valid
}

// deliver queues e on every loop the tap is attached to. The callback runs on
// the loop goroutine and is skipped if the tap was invalidated meanwhile.
func (t *tap) deliver(e *event) {
	if !t.types.Contains(e.Type()) {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.valid {
		return
	}
	cb, info := t.spec.Callback, t.spec.UserInfo
	for _, a := range t.attached {
		a.loop.Perform(a.mode, func() {
			if t.isValid() {
				cb(e, info)
			}
		})
	}
}
