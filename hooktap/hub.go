package hooktap

import (
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	hook "github.com/robotn/gohook"
)

// pressWait bounds how long a key press is held back waiting for the typed
// event libuiohook posts right after it.
const pressWait = 20 * time.Millisecond

// session is one run of the process-wide gohook event loop.
type session struct {
	events    chan hook.Event
	stop      chan struct{}
	ready     chan struct{}
	readyOnce sync.Once
	disabled  atomic.Bool
	failed    atomic.Bool
}

func newSession(events chan hook.Event) *session {
	return &session{
		events: events,
		stop:   make(chan struct{}),
		ready:  make(chan struct{}),
	}
}

func (s *session) markReady(disabled bool) {
	if disabled {
		s.disabled.Store(true)
	}
	s.readyOnce.Do(func() { close(s.ready) })
}

// enabled waits up to timeout for gohook to report its hook running. gohook
// reports HookEnabled only once the hook is installed; when it is refused,
// for example without Input Monitoring permission, it stays silent. A session
// that times out or reports HookDisabled is marked failed.
func (s *session) enabled(timeout time.Duration) bool {
	select {
	case <-s.ready:
	default:
		timer := time.NewTimer(timeout)
		defer timer.Stop()
		select {
		case <-s.ready:
		case <-timer.C:
			s.failed.Store(true)
			return false
		}
	}
	if s.disabled.Load() {
		s.failed.Store(true)
		return false
	}
	return true
}

// hub shares the single gohook event stream between all live taps. gohook is
// global to the process, so the stream starts with the first tap and ends
// with the last one.
type hub struct {
	mu     sync.Mutex
	start  func() chan hook.Event
	end    func()
	taps   map[*tap]struct{}
	sess   *session
	logger *slog.Logger
}

func newHub(start func() chan hook.Event, end func(), logger *slog.Logger) *hub {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &hub{
		start:  start,
		end:    end,
		taps:   make(map[*tap]struct{}),
		logger: logger,
	}
}

var (
	defaultHubOnce sync.Once
	defaultHub     *hub
)

func sharedHub(logger *slog.Logger) *hub {
	defaultHubOnce.Do(func() {
		defaultHub = newHub(hook.Start, hook.End, logger)
	})
	return defaultHub
}

func (h *hub) acquire(t *tap) *session {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.sess != nil && h.sess.failed.Load() {
		// Taps still holding the failed session are dead; the next Start
		// must get a fresh hook.
		for old := range h.taps {
			if old.sess == h.sess {
				delete(h.taps, old)
			}
		}
		h.endLocked()
	}
	if h.sess == nil {
		s := newSession(h.start())
		h.sess = s
		h.logger.Debug("gohook event stream started")
		go h.pump(s)
	}
	h.taps[t] = struct{}{}
	t.sess = h.sess
	return h.sess
}

func (h *hub) release(t *tap) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.taps[t]; !ok {
		return
	}
	delete(h.taps, t)
	if t.sess != h.sess || len(h.taps) > 0 {
		return
	}
	h.endLocked()
}

func (h *hub) endLocked() {
	close(h.sess.stop)
	h.sess = nil
	h.end()
	h.logger.Debug("gohook event stream ended")
}

func (h *hub) live() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.taps)
}

func (h *hub) pump(s *session) {
	var keys keyPresses
	for {
		var flush <-chan time.Time
		if keys.holding() {
			flush = time.After(pressWait)
		}

		select {
		case <-s.stop:
			return
		case <-flush:
			h.dispatch(s, keys.flush())
		case e, ok := <-s.events:
			if !ok {
				return
			}
			switch e.Kind {
			case hook.HookEnabled:
				s.markReady(false)
			case hook.HookDisabled:
				s.markReady(true)
				h.logger.Warn("gohook reported its hook disabled")
			default:
				h.dispatch(s, keys.feed(e)...)
			}
		}
	}
}

func (h *hub) dispatch(s *session, evs ...*event) {
	if len(evs) == 0 {
		return
	}

	h.mu.Lock()
	if h.sess != s {
		h.mu.Unlock()
		return
	}
	taps := make([]*tap, 0, len(h.taps))
	for t := range h.taps {
		taps = append(taps, t)
	}
	h.mu.Unlock()

	for _, ev := range evs {
		for _, t := range taps {
			t.deliver(ev)
		}
	}
}
