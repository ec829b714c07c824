// Package monitor observes system-wide input events through a passive,
// listen-only event tap and fans each event out to registered handlers.
//
// Register handlers first, then call Start. The tap requests exactly the
// union of the registered categories and is torn down by Close:
//
//	m := monitor.New(facility)
//	m.HandleType(monitor.EventMouseMoved, func(e monitor.Event) { ... })
//	if err := m.Start(); err != nil {
//		return err
//	}
//	defer m.Close()
//
// Handlers run on the goroutine driving the run loop the tap is attached to.
// A slow handler delays every later event, so handlers must not block.
package monitor

import (
	"fmt"
	"io"
	"log/slog"
	"runtime"

	"gridtap/runloop"
)

type State int

const (
	StateUnstarted State = iota
	StateActive
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateUnstarted:
		return "unstarted"
	case StateActive:
		return "active"
	case StateClosed:
		return "closed"
	}
	return fmt.Sprintf("state(%d)", int(s))
}

// Monitor owns at most one tap. It is not safe for concurrent use: Handle,
// Start and Close must not race with each other.
//
// An active Monitor that becomes unreachable is torn down by the garbage
// collector. Handlers are reachable from the tap, so a handler closure that
// captures its own Monitor keeps it alive and Close must be called.
type Monitor struct {
	facility Facility
	logger   *slog.Logger

	handlers handlers
	state    State

	tap   Tap
	route uintptr
	disp  *dispatcher
	loop  *runloop.Loop
	mode  runloop.Mode
}

type Option func(*Monitor)

func WithLogger(logger *slog.Logger) Option {
	return func(m *Monitor) {
		if logger != nil {
			m.logger = logger
		}
	}
}

func New(facility Facility, opts ...Option) *Monitor {
	m := &Monitor{
		facility: facility,
		logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
		state:    StateUnstarted,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Handle registers fn for every event whose type is in types. The same type
// may be claimed by any number of handlers; all of them are called, in
// registration order. Handle panics once the monitor has been started.
func (m *Monitor) Handle(types CategorySet, fn HandlerFunc) {
	if m.state != StateUnstarted {
		m.misuse("handlers must be registered before Start (state %s)", m.state)
	}
	if fn == nil {
		m.misuse("nil handler for %s", types)
	}
	m.handlers = append(m.handlers, handler{types: types, fn: fn})
}

// HandleType registers fn for events of a single type.
func (m *Monitor) HandleType(t EventType, fn HandlerFunc) {
	m.Handle(NewCategorySet(t), fn)
}

// Categories is the union of the categories requested so far.
func (m *Monitor) Categories() CategorySet {
	return m.handlers.categories()
}

func (m *Monitor) State() State {
	return m.state
}

type startConfig struct {
	loop *runloop.Loop
	mode runloop.Mode
}

type StartOption func(*startConfig)

// WithRunLoop attaches the tap to l instead of runloop.Current().
func WithRunLoop(l *runloop.Loop) StartOption {
	return func(c *startConfig) {
		if l != nil {
			c.loop = l
		}
	}
}

func WithMode(mode runloop.Mode) StartOption {
	return func(c *startConfig) {
		if mode != "" {
			c.mode = mode
		}
	}
}

// Start installs the tap and attaches it to the run loop. Events are only
// delivered while that loop is running.
//
// With no handlers registered Start does nothing and the monitor stays
// unstarted. If the facility cannot create or enable the tap Start returns an
// error wrapping ErrHookCreationFailed and may be called again later. Calling
// Start on an active or closed monitor panics.
func (m *Monitor) Start(opts ...StartOption) error {
	if m.state != StateUnstarted {
		m.misuse("Start called on a %s monitor", m.state)
	}

	cfg := startConfig{loop: runloop.Current(), mode: runloop.DefaultMode}
	for _, opt := range opts {
		opt(&cfg)
	}

	types := m.handlers.categories()
	if types.IsEmpty() {
		m.logger.Debug("no handlers registered, not creating event tap")
		return nil
	}

	disp := &dispatcher{handlers: m.handlers}
	route := routes.add(disp)

	tap, err := m.facility.CreateTap(TapSpec{
		Location:  SessionEventTap,
		Placement: TailAppendEventTap,
		Options:   TapOptionListenOnly,
		Mask:      types.Mask(),
		Callback:  trampoline,
		UserInfo:  route,
	})
	if err != nil {
		routes.remove(route)
		return fmt.Errorf("%w: %w", ErrHookCreationFailed, err)
	}
	if tap == nil {
		routes.remove(route)
		return ErrHookCreationFailed
	}
	if !tap.Enabled() {
		tap.Invalidate()
		routes.remove(route)
		return fmt.Errorf("%w: tap is disabled", ErrHookCreationFailed)
	}

	cfg.loop.Add(tap, cfg.mode)

	m.tap = tap
	m.route = route
	m.disp = disp
	m.loop = cfg.loop
	m.mode = cfg.mode
	m.state = StateActive
	runtime.SetFinalizer(m, (*Monitor).teardown)

	m.logger.Info("event tap started", slog.String("categories", types.String()), slog.Int("handlers", len(m.handlers)))
	return nil
}

// Close invalidates the tap. After Close returns no handler is called again,
// even for events the facility had already queued. Close is idempotent.
func (m *Monitor) Close() error {
	if m.state == StateClosed {
		return nil
	}
	if m.state == StateActive {
		runtime.SetFinalizer(m, nil)
		m.teardown()
		m.logger.Info("event tap closed")
	}
	m.state = StateClosed
	return nil
}

func (m *Monitor) teardown() {
	if m.tap == nil {
		return
	}
	m.tap.Invalidate()
	m.loop.Remove(m.tap, m.mode)
	m.disp.closed.Store(true)
	routes.remove(m.route)
	m.tap = nil
	m.state = StateClosed
}

func (m *Monitor) misuse(format string, args ...any) {
	panic(fmt.Errorf("%w: %s", ErrMisuse, fmt.Sprintf(format, args...)))
}
