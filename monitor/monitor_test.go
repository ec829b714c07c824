package monitor

import (
	"errors"
	"fmt"
	"runtime"
	"sync/atomic"
	"testing"
	"time"

	"gridtap/runloop"
)

func mustPanicWithMisuse(t *testing.T, fn func()) {
	t.Helper()
	defer func() {
		r := recover()
		if r == nil {
			t.Fatal("expected panic")
		}
		err, ok := r.(error)
		if !ok || !errors.Is(err, ErrMisuse) {
			t.Fatalf("expected ErrMisuse panic, got %v", r)
		}
	}()
	fn()
}

func startOn(t *testing.T, m *Monitor, l *runloop.Loop) {
	t.Helper()
	if err := m.Start(WithRunLoop(l)); err != nil {
		t.Fatalf("start: %v", err)
	}
}

func TestStartRequestsUnionOfRegisteredCategories(t *testing.T) {
	f := NewFakeFacility()
	m := New(f)
	m.HandleType(EventMouseMoved, func(Event) {})
	m.Handle(NewCategorySet(EventMouseMoved, EventKeyDown), func(Event) {})
	m.Handle(MouseButtonDown, func(Event) {})

	l := runloop.New()
	startOn(t, m, l)
	defer m.Close()

	reqs := f.Requests()
	if len(reqs) != 1 {
		t.Fatalf("expected one tap request, got %d", len(reqs))
	}
	spec := reqs[0]
	want := EventMask(1<<5 | 1<<10 | 1<<1 | 1<<3 | 1<<25)
	if spec.Mask != want {
		t.Fatalf("expected mask %#x, got %#x", want, spec.Mask)
	}
	if spec.Options != TapOptionListenOnly {
		t.Fatalf("expected listen-only tap")
	}
	if spec.Location != SessionEventTap || spec.Placement != TailAppendEventTap {
		t.Fatalf("unexpected location/placement %v/%v", spec.Location, spec.Placement)
	}
	if m.State() != StateActive {
		t.Fatalf("expected active, got %s", m.State())
	}
	if !f.Taps()[0].Attached(l) {
		t.Fatalf("expected tap attached to the given loop")
	}
}

func TestStartWithoutHandlersIsNoop(t *testing.T) {
	f := NewFakeFacility()
	m := New(f)

	if err := m.Start(WithRunLoop(runloop.New())); err != nil {
		t.Fatalf("start: %v", err)
	}
	if len(f.Requests()) != 0 {
		t.Fatalf("expected no tap to be created")
	}
	if m.State() != StateUnstarted {
		t.Fatalf("expected unstarted, got %s", m.State())
	}
	if err := m.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if m.State() != StateClosed {
		t.Fatalf("expected closed, got %s", m.State())
	}
}

func TestDispatchScenario(t *testing.T) {
	f := NewFakeFacility()
	m := New(f)
	var calls []string
	m.HandleType(EventMouseMoved, func(Event) { calls = append(calls, "H1") })
	m.Handle(NewCategorySet(EventMouseMoved, EventKeyDown), func(Event) { calls = append(calls, "H2") })

	l := runloop.New()
	startOn(t, m, l)
	defer m.Close()
	tap := f.Taps()[0]

	tap.Post(FakeEvent{Kind: EventMouseMoved, At: Point{10, 20}})
	l.RunPending()
	if fmt.Sprint(calls) != "[H1 H2]" {
		t.Fatalf("expected [H1 H2], got %v", calls)
	}

	calls = nil
	tap.Post(FakeEvent{Kind: EventKeyDown, Text: "a"})
	l.RunPending()
	if fmt.Sprint(calls) != "[H2]" {
		t.Fatalf("expected [H2], got %v", calls)
	}
}

func TestDispatchCallsEachMatchingHandlerOnceInOrder(t *testing.T) {
	f := NewFakeFacility()
	m := New(f)

	sets := []CategorySet{
		NewCategorySet(EventKeyDown),
		NewCategorySet(EventMouseMoved),
		NewCategorySet(EventKeyDown, EventKeyUp),
		NewCategorySet(EventScrollWheel),
		NewCategorySet(EventKeyDown),
	}
	counts := make([]int, len(sets))
	var order []int
	for i, s := range sets {
		i := i
		m.Handle(s, func(Event) {
			counts[i]++
			order = append(order, i)
		})
	}

	l := runloop.New()
	startOn(t, m, l)
	defer m.Close()

	f.Taps()[0].Post(FakeEvent{Kind: EventKeyDown})
	l.RunPending()

	want := []int{1, 0, 1, 0, 1}
	for i := range want {
		if counts[i] != want[i] {
			t.Fatalf("handler %d: expected %d calls, got %d", i, want[i], counts[i])
		}
	}
	if fmt.Sprint(order) != "[0 2 4]" {
		t.Fatalf("expected order [0 2 4], got %v", order)
	}
}

func TestDispatchReturnsNoReplacement(t *testing.T) {
	f := NewFakeFacility()
	m := New(f)
	m.HandleType(EventMouseMoved, func(Event) {})
	startOn(t, m, runloop.New())
	defer m.Close()

	if got := f.Taps()[0].Deliver(FakeEvent{Kind: EventMouseMoved}); got != nil {
		t.Fatalf("expected nil (no modification), got %v", got)
	}
}

func TestNoDispatchAfterClose(t *testing.T) {
	f := NewFakeFacility()
	m := New(f)
	calls := 0
	m.HandleType(EventMouseMoved, func(Event) { calls++ })

	l := runloop.New()
	startOn(t, m, l)
	tap := f.Taps()[0]

	// Queued before Close but serviced after it.
	tap.Post(FakeEvent{Kind: EventMouseMoved})
	if err := m.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	l.RunPending()

	if tap.Post(FakeEvent{Kind: EventMouseMoved}) {
		t.Fatalf("expected invalidated tap to refuse events")
	}
	tap.Deliver(FakeEvent{Kind: EventMouseMoved})
	l.RunPending()

	if calls != 0 {
		t.Fatalf("expected no dispatch after close, got %d", calls)
	}
	if tap.Invalidations() != 1 {
		t.Fatalf("expected exactly one invalidation, got %d", tap.Invalidations())
	}
	if tap.Attached(l) || l.Contains(tap, runloop.DefaultMode) {
		t.Fatalf("expected tap detached from loop")
	}

	if err := m.Close(); err != nil {
		t.Fatalf("second close: %v", err)
	}
	if tap.Invalidations() != 1 {
		t.Fatalf("expected close to be idempotent, got %d invalidations", tap.Invalidations())
	}
}

func TestCloseRemovesRoute(t *testing.T) {
	before := routes.len()

	f := NewFakeFacility()
	m := New(f)
	m.HandleType(EventKeyUp, func(Event) {})
	startOn(t, m, runloop.New())
	if routes.len() != before+1 {
		t.Fatalf("expected one route while active")
	}
	m.Close()
	if routes.len() != before {
		t.Fatalf("expected route removed on close")
	}
}

func TestUnreachableMonitorIsTornDown(t *testing.T) {
	f := NewFakeFacility()
	l := runloop.New()
	var calls atomic.Int32

	func() {
		m := New(f)
		m.HandleType(EventMouseMoved, func(Event) { calls.Add(1) })
		startOn(t, m, l)
	}()

	deadline := time.Now().Add(2 * time.Second)
	for f.LiveTaps() != 0 {
		if time.Now().After(deadline) {
			t.Fatal("timed out waiting for the collector to tear the monitor down")
		}
		runtime.GC()
		time.Sleep(10 * time.Millisecond)
	}

	tap := f.Taps()[0]
	if tap.Invalidations() != 1 {
		t.Fatalf("expected exactly one invalidation, got %d", tap.Invalidations())
	}
	if l.Contains(tap, runloop.DefaultMode) {
		t.Fatal("expected tap detached from loop")
	}
	if _, ok := routes.lookup(tap.Spec().UserInfo); ok {
		t.Fatal("expected route removed by teardown")
	}
	tap.Deliver(FakeEvent{Kind: EventMouseMoved})
	if calls.Load() != 0 {
		t.Fatalf("expected no dispatch after teardown, got %d", calls.Load())
	}
}

func TestStartTwicePanicsWithoutSecondTap(t *testing.T) {
	f := NewFakeFacility()
	m := New(f)
	m.HandleType(EventMouseMoved, func(Event) {})
	startOn(t, m, runloop.New())
	defer m.Close()

	mustPanicWithMisuse(t, func() { m.Start() })
	if len(f.Requests()) != 1 || f.LiveTaps() != 1 {
		t.Fatalf("expected exactly one live tap, got %d requests / %d live", len(f.Requests()), f.LiveTaps())
	}
}

func TestStartAfterClosePanics(t *testing.T) {
	f := NewFakeFacility()
	m := New(f)
	m.HandleType(EventMouseMoved, func(Event) {})
	m.Close()

	mustPanicWithMisuse(t, func() { m.Start() })
	if len(f.Requests()) != 0 {
		t.Fatalf("expected no tap on a closed monitor")
	}
}

func TestHandleAfterStartPanics(t *testing.T) {
	f := NewFakeFacility()
	m := New(f)
	m.HandleType(EventMouseMoved, func(Event) {})
	startOn(t, m, runloop.New())
	defer m.Close()

	mustPanicWithMisuse(t, func() { m.HandleType(EventKeyDown, func(Event) {}) })
	mustPanicWithMisuse(t, func() { m.HandleKeyDown(func(string, ModifierFlags) {}) })
}

func TestHandleNilPanics(t *testing.T) {
	m := New(NewFakeFacility())
	mustPanicWithMisuse(t, func() { m.HandleType(EventMouseMoved, nil) })
}

func TestPermissionDenialThenRetry(t *testing.T) {
	before := routes.len()

	f := NewFakeFacility()
	f.Err = errors.New("accessibility permission not granted")
	m := New(f)
	m.HandleType(EventMouseMoved, func(Event) {})

	err := m.Start(WithRunLoop(runloop.New()))
	if !errors.Is(err, ErrHookCreationFailed) {
		t.Fatalf("expected ErrHookCreationFailed, got %v", err)
	}
	if m.State() != StateUnstarted {
		t.Fatalf("expected unstarted after failure, got %s", m.State())
	}
	if routes.len() != before {
		t.Fatalf("expected failed start to leave no route")
	}

	l := runloop.New()
	startOn(t, m, l)
	defer m.Close()
	if len(f.Requests()) != 2 || f.LiveTaps() != 1 {
		t.Fatalf("expected a second independent tap request")
	}
	if m.State() != StateActive {
		t.Fatalf("expected active after retry, got %s", m.State())
	}
}

func TestDisabledTapIsReleased(t *testing.T) {
	f := NewFakeFacility()
	f.Disabled = true
	m := New(f)
	m.HandleType(EventMouseMoved, func(Event) {})

	err := m.Start(WithRunLoop(runloop.New()))
	if !errors.Is(err, ErrHookCreationFailed) {
		t.Fatalf("expected ErrHookCreationFailed, got %v", err)
	}
	if m.State() != StateUnstarted {
		t.Fatalf("expected unstarted, got %s", m.State())
	}
	taps := f.Taps()
	if len(taps) != 1 || taps[0].Valid() {
		t.Fatalf("expected the disabled tap to be invalidated")
	}
}

func TestStartUsesRequestedMode(t *testing.T) {
	f := NewFakeFacility()
	m := New(f)
	var calls int
	m.HandleType(EventScrollWheel, func(Event) { calls++ })

	l := runloop.New()
	if err := m.Start(WithRunLoop(l), WithMode(runloop.Mode("tracking"))); err != nil {
		t.Fatalf("start: %v", err)
	}
	defer m.Close()

	f.Taps()[0].Post(FakeEvent{Kind: EventScrollWheel})
	if n := l.RunPending(); n != 0 {
		t.Fatalf("default mode must not service tracking work, ran %d", n)
	}
	if !l.Contains(f.Taps()[0], runloop.Mode("tracking")) {
		t.Fatalf("expected tap attached in tracking mode")
	}
}

func TestStartDefaultsToCurrentLoop(t *testing.T) {
	f := NewFakeFacility()
	m := New(f)
	m.HandleType(EventMouseMoved, func(Event) {})
	if err := m.Start(); err != nil {
		t.Fatalf("start: %v", err)
	}
	defer m.Close()

	if !f.Taps()[0].Attached(runloop.Current()) {
		t.Fatalf("expected tap on the current loop")
	}
}
