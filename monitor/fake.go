package monitor

import (
	"sync"
	"unicode/utf16"

	"gridtap/runloop"
)

// FakeFacility is an in-memory Facility for tests and dry runs. Events posted
// to its taps are queued on the tap's run loop like a real facility would.
type FakeFacility struct {
	mu sync.Mutex
	// Err, when set, is returned by the next CreateTap and then cleared.
	Err error
	// Disabled makes created taps report Enabled() == false.
	Disabled bool

	taps  []*FakeTap
	specs []TapSpec
}

func NewFakeFacility() *FakeFacility {
	return &FakeFacility{}
}

func (f *FakeFacility) CreateTap(spec TapSpec) (Tap, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.specs = append(f.specs, spec)
	if err := f.Err; err != nil {
		f.Err = nil
		return nil, err
	}
	tap := &FakeTap{spec: spec, enabled: !f.Disabled, valid: true}
	f.taps = append(f.taps, tap)
	return tap, nil
}

// Taps returns every tap created so far, including invalidated ones.
func (f *FakeFacility) Taps() []*FakeTap {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]*FakeTap(nil), f.taps...)
}

// Requests returns the spec of every CreateTap call, successful or not.
func (f *FakeFacility) Requests() []TapSpec {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]TapSpec(nil), f.specs...)
}

// LiveTaps counts taps that are not yet invalidated.
func (f *FakeFacility) LiveTaps() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, t := range f.taps {
		if t.Valid() {
			n++
		}
	}
	return n
}

type fakeAttachment struct {
	loop *runloop.Loop
	mode runloop.Mode
}

type FakeTap struct {
	mu          sync.Mutex
	spec        TapSpec
	enabled     bool
	valid       bool
	invalidated int
	attached    []fakeAttachment
}

func (t *FakeTap) Spec() TapSpec { return t.spec }

func (t *FakeTap) Enabled() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.enabled && t.valid
}

func (t *FakeTap) Valid() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.valid
}

// Invalidations counts calls to Invalidate.
func (t *FakeTap) Invalidations() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.invalidated
}

func (t *FakeTap) Invalidate() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.invalidated++
	t.valid = false
	t.attached = nil
}

func (t *FakeTap) Schedule(l *runloop.Loop, mode runloop.Mode) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.valid {
		return
	}
	t.attached = append(t.attached, fakeAttachment{loop: l, mode: mode})
}

func (t *FakeTap) Cancel(l *runloop.Loop, mode runloop.Mode) {
	t.mu.Lock()
	defer t.mu.Unlock()
	for i, a := range t.attached {
		if a.loop == l && a.mode == mode {
			t.attached = append(t.attached[:i], t.attached[i+1:]...)
			return
		}
	}
}

// Attached reports whether the tap is scheduled on l.
func (t *FakeTap) Attached(l *runloop.Loop) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	for _, a := range t.attached {
		if a.loop == l {
			return true
		}
	}
	return false
}

// Scheduled reports whether the tap is attached to any loop.
func (t *FakeTap) Scheduled() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.attached) > 0
}

// Post queues e on every loop the tap is attached to, if the tap is valid and
// its mask requests e's type. It reports whether the event was queued.
func (t *FakeTap) Post(e Event) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.valid || !CategorySetFromMask(t.spec.Mask).Contains(e.Type()) {
		return false
	}
	for _, a := range t.attached {
		cb, info := t.spec.Callback, t.spec.UserInfo
		a.loop.Perform(a.mode, func() { cb(e, info) })
	}
	return len(t.attached) > 0
}

// Deliver calls the tap callback directly, bypassing validity and the mask,
// the way a stale OS reference might.
func (t *FakeTap) Deliver(e Event) Event {
	return t.spec.Callback(e, t.spec.UserInfo)
}

// FakeEvent is a plain Event value.
type FakeEvent struct {
	Kind     EventType
	At       Point
	Modifier ModifierFlags
	Text     string
}

func (e FakeEvent) Type() EventType      { return e.Kind }
func (e FakeEvent) Location() Point      { return e.At }
func (e FakeEvent) Flags() ModifierFlags { return e.Modifier }

func (e FakeEvent) KeyboardUnicode(buf []uint16) int {
	units := utf16.Encode([]rune(e.Text))
	if len(buf) == 0 {
		return len(units)
	}
	return copy(buf, units)
}
