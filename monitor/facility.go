package monitor

import "gridtap/runloop"

// TapLocation is where in the event stream a tap is installed.
type TapLocation int

const (
	HIDEventTap TapLocation = iota
	SessionEventTap
	AnnotatedSessionEventTap
)

// TapPlacement orders a tap relative to taps already at its location.
type TapPlacement int

const (
	HeadInsertEventTap TapPlacement = iota
	TailAppendEventTap
)

// TapOptions selects between an active filter and a passive listener.
type TapOptions int

const (
	TapOptionDefault TapOptions = iota
	TapOptionListenOnly
)

// TapCallback is invoked by the facility for every event matching the tap's
// mask. userInfo is the opaque value from TapSpec. A listen-only tap ignores
// the returned event; returning nil means the event is left untouched.
type TapCallback func(e Event, userInfo uintptr) Event

type TapSpec struct {
	Location  TapLocation
	Placement TapPlacement
	Options   TapOptions
	Mask      EventMask
	Callback  TapCallback
	UserInfo  uintptr
}

// Tap is a created hook. Adding it to a run loop attaches it; events are
// delivered on whichever goroutine runs that loop.
type Tap interface {
	runloop.Source
	Enabled() bool
	// Invalidate stops delivery and detaches the tap from every loop. It is
	// safe to call more than once.
	Invalidate()
}

// Facility creates OS event taps.
type Facility interface {
	CreateTap(spec TapSpec) (Tap, error)
}
