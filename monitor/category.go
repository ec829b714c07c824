package monitor

import (
	"fmt"
	"math/bits"
	"strings"
)

// EventType identifies a kind of input event. The ordinals follow the Quartz
// CGEventType numbering so a mask built from them can be handed to a session
// event tap unchanged.
type EventType uint32

const (
	EventNull              EventType = 0
	EventLeftMouseDown     EventType = 1
	EventLeftMouseUp       EventType = 2
	EventRightMouseDown    EventType = 3
	EventRightMouseUp      EventType = 4
	EventMouseMoved        EventType = 5
	EventLeftMouseDragged  EventType = 6
	EventRightMouseDragged EventType = 7
	EventKeyDown           EventType = 10
	EventKeyUp             EventType = 11
	EventFlagsChanged      EventType = 12
	EventScrollWheel       EventType = 22
	EventTabletPointer     EventType = 23
	EventTabletProximity   EventType = 24
	EventOtherMouseDown    EventType = 25
	EventOtherMouseUp      EventType = 26
	EventOtherMouseDragged EventType = 27
)

// maxEventType bounds the ordinals a CategorySet can hold.
const maxEventType = 64

var eventTypeNames = map[EventType]string{
	EventNull:              "null",
	EventLeftMouseDown:     "left-mouse-down",
	EventLeftMouseUp:       "left-mouse-up",
	EventRightMouseDown:    "right-mouse-down",
	EventRightMouseUp:      "right-mouse-up",
	EventMouseMoved:        "mouse-moved",
	EventLeftMouseDragged:  "left-mouse-dragged",
	EventRightMouseDragged: "right-mouse-dragged",
	EventKeyDown:           "key-down",
	EventKeyUp:             "key-up",
	EventFlagsChanged:      "flags-changed",
	EventScrollWheel:       "scroll-wheel",
	EventTabletPointer:     "tablet-pointer",
	EventTabletProximity:   "tablet-proximity",
	EventOtherMouseDown:    "other-mouse-down",
	EventOtherMouseUp:      "other-mouse-up",
	EventOtherMouseDragged: "other-mouse-dragged",
}

func (t EventType) String() string {
	if name, ok := eventTypeNames[t]; ok {
		return name
	}
	return fmt.Sprintf("event-type(%d)", uint32(t))
}

// EventMask is the hook facility's encoding of a CategorySet: bit n is set
// when EventType n is requested.
type EventMask uint64

// CategorySet is a set of event types. The zero value is the empty set and
// sets compare with ==.
type CategorySet struct {
	bits EventMask
}

// NewCategorySet returns the set holding types. It panics on an ordinal the
// mask cannot represent.
func NewCategorySet(types ...EventType) CategorySet {
	var s CategorySet
	for _, t := range types {
		s = s.With(t)
	}
	return s
}

// CategorySetFromMask decodes a facility mask.
func CategorySetFromMask(m EventMask) CategorySet {
	return CategorySet{bits: m}
}

// With returns s plus t.
func (s CategorySet) With(t EventType) CategorySet {
	if t >= maxEventType {
		panic(fmt.Errorf("%w: event type %d does not fit in an event mask", ErrMisuse, uint32(t)))
	}
	s.bits |= 1 << t
	return s
}

func (s CategorySet) Union(o CategorySet) CategorySet {
	return CategorySet{bits: s.bits | o.bits}
}

func (s CategorySet) Contains(t EventType) bool {
	if t >= maxEventType {
		return false
	}
	return s.bits&(1<<t) != 0
}

func (s CategorySet) Len() int {
	return bits.OnesCount64(uint64(s.bits))
}

func (s CategorySet) IsEmpty() bool {
	return s.bits == 0
}

// Types lists the members in ordinal order.
func (s CategorySet) Types() []EventType {
	types := make([]EventType, 0, s.Len())
	for m := uint64(s.bits); m != 0; m &= m - 1 {
		types = append(types, EventType(bits.TrailingZeros64(m)))
	}
	return types
}

// Mask encodes s for the hook facility.
func (s CategorySet) Mask() EventMask {
	return s.bits
}

func (s CategorySet) String() string {
	types := s.Types()
	names := make([]string, len(types))
	for i, t := range types {
		names[i] = t.String()
	}
	return "{" + strings.Join(names, ", ") + "}"
}

// Common sets used by consumers.
var (
	MouseButtonDown = NewCategorySet(EventLeftMouseDown, EventRightMouseDown, EventOtherMouseDown)
	MouseButtonUp   = NewCategorySet(EventLeftMouseUp, EventRightMouseUp, EventOtherMouseUp)
	PointerMotion   = NewCategorySet(EventMouseMoved, EventLeftMouseDragged, EventRightMouseDragged, EventOtherMouseDragged)
	Keyboard        = NewCategorySet(EventKeyDown, EventKeyUp, EventFlagsChanged)
)
