package hooktap

import (
	"time"
	"unicode/utf16"

	hook "github.com/robotn/gohook"

	"gridtap/monitor"
)

// gohook names follow libuiohook's numbering, where "KeyDown" is the typed
// event, "MouseHold" the press and "MouseDown" the release.
const (
	kindKeyTyped      = hook.KeyDown
	kindKeyPressed    = hook.KeyHold
	kindKeyReleased   = hook.KeyUp
	kindMousePressed  = hook.MouseHold
	kindMouseReleased = hook.MouseDown
)

// charUndefined is libuiohook's CHAR_UNDEFINED.
const charUndefined = 0xFFFF

// libuiohook modifier and button mask bits.
const (
	maskShiftL   = 1 << 0
	maskCtrlL    = 1 << 1
	maskMetaL    = 1 << 2
	maskAltL     = 1 << 3
	maskShiftR   = 1 << 4
	maskCtrlR    = 1 << 5
	maskMetaR    = 1 << 6
	maskAltR     = 1 << 7
	maskButton1  = 1 << 8
	maskButton2  = 1 << 9
	maskNumLock  = 1 << 13
	maskCapsLock = 1 << 14
)

// libuiohook virtual key codes of modifier keys.
var modifierKeycodes = map[uint16]bool{
	0x002A: true, // shift left
	0x0036: true, // shift right
	0x001D: true, // control left
	0x0E1D: true, // control right
	0x0038: true, // alt left
	0x0E38: true, // alt right
	0x0E5B: true, // meta left
	0x0E5C: true, // meta right
	0x003A: true, // caps lock
}

const (
	buttonLeft  = 1
	buttonRight = 2
)

// event is the monitor.Event handed to handlers. Text is captured when the
// hook event arrives, so decoding never touches gohook state.
type event struct {
	kind    monitor.EventType
	at      monitor.Point
	flags   monitor.ModifierFlags
	text    []uint16
	keycode uint16
	button  uint16
	amount  int32
	when    time.Time
}

func (e *event) Type() monitor.EventType      { return e.kind }
func (e *event) Location() monitor.Point      { return e.at }
func (e *event) Flags() monitor.ModifierFlags { return e.flags }

func (e *event) KeyboardUnicode(buf []uint16) int {
	if len(buf) == 0 {
		return len(e.text)
	}
	return copy(buf, e.text)
}

// Keycode is the libuiohook virtual key code of a key event.
func (e *event) Keycode() uint16 { return e.keycode }

// Button is the libuiohook button number of a mouse button event.
func (e *event) Button() uint16 { return e.button }

// ScrollAmount is the signed wheel rotation of a scroll event.
func (e *event) ScrollAmount() int32 { return e.amount }

func (e *event) When() time.Time { return e.when }

// translate maps a gohook event onto the monitor's categories. It reports
// false for events the monitor has no category for.
func translate(h hook.Event) (*event, bool) {
	e := &event{
		at:      monitor.Point{X: float64(h.X), Y: float64(h.Y)},
		flags:   translateMask(h.Mask),
		keycode: h.Keycode,
		button:  h.Button,
		when:    h.When,
	}

	switch h.Kind {
	case kindKeyTyped:
		e.kind = monitor.EventKeyDown
		e.text = keyText(h.Keychar)
	case kindKeyPressed:
		e.kind = monitor.EventKeyDown
		if modifierKeycodes[h.Keycode] {
			e.kind = monitor.EventFlagsChanged
		}
	case kindKeyReleased:
		e.kind = monitor.EventKeyUp
	case kindMousePressed:
		e.kind = pickButton(h.Button, monitor.EventLeftMouseDown, monitor.EventRightMouseDown, monitor.EventOtherMouseDown)
	case kindMouseReleased:
		e.kind = pickButton(h.Button, monitor.EventLeftMouseUp, monitor.EventRightMouseUp, monitor.EventOtherMouseUp)
	case hook.MouseMove:
		e.kind = monitor.EventMouseMoved
	case hook.MouseDrag:
		switch {
		case h.Mask&maskButton1 != 0:
			e.kind = monitor.EventLeftMouseDragged
		case h.Mask&maskButton2 != 0:
			e.kind = monitor.EventRightMouseDragged
		case h.Mask&(maskButton1<<2|maskButton1<<3|maskButton1<<4) != 0:
			e.kind = monitor.EventOtherMouseDragged
		default:
			e.kind = monitor.EventLeftMouseDragged
		}
	case hook.MouseWheel:
		e.kind = monitor.EventScrollWheel
		e.amount = h.Rotation
	default:
		return nil, false
	}
	return e, true
}

func keyText(c rune) []uint16 {
	if c == charUndefined || c == 0 {
		return nil
	}
	return utf16.Encode([]rune{c})
}

// keyPresses folds libuiohook's pressed/typed pair into one key-down. A
// press is held until the typed event that follows it supplies the text, or
// until something else arrives, in which case it goes out without text.
type keyPresses struct {
	pending *event
}

// feed returns the events ready for dispatch, in order.
func (k *keyPresses) feed(h hook.Event) []*event {
	if h.Kind == kindKeyTyped && k.pending != nil {
		e := k.pending
		k.pending = nil
		e.text = keyText(h.Keychar)
		return []*event{e}
	}

	var out []*event
	if e := k.flush(); e != nil {
		out = append(out, e)
	}
	e, ok := translate(h)
	if !ok {
		return out
	}
	if h.Kind == kindKeyPressed && e.kind == monitor.EventKeyDown {
		k.pending = e
		return out
	}
	return append(out, e)
}

// flush releases a held press, if any.
func (k *keyPresses) flush() *event {
	e := k.pending
	k.pending = nil
	return e
}

func (k *keyPresses) holding() bool {
	return k.pending != nil
}

func pickButton(button uint16, left, right, other monitor.EventType) monitor.EventType {
	switch button {
	case buttonLeft:
		return left
	case buttonRight:
		return right
	}
	return other
}

func translateMask(mask uint16) monitor.ModifierFlags {
	var f monitor.ModifierFlags
	if mask&(maskShiftL|maskShiftR) != 0 {
		f |= monitor.FlagShift
	}
	if mask&(maskCtrlL|maskCtrlR) != 0 {
		f |= monitor.FlagControl
	}
	if mask&(maskAltL|maskAltR) != 0 {
		f |= monitor.FlagAlternate
	}
	if mask&(maskMetaL|maskMetaR) != 0 {
		f |= monitor.FlagCommand
	}
	if mask&maskCapsLock != 0 {
		f |= monitor.FlagAlphaShift
	}
	if mask&maskNumLock != 0 {
		f |= monitor.FlagNumericPad
	}
	return f
}
