package monitor

import "unicode/utf16"

// KeyDownFunc receives the text typed by a key press and the active modifiers.
type KeyDownFunc func(text string, flags ModifierFlags)

// HandleKeyDown registers fn for key-down events that resolve to text. Presses
// that produce no text, such as a bare modifier, are dropped.
func (m *Monitor) HandleKeyDown(fn KeyDownFunc) {
	if fn == nil {
		m.misuse("nil key-down handler")
	}
	m.HandleType(EventKeyDown, decodeKeyDown(fn))
}

func decodeKeyDown(fn KeyDownFunc) HandlerFunc {
	return func(e Event) {
		n := e.KeyboardUnicode(nil)
		if n == 0 {
			return
		}
		buf := make([]uint16, n)
		n = e.KeyboardUnicode(buf)
		fn(string(utf16.Decode(buf[:n])), e.Flags())
	}
}
