package monitor

import (
	"fmt"
	"strings"
)

// Point is a location in global screen coordinates.
type Point struct {
	X, Y float64
}

func (p Point) String() string {
	return fmt.Sprintf("(%.1f, %.1f)", p.X, p.Y)
}

// Event is an observed input event. Implementations belong to the hook
// facility and are only valid for the duration of the handler call.
type Event interface {
	Type() EventType
	Location() Point
	Flags() ModifierFlags
	// KeyboardUnicode copies the text the OS resolved for a key event into buf
	// and returns the number of UTF-16 units written. With an empty buf it
	// returns the length required to hold the whole text.
	KeyboardUnicode(buf []uint16) int
}

// ModifierFlags uses the Quartz CGEventFlags bit values.
type ModifierFlags uint64

const (
	FlagAlphaShift  ModifierFlags = 1 << 16
	FlagShift       ModifierFlags = 1 << 17
	FlagControl     ModifierFlags = 1 << 18
	FlagAlternate   ModifierFlags = 1 << 19
	FlagCommand     ModifierFlags = 1 << 20
	FlagNumericPad  ModifierFlags = 1 << 21
	FlagHelp        ModifierFlags = 1 << 22
	FlagSecondaryFn ModifierFlags = 1 << 23
)

var flagNames = []struct {
	flag ModifierFlags
	name string
}{
	{FlagAlphaShift, "capslock"},
	{FlagShift, "shift"},
	{FlagControl, "ctrl"},
	{FlagAlternate, "alt"},
	{FlagCommand, "cmd"},
	{FlagNumericPad, "numpad"},
	{FlagHelp, "help"},
	{FlagSecondaryFn, "fn"},
}

func (f ModifierFlags) Has(flag ModifierFlags) bool {
	return f&flag == flag
}

func (f ModifierFlags) String() string {
	var names []string
	for _, fn := range flagNames {
		if f.Has(fn.flag) {
			names = append(names, fn.name)
		}
	}
	if len(names) == 0 {
		return "none"
	}
	return strings.Join(names, "+")
}
