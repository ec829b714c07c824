//go:build !darwin || !cgo

package gridtap_event

import "io"

// Without a haptic engine the bell is the closest feedback.
func newHapticPerformer(out io.Writer) Performer {
	return &BellPerformer{Out: out}
}
