package gridtap

import (
	"sync/atomic"

	"gridtap/gridtap_event"
)

// Counter is a Sink that counts activities. OnActivity runs on the run loop
// goroutine while Drain is called from the flush goroutine.
type Counter struct {
	moves, taps, keys, clicks, scrolls atomic.Int64
}

func (c *Counter) OnActivity(a gridtap_event.Activity) {
	switch a.Kind {
	case gridtap_event.ActivityMove:
		c.moves.Add(1)
	case gridtap_event.ActivityTap:
		c.taps.Add(1)
	case gridtap_event.ActivityKey:
		c.keys.Add(1)
	case gridtap_event.ActivityClick:
		c.clicks.Add(1)
	case gridtap_event.ActivityScroll:
		c.scrolls.Add(1)
	}
}

// Drain returns the counts since the previous Drain and resets them.
func (c *Counter) Drain() Counts {
	return Counts{
		Moves:   c.moves.Swap(0),
		Taps:    c.taps.Swap(0),
		Keys:    c.keys.Swap(0),
		Clicks:  c.clicks.Swap(0),
		Scrolls: c.scrolls.Swap(0),
	}
}
