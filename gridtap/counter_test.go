package gridtap

import (
	"testing"

	"gridtap/gridtap_event"
)

func TestCounterDrainResets(t *testing.T) {
	c := &Counter{}
	for _, k := range []gridtap_event.ActivityKind{
		gridtap_event.ActivityMove,
		gridtap_event.ActivityMove,
		gridtap_event.ActivityTap,
		gridtap_event.ActivityKey,
		gridtap_event.ActivityClick,
		gridtap_event.ActivityScroll,
	} {
		c.OnActivity(gridtap_event.Activity{Kind: k})
	}

	got := c.Drain()
	want := Counts{Moves: 2, Taps: 1, Keys: 1, Clicks: 1, Scrolls: 1}
	if got != want {
		t.Fatalf("expected %+v, got %+v", want, got)
	}
	if !c.Drain().IsZero() {
		t.Fatal("expected counts reset after drain")
	}
}
