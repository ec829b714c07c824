package runloop

import (
	"context"
	"testing"
	"time"
)

type recordingSource struct {
	scheduled []Mode
	cancelled []Mode
}

func (s *recordingSource) Schedule(_ *Loop, mode Mode) { s.scheduled = append(s.scheduled, mode) }
func (s *recordingSource) Cancel(_ *Loop, mode Mode)   { s.cancelled = append(s.cancelled, mode) }

func TestAddSchedulesOncePerMode(t *testing.T) {
	l := New()
	src := &recordingSource{}

	l.Add(src, DefaultMode)
	l.Add(src, DefaultMode)
	l.Add(src, CommonModes)

	if len(src.scheduled) != 2 {
		t.Fatalf("expected 2 schedules, got %v", src.scheduled)
	}
	if !l.Contains(src, DefaultMode) || !l.Contains(src, CommonModes) {
		t.Fatalf("expected source in both modes")
	}

	l.Remove(src, DefaultMode)
	l.Remove(src, DefaultMode)
	if len(src.cancelled) != 1 || src.cancelled[0] != DefaultMode {
		t.Fatalf("expected one cancel for default mode, got %v", src.cancelled)
	}
	if l.Contains(src, DefaultMode) {
		t.Fatalf("expected source removed from default mode")
	}
}

func TestRunPendingPreservesOrder(t *testing.T) {
	l := New()
	var got []int
	for i := 0; i < 3; i++ {
		i := i
		l.Perform(DefaultMode, func() { got = append(got, i) })
	}
	l.Perform(Mode("tracking"), func() { got = append(got, 99) })

	if n := l.RunPending(); n != 3 {
		t.Fatalf("expected 3 items to run, got %d", n)
	}
	if len(got) != 3 || got[0] != 0 || got[1] != 1 || got[2] != 2 {
		t.Fatalf("unexpected order %v", got)
	}
}

func TestRunModeServicesCommonModes(t *testing.T) {
	l := New()
	ran := make(chan string, 2)
	l.Perform(CommonModes, func() { ran <- "common" })
	l.Perform(DefaultMode, func() { ran <- "default" })
	l.Perform(Mode("tracking"), func() {
		ran <- "tracking"
		l.Stop()
	})

	errCh := make(chan error, 1)
	go func() { errCh <- l.RunMode(context.Background(), Mode("tracking")) }()

	select {
	case err := <-errCh:
		if err != nil {
			t.Fatalf("run: %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for loop to stop")
	}

	if first := <-ran; first != "common" {
		t.Fatalf("expected common work first, got %q", first)
	}
	if second := <-ran; second != "tracking" {
		t.Fatalf("expected tracking work second, got %q", second)
	}
}

func TestRunStopsOnContextCancel(t *testing.T) {
	l := New()
	ctx, cancel := context.WithCancel(context.Background())

	errCh := make(chan error, 1)
	go func() { errCh <- l.Run(ctx) }()

	done := make(chan struct{})
	l.Perform(DefaultMode, func() { close(done) })
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for queued work")
	}

	cancel()
	select {
	case err := <-errCh:
		if err != context.Canceled {
			t.Fatalf("expected context.Canceled, got %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for loop to stop")
	}
	if l.Running() {
		t.Fatal("expected loop to report not running")
	}
}

func TestCurrentIsShared(t *testing.T) {
	if Current() != Current() {
		t.Fatal("expected Current to return the same loop")
	}
}
