package view

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync/atomic"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"

	"gridtap/gridtap"
	"gridtap/gridtap_event"
)

const recentSize = 12

// liveState is the model behind the live view. It is only touched from the
// tview update goroutine.
type liveState struct {
	at      string
	lastKey string
	counts  gridtap.Counts
	recent  []string
}

func (s *liveState) apply(a gridtap_event.Activity) {
	switch a.Kind {
	case gridtap_event.ActivityMove:
		s.at = a.At.String()
		s.counts.Moves++
		// Moves are too frequent for the recent list.
		return
	case gridtap_event.ActivityTap:
		s.counts.Taps++
	case gridtap_event.ActivityKey:
		s.counts.Keys++
		s.lastKey = describeKey(a)
	case gridtap_event.ActivityClick:
		s.counts.Clicks++
	case gridtap_event.ActivityScroll:
		s.counts.Scrolls++
	}

	s.recent = append(s.recent, describe(a))
	if len(s.recent) > recentSize {
		s.recent = s.recent[len(s.recent)-recentSize:]
	}
}

func (s *liveState) status() string {
	return fmt.Sprintf("pointer %s  last key %s\nmoves %d  taps %d  keys %d  clicks %d  scrolls %d",
		orDash(s.at), orDash(s.lastKey),
		s.counts.Moves, s.counts.Taps, s.counts.Keys, s.counts.Clicks, s.counts.Scrolls)
}

func describeKey(a gridtap_event.Activity) string {
	text := fmt.Sprintf("%q", a.Text)
	if a.Flags == 0 {
		return text
	}
	return a.Flags.String() + "+" + text
}

func describe(a gridtap_event.Activity) string {
	ts := a.Time.Format("15:04:05.000")
	switch a.Kind {
	case gridtap_event.ActivityKey:
		return fmt.Sprintf("%s  key    %s", ts, describeKey(a))
	default:
		return fmt.Sprintf("%s  %-6s %s", ts, a.Kind, a.At)
	}
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

// LiveView renders activities as they happen. It is a Sink; OnActivity never
// blocks and drops activities the UI cannot keep up with.
type LiveView struct {
	logger     *slog.Logger
	activities chan gridtap_event.Activity
	dropped    atomic.Int64

	app    *tview.Application
	status *tview.TextView
	recent *tview.TextView
	state  liveState
}

func NewLiveView(logger *slog.Logger, buffer int) *LiveView {
	if buffer <= 0 {
		buffer = 1
	}
	return &LiveView{
		logger:     logger,
		activities: make(chan gridtap_event.Activity, buffer),
	}
}

func (v *LiveView) OnActivity(a gridtap_event.Activity) {
	select {
	case v.activities <- a:
	default:
		v.dropped.Add(1)
	}
}

// Run shows the view until the user quits or ctx is done. Quitting calls
// onQuit so the caller can stop watching.
func (v *LiveView) Run(ctx context.Context, onQuit func()) error {
	v.app = tview.NewApplication()
	v.status = tview.NewTextView().SetDynamicColors(false)
	v.status.SetBorder(true).SetTitle(" gridtap ").SetTitleAlign(tview.AlignLeft)
	v.recent = tview.NewTextView().SetScrollable(false)
	v.recent.SetBorder(true).SetTitle(" recent ").SetTitleAlign(tview.AlignLeft)
	help := tview.NewTextView().SetText("q / Esc to quit").SetTextColor(tcell.ColorGray)

	root := tview.NewFlex().
		SetDirection(tview.FlexRow).
		AddItem(v.status, 4, 0, false).
		AddItem(v.recent, 0, 1, false).
		AddItem(help, 1, 0, false)

	v.app.SetInputCapture(func(ev *tcell.EventKey) *tcell.EventKey {
		if ev.Key() == tcell.KeyEscape || ev.Rune() == 'q' {
			v.app.Stop()
			return nil
		}
		return ev
	})
	v.redraw()

	done := make(chan struct{})
	defer close(done)
	go v.pump(ctx, done)

	err := v.app.SetRoot(root, true).Run()
	if onQuit != nil {
		onQuit()
	}
	if n := v.dropped.Load(); n > 0 {
		v.logger.Debug("live view dropped activities", slog.Int64("dropped", n))
	}
	return err
}

func (v *LiveView) pump(ctx context.Context, done <-chan struct{}) {
	ticker := time.NewTicker(50 * time.Millisecond)
	defer ticker.Stop()
	var batch []gridtap_event.Activity
	for {
		select {
		case <-done:
			return
		case <-ctx.Done():
			// Queued so a stop issued before Run starts is not lost.
			v.app.QueueUpdate(v.app.Stop)
			return
		case a := <-v.activities:
			batch = append(batch, a)
		case <-ticker.C:
			if len(batch) == 0 {
				continue
			}
			pending := batch
			batch = nil
			v.app.QueueUpdateDraw(func() {
				for _, a := range pending {
					v.state.apply(a)
				}
				v.redraw()
			})
		}
	}
}

func (v *LiveView) redraw() {
	v.status.SetText(v.state.status())
	v.recent.SetText(strings.Join(v.state.recent, "\n"))
}
