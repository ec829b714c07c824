package gridtap_event

import (
	"time"

	"gridtap/monitor"
)

type ButtonWatcher struct {
}

func (w *ButtonWatcher) Name() string {
	return "ButtonWatcher"
}

func (w *ButtonWatcher) Install(m *monitor.Monitor, sink Sink) {
	m.Handle(monitor.MouseButtonDown, func(e monitor.Event) {
		sink.OnActivity(Activity{Kind: ActivityClick, At: e.Location(), Flags: e.Flags(), Time: time.Now()})
	})
	m.HandleType(monitor.EventScrollWheel, func(e monitor.Event) {
		sink.OnActivity(Activity{Kind: ActivityScroll, At: e.Location(), Flags: e.Flags(), Time: time.Now()})
	})
}
