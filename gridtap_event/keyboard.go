package gridtap_event

import (
	"time"

	"gridtap/monitor"
)

type KeyboardWatcher struct {
}

func (w *KeyboardWatcher) Name() string {
	return "KeyboardWatcher"
}

func (w *KeyboardWatcher) Install(m *monitor.Monitor, sink Sink) {
	m.HandleKeyDown(func(text string, flags monitor.ModifierFlags) {
		sink.OnActivity(Activity{
			Kind:  ActivityKey,
			Text:  text,
			Flags: flags,
			Time:  time.Now(),
		})
	})
}
