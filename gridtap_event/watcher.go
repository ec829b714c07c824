package gridtap_event

import (
	"log/slog"
	"time"

	"gridtap/monitor"
)

// Watcher installs handlers on a monitor before it is started.
type Watcher interface {
	Name() string
	Install(m *monitor.Monitor, sink Sink)
}

type ActivityKind string

const (
	ActivityMove   = ActivityKind("move")
	ActivityTap    = ActivityKind("tap")
	ActivityKey    = ActivityKind("key")
	ActivityClick  = ActivityKind("click")
	ActivityScroll = ActivityKind("scroll")
)

// Activity is what watchers report to a Sink.
type Activity struct {
	Kind  ActivityKind
	At    monitor.Point
	Text  string
	Flags monitor.ModifierFlags
	Time  time.Time
}

// Sink receives activities on the run loop goroutine. Implementations must
// not block.
type Sink interface {
	OnActivity(a Activity)
}

type SinkFunc func(a Activity)

func (f SinkFunc) OnActivity(a Activity) { f(a) }

// MultiSink fans an activity out to every sink in order.
type MultiSink []Sink

func (ms MultiSink) OnActivity(a Activity) {
	for _, s := range ms {
		s.OnActivity(a)
	}
}

func NewAllWatchers(logger *slog.Logger, policy CrossingPolicy, performer Performer) []Watcher {
	return []Watcher{
		NewPointerWatcher(logger, policy, performer),
		&KeyboardWatcher{},
		&ButtonWatcher{},
	}
}
