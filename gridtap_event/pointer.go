package gridtap_event

import (
	"log/slog"
	"time"

	"gridtap/monitor"
)

// PointerWatcher fires feedback whenever the pointer crosses a boundary, as
// judged by its CrossingPolicy, since the last feedback position.
type PointerWatcher struct {
	logger    *slog.Logger
	policy    CrossingPolicy
	performer Performer

	anchor    monitor.Point
	hasAnchor bool
}

func NewPointerWatcher(logger *slog.Logger, policy CrossingPolicy, performer Performer) *PointerWatcher {
	return &PointerWatcher{
		logger:    logger,
		policy:    policy,
		performer: performer,
	}
}

func (w *PointerWatcher) Name() string {
	return "PointerWatcher"
}

func (w *PointerWatcher) Install(m *monitor.Monitor, sink Sink) {
	m.Handle(monitor.PointerMotion, func(e monitor.Event) {
		w.onMove(e.Location(), e.Flags(), sink)
	})
}

func (w *PointerWatcher) onMove(loc monitor.Point, flags monitor.ModifierFlags, sink Sink) {
	now := time.Now()
	sink.OnActivity(Activity{Kind: ActivityMove, At: loc, Flags: flags, Time: now})

	if !w.hasAnchor {
		w.anchor = loc
		w.hasAnchor = true
		return
	}
	if !w.policy.Crossed(w.anchor, loc) {
		return
	}

	if err := w.performer.Perform(); err != nil {
		w.logger.Error("perform feedback", slog.String("err", err.Error()))
	}
	w.anchor = loc
	sink.OnActivity(Activity{Kind: ActivityTap, At: loc, Flags: flags, Time: now})
}
