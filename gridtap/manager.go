package gridtap

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"gridtap/gridtap_event"
	"gridtap/monitor"
	"gridtap/runloop"
)

type Manager struct {
	facility      monitor.Facility
	reporter      StatsReporter
	watchers      []gridtap_event.Watcher
	sinks         []gridtap_event.Sink
	logger        *slog.Logger
	flushInterval time.Duration
	counter       *Counter
}

// NewManager wires watchers onto one monitor. Extra sinks see every activity
// after the stats counter.
func NewManager(facility monitor.Facility, reporter StatsReporter, watchers []gridtap_event.Watcher, logger *slog.Logger, flushInterval time.Duration, sinks ...gridtap_event.Sink) *Manager {
	return &Manager{
		facility:      facility,
		reporter:      reporter,
		watchers:      watchers,
		sinks:         sinks,
		logger:        logger,
		flushInterval: flushInterval,
		counter:       &Counter{},
	}
}

// Watch starts the monitor and runs its loop until ctx is done, flushing
// counts every flush interval. A monitor that cannot be started is returned
// as an error wrapping monitor.ErrHookCreationFailed.
func (m *Manager) Watch(ctx context.Context) error {
	mon := monitor.New(m.facility, monitor.WithLogger(m.logger))
	defer mon.Close()

	sink := append(gridtap_event.MultiSink{m.counter}, m.sinks...)
	for _, w := range m.watchers {
		m.logger.Debug("install watcher", slog.String("name", w.Name()))
		w.Install(mon, sink)
	}

	loop := runloop.New()
	if err := mon.Start(monitor.WithRunLoop(loop)); err != nil {
		return fmt.Errorf("start monitor: %w", err)
	}
	if mon.State() != monitor.StateActive {
		m.logger.Info("no watcher requested events, nothing to do")
		return nil
	}

	loopErr := make(chan error, 1)
	go func() {
		loopErr <- loop.Run(context.Background())
	}()

	m.logger.Debug("start polling")
	ticker := time.NewTicker(m.flushInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			m.flush()
		case err := <-loopErr:
			return err
		case <-ctx.Done():
			// Close on the loop goroutine so no handler runs concurrently.
			loop.Perform(runloop.DefaultMode, func() {
				mon.Close()
				loop.Stop()
			})
			err := <-loopErr
			m.flush()
			return err
		}
	}
}

func (m *Manager) flush() {
	if err := m.reporter.Flush(m.counter.Drain()); err != nil {
		m.logger.Error("flush stats", slog.String("err", err.Error()))
	}
}
