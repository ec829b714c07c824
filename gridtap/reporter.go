package gridtap

import (
	"log/slog"
	"time"

	"github.com/alexflint/go-filemutex"
)

type StatsReporter interface {
	// Flush merges c into today's stats.
	Flush(c Counts) error
}

// locker is satisfied by *filemutex.FileMutex.
type locker interface {
	Lock() error
	Unlock() error
}

func NewStatsReporter(repo StatsRepository, logger *slog.Logger, fm *filemutex.FileMutex) StatsReporter {
	return newStatsReporter(repo, logger, fm, time.Now)
}

func newStatsReporter(repo StatsRepository, logger *slog.Logger, mux locker, now func() time.Time) *statsReporter {
	return &statsReporter{
		repo:   repo,
		mux:    mux,
		logger: logger,
		now:    now,
	}
}

type statsReporter struct {
	repo   StatsRepository
	mux    locker
	logger *slog.Logger
	now    func() time.Time
}

func (r *statsReporter) Flush(c Counts) error {
	if c.IsZero() {
		return nil
	}

	if err := r.mux.Lock(); err != nil {
		return err
	}
	defer r.mux.Unlock()

	now := r.now()
	s, err := r.repo.GetDailyStats(DateOf(now))
	if err != nil {
		return err
	}
	s.Record(c, now)

	r.logger.Debug("flush stats",
		slog.String("date", string(s.Date)),
		slog.Int64("moves", c.Moves),
		slog.Int64("taps", c.Taps),
		slog.Int64("keys", c.Keys))
	return r.repo.SaveDailyStats(s)
}
