package view

import (
	"fmt"
	"time"

	"gridtap/gridtap"
)

type Viewer interface {
	Do(yearMonth string) error
}

type ViewRepository interface {
	ListStats(yearMonth string) (statsForView, error)
}

type viewRepository struct {
	statsRepo gridtap.StatsRepository
}

func NewViewRepository(statsRepo gridtap.StatsRepository) ViewRepository {
	return &viewRepository{statsRepo}
}

// ListStats returns one entry per day of the month, recorded or not.
func (r *viewRepository) ListStats(yearMonth string) (statsForView, error) {
	monthStart, monthEnd, err := getMonthStartEnd(yearMonth)
	if err != nil {
		return nil, err
	}

	var stats statsForView
	for d := monthStart; !d.After(monthEnd); d = d.AddDate(0, 0, 1) {
		s, err := r.statsRepo.GetDailyStats(gridtap.DateOf(d))
		if err != nil {
			return nil, err
		}
		stats = append(stats, s)
	}
	return stats, nil
}

func getMonthStartEnd(yearMonth string) (time.Time, time.Time, error) {
	monthStart, err := time.ParseInLocation("2006-01", yearMonth, time.Local)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("invalid month %q, expected YYYY-MM", yearMonth)
	}
	monthEnd := monthStart.AddDate(0, 1, 0).AddDate(0, 0, -1)
	return monthStart, monthEnd, nil
}

type statsForView []gridtap.DailyStats

func (r statsForView) Total() gridtap.Counts {
	var total gridtap.Counts
	for _, s := range r {
		total = total.Add(s.Counts)
	}
	return total
}

func (r statsForView) TotalActiveTime() time.Duration {
	var total time.Duration
	for _, s := range r {
		total += s.ActiveTime()
	}
	return total
}
