package gridtap

import "time"

// Counts is a snapshot of activity since the last drain.
type Counts struct {
	Moves   int64
	Taps    int64
	Keys    int64
	Clicks  int64
	Scrolls int64
}

func (c Counts) IsZero() bool {
	return c == Counts{}
}

func (c Counts) Add(o Counts) Counts {
	return Counts{
		Moves:   c.Moves + o.Moves,
		Taps:    c.Taps + o.Taps,
		Keys:    c.Keys + o.Keys,
		Clicks:  c.Clicks + o.Clicks,
		Scrolls: c.Scrolls + o.Scrolls,
	}
}

// DailyStats is what is stored per date.
type DailyStats struct {
	Date    Date       `json:"date"`
	Counts  Counts     `json:"counts"`
	FirstAt *time.Time `json:"first_at"`
	LastAt  *time.Time `json:"last_at"`
}

// Record merges c observed at t into s.
func (s *DailyStats) Record(c Counts, t time.Time) {
	s.Counts = s.Counts.Add(c)
	if s.FirstAt == nil || t.Before(*s.FirstAt) {
		first := t
		s.FirstAt = &first
	}
	if s.LastAt == nil || t.After(*s.LastAt) {
		last := t
		s.LastAt = &last
	}
}

// ActiveTime is the span between the first and last flush of the day.
func (s *DailyStats) ActiveTime() time.Duration {
	if s.FirstAt == nil || s.LastAt == nil {
		return 0
	}
	return s.LastAt.Sub(*s.FirstAt)
}
