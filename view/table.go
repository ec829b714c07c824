package view

import (
	"fmt"
	"io"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
)

type tableViewer struct {
	repo ViewRepository
	out  io.Writer
}

func NewTableViewer(repo ViewRepository, out io.Writer) Viewer {
	return &tableViewer{repo: repo, out: out}
}

func (t *tableViewer) Do(yearMonth string) error {
	stats, err := t.repo.ListStats(yearMonth)
	if err != nil {
		return err
	}

	buildTableWriter(stats, t.out).Render()
	return nil
}

func buildTableWriter(stats statsForView, out io.Writer) table.Writer {
	t := table.NewWriter()
	t.SetOutputMirror(out)
	t.AppendHeader(table.Row{"Date", "Moves", "Taps", "Keys", "Clicks", "Scrolls", "First", "Last", "Active"})

	for _, s := range stats {
		t.AppendRow(table.Row{
			s.Date,
			s.Counts.Moves,
			s.Counts.Taps,
			s.Counts.Keys,
			s.Counts.Clicks,
			s.Counts.Scrolls,
			ptrTimeToString(s.FirstAt),
			ptrTimeToString(s.LastAt),
			durationToString(s.ActiveTime()),
		})
	}

	total := stats.Total()
	t.AppendFooter(table.Row{
		"Total",
		total.Moves,
		total.Taps,
		total.Keys,
		total.Clicks,
		total.Scrolls,
		"",
		"",
		durationToString(stats.TotalActiveTime()),
	})
	t.SetStyle(table.StyleRounded)
	return t
}

func durationToString(d time.Duration) string {
	return fmt.Sprintf("%02d:%02d", int(d.Hours()), int(d.Minutes())%60)
}

func ptrTimeToString(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format("15:04")
}
