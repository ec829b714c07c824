package gridtap_event

import (
	"fmt"
	"io"
	"log/slog"
)

// Performer produces the feedback for a boundary crossing. It is called on
// the run loop goroutine and must return quickly.
type Performer interface {
	Perform() error
}

// BellPerformer rings the terminal bell.
type BellPerformer struct {
	Out io.Writer
}

func (p *BellPerformer) Perform() error {
	_, err := io.WriteString(p.Out, "\a")
	return err
}

type LogPerformer struct {
	Logger *slog.Logger
}

func (p *LogPerformer) Perform() error {
	p.Logger.Debug("boundary crossed")
	return nil
}

type NopPerformer struct{}

func (NopPerformer) Perform() error { return nil }

// NewPerformer picks a performer by name: "haptic", "bell", "log" or "none".
func NewPerformer(name string, out io.Writer, logger *slog.Logger) (Performer, error) {
	switch name {
	case "haptic":
		return newHapticPerformer(out), nil
	case "bell":
		return &BellPerformer{Out: out}, nil
	case "log":
		return &LogPerformer{Logger: logger}, nil
	case "none":
		return NopPerformer{}, nil
	}
	return nil, fmt.Errorf("unknown feedback %q", name)
}
