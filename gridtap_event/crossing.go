package gridtap_event

import (
	"fmt"
	"math"

	"gridtap/monitor"
)

// CrossingPolicy decides whether moving from a to b should trigger feedback.
type CrossingPolicy interface {
	Crossed(a, b monitor.Point) bool
}

// DistancePolicy fires once the pointer is more than Delta points away.
type DistancePolicy struct {
	Delta float64
}

func (p DistancePolicy) Crossed(a, b monitor.Point) bool {
	return math.Hypot(b.X-a.X, b.Y-a.Y) > p.Delta
}

// GridPolicy fires when the pointer enters a different Cell-sized square.
type GridPolicy struct {
	Cell float64
}

func (p GridPolicy) Crossed(a, b monitor.Point) bool {
	return p.cell(a.X) != p.cell(b.X) || p.cell(a.Y) != p.cell(b.Y)
}

func (p GridPolicy) cell(v float64) int {
	return int(math.Floor(v / p.Cell))
}

// NewCrossingPolicy builds a policy by name: "distance" or "grid".
func NewCrossingPolicy(name string, delta float64) (CrossingPolicy, error) {
	if delta <= 0 {
		return nil, fmt.Errorf("delta must be positive: %v", delta)
	}
	switch name {
	case "distance":
		return DistancePolicy{Delta: delta}, nil
	case "grid":
		return GridPolicy{Cell: delta}, nil
	}
	return nil, fmt.Errorf("unknown crossing policy %q", name)
}
