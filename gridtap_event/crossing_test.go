package gridtap_event

import (
	"testing"

	"gridtap/monitor"
)

func TestDistancePolicy(t *testing.T) {
	p := DistancePolicy{Delta: 30}
	tests := []struct {
		a, b monitor.Point
		want bool
	}{
		{monitor.Point{X: 0, Y: 0}, monitor.Point{X: 30, Y: 0}, false},
		{monitor.Point{X: 0, Y: 0}, monitor.Point{X: 30.1, Y: 0}, true},
		{monitor.Point{X: 0, Y: 0}, monitor.Point{X: 18, Y: 24}, false},
		{monitor.Point{X: 0, Y: 0}, monitor.Point{X: 19, Y: 24}, true},
	}
	for _, tt := range tests {
		if got := p.Crossed(tt.a, tt.b); got != tt.want {
			t.Errorf("Crossed(%s, %s) = %v, want %v", tt.a, tt.b, got, tt.want)
		}
	}
}

func TestGridPolicy(t *testing.T) {
	p := GridPolicy{Cell: 30}
	tests := []struct {
		a, b monitor.Point
		want bool
	}{
		{monitor.Point{X: 1, Y: 1}, monitor.Point{X: 29, Y: 29}, false},
		{monitor.Point{X: 29, Y: 1}, monitor.Point{X: 30, Y: 1}, true},
		{monitor.Point{X: 1, Y: 59}, monitor.Point{X: 1, Y: 60}, true},
		{monitor.Point{X: 1, Y: 1}, monitor.Point{X: -1, Y: 1}, true},
		{monitor.Point{X: -1, Y: 1}, monitor.Point{X: -29, Y: 1}, false},
	}
	for _, tt := range tests {
		if got := p.Crossed(tt.a, tt.b); got != tt.want {
			t.Errorf("Crossed(%s, %s) = %v, want %v", tt.a, tt.b, got, tt.want)
		}
	}
}

func TestNewCrossingPolicy(t *testing.T) {
	if _, err := NewCrossingPolicy("distance", 0); err == nil {
		t.Fatal("expected error for zero delta")
	}
	if _, err := NewCrossingPolicy("spiral", 10); err == nil {
		t.Fatal("expected error for unknown policy")
	}
	p, err := NewCrossingPolicy("grid", 10)
	if err != nil {
		t.Fatalf("grid: %v", err)
	}
	if _, ok := p.(GridPolicy); !ok {
		t.Fatalf("expected GridPolicy, got %T", p)
	}
}
