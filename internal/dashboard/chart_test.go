package dashboard

import (
	"math"
	"testing"
)

func TestSegments(t *testing.T) {
	nan := math.NaN()
	tests := []struct {
		name   string
		points []point
		want   []int
	}{
		{"empty", nil, nil},
		{"all missing", []point{{0, nan}, {1, nan}}, nil},
		{"no gaps", []point{{0, 1}, {1, 2}, {2, 3}}, []int{3}},
		{"gap in the middle", []point{{0, 1}, {1, nan}, {2, 3}, {3, 4}}, []int{1, 2}},
		{"leading and trailing gaps", []point{{0, nan}, {1, 2}, {2, nan}}, []int{1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := segments(tt.points)
			if len(got) != len(tt.want) {
				t.Fatalf("segments() returned %d runs, want %d", len(got), len(tt.want))
			}
			for i, run := range got {
				if len(run) != tt.want[i] {
					t.Errorf("run %d has %d points, want %d", i, len(run), tt.want[i])
				}
			}
		})
	}
}

func TestYRange(t *testing.T) {
	tests := []struct {
		name   string
		runs   [][]point
		wantLo float64
		wantHi float64
	}{
		{"positive values start at zero", [][]point{{{0, 50}, {1, 100}}}, 0, 110},
		{"flat zero series is padded", [][]point{{{0, 0}}}, 0, 1.1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			lo, hi := yRange(tt.runs)
			if lo != tt.wantLo || math.Abs(hi-tt.wantHi) > 1e-9 {
				t.Errorf("yRange() = (%v, %v), want (%v, %v)", lo, hi, tt.wantLo, tt.wantHi)
			}
		})
	}
}

func TestRenderNoPoints(t *testing.T) {
	_, err := lineChart{XMin: 1, XMax: 12, Points: []point{{1, math.NaN()}}}.render()
	if err != errNoPoints {
		t.Errorf("render() error = %v, want errNoPoints", err)
	}
}
