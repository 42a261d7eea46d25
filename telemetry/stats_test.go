package telemetry

import (
	"math"
	"testing"
)

func TestPercentile(t *testing.T) {
	tests := []struct {
		name   string
		sorted []float64
		p      float64
		want   float64
	}{
		{"empty slice", []float64{}, 0.5, 0},
		{"single element", []float64{5.0}, 0.5, 5.0},
		{"p0", []float64{1, 2, 3, 4, 5}, 0.0, 1.0},
		{"p100", []float64{1, 2, 3, 4, 5}, 1.0, 5.0},
		{"p50 odd", []float64{1, 2, 3, 4, 5}, 0.5, 3.0},
		{"p50 even", []float64{1, 2, 3, 4}, 0.5, 2.5},
		{"p10", []float64{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}, 0.1, 1.9},
		{"p90", []float64{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}, 0.9, 9.1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Percentile(tt.sorted, tt.p)
			if math.Abs(got-tt.want) > 0.001 {
				t.Errorf("Percentile(%v, %v) = %v, want %v", tt.sorted, tt.p, got, tt.want)
			}
		})
	}
}

func TestLoadStats(t *testing.T) {
	samples := []float64{0.1, 0.2, 0.3, 0.4, 0.5, 0.6, 0.7, 0.8, 0.9, 1.0}
	mean, min, max, p90 := loadStats(samples)

	if math.Abs(mean-0.55) > 0.001 {
		t.Errorf("mean = %v, want 0.55", mean)
	}
	if min != 0.1 {
		t.Errorf("min = %v, want 0.1", min)
	}
	if max != 1.0 {
		t.Errorf("max = %v, want 1.0", max)
	}
	if math.Abs(p90-0.91) > 0.01 {
		t.Errorf("p90 = %v, want ~0.91", p90)
	}
}

func TestLoadStatsEmpty(t *testing.T) {
	mean, min, max, p90 := loadStats(nil)
	if mean != 0 || min != 0 || max != 0 || p90 != 0 {
		t.Error("empty slice should return all zeros")
	}
}

func TestLoadStatsDoesNotMutateInput(t *testing.T) {
	samples := []float64{5, 3, 1, 4, 2}
	want := append([]float64(nil), samples...)
	loadStats(samples)
	for i := range samples {
		if samples[i] != want[i] {
			t.Fatalf("loadStats mutated its input: got %v, want %v", samples, want)
		}
	}
}
