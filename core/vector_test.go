package core

import (
	"math"
	"testing"
)

func TestCosineSimilarity(t *testing.T) {
	tests := []struct {
		name string
		a, b []float32
		want float64
	}{
		{"identical", []float32{1, 2, 3}, []float32{1, 2, 3}, 1},
		{"opposite", []float32{1, 0}, []float32{-1, 0}, -1},
		{"orthogonal", []float32{1, 0}, []float32{0, 1}, 0},
		{"scaled", []float32{1, 1}, []float32{3, 3}, 1},
		{"zero vector", []float32{0, 0}, []float32{1, 2}, 0},
		{"length mismatch", []float32{1, 2}, []float32{1, 2, 3}, 0},
		{"empty", nil, nil, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := CosineSimilarity(tt.a, tt.b)
			if math.Abs(got-tt.want) > 1e-6 {
				t.Errorf("CosineSimilarity() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestNormalizeVector(t *testing.T) {
	v := NormalizeVector([]float32{3, 4})
	if math.Abs(float64(v[0])-0.6) > 1e-6 || math.Abs(float64(v[1])-0.8) > 1e-6 {
		t.Errorf("NormalizeVector() = %v, want [0.6 0.8]", v)
	}

	zero := NormalizeVector([]float32{0, 0, 0})
	for i, x := range zero {
		if x != 0 {
			t.Errorf("NormalizeVector(zero)[%d] = %v, want 0", i, x)
		}
	}

	if got := NormalizeVector(nil); len(got) != 0 {
		t.Errorf("NormalizeVector(nil) = %v, want empty", got)
	}
}
