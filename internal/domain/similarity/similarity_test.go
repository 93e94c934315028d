package similarity

import (
	"math"
	"testing"
)

const eps = 1e-9

func TestCosine(t *testing.T) {
	tests := []struct {
		name string
		a, b []float32
		want float64
	}{
		{"identical", []float32{1, 2, 3}, []float32{1, 2, 3}, 1},
		{"scaled", []float32{1, 0}, []float32{5, 0}, 1},
		{"orthogonal", []float32{1, 0}, []float32{0, 1}, 0},
		{"opposite", []float32{1, 1}, []float32{-1, -1}, -1},
		{"zero vector", []float32{0, 0}, []float32{1, 1}, 0},
		{"length mismatch", []float32{1}, []float32{1, 1}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Cosine(tt.a, tt.b); math.Abs(got-tt.want) > eps {
				t.Errorf("Cosine = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestNormalize(t *testing.T) {
	x := []float32{3, 4}
	Normalize(x)
	if math.Abs(L2Norm(x)-1) > 1e-6 {
		t.Errorf("norm after Normalize = %v", L2Norm(x))
	}

	zero := []float32{0, 0}
	Normalize(zero)
	if zero[0] != 0 || zero[1] != 0 {
		t.Errorf("zero vector changed: %v", zero)
	}
}

func TestL2Distance(t *testing.T) {
	if got := L2Distance([]float32{0, 0}, []float32{3, 4}); math.Abs(got-5) > eps {
		t.Errorf("L2Distance = %v, want 5", got)
	}
	if !math.IsInf(L2Distance([]float32{1}, []float32{1, 2}), 1) {
		t.Error("length mismatch must be +Inf")
	}
}
