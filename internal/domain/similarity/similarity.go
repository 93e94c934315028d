// Package similarity provides vector similarity helpers shared by the scoring engine and the in-memory index.
package similarity

import "math"

// Dot returns the inner product of two vectors, or 0 when lengths differ.
func Dot(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
	}
	return dot
}

// L2Norm returns the Euclidean norm of a vector.
func L2Norm(x []float32) float64 {
	var sum float64
	for _, v := range x {
		sum += float64(v) * float64(v)
	}
	return math.Sqrt(sum)
}

// Cosine returns the cosine similarity of a and b in [-1, 1].
// Zero vectors and length mismatches score 0.
func Cosine(a, b []float32) float64 {
	na, nb := L2Norm(a), L2Norm(b)
	if na == 0 || nb == 0 {
		return 0
	}
	return Dot(a, b) / (na * nb)
}

// L2Distance returns the Euclidean distance between a and b.
func L2Distance(a, b []float32) float64 {
	if len(a) != len(b) {
		return math.Inf(1)
	}
	var sum float64
	for i := range a {
		d := float64(a[i]) - float64(b[i])
		sum += d * d
	}
	return math.Sqrt(sum)
}

// Normalize scales x in place to unit L2 norm. Zero vectors are left unchanged.
func Normalize(x []float32) {
	n := L2Norm(x)
	if n == 0 {
		return
	}
	inv := 1 / n
	for i := range x {
		x[i] = float32(float64(x[i]) * inv)
	}
}
