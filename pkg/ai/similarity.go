package ai

import "math"

// CosineSimilarity returns the cosine of the angle between a and b in [-1, 1].
// Vectors of different length, empty vectors and zero vectors yield 0.
func CosineSimilarity(a, b []float32) float64 {
	s, err := CosineSimilarityStrict(a, b)
	if err != nil {
		return 0
	}
	return s
}

// CosineSimilarityStrict is CosineSimilarity but reports mismatched or empty
// vectors as ErrDimensionMismatch instead of returning 0.
func CosineSimilarityStrict(a, b []float32) (float64, error) {
	if len(a) != len(b) || len(a) == 0 {
		return 0, ErrDimensionMismatch
	}

	var dot, normA, normB float64
	for i := range a {
		x, y := float64(a[i]), float64(b[i])
		dot += x * y
		normA += x * x
		normB += y * y
	}
	if normA == 0 || normB == 0 {
		return 0, nil
	}

	s := dot / (math.Sqrt(normA) * math.Sqrt(normB))
	// rounding can push |s| marginally past 1
	return math.Max(-1, math.Min(1, s)), nil
}

// CosineDistance returns 1 - CosineSimilarity(a, b), in [0, 2].
func CosineDistance(a, b []float32) float64 {
	return 1 - CosineSimilarity(a, b)
}

// FitDimensions truncates or zero-pads v to dim entries. dim <= 0 returns v.
func FitDimensions(v []float32, dim int) []float32 {
	if dim <= 0 || len(v) == dim {
		return v
	}
	out := make([]float32, dim)
	copy(out, v)
	return out
}
