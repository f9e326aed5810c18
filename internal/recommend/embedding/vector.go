// Vidrec - Video Recommendation and Feedback Learning Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vidrec

package embedding

import (
	"errors"
	"fmt"
	"math"
)

// ErrDimensionMismatch is returned when two vectors of different length are
// combined.
var ErrDimensionMismatch = errors.New("embedding: dimension mismatch")

// Dot returns the dot product of a and b.
func Dot(a, b []float64) (float64, error) {
	if len(a) != len(b) {
		return 0, fmt.Errorf("%w: %d vs %d", ErrDimensionMismatch, len(a), len(b))
	}
	var sum float64
	for i := range a {
		sum += a[i] * b[i]
	}
	return sum, nil
}

// Norm returns the Euclidean norm of v.
func Norm(v []float64) float64 {
	var sum float64
	for _, x := range v {
		sum += x * x
	}
	return math.Sqrt(sum)
}

// IsZero reports whether every component of v is zero. An empty vector is zero.
func IsZero(v []float64) bool {
	for _, x := range v {
		if x != 0 {
			return false
		}
	}
	return true
}

// Normalize scales v to unit length in place. The zero vector is left as is.
func Normalize(v []float64) {
	n := Norm(v)
	if n == 0 {
		return
	}
	for i := range v {
		v[i] /= n
	}
}

// Cosine returns the cosine similarity of a and b. A zero vector on either
// side yields 0, never NaN.
func Cosine(a, b []float64) (float64, error) {
	dot, err := Dot(a, b)
	if err != nil {
		return 0, err
	}
	na, nb := Norm(a), Norm(b)
	if na == 0 || nb == 0 {
		return 0, nil
	}
	sim := dot / (na * nb)
	// Clamp rounding noise so callers can rely on [-1, 1].
	return math.Max(-1, math.Min(1, sim)), nil
}

// Lerp returns p + step*(e - p) as a new vector. A nil p is treated as the
// zero vector of len(e).
func Lerp(p, e []float64, step float64) ([]float64, error) {
	if p == nil {
		p = make([]float64, len(e))
	}
	if len(p) != len(e) {
		return nil, fmt.Errorf("%w: profile %d vs embedding %d", ErrDimensionMismatch, len(p), len(e))
	}
	out := make([]float64, len(p))
	for i := range p {
		out[i] = p[i] + step*(e[i]-p[i])
	}
	return out, nil
}
