// Vidrec - Video Recommendation and Feedback Learning Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vidrec

// Package similarity provides user-to-user similarity metrics over sparse
// rating vectors.
//
// A rating vector maps video id to the user's value for that video on the
// 0..MaxRating scale. Every metric works on the co-rated set only (videos
// present in both vectors), returns 0 when that set is empty, is symmetric,
// and returns the top of its range for a user compared with themselves.
package similarity

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/tomtom215/vidrec/internal/models"
)

// Ratings is a sparse per-user rating vector keyed by video id.
type Ratings map[string]float64

// Metric scores how alike two users are.
type Metric interface {
	Name() string
	Range() (lo, hi float64)
	Similarity(a, b Ratings) float64
}

// Names of the built-in metrics.
const (
	NameCosine    = "cosine"
	NamePearson   = "pearson"
	NameAgreement = "agreement"
)

var registry = map[string]Metric{
	NameCosine:    Cosine{},
	NamePearson:   Pearson{},
	NameAgreement: Agreement{},
}

// DefaultName is the metric selected by an empty name.
const DefaultName = NameAgreement

// Lookup resolves a metric by name (case-insensitive). An empty name
// selects DefaultName.
func Lookup(name string) (Metric, error) {
	key := strings.ToLower(strings.TrimSpace(name))
	if key == "" {
		key = DefaultName
	}
	if m, ok := registry[key]; ok {
		return m, nil
	}
	return nil, fmt.Errorf("unknown similarity metric %q (available: %s)", name, strings.Join(Names(), ", "))
}

// Names lists the built-in metric names, sorted.
func Names() []string {
	names := make([]string, 0, len(registry))
	for n := range registry {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// coRated returns the paired values of the videos both users rated, in a
// stable order so floating-point sums are reproducible.
func coRated(a, b Ratings) (xs, ys []float64) {
	small, large, swapped := a, b, false
	if len(b) < len(a) {
		small, large, swapped = b, a, true
	}

	keys := make([]string, 0, len(small))
	for k := range small {
		if _, ok := large[k]; ok {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)

	xs = make([]float64, len(keys))
	ys = make([]float64, len(keys))
	for i, k := range keys {
		xs[i], ys[i] = small[k], large[k]
	}
	if swapped {
		xs, ys = ys, xs
	}
	return xs, ys
}

// CoRatedCount returns the number of videos both users rated.
func CoRatedCount(a, b Ratings) int {
	if len(b) < len(a) {
		a, b = b, a
	}
	n := 0
	for k := range a {
		if _, ok := b[k]; ok {
			n++
		}
	}
	return n
}

func clamp(v, lo, hi float64) float64 {
	if math.IsNaN(v) {
		return 0
	}
	return math.Max(lo, math.Min(hi, v))
}

// Cosine is cosine similarity of the co-rated values. Ratings are
// non-negative, so the range is [0, 1]. Two all-zero restricted vectors are
// identical and score 1.
//
// Raw-rating cosine only measures the angle: with a single co-rated video
// any two positive ratings score 1. Prefer Agreement or Pearson, or wrap it
// in Regularized, when few videos overlap.
type Cosine struct{}

func (Cosine) Name() string { return NameCosine }
func (Cosine) Range() (lo, hi float64) { return 0, 1 }
func (Cosine) Similarity(a, b Ratings) float64 {
	xs, ys := coRated(a, b)
	if len(xs) == 0 {
		return 0
	}
	var dot, na, nb float64
	for i := range xs {
		dot += xs[i] * ys[i]
		na += xs[i] * xs[i]
		nb += ys[i] * ys[i]
	}
	switch {
	case na == 0 && nb == 0:
		return 1
	case na == 0 || nb == 0:
		return 0
	}
	return clamp(dot/math.Sqrt(na*nb), 0, 1)
}

// Pearson is the Pearson correlation of the co-rated values, in [-1, 1].
// With fewer than two co-rated videos or zero variance on either side the
// correlation is undefined; the metric then returns 1 when the values are
// identical and 0 otherwise.
type Pearson struct{}

func (Pearson) Name() string { return NamePearson }
func (Pearson) Range() (lo, hi float64) { return -1, 1 }
func (Pearson) Similarity(a, b Ratings) float64 {
	xs, ys := coRated(a, b)
	n := len(xs)
	if n == 0 {
		return 0
	}

	var mx, my float64
	for i := range xs {
		mx += xs[i]
		my += ys[i]
	}
	mx /= float64(n)
	my /= float64(n)

	var cov, vx, vy float64
	for i := range xs {
		dx, dy := xs[i]-mx, ys[i]-my
		cov += dx * dy
		vx += dx * dx
		vy += dy * dy
	}
	if n < 2 || vx == 0 || vy == 0 {
		if equalValues(xs, ys) {
			return 1
		}
		return 0
	}
	return clamp(cov/math.Sqrt(vx*vy), -1, 1)
}

// Agreement is 1 - mean|a-b|/MaxRating over the co-rated values, in [0, 1].
type Agreement struct{}

func (Agreement) Name() string { return NameAgreement }
func (Agreement) Range() (lo, hi float64) { return 0, 1 }
func (Agreement) Similarity(a, b Ratings) float64 {
	xs, ys := coRated(a, b)
	if len(xs) == 0 {
		return 0
	}
	var diff float64
	for i := range xs {
		diff += math.Abs(xs[i] - ys[i])
	}
	return clamp(1-diff/float64(len(xs))/models.MaxRating, 0, 1)
}

func equalValues(xs, ys []float64) bool {
	for i := range xs {
		if xs[i] != ys[i] {
			return false
		}
	}
	return true
}

// Regularized wraps a metric for neighbor search. Pairs with fewer than
// MinCommon co-rated videos score 0, and the rest are shrunk toward 0 by
// n/(n+Shrinkage) so that a match on one video weighs less than the same
// match on many.
//
// The wrapper does not keep the self-similarity guarantee of the built-in
// metrics once Shrinkage > 0.
type Regularized struct {
	Metric
	MinCommon int
	Shrinkage float64
}

// Regularize wraps m. With minCommon <= 1 and shrinkage <= 0 it returns m
// unchanged.
func Regularize(m Metric, minCommon int, shrinkage float64) Metric {
	if minCommon <= 1 && shrinkage <= 0 {
		return m
	}
	return Regularized{Metric: m, MinCommon: minCommon, Shrinkage: shrinkage}
}

func (r Regularized) Similarity(a, b Ratings) float64 {
	n := CoRatedCount(a, b)
	if n == 0 || n < r.MinCommon {
		return 0
	}
	sim := r.Metric.Similarity(a, b)
	if r.Shrinkage > 0 {
		sim *= float64(n) / (float64(n) + r.Shrinkage)
	}
	return sim
}
