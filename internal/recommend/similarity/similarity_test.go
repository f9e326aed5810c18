// Vidrec - Video Recommendation and Feedback Learning Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vidrec

package similarity

import (
	"math"
	"testing"
)

const eps = 1e-9

func allMetrics() []Metric {
	return []Metric{Cosine{}, Pearson{}, Agreement{}}
}

func TestSelfSimilarityIsMaximum(t *testing.T) {
	t.Parallel()

	vectors := []Ratings{
		{"v1": 5},
		{"v1": 0},
		{"v1": 4, "v2": 2, "v3": 5},
		{"v1": 3, "v2": 3},
	}

	for _, m := range allMetrics() {
		for _, r := range vectors {
			_, hi := m.Range()
			if got := m.Similarity(r, r); math.Abs(got-hi) > eps {
				t.Errorf("%s.Similarity(%v, self) = %v, want %v", m.Name(), r, got, hi)
			}
		}
	}
}

func TestDisjointIsZero(t *testing.T) {
	t.Parallel()

	a := Ratings{"v1": 5, "v2": 4}
	b := Ratings{"v3": 5, "v4": 1}

	for _, m := range allMetrics() {
		if got := m.Similarity(a, b); got != 0 {
			t.Errorf("%s.Similarity(disjoint) = %v, want 0", m.Name(), got)
		}
		if got := m.Similarity(Ratings{}, a); got != 0 {
			t.Errorf("%s.Similarity(empty) = %v, want 0", m.Name(), got)
		}
	}
}

func TestSymmetricAndInRange(t *testing.T) {
	t.Parallel()

	pairs := [][2]Ratings{
		{{"v1": 5, "v2": 1, "v3": 3}, {"v1": 4, "v2": 2, "v4": 5}},
		{{"v1": 1, "v2": 5}, {"v1": 5, "v2": 1}},
		{{"v1": 0, "v2": 2.5}, {"v1": 5, "v2": 2.5, "v9": 1}},
		{{"v1": 5}, {"v1": 1}},
	}

	for _, m := range allMetrics() {
		lo, hi := m.Range()
		for _, p := range pairs {
			ab, ba := m.Similarity(p[0], p[1]), m.Similarity(p[1], p[0])
			if math.Abs(ab-ba) > eps {
				t.Errorf("%s not symmetric: %v vs %v", m.Name(), ab, ba)
			}
			if ab < lo || ab > hi || math.IsNaN(ab) {
				t.Errorf("%s.Similarity(%v, %v) = %v outside [%v, %v]", m.Name(), p[0], p[1], ab, lo, hi)
			}
		}
	}
}

func TestKnownValues(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		metric Metric
		a, b   Ratings
		want   float64
	}{
		{
			name:   "cosine co-rated only",
			metric: Cosine{},
			a:      Ratings{"v1": 3, "v2": 4, "x": 5},
			b:      Ratings{"v1": 3, "v2": 4, "y": 1},
			want:   1,
		},
		{
			name:   "cosine one zero side",
			metric: Cosine{},
			a:      Ratings{"v1": 0},
			b:      Ratings{"v1": 4},
			want:   0,
		},
		{
			name:   "cosine partial",
			metric: Cosine{},
			a:      Ratings{"v1": 5, "v2": 0},
			b:      Ratings{"v1": 5, "v2": 5},
			want:   1 / math.Sqrt2,
		},
		{
			name:   "pearson perfectly inverse",
			metric: Pearson{},
			a:      Ratings{"v1": 1, "v2": 5},
			b:      Ratings{"v1": 5, "v2": 1},
			want:   -1,
		},
		{
			name:   "pearson single differing item",
			metric: Pearson{},
			a:      Ratings{"v1": 5},
			b:      Ratings{"v1": 4},
			want:   0,
		},
		{
			name:   "pearson constant identical",
			metric: Pearson{},
			a:      Ratings{"v1": 3, "v2": 3},
			b:      Ratings{"v1": 3, "v2": 3},
			want:   1,
		},
		{
			name:   "agreement mean difference",
			metric: Agreement{},
			a:      Ratings{"v1": 5, "v2": 1},
			b:      Ratings{"v1": 4, "v2": 4},
			want:   1 - (1.0+3.0)/2/5,
		},
		{
			name:   "agreement maximal disagreement",
			metric: Agreement{},
			a:      Ratings{"v1": 0},
			b:      Ratings{"v1": 5},
			want:   0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := tt.metric.Similarity(tt.a, tt.b); math.Abs(got-tt.want) > eps {
				t.Errorf("Similarity() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestLookup(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		want    string
		wantErr bool
	}{
		{name: "", want: NameAgreement},
		{name: "cosine", want: NameCosine},
		{name: " Pearson ", want: NamePearson},
		{name: "AGREEMENT", want: NameAgreement},
		{name: "jaccard", wantErr: true},
	}

	for _, tt := range tests {
		m, err := Lookup(tt.name)
		if tt.wantErr {
			if err == nil {
				t.Errorf("Lookup(%q) error = nil, want error", tt.name)
			}
			continue
		}
		if err != nil {
			t.Errorf("Lookup(%q) error = %v", tt.name, err)
			continue
		}
		if m.Name() != tt.want {
			t.Errorf("Lookup(%q).Name() = %q, want %q", tt.name, m.Name(), tt.want)
		}
	}

	if got := Names(); len(got) != 3 || got[0] != NameAgreement {
		t.Errorf("Names() = %v", got)
	}
}

func TestRegularized(t *testing.T) {
	t.Parallel()

	one := Ratings{"v1": 5}
	three := Ratings{"v1": 5, "v2": 4, "v3": 3}

	tests := []struct {
		name      string
		minCommon int
		shrinkage float64
		a, b      Ratings
		want      float64
	}{
		{name: "passthrough", a: one, b: one, want: 1},
		{name: "below floor", minCommon: 3, a: one, b: one, want: 0},
		{name: "at floor", minCommon: 3, a: three, b: three, want: 1},
		{name: "shrink one shared", shrinkage: 1, a: one, b: one, want: 0.5},
		{name: "shrink three shared", shrinkage: 1, a: three, b: three, want: 0.75},
		{name: "disjoint", shrinkage: 1, a: one, b: Ratings{"v9": 5}, want: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			m := Regularize(Agreement{}, tt.minCommon, tt.shrinkage)
			if m.Name() != NameAgreement {
				t.Errorf("Name() = %q, want %q", m.Name(), NameAgreement)
			}
			if got := m.Similarity(tt.a, tt.b); math.Abs(got-tt.want) > eps {
				t.Errorf("Similarity() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestDisagreementScoresBelowAgreement(t *testing.T) {
	t.Parallel()

	user := Ratings{"v": 5}
	agrees := Ratings{"v": 5}
	disagrees := Ratings{"v": 1}

	for _, m := range []Metric{Agreement{}, Regularize(Agreement{}, 1, 1)} {
		if a, d := m.Similarity(user, agrees), m.Similarity(user, disagrees); d >= a {
			t.Errorf("%s: disagreeing user scored %v, agreeing user %v", m.Name(), d, a)
		}
	}
}

func TestCoRatedCount(t *testing.T) {
	t.Parallel()

	a := Ratings{"v1": 1, "v2": 2, "v3": 3}
	b := Ratings{"v2": 5, "v3": 1, "v4": 2}
	if got := CoRatedCount(a, b); got != 2 {
		t.Errorf("CoRatedCount() = %d, want 2", got)
	}
	if got := CoRatedCount(b, a); got != 2 {
		t.Errorf("CoRatedCount() reversed = %d, want 2", got)
	}
}
