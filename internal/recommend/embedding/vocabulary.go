// Vidrec - Video Recommendation and Feedback Learning Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vidrec

package embedding

import (
	"encoding/binary"
	"hash/fnv"
	"math"
	"sort"
)

// Vocabulary is an immutable TF-IDF model built from a corpus. The index of
// a term in Terms is its embedding dimension.
type Vocabulary struct {
	terms       []string
	index       map[string]int
	idf         []float64
	docCount    int
	fingerprint uint64
	generation  uint64
}

// Build derives a vocabulary from docs. Terms are sorted lexically so the
// same corpus always yields the same dimensions and fingerprint. IDF is
// smoothed: ln((1+N)/(1+df)) + 1.
func Build(docs []string) *Vocabulary {
	df := make(map[string]int)
	for _, doc := range docs {
		seen := make(map[string]struct{})
		for _, tok := range Tokenize(doc) {
			if _, ok := seen[tok]; ok {
				continue
			}
			seen[tok] = struct{}{}
			df[tok]++
		}
	}

	terms := make([]string, 0, len(df))
	for term := range df {
		terms = append(terms, term)
	}
	sort.Strings(terms)

	n := float64(len(docs))
	v := &Vocabulary{
		terms:    terms,
		index:    make(map[string]int, len(terms)),
		idf:      make([]float64, len(terms)),
		docCount: len(docs),
	}
	for i, term := range terms {
		v.index[term] = i
		v.idf[i] = math.Log((1+n)/(1+float64(df[term]))) + 1
	}
	v.fingerprint = v.computeFingerprint()
	return v
}

func (v *Vocabulary) computeFingerprint() uint64 {
	h := fnv.New64a()
	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], uint64(v.docCount))
	_, _ = h.Write(buf[:])
	for i, term := range v.terms {
		_, _ = h.Write([]byte(term))
		_, _ = h.Write([]byte{0})
		binary.BigEndian.PutUint64(buf[:], math.Float64bits(v.idf[i]))
		_, _ = h.Write(buf[:])
	}
	return h.Sum64()
}

// Dim is the embedding dimensionality.
func (v *Vocabulary) Dim() int { return len(v.terms) }

// Terms returns a copy of the sorted term list.
func (v *Vocabulary) Terms() []string {
	out := make([]string, len(v.terms))
	copy(out, v.terms)
	return out
}

// DocCount is the number of documents the vocabulary was built from.
func (v *Vocabulary) DocCount() int { return v.docCount }

// Fingerprint identifies the vocabulary's content. Embeddings record it as
// their version; two vocabularies with equal fingerprints embed identically.
func (v *Vocabulary) Fingerprint() uint64 { return v.fingerprint }

// Generation is the process-local swap counter of the snapshot.
func (v *Vocabulary) Generation() uint64 { return v.generation }

// IDF returns the inverse document frequency of term, or 0 if unknown.
func (v *Vocabulary) IDF(term string) float64 {
	if i, ok := v.index[term]; ok {
		return v.idf[i]
	}
	return 0
}

// Embed returns the L2-normalized TF-IDF vector of text. Unknown terms are
// ignored, so text with no known term yields the zero vector of length Dim.
func (v *Vocabulary) Embed(text string) []float64 {
	vec := make([]float64, len(v.terms))
	for _, tok := range Tokenize(text) {
		if i, ok := v.index[tok]; ok {
			vec[i] += v.idf[i]
		}
	}
	Normalize(vec)
	return vec
}

// HasNewTerms reports whether text contains a token the vocabulary lacks.
func (v *Vocabulary) HasNewTerms(text string) bool {
	for _, tok := range Tokenize(text) {
		if _, ok := v.index[tok]; !ok {
			return true
		}
	}
	return false
}

func (v *Vocabulary) withGeneration(gen uint64) *Vocabulary {
	cp := *v
	cp.generation = gen
	return &cp
}
