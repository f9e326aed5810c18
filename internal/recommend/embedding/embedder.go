// Vidrec - Video Recommendation and Feedback Learning Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vidrec

package embedding

import "sync/atomic"

// Embedder holds the vocabulary snapshot the process is serving. Readers
// load it lock-free; writers replace it wholesale with Swap.
type Embedder struct {
	current    atomic.Pointer[Vocabulary]
	generation atomic.Uint64
}

// NewEmbedder starts with an empty vocabulary at generation 0.
func NewEmbedder() *Embedder {
	e := &Embedder{}
	e.current.Store(Build(nil))
	return e
}

// Current returns the serving snapshot. It never returns nil.
func (e *Embedder) Current() *Vocabulary {
	return e.current.Load()
}

// Swap publishes v as the serving snapshot under a new generation and
// returns the published snapshot.
func (e *Embedder) Swap(v *Vocabulary) *Vocabulary {
	published := v.withGeneration(e.generation.Add(1))
	e.current.Store(published)
	return published
}

// Embed embeds text against the serving snapshot and returns the vector
// with the snapshot's fingerprint.
func (e *Embedder) Embed(text string) ([]float64, uint64) {
	v := e.Current()
	return v.Embed(text), v.Fingerprint()
}
