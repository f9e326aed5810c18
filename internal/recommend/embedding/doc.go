// Vidrec - Video Recommendation and Feedback Learning Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vidrec

// Package embedding turns video text into fixed-length TF-IDF vectors.
//
// A Vocabulary is built from the whole corpus (title, description and tags
// of every video) and is immutable once built. Every embedding records the
// Fingerprint of the vocabulary it was computed against, which lets the
// engine detect mixed-version state. The Embedder publishes the serving
// snapshot through an atomic pointer.
//
//	vocab := embedding.Build(docs)
//	vec := vocab.Embed(embedding.Document(title, description, tags))
//	sim, err := embedding.Cosine(profile, vec)
package embedding
