// Vidrec - Video Recommendation and Feedback Learning Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vidrec

// Package testinfra provides shared test infrastructure.
//
// # Store Conformance
//
// RunStoreConformance runs the store.Store contract against a backend. Each
// backend package calls it with a factory that opens a fresh store:
//
//	func TestConformance(t *testing.T) {
//	    testinfra.RunStoreConformance(t, func(t *testing.T) store.Store {
//	        s, err := badgerstore.Open(badgerstore.Config{Path: t.TempDir()})
//	        if err != nil {
//	            t.Fatal(err)
//	        }
//	        t.Cleanup(func() { _ = s.Close() })
//	        return s
//	    })
//	}
//
// The suite covers round trips, filter semantics, result ordering, like
// idempotence and transaction rollback. All backends are embedded, so no
// containers or network access are needed.
package testinfra
