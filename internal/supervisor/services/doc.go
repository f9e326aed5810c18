// Vidrec - Video Recommendation and Feedback Learning Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vidrec

// Package services adapts vidrec components to suture.Service.
//
// Every service blocks in Serve until its context is canceled and returns
// ctx.Err() on a clean stop, so suture does not count shutdown as a failure.
package services
