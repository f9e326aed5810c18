// Vidrec - Video Recommendation and Feedback Learning Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vidrec

// Package validation wraps go-playground/validator v10 with a shared
// instance, an "ident" rule for video and user ids, and messages keyed by
// json field names.
//
//	type VideoInput struct {
//	    ID    string   `json:"id" validate:"required,ident"`
//	    Title string   `json:"title" validate:"required,max=512"`
//	    Tags  []string `json:"tags" validate:"max=64,dive,max=64"`
//	}
//
//	if err := validation.ValidateStruct(&in); err != nil {
//	    var ve *validation.Error
//	    errors.As(err, &ve) // ve.Details() feeds the API error payload
//	}
package validation
