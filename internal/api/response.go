// Vidrec - Video Recommendation and Feedback Learning Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vidrec

package api

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/vidrec/internal/logging"
	"github.com/tomtom215/vidrec/internal/models"
	"github.com/tomtom215/vidrec/internal/recommend"
	"github.com/tomtom215/vidrec/internal/validation"
)

// Error codes for API responses.
const (
	ErrCodeBadRequest        = "BAD_REQUEST"
	ErrCodeMethodNotAllowed  = "METHOD_NOT_ALLOWED"
	ErrCodeValidation        = "VALIDATION_ERROR"
	ErrCodeNotFound          = "NOT_FOUND"
	ErrCodeConflict          = "CONFLICT"
	ErrCodeRateLimited       = "RATE_LIMIT_EXCEEDED"
	ErrCodeInconsistentState = "INCONSISTENT_STATE"
	ErrCodeStorageFailure    = "STORAGE_FAILURE"
	ErrCodeInternal          = "INTERNAL_ERROR"
	ErrCodeUnavailable       = "SERVICE_UNAVAILABLE"
)

const maxBodyBytes = 1 << 20

// sanitizeLogValue escapes control characters so request data cannot forge
// log lines.
func sanitizeLogValue(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if r < 0x20 || r == 0x7F {
			fmt.Fprintf(&b, "\\x%02x", r)
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// respondJSON writes the envelope with the given status.
func respondJSON(w http.ResponseWriter, r *http.Request, status int, response *models.APIResponse) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")

	data, err := json.Marshal(response)
	if err != nil {
		logging.Ctx(r.Context()).Error().Err(err).Msg("failed to marshal JSON response")
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
	w.WriteHeader(status)
	if _, err := w.Write(data); err != nil {
		logging.Ctx(r.Context()).Debug().Err(err).Msg("failed to write JSON response")
	}
}

// respondSuccess writes a success envelope. started feeds QueryTimeMS.
func respondSuccess(w http.ResponseWriter, r *http.Request, status int, data interface{}, started time.Time) {
	respondJSON(w, r, status, &models.APIResponse{
		Status: "success",
		Data:   data,
		Metadata: models.Metadata{
			Timestamp:   time.Now().UTC(),
			QueryTimeMS: time.Since(started).Milliseconds(),
		},
	})
}

// respondError writes an error envelope.
func respondError(w http.ResponseWriter, r *http.Request, status int, code, message string, details map[string]interface{}) {
	respondJSON(w, r, status, &models.APIResponse{
		Status:   "error",
		Metadata: models.Metadata{Timestamp: time.Now().UTC()},
		Error: &models.APIError{
			Code:    code,
			Message: message,
			Details: details,
		},
	})
}

// respondEngineError maps an engine error to a status and error code.
//
//	not found          -> 404 NOT_FOUND
//	invalid input      -> 400 VALIDATION_ERROR
//	inconsistent state -> 500 INCONSISTENT_STATE
//	storage failure    -> 503 STORAGE_FAILURE
//	retrain running    -> 409 CONFLICT
func respondEngineError(w http.ResponseWriter, r *http.Request, err error) {
	logger := logging.Ctx(r.Context())

	if errors.Is(err, recommend.ErrRetrainInProgress) {
		respondError(w, r, http.StatusConflict, ErrCodeConflict, "A retrain is already in progress", nil)
		return
	}

	switch recommend.KindOf(err) {
	case recommend.KindNotFound:
		respondError(w, r, http.StatusNotFound, ErrCodeNotFound, err.Error(), nil)
	case recommend.KindInvalidInput:
		var details map[string]interface{}
		var verr *validation.Error
		if errors.As(err, &verr) {
			details = verr.Details()
		}
		respondError(w, r, http.StatusBadRequest, ErrCodeValidation, err.Error(), details)
	case recommend.KindInconsistentState:
		logger.Error().Str("error", sanitizeLogValue(err.Error())).Msg("inconsistent engine state")
		respondError(w, r, http.StatusInternalServerError, ErrCodeInconsistentState,
			"Stored vectors disagree with the served vocabulary; a retrain is required", nil)
	case recommend.KindStorageFailure:
		logger.Warn().Str("error", sanitizeLogValue(err.Error())).Msg("storage failure")
		respondError(w, r, http.StatusServiceUnavailable, ErrCodeStorageFailure, "Storage is unavailable", nil)
	default:
		logger.Error().Str("error", sanitizeLogValue(err.Error())).Msg("unexpected engine error")
		respondError(w, r, http.StatusInternalServerError, ErrCodeInternal, "Internal server error", nil)
	}
}

// decodeJSON reads a JSON body into dst. Unknown fields and trailing data
// are rejected.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		respondError(w, r, http.StatusBadRequest, ErrCodeBadRequest, "Invalid JSON body: "+err.Error(), nil)
		return false
	}
	if dec.More() {
		respondError(w, r, http.StatusBadRequest, ErrCodeBadRequest, "Invalid JSON body: trailing data", nil)
		return false
	}
	return true
}
