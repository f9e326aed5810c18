// Vidrec - Video Recommendation and Feedback Learning Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vidrec

package validation

import (
	"errors"
	"strings"
	"testing"
)

type sampleInput struct {
	ID     string   `json:"id" validate:"required,ident"`
	Title  string   `json:"title" validate:"required,max=10"`
	Tags   []string `json:"tags" validate:"max=2,dive,max=5"`
	Rating *float64 `json:"rating" validate:"omitempty,gte=0,lte=5"`
	Mode   string   `json:"mode" validate:"omitempty,oneof=eager batched"`
}

func ptr(f float64) *float64 { return &f }

func TestGetValidatorSingleton(t *testing.T) {
	t.Parallel()
	if GetValidator() != GetValidator() {
		t.Error("GetValidator() returned different instances")
	}
}

func TestValidateStruct(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		in        sampleInput
		wantField string
		wantTag   string
	}{
		{name: "valid", in: sampleInput{ID: "v1", Title: "ok", Tags: []string{"a"}, Rating: ptr(4.5)}},
		{name: "nil rating allowed", in: sampleInput{ID: "v1", Title: "ok"}},
		{name: "missing id", in: sampleInput{Title: "ok"}, wantField: "id", wantTag: "required"},
		{name: "slash in id", in: sampleInput{ID: "a/b", Title: "ok"}, wantField: "id", wantTag: "ident"},
		{name: "blank id", in: sampleInput{ID: "   ", Title: "ok"}, wantField: "id", wantTag: "ident"},
		{name: "control char id", in: sampleInput{ID: "a\x00b", Title: "ok"}, wantField: "id", wantTag: "ident"},
		{name: "title too long", in: sampleInput{ID: "v1", Title: "abcdefghijk"}, wantField: "title", wantTag: "max"},
		{name: "too many tags", in: sampleInput{ID: "v1", Title: "t", Tags: []string{"a", "b", "c"}}, wantField: "tags", wantTag: "max"},
		{name: "tag too long", in: sampleInput{ID: "v1", Title: "t", Tags: []string{"abcdef"}}, wantField: "tags[0]", wantTag: "max"},
		{name: "rating above max", in: sampleInput{ID: "v1", Title: "t", Rating: ptr(5.5)}, wantField: "rating", wantTag: "lte"},
		{name: "negative rating", in: sampleInput{ID: "v1", Title: "t", Rating: ptr(-1)}, wantField: "rating", wantTag: "gte"},
		{name: "bad mode", in: sampleInput{ID: "v1", Title: "t", Mode: "lazy"}, wantField: "mode", wantTag: "oneof"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			err := ValidateStruct(&tt.in)
			if tt.wantField == "" {
				if err != nil {
					t.Fatalf("ValidateStruct() error = %v", err)
				}
				return
			}

			var ve *Error
			if !errors.As(err, &ve) {
				t.Fatalf("ValidateStruct() error = %v, want *Error", err)
			}
			if len(ve.Fields) != 1 {
				t.Fatalf("Fields = %+v, want one", ve.Fields)
			}
			if got := ve.Fields[0]; got.Field != tt.wantField || got.Tag != tt.wantTag {
				t.Errorf("field error = %s/%s, want %s/%s", got.Field, got.Tag, tt.wantField, tt.wantTag)
			}
		})
	}
}

func TestErrorMessagesAndDetails(t *testing.T) {
	t.Parallel()

	err := ValidateStruct(&sampleInput{Title: "abcdefghijk"})
	var ve *Error
	if !errors.As(err, &ve) {
		t.Fatalf("ValidateStruct() error = %v", err)
	}

	msg := ve.Error()
	for _, want := range []string{"id is required", "title must be at most 10 characters"} {
		if !strings.Contains(msg, want) {
			t.Errorf("Error() = %q, missing %q", msg, want)
		}
	}

	fields, ok := ve.Details()["fields"].([]map[string]interface{})
	if !ok || len(fields) != 2 {
		t.Errorf("Details() = %v, want two fields", ve.Details())
	}
}

func TestIsIdentifier(t *testing.T) {
	t.Parallel()

	if !IsIdentifier("user-42") || !IsIdentifier("vidéo_1") {
		t.Error("IsIdentifier rejected a valid id")
	}
	if IsIdentifier(strings.Repeat("x", MaxIdentifierLength+1)) {
		t.Error("IsIdentifier accepted an over-long id")
	}
}
