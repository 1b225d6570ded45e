package util

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/jackc/pgx/v5"
)

func TestToDomainErrorPassthrough(t *testing.T) {
	original := NewForbidden("nope")
	mapped := ToDomainError(original)
	if mapped.Code != "FORBIDDEN" || mapped.HTTPStatus != http.StatusForbidden {
		t.Fatalf("unexpected mapping: %+v", mapped)
	}
	if mapped != original.(*DomainError) {
		t.Fatal("existing DomainError should pass through unchanged")
	}
}

func TestToDomainErrorWrapped(t *testing.T) {
	wrapped := fmt.Errorf("loading profile: %w", NewValidationError("bad input", nil))
	mapped := ToDomainError(wrapped)
	if mapped.Code != "VALIDATION_FAILED" {
		t.Fatalf("code = %s, want VALIDATION_FAILED", mapped.Code)
	}
}

func TestToDomainErrorNoRows(t *testing.T) {
	mapped := ToDomainError(fmt.Errorf("query: %w", pgx.ErrNoRows))
	if mapped.Code != "NOT_FOUND" || mapped.HTTPStatus != http.StatusNotFound {
		t.Fatalf("unexpected mapping: %+v", mapped)
	}
}

func TestToDomainErrorUnknown(t *testing.T) {
	mapped := ToDomainError(errors.New("disk on fire"))
	if mapped.Code != "INTERNAL_ERROR" || mapped.HTTPStatus != http.StatusInternalServerError {
		t.Fatalf("unexpected mapping: %+v", mapped)
	}
	if !errors.Is(mapped, mapped.Err) {
		t.Fatal("cause not preserved")
	}
}

func TestErrorCodes(t *testing.T) {
	tests := []struct {
		err    error
		code   string
		status int
	}{
		{NewValidationError("x", nil), "VALIDATION_FAILED", http.StatusBadRequest},
		{NewNotFound("issue", nil), "NOT_FOUND", http.StatusNotFound},
		{NewUnauthenticated("x"), "UNAUTHENTICATED", http.StatusUnauthorized},
		{NewForbidden("x"), "FORBIDDEN", http.StatusForbidden},
		{NewConflict("x", nil), "CONFLICT", http.StatusConflict},
		{NewRateLimited("x", nil), "RATE_LIMITED", http.StatusTooManyRequests},
		{NewInternalError(nil), "INTERNAL_ERROR", http.StatusInternalServerError},
	}
	for _, tc := range tests {
		var domainErr *DomainError
		if !errors.As(tc.err, &domainErr) {
			t.Fatalf("%v is not a DomainError", tc.err)
		}
		if domainErr.Code != tc.code || domainErr.HTTPStatus != tc.status {
			t.Errorf("got (%s, %d), want (%s, %d)", domainErr.Code, domainErr.HTTPStatus, tc.code, tc.status)
		}
	}
}
