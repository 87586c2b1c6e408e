package apierr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestFromPassesTypedErrorsThrough(t *testing.T) {
	typed := NotFound("member %s missing", "abc")
	if got := From(typed); got != typed {
		t.Fatalf("expected typed error to pass through, got %v", got)
	}

	wrapped := fmt.Errorf("service layer: %w", typed)
	if got := From(wrapped); got != typed {
		t.Fatalf("expected wrapped typed error to unwrap, got %v", got)
	}
}

func TestFromWrapsUnknownErrorsAsInternal(t *testing.T) {
	cause := errors.New("connection refused")
	got := From(cause)
	if got.Status != http.StatusInternalServerError || got.Code != "internal" {
		t.Fatalf("expected internal wrap, got %+v", got)
	}
	if !errors.Is(got, cause) {
		t.Fatalf("expected cause to stay reachable")
	}
}

func TestFromNil(t *testing.T) {
	if got := From(nil); got != nil {
		t.Fatalf("expected nil, got %v", got)
	}
}

func TestWithField(t *testing.T) {
	err := Unauthorized("bad code").WithField("code", "mismatch")
	if err.Fields["code"] != "mismatch" {
		t.Fatalf("expected field to be set, got %v", err.Fields)
	}
}

func TestConstructorStatuses(t *testing.T) {
	cases := []struct {
		err  *Error
		want int
	}{
		{NotFound("x"), http.StatusNotFound},
		{Conflict("x"), http.StatusConflict},
		{Unauthorized("x"), http.StatusUnauthorized},
		{Forbidden("x"), http.StatusForbidden},
		{InvalidRequest(map[string]string{"a": "b"}), http.StatusBadRequest},
		{Internal(errors.New("x")), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		if tc.err.Status != tc.want {
			t.Fatalf("expected status %d for code %q, got %d", tc.want, tc.err.Code, tc.err.Status)
		}
	}
}
