package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestHTTPStatus(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"not found", NotFound("case", "abc"), http.StatusNotFound},
		{"forbidden", Forbidden("nope"), http.StatusForbidden},
		{"validation", Validation("bad input"), http.StatusBadRequest},
		{"persistence", Persistence("insert", errors.New("boom")), http.StatusInternalServerError},
		{"wrapped not found", fmt.Errorf("outer: %w", NotFound("report", "r1")), http.StatusNotFound},
		{"plain error", errors.New("unexpected"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := HTTPStatus(tt.err); got != tt.want {
				t.Fatalf("HTTPStatus() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestErrorKinds(t *testing.T) {
	err := NotFound("patient", "p1")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected errors.Is(err, ErrNotFound) to hold for %v", err)
	}
	if errors.Is(err, ErrForbidden) {
		t.Fatalf("did not expect errors.Is(err, ErrForbidden) for %v", err)
	}

	wrapped := fmt.Errorf("attach: %w", Persistence("update", errors.New("conn reset")))
	if !errors.Is(wrapped, ErrPersistence) {
		t.Fatalf("expected wrapped persistence error to match ErrPersistence")
	}
}
