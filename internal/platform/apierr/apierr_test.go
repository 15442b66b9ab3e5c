package apierr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestFromUnwrapsChain(t *testing.T) {
	base := New(http.StatusNotFound, "not_found", errors.New("task not found"))
	wrapped := fmt.Errorf("handler: %w", base)

	got := From(wrapped)
	if got.Status != http.StatusNotFound || got.Code != "not_found" {
		t.Fatalf("unexpected api error: %+v", got)
	}
	if got.Error() != "task not found" {
		t.Fatalf("unexpected message: %q", got.Error())
	}
}

func TestFromDefaultsToInternal(t *testing.T) {
	got := From(errors.New("boom"))
	if got.Status != http.StatusInternalServerError || got.Code != "internal" {
		t.Fatalf("unexpected api error: %+v", got)
	}
}
