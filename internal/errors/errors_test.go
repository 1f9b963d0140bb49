package errors

import (
	"errors"
	"fmt"
	"testing"
)

func TestSentinelErrors(t *testing.T) {
	wrapped := fmt.Errorf("loading links: %w", ErrMissingIndexSource)
	if !errors.Is(wrapped, ErrMissingIndexSource) {
		t.Error("wrapped error should match ErrMissingIndexSource")
	}
	if errors.Is(wrapped, ErrEmptyResultSet) {
		t.Error("wrapped error should not match unrelated sentinel")
	}
}

func TestMalformedRowError(t *testing.T) {
	err := NewMalformedRowError("document_links.csv", 7, "empty equipment")

	want := "malformed row 7 in document_links.csv: empty equipment"
	if err.Error() != want {
		t.Errorf("Error() = %q, want %q", err.Error(), want)
	}
}

func TestCollaboratorError(t *testing.T) {
	base := errors.New("deadline exceeded")
	err := NewCollaboratorError("gemini", base)

	if !errors.Is(err, base) {
		t.Error("collaborator error should unwrap to base error")
	}

	var collab *CollaboratorError
	if !errors.As(err, &collab) {
		t.Fatal("errors.As should match *CollaboratorError")
	}
	if collab.Provider != "gemini" {
		t.Errorf("Provider = %q, want gemini", collab.Provider)
	}
}
