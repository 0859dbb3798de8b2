package apperr

import (
	"errors"
	"fmt"
	"testing"
)

func TestValidationErrorMessage(t *testing.T) {
	cases := []struct {
		err  ValidationError
		want string
	}{
		{ValidationError{Message: "date and records are required"}, "date and records are required"},
		{ValidationError{Field: "date", Message: "is required"}, "date: is required"},
		{ValidationError{Field: "program_type", Value: "MBA", Message: "must be UG or PG"},
			"validation failed for field 'program_type' with value 'MBA': must be UG or PG"},
	}
	for _, tc := range cases {
		if got := tc.err.Error(); got != tc.want {
			t.Errorf("Error() = %q, want %q", got, tc.want)
		}
	}
}

func TestWrappedClassification(t *testing.T) {
	err := fmt.Errorf("import students: %w", Invalid("file", "bad header"))
	if !IsValidation(err) {
		t.Fatal("wrapped validation error not detected")
	}
	if !errors.Is(NotFound("student"), ErrNotFound) {
		t.Fatal("NotFound should wrap ErrNotFound")
	}
	if NotFound("event").Error() != "event not found" {
		t.Fatalf("NotFound message = %q", NotFound("event").Error())
	}
}
