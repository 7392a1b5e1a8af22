package domain

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrEmptyReview   = errors.New("review text is empty")
	ErrInvalidRating = errors.New("star rating must be between 1 and 5")
	ErrEmptyFile     = errors.New("uploaded file is empty")
	ErrNotFound      = errors.New("not found")
)

// MissingColumnsError reports required batch columns absent from the upload header.
type MissingColumnsError struct {
	Missing []string
}

func (e *MissingColumnsError) Error() string {
	return "file must contain columns: " + strings.Join(RequiredColumns, ", ") +
		" (missing: " + strings.Join(e.Missing, ", ") + ")"
}

// UnknownLabelError is returned when a label is outside the model's class vocabulary.
type UnknownLabelError struct {
	Label string
}

func (e *UnknownLabelError) Error() string {
	return fmt.Sprintf("label %q is not a known class", e.Label)
}
