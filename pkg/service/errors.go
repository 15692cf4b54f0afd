package service

import "fmt"

// InvalidInputError reports a payload that failed validation. The
// caller may retry with corrected data.
type InvalidInputError struct {
	Msg string
}

func (e *InvalidInputError) Error() string {
	return fmt.Sprintf("invalid input: %s", e.Msg)
}

// NotFoundError reports that no product exists at the given id. It does
// not indicate corruption.
type NotFoundError struct {
	ID uint64
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("product with id=%d not found", e.ID)
}
