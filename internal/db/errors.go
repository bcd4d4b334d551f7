package db

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidSort       = errors.New("invalid sort parameter")
	ErrInvalidPagination = errors.New("invalid pagination parameter")
)

// NotFoundError carries the name that was looked up.
type NotFoundError struct {
	Name string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("country %q not found", e.Name)
}
