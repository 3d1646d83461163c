package domain

import (
	"errors"
	"fmt"
)

// ValidationError reports bad input or a violated business rule.
type ValidationError struct {
	Msg string
}

func (e ValidationError) Error() string { return e.Msg }

// NotFoundError reports a referenced entity that does not exist.
type NotFoundError struct {
	Msg string
}

func (e NotFoundError) Error() string { return e.Msg }

func Invalid(format string, args ...any) error {
	return ValidationError{Msg: fmt.Sprintf(format, args...)}
}

func NotFound(format string, args ...any) error {
	return NotFoundError{Msg: fmt.Sprintf(format, args...)}
}

func IsValidation(err error) bool {
	var ve ValidationError
	return errors.As(err, &ve)
}

func IsNotFound(err error) bool {
	var nf NotFoundError
	return errors.As(err, &nf)
}
