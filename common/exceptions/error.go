package exceptions

import (
	"errors"

	F "github.com/strombase/strom/common/format"
)

type Exception interface {
	error
	Cause() error
}

type causeError struct {
	message string
	cause   error
}

func (e *causeError) Error() string {
	if e.cause == nil {
		return e.message
	}
	return e.message + ": " + e.cause.Error()
}

func (e *causeError) Cause() error {
	return e.cause
}

func (e *causeError) Unwrap() error {
	return e.cause
}

func New(message ...any) error {
	return errors.New(F.ToString(message...))
}

func Cause(cause error, message ...any) Exception {
	return &causeError{F.ToString(message...), cause}
}
