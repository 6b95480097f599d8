package exceptions

import (
	"errors"
	"strings"

	"github.com/strombase/strom/common"
	F "github.com/strombase/strom/common/format"
)

type MultiError interface {
	UnwrapMulti() []error
}

type multiError struct {
	errors []error
}

func (e *multiError) Error() string {
	return "multi error: (" + strings.Join(F.MapToString(e.errors), " | ") + ")"
}

func (e *multiError) UnwrapMulti() []error {
	return e.errors
}

func Errors(errorList ...error) error {
	var errs []error
	for _, err := range errorList {
		if err == nil {
			continue
		}
		errs = append(errs, err)
	}
	switch len(errs) {
	case 0:
		return nil
	case 1:
		return errs[0]
	}
	return &multiError{errs}
}

func IsMulti(err error, targetList ...error) bool {
	for _, target := range targetList {
		if errors.Is(err, target) {
			return true
		}
	}
	err = Unwrap(err)
	multiErr, isMulti := err.(MultiError)
	if !isMulti {
		return false
	}
	return common.All(multiErr.UnwrapMulti(), func(it error) bool {
		return IsMulti(it, targetList...)
	})
}
