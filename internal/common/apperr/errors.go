// Package apperr defines the error taxonomy shared by every feature.
//
// Services return errors wrapping one of the sentinels below so that callers
// can branch with errors.Is while the message keeps the specific reason.
package apperr

import (
	"errors"
	"fmt"
)

var (
	ErrValidation       = errors.New("validation error")
	ErrInvalidSelection = errors.New("invalid movie selection")
	ErrSessionEnded     = errors.New("voting session has ended")
	ErrDuplicateMember  = errors.New("member already in group")
	ErrMemberNotFound   = errors.New("member not found")
	ErrConflict         = errors.New("conflict")
	ErrNotFound         = errors.New("not found")
	ErrForbidden        = errors.New("forbidden")
	ErrStorage          = errors.New("storage error")
)

func Validation(msg string) error {
	return fmt.Errorf("%w: %s", ErrValidation, msg)
}

func Validationf(format string, args ...any) error {
	return Validation(fmt.Sprintf(format, args...))
}

func Conflict(msg string) error {
	return fmt.Errorf("%w: %s", ErrConflict, msg)
}

func NotFound(what string) error {
	return fmt.Errorf("%s %w", what, ErrNotFound)
}

func Forbidden(msg string) error {
	return fmt.Errorf("%w: %s", ErrForbidden, msg)
}

// Storage wraps a persistence failure. The original error stays reachable
// through errors.Is/As.
func Storage(op string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%w: %s: %w", ErrStorage, op, err)
}
