package game

import (
	"errors"
	"fmt"
)

// ValidationError reports an illegal request by the acting player: wrong
// turn, illegal action for the current state, or a bad amount. The game
// state is never mutated when one is returned; the game continues.
type ValidationError struct {
	msg string
}

func (e *ValidationError) Error() string { return e.msg }

func validationErrorf(format string, args ...any) error {
	return &ValidationError{msg: fmt.Sprintf(format, args...)}
}

// IsValidation reports whether err is a recoverable player-input error.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// IntegrityError reports a broken money invariant: a pot that does not sum
// to its contributions, a distributable pot with no eligible winner, or a
// chip-conservation violation. These should never occur; when one does the
// table must halt rather than continue with corrupt accounting.
type IntegrityError struct {
	msg   string
	cause error
}

func (e *IntegrityError) Error() string { return e.msg }

// Unwrap exposes the underlying sentinel, if any, to errors.Is.
func (e *IntegrityError) Unwrap() error { return e.cause }

func integrityErrorf(format string, args ...any) error {
	return &IntegrityError{msg: fmt.Sprintf(format, args...)}
}

func integrityWrapf(cause error, format string, args ...any) error {
	return &IntegrityError{
		msg:   fmt.Sprintf(format, args...) + ": " + cause.Error(),
		cause: cause,
	}
}

// IsIntegrity reports whether err indicates corrupt chip accounting.
func IsIntegrity(err error) bool {
	var ie *IntegrityError
	return errors.As(err, &ie)
}

// ErrNoEligibleWinner is wrapped into the IntegrityError returned when a
// pot reaches distribution with an empty eligible set.
var ErrNoEligibleWinner = errors.New("pot has no eligible winner")
