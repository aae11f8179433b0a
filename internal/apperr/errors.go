// Package apperr holds the error taxonomy shared by the site components.
package apperr

import (
	"errors"
	"fmt"
)

// InvalidCredentialsMessage is the only text a failed login ever shows.
// It does not tell a bad email apart from a bad password.
const InvalidCredentialsMessage = "Invalid credentials. Please try again."

var (
	ErrSubmissionInFlight   = errors.New("a submission is already in flight")
	ErrLoginInFlight        = errors.New("a login is already in flight")
	ErrDeleteInFlight       = errors.New("a delete is already in flight")
	ErrNotConfirmed         = errors.New("delete was not confirmed")
	ErrNotAuthenticated     = errors.New("not authenticated")
	ErrAlreadyAuthenticated = errors.New("already authenticated")
	ErrClosed               = errors.New("component closed")
)

// ValidationError is bad input detected locally. It never reaches the network.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// AuthError is a rejected credential check. It carries no remote detail.
type AuthError struct{}

func (e *AuthError) Error() string {
	return InvalidCredentialsMessage
}

// RemoteError wraps a failure of a call to the data gateway or the quote API.
type RemoteError struct {
	Op  string
	Err error
}

func (e *RemoteError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *RemoteError) Unwrap() error {
	return e.Err
}

// Remote wraps err as a RemoteError for op. A nil err stays nil.
func Remote(op string, err error) error {
	if err == nil {
		return nil
	}
	return &RemoteError{Op: op, Err: err}
}

// IsValidation reports whether err is, or wraps, a ValidationError.
func IsValidation(err error) bool {
	var v *ValidationError
	return errors.As(err, &v)
}

// IsAuth reports whether err is, or wraps, an AuthError.
func IsAuth(err error) bool {
	var a *AuthError
	return errors.As(err, &a)
}

// IsRemote reports whether err is, or wraps, a RemoteError.
func IsRemote(err error) bool {
	var r *RemoteError
	return errors.As(err, &r)
}
