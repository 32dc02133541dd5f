package apperr

import (
	"errors"
	"fmt"

	goerrors "github.com/go-errors/errors"
)

type Type string

const (
	TypeUnavailable  Type = "UNAVAILABLE"
	TypeRejected     Type = "REJECTED"
	TypeNotFound     Type = "NOT_FOUND"
	TypeInvalidInput Type = "INVALID_INPUT"
	TypeUnauthorized Type = "UNAUTHORIZED"
	TypeInternal     Type = "INTERNAL"
)

// Error is a typed outcome carrying the stack of the point it was raised.
type Error struct {
	Type    Type
	Message string
	Err     error
	Stack   []byte
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Type, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

func New(t Type, message string, err error) *Error {
	var stack []byte
	var ge *goerrors.Error
	if errors.As(err, &ge) {
		stack = ge.Stack()
	} else if err != nil {
		stack = goerrors.Wrap(err, 2).Stack()
	} else {
		stack = goerrors.New(message).Stack()
	}
	return &Error{Type: t, Message: message, Err: err, Stack: stack}
}

func Unavailable(message string, err error) *Error  { return New(TypeUnavailable, message, err) }
func Rejected(message string, err error) *Error     { return New(TypeRejected, message, err) }
func NotFound(message string, err error) *Error     { return New(TypeNotFound, message, err) }
func InvalidInput(message string, err error) *Error { return New(TypeInvalidInput, message, err) }
func Unauthorized(message string, err error) *Error { return New(TypeUnauthorized, message, err) }
func Internal(message string, err error) *Error     { return New(TypeInternal, message, err) }

// TypeOf returns the type of the outermost *Error in err's chain.
func TypeOf(err error) (Type, bool) {
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Type, true
	}
	return "", false
}

func Is(err error, t Type) bool {
	got, ok := TypeOf(err)
	return ok && got == t
}
