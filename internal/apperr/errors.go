package apperr

import (
	"errors"
	"fmt"

	goerrors "github.com/go-errors/errors"
)

// Kind classifies a failure so callers can react without string matching.
type Kind string

const (
	KindRemoteCallFailure    Kind = "REMOTE_CALL_FAILURE"
	KindInvalidResponse      Kind = "INVALID_RESPONSE_KIND"
	KindEmptyDocument        Kind = "EMPTY_DOCUMENT"
	KindUnrenderableDocument Kind = "UNRENDERABLE_DOCUMENT"
	KindMissingResumeData    Kind = "MISSING_RESUME_DATA"
	KindUnsupportedFile      Kind = "UNSUPPORTED_FILE"
	KindNotFound             Kind = "NOT_FOUND"
	KindInvalidTransition    Kind = "INVALID_TRANSITION"
	KindOperationInProgress  Kind = "OPERATION_IN_PROGRESS"
	KindInvalidInput         Kind = "INVALID_INPUT"
	KindUnauthorized         Kind = "UNAUTHORIZED"
	KindForbidden            Kind = "FORBIDDEN"
	KindInternal             Kind = "INTERNAL"
)

// Error is a classified error carrying the stack of the point where it was raised.
type Error struct {
	Kind    Kind
	Message string
	Err     error
	Stack   []byte
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// StackTrace returns the captured stack.
func (e *Error) StackTrace() []byte {
	return e.Stack
}

// New builds a classified error, wrapping err when it is non-nil.
func New(kind Kind, message string, err error) *Error {
	var stack []byte
	if err != nil {
		var stackErr *goerrors.Error
		if errors.As(err, &stackErr) {
			stack = stackErr.Stack()
		} else {
			stack = goerrors.Wrap(err, 2).Stack()
		}
	} else {
		stack = goerrors.New(message).Stack()
	}

	return &Error{
		Kind:    kind,
		Message: message,
		Err:     err,
		Stack:   stack,
	}
}

// KindOf returns the kind of the first classified error in err's chain,
// or KindInternal when there is none.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// Is reports whether err's chain carries the given kind.
func Is(err error, kind Kind) bool {
	var e *Error
	return errors.As(err, &e) && e.Kind == kind
}

// MessageOf returns the user facing message of the first classified error.
func MessageOf(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	return "internal server error"
}

func RemoteCallFailure(message string, err error) *Error {
	return New(KindRemoteCallFailure, message, err)
}

func InvalidResponse(message string, err error) *Error {
	return New(KindInvalidResponse, message, err)
}

func EmptyDocument(message string) *Error {
	return New(KindEmptyDocument, message, nil)
}

func UnrenderableDocument(message string, err error) *Error {
	return New(KindUnrenderableDocument, message, err)
}

func MissingResumeData(message string) *Error {
	return New(KindMissingResumeData, message, nil)
}

func UnsupportedFile(message string) *Error {
	return New(KindUnsupportedFile, message, nil)
}

func NotFound(message string) *Error {
	return New(KindNotFound, message, nil)
}

func InvalidTransition(message string) *Error {
	return New(KindInvalidTransition, message, nil)
}

func OperationInProgress(message string) *Error {
	return New(KindOperationInProgress, message, nil)
}

func InvalidInput(message string, err error) *Error {
	return New(KindInvalidInput, message, err)
}

func Unauthorized(message string) *Error {
	return New(KindUnauthorized, message, nil)
}

func Forbidden(message string) *Error {
	return New(KindForbidden, message, nil)
}

func Internal(message string, err error) *Error {
	return New(KindInternal, message, err)
}
