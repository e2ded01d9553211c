// Package apierror defines the error kinds surfaced by pool resolution and challenge completion.
// Each kind has a stable exception name and a gRPC code so callers can map errors to their own status scheme.
package apierror

import (
	"errors"
	"fmt"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// Kind classifies an Error.
type Kind int

const (
	KindInternal Kind = iota
	KindInvalidParameter
	KindResourceNotFound
	KindNotAuthorized
	KindCodeMismatch
	KindUnsupported
)

// Sentinels; errors.Is(err, ErrNotAuthorized) matches any Error of that kind regardless of message.
var (
	ErrInternal         = &Error{Kind: KindInternal}
	ErrInvalidParameter = &Error{Kind: KindInvalidParameter}
	ErrResourceNotFound = &Error{Kind: KindResourceNotFound}
	ErrNotAuthorized    = &Error{Kind: KindNotAuthorized}
	ErrCodeMismatch     = &Error{Kind: KindCodeMismatch}
	ErrUnsupported      = &Error{Kind: KindUnsupported}
)

// Error is a classified error with an optional human-readable message and cause.
type Error struct {
	Kind    Kind
	Message string
	Cause   error
}

// Error implements the error interface.
func (e *Error) Error() string {
	msg := e.Message
	if msg == "" {
		msg = e.Kind.defaultMessage()
	}
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind.Name(), msg, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind.Name(), msg)
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target is a sentinel (message-less Error) of the same kind.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind && t.Message == "" && t.Cause == nil
}

// GRPCStatus lets status.FromError convert Error without callers knowing the kinds.
func (e *Error) GRPCStatus() *status.Status {
	return status.New(e.Kind.GRPCCode(), e.Error())
}

// Name is the stable exception name for the kind (e.g. "NotAuthorizedException").
func (k Kind) Name() string {
	switch k {
	case KindInvalidParameter:
		return "InvalidParameterException"
	case KindResourceNotFound:
		return "ResourceNotFoundException"
	case KindNotAuthorized:
		return "NotAuthorizedException"
	case KindCodeMismatch:
		return "CodeMismatchException"
	case KindUnsupported:
		return "UnsupportedOperationException"
	default:
		return "InternalErrorException"
	}
}

// GRPCCode maps the kind to a gRPC status code.
func (k Kind) GRPCCode() codes.Code {
	switch k {
	case KindInvalidParameter, KindCodeMismatch:
		return codes.InvalidArgument
	case KindResourceNotFound:
		return codes.NotFound
	case KindNotAuthorized:
		return codes.Unauthenticated
	case KindUnsupported:
		return codes.Unimplemented
	default:
		return codes.Internal
	}
}

func (k Kind) defaultMessage() string {
	switch k {
	case KindInvalidParameter:
		return "invalid parameter"
	case KindResourceNotFound:
		return "resource not found"
	case KindNotAuthorized:
		return "incorrect username or password"
	case KindCodeMismatch:
		return "incorrect confirmation code"
	case KindUnsupported:
		return "unsupported operation"
	default:
		return "internal error"
	}
}

// InvalidParameter returns an InvalidParameter error with msg.
func InvalidParameter(msg string) error {
	return &Error{Kind: KindInvalidParameter, Message: msg}
}

// MissingParameter returns an InvalidParameter error naming the missing field.
func MissingParameter(name string) error {
	return InvalidParameter("missing required parameter " + name)
}

// ResourceNotFound returns a ResourceNotFound error with msg.
func ResourceNotFound(msg string) error {
	return &Error{Kind: KindResourceNotFound, Message: msg}
}

// NotAuthorized returns a NotAuthorized error. The message is fixed so callers cannot tell a missing user from a bad credential.
func NotAuthorized() error {
	return &Error{Kind: KindNotAuthorized}
}

// CodeMismatch returns a CodeMismatch error.
func CodeMismatch() error {
	return &Error{Kind: KindCodeMismatch}
}

// Unsupported returns an Unsupported error describing the operation.
func Unsupported(operation string) error {
	return &Error{Kind: KindUnsupported, Message: operation}
}

// Internal wraps cause as an Internal error. Errors that are already classified are returned unchanged.
func Internal(msg string, cause error) error {
	var e *Error
	if errors.As(cause, &e) {
		return cause
	}
	return &Error{Kind: KindInternal, Message: msg, Cause: cause}
}

// KindOf returns the kind of err, or KindInternal when err is not an Error.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}
