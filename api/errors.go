// Package api
// Author: momentics <momentics@gmail.com>
//
// Error kinds reported by the frame decoder and the message receiver.

package api

import (
	"errors"
	"fmt"
)

// ErrorCode classifies an Error.
type ErrorCode int

const (
	ErrCodeOK ErrorCode = iota
	ErrCodeTransport
	ErrCodeEndOfStream
	ErrCodeWouldBlock
	ErrCodeNotSupported
	ErrCodeInvalidArgument

	// Protocol violations. Keep them contiguous, IsProtocol relies on the range.
	ErrCodeUnexpectedContinuation
	ErrCodeUnexpectedOpcode
	ErrCodeMalformedHeader
	ErrCodeMaskMismatch
	ErrCodeReservedBits
	ErrCodeControlFrameTooLarge
	ErrCodeFragmentedControl
	ErrCodeFrameTooLarge
	ErrCodeInvalidClosePayload
	ErrCodeInvalidUTF8
)

// IsProtocol reports whether the code is a protocol violation.
func (c ErrorCode) IsProtocol() bool {
	return c >= ErrCodeUnexpectedContinuation && c <= ErrCodeInvalidUTF8
}

func (c ErrorCode) String() string {
	switch c {
	case ErrCodeOK:
		return "ok"
	case ErrCodeTransport:
		return "transport"
	case ErrCodeEndOfStream:
		return "end of stream"
	case ErrCodeWouldBlock:
		return "would block"
	case ErrCodeNotSupported:
		return "not supported"
	case ErrCodeInvalidArgument:
		return "invalid argument"
	case ErrCodeUnexpectedContinuation:
		return "unexpected continuation"
	case ErrCodeUnexpectedOpcode:
		return "unexpected opcode"
	case ErrCodeMalformedHeader:
		return "malformed header"
	case ErrCodeMaskMismatch:
		return "mask mismatch"
	case ErrCodeReservedBits:
		return "reserved bits"
	case ErrCodeControlFrameTooLarge:
		return "control frame too large"
	case ErrCodeFragmentedControl:
		return "fragmented control frame"
	case ErrCodeFrameTooLarge:
		return "frame too large"
	case ErrCodeInvalidClosePayload:
		return "invalid close payload"
	case ErrCodeInvalidUTF8:
		return "invalid utf-8"
	default:
		return fmt.Sprintf("code(%d)", int(c))
	}
}

// Sentinel values for errors.Is. Matching is done by Code only.
var (
	ErrTransport              = NewError(ErrCodeTransport, "transport read failed")
	ErrEndOfStream            = NewError(ErrCodeEndOfStream, "end of stream")
	ErrWouldBlock             = NewError(ErrCodeWouldBlock, "read would block")
	ErrNotSupported           = NewError(ErrCodeNotSupported, "operation not supported")
	ErrInvalidArgument        = NewError(ErrCodeInvalidArgument, "invalid argument")
	ErrUnexpectedContinuation = NewError(ErrCodeUnexpectedContinuation, "unexpected continuation data frame opcode")
	ErrUnexpectedOpcode       = NewError(ErrCodeUnexpectedOpcode, "unexpected data frame opcode")
	ErrMalformedHeader        = NewError(ErrCodeMalformedHeader, "malformed frame header")
	ErrMaskMismatch           = NewError(ErrCodeMaskMismatch, "frame masking does not match expectation")
	ErrReservedBits           = NewError(ErrCodeReservedBits, "reserved bits set")
	ErrControlFrameTooLarge   = NewError(ErrCodeControlFrameTooLarge, "control frame payload exceeds 125 bytes")
	ErrFragmentedControl      = NewError(ErrCodeFragmentedControl, "fragmented control frame")
	ErrFrameTooLarge          = NewError(ErrCodeFrameTooLarge, "frame payload exceeds configured limit")
	ErrInvalidClosePayload    = NewError(ErrCodeInvalidClosePayload, "invalid close frame payload")
	ErrInvalidUTF8            = NewError(ErrCodeInvalidUTF8, "invalid utf-8 payload")
)

// Error represents a structured error with code and context.
type Error struct {
	Code    ErrorCode
	Message string
	Context map[string]any
	Err     error
}

// Error implements the error interface.
func (e *Error) Error() string {
	msg := e.Message
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	if len(e.Context) == 0 {
		return msg
	}
	return fmt.Sprintf("%s (context: %+v)", msg, e.Context)
}

// Unwrap returns the underlying cause, if any.
func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches any *Error carrying the same code.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Code == e.Code
}

// NewError creates a new structured error.
func NewError(code ErrorCode, message string) *Error {
	return &Error{
		Code:    code,
		Message: message,
		Context: make(map[string]any),
	}
}

// Wrap derives a fresh error from a sentinel, attaching cause.
// Sentinels are never mutated.
func Wrap(kind *Error, cause error) *Error {
	return &Error{
		Code:    kind.Code,
		Message: kind.Message,
		Context: make(map[string]any),
		Err:     cause,
	}
}

// Errorf derives a fresh error from a sentinel with a more specific message.
func Errorf(kind *Error, format string, a ...any) *Error {
	return &Error{
		Code:    kind.Code,
		Message: fmt.Sprintf("%s: %s", kind.Message, fmt.Sprintf(format, a...)),
		Context: make(map[string]any),
	}
}

// WithContext adds context information to the error.
func (e *Error) WithContext(key string, value any) *Error {
	if e.Context == nil {
		e.Context = make(map[string]any)
	}
	e.Context[key] = value
	return e
}

// CodeOf extracts the code of the first *Error in err's chain.
func CodeOf(err error) ErrorCode {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ErrCodeOK
}

// IsProtocolError reports whether err is any protocol violation.
func IsProtocolError(err error) bool {
	return CodeOf(err).IsProtocol()
}
