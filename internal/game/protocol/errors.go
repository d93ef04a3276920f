package protocol

import (
	"errors"
	"fmt"

	"google.golang.org/grpc/codes"
)

// Code is a machine-readable rejection reason for an in-match action.
type Code string

const (
	CodeUnknown                    Code = "UNKNOWN"
	CodeInvalidSession             Code = "INVALID_SESSION"
	CodeNoActiveMatch              Code = "NO_ACTIVE_MATCH"
	CodeNotYourTurn                Code = "NOT_YOUR_TURN"
	CodeProtocolIntegrityViolation Code = "PROTOCOL_INTEGRITY_VIOLATION"
	CodeWrongCardCategory          Code = "WRONG_CARD_CATEGORY"
	CodeUsabilityWindowViolation   Code = "USABILITY_WINDOW_VIOLATION"
	CodeTargetCountMismatch        Code = "TARGET_COUNT_MISMATCH"
	CodeInvalidTargetIndex         Code = "INVALID_TARGET_INDEX"
	CodeMalformedInput             Code = "MALFORMED_INPUT"
	CodeInvariantViolation         Code = "INVARIANT_VIOLATION"
	CodeFieldFull                  Code = "FIELD_FULL"
	CodeInsufficientFieldEnergy    Code = "INSUFFICIENT_FIELD_ENERGY"
	CodeFirstTurnDecided           Code = "FIRST_TURN_DECIDED"
)

// Integrity reports whether the code signals a tampered client rather than a legal but
// rejected request.
func (c Code) Integrity() bool {
	switch c {
	case CodeProtocolIntegrityViolation, CodeWrongCardCategory, CodeInvalidTargetIndex:
		return true
	default:
		return false
	}
}

// GRPCCode maps the rejection to a gRPC status code.
func (c Code) GRPCCode() codes.Code {
	switch c {
	case CodeInvalidSession:
		return codes.Unauthenticated
	case CodeNotYourTurn, CodeNoActiveMatch, CodeUsabilityWindowViolation, CodeFieldFull,
		CodeInsufficientFieldEnergy, CodeFirstTurnDecided:
		return codes.FailedPrecondition
	case CodeProtocolIntegrityViolation, CodeWrongCardCategory:
		return codes.PermissionDenied
	case CodeTargetCountMismatch, CodeInvalidTargetIndex, CodeMalformedInput:
		return codes.InvalidArgument
	case CodeInvariantViolation:
		return codes.Internal
	default:
		return codes.Unknown
	}
}

// Error is a rejected action.
type Error struct {
	Code     Code
	Message  string
	Metadata map[string]string
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Message == "" {
		return string(e.Code)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Is matches any *Error with the same code, so sentinels work with errors.Is.
func (e *Error) Is(target error) bool {
	if t, ok := target.(*Error); ok {
		return e.Code == t.Code
	}
	return false
}

// New creates a rejection with a message.
func New(code Code, message string) *Error {
	return &Error{Code: code, Message: message}
}

// Newf creates a rejection with a formatted message.
func Newf(code Code, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// WithMetadata creates a rejection carrying extra context for audit logs.
func WithMetadata(code Code, message string, metadata map[string]string) *Error {
	return &Error{Code: code, Message: message, Metadata: metadata}
}

// Sentinels for errors.Is.
var (
	ErrInvalidSession             = &Error{Code: CodeInvalidSession}
	ErrNoActiveMatch              = &Error{Code: CodeNoActiveMatch}
	ErrNotYourTurn                = &Error{Code: CodeNotYourTurn}
	ErrProtocolIntegrityViolation = &Error{Code: CodeProtocolIntegrityViolation}
	ErrWrongCardCategory          = &Error{Code: CodeWrongCardCategory}
	ErrUsabilityWindowViolation   = &Error{Code: CodeUsabilityWindowViolation}
	ErrTargetCountMismatch        = &Error{Code: CodeTargetCountMismatch}
	ErrInvalidTargetIndex         = &Error{Code: CodeInvalidTargetIndex}
	ErrMalformedInput             = &Error{Code: CodeMalformedInput}
	ErrInvariantViolation         = &Error{Code: CodeInvariantViolation}
	ErrFieldFull                  = &Error{Code: CodeFieldFull}
	ErrInsufficientFieldEnergy    = &Error{Code: CodeInsufficientFieldEnergy}
	ErrFirstTurnDecided           = &Error{Code: CodeFirstTurnDecided}
)

// CodeOf extracts the rejection code from err, or CodeUnknown.
func CodeOf(err error) Code {
	var pe *Error
	if errors.As(err, &pe) {
		return pe.Code
	}
	return CodeUnknown
}
