package mutation

import (
	"errors"
	"fmt"
	"strings"
)

// ErrorCode is the caller-facing failure taxonomy carried on receipts.
type ErrorCode string

const (
	CodeMissingOrgID      ErrorCode = "MISSING_ORG_ID"
	CodeValidation        ErrorCode = "VALIDATION_FAILED"
	CodeMalformedAction   ErrorCode = "ERR_MALFORMED_ACTION"
	CodeNamespaceMismatch ErrorCode = "ERR_NAMESPACE_MISMATCH"
	CodePolicyDenied      ErrorCode = "POLICY_DENIED"
	CodeConflictVersion   ErrorCode = "CONFLICT_VERSION"
	CodeNotFound          ErrorCode = "NOT_FOUND"
	CodeIdempotencyReplay ErrorCode = "IDEMPOTENCY_REPLAY"
	CodeInternal          ErrorCode = "INTERNAL_ERROR"
	CodeUnknownEntity     ErrorCode = "ERR_UNKNOWN_ENTITY"
)

// Error is the canonical kernel error wrapper.
type Error struct {
	Code    ErrorCode
	Op      string
	Message string
	Cause   error
	// CurrentVersion is set on version conflicts when the stored version is known.
	CurrentVersion *int64
}

func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	op := strings.TrimSpace(e.Op)
	msg := strings.TrimSpace(e.Message)
	switch {
	case op != "" && msg != "":
		return fmt.Sprintf("%s: %s (%s)", op, msg, e.Code)
	case op != "":
		return fmt.Sprintf("%s (%s)", op, e.Code)
	case msg != "":
		return fmt.Sprintf("%s (%s)", msg, e.Code)
	default:
		return string(e.Code)
	}
}

func (e *Error) Unwrap() error { return e.Cause }

// NewError builds an error with explicit code and operation.
func NewError(code ErrorCode, op, message string, cause error) error {
	return &Error{
		Code:    code,
		Op:      strings.TrimSpace(op),
		Message: strings.TrimSpace(message),
		Cause:   cause,
	}
}

// Wrap annotates an existing error with a code.
func Wrap(code ErrorCode, op string, err error) error {
	if err == nil {
		return nil
	}
	return NewError(code, op, err.Error(), err)
}

// IsCode reports whether err (or a wrapped error) carries code.
func IsCode(err error, code ErrorCode) bool {
	var kerr *Error
	if !errors.As(err, &kerr) {
		return false
	}
	return kerr.Code == code
}

// CodeOf extracts the code when available.
func CodeOf(err error) ErrorCode {
	var kerr *Error
	if !errors.As(err, &kerr) {
		return ""
	}
	return kerr.Code
}
