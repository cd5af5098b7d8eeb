package common

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrEmptyMessage   = errors.New("message has no body and no attachments")
	ErrFileTooLarge   = errors.New("file exceeds attachment size limit")
	ErrBlockedContent = errors.New("message contains blocked content")
	ErrQueryEmpty     = errors.New("search query is empty")
	ErrOrphanedBlob   = errors.New("object stored without attachment record")
	ErrInvalidCC      = errors.New("cc recipient is not in the organization")
)

type ErrorCategory string

const (
	CategoryValidation ErrorCategory = "validation"
	CategoryTransient  ErrorCategory = "transient"
	CategoryPartial    ErrorCategory = "partial"
	CategoryUnknown    ErrorCategory = "unknown"
)

// ValidationError is returned before any network effect took place. Fix the input and resend.
type ValidationError struct {
	Field  string
	Reason string
	Err    error
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return "validation failed: " + e.Reason
	}
	return fmt.Sprintf("validation failed on %s: %s", e.Field, e.Reason)
}

func (e *ValidationError) Unwrap() error { return e.Err }

func NewValidationError(field string, err error, reason string) *ValidationError {
	if reason == "" && err != nil {
		reason = err.Error()
	}
	return &ValidationError{Field: field, Reason: reason, Err: err}
}

// TransientIOError wraps a failed store, notifier or object store call. Safe to retry.
type TransientIOError struct {
	Op  string
	Err error
}

func (e *TransientIOError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *TransientIOError) Unwrap() error { return e.Err }

func Transient(op string, err error) error {
	if err == nil {
		return nil
	}
	var te *TransientIOError
	if errors.As(err, &te) {
		return err
	}
	return &TransientIOError{Op: op, Err: err}
}

type CompositionStep string

const (
	StepMessage     CompositionStep = "message"
	StepAttachments CompositionStep = "attachments"
	StepCC          CompositionStep = "cc"
)

// PartialCompositionError reports a send whose message was stored but a later step failed.
// The message stays sent; Remaining lists the work a retry will perform.
type PartialCompositionError struct {
	Step      CompositionStep
	MessageID string
	Remaining []string
	Err       error
}

func (e *PartialCompositionError) Error() string {
	msg := fmt.Sprintf("message %s sent, %s step failed: %v", e.MessageID, e.Step, e.Err)
	if len(e.Remaining) > 0 {
		msg += " (remaining: " + strings.Join(e.Remaining, ", ") + ")"
	}
	return msg
}

func (e *PartialCompositionError) Unwrap() error { return e.Err }

func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

func IsTransient(err error) bool {
	var te *TransientIOError
	return errors.As(err, &te)
}

func IsPartial(err error) bool {
	var pe *PartialCompositionError
	return errors.As(err, &pe)
}

// Category tells the caller whether to offer "fix input", "resend" or "retry the failed step".
func Category(err error) ErrorCategory {
	switch {
	case err == nil:
		return ""
	case IsPartial(err):
		return CategoryPartial
	case IsValidation(err):
		return CategoryValidation
	case IsTransient(err):
		return CategoryTransient
	default:
		return CategoryUnknown
	}
}
