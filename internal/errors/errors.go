// Package errors provides the error taxonomy for the practice journal.
// Every refusal crosses package boundaries as a returned value: ValidationError
// (bad input or a violated option invariant), NotFoundError, StorageError,
// NetworkError and SyncError (remote calls), and ConflictError (diverged data
// at sign-in).
package errors

import (
	"errors"
	"fmt"
)

// Standard sentinel errors for common conditions.
var (
	ErrRecordNotFound      = errors.New("record not found")
	ErrOptionNotFound      = errors.New("option not found")
	ErrOptionsFull         = errors.New("practice options are full")
	ErrTooFewOptions       = errors.New("at least two practice options must remain")
	ErrDuplicateOption     = errors.New("an option with this label already exists")
	ErrNoOptionSelected    = errors.New("no practice option selected")
	ErrTimerNotIdle        = errors.New("a practice session is already in progress")
	ErrTimerNotRunning     = errors.New("no running practice session")
	ErrTimerNotPaused      = errors.New("practice session is not paused")
	ErrNoPendingCompletion = errors.New("no finished session waiting to be saved")
	ErrSaveInProgress      = errors.New("save already in progress")
	ErrSyncInProgress      = errors.New("sync already in progress")
	ErrNoConflict          = errors.New("no sync conflict to resolve")
	ErrInvalidSnapshot     = errors.New("invalid data snapshot")
	ErrNotSignedIn         = errors.New("not signed in")
	ErrInvalidDate         = errors.New("invalid date")
	ErrFutureDate          = errors.New("date is in the future")
	ErrInvalidDuration     = errors.New("invalid duration")
	ErrInvalidPhoto        = errors.New("invalid photo")
	ErrDiskFull            = errors.New("disk full")
	ErrDatabaseCorrupted   = errors.New("database corrupted")
	ErrNetworkUnavailable  = errors.New("network unavailable")
	ErrTimeout             = errors.New("operation timed out")
	ErrPermissionDenied    = errors.New("permission denied")
	ErrUnauthorized        = errors.New("session expired or not authorized")
)

// ValidationError represents user input out of bounds. The caller surfaces it
// inline and may retry with corrected input.
type ValidationError struct {
	Field      string // The field that failed (optional)
	Value      string // The rejected value (optional)
	Message    string // What is wrong
	Suggestion string // How to fix it
	Err        error  // Sentinel for errors.Is (optional)
}

func (e *ValidationError) Error() string {
	msg := e.Message
	if msg == "" && e.Err != nil {
		msg = e.Err.Error()
	}
	if e.Field != "" && e.Value != "" {
		return fmt.Sprintf("%s: '%s'", msg, e.Value)
	}
	if e.Field != "" {
		return fmt.Sprintf("%s: %s", e.Field, msg)
	}
	return msg
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

// NewValidationError creates a new ValidationError.
func NewValidationError(field, message, suggestion string) *ValidationError {
	return &ValidationError{
		Field:      field,
		Message:    message,
		Suggestion: suggestion,
	}
}

// NewValidationErrorWithValue creates a ValidationError carrying the rejected value.
func NewValidationErrorWithValue(field, value, message, suggestion string) *ValidationError {
	return &ValidationError{
		Field:      field,
		Value:      value,
		Message:    message,
		Suggestion: suggestion,
	}
}

// Refusal wraps a sentinel as a ValidationError so both errors.Is and
// errors.As succeed.
func Refusal(sentinel error) *ValidationError {
	return &ValidationError{Err: sentinel}
}

// NotFoundError is returned when an update or lookup references a missing id.
type NotFoundError struct {
	Kind string // record, option, profile
	ID   string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Kind, e.ID)
}

// Is lets errors.Is match the kind-specific sentinels.
func (e *NotFoundError) Is(target error) bool {
	switch target {
	case ErrRecordNotFound:
		return e.Kind == "record"
	case ErrOptionNotFound:
		return e.Kind == "option"
	}
	return false
}

// NewNotFoundError creates a new NotFoundError.
func NewNotFoundError(kind, id string) *NotFoundError {
	return &NotFoundError{Kind: kind, ID: id}
}

// StorageError represents local persistent storage being unavailable or full.
// The operation that produced it wrote nothing.
type StorageError struct {
	Op    string
	Cause error
}

func (e *StorageError) Error() string {
	if e.Cause == nil {
		return fmt.Sprintf("storage error during %s", e.Op)
	}
	return fmt.Sprintf("storage error during %s: %v", e.Op, e.Cause)
}

func (e *StorageError) Unwrap() error {
	return e.Cause
}

// NewStorageError creates a new StorageError. Disk-full causes are tagged
// with ErrDiskFull.
func NewStorageError(op string, cause error) *StorageError {
	if cause != nil && IsDiskFull(cause) && !errors.Is(cause, ErrDiskFull) {
		cause = fmt.Errorf("%w: %w", ErrDiskFull, cause)
	}
	return &StorageError{Op: op, Cause: cause}
}

// NetworkError represents a failed remote call.
type NetworkError struct {
	Op         string // The remote operation (signIn, fetchAll, ...)
	StatusCode int    // HTTP status, 0 when no response was received
	Message    string // Provider message, if any
	Cause      error
}

func (e *NetworkError) Error() string {
	switch {
	case e.Message != "" && e.StatusCode != 0:
		return fmt.Sprintf("%s failed (%d): %s", e.Op, e.StatusCode, e.Message)
	case e.Message != "":
		return fmt.Sprintf("%s failed: %s", e.Op, e.Message)
	case e.Cause != nil:
		return fmt.Sprintf("%s failed: %v", e.Op, e.Cause)
	case e.StatusCode != 0:
		return fmt.Sprintf("%s failed with status %d", e.Op, e.StatusCode)
	}
	return fmt.Sprintf("%s failed", e.Op)
}

func (e *NetworkError) Unwrap() error {
	return e.Cause
}

// Is lets errors.Is match ErrUnauthorized on 401 responses.
func (e *NetworkError) Is(target error) bool {
	return target == ErrUnauthorized && e.StatusCode == 401
}

// Retryable reports whether the call may succeed if repeated.
func (e *NetworkError) Retryable() bool {
	return e.StatusCode == 0 || e.StatusCode == 429 || e.StatusCode >= 500
}

// NewNetworkError creates a new NetworkError.
func NewNetworkError(op string, statusCode int, message string, cause error) *NetworkError {
	return &NetworkError{Op: op, StatusCode: statusCode, Message: message, Cause: cause}
}

// SyncError represents a failed reconciliation stage.
type SyncError struct {
	Stage string // fetch, upload, pull, mirror, resolve
	Cause error
}

func (e *SyncError) Error() string {
	return fmt.Sprintf("sync failed at %s: %v", e.Stage, e.Cause)
}

func (e *SyncError) Unwrap() error {
	return e.Cause
}

// NewSyncError creates a new SyncError.
func NewSyncError(stage string, cause error) *SyncError {
	return &SyncError{Stage: stage, Cause: cause}
}

// ConflictError reports local and remote data that both exist and disagree.
// It is never resolved without an explicit choice.
type ConflictError struct {
	LocalCount  int
	RemoteCount int
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("local data (%d records) and cloud data (%d records) differ", e.LocalCount, e.RemoteCount)
}

// IsValidationError checks if an error is a ValidationError.
func IsValidationError(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// IsNotFoundError checks if an error is a NotFoundError.
func IsNotFoundError(err error) bool {
	var ne *NotFoundError
	return errors.As(err, &ne)
}

// IsStorageError checks if an error is a StorageError.
func IsStorageError(err error) bool {
	var se *StorageError
	return errors.As(err, &se)
}

// IsNetworkError checks if an error is a NetworkError.
func IsNetworkError(err error) bool {
	var ne *NetworkError
	return errors.As(err, &ne)
}

// IsConflictError checks if an error is a ConflictError.
func IsConflictError(err error) bool {
	var ce *ConflictError
	return errors.As(err, &ce)
}

// AsValidationError extracts a ValidationError from an error chain.
func AsValidationError(err error) (*ValidationError, bool) {
	var ve *ValidationError
	ok := errors.As(err, &ve)
	return ve, ok
}

// AsNetworkError extracts a NetworkError from an error chain.
func AsNetworkError(err error) (*NetworkError, bool) {
	var ne *NetworkError
	ok := errors.As(err, &ne)
	return ne, ok
}

// AsConflictError extracts a ConflictError from an error chain.
func AsConflictError(err error) (*ConflictError, bool) {
	var ce *ConflictError
	ok := errors.As(err, &ce)
	return ce, ok
}

// Is is re-exported from the standard errors package for convenience.
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As is re-exported from the standard errors package for convenience.
func As(err error, target any) bool {
	return errors.As(err, target)
}

// New is re-exported from the standard errors package for convenience.
func New(text string) error {
	return errors.New(text)
}

// Wrap wraps an error with additional context.
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

// Wrapf wraps an error with formatted additional context.
func Wrapf(err error, format string, args ...any) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), err)
}
