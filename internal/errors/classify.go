package errors

import (
	"errors"
	"strings"
	"syscall"
)

// Category represents the type of error for display and handling purposes.
type Category int

const (
	// CategoryUnknown is the default for unclassified errors.
	CategoryUnknown Category = iota
	// CategoryValidation indicates input the user can correct.
	CategoryValidation
	// CategoryNotFound indicates a reference to a missing id.
	CategoryNotFound
	// CategoryStorage indicates local storage is unavailable or full.
	CategoryStorage
	// CategoryNetwork indicates a failed remote call. Always retryable.
	CategoryNetwork
	// CategoryConflict indicates diverged local and remote data.
	CategoryConflict
	// CategoryInternal indicates an internal bug or unexpected state.
	CategoryInternal
)

// String returns the string representation of the category.
func (c Category) String() string {
	switch c {
	case CategoryValidation:
		return "validation"
	case CategoryNotFound:
		return "not_found"
	case CategoryStorage:
		return "storage"
	case CategoryNetwork:
		return "network"
	case CategoryConflict:
		return "conflict"
	case CategoryInternal:
		return "internal"
	default:
		return "unknown"
	}
}

// Classify determines the category of an error.
func Classify(err error) Category {
	if err == nil {
		return CategoryUnknown
	}

	// Typed errors first; conflict wins over anything it may wrap
	switch {
	case IsConflictError(err):
		return CategoryConflict
	case IsValidationError(err):
		return CategoryValidation
	case IsNotFoundError(err):
		return CategoryNotFound
	case IsStorageError(err):
		return CategoryStorage
	case IsNetworkError(err):
		return CategoryNetwork
	}

	var se *SyncError
	if errors.As(err, &se) {
		return CategoryNetwork
	}

	if isValidationSentinel(err) {
		return CategoryValidation
	}
	if errors.Is(err, ErrRecordNotFound) || errors.Is(err, ErrOptionNotFound) {
		return CategoryNotFound
	}
	if isStorageLevel(err) {
		return CategoryStorage
	}
	if isNetworkPattern(err) {
		return CategoryNetwork
	}

	return CategoryUnknown
}

func isValidationSentinel(err error) bool {
	for _, s := range []error{
		ErrOptionsFull, ErrTooFewOptions, ErrDuplicateOption, ErrNoOptionSelected,
		ErrTimerNotIdle, ErrTimerNotRunning, ErrTimerNotPaused, ErrNoPendingCompletion,
		ErrSaveInProgress, ErrSyncInProgress, ErrNoConflict, ErrInvalidSnapshot,
		ErrNotSignedIn, ErrInvalidDate, ErrFutureDate, ErrInvalidDuration, ErrInvalidPhoto,
	} {
		if errors.Is(err, s) {
			return true
		}
	}
	return false
}

// isStorageLevel checks if an error is a local storage failure.
func isStorageLevel(err error) bool {
	if IsDiskFull(err) {
		return true
	}

	var errno syscall.Errno
	if errors.As(err, &errno) {
		switch errno {
		case syscall.EACCES, syscall.EPERM, syscall.EIO, syscall.EROFS:
			return true
		}
	}

	return errors.Is(err, ErrDatabaseCorrupted) || errors.Is(err, ErrPermissionDenied)
}

// isNetworkPattern checks if an error matches transient network patterns.
func isNetworkPattern(err error) bool {
	if errors.Is(err, ErrNetworkUnavailable) ||
		errors.Is(err, ErrTimeout) ||
		errors.Is(err, ErrUnauthorized) {
		return true
	}

	var errno syscall.Errno
	if errors.As(err, &errno) {
		switch errno {
		case syscall.ETIMEDOUT, syscall.ECONNREFUSED, syscall.ECONNRESET:
			return true
		}
	}

	return false
}

// IsDiskFull checks for ENOSPC and common disk full message patterns.
func IsDiskFull(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrDiskFull) {
		return true
	}

	var errno syscall.Errno
	if errors.As(err, &errno) && errno == syscall.ENOSPC {
		return true
	}

	msg := strings.ToLower(err.Error())
	for _, pattern := range []string{"no space left", "disk full", "enospc", "not enough space"} {
		if strings.Contains(msg, pattern) {
			return true
		}
	}
	return false
}

// ClassifiedError wraps an error with its classification.
type ClassifiedError struct {
	Err      error
	Category Category
}

func (e *ClassifiedError) Error() string {
	return e.Err.Error()
}

func (e *ClassifiedError) Unwrap() error {
	return e.Err
}

// WithCategory wraps an error with an explicit category.
func WithCategory(err error, category Category) error {
	if err == nil {
		return nil
	}
	return &ClassifiedError{
		Err:      err,
		Category: category,
	}
}

// GetCategory returns the category of an error.
// If the error was wrapped with WithCategory, returns that category.
// Otherwise, uses Classify to determine the category.
func GetCategory(err error) Category {
	var classified *ClassifiedError
	if errors.As(err, &classified) {
		return classified.Category
	}
	return Classify(err)
}

// FormatByCategory returns a user-appropriate error message based on category.
func FormatByCategory(err error) string {
	if err == nil {
		return ""
	}

	msg := err.Error()
	suggestion := GetSuggestion(err)

	switch GetCategory(err) {
	case CategoryValidation, CategoryNotFound:
		if suggestion != "" {
			return msg + "\n\nTry: " + suggestion
		}
		return msg

	case CategoryStorage:
		if suggestion != "" {
			return "Storage error: " + msg + "\n\n" + suggestion
		}
		return "Storage error: " + msg

	case CategoryNetwork:
		out := msg + " (your local data is unchanged; you can retry)"
		if suggestion != "" {
			out += "\n\n" + suggestion
		}
		return out

	case CategoryConflict:
		return msg + "\n\nChoose how to resolve: 'ashtanga sync resolve use-remote|use-local|merge'"

	default:
		return msg
	}
}
