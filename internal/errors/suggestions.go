package errors

import "errors"

// Suggestions maps common errors to helpful suggestions.
var Suggestions = map[error]string{
	// User input errors
	ErrRecordNotFound:      "Use 'ashtanga records' to see your practice records.",
	ErrOptionNotFound:      "Use 'ashtanga options' to see available practice types.",
	ErrOptionsFull:         "Delete an option with 'ashtanga options delete <id>' first.",
	ErrTooFewOptions:       "Add another option before deleting this one.",
	ErrDuplicateOption:     "Pick a different label or add notes to tell the options apart.",
	ErrNoOptionSelected:    "Pass an option id or label, e.g. 'ashtanga start 1'.",
	ErrTimerNotIdle:        "Use 'ashtanga end' to finish the current session or 'ashtanga discard' to drop it.",
	ErrTimerNotRunning:     "Use 'ashtanga start <option>' to begin a session.",
	ErrTimerNotPaused:      "Use 'ashtanga pause' first.",
	ErrNoPendingCompletion: "Use 'ashtanga end' to finish a running session first.",
	ErrSyncInProgress:      "Wait for the running sync to finish and try again.",
	ErrNoConflict:          "Run 'ashtanga sync status' to see the current state.",
	ErrInvalidSnapshot:     "Import a file produced by 'ashtanga export'.",
	ErrNotSignedIn:         "Sign in with 'ashtanga account login <email>'.",
	ErrInvalidDate:         "Try formats like 'today', 'yesterday', '3 days ago' or '2026-01-18'.",
	ErrFutureDate:          "Practice records cannot be logged for a future day.",
	ErrInvalidDuration:     "Try formats like '90m', '1h30m', '1:30:00' or '5400'.",
	ErrInvalidPhoto:        "Photos must be images (jpg, png, webp, ...) no larger than 5MB.",

	// System errors
	ErrDiskFull:           "Free up disk space and try again. Nothing was written.",
	ErrDatabaseCorrupted:  "Export your data with 'ashtanga export' and run 'ashtanga debug'.",
	ErrNetworkUnavailable: "Check your internet connection. Local changes are kept and will sync later.",
	ErrTimeout:            "The operation took too long. Try again or check your network connection.",
	ErrPermissionDenied:   "Check file permissions in your data directory (~/.local/share/ashtanga/).",
	ErrUnauthorized:       "Sign in again with 'ashtanga account login <email>'.",
}

// GetSuggestion returns a suggestion for an error, if available.
// It walks the error chain to find matching suggestions.
func GetSuggestion(err error) string {
	if err == nil {
		return ""
	}

	// A suggestion set on the error itself is the most specific
	if ve, ok := AsValidationError(err); ok && ve.Suggestion != "" {
		return ve.Suggestion
	}

	for knownErr, suggestion := range Suggestions {
		if errors.Is(err, knownErr) {
			return suggestion
		}
	}

	return GetCategorySuggestion(err)
}

// GetCategorySuggestion returns a generic suggestion based on error category.
func GetCategorySuggestion(err error) string {
	switch Classify(err) {
	case CategoryValidation:
		return "Check your input and try again. Use --help for usage information."
	case CategoryStorage:
		return "Check that the data directory is writable and has free space."
	case CategoryNetwork:
		return "Run 'ashtanga sync retry' once you are back online."
	}
	return ""
}
