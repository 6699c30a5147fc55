// Package validate provides input validation helpers for the practice journal.
// Lengths are counted in characters, not bytes, after normalization.
package validate

import (
	"fmt"
	"net/mail"
	"regexp"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/ashtangalog/ashtanga/internal/errors"
	"github.com/ashtangalog/ashtanga/internal/model"
)

const (
	// MaxLabelLength is the maximum length of an option label.
	MaxLabelLength = 10
	// MaxOptionNotesLength is the maximum length of an option's descriptor.
	MaxOptionNotesLength = 15
	// MaxNotesLength is the maximum length of record notes.
	MaxNotesLength = 2000
	// MaxBreakthroughLength is the maximum length of a breakthrough note.
	MaxBreakthroughLength = 20
	// MaxProfileNameLength is the maximum length of a profile name.
	MaxProfileNameLength = 30
	// MaxSignatureLength is the maximum length of a profile signature.
	MaxSignatureLength = 60
	// MaxEnteredDuration is the longest duration a user may type, in seconds (24h).
	MaxEnteredDuration = 24 * 60 * 60
	// MinPasswordLength is the shortest accepted password.
	MinPasswordLength = 8
)

var (
	dateRegex = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)
	codeRegex = regexp.MustCompile(`^\d{6}$`)
)

func tooLong(field, value string, max int) error {
	return errors.NewValidationErrorWithValue(field, value,
		fmt.Sprintf("%s too long", field),
		fmt.Sprintf("Use %d characters or fewer", max))
}

// Label validates an option label.
func Label(label string) error {
	if strings.TrimSpace(label) == "" {
		return errors.NewValidationError("label", "cannot be empty", "Provide a name for the practice type")
	}
	if utf8.RuneCountInString(label) > MaxLabelLength {
		return tooLong("label", label, MaxLabelLength)
	}
	return nil
}

// OptionNotes validates an option's short descriptor.
func OptionNotes(notes string) error {
	if utf8.RuneCountInString(notes) > MaxOptionNotesLength {
		return tooLong("notes", notes, MaxOptionNotesLength)
	}
	return nil
}

// Notes validates record notes.
func Notes(notes string) error {
	if utf8.RuneCountInString(notes) > MaxNotesLength {
		return errors.NewValidationError("notes", "too long",
			fmt.Sprintf("Notes must be %d characters or fewer", MaxNotesLength))
	}
	return nil
}

// Breakthrough validates a breakthrough note.
func Breakthrough(text string) error {
	if utf8.RuneCountInString(text) > MaxBreakthroughLength {
		return tooLong("breakthrough", text, MaxBreakthroughLength)
	}
	return nil
}

// Duration validates a stored duration in seconds. Timed sessions may run
// past a day, so only negative values are refused.
func Duration(seconds int) error {
	if seconds < 0 {
		return &errors.ValidationError{Field: "duration", Message: "cannot be negative", Err: errors.ErrInvalidDuration}
	}
	return nil
}

// EnteredDuration validates a duration typed by the user for a past or
// edited record.
func EnteredDuration(seconds int) error {
	if err := Duration(seconds); err != nil {
		return err
	}
	if seconds > MaxEnteredDuration {
		return &errors.ValidationError{Field: "duration", Message: "longer than a day",
			Suggestion: "Enter at most 24h", Err: errors.ErrInvalidDuration}
	}
	return nil
}

// Date validates a YYYY-MM-DD calendar date.
func Date(date string) error {
	if !dateRegex.MatchString(date) {
		return &errors.ValidationError{Field: "date", Value: date, Message: "invalid date", Err: errors.ErrInvalidDate}
	}
	if _, err := time.Parse(model.DateLayout, date); err != nil {
		return &errors.ValidationError{Field: "date", Value: date, Message: "invalid date", Err: errors.ErrInvalidDate}
	}
	return nil
}

// PracticeDate validates a user-entered practice day: a valid date that is
// not after today in the given location.
func PracticeDate(date string, now time.Time) error {
	if err := Date(date); err != nil {
		return err
	}
	if date > now.Format(model.DateLayout) {
		return &errors.ValidationError{Field: "date", Value: date, Message: "date is in the future", Err: errors.ErrFutureDate}
	}
	return nil
}

// ProfileName validates a profile display name.
func ProfileName(name string) error {
	if strings.TrimSpace(name) == "" {
		return errors.NewValidationError("name", "cannot be empty", "Provide a display name")
	}
	if utf8.RuneCountInString(name) > MaxProfileNameLength {
		return tooLong("name", name, MaxProfileNameLength)
	}
	return nil
}

// Signature validates a profile signature.
func Signature(sig string) error {
	if utf8.RuneCountInString(sig) > MaxSignatureLength {
		return tooLong("signature", sig, MaxSignatureLength)
	}
	return nil
}

// Email validates an e-mail address.
func Email(email string) error {
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email || !strings.Contains(email[strings.LastIndex(email, "@")+1:], ".") {
		return errors.NewValidationErrorWithValue("email", email, "invalid email address",
			"Use an address like name@example.com")
	}
	return nil
}

// Password requires at least MinPasswordLength characters with a letter and a digit.
func Password(password string) error {
	if utf8.RuneCountInString(password) < MinPasswordLength {
		return errors.NewValidationError("password", "too short",
			fmt.Sprintf("Use at least %d characters", MinPasswordLength))
	}
	var letter, digit bool
	for _, r := range password {
		switch {
		case r < unicode.MaxASCII && unicode.IsLetter(r):
			letter = true
		case r >= '0' && r <= '9':
			digit = true
		}
	}
	if !letter || !digit {
		return errors.NewValidationError("password", "must contain a letter and a digit",
			"Mix letters and numbers, e.g. 'practice108'")
	}
	return nil
}

// VerificationCode validates a six digit code.
func VerificationCode(code string) error {
	if !codeRegex.MatchString(code) {
		return errors.NewValidationErrorWithValue("code", code, "verification code must be 6 digits",
			"Copy the code from the e-mail")
	}
	return nil
}

// NonEmpty validates that a string is not empty.
func NonEmpty(field, value string) error {
	if strings.TrimSpace(value) == "" {
		return errors.NewValidationError(field, "cannot be empty", "Provide a value for "+field)
	}
	return nil
}
