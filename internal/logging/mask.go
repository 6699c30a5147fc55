package logging

import (
	"regexp"
	"strings"
)

const (
	// MaskChar is the character used for masking.
	MaskChar = "*"
	// URLMaskLength is how many characters to show before masking URLs.
	URLMaskLength = 30
	// DefaultMaskLength is how many mask characters to show.
	DefaultMaskLength = 3
	// EmailVisibleChars is how many characters of the local part stay visible.
	EmailVisibleChars = 3
)

// SensitiveFields contains keywords that mark a field as sensitive when they
// appear anywhere in its name.
var SensitiveFields = map[string]bool{
	"token":             true,
	"secret":            true,
	"password":          true,
	"api_key":           true,
	"apikey":            true,
	"auth":              true,
	"bearer":            true,
	"credential":        true,
	"private":           true,
	"cookie":            true,
	"session":           true,
	"verification_code": true,
}

// exactSensitiveFields are only sensitive as the whole field name
// ("code" is, "status_code" is not).
var exactSensitiveFields = map[string]bool{
	"code": true,
	"key":  true,
}

// urlPattern matches HTTP(S) URLs.
var urlPattern = regexp.MustCompile(`https?://[^\s"']+`)

// emailPattern matches e-mail addresses.
var emailPattern = regexp.MustCompile(`[A-Za-z0-9._%+\-]+@[A-Za-z0-9.\-]+\.[A-Za-z]{2,}`)

// MaskURL masks a URL, showing only the first URLMaskLength characters.
func MaskURL(url string) string {
	if len(url) <= URLMaskLength {
		return url
	}
	return url[:URLMaskLength] + strings.Repeat(MaskChar, DefaultMaskLength)
}

// MaskValue masks a sensitive value completely.
func MaskValue(value string) string {
	if value == "" {
		return ""
	}
	return strings.Repeat(MaskChar, min(len(value), 8))
}

// MaskEmail shows the first characters of the local part and the full domain:
// "practitioner@example.com" becomes "pra***@example.com".
func MaskEmail(email string) string {
	at := strings.LastIndex(email, "@")
	if at <= 0 {
		return MaskValue(email)
	}
	local, domain := email[:at], email[at:]
	if len(local) <= EmailVisibleChars {
		return local[:1] + strings.Repeat(MaskChar, DefaultMaskLength) + domain
	}
	return local[:EmailVisibleChars] + strings.Repeat(MaskChar, DefaultMaskLength) + domain
}

// IsSensitiveField checks if a field name indicates sensitive data.
func IsSensitiveField(fieldName string) bool {
	lower := strings.ToLower(fieldName)

	if exactSensitiveFields[lower] || SensitiveFields[lower] {
		return true
	}

	for keyword := range SensitiveFields {
		if strings.Contains(lower, keyword) {
			return true
		}
	}

	return false
}

// MaskString scans a string for URLs and e-mail addresses and masks them.
func MaskString(s string) string {
	s = urlPattern.ReplaceAllStringFunc(s, func(url string) string {
		// Don't mask localhost URLs
		if strings.Contains(url, "localhost") || strings.Contains(url, "127.0.0.1") {
			return url
		}
		return MaskURL(url)
	})
	return emailPattern.ReplaceAllStringFunc(s, MaskEmail)
}

// MaskArgs masks sensitive values in a slice of logging arguments.
// Arguments are expected in key-value pairs: key1, value1, key2, value2, ...
func MaskArgs(args []any) []any {
	if len(args) < 2 {
		return args
	}

	result := make([]any, len(args))
	copy(result, args)

	for i := 0; i < len(result)-1; i += 2 {
		key, ok := result[i].(string)
		if !ok {
			continue
		}

		switch {
		case IsSensitiveField(key):
			if strVal, ok := result[i+1].(string); ok {
				result[i+1] = MaskValue(strVal)
			} else {
				result[i+1] = strings.Repeat(MaskChar, 8)
			}
		case strings.EqualFold(key, "email"):
			if strVal, ok := result[i+1].(string); ok {
				result[i+1] = MaskEmail(strVal)
			}
		}
	}

	return result
}

// MaskMap masks sensitive values in a map.
func MaskMap(m map[string]any) map[string]any {
	result := make(map[string]any, len(m))

	for key, value := range m {
		if IsSensitiveField(key) {
			if strVal, ok := value.(string); ok {
				result[key] = MaskValue(strVal)
			} else {
				result[key] = strings.Repeat(MaskChar, 8)
			}
		} else if strVal, ok := value.(string); ok {
			result[key] = MaskString(strVal)
		} else if nestedMap, ok := value.(map[string]any); ok {
			result[key] = MaskMap(nestedMap)
		} else {
			result[key] = value
		}
	}

	return result
}

// SanitizeLogMessage removes or masks sensitive data from a log message.
func SanitizeLogMessage(msg string) string {
	return MaskString(msg)
}
