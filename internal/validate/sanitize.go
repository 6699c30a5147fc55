package validate

import (
	"path/filepath"
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"
)

var folder = cases.Fold()

// SanitizeLabel trims, strips control characters and NFC-normalizes a label
// or other single-line field.
func SanitizeLabel(s string) string {
	s = strings.TrimSpace(s)
	var sb strings.Builder
	for _, r := range s {
		if !unicode.IsControl(r) {
			sb.WriteRune(r)
		}
	}
	return norm.NFC.String(sb.String())
}

// SanitizeNote cleans free text for storage: NFC, "\n" line endings, no control
// characters other than newline and tab.
func SanitizeNote(note string) string {
	note = strings.TrimSpace(note)
	note = strings.ReplaceAll(note, "\r\n", "\n")
	note = strings.ReplaceAll(note, "\r", "\n")
	return norm.NFC.String(StripControlChars(note))
}

// FoldKey returns a case- and normalization-insensitive key for comparing
// labels ("Primary" and "PRIMARY" collide).
func FoldKey(s string) string {
	return folder.String(norm.NFC.String(strings.Join(strings.Fields(s), " ")))
}

// SameLabel reports whether two labels are equal ignoring case and spacing.
func SameLabel(a, b string) bool {
	return FoldKey(a) == FoldKey(b)
}

// StripControlChars removes all control characters except newline and tab.
func StripControlChars(s string) string {
	var sb strings.Builder
	for _, r := range s {
		if !unicode.IsControl(r) || r == '\n' || r == '\t' {
			sb.WriteRune(r)
		}
	}
	return sb.String()
}

// IsPathTraversal checks if a relative path escapes its base.
func IsPathTraversal(path string) bool {
	if filepath.IsAbs(path) || strings.HasPrefix(path, "/") {
		return true
	}
	for _, part := range strings.Split(filepath.ToSlash(path), "/") {
		if part == ".." {
			return true
		}
	}
	return false
}

// IsWithinDirectory checks if a path is within the given base directory.
func IsWithinDirectory(path, baseDir string) bool {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return false
	}
	absBase, err := filepath.Abs(baseDir)
	if err != nil {
		return false
	}
	rel, err := filepath.Rel(absBase, absPath)
	if err != nil {
		return false
	}
	return rel == "." || (rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)))
}
