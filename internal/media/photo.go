// Package media validates practice photos and builds profile avatars.
package media

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"

	"github.com/ashtangalog/ashtanga/internal/errors"
	"github.com/ashtangalog/ashtanga/internal/model"
)

// PhotoInfo describes a validated image.
type PhotoInfo struct {
	ContentType string
	Extension   string // with leading dot
	Size        int64
}

func invalidPhoto(message, suggestion string) error {
	return &errors.ValidationError{
		Field:      "photo",
		Message:    message,
		Suggestion: suggestion,
		Err:        errors.ErrInvalidPhoto,
	}
}

// ValidatePhoto checks that data is an image no larger than maxBytes. The
// content type is sniffed from the bytes, never taken from the file name.
func ValidatePhoto(data []byte, maxBytes int64) (*PhotoInfo, error) {
	if len(data) == 0 {
		return nil, invalidPhoto("empty file", "Choose an image file")
	}
	if maxBytes > 0 && int64(len(data)) > maxBytes {
		return nil, invalidPhoto(
			fmt.Sprintf("photo is %.1fMB, limit is %.0fMB", mb(int64(len(data))), mb(maxBytes)),
			"Choose a smaller image or resize it first")
	}
	mt := mimetype.Detect(data)
	if !strings.HasPrefix(mt.String(), "image/") {
		return nil, invalidPhoto("only images can be attached, got "+mt.String(),
			"Attach a jpg, png, gif or webp image")
	}
	ext := mt.Extension()
	if ext == "" {
		ext = ".jpg"
	}
	return &PhotoInfo{ContentType: mt.String(), Extension: ext, Size: int64(len(data))}, nil
}

func mb(n int64) float64 {
	return float64(n) / (1024 * 1024)
}

// PhotoPath builds the storage path of a photo taken on the practice day
// date: <YYYY-MM>/<YYYY-MM-DD>/<unix-ms>-<rand><ext>.
func PhotoPath(date string, now time.Time, ext string) (string, error) {
	day, err := time.Parse(model.DateLayout, date)
	if err != nil {
		day = now
	}
	var b [3]byte
	if _, err := rand.Read(b[:]); err != nil {
		return "", err
	}
	if ext != "" && !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	name := fmt.Sprintf("%d-%s%s", now.UnixMilli(), hex.EncodeToString(b[:]), ext)
	return path.Join(day.Format("2006-01"), day.Format(model.DateLayout), name), nil
}
