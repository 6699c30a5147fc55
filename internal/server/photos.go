package server

import (
	"io"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/ashtangalog/ashtanga/internal/cloud"
	"github.com/ashtangalog/ashtanga/internal/errors"
	"github.com/ashtangalog/ashtanga/internal/logging"
	"github.com/ashtangalog/ashtanga/internal/media"
	"github.com/ashtangalog/ashtanga/internal/model"
	"github.com/ashtangalog/ashtanga/internal/validate"
)

// photoURL returns the public URL of a stored photo.
func (s *Server) photoURL(c *gin.Context, userID, rel string) string {
	base := strings.TrimRight(s.cfg.PublicBaseURL, "/")
	if base == "" {
		scheme := "http"
		if c.Request.TLS != nil {
			scheme = "https"
		}
		base = scheme + "://" + c.Request.Host
	}
	return base + "/photos/" + userID + "/" + rel
}

// UploadPhoto stores a multipart image under the user's directory.
func (s *Server) UploadPhoto(c *gin.Context) {
	fh, err := c.FormFile(cloud.PhotoFormField)
	if err != nil {
		respondError(c, http.StatusBadRequest, "photo file is required")
		return
	}
	if s.photo.MaxBytes > 0 && fh.Size > s.photo.MaxBytes {
		respondError(c, http.StatusRequestEntityTooLarge, "photo exceeds the size limit")
		return
	}

	f, err := fh.Open()
	if err != nil {
		respondErr(c, "uploadPhoto", err)
		return
	}
	data, err := io.ReadAll(io.LimitReader(f, s.photo.MaxBytes+1))
	f.Close()
	if err != nil {
		respondErr(c, "uploadPhoto", err)
		return
	}
	info, err := media.ValidatePhoto(data, s.photo.MaxBytes)
	if err != nil {
		respondErr(c, "uploadPhoto", err)
		return
	}

	now := s.now()
	date := strings.TrimSpace(c.PostForm(cloud.PhotoDateFormField))
	if validate.Date(date) != nil {
		date = now.Format(model.DateLayout)
	}
	rel, err := media.PhotoPath(date, now, info.Extension)
	if err != nil {
		respondErr(c, "uploadPhoto", err)
		return
	}

	u := currentUser(c)
	dst := filepath.Join(s.uploadDir, u.ID, filepath.FromSlash(rel))
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		respondErr(c, "uploadPhoto", err)
		return
	}
	if err := os.WriteFile(dst, data, 0o644); err != nil {
		respondErr(c, "uploadPhoto", err)
		return
	}

	row := PhotoRow{UserID: u.ID, Path: rel, URL: s.photoURL(c, u.ID, rel), Size: info.Size}
	if err := s.db.Create(&row).Error; err != nil {
		_ = os.Remove(dst)
		respondErr(c, "uploadPhoto", err)
		return
	}
	logging.DebugLog("photo stored", logging.KeyUserID, u.ID, logging.KeyPath, rel)
	c.JSON(http.StatusOK, cloud.PhotoResponse{URL: row.URL, Path: rel})
}

// relativePhotoPath accepts a stored path or a public URL.
func relativePhotoPath(userID, ref string) string {
	ref = strings.TrimSpace(ref)
	marker := "/photos/" + userID + "/"
	if i := strings.Index(ref, marker); i >= 0 {
		ref = ref[i+len(marker):]
	}
	return path.Clean(ref)
}

// DeletePhoto removes a stored photo by path or URL.
func (s *Server) DeletePhoto(c *gin.Context) {
	var req cloud.DeletePhotoRequest
	if !bindJSON(c, &req, "invalid request") {
		return
	}
	u := currentUser(c)
	rel := relativePhotoPath(u.ID, req.Path)
	if rel == "." || validate.IsPathTraversal(rel) {
		respondError(c, http.StatusBadRequest, "invalid photo path")
		return
	}

	var row PhotoRow
	err := s.db.Where("user_id = ? AND path = ?", u.ID, rel).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		respondError(c, http.StatusNotFound, "photo not found")
		return
	}
	if err != nil {
		respondErr(c, "deletePhoto", err)
		return
	}
	s.removePhoto(u.ID, &row)
	ok(c)
}

// removePhoto deletes the file and its row. Failures are logged.
func (s *Server) removePhoto(userID string, row *PhotoRow) {
	userDir := filepath.Join(s.uploadDir, userID)
	file := filepath.Join(userDir, filepath.FromSlash(row.Path))
	if validate.IsWithinDirectory(file, userDir) {
		if err := os.Remove(file); err != nil && !os.IsNotExist(err) {
			logging.Warn("removing photo failed", logging.KeyPath, row.Path, logging.KeyError, err)
		}
	}
	if err := s.db.Unscoped().Delete(row).Error; err != nil {
		logging.Warn("removing photo row failed", logging.KeyPath, row.Path, logging.KeyError, err)
	}
}
