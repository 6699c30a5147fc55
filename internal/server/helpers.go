package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ashtangalog/ashtanga/internal/cloud"
	"github.com/ashtangalog/ashtanga/internal/errors"
	"github.com/ashtangalog/ashtanga/internal/logging"
)

// Session and context keys.
const (
	sessionUserID   = "user_id"
	sessionDeviceID = "device_id"
	ctxUser         = "user"
)

func respondError(c *gin.Context, status int, message string) {
	c.AbortWithStatusJSON(status, cloud.ErrorResponse{Error: message})
}

// respondErr maps an internal error to a status code.
func respondErr(c *gin.Context, op string, err error) {
	if ve, ok := errors.AsValidationError(err); ok {
		respondError(c, http.StatusBadRequest, ve.Error())
		return
	}
	if errors.IsNotFoundError(err) {
		respondError(c, http.StatusNotFound, err.Error())
		return
	}
	logging.Error("request failed", logging.KeyOperation, op, logging.KeyError, err)
	respondError(c, http.StatusInternalServerError, "internal error")
}

func bindJSON(c *gin.Context, dst any, message string) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		respondError(c, http.StatusBadRequest, message)
		return false
	}
	return true
}

func ok(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

// currentUser returns the user loaded by AuthRequired.
func currentUser(c *gin.Context) *User {
	v, exists := c.Get(ctxUser)
	if !exists {
		return nil
	}
	u, _ := v.(*User)
	return u
}

func apiUser(u *User) cloud.User {
	return cloud.User{ID: u.ID, Email: u.Email, IsPro: u.IsPro, CreatedAt: u.CreatedAt}
}
