package server

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/ashtangalog/ashtanga/internal/cloud"
	"github.com/ashtangalog/ashtanga/internal/errors"
	"github.com/ashtangalog/ashtanga/internal/logging"
	"github.com/ashtangalog/ashtanga/internal/validate"
)

const invalidCredentials = "invalid email or password"

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func validPurpose(p string) bool {
	return p == cloud.PurposeEmailVerification || p == cloud.PurposeResetPassword
}

func newCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1_000_000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}

func (s *Server) findUser(email string) (*User, error) {
	var u User
	err := s.db.Where("email = ?", email).First(&u).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &u, nil
}

// SendVerificationCode issues a 6-digit code for an e-mail and purpose.
func (s *Server) SendVerificationCode(c *gin.Context) {
	var req cloud.SendCodeRequest
	if !bindJSON(c, &req, "invalid request") {
		return
	}
	email := normalizeEmail(req.Email)
	if err := validate.Email(email); err != nil {
		respondErr(c, "sendCode", err)
		return
	}
	if !validPurpose(req.Type) {
		respondError(c, http.StatusBadRequest, "unknown code type")
		return
	}

	u, err := s.findUser(email)
	if err != nil {
		respondErr(c, "sendCode", err)
		return
	}
	if req.Type == cloud.PurposeEmailVerification && u != nil {
		respondError(c, http.StatusConflict, "email already registered")
		return
	}
	if req.Type == cloud.PurposeResetPassword && u == nil {
		respondError(c, http.StatusNotFound, "no account for this email")
		return
	}

	code, err := newCode()
	if err != nil {
		respondErr(c, "sendCode", err)
		return
	}
	vc := VerificationCode{
		Email:     email,
		Code:      code,
		Purpose:   req.Type,
		ExpiresAt: s.now().Add(s.cfg.CodeTTL),
	}
	if err := s.db.Create(&vc).Error; err != nil {
		respondErr(c, "sendCode", err)
		return
	}
	if err := s.mailer.SendCode(email, req.Type, code); err != nil {
		logging.Warn("code delivery failed", "email", email, logging.KeyError, err)
	}
	logging.Info("verification code issued", "email", email, "purpose", req.Type)

	resp := cloud.SendCodeResponse{Sent: true, ExpiresAt: vc.ExpiresAt}
	if s.cfg.ExposeCodes {
		resp.Code = code
	}
	c.JSON(http.StatusOK, resp)
}

// liveCode finds an unused, unexpired code.
func (s *Server) liveCode(tx *gorm.DB, email, code, purpose string) (*VerificationCode, error) {
	if err := validate.VerificationCode(code); err != nil {
		return nil, err
	}
	var vc VerificationCode
	err := tx.Where("email = ? AND code = ? AND purpose = ? AND used_at IS NULL AND expires_at > ?",
		email, code, purpose, s.now()).
		Order("id DESC").First(&vc).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, errors.NewValidationError("code", "invalid or expired code", "Request a new code")
	}
	if err != nil {
		return nil, err
	}
	return &vc, nil
}

// consumeCode marks a live code as used inside tx.
func (s *Server) consumeCode(tx *gorm.DB, email, code, purpose string) error {
	vc, err := s.liveCode(tx, email, code, purpose)
	if err != nil {
		return err
	}
	now := s.now()
	return tx.Model(vc).Update("used_at", &now).Error
}

// VerifyCode checks a code and marks it verified.
func (s *Server) VerifyCode(c *gin.Context) {
	var req cloud.VerifyCodeRequest
	if !bindJSON(c, &req, "invalid request") {
		return
	}
	if !validPurpose(req.Type) {
		respondError(c, http.StatusBadRequest, "unknown code type")
		return
	}
	vc, err := s.liveCode(s.db, normalizeEmail(req.Email), strings.TrimSpace(req.Code), req.Type)
	if err != nil {
		respondErr(c, "verifyCode", err)
		return
	}
	now := s.now()
	if err := s.db.Model(vc).Update("verified_at", &now).Error; err != nil {
		respondErr(c, "verifyCode", err)
		return
	}
	ok(c)
}

// Register creates an account with a valid verification code and signs in.
func (s *Server) Register(c *gin.Context) {
	var req cloud.RegisterRequest
	if !bindJSON(c, &req, "invalid request") {
		return
	}
	email := normalizeEmail(req.Email)
	if err := validate.Email(email); err != nil {
		respondErr(c, "register", err)
		return
	}
	if err := validate.Password(req.Password); err != nil {
		respondErr(c, "register", err)
		return
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		respondErr(c, "register", err)
		return
	}

	u := User{ID: uuid.NewString(), Email: email, PasswordHash: string(hash)}
	var conflict bool
	err = s.db.Transaction(func(tx *gorm.DB) error {
		var n int64
		if err := tx.Model(&User{}).Where("email = ?", email).Count(&n).Error; err != nil {
			return err
		}
		if n > 0 {
			conflict = true
			return nil
		}
		if err := s.consumeCode(tx, email, strings.TrimSpace(req.VerificationCode), cloud.PurposeEmailVerification); err != nil {
			return err
		}
		return tx.Create(&u).Error
	})
	if conflict {
		respondError(c, http.StatusConflict, "email already registered")
		return
	}
	if err != nil {
		respondErr(c, "register", err)
		return
	}

	session := sessions.Default(c)
	session.Set(sessionUserID, u.ID)
	session.Delete(sessionDeviceID)
	if err := session.Save(); err != nil {
		respondErr(c, "register", err)
		return
	}
	logging.Info("account registered", logging.KeyUserID, u.ID, "email", email)
	c.JSON(http.StatusOK, cloud.AuthResponse{User: apiUser(&u)})
}

// Login checks credentials and makes the caller's device the only signed-in one.
func (s *Server) Login(c *gin.Context) {
	var req cloud.LoginRequest
	if !bindJSON(c, &req, "invalid request") {
		return
	}
	u, err := s.findUser(normalizeEmail(req.Email))
	if err != nil {
		respondErr(c, "login", err)
		return
	}
	if u == nil || bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(req.Password)) != nil {
		respondError(c, http.StatusUnauthorized, invalidCredentials)
		return
	}

	deviceID := strings.TrimSpace(req.Device.ID)
	if deviceID == "" {
		deviceID = uuid.NewString()
	}
	now := s.now()

	var displaced *cloud.Device
	err = s.db.Transaction(func(tx *gorm.DB) error {
		var existing []Device
		if err := tx.Where("user_id = ?", u.ID).Find(&existing).Error; err != nil {
			return err
		}
		for _, d := range existing {
			if d.DeviceID != deviceID {
				displaced = &cloud.Device{ID: d.DeviceID, Name: d.Name, LastSeen: d.LastSeen}
				break
			}
		}
		if err := tx.Unscoped().Where("user_id = ?", u.ID).Delete(&Device{}).Error; err != nil {
			return err
		}
		return tx.Create(&Device{UserID: u.ID, DeviceID: deviceID, Name: req.Device.Name, LastSeen: now}).Error
	})
	if err != nil {
		respondErr(c, "login", err)
		return
	}

	session := sessions.Default(c)
	session.Set(sessionUserID, u.ID)
	session.Set(sessionDeviceID, deviceID)
	if err := session.Save(); err != nil {
		respondErr(c, "login", err)
		return
	}
	if displaced != nil {
		logging.Info("device displaced", logging.KeyUserID, u.ID, "device", displaced.Name)
	}
	c.JSON(http.StatusOK, cloud.AuthResponse{User: apiUser(u), DisplacedDevice: displaced})
}

// Logout clears the session and the user's devices.
func (s *Server) Logout(c *gin.Context) {
	session := sessions.Default(c)
	if uid, okID := session.Get(sessionUserID).(string); okID && uid != "" {
		if err := s.db.Unscoped().Where("user_id = ?", uid).Delete(&Device{}).Error; err != nil {
			logging.Warn("clearing devices failed", logging.KeyUserID, uid, logging.KeyError, err)
		}
	}
	session.Clear()
	session.Options(sessions.Options{Path: "/", MaxAge: -1})
	_ = session.Save()
	ok(c)
}

// ResetPassword sets a new password with a reset code.
func (s *Server) ResetPassword(c *gin.Context) {
	var req cloud.ResetPasswordRequest
	if !bindJSON(c, &req, "invalid request") {
		return
	}
	email := normalizeEmail(req.Email)
	if err := validate.Password(req.NewPassword); err != nil {
		respondErr(c, "resetPassword", err)
		return
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(req.NewPassword), bcrypt.DefaultCost)
	if err != nil {
		respondErr(c, "resetPassword", err)
		return
	}
	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := s.consumeCode(tx, email, strings.TrimSpace(req.Code), cloud.PurposeResetPassword); err != nil {
			return err
		}
		res := tx.Model(&User{}).Where("email = ?", email).Update("password_hash", string(hash))
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return errors.NewNotFoundError("account", email)
		}
		return nil
	})
	if err != nil {
		respondErr(c, "resetPassword", err)
		return
	}
	logging.Info("password reset", "email", email)
	ok(c)
}

// UpdatePassword changes the signed-in user's password.
func (s *Server) UpdatePassword(c *gin.Context) {
	var req cloud.UpdatePasswordRequest
	if !bindJSON(c, &req, "invalid request") {
		return
	}
	if err := validate.Password(req.NewPassword); err != nil {
		respondErr(c, "updatePassword", err)
		return
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(req.NewPassword), bcrypt.DefaultCost)
	if err != nil {
		respondErr(c, "updatePassword", err)
		return
	}
	u := currentUser(c)
	if err := s.db.Model(u).Update("password_hash", string(hash)).Error; err != nil {
		respondErr(c, "updatePassword", err)
		return
	}
	ok(c)
}

// AuthRequired loads the session user. Sessions from a displaced device are rejected.
func (s *Server) AuthRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		session := sessions.Default(c)
		uid, _ := session.Get(sessionUserID).(string)
		if uid == "" {
			respondError(c, http.StatusUnauthorized, "not signed in")
			return
		}
		var u User
		if err := s.db.First(&u, "id = ?", uid).Error; err != nil {
			respondError(c, http.StatusUnauthorized, "not signed in")
			return
		}

		var dev Device
		err := s.db.Where("user_id = ?", uid).First(&dev).Error
		switch {
		case err == nil:
			if sid, _ := session.Get(sessionDeviceID).(string); sid != dev.DeviceID {
				respondError(c, http.StatusUnauthorized, "signed in on another device")
				return
			}
			if s.now().Sub(dev.LastSeen) > time.Minute {
				s.db.Model(&dev).Update("last_seen", s.now())
			}
		case !errors.Is(err, gorm.ErrRecordNotFound):
			respondErr(c, "auth", err)
			return
		}

		c.Set(ctxUser, &u)
		c.Next()
	}
}
