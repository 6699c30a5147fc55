// Package cloud is the client SDK for the sync backend: authentication,
// the per-user record document and photo storage. The request and response
// types here are shared with internal/server.
package cloud

import (
	"time"

	"github.com/ashtangalog/ashtanga/internal/model"
)

// SessionCookieName is the backend's session cookie.
const SessionCookieName = "ashtanga_session"

// HeaderRequestID carries the client's request id so both sides log it.
const HeaderRequestID = "X-Request-ID"

// Verification code purposes.
const (
	PurposeEmailVerification = "email_verification"
	PurposeResetPassword     = "reset_password"
)

// API paths.
const (
	PathPing           = "/ping"
	PathSendCode       = "/api/auth/send-verification-code"
	PathVerifyCode     = "/api/auth/verify-code"
	PathRegister       = "/api/auth/register"
	PathLogin          = "/api/auth/login"
	PathLogout         = "/api/auth/logout"
	PathResetPassword  = "/api/auth/reset-password"
	PathPassword       = "/api/auth/password"
	PathSnapshot       = "/api/sync/snapshot"
	PathRecords        = "/api/sync/records"
	PathDeleteRecord   = "/api/sync/delete-record"
	PathUploadProfile  = "/api/sync/upload-profile"
	PathOptions        = "/api/sync/options"
	PathAccountData    = "/api/account/data"
	PathPhotos         = "/api/storage/photos"
	PhotoFormField     = "photo"
	PhotoDateFormField = "date"
)

// User is the signed-in account.
type User struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	IsPro     bool      `json:"is_pro"`
	CreatedAt time.Time `json:"created_at"`
}

// Device identifies the install that signed in.
type Device struct {
	ID       string    `json:"id"`
	Name     string    `json:"name"`
	LastSeen time.Time `json:"last_seen,omitempty"`
}

// SendCodeRequest asks for a verification code.
type SendCodeRequest struct {
	Email string `json:"email"`
	Type  string `json:"type"`
}

// SendCodeResponse confirms a code was issued. Code is only filled by a
// development backend that does not deliver mail.
type SendCodeResponse struct {
	Sent      bool      `json:"sent"`
	ExpiresAt time.Time `json:"expires_at"`
	Code      string    `json:"code,omitempty"`
}

// VerifyCodeRequest checks and consumes a code.
type VerifyCodeRequest struct {
	Email string `json:"email"`
	Code  string `json:"code"`
	Type  string `json:"type"`
}

// RegisterRequest creates an account.
type RegisterRequest struct {
	Email            string `json:"email"`
	Password         string `json:"password"`
	VerificationCode string `json:"verificationCode"`
}

// LoginRequest signs in from a device.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Device   Device `json:"device"`
}

// AuthResponse is returned by register and login. DisplacedDevice is the
// device that was signed out by this login, if any.
type AuthResponse struct {
	User            User    `json:"user"`
	DisplacedDevice *Device `json:"displaced_device,omitempty"`
}

// ResetPasswordRequest sets a new password with a reset code.
type ResetPasswordRequest struct {
	Email       string `json:"email"`
	Code        string `json:"code"`
	NewPassword string `json:"newPassword"`
}

// UpdatePasswordRequest changes the signed-in user's password.
type UpdatePasswordRequest struct {
	NewPassword string `json:"newPassword"`
}

// UpsertRecordsRequest creates or replaces records by id.
type UpsertRecordsRequest struct {
	Records []model.PracticeRecord `json:"records"`
}

// DeleteRecordRequest soft-deletes a record.
type DeleteRecordRequest struct {
	ID string `json:"id"`
}

// OptionsRequest replaces the user's options.
type OptionsRequest struct {
	Options []model.PracticeOption `json:"options"`
}

// PhotoResponse describes a stored photo.
type PhotoResponse struct {
	URL  string `json:"url"`
	Path string `json:"path"`
}

// DeletePhotoRequest removes a stored photo by path or URL.
type DeletePhotoRequest struct {
	Path string `json:"path"`
}

// CountResponse reports affected rows.
type CountResponse struct {
	Count int `json:"count"`
}

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Error string `json:"error"`
}
