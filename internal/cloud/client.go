package cloud

import (
	"bytes"
	"context"
	"mime/multipart"
	"net/http"
	"net/http/cookiejar"
	"net/textproto"
	"net/url"
	"strings"
	"time"

	"github.com/ashtangalog/ashtanga/internal/config"
	"github.com/ashtangalog/ashtanga/internal/errors"
	"github.com/ashtangalog/ashtanga/internal/model"
)

// Client talks to the sync backend. Session cookies live in a cookie jar
// that callers persist with Cookies and SetCookies between processes.
type Client struct {
	baseURL     string
	base        *url.URL
	http        *http.Client
	jar         http.CookieJar
	maxRetries  int
	retryDelays []time.Duration
	userAgent   string
}

// Options configures a Client.
type Options struct {
	BaseURL     string
	Timeout     time.Duration
	MaxRetries  int
	RetryDelays []time.Duration
	UserAgent   string
	// Transport overrides the HTTP transport, mainly for tests.
	Transport http.RoundTripper
}

// OptionsFromConfig builds client options from the runtime configuration.
func OptionsFromConfig(cfg config.CloudConfig) Options {
	return Options{
		BaseURL:     cfg.BaseURL,
		Timeout:     cfg.Timeout,
		MaxRetries:  cfg.MaxRetries,
		RetryDelays: cfg.RetryDelays,
	}
}

// New creates a client for the backend at opts.BaseURL.
func New(opts Options) (*Client, error) {
	base, err := url.Parse(strings.TrimRight(opts.BaseURL, "/"))
	if err != nil || base.Scheme == "" || base.Host == "" {
		return nil, errors.NewValidationErrorWithValue("cloud url", opts.BaseURL, "invalid backend URL",
			"Set ASHTANGA_CLOUD_URL to something like https://sync.example.com")
	}
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, err
	}
	ua := opts.UserAgent
	if ua == "" {
		ua = "ashtanga-cli/1.0"
	}
	return &Client{
		baseURL:     base.String(),
		base:        base,
		http:        &http.Client{Timeout: opts.Timeout, Jar: jar, Transport: opts.Transport},
		jar:         jar,
		maxRetries:  opts.MaxRetries,
		retryDelays: opts.RetryDelays,
		userAgent:   ua,
	}, nil
}

// BaseURL returns the backend URL.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Cookies returns the session cookies for persistence.
func (c *Client) Cookies() []model.StoredCookie {
	var out []model.StoredCookie
	for _, ck := range c.jar.Cookies(c.base) {
		out = append(out, model.StoredCookie{Name: ck.Name, Value: ck.Value})
	}
	return out
}

// SetCookies restores persisted session cookies.
func (c *Client) SetCookies(stored []model.StoredCookie) {
	cookies := make([]*http.Cookie, 0, len(stored))
	for _, s := range stored {
		path := s.Path
		if path == "" {
			path = "/"
		}
		cookies = append(cookies, &http.Cookie{Name: s.Name, Value: s.Value, Path: path, Expires: s.Expires})
	}
	c.jar.SetCookies(c.base, cookies)
}

// HasSession reports whether a session cookie is held.
func (c *Client) HasSession() bool {
	for _, ck := range c.jar.Cookies(c.base) {
		if ck.Name == SessionCookieName && ck.Value != "" {
			return true
		}
	}
	return false
}

func (c *Client) call(ctx context.Context, op, method, path string, in, out any, idempotent bool) error {
	req, err := jsonRequest(op, method, path, in, idempotent)
	if err != nil {
		return err
	}
	return c.do(ctx, req, out)
}

// Ping checks that the backend is reachable.
func (c *Client) Ping(ctx context.Context) error {
	return c.call(ctx, "ping", http.MethodGet, PathPing, nil, nil, true)
}

// =============================================================================
// Auth
// =============================================================================

// SendVerificationCode asks the backend to issue a code for purpose.
func (c *Client) SendVerificationCode(ctx context.Context, email, purpose string) (*SendCodeResponse, error) {
	var out SendCodeResponse
	err := c.call(ctx, "sendVerificationCode", http.MethodPost, PathSendCode,
		SendCodeRequest{Email: email, Type: purpose}, &out, false)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// VerifyCode checks and consumes a code.
func (c *Client) VerifyCode(ctx context.Context, email, code, purpose string) error {
	return c.call(ctx, "verifyCode", http.MethodPost, PathVerifyCode,
		VerifyCodeRequest{Email: email, Code: code, Type: purpose}, nil, false)
}

// SignUp registers an account with a verified e-mail code and signs in.
func (c *Client) SignUp(ctx context.Context, email, password, code string) (*AuthResponse, error) {
	var out AuthResponse
	err := c.call(ctx, "signUp", http.MethodPost, PathRegister,
		RegisterRequest{Email: email, Password: password, VerificationCode: code}, &out, false)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// SignIn signs in from device.
func (c *Client) SignIn(ctx context.Context, email, password string, device Device) (*AuthResponse, error) {
	var out AuthResponse
	err := c.call(ctx, "signIn", http.MethodPost, PathLogin,
		LoginRequest{Email: email, Password: password, Device: device}, &out, false)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// SignOut ends the session. Local cookies are dropped even if the call fails.
func (c *Client) SignOut(ctx context.Context) error {
	err := c.call(ctx, "signOut", http.MethodPost, PathLogout, nil, nil, true)
	c.jar.SetCookies(c.base, []*http.Cookie{{Name: SessionCookieName, Path: "/", MaxAge: -1}})
	return err
}

// UpdatePassword changes the signed-in user's password.
func (c *Client) UpdatePassword(ctx context.Context, newPassword string) error {
	return c.call(ctx, "updatePassword", http.MethodPost, PathPassword,
		UpdatePasswordRequest{NewPassword: newPassword}, nil, false)
}

// ResetPassword sets a new password using a reset code.
func (c *Client) ResetPassword(ctx context.Context, email, code, newPassword string) error {
	return c.call(ctx, "resetPassword", http.MethodPost, PathResetPassword,
		ResetPasswordRequest{Email: email, Code: code, NewPassword: newPassword}, nil, false)
}

// =============================================================================
// Record database
// =============================================================================

// FetchAll returns the user's remote snapshot.
func (c *Client) FetchAll(ctx context.Context) (*model.Snapshot, error) {
	var out model.Snapshot
	if err := c.call(ctx, "fetchAll", http.MethodGet, PathSnapshot, nil, &out, true); err != nil {
		return nil, err
	}
	return &out, nil
}

// ReplaceAll overwrites the user's remote records and options, and the
// profile when present.
func (c *Client) ReplaceAll(ctx context.Context, snap *model.Snapshot) error {
	return c.call(ctx, "replaceAll", http.MethodPut, PathSnapshot, stripAvatar(snap), nil, true)
}

// UpsertRecords creates or replaces records by id.
func (c *Client) UpsertRecords(ctx context.Context, recs []model.PracticeRecord) error {
	return c.call(ctx, "upsertRecords", http.MethodPost, PathRecords,
		UpsertRecordsRequest{Records: recs}, nil, true)
}

// DeleteRecord soft-deletes a remote record and its photos.
func (c *Client) DeleteRecord(ctx context.Context, id string) error {
	return c.call(ctx, "deleteRecord", http.MethodPost, PathDeleteRecord,
		DeleteRecordRequest{ID: id}, nil, true)
}

// UploadProfile stores the profile. The avatar never leaves the device.
func (c *Client) UploadProfile(ctx context.Context, p *model.UserProfile) error {
	cp := *p
	cp.Avatar = ""
	return c.call(ctx, "uploadProfile", http.MethodPost, PathUploadProfile, &cp, nil, true)
}

// ReplaceOptions overwrites the remote options.
func (c *Client) ReplaceOptions(ctx context.Context, opts []model.PracticeOption) error {
	return c.call(ctx, "replaceOptions", http.MethodPut, PathOptions,
		OptionsRequest{Options: opts}, nil, true)
}

// DeleteAccountData removes every remote record, option, profile and photo.
func (c *Client) DeleteAccountData(ctx context.Context) error {
	return c.call(ctx, "deleteAccountData", http.MethodDelete, PathAccountData, nil, nil, true)
}

func stripAvatar(snap *model.Snapshot) *model.Snapshot {
	if snap.Profile == nil || snap.Profile.Avatar == "" {
		return snap
	}
	cp := *snap
	p := *snap.Profile
	p.Avatar = ""
	cp.Profile = &p
	return &cp
}

// =============================================================================
// Object storage
// =============================================================================

// UploadPhoto stores an image for the practice day date and returns its
// public URL. Call media.ValidatePhoto first.
func (c *Client) UploadPhoto(ctx context.Context, filename, contentType, date string, data []byte) (*PhotoResponse, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	if err := w.WriteField(PhotoDateFormField, date); err != nil {
		return nil, err
	}
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", `form-data; name="`+PhotoFormField+`"; filename="`+escapeQuotes(filename)+`"`)
	h.Set("Content-Type", contentType)
	part, err := w.CreatePart(h)
	if err != nil {
		return nil, err
	}
	if _, err := part.Write(data); err != nil {
		return nil, err
	}
	if err := w.Close(); err != nil {
		return nil, err
	}

	req := &request{
		op:          "uploadPhoto",
		method:      http.MethodPost,
		path:        PathPhotos,
		body:        buf.Bytes(),
		contentType: w.FormDataContentType(),
	}
	var out PhotoResponse
	if err := c.do(ctx, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// DeletePhoto removes a stored photo by path or URL.
func (c *Client) DeletePhoto(ctx context.Context, pathOrURL string) error {
	return c.call(ctx, "deletePhoto", http.MethodDelete, PathPhotos,
		DeletePhotoRequest{Path: pathOrURL}, nil, true)
}

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

func escapeQuotes(s string) string {
	return quoteEscaper.Replace(s)
}
