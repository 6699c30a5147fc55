package cloudsync

import (
	"context"

	"github.com/ashtangalog/ashtanga/internal/cloud"
	"github.com/ashtangalog/ashtanga/internal/errors"
	"github.com/ashtangalog/ashtanga/internal/logging"
	"github.com/ashtangalog/ashtanga/internal/model"
	"github.com/ashtangalog/ashtanga/internal/storage"
	"github.com/ashtangalog/ashtanga/internal/validate"
)

// AuthClient is the authentication side of the backend.
type AuthClient interface {
	SendVerificationCode(ctx context.Context, email, purpose string) (*cloud.SendCodeResponse, error)
	SignUp(ctx context.Context, email, password, code string) (*cloud.AuthResponse, error)
	SignIn(ctx context.Context, email, password string, device cloud.Device) (*cloud.AuthResponse, error)
	SignOut(ctx context.Context) error
	Cookies() []model.StoredCookie
}

// Account attaches and detaches the local journal to a backend account.
type Account struct {
	auth     AuthClient
	settings *storage.SettingsRepo
	r        *Reconciler
}

// NewAccount creates the account flow around r.
func NewAccount(r *Reconciler, auth AuthClient, settings *storage.SettingsRepo) *Account {
	return &Account{auth: auth, settings: settings, r: r}
}

// SignInResult reports a sign-in and the sync pass that followed it.
type SignInResult struct {
	User            cloud.User    `json:"user"`
	DisplacedDevice *cloud.Device `json:"displaced_device,omitempty"`
	Sync            *Result       `json:"sync,omitempty"`
}

// SendCode requests a verification code for email.
func (a *Account) SendCode(ctx context.Context, email, purpose string) (*cloud.SendCodeResponse, error) {
	if err := validate.Email(email); err != nil {
		return nil, err
	}
	return a.auth.SendVerificationCode(ctx, email, purpose)
}

// SignUp registers an account and runs the first sync. The returned error
// is the sync error, if any; the account stays attached either way.
func (a *Account) SignUp(ctx context.Context, email, password, code string) (*SignInResult, error) {
	ctx = logging.EnsureRequestID(ctx)
	if err := validate.Email(email); err != nil {
		return nil, err
	}
	if err := validate.Password(password); err != nil {
		return nil, err
	}
	if err := validate.VerificationCode(code); err != nil {
		return nil, err
	}
	resp, err := a.auth.SignUp(ctx, email, password, code)
	if err != nil {
		return nil, err
	}
	return a.attach(ctx, resp)
}

// SignIn signs in from this install and runs a sync pass. A conflict is
// returned as *errors.ConflictError.
func (a *Account) SignIn(ctx context.Context, email, password string) (*SignInResult, error) {
	ctx = logging.EnsureRequestID(ctx)
	if err := validate.Email(email); err != nil {
		return nil, err
	}
	settings, err := a.settings.Get()
	if err != nil {
		return nil, errors.NewStorageError("read settings", err)
	}
	resp, err := a.auth.SignIn(ctx, email, password, cloud.Device{ID: settings.DeviceID, Name: settings.DeviceName})
	if err != nil {
		return nil, err
	}
	if resp.DisplacedDevice != nil {
		logging.FromContext(ctx).Warn("signed out another device", "device", resp.DisplacedDevice.Name)
	}
	return a.attach(ctx, resp)
}

func (a *Account) attach(ctx context.Context, resp *cloud.AuthResponse) (*SignInResult, error) {
	cookies := a.auth.Cookies()
	err := a.r.l.update(func(m *model.SyncMeta) {
		m.UserID = resp.User.ID
		m.Email = resp.User.Email
		m.Cookies = cookies
		m.Status = model.SyncIdle
		m.Conflict = nil
		m.FailedIDs = nil
		m.LastError = ""
	})
	if err != nil {
		return nil, errors.NewStorageError("save account", err)
	}
	if err := a.r.l.repo.ClearAllPending(); err != nil {
		logging.FromContext(ctx).Warn("clearing pending changes", logging.KeyError, err)
	}
	logging.FromContext(ctx).Info("signed in", logging.KeyUserID, resp.User.ID, "email", resp.User.Email)

	out := &SignInResult{User: resp.User, DisplacedDevice: resp.DisplacedDevice}
	res, err := a.r.Sync(ctx)
	out.Sync = res
	return out, err
}

// SignOut ends the session and detaches the account. Local data stays.
func (a *Account) SignOut(ctx context.Context) error {
	ctx = logging.EnsureRequestID(ctx)
	meta, err := a.r.Meta()
	if err != nil {
		return err
	}
	if !meta.SignedIn() {
		return errors.Refusal(errors.ErrNotSignedIn)
	}
	a.r.Wait()
	if err := a.auth.SignOut(ctx); err != nil {
		logging.FromContext(ctx).Warn("remote sign-out failed", logging.KeyError, err)
	}
	err = a.r.l.update(func(m *model.SyncMeta) {
		*m = model.SyncMeta{Key: m.Key, Status: model.SyncIdle}
	})
	if err != nil {
		return errors.NewStorageError("clear account", err)
	}
	if err := a.r.l.repo.ClearAllPending(); err != nil {
		logging.FromContext(ctx).Warn("clearing pending changes", logging.KeyError, err)
	}
	logging.FromContext(ctx).Info("signed out", logging.KeyUserID, meta.UserID)
	return nil
}
