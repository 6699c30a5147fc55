package cloud

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ashtangalog/ashtanga/internal/errors"
	"github.com/ashtangalog/ashtanga/internal/logging"
	"github.com/ashtangalog/ashtanga/internal/model"
)

func newTestClient(t *testing.T, h http.Handler, retries int) *Client {
	t.Helper()
	ts := httptest.NewServer(h)
	t.Cleanup(ts.Close)
	c, err := New(Options{
		BaseURL:     ts.URL,
		Timeout:     2 * time.Second,
		MaxRetries:  retries,
		RetryDelays: []time.Duration{0, time.Millisecond, time.Millisecond},
	})
	require.NoError(t, err)
	return c
}

func TestNewRejectsBadURL(t *testing.T) {
	for _, u := range []string{"", "not a url", "/relative"} {
		_, err := New(Options{BaseURL: u})
		assert.True(t, errors.IsValidationError(err), u)
	}
}

func TestIdempotentCallsRetry(t *testing.T) {
	var calls atomic.Int32
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		json.NewEncoder(w).Encode(model.Snapshot{Version: 1, Records: []model.PracticeRecord{{ID: "r1"}}})
	}), 3)

	snap, err := c.FetchAll(context.Background())
	require.NoError(t, err)
	assert.Len(t, snap.Records, 1)
	assert.Equal(t, int32(3), calls.Load())
}

func TestRequestIDForwarded(t *testing.T) {
	var got atomic.Value
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got.Store(r.Header.Get(HeaderRequestID))
		json.NewEncoder(w).Encode(model.Snapshot{Version: 1, Records: []model.PracticeRecord{}})
	}), 1)

	_, err := c.FetchAll(logging.WithRequestID(context.Background(), "sync-9"))
	require.NoError(t, err)
	assert.Equal(t, "sync-9", got.Load())

	_, err = c.FetchAll(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "", got.Load())
}

func TestNonIdempotentCallsDoNotRetry(t *testing.T) {
	var calls atomic.Int32
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadGateway)
	}), 3)

	_, err := c.SignIn(context.Background(), "a@example.com", "secret123", Device{ID: "d"})
	require.Error(t, err)
	assert.Equal(t, int32(1), calls.Load())
}

func TestClientErrorsAreNotRetried(t *testing.T) {
	var calls atomic.Int32
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusUnauthorized)
		json.NewEncoder(w).Encode(ErrorResponse{Error: "not signed in"})
	}), 3)

	err := c.UpsertRecords(context.Background(), nil)
	require.Error(t, err)
	assert.Equal(t, int32(1), calls.Load())
	assert.True(t, errors.Is(err, errors.ErrUnauthorized))

	ne, ok := errors.AsNetworkError(err)
	require.True(t, ok)
	assert.Equal(t, "upsertRecords", ne.Op)
	assert.Equal(t, "not signed in", ne.Message)
}

func TestUnreachableBackend(t *testing.T) {
	ts := httptest.NewServer(http.NotFoundHandler())
	url := ts.URL
	ts.Close()

	c, err := New(Options{BaseURL: url, Timeout: time.Second, MaxRetries: 1})
	require.NoError(t, err)
	err = c.Ping(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrNetworkUnavailable))
}

func TestReplaceAllStripsAvatar(t *testing.T) {
	var got model.Snapshot
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPut, r.Method)
		assert.Equal(t, PathSnapshot, r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusOK)
	}), 1)

	snap := &model.Snapshot{Version: 1, Records: []model.PracticeRecord{}, Profile: &model.UserProfile{ID: "p", Avatar: "data:x"}}
	require.NoError(t, c.ReplaceAll(context.Background(), snap))
	require.NotNil(t, got.Profile)
	assert.Empty(t, got.Profile.Avatar)
	assert.Equal(t, "data:x", snap.Profile.Avatar)
}

func TestUploadPhotoSendsMultipart(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseMultipartForm(1<<20))
		assert.Equal(t, "2025-01-02", r.FormValue(PhotoDateFormField))
		f, fh, err := r.FormFile(PhotoFormField)
		require.NoError(t, err)
		defer f.Close()
		data, _ := io.ReadAll(f)
		assert.Equal(t, "pic.jpg", fh.Filename)
		assert.Equal(t, "image/jpeg", fh.Header.Get("Content-Type"))
		assert.Equal(t, []byte{1, 2, 3}, data)
		json.NewEncoder(w).Encode(PhotoResponse{URL: "http://x/photos/u/p.jpg", Path: "p.jpg"})
	}), 1)

	resp, err := c.UploadPhoto(context.Background(), "pic.jpg", "image/jpeg", "2025-01-02", []byte{1, 2, 3})
	require.NoError(t, err)
	assert.Equal(t, "p.jpg", resp.Path)
}

func TestCookiesRoundTrip(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == PathLogin {
			http.SetCookie(w, &http.Cookie{Name: SessionCookieName, Value: "abc", Path: "/"})
			json.NewEncoder(w).Encode(AuthResponse{User: User{ID: "u1"}})
			return
		}
		ck, err := r.Cookie(SessionCookieName)
		if err != nil || ck.Value != "abc" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.WriteHeader(http.StatusOK)
	}), 1)

	assert.False(t, c.HasSession())
	_, err := c.SignIn(context.Background(), "a@example.com", "secret123", Device{ID: "d"})
	require.NoError(t, err)
	assert.True(t, c.HasSession())

	stored := c.Cookies()
	require.Len(t, stored, 1)

	other, err := New(Options{BaseURL: c.BaseURL(), Timeout: time.Second, MaxRetries: 1})
	require.NoError(t, err)
	assert.False(t, other.HasSession())
	other.SetCookies(stored)
	assert.True(t, other.HasSession())
	require.NoError(t, other.DeleteRecord(context.Background(), "r1"))
}
