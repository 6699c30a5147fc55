package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// captureJSON points the global logger at a buffer for the duration of a test.
func captureJSON(t *testing.T, level slog.Level) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	Init(Config{Level: level, JSON: true, Output: &buf})
	t.Cleanup(func() { Init(DefaultConfig()) })
	return &buf
}

func lastLine(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	var out map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[len(lines)-1]), &out))
	return out
}

func TestConfigs(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, slog.LevelInfo, cfg.Level)
	assert.False(t, cfg.JSON)

	dbg := DebugConfig()
	assert.Equal(t, slog.LevelDebug, dbg.Level)
	assert.True(t, dbg.JSON)
	assert.True(t, dbg.AddSource)
}

func TestInitSetsDebugFlag(t *testing.T) {
	captureJSON(t, slog.LevelDebug)
	assert.True(t, Debug)

	Init(Config{Level: slog.LevelInfo, Output: nil})
	assert.False(t, Debug)
	assert.NotNil(t, Logger())
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, ParseLevel("DEBUG"))
	assert.Equal(t, slog.LevelWarn, ParseLevel("warning"))
	assert.Equal(t, slog.LevelError, ParseLevel(" error "))
	assert.Equal(t, slog.LevelInfo, ParseLevel("loud"))
	assert.Equal(t, slog.LevelInfo, ParseLevel(""))
}

func TestLevelFiltering(t *testing.T) {
	buf := captureJSON(t, slog.LevelInfo)

	DebugLog("hidden")
	assert.Empty(t, buf.String())

	Warn("shown", KeyCount, 3)
	entry := lastLine(t, buf)
	assert.Equal(t, "shown", entry["msg"])
	assert.Equal(t, float64(3), entry[KeyCount])
}

func TestContextLoggingFunctions(t *testing.T) {
	buf := captureJSON(t, slog.LevelDebug)
	ctx := context.Background()

	for name, fn := range map[string]func(context.Context, string, ...any){
		"info":  InfoContext,
		"debug": DebugContext,
		"warn":  WarnContext,
		"error": ErrorContext,
	} {
		t.Run(name, func(t *testing.T) {
			buf.Reset()
			fn(ctx, name+" message")
			assert.Contains(t, buf.String(), name+" message")
		})
	}
}

func TestLogOperation(t *testing.T) {
	buf := captureJSON(t, slog.LevelDebug)

	LogOperation("save_record", time.Now().Add(-25*time.Millisecond), KeyRecordID, "r1")
	entry := lastLine(t, buf)
	assert.Equal(t, "save_record", entry[KeyOperation])
	assert.Equal(t, "r1", entry[KeyRecordID])
	assert.GreaterOrEqual(t, entry[KeyDuration].(float64), float64(25))
}

func TestHandlerMasksSensitiveAttributes(t *testing.T) {
	buf := captureJSON(t, slog.LevelDebug)

	Info("sign in", "password", "hunter22", "email", "practitioner@example.com", "code", "123456")
	entry := lastLine(t, buf)
	assert.Equal(t, "********", entry["password"])
	assert.Equal(t, "pra***@example.com", entry["email"])
	assert.Equal(t, "******", entry["code"])

	buf.Reset()
	With("session_cookie", "abc").Info("with attrs", "status_code", 200)
	entry = lastLine(t, buf)
	assert.Equal(t, "***", entry["session_cookie"])
	assert.Equal(t, float64(200), entry["status_code"])
}

// =============================================================================
// Request Context Tests
// =============================================================================

func TestGenerateRequestID(t *testing.T) {
	id1 := GenerateRequestID()
	id2 := GenerateRequestID()
	assert.Len(t, id1, 16)
	assert.NotEqual(t, id1, id2)
}

func TestRequestIDFromContext(t *testing.T) {
	assert.Empty(t, RequestIDFromContext(nil))
	assert.Empty(t, RequestIDFromContext(context.Background()))
	assert.Equal(t, "abc123", RequestIDFromContext(WithRequestID(context.Background(), "abc123")))
	assert.Len(t, RequestIDFromContext(NewRequestContext()), 16)
}

func TestEnsureRequestID(t *testing.T) {
	ctx := WithRequestID(context.Background(), "sync-1")
	assert.Equal(t, ctx, EnsureRequestID(ctx))

	fresh := EnsureRequestID(context.Background())
	assert.Len(t, RequestIDFromContext(fresh), 16)
	assert.Len(t, RequestIDFromContext(EnsureRequestID(nil)), 16)
}

func TestFromContextTagsRequestID(t *testing.T) {
	buf := captureJSON(t, slog.LevelDebug)

	FromContext(WithRequestID(context.Background(), "sync-42")).Info("sync started")
	assert.Equal(t, "sync-42", lastLine(t, buf)[KeyRequestID])

	FromContext(context.Background()).Info("no id")
	_, tagged := lastLine(t, buf)[KeyRequestID]
	assert.False(t, tagged)
}

func TestStartPass(t *testing.T) {
	buf := captureJSON(t, slog.LevelDebug)

	ctx, log := StartPass(context.Background(), "sync")
	id := RequestIDFromContext(ctx)
	require.Len(t, id, 16)

	log.Warn("sync failed", KeyError, "boom")
	entry := lastLine(t, buf)
	assert.Equal(t, id, entry[KeyRequestID])
	assert.Equal(t, "sync", entry[KeyOperation])
	assert.Equal(t, "boom", entry[KeyError])

	again, _ := StartPass(ctx, "retry")
	assert.Equal(t, id, RequestIDFromContext(again))
}

// =============================================================================
// Mask Tests
// =============================================================================

func TestIsSensitiveField(t *testing.T) {
	for _, f := range []string{"password", "newPassword", "access_token", "Cookie", "code", "verification_code", "session"} {
		assert.True(t, IsSensitiveField(f), f)
	}
	for _, f := range []string{"status_code", "record_id", "email", "op", "duration_ms"} {
		assert.False(t, IsSensitiveField(f), f)
	}
}

func TestMaskEmail(t *testing.T) {
	assert.Equal(t, "pra***@example.com", MaskEmail("practitioner@example.com"))
	assert.Equal(t, "a***@b.io", MaskEmail("ab@b.io"))
	assert.Equal(t, "********", MaskEmail("not-an-email"))
}

func TestMaskArgs(t *testing.T) {
	args := MaskArgs([]any{"email", "yogi@example.com", "password", "secret", "count", 2})
	assert.Equal(t, "yog***@example.com", args[1])
	assert.Equal(t, "******", args[3])
	assert.Equal(t, 2, args[5])

	assert.Equal(t, []any{"single"}, MaskArgs([]any{"single"}))
}

func TestMaskMap(t *testing.T) {
	result := MaskMap(map[string]any{
		"token":    "secret-token-123",
		"username": "john",
		"nested":   map[string]any{"api_key": "k", "name": "test"},
		"secret":   12345,
	})
	assert.Equal(t, "********", result["token"])
	assert.Equal(t, "john", result["username"])
	nested := result["nested"].(map[string]any)
	assert.Equal(t, "*", nested["api_key"])
	assert.Equal(t, "test", nested["name"])
	assert.Equal(t, "********", result["secret"])
}

func TestSanitizeLogMessage(t *testing.T) {
	assert.Equal(t, "plain message", SanitizeLogMessage("plain message"))

	msg := SanitizeLogMessage("upload to https://storage.example.com/practice-photos/2026-01/2026-01-18/photo.jpg failed")
	assert.Contains(t, msg, "upload to https://storage.example.com")
	assert.Contains(t, msg, "***")

	assert.Contains(t, SanitizeLogMessage("GET http://localhost:8080/api/sync/snapshot"), "/api/sync/snapshot")
	assert.Equal(t, "code sent to pra***@example.com", SanitizeLogMessage("code sent to practitioner@example.com"))
}
