package server

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/itsatony/talkingplants/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const jwtSecret = "server-test-secret"

type harness struct {
	t      *testing.T
	server *Server
	http   *httptest.Server
}

func newHarness(t *testing.T, brainURL string) *harness {
	t.Helper()
	dir := t.TempDir()
	cfg := &config.Config{
		Server: config.ServerConfig{AllowedOrigins: []string{"*"}, ShutdownTimeout: time.Second},
		Database: config.DatabaseConfig{
			Driver: config.DriverSQLite,
			SQLite: config.SQLiteConfig{Path: filepath.Join(dir, "tp.db")},
		},
		Auth: config.AuthConfig{Mode: config.AuthModeJWT, JWT: config.JWTConfig{Secret: jwtSecret}},
		FileStore: config.FileStoreConfig{
			BasePath:         filepath.Join(dir, "uploads"),
			PublicPrefix:     "/uploads",
			MaxFileSize:      1 << 20,
			AllowedMimeTypes: []string{"image/jpeg"},
		},
		Brain: config.BrainConfig{URL: brainURL, Timeout: 5 * time.Second},
	}

	s := New(cfg)
	require.NoError(t, s.Initialize())
	t.Cleanup(s.Close)

	conn := s.db.GetDB()
	conn.MustExec(`INSERT INTO devices (id, claim_token) VALUES ('pot-1', 'secret-1'), ('pot-2', 'secret-2')`)
	conn.MustExec(`INSERT INTO plants (scientific_name, common_name_en, mood_reference, personality_default)
		VALUES ('Monstera deliciosa', 'Swiss Cheese Plant', '{}', 'cheerful')`)

	ts := httptest.NewServer(s.Handler())
	t.Cleanup(ts.Close)
	return &harness{t: t, server: s, http: ts}
}

func (h *harness) token(user string) string {
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": user,
		"exp": time.Now().Add(time.Hour).Unix(),
	}).SignedString([]byte(jwtSecret))
	require.NoError(h.t, err)
	return tok
}

func (h *harness) do(method, path, user string, body io.Reader, contentType string) (int, []byte) {
	h.t.Helper()
	req, err := http.NewRequest(method, h.http.URL+path, body)
	require.NoError(h.t, err)
	if user != "" {
		req.Header.Set("Authorization", "Bearer "+h.token(user))
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	resp, err := h.http.Client().Do(req)
	require.NoError(h.t, err)
	defer resp.Body.Close()
	b, err := io.ReadAll(resp.Body)
	require.NoError(h.t, err)
	return resp.StatusCode, b
}

func (h *harness) json(method, path, user string, payload interface{}) (int, map[string]interface{}) {
	h.t.Helper()
	var body io.Reader
	if payload != nil {
		b, err := json.Marshal(payload)
		require.NoError(h.t, err)
		body = bytes.NewReader(b)
	}
	code, raw := h.do(method, path, user, body, "application/json")
	out := map[string]interface{}{}
	if len(raw) > 0 && raw[0] == '{' {
		require.NoError(h.t, json.Unmarshal(raw, &out))
	}
	return code, out
}

func (h *harness) uploadPhoto(user, deviceID string, plantID int) (int, map[string]interface{}) {
	h.t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	require.NoError(h.t, mw.WriteField("device_id", deviceID))
	require.NoError(h.t, mw.WriteField("plant_id", fmt.Sprint(plantID)))
	part, err := mw.CreatePart(textproto.MIMEHeader{
		"Content-Disposition": {`form-data; name="photo"; filename="leaf.jpg"`},
		"Content-Type":        {"image/jpeg"},
	})
	require.NoError(h.t, err)
	_, err = part.Write([]byte("not really a jpeg"))
	require.NoError(h.t, err)
	require.NoError(h.t, mw.Close())

	code, raw := h.do(http.MethodPost, "/api/v1/plants/photo", user, &buf, mw.FormDataContentType())
	out := map[string]interface{}{}
	require.NoError(h.t, json.Unmarshal(raw, &out), string(raw))
	return code, out
}

func TestServer_OnboardingToStreak(t *testing.T) {
	brain := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"reply":"more water please"}`))
	}))
	defer brain.Close()
	h := newHarness(t, brain.URL)

	code, body := h.json(http.MethodGet, "/api/v1/user/onboarding", "alice", nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "claim", body["step"])

	code, body = h.json(http.MethodPost, "/api/v1/devices/claim", "alice", map[string]string{"device_id": "pot-1", "token": "secret-1"})
	require.Equal(t, http.StatusCreated, code, body)
	assert.Equal(t, "pot-1", body["device_id"])
	assert.NotEmpty(t, body["caretaker_id"])

	code, body = h.uploadPhoto("alice", "pot-1", 1)
	require.Equal(t, http.StatusCreated, code, body)
	photoURL, _ := body["photo_url"].(string)
	require.True(t, strings.HasPrefix(photoURL, "/uploads/"), photoURL)

	code, raw := h.do(http.MethodGet, photoURL, "", nil, "")
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "not really a jpeg", string(raw))

	code, body = h.json(http.MethodGet, "/api/v1/user/onboarding", "alice", nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "wifi", body["step"])

	code, body = h.json(http.MethodPost, "/api/v1/device/online", "", map[string]string{"device_id": "pot-1", "claim_token": "secret-1"})
	require.Equal(t, http.StatusOK, code, body)
	assert.Equal(t, true, body["ok"])

	code, body = h.json(http.MethodGet, "/api/v1/devices/pot-1/status", "alice", nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, true, body["online"])

	code, raw = h.do(http.MethodGet, "/api/v1/devices", "alice", nil, "")
	require.Equal(t, http.StatusOK, code)
	assert.JSONEq(t, `[{"device_id":"pot-1","plant_id":1}]`, string(raw))

	code, body = h.json(http.MethodPost, "/api/v1/health/claim-streak", "alice", map[string]string{"device_id": "pot-1"})
	require.Equal(t, http.StatusOK, code, body)
	assert.Equal(t, map[string]interface{}{"success": true, "current_streak": 1.0, "longest_streak": 1.0}, body)

	code, body = h.json(http.MethodGet, "/api/v1/health/current-streak?device_id=pot-1", "alice", nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, 1.0, body["current_streak"])

	code, body = h.json(http.MethodPost, "/api/v1/health/mark-checked", "alice", map[string]string{"device_id": "pot-1"})
	require.Equal(t, http.StatusOK, code, body)

	code, body = h.json(http.MethodGet, "/api/v1/health/latest?device_id=pot-1", "alice", nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, true, body["status_checked"])
	assert.Equal(t, true, body["streak_claimed"])

	code, raw = h.do(http.MethodGet, "/api/v1/health/history?device_id=pot-1", "alice", nil, "")
	require.Equal(t, http.StatusOK, code)
	var days []map[string]interface{}
	require.NoError(t, json.Unmarshal(raw, &days))
	assert.Len(t, days, 1)

	code, body = h.json(http.MethodPost, "/api/v1/chat", "alice", map[string]string{"device_id": "pot-1", "text": "thirsty?"})
	require.Equal(t, http.StatusOK, code, body)
	assert.Equal(t, "more water please", body["reply"])

	code, body = h.json(http.MethodGet, "/api/v1/user/status", "alice", nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, 1.0, body["devices"])

	code, body = h.json(http.MethodGet, "/api/v1/health", "", nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "ok", body["status"])
	events, ok := body["events"].(map[string]interface{})
	require.True(t, ok, "health reports event counts")
	assert.Equal(t, 1.0, events["device.claimed"])
	assert.Equal(t, 1.0, events["device.online"])
	assert.Equal(t, 1.0, events["streak.claimed"])
}

func TestServer_ErrorMapping(t *testing.T) {
	h := newHarness(t, "")

	code, body := h.json(http.MethodGet, "/api/v1/devices", "", nil)
	assert.Equal(t, http.StatusUnauthorized, code)
	assert.Equal(t, "authentication", body["type"])

	code, body = h.json(http.MethodPost, "/api/v1/devices/claim", "alice", map[string]string{"device_id": "nope", "token": "x"})
	assert.Equal(t, http.StatusNotFound, code)
	assert.NotEmpty(t, body["request_id"])

	code, _ = h.json(http.MethodPost, "/api/v1/devices/claim", "alice", map[string]string{"device_id": "pot-1", "token": "wrong"})
	assert.Equal(t, http.StatusUnauthorized, code)

	code, _ = h.json(http.MethodPost, "/api/v1/devices/claim", "alice", map[string]string{"device_id": "pot-1"})
	assert.Equal(t, http.StatusBadRequest, code)

	code, _ = h.json(http.MethodPost, "/api/v1/devices/claim", "alice", map[string]string{"device_id": "pot-1", "token": "secret-1"})
	require.Equal(t, http.StatusCreated, code)
	code, body = h.json(http.MethodPost, "/api/v1/devices/claim", "bob", map[string]string{"device_id": "pot-1", "token": "secret-1"})
	assert.Equal(t, http.StatusConflict, code)
	assert.Equal(t, "conflict", body["type"])

	code, _ = h.uploadPhoto("bob", "pot-1", 1)
	assert.Equal(t, http.StatusForbidden, code)
	code, _ = h.uploadPhoto("alice", "pot-1", 99)
	assert.Equal(t, http.StatusNotFound, code)

	code, _ = h.json(http.MethodGet, "/api/v1/health/history", "alice", nil)
	assert.Equal(t, http.StatusBadRequest, code, "missing device_id")
	code, _ = h.json(http.MethodGet, "/api/v1/health/history?device_id=pot-1", "alice", nil)
	assert.Equal(t, http.StatusNotFound, code, "not synced yet")

	code, _ = h.json(http.MethodGet, "/api/v1/plants?q=monstera&limit=abc", "alice", nil)
	assert.Equal(t, http.StatusBadRequest, code)

	code, _ = h.json(http.MethodPost, "/api/v1/device/online", "", map[string]string{"device_id": "pot-1", "claim_token": "secret-1"})
	require.Equal(t, http.StatusOK, code)
	_, _ = h.uploadPhoto("alice", "pot-1", 1)
	code, _ = h.json(http.MethodPost, "/api/v1/device/online", "", map[string]string{"device_id": "pot-1", "claim_token": "secret-1"})
	require.Equal(t, http.StatusOK, code)

	code, body = h.json(http.MethodPost, "/api/v1/chat", "alice", map[string]string{"device_id": "pot-1", "text": "hi"})
	assert.Equal(t, http.StatusBadGateway, code)
	assert.Equal(t, "brain offline", body["message"])
	assert.Equal(t, "service_unavailable", body["type"])
}

func TestServer_PlantSearchAndTutorialFlags(t *testing.T) {
	h := newHarness(t, "")

	code, raw := h.do(http.MethodGet, "/api/v1/plants?q=cheese", "alice", nil, "")
	require.Equal(t, http.StatusOK, code)
	var plants []map[string]interface{}
	require.NoError(t, json.Unmarshal(raw, &plants))
	require.Len(t, plants, 1)
	assert.Equal(t, "Monstera deliciosa", plants[0]["scientific_name"])

	code, raw = h.do(http.MethodGet, "/api/v1/plants", "alice", nil, "")
	require.Equal(t, http.StatusOK, code)
	assert.JSONEq(t, `[]`, string(raw))

	code, body := h.json(http.MethodGet, "/api/v1/tutorial-flags?device_id=pot-1", "alice", nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, true, body["tutorial_onboarding_seen"])
	assert.Equal(t, true, body["tutorial_onboarding_eligible"])

	code, _ = h.json(http.MethodPost, "/api/v1/devices/claim", "alice", map[string]string{"device_id": "pot-1", "token": "secret-1"})
	require.Equal(t, http.StatusCreated, code)

	code, body = h.json(http.MethodPost, "/api/v1/tutorial-flags", "alice", map[string]interface{}{"device_id": "pot-1", "tutorial_onboarding_seen": true})
	require.Equal(t, http.StatusOK, code, body)
	assert.Equal(t, true, body["success"])

	code, body = h.json(http.MethodGet, "/api/v1/tutorial-flags?device_id=pot-1", "alice", nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, true, body["tutorial_onboarding_seen"])
	assert.Equal(t, true, body["tutorial_onboarding_eligible"])
}

func TestServer_SwaggerDoc(t *testing.T) {
	h := newHarness(t, "")

	code, raw := h.do(http.MethodGet, "/swagger/doc.json", "", nil, "")
	require.Equal(t, http.StatusOK, code)
	var doc map[string]interface{}
	require.NoError(t, json.Unmarshal(raw, &doc))
	assert.Equal(t, "2.0", doc["swagger"])
	assert.Contains(t, doc["paths"], "/health/claim-streak")
}
