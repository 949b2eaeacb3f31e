package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/itsatony/talkingplants/internal/config"
	"github.com/itsatony/talkingplants/internal/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const secret = "test-secret"

func sign(t *testing.T, method jwt.SigningMethod, key interface{}, claims jwt.MapClaims) string {
	t.Helper()
	s, err := jwt.NewWithClaims(method, claims).SignedString(key)
	require.NoError(t, err)
	return s
}

func protected(v TokenVerifier) http.Handler {
	return NewAuthMiddleware(v).Authenticate(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, ok := UserFromContext(r.Context())
		if !ok {
			w.WriteHeader(http.StatusTeapot)
			return
		}
		_, _ = w.Write([]byte(user.ID))
	}))
}

func call(h http.Handler, authHeader string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/api/v1/devices", nil)
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestAuthenticate_ValidToken(t *testing.T) {
	h := protected(NewJWTVerifier(config.JWTConfig{Secret: secret}))
	token := sign(t, jwt.SigningMethodHS256, []byte(secret), jwt.MapClaims{
		"sub": "user-42",
		"exp": time.Now().Add(time.Hour).Unix(),
	})

	rec := call(h, "Bearer "+token)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "user-42", rec.Body.String())
}

func TestAuthenticate_Rejects(t *testing.T) {
	v := NewJWTVerifier(config.JWTConfig{Secret: secret, Issuer: "talkingplants"})
	h := protected(v)
	future := time.Now().Add(time.Hour).Unix()

	cases := map[string]string{
		"missing header": "",
		"not bearer":     "Basic abc",
		"garbage":        "Bearer not-a-jwt",
		"wrong secret": "Bearer " + sign(t, jwt.SigningMethodHS256, []byte("other"), jwt.MapClaims{
			"sub": "u", "iss": "talkingplants", "exp": future,
		}),
		"expired": "Bearer " + sign(t, jwt.SigningMethodHS256, []byte(secret), jwt.MapClaims{
			"sub": "u", "iss": "talkingplants", "exp": time.Now().Add(-time.Minute).Unix(),
		}),
		"wrong issuer": "Bearer " + sign(t, jwt.SigningMethodHS256, []byte(secret), jwt.MapClaims{
			"sub": "u", "iss": "elsewhere", "exp": future,
		}),
		"no subject": "Bearer " + sign(t, jwt.SigningMethodHS256, []byte(secret), jwt.MapClaims{
			"iss": "talkingplants", "exp": future,
		}),
		"wrong algorithm": "Bearer " + sign(t, jwt.SigningMethodHS512, []byte(secret), jwt.MapClaims{
			"sub": "u", "iss": "talkingplants", "exp": future,
		}),
	}

	for name, header := range cases {
		t.Run(name, func(t *testing.T) {
			rec := call(h, header)
			require.Equal(t, http.StatusUnauthorized, rec.Code)
			var body errors.APIError
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.Equal(t, errors.ErrorTypeAuth, body.Type)
			assert.NotEmpty(t, body.RequestID)
		})
	}
}

func TestJWTVerifier_OptionalClaims(t *testing.T) {
	v := NewJWTVerifier(config.JWTConfig{Secret: secret})
	token := sign(t, jwt.SigningMethodHS256, []byte(secret), jwt.MapClaims{
		"sub": "user-1", "email": "a@example.com", "preferred_username": "alice",
	})

	user, err := v.Verify(context.Background(), token)
	require.NoError(t, err)
	assert.Equal(t, &UserContext{ID: "user-1", Username: "alice", Email: "a@example.com"}, user)
}

func TestNewVerifier(t *testing.T) {
	v, err := NewVerifier(config.AuthConfig{Mode: config.AuthModeJWT, JWT: config.JWTConfig{Secret: "k"}})
	require.NoError(t, err)
	assert.IsType(t, &JWTVerifier{}, v)

	v, err = NewVerifier(config.AuthConfig{Mode: config.AuthModeKeycloak, Keycloak: config.KeycloakConfig{URL: "http://kc"}})
	require.NoError(t, err)
	assert.IsType(t, &KeycloakVerifier{}, v)

	_, err = NewVerifier(config.AuthConfig{Mode: "basic"})
	assert.Error(t, err)
}

func TestUserFromContext_Missing(t *testing.T) {
	_, ok := UserFromContext(context.Background())
	assert.False(t, ok)
}
