// FilePath: api/middleware/api.middleware.auth.go
package middleware

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/Nerzal/gocloak/v13"
	"github.com/golang-jwt/jwt/v5"
	"github.com/itsatony/talkingplants/internal/config"
	"github.com/itsatony/talkingplants/internal/errors"
	nuts "github.com/vaudience/go-nuts"
)

type contextKey string

const userContextKey contextKey = "user"

// UserContext is the caller identity attached to authenticated requests
type UserContext struct {
	ID       string `json:"id"`
	Username string `json:"username,omitempty"`
	Email    string `json:"email,omitempty"`
}

// TokenVerifier turns a bearer token into a caller identity
type TokenVerifier interface {
	Verify(ctx context.Context, token string) (*UserContext, error)
}

// JWTVerifier accepts HS256 tokens whose subject is the user id
type JWTVerifier struct {
	secret []byte
	issuer string
}

func NewJWTVerifier(cfg config.JWTConfig) *JWTVerifier {
	return &JWTVerifier{secret: []byte(cfg.Secret), issuer: cfg.Issuer}
}

func (v *JWTVerifier) Verify(ctx context.Context, token string) (*UserContext, error) {
	opts := []jwt.ParserOption{jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()})}
	if v.issuer != "" {
		opts = append(opts, jwt.WithIssuer(v.issuer))
	}

	claims := jwt.MapClaims{}
	if _, err := jwt.ParseWithClaims(token, claims, func(*jwt.Token) (interface{}, error) {
		return v.secret, nil
	}, opts...); err != nil {
		return nil, err
	}

	sub, err := claims.GetSubject()
	if err != nil || sub == "" {
		return nil, fmt.Errorf("token has no subject")
	}
	user := &UserContext{ID: sub}
	if email, ok := claims["email"].(string); ok {
		user.Email = email
	}
	if name, ok := claims["preferred_username"].(string); ok {
		user.Username = name
	}
	return user, nil
}

// KeycloakVerifier introspects tokens against a Keycloak realm
type KeycloakVerifier struct {
	client *gocloak.GoCloak
	config config.KeycloakConfig
}

func NewKeycloakVerifier(cfg config.KeycloakConfig) *KeycloakVerifier {
	return &KeycloakVerifier{
		client: gocloak.NewClient(cfg.URL),
		config: cfg,
	}
}

func (k *KeycloakVerifier) Verify(ctx context.Context, token string) (*UserContext, error) {
	result, err := k.client.RetrospectToken(ctx, token, k.config.ClientID, k.config.ClientSecret, k.config.Realm)
	if err != nil {
		return nil, err
	}
	if result.Active == nil || !*result.Active {
		return nil, fmt.Errorf("token is not active")
	}

	info, err := k.client.GetUserInfo(ctx, token, k.config.Realm)
	if err != nil {
		return nil, fmt.Errorf("failed to get user info: %w", err)
	}
	if info.Sub == nil || *info.Sub == "" {
		return nil, fmt.Errorf("user info has no subject")
	}
	return &UserContext{
		ID:       *info.Sub,
		Username: gocloak.PString(info.PreferredUsername),
		Email:    gocloak.PString(info.Email),
	}, nil
}

// NewVerifier picks the verifier for the configured auth mode
func NewVerifier(cfg config.AuthConfig) (TokenVerifier, error) {
	switch cfg.Mode {
	case config.AuthModeJWT:
		return NewJWTVerifier(cfg.JWT), nil
	case config.AuthModeKeycloak:
		return NewKeycloakVerifier(cfg.Keycloak), nil
	default:
		return nil, fmt.Errorf("unsupported auth mode %q", cfg.Mode)
	}
}

type AuthMiddleware struct {
	verifier TokenVerifier
}

func NewAuthMiddleware(verifier TokenVerifier) *AuthMiddleware {
	return &AuthMiddleware{verifier: verifier}
}

// Authenticate validates the bearer token and adds the caller to the request context
func (a *AuthMiddleware) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := extractToken(r)
		if token == "" {
			handleError(w, errors.NewAuthError("no token provided", nil))
			return
		}

		user, err := a.verifier.Verify(r.Context(), token)
		if err != nil {
			handleError(w, errors.NewAuthError("invalid token", err))
			return
		}

		next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), user)))
	})
}

// WithUser stores the caller identity in ctx
func WithUser(ctx context.Context, user *UserContext) context.Context {
	return context.WithValue(ctx, userContextKey, user)
}

// UserFromContext returns the identity set by Authenticate
func UserFromContext(ctx context.Context) (*UserContext, bool) {
	user, ok := ctx.Value(userContextKey).(*UserContext)
	return user, ok && user != nil
}

func extractToken(r *http.Request) string {
	parts := strings.Fields(r.Header.Get("Authorization"))
	if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
		return parts[1]
	}
	return ""
}

func handleError(w http.ResponseWriter, apiErr *errors.APIError) {
	apiErr.WithRequestID(nuts.NID("req", 12))
	nuts.L.Warnf("[Auth] %s", apiErr.Error())
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(apiErr.Code)
	_ = json.NewEncoder(w).Encode(apiErr)
}
