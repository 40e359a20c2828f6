package api

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/shaj13/go-guardian/auth"
	"github.com/shaj13/go-guardian/auth/strategies/bearer"
	"github.com/shaj13/go-guardian/store"
	"go.uber.org/zap"
)

// tokenCacheTTL bounds how long a verified token is trusted without re-checking
// its signature and expiry
const tokenCacheTTL = 5 * time.Minute

type contextKey int

const userIDKey contextKey = iota

// ErrMissingSubject is returned for access tokens that do not name a user
var ErrMissingSubject = errors.New("token has no subject")

// Auth authenticates API callers with HS256 signed access tokens
type Auth struct {
	authenticator auth.Authenticator
	strategy      auth.Strategy
	secret        []byte
}

// NewAuth sets up go-guardian with a cached bearer strategy backed by secret
func NewAuth(secret string) *Auth {
	a := &Auth{secret: []byte(secret)}
	cache := store.NewFIFO(context.Background(), tokenCacheTTL)
	a.strategy = bearer.New(a.authenticateToken, cache)
	a.authenticator = auth.New()
	a.authenticator.EnableStrategy(bearer.CachedStrategyKey, a.strategy)
	return a
}

// Middleware rejects requests without a valid bearer token and stores the caller's
// user id in the request context
func (a *Auth) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		user, err := a.authenticator.Authenticate(r)
		if err != nil {
			zap.S().Infow("unauthorized",
				"url", r.URL.Path,
				"error", err)
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"error": "unauthorized"}`))
			return
		}
		zap.S().Debugw("user authenticated", "userId", user.ID())
		next.ServeHTTP(w, r.WithContext(WithUserID(r.Context(), user.ID())))
	})
}

// VerifyToken checks an access token outside of the Authorization header, as
// websocket clients send it in the query string
func (a *Auth) VerifyToken(token string) (string, error) {
	claims := &jwt.RegisteredClaims{}
	_, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		return a.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired())
	if err != nil {
		return "", fmt.Errorf("invalid token: %w", err)
	}
	if claims.Subject == "" {
		return "", ErrMissingSubject
	}
	return claims.Subject, nil
}

// IssueToken signs an access token for userID valid for ttl
func (a *Auth) IssueToken(userID string, ttl time.Duration) (string, error) {
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   userID,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	})
	return token.SignedString(a.secret)
}

func (a *Auth) authenticateToken(_ context.Context, _ *http.Request, token string) (auth.Info, error) {
	userID, err := a.VerifyToken(token)
	if err != nil {
		return nil, err
	}
	return auth.NewDefaultUser(userID, userID, nil, nil), nil
}

// RevokeToken drops the caller's token from the verified token cache
func (a *Auth) RevokeToken(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	reqToken, ok := bearerToken(r)
	if !ok {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error": "missing bearer token"}`))
		return
	}
	if err := auth.Revoke(a.strategy, reqToken, r); err != nil {
		zap.S().Warnw("failed to revoke token", "error", err)
	}
	_ = json.NewEncoder(w).Encode(map[string]bool{"revoked": true})
}

// ServiceKeyMiddleware admits only backend callers presenting key as a bearer
// token or in the X-Service-Key header
func ServiceKeyMiddleware(key string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			presented := r.Header.Get("X-Service-Key")
			if presented == "" {
				presented, _ = bearerToken(r)
			}
			if key == "" || subtle.ConstantTimeCompare([]byte(presented), []byte(key)) != 1 {
				zap.S().Infow("rejected service call", "url", r.URL.Path)
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusUnauthorized)
				_, _ = w.Write([]byte(`{"error": "unauthorized"}`))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// MethodMiddleware answers 405 to any method but method, ahead of any
// credential check further down the chain
func MethodMiddleware(method string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method != method {
				w.Header().Set("Allow", method)
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusMethodNotAllowed)
				_, _ = w.Write([]byte(`{"error": "method not allowed"}`))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// WithUserID returns a copy of ctx carrying the authenticated user id
func WithUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, userIDKey, userID)
}

// UserIDFromContext returns the authenticated user id set by Middleware
func UserIDFromContext(ctx context.Context) (string, bool) {
	userID, ok := ctx.Value(userIDKey).(string)
	return userID, ok && userID != ""
}

func bearerToken(r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")
	const prefix = "Bearer "
	if len(header) <= len(prefix) || !strings.EqualFold(header[:len(prefix)], prefix) {
		return "", false
	}
	return strings.TrimSpace(header[len(prefix):]), true
}
