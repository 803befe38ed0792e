package web

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"docflow/internal/core"

	"github.com/golang-jwt/jwt/v5"
)

const authCookie = "auth_token"

type callerKey struct{}

// callerFromContext returns the caller stored in ctx by RequireAuth.
func callerFromContext(ctx context.Context) (core.Caller, bool) {
	c, ok := ctx.Value(callerKey{}).(core.Caller)
	return c, ok
}

// jwtClaims is the JWT payload. The subject is the user id.
type jwtClaims struct {
	Name string `json:"name,omitempty"`
	Role string `json:"role,omitempty"`
	jwt.RegisteredClaims
}

// IssueToken signs an HS256 session token for caller. Sessions are normally
// issued by the identity provider sharing the secret; this is used by tooling
// and tests.
func IssueToken(secret string, caller core.Caller, ttl time.Duration) (string, error) {
	if caller.UserID == "" {
		return "", errors.New("caller has no user id")
	}
	now := time.Now()
	claims := &jwtClaims{
		Name: caller.Name,
		Role: caller.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   caller.UserID,
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

// parseCaller validates a token and returns the caller it names.
func parseCaller(secret, raw string) (core.Caller, error) {
	claims := &jwtClaims{}
	token, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return []byte(secret), nil
	})
	if err != nil || !token.Valid {
		return core.Caller{}, errors.New("invalid or expired token")
	}
	if claims.Subject == "" {
		return core.Caller{}, errors.New("token has no subject")
	}
	return core.Caller{UserID: claims.Subject, Name: claims.Name, Role: claims.Role}, nil
}

// tokenFromRequest reads a bearer token, falling back to the auth_token cookie.
func tokenFromRequest(r *http.Request) string {
	if h := r.Header.Get("Authorization"); h != "" {
		if scheme, tok, ok := strings.Cut(h, " "); ok && strings.EqualFold(scheme, "Bearer") {
			return strings.TrimSpace(tok)
		}
	}
	if c, err := r.Cookie(authCookie); err == nil {
		return c.Value
	}
	return ""
}

// RequireAuth validates the session token and injects the caller into the
// request context. Returns 401 if the token is absent or invalid.
func (h *Handler) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw := tokenFromRequest(r)
		if raw == "" {
			writeError(w, r, "authentication required", "UNAUTHORIZED", http.StatusUnauthorized)
			return
		}
		caller, err := parseCaller(h.jwtSecret, raw)
		if err != nil {
			writeError(w, r, err.Error(), "UNAUTHORIZED", http.StatusUnauthorized)
			return
		}
		noteCaller(r.Context(), caller.UserID)
		ctx := context.WithValue(r.Context(), callerKey{}, caller)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// logout handles POST /api/auth/logout and clears the auth cookie.
func (h *Handler) logout(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     authCookie,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteStrictMode,
		MaxAge:   -1,
	})
	w.WriteHeader(http.StatusNoContent)
}

// me handles GET /api/auth/me and echoes the session's caller.
func (h *Handler) me(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerFromContext(r.Context())
	if !ok {
		writeError(w, r, "not authenticated", "UNAUTHORIZED", http.StatusUnauthorized)
		return
	}
	writeJSON(w, caller)
}

// mustCaller is used by handlers mounted behind RequireAuth.
func mustCaller(r *http.Request) core.Caller {
	c, _ := callerFromContext(r.Context())
	return c
}
