package auth

import (
	"context"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/CP-S-Enterprise-for-technology-s/RockDeals-POS-System/httpx"
)

type ctxKey string

const (
	userIDCtxKey = ctxKey("userID")
	claimsCtxKey = ctxKey("claims")
)

// UserVerifier is an optional callback validating that a token's user still
// exists and is active. Set it during bootstrap via SetUserVerifier.
type UserVerifier func(ctx context.Context, uid uuid.UUID) bool

var verifier UserVerifier

// SetUserVerifier configures the global verifier used by RequireAuth.
func SetUserVerifier(v UserVerifier) { verifier = v }

// WithUserID stores user id in context.
func WithUserID(ctx context.Context, userID uuid.UUID) context.Context {
	return context.WithValue(ctx, userIDCtxKey, userID)
}

// UserIDFromContext extracts user id.
func UserIDFromContext(ctx context.Context) (uuid.UUID, bool) {
	id, ok := ctx.Value(userIDCtxKey).(uuid.UUID)
	if !ok || id == uuid.Nil {
		return uuid.Nil, false
	}
	return id, true
}

// ClaimsFromContext returns the access token claims attached by Middleware.
func ClaimsFromContext(ctx context.Context) (*Claims, bool) {
	c, ok := ctx.Value(claimsCtxKey).(*Claims)
	return c, ok
}

// BearerToken extracts the token from "Authorization: Bearer <token>".
func BearerToken(r *http.Request) string {
	h := r.Header.Get("Authorization")
	scheme, token, ok := strings.Cut(h, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}

// Middleware attaches the user id to the request context when a valid access
// token is present. Invalid tokens are ignored here; RequireAuth rejects them.
func (m *TokenManager) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if raw := BearerToken(r); raw != "" {
			if claims, err := m.Parse(raw, TokenTypeAccess); err == nil {
				if uid, err := uuid.Parse(claims.Subject); err == nil {
					ctx := WithUserID(r.Context(), uid)
					ctx = context.WithValue(ctx, claimsCtxKey, claims)
					r = r.WithContext(ctx)
				}
			}
		}
		next.ServeHTTP(w, r)
	})
}

// RequireAuth returns 401 unless the request carries a valid access token for
// a user accepted by the verifier.
func RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		uid, ok := UserIDFromContext(r.Context())
		if !ok {
			w.Header().Set("WWW-Authenticate", "Bearer")
			httpx.WriteError(w, r, httpx.Unauthorized("Could not validate credentials"))
			return
		}
		if verifier != nil && !verifier(r.Context(), uid) {
			w.Header().Set("WWW-Authenticate", "Bearer")
			httpx.WriteError(w, r, httpx.Unauthorized("User not found or inactive"))
			return
		}
		next.ServeHTTP(w, r)
	})
}
