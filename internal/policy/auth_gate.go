package policy

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/CP-S-Enterprise-for-technology-s/RockDeals-POS-System/auth"
	"github.com/CP-S-Enterprise-for-technology-s/RockDeals-POS-System/gate"
	"github.com/CP-S-Enterprise-for-technology-s/RockDeals-POS-System/httpx"
	"github.com/CP-S-Enterprise-for-technology-s/RockDeals-POS-System/internal/models"
)

// AuthGate holds the configured HybridGate with caching.
// Use this as a central authorization point in your application.
type AuthGate struct {
	Gate          *gate.HybridGate[uuid.UUID]
	CacheResolver *gate.CachedResolver[uuid.UUID]
}

// NewAuthGate creates a gate that resolves roles from the database and caches
// them for cacheTTL.
func NewAuthGate(db *gorm.DB, cacheTTL time.Duration) *AuthGate {
	cached := gate.NewCachedResolver[uuid.UUID](NewDBRoleResolver(db), cacheTTL)
	ag := &AuthGate{
		Gate:          gate.NewHybridGate[uuid.UUID](cached),
		CacheResolver: cached,
	}
	ag.RegisterPolicy(ResourceAccount, NewAccountPolicy(cached))
	return ag
}

// RegisterPolicy adds a resource policy.
func (ag *AuthGate) RegisterPolicy(resourceType string, p gate.Policy[uuid.UUID]) {
	ag.Gate.Register(resourceType, p)
}

// Authorize checks whether the current user can perform action on resource.
// Errors are *httpx.AppError values ready to be written.
func (ag *AuthGate) Authorize(ctx context.Context, action gate.Action, resourceType string, resource any) error {
	userID, _ := auth.UserIDFromContext(ctx)
	return toAppError(ag.Gate.Authorize(ctx, userID, action, resourceType, resource))
}

func (ag *AuthGate) Can(ctx context.Context, action gate.Action, resourceType string, resource any) bool {
	return ag.Authorize(ctx, action, resourceType, resource) == nil
}

// CanProfile checks only the role permission.
func (ag *AuthGate) CanProfile(ctx context.Context, action gate.Action, resourceType string) bool {
	userID, ok := auth.UserIDFromContext(ctx)
	if !ok {
		return false
	}
	return ag.Gate.CanProfile(ctx, userID, action, resourceType)
}

// HasRole reports whether the current user's role is at least role.
func (ag *AuthGate) HasRole(ctx context.Context, role models.Role) bool {
	userID, ok := auth.UserIDFromContext(ctx)
	if !ok {
		return false
	}
	return ag.Gate.AtLeast(ctx, userID, role.Rank())
}

// InvalidateUser clears the cached role of a user. Call it when the user's
// role or active status changes.
func (ag *AuthGate) InvalidateUser(userID uuid.UUID) {
	ag.CacheResolver.Invalidate(userID)
}

// RequirePermission returns middleware that checks the role permission.
func (ag *AuthGate) RequirePermission(resourceType string, action gate.Action) func(http.Handler) http.Handler {
	perm := gate.NewPermission(resourceType, action)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userID, _ := auth.UserIDFromContext(r.Context())
			err := ag.Gate.Authorize(r.Context(), userID, action, resourceType, nil)
			if errors.Is(err, gate.ErrForbidden) {
				httpx.WriteError(w, r, httpx.Forbidden(fmt.Sprintf("Permission '%s' required", perm)))
				return
			}
			if err != nil {
				httpx.WriteError(w, r, toAppError(err))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireRole returns middleware allowing role and everything above it.
func (ag *AuthGate) RequireRole(role models.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if _, ok := auth.UserIDFromContext(r.Context()); !ok {
				httpx.WriteError(w, r, httpx.Unauthorized(""))
				return
			}
			if !ag.HasRole(r.Context(), role) {
				httpx.WriteError(w, r, httpx.Forbidden(fmt.Sprintf("Role '%s' or higher required", role)))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func toAppError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gate.ErrUnauthenticated):
		return httpx.Unauthorized("")
	case errors.Is(err, gate.ErrForbidden):
		return httpx.Forbidden("")
	}
	return err
}
