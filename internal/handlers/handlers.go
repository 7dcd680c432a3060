// Package handlers implements the Enterprise POS JSON API.
package handlers

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/CP-S-Enterprise-for-technology-s/RockDeals-POS-System/auth"
	"github.com/CP-S-Enterprise-for-technology-s/RockDeals-POS-System/gate"
	"github.com/CP-S-Enterprise-for-technology-s/RockDeals-POS-System/httpx"
	"github.com/CP-S-Enterprise-for-technology-s/RockDeals-POS-System/internal/models"
)

// ResourceAccount is the gate resource for editing a user record. It matches
// policy.ResourceAccount.
const ResourceAccount = "account"

// Authorizer is the part of policy.AuthGate the handlers need.
type Authorizer interface {
	Authorize(ctx context.Context, action gate.Action, resourceType string, resource any) error
	HasRole(ctx context.Context, role models.Role) bool
	InvalidateUser(userID uuid.UUID)
}

func pathUUID(r *http.Request, name string) (uuid.UUID, error) {
	raw := r.PathValue(name)
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, httpx.Validation("Invalid "+name, map[string]string{name: raw})
	}
	return id, nil
}

func queryUUID(r *http.Request, key string) (*uuid.UUID, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(key))
	if raw == "" {
		return nil, nil
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return nil, httpx.Validation("Invalid "+key, map[string]string{key: raw})
	}
	return &id, nil
}

// queryDate parses a YYYY-MM-DD query parameter in local time.
func queryDate(r *http.Request, key string) (*time.Time, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(key))
	if raw == "" {
		return nil, nil
	}
	t, err := time.ParseInLocation("2006-01-02", raw, time.Local)
	if err != nil {
		return nil, httpx.Validation("Invalid "+key+", expected YYYY-MM-DD", map[string]string{key: raw})
	}
	return &t, nil
}

// currentUser loads the authenticated user.
func currentUser(ctx context.Context, conn *gorm.DB) (*models.User, error) {
	uid, ok := auth.UserIDFromContext(ctx)
	if !ok {
		return nil, httpx.Unauthorized("")
	}
	var u models.User
	err := conn.WithContext(ctx).First(&u, "id = ?", uid).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, httpx.Unauthorized("User not found or inactive")
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// likePattern builds a case-insensitive LIKE pattern; callers compare against
// LOWER(column).
func likePattern(q string) string {
	return "%" + strings.ToLower(strings.TrimSpace(q)) + "%"
}
