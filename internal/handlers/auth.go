package handlers

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/CP-S-Enterprise-for-technology-s/RockDeals-POS-System/auth"
	"github.com/CP-S-Enterprise-for-technology-s/RockDeals-POS-System/httpx"
	"github.com/CP-S-Enterprise-for-technology-s/RockDeals-POS-System/internal/cache"
	"github.com/CP-S-Enterprise-for-technology-s/RockDeals-POS-System/internal/db"
	"github.com/CP-S-Enterprise-for-technology-s/RockDeals-POS-System/internal/models"
	"github.com/CP-S-Enterprise-for-technology-s/RockDeals-POS-System/validation"
)

const minPasswordLength = 8

type AuthHandler struct {
	db                 *gorm.DB
	tokens             *auth.TokenManager
	denylist           cache.TokenDenylist
	enableRegistration bool
	log                *zap.Logger
}

func NewAuthHandler(conn *gorm.DB, tokens *auth.TokenManager, denylist cache.TokenDenylist, enableRegistration bool, log *zap.Logger) *AuthHandler {
	return &AuthHandler{db: conn, tokens: tokens, denylist: denylist, enableRegistration: enableRegistration, log: log}
}

type tokenResponse struct {
	AccessToken  string               `json:"access_token"`
	RefreshToken string               `json:"refresh_token"`
	TokenType    string               `json:"token_type"`
	ExpiresIn    int                  `json:"expires_in"`
	User         *models.UserResponse `json:"user,omitempty"`
}

func newTokenResponse(pair auth.TokenPair, user *models.User) tokenResponse {
	out := tokenResponse{
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
		TokenType:    "bearer",
		ExpiresIn:    int(pair.AccessExpiresIn.Seconds()),
	}
	if user != nil {
		resp := user.Response()
		out.User = &resp
	}
	return out
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// Login accepts the OAuth2 password form (username, password) or the same
// fields as JSON. The username may also be the email.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if strings.HasPrefix(r.Header.Get("Content-Type"), "application/json") {
		if err := httpx.DecodeJSON(r, &req); err != nil {
			httpx.WriteError(w, r, err)
			return
		}
	} else {
		if err := r.ParseForm(); err != nil {
			httpx.WriteError(w, r, httpx.Validation("Invalid form body", nil))
			return
		}
		req.Username = r.FormValue("username")
		req.Password = r.FormValue("password")
	}
	req.Username = strings.TrimSpace(req.Username)

	v := validation.Violations{}
	validation.Required("username", req.Username, v)
	validation.Required("password", req.Password, v)
	if !v.Empty() {
		httpx.WriteError(w, r, httpx.Validation("Username and password are required", v))
		return
	}

	var user models.User
	err := h.db.WithContext(r.Context()).
		Where("username = ? OR email = ?", req.Username, strings.ToLower(req.Username)).
		First(&user).Error
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		httpx.WriteError(w, r, err)
		return
	}
	if err != nil || !auth.CheckPassword(user.PasswordHash, req.Password) {
		httpx.WriteError(w, r, httpx.Unauthorized("Invalid username or password"))
		return
	}
	if !user.IsActive {
		httpx.WriteError(w, r, httpx.Unauthorized("Account is deactivated"))
		return
	}

	now := time.Now()
	user.LastLogin = &now
	if err := h.db.WithContext(r.Context()).Model(&user).Update("last_login", now).Error; err != nil {
		httpx.WriteError(w, r, err)
		return
	}

	pair, err := h.tokens.IssuePair(user.ID)
	if err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	h.log.Info("user logged in", zap.String("user_id", user.ID.String()), zap.String("username", user.Username))
	httpx.JSON(w, http.StatusOK, newTokenResponse(pair, &user))
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

// Refresh rotates a refresh token: the old one is revoked and a new pair is
// issued.
func (h *AuthHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	var req refreshRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	claims, err := h.tokens.Parse(req.RefreshToken, auth.TokenTypeRefresh)
	if err != nil {
		httpx.WriteError(w, r, httpx.Unauthorized("Invalid refresh token"))
		return
	}
	revoked, err := h.denylist.IsRevoked(r.Context(), claims.ID)
	if err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	if revoked {
		httpx.WriteError(w, r, httpx.Unauthorized("Refresh token has been revoked"))
		return
	}
	uid, err := claims.UserID()
	if err != nil {
		httpx.WriteError(w, r, httpx.Unauthorized("Invalid refresh token"))
		return
	}
	var user models.User
	if err := h.db.WithContext(r.Context()).First(&user, "id = ?", uid).Error; err != nil || !user.IsActive {
		httpx.WriteError(w, r, httpx.Unauthorized("User not found or inactive"))
		return
	}

	if err := h.denylist.Revoke(r.Context(), claims.ID, claims.ExpiresAt.Time); err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	pair, err := h.tokens.IssuePair(user.ID)
	if err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, newTokenResponse(pair, nil))
}

// Logout revokes the refresh token when one is supplied. Access tokens stay
// valid until they expire.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	var req refreshRequest
	if r.ContentLength > 0 {
		if err := httpx.DecodeJSON(r, &req); err != nil {
			httpx.WriteError(w, r, err)
			return
		}
	}
	if req.RefreshToken != "" {
		if claims, err := h.tokens.Parse(req.RefreshToken, auth.TokenTypeRefresh); err == nil {
			if err := h.denylist.Revoke(r.Context(), claims.ID, claims.ExpiresAt.Time); err != nil {
				httpx.WriteError(w, r, err)
				return
			}
		}
	}
	httpx.Message(w, http.StatusOK, "Successfully logged out")
}

type registerRequest struct {
	Username  string `json:"username"`
	Email     string `json:"email"`
	Password  string `json:"password"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	if !h.enableRegistration {
		httpx.WriteError(w, r, httpx.Forbidden("Registration is disabled"))
		return
	}
	var req registerRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	req.Username = strings.TrimSpace(req.Username)
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))

	v := validation.Violations{}
	validation.Length("username", req.Username, 3, 50, v)
	validation.Email("email", req.Email, v)
	validation.Length("password", req.Password, minPasswordLength, 128, v)
	if !v.Empty() {
		httpx.WriteError(w, r, httpx.Validation("Invalid registration data", v))
		return
	}

	var count int64
	h.db.WithContext(r.Context()).Model(&models.User{}).Where("username = ?", req.Username).Count(&count)
	if count > 0 {
		httpx.WriteError(w, r, httpx.Validation("Username already registered", map[string]string{"username": "taken"}))
		return
	}
	h.db.WithContext(r.Context()).Model(&models.User{}).Where("email = ?", req.Email).Count(&count)
	if count > 0 {
		httpx.WriteError(w, r, httpx.Validation("Email already registered", map[string]string{"email": "taken"}))
		return
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	user := models.User{
		Username:     req.Username,
		Email:        req.Email,
		PasswordHash: hash,
		FirstName:    strings.TrimSpace(req.FirstName),
		LastName:     strings.TrimSpace(req.LastName),
		Role:         models.RoleCashier,
		IsActive:     true,
	}
	if err := h.db.WithContext(r.Context()).Create(&user).Error; err != nil {
		if db.IsUniqueViolation(err) {
			httpx.WriteError(w, r, httpx.Validation("Username or email already registered", nil))
			return
		}
		httpx.WriteError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, user.Response())
}

type passwordChangeRequest struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
}

func (h *AuthHandler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	user, err := currentUser(r.Context(), h.db)
	if err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	var req passwordChangeRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	if !auth.CheckPassword(user.PasswordHash, req.CurrentPassword) {
		httpx.WriteError(w, r, httpx.Validation("Current password is incorrect", nil))
		return
	}
	v := validation.Violations{}
	validation.Length("new_password", req.NewPassword, minPasswordLength, 128, v)
	if !v.Empty() {
		httpx.WriteError(w, r, httpx.Validation("Invalid new password", v))
		return
	}
	hash, err := auth.HashPassword(req.NewPassword)
	if err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	if err := h.db.WithContext(r.Context()).Model(user).Update("password_hash", hash).Error; err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	httpx.Message(w, http.StatusOK, "Password changed successfully")
}

type resetRequest struct {
	Email string `json:"email"`
}

// RequestPasswordReset never reveals whether the email is registered.
// Delivering the token is left to an external mailer reading the logs.
func (h *AuthHandler) RequestPasswordReset(w http.ResponseWriter, r *http.Request) {
	var req resetRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	email := strings.ToLower(strings.TrimSpace(req.Email))
	var user models.User
	err := h.db.WithContext(r.Context()).Where("email = ?", email).First(&user).Error
	if err == nil {
		token, err := auth.GenerateSecureToken(32)
		if err != nil {
			httpx.WriteError(w, r, err)
			return
		}
		h.log.Info("password reset requested",
			zap.String("user_id", user.ID.String()), zap.String("reset_token", token))
	}
	httpx.Message(w, http.StatusOK, "If the email exists, a password reset link has been sent")
}

func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	user, err := currentUser(r.Context(), h.db)
	if err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, user.Response())
}
