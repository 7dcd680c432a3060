package handlers

import (
	"errors"
	"net/http"
	"strings"

	"gorm.io/gorm"

	"github.com/CP-S-Enterprise-for-technology-s/RockDeals-POS-System/auth"
	"github.com/CP-S-Enterprise-for-technology-s/RockDeals-POS-System/gate"
	"github.com/CP-S-Enterprise-for-technology-s/RockDeals-POS-System/httpx"
	"github.com/CP-S-Enterprise-for-technology-s/RockDeals-POS-System/internal/db"
	"github.com/CP-S-Enterprise-for-technology-s/RockDeals-POS-System/internal/models"
	"github.com/CP-S-Enterprise-for-technology-s/RockDeals-POS-System/validation"
)

// UserHandler manages user accounts. Role and status changes invalidate the
// cached role of the user.
type UserHandler struct {
	db   *gorm.DB
	gate Authorizer
}

func NewUserHandler(conn *gorm.DB, g Authorizer) *UserHandler {
	return &UserHandler{db: conn, gate: g}
}

func (h *UserHandler) List(w http.ResponseWriter, r *http.Request) {
	page := httpx.ParsePage(r, 20, 100)
	q := h.db.WithContext(r.Context()).Model(&models.User{})
	if s := r.URL.Query().Get("search"); strings.TrimSpace(s) != "" {
		p := likePattern(s)
		q = q.Where("LOWER(username) LIKE ? OR LOWER(email) LIKE ? OR LOWER(first_name) LIKE ? OR LOWER(last_name) LIKE ?", p, p, p, p)
	}
	if role := r.URL.Query().Get("role"); role != "" {
		q = q.Where("role = ?", role)
	}
	if active := httpx.QueryBool(r, "is_active"); active != nil {
		q = q.Where("is_active = ?", *active)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	var users []models.User
	if err := q.Order("created_at DESC").Offset(page.Offset()).Limit(page.PerPage).Find(&users).Error; err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	items := make([]models.UserResponse, 0, len(users))
	for i := range users {
		items = append(items, users[i].Response())
	}
	httpx.JSON(w, http.StatusOK, httpx.NewPaginated(items, total, page))
}

type createUserRequest struct {
	Username  string      `json:"username"`
	Email     string      `json:"email"`
	Password  string      `json:"password"`
	FirstName string      `json:"first_name"`
	LastName  string      `json:"last_name"`
	Role      models.Role `json:"role"`
	IsActive  *bool       `json:"is_active"`
}

func (h *UserHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createUserRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	req.Username = strings.TrimSpace(req.Username)
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if req.Role == "" {
		req.Role = models.RoleCashier
	}

	v := validation.Violations{}
	validation.Length("username", req.Username, 3, 50, v)
	validation.Email("email", req.Email, v)
	validation.Length("password", req.Password, minPasswordLength, 128, v)
	validation.OneOf("role", string(req.Role), roleNames(), v)
	if !v.Empty() {
		httpx.WriteError(w, r, httpx.Validation("Invalid user data", v))
		return
	}
	if err := h.checkUnique(r, req.Username, req.Email, nil); err != nil {
		httpx.WriteError(w, r, err)
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
		Role:         req.Role,
		IsActive:     req.IsActive == nil || *req.IsActive,
	}
	if err := h.db.WithContext(r.Context()).Create(&user).Error; err != nil {
		if db.IsUniqueViolation(err) {
			httpx.WriteError(w, r, httpx.Conflict("Username or email already exists"))
			return
		}
		httpx.WriteError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, user.Response())
}

func roleNames() []string {
	out := make([]string, 0, len(models.Roles))
	for _, role := range models.Roles {
		out = append(out, string(role))
	}
	return out
}

// checkUnique returns 409 when username or email belong to another user.
func (h *UserHandler) checkUnique(r *http.Request, username, email string, exclude *models.User) error {
	q := func(col, val string) int64 {
		var n int64
		tx := h.db.WithContext(r.Context()).Model(&models.User{}).Where(col+" = ?", val)
		if exclude != nil {
			tx = tx.Where("id <> ?", exclude.ID)
		}
		tx.Count(&n)
		return n
	}
	if username != "" && q("username", username) > 0 {
		return httpx.Conflict("Username already exists")
	}
	if email != "" && q("email", email) > 0 {
		return httpx.Conflict("Email already exists")
	}
	return nil
}

func (h *UserHandler) Me(w http.ResponseWriter, r *http.Request) {
	user, err := currentUser(r.Context(), h.db)
	if err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, user.Response())
}

func (h *UserHandler) load(r *http.Request) (*models.User, error) {
	id, err := pathUUID(r, "id")
	if err != nil {
		return nil, err
	}
	var user models.User
	err = h.db.WithContext(r.Context()).First(&user, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, httpx.NotFound("User", id)
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (h *UserHandler) Get(w http.ResponseWriter, r *http.Request) {
	user, err := h.load(r)
	if err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, user.Response())
}

type updateUserRequest struct {
	Username  *string      `json:"username"`
	Email     *string      `json:"email"`
	Password  *string      `json:"password"`
	FirstName *string      `json:"first_name"`
	LastName  *string      `json:"last_name"`
	AvatarURL *string      `json:"avatar_url"`
	Role      *models.Role `json:"role"`
	IsActive  *bool        `json:"is_active"`
}

// Update applies a partial update. Users may edit themselves; managers may
// edit anyone; only admins change roles.
func (h *UserHandler) Update(w http.ResponseWriter, r *http.Request) {
	user, err := h.load(r)
	if err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	if err := h.gate.Authorize(r.Context(), gate.ActionUpdate, ResourceAccount, user); err != nil {
		httpx.WriteError(w, r, httpx.Forbidden("Not enough permissions to update this user"))
		return
	}
	var req updateUserRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.WriteError(w, r, err)
		return
	}

	updates := map[string]any{}
	v := validation.Violations{}
	var username, email string
	if req.Username != nil {
		username = strings.TrimSpace(*req.Username)
		validation.Length("username", username, 3, 50, v)
		updates["username"] = username
	}
	if req.Email != nil {
		email = strings.ToLower(strings.TrimSpace(*req.Email))
		validation.Email("email", email, v)
		updates["email"] = email
	}
	if req.Password != nil {
		validation.Length("password", *req.Password, minPasswordLength, 128, v)
	}
	if req.FirstName != nil {
		updates["first_name"] = strings.TrimSpace(*req.FirstName)
	}
	if req.LastName != nil {
		updates["last_name"] = strings.TrimSpace(*req.LastName)
	}
	if req.AvatarURL != nil {
		updates["avatar_url"] = *req.AvatarURL
	}
	if req.Role != nil && *req.Role != user.Role {
		if !h.gate.HasRole(r.Context(), models.RoleAdmin) {
			httpx.WriteError(w, r, httpx.Forbidden("Only administrators can change roles"))
			return
		}
		validation.OneOf("role", string(*req.Role), roleNames(), v)
		updates["role"] = *req.Role
	}
	if req.IsActive != nil && *req.IsActive != user.IsActive {
		if !h.gate.HasRole(r.Context(), models.RoleManager) {
			httpx.WriteError(w, r, httpx.Forbidden("Not enough permissions to change account status"))
			return
		}
		updates["is_active"] = *req.IsActive
	}
	if !v.Empty() {
		httpx.WriteError(w, r, httpx.Validation("Invalid user data", v))
		return
	}
	if err := h.checkUnique(r, username, email, user); err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	if req.Password != nil {
		hash, err := auth.HashPassword(*req.Password)
		if err != nil {
			httpx.WriteError(w, r, err)
			return
		}
		updates["password_hash"] = hash
	}

	if len(updates) > 0 {
		if err := h.db.WithContext(r.Context()).Model(user).Updates(updates).Error; err != nil {
			if db.IsUniqueViolation(err) {
				httpx.WriteError(w, r, httpx.Conflict("Username or email already exists"))
				return
			}
			httpx.WriteError(w, r, err)
			return
		}
		h.gate.InvalidateUser(user.ID)
	}
	if err := h.db.WithContext(r.Context()).First(user, "id = ?", user.ID).Error; err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, user.Response())
}

// Delete deactivates the user.
func (h *UserHandler) Delete(w http.ResponseWriter, r *http.Request) {
	user, err := h.load(r)
	if err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	if uid, _ := auth.UserIDFromContext(r.Context()); uid == user.ID {
		httpx.WriteError(w, r, httpx.Validation("Cannot delete your own account", nil))
		return
	}
	if err := h.db.WithContext(r.Context()).Model(user).Update("is_active", false).Error; err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	h.gate.InvalidateUser(user.ID)
	httpx.Message(w, http.StatusOK, "User deactivated successfully")
}
