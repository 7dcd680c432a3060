package policy

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/CP-S-Enterprise-for-technology-s/RockDeals-POS-System/gate"
	"github.com/CP-S-Enterprise-for-technology-s/RockDeals-POS-System/internal/models"
)

// DBRoleResolver maps a user id to the profile of the user's role.
// Missing and inactive users resolve to no profile.
type DBRoleResolver struct {
	DB *gorm.DB
}

func NewDBRoleResolver(db *gorm.DB) *DBRoleResolver {
	return &DBRoleResolver{DB: db}
}

func (r *DBRoleResolver) Resolve(ctx context.Context, userID uuid.UUID) (gate.Profile, error) {
	var user models.User
	err := r.DB.WithContext(ctx).Select("id", "role", "is_active").First(&user, "id = ?", userID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if !user.IsActive {
		return nil, nil
	}
	return ProfileFor(user.Role), nil
}
