package policy

import (
	"context"

	"github.com/google/uuid"

	"github.com/CP-S-Enterprise-for-technology-s/RockDeals-POS-System/gate"
	"github.com/CP-S-Enterprise-for-technology-s/RockDeals-POS-System/internal/models"
)

// AccountPolicy lets users edit their own account; managers and admins may
// edit anyone's.
type AccountPolicy struct {
	resolver gate.ProfileResolver[uuid.UUID]
}

func NewAccountPolicy(resolver gate.ProfileResolver[uuid.UUID]) *AccountPolicy {
	return &AccountPolicy{resolver: resolver}
}

func (p *AccountPolicy) Can(ctx context.Context, actor uuid.UUID, _ gate.Action, resource any) bool {
	target, ok := resource.(*models.User)
	if !ok {
		return false
	}
	if target.ID == actor {
		return true
	}
	profile, err := p.resolver.Resolve(ctx, actor)
	if err != nil || profile == nil {
		return false
	}
	return profile.Rank() >= models.RoleManager.Rank()
}
