package policy

import (
	"slices"

	"github.com/CP-S-Enterprise-for-technology-s/RockDeals-POS-System/gate"
	"github.com/CP-S-Enterprise-for-technology-s/RockDeals-POS-System/internal/models"
)

// Resource names used in permissions.
const (
	ResourceUsers    = "users"
	ResourceProducts = "products"
	ResourceSales    = "sales"
	ResourceReports  = "reports"
	ResourceSettings = "settings"
	// ResourceAccount is a user record edited by its owner or a manager.
	ResourceAccount = "account"
)

const (
	read   = gate.ActionRead
	create = gate.ActionCreate
	update = gate.ActionUpdate
)

// rolePermissions is the permission matrix. Admin holds *:* on top of it.
var rolePermissions = map[models.Role][]gate.Permission{
	models.RoleAdmin: {
		gate.PermissionSuperAdmin,
	},
	models.RoleManager: slices.Concat(
		gate.Grant(ResourceUsers, read, update),
		gate.Grant(ResourceProducts, create, read, update),
		gate.Grant(ResourceSales, create, read, update),
		gate.Grant(ResourceReports, read),
		gate.Grant(ResourceSettings, read),
		gate.Grant(ResourceAccount, update),
	),
	models.RoleCashier: slices.Concat(
		gate.Grant(ResourceUsers, read),
		gate.Grant(ResourceProducts, read),
		gate.Grant(ResourceSales, create, read),
		gate.Grant(ResourceAccount, update),
	),
	models.RoleViewer: slices.Concat(
		gate.Grant(ResourceProducts, read),
		gate.Grant(ResourceAccount, update),
	),
}

var roleProfiles = buildRoleProfiles()

func buildRoleProfiles() map[models.Role]*gate.StaticProfile {
	out := make(map[models.Role]*gate.StaticProfile, len(rolePermissions))
	for role, perms := range rolePermissions {
		out[role] = gate.NewStaticProfile(string(role), role.Rank(), perms...)
	}
	return out
}

// ProfileFor returns the gate profile of a role, or nil for unknown roles.
func ProfileFor(role models.Role) gate.Profile {
	p, ok := roleProfiles[role]
	if !ok {
		return nil
	}
	return p
}
