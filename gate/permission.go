package gate

import "strings"

// Permission is an allowed action on a resource type, formatted "resource:action"
// (e.g. "products:create", "reports:read").
type Permission string

// Wildcards for super permissions.
const (
	WildcardAll                    = "*"
	PermissionSuperAdmin Permission = "*:*"
)

// NewPermission creates a permission from resource type and action.
func NewPermission(resourceType string, action Action) Permission {
	return Permission(resourceType + ":" + string(action))
}

// Parse splits a permission into resource type and action.
func (p Permission) Parse() (resourceType string, action Action) {
	res, act, ok := strings.Cut(string(p), ":")
	if !ok {
		return "", ""
	}
	return res, Action(act)
}

// Matches reports whether p grants the requested permission.
// "*:*" grants everything, "products:*" every products action and
// "*:read" read access on every resource.
func (p Permission) Matches(requested Permission) bool {
	if p == PermissionSuperAdmin || p == requested {
		return true
	}
	res, act := p.Parse()
	reqRes, reqAct := requested.Parse()
	if res == "" || reqRes == "" {
		return false
	}
	resOK := res == WildcardAll || res == reqRes
	actOK := string(act) == WildcardAll || act == reqAct
	return resOK && actOK
}

// Grant builds the permission list for one resource and several actions.
func Grant(resourceType string, actions ...Action) []Permission {
	out := make([]Permission, 0, len(actions))
	for _, a := range actions {
		out = append(out, NewPermission(resourceType, a))
	}
	return out
}
