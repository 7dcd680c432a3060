package gate

import (
	"context"
	"sort"
	"sync"
)

// Profile represents a role with a set of permissions.
type Profile interface {
	Name() string
	// Rank orders profiles in a hierarchy; a higher rank outranks a lower one.
	Rank() int
	HasPermission(permission Permission) bool
	Permissions() []Permission
}

// ProfileResolver resolves a subject to its profile.
// A nil profile with a nil error means the subject has no profile.
type ProfileResolver[U any] interface {
	Resolve(ctx context.Context, user U) (Profile, error)
}

// ResolverFunc adapts a function to ProfileResolver.
type ResolverFunc[U any] func(ctx context.Context, user U) (Profile, error)

func (f ResolverFunc[U]) Resolve(ctx context.Context, user U) (Profile, error) { return f(ctx, user) }

// StaticProfile is an in-memory profile.
type StaticProfile struct {
	name        string
	rank        int
	permissions map[Permission]bool
}

// NewStaticProfile creates a profile with the given permissions.
func NewStaticProfile(name string, rank int, permissions ...Permission) *StaticProfile {
	p := &StaticProfile{
		name:        name,
		rank:        rank,
		permissions: make(map[Permission]bool, len(permissions)),
	}
	for _, perm := range permissions {
		p.permissions[perm] = true
	}
	return p
}

func (p *StaticProfile) Name() string { return p.name }
func (p *StaticProfile) Rank() int    { return p.rank }

// Permissions returns the permissions sorted alphabetically.
func (p *StaticProfile) Permissions() []Permission {
	perms := make([]Permission, 0, len(p.permissions))
	for perm := range p.permissions {
		perms = append(perms, perm)
	}
	sort.Slice(perms, func(i, j int) bool { return perms[i] < perms[j] })
	return perms
}

// HasPermission checks the requested permission with wildcard matching.
func (p *StaticProfile) HasPermission(requested Permission) bool {
	if p.permissions[requested] {
		return true
	}
	for perm := range p.permissions {
		if perm.Matches(requested) {
			return true
		}
	}
	return false
}

// Outranks reports whether a is at least as high as b in the hierarchy.
func Outranks(a, b Profile) bool {
	if a == nil || b == nil {
		return false
	}
	return a.Rank() >= b.Rank()
}

// StaticResolver is an in-memory resolver, mainly for tests.
type StaticResolver[U comparable] struct {
	mu       sync.RWMutex
	profiles map[U]Profile
}

// NewStaticResolver creates an empty resolver.
func NewStaticResolver[U comparable]() *StaticResolver[U] {
	return &StaticResolver[U]{profiles: make(map[U]Profile)}
}

// Set assigns a profile to a user.
func (r *StaticResolver[U]) Set(user U, profile Profile) {
	r.mu.Lock()
	r.profiles[user] = profile
	r.mu.Unlock()
}

// Resolve returns the profile for the given user, or nil.
func (r *StaticResolver[U]) Resolve(_ context.Context, user U) (Profile, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.profiles[user], nil
}
