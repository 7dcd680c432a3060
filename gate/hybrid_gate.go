package gate

import "context"

// HybridGate combines profile permissions with resource-specific policies.
// Authorization flow:
//  1. zero subject -> ErrUnauthenticated
//  2. profile must hold resource:action -> else ErrForbidden
//  3. when a policy is registered for the resource type and a resource is given,
//     the policy must allow it -> else ErrForbidden
type HybridGate[U comparable] struct {
	resolver ProfileResolver[U]
	policies map[string]Policy[U]
}

// NewHybridGate creates a gate with the given profile resolver.
func NewHybridGate[U comparable](resolver ProfileResolver[U]) *HybridGate[U] {
	return &HybridGate[U]{
		resolver: resolver,
		policies: make(map[string]Policy[U]),
	}
}

// Register adds a resource-specific policy. It overwrites any existing one.
func (g *HybridGate[U]) Register(resourceType string, p Policy[U]) {
	g.policies[resourceType] = p
}

// Profile resolves the subject's profile.
func (g *HybridGate[U]) Profile(ctx context.Context, user U) (Profile, error) {
	var zero U
	if user == zero {
		return nil, ErrUnauthenticated
	}
	profile, err := g.resolver.Resolve(ctx, user)
	if err != nil {
		return nil, err
	}
	if profile == nil {
		return nil, ErrForbidden
	}
	return profile, nil
}

// Authorize returns nil when user may perform action on resource.
func (g *HybridGate[U]) Authorize(ctx context.Context, user U, action Action, resourceType string, resource any) error {
	profile, err := g.Profile(ctx, user)
	if err != nil {
		return err
	}
	if !profile.HasPermission(NewPermission(resourceType, action)) {
		return ErrForbidden
	}
	if resource != nil {
		if policy, ok := g.policies[resourceType]; ok && !policy.Can(ctx, user, action, resource) {
			return ErrForbidden
		}
	}
	return nil
}

// Can is Authorize as a bool.
func (g *HybridGate[U]) Can(ctx context.Context, user U, action Action, resourceType string, resource any) bool {
	return g.Authorize(ctx, user, action, resourceType, resource) == nil
}

// CanProfile checks only the profile permission, without policies.
func (g *HybridGate[U]) CanProfile(ctx context.Context, user U, action Action, resourceType string) bool {
	profile, err := g.Profile(ctx, user)
	if err != nil {
		return false
	}
	return profile.HasPermission(NewPermission(resourceType, action))
}

// AtLeast reports whether the subject's profile rank is >= rank.
func (g *HybridGate[U]) AtLeast(ctx context.Context, user U, rank int) bool {
	profile, err := g.Profile(ctx, user)
	if err != nil {
		return false
	}
	return profile.Rank() >= rank
}
