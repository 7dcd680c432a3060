// Package gate is a small role/permission authorization library.
//
// A Profile is a named role holding a set of "resource:action" permissions and a
// rank used for hierarchy checks. A ProfileResolver maps a subject (user id, claims,
// ...) to its Profile, and a HybridGate combines the profile check with optional
// per-resource policies such as "users may only edit themselves".
//
// The package has no dependency on domain models; the subject type is a type
// parameter so callers can use uuid.UUID, uint or any other comparable id.
package gate
