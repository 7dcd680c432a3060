package gate

import "errors"

// Sentinel errors returned by HybridGate.Authorize.
var (
	// ErrUnauthenticated is returned for a zero-value subject.
	ErrUnauthenticated = errors.New("unauthenticated")
	// ErrForbidden is returned when the subject is known but not allowed.
	ErrForbidden = errors.New("forbidden")
)
