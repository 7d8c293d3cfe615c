package model

import "errors"

// ErrUnauthenticated is returned when an operation that needs a viewer is
// handed the zero Identity.  The HTTP layer is expected to reject such
// requests before they reach a resolver, so seeing this error usually
// means a route was registered without the viewer middleware.
var ErrUnauthenticated = errors.New("unauthenticated")

// IdentityKind tags which variant an Identity holds.
type IdentityKind uint8

const (
	// IdentityNone is the zero kind; no viewer is known.
	IdentityNone IdentityKind = iota
	// IdentityUser marks an account-backed viewer.
	IdentityUser
	// IdentityAnonymous marks a viewer known only by a signed anonymous id.
	IdentityAnonymous
)

func (k IdentityKind) String() string {
	switch k {
	case IdentityUser:
		return "user"
	case IdentityAnonymous:
		return "anonymous"
	}
	return "none"
}

// Identity is a viewer: either a User(id) or an Anonymous(id).  The fields
// are unexported so that a value can only be built through UserIdentity or
// AnonymousIdentity, which makes "both set" unrepresentable.  The zero value
// means "nobody".
type Identity struct {
	kind IdentityKind
	id   string
}

// UserIdentity returns a user viewer.  An empty id yields the zero Identity.
func UserIdentity(id string) Identity {
	if id == "" {
		return Identity{}
	}
	return Identity{kind: IdentityUser, id: id}
}

// AnonymousIdentity returns an anonymous viewer.  An empty id yields the
// zero Identity.
func AnonymousIdentity(id string) Identity {
	if id == "" {
		return Identity{}
	}
	return Identity{kind: IdentityAnonymous, id: id}
}

// Kind reports the variant.
func (i Identity) Kind() IdentityKind { return i.kind }

// ID returns the raw id regardless of variant.
func (i Identity) ID() string { return i.id }

// IsZero reports whether no viewer is known.
func (i Identity) IsZero() bool { return i.kind == IdentityNone }

// UserID returns the user id when the identity is a user.
func (i Identity) UserID() (string, bool) {
	if i.kind != IdentityUser {
		return "", false
	}
	return i.id, true
}

// AnonymousID returns the anonymous id when the identity is anonymous.
func (i Identity) AnonymousID() (string, bool) {
	if i.kind != IdentityAnonymous {
		return "", false
	}
	return i.id, true
}

// Require returns ErrUnauthenticated for the zero identity.
func (i Identity) Require() error {
	if i.IsZero() {
		return ErrUnauthenticated
	}
	return nil
}
