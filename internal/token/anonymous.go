package token

import (
	"time"

	"github.com/google/uuid"
)

// DefaultAnonymousTTL is how long an anonymous identity token stays valid.
const DefaultAnonymousTTL = 90 * 24 * time.Hour

// AnonymousPayload is the body of an anonymous identity token.  The id is
// what rentals and watch progress are keyed on; the token is only a bearer
// credential for it.
type AnonymousPayload struct {
	ID        string `json:"id"`
	CreatedAt int64  `json:"createdAt"`
	ExpiresAt int64  `json:"expiresAt"`
}

// AnonymousManager issues and checks anonymous identity tokens.  It must be
// built with a secret of its own, never the video or trailer secret.
type AnonymousManager struct {
	codec *Codec
	ttl   time.Duration
}

// NewAnonymousManager returns a manager signing with secret.  A non-positive
// ttl falls back to DefaultAnonymousTTL.
func NewAnonymousManager(secret string, ttl time.Duration) (*AnonymousManager, error) {
	c, err := NewCodec(secret)
	if err != nil {
		return nil, err
	}
	if ttl <= 0 {
		ttl = DefaultAnonymousTTL
	}
	return &AnonymousManager{codec: c, ttl: ttl}, nil
}

// Issue mints a token for a fresh random id.
func (m *AnonymousManager) Issue() (string, AnonymousPayload, error) {
	now := m.codec.now()
	p := AnonymousPayload{
		ID:        uuid.NewString(),
		CreatedAt: now.Unix(),
		ExpiresAt: now.Add(m.ttl).Unix(),
	}
	tok, err := m.codec.Sign(p)
	if err != nil {
		return "", AnonymousPayload{}, err
	}
	return tok, p, nil
}

// Validate reports whether tok verifies.  It never returns an error; use
// ExtractID when the id itself is needed.
func (m *AnonymousManager) Validate(tok string) bool {
	return m.codec.Verify(tok, nil) == nil
}

// ExtractID verifies tok and returns the anonymous id inside it.
func (m *AnonymousManager) ExtractID(tok string) (string, error) {
	var p AnonymousPayload
	if err := m.codec.Verify(tok, &p); err != nil {
		return "", err
	}
	if p.ID == "" {
		return "", ErrInvalidFormat
	}
	return p.ID, nil
}
