// Package token implements the signed tokens handed to browsers and to the
// video server.  A token is
//
//	base64url(JSON(payload)) + "." + base64url(HMAC-SHA256(secret, encodedPayload))
//
// with no padding and no header segment: the secret and algorithm are fixed
// per token class and chosen by whichever verifier the caller invokes.  The
// MAC covers the encoded payload string, so verification never needs to
// re-serialise JSON.
package token

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"strings"
	"time"
)

var (
	// ErrInvalidFormat means the token is not two non-empty dot-separated
	// segments, or its payload does not decode.
	ErrInvalidFormat = errors.New("token: invalid format")
	// ErrInvalidSignature means the MAC does not match the payload.
	ErrInvalidSignature = errors.New("token: invalid signature")
	// ErrExpired means the payload's exp/expiresAt is not in the future.
	ErrExpired = errors.New("token: expired")
)

var b64 = base64.RawURLEncoding

// Codec signs and verifies tokens under a single secret.  It holds no
// mutable state and is safe for concurrent use.
type Codec struct {
	secret []byte
	now    func() time.Time
}

// NewCodec returns a Codec for secret.  An empty secret is rejected since it
// would let anyone mint tokens.
func NewCodec(secret string) (*Codec, error) {
	if secret == "" {
		return nil, errors.New("token: secret must not be empty")
	}
	return &Codec{secret: []byte(secret), now: time.Now}, nil
}

// Sign serialises payload and appends its MAC.
func (c *Codec) Sign(payload any) (string, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return "", err
	}
	encoded := b64.EncodeToString(raw)
	return encoded + "." + c.mac(encoded), nil
}

// Verify checks the MAC and expiry of tok and decodes its payload into dst.
// The signature is checked before anything in the payload is parsed.
func (c *Codec) Verify(tok string, dst any) error {
	parts := strings.Split(tok, ".")
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return ErrInvalidFormat
	}
	if !hmac.Equal([]byte(c.mac(parts[0])), []byte(parts[1])) {
		return ErrInvalidSignature
	}
	raw, err := b64.DecodeString(parts[0])
	if err != nil {
		return ErrInvalidFormat
	}
	var stamps struct {
		Exp       *json.Number `json:"exp"`
		ExpiresAt *json.Number `json:"expiresAt"`
	}
	if err := json.Unmarshal(raw, &stamps); err != nil {
		return ErrInvalidFormat
	}
	now := c.now().Unix()
	for _, n := range []*json.Number{stamps.Exp, stamps.ExpiresAt} {
		if n == nil {
			continue
		}
		at, err := n.Int64()
		if err != nil {
			return ErrInvalidFormat
		}
		if at <= now {
			return ErrExpired
		}
	}
	if dst == nil {
		return nil
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return ErrInvalidFormat
	}
	return nil
}

func (c *Codec) mac(encoded string) string {
	h := hmac.New(sha256.New, c.secret)
	h.Write([]byte(encoded))
	return b64.EncodeToString(h.Sum(nil))
}

// Reason maps a verification error to a short label for metrics and logs.
func Reason(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ErrInvalidFormat):
		return "invalid_format"
	case errors.Is(err, ErrInvalidSignature):
		return "invalid_signature"
	case errors.Is(err, ErrExpired):
		return "expired"
	}
	return "error"
}
