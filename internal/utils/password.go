package utils

import (
	"golang.org/x/crypto/bcrypt"

	"github.com/iliyamo/movie-rental/internal/model"
)

// MaxPasswordBytes is the longest password bcrypt hashes without truncation.
const MaxPasswordBytes = 72

// HashPassword hashes an account password for the users table.  cost comes
// from BCRYPT_COST; a value bcrypt would reject falls back to
// bcrypt.DefaultCost.  An over-long password is a ValidationError so that
// registration answers 400.
func HashPassword(plain string, cost int) (string, error) {
	if len(plain) > MaxPasswordBytes {
		return "", &model.ValidationError{Field: "password", Message: "password must be at most 72 bytes"}
	}
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	b, err := bcrypt.GenerateFromPassword([]byte(plain), cost)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// VerifyPassword reports whether plain matches the stored hash.  Login
// treats a mismatch and a malformed hash alike.
func VerifyPassword(hash, plain string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plain)) == nil
}
