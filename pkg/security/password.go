package security

import (
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// PasswordHasher abstracts credential hashing so the auth service can be
// tested without paying the bcrypt work factor on every run. Password length
// rules live on the request types, not here.
type PasswordHasher interface {
	Hash(password string) (string, error)
	Compare(hashed, password string) error
}

// BcryptHasher hashes credentials with a work factor taken from
// configuration.
type BcryptHasher struct {
	cost int
}

// NewBcryptHasher builds a hasher with the configured work factor. A factor
// outside bcrypt's supported range is rejected so a misconfigured deployment
// fails at startup instead of silently weakening every stored hash.
func NewBcryptHasher(cost int) (*BcryptHasher, error) {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		return nil, fmt.Errorf("bcrypt cost %d outside supported range [%d, %d]",
			cost, bcrypt.MinCost, bcrypt.MaxCost)
	}
	return &BcryptHasher{cost: cost}, nil
}

func (h *BcryptHasher) Hash(password string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), h.cost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hashed), nil
}

func (h *BcryptHasher) Compare(hashed, password string) error {
	return bcrypt.CompareHashAndPassword([]byte(hashed), []byte(password))
}
