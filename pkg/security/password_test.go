package security

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestHashAndCompare(t *testing.T) {
	hasher, err := NewBcryptHasher(bcrypt.MinCost)
	require.NoError(t, err)

	hashed, err := hasher.Hash("correct horse battery")
	require.NoError(t, err)
	assert.NotEqual(t, "correct horse battery", hashed)

	assert.NoError(t, hasher.Compare(hashed, "correct horse battery"))
	assert.Error(t, hasher.Compare(hashed, "wrong password"))
}

func TestNewBcryptHasherRejectsOutOfRangeCost(t *testing.T) {
	_, err := NewBcryptHasher(0)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "outside supported range")

	_, err = NewBcryptHasher(bcrypt.MaxCost + 1)
	assert.Error(t, err)

	_, err = NewBcryptHasher(bcrypt.DefaultCost)
	assert.NoError(t, err)
}
