package identity

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bryanpmx/caf-api/internal/model"
	"github.com/bryanpmx/caf-api/pkg/apperror"
)

func validClaims() *model.TokenClaims {
	return &model.TokenClaims{
		UserID:     uuid.New().String(),
		Role:       string(model.RoleLawyer),
		OfficeID:   uuid.New().String(),
		Department: string(model.CategoryCivil),
	}
}

func TestFromClaims(t *testing.T) {
	claims := validClaims()
	id, err := FromClaims(claims)
	require.NoError(t, err)
	assert.Equal(t, claims.UserID, id.UserID.String())
	assert.Equal(t, model.RoleLawyer, id.Role)
	assert.Equal(t, claims.OfficeID, id.OfficeID.String())
	assert.Equal(t, model.CategoryCivil, id.Department)
}

func TestFromClaimsAdminWithoutOffice(t *testing.T) {
	claims := &model.TokenClaims{
		UserID: uuid.New().String(),
		Role:   string(model.RoleAdmin),
	}
	id, err := FromClaims(claims)
	require.NoError(t, err)
	assert.Equal(t, uuid.Nil, id.OfficeID)
	assert.False(t, id.HasDepartment())
}

func TestFromClaimsRejections(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*model.TokenClaims)
	}{
		{"missing user id", func(c *model.TokenClaims) { c.UserID = "" }},
		{"malformed user id", func(c *model.TokenClaims) { c.UserID = "not-a-uuid" }},
		{"missing role", func(c *model.TokenClaims) { c.Role = "" }},
		{"unknown role", func(c *model.TokenClaims) { c.Role = "superuser" }},
		{"missing office for staff", func(c *model.TokenClaims) { c.OfficeID = "" }},
		{"malformed office", func(c *model.TokenClaims) { c.OfficeID = "nope" }},
		{"unknown department", func(c *model.TokenClaims) { c.Department = "astrology" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			claims := validClaims()
			tt.mutate(claims)

			_, err := FromClaims(claims)
			require.Error(t, err)
			assert.True(t, apperror.IsCode(err, apperror.CodeUnauthenticated))
		})
	}
}

func TestFromClaimsNil(t *testing.T) {
	_, err := FromClaims(nil)
	require.Error(t, err)
	assert.True(t, apperror.IsCode(err, apperror.CodeUnauthenticated))
}
