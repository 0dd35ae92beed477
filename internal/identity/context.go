// Package identity builds the request-scoped authorization context from a
// verified credential. Verification itself (signature, expiry) happens in the
// auth middleware; this package only inspects claims.
package identity

import (
	"github.com/google/uuid"

	"github.com/bryanpmx/caf-api/internal/model"
	"github.com/bryanpmx/caf-api/pkg/apperror"
)

// FromClaims derives an Identity from a verified claim set. Absent or
// malformed userId/role claims are fatal to the request. Office is required
// for every role whose scope depends on it, which is everyone but admin.
func FromClaims(claims *model.TokenClaims) (model.Identity, error) {
	if claims == nil {
		return model.Identity{}, apperror.Unauthenticated("missing credential claims")
	}

	userID, err := uuid.Parse(claims.UserID)
	if err != nil || userID == uuid.Nil {
		return model.Identity{}, apperror.Unauthenticated("missing or malformed user id claim")
	}

	role := model.Role(claims.Role)
	if !role.Valid() {
		return model.Identity{}, apperror.Unauthenticated("missing or malformed role claim")
	}

	var officeID uuid.UUID
	if claims.OfficeID != "" {
		officeID, err = uuid.Parse(claims.OfficeID)
		if err != nil {
			return model.Identity{}, apperror.Unauthenticated("malformed office id claim")
		}
	}
	if officeID == uuid.Nil && role != model.RoleAdmin {
		return model.Identity{}, apperror.Unauthenticated("missing office id claim")
	}

	var dept model.CaseCategory
	if claims.Department != "" {
		dept = model.CaseCategory(claims.Department)
		if !dept.Valid() {
			return model.Identity{}, apperror.Unauthenticated("malformed department claim")
		}
	}

	return model.Identity{
		UserID:     userID,
		Role:       role,
		OfficeID:   officeID,
		Department: dept,
	}, nil
}
