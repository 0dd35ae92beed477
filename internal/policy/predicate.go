package policy

import (
	"github.com/google/uuid"

	"github.com/bryanpmx/caf-api/internal/model"
)

// Predicate is the effective scope computed from an Identity for one
// resource kind. It is evaluated two ways that must agree: in-memory via
// Matches for single-resource checks, and as a SQL fragment built by the
// repositories for list queries. A predicate is recomputed per request and
// never cached across requests.
//
// Match semantics: All short-circuits; otherwise the predicate is the OR of
// the client-ownership clause, the office/department scope clause, and the
// assignment-membership clause. List results joined through the assignment
// clause are deduplicated by primary key in the repository.
type Predicate struct {
	// All matches every record. Set only for admin.
	All bool

	// OfficeID scopes to one office. With Category nil the whole office
	// matches (office manager); with Category set both must match (staff
	// department scope).
	OfficeID *uuid.UUID
	Category *model.CaseCategory

	// StaffID matches records the user is primary for, directly assigned
	// to, or a member of the assigned-staff set of. OR-ed with the office
	// scope so cross-department assignments stay visible.
	StaffID *uuid.UUID

	// ClientID matches records owned by the client. Used only on the
	// client portal surface.
	ClientID *uuid.UUID
}

// MatchAll is the unrestricted predicate.
func MatchAll() Predicate {
	return Predicate{All: true}
}

// MatchNone matches no records.
func MatchNone() Predicate {
	return Predicate{}
}

// Matches evaluates the predicate against a single resource's attributes.
func (p Predicate) Matches(m model.ResourceMeta) bool {
	if p.All {
		return true
	}
	if p.ClientID != nil && m.ClientID == *p.ClientID {
		return true
	}
	if p.OfficeID != nil && m.OfficeID == *p.OfficeID {
		if p.Category == nil || m.Category == *p.Category {
			return true
		}
	}
	if p.StaffID != nil && m.IsAssignedTo(*p.StaffID) {
		return true
	}
	return false
}

// Empty reports whether the predicate can never match.
func (p Predicate) Empty() bool {
	return !p.All && p.OfficeID == nil && p.StaffID == nil && p.ClientID == nil
}
