// Package policy decides, for every identity and every case, appointment or
// task operation, whether the operation is permitted and which subset of
// records a listing may return. Decisions are pure functions of the identity
// and the resource attributes; nothing here touches the store.
package policy

import (
	"fmt"

	"github.com/bryanpmx/caf-api/internal/model"
	"github.com/bryanpmx/caf-api/pkg/metrics"
)

type Action string

const (
	ActionRead   Action = "read"
	ActionCreate Action = "create"
	ActionUpdate Action = "update"
	ActionDelete Action = "delete"
)

// Decision is the outcome of a single authorization check. Deny carries a
// reason for logging; services translate denials on existing resources to
// NotFound so record existence is never leaked.
type Decision struct {
	Allowed bool
	Reason  string
}

func Allow() Decision {
	return Decision{Allowed: true}
}

func Deny(reason string) Decision {
	return Decision{Reason: reason}
}

// Engine evaluates the authorization matrix (role x office x department x
// assignment).
type Engine struct {
	metrics *metrics.Metrics
}

// NewEngine returns a policy engine. metrics may be nil.
func NewEngine(m *metrics.Metrics) *Engine {
	return &Engine{metrics: m}
}

// Decide gates a single-resource operation on the staff/admin surface.
// Rules are applied in precedence order; the first matching rule wins.
func (e *Engine) Decide(id model.Identity, kind model.ResourceKind, action Action, meta *model.ResourceMeta) Decision {
	d := e.decide(id, kind, action, meta)
	if e.metrics != nil {
		outcome := "deny"
		if d.Allowed {
			outcome = "allow"
		}
		e.metrics.PolicyDecisions.WithLabelValues(string(kind), string(action), outcome).Inc()
	}
	return d
}

func (e *Engine) decide(id model.Identity, kind model.ResourceKind, action Action, meta *model.ResourceMeta) Decision {
	switch id.Role {
	case model.RoleClient:
		// Clients never operate on the staff surface; their own records
		// are served through the portal with a client-ownership filter.
		return Deny("client accounts use the client portal")

	case model.RoleAdmin:
		return Allow()

	case model.RoleOfficeManager:
		if meta == nil {
			return Deny("resource attributes required")
		}
		if meta.OfficeID != id.OfficeID {
			return Deny(fmt.Sprintf("resource belongs to another office than %s", id.OfficeID))
		}
		return Allow()

	case model.RoleLawyer, model.RolePsychologist, model.RoleReceptionist, model.RoleEventCoordinator:
		if meta == nil {
			return Deny("resource attributes required")
		}
		return e.decideStaff(id, kind, action, *meta)

	default:
		return Deny(fmt.Sprintf("unknown role %q", id.Role))
	}
}

// decideStaff applies the department scope with the assignment override, then
// the mutation-specific narrowing of rule 5.
func (e *Engine) decideStaff(id model.Identity, kind model.ResourceKind, action Action, meta model.ResourceMeta) Decision {
	inDepartment := meta.OfficeID == id.OfficeID &&
		id.HasDepartment() && meta.Category == id.Department
	assigned := meta.IsAssignedTo(id.UserID)

	if action == ActionCreate {
		// The assignment override applies only to access of existing
		// resources, never to creation.
		if !inDepartment {
			return Deny("creation requires a department match")
		}
		return Allow()
	}

	switch kind {
	case model.ResourceCase, model.ResourceAppointment:
		switch action {
		case ActionRead, ActionUpdate:
			if inDepartment || assigned {
				return Allow()
			}
			return Deny("outside department scope and not assigned")
		case ActionDelete:
			// Case deletion is additionally narrowed by the lifecycle
			// manager to management roles or primary staff.
			if meta.PrimaryStaffID == id.UserID {
				return Allow()
			}
			if kind == model.ResourceAppointment && meta.AssignedToID == id.UserID {
				return Allow()
			}
			return Deny("deletion requires management rights or primary assignment")
		}

	case model.ResourceTask:
		switch action {
		case ActionRead:
			if inDepartment || assigned {
				return Allow()
			}
			return Deny("outside department scope and not assigned")
		case ActionUpdate:
			// Any assignment relationship grants update: the task's own
			// assignee, the parent case's primary staff, or a member of
			// its assigned set. The tasks service narrows non-management
			// updates to completion only.
			if assigned {
				return Allow()
			}
			return Deny("task updates require assignment or management rights")
		case ActionDelete:
			return Deny("task deletion requires management rights")
		}
	}

	return Deny(fmt.Sprintf("no rule permits %s on %s", action, kind))
}

// Filter computes the list-query scope for an identity. The result is the
// logical OR of the department-scope predicate and the assignment-membership
// predicate, per rule 4.
func (e *Engine) Filter(id model.Identity, kind model.ResourceKind) Predicate {
	switch id.Role {
	case model.RoleClient:
		clientID := id.UserID
		return Predicate{ClientID: &clientID}

	case model.RoleAdmin:
		return MatchAll()

	case model.RoleOfficeManager:
		officeID := id.OfficeID
		return Predicate{OfficeID: &officeID}

	case model.RoleLawyer, model.RolePsychologist, model.RoleReceptionist, model.RoleEventCoordinator:
		userID := id.UserID
		p := Predicate{StaffID: &userID}
		if id.HasDepartment() {
			officeID := id.OfficeID
			dept := id.Department
			p.OfficeID = &officeID
			p.Category = &dept
		}
		return p

	default:
		return MatchNone()
	}
}
