package policy

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"github.com/bryanpmx/caf-api/internal/model"
)

var (
	officeA = uuid.New()
	officeB = uuid.New()
)

func staffIdentity(role model.Role, office uuid.UUID, dept model.CaseCategory) model.Identity {
	return model.Identity{
		UserID:     uuid.New(),
		Role:       role,
		OfficeID:   office,
		Department: dept,
	}
}

func caseMeta(office uuid.UUID, category model.CaseCategory) model.ResourceMeta {
	return model.ResourceMeta{
		OfficeID:       office,
		Category:       category,
		PrimaryStaffID: uuid.New(),
		ClientID:       uuid.New(),
	}
}

func TestClientDeniedOnStaffSurface(t *testing.T) {
	engine := NewEngine(nil)
	client := staffIdentity(model.RoleClient, officeA, "")
	meta := caseMeta(officeA, model.CategoryFamiliar)
	meta.ClientID = client.UserID

	// Even the client's own case is denied here; the portal serves it.
	for _, action := range []Action{ActionRead, ActionCreate, ActionUpdate, ActionDelete} {
		d := engine.Decide(client, model.ResourceCase, action, &meta)
		assert.False(t, d.Allowed, "action %s", action)
	}
}

func TestAdminAllowedEverywhere(t *testing.T) {
	engine := NewEngine(nil)
	admin := model.Identity{UserID: uuid.New(), Role: model.RoleAdmin}
	meta := caseMeta(officeB, model.CategoryRecursos)

	for _, kind := range []model.ResourceKind{model.ResourceCase, model.ResourceAppointment, model.ResourceTask} {
		for _, action := range []Action{ActionRead, ActionCreate, ActionUpdate, ActionDelete} {
			d := engine.Decide(admin, kind, action, &meta)
			assert.True(t, d.Allowed, "kind %s action %s", kind, action)
		}
	}
}

func TestOfficeManagerScopedToOffice(t *testing.T) {
	engine := NewEngine(nil)
	manager := staffIdentity(model.RoleOfficeManager, officeA, "")

	own := caseMeta(officeA, model.CategoryCivil)
	assert.True(t, engine.Decide(manager, model.ResourceCase, ActionUpdate, &own).Allowed)

	other := caseMeta(officeB, model.CategoryCivil)
	assert.False(t, engine.Decide(manager, model.ResourceCase, ActionRead, &other).Allowed)
}

func TestStaffDepartmentScope(t *testing.T) {
	engine := NewEngine(nil)
	lawyer := staffIdentity(model.RoleLawyer, officeA, model.CategoryCivil)

	inDept := caseMeta(officeA, model.CategoryCivil)
	assert.True(t, engine.Decide(lawyer, model.ResourceCase, ActionRead, &inDept).Allowed)
	assert.True(t, engine.Decide(lawyer, model.ResourceCase, ActionUpdate, &inDept).Allowed)

	otherDept := caseMeta(officeA, model.CategoryFamiliar)
	assert.False(t, engine.Decide(lawyer, model.ResourceCase, ActionRead, &otherDept).Allowed)

	otherOffice := caseMeta(officeB, model.CategoryCivil)
	assert.False(t, engine.Decide(lawyer, model.ResourceCase, ActionRead, &otherOffice).Allowed)
}

func TestAssignmentOverrideCrossesDepartment(t *testing.T) {
	engine := NewEngine(nil)
	psychologist := staffIdentity(model.RolePsychologist, officeA, model.CategoryPsicologia)

	meta := caseMeta(officeA, model.CategoryFamiliar)
	assert.False(t, engine.Decide(psychologist, model.ResourceCase, ActionRead, &meta).Allowed)

	meta.AssignedStaffIDs = []uuid.UUID{psychologist.UserID}
	assert.True(t, engine.Decide(psychologist, model.ResourceCase, ActionRead, &meta).Allowed)
	assert.True(t, engine.Decide(psychologist, model.ResourceCase, ActionUpdate, &meta).Allowed)

	// Assignment membership is not enough to delete; only primary staff may.
	assert.False(t, engine.Decide(psychologist, model.ResourceCase, ActionDelete, &meta).Allowed)

	meta.PrimaryStaffID = psychologist.UserID
	assert.True(t, engine.Decide(psychologist, model.ResourceCase, ActionDelete, &meta).Allowed)
}

func TestCreationNeverUsesAssignmentOverride(t *testing.T) {
	engine := NewEngine(nil)
	lawyer := staffIdentity(model.RoleLawyer, officeA, model.CategoryCivil)

	meta := caseMeta(officeA, model.CategoryFamiliar)
	meta.AssignedStaffIDs = []uuid.UUID{lawyer.UserID}
	meta.PrimaryStaffID = lawyer.UserID

	d := engine.Decide(lawyer, model.ResourceCase, ActionCreate, &meta)
	assert.False(t, d.Allowed)

	inDept := caseMeta(officeA, model.CategoryCivil)
	assert.True(t, engine.Decide(lawyer, model.ResourceCase, ActionCreate, &inDept).Allowed)
}

func TestTaskUpdateRequiresAssignment(t *testing.T) {
	engine := NewEngine(nil)
	receptionist := staffIdentity(model.RoleReceptionist, officeA, model.CategoryFamiliar)

	meta := caseMeta(officeA, model.CategoryFamiliar)

	// In-department but unassigned: read yes, update no.
	assert.True(t, engine.Decide(receptionist, model.ResourceTask, ActionRead, &meta).Allowed)
	assert.False(t, engine.Decide(receptionist, model.ResourceTask, ActionUpdate, &meta).Allowed)

	meta.AssignedToID = receptionist.UserID
	assert.True(t, engine.Decide(receptionist, model.ResourceTask, ActionUpdate, &meta).Allowed)

	// Task deletion is never granted to staff.
	assert.False(t, engine.Decide(receptionist, model.ResourceTask, ActionDelete, &meta).Allowed)
}

func TestTaskUpdateGrantedThroughCaseAssignment(t *testing.T) {
	engine := NewEngine(nil)
	psychologist := staffIdentity(model.RolePsychologist, officeB, model.CategoryPsicologia)

	// Cross-department, cross-office task whose parent case lists the
	// staff member in its assigned set. They are not the task's direct
	// assignee, yet the assignment relationship grants update; the tasks
	// service narrows the mutation to completion only.
	meta := caseMeta(officeA, model.CategoryFamiliar)
	meta.AssignedStaffIDs = []uuid.UUID{psychologist.UserID}
	meta.AssignedToID = uuid.New()

	assert.True(t, engine.Decide(psychologist, model.ResourceTask, ActionUpdate, &meta).Allowed)
}

func TestDecideRequiresMetaForScopedRoles(t *testing.T) {
	engine := NewEngine(nil)

	manager := staffIdentity(model.RoleOfficeManager, officeA, "")
	assert.False(t, engine.Decide(manager, model.ResourceCase, ActionRead, nil).Allowed)

	lawyer := staffIdentity(model.RoleLawyer, officeA, model.CategoryCivil)
	assert.False(t, engine.Decide(lawyer, model.ResourceCase, ActionRead, nil).Allowed)

	admin := model.Identity{UserID: uuid.New(), Role: model.RoleAdmin}
	assert.True(t, engine.Decide(admin, model.ResourceCase, ActionRead, nil).Allowed)
}

func TestFilterPerRole(t *testing.T) {
	engine := NewEngine(nil)

	admin := model.Identity{UserID: uuid.New(), Role: model.RoleAdmin}
	assert.True(t, engine.Filter(admin, model.ResourceCase).All)

	client := staffIdentity(model.RoleClient, officeA, "")
	p := engine.Filter(client, model.ResourceCase)
	assert.NotNil(t, p.ClientID)
	assert.Equal(t, client.UserID, *p.ClientID)
	assert.Nil(t, p.OfficeID)

	manager := staffIdentity(model.RoleOfficeManager, officeA, "")
	p = engine.Filter(manager, model.ResourceCase)
	assert.NotNil(t, p.OfficeID)
	assert.Equal(t, officeA, *p.OfficeID)
	assert.Nil(t, p.Category)

	lawyer := staffIdentity(model.RoleLawyer, officeA, model.CategoryCivil)
	p = engine.Filter(lawyer, model.ResourceCase)
	assert.NotNil(t, p.StaffID)
	assert.NotNil(t, p.OfficeID)
	assert.NotNil(t, p.Category)
	assert.Equal(t, model.CategoryCivil, *p.Category)
}

func TestFilterMatchesOfficeSubsetExactly(t *testing.T) {
	engine := NewEngine(nil)
	manager := staffIdentity(model.RoleOfficeManager, officeA, "")
	p := engine.Filter(manager, model.ResourceCase)

	records := []model.ResourceMeta{
		caseMeta(officeA, model.CategoryCivil),
		caseMeta(officeA, model.CategoryFamiliar),
		caseMeta(officeB, model.CategoryCivil),
		caseMeta(officeB, model.CategoryRecursos),
	}

	var matched int
	for _, m := range records {
		if p.Matches(m) {
			matched++
			assert.Equal(t, officeA, m.OfficeID)
		}
	}
	assert.Equal(t, 2, matched)
}

func TestPredicateStaffClauseKeepsCrossDepartmentAssignments(t *testing.T) {
	engine := NewEngine(nil)
	lawyer := staffIdentity(model.RoleLawyer, officeA, model.CategoryCivil)
	p := engine.Filter(lawyer, model.ResourceCase)

	inDept := caseMeta(officeA, model.CategoryCivil)
	assert.True(t, p.Matches(inDept))

	assigned := caseMeta(officeB, model.CategoryPsicologia)
	assigned.AssignedStaffIDs = []uuid.UUID{lawyer.UserID}
	assert.True(t, p.Matches(assigned))

	unrelated := caseMeta(officeB, model.CategoryPsicologia)
	assert.False(t, p.Matches(unrelated))
}

func TestMatchNoneIsEmpty(t *testing.T) {
	assert.True(t, MatchNone().Empty())
	assert.False(t, MatchAll().Empty())
	assert.False(t, MatchNone().Matches(caseMeta(officeA, model.CategoryCivil)))
}
