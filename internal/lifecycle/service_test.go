package lifecycle

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bryanpmx/caf-api/internal/model"
	"github.com/bryanpmx/caf-api/internal/policy"
	"github.com/bryanpmx/caf-api/internal/repository"
	"github.com/bryanpmx/caf-api/pkg/apperror"
	"github.com/bryanpmx/caf-api/pkg/logger"
)

var errInjected = errors.New("injected failure")

// fakeCaseRepo is an in-memory CaseRepository whose transactions stage
// mutations and apply them only on commit, so atomicity is observable.
type fakeCaseRepo struct {
	cases                 map[uuid.UUID]*model.Case
	scheduledAppointments map[uuid.UUID]int
	openTasks             map[uuid.UUID]int
	outbox                []*model.OutboxEvent
	events                []*model.CaseEvent

	// failOn names a CaseTx method that fails mid-transaction.
	failOn string
}

func newFakeCaseRepo() *fakeCaseRepo {
	return &fakeCaseRepo{
		cases:                 make(map[uuid.UUID]*model.Case),
		scheduledAppointments: make(map[uuid.UUID]int),
		openTasks:             make(map[uuid.UUID]int),
	}
}

func (r *fakeCaseRepo) Create(ctx context.Context, c *model.Case) error {
	r.cases[c.ID] = c
	return nil
}

func (r *fakeCaseRepo) Get(ctx context.Context, id uuid.UUID) (*model.Case, error) {
	c, ok := r.cases[id]
	if !ok || c.DeletedAt != nil {
		return nil, apperror.NotFound("case")
	}
	copied := *c
	return &copied, nil
}

func (r *fakeCaseRepo) Update(ctx context.Context, c *model.Case) error {
	r.cases[c.ID] = c
	return nil
}

func (r *fakeCaseRepo) List(ctx context.Context, scope policy.Predicate, filters *model.CaseFilters) ([]*model.Case, error) {
	return nil, nil
}

func (r *fakeCaseRepo) ListArchived(ctx context.Context, scope policy.Predicate, filters *model.CaseFilters) ([]*model.Case, error) {
	return nil, nil
}

func (r *fakeCaseRepo) CountScheduledAppointments(ctx context.Context, caseID uuid.UUID) (int, error) {
	return r.scheduledAppointments[caseID], nil
}

func (r *fakeCaseRepo) CountOpenTasks(ctx context.Context, caseID uuid.UUID) (int, error) {
	return r.openTasks[caseID], nil
}

func (r *fakeCaseRepo) InTx(ctx context.Context, fn func(tx repository.CaseTx) error) error {
	tx := &fakeTx{repo: r}
	if err := fn(tx); err != nil {
		return err
	}
	for _, apply := range tx.staged {
		apply()
	}
	return nil
}

type fakeTx struct {
	repo   *fakeCaseRepo
	staged []func()
}

func (t *fakeTx) fail(method string) error {
	if t.repo.failOn == method {
		return errInjected
	}
	return nil
}

func (t *fakeTx) UpdateStage(ctx context.Context, caseID uuid.UUID, stage string) error {
	if err := t.fail("UpdateStage"); err != nil {
		return err
	}
	t.staged = append(t.staged, func() {
		t.repo.cases[caseID].Stage = stage
	})
	return nil
}

func (t *fakeTx) MarkCompleted(ctx context.Context, caseID uuid.UUID, at time.Time) error {
	if err := t.fail("MarkCompleted"); err != nil {
		return err
	}
	t.staged = append(t.staged, func() {
		c := t.repo.cases[caseID]
		c.Status = model.CaseStatusCompleted
		c.CompletedAt = &at
	})
	return nil
}

func (t *fakeTx) Archive(ctx context.Context, caseID uuid.UUID, at time.Time) error {
	if err := t.fail("Archive"); err != nil {
		return err
	}
	t.staged = append(t.staged, func() {
		c := t.repo.cases[caseID]
		c.Status = model.CaseStatusArchived
		c.ArchivedAt = &at
	})
	return nil
}

func (t *fakeTx) SoftDelete(ctx context.Context, caseID uuid.UUID, at time.Time) error {
	if err := t.fail("SoftDelete"); err != nil {
		return err
	}
	t.staged = append(t.staged, func() {
		c := t.repo.cases[caseID]
		c.Status = model.CaseStatusDeleted
		c.DeletedAt = &at
	})
	return nil
}

func (t *fakeTx) CancelScheduledAppointments(ctx context.Context, caseID uuid.UUID) (int, error) {
	if err := t.fail("CancelScheduledAppointments"); err != nil {
		return 0, err
	}
	n := t.repo.scheduledAppointments[caseID]
	t.staged = append(t.staged, func() {
		t.repo.scheduledAppointments[caseID] = 0
	})
	return n, nil
}

func (t *fakeTx) CancelOpenTasks(ctx context.Context, caseID uuid.UUID) (int, error) {
	if err := t.fail("CancelOpenTasks"); err != nil {
		return 0, err
	}
	n := t.repo.openTasks[caseID]
	t.staged = append(t.staged, func() {
		t.repo.openTasks[caseID] = 0
	})
	return n, nil
}

func (t *fakeTx) SetPrimaryStaff(ctx context.Context, caseID, staffID uuid.UUID) error {
	if err := t.fail("SetPrimaryStaff"); err != nil {
		return err
	}
	t.staged = append(t.staged, func() {
		t.repo.cases[caseID].PrimaryStaffID = staffID
	})
	return nil
}

func (t *fakeTx) AddAssignedStaff(ctx context.Context, caseID, staffID uuid.UUID) error {
	if err := t.fail("AddAssignedStaff"); err != nil {
		return err
	}
	t.staged = append(t.staged, func() {
		c := t.repo.cases[caseID]
		c.AssignedStaffIDs = append(c.AssignedStaffIDs, staffID)
	})
	return nil
}

func (t *fakeTx) EnqueueOutbox(ctx context.Context, event *model.OutboxEvent) error {
	if err := t.fail("EnqueueOutbox"); err != nil {
		return err
	}
	t.staged = append(t.staged, func() {
		t.repo.outbox = append(t.repo.outbox, event)
	})
	return nil
}

func (t *fakeTx) RecordEvent(ctx context.Context, event *model.CaseEvent) error {
	if err := t.fail("RecordEvent"); err != nil {
		return err
	}
	t.staged = append(t.staged, func() {
		t.repo.events = append(t.repo.events, event)
	})
	return nil
}

type fakeUserRepo struct {
	users map[uuid.UUID]*model.User
}

func (r *fakeUserRepo) Get(ctx context.Context, id uuid.UUID) (*model.User, error) {
	u, ok := r.users[id]
	if !ok {
		return nil, apperror.NotFound("user")
	}
	return u, nil
}

func (r *fakeUserRepo) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	for _, u := range r.users {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, apperror.NotFound("user")
}

func (r *fakeUserRepo) List(ctx context.Context, filters *model.UserFilters) ([]*model.User, error) {
	return nil, nil
}

type fixture struct {
	svc     *Service
	repo    *fakeCaseRepo
	users   *fakeUserRepo
	office  uuid.UUID
	caseID  uuid.UUID
	admin   model.Identity
	manager model.Identity
	primary model.Identity
}

func newFixture(t *testing.T, category model.CaseCategory) *fixture {
	t.Helper()

	office := uuid.New()
	primaryID := uuid.New()
	now := time.Now().UTC()

	c := &model.Case{
		Base:           model.Base{ID: uuid.New(), CreatedAt: now, UpdatedAt: now},
		OfficeID:       office,
		Category:       category,
		Status:         model.CaseStatusOpen,
		Stage:          category.Stages()[0],
		Title:          "test case",
		PrimaryStaffID: primaryID,
		ClientID:       uuid.New(),
	}

	repo := newFakeCaseRepo()
	repo.cases[c.ID] = c

	users := &fakeUserRepo{users: make(map[uuid.UUID]*model.User)}

	svc := NewService(repo, users, policy.NewEngine(nil), nil, logger.NewLogger(nil), nil)

	return &fixture{
		svc:    svc,
		repo:   repo,
		users:  users,
		office: office,
		caseID: c.ID,
		admin:  model.Identity{UserID: uuid.New(), Role: model.RoleAdmin},
		manager: model.Identity{
			UserID:   uuid.New(),
			Role:     model.RoleOfficeManager,
			OfficeID: office,
		},
		primary: model.Identity{
			UserID:     primaryID,
			Role:       model.RoleLawyer,
			OfficeID:   office,
			Department: category,
		},
	}
}

func TestUpdateStage(t *testing.T) {
	f := newFixture(t, model.CategoryFamiliar)

	updated, err := f.svc.UpdateStage(context.Background(), f.caseID, "notificacion", f.primary)
	require.NoError(t, err)
	assert.Equal(t, "notificacion", updated.Stage)
	assert.Equal(t, "notificacion", f.repo.cases[f.caseID].Stage)

	require.Len(t, f.repo.events, 1)
	assert.Equal(t, model.EventStageUpdated, f.repo.events[0].Type)
	require.Len(t, f.repo.outbox, 1)
}

func TestUpdateStageRejectsStageOutsideCategory(t *testing.T) {
	f := newFixture(t, model.CategoryRecursos)

	// "sentencia" exists for other categories but not for recursos.
	_, err := f.svc.UpdateStage(context.Background(), f.caseID, "sentencia", f.admin)
	require.Error(t, err)
	assert.True(t, apperror.IsCode(err, apperror.CodeValidation))
	assert.Contains(t, err.Error(), "revision_expediente")
	assert.Equal(t, "revision_expediente", f.repo.cases[f.caseID].Stage)
}

func TestUpdateStageRequiresPrimaryOrManagement(t *testing.T) {
	f := newFixture(t, model.CategoryFamiliar)

	colleague := model.Identity{
		UserID:     uuid.New(),
		Role:       model.RoleLawyer,
		OfficeID:   f.office,
		Department: model.CategoryFamiliar,
	}

	// Visible through department scope, but neither management nor primary.
	_, err := f.svc.UpdateStage(context.Background(), f.caseID, "notificacion", colleague)
	require.Error(t, err)
	assert.True(t, apperror.IsCode(err, apperror.CodeForbidden))
}

func TestUpdateStageInvisibleCaseIsNotFound(t *testing.T) {
	f := newFixture(t, model.CategoryFamiliar)

	outsider := model.Identity{
		UserID:     uuid.New(),
		Role:       model.RoleLawyer,
		OfficeID:   uuid.New(),
		Department: model.CategoryFamiliar,
	}

	_, err := f.svc.UpdateStage(context.Background(), f.caseID, "notificacion", outsider)
	require.Error(t, err)
	assert.True(t, apperror.IsCode(err, apperror.CodeNotFound))
}

func TestCompleteCaseCascades(t *testing.T) {
	f := newFixture(t, model.CategoryCivil)
	f.repo.scheduledAppointments[f.caseID] = 2
	f.repo.openTasks[f.caseID] = 1

	completed, err := f.svc.CompleteCase(context.Background(), f.caseID, f.manager)
	require.NoError(t, err)
	assert.Equal(t, model.CaseStatusCompleted, completed.Status)
	require.NotNil(t, completed.CompletedAt)

	assert.Equal(t, 0, f.repo.scheduledAppointments[f.caseID])
	assert.Equal(t, 0, f.repo.openTasks[f.caseID])

	require.Len(t, f.repo.events, 1)
	assert.Equal(t, model.EventCaseCompleted, f.repo.events[0].Type)
}

func TestCompleteCaseIdempotent(t *testing.T) {
	f := newFixture(t, model.CategoryCivil)

	_, err := f.svc.CompleteCase(context.Background(), f.caseID, f.manager)
	require.NoError(t, err)

	again, err := f.svc.CompleteCase(context.Background(), f.caseID, f.manager)
	require.NoError(t, err)
	assert.Equal(t, model.CaseStatusCompleted, again.Status)

	// The no-op repeat records nothing new.
	assert.Len(t, f.repo.events, 1)
	assert.Len(t, f.repo.outbox, 1)
}

func TestCompleteCaseRequiresManagement(t *testing.T) {
	f := newFixture(t, model.CategoryCivil)

	_, err := f.svc.CompleteCase(context.Background(), f.caseID, f.primary)
	require.Error(t, err)
	assert.True(t, apperror.IsCode(err, apperror.CodeForbidden))
}

func TestCompleteCaseAtomicity(t *testing.T) {
	f := newFixture(t, model.CategoryCivil)
	f.repo.scheduledAppointments[f.caseID] = 2
	f.repo.openTasks[f.caseID] = 1
	f.repo.failOn = "CancelOpenTasks"

	_, err := f.svc.CompleteCase(context.Background(), f.caseID, f.manager)
	require.Error(t, err)

	// The failed transaction leaves no partial state behind.
	c := f.repo.cases[f.caseID]
	assert.Equal(t, model.CaseStatusOpen, c.Status)
	assert.Nil(t, c.CompletedAt)
	assert.Equal(t, 2, f.repo.scheduledAppointments[f.caseID])
	assert.Equal(t, 1, f.repo.openTasks[f.caseID])
	assert.Empty(t, f.repo.events)
	assert.Empty(t, f.repo.outbox)
}

func TestDeleteCaseConflictWithoutForce(t *testing.T) {
	f := newFixture(t, model.CategoryFamiliar)
	f.repo.scheduledAppointments[f.caseID] = 2
	f.repo.openTasks[f.caseID] = 1

	err := f.svc.DeleteCase(context.Background(), f.caseID, f.manager, false, "")
	require.Error(t, err)

	appErr, ok := apperror.As(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeConflict, appErr.Code)
	assert.Equal(t, 2, appErr.ActiveAppointments)
	assert.Equal(t, 1, appErr.PendingTasks)

	// Refusal mutates nothing.
	c := f.repo.cases[f.caseID]
	assert.Equal(t, model.CaseStatusOpen, c.Status)
	assert.Nil(t, c.DeletedAt)
	assert.Equal(t, 2, f.repo.scheduledAppointments[f.caseID])
	assert.Equal(t, 1, f.repo.openTasks[f.caseID])
	assert.Empty(t, f.repo.events)
}

func TestDeleteCaseForced(t *testing.T) {
	f := newFixture(t, model.CategoryFamiliar)
	f.repo.scheduledAppointments[f.caseID] = 2
	f.repo.openTasks[f.caseID] = 1

	err := f.svc.DeleteCase(context.Background(), f.caseID, f.manager, true, "client withdrew")
	require.NoError(t, err)

	c := f.repo.cases[f.caseID]
	assert.Equal(t, model.CaseStatusDeleted, c.Status)
	require.NotNil(t, c.DeletedAt)
	assert.Equal(t, 0, f.repo.scheduledAppointments[f.caseID])
	assert.Equal(t, 0, f.repo.openTasks[f.caseID])

	require.Len(t, f.repo.events, 1)
	assert.Equal(t, model.EventCaseDeleted, f.repo.events[0].Type)
	assert.Contains(t, string(f.repo.events[0].Payload), "client withdrew")
}

func TestDeleteCaseCleanWithoutForce(t *testing.T) {
	f := newFixture(t, model.CategoryFamiliar)

	err := f.svc.DeleteCase(context.Background(), f.caseID, f.primary, false, "")
	require.NoError(t, err)
	assert.Equal(t, model.CaseStatusDeleted, f.repo.cases[f.caseID].Status)
}

func TestArchiveCaseOnlyFromCompleted(t *testing.T) {
	f := newFixture(t, model.CategoryPsicologia)

	_, err := f.svc.ArchiveCase(context.Background(), f.caseID, f.manager)
	require.Error(t, err)
	assert.True(t, apperror.IsCode(err, apperror.CodeValidation))

	_, err = f.svc.CompleteCase(context.Background(), f.caseID, f.manager)
	require.NoError(t, err)

	archived, err := f.svc.ArchiveCase(context.Background(), f.caseID, f.manager)
	require.NoError(t, err)
	assert.Equal(t, model.CaseStatusArchived, archived.Status)
	require.NotNil(t, archived.ArchivedAt)

	// Repeat archival is a no-op success.
	again, err := f.svc.ArchiveCase(context.Background(), f.caseID, f.manager)
	require.NoError(t, err)
	assert.Equal(t, model.CaseStatusArchived, again.Status)
}

func TestArchiveCaseRequiresManagement(t *testing.T) {
	f := newFixture(t, model.CategoryPsicologia)

	_, err := f.svc.CompleteCase(context.Background(), f.caseID, f.manager)
	require.NoError(t, err)

	_, err = f.svc.ArchiveCase(context.Background(), f.caseID, f.primary)
	require.Error(t, err)
	assert.True(t, apperror.IsCode(err, apperror.CodeForbidden))
}

func TestAssignStaff(t *testing.T) {
	f := newFixture(t, model.CategoryCivil)

	staffID := uuid.New()
	f.users.users[staffID] = &model.User{
		Base:     model.Base{ID: staffID},
		Role:     model.RoleLawyer,
		OfficeID: f.office,
	}

	err := f.svc.AssignStaff(context.Background(), f.caseID, staffID, false, f.manager)
	require.NoError(t, err)
	assert.Contains(t, f.repo.cases[f.caseID].AssignedStaffIDs, staffID)

	require.Len(t, f.repo.events, 1)
	assert.Equal(t, model.EventStaffAssigned, f.repo.events[0].Type)
}

func TestAssignStaffAsPrimary(t *testing.T) {
	f := newFixture(t, model.CategoryCivil)

	staffID := uuid.New()
	f.users.users[staffID] = &model.User{
		Base:     model.Base{ID: staffID},
		Role:     model.RoleLawyer,
		OfficeID: f.office,
	}

	err := f.svc.AssignStaff(context.Background(), f.caseID, staffID, true, f.manager)
	require.NoError(t, err)
	assert.Equal(t, staffID, f.repo.cases[f.caseID].PrimaryStaffID)
}

func TestAssignStaffCrossOfficeRejected(t *testing.T) {
	f := newFixture(t, model.CategoryCivil)

	staffID := uuid.New()
	f.users.users[staffID] = &model.User{
		Base:     model.Base{ID: staffID},
		Role:     model.RoleLawyer,
		OfficeID: uuid.New(),
	}

	err := f.svc.AssignStaff(context.Background(), f.caseID, staffID, false, f.manager)
	require.Error(t, err)
	assert.True(t, apperror.IsCode(err, apperror.CodeValidation))
	assert.Empty(t, f.repo.cases[f.caseID].AssignedStaffIDs)
}

func TestAssignStaffRejectsClientTarget(t *testing.T) {
	f := newFixture(t, model.CategoryCivil)

	clientID := uuid.New()
	f.users.users[clientID] = &model.User{
		Base:     model.Base{ID: clientID},
		Role:     model.RoleClient,
		OfficeID: f.office,
	}

	err := f.svc.AssignStaff(context.Background(), f.caseID, clientID, false, f.manager)
	require.Error(t, err)
	assert.True(t, apperror.IsCode(err, apperror.CodeValidation))
}

func TestAssignStaffRequiresManagement(t *testing.T) {
	f := newFixture(t, model.CategoryCivil)

	err := f.svc.AssignStaff(context.Background(), f.caseID, uuid.New(), false, f.primary)
	require.Error(t, err)
	assert.True(t, apperror.IsCode(err, apperror.CodeForbidden))
}
