package model

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestCategoryStages(t *testing.T) {
	assert.Equal(t,
		[]string{"etapa_inicial", "notificacion", "audiencia_preliminar", "audiencia_juicio", "sentencia"},
		CategoryFamiliar.Stages())
	assert.Equal(t,
		[]string{"revision_expediente", "apelacion", "resolucion"},
		CategoryRecursos.Stages())

	assert.True(t, CategoryCivil.HasStage("audiencia"))
	assert.False(t, CategoryCivil.HasStage("audiencia_preliminar"))
	assert.False(t, CategoryRecursos.HasStage("sentencia"))

	assert.True(t, CategoryPsicologia.Valid())
	assert.False(t, CaseCategory("penal").Valid())
}

func TestResourceMetaIsAssignedTo(t *testing.T) {
	primary := uuid.New()
	member := uuid.New()
	assignee := uuid.New()

	meta := ResourceMeta{
		PrimaryStaffID:   primary,
		AssignedStaffIDs: []uuid.UUID{member},
		AssignedToID:     assignee,
	}

	assert.True(t, meta.IsAssignedTo(primary))
	assert.True(t, meta.IsAssignedTo(member))
	assert.True(t, meta.IsAssignedTo(assignee))
	assert.False(t, meta.IsAssignedTo(uuid.New()))
}

func TestUpdateTaskRequestCompletionOnly(t *testing.T) {
	completed := TaskStatusCompleted
	cancelled := TaskStatusCancelled
	title := "renamed"

	assert.True(t, UpdateTaskRequest{Status: &completed}.CompletionOnly())
	assert.False(t, UpdateTaskRequest{Status: &cancelled}.CompletionOnly())
	assert.False(t, UpdateTaskRequest{}.CompletionOnly())
	assert.False(t, UpdateTaskRequest{Status: &completed, Title: &title}.CompletionOnly())
}

func TestTaskStatusOpen(t *testing.T) {
	assert.True(t, TaskStatusPending.Open())
	assert.True(t, TaskStatusInProgress.Open())
	assert.False(t, TaskStatusCompleted.Open())
	assert.False(t, TaskStatusCancelled.Open())
}
