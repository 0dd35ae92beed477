package registry

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// countingAssignmentRepo counts store round-trips so caching is observable.
type countingAssignmentRepo struct {
	assigned map[string]bool
	primary  map[string]bool

	assignedCalls int
	primaryCalls  int
}

func key(userID, resourceID uuid.UUID) string {
	return userID.String() + ":" + resourceID.String()
}

func (r *countingAssignmentRepo) IsAssigned(ctx context.Context, userID, caseOrTaskID uuid.UUID) (bool, error) {
	r.assignedCalls++
	return r.assigned[key(userID, caseOrTaskID)], nil
}

func (r *countingAssignmentRepo) IsPrimary(ctx context.Context, userID, caseID uuid.UUID) (bool, error) {
	r.primaryCalls++
	return r.primary[key(userID, caseID)], nil
}

func (r *countingAssignmentRepo) AssignedStaffIDs(ctx context.Context, caseID uuid.UUID) ([]uuid.UUID, error) {
	return nil, nil
}

func TestIsAssignedCachesResult(t *testing.T) {
	userID, caseID := uuid.New(), uuid.New()
	repo := &countingAssignmentRepo{
		assigned: map[string]bool{key(userID, caseID): true},
		primary:  map[string]bool{},
	}
	reg := New(repo)

	assigned, err := reg.IsAssigned(context.Background(), userID, caseID)
	require.NoError(t, err)
	assert.True(t, assigned)

	assigned, err = reg.IsAssigned(context.Background(), userID, caseID)
	require.NoError(t, err)
	assert.True(t, assigned)

	assert.Equal(t, 1, repo.assignedCalls)
}

func TestNegativeResultIsCachedToo(t *testing.T) {
	userID, caseID := uuid.New(), uuid.New()
	repo := &countingAssignmentRepo{assigned: map[string]bool{}, primary: map[string]bool{}}
	reg := New(repo)

	for i := 0; i < 3; i++ {
		assigned, err := reg.IsAssigned(context.Background(), userID, caseID)
		require.NoError(t, err)
		assert.False(t, assigned)
	}

	assert.Equal(t, 1, repo.assignedCalls)
}

func TestInvalidateForcesRequery(t *testing.T) {
	userID, caseID := uuid.New(), uuid.New()
	repo := &countingAssignmentRepo{assigned: map[string]bool{}, primary: map[string]bool{}}
	reg := New(repo)

	assigned, err := reg.IsAssigned(context.Background(), userID, caseID)
	require.NoError(t, err)
	assert.False(t, assigned)

	// Assignment lands in the store, then the cache entry is dropped.
	repo.assigned[key(userID, caseID)] = true
	reg.Invalidate(userID, caseID)

	assigned, err = reg.IsAssigned(context.Background(), userID, caseID)
	require.NoError(t, err)
	assert.True(t, assigned)
	assert.Equal(t, 2, repo.assignedCalls)
}

func TestIsPrimaryCachedIndependently(t *testing.T) {
	userID, caseID := uuid.New(), uuid.New()
	repo := &countingAssignmentRepo{
		assigned: map[string]bool{},
		primary:  map[string]bool{key(userID, caseID): true},
	}
	reg := New(repo)

	primary, err := reg.IsPrimary(context.Background(), userID, caseID)
	require.NoError(t, err)
	assert.True(t, primary)

	_, err = reg.IsPrimary(context.Background(), userID, caseID)
	require.NoError(t, err)
	assert.Equal(t, 1, repo.primaryCalls)
	assert.Equal(t, 0, repo.assignedCalls)
}
