package postgres

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bryanpmx/caf-api/internal/model"
	"github.com/bryanpmx/caf-api/internal/policy"
)

func TestCaseScopeClauseAll(t *testing.T) {
	var args []interface{}
	clause := caseScopeClause(policy.MatchAll(), &args)
	assert.Equal(t, "TRUE", clause)
	assert.Empty(t, args)
}

func TestCaseScopeClauseNone(t *testing.T) {
	var args []interface{}
	clause := caseScopeClause(policy.MatchNone(), &args)
	assert.Equal(t, "FALSE", clause)
	assert.Empty(t, args)
}

func TestCaseScopeClauseClient(t *testing.T) {
	clientID := uuid.New()
	var args []interface{}
	clause := caseScopeClause(policy.Predicate{ClientID: &clientID}, &args)

	assert.Equal(t, "(client_id = $1)", clause)
	require.Len(t, args, 1)
	assert.Equal(t, clientID, args[0])
}

func TestCaseScopeClauseOfficeManager(t *testing.T) {
	officeID := uuid.New()
	var args []interface{}
	clause := caseScopeClause(policy.Predicate{OfficeID: &officeID}, &args)

	assert.Equal(t, "(office_id = $1)", clause)
	require.Len(t, args, 1)
	assert.Equal(t, officeID, args[0])
}

func TestCaseScopeClauseStaff(t *testing.T) {
	officeID := uuid.New()
	category := model.CategoryFamiliar
	staffID := uuid.New()
	var args []interface{}
	clause := caseScopeClause(policy.Predicate{
		OfficeID: &officeID,
		Category: &category,
		StaffID:  &staffID,
	}, &args)

	assert.Equal(t,
		"((office_id = $1 AND category = $2) OR (primary_staff_id = $3 OR id IN (SELECT case_id FROM case_staff WHERE staff_id = $4)))",
		clause)
	require.Len(t, args, 4)
	assert.Equal(t, officeID, args[0])
	assert.Equal(t, category, args[1])
	assert.Equal(t, staffID, args[2])
	assert.Equal(t, staffID, args[3])
}

func TestCaseScopeClausePlaceholderNumbering(t *testing.T) {
	// Placeholders continue from arguments already collected by the caller.
	officeID := uuid.New()
	args := []interface{}{"prior"}
	clause := caseScopeClause(policy.Predicate{OfficeID: &officeID}, &args)

	assert.Equal(t, "(office_id = $2)", clause)
	require.Len(t, args, 2)
	assert.Equal(t, officeID, args[1])
}

func TestChildScopeClauseStaff(t *testing.T) {
	officeID := uuid.New()
	category := model.CategoryCivil
	staffID := uuid.New()
	var args []interface{}
	clause := childScopeClause(policy.Predicate{
		OfficeID: &officeID,
		Category: &category,
		StaffID:  &staffID,
	}, "assigned_staff_id", &args)

	assert.Contains(t, clause, "case_id IN (SELECT id FROM cases WHERE office_id = $1 AND category = $2 AND deleted_at IS NULL)")
	assert.Contains(t, clause, "assigned_staff_id = $3")
	assert.Contains(t, clause, "case_id IN (SELECT id FROM cases WHERE primary_staff_id = $4 AND deleted_at IS NULL)")
	assert.Contains(t, clause, "case_id IN (SELECT case_id FROM case_staff WHERE staff_id = $5)")
	assert.Len(t, args, 5)
}

func TestChildScopeClauseClient(t *testing.T) {
	clientID := uuid.New()
	var args []interface{}
	clause := childScopeClause(policy.Predicate{ClientID: &clientID}, "assigned_to_id", &args)

	assert.Equal(t, "(case_id IN (SELECT id FROM cases WHERE client_id = $1 AND deleted_at IS NULL))", clause)
	require.Len(t, args, 1)
	assert.Equal(t, clientID, args[0])
}

func TestChildScopeClauseNone(t *testing.T) {
	var args []interface{}
	assert.Equal(t, "FALSE", childScopeClause(policy.MatchNone(), "assigned_to_id", &args))
}
