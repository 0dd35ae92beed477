package postgres

import (
	"fmt"
	"strings"

	"github.com/bryanpmx/caf-api/internal/policy"
)

// arg appends a query argument and returns its positional placeholder.
func arg(args *[]interface{}, v interface{}) string {
	*args = append(*args, v)
	return fmt.Sprintf("$%d", len(*args))
}

// caseScopeClause renders a scope predicate against the cases table. The
// clause structure mirrors Predicate.Matches: clauses are OR-ed, and the
// assignment branch resolves membership through case_staff. Built entirely
// from positional args so the rendered fragment composes with other filters.
func caseScopeClause(p policy.Predicate, args *[]interface{}) string {
	if p.All {
		return "TRUE"
	}

	var clauses []string
	if p.ClientID != nil {
		clauses = append(clauses, fmt.Sprintf("client_id = %s", arg(args, *p.ClientID)))
	}
	if p.OfficeID != nil {
		if p.Category != nil {
			clauses = append(clauses, fmt.Sprintf("(office_id = %s AND category = %s)",
				arg(args, *p.OfficeID), arg(args, *p.Category)))
		} else {
			clauses = append(clauses, fmt.Sprintf("office_id = %s", arg(args, *p.OfficeID)))
		}
	}
	if p.StaffID != nil {
		clauses = append(clauses, fmt.Sprintf(
			"(primary_staff_id = %s OR id IN (SELECT case_id FROM case_staff WHERE staff_id = %s))",
			arg(args, *p.StaffID), arg(args, *p.StaffID)))
	}

	if len(clauses) == 0 {
		return "FALSE"
	}
	return "(" + strings.Join(clauses, " OR ") + ")"
}

// childScopeClause renders a scope predicate for a table whose rows inherit
// scoping from their parent case (appointments, tasks). assigneeColumn names
// the row's own assignee column, which the assignment branch also honors so a
// directly assigned staff member sees their cross-department work. Using IN
// subqueries keeps list results free of join duplicates; rows stay unique by
// primary key without an explicit DISTINCT.
func childScopeClause(p policy.Predicate, assigneeColumn string, args *[]interface{}) string {
	if p.All {
		return "TRUE"
	}

	var clauses []string
	if p.ClientID != nil {
		clauses = append(clauses, fmt.Sprintf(
			"case_id IN (SELECT id FROM cases WHERE client_id = %s AND deleted_at IS NULL)",
			arg(args, *p.ClientID)))
	}
	if p.OfficeID != nil {
		if p.Category != nil {
			clauses = append(clauses, fmt.Sprintf(
				"case_id IN (SELECT id FROM cases WHERE office_id = %s AND category = %s AND deleted_at IS NULL)",
				arg(args, *p.OfficeID), arg(args, *p.Category)))
		} else {
			clauses = append(clauses, fmt.Sprintf(
				"case_id IN (SELECT id FROM cases WHERE office_id = %s AND deleted_at IS NULL)",
				arg(args, *p.OfficeID)))
		}
	}
	if p.StaffID != nil {
		clauses = append(clauses, fmt.Sprintf(
			"(%s = %s OR case_id IN (SELECT id FROM cases WHERE primary_staff_id = %s AND deleted_at IS NULL) OR case_id IN (SELECT case_id FROM case_staff WHERE staff_id = %s))",
			assigneeColumn, arg(args, *p.StaffID), arg(args, *p.StaffID), arg(args, *p.StaffID)))
	}

	if len(clauses) == 0 {
		return "FALSE"
	}
	return "(" + strings.Join(clauses, " OR ") + ")"
}
