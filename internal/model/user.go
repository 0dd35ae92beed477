package model

import (
	"github.com/google/uuid"
)

// User covers both staff members and clients; Role distinguishes them.
type User struct {
	Base
	Email        string       `db:"email" json:"email"`
	PasswordHash string       `db:"password_hash" json:"-"`
	FirstName    string       `db:"first_name" json:"first_name"`
	LastName     string       `db:"last_name" json:"last_name"`
	Role         Role         `db:"role" json:"role"`
	OfficeID     uuid.UUID    `db:"office_id" json:"office_id"`
	Department   CaseCategory `db:"department" json:"department,omitempty"`
	Active       bool         `db:"active" json:"active"`
}

// Identity derives the request authorization context from the stored user.
func (u *User) Identity() Identity {
	return Identity{
		UserID:     u.ID,
		Role:       u.Role,
		OfficeID:   u.OfficeID,
		Department: u.Department,
	}
}

type UserFilters struct {
	Role     Role         `form:"role"`
	OfficeID uuid.UUID    `form:"office_id"`
	Category CaseCategory `form:"department"`
	Pagination
}

// Office is an organizational unit; every case and staff member belongs to
// exactly one.
type Office struct {
	Base
	Name    string `db:"name" json:"name"`
	Address string `db:"address" json:"address,omitempty"`
	Phone   string `db:"phone" json:"phone,omitempty"`
}
