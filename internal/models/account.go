package models

import "time"

// Role represents the two account roles known to the system.
type Role string

const (
	RoleStudent Role = "student"
	RoleMentor  Role = "mentor"
)

// Department is the fixed set of departments students and mentors belong to.
type Department string

const (
	DepartmentCSE   Department = "CSE"
	DepartmentECE   Department = "ECE"
	DepartmentEEE   Department = "EEE"
	DepartmentMECH  Department = "MECH"
	DepartmentCIVIL Department = "CIVIL"
)

// Departments lists every valid department value.
var Departments = []Department{DepartmentCSE, DepartmentECE, DepartmentEEE, DepartmentMECH, DepartmentCIVIL}

// Account represents a student or mentor. Roll number is present iff the
// account is a student; mentors carry the (department, year) pair that scopes
// their authority.
type Account struct {
	ID            string     `db:"id" json:"id"`
	Name          string     `db:"name" json:"name"`
	Email         string     `db:"email" json:"email"`
	PasswordHash  string     `db:"password_hash" json:"-"`
	Role          Role       `db:"role" json:"role"`
	Department    Department `db:"department" json:"department"`
	Year          int        `db:"year" json:"year"`
	RollNumber    *string    `db:"roll_number" json:"rollNumber,omitempty"`
	PhoneNumber   string     `db:"phone_number" json:"phoneNumber,omitempty"`
	Address       string     `db:"address" json:"address,omitempty"`
	DateOfBirth   *time.Time `db:"date_of_birth" json:"dateOfBirth,omitempty"`
	Gender        string     `db:"gender" json:"gender,omitempty"`
	ParentName    string     `db:"parent_name" json:"parentName,omitempty"`
	ParentContact string     `db:"parent_contact" json:"parentContact,omitempty"`
	CreatedAt     time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time  `db:"updated_at" json:"updated_at"`
}

// AccountFilter captures the scoped listing criteria. Mentor list queries are
// always constrained to the mentor's own department and year server-side.
type AccountFilter struct {
	Role       Role
	Department Department
	Year       int
	Search     string
}
