// Package policy decides, for a caller identity and a target record, whether
// an operation is allowed. It is the single place where the role and
// (department, year) scoping rules live; services consult it instead of
// branching on roles inline.
package policy

import "github.com/campushub/srms-api/internal/models"

// Action enumerates the operations gated by the access policy.
type Action string

const (
	ReadStudentList Action = "ReadStudentList"
	ReadStudent     Action = "ReadStudent"
	WriteStudent    Action = "WriteStudent"
	DeleteStudent   Action = "DeleteStudent"
	ReadSemester    Action = "ReadSemester"
	WriteSemester   Action = "WriteSemester"
	DeleteSemester  Action = "DeleteSemester"
	ReadAnalytics   Action = "ReadAnalytics"
)

// Decision is the outcome of an authorization check.
type Decision int

const (
	Deny Decision = iota
	Allow
)

// Caller is the verified identity attached to a request.
type Caller struct {
	ID         string
	Role       models.Role
	Department models.Department
	Year       int
}

// Target carries the ownership attributes of the record being accessed.
type Target struct {
	StudentID  string
	Department models.Department
	Year       int
}

// CallerFromClaims adapts JWT claims into a policy caller.
func CallerFromClaims(claims *models.JWTClaims) Caller {
	if claims == nil {
		return Caller{}
	}
	return Caller{
		ID:         claims.UserID,
		Role:       claims.Role,
		Department: claims.Department,
		Year:       claims.Year,
	}
}

// TargetFromStudent builds a target from the owning student account.
func TargetFromStudent(student *models.Account) Target {
	if student == nil {
		return Target{}
	}
	return Target{
		StudentID:  student.ID,
		Department: student.Department,
		Year:       student.Year,
	}
}

// Authorize applies the capability rules:
//   - a student may only read their own semester records and analytics;
//   - a mentor may perform any action on targets whose owning student shares
//     the mentor's department and year.
//
// Callers that deny on a scope mismatch should surface a not-found error, so
// out-of-scope requesters cannot distinguish "exists elsewhere" from
// "does not exist".
func Authorize(caller Caller, action Action, target Target) Decision {
	switch caller.Role {
	case models.RoleStudent:
		if action != ReadSemester && action != ReadAnalytics {
			return Deny
		}
		if target.StudentID == "" || target.StudentID != caller.ID {
			return Deny
		}
		return Allow
	case models.RoleMentor:
		if target.Department != caller.Department || target.Year != caller.Year {
			return Deny
		}
		return Allow
	default:
		return Deny
	}
}
