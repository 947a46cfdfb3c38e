package policy

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/campushub/srms-api/internal/models"
)

func TestAuthorizeMentorScope(t *testing.T) {
	mentor := Caller{ID: "mentor-1", Role: models.RoleMentor, Department: models.DepartmentCSE, Year: 2}
	inScope := Target{StudentID: "student-1", Department: models.DepartmentCSE, Year: 2}

	for _, action := range []Action{
		ReadStudentList, ReadStudent, WriteStudent, DeleteStudent,
		ReadSemester, WriteSemester, DeleteSemester, ReadAnalytics,
	} {
		assert.Equal(t, Allow, Authorize(mentor, action, inScope), "action %s", action)
	}

	wrongYear := Target{StudentID: "student-2", Department: models.DepartmentCSE, Year: 3}
	wrongDept := Target{StudentID: "student-3", Department: models.DepartmentECE, Year: 2}
	assert.Equal(t, Deny, Authorize(mentor, ReadStudent, wrongYear))
	assert.Equal(t, Deny, Authorize(mentor, WriteSemester, wrongDept))
}

func TestAuthorizeStudentSelfReadOnly(t *testing.T) {
	student := Caller{ID: "student-1", Role: models.RoleStudent, Department: models.DepartmentCSE, Year: 1}
	self := Target{StudentID: "student-1", Department: models.DepartmentCSE, Year: 1}
	classmate := Target{StudentID: "student-2", Department: models.DepartmentCSE, Year: 1}

	assert.Equal(t, Allow, Authorize(student, ReadSemester, self))
	assert.Equal(t, Allow, Authorize(student, ReadAnalytics, self))

	// same scope is not enough, ownership is required
	assert.Equal(t, Deny, Authorize(student, ReadSemester, classmate))

	// no write capability at all, not even on own records
	assert.Equal(t, Deny, Authorize(student, WriteSemester, self))
	assert.Equal(t, Deny, Authorize(student, DeleteSemester, self))
	assert.Equal(t, Deny, Authorize(student, ReadStudent, self))
}

func TestAuthorizeUnknownRole(t *testing.T) {
	caller := Caller{ID: "x", Role: "admin"}
	assert.Equal(t, Deny, Authorize(caller, ReadStudent, Target{StudentID: "x"}))
}

func TestCallerFromClaimsNil(t *testing.T) {
	assert.Equal(t, Caller{}, CallerFromClaims(nil))
}

func TestTargetFromStudentNil(t *testing.T) {
	assert.Equal(t, Target{}, TargetFromStudent(nil))
}
