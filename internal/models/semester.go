package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// SemesterStatus tracks whether a semester is still being graded.
type SemesterStatus string

const (
	SemesterInProgress SemesterStatus = "In Progress"
	SemesterCompleted  SemesterStatus = "Completed"
)

// Grade is the letter grade assigned to a marked subject.
type Grade string

const (
	GradeO      Grade = "O"
	GradeAPlus  Grade = "A+"
	GradeA      Grade = "A"
	GradeBPlus  Grade = "B+"
	GradeB      Grade = "B"
	GradeC      Grade = "C"
	GradeP      Grade = "P"
	GradeF      Grade = "F"
	// GradeAb marks an absent student. The marks-based calculation never
	// assigns it; it is only set through the explicit absent override on a
	// subject update.
	GradeAb Grade = "Ab"
)

// Grades lists every legal grade value in descending order of merit.
var Grades = []Grade{GradeO, GradeAPlus, GradeA, GradeBPlus, GradeB, GradeC, GradeP, GradeF, GradeAb}

// Subject is a single subject row embedded in a semester record. Grade and
// GradePoints are derived from Marks and never accepted from callers.
type Subject struct {
	SubjectCode string   `json:"subjectCode"`
	SubjectName string   `json:"subjectName"`
	Credits     int      `json:"credits"`
	Marks       *float64 `json:"marks,omitempty"`
	Grade       Grade    `json:"grade,omitempty"`
	GradePoints *int     `json:"gradePoints,omitempty"`
	IsElective  bool     `json:"isElective"`
}

// SubjectList stores the embedded subject array as a JSONB column.
type SubjectList []Subject

// Value implements driver.Valuer.
func (s SubjectList) Value() (driver.Value, error) {
	if s == nil {
		s = SubjectList{}
	}
	return json.Marshal(s)
}

// Scan implements sql.Scanner.
func (s *SubjectList) Scan(src interface{}) error {
	if src == nil {
		*s = SubjectList{}
		return nil
	}
	var raw []byte
	switch v := src.(type) {
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return fmt.Errorf("unsupported subject list source %T", src)
	}
	return json.Unmarshal(raw, s)
}

// Semester is one student's record for a single semester number. SGPA and
// TotalCredits are derived from the subject list and recomputed before every
// persist.
type Semester struct {
	ID             string         `db:"id" json:"id"`
	StudentID      string         `db:"student_id" json:"studentId"`
	SemesterNumber int            `db:"semester_number" json:"semesterNumber"`
	Subjects       SubjectList    `db:"subjects" json:"subjects"`
	SGPA           float64        `db:"sgpa" json:"sgpa"`
	TotalCredits   int            `db:"total_credits" json:"totalCredits"`
	Status         SemesterStatus `db:"status" json:"status"`
	AcademicYear   string         `db:"academic_year" json:"academicYear,omitempty"`
	CreatedAt      time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time      `db:"updated_at" json:"updated_at"`
}

// StudentSemesters bundles a student's full academic history with the CGPA
// computed on read.
type StudentSemesters struct {
	Semesters []Semester `json:"semesters"`
	CGPA      float64    `json:"cgpa"`
	Student   *Account   `json:"student,omitempty"`
}
