package models

// SemesterPerformance is one row of the semester-wise performance series.
type SemesterPerformance struct {
	Semester int     `json:"semester"`
	SGPA     float64 `json:"sgpa"`
	Credits  int     `json:"credits"`
}

// PerformanceReport aggregates a student's academic history for the
// analytics endpoint. It is a read-only projection; nothing in it is stored.
type PerformanceReport struct {
	SemesterWisePerformance []SemesterPerformance `json:"semesterWisePerformance"`
	OverallCGPA             float64               `json:"overallCGPA"`
	TotalCredits            int                   `json:"totalCredits"`
	GradeDistribution       map[Grade]int         `json:"gradeDistribution"`
	SubjectCount            int                   `json:"subjectCount"`
}
