// Package grading implements the marks-to-grade conversion and the SGPA/CGPA
// aggregation rules. Everything here is pure: callers hand in records and
// persist the results themselves, which keeps the computation testable in
// isolation from storage.
package grading

import (
	"math"
	"sort"

	"github.com/campushub/srms-api/internal/models"
)

type gradeBand struct {
	minMarks float64
	grade    models.Grade
	points   int
}

// Threshold table, inclusive lower bounds, evaluated highest-first.
var gradeBands = []gradeBand{
	{90, models.GradeO, 10},
	{80, models.GradeAPlus, 9},
	{70, models.GradeA, 8},
	{60, models.GradeBPlus, 7},
	{50, models.GradeB, 6},
	{40, models.GradeC, 5},
	{35, models.GradeP, 4},
}

// GradeFor maps a marks value in [0,100] to its letter grade and grade
// points. Marks below the passing threshold yield F with zero points. The
// absent grade Ab is never returned here; see ApplyAbsent.
func GradeFor(marks float64) (models.Grade, int) {
	for _, band := range gradeBands {
		if marks >= band.minMarks {
			return band.grade, band.points
		}
	}
	return models.GradeF, 0
}

// ApplyAbsent is the manual override that records a student as absent for a
// subject. It clears any marks and assigns the Ab grade with zero points.
// Absent subjects stay out of the SGPA accumulators, like unmarked ones.
func ApplyAbsent(subject models.Subject) models.Subject {
	subject.Marks = nil
	subject.Grade = models.GradeAb
	points := 0
	subject.GradePoints = &points
	return subject
}

// RecomputeSemester derives grade and grade points for every marked subject
// and returns the updated subjects along with the semester SGPA (2 decimal
// places) and the credit total over marked subjects. Subjects without marks
// keep their grade fields untouched and contribute to neither accumulator.
// The function is idempotent; the orchestration layer calls it before every
// persist that touches the subject set.
func RecomputeSemester(subjects []models.Subject) ([]models.Subject, float64, int) {
	updated := make([]models.Subject, len(subjects))
	copy(updated, subjects)

	totalGradePoints := 0
	totalCredits := 0
	for i := range updated {
		if updated[i].Marks == nil {
			continue
		}
		grade, points := GradeFor(*updated[i].Marks)
		updated[i].Grade = grade
		p := points
		updated[i].GradePoints = &p

		totalGradePoints += points * updated[i].Credits
		totalCredits += updated[i].Credits
	}

	if totalCredits == 0 {
		return updated, 0, 0
	}
	sgpa := round2(float64(totalGradePoints) / float64(totalCredits))
	return updated, sgpa, totalCredits
}

// RecomputeCGPA computes the cumulative GPA as the credit-weighted mean of
// each semester's stored SGPA. The two-level aggregation (semester SGPA
// weighted by that semester's credits, not a flat subject-level average) is
// deliberate: totalCredits already excludes unmarked subjects, so a semester
// with no marked subjects contributes nothing. Computed on read, never
// stored.
func RecomputeCGPA(semesters []models.Semester) float64 {
	totalGradePoints := 0.0
	totalCredits := 0
	for _, sem := range semesters {
		totalGradePoints += sem.SGPA * float64(sem.TotalCredits)
		totalCredits += sem.TotalCredits
	}
	if totalCredits == 0 {
		return 0
	}
	return round2(totalGradePoints / float64(totalCredits))
}

// BuildPerformance assembles the read-only analytics projection: the
// semester-wise SGPA series ordered by semester number, the overall CGPA,
// credit total, grade distribution and graded-subject count across the
// student's whole history.
func BuildPerformance(semesters []models.Semester) models.PerformanceReport {
	ordered := make([]models.Semester, len(semesters))
	copy(ordered, semesters)
	sort.Slice(ordered, func(i, j int) bool {
		return ordered[i].SemesterNumber < ordered[j].SemesterNumber
	})

	report := models.PerformanceReport{
		SemesterWisePerformance: make([]models.SemesterPerformance, 0, len(ordered)),
		GradeDistribution:       make(map[models.Grade]int, len(models.Grades)),
	}
	for _, grade := range models.Grades {
		report.GradeDistribution[grade] = 0
	}

	totalCredits := 0
	for _, sem := range ordered {
		report.SemesterWisePerformance = append(report.SemesterWisePerformance, models.SemesterPerformance{
			Semester: sem.SemesterNumber,
			SGPA:     sem.SGPA,
			Credits:  sem.TotalCredits,
		})
		totalCredits += sem.TotalCredits

		for _, subject := range sem.Subjects {
			if subject.Grade == "" {
				continue
			}
			report.GradeDistribution[subject.Grade]++
			report.SubjectCount++
		}
	}

	report.OverallCGPA = RecomputeCGPA(ordered)
	report.TotalCredits = totalCredits
	return report
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
