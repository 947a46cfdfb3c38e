package grading

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/campushub/srms-api/internal/models"
)

func marksPtr(v float64) *float64 {
	return &v
}

func TestGradeForBoundaries(t *testing.T) {
	cases := []struct {
		marks  float64
		grade  models.Grade
		points int
	}{
		{100, models.GradeO, 10},
		{90, models.GradeO, 10},
		{89.99, models.GradeAPlus, 9},
		{80, models.GradeAPlus, 9},
		{70, models.GradeA, 8},
		{60, models.GradeBPlus, 7},
		{50, models.GradeB, 6},
		{40, models.GradeC, 5},
		{35, models.GradeP, 4},
		{34.99, models.GradeF, 0},
		{0, models.GradeF, 0},
	}
	for _, tc := range cases {
		grade, points := GradeFor(tc.marks)
		assert.Equal(t, tc.grade, grade, "marks %v", tc.marks)
		assert.Equal(t, tc.points, points, "marks %v", tc.marks)
	}
}

func TestApplyAbsent(t *testing.T) {
	subject := models.Subject{SubjectCode: "CS101", Credits: 4, Marks: marksPtr(72)}
	out := ApplyAbsent(subject)

	assert.Nil(t, out.Marks)
	assert.Equal(t, models.GradeAb, out.Grade)
	require.NotNil(t, out.GradePoints)
	assert.Equal(t, 0, *out.GradePoints)
}

func TestRecomputeSemester(t *testing.T) {
	subjects := []models.Subject{
		{SubjectCode: "CS101", Credits: 4, Marks: marksPtr(91)},
		{SubjectCode: "CS102", Credits: 3, Marks: marksPtr(76)},
		{SubjectCode: "CS103", Credits: 3}, // not yet marked
	}

	updated, sgpa, credits := RecomputeSemester(subjects)

	require.Len(t, updated, 3)
	assert.Equal(t, models.GradeO, updated[0].Grade)
	assert.Equal(t, models.GradeA, updated[1].Grade)
	assert.Empty(t, updated[2].Grade)
	assert.Nil(t, updated[2].GradePoints)

	// (10*4 + 8*3) / 7 = 9.142857... -> 9.14
	assert.Equal(t, 9.14, sgpa)
	assert.Equal(t, 7, credits)

	// input slice must not be mutated
	assert.Empty(t, subjects[0].Grade)
}

func TestRecomputeSemesterWorkedExample(t *testing.T) {
	subjects := []models.Subject{
		{SubjectCode: "MA201", Credits: 4, Marks: marksPtr(85)},
		{SubjectCode: "PH201", Credits: 2, Marks: marksPtr(58)},
	}

	_, sgpa, credits := RecomputeSemester(subjects)

	// (9*4 + 6*2) / 6 = 8
	assert.Equal(t, 8.0, sgpa)
	assert.Equal(t, 6, credits)
}

func TestRecomputeSemesterEmptyAndUnmarked(t *testing.T) {
	_, sgpa, credits := RecomputeSemester(nil)
	assert.Zero(t, sgpa)
	assert.Zero(t, credits)

	_, sgpa, credits = RecomputeSemester([]models.Subject{{SubjectCode: "CS101", Credits: 4}})
	assert.Zero(t, sgpa)
	assert.Zero(t, credits)
}

func TestRecomputeSemesterIdempotent(t *testing.T) {
	subjects := []models.Subject{
		{SubjectCode: "CS101", Credits: 4, Marks: marksPtr(66)},
		{SubjectCode: "CS102", Credits: 3, Marks: marksPtr(44)},
	}

	first, sgpa1, credits1 := RecomputeSemester(subjects)
	second, sgpa2, credits2 := RecomputeSemester(first)

	assert.Equal(t, sgpa1, sgpa2)
	assert.Equal(t, credits1, credits2)
	assert.Equal(t, first, second)
}

func TestRecomputeSemesterAbsentExcluded(t *testing.T) {
	subjects := []models.Subject{
		ApplyAbsent(models.Subject{SubjectCode: "CS101", Credits: 4}),
		{SubjectCode: "CS102", Credits: 3, Marks: marksPtr(90)},
	}

	updated, sgpa, credits := RecomputeSemester(subjects)

	assert.Equal(t, models.GradeAb, updated[0].Grade)
	assert.Equal(t, 10.0, sgpa)
	assert.Equal(t, 3, credits)
}

func TestRecomputeCGPA(t *testing.T) {
	semesters := []models.Semester{
		{SemesterNumber: 1, SGPA: 8.33, TotalCredits: 6},
		{SemesterNumber: 2, SGPA: 9.00, TotalCredits: 5},
	}

	// (8.33*6 + 9.00*5) / 11 = 8.6345... -> 8.63
	assert.Equal(t, 8.63, RecomputeCGPA(semesters))
}

func TestRecomputeCGPANoCredits(t *testing.T) {
	assert.Zero(t, RecomputeCGPA(nil))
	assert.Zero(t, RecomputeCGPA([]models.Semester{{SemesterNumber: 1}}))
}

func TestBuildPerformance(t *testing.T) {
	semesters := []models.Semester{
		{
			SemesterNumber: 2,
			SGPA:           9.0,
			TotalCredits:   5,
			Subjects: []models.Subject{
				{SubjectCode: "CS201", Credits: 5, Marks: marksPtr(92), Grade: models.GradeO},
			},
		},
		{
			SemesterNumber: 1,
			SGPA:           8.0,
			TotalCredits:   6,
			Subjects: []models.Subject{
				{SubjectCode: "CS101", Credits: 3, Marks: marksPtr(75), Grade: models.GradeA},
				{SubjectCode: "CS102", Credits: 3, Marks: marksPtr(82), Grade: models.GradeAPlus},
				{SubjectCode: "CS103", Credits: 3}, // unmarked, no grade yet
			},
		},
	}

	report := BuildPerformance(semesters)

	require.Len(t, report.SemesterWisePerformance, 2)
	assert.Equal(t, 1, report.SemesterWisePerformance[0].Semester)
	assert.Equal(t, 2, report.SemesterWisePerformance[1].Semester)

	assert.Equal(t, 11, report.TotalCredits)
	assert.Equal(t, 3, report.SubjectCount)
	assert.Equal(t, 1, report.GradeDistribution[models.GradeO])
	assert.Equal(t, 1, report.GradeDistribution[models.GradeA])
	assert.Equal(t, 1, report.GradeDistribution[models.GradeAPlus])
	assert.Equal(t, 0, report.GradeDistribution[models.GradeF])

	// (8*6 + 9*5) / 11 = 8.4545... -> 8.45
	assert.Equal(t, 8.45, report.OverallCGPA)
}
