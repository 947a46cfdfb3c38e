package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/campushub/srms-api/internal/models"
	appErrors "github.com/campushub/srms-api/pkg/errors"
)

type mockSemesterRepo struct {
	semesters map[string]*models.Semester
	listCalls int
}

func (m *mockSemesterRepo) ListByStudent(ctx context.Context, studentID string) ([]models.Semester, error) {
	m.listCalls++
	var result []models.Semester
	for _, sem := range m.semesters {
		if sem.StudentID == studentID {
			result = append(result, *sem)
		}
	}
	return result, nil
}

func (m *mockSemesterRepo) FindByID(ctx context.Context, id string) (*models.Semester, error) {
	sem, ok := m.semesters[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	copied := *sem
	return &copied, nil
}

func (m *mockSemesterRepo) ExistsForStudent(ctx context.Context, studentID string, semesterNumber int) (bool, error) {
	for _, sem := range m.semesters {
		if sem.StudentID == studentID && sem.SemesterNumber == semesterNumber {
			return true, nil
		}
	}
	return false, nil
}

func (m *mockSemesterRepo) Create(ctx context.Context, semester *models.Semester) error {
	if m.semesters == nil {
		m.semesters = make(map[string]*models.Semester)
	}
	if semester.ID == "" {
		semester.ID = "generated-sem-id"
	}
	copied := *semester
	m.semesters[semester.ID] = &copied
	return nil
}

func (m *mockSemesterRepo) Update(ctx context.Context, semester *models.Semester) error {
	copied := *semester
	m.semesters[semester.ID] = &copied
	return nil
}

func (m *mockSemesterRepo) Delete(ctx context.Context, id string) error {
	delete(m.semesters, id)
	return nil
}

func (m *mockSemesterRepo) DeleteByStudent(ctx context.Context, studentID string) error {
	for id, sem := range m.semesters {
		if sem.StudentID == studentID {
			delete(m.semesters, id)
		}
	}
	return nil
}

type mockCacheRepo struct {
	entries     map[string][]byte
	invalidated []string
}

func (m *mockCacheRepo) Get(ctx context.Context, key string, dest interface{}) error {
	raw, ok := m.entries[key]
	if !ok {
		return appErrors.ErrCacheMiss
	}
	return json.Unmarshal(raw, dest)
}

func (m *mockCacheRepo) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	if m.entries == nil {
		m.entries = make(map[string][]byte)
	}
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	m.entries[key] = raw
	return nil
}

func (m *mockCacheRepo) DeleteByPattern(ctx context.Context, pattern string) error {
	m.invalidated = append(m.invalidated, pattern)
	for key := range m.entries {
		if strings.HasPrefix(key, strings.TrimSuffix(pattern, "*")) {
			delete(m.entries, key)
		}
	}
	return nil
}

func studentClaims(id string) *models.JWTClaims {
	return &models.JWTClaims{
		UserID:     id,
		Role:       models.RoleStudent,
		Department: models.DepartmentCSE,
		Year:       2,
	}
}

func newSemesterFixture() (*SemesterService, *mockSemesterRepo, *mockAccountRepo, *mockCacheRepo) {
	accounts := &mockAccountRepo{accounts: map[string]*models.Account{
		"student-1": {
			ID:         "student-1",
			Name:       "Sneha Kapoor",
			Role:       models.RoleStudent,
			Department: models.DepartmentCSE,
			Year:       2,
			RollNumber: rollPtr("CSE101"),
		},
		"student-2": {
			ID:         "student-2",
			Name:       "Meera Krishnan",
			Role:       models.RoleStudent,
			Department: models.DepartmentECE,
			Year:       1,
			RollNumber: rollPtr("ECE001"),
		},
	}}
	semesters := &mockSemesterRepo{semesters: map[string]*models.Semester{
		"sem-1": {
			ID:             "sem-1",
			StudentID:      "student-1",
			SemesterNumber: 1,
			SGPA:           8.33,
			TotalCredits:   6,
			Status:         models.SemesterCompleted,
			Subjects: []models.Subject{
				{SubjectCode: "CS101", SubjectName: "Programming", Credits: 3, Marks: marks(78), Grade: models.GradeA},
				{SubjectCode: "MA101", SubjectName: "Calculus", Credits: 3, Marks: marks(88), Grade: models.GradeAPlus},
			},
		},
	}}
	cacheRepo := &mockCacheRepo{}
	cacheSvc := NewCacheService(cacheRepo, nil, time.Minute, nil, true)
	svc := NewSemesterService(semesters, accounts, cacheSvc, nil, nil, nil)
	return svc, semesters, accounts, cacheRepo
}

func marks(v float64) *float64 {
	return &v
}

func TestSemesterCreateComputesDerivedFields(t *testing.T) {
	svc, repo, _, _ := newSemesterFixture()

	created, err := svc.Create(context.Background(), mentorClaims(), CreateSemesterRequest{
		StudentID:      "student-1",
		SemesterNumber: 2,
		AcademicYear:   "2025-26",
		Subjects: []SubjectInput{
			{SubjectCode: "CS201", SubjectName: "Data Structures", Credits: 4, Marks: marks(91)},
			{SubjectCode: "CS202", SubjectName: "Digital Logic", Credits: 3, Marks: marks(76)},
			{SubjectCode: "CS203", SubjectName: "Discrete Math", Credits: 3},
		},
	})
	require.NoError(t, err)

	assert.Equal(t, models.SemesterInProgress, created.Status)
	// (10*4 + 8*3) / 7 = 9.142857... -> 9.14
	assert.Equal(t, 9.14, created.SGPA)
	assert.Equal(t, 7, created.TotalCredits)
	assert.Equal(t, models.GradeO, created.Subjects[0].Grade)
	assert.Empty(t, created.Subjects[2].Grade)
	assert.NotNil(t, repo.semesters[created.ID])
}

func TestSemesterCreateDuplicateConflict(t *testing.T) {
	svc, _, _, _ := newSemesterFixture()

	_, err := svc.Create(context.Background(), mentorClaims(), CreateSemesterRequest{
		StudentID:      "student-1",
		SemesterNumber: 1,
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)
}

func TestSemesterCreateRejectsOutOfRangeMarks(t *testing.T) {
	svc, repo, _, _ := newSemesterFixture()
	before := len(repo.semesters)

	_, err := svc.Create(context.Background(), mentorClaims(), CreateSemesterRequest{
		StudentID:      "student-1",
		SemesterNumber: 2,
		Subjects: []SubjectInput{
			{SubjectCode: "CS201", SubjectName: "Data Structures", Credits: 4, Marks: marks(101)},
		},
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
	assert.Len(t, repo.semesters, before)
}

func TestSemesterCreateOutOfScopeStudent(t *testing.T) {
	svc, _, _, _ := newSemesterFixture()

	_, err := svc.Create(context.Background(), mentorClaims(), CreateSemesterRequest{
		StudentID:      "student-2",
		SemesterNumber: 1,
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestSemesterAbsentOverride(t *testing.T) {
	svc, _, _, _ := newSemesterFixture()

	created, err := svc.Create(context.Background(), mentorClaims(), CreateSemesterRequest{
		StudentID:      "student-1",
		SemesterNumber: 2,
		Subjects: []SubjectInput{
			{SubjectCode: "CS201", SubjectName: "Data Structures", Credits: 4, Marks: marks(95), Absent: true},
			{SubjectCode: "CS202", SubjectName: "Digital Logic", Credits: 3, Marks: marks(90)},
		},
	})
	require.NoError(t, err)

	// absent wins over any supplied marks and stays out of the SGPA
	assert.Nil(t, created.Subjects[0].Marks)
	assert.Equal(t, models.GradeAb, created.Subjects[0].Grade)
	assert.Equal(t, 10.0, created.SGPA)
	assert.Equal(t, 3, created.TotalCredits)
}

func TestSemesterListByStudentSelf(t *testing.T) {
	svc, _, _, _ := newSemesterFixture()

	result, err := svc.ListByStudent(context.Background(), studentClaims("student-1"), "student-1")
	require.NoError(t, err)
	require.Len(t, result.Semesters, 1)
	assert.Equal(t, 8.33, result.CGPA)
	require.NotNil(t, result.Student)
	assert.Equal(t, "student-1", result.Student.ID)
}

func TestSemesterListByStudentOtherStudentDenied(t *testing.T) {
	svc, _, _, _ := newSemesterFixture()

	_, err := svc.ListByStudent(context.Background(), studentClaims("student-2"), "student-1")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestSemesterStudentCannotWrite(t *testing.T) {
	svc, _, _, _ := newSemesterFixture()

	_, err := svc.Update(context.Background(), studentClaims("student-1"), "sem-1", UpdateSemesterRequest{
		Status: models.SemesterCompleted,
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestSemesterUpdateReplacesSubjectsWhole(t *testing.T) {
	svc, _, _, _ := newSemesterFixture()

	updated, err := svc.Update(context.Background(), mentorClaims(), "sem-1", UpdateSemesterRequest{
		Subjects: []SubjectInput{
			{SubjectCode: "CS104", SubjectName: "Operating Systems", Credits: 4, Marks: marks(52)},
		},
	})
	require.NoError(t, err)
	require.Len(t, updated.Subjects, 1)
	assert.Equal(t, models.GradeB, updated.Subjects[0].Grade)
	assert.Equal(t, 6.0, updated.SGPA)
	assert.Equal(t, 4, updated.TotalCredits)
}

func TestSemesterUpdateNilSubjectsKeepsExisting(t *testing.T) {
	svc, _, _, _ := newSemesterFixture()

	updated, err := svc.Update(context.Background(), mentorClaims(), "sem-1", UpdateSemesterRequest{
		Status: models.SemesterCompleted,
	})
	require.NoError(t, err)
	assert.Len(t, updated.Subjects, 2)
	assert.Equal(t, models.SemesterCompleted, updated.Status)
}

func TestSemesterAddSubjectDefaultsCredits(t *testing.T) {
	svc, _, _, _ := newSemesterFixture()

	updated, err := svc.AddSubject(context.Background(), mentorClaims(), "sem-1", AddSubjectRequest{
		SubjectCode: "HS101",
		SubjectName: "Communication",
		Marks:       marks(64),
	})
	require.NoError(t, err)
	require.Len(t, updated.Subjects, 3)
	assert.Equal(t, 3, updated.Subjects[2].Credits)
	assert.Equal(t, models.GradeBPlus, updated.Subjects[2].Grade)
	assert.Equal(t, 9, updated.TotalCredits)
}

func TestSemesterPerformanceCaches(t *testing.T) {
	svc, repo, _, cacheRepo := newSemesterFixture()

	report, err := svc.Performance(context.Background(), mentorClaims(), "student-1")
	require.NoError(t, err)
	assert.Equal(t, 8.33, report.OverallCGPA)
	assert.Equal(t, 1, repo.listCalls)
	assert.Contains(t, cacheRepo.entries, "analytics:student:student-1")

	again, err := svc.Performance(context.Background(), mentorClaims(), "student-1")
	require.NoError(t, err)
	assert.Equal(t, report.OverallCGPA, again.OverallCGPA)
	assert.Equal(t, 1, repo.listCalls, "second read must come from cache")
}

func TestSemesterWritesInvalidateAnalyticsCache(t *testing.T) {
	svc, _, _, cacheRepo := newSemesterFixture()

	_, err := svc.Performance(context.Background(), mentorClaims(), "student-1")
	require.NoError(t, err)
	require.Contains(t, cacheRepo.entries, "analytics:student:student-1")

	err = svc.Delete(context.Background(), mentorClaims(), "sem-1")
	require.NoError(t, err)
	assert.NotContains(t, cacheRepo.entries, "analytics:student:student-1")
}

func TestSemesterDeleteOutOfScope(t *testing.T) {
	svc, semesters, _, _ := newSemesterFixture()
	semesters.semesters["sem-2"] = &models.Semester{
		ID:             "sem-2",
		StudentID:      "student-2",
		SemesterNumber: 1,
	}

	err := svc.Delete(context.Background(), mentorClaims(), "sem-2")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
	assert.NotNil(t, semesters.semesters["sem-2"])
}
