package handler

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/campushub/srms-api/internal/middleware"
	"github.com/campushub/srms-api/internal/models"
	"github.com/campushub/srms-api/internal/service"
)

type fakeAccountStore struct {
	accounts map[string]*models.Account
}

func (f *fakeAccountStore) FindByEmail(ctx context.Context, email string) (*models.Account, error) {
	for _, account := range f.accounts {
		if account.Email == email {
			copied := *account
			return &copied, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (f *fakeAccountStore) FindByID(ctx context.Context, id string) (*models.Account, error) {
	account, ok := f.accounts[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	copied := *account
	return &copied, nil
}

func (f *fakeAccountStore) UpdatePassword(ctx context.Context, id, passwordHash string, updatedAt time.Time) error {
	return nil
}

type fakeSemesterStore struct {
	semesters map[string]*models.Semester
}

func (f *fakeSemesterStore) ListByStudent(ctx context.Context, studentID string) ([]models.Semester, error) {
	var result []models.Semester
	for _, sem := range f.semesters {
		if sem.StudentID == studentID {
			result = append(result, *sem)
		}
	}
	return result, nil
}

func (f *fakeSemesterStore) FindByID(ctx context.Context, id string) (*models.Semester, error) {
	sem, ok := f.semesters[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	copied := *sem
	return &copied, nil
}

func (f *fakeSemesterStore) ExistsForStudent(ctx context.Context, studentID string, semesterNumber int) (bool, error) {
	for _, sem := range f.semesters {
		if sem.StudentID == studentID && sem.SemesterNumber == semesterNumber {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeSemesterStore) Create(ctx context.Context, semester *models.Semester) error {
	if semester.ID == "" {
		semester.ID = "sem-created"
	}
	copied := *semester
	f.semesters[semester.ID] = &copied
	return nil
}

func (f *fakeSemesterStore) Update(ctx context.Context, semester *models.Semester) error {
	copied := *semester
	f.semesters[semester.ID] = &copied
	return nil
}

func (f *fakeSemesterStore) Delete(ctx context.Context, id string) error {
	delete(f.semesters, id)
	return nil
}

func marksValue(v float64) *float64 {
	return &v
}

type testEnv struct {
	router       *gin.Engine
	auth         *service.AuthService
	mentorToken  string
	studentToken string
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	hash, err := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.MinCost)
	require.NoError(t, err)

	roll := "CSE101"
	accounts := &fakeAccountStore{accounts: map[string]*models.Account{
		"mentor-1": {
			ID: "mentor-1", Name: "Dr. Priya Sharma", Email: "priya.cse2@college.edu",
			PasswordHash: string(hash), Role: models.RoleMentor,
			Department: models.DepartmentCSE, Year: 2,
		},
		"student-1": {
			ID: "student-1", Name: "Sneha Kapoor", Email: "sneha.kapoor@student.edu",
			PasswordHash: string(hash), Role: models.RoleStudent,
			Department: models.DepartmentCSE, Year: 2, RollNumber: &roll,
		},
	}}
	semesters := &fakeSemesterStore{semesters: map[string]*models.Semester{
		"sem-1": {
			ID: "sem-1", StudentID: "student-1", SemesterNumber: 1,
			SGPA: 8.0, TotalCredits: 3, Status: models.SemesterCompleted,
			Subjects: []models.Subject{
				{SubjectCode: "CS101", SubjectName: "Programming", Credits: 3, Marks: marksValue(78), Grade: models.GradeA},
			},
		},
	}}

	authSvc := service.NewAuthService(accounts, nil, nil, service.AuthConfig{
		TokenSecret: "test-secret",
		TokenExpiry: time.Hour,
		Issuer:      "srms-api",
	})
	semesterSvc := service.NewSemesterService(semesters, accounts, nil, nil, nil, nil)
	exportSvc := service.NewExportService(semesterSvc, nil)
	semesterHandler := NewSemesterHandler(semesterSvc, exportSvc)

	router := gin.New()
	group := router.Group("/semesters", middleware.JWT(authSvc))
	group.GET("/student/:studentId", semesterHandler.ListByStudent)
	group.GET("/analytics/:studentId", semesterHandler.Performance)
	group.GET("/transcript/:studentId", semesterHandler.Transcript)

	mentorOnly := group.Group("", middleware.RequireRoles(models.RoleMentor))
	mentorOnly.POST("", semesterHandler.Create)
	mentorOnly.DELETE("/:id", semesterHandler.Delete)

	env := &testEnv{router: router, auth: authSvc}
	env.mentorToken = loginToken(t, authSvc, "priya.cse2@college.edu")
	env.studentToken = loginToken(t, authSvc, "sneha.kapoor@student.edu")
	return env
}

func loginToken(t *testing.T, auth *service.AuthService, email string) string {
	t.Helper()
	result, err := auth.Login(context.Background(), models.LoginRequest{Email: email, Password: "password123"})
	require.NoError(t, err)
	return result.AccessToken
}

func (e *testEnv) do(method, path, token string, body interface{}) *httptest.ResponseRecorder {
	var reader *bytes.Reader
	if body != nil {
		raw, _ := json.Marshal(body)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

func TestSemesterRoutesRequireToken(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(http.MethodGet, "/semesters/student/student-1", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestStudentReadsOwnSemesters(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(http.MethodGet, "/semesters/student/student-1", env.studentToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var envelope struct {
		Data models.StudentSemesters `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	require.Len(t, envelope.Data.Semesters, 1)
	assert.Equal(t, 8.0, envelope.Data.CGPA)
}

func TestStudentCannotReadOtherStudent(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(http.MethodGet, "/semesters/student/student-2", env.studentToken, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestStudentBlockedFromMentorRoutes(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(http.MethodPost, "/semesters", env.studentToken, map[string]interface{}{
		"studentId":      "student-1",
		"semesterNumber": 2,
	})
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestMentorCreatesSemester(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(http.MethodPost, "/semesters", env.mentorToken, map[string]interface{}{
		"studentId":      "student-1",
		"semesterNumber": 2,
		"subjects": []map[string]interface{}{
			{"subjectCode": "CS201", "subjectName": "Data Structures", "credits": 4, "marks": 91},
		},
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	var envelope struct {
		Data models.Semester `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	assert.Equal(t, 10.0, envelope.Data.SGPA)
	assert.Equal(t, models.GradeO, envelope.Data.Subjects[0].Grade)
}

func TestMentorCreateDuplicateSemesterConflict(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(http.MethodPost, "/semesters", env.mentorToken, map[string]interface{}{
		"studentId":      "student-1",
		"semesterNumber": 1,
	})
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestAnalyticsEndpoint(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(http.MethodGet, "/semesters/analytics/student-1", env.mentorToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var envelope struct {
		Data models.PerformanceReport `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	assert.Equal(t, 8.0, envelope.Data.OverallCGPA)
	assert.Equal(t, 1, envelope.Data.GradeDistribution[models.GradeA])
}

func TestTranscriptDownload(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(http.MethodGet, "/semesters/transcript/student-1?format=csv", env.mentorToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/csv", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "transcript-CSE101.csv")
	assert.Contains(t, rec.Body.String(), "CS101")
}
