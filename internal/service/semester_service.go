package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/campushub/srms-api/internal/grading"
	"github.com/campushub/srms-api/internal/models"
	"github.com/campushub/srms-api/internal/policy"
	appErrors "github.com/campushub/srms-api/pkg/errors"
)

type semesterRepository interface {
	ListByStudent(ctx context.Context, studentID string) ([]models.Semester, error)
	FindByID(ctx context.Context, id string) (*models.Semester, error)
	ExistsForStudent(ctx context.Context, studentID string, semesterNumber int) (bool, error)
	Create(ctx context.Context, semester *models.Semester) error
	Update(ctx context.Context, semester *models.Semester) error
	Delete(ctx context.Context, id string) error
}

type studentReader interface {
	FindByID(ctx context.Context, id string) (*models.Account, error)
}

// SubjectInput is the caller-supplied shape of one subject. Grade and grade
// points are never part of it; they are derived. The absent flag is the
// manual override that assigns the Ab grade outside the marks calculation.
type SubjectInput struct {
	SubjectCode string   `json:"subjectCode" validate:"required"`
	SubjectName string   `json:"subjectName" validate:"required"`
	Credits     int      `json:"credits" validate:"omitempty,min=1"`
	Marks       *float64 `json:"marks" validate:"omitempty,min=0,max=100"`
	IsElective  bool     `json:"isElective"`
	Absent      bool     `json:"absent"`
}

// CreateSemesterRequest holds the payload for opening a semester record.
type CreateSemesterRequest struct {
	StudentID      string         `json:"studentId" validate:"required"`
	SemesterNumber int            `json:"semesterNumber" validate:"required,min=1,max=8"`
	Subjects       []SubjectInput `json:"subjects" validate:"dive"`
	AcademicYear   string         `json:"academicYear"`
}

// UpdateSemesterRequest replaces the subject array and/or status. A nil
// subject slice keeps the existing one; a non-nil slice replaces it whole
// (last write wins, no merge).
type UpdateSemesterRequest struct {
	Subjects []SubjectInput        `json:"subjects" validate:"omitempty,dive"`
	Status   models.SemesterStatus `json:"status" validate:"omitempty,oneof='In Progress' Completed"`
}

// AddSubjectRequest appends one subject to an existing semester.
type AddSubjectRequest struct {
	SubjectCode string   `json:"subjectCode" validate:"required"`
	SubjectName string   `json:"subjectName" validate:"required"`
	Credits     int      `json:"credits" validate:"omitempty,min=1"`
	Marks       *float64 `json:"marks" validate:"omitempty,min=0,max=100"`
	IsElective  bool     `json:"isElective"`
}

// SemesterService orchestrates semester record flows: it validates input,
// applies the access policy, invokes the grade engine before every persist
// and keeps the analytics cache coherent.
type SemesterService struct {
	semesters semesterRepository
	students  studentReader
	cache     *CacheService
	metrics   *MetricsService
	validator *validator.Validate
	logger    *zap.Logger
}

// NewSemesterService constructs the semester service.
func NewSemesterService(semesters semesterRepository, students studentReader, cache *CacheService, metrics *MetricsService, validate *validator.Validate, logger *zap.Logger) *SemesterService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SemesterService{semesters: semesters, students: students, cache: cache, metrics: metrics, validator: validate, logger: logger}
}

// ListByStudent returns a student's semesters ordered by semester number
// together with the CGPA computed on read.
func (s *SemesterService) ListByStudent(ctx context.Context, actor *models.JWTClaims, studentID string) (*models.StudentSemesters, error) {
	student, err := s.authorizedStudent(ctx, actor, studentID, policy.ReadSemester)
	if err != nil {
		return nil, err
	}
	semesters, err := s.semesters.ListByStudent(ctx, student.ID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list semesters")
	}
	return &models.StudentSemesters{
		Semesters: semesters,
		CGPA:      grading.RecomputeCGPA(semesters),
		Student:   student,
	}, nil
}

// Get returns a single semester record visible to the caller.
func (s *SemesterService) Get(ctx context.Context, actor *models.JWTClaims, semesterID string) (*models.Semester, error) {
	semester, _, err := s.authorizedSemester(ctx, actor, semesterID, policy.ReadSemester)
	return semester, err
}

// Create opens a new semester record for a student in the mentor's scope. At
// most one record may exist per (student, semester number) pair.
func (s *SemesterService) Create(ctx context.Context, actor *models.JWTClaims, req CreateSemesterRequest) (*models.Semester, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid semester payload")
	}
	student, err := s.authorizedStudent(ctx, actor, req.StudentID, policy.WriteSemester)
	if err != nil {
		return nil, err
	}

	exists, err := s.semesters.ExistsForStudent(ctx, student.ID, req.SemesterNumber)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check existing semester")
	}
	if exists {
		return nil, appErrors.Clone(appErrors.ErrConflict, "semester already exists for this student")
	}

	subjects, sgpa, credits := grading.RecomputeSemester(buildSubjects(req.Subjects))
	semester := &models.Semester{
		StudentID:      student.ID,
		SemesterNumber: req.SemesterNumber,
		Subjects:       subjects,
		SGPA:           sgpa,
		TotalCredits:   credits,
		Status:         models.SemesterInProgress,
		AcademicYear:   req.AcademicYear,
	}
	if err := s.semesters.Create(ctx, semester); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create semester")
	}
	s.invalidateAnalytics(ctx, student.ID)
	return semester, nil
}

// Update replaces the semester's subject array and/or status, recomputing
// the derived fields before persisting.
func (s *SemesterService) Update(ctx context.Context, actor *models.JWTClaims, semesterID string, req UpdateSemesterRequest) (*models.Semester, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid semester payload")
	}
	semester, student, err := s.authorizedSemester(ctx, actor, semesterID, policy.WriteSemester)
	if err != nil {
		return nil, err
	}

	if req.Subjects != nil {
		semester.Subjects = buildSubjects(req.Subjects)
	}
	if req.Status != "" {
		semester.Status = req.Status
	}
	semester.Subjects, semester.SGPA, semester.TotalCredits = grading.RecomputeSemester(semester.Subjects)

	if err := s.semesters.Update(ctx, semester); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update semester")
	}
	s.invalidateAnalytics(ctx, student.ID)
	return semester, nil
}

// AddSubject appends a subject to an existing semester record.
func (s *SemesterService) AddSubject(ctx context.Context, actor *models.JWTClaims, semesterID string, req AddSubjectRequest) (*models.Semester, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid subject payload")
	}
	semester, student, err := s.authorizedSemester(ctx, actor, semesterID, policy.WriteSemester)
	if err != nil {
		return nil, err
	}

	credits := req.Credits
	if credits == 0 {
		credits = 3
	}
	semester.Subjects = append(semester.Subjects, models.Subject{
		SubjectCode: req.SubjectCode,
		SubjectName: req.SubjectName,
		Credits:     credits,
		Marks:       req.Marks,
		IsElective:  req.IsElective,
	})
	semester.Subjects, semester.SGPA, semester.TotalCredits = grading.RecomputeSemester(semester.Subjects)

	if err := s.semesters.Update(ctx, semester); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update semester")
	}
	s.invalidateAnalytics(ctx, student.ID)
	return semester, nil
}

// Delete removes a semester record in the mentor's scope.
func (s *SemesterService) Delete(ctx context.Context, actor *models.JWTClaims, semesterID string) error {
	semester, student, err := s.authorizedSemester(ctx, actor, semesterID, policy.DeleteSemester)
	if err != nil {
		return err
	}
	if err := s.semesters.Delete(ctx, semester.ID); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete semester")
	}
	s.invalidateAnalytics(ctx, student.ID)
	return nil
}

// Performance aggregates the student's academic history. Results are cached
// per student; any semester write for that student invalidates the entry.
func (s *SemesterService) Performance(ctx context.Context, actor *models.JWTClaims, studentID string) (*models.PerformanceReport, error) {
	student, err := s.authorizedStudent(ctx, actor, studentID, policy.ReadAnalytics)
	if err != nil {
		return nil, err
	}

	cacheKey := analyticsCacheKey(student.ID)
	var cached models.PerformanceReport
	if hit, err := s.cache.Get(ctx, cacheKey, &cached); err == nil && hit {
		return &cached, nil
	}

	start := time.Now()
	semesters, err := s.semesters.ListByStudent(ctx, student.ID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list semesters")
	}
	if s.metrics != nil {
		s.metrics.ObserveDBQuery("analytics_semesters", time.Since(start))
	}
	report := grading.BuildPerformance(semesters)

	if err := s.cache.Set(ctx, cacheKey, report, 0); err != nil {
		s.logger.Warn("cache performance report", zap.Error(err))
	}
	return &report, nil
}

// authorizedStudent loads the owning student and applies the access policy.
// Missing and out-of-scope students produce the same not-found error.
func (s *SemesterService) authorizedStudent(ctx context.Context, actor *models.JWTClaims, studentID string, action policy.Action) (*models.Account, error) {
	student, err := s.students.FindByID(ctx, studentID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}
	if student.Role != models.RoleStudent {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
	}
	caller := policy.CallerFromClaims(actor)
	if policy.Authorize(caller, action, policy.TargetFromStudent(student)) != policy.Allow {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
	}
	return student, nil
}

// authorizedSemester loads a semester together with its owning student and
// applies the access policy against the student's scope.
func (s *SemesterService) authorizedSemester(ctx context.Context, actor *models.JWTClaims, semesterID string, action policy.Action) (*models.Semester, *models.Account, error) {
	semester, err := s.semesters.FindByID(ctx, semesterID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil, appErrors.Clone(appErrors.ErrNotFound, "semester not found")
		}
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load semester")
	}
	student, err := s.students.FindByID(ctx, semester.StudentID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil, appErrors.Clone(appErrors.ErrNotFound, "semester not found")
		}
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}
	caller := policy.CallerFromClaims(actor)
	if policy.Authorize(caller, action, policy.TargetFromStudent(student)) != policy.Allow {
		return nil, nil, appErrors.Clone(appErrors.ErrNotFound, "semester not found")
	}
	return semester, student, nil
}

func (s *SemesterService) invalidateAnalytics(ctx context.Context, studentID string) {
	if err := s.cache.Invalidate(ctx, analyticsCacheKey(studentID)); err != nil {
		s.logger.Warn("invalidate analytics cache", zap.String("student_id", studentID), zap.Error(err))
	}
}

func analyticsCacheKey(studentID string) string {
	return fmt.Sprintf("analytics:student:%s", studentID)
}

func buildSubjects(inputs []SubjectInput) []models.Subject {
	subjects := make([]models.Subject, 0, len(inputs))
	for _, in := range inputs {
		credits := in.Credits
		if credits == 0 {
			credits = 3
		}
		subject := models.Subject{
			SubjectCode: in.SubjectCode,
			SubjectName: in.SubjectName,
			Credits:     credits,
			Marks:       in.Marks,
			IsElective:  in.IsElective,
		}
		if in.Absent {
			subject = grading.ApplyAbsent(subject)
		}
		subjects = append(subjects, subject)
	}
	return subjects
}
