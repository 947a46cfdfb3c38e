package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/campushub/srms-api/internal/models"
	"github.com/campushub/srms-api/internal/policy"
	appErrors "github.com/campushub/srms-api/pkg/errors"
)

type accountRepository interface {
	FindByID(ctx context.Context, id string) (*models.Account, error)
	List(ctx context.Context, filter models.AccountFilter) ([]models.Account, error)
	ExistsByEmailOrRoll(ctx context.Context, email string, rollNumber *string, excludeID string) (bool, error)
	Create(ctx context.Context, account *models.Account) error
	Update(ctx context.Context, account *models.Account) error
	Delete(ctx context.Context, id string) error
}

type semesterRemover interface {
	DeleteByStudent(ctx context.Context, studentID string) error
}

// CreateStudentRequest holds the payload for registering a student. The
// department and year are not part of it: they are always forced to the
// creating mentor's own scope.
type CreateStudentRequest struct {
	Name          string     `json:"name" validate:"required"`
	Email         string     `json:"email" validate:"required,email"`
	Password      string     `json:"password" validate:"required,min=6"`
	RollNumber    string     `json:"rollNumber" validate:"required"`
	PhoneNumber   string     `json:"phoneNumber"`
	Address       string     `json:"address"`
	DateOfBirth   *time.Time `json:"dateOfBirth"`
	Gender        string     `json:"gender" validate:"omitempty,oneof=Male Female Other"`
	ParentName    string     `json:"parentName"`
	ParentContact string     `json:"parentContact"`
}

// UpdateStudentRequest holds the mutable profile fields. Role, department,
// year and roll number are immutable through this path; empty fields keep
// their current value.
type UpdateStudentRequest struct {
	Name          string     `json:"name"`
	Email         string     `json:"email" validate:"omitempty,email"`
	PhoneNumber   string     `json:"phoneNumber"`
	Address       string     `json:"address"`
	DateOfBirth   *time.Time `json:"dateOfBirth"`
	Gender        string     `json:"gender" validate:"omitempty,oneof=Male Female Other"`
	ParentName    string     `json:"parentName"`
	ParentContact string     `json:"parentContact"`
}

// StudentService handles mentor-driven roster management. Every operation is
// scoped to the acting mentor's (department, year); out-of-scope students
// surface as not found rather than forbidden.
type StudentService struct {
	accounts  accountRepository
	semesters semesterRemover
	validator *validator.Validate
	logger    *zap.Logger
}

// NewStudentService constructs the student service.
func NewStudentService(accounts accountRepository, semesters semesterRemover, validate *validator.Validate, logger *zap.Logger) *StudentService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StudentService{accounts: accounts, semesters: semesters, validator: validate, logger: logger}
}

// List returns the students in the acting mentor's department and year. The
// scoping happens in the query itself, never client-side.
func (s *StudentService) List(ctx context.Context, actor *models.JWTClaims) ([]models.Account, error) {
	caller := policy.CallerFromClaims(actor)
	if caller.Role != models.RoleMentor {
		return nil, appErrors.ErrForbidden
	}
	filter := models.AccountFilter{
		Role:       models.RoleStudent,
		Department: caller.Department,
		Year:       caller.Year,
	}
	students, err := s.accounts.List(ctx, filter)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list students")
	}
	return students, nil
}

// Get returns a single student visible to the acting mentor.
func (s *StudentService) Get(ctx context.Context, actor *models.JWTClaims, id string) (*models.Account, error) {
	return s.authorizedStudent(ctx, actor, id, policy.ReadStudent)
}

// Create registers a new student in the mentor's own department and year.
func (s *StudentService) Create(ctx context.Context, actor *models.JWTClaims, req CreateStudentRequest) (*models.Account, error) {
	caller := policy.CallerFromClaims(actor)
	if caller.Role != models.RoleMentor {
		return nil, appErrors.ErrForbidden
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid student payload")
	}

	roll := req.RollNumber
	exists, err := s.accounts.ExistsByEmailOrRoll(ctx, req.Email, &roll, "")
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check duplicates")
	}
	if exists {
		return nil, appErrors.Clone(appErrors.ErrConflict, "student with this email or roll number already exists")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to hash password")
	}

	student := &models.Account{
		Name:         req.Name,
		Email:        req.Email,
		PasswordHash: string(hash),
		Role:         models.RoleStudent,
		// Forced to the creating mentor's scope; client input is ignored.
		Department:    caller.Department,
		Year:          caller.Year,
		RollNumber:    &roll,
		PhoneNumber:   req.PhoneNumber,
		Address:       req.Address,
		DateOfBirth:   req.DateOfBirth,
		Gender:        req.Gender,
		ParentName:    req.ParentName,
		ParentContact: req.ParentContact,
	}
	if err := s.accounts.Create(ctx, student); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create student")
	}
	s.logger.Info("student created",
		zap.String("student_id", student.ID),
		zap.String("mentor_id", caller.ID),
		zap.String("department", string(student.Department)),
		zap.Int("year", student.Year))
	return student, nil
}

// Update modifies the permitted profile fields of a student in scope.
func (s *StudentService) Update(ctx context.Context, actor *models.JWTClaims, id string, req UpdateStudentRequest) (*models.Account, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid student payload")
	}
	student, err := s.authorizedStudent(ctx, actor, id, policy.WriteStudent)
	if err != nil {
		return nil, err
	}

	if req.Email != "" && req.Email != student.Email {
		exists, err := s.accounts.ExistsByEmailOrRoll(ctx, req.Email, nil, student.ID)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check duplicates")
		}
		if exists {
			return nil, appErrors.Clone(appErrors.ErrConflict, "email already in use")
		}
		student.Email = req.Email
	}
	if req.Name != "" {
		student.Name = req.Name
	}
	if req.PhoneNumber != "" {
		student.PhoneNumber = req.PhoneNumber
	}
	if req.Address != "" {
		student.Address = req.Address
	}
	if req.DateOfBirth != nil {
		student.DateOfBirth = req.DateOfBirth
	}
	if req.Gender != "" {
		student.Gender = req.Gender
	}
	if req.ParentName != "" {
		student.ParentName = req.ParentName
	}
	if req.ParentContact != "" {
		student.ParentContact = req.ParentContact
	}

	if err := s.accounts.Update(ctx, student); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update student")
	}
	return student, nil
}

// Delete removes a student in scope together with their semester records.
func (s *StudentService) Delete(ctx context.Context, actor *models.JWTClaims, id string) error {
	student, err := s.authorizedStudent(ctx, actor, id, policy.DeleteStudent)
	if err != nil {
		return err
	}
	if err := s.semesters.DeleteByStudent(ctx, student.ID); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete semester records")
	}
	if err := s.accounts.Delete(ctx, student.ID); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete student")
	}
	s.logger.Info("student deleted", zap.String("student_id", student.ID), zap.String("mentor_id", actor.UserID))
	return nil
}

// authorizedStudent loads a student and applies the access policy. A missing
// record and an out-of-scope record produce the same not-found error.
func (s *StudentService) authorizedStudent(ctx context.Context, actor *models.JWTClaims, id string, action policy.Action) (*models.Account, error) {
	account, err := s.accounts.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}
	if account.Role != models.RoleStudent {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
	}
	caller := policy.CallerFromClaims(actor)
	if policy.Authorize(caller, action, policy.TargetFromStudent(account)) != policy.Allow {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
	}
	return account, nil
}
