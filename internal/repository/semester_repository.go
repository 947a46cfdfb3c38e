package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/campushub/srms-api/internal/models"
)

const semesterColumns = `id, student_id, semester_number, subjects, sgpa, total_credits, status, academic_year, created_at, updated_at`

// SemesterRepository manages persistence for semester records with their
// embedded subject arrays.
type SemesterRepository struct {
	db *sqlx.DB
}

// NewSemesterRepository constructs a SemesterRepository.
func NewSemesterRepository(db *sqlx.DB) *SemesterRepository {
	return &SemesterRepository{db: db}
}

// ListByStudent returns all semesters of a student ordered by semester number.
func (r *SemesterRepository) ListByStudent(ctx context.Context, studentID string) ([]models.Semester, error) {
	query := fmt.Sprintf(`SELECT %s FROM semesters WHERE student_id = $1 ORDER BY semester_number`, semesterColumns)
	var semesters []models.Semester
	if err := r.db.SelectContext(ctx, &semesters, query, studentID); err != nil {
		return nil, fmt.Errorf("list semesters: %w", err)
	}
	return semesters, nil
}

// FindByID fetches a semester record by ID.
func (r *SemesterRepository) FindByID(ctx context.Context, id string) (*models.Semester, error) {
	query := fmt.Sprintf(`SELECT %s FROM semesters WHERE id = $1 LIMIT 1`, semesterColumns)
	var semester models.Semester
	if err := r.db.GetContext(ctx, &semester, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find semester by id: %w", err)
	}
	return &semester, nil
}

// ExistsForStudent reports whether the student already has a record for the
// given semester number.
func (r *SemesterRepository) ExistsForStudent(ctx context.Context, studentID string, semesterNumber int) (bool, error) {
	const query = `SELECT 1 FROM semesters WHERE student_id = $1 AND semester_number = $2 LIMIT 1`
	var exists int
	if err := r.db.GetContext(ctx, &exists, query, studentID, semesterNumber); err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, fmt.Errorf("check semester exists: %w", err)
	}
	return true, nil
}

// Create inserts a new semester record.
func (r *SemesterRepository) Create(ctx context.Context, semester *models.Semester) error {
	if semester.ID == "" {
		semester.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if semester.CreatedAt.IsZero() {
		semester.CreatedAt = now
	}
	semester.UpdatedAt = now

	const query = `INSERT INTO semesters (id, student_id, semester_number, subjects, sgpa, total_credits, status, academic_year, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`
	if _, err := r.db.ExecContext(ctx, query,
		semester.ID, semester.StudentID, semester.SemesterNumber, semester.Subjects,
		semester.SGPA, semester.TotalCredits, semester.Status, semester.AcademicYear,
		semester.CreatedAt, semester.UpdatedAt,
	); err != nil {
		return fmt.Errorf("create semester: %w", err)
	}
	return nil
}

// Update replaces the subject array and derived fields of a semester record.
// The full-row write is deliberate: concurrent updates resolve as
// last-write-wins with no merge.
func (r *SemesterRepository) Update(ctx context.Context, semester *models.Semester) error {
	semester.UpdatedAt = time.Now().UTC()

	const query = `UPDATE semesters SET subjects = $2, sgpa = $3, total_credits = $4, status = $5, academic_year = $6, updated_at = $7 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query,
		semester.ID, semester.Subjects, semester.SGPA, semester.TotalCredits,
		semester.Status, semester.AcademicYear, semester.UpdatedAt,
	); err != nil {
		return fmt.Errorf("update semester: %w", err)
	}
	return nil
}

// Delete removes a semester record.
func (r *SemesterRepository) Delete(ctx context.Context, id string) error {
	const query = `DELETE FROM semesters WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id); err != nil {
		return fmt.Errorf("delete semester: %w", err)
	}
	return nil
}

// DeleteByStudent removes every semester record owned by a student. Used when
// an authorized mentor deletes the student account itself.
func (r *SemesterRepository) DeleteByStudent(ctx context.Context, studentID string) error {
	const query = `DELETE FROM semesters WHERE student_id = $1`
	if _, err := r.db.ExecContext(ctx, query, studentID); err != nil {
		return fmt.Errorf("delete semesters by student: %w", err)
	}
	return nil
}
