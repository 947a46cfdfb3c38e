package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/campushub/srms-api/internal/models"
)

const accountColumns = `id, name, email, password_hash, role, department, year, roll_number, phone_number, address, date_of_birth, gender, parent_name, parent_contact, created_at, updated_at`

// AccountRepository manages persistence for student and mentor accounts.
type AccountRepository struct {
	db *sqlx.DB
}

// NewAccountRepository constructs an AccountRepository.
func NewAccountRepository(db *sqlx.DB) *AccountRepository {
	return &AccountRepository{db: db}
}

// FindByEmail returns an account by email address.
func (r *AccountRepository) FindByEmail(ctx context.Context, email string) (*models.Account, error) {
	query := fmt.Sprintf(`SELECT %s FROM accounts WHERE email = $1 LIMIT 1`, accountColumns)
	var account models.Account
	if err := r.db.GetContext(ctx, &account, query, strings.ToLower(email)); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find account by email: %w", err)
	}
	return &account, nil
}

// FindByID returns an account by identifier.
func (r *AccountRepository) FindByID(ctx context.Context, id string) (*models.Account, error) {
	query := fmt.Sprintf(`SELECT %s FROM accounts WHERE id = $1 LIMIT 1`, accountColumns)
	var account models.Account
	if err := r.db.GetContext(ctx, &account, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find account by id: %w", err)
	}
	return &account, nil
}

// List returns accounts matching the filter ordered by roll number then name.
func (r *AccountRepository) List(ctx context.Context, filter models.AccountFilter) ([]models.Account, error) {
	conditions := []string{"1=1"}
	var args []interface{}

	if filter.Role != "" {
		conditions = append(conditions, fmt.Sprintf("role = $%d", len(args)+1))
		args = append(args, filter.Role)
	}
	if filter.Department != "" {
		conditions = append(conditions, fmt.Sprintf("department = $%d", len(args)+1))
		args = append(args, filter.Department)
	}
	if filter.Year > 0 {
		conditions = append(conditions, fmt.Sprintf("year = $%d", len(args)+1))
		args = append(args, filter.Year)
	}
	if filter.Search != "" {
		conditions = append(conditions, fmt.Sprintf("(LOWER(name) LIKE $%d OR LOWER(roll_number) LIKE $%d)", len(args)+1, len(args)+1))
		args = append(args, "%"+strings.ToLower(filter.Search)+"%")
	}

	query := fmt.Sprintf(`SELECT %s FROM accounts WHERE %s ORDER BY roll_number NULLS LAST, name`, accountColumns, strings.Join(conditions, " AND "))

	var accounts []models.Account
	if err := r.db.SelectContext(ctx, &accounts, query, args...); err != nil {
		return nil, fmt.Errorf("list accounts: %w", err)
	}
	return accounts, nil
}

// ExistsByEmailOrRoll reports whether an account with the given email or roll
// number already exists, optionally excluding an ID.
func (r *AccountRepository) ExistsByEmailOrRoll(ctx context.Context, email string, rollNumber *string, excludeID string) (bool, error) {
	query := "SELECT 1 FROM accounts WHERE (email = $1"
	args := []interface{}{strings.ToLower(email)}
	if rollNumber != nil && *rollNumber != "" {
		query += fmt.Sprintf(" OR roll_number = $%d", len(args)+1)
		args = append(args, *rollNumber)
	}
	query += ")"
	if excludeID != "" {
		query += fmt.Sprintf(" AND id <> $%d", len(args)+1)
		args = append(args, excludeID)
	}
	var exists int
	if err := r.db.GetContext(ctx, &exists, query+" LIMIT 1", args...); err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, fmt.Errorf("check email or roll number: %w", err)
	}
	return true, nil
}

// Create inserts a new account record.
func (r *AccountRepository) Create(ctx context.Context, account *models.Account) error {
	if account.ID == "" {
		account.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if account.CreatedAt.IsZero() {
		account.CreatedAt = now
	}
	account.UpdatedAt = now
	account.Email = strings.ToLower(account.Email)

	const query = `INSERT INTO accounts (id, name, email, password_hash, role, department, year, roll_number, phone_number, address, date_of_birth, gender, parent_name, parent_contact, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)`
	if _, err := r.db.ExecContext(ctx, query,
		account.ID, account.Name, account.Email, account.PasswordHash, account.Role,
		account.Department, account.Year, account.RollNumber, account.PhoneNumber,
		account.Address, account.DateOfBirth, account.Gender, account.ParentName,
		account.ParentContact, account.CreatedAt, account.UpdatedAt,
	); err != nil {
		return fmt.Errorf("create account: %w", err)
	}
	return nil
}

// Update persists the mutable profile fields of an account.
func (r *AccountRepository) Update(ctx context.Context, account *models.Account) error {
	account.UpdatedAt = time.Now().UTC()
	account.Email = strings.ToLower(account.Email)

	const query = `UPDATE accounts SET name = $2, email = $3, phone_number = $4, address = $5, date_of_birth = $6, gender = $7, parent_name = $8, parent_contact = $9, updated_at = $10 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query,
		account.ID, account.Name, account.Email, account.PhoneNumber, account.Address,
		account.DateOfBirth, account.Gender, account.ParentName, account.ParentContact,
		account.UpdatedAt,
	); err != nil {
		return fmt.Errorf("update account: %w", err)
	}
	return nil
}

// UpdatePassword updates the stored password hash.
func (r *AccountRepository) UpdatePassword(ctx context.Context, id, passwordHash string, updatedAt time.Time) error {
	const query = `UPDATE accounts SET password_hash = $2, updated_at = $3 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, passwordHash, updatedAt); err != nil {
		return fmt.Errorf("update password: %w", err)
	}
	return nil
}

// Delete removes an account record.
func (r *AccountRepository) Delete(ctx context.Context, id string) error {
	const query = `DELETE FROM accounts WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id); err != nil {
		return fmt.Errorf("delete account: %w", err)
	}
	return nil
}
