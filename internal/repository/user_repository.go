package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/hallpass/school-portal-api/internal/models"
)

// UserRepository handles user persistence.
type UserRepository struct {
	db *sqlx.DB
}

// NewUserRepository creates a new user repository.
func NewUserRepository(db *sqlx.DB) *UserRepository {
	return &UserRepository{db: db}
}

const userColumns = "id, username, password_hash, full_name, email, role, active, last_login, created_at, updated_at"

// List returns users matching the filter with a total count.
func (r *UserRepository) List(ctx context.Context, filter models.UserFilter) ([]models.User, int, error) {
	where := " WHERE 1=1"
	var args []interface{}
	if filter.Role != nil {
		args = append(args, *filter.Role)
		where += fmt.Sprintf(" AND role = $%d", len(args))
	}
	if filter.Active != nil {
		args = append(args, *filter.Active)
		where += fmt.Sprintf(" AND active = $%d", len(args))
	}
	if filter.Search != "" {
		args = append(args, "%"+filter.Search+"%")
		where += fmt.Sprintf(" AND (username ILIKE $%d OR full_name ILIKE $%d)", len(args), len(args))
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	pageSize := filter.PageSize
	if pageSize < 1 {
		pageSize = 20
	}

	query := "SELECT " + userColumns + " FROM users" + where +
		fmt.Sprintf(" ORDER BY username LIMIT %d OFFSET %d", pageSize, (page-1)*pageSize)
	var users []models.User
	if err := r.db.SelectContext(ctx, &users, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list users: %w", err)
	}

	var total int
	if err := r.db.GetContext(ctx, &total, "SELECT COUNT(*) FROM users"+where, args...); err != nil {
		return nil, 0, fmt.Errorf("count users: %w", err)
	}
	return users, total, nil
}

// FindByID returns a single user.
func (r *UserRepository) FindByID(ctx context.Context, id string) (*models.User, error) {
	var user models.User
	if err := r.db.GetContext(ctx, &user, "SELECT "+userColumns+" FROM users WHERE id = $1", id); err != nil {
		return nil, err
	}
	return &user, nil
}

// FindByUsername returns a single user by unique username.
func (r *UserRepository) FindByUsername(ctx context.Context, username string) (*models.User, error) {
	var user models.User
	if err := r.db.GetContext(ctx, &user, "SELECT "+userColumns+" FROM users WHERE username = $1", username); err != nil {
		return nil, err
	}
	return &user, nil
}

// Create inserts a new user.
func (r *UserRepository) Create(ctx context.Context, user *models.User) error {
	if user.ID == "" {
		user.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	user.CreatedAt = now
	user.UpdatedAt = now
	const query = `INSERT INTO users (id, username, password_hash, full_name, email, role, active, created_at, updated_at)
        VALUES (:id, :username, :password_hash, :full_name, :email, :role, :active, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, user); err != nil {
		return fmt.Errorf("create user: %w", err)
	}
	return nil
}

// Update persists mutable profile fields.
func (r *UserRepository) Update(ctx context.Context, user *models.User) error {
	user.UpdatedAt = time.Now().UTC()
	const query = `UPDATE users SET full_name = :full_name, email = :email, role = :role, active = :active, updated_at = :updated_at
        WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, user); err != nil {
		return fmt.Errorf("update user: %w", err)
	}
	return nil
}

// UpdateLastLogin stamps the most recent successful login.
func (r *UserRepository) UpdateLastLogin(ctx context.Context, id string, ts time.Time) error {
	if _, err := r.db.ExecContext(ctx, "UPDATE users SET last_login = $1 WHERE id = $2", ts, id); err != nil {
		return fmt.Errorf("update last login: %w", err)
	}
	return nil
}

// Delete removes the user and everything linked to it: owned assignments,
// enrollments, attendance, parent links and refresh tokens.
func (r *UserRepository) Delete(ctx context.Context, id string) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	statements := []string{
		"DELETE FROM assignments WHERE student_id = $1",
		"DELETE FROM enrollments WHERE student_id = $1",
		"DELETE FROM attendance WHERE student_id = $1",
		"DELETE FROM parent_links WHERE parent_id = $1 OR student_id = $1",
		"DELETE FROM refresh_tokens WHERE user_id = $1",
		"DELETE FROM notifications WHERE user_id = $1",
		"UPDATE subjects SET teacher_id = NULL WHERE teacher_id = $1",
		"DELETE FROM users WHERE id = $1",
	}
	for _, stmt := range statements {
		if _, err := tx.ExecContext(ctx, stmt, id); err != nil {
			tx.Rollback() //nolint:errcheck
			return fmt.Errorf("delete user cascade: %w", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit user delete: %w", err)
	}
	return nil
}

// CreateParentLink relates a parent account to a student account.
func (r *UserRepository) CreateParentLink(ctx context.Context, link *models.ParentLink) error {
	if link.ID == "" {
		link.ID = uuid.NewString()
	}
	link.CreatedAt = time.Now().UTC()
	const query = `INSERT INTO parent_links (id, parent_id, student_id, created_at)
        VALUES (:id, :parent_id, :student_id, :created_at)
        ON CONFLICT (parent_id, student_id) DO NOTHING`
	if _, err := r.db.NamedExecContext(ctx, query, link); err != nil {
		return fmt.Errorf("create parent link: %w", err)
	}
	return nil
}

// IsParentOf reports whether a parent-child link exists for the pair.
func (r *UserRepository) IsParentOf(ctx context.Context, parentID, studentID string) (bool, error) {
	var count int
	const query = `SELECT COUNT(*) FROM parent_links WHERE parent_id = $1 AND student_id = $2`
	if err := r.db.GetContext(ctx, &count, query, parentID, studentID); err != nil {
		return false, fmt.Errorf("check parent link: %w", err)
	}
	return count > 0, nil
}

// ListChildren returns the student accounts linked to a parent.
func (r *UserRepository) ListChildren(ctx context.Context, parentID string) ([]models.User, error) {
	const query = `SELECT u.id, u.username, u.password_hash, u.full_name, u.email, u.role, u.active, u.last_login, u.created_at, u.updated_at
        FROM users u JOIN parent_links pl ON pl.student_id = u.id
        WHERE pl.parent_id = $1 ORDER BY u.username`
	var children []models.User
	if err := r.db.SelectContext(ctx, &children, query, parentID); err != nil {
		return nil, fmt.Errorf("list children: %w", err)
	}
	return children, nil
}
