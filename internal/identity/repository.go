package identity

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
)

// Repository is the Postgres-backed Store.
//
// Assumed schema:
// - users(user_id, user_name UNIQUE, email UNIQUE, hash_pwd, full_name,
//   avatar, job_title, job_code, supervisor_id, location_id,
//   parent_department_id, child_department1_id, child_department2_id,
//   role_id DEFAULT <staff role>, is_active DEFAULT true, created_at, updated_at)
// - roles(id, name UNIQUE, permission JSONB, is_active)
//
// Uniqueness of user_name/email is enforced here, at the store boundary,
// not in the service; see Create.
type Repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

const userColumns = `
u.user_id, u.user_name, u.email, u.full_name, u.avatar, u.job_title, u.job_code,
u.supervisor_id, u.location_id, u.parent_department_id, u.child_department1_id, u.child_department2_id,
u.role_id, u.is_active, u.hash_pwd, u.created_at, u.updated_at,
r.id, r.name, r.permission, r.is_active`

const userFromJoin = `
FROM users u
LEFT JOIN roles r ON r.id = u.role_id`

func (r *Repository) FindByUsername(ctx context.Context, username string) (*User, error) {
	q := `SELECT ` + userColumns + userFromJoin + ` WHERE u.user_name = $1`
	return r.queryOne(ctx, q, username)
}

func (r *Repository) FindByID(ctx context.Context, id int64) (*User, error) {
	q := `SELECT ` + userColumns + userFromJoin + ` WHERE u.user_id = $1`
	return r.queryOne(ctx, q, id)
}

// FindByIDForManagement loads the target of a management check. Role data is
// needed for the hierarchy comparison; the password hash is not selected.
func (r *Repository) FindByIDForManagement(ctx context.Context, id int64) (*User, error) {
	q := `SELECT
u.user_id, u.user_name, u.email, u.full_name, u.role_id, u.is_active,
r.id, r.name, r.permission, r.is_active
FROM users u
LEFT JOIN roles r ON r.id = u.role_id
WHERE u.user_id = $1`

	row := r.db.QueryRowContext(ctx, q, id)

	var (
		u        User
		fullName sql.NullString
		role     roleRow
	)
	err := row.Scan(
		&u.ID, &u.Username, &u.Email, &fullName, &u.RoleID, &u.IsActive,
		&role.id, &role.name, &role.permission, &role.isActive,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find user for management: %w", err)
	}
	u.FullName = fullName.String
	role.apply(&u)
	return &u, nil
}

// FindByUsernameOrEmail is an existence probe used before registration.
// No role join; only identifying fields are loaded.
func (r *Repository) FindByUsernameOrEmail(ctx context.Context, username, email string) (*User, error) {
	q := `SELECT u.user_id, u.user_name, u.email FROM users u WHERE u.user_name = $1 OR u.email = $2`

	var u User
	err := r.db.QueryRowContext(ctx, q, username, email).Scan(&u.ID, &u.Username, &u.Email)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find user by username or email: %w", err)
	}
	return &u, nil
}

// Create inserts a fresh account, relying on column defaults for role and
// active status. Unique violations are mapped by constraint so a racing
// duplicate registration still fails with the right kind.
func (r *Repository) Create(ctx context.Context, p NewUserParams) (int64, error) {
	q := `INSERT INTO users (user_name, email, hash_pwd) VALUES ($1, $2, $3) RETURNING user_id`

	var id int64
	if err := r.db.QueryRowContext(ctx, q, p.Username, p.Email, p.PasswordHash).Scan(&id); err != nil {
		if dup := mapUniqueViolation(err); dup != nil {
			return 0, dup
		}
		return 0, fmt.Errorf("create user: %w", err)
	}
	return id, nil
}

func (r *Repository) UpdateLastLogin(ctx context.Context, id int64) error {
	q := `UPDATE users SET last_login_at = NOW(), updated_at = NOW() WHERE user_id = $1`
	if _, err := r.db.ExecContext(ctx, q, id); err != nil {
		return fmt.Errorf("update last login: %w", err)
	}
	return nil
}

func (r *Repository) queryOne(ctx context.Context, q string, arg any) (*User, error) {
	row := r.db.QueryRowContext(ctx, q, arg)

	var (
		u        User
		fullName sql.NullString
		avatar   sql.NullString
		jobTitle sql.NullString
		jobCode  sql.NullString
		superID  sql.NullInt64
		locID    sql.NullInt64
		parentID sql.NullInt64
		child1ID sql.NullInt64
		child2ID sql.NullInt64
		role     roleRow
	)
	err := row.Scan(
		&u.ID, &u.Username, &u.Email, &fullName, &avatar, &jobTitle, &jobCode,
		&superID, &locID, &parentID, &child1ID, &child2ID,
		&u.RoleID, &u.IsActive, &u.PasswordHash, &u.CreatedAt, &u.UpdatedAt,
		&role.id, &role.name, &role.permission, &role.isActive,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find user: %w", err)
	}

	u.FullName = fullName.String
	u.Avatar = avatar.String
	u.JobTitle = jobTitle.String
	u.JobCode = jobCode.String
	u.SupervisorID = nullableInt(superID)
	u.LocationID = nullableInt(locID)
	u.ParentDepartmentID = nullableInt(parentID)
	u.ChildDepartment1ID = nullableInt(child1ID)
	u.ChildDepartment2ID = nullableInt(child2ID)
	role.apply(&u)
	return &u, nil
}

type roleRow struct {
	id         sql.NullInt64
	name       sql.NullString
	permission sql.NullString
	isActive   sql.NullBool
}

// apply attaches joined role data and normalizes the permission column.
// A permission payload that does not parse is kept raw so the policy layer
// can report it as a failed check instead of dropping it silently.
func (rr roleRow) apply(u *User) {
	if !rr.id.Valid {
		return
	}
	u.Role = &Role{
		ID:       rr.id.Int64,
		Name:     rr.name.String,
		IsActive: rr.isActive.Bool,
	}
	if !rr.permission.Valid || rr.permission.String == "" {
		return
	}
	var perms []string
	if err := json.Unmarshal([]byte(rr.permission.String), &perms); err != nil {
		u.RawPermissions = rr.permission.String
		return
	}
	u.Permissions = perms
	u.Role.Permissions = perms
}

func nullableInt(v sql.NullInt64) *int64 {
	if !v.Valid {
		return nil
	}
	n := v.Int64
	return &n
}

func mapUniqueViolation(err error) error {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) || pgErr.Code != "23505" {
		return nil
	}
	name := strings.ToLower(pgErr.ConstraintName)
	switch {
	case strings.Contains(name, "user_name"), strings.Contains(name, "username"):
		return ErrUsernameTaken
	case strings.Contains(name, "email"):
		return ErrEmailTaken
	default:
		return ErrDuplicate
	}
}
