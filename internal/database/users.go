package database

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
)

const usersTable = "users"

var userColumns = []string{"id", "username", "password_hash", "role"}

// Role is the access level of an application user. The string value is
// what the users.role column stores.
type Role string

const (
	RoleAdmin    Role = "ADMIN"
	RoleOperator Role = "OPERATOR"
	RoleViewer   Role = "VIEWER"
)

// roles maps every stored value to its Role.
var roles = map[string]Role{
	string(RoleAdmin):    RoleAdmin,
	string(RoleOperator): RoleOperator,
	string(RoleViewer):   RoleViewer,
}

// ParseRole decodes a stored role value.
func ParseRole(s string) (Role, error) {
	r, ok := roles[s]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownRole, s)
	}
	return r, nil
}

func (r Role) String() string {
	return string(r)
}

// User is an account of the management application. PasswordHash is
// produced by the caller; this layer never sees plain passwords.
type User struct {
	ID           int64
	Username     string
	PasswordHash string
	Role         Role
}

type userRow struct {
	ID           int64  `db:"id"`
	Username     string `db:"username"`
	PasswordHash string `db:"password_hash"`
	Role         string `db:"role"`
}

func (r *userRow) toModel() (*User, error) {
	role, err := ParseRole(r.Role)
	if err != nil {
		return nil, fmt.Errorf("user %d: %w", r.ID, err)
	}
	return &User{
		ID:           r.ID,
		Username:     r.Username,
		PasswordHash: r.PasswordHash,
		Role:         role,
	}, nil
}

// UserRepository persists users.
type UserRepository struct {
	m *Manager
}

var _ Repository[User] = (*UserRepository)(nil)

func NewUserRepository(m *Manager) *UserRepository {
	return &UserRepository{m: m}
}

// Create inserts a user. A taken username fails with a unique violation.
func (r *UserRepository) Create(ctx context.Context, u *User) (*User, error) {
	id, err := insert(ctx, r.m, builder.Insert(usersTable).
		Columns("username", "password_hash", "role").
		Values(u.Username, u.PasswordHash, u.Role.String()))
	if err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}
	u.ID = id
	return u, nil
}

func (r *UserRepository) GetByID(ctx context.Context, id int64) (*User, error) {
	u, err := getOne(ctx, r.m, r.selectUsers().Where(squirrel.Eq{"id": id}), (*userRow).toModel)
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return u, nil
}

// GetByUsername retrieves a user by exact username.
func (r *UserRepository) GetByUsername(ctx context.Context, username string) (*User, error) {
	u, err := getOne(ctx, r.m, r.selectUsers().Where(squirrel.Eq{"username": username}), (*userRow).toModel)
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return u, nil
}

func (r *UserRepository) List(ctx context.Context) ([]*User, error) {
	users, err := selectAll(ctx, r.m, r.selectUsers(), (*userRow).toModel)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	return users, nil
}

// Count returns the number of users. Zero means nobody has been set up yet.
func (r *UserRepository) Count(ctx context.Context) (int, error) {
	query, args, err := builder.Select("COUNT(*)").From(usersTable).ToSql()
	if err != nil {
		return 0, fmt.Errorf("build query: %w", err)
	}

	var count int
	err = r.m.WithConnection(ctx, func(c *Conn) error {
		return c.QueryRowContext(ctx, query, args...).Scan(&count)
	})
	if err != nil {
		return 0, fmt.Errorf("failed to count users: %w", err)
	}
	return count, nil
}

func (r *UserRepository) Update(ctx context.Context, u *User) (*User, error) {
	if u.ID == 0 {
		return nil, missingID("a user")
	}

	err := exec(ctx, r.m, builder.Update(usersTable).
		Set("username", u.Username).
		Set("password_hash", u.PasswordHash).
		Set("role", u.Role.String()).
		Where(squirrel.Eq{"id": u.ID}))
	if err != nil {
		return nil, fmt.Errorf("failed to update user: %w", err)
	}
	return u, nil
}

func (r *UserRepository) Delete(ctx context.Context, id int64) error {
	if err := exec(ctx, r.m, builder.Delete(usersTable).Where(squirrel.Eq{"id": id})); err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}
	return nil
}

func (r *UserRepository) selectUsers() squirrel.SelectBuilder {
	return builder.Select(userColumns...).From(usersTable).OrderBy("id")
}
