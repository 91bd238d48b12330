package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/peopleops/hrhub/internal/domain/user"
	"github.com/peopleops/hrhub/internal/observability"
)

const userColumns = `user_id, username, email, password_hash, role, is_active, last_login, created_at, updated_at`

type UsersRepo struct {
	pool *pgxpool.Pool
	prom *observability.Prom
}

func NewUsersRepo(pool *pgxpool.Pool, prom *observability.Prom) *UsersRepo {
	return &UsersRepo{pool: pool, prom: prom}
}

func (r *UsersRepo) observe(op string, fn func() error) error {
	if r.prom != nil {
		return r.prom.ObserveDB(op, fn)
	}
	return fn()
}

func scanUser(row pgx.Row) (user.User, error) {
	var u user.User

	err := row.Scan(
		&u.ID,
		&u.Username,
		&u.Email,
		&u.PasswordHash,
		&u.Role,
		&u.IsActive,
		&u.LastLogin,
		&u.CreatedAt,
		&u.UpdatedAt,
	)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return user.User{}, user.ErrNotFound
		}
		return user.User{}, err
	}
	return u, nil
}

func (r *UsersRepo) GetByID(ctx context.Context, id string) (u user.User, err error) {
	err = r.observe("users.get_by_id", func() error {
		u, err = scanUser(r.pool.QueryRow(
			ctx,
			`SELECT `+userColumns+` FROM users WHERE user_id = $1`,
			id,
		))
		return err
	})
	return
}

// GetByLogin resolves a login attempt by username or email. Only active
// accounts are matched, an inactive account looks like bad credentials.
func (r *UsersRepo) GetByLogin(ctx context.Context, username, email string) (u user.User, err error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE username = $1 AND is_active = true`
	arg := username

	if email != "" {
		query = `SELECT ` + userColumns + ` FROM users WHERE email = $1 AND is_active = true`
		arg = email
	}

	err = r.observe("users.get_by_login", func() error {
		u, err = scanUser(r.pool.QueryRow(ctx, query, arg))
		return err
	})
	return
}

// UserListItem is a user row joined with its linked employee summary, the
// shape the admin user list renders.
type UserListItem struct {
	user.User
	EmployeeID *string `json:"employeeId,omitempty"`
	FirstName  *string `json:"firstName,omitempty"`
	LastName   *string `json:"lastName,omitempty"`
	Department *string `json:"department,omitempty"`
	Position   *string `json:"position,omitempty"`
}

func (r *UsersRepo) List(ctx context.Context) ([]UserListItem, error) {
	var rows pgx.Rows

	err := r.observe("users.list", func() error {
		var e error
		rows, e = r.pool.Query(ctx, `
			SELECT u.user_id, u.username, u.email, u.password_hash, u.role, u.is_active, u.last_login, u.created_at, u.updated_at,
			       e.employee_id, e.first_name, e.last_name, e.department, e.position
			FROM users u
			LEFT JOIN employees e ON u.user_id = e.user_id
			ORDER BY u.created_at DESC`)
		return e
	})

	if err != nil {
		return nil, err
	}

	defer rows.Close()

	var out []UserListItem

	for rows.Next() {
		var item UserListItem

		err = rows.Scan(
			&item.ID, &item.Username, &item.Email, &item.PasswordHash, &item.Role,
			&item.IsActive, &item.LastLogin, &item.CreatedAt, &item.UpdatedAt,
			&item.EmployeeID, &item.FirstName, &item.LastName, &item.Department, &item.Position,
		)

		if err != nil {
			return nil, err
		}
		out = append(out, item)
	}

	return out, rows.Err()
}

func (r *UsersRepo) ExistsByUsernameOrEmail(ctx context.Context, username, email string) (exists bool, err error) {
	err = r.observe("users.exists_check", func() error {
		return r.pool.QueryRow(ctx,
			`SELECT EXISTS(SELECT 1 FROM users WHERE username = $1 OR email = $2)`,
			username, email,
		).Scan(&exists)
	})
	return
}

func (r *UsersRepo) Create(ctx context.Context, username, email, passwordHash, role string) (u user.User, err error) {
	err = r.observe("users.create", func() error {
		u, err = scanUser(r.pool.QueryRow(ctx, `
			INSERT INTO users (username, email, password_hash, role, is_active)
			VALUES ($1, $2, $3, $4, true)
			RETURNING `+userColumns,
			username, email, passwordHash, role,
		))
		return err
	})

	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return user.User{}, user.ErrConflict
		}
		return user.User{}, err
	}

	return u, nil
}

// updatableUserColumns fixes the SET clause ordering. Column names come
// from this list only, never from the caller, so values stay the only
// parameterized part.
var updatableUserColumns = []string{"username", "email", "role", "is_active", "password_hash"}

func (r *UsersRepo) Update(ctx context.Context, id string, fields map[string]any) (u user.User, err error) {
	sets := make([]string, 0, len(fields)+1)
	args := make([]any, 0, len(fields)+1)
	args = append(args, id)

	for _, col := range updatableUserColumns {
		v, ok := fields[col]
		if !ok {
			continue
		}
		args = append(args, v)
		sets = append(sets, fmt.Sprintf("%s = $%d", col, len(args)))
	}

	if len(sets) == 0 {
		return user.User{}, errors.New("no fields to update")
	}

	sets = append(sets, "updated_at = NOW()")

	query := `UPDATE users SET ` + strings.Join(sets, ", ") + ` WHERE user_id = $1 RETURNING ` + userColumns

	err = r.observe("users.update", func() error {
		u, err = scanUser(r.pool.QueryRow(ctx, query, args...))
		return err
	})

	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return user.User{}, user.ErrConflict
		}
		return user.User{}, err
	}

	return u, nil
}

// Deactivate is the soft delete for users; rows are never removed.
func (r *UsersRepo) Deactivate(ctx context.Context, id string) (u user.User, err error) {
	err = r.observe("users.deactivate", func() error {
		u, err = scanUser(r.pool.QueryRow(ctx, `
			UPDATE users SET is_active = false, updated_at = NOW()
			WHERE user_id = $1
			RETURNING `+userColumns,
			id,
		))
		return err
	})
	return
}

func (r *UsersRepo) UpdateLastLogin(ctx context.Context, id string) error {
	return r.observe("users.update_last_login", func() error {
		_, err := r.pool.Exec(ctx,
			`UPDATE users SET last_login = NOW() WHERE user_id = $1`,
			id,
		)
		return err
	})
}
