package postgres

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/peopleops/hrhub/internal/domain/employee"
	"github.com/peopleops/hrhub/internal/domain/user"
)

// RegisterInput is the validated self-registration payload.
type RegisterInput struct {
	Username     string
	Email        string
	PasswordHash string
	FirstName    string
	LastName     string
	IDNumber     string
	Phone        string
}

// Register creates the user and its linked employee row in one
// transaction, so a crash mid-sequence can't leave a user without an
// employee record. The caller audits after this returns.
func (r *UsersRepo) Register(ctx context.Context, in RegisterInput) (u user.User, emp employee.Employee, err error) {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return
	}

	defer func() { _ = tx.Rollback(ctx) }()

	// uniqueness pre-checks inside the tx

	var taken bool

	err = r.observe("register.user_uniqueness", func() error {
		return tx.QueryRow(ctx,
			`SELECT EXISTS(SELECT 1 FROM users WHERE username = $1 OR email = $2)`,
			in.Username, in.Email,
		).Scan(&taken)
	})

	if err != nil {
		return
	}

	if taken {
		err = user.ErrConflict
		return
	}

	err = r.observe("register.id_number_uniqueness", func() error {
		return tx.QueryRow(ctx,
			`SELECT EXISTS(SELECT 1 FROM employees WHERE id_number = $1)`,
			in.IDNumber,
		).Scan(&taken)
	})

	if err != nil {
		return
	}

	if taken {
		err = employee.ErrConflict
		return
	}

	err = r.observe("register.insert_user", func() error {
		u, err = scanUser(tx.QueryRow(ctx, `
			INSERT INTO users (username, email, password_hash, role, is_active)
			VALUES ($1, $2, $3, $4, true)
			RETURNING `+userColumns,
			in.Username, in.Email, in.PasswordHash, user.RoleEmployee,
		))
		return err
	})

	if err != nil {
		err = mapUniqueViolation(err, user.ErrConflict)
		return
	}

	number, err := nextEmployeeNumber(ctx, tx, r)

	if err != nil {
		return
	}

	err = r.observe("register.insert_employee", func() error {
		return tx.QueryRow(ctx, `
			INSERT INTO employees (user_id, employee_number, id_number, first_name, last_name, email, phone)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
			RETURNING `+employeeColumns,
			u.ID, number, in.IDNumber, in.FirstName, in.LastName, in.Email, in.Phone,
		).Scan(employeeScanDest(&emp)...)
	})

	if err != nil {
		err = mapUniqueViolation(err, employee.ErrConflict)
		return
	}

	err = r.observe("register.last_login", func() error {
		_, e := tx.Exec(ctx, `UPDATE users SET last_login = NOW() WHERE user_id = $1`, u.ID)
		return e
	})

	if err != nil {
		return
	}

	err = tx.Commit(ctx)

	return
}

// nextEmployeeNumber yields the year-scoped sequential number, e.g.
// 2026007. Falls back to a random suffix if the scan goes sideways.
func nextEmployeeNumber(ctx context.Context, tx pgx.Tx, r *UsersRepo) (string, error) {
	year := time.Now().UTC().Year()

	var last string

	err := r.observe("register.next_employee_number", func() error {
		return tx.QueryRow(ctx, `
			SELECT employee_number FROM employees
			WHERE employee_number ~ $1
			ORDER BY employee_number DESC
			LIMIT 1`,
			fmt.Sprintf(`^%d\d{3}$`, year),
		).Scan(&last)
	})

	next := 1

	switch {
	case err == nil && len(last) >= 3:
		var seq int
		if _, e := fmt.Sscanf(last[len(last)-3:], "%d", &seq); e == nil {
			next = seq + 1
		} else {
			next = rand.Intn(900) + 100
		}
	case errors.Is(err, pgx.ErrNoRows):
		// first employee this year
	case err != nil:
		return "", err
	}

	return fmt.Sprintf("%d%03d", year, next), nil
}

func mapUniqueViolation(err, sentinel error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return sentinel
	}
	return err
}
