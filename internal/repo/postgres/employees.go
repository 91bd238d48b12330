package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/peopleops/hrhub/internal/domain/employee"
	"github.com/peopleops/hrhub/internal/observability"
)

const employeeColumns = `employee_id, user_id, employee_number, id_number, passport_number,
	first_name, last_name, email, phone, mobile_phone,
	start_date, end_date, birth_date, address, city, postal_code,
	emergency_contact_name, emergency_contact_phone, department, position,
	manager_employee_id, salary, employment_type, status, notes, created_at, updated_at`

func employeeScanDest(e *employee.Employee) []any {
	return []any{
		&e.ID, &e.UserID, &e.EmployeeNumber, &e.IDNumber, &e.PassportNumber,
		&e.FirstName, &e.LastName, &e.Email, &e.Phone, &e.MobilePhone,
		&e.StartDate, &e.EndDate, &e.BirthDate, &e.Address, &e.City, &e.PostalCode,
		&e.EmergencyContactName, &e.EmergencyContactPhone, &e.Department, &e.Position,
		&e.ManagerEmployeeID, &e.Salary, &e.EmploymentType, &e.Status, &e.Notes, &e.CreatedAt, &e.UpdatedAt,
	}
}

type EmployeesRepo struct {
	pool *pgxpool.Pool
	prom *observability.Prom
}

func NewEmployeesRepo(pool *pgxpool.Pool, prom *observability.Prom) *EmployeesRepo {
	return &EmployeesRepo{pool: pool, prom: prom}
}

func (r *EmployeesRepo) observe(op string, fn func() error) error {
	if r.prom != nil {
		return r.prom.ObserveDB(op, fn)
	}
	return fn()
}

func (r *EmployeesRepo) getOne(ctx context.Context, op, query string, arg any) (employee.Employee, error) {
	var e employee.Employee

	err := r.observe(op, func() error {
		return r.pool.QueryRow(ctx, query, arg).Scan(employeeScanDest(&e)...)
	})

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return employee.Employee{}, employee.ErrNotFound
		}
		return employee.Employee{}, err
	}
	return e, nil
}

func (r *EmployeesRepo) GetByID(ctx context.Context, id string) (employee.Employee, error) {
	return r.getOne(ctx, "employees.get_by_id",
		`SELECT `+employeeColumns+` FROM employees WHERE employee_id = $1`, id)
}

// GetByUserID resolves the employee row linked to a user account, which is
// how ownership checks and own-row filters find "my record".
func (r *EmployeesRepo) GetByUserID(ctx context.Context, userID string) (employee.Employee, error) {
	return r.getOne(ctx, "employees.get_by_user_id",
		`SELECT `+employeeColumns+` FROM employees WHERE user_id = $1`, userID)
}

func (r *EmployeesRepo) List(ctx context.Context, f employee.ListEmployeesFilter) ([]employee.Employee, int, error) {
	var conds []string
	var args []any

	if f.Department != nil {
		args = append(args, *f.Department)
		conds = append(conds, fmt.Sprintf("department = $%d", len(args)))
	}
	if f.Status != nil {
		args = append(args, *f.Status)
		conds = append(conds, fmt.Sprintf("status = $%d", len(args)))
	}
	if f.EmploymentType != nil {
		args = append(args, *f.EmploymentType)
		conds = append(conds, fmt.Sprintf("employment_type = $%d", len(args)))
	}

	query := `SELECT ` + employeeColumns + `, COUNT(*) OVER() AS total FROM employees`

	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}

	// stable ordering for pagination
	args = append(args, f.Limit, f.Offset)
	query += fmt.Sprintf(" ORDER BY created_at DESC, employee_id LIMIT $%d OFFSET $%d", len(args)-1, len(args))

	var rows pgx.Rows

	err := r.observe("employees.list", func() error {
		var e error
		rows, e = r.pool.Query(ctx, query, args...)
		return e
	})

	if err != nil {
		return nil, 0, err
	}

	defer rows.Close()

	out := make([]employee.Employee, 0, f.Limit)
	total := 0

	for rows.Next() {
		var e employee.Employee
		var t int

		dest := append(employeeScanDest(&e), &t)

		if err = rows.Scan(dest...); err != nil {
			return nil, 0, err
		}

		total = t
		out = append(out, e)
	}

	return out, total, rows.Err()
}

func (r *EmployeesRepo) ExistsByNumberOrIDNumber(ctx context.Context, employeeNumber, idNumber string) (exists bool, err error) {
	err = r.observe("employees.exists_check", func() error {
		return r.pool.QueryRow(ctx,
			`SELECT EXISTS(SELECT 1 FROM employees WHERE employee_number = $1 OR id_number = $2)`,
			employeeNumber, idNumber,
		).Scan(&exists)
	})
	return
}

func (r *EmployeesRepo) Create(ctx context.Context, req employee.CreateEmployeeRequest) (employee.Employee, error) {
	employmentType := req.EmploymentType
	if employmentType == "" {
		employmentType = employee.TypeFullTime
	}

	var e employee.Employee

	err := r.observe("employees.create", func() error {
		return r.pool.QueryRow(ctx, `
			INSERT INTO employees (
				user_id, employee_number, id_number, passport_number, first_name, last_name,
				email, phone, mobile_phone, start_date, birth_date, address, city, postal_code,
				emergency_contact_name, emergency_contact_phone, department, position,
				manager_employee_id, salary, employment_type, notes
			) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19,$20,$21,$22)
			RETURNING `+employeeColumns,
			req.UserID, req.EmployeeNumber, req.IDNumber, req.PassportNumber,
			req.FirstName, req.LastName, req.Email, req.Phone, req.MobilePhone,
			req.StartDate, req.BirthDate, req.Address, req.City, req.PostalCode,
			req.EmergencyContactName, req.EmergencyContactPhone, req.Department, req.Position,
			req.ManagerEmployeeID, req.Salary, employmentType, req.Notes,
		).Scan(employeeScanDest(&e)...)
	})

	if err != nil {
		return employee.Employee{}, mapUniqueViolation(err, employee.ErrConflict)
	}

	return e, nil
}

// updatableEmployeeColumns fixes the SET clause ordering; the role-based
// allow-list has already been applied by the time fields arrives here.
var updatableEmployeeColumns = []string{
	"employee_number", "id_number", "passport_number", "first_name", "last_name",
	"email", "phone", "mobile_phone", "start_date", "end_date", "birth_date",
	"address", "city", "postal_code", "emergency_contact_name", "emergency_contact_phone",
	"department", "position", "manager_employee_id", "salary", "employment_type",
	"status", "notes",
}

func (r *EmployeesRepo) Update(ctx context.Context, id string, fields map[string]any) (employee.Employee, error) {
	sets := make([]string, 0, len(fields)+1)
	args := make([]any, 0, len(fields)+1)
	args = append(args, id)

	for _, col := range updatableEmployeeColumns {
		v, ok := fields[col]
		if !ok {
			continue
		}
		args = append(args, v)
		sets = append(sets, fmt.Sprintf("%s = $%d", col, len(args)))
	}

	if len(sets) == 0 {
		return employee.Employee{}, errors.New("no fields to update")
	}

	sets = append(sets, "updated_at = NOW()")

	query := `UPDATE employees SET ` + strings.Join(sets, ", ") +
		` WHERE employee_id = $1 RETURNING ` + employeeColumns

	var e employee.Employee

	err := r.observe("employees.update", func() error {
		return r.pool.QueryRow(ctx, query, args...).Scan(employeeScanDest(&e)...)
	})

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return employee.Employee{}, employee.ErrNotFound
		}
		return employee.Employee{}, mapUniqueViolation(err, employee.ErrConflict)
	}

	return e, nil
}

// Terminate soft-deletes: the employee transitions to terminated with an
// end date and the linked user account (if any) is deactivated in the same
// transaction. Returns the prior state for the audit snapshot.
func (r *EmployeesRepo) Terminate(ctx context.Context, id string) (old employee.Employee, err error) {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return
	}

	defer func() { _ = tx.Rollback(ctx) }()

	err = r.observe("employees.terminate.load", func() error {
		return tx.QueryRow(ctx,
			`SELECT `+employeeColumns+` FROM employees WHERE employee_id = $1 FOR UPDATE`,
			id,
		).Scan(employeeScanDest(&old)...)
	})

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			err = employee.ErrNotFound
		}
		return
	}

	err = r.observe("employees.terminate.update", func() error {
		_, e := tx.Exec(ctx, `
			UPDATE employees SET status = $1, end_date = CURRENT_DATE, updated_at = NOW()
			WHERE employee_id = $2`,
			employee.StatusTerminated, id,
		)
		return e
	})

	if err != nil {
		return
	}

	if old.UserID != nil {
		err = r.observe("employees.terminate.deactivate_user", func() error {
			_, e := tx.Exec(ctx,
				`UPDATE users SET is_active = false, updated_at = NOW() WHERE user_id = $1`,
				*old.UserID,
			)
			return e
		})

		if err != nil {
			return
		}
	}

	err = tx.Commit(ctx)

	return
}
