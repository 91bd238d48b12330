package postgres

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/peopleops/hrhub/internal/observability"
)

type ReportsRepo struct {
	pool *pgxpool.Pool
	prom *observability.Prom
}

func NewReportsRepo(pool *pgxpool.Pool, prom *observability.Prom) *ReportsRepo {
	return &ReportsRepo{pool: pool, prom: prom}
}

func (r *ReportsRepo) observe(op string, fn func() error) error {
	if r.prom != nil {
		return r.prom.ObserveDB(op, fn)
	}
	return fn()
}

type DepartmentBreakdown struct {
	Department string `json:"department"`
	Count      int    `json:"count"`
}

type EmployeesSummary struct {
	Total       int                   `json:"total"`
	Active      int                   `json:"active"`
	OnLeave     int                   `json:"onLeave"`
	Terminated  int                   `json:"terminated"`
	Departments []DepartmentBreakdown `json:"departments"`
}

func (r *ReportsRepo) EmployeesSummary(ctx context.Context) (EmployeesSummary, error) {
	var s EmployeesSummary

	err := r.observe("reports.employees_summary", func() error {
		return r.pool.QueryRow(ctx, `
			SELECT COUNT(*),
			       COUNT(*) FILTER (WHERE status = 'active'),
			       COUNT(*) FILTER (WHERE status = 'on_leave'),
			       COUNT(*) FILTER (WHERE status = 'terminated')
			FROM employees`,
		).Scan(&s.Total, &s.Active, &s.OnLeave, &s.Terminated)
	})

	if err != nil {
		return EmployeesSummary{}, err
	}

	var rows pgx.Rows

	err = r.observe("reports.department_breakdown", func() error {
		var e error
		rows, e = r.pool.Query(ctx, `
			SELECT COALESCE(department, 'unassigned') AS department, COUNT(*)
			FROM employees
			WHERE status <> 'terminated'
			GROUP BY 1
			ORDER BY 2 DESC, 1`)
		return e
	})

	if err != nil {
		return EmployeesSummary{}, err
	}

	defer rows.Close()

	for rows.Next() {
		var d DepartmentBreakdown
		if err = rows.Scan(&d.Department, &d.Count); err != nil {
			return EmployeesSummary{}, err
		}
		s.Departments = append(s.Departments, d)
	}

	return s, rows.Err()
}

// EmployeesDetailedFilter narrows the detailed employee report. The date
// bounds apply to start_date.
type EmployeesDetailedFilter struct {
	Department     *string
	Status         *string
	EmploymentType *string
	StartedFrom    *time.Time
	StartedTo      *time.Time
}

// DetailedEmployeeRow is one line of the detailed employee report: the
// employee joined with its user account and a document count.
type DetailedEmployeeRow struct {
	EmployeeNumber string     `json:"employeeNumber"`
	FirstName      string     `json:"firstName"`
	LastName       string     `json:"lastName"`
	IDNumber       string     `json:"idNumber"`
	Email          string     `json:"email"`
	Phone          string     `json:"phone"`
	Department     *string    `json:"department,omitempty"`
	Position       *string    `json:"position,omitempty"`
	StartDate      *time.Time `json:"startDate,omitempty"`
	EndDate        *time.Time `json:"endDate,omitempty"`
	EmploymentType string     `json:"employmentType"`
	Status         string     `json:"status"`
	Salary         *float64   `json:"salary,omitempty"`
	CreatedAt      time.Time  `json:"createdAt"`
	Username       *string    `json:"username,omitempty"`
	Role           *string    `json:"role,omitempty"`
	UserActive     *bool      `json:"userActive,omitempty"`
	DocumentCount  int        `json:"documentCount"`
}

func (r *ReportsRepo) EmployeesDetailed(ctx context.Context, f EmployeesDetailedFilter) ([]DetailedEmployeeRow, error) {
	var conds []string
	var args []any

	if f.Department != nil {
		args = append(args, *f.Department)
		conds = append(conds, fmt.Sprintf("e.department = $%d", len(args)))
	}
	if f.Status != nil {
		args = append(args, *f.Status)
		conds = append(conds, fmt.Sprintf("e.status = $%d", len(args)))
	}
	if f.EmploymentType != nil {
		args = append(args, *f.EmploymentType)
		conds = append(conds, fmt.Sprintf("e.employment_type = $%d", len(args)))
	}
	if f.StartedFrom != nil {
		args = append(args, *f.StartedFrom)
		conds = append(conds, fmt.Sprintf("e.start_date >= $%d", len(args)))
	}
	if f.StartedTo != nil {
		args = append(args, *f.StartedTo)
		conds = append(conds, fmt.Sprintf("e.start_date <= $%d", len(args)))
	}

	query := `SELECT e.employee_number, e.first_name, e.last_name, e.id_number,
		e.email, e.phone, e.department, e.position, e.start_date, e.end_date,
		e.employment_type, e.status, e.salary, e.created_at,
		u.username, u.role, u.is_active,
		COUNT(d.document_id) AS document_count
		FROM employees e
		LEFT JOIN users u ON e.user_id = u.user_id
		LEFT JOIN documents d ON e.employee_id = d.employee_id AND d.status <> 'archived'`

	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}

	query += " GROUP BY e.employee_id, u.user_id ORDER BY e.created_at DESC"

	var rows pgx.Rows

	err := r.observe("reports.employees_detailed", func() error {
		var e error
		rows, e = r.pool.Query(ctx, query, args...)
		return e
	})

	if err != nil {
		return nil, err
	}

	defer rows.Close()

	out := []DetailedEmployeeRow{}

	for rows.Next() {
		var row DetailedEmployeeRow

		err = rows.Scan(
			&row.EmployeeNumber, &row.FirstName, &row.LastName, &row.IDNumber,
			&row.Email, &row.Phone, &row.Department, &row.Position, &row.StartDate, &row.EndDate,
			&row.EmploymentType, &row.Status, &row.Salary, &row.CreatedAt,
			&row.Username, &row.Role, &row.UserActive, &row.DocumentCount,
		)

		if err != nil {
			return nil, err
		}

		out = append(out, row)
	}

	return out, rows.Err()
}

type DocumentTypeBreakdown struct {
	DocumentType string `json:"documentType"`
	Count        int    `json:"count"`
}

type DocumentsSummary struct {
	Total     int                     `json:"total"`
	TotalSize int64                   `json:"totalSize"`
	ByType    []DocumentTypeBreakdown `json:"byType"`
}

func (r *ReportsRepo) DocumentsSummary(ctx context.Context) (DocumentsSummary, error) {
	var s DocumentsSummary

	// archived documents are soft-deleted, they never count
	err := r.observe("reports.documents_summary", func() error {
		return r.pool.QueryRow(ctx, `
			SELECT COUNT(*), COALESCE(SUM(file_size), 0) FROM documents WHERE status <> 'archived'`,
		).Scan(&s.Total, &s.TotalSize)
	})

	if err != nil {
		return DocumentsSummary{}, err
	}

	var rows pgx.Rows

	err = r.observe("reports.documents_by_type", func() error {
		var e error
		rows, e = r.pool.Query(ctx, `
			SELECT document_type, COUNT(*) FROM documents
			WHERE status <> 'archived'
			GROUP BY 1 ORDER BY 2 DESC, 1`)
		return e
	})

	if err != nil {
		return DocumentsSummary{}, err
	}

	defer rows.Close()

	for rows.Next() {
		var d DocumentTypeBreakdown
		if err = rows.Scan(&d.DocumentType, &d.Count); err != nil {
			return DocumentsSummary{}, err
		}
		s.ByType = append(s.ByType, d)
	}

	return s, rows.Err()
}

type DashboardStats struct {
	TotalEmployees   int `json:"totalEmployees"`
	ActiveEmployees  int `json:"activeEmployees"`
	TotalUsers       int `json:"totalUsers"`
	ActiveUsers      int `json:"activeUsers"`
	TotalDocuments   int `json:"totalDocuments"`
	RecentAuditCount int `json:"recentAuditCount"`
}

// DashboardStats aggregates the headline counts in one round trip.
func (r *ReportsRepo) DashboardStats(ctx context.Context) (DashboardStats, error) {
	var s DashboardStats

	err := r.observe("reports.dashboard_stats", func() error {
		return r.pool.QueryRow(ctx, `
			SELECT
				(SELECT COUNT(*) FROM employees),
				(SELECT COUNT(*) FROM employees WHERE status = 'active'),
				(SELECT COUNT(*) FROM users),
				(SELECT COUNT(*) FROM users WHERE is_active),
				(SELECT COUNT(*) FROM documents),
				(SELECT COUNT(*) FROM audit_logs WHERE created_at > NOW() - INTERVAL '24 hours')`,
		).Scan(&s.TotalEmployees, &s.ActiveEmployees, &s.TotalUsers, &s.ActiveUsers,
			&s.TotalDocuments, &s.RecentAuditCount)
	})

	if err != nil {
		return DashboardStats{}, err
	}

	return s, nil
}

// QueryResult is the generic rowset shape returned by ad-hoc queries.
type QueryResult struct {
	Columns []string         `json:"columns"`
	Rows    []map[string]any `json:"rows"`
	Count   int              `json:"count"`
}

// RunReadOnly executes an already-vetted SELECT statement. The caller is
// responsible for gating access and rejecting anything that isn't a read.
func (r *ReportsRepo) RunReadOnly(ctx context.Context, query string) (QueryResult, error) {
	var rows pgx.Rows

	err := r.observe("reports.ad_hoc_query", func() error {
		var e error
		rows, e = r.pool.Query(ctx, query)
		return e
	})

	if err != nil {
		return QueryResult{}, err
	}

	defer rows.Close()

	fields := rows.FieldDescriptions()
	cols := make([]string, len(fields))
	for i, f := range fields {
		cols[i] = f.Name
	}

	result := QueryResult{Columns: cols, Rows: []map[string]any{}}

	for rows.Next() {
		values, err := rows.Values()
		if err != nil {
			return QueryResult{}, err
		}

		row := make(map[string]any, len(cols))
		for i, col := range cols {
			row[col] = values[i]
		}
		result.Rows = append(result.Rows, row)
	}

	if err := rows.Err(); err != nil {
		return QueryResult{}, err
	}

	result.Count = len(result.Rows)

	return result, nil
}
