package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/peopleops/hrhub/internal/audit"
	"github.com/peopleops/hrhub/internal/observability"
)

// AuditLogsRepo appends to and reads the append-only audit trail. There is
// deliberately no update or delete here.
type AuditLogsRepo struct {
	pool *pgxpool.Pool
	prom *observability.Prom
}

func NewAuditLogsRepo(pool *pgxpool.Pool, prom *observability.Prom) *AuditLogsRepo {
	return &AuditLogsRepo{pool: pool, prom: prom}
}

func (r *AuditLogsRepo) observe(op string, fn func() error) error {
	if r.prom != nil {
		return r.prom.ObserveDB(op, fn)
	}
	return fn()
}

func (r *AuditLogsRepo) Insert(ctx context.Context, e audit.Entry) error {
	oldJSON, err := marshalSnapshot(e.OldValues)
	if err != nil {
		return fmt.Errorf("marshal old values: %w", err)
	}

	newJSON, err := marshalSnapshot(e.NewValues)
	if err != nil {
		return fmt.Errorf("marshal new values: %w", err)
	}

	return r.observe("audit.insert", func() error {
		_, err := r.pool.Exec(ctx, `
			INSERT INTO audit_logs (user_id, action, entity_type, entity_id, old_values, new_values, ip_address, user_agent)
			VALUES (NULLIF($1, '')::uuid, $2, $3, $4, $5, $6, NULLIF($7, ''), NULLIF($8, ''))`,
			e.ActorID, e.Action, e.EntityType, e.EntityID, oldJSON, newJSON, e.IPAddress, e.UserAgent,
		)
		return err
	})
}

func marshalSnapshot(v any) (*string, error) {
	if v == nil {
		return nil, nil
	}

	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}

	s := string(b)
	return &s, nil
}

// List powers the system activity report.
func (r *AuditLogsRepo) List(ctx context.Context, f audit.ListFilter) ([]audit.Entry, error) {
	var conds []string
	var args []any

	if f.From != nil {
		args = append(args, *f.From)
		conds = append(conds, fmt.Sprintf("created_at >= $%d", len(args)))
	}
	if f.To != nil {
		args = append(args, *f.To)
		conds = append(conds, fmt.Sprintf("created_at <= $%d", len(args)))
	}
	if f.Action != nil {
		args = append(args, *f.Action)
		conds = append(conds, fmt.Sprintf("action = $%d", len(args)))
	}

	query := `SELECT log_id, COALESCE(user_id::text, ''), action, entity_type, COALESCE(entity_id, ''),
		old_values, new_values, COALESCE(ip_address, ''), COALESCE(user_agent, ''), created_at
		FROM audit_logs`

	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}

	args = append(args, f.Limit)
	query += fmt.Sprintf(" ORDER BY created_at DESC LIMIT $%d", len(args))

	var rows pgx.Rows

	err := r.observe("audit.list", func() error {
		var e error
		rows, e = r.pool.Query(ctx, query, args...)
		return e
	})

	if err != nil {
		return nil, err
	}

	defer rows.Close()

	var out []audit.Entry

	for rows.Next() {
		var entry audit.Entry
		var oldVals, newVals *json.RawMessage

		err = rows.Scan(
			&entry.ID, &entry.ActorID, &entry.Action, &entry.EntityType, &entry.EntityID,
			&oldVals, &newVals, &entry.IPAddress, &entry.UserAgent, &entry.CreatedAt,
		)

		if err != nil {
			return nil, err
		}

		if oldVals != nil {
			entry.OldValues = *oldVals
		}
		if newVals != nil {
			entry.NewValues = *newVals
		}

		out = append(out, entry)
	}

	return out, rows.Err()
}
