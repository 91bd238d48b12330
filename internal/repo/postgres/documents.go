package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/peopleops/hrhub/internal/domain/document"
	"github.com/peopleops/hrhub/internal/observability"
)

const documentColumns = `d.document_id, d.employee_id, d.uploaded_by, d.title, d.file_name,
	d.file_type, d.file_size, d.document_type, d.status, d.visibility, d.storage_path,
	d.created_at, d.updated_at`

type DocumentsRepo struct {
	pool *pgxpool.Pool
	prom *observability.Prom
}

func NewDocumentsRepo(pool *pgxpool.Pool, prom *observability.Prom) *DocumentsRepo {
	return &DocumentsRepo{pool: pool, prom: prom}
}

func (r *DocumentsRepo) observe(op string, fn func() error) error {
	if r.prom != nil {
		return r.prom.ObserveDB(op, fn)
	}
	return fn()
}

// DocumentWithOwner carries the owning user's id (via the employee link)
// so ownership checks don't need a second query.
type DocumentWithOwner struct {
	document.Document
	OwnerUserID *string `json:"-"`
}

func documentScanDest(d *DocumentWithOwner) []any {
	return []any{
		&d.ID, &d.EmployeeID, &d.UploadedBy, &d.Title, &d.FileName,
		&d.FileType, &d.FileSize, &d.DocumentType, &d.Status, &d.Visibility, &d.StoragePath,
		&d.CreatedAt, &d.UpdatedAt, &d.OwnerUserID,
	}
}

func (r *DocumentsRepo) GetByID(ctx context.Context, id string) (DocumentWithOwner, error) {
	var d DocumentWithOwner

	err := r.observe("documents.get_by_id", func() error {
		return r.pool.QueryRow(ctx, `
			SELECT `+documentColumns+`, e.user_id AS owner_user_id
			FROM documents d
			LEFT JOIN employees e ON d.employee_id = e.employee_id
			WHERE d.document_id = $1`,
			id,
		).Scan(documentScanDest(&d)...)
	})

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return DocumentWithOwner{}, document.ErrNotFound
		}
		return DocumentWithOwner{}, err
	}

	return d, nil
}

// List returns documents matching the filter. When ownUserID is set the
// result is restricted to that user's own documents plus public ones
// (the employee-role visibility rule).
func (r *DocumentsRepo) List(ctx context.Context, f document.ListDocumentsFilter, ownUserID *string) ([]DocumentWithOwner, int, error) {
	var conds []string
	var args []any

	if ownUserID != nil {
		args = append(args, *ownUserID)
		conds = append(conds, fmt.Sprintf("(e.user_id = $%d OR d.visibility = 'public')", len(args)))
	} else if f.EmployeeID != nil {
		args = append(args, *f.EmployeeID)
		conds = append(conds, fmt.Sprintf("d.employee_id = $%d", len(args)))
	}

	if f.DocumentType != nil {
		args = append(args, *f.DocumentType)
		conds = append(conds, fmt.Sprintf("d.document_type = $%d", len(args)))
	}
	if f.Status != nil {
		args = append(args, *f.Status)
		conds = append(conds, fmt.Sprintf("d.status = $%d", len(args)))
	}

	query := `SELECT ` + documentColumns + `, e.user_id AS owner_user_id, COUNT(*) OVER() AS total
		FROM documents d
		LEFT JOIN employees e ON d.employee_id = e.employee_id`

	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}

	args = append(args, f.Limit, f.Offset)
	query += fmt.Sprintf(" ORDER BY d.created_at DESC, d.document_id LIMIT $%d OFFSET $%d", len(args)-1, len(args))

	var rows pgx.Rows

	err := r.observe("documents.list", func() error {
		var e error
		rows, e = r.pool.Query(ctx, query, args...)
		return e
	})

	if err != nil {
		return nil, 0, err
	}

	defer rows.Close()

	out := make([]DocumentWithOwner, 0, f.Limit)
	total := 0

	for rows.Next() {
		var d DocumentWithOwner
		var t int

		dest := append(documentScanDest(&d), &t)

		if err = rows.Scan(dest...); err != nil {
			return nil, 0, err
		}

		total = t
		out = append(out, d)
	}

	return out, total, rows.Err()
}

func (r *DocumentsRepo) Create(ctx context.Context, req document.CreateDocumentRequest, uploadedBy string) (document.Document, error) {
	visibility := req.Visibility
	if visibility == "" {
		visibility = document.VisibilityPrivate
	}

	var d DocumentWithOwner

	err := r.observe("documents.create", func() error {
		return r.pool.QueryRow(ctx, `
			INSERT INTO documents (employee_id, uploaded_by, title, file_name, file_type, file_size, document_type, status, visibility)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
			RETURNING document_id, employee_id, uploaded_by, title, file_name,
				file_type, file_size, document_type, status, visibility, storage_path,
				created_at, updated_at`,
			req.EmployeeID, uploadedBy, req.Title, req.FileName, req.FileType,
			req.FileSize, req.DocumentType, document.StatusUploaded, visibility,
		).Scan(documentScanDest(&d)[:13]...)
	})

	if err != nil {
		return document.Document{}, err
	}

	return d.Document, nil
}

func (r *DocumentsRepo) Update(ctx context.Context, id string, req document.UpdateDocumentRequest) (document.Document, error) {
	var d DocumentWithOwner

	err := r.observe("documents.update", func() error {
		return r.pool.QueryRow(ctx, `
			UPDATE documents SET
				title = COALESCE($2, title),
				document_type = COALESCE($3, document_type),
				status = COALESCE($4, status),
				visibility = COALESCE($5, visibility),
				updated_at = NOW()
			WHERE document_id = $1
			RETURNING document_id, employee_id, uploaded_by, title, file_name,
				file_type, file_size, document_type, status, visibility, storage_path,
				created_at, updated_at`,
			id, req.Title, req.DocumentType, req.Status, req.Visibility,
		).Scan(documentScanDest(&d)[:13]...)
	})

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return document.Document{}, document.ErrNotFound
		}
		return document.Document{}, err
	}

	return d.Document, nil
}

// Archive is the delete operation: rows are never removed, the document is
// moved to the archived status and drops out of listings and summaries.
func (r *DocumentsRepo) Archive(ctx context.Context, id string) error {
	return r.observe("documents.archive", func() error {
		tag, err := r.pool.Exec(ctx, `
			UPDATE documents SET status = $2, updated_at = NOW()
			WHERE document_id = $1`,
			id, document.StatusArchived,
		)

		if err != nil {
			return err
		}

		if tag.RowsAffected() == 0 {
			return document.ErrNotFound
		}

		return nil
	})
}
