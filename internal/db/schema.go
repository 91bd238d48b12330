package db

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
)

// schemaStatements is the canonical bootstrap, executed in order at
// startup. Every statement is idempotent so restarts are harmless.
var schemaStatements = []string{
	`CREATE EXTENSION IF NOT EXISTS "pgcrypto"`,

	`CREATE TABLE IF NOT EXISTS users (
		user_id       UUID PRIMARY KEY DEFAULT gen_random_uuid(),
		username      TEXT NOT NULL UNIQUE,
		email         TEXT NOT NULL UNIQUE,
		password_hash TEXT NOT NULL,
		role          TEXT NOT NULL DEFAULT 'employee',
		is_active     BOOLEAN NOT NULL DEFAULT true,
		last_login    TIMESTAMPTZ,
		created_at    TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at    TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,

	`CREATE TABLE IF NOT EXISTS employees (
		employee_id             UUID PRIMARY KEY DEFAULT gen_random_uuid(),
		user_id                 UUID REFERENCES users(user_id),
		employee_number         TEXT NOT NULL UNIQUE,
		id_number               TEXT NOT NULL UNIQUE,
		passport_number         TEXT,
		first_name              TEXT NOT NULL,
		last_name               TEXT NOT NULL,
		email                   TEXT,
		phone                   TEXT,
		mobile_phone            TEXT,
		start_date              DATE,
		end_date                DATE,
		birth_date              DATE,
		address                 TEXT,
		city                    TEXT,
		postal_code             TEXT,
		emergency_contact_name  TEXT,
		emergency_contact_phone TEXT,
		department              TEXT,
		position                TEXT,
		manager_employee_id     UUID REFERENCES employees(employee_id),
		salary                  NUMERIC(12,2),
		employment_type         TEXT NOT NULL DEFAULT 'full_time',
		status                  TEXT NOT NULL DEFAULT 'active',
		notes                   TEXT,
		created_at              TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at              TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,

	`CREATE TABLE IF NOT EXISTS documents (
		document_id   UUID PRIMARY KEY DEFAULT gen_random_uuid(),
		employee_id   UUID REFERENCES employees(employee_id),
		uploaded_by   UUID REFERENCES users(user_id),
		title         TEXT NOT NULL,
		file_name     TEXT NOT NULL,
		file_type     TEXT,
		file_size     BIGINT,
		document_type TEXT NOT NULL DEFAULT 'other',
		status        TEXT NOT NULL DEFAULT 'uploaded',
		visibility    TEXT NOT NULL DEFAULT 'private',
		storage_path  TEXT,
		created_at    TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at    TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,

	`CREATE TABLE IF NOT EXISTS audit_logs (
		log_id      UUID PRIMARY KEY DEFAULT gen_random_uuid(),
		user_id     UUID,
		action      TEXT NOT NULL,
		entity_type TEXT NOT NULL,
		entity_id   TEXT,
		old_values  JSONB,
		new_values  JSONB,
		ip_address  TEXT,
		user_agent  TEXT,
		created_at  TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,

	`CREATE INDEX IF NOT EXISTS idx_employees_user_id ON employees(user_id)`,
	`CREATE INDEX IF NOT EXISTS idx_employees_department ON employees(department)`,
	`CREATE INDEX IF NOT EXISTS idx_employees_status ON employees(status)`,
	`CREATE INDEX IF NOT EXISTS idx_documents_employee_id ON documents(employee_id)`,
	`CREATE INDEX IF NOT EXISTS idx_audit_logs_user_id ON audit_logs(user_id)`,
	`CREATE INDEX IF NOT EXISTS idx_audit_logs_created_at ON audit_logs(created_at)`,
	`CREATE INDEX IF NOT EXISTS idx_audit_logs_action ON audit_logs(action)`,
}

func EnsureSchema(ctx context.Context, pool *pgxpool.Pool) error {
	for _, stmt := range schemaStatements {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return err
		}
	}

	return nil
}
