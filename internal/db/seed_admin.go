package db

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/peopleops/hrhub/internal/config"
	"github.com/peopleops/hrhub/internal/domain/user"
	"github.com/peopleops/hrhub/internal/security"
)

// EnsureAdminUser seeds the bootstrap admin account when configured and
// absent. It never touches an existing account, so rotating the
// configured password does not silently rewrite credentials.
func EnsureAdminUser(ctx context.Context, pool *pgxpool.Pool, cfg config.Config) error {
	if cfg.AdminUsername == "" || cfg.AdminEmail == "" || cfg.AdminPassword == "" {
		return nil
	}

	var dummy string

	err := pool.QueryRow(ctx,
		`SELECT user_id FROM users WHERE username = $1 OR email = $2`,
		cfg.AdminUsername, cfg.AdminEmail,
	).Scan(&dummy)

	if err == nil {
		return nil
	}

	if !errors.Is(err, pgx.ErrNoRows) {
		return err
	}

	hash, err := security.HashPassword(cfg.AdminPassword)

	if err != nil {
		return err
	}

	_, err = pool.Exec(ctx,
		`INSERT INTO users (username, email, password_hash, role, is_active)
		VALUES ($1, $2, $3, $4, true)`,
		cfg.AdminUsername, cfg.AdminEmail, hash, user.RoleAdmin,
	)

	return err
}
