package db

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"punchclock/internal/domain/auth"
	"punchclock/internal/platform/config"
)

func Seed(ctx context.Context, pool *pgxpool.Pool, cfg config.Config) error {
	if cfg.SeedManagerEmail != "" {
		if err := ensureUser(ctx, pool, cfg.SeedManagerName, cfg.SeedManagerEmail, cfg.SeedManagerPassword, "Management", auth.RoleManager); err != nil {
			return err
		}
	}

	if cfg.SeedDemoData {
		demo := []struct {
			name       string
			email      string
			department string
		}{
			{"Alice Demo", "alice@demo.local", "Engineering"},
			{"Bob Demo", "bob@demo.local", "Design"},
			{"Carol Demo", "carol@demo.local", "Engineering"},
		}
		for _, emp := range demo {
			if err := ensureUser(ctx, pool, emp.name, emp.email, "ChangeMe123!", emp.department, auth.RoleEmployee); err != nil {
				return err
			}
		}
	}

	return nil
}

func ensureUser(ctx context.Context, pool *pgxpool.Pool, name, email, password, department, role string) error {
	var id string
	err := pool.QueryRow(ctx, "SELECT id FROM users WHERE email = $1", email).Scan(&id)
	if err == nil {
		return nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return err
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return err
	}

	store := auth.NewStore(pool)
	for attempt := 0; attempt < 3; attempt++ {
		number, err := auth.NewEmployeeNumber()
		if err != nil {
			return err
		}
		_, err = store.CreateUser(ctx, name, email, hash, number, department, role)
		if errors.Is(err, auth.ErrEmployeeNumberTaken) {
			continue
		}
		return err
	}
	return auth.ErrEmployeeNumberTaken
}
