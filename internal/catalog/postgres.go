package catalog

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"

	_ "github.com/jackc/pgx/v5/stdlib"
)

// PostgresKB stores component specs as JSON rows in Postgres.
type PostgresKB struct {
	db         *sql.DB
	schemaOnce sync.Once
	schemaErr  error
}

// OpenPostgres connects via the pgx stdlib driver.
func OpenPostgres(dsn string) (*PostgresKB, error) {
	dsn = strings.TrimSpace(dsn)
	if dsn == "" {
		return nil, fmt.Errorf("catalog: postgres dsn is required")
	}
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("catalog: open postgres: %w", err)
	}
	return NewPostgresKB(db), nil
}

func NewPostgresKB(db *sql.DB) *PostgresKB {
	return &PostgresKB{db: db}
}

func (kb *PostgresKB) ensureSchema(ctx context.Context) error {
	if kb == nil || kb.db == nil {
		return fmt.Errorf("catalog: db is nil")
	}
	kb.schemaOnce.Do(func() {
		_, kb.schemaErr = kb.db.ExecContext(ctx, `
CREATE TABLE IF NOT EXISTS catalog_components (
    type TEXT PRIMARY KEY,
    spec JSONB NOT NULL,
    position INT NOT NULL DEFAULT 0,
    updated_at TIMESTAMP WITH TIME ZONE DEFAULT NOW()
);
`)
	})
	return kb.schemaErr
}

// Upsert inserts or replaces a component spec.
func (kb *PostgresKB) Upsert(ctx context.Context, position int, spec ComponentSpec) error {
	if err := kb.ensureSchema(ctx); err != nil {
		return err
	}
	t := strings.TrimSpace(spec.Type)
	if t == "" {
		return fmt.Errorf("catalog: component type is required")
	}
	raw, err := json.Marshal(spec)
	if err != nil {
		return fmt.Errorf("catalog: encode spec: %w", err)
	}
	_, err = kb.db.ExecContext(ctx, `
INSERT INTO catalog_components (type, spec, position, updated_at)
VALUES ($1, $2, $3, NOW())
ON CONFLICT (type) DO UPDATE SET spec = EXCLUDED.spec, position = EXCLUDED.position, updated_at = NOW()
`, t, raw, position)
	return err
}

func (kb *PostgresKB) ListComponentTypes(ctx context.Context) ([]ComponentSpec, error) {
	if err := kb.ensureSchema(ctx); err != nil {
		return nil, err
	}
	rows, err := kb.db.QueryContext(ctx, `SELECT spec FROM catalog_components ORDER BY position, type`)
	if err != nil {
		return nil, fmt.Errorf("catalog: list: %w", err)
	}
	defer rows.Close()

	var out []ComponentSpec
	for rows.Next() {
		var raw []byte
		if err := rows.Scan(&raw); err != nil {
			return nil, fmt.Errorf("catalog: scan: %w", err)
		}
		var spec ComponentSpec
		if err := json.Unmarshal(raw, &spec); err != nil {
			return nil, fmt.Errorf("catalog: decode spec: %w", err)
		}
		out = append(out, spec)
	}
	return out, rows.Err()
}

func (kb *PostgresKB) GetComponent(ctx context.Context, componentType string) (ComponentSpec, error) {
	if err := kb.ensureSchema(ctx); err != nil {
		return ComponentSpec{}, err
	}
	var raw []byte
	err := kb.db.QueryRowContext(ctx,
		`SELECT spec FROM catalog_components WHERE type = $1`,
		strings.TrimSpace(componentType),
	).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return ComponentSpec{}, ErrNotFound
	}
	if err != nil {
		return ComponentSpec{}, fmt.Errorf("catalog: get: %w", err)
	}
	var spec ComponentSpec
	if err := json.Unmarshal(raw, &spec); err != nil {
		return ComponentSpec{}, fmt.Errorf("catalog: decode spec: %w", err)
	}
	return spec, nil
}

// Close closes the underlying connection pool.
func (kb *PostgresKB) Close() error {
	if kb == nil || kb.db == nil {
		return nil
	}
	return kb.db.Close()
}
