package pending

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// querier es el subconjunto de *pgxpool.Pool que usa PostgresBackend.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Ping(ctx context.Context) error
}

// PostgresBackend guarda el email pendiente en la tabla pending_signin_email
// (ver migrations/postgres). Una fila por browsing context.
type PostgresBackend struct {
	db querier
}

// NewPostgresBackend crea un Backend sobre un pool pgx.
func NewPostgresBackend(db querier) *PostgresBackend {
	return &PostgresBackend{db: db}
}

const (
	sqlLoadPending   = `SELECT email FROM pending_signin_email WHERE context_id = $1`
	sqlSavePending   = `INSERT INTO pending_signin_email (context_id, email, updated_at) VALUES ($1, $2, now()) ON CONFLICT (context_id) DO UPDATE SET email = EXCLUDED.email, updated_at = now()`
	sqlRemovePending = `DELETE FROM pending_signin_email WHERE context_id = $1`
)

func (b *PostgresBackend) Load(ctx context.Context, contextID string) (string, bool, error) {
	var email string
	err := b.db.QueryRow(ctx, sqlLoadPending, contextID).Scan(&email)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("pending: load: %w", err)
	}
	return email, true, nil
}

func (b *PostgresBackend) Save(ctx context.Context, contextID, email string) error {
	if _, err := b.db.Exec(ctx, sqlSavePending, contextID, email); err != nil {
		return fmt.Errorf("pending: save: %w", err)
	}
	return nil
}

func (b *PostgresBackend) Remove(ctx context.Context, contextID string) error {
	if _, err := b.db.Exec(ctx, sqlRemovePending, contextID); err != nil {
		return fmt.Errorf("pending: remove: %w", err)
	}
	return nil
}

func (b *PostgresBackend) Ping(ctx context.Context) error { return b.db.Ping(ctx) }
func (b *PostgresBackend) Name() string                   { return "postgres" }
