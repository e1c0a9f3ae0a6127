package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/jhoicas/pharmaverif-api/internal/infrastructure/recordstore"
)

var _ recordstore.Medium = (*KVMedium)(nil)

// Querier subconjunto de pgxpool.Pool / pgx.Tx usado por el medio.
type Querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

const kvSchema = `
CREATE TABLE IF NOT EXISTS record_store_kv (
	key        TEXT PRIMARY KEY,
	value      JSONB NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
)`

// KVMedium medio durable clave/valor sobre PostgreSQL. Cada snapshot se guarda como JSONB.
type KVMedium struct {
	q    Querier
	pool *pgxpool.Pool
}

// NewKVMedium crea la tabla si no existe. Close cierra el pool.
func NewKVMedium(ctx context.Context, pool *pgxpool.Pool) (*KVMedium, error) {
	if _, err := pool.Exec(ctx, kvSchema); err != nil {
		return nil, fmt.Errorf("crear record_store_kv: %w", err)
	}
	return &KVMedium{q: pool, pool: pool}, nil
}

func (m *KVMedium) Get(ctx context.Context, key string) ([]byte, bool, error) {
	var value []byte
	err := m.q.QueryRow(ctx, `SELECT value::text FROM record_store_kv WHERE key = $1`, key).Scan(&value)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		if isUndefinedTable(err) {
			return nil, false, fmt.Errorf("tabla record_store_kv inexistente: %w", err)
		}
		return nil, false, fmt.Errorf("leer %s: %w", key, err)
	}
	return value, true, nil
}

func (m *KVMedium) Set(ctx context.Context, key string, value []byte) error {
	_, err := m.q.Exec(ctx, `
		INSERT INTO record_store_kv (key, value, updated_at)
		VALUES ($1, $2::jsonb, now())
		ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, updated_at = EXCLUDED.updated_at`,
		key, string(value))
	if err != nil {
		if isInvalidJSON(err) {
			return fmt.Errorf("payload no JSON para %s: %w", key, err)
		}
		return fmt.Errorf("escribir %s: %w", key, err)
	}
	return nil
}

func (m *KVMedium) Delete(ctx context.Context, key string) error {
	if _, err := m.q.Exec(ctx, `DELETE FROM record_store_kv WHERE key = $1`, key); err != nil {
		return fmt.Errorf("borrar %s: %w", key, err)
	}
	return nil
}

func (m *KVMedium) Close() error {
	if m.pool != nil {
		m.pool.Close()
	}
	return nil
}
