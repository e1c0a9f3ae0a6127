// Package sqlite medio durable local para el almacén de registros: una tabla clave/valor en un fichero SQLite.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	_ "github.com/mattn/go-sqlite3"

	"github.com/jhoicas/pharmaverif-api/internal/infrastructure/recordstore"
)

// Versión del esquema propio de la tabla (PRAGMA user_version), independiente del schema_version del snapshot.
const tableSchemaVersion = 1

var _ recordstore.Medium = (*Medium)(nil)

// Medium implementa recordstore.Medium sobre SQLite.
type Medium struct {
	db *sql.DB
}

// Open abre (o crea) la base en path. ":memory:" para una base efímera.
func Open(path string) (*Medium, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("abrir sqlite: %w", err)
	}
	// Una sola conexión: con ":memory:" cada conexión tendría su propia base.
	db.SetMaxOpenConns(1)

	if err := applyPragmas(db); err != nil {
		db.Close()
		return nil, err
	}
	if err := migrate(db); err != nil {
		db.Close()
		return nil, err
	}
	return &Medium{db: db}, nil
}

func applyPragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 5000",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			return fmt.Errorf("ejecutar %q: %w", p, err)
		}
	}
	return nil
}

func migrate(db *sql.DB) error {
	var version int
	if err := db.QueryRow("PRAGMA user_version").Scan(&version); err != nil {
		return fmt.Errorf("leer user_version: %w", err)
	}
	if version < 1 {
		_, err := db.Exec(`
			CREATE TABLE IF NOT EXISTS record_store_kv (
				key        TEXT PRIMARY KEY,
				value      BLOB NOT NULL,
				updated_at TEXT NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%fZ', 'now'))
			)`)
		if err != nil {
			return fmt.Errorf("crear record_store_kv: %w", err)
		}
	}
	if _, err := db.Exec(fmt.Sprintf("PRAGMA user_version = %d", tableSchemaVersion)); err != nil {
		return fmt.Errorf("fijar user_version: %w", err)
	}
	return nil
}

func (m *Medium) Get(ctx context.Context, key string) ([]byte, bool, error) {
	var value []byte
	err := m.db.QueryRowContext(ctx, `SELECT value FROM record_store_kv WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("leer %s: %w", key, err)
	}
	return value, true, nil
}

func (m *Medium) Set(ctx context.Context, key string, value []byte) error {
	_, err := m.db.ExecContext(ctx, `
		INSERT INTO record_store_kv (key, value, updated_at)
		VALUES (?, ?, strftime('%Y-%m-%dT%H:%M:%fZ', 'now'))
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		key, value)
	if err != nil {
		return fmt.Errorf("escribir %s: %w", key, err)
	}
	return nil
}

func (m *Medium) Delete(ctx context.Context, key string) error {
	if _, err := m.db.ExecContext(ctx, `DELETE FROM record_store_kv WHERE key = ?`, key); err != nil {
		return fmt.Errorf("borrar %s: %w", key, err)
	}
	return nil
}

func (m *Medium) Close() error {
	if m.db == nil {
		return nil
	}
	return m.db.Close()
}

// SchemaVersion versión de la tabla (PRAGMA user_version).
func (m *Medium) SchemaVersion(ctx context.Context) (int, error) {
	var v int
	err := m.db.QueryRowContext(ctx, "PRAGMA user_version").Scan(&v)
	return v, err
}
