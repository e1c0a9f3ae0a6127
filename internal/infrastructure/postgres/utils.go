package postgres

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
)

// pgCode devuelve el SQLSTATE del error si proviene del servidor.
func pgCode(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code
	}
	return ""
}

// isUndefinedTable 42P01: la tabla del medio aún no existe.
func isUndefinedTable(err error) bool {
	return pgCode(err) == "42P01"
}

// isInvalidJSON 22P02 / 22032: el payload no es JSON válido para la columna JSONB.
func isInvalidJSON(err error) bool {
	c := pgCode(err)
	return c == "22P02" || c == "22032"
}
