package database

import (
	pgxmock "github.com/pashagolub/pgxmock/v3"
)

// NewMockPool returns a pgxmock pool for repository tests. It satisfies
// DBTX, so the user and recipe repositories accept it in place of a real
// pgxpool. Tests should finish with ExpectationsWereMet.
func NewMockPool() (pgxmock.PgxPoolIface, error) {
	return pgxmock.NewPool()
}
