// Package repository holds the SQL persistence layer for orders, process
// steps, transitions, transfers and reject logs.
package repository

import "database/sql"

// Querier is the common surface of *sql.DB and *sql.Tx. Engine operations
// pass the transaction they run in; read paths may pass the bare DB.
type Querier interface {
	Exec(query string, args ...any) (sql.Result, error)
	Query(query string, args ...any) (*sql.Rows, error)
	QueryRow(query string, args ...any) *sql.Row
}
