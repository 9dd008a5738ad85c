// Package migrations embeds the SQL schema for SQL-backed key-value stores.
package migrations

import "embed"

// FS holds goose migration files.
//
//go:embed *.sql
var FS embed.FS
