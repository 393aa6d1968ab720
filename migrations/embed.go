// Package migrations holds the SQL schema for the users table.
// Files follow the golang-migrate naming scheme (NNNNNN_name.up.sql / .down.sql).
package migrations

import "embed"

// FS contains every migration file.
//
//go:embed *.sql
var FS embed.FS
