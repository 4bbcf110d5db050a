package migrations

import "embed"

// FS contains embedded SQLite migrations for batch history.
//
//go:embed *.sql
var FS embed.FS
