// Package migrations embeds the SQL migration files for the order service.
package migrations

import "embed"

// FS contains all SQL migration files.
//
//go:embed *.sql
var FS embed.FS
