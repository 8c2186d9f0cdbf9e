// Package migrations embeds SQL migration files.
package migrations

import "embed"

// FS contiene las migraciones Postgres del core.
//
//go:embed *.sql
var FS embed.FS
