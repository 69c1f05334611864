// Package migrations embebe las migraciones SQL del backend Postgres.
package migrations

import "embed"

// FS contiene los *_up.sql / *_down.sql del store de emails pendientes.
//
//go:embed *.sql
var FS embed.FS
