// Package migrations embeds the SQL migration files for the portal's
// own schema (the failed-delivery ledger). Appointment data lives in
// the managed backend, not here.
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS
