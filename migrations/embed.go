// Package migrations embeds the SQL schema migrations into the binary so the
// service never depends on SQL files being present on disk.
package migrations

import "embed"

// FS holds every *.sql file in this directory. Pass it to
// (*database.DB).Migrate.
//
//go:embed *.sql
var FS embed.FS
