// Package migrations compiles the schema migration SQL into the
// binary, so a deployment needs no migration files on disk.
package migrations

import (
	"embed"

	"github.com/atrium-access/atrium-core/internal/infrastructure/database"
)

//go:embed *.sql
var migrationsFS embed.FS

func init() {
	// The database package applies whatever is registered here. Files
	// sit at the root of the embedded FS.
	database.MigrationsFS = migrationsFS
	database.MigrationsDir = "."
}
