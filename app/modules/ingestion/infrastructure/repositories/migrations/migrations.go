// Package ingestionmigrations holds the schema migrations for the ingestion
// module, registered with bun's migrator and driven by the root CLI.
package ingestionmigrations

import "github.com/uptrace/bun/migrate"

var Migrations = migrate.NewMigrations()
