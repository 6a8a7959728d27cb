package showcase

import "embed"

// migrationsFS holds the goose SQL migrations for the content database.
//
//go:embed migrations/*.sql
var migrationsFS embed.FS
