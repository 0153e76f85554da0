// Package contractsdb holds all the migrations for the contracts database
package contractsdb

import (
	"github.com/uptrace/bun/migrate"
)

// Migrations is the collection of all migrations for the contracts database
var Migrations = migrate.NewMigrations()
