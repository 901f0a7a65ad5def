// Package db selects the storage driver for the configured database.
package db

import (
	"github.com/pkg/errors"

	"github.com/saborlabs/saborai/internal/profile"
	"github.com/saborlabs/saborai/store"
	"github.com/saborlabs/saborai/store/db/postgres"
	"github.com/saborlabs/saborai/store/db/sqlite"
)

// NewDBDriver creates a new DB driver based on the profile.
func NewDBDriver(profile *profile.Profile) (store.Driver, error) {
	switch profile.Driver {
	case "sqlite":
		return sqlite.NewDB(profile)
	case "postgres":
		return postgres.NewDB(profile)
	default:
		return nil, errors.Errorf("unknown db driver %q", profile.Driver)
	}
}
