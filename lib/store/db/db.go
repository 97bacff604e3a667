// Package db implements the opening and graceful closing of database connections.
package db

import (
	"fmt"

	"github.com/tarancss/suiadp/lib/store"
	"github.com/tarancss/suiadp/lib/store/bolt"
	"github.com/tarancss/suiadp/lib/store/mongo"
	"github.com/tarancss/suiadp/lib/store/postgres"
)

// Database types accepted in the configuration.
const (
	BOLT     string = "bolt"
	MONGODB  string = "mongodb"
	POSTGRES string = "postgresql"
)

// New returns a new database connection according to the options (database type).
func New(options, connection string) (store.DB, error) {
	switch options {
	case BOLT, "":
		return bolt.New(connection)
	case MONGODB:
		return mongo.New(connection)
	case POSTGRES:
		return postgres.New(connection)
	}

	return nil, fmt.Errorf("unknown database type %q", options)
}

// Close gracefully closes the database connection.
func Close(dh store.DB) error {
	if dh == nil {
		return nil
	}

	return dh.Close()
}
