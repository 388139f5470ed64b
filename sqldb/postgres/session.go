// Package postgres creates the session table for github.com/alexedwards/scs/postgresstore.
package postgres

import (
	"database/sql"

	"github.com/alexedwards/scs/postgresstore"
	"github.com/alexedwards/scs/v2"
)

func NewSessionStore(db *sql.DB) (scs.Store, error) {

	for _, statement := range []string{
		`CREATE TABLE IF NOT EXISTS sessions (
			token TEXT PRIMARY KEY,
			data BYTEA NOT NULL,
			expiry TIMESTAMPTZ NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS sessions_expiry_idx ON sessions (expiry)`,
	} {
		if _, err := db.Exec(statement); err != nil {
			return nil, err
		}
	}

	return postgresstore.New(db), nil
}
