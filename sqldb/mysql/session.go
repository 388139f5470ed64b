// Package mysql creates the session table for github.com/alexedwards/scs/mysqlstore.
package mysql

import (
	"database/sql"

	"github.com/alexedwards/scs/mysqlstore"
	"github.com/alexedwards/scs/v2"
)

func NewSessionStore(db *sql.DB) (scs.Store, error) {

	// mysql has no CREATE INDEX IF NOT EXISTS, so the index is part of the table definition
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS sessions (
			token CHAR(43) PRIMARY KEY,
			data BLOB NOT NULL,
			expiry TIMESTAMP(6) NOT NULL,
			INDEX sessions_expiry_idx (expiry)
		)`)
	if err != nil {
		return nil, err
	}

	return mysqlstore.New(db), nil
}
