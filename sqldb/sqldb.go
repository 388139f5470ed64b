// Package sqldb implements the database interfaces of the auth and core packages for sqlite3, mysql and postgres.
package sqldb

import (
	"database/sql"
	"fmt"
	"strconv"
	"strings"
)

// DB is a database connection together with the name of its driver.
type DB struct {
	*sql.DB
	Driver string // "sqlite3", "mysql" or "postgres"
}

func New(db *sql.DB, driver string) *DB {
	return &DB{
		DB:     db,
		Driver: driver,
	}
}

// rebind replaces the question mark placeholders by $1, $2 etc. if the driver is postgres.
func (db *DB) rebind(query string) string {
	if db.Driver != "postgres" {
		return query
	}
	var b strings.Builder
	var n = 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
		} else {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// mustExec executes DDL statements one by one, as some drivers don't accept multiple statements. It panics on error.
func (db *DB) mustExec(statements ...string) {
	for _, statement := range statements {
		if _, err := db.Exec(statement); err != nil {
			panic(fmt.Sprintf("error executing %q: %v", statement, err))
		}
	}
}

// mustPrepare prepares a statement. It panics on error, because that means that the query or the schema is broken.
func (db *DB) mustPrepare(query string) *sql.Stmt {
	stmt, err := db.Prepare(db.rebind(query))
	if err != nil {
		panic(fmt.Sprintf("error preparing %q: %v", query, err))
	}
	return stmt
}

// rowScanner is implemented by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...interface{}) error
}
