package sqlite3

import (
	"database/sql"
	"testing"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewSessionStore(t *testing.T) {

	db, err := sql.Open("sqlite3", ":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	defer db.Close()

	store, err := NewSessionStore(db)
	require.NoError(t, err)

	// idempotent
	_, err = NewSessionStore(db)
	require.NoError(t, err)

	require.NoError(t, store.Commit("token", []byte("data"), time.Now().Add(time.Hour)))
	data, found, err := store.Find("token")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, []byte("data"), data)
}
