package sqldb

import (
	"database/sql"
	"errors"
	"time"

	"github.com/wansing/healthregistry/auth"
	"golang.org/x/crypto/bcrypt"
)

const userColumns = "cpf, name, municipality, role, job_title, registration, email, active, created, created_by"

func scanUser(row rowScanner) (*auth.Identity, error) {
	var u = &auth.Identity{}
	var role string
	var created int64
	if err := row.Scan(&u.ID, &u.Name, &u.Municipality, &role, &u.Position, &u.Registration, &u.Email, &u.Active, &created, &u.CreatedBy); err != nil {
		return nil, err
	}
	u.Role = auth.Role(role)
	u.CreatedAt = time.Unix(0, created).UTC()
	return u, nil
}

// UserDB stores users and their bcrypt password hashes.
type UserDB struct {
	getAll      *sql.Stmt
	get         *sql.Stmt
	insert      *sql.Stmt
	password    *sql.Stmt
	setActive   *sql.Stmt
	setPassword *sql.Stmt
}

func NewUserDB(db *DB) *UserDB {

	db.mustExec(
		`CREATE TABLE IF NOT EXISTS usr (
			cpf VARCHAR(11) PRIMARY KEY,
			name VARCHAR(255) NOT NULL,
			municipality VARCHAR(128) NOT NULL,
			role VARCHAR(16) NOT NULL,
			job_title VARCHAR(128) NOT NULL,
			registration VARCHAR(64) NOT NULL,
			email VARCHAR(255) NOT NULL,
			active BOOLEAN NOT NULL,
			password VARCHAR(72) NOT NULL,
			created BIGINT NOT NULL,
			created_by VARCHAR(11) NOT NULL
		)`)

	var userDB = &UserDB{}
	userDB.get = db.mustPrepare("SELECT " + userColumns + " FROM usr WHERE cpf = ?")
	userDB.getAll = db.mustPrepare("SELECT " + userColumns + " FROM usr WHERE (? = '' OR municipality = ?) ORDER BY name LIMIT ? OFFSET ?")
	userDB.insert = db.mustPrepare("INSERT INTO usr (" + userColumns + ", password) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, '')") // empty password field is safe because no bcrypt hash equals it
	userDB.password = db.mustPrepare("SELECT active, password FROM usr WHERE cpf = ?")
	userDB.setActive = db.mustPrepare("UPDATE usr SET active = ? WHERE cpf = ?")
	userDB.setPassword = db.mustPrepare("UPDATE usr SET password = ? WHERE cpf = ?")
	return userDB
}

func (db *UserDB) Writeable() bool {
	return true
}

// checkPassword returns auth.ErrAuth if the user does not exist or the password is wrong.
func (db *UserDB) checkPassword(id, password string) error {
	var active bool
	var hash string
	err := db.password.QueryRow(id).Scan(&active, &hash)
	if err == sql.ErrNoRows {
		return auth.ErrAuth // user not found
	}
	if err != nil {
		return err
	}
	if bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) != nil {
		return auth.ErrAuth // wrong password, or no password set
	}
	return nil
}

func (db *UserDB) ChangePassword(id string, old, new string) error {
	if err := db.checkPassword(id, old); err != nil {
		return err
	}
	return db.SetPassword(id, new)
}

// GetUser returns sql.ErrNoRows if the user does not exist.
func (db *UserDB) GetUser(id string) (*auth.Identity, error) {
	return scanUser(db.get.QueryRow(id))
}

func (db *UserDB) GetAllUsers(municipality string, limit, offset int) ([]*auth.Identity, error) {

	var all = []*auth.Identity{}

	rows, err := db.getAll.Query(municipality, municipality, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		all = append(all, u)
	}

	return all, rows.Err()
}

func (db *UserDB) InsertUser(u *auth.Identity) error {
	_, err := db.insert.Exec(u.ID, u.Name, u.Municipality, string(u.Role), u.Position, u.Registration, u.Email, u.Active, u.CreatedAt.UnixNano(), u.CreatedBy)
	return err
}

func (db *UserDB) LoginUser(id, password string) (*auth.Identity, error) {
	if err := db.checkPassword(id, password); err != nil {
		return nil, err
	}
	return db.GetUser(id)
}

func (db *UserDB) SetActive(id string, active bool) error {
	return mustAffectOne(db.setActive.Exec(active, id))
}

func (db *UserDB) SetPassword(id string, password string) error {

	if password == "" {
		return errors.New("no password given")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	return mustAffectOne(db.setPassword.Exec(string(hash), id))
}

// mustAffectOne returns sql.ErrNoRows if the statement has not affected exactly one row.
func mustAffectOne(result sql.Result, err error) error {
	if err != nil {
		return err
	}
	n, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if n != 1 {
		return sql.ErrNoRows
	}
	return nil
}
