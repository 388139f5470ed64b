package auth

import (
	"errors"
	"fmt"
	"strings"

	"github.com/wansing/healthregistry/util"
)

type AuthDB struct {
	UserDB
}

var (
	ErrAuth            = errors.New("authentication failed")
	ErrEmptyPassword   = errors.New("refusing to set empty password")
	ErrInvalidUser     = errors.New("invalid user")
	ErrShortPassword   = errors.New("password must have at least 8 characters")
	ErrUnauthenticated = errors.New("not logged in")
)

// InsertUser shadows AuthDB.UserDB.InsertUser.
func (a *AuthDB) InsertUser(u *Identity) error {
	u.ID = util.Digits(u.ID)
	if len(u.ID) != 11 {
		return fmt.Errorf("%w: CPF must have 11 digits, got %d", ErrInvalidUser, len(u.ID))
	}
	u.Name = strings.TrimSpace(u.Name)
	if u.Name == "" {
		return fmt.Errorf("%w: name is empty", ErrInvalidUser)
	}
	u.Municipality = strings.TrimSpace(u.Municipality)
	if u.Municipality == "" {
		return fmt.Errorf("%w: municipality is empty", ErrInvalidUser)
	}
	if !u.Role.Valid() {
		return fmt.Errorf("%w: unknown role %q", ErrInvalidUser, u.Role)
	}
	return a.UserDB.InsertUser(u)
}

// LoginUser shadows AuthDB.UserDB.LoginUser. Inactive users can't log in.
func (a *AuthDB) LoginUser(id, password string) (*Identity, error) {
	u, err := a.UserDB.LoginUser(util.Digits(id), password)
	if err != nil {
		return nil, err
	}
	if !u.Active {
		return nil, ErrAuth
	}
	return u, nil
}

// SetPassword shadows AuthDB.UserDB.SetPassword.
func (a *AuthDB) SetPassword(id string, password string) error {
	if err := CheckPassword(password); err != nil {
		return err
	}
	return a.UserDB.SetPassword(id, password)
}

// ChangePassword shadows AuthDB.UserDB.ChangePassword.
func (a *AuthDB) ChangePassword(id string, old, new string) error {
	if err := CheckPassword(new); err != nil {
		return err
	}
	return a.UserDB.ChangePassword(id, old, new)
}

// CheckPassword returns ErrEmptyPassword or ErrShortPassword if the password is not acceptable.
func CheckPassword(password string) error {
	if password == "" {
		return ErrEmptyPassword
	}
	if len(password) < 8 {
		return ErrShortPassword
	}
	return nil
}
