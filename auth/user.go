package auth

import (
	"encoding/gob"
	"time"
)

func init() {
	gob.Register(Identity{}) // stored in the session
}

// Identity is the logged in user. It is a copy of the user record, taken at login.
type Identity struct {
	ID           string // CPF, 11 digits
	Name         string
	Municipality string
	Role         Role
	Position     string // job title
	Registration string // professional register, e.g. COREN
	Email        string
	Active       bool
	CreatedAt    time.Time
	CreatedBy    string
}

// HasRole returns whether the identity is not nil and its role is one of allowed.
func HasRole(identity *Identity, allowed ...Role) bool {
	if identity == nil {
		return false
	}
	for _, role := range allowed {
		if identity.Role == role {
			return true
		}
	}
	return false
}

type UserDB interface {
	ChangePassword(id string, old, new string) error
	GetUser(id string) (*Identity, error)
	GetAllUsers(municipality string, limit, offset int) ([]*Identity, error) // all municipalities if municipality is empty
	InsertUser(u *Identity) error
	LoginUser(id, password string) (*Identity, error)
	SetActive(id string, active bool) error
	SetPassword(id string, password string) error
	Writeable() bool
}
