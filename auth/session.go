package auth

import (
	"context"
	"net/http"
	"time"

	"github.com/alexedwards/scs/v2"
)

const identityKey = "identity"

// Sessions keeps the identity of the logged in user in an scs session.
// Every method requires a context which has been passed through Manager.LoadAndSave.
type Sessions struct {
	Manager *scs.SessionManager
	AuthDB  *AuthDB
}

// NewSessionManager returns a session manager with our cookie settings.
func NewSessionManager(store scs.Store, cookiePath string) *scs.SessionManager {
	var m = scs.New()
	if store != nil {
		m.Store = store
	}
	m.Cookie.Name = "healthregistry_session"
	m.Cookie.Path = cookiePath + "/"         // 'The default value is "/". Passing the empty string "" will result in it being set to the path that the cookie was issued from.'
	m.Cookie.Persist = false                 // don't store the cookie across browser sessions
	m.Cookie.SameSite = http.SameSiteLaxMode // good CSRF protection if HTTP GET doesn't modify anything
	m.Cookie.Secure = false                  // else running on localhost or behind a http proxy fails
	m.IdleTimeout = 12 * time.Hour
	m.Lifetime = 720 * time.Hour
	return m
}

// CurrentIdentity returns the identity stored in the session, if any.
func (s *Sessions) CurrentIdentity(ctx context.Context) (*Identity, bool) {
	identity, ok := s.Manager.Get(ctx, identityKey).(Identity)
	if !ok || identity.ID == "" {
		return nil, false
	}
	return &identity, true
}

// RequireIdentity is like CurrentIdentity, but returns ErrUnauthenticated if nobody is logged in.
func (s *Sessions) RequireIdentity(ctx context.Context) (*Identity, error) {
	identity, ok := s.CurrentIdentity(ctx)
	if !ok {
		return nil, ErrUnauthenticated
	}
	return identity, nil
}

// Login checks the credentials and stores the identity in the session.
func (s *Sessions) Login(ctx context.Context, id, password string) (*Identity, error) {
	identity, err := s.AuthDB.LoginUser(id, password)
	if err != nil {
		return nil, err
	}
	// new token on privilege change, against session fixation
	if err := s.Manager.RenewToken(ctx); err != nil {
		return nil, err
	}
	s.Manager.Put(ctx, identityKey, *identity)
	return identity, nil
}

// Logout removes the identity and destroys the session.
func (s *Sessions) Logout(ctx context.Context) error {
	s.Manager.Remove(ctx, identityKey)
	return s.Manager.Destroy(ctx)
}
