package core

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/wansing/healthregistry/auth"
	"github.com/wansing/healthregistry/util"
)

// mayManage returns whether identity may manage the user u.
// Admins manage everyone, managers manage non-admins of their municipality.
func mayManage(identity *auth.Identity, u *auth.Identity) bool {
	if !auth.Can(identity, auth.ManageUsers) {
		return false
	}
	if identity.Role == auth.Admin {
		return true
	}
	return u.Municipality == identity.Municipality && u.Role != auth.Admin
}

// userFailure translates errors of the auth package.
func userFailure(op string, err error) error {
	switch {
	case errors.Is(err, auth.ErrInvalidUser), errors.Is(err, auth.ErrEmptyPassword), errors.Is(err, auth.ErrShortPassword):
		return fmt.Errorf("%w: %v", ErrInvalidArgument, err)
	case errors.Is(err, auth.ErrAuth):
		return fmt.Errorf("%w: wrong password", ErrInvalidArgument)
	default:
		return lookupFailure(op, err)
	}
}

// CreateUser adds an active user with the given password.
func (c *CoreDB) CreateUser(ctx context.Context, identity *auth.Identity, u *auth.Identity, password string) error {

	if err := c.require(ctx, identity, auth.ManageUsers); err != nil {
		return err
	}
	if !mayManage(identity, u) {
		return c.fail(ctx, fmt.Errorf("%w: you can't create this user", ErrForbidden))
	}
	if !c.Auth.Writeable() {
		return c.fail(ctx, fmt.Errorf("%w: the user database is read-only", ErrForbidden))
	}
	if !c.Municipalities.Known(u.Municipality) {
		return c.fail(ctx, invalidArgument("unknown municipality %q", u.Municipality))
	}
	if err := auth.CheckPassword(password); err != nil {
		return c.fail(ctx, userFailure("create user", err))
	}

	u.ID = util.Digits(u.ID)
	switch _, err := c.Auth.GetUser(u.ID); {
	case err == nil:
		return c.fail(ctx, invalidArgument("a user with CPF %s already exists", FormatCPF(u.ID)))
	case !errors.Is(err, sql.ErrNoRows):
		return c.fail(ctx, collaboratorFailure("get user", err))
	}

	u.Active = true
	u.CreatedAt = c.now()
	u.CreatedBy = identity.ID

	if err := c.Auth.InsertUser(u); err != nil {
		return c.fail(ctx, userFailure("insert user", err))
	}
	if err := c.Auth.SetPassword(u.ID, password); err != nil {
		return c.fail(ctx, userFailure("set password", err))
	}

	c.success(ctx, "User %s has been created.", u.Name)
	return nil
}

// GetUser returns the identity itself or a user which the identity may manage.
func (c *CoreDB) GetUser(ctx context.Context, identity *auth.Identity, cpf string) (*auth.Identity, error) {
	if identity == nil {
		return nil, c.fail(ctx, ErrUnauthenticated)
	}
	u, err := c.Auth.GetUser(util.Digits(cpf))
	if err != nil {
		return nil, c.fail(ctx, lookupFailure("get user", err))
	}
	if u.ID != identity.ID && !mayManage(identity, u) {
		return nil, c.fail(ctx, fmt.Errorf("%w: get user", ErrNotFound))
	}
	return u, nil
}

// ListUsers returns the users which the identity may manage. Admins see all municipalities.
func (c *CoreDB) ListUsers(ctx context.Context, identity *auth.Identity, limit, offset int) ([]*auth.Identity, error) {
	if err := c.require(ctx, identity, auth.ManageUsers); err != nil {
		return nil, err
	}
	var municipality = identity.Municipality
	if identity.Role == auth.Admin {
		municipality = ""
	}
	all, err := c.Auth.GetAllUsers(municipality, limit, offset)
	if err != nil {
		return nil, c.fail(ctx, collaboratorFailure("get users", err))
	}
	var result = make([]*auth.Identity, 0, len(all))
	for _, u := range all {
		if mayManage(identity, u) {
			result = append(result, u)
		}
	}
	return result, nil
}

// SetUserActive activates or deactivates a user. Nobody can deactivate themselves.
func (c *CoreDB) SetUserActive(ctx context.Context, identity *auth.Identity, cpf string, active bool) error {
	if err := c.require(ctx, identity, auth.ManageUsers); err != nil {
		return err
	}
	u, err := c.GetUser(ctx, identity, cpf)
	if err != nil {
		return err
	}
	if u.ID == identity.ID || !mayManage(identity, u) {
		return c.fail(ctx, fmt.Errorf("%w: you can't change the status of this user", ErrForbidden))
	}
	if err := c.Auth.SetActive(u.ID, active); err != nil {
		return c.fail(ctx, collaboratorFailure("set active", err))
	}
	if active {
		c.success(ctx, "User %s has been activated.", u.Name)
	} else {
		c.success(ctx, "User %s has been deactivated.", u.Name)
	}
	return nil
}

// ChangePassword changes the password of the identity.
func (c *CoreDB) ChangePassword(ctx context.Context, identity *auth.Identity, old, new string) error {
	if identity == nil {
		return c.fail(ctx, ErrUnauthenticated)
	}
	if err := c.Auth.ChangePassword(identity.ID, old, new); err != nil {
		return c.fail(ctx, userFailure("change password", err))
	}
	c.success(ctx, "Your password has been changed.")
	return nil
}

// ResetPassword sets the password of a user which the identity may manage.
func (c *CoreDB) ResetPassword(ctx context.Context, identity *auth.Identity, cpf, password string) error {
	if err := c.require(ctx, identity, auth.ManageUsers); err != nil {
		return err
	}
	u, err := c.GetUser(ctx, identity, cpf)
	if err != nil {
		return err
	}
	if !mayManage(identity, u) {
		return c.fail(ctx, fmt.Errorf("%w: you can't set the password of this user", ErrForbidden))
	}
	if err := c.Auth.SetPassword(u.ID, password); err != nil {
		return c.fail(ctx, userFailure("set password", err))
	}
	c.success(ctx, "The password of %s has been set.", u.Name)
	return nil
}
