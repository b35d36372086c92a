package main

import (
	"context"

	"github.com/pkg/errors"

	"github.com/trezcool/pathways/core"
	"github.com/trezcool/pathways/core/user"
)

var errUnknownRole = errors.New("unknown role")

// addUser updates or creates an active user.User.
// An existing user, found by username or email, keeps its roles unless roles are given.
func (cli *commandLine) addUser(name, uname, email, pwd string, roles []string) error {
	ctx := context.Background()
	uname = core.CleanString(uname, true /* lower */)
	email = core.CleanString(email, true /* lower */)
	roles = core.CleanStrings(roles, true /* lower */)
	if name = core.CleanString(name); name == "" {
		name = uname
	}
	for _, role := range roles {
		if user.RolePriority(role) == 0 {
			return errors.Wrap(errUnknownRole, role)
		}
	}

	usr, err := cli.usrSvc.GetByUsernameOrEmail(ctx, uname)
	if err == user.ErrNotFound {
		usr, err = cli.usrSvc.GetByUsernameOrEmail(ctx, email)
	}
	if err == user.ErrNotFound {
		_, err = cli.usrSvc.Create(ctx, user.NewUser{
			Name:            name,
			Username:        uname,
			Email:           email,
			Password:        pwd,
			PasswordConfirm: pwd,
			Roles:           roles,
		})
		return err
	}
	if err != nil {
		return errors.Wrap(err, "finding user")
	}

	if roles != nil {
		usr.Roles = roles
	}
	usr.IsActive = true
	_, err = cli.usrSvc.SetPassword(ctx, usr, pwd)
	return err
}
