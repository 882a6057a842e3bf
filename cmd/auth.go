package main

import (
	"context"
	"fmt"

	"github.com/desertthunder/bitesized/internal/identity"
	"github.com/desertthunder/bitesized/internal/models"
	"github.com/desertthunder/bitesized/internal/shared"
	"github.com/urfave/cli/v3"
)

// AuthRegister creates a local or backend account and makes it the active session.
func (r *Runner) AuthRegister(ctx context.Context, cmd *cli.Command) error {
	name, email, password := cmd.String("name"), cmd.String("email"), cmd.String("password")

	if cmd.Bool("remote") {
		role, ok := models.ParseRole(cmd.String("role"))
		if !ok {
			return fmt.Errorf("%w: role must be creator or learner", shared.ErrInvalidArgument)
		}

		progressCh, wait := r.track()
		s, err := r.engine.RegisterRemote(ctx, name, email, password, role, progressCh)
		wait()
		if err != nil {
			return err
		}
		return r.writePlain("✓ Registered with the backend and logged in as %s (%s)\n", s.Name, s.Role)
	}

	account, err := r.registry.Register(ctx, identity.RegisterInput{
		Name:     name,
		Email:    email,
		Password: password,
		Role:     cmd.String("role"),
	})
	if err != nil {
		return err
	}
	return r.writePlain("✓ Registered local account and logged in as %s (%s)\n", account.Name, account.Role)
}

// AuthLogin logs in with a local or backend account.
func (r *Runner) AuthLogin(ctx context.Context, cmd *cli.Command) error {
	email, password := cmd.String("email"), cmd.String("password")

	if cmd.Bool("remote") {
		progressCh, wait := r.track()
		s, err := r.engine.LoginRemote(ctx, email, password, progressCh)
		wait()
		if err != nil {
			return err
		}
		return r.writePlain("✓ Logged in to the backend as %s (%s)\n", s.Name, s.Role)
	}

	s, err := r.registry.Login(ctx, identity.LoginInput{Email: email, Password: password})
	if err != nil {
		return err
	}
	return r.writePlain("✓ Logged in as %s (%s)\n", s.Name, s.Role)
}

// AuthLogout clears the active session.
func (r *Runner) AuthLogout(ctx context.Context, cmd *cli.Command) error {
	r.sessions.Clear(ctx)
	return r.writePlain("✓ Logged out\n")
}

// whoami is the JSON shape of the active session. The token is never printed.
type whoami struct {
	LoggedIn bool   `json:"logged_in"`
	UserID   string `json:"user_id,omitempty"`
	Name     string `json:"name,omitempty"`
	Role     string `json:"role,omitempty"`
	Local    bool   `json:"local"`
	Degraded bool   `json:"storage_degraded"`
}

// AuthWhoami shows the active session.
func (r *Runner) AuthWhoami(ctx context.Context, cmd *cli.Command) error {
	s := r.sessions.Session()
	info := whoami{
		LoggedIn: s.LoggedIn(),
		UserID:   s.UserID,
		Name:     s.Name,
		Role:     string(s.Role),
		Local:    s.IsLocal(),
		Degraded: r.sessions.Degraded(),
	}

	return r.render(cmd, info, func() error {
		if !info.LoggedIn {
			return r.writePlain("Not logged in\n")
		}
		kind := "backend"
		if info.Local {
			kind = "local"
		}
		return r.writePlain("%s (%s, %s session)\nUser ID: %s\n", info.Name, info.Role, kind, info.UserID)
	})
}
