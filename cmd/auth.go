package main

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/desertthunder/ecn/internal/models"
	"github.com/desertthunder/ecn/internal/shared"
)

// AuthLogin signs in and persists the session under the command-line key.
func (r *Runner) AuthLogin(ctx context.Context, cmd *cli.Command) error {
	email := strings.TrimSpace(cmd.String("email"))
	if email == "" {
		r.writePlain("Email: ")
		line, err := r.readLine()
		if err != nil {
			return fmt.Errorf("%w: email", shared.ErrMissingArgument)
		}
		email = strings.TrimSpace(line)
	}

	password, err := r.loginPassword(cmd)
	if err != nil {
		return err
	}

	store, err := r.store(ctx)
	if err != nil {
		return err
	}

	r.logger.Info("signing in", "email", email)
	session, err := r.authSvc.Login(ctx, email, password)
	if err != nil {
		r.record(models.Session{User: &models.UserProfile{Email: email}}, "session", models.ActionLogin, "", err, "")
		if errors.Is(err, shared.ErrAuthFailed) {
			return fmt.Errorf("%w: invalid email or password", shared.ErrAuthFailed)
		}
		return err
	}

	if err := store.Login(ctx, *session.User, session.Token); err != nil {
		return err
	}
	current := store.Current()
	r.record(current, "session", models.ActionLogin, "", nil, "")

	if store.MemoryOnly() {
		r.logger.Warn("session could not be saved, later commands will ask you to sign in again")
	}
	return r.writePlain("✓ Signed in as %s\n", current.DisplayName())
}

func (r *Runner) loginPassword(cmd *cli.Command) (string, error) {
	if p := cmd.String("password"); p != "" {
		return p, nil
	}
	if cmd.Bool("password-stdin") {
		line, err := r.readLine()
		if err != nil {
			return "", fmt.Errorf("%w: no password on stdin", shared.ErrMissingArgument)
		}
		return line, nil
	}
	return r.password("Password: ")
}

// AuthLogout clears the persisted session.
func (r *Runner) AuthLogout(ctx context.Context, cmd *cli.Command) error {
	store, err := r.store(ctx)
	if err != nil {
		return err
	}
	current := store.Current()
	if !current.Authenticated() {
		return r.writePlain("Not signed in\n")
	}
	store.Logout(ctx)
	r.record(current, "session", models.ActionLogout, "", nil, "")
	return r.writePlain("✓ Signed out\n")
}

type authStatus struct {
	Authenticated bool                `json:"authenticated"`
	User          *models.UserProfile `json:"user,omitempty"`
	API           string              `json:"api"`
}

// AuthStatus reports the signed-in user without contacting the API.
func (r *Runner) AuthStatus(ctx context.Context, cmd *cli.Command) error {
	store, err := r.store(ctx)
	if err != nil {
		return err
	}
	current := store.Current()
	status := authStatus{Authenticated: current.Authenticated(), User: current.User, API: r.api.BaseURL()}

	if cmd.Bool("json") {
		return r.writeJSON(status, cmd.Bool("pretty"))
	}

	r.writePlain("API: %s\n", status.API)
	if !status.Authenticated {
		return r.writePlain("Authentication: ✗ Not signed in\n")
	}
	r.writePlain("Authentication: ✓ Signed in\n")
	r.writePlain("User: %s <%s>\n", current.DisplayName(), current.User.Email)
	if current.User.Role != "" {
		r.writePlain("Role: %s\n", current.User.Role)
	}
	return nil
}
