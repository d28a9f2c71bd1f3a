package main

import (
	"errors"

	"github.com/spf13/cobra"

	"github.com/javajoker/agriconnect-backend/internal/services"
	"github.com/javajoker/agriconnect-backend/internal/session"
)

func stateFrom(resp *services.AuthResponse) *session.State {
	return &session.State{
		Token:        resp.Token,
		RefreshToken: resp.RefreshToken,
		User: session.Profile{
			ID:       resp.User.ID.String(),
			Name:     resp.User.Name,
			Email:    resp.User.Email,
			Role:     string(resp.User.Role),
			Phone:    resp.User.Phone,
			Location: resp.User.Location,
		},
	}
}

func newLoginCmd(a *app) *cobra.Command {
	var email, password string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in and store the session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			m := a.session(false, nil)
			resp, err := a.client(m).Login(cmd.Context(), email, password)
			if err != nil {
				return err
			}
			if err := m.Login(cmd.Context(), stateFrom(resp)); err != nil {
				return err
			}
			a.printf("Signed in as %s (%s)\n", a.style(headerStyle, resp.User.Name), resp.User.Role)
			return nil
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "account email")
	cmd.Flags().StringVar(&password, "password", "", "account password")
	cmd.MarkFlagRequired("email")
	cmd.MarkFlagRequired("password")
	return cmd
}

func newRegisterCmd(a *app) *cobra.Command {
	var req services.RegisterRequest

	cmd := &cobra.Command{
		Use:   "register",
		Short: "Create a farmer or buyer account and sign in",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			m := a.session(false, nil)
			resp, err := a.client(m).Register(cmd.Context(), &req)
			if err != nil {
				return err
			}
			if err := m.Login(cmd.Context(), stateFrom(resp)); err != nil {
				return err
			}
			a.printf("Registered %s as a %s\n", a.style(headerStyle, resp.User.Name), resp.User.Role)
			return nil
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&req.Name, "name", "", "display name")
	flags.StringVar(&req.Email, "email", "", "account email")
	flags.StringVar(&req.Password, "password", "", "password (8+ characters with a letter and a digit)")
	flags.StringVar(&req.Role, "role", "buyer", "farmer or buyer")
	flags.StringVar(&req.Phone, "phone", "", "contact phone")
	flags.StringVar(&req.Location, "location", "", "farm or delivery location")
	cmd.MarkFlagRequired("name")
	cmd.MarkFlagRequired("email")
	cmd.MarkFlagRequired("password")
	return cmd
}

func newLogoutCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the stored session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			client, m, err := a.restored(cmd.Context())
			if errors.Is(err, errNotLoggedIn) {
				a.printf("Not signed in\n")
				return nil
			}
			if err != nil {
				return err
			}
			// The server call is informational; the local session goes regardless
			client.Logout(cmd.Context())
			if err := m.Logout(); err != nil {
				return err
			}
			a.printf("Signed out\n")
			return nil
		},
	}
}

func newWhoamiCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the signed-in user",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			client, _, err := a.restored(cmd.Context())
			if err != nil {
				return err
			}
			user, err := client.Me(cmd.Context())
			if err != nil {
				return err
			}
			a.renderUser(user)
			return nil
		},
	}
}
