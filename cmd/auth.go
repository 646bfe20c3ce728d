package cmd

import (
	"fmt"

	"github.com/charmbracelet/huh"
	"github.com/marcus/fb/internal/apiclient"
	"github.com/marcus/fb/internal/config"
	"github.com/marcus/fb/internal/output"
	"github.com/marcus/fb/internal/session"
	"github.com/spf13/cobra"
)

var loginCmd = &cobra.Command{
	Use:     "login",
	Short:   "Log in to the feedback service",
	GroupID: "session",
	RunE: func(cmd *cobra.Command, args []string) error {
		username, _ := cmd.Flags().GetString("username")
		password, _ := cmd.Flags().GetString("password")
		server, _ := cmd.Flags().GetString("server")

		if server != "" {
			if err := config.SetServerURL(getBaseDir(), server); err != nil {
				output.Error("save server url: %v", err)
				return err
			}
		}

		if username == "" || password == "" {
			form := huh.NewForm(
				huh.NewGroup(
					huh.NewInput().Title("Username").Value(&username),
					huh.NewInput().Title("Password").EchoMode(huh.EchoModePassword).Value(&password),
				),
			)
			if err := form.Run(); err != nil {
				return err
			}
		}
		if username == "" || password == "" {
			err := fmt.Errorf("username and password are required")
			output.Error("%v", err)
			return err
		}

		client, err := newClient()
		if err != nil {
			output.Error("%v", err)
			return err
		}

		resp, err := client.Login(username, password)
		if err != nil {
			return reportAPIError(err)
		}

		sess := &session.Session{
			Access:    resp.Access,
			Refresh:   resp.Refresh,
			User:      resp.User,
			ServerURL: client.BaseURL,
		}
		if err := session.Save(getBaseDir(), sess); err != nil {
			output.Error("save session: %v", err)
			return err
		}

		output.Success("Logged in as %s (%s)", resp.User.Username, resp.User.Role)
		return nil
	},
}

var registerCmd = &cobra.Command{
	Use:     "register",
	Short:   "Create a new account and log in",
	GroupID: "session",
	RunE: func(cmd *cobra.Command, args []string) error {
		req := &apiclient.RegisterRequest{}
		req.Username, _ = cmd.Flags().GetString("username")
		req.Email, _ = cmd.Flags().GetString("email")
		req.Password, _ = cmd.Flags().GetString("password")

		if req.Username == "" || req.Email == "" || req.Password == "" {
			form := huh.NewForm(
				huh.NewGroup(
					huh.NewInput().Title("Username").Value(&req.Username),
					huh.NewInput().Title("Email").Value(&req.Email),
					huh.NewInput().Title("Password").EchoMode(huh.EchoModePassword).Value(&req.Password),
					huh.NewInput().Title("Confirm password").EchoMode(huh.EchoModePassword).Value(&req.PasswordConfirm),
					huh.NewInput().Title("First name (optional)").Value(&req.FirstName),
					huh.NewInput().Title("Last name (optional)").Value(&req.LastName),
				),
			)
			if err := form.Run(); err != nil {
				return err
			}
		}
		if req.PasswordConfirm == "" {
			req.PasswordConfirm = req.Password
		}

		client, err := newClient()
		if err != nil {
			output.Error("%v", err)
			return err
		}

		resp, err := client.Register(req)
		if err != nil {
			return reportAPIError(err)
		}

		sess := &session.Session{
			Access:    resp.Access,
			Refresh:   resp.Refresh,
			User:      resp.User,
			ServerURL: client.BaseURL,
		}
		if err := session.Save(getBaseDir(), sess); err != nil {
			output.Error("save session: %v", err)
			return err
		}

		output.Success("Registered and logged in as %s", resp.User.Username)
		return nil
	},
}

var logoutCmd = &cobra.Command{
	Use:     "logout",
	Short:   "Log out and discard the saved session",
	GroupID: "session",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := session.Clear(getBaseDir()); err != nil {
			output.Error("clear session: %v", err)
			return err
		}
		output.Success("Logged out")
		return nil
	},
}

var whoamiCmd = &cobra.Command{
	Use:     "whoami",
	Short:   "Show the logged-in identity",
	GroupID: "session",
	RunE: func(cmd *cobra.Command, args []string) error {
		client, sess, err := newAuthedClient()
		if err != nil {
			output.Error("%v", err)
			return err
		}

		// Validate the token against the service rather than trusting the
		// cached user: an expired token must drop us to the logged-out state.
		user, err := client.Me()
		if err != nil {
			return reportAPIError(err)
		}

		jsonOut, _ := cmd.Flags().GetBool("json")
		if jsonOut {
			return output.JSON(user)
		}

		output.Info("%s (%s)", user.Username, user.Role)
		if user.Email != "" {
			output.Info("%s", user.Email)
		}
		output.Info("server: %s", sess.ServerURL)
		return nil
	},
}

func init() {
	loginCmd.Flags().StringP("username", "u", "", "Username")
	loginCmd.Flags().StringP("password", "p", "", "Password (prompted when omitted)")
	loginCmd.Flags().String("server", "", "Server base URL (persisted)")

	registerCmd.Flags().String("username", "", "Username")
	registerCmd.Flags().String("email", "", "Email")
	registerCmd.Flags().String("password", "", "Password (prompted when omitted)")

	whoamiCmd.Flags().Bool("json", false, "Output as JSON")

	rootCmd.AddCommand(loginCmd, registerCmd, logoutCmd, whoamiCmd)
}
