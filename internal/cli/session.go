package cli

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
)

var (
	loginEmail    string
	loginPassword string
)

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Log in and store credentials on this device",
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := newApp(cmd.Context())
		if err != nil {
			return err
		}

		email := loginEmail
		password := loginPassword
		if email == "" {
			email = prompt("Email: ")
		}
		if password == "" {
			password = prompt("Password: ")
		}

		user, err := app.Sessions.Login(cmd.Context(), email, password)
		if err != nil {
			return err
		}

		if jsonOutput {
			return printJSON(user)
		}
		printf("Logged in as %s (%s)\n", user.FullName(), user.Role)
		return nil
	},
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Clear stored credentials",
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := newApp(cmd.Context())
		if err != nil {
			return err
		}
		app.Notifications.Shutdown()
		if err := app.Sessions.Logout(cmd.Context()); err != nil {
			return err
		}
		printf("Logged out\n")
		return nil
	},
}

var whoamiCmd = &cobra.Command{
	Use:   "whoami",
	Short: "Show the current user profile",
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := newApp(cmd.Context())
		if err != nil {
			return err
		}
		user, err := app.Sessions.Bootstrap(cmd.Context())
		if err != nil {
			return err
		}
		if jsonOutput {
			return printJSON(user)
		}
		printf("%s <%s>\nrole: %s\n", user.FullName(), user.Email, user.Role)
		if loc := app.Session.LocationID(); loc != "" {
			printf("location: %s\n", loc)
		}
		return nil
	},
}

var locationCmd = &cobra.Command{
	Use:   "location <location-id>",
	Short: "Set the active location for tenant-scoped calls",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := newApp(cmd.Context())
		if err != nil {
			return err
		}
		if err := app.Sessions.SetLocation(cmd.Context(), args[0]); err != nil {
			return err
		}
		printf("Active location set to %s\n", args[0])
		return nil
	},
}

func prompt(label string) string {
	fmt.Fprint(os.Stderr, label)
	reader := bufio.NewReader(os.Stdin)
	line, _ := reader.ReadString('\n')
	return strings.TrimSpace(line)
}

func init() {
	loginCmd.Flags().StringVar(&loginEmail, "email", "", "Account email")
	loginCmd.Flags().StringVar(&loginPassword, "password", "", "Account password (prompted when omitted)")

	rootCmd.AddCommand(loginCmd)
	rootCmd.AddCommand(logoutCmd)
	rootCmd.AddCommand(whoamiCmd)
	rootCmd.AddCommand(locationCmd)
}
