package cli

import (
	"github.com/spf13/cobra"
)

var notificationsCmd = &cobra.Command{
	Use:   "notifications",
	Short: "Read and acknowledge notifications",
}

var notificationsListCmd = &cobra.Command{
	Use:   "list",
	Short: "Fetch and show the notification feed, newest first",
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := newApp(cmd.Context())
		if err != nil {
			return err
		}
		user, err := app.Sessions.Bootstrap(cmd.Context())
		if err != nil {
			return err
		}
		if err := app.Notifications.EnsureBootstrapped(cmd.Context(), user.ID); err != nil {
			return err
		}
		defer app.Notifications.Shutdown()

		items := app.Notifications.Notifications()
		if jsonOutput {
			return printJSON(items)
		}
		printf("%d notifications, %d unread\n", len(items), app.Notifications.Unread())
		for _, n := range items {
			marker := " "
			if !n.Read {
				marker = "*"
			}
			printf("%s %s  %s  %s\n", marker, n.CreatedAt.Format("2006-01-02 15:04"), n.Key(), n.Message)
		}
		return nil
	},
}

var notificationsReadCmd = &cobra.Command{
	Use:   "read <id>",
	Short: "Mark a notification as read",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := newApp(cmd.Context())
		if err != nil {
			return err
		}
		user, err := app.Sessions.Bootstrap(cmd.Context())
		if err != nil {
			return err
		}
		if err := app.Notifications.EnsureBootstrapped(cmd.Context(), user.ID); err != nil {
			return err
		}
		defer app.Notifications.Shutdown()

		if err := app.Notifications.MarkRead(cmd.Context(), args[0]); err != nil {
			return err
		}
		printf("Marked %s read (%d unread)\n", args[0], app.Notifications.Unread())
		return nil
	},
}

func init() {
	notificationsCmd.AddCommand(notificationsListCmd)
	notificationsCmd.AddCommand(notificationsReadCmd)
	rootCmd.AddCommand(notificationsCmd)
}
