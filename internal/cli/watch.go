package cli

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	obshttp "github.com/fieldops/companion/internal/infrastructure/http"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Stream notifications in real time",
	Long: `watch bootstraps the session from stored credentials, fetches the
notification feed, and keeps it live over the backend socket until
interrupted. A local observability server exposes /health, /health/ready,
and /metrics while it runs.`,
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

		e := obshttp.NewRouter(app.Config.APIBaseURL, app.Creds)
		go func() {
			if err := e.Start(app.Config.Obs.Addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
				app.Log.Error().Err(err).Msg("observability server failed")
			}
		}()

		app.Log.Info().
			Str("user_id", user.ID).
			Int("unread", app.Notifications.Unread()).
			Str("obs_addr", app.Config.Obs.Addr).
			Msg("watching for notifications")

		stop := make(chan os.Signal, 1)
		signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
		<-stop

		app.Log.Info().Msg("shutting down")
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = e.Shutdown(ctx)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(watchCmd)
}
