package cli

import (
	"time"

	"github.com/spf13/cobra"
)

var dashboardCmd = &cobra.Command{
	Use:   "dashboard",
	Short: "Show the personal dashboard",
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := newApp(cmd.Context())
		if err != nil {
			return err
		}
		if _, err := app.Sessions.Bootstrap(cmd.Context()); err != nil {
			return err
		}
		dash, err := app.Schedules.Dashboard(cmd.Context())
		if err != nil {
			return err
		}
		if jsonOutput {
			return printJSON(dash)
		}
		if dash.Greeting != "" {
			printf("%s\n", dash.Greeting)
		}
		printf("open requests:    %d\n", dash.OpenRequests)
		printf("pending approval: %d\n", dash.PendingApproval)
		printf("spiff total:      %.2f\n", dash.SpiffTotal)
		printf("hours this week:  %.1f\n", dash.HoursThisWeek)
		if dash.NextShift != nil {
			printf("next shift:       %s at %s\n", dash.NextShift.Start.Format("Mon Jan 2 15:04"), dash.NextShift.Site)
		}
		return nil
	},
}

var scheduleDays int

var scheduleCmd = &cobra.Command{
	Use:   "schedule",
	Short: "Show upcoming shifts",
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := newApp(cmd.Context())
		if err != nil {
			return err
		}
		if _, err := app.Sessions.Bootstrap(cmd.Context()); err != nil {
			return err
		}

		from := time.Now()
		to := from.AddDate(0, 0, scheduleDays)
		shifts, err := app.Schedules.Schedule(cmd.Context(), from, to)
		if err != nil {
			return err
		}
		if jsonOutput {
			return printJSON(shifts)
		}
		if len(shifts) == 0 {
			printf("No shifts in the next %d days\n", scheduleDays)
			return nil
		}
		for _, sh := range shifts {
			printf("%s – %s  %s  %s\n",
				sh.Start.Format("Mon Jan 2 15:04"),
				sh.End.Format("15:04"),
				sh.Site,
				sh.JobNumber,
			)
		}
		return nil
	},
}

func init() {
	scheduleCmd.Flags().IntVar(&scheduleDays, "days", 14, "How many days ahead to show")
	rootCmd.AddCommand(dashboardCmd)
	rootCmd.AddCommand(scheduleCmd)
}
