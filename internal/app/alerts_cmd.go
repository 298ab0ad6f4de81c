package app

import (
	"github.com/spf13/cobra"
)

func (a *Application) alertsCommand() *cobra.Command {
	var unreadOnly bool
	var limit int

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List recent alerts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			alerts, err := a.deps.Dashboard.Alerts(cmd.Context(), unreadOnly, limit)
			if err != nil {
				return err
			}
			if len(alerts) == 0 {
				a.println(a.render.Muted("No alerts."))
				return nil
			}
			a.println(a.render.Table(alertsTable(alerts)))
			return nil
		},
	}
	listCmd.Flags().BoolVar(&unreadOnly, "unread", false, "Only unread alerts")
	listCmd.Flags().IntVar(&limit, "limit", 10, "Maximum number of alerts")

	readCmd := &cobra.Command{
		Use:   "read ID",
		Short: "Mark an alert as read",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := a.deps.Dashboard.MarkAlertRead(cmd.Context(), args[0]); err != nil {
				return err
			}
			a.println(a.render.Success("Alert marked as read."))
			return nil
		},
	}

	cmd := &cobra.Command{
		Use:   "alerts",
		Short: "Budget alerts",
	}
	cmd.AddCommand(listCmd, readCmd)
	return cmd
}
