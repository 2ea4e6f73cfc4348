package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jkamya/pesaflow/internal/cli"
)

func alertsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "alerts",
		Short: "Manage alerts",
	}
	cmd.AddCommand(alertsListCmd())
	cmd.AddCommand(alertsDismissCmd())
	cmd.AddCommand(alertsResolveCmd())
	cmd.AddCommand(alertsClearCmd())
	return cmd
}

func alertsListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List active alerts",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			db, err := openStorage(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = db.Close() }()

			store, err := newAlertStore(ctx, db)
			if err != nil {
				return err
			}

			active := store.ActiveAlerts()
			if len(active) == 0 {
				fmt.Println(cli.SubtleStyle.Render("No active alerts."))
				return nil
			}

			fmt.Println(cli.TitleStyle.Render(fmt.Sprintf("Active alerts (%d)", len(active))))
			for _, a := range active {
				fmt.Printf("%s %s  %s\n",
					cli.PriorityStyle(a.Priority).Render("["+string(a.Priority)+"]"),
					cli.BoldStyle.Render(a.Title),
					cli.SubtleStyle.Render(a.ID))
				if a.Message != "" {
					fmt.Printf("    %s\n", a.Message)
				}
			}
			return nil
		},
	}
}

func alertsDismissCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "dismiss <alert-id>",
		Short: "Dismiss an alert",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return transitionAlert(cmd, args[0], "dismiss")
		},
	}
}

func alertsResolveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "resolve <alert-id>",
		Short: "Resolve an alert",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return transitionAlert(cmd, args[0], "resolve")
		},
	}
}

func transitionAlert(cmd *cobra.Command, id, action string) error {
	ctx := cmd.Context()

	db, err := openStorage(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = db.Close() }()

	store, err := newAlertStore(ctx, db)
	if err != nil {
		return err
	}

	if action == "resolve" {
		err = store.ResolveAlert(ctx, id)
	} else {
		err = store.DismissAlert(ctx, id)
	}
	if err != nil {
		return err
	}

	fmt.Println(cli.SuccessStyle.Render(fmt.Sprintf("Alert %s %sed.", id, action)))
	return nil
}

func alertsClearCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Remove all alerts",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			db, err := openStorage(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = db.Close() }()

			store, err := newAlertStore(ctx, db)
			if err != nil {
				return err
			}
			if err := store.ClearAllAlerts(ctx); err != nil {
				return err
			}

			fmt.Println(cli.SuccessStyle.Render("All alerts cleared."))
			return nil
		},
	}
}
