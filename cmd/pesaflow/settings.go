package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/jkamya/pesaflow/internal/cli"
	"github.com/jkamya/pesaflow/internal/model"
)

func settingsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "settings",
		Short: "Show or change alert settings",
	}
	cmd.AddCommand(settingsShowCmd())
	cmd.AddCommand(settingsSetCmd())
	return cmd
}

func settingsShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print the current alert settings",
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

			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(store.Settings())
		},
	}
}

func settingsSetCmd() *cobra.Command {
	var (
		threshold   string
		warningDays int
		sensitivity string
	)

	cmd := &cobra.Command{
		Use:   "set",
		Short: "Update alert settings",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			var patch model.SettingsPatch
			if cmd.Flags().Changed("low-balance-threshold") {
				value, err := decimal.NewFromString(threshold)
				if err != nil {
					return fmt.Errorf("invalid threshold %q: %w", threshold, err)
				}
				patch.LowBalanceThreshold = &value
			}
			if cmd.Flags().Changed("warning-days") {
				patch.LowBalanceWarningDays = &warningDays
			}
			if cmd.Flags().Changed("anomaly-sensitivity") {
				s := model.AnomalySensitivity(sensitivity)
				patch.AnomalySensitivity = &s
			}

			db, err := openStorage(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = db.Close() }()

			store, err := newAlertStore(ctx, db)
			if err != nil {
				return err
			}

			updated, err := store.UpdateSettings(ctx, patch)
			if err != nil {
				return err
			}

			fmt.Println(cli.SuccessStyle.Render("Settings updated."))
			fmt.Printf("Low balance threshold: %s, warning days: %d, sensitivity: %s\n",
				updated.LowBalanceThreshold.StringFixed(0),
				updated.LowBalanceWarningDays,
				updated.AnomalySensitivity)
			return nil
		},
	}

	cmd.Flags().StringVar(&threshold, "low-balance-threshold", "", "critical balance threshold")
	cmd.Flags().IntVar(&warningDays, "warning-days", 0, "days before breach that triggers a cashflow alert")
	cmd.Flags().StringVar(&sensitivity, "anomaly-sensitivity", "", "anomaly sensitivity (low, medium, high)")
	return cmd
}
