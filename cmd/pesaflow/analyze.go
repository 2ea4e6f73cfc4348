package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jkamya/pesaflow/internal/cli"
	"github.com/jkamya/pesaflow/internal/model"
)

func analyzeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "analyze",
		Short: "Run the analytics pipeline and print a summary",
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
			if err := store.RefreshAnalysis(ctx); err != nil {
				return err
			}

			snapshot := store.Snapshot()
			ta := snapshot.TrendAnalysis

			fmt.Println(cli.TitleStyle.Render("Cash-flow outlook"))
			fmt.Printf("Trend: %s (%.1f%%)\n", cli.TrendStyle(ta.Trend).Render(string(ta.Trend)), ta.TrendPercentage)
			fmt.Printf("Health score: %s\n", cli.HealthStyle(ta.HealthScore).Render(fmt.Sprintf("%d/100", ta.HealthScore)))
			if ta.DaysUntilCritical != nil {
				fmt.Println(cli.ErrorStyle.Render(
					fmt.Sprintf("Balance breaches %s in %d day(s)", ta.CriticalThreshold.StringFixed(0), *ta.DaysUntilCritical)))
			} else {
				fmt.Println(cli.SuccessStyle.Render("Balance stays above the critical threshold for the whole horizon"))
			}

			if len(snapshot.Patterns) > 0 {
				fmt.Println()
				fmt.Println(cli.TitleStyle.Render("Recurring patterns"))
				for _, p := range snapshot.Patterns {
					fmt.Printf("  %s  %s %s every %s, next %s (%.0f%%)\n",
						cli.BoldStyle.Render(p.Name),
						directionSign(p.Category), p.AverageAmount.StringFixed(0),
						p.Frequency, p.NextExpectedDate.Format("2006-01-02"), p.Confidence)
				}
			}

			if len(snapshot.Anomalies) > 0 {
				fmt.Println()
				fmt.Println(cli.TitleStyle.Render("Anomalies"))
				for _, a := range snapshot.Anomalies {
					style := cli.WarningStyle
					if a.Severity == model.SeverityHigh {
						style = cli.ErrorStyle
					}
					fmt.Printf("  %s %s\n", style.Render("["+string(a.Severity)+"]"), a.Description)
				}
			}

			if len(snapshot.Insights) > 0 {
				fmt.Println()
				fmt.Println(cli.TitleStyle.Render("Insights"))
				for _, ins := range snapshot.Insights {
					fmt.Printf("  %s: %s\n", cli.BoldStyle.Render(ins.Title), ins.Description)
				}
			}

			if len(snapshot.Optimizations) > 0 {
				fmt.Println()
				fmt.Println(cli.TitleStyle.Render("Optimizations"))
				for _, opt := range snapshot.Optimizations {
					fmt.Printf("  %s (save ~%s)\n", opt.Title, opt.PotentialSavings.StringFixed(0))
				}
			}

			active := store.ActiveAlerts()
			if len(active) > 0 {
				fmt.Println()
				fmt.Println(cli.TitleStyle.Render(fmt.Sprintf("Active alerts (%d)", len(active))))
				for _, a := range active {
					fmt.Printf("  %s %s\n", cli.PriorityStyle(a.Priority).Render("["+string(a.Priority)+"]"), a.Title)
				}
			}

			return nil
		},
	}
}

func directionSign(d model.Direction) string {
	if d == model.DirectionIncome {
		return "+"
	}
	return "-"
}
