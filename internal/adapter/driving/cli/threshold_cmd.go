package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/diillson/energy-usage-dashboard-go/internal/shared/types"
)

func (app *CLIApp) newThresholdCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "threshold",
		Short: "Show the current and recommended usage threshold",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			current, err := app.services.Thresholds.Current(ctx)
			if err != nil {
				return err
			}
			if current != nil {
				app.console.LogInfo("Current threshold: %.2f kWh", *current)
			} else {
				app.console.LogInfo("No threshold set")
			}

			recommended, err := app.services.Thresholds.Recommend(ctx)
			if err != nil {
				app.console.LogWarning("Could not compute a recommendation: %v", err)
				return nil
			}
			if recommended == 0 {
				app.console.LogInfo("Not enough usage history for a recommendation")
				return nil
			}
			app.console.LogInfo("Recommended threshold: %d kWh (average daily usage + 20%%)", recommended)
			return nil
		},
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "set <kWh>",
		Short: "Set the daily usage threshold used for alerts",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			value, err := strconv.ParseFloat(args[0], 64)
			if err != nil {
				return &types.ValidationError{Field: "threshold", Reason: fmt.Sprintf("%q is not a number", args[0]), Err: err}
			}

			stored, err := app.services.Thresholds.Set(cmd.Context(), value)
			if err != nil {
				return err
			}
			if stored != nil {
				app.console.LogSuccess("Threshold updated to %.2f kWh", *stored)
			} else {
				app.console.LogSuccess("Threshold updated")
			}
			return nil
		},
	})

	return cmd
}
