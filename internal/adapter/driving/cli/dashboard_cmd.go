package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/diillson/energy-usage-dashboard-go/internal/domain/entity"
	"github.com/diillson/energy-usage-dashboard-go/internal/shared/types"
	"github.com/diillson/energy-usage-dashboard-go/pkg/console"
)

func (app *CLIApp) newDashboardCmd() *cobra.Command {
	var args types.DashboardArgs

	cmd := &cobra.Command{
		Use:   "dashboard",
		Short: "Show usage, costs and threshold alerts for a date range",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := app.completeDashboardArgs(cmd, &args); err != nil {
				return err
			}
			return app.runDashboard(cmd, &args)
		},
	}

	cmd.Flags().StringVar(&args.Start, "start", "", "Start date (YYYY-MM-DD, default: first day of the current month)")
	cmd.Flags().StringVar(&args.End, "end", "", "End date (YYYY-MM-DD, default: last day of the current month)")
	cmd.Flags().StringVarP(&args.Period, "period", "p", "", "Aggregation period: daily, weekly, monthly, quarterly, yearly")
	cmd.Flags().StringVarP(&args.ReportName, "report-name", "n", "", "Specify the base name for the report file (without extension)")
	cmd.Flags().StringSliceVarP(&args.ReportType, "report-type", "y", nil, "Specify report types: csv, json, pdf")
	cmd.Flags().StringVarP(&args.Dir, "dir", "d", "", "Directory to save the report files (default: current directory)")

	return cmd
}

// completeDashboardArgs preenche com a configuração o que não veio por flag.
func (app *CLIApp) completeDashboardArgs(cmd *cobra.Command, args *types.DashboardArgs) error {
	if args.Period == "" {
		args.Period = app.cfg.DefaultPeriod
	}
	if !cmd.Flags().Changed("report-type") {
		args.ReportType = app.cfg.ReportType
	}
	if args.Dir == "" {
		args.Dir = app.cfg.ReportDir
	}

	if args.Dir == "" {
		cwd, err := os.Getwd()
		if err != nil {
			return err
		}
		args.Dir = cwd
	} else {
		absDir, err := filepath.Abs(args.Dir)
		if err != nil {
			return err
		}
		args.Dir = absDir
	}
	return nil
}

func (app *CLIApp) buildQuery(args *types.DashboardArgs) (entity.DashboardQuery, error) {
	g, err := entity.ParseGranularity(args.Period)
	if err != nil {
		return entity.DashboardQuery{}, &types.ValidationError{Field: "period", Reason: err.Error()}
	}

	q := app.services.Dashboard.DefaultQuery(g)
	if args.Start != "" {
		start, err := time.ParseInLocation(entity.DateLayout, args.Start, time.Local)
		if err != nil {
			return q, &types.ValidationError{Field: "start", Reason: "expected YYYY-MM-DD", Err: err}
		}
		q.Start = start
	}
	if args.End != "" {
		end, err := time.ParseInLocation(entity.DateLayout, args.End, time.Local)
		if err != nil {
			return q, &types.ValidationError{Field: "end", Reason: "expected YYYY-MM-DD", Err: err}
		}
		q.End = end
	}
	return q, nil
}

func (app *CLIApp) runDashboard(cmd *cobra.Command, args *types.DashboardArgs) error {
	q, err := app.buildQuery(args)
	if err != nil {
		return err
	}

	status := app.console.Status(fmt.Sprintf("Fetching %s usage from %s to %s...",
		q.Granularity, q.Start.Format(entity.DateLayout), q.End.Format(entity.DateLayout)))
	view, err := app.services.Dashboard.Refresh(cmd.Context(), q)
	status.Stop()
	if err != nil {
		if errors.Is(err, types.ErrStaleResponse) {
			return nil
		}
		return err
	}

	for _, w := range view.Warnings {
		app.console.LogWarning("%s", w)
	}

	app.displayUsage(view)
	app.displayCosts(view)
	app.displayBreaches(view)

	if args.ReportName == "" {
		return nil
	}

	paths, err := app.services.Dashboard.Export(view, args.ReportType, args.ReportName, args.Dir)
	for _, format := range args.ReportType {
		if path, ok := paths[strings.ToLower(strings.TrimSpace(format))]; ok {
			app.console.LogSuccess("%s report saved: %s", format, path)
		}
	}
	return err
}

func (app *CLIApp) displayUsage(view *entity.DashboardView) {
	app.console.Println()
	app.console.Println(pterm.FgLightCyan.Sprintf("Energy usage for %s (%s to %s, %s)", view.Customer, view.Start, view.End, view.Granularity))

	if len(view.Usage) == 0 {
		app.console.LogWarning("No usage recorded for this period")
		return
	}

	table := app.console.CreateTable()
	table.AddColumn("Period")
	table.AddColumn("Usage (kWh)")
	table.AddColumn("Average (kWh)")
	table.AddColumn("Threshold (kWh)")

	bars := make([]types.PeriodValue, 0, len(view.Usage))
	for _, p := range view.Usage {
		usage := fmt.Sprintf("%.2f", p.Value)
		if p.AboveThreshold {
			usage = console.BoldRed(usage)
		}
		threshold := "-"
		if p.Threshold != nil {
			threshold = fmt.Sprintf("%.2f", *p.Threshold)
		}
		table.AddRow(
			pterm.FgMagenta.Sprintf("%s", p.PeriodKey),
			usage,
			fmt.Sprintf("%.2f", p.Average),
			threshold,
		)
		bars = append(bars, types.PeriodValue{Period: p.PeriodKey, Value: p.Value})
	}

	app.console.Print(table.Render())
	app.console.Println(console.BrightGreen(fmt.Sprintf("Total usage: %.2f kWh", view.TotalUsage)))

	app.console.DisplayUsageBars("Usage by period", bars, view.Threshold)
}

func (app *CLIApp) displayCosts(view *entity.DashboardView) {
	if len(view.Costs) == 0 {
		return
	}

	estimated := make(map[string]bool, len(view.Estimated))
	for _, m := range view.Estimated {
		estimated[m] = true
	}

	table := app.console.CreateTable()
	table.AddColumn("Period")
	table.AddColumn("Cost")

	for _, c := range view.Costs {
		cost := fmt.Sprintf("$%.2f", c.Value)
		if estimated[c.PeriodKey] {
			cost = console.BrightYellow(cost + " (estimated)")
		}
		table.AddRow(pterm.FgMagenta.Sprintf("%s", c.PeriodKey), cost)
	}

	app.console.Println()
	app.console.Print(table.Render())
	app.console.Println(console.BrightGreen(fmt.Sprintf("Total cost: $%.2f", view.TotalCost)))
}

func (app *CLIApp) displayBreaches(view *entity.DashboardView) {
	if view.Threshold == nil {
		app.console.LogInfo("No usage threshold set. Use 'energy-usage threshold set <kWh>' to enable alerts.")
		return
	}
	if len(view.Breaches) == 0 {
		app.console.LogSuccess("No days above the %.2f kWh threshold", *view.Threshold)
		return
	}

	app.console.LogWarning("%d day(s) above the %.2f kWh threshold:", len(view.Breaches), *view.Threshold)
	for _, b := range view.Breaches {
		app.console.Println(fmt.Sprintf("  %s  %s", b.Date, console.BrightRed(fmt.Sprintf("%.2f kWh", b.Usage))))
	}
}
