package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/diillson/energy-usage-dashboard-go/internal/domain/entity"
	"github.com/diillson/energy-usage-dashboard-go/internal/shared/types"
	"github.com/diillson/energy-usage-dashboard-go/pkg/console"
)

// stageMessages são as mensagens exibidas no spinner para cada estado.
var stageMessages = map[entity.IngestionState]string{
	entity.IngestionUploading:  "Requesting upload URL...",
	entity.IngestionStaged:     "File staged, starting processing...",
	entity.IngestionProcessing: "Processing readings...",
}

func (app *CLIApp) newSubmitCmd() *cobra.Command {
	var args types.SubmitArgs

	cmd := &cobra.Command{
		Use:   "submit",
		Short: "Submit a single daily reading",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := app.services.Readings.Submit(cmd.Context(), args.Date, args.Usage); err != nil {
				return err
			}
			app.console.LogSuccess("Reading of %.2f kWh for %s submitted", args.Usage, args.Date)
			return nil
		},
	}

	cmd.Flags().StringVar(&args.Date, "date", "", "Reading date (YYYY-MM-DD)")
	cmd.Flags().Float64Var(&args.Usage, "usage", 0, "Usage in kWh")
	_ = cmd.MarkFlagRequired("date")
	_ = cmd.MarkFlagRequired("usage")

	return cmd
}

func (app *CLIApp) newUploadCmd() *cobra.Command {
	var args types.UploadArgs

	cmd := &cobra.Command{
		Use:   "upload <file.csv>",
		Short: "Upload a CSV file with daily readings (columns: Date, Usage)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, positional []string) error {
			args.FilePath = positional[0]
			return app.runUpload(cmd, &args)
		},
	}

	cmd.Flags().StringVar(&args.ContentType, "content-type", "", "Declared content type (default: inferred from the .csv extension)")
	cmd.Flags().BoolVar(&args.DryRun, "dry-run", false, "Parse and validate the file without uploading it")

	return cmd
}

func (app *CLIApp) runUpload(cmd *cobra.Command, args *types.UploadArgs) error {
	data, err := os.ReadFile(args.FilePath)
	if err != nil {
		return fmt.Errorf("error reading file: %w", err)
	}

	ingestion := app.services.Ingestion
	preview, err := ingestion.SelectFile(cmd.Context(), entity.UploadFile{
		Name:        filepath.Base(args.FilePath),
		ContentType: args.ContentType,
		Data:        data,
	})
	if err != nil {
		return err
	}

	app.displayPreview(preview)

	if args.DryRun {
		app.console.LogInfo("Dry run: %d row(s) parsed, nothing uploaded", preview.TotalRows)
		return ingestion.RemoveFile()
	}

	status := app.console.Status(fmt.Sprintf("Uploading %s...", filepath.Base(args.FilePath)))
	ingestion.OnTransition(func(tr entity.Transition) {
		if msg, ok := stageMessages[tr.To]; ok {
			status.Update(msg)
		}
	})

	result, err := ingestion.Upload(cmd.Context())
	status.Stop()
	if err != nil {
		var ve *types.ValidationError
		if errors.As(err, &ve) {
			return err
		}
		if job := ingestion.Job(); job != nil && job.FailedAt != "" {
			app.console.LogError("Upload failed at the %s step", job.FailedAt)
		}
		return err
	}

	app.console.LogSuccess("File processed successfully! %d reading(s) from %s", result.Rows, result.FileName)
	return nil
}

func (app *CLIApp) displayPreview(preview entity.ParseResult) {
	table := app.console.CreateTable()
	for _, h := range preview.Headers {
		table.AddColumn(h)
	}

	dateCol, usageCol := -1, -1
	for i, h := range preview.Headers {
		switch {
		case dateCol < 0 && strings.EqualFold(h, "date"):
			dateCol = i
		case usageCol < 0 && strings.EqualFold(h, "usage"):
			usageCol = i
		}
	}

	for _, row := range preview.Preview {
		cells := make([]interface{}, len(preview.Headers))
		for i := range cells {
			cells[i] = ""
		}
		if dateCol >= 0 {
			cells[dateCol] = pterm.FgMagenta.Sprint(row.Date.Format(entity.DateLayout))
		}
		if usageCol >= 0 {
			cells[usageCol] = fmt.Sprintf("%.2f", row.Usage)
		}
		table.AddRow(cells...)
	}

	app.console.Println()
	app.console.Print(table.Render())
	app.console.Println(console.BrightCyan(fmt.Sprintf("Showing %d of %d row(s)", len(preview.Preview), preview.TotalRows)))
}
