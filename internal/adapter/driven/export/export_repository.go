package export

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/jung-kurt/gofpdf"

	"github.com/diillson/energy-usage-dashboard-go/internal/domain/entity"
	"github.com/diillson/energy-usage-dashboard-go/internal/domain/repository"
)

// ExportRepositoryImpl implementa o ExportRepository.
type ExportRepositoryImpl struct{}

// NewExportRepository cria uma nova implementação do ExportRepository.
func NewExportRepository() repository.ExportRepository {
	return &ExportRepositoryImpl{}
}

func (r *ExportRepositoryImpl) ExportUsageToCSV(view *entity.DashboardView, filename, outputDir string) (string, error) {
	outputFilename, err := generateFilename(filename, outputDir, "csv")
	if err != nil {
		return "", err
	}

	file, err := os.Create(outputFilename)
	if err != nil {
		return "", fmt.Errorf("error creating CSV file: %w", err)
	}
	defer file.Close()

	writer := csv.NewWriter(file)

	records := [][]string{{"Period", "Usage (kWh)", "Average (kWh)", "Threshold (kWh)", "Above Threshold"}}
	for _, p := range view.Usage {
		records = append(records, []string{
			p.PeriodKey,
			formatNumber(p.Value),
			formatNumber(p.Average),
			formatThreshold(p.Threshold),
			fmt.Sprintf("%t", p.AboveThreshold),
		})
	}

	if len(view.Costs) > 0 {
		records = append(records, []string{}, []string{"Period", "Cost", "Estimated"})
		estimated := estimatedSet(view.Estimated)
		for _, c := range view.Costs {
			records = append(records, []string{c.PeriodKey, fmt.Sprintf("$%.2f", c.Value), fmt.Sprintf("%t", estimated[c.PeriodKey])})
		}
	}

	if err := writer.WriteAll(records); err != nil {
		return "", fmt.Errorf("error writing CSV file: %w", err)
	}

	return filepath.Abs(outputFilename)
}

func (r *ExportRepositoryImpl) ExportUsageToJSON(view *entity.DashboardView, filename, outputDir string) (string, error) {
	outputFilename, err := generateFilename(filename, outputDir, "json")
	if err != nil {
		return "", err
	}

	file, err := os.Create(outputFilename)
	if err != nil {
		return "", fmt.Errorf("error creating JSON file: %w", err)
	}
	defer file.Close()

	encoder := json.NewEncoder(file)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(view); err != nil {
		return "", fmt.Errorf("error encoding JSON data: %w", err)
	}

	return filepath.Abs(outputFilename)
}

func (r *ExportRepositoryImpl) ExportUsageToPDF(view *entity.DashboardView, filename, outputDir string) (string, error) {
	outputFilename, err := generateFilename(filename, outputDir, "pdf")
	if err != nil {
		return "", err
	}

	pdf := gofpdf.New("P", "mm", "A4", "")
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	headerColor := [3]int{40, 40, 40}
	headerTextColor := [3]int{255, 255, 255}
	sectionTitleColor := [3]int{0, 0, 0}
	bodyTextColor := [3]int{50, 50, 50}
	lineColor := [3]int{200, 200, 200}
	alertColor := [3]int{192, 0, 0}

	sectionTitle := func(title string) {
		pdf.SetFont("Arial", "B", 12)
		pdf.SetTextColor(sectionTitleColor[0], sectionTitleColor[1], sectionTitleColor[2])
		pdf.Cell(0, 8, tr(title))
		pdf.Ln(7)
		pdf.SetDrawColor(lineColor[0], lineColor[1], lineColor[2])
		pdf.Line(pdf.GetX(), pdf.GetY(), pdf.GetX()+190, pdf.GetY())
		pdf.Ln(4)
	}

	tableHeader := func(widths []float64, titles []string) {
		pdf.SetFont("Arial", "B", 10)
		pdf.SetTextColor(bodyTextColor[0], bodyTextColor[1], bodyTextColor[2])
		for i, title := range titles {
			ln := 0
			if i == len(titles)-1 {
				ln = 1
			}
			pdf.CellFormat(widths[i], 7, tr(title), "B", ln, "L", false, 0, "")
		}
		pdf.SetFont("Arial", "", 10)
	}

	pdf.AddPage()

	pdf.SetFillColor(headerColor[0], headerColor[1], headerColor[2])
	pdf.SetTextColor(headerTextColor[0], headerTextColor[1], headerTextColor[2])
	pdf.SetFont("Arial", "B", 14)
	pdf.CellFormat(0, 12, tr(fmt.Sprintf("  Energy Usage Report: %s", view.Customer)), "", 1, "L", true, 0, "")

	pdf.SetFont("Arial", "", 10)
	pdf.SetFillColor(240, 240, 240)
	pdf.SetTextColor(bodyTextColor[0], bodyTextColor[1], bodyTextColor[2])
	pdf.CellFormat(0, 8, tr(fmt.Sprintf("  Period: %s to %s (%s)", view.Start, view.End, view.Granularity)), "", 1, "L", true, 0, "")
	pdf.CellFormat(0, 8, tr(fmt.Sprintf("  Threshold: %s kWh", formatThreshold(view.Threshold))), "", 1, "L", true, 0, "")
	pdf.Ln(8)

	sectionTitle("Summary")
	pdf.SetFont("Arial", "B", 16)
	pdf.CellFormat(95, 12, tr(fmt.Sprintf("%.2f kWh", view.TotalUsage)), "", 0, "L", false, 0, "")
	pdf.CellFormat(95, 12, tr(fmt.Sprintf("$%.2f", view.TotalCost)), "", 1, "L", false, 0, "")
	pdf.Ln(6)

	sectionTitle("Usage")
	usageWidths := []float64{50, 40, 40, 40, 20}
	tableHeader(usageWidths, []string{"Period", "Usage (kWh)", "Average", "Threshold", ""})
	for _, p := range view.Usage {
		if p.AboveThreshold {
			pdf.SetTextColor(alertColor[0], alertColor[1], alertColor[2])
		}
		marker := ""
		if p.AboveThreshold {
			marker = "!"
		}
		pdf.CellFormat(usageWidths[0], 6, tr(p.PeriodKey), "", 0, "L", false, 0, "")
		pdf.CellFormat(usageWidths[1], 6, formatNumber(p.Value), "", 0, "L", false, 0, "")
		pdf.CellFormat(usageWidths[2], 6, formatNumber(p.Average), "", 0, "L", false, 0, "")
		pdf.CellFormat(usageWidths[3], 6, formatThreshold(p.Threshold), "", 0, "L", false, 0, "")
		pdf.CellFormat(usageWidths[4], 6, marker, "", 1, "L", false, 0, "")
		pdf.SetTextColor(bodyTextColor[0], bodyTextColor[1], bodyTextColor[2])
	}
	pdf.Ln(8)

	if len(view.Costs) > 0 {
		sectionTitle("Costs")
		costWidths := []float64{60, 60, 70}
		tableHeader(costWidths, []string{"Period", "Cost", "Estimated"})
		estimated := estimatedSet(view.Estimated)
		for _, c := range view.Costs {
			flag := ""
			if estimated[c.PeriodKey] {
				flag = "yes"
			}
			pdf.CellFormat(costWidths[0], 6, tr(c.PeriodKey), "", 0, "L", false, 0, "")
			pdf.CellFormat(costWidths[1], 6, fmt.Sprintf("$%.2f", c.Value), "", 0, "L", false, 0, "")
			pdf.CellFormat(costWidths[2], 6, flag, "", 1, "L", false, 0, "")
		}
		pdf.Ln(8)
	}

	if len(view.Warnings) > 0 {
		sectionTitle("Warnings")
		pdf.SetFont("Arial", "", 10)
		pdf.MultiCell(190, 5, tr(strings.Join(view.Warnings, "\n")), "", "L", false)
	}

	pdf.SetY(-15)
	pdf.SetFont("Arial", "I", 8)
	pdf.SetTextColor(128, 128, 128)
	footerText := fmt.Sprintf("Generated by Energy Usage Dashboard (Go) | %s", time.Now().Format("2006-01-02"))
	pdf.CellFormat(0, 10, tr(footerText), "", 0, "L", false, 0, "")

	if err := pdf.OutputFileAndClose(outputFilename); err != nil {
		return "", fmt.Errorf("error writing PDF file: %w", err)
	}

	return filepath.Abs(outputFilename)
}

// --- Funções Auxiliares ---

// generateFilename cria um nome de arquivo único com timestamp e garante que o diretório exista.
func generateFilename(base, dir, ext string) (string, error) {
	if dir == "" {
		cwd, err := os.Getwd()
		if err != nil {
			return "", fmt.Errorf("could not get current working directory: %w", err)
		}
		dir = cwd
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("error creating output directory '%s': %w", dir, err)
	}
	timestamp := time.Now().Format("20060102_150405")
	filename := fmt.Sprintf("%s_%s.%s", base, timestamp, ext)
	return filepath.Join(dir, filename), nil
}

func formatNumber(v float64) string {
	return fmt.Sprintf("%.2f", v)
}

func formatThreshold(t *float64) string {
	if t == nil {
		return "-"
	}
	return formatNumber(*t)
}

func estimatedSet(months []string) map[string]bool {
	set := make(map[string]bool, len(months))
	for _, m := range months {
		set[m] = true
	}
	return set
}
