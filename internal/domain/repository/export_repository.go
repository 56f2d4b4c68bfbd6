package repository

import (
	"github.com/diillson/energy-usage-dashboard-go/internal/domain/entity"
)

type ExportRepository interface {
	ExportUsageToCSV(view *entity.DashboardView, filename, outputDir string) (string, error)
	ExportUsageToJSON(view *entity.DashboardView, filename, outputDir string) (string, error)
	ExportUsageToPDF(view *entity.DashboardView, filename, outputDir string) (string, error)
}
