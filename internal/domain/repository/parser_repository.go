package repository

import (
	"github.com/diillson/energy-usage-dashboard-go/internal/domain/entity"
)

// TabularParser parses a delimited file with a header row into readings.
type TabularParser interface {
	Parse(data []byte) ([]string, []entity.ReadingRow, error)
}
