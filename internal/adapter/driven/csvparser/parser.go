package csvparser

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/diillson/energy-usage-dashboard-go/internal/domain/entity"
	"github.com/diillson/energy-usage-dashboard-go/internal/domain/repository"
	"github.com/diillson/energy-usage-dashboard-go/internal/shared/types"
)

const (
	dateColumn  = "Date"
	usageColumn = "Usage"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// CSVParserImpl lê arquivos Date,Usage com linha de cabeçalho.
type CSVParserImpl struct{}

// NewCSVParser creates a new tabular parser for CSV files.
func NewCSVParser() repository.TabularParser {
	return &CSVParserImpl{}
}

// Parse returns the header row and every data row. Columns are located by
// name (case-insensitive), so extra columns and any column order are accepted.
func (p *CSVParserImpl) Parse(data []byte) ([]string, []entity.ReadingRow, error) {
	reader := csv.NewReader(bytes.NewReader(bytes.TrimPrefix(data, utf8BOM)))
	reader.TrimLeadingSpace = true

	headers, err := reader.Read()
	if err == io.EOF {
		return nil, nil, &types.ParseError{Err: errors.New("file is empty")}
	}
	if err != nil {
		return nil, nil, toParseError(err)
	}
	for i := range headers {
		headers[i] = strings.TrimSpace(headers[i])
	}

	dateIdx, usageIdx := columnIndex(headers, dateColumn), columnIndex(headers, usageColumn)
	if dateIdx < 0 || usageIdx < 0 {
		return nil, nil, &types.ParseError{
			Line: 1,
			Err:  fmt.Errorf("CSV must have headers: %s,%s", dateColumn, usageColumn),
		}
	}

	var rows []entity.ReadingRow
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, nil, toParseError(err)
		}
		line, _ := reader.FieldPos(0)

		date, err := time.Parse(entity.DateLayout, strings.TrimSpace(record[dateIdx]))
		if err != nil {
			return nil, nil, &types.ParseError{
				Line:   line,
				Column: dateColumn,
				Err:    fmt.Errorf("invalid date %q, expected YYYY-MM-DD", record[dateIdx]),
			}
		}

		usage, err := strconv.ParseFloat(strings.TrimSpace(record[usageIdx]), 64)
		if err != nil || math.IsNaN(usage) || math.IsInf(usage, 0) {
			return nil, nil, &types.ParseError{
				Line:   line,
				Column: usageColumn,
				Err:    fmt.Errorf("invalid number %q", record[usageIdx]),
			}
		}
		if usage < 0 {
			return nil, nil, &types.ParseError{Line: line, Column: usageColumn, Err: types.ErrNegativeValue}
		}

		rows = append(rows, entity.ReadingRow{Date: date, Usage: usage})
	}

	if len(rows) == 0 {
		return nil, nil, &types.ParseError{Err: errors.New("file has no data rows")}
	}

	return headers, rows, nil
}

func columnIndex(headers []string, name string) int {
	for i, h := range headers {
		if strings.EqualFold(h, name) {
			return i
		}
	}
	return -1
}

func toParseError(err error) error {
	var csvErr *csv.ParseError
	if errors.As(err, &csvErr) {
		return &types.ParseError{Line: csvErr.Line, Err: csvErr.Err}
	}
	return &types.ParseError{Err: err}
}
