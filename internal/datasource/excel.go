package datasource

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"github.com/oakrise/docstamp/internal/record"
)

// ExcelSource implements Source over a directory of .xlsx workbooks. The
// workbook file name is the source id; row 1 of each sheet holds the
// headers that become record keys.
type ExcelSource struct {
	dir    string
	logger *zap.Logger
}

// NewExcelSource creates an Excel data source over the given directory.
func NewExcelSource(dir string, logger *zap.Logger) *ExcelSource {
	return &ExcelSource{
		dir:    dir,
		logger: logger,
	}
}

// ListSources scans the source directory for workbooks.
func (s *ExcelSource) ListSources(ctx context.Context) ([]SourceInfo, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("failed to scan source directory: %w", err)
	}

	sources := make([]SourceInfo, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() || !strings.EqualFold(filepath.Ext(e.Name()), ".xlsx") {
			continue
		}
		sources = append(sources, SourceInfo{
			ID:   e.Name(),
			Name: strings.TrimSuffix(e.Name(), filepath.Ext(e.Name())),
		})
	}
	return sources, nil
}

// Describe opens a workbook and reports its sheets, headers and data row
// counts.
func (s *ExcelSource) Describe(ctx context.Context, sourceID string) (*SourceDetail, error) {
	f, err := s.open(sourceID)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	detail := &SourceDetail{
		Name: strings.TrimSuffix(sourceID, filepath.Ext(sourceID)),
	}
	for _, sheet := range f.GetSheetList() {
		rows, err := f.GetRows(sheet)
		if err != nil {
			return nil, fmt.Errorf("failed to read sheet %q: %w", sheet, err)
		}

		info := SheetInfo{Name: sheet}
		if len(rows) > 0 {
			info.Headers = headerNames(rows[0])
			info.RowCount = len(rows) - 1
		}
		detail.Sheets = append(detail.Sheets, info)
	}
	return detail, nil
}

// FetchRecords reads data rows from one sheet, resolving each cell to a
// typed value. Every record carries the full header key set; empty cells
// become absent values.
func (s *ExcelSource) FetchRecords(ctx context.Context, sourceID, sheetName string, rowSelector []int) ([]record.Record, error) {
	f, err := s.open(sourceID)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	rows, err := f.GetRows(sheetName)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrSheetNotFound, sheetName)
	}
	if len(rows) == 0 {
		return nil, nil
	}

	headers := rows[0]
	keys := headerNames(headers)

	var selected map[int]bool
	if rowSelector != nil {
		selected = make(map[int]bool, len(rowSelector))
		for _, idx := range rowSelector {
			selected[idx] = true
		}
	}

	records := make([]record.Record, 0, len(rows)-1)
	for i, row := range rows[1:] {
		dataRow := i + 1 // 1-based data row index
		if selected != nil && !selected[dataRow] {
			continue
		}

		fields := make(map[string]record.Value, len(keys))
		seen := make(map[string]bool, len(keys))
		for col, header := range headers {
			key := strings.TrimSpace(header)
			if key == "" || seen[key] {
				continue // duplicate or empty headers are dropped
			}
			seen[key] = true

			cell := ""
			if col < len(row) {
				cell = row[col]
			}
			fields[key] = resolveValue(cell)
		}

		records = append(records, record.Record{
			RowID:  fmt.Sprintf("%s!%d", sheetName, dataRow),
			Fields: fields,
		})
	}

	s.logger.Debug("Records fetched",
		zap.String("source", sourceID),
		zap.String("sheet", sheetName),
		zap.Int("count", len(records)))
	return records, nil
}

func (s *ExcelSource) open(sourceID string) (*excelize.File, error) {
	path := filepath.Join(s.dir, filepath.Base(sourceID))
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, fmt.Errorf("%w: %s", ErrSourceNotFound, sourceID)
	}

	f, err := excelize.OpenFile(path)
	if err != nil {
		s.logger.Error("Failed to open workbook",
			zap.String("source", sourceID),
			zap.Error(err))
		return nil, fmt.Errorf("failed to open workbook: %w", err)
	}
	return f, nil
}

// headerNames returns the non-empty, deduplicated header cells of row 1.
func headerNames(row []string) []string {
	names := make([]string, 0, len(row))
	seen := make(map[string]bool, len(row))
	for _, h := range row {
		name := strings.TrimSpace(h)
		if name == "" || seen[name] {
			continue
		}
		seen[name] = true
		names = append(names, name)
	}
	return names
}

// dateLayouts are the cell date formats recognized at the boundary.
var dateLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02",
	"01/02/2006",
	"1/2/2006",
	"01-02-06",
	"1/2/06 15:04",
}

// resolveValue types one cell: empty cells are absent, parseable dates are
// dates, parseable numbers are numbers, everything else is text. This is the
// single point where type inference happens.
func resolveValue(cell string) record.Value {
	trimmed := strings.TrimSpace(cell)
	if trimmed == "" {
		return record.AbsentValue()
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, trimmed); err == nil {
			return record.DateValue(t)
		}
	}
	if n, err := strconv.ParseFloat(trimmed, 64); err == nil {
		return record.NumberValue(n)
	}
	return record.StringValue(trimmed)
}
