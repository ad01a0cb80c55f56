// Package datasource is the tabular data source collaborator: it supplies
// the rows and column headers a batch run consumes. Cell values are resolved
// to typed record values here, at the boundary, so nothing downstream
// re-infers type from raw strings.
package datasource

import (
	"context"
	"errors"

	"github.com/oakrise/docstamp/internal/record"
)

// SourceInfo identifies one available data source.
type SourceInfo struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// SheetInfo describes one sheet of a source.
type SheetInfo struct {
	Name     string   `json:"name"`
	Headers  []string `json:"headers"`
	RowCount int      `json:"rowCount"`
}

// SourceDetail is the full description of one source.
type SourceDetail struct {
	Name   string      `json:"name"`
	Sheets []SheetInfo `json:"sheets"`
}

// Source abstracts the tabular data supplier.
type Source interface {
	// ListSources enumerates the available data sources.
	ListSources(ctx context.Context) ([]SourceInfo, error)

	// Describe returns the sheets, headers and row counts of one source.
	Describe(ctx context.Context, sourceID string) (*SourceDetail, error)

	// FetchRecords reads data rows from one sheet. rowSelector is an
	// optional set of 1-based data row indices; nil means all rows.
	FetchRecords(ctx context.Context, sourceID, sheetName string, rowSelector []int) ([]record.Record, error)
}

var (
	// ErrSourceNotFound signals an unknown source id.
	ErrSourceNotFound = errors.New("data source not found")

	// ErrSheetNotFound signals an unknown sheet within a source.
	ErrSheetNotFound = errors.New("sheet not found")
)
