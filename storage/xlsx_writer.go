package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"isef-scraper/models"
	"isef-scraper/utils"

	"github.com/xuri/excelize/v2"
)

// SheetName is the worksheet holding the records
const SheetName = "Projects"

// column widths by header; anything unlisted gets defaultColWidth
var colWidths = map[string]float64{
	"Finalist Names": 32,
	"Title":          48,
	"Category":       28,
	"Awards Won":     40,
	"Abstract":       80,
}

const defaultColWidth = 16

// XLSXWriter writes project records to a spreadsheet with the same columns as the CSV
type XLSXWriter struct {
	filePath string
	logger   *utils.Logger
}

// NewXLSXWriter creates a new XLSXWriter
func NewXLSXWriter(filePath string, logger *utils.Logger) *XLSXWriter {
	return &XLSXWriter{filePath: filePath, logger: logger}
}

func (w *XLSXWriter) Name() string { return "xlsx" }

// Path is the file the writer creates
func (w *XLSXWriter) Path() string { return w.filePath }

func (w *XLSXWriter) SaveRecords(ctx context.Context, records []models.ProjectRecord) error {
	if err := os.MkdirAll(filepath.Dir(w.filePath), 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), SheetName); err != nil {
		return fmt.Errorf("failed to name sheet: %w", err)
	}

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("failed to create header style: %w", err)
	}

	for i, h := range models.Columns {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		if err := f.SetCellValue(SheetName, cell, h); err != nil {
			return fmt.Errorf("failed to write header %s: %w", cell, err)
		}
		col, _ := excelize.ColumnNumberToName(i + 1)
		width, ok := colWidths[h]
		if !ok {
			width = defaultColWidth
		}
		_ = f.SetColWidth(SheetName, col, col, width)
	}
	last, _ := excelize.CoordinatesToCellName(len(models.Columns), 1)
	_ = f.SetCellStyle(SheetName, "A1", last, bold)

	for r, rec := range records {
		for c, v := range rec.Row() {
			cell, _ := excelize.CoordinatesToCellName(c+1, r+2)
			// written as strings so years and ids are not coerced to numbers
			if err := f.SetCellStr(SheetName, cell, v); err != nil {
				return fmt.Errorf("failed to write cell %s: %w", cell, err)
			}
		}
	}

	if err := f.SaveAs(w.filePath); err != nil {
		return fmt.Errorf("failed to save XLSX file: %w", err)
	}
	w.logger.Info("Project records written to: %s (%d rows)", w.filePath, len(records))
	return nil
}

func (w *XLSXWriter) Close() error { return nil }
