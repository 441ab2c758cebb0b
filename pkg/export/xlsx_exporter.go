package export

import (
	"fmt"
	"unicode/utf8"

	"github.com/xuri/excelize/v2"
)

const defaultSheet = "Sheet1"

// XLSXExporter renders Dataset records into a single-sheet workbook.
type XLSXExporter struct {
	Sheet string
}

// NewXLSXExporter builds an exporter writing to the named sheet.
func NewXLSXExporter(sheet string) *XLSXExporter {
	if sheet == "" {
		sheet = defaultSheet
	}
	return &XLSXExporter{Sheet: sheet}
}

// Render produces the workbook bytes. The header row is bold and columns
// are sized to their longest value, capped at 60 characters.
func (e *XLSXExporter) Render(data Dataset) ([]byte, error) {
	if len(data.Headers) == 0 {
		return nil, fmt.Errorf("xlsx requires at least one header")
	}

	f := excelize.NewFile()
	defer f.Close() //nolint:errcheck

	sheet := e.Sheet
	if sheet != defaultSheet {
		if err := f.SetSheetName(defaultSheet, sheet); err != nil {
			return nil, fmt.Errorf("name sheet: %w", err)
		}
	}

	widths := make([]int, len(data.Headers))
	for i, h := range data.Headers {
		if err := setCell(f, sheet, i+1, 1, h); err != nil {
			return nil, err
		}
		widths[i] = utf8.RuneCountInString(h)
	}
	for r, row := range data.Rows {
		for i, h := range data.Headers {
			v := row[h]
			if v == "" {
				continue
			}
			if err := setCell(f, sheet, i+1, r+2, v); err != nil {
				return nil, err
			}
			if n := utf8.RuneCountInString(v); n > widths[i] {
				widths[i] = n
			}
		}
	}

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return nil, fmt.Errorf("header style: %w", err)
	}
	last, err := excelize.CoordinatesToCellName(len(data.Headers), 1)
	if err != nil {
		return nil, err
	}
	if err := f.SetCellStyle(sheet, "A1", last, bold); err != nil {
		return nil, fmt.Errorf("apply header style: %w", err)
	}

	for i, w := range widths {
		col, err := excelize.ColumnNumberToName(i + 1)
		if err != nil {
			return nil, err
		}
		if w > 60 {
			w = 60
		}
		if err := f.SetColWidth(sheet, col, col, float64(w+2)); err != nil {
			return nil, fmt.Errorf("size column %s: %w", col, err)
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("write xlsx: %w", err)
	}
	return buf.Bytes(), nil
}

func setCell(f *excelize.File, sheet string, col, row int, value string) error {
	cell, err := excelize.CoordinatesToCellName(col, row)
	if err != nil {
		return err
	}
	if err := f.SetCellStr(sheet, cell, value); err != nil {
		return fmt.Errorf("write cell %s: %w", cell, err)
	}
	return nil
}
