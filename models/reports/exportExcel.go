package reports

import (
	"io"

	"github.com/xuri/excelize/v2"
)

type ExcelExporter interface {
	GetCellValues() []interface{}
}

// ExcelReport is a report that can be written as a workbook.
type ExcelReport interface {
	ExcelRows() []ExcelExporter
}

const excelSheet = "Sheet1"

// WriteExcel writes one header row from columns followed by one row per record.
func WriteExcel(w io.Writer, columns []Column, rows []ExcelExporter) error {
	f := excelize.NewFile()
	defer f.Close()

	for i, col := range columns {
		cell, err := excelize.CoordinatesToCellName(i+1, 1)
		if err != nil {
			return err
		}
		if err := f.SetCellValue(excelSheet, cell, col.Label); err != nil {
			return err
		}
		if name, err := excelize.ColumnNumberToName(i + 1); err == nil && col.Width > 0 {
			// Column widths are pixels; excelize takes characters.
			_ = f.SetColWidth(excelSheet, name, name, float64(col.Width)/7)
		}
	}

	for r, row := range rows {
		for c, value := range row.GetCellValues() {
			cell, err := excelize.CoordinatesToCellName(c+1, r+2)
			if err != nil {
				return err
			}
			if err := f.SetCellValue(excelSheet, cell, value); err != nil {
				return err
			}
		}
	}
	return f.Write(w)
}
