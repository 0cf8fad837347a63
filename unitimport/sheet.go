package unitimport

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/xuri/excelize/v2"
)

var (
	ErrNoSheets   = errors.New("no sheets found in Excel file")
	ErrNoDataRows = errors.New("Excel file must contain header and at least one data row")
)

const templateSheet = "Unidades"

var templateExample = []string{
	"101",
	"1,5",
	"PersonaNatural",
	"Juan Pérez",
	"Departamento;Bodega",
	"123:45:2020:Departamento,Bodega",
	"",
	"",
	`[{"nombre":"Ana Soto","porcentaje":50},{"nombre":"Luis Rojas","porcentaje":50}]`,
	`{"email":"juan@example.com","telefono":"+56912345678"}`,
	"",
}

// ReadSheet reads the first worksheet of an .xlsx file. Row 1 holds the
// headers; every following row becomes a RawRow.
func ReadSheet(r io.Reader) ([]RawRow, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("read excel file: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, ErrNoSheets
	}

	grid, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("read rows: %w", err)
	}
	if len(grid) < 2 {
		return nil, ErrNoDataRows
	}

	rows := RowsFromGrid(grid[0], grid[1:])
	if len(rows) == 0 {
		return nil, ErrNoDataRows
	}
	return rows, nil
}

// RowsFromGrid pairs cells with their header, keyed by canonical field name
// where the header is recognized. Columns with a blank header are ignored and
// trailing blank rows are dropped; blank rows in between are kept so row
// numbers still match the sheet. When several columns map to the same field
// the leftmost non-empty cell wins.
func RowsFromGrid(headers []string, grid [][]string) []RawRow {
	keys := NormalizeHeaders(headers)
	for i := range keys {
		keys[i] = strings.TrimSpace(keys[i])
	}

	last := len(grid) - 1
	for last >= 0 && blankRow(grid[last]) {
		last--
	}

	rows := make([]RawRow, 0, last+1)
	for _, cells := range grid[:last+1] {
		row := make(RawRow, len(keys))
		for col, key := range keys {
			if key == "" {
				continue
			}
			var value string
			if col < len(cells) {
				value = cells[col]
			}
			if existing, ok := row[key]; ok && CellString(existing) != "" {
				continue
			}
			row[key] = value
		}
		rows = append(rows, row)
	}
	return rows
}

func blankRow(cells []string) bool {
	for _, c := range cells {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

// WriteTemplate writes the downloadable import template with one example
// row.
func WriteTemplate(w io.Writer) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", templateSheet); err != nil {
		return err
	}
	if err := f.SetSheetRow(templateSheet, "A1", &TemplateColumns); err != nil {
		return err
	}
	if err := f.SetSheetRow(templateSheet, "A2", &templateExample); err != nil {
		return err
	}

	lastCol, err := excelize.ColumnNumberToName(len(TemplateColumns))
	if err != nil {
		return err
	}
	if err := f.SetColWidth(templateSheet, "A", lastCol, 24); err != nil {
		return err
	}

	style, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return err
	}
	if err := f.SetCellStyle(templateSheet, "A1", lastCol+"1", style); err != nil {
		return err
	}

	return f.Write(w)
}
