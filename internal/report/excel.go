package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/xuri/excelize/v2"
)

const maxSheetName = 31

var sheetNameCleaner = strings.NewReplacer(
	":", " ", "\\", " ", "/", " ", "?", " ", "*", " ", "[", "(", "]", ")",
)

// WriteExcel writes one worksheet per table with a bold header row.
func WriteExcel(w io.Writer, doc Document) error {
	f := excelize.NewFile()
	defer f.Close()

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"D9E1F2"}, Pattern: 1},
	})
	if err != nil {
		return err
	}

	used := map[string]int{}
	for i, table := range doc.Tables {
		name := sheetName(table.Title, used)
		if i == 0 {
			if err := f.SetSheetName(f.GetSheetName(0), name); err != nil {
				return err
			}
		} else if _, err := f.NewSheet(name); err != nil {
			return err
		}

		if err := writeSheet(f, name, table, headerStyle); err != nil {
			return fmt.Errorf("sheet %q: %w", name, err)
		}
	}

	return f.Write(w)
}

func writeSheet(f *excelize.File, sheet string, table Table, headerStyle int) error {
	header := table.Headers
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return err
	}

	lastHeader, err := excelize.CoordinatesToCellName(len(table.Headers), 1)
	if err != nil {
		return err
	}
	if err := f.SetCellStyle(sheet, "A1", lastHeader, headerStyle); err != nil {
		return err
	}

	for r, row := range table.Rows {
		cell, err := excelize.CoordinatesToCellName(1, r+2)
		if err != nil {
			return err
		}
		values := row
		if err := f.SetSheetRow(sheet, cell, &values); err != nil {
			return err
		}
	}

	for c := range table.Headers {
		col, err := excelize.ColumnNumberToName(c + 1)
		if err != nil {
			return err
		}
		if err := f.SetColWidth(sheet, col, col, columnWidth(table, c)); err != nil {
			return err
		}
	}

	return nil
}

// columnWidth sizes a column to its longest value, capped at 50 characters.
func columnWidth(table Table, col int) float64 {
	longest := len(table.Headers[col])
	for _, row := range table.Rows {
		if col < len(row) {
			if n := len(cellText(row[col])); n > longest {
				longest = n
			}
		}
	}
	return float64(min(longest+2, 50))
}

func sheetName(title string, used map[string]int) string {
	name := strings.TrimSpace(sheetNameCleaner.Replace(title))
	if name == "" {
		name = "Sheet"
	}
	if len(name) > maxSheetName {
		name = name[:maxSheetName]
	}

	used[name]++
	if n := used[name]; n > 1 {
		suffix := fmt.Sprintf(" %d", n)
		if len(name)+len(suffix) > maxSheetName {
			name = name[:maxSheetName-len(suffix)]
		}
		name += suffix
	}
	return name
}
