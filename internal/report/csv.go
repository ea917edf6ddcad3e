package report

import (
	"encoding/csv"
	"io"
)

// WriteCSV writes a single-table document as a plain sheet. Multi-table
// documents get a title row per section and a blank line between sections.
func WriteCSV(w io.Writer, doc Document) error {
	cw := csv.NewWriter(w)
	sectioned := len(doc.Tables) > 1

	if sectioned {
		if err := cw.Write([]string{doc.Title}); err != nil {
			return err
		}
		if err := cw.Write([]string{"Generated on", doc.GeneratedAt.UTC().Format("2006-01-02 15:04:05")}); err != nil {
			return err
		}
		if err := cw.Write(nil); err != nil {
			return err
		}
	}

	for i, table := range doc.Tables {
		if sectioned {
			if i > 0 {
				if err := cw.Write(nil); err != nil {
					return err
				}
			}
			if err := cw.Write([]string{table.Title}); err != nil {
				return err
			}
		}

		if err := cw.Write(table.Headers); err != nil {
			return err
		}
		for _, row := range table.Rows {
			record := make([]string, len(row))
			for j, cell := range row {
				record[j] = cellText(cell)
			}
			if err := cw.Write(record); err != nil {
				return err
			}
		}
	}

	cw.Flush()
	return cw.Error()
}
