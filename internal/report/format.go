package report

import (
	"bytes"
	"fmt"
	"strings"
	"time"
)

type Format string

const (
	FormatCSV   Format = "csv"
	FormatExcel Format = "excel"
	FormatPDF   Format = "pdf"
)

const timestampLayout = "20060102_150405"

// ParseFormat accepts csv, excel (or xlsx) and pdf. An empty value yields def.
func ParseFormat(raw string, def Format) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "":
		return def, nil
	case "csv":
		return FormatCSV, nil
	case "excel", "xlsx":
		return FormatExcel, nil
	case "pdf":
		return FormatPDF, nil
	default:
		return "", fmt.Errorf("unsupported export format %q", raw)
	}
}

func (f Format) Extension() string {
	switch f {
	case FormatExcel:
		return "xlsx"
	case FormatPDF:
		return "pdf"
	default:
		return "csv"
	}
}

func (f Format) ContentType() string {
	switch f {
	case FormatExcel:
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	case FormatPDF:
		return "application/pdf"
	default:
		return "text/csv; charset=utf-8"
	}
}

// File is a rendered report ready to be served as an attachment.
type File struct {
	Name        string
	ContentType string
	Body        []byte
}

// Render writes doc in the requested format.
func Render(doc Document, format Format, name string) (File, error) {
	var buf bytes.Buffer
	var err error

	switch format {
	case FormatCSV:
		err = WriteCSV(&buf, doc)
	case FormatExcel:
		err = WriteExcel(&buf, doc)
	case FormatPDF:
		err = WritePDF(&buf, doc)
	default:
		err = fmt.Errorf("unsupported export format %q", format)
	}
	if err != nil {
		return File{}, fmt.Errorf("render %s report: %w", format, err)
	}

	return File{Name: name, ContentType: format.ContentType(), Body: buf.Bytes()}, nil
}

func TransactionsFilename(userID string, format Format, at time.Time) string {
	return fmt.Sprintf("transactions_%s_%s.%s", userID, at.UTC().Format(timestampLayout), format.Extension())
}

func AdminTransactionsFilename(format Format, at time.Time) string {
	return fmt.Sprintf("admin_transactions_%s.%s", at.UTC().Format(timestampLayout), format.Extension())
}

func SystemReportFilename(reportType string, format Format, at time.Time) string {
	return fmt.Sprintf("system_report_%s_%s.%s", reportType, at.UTC().Format(timestampLayout), format.Extension())
}
