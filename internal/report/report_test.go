package report

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"money-manager/internal/model"
)

var generatedAt = time.Date(2024, time.March, 5, 14, 7, 9, 0, time.UTC)

func sampleTransactions() []model.Transaction {
	return []model.Transaction{
		{Amount: 2500, Type: model.TypeIncome, CategoryName: "Salary", Date: time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC),
			UserInfo: &model.UserInfo{Username: "alice", Email: "alice@example.com"}},
		{Amount: 12.3, Type: model.TypeExpense, CategoryName: "Food", Date: time.Date(2024, 3, 2, 0, 0, 0, 0, time.UTC),
			Note: `lunch, "team"`},
	}
}

func TestParseFormat(t *testing.T) {
	t.Parallel()

	tests := []struct {
		raw     string
		want    Format
		wantErr bool
	}{
		{raw: "", want: FormatExcel},
		{raw: "CSV", want: FormatCSV},
		{raw: " xlsx ", want: FormatExcel},
		{raw: "excel", want: FormatExcel},
		{raw: "pdf", want: FormatPDF},
		{raw: "json", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got, err := ParseFormat(tt.raw, FormatExcel)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestFilenames(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "transactions_u1_20240305_140709.csv", TransactionsFilename("u1", FormatCSV, generatedAt))
	assert.Equal(t, "admin_transactions_20240305_140709.xlsx", AdminTransactionsFilename(FormatExcel, generatedAt))
	assert.Equal(t, "system_report_financial_20240305_140709.pdf", SystemReportFilename("financial", FormatPDF, generatedAt))
}

func TestMoney(t *testing.T) {
	t.Parallel()

	tests := map[float64]string{
		0:          "0.00",
		5:          "5.00",
		999.999:    "1,000.00",
		1234.5:     "1,234.50",
		1234567.89: "1,234,567.89",
		-42.1:      "-42.10",
	}
	for in, want := range tests {
		assert.Equal(t, want, Money(in), "Money(%v)", in)
	}
}

func TestTransactionsDocument(t *testing.T) {
	t.Parallel()

	doc := TransactionsDocument("Transaction Report", sampleTransactions(), false, generatedAt)
	require.Len(t, doc.Tables, 1)
	assert.False(t, doc.Landscape)
	assert.Equal(t, []string{"Date", "Category", "Type", "Amount", "Note"}, doc.Tables[0].Headers)
	assert.Equal(t, []any{"2024-03-01", "Salary", "Income", 2500.0, ""}, doc.Tables[0].Rows[0])
	assert.Equal(t, "2 transactions | Income: 2,500.00 | Expense: 12.30 | Balance: 2,487.70", doc.Summary[0])

	admin := TransactionsDocument("All Transactions", sampleTransactions(), true, generatedAt)
	assert.True(t, admin.Landscape)
	assert.Equal(t, []any{"2024-03-01", "alice", "alice@example.com", "Salary", "Income", 2500.0, ""}, admin.Tables[0].Rows[0])
	assert.Equal(t, "", admin.Tables[0].Rows[1][1])
}

func TestWriteCSV(t *testing.T) {
	t.Parallel()

	t.Run("single table", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, WriteCSV(&buf, TransactionsDocument("Report", sampleTransactions(), false, generatedAt)))

		lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
		require.Len(t, lines, 3)
		assert.Equal(t, "Date,Category,Type,Amount,Note", lines[0])
		assert.Equal(t, "2024-03-01,Salary,Income,2500.00,", lines[1])
		assert.Equal(t, `2024-03-02,Food,Expense,12.30,"lunch, ""team"""`, lines[2])
	})

	t.Run("sections", func(t *testing.T) {
		doc := SystemDocument(model.SystemReport{
			Type:   model.ReportFinancial,
			Period: "month",
			Stats:  model.SystemStats{UserCount: 2, TotalIncome: 10},
			Categories: []model.CategoryTotal{
				{Category: "Food", Total: 30, Count: 3},
				{Category: "Rent", Total: 90, Count: 1},
			},
		}, generatedAt)

		var buf bytes.Buffer
		require.NoError(t, WriteCSV(&buf, doc))
		out := buf.String()

		assert.True(t, strings.HasPrefix(out, "Admin System Report\nGenerated on,2024-03-05 14:07:09\n\nSystem Overview\n"))
		assert.Contains(t, out, "\n\nTop Categories by Expense\nCategory,Total Amount,Transaction Count,Percentage\n")
		assert.Contains(t, out, "Food,30.00,3,25.0%")
		assert.Contains(t, out, "Rent,90.00,1,75.0%")
	})
}

func TestWriteExcel(t *testing.T) {
	t.Parallel()

	doc := SystemDocument(model.SystemReport{
		Type:         model.ReportTransactionDetails,
		Period:       "year",
		Transactions: sampleTransactions(),
	}, generatedAt)

	var buf bytes.Buffer
	require.NoError(t, WriteExcel(&buf, doc))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{"System Overview", "Transaction Details"}, f.GetSheetList())

	header, err := f.GetCellValue("Transaction Details", "B1")
	require.NoError(t, err)
	assert.Equal(t, "Username", header)

	amount, err := f.GetCellValue("Transaction Details", "F2")
	require.NoError(t, err)
	assert.Equal(t, "2500", amount)
}

func TestSheetName(t *testing.T) {
	t.Parallel()

	used := map[string]int{}
	assert.Equal(t, "Q1 2024 (draft)", sheetName("Q1/2024 [draft]", used))
	assert.Equal(t, "Q1 2024 (draft) 2", sheetName("Q1/2024 [draft]", used))
	assert.Equal(t, "Sheet", sheetName("  ", used))
	assert.Len(t, sheetName(strings.Repeat("x", 40), used), maxSheetName)
}

func TestWritePDF(t *testing.T) {
	t.Parallel()

	for name, doc := range map[string]Document{
		"transactions": TransactionsDocument("Transaction Report", sampleTransactions(), true, generatedAt),
		"empty":        TransactionsDocument("Transaction Report", nil, false, generatedAt),
	} {
		t.Run(name, func(t *testing.T) {
			var buf bytes.Buffer
			require.NoError(t, WritePDF(&buf, doc))
			assert.True(t, bytes.HasPrefix(buf.Bytes(), []byte("%PDF")))
		})
	}
}

func TestRender(t *testing.T) {
	t.Parallel()

	file, err := Render(TransactionsDocument("Report", sampleTransactions(), false, generatedAt), FormatExcel, "out.xlsx")
	require.NoError(t, err)
	assert.Equal(t, "out.xlsx", file.Name)
	assert.Equal(t, FormatExcel.ContentType(), file.ContentType)
	assert.True(t, bytes.HasPrefix(file.Body, []byte("PK")))

	_, err = Render(Document{}, Format("docx"), "out.docx")
	require.Error(t, err)
}
