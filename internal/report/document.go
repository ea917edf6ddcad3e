package report

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"money-manager/internal/model"
)

// Table is one section of a report. Cells hold strings, ints or float64
// amounts; spreadsheets keep numbers numeric.
type Table struct {
	Title   string
	Headers []string
	Widths  []float64
	Rows    [][]any
}

type Document struct {
	Title       string
	GeneratedAt time.Time
	Summary     []string
	Landscape   bool
	Tables      []Table
}

// TransactionsDocument lists transactions newest first as rendered by the
// store. withOwner adds username and email columns for admin exports.
func TransactionsDocument(title string, transactions []model.Transaction, withOwner bool, at time.Time) Document {
	table := Table{Title: "Transactions"}
	if withOwner {
		table.Headers = []string{"Date", "Username", "Email", "Category", "Type", "Amount", "Note"}
		table.Widths = []float64{22, 28, 48, 34, 18, 26, 70}
	} else {
		table.Headers = []string{"Date", "Category", "Type", "Amount", "Note"}
		table.Widths = []float64{24, 40, 20, 28, 78}
	}

	var income, expense float64
	table.Rows = make([][]any, 0, len(transactions))
	for _, t := range transactions {
		if t.Type == model.TypeIncome {
			income += t.Amount
		} else {
			expense += t.Amount
		}

		row := []any{t.Date.UTC().Format("2006-01-02")}
		if withOwner {
			username, email := "", ""
			if t.UserInfo != nil {
				username, email = t.UserInfo.Username, t.UserInfo.Email
			}
			row = append(row, username, email)
		}
		row = append(row, t.CategoryName, titleCase(t.Type), t.Amount, t.Note)
		table.Rows = append(table.Rows, row)
	}

	return Document{
		Title:       title,
		GeneratedAt: at,
		Summary: []string{fmt.Sprintf("%d transactions | Income: %s | Expense: %s | Balance: %s",
			len(transactions), Money(income), Money(expense), Money(income-expense))},
		Landscape: withOwner,
		Tables:    []Table{table},
	}
}

// SystemDocument lays out an admin report: an overview table followed by
// whichever sections the report type carries.
func SystemDocument(rep model.SystemReport, at time.Time) Document {
	doc := Document{
		Title:       "Admin System Report",
		GeneratedAt: at,
		Summary:     []string{"Report type: " + rep.Type, "Period: " + rep.Period},
	}

	stats := rep.Stats
	doc.Tables = append(doc.Tables, Table{
		Title:   "System Overview",
		Headers: []string{"Metric", "Value"},
		Widths:  []float64{60, 60},
		Rows: [][]any{
			{"Total Users", stats.UserCount},
			{"Active Users", stats.ActiveUserCount},
			{"Total Transactions", stats.TransactionCount},
			{"Total Income", stats.TotalIncome},
			{"Total Expense", stats.TotalExpense},
			{"Net Balance", stats.Balance},
		},
	})

	if len(rep.Categories) > 0 {
		var total float64
		for _, c := range rep.Categories {
			total += c.Total
		}
		rows := make([][]any, 0, len(rep.Categories))
		for _, c := range rep.Categories {
			rows = append(rows, []any{c.Category, c.Total, c.Count, percentage(c.Total, total)})
		}
		doc.Tables = append(doc.Tables, Table{
			Title:   "Top Categories by Expense",
			Headers: []string{"Category", "Total Amount", "Transaction Count", "Percentage"},
			Widths:  []float64{50, 35, 35, 30},
			Rows:    rows,
		})
	}

	if len(rep.Monthly) > 0 {
		rows := make([][]any, 0, len(rep.Monthly))
		for _, m := range rep.Monthly {
			rows = append(rows, []any{m.Month, m.Income, m.Expense, m.Balance})
		}
		doc.Tables = append(doc.Tables, Table{
			Title:   "Monthly Trends",
			Headers: []string{"Month", "Income", "Expense", "Balance"},
			Widths:  []float64{30, 35, 35, 35},
			Rows:    rows,
		})
	}

	if len(rep.Activities) > 0 {
		rows := make([][]any, 0, len(rep.Activities))
		for _, a := range rep.Activities {
			username, email := a.UserID, ""
			if a.UserInfo != nil {
				username, email = a.UserInfo.Username, a.UserInfo.Email
			}
			rows = append(rows, []any{username, email, a.TotalIncome, a.TotalExpense, a.NetBalance, a.TransactionCount})
		}
		doc.Tables = append(doc.Tables, Table{
			Title:   "User Activity",
			Headers: []string{"Username", "Email", "Total Income", "Total Expense", "Net Balance", "Transactions"},
			Widths:  []float64{30, 50, 28, 28, 28, 24},
			Rows:    rows,
		})
	}

	if len(rep.Transactions) > 0 {
		details := TransactionsDocument("", rep.Transactions, true, at).Tables[0]
		details.Title = "Transaction Details"
		doc.Tables = append(doc.Tables, details)
		doc.Landscape = true
	}

	return doc
}

func percentage(part float64, total float64) string {
	if total <= 0 {
		return "0.0%"
	}
	return strconv.FormatFloat(part/total*100, 'f', 1, 64) + "%"
}

// Money renders an amount with two decimals and thousands separators.
func Money(v float64) string {
	sign := ""
	if v < 0 {
		sign = "-"
		v = -v
	}

	whole, frac := math.Modf(math.Round(v*100) / 100)
	digits := strconv.FormatFloat(whole, 'f', 0, 64)

	var b strings.Builder
	for i, r := range digits {
		if i > 0 && (len(digits)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}
	return fmt.Sprintf("%s%s.%02d", sign, b.String(), int(math.Round(frac*100)))
}

func cellText(v any) string {
	switch value := v.(type) {
	case nil:
		return ""
	case string:
		return value
	case float64:
		return strconv.FormatFloat(value, 'f', 2, 64)
	case int:
		return strconv.Itoa(value)
	case int64:
		return strconv.FormatInt(value, 10)
	default:
		return fmt.Sprint(value)
	}
}

func titleCase(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
