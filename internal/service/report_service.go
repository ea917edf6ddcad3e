package service

import (
	"context"
	"strings"
	"time"

	"money-manager/internal/model"
	"money-manager/internal/report"
	"money-manager/pkg/apierror"
)

const (
	maxUserExportRows     = 10000
	maxAdminExportRows    = 5000
	maxReportDetailRows   = 1000
	maxReportActivityRows = 50
	maxReportCategories   = 20
)

type ReportService struct {
	users        UserStore
	transactions TransactionStore
	now          func() time.Time
}

func NewReportService(users UserStore, transactions TransactionStore) *ReportService {
	return &ReportService{users: users, transactions: transactions, now: time.Now}
}

func parseFormat(raw string, def report.Format) (report.Format, error) {
	format, err := report.ParseFormat(raw, def)
	if err != nil {
		return "", apierror.BadRequest("unsupported export format, use csv, excel or pdf", raw)
	}
	return format, nil
}

// ExportTransactions renders the caller's transactions matching filter.
func (s *ReportService) ExportTransactions(ctx context.Context, userID string, filter model.TransactionFilter, rawFormat string) (report.File, error) {
	format, err := parseFormat(rawFormat, report.FormatCSV)
	if err != nil {
		return report.File{}, err
	}
	if err := validateFilter(filter); err != nil {
		return report.File{}, err
	}

	filter.UserID = userID
	filter.SortBy, filter.SortOrder = "date", "desc"
	items, err := s.transactions.ListAll(ctx, filter, maxUserExportRows)
	if err != nil {
		return report.File{}, err
	}

	now := s.now()
	doc := report.TransactionsDocument("Transaction Report", items, false, now)
	return report.Render(doc, format, report.TransactionsFilename(userID, format, now))
}

// GenerateUserReport is ExportTransactions driven by a request body; an
// empty result is a 404.
func (s *ReportService) GenerateUserReport(ctx context.Context, userID string, req model.UserReportRequest) (report.File, error) {
	format, err := parseFormat(req.Format, report.FormatExcel)
	if err != nil {
		return report.File{}, err
	}

	from, to, err := ParseDateRange(req.DateFrom, req.DateTo)
	if err != nil {
		return report.File{}, err
	}
	entryType := strings.ToLower(strings.TrimSpace(req.Type))
	if entryType != "" && !model.ValidEntryType(entryType) {
		return report.File{}, apierror.BadRequest("type must be either income or expense", req.Type)
	}

	items, err := s.transactions.ListAll(ctx, model.TransactionFilter{
		UserID:     userID,
		Type:       entryType,
		CategoryID: strings.TrimSpace(req.CategoryID),
		DateFrom:   from,
		DateTo:     to,
		SortBy:     "date",
		SortOrder:  "desc",
	}, maxUserExportRows)
	if err != nil {
		return report.File{}, err
	}
	if len(items) == 0 {
		return report.File{}, apierror.NotFound("no transactions found for the specified criteria", "")
	}

	now := s.now()
	doc := report.TransactionsDocument("Transactions Report", items, false, now)
	return report.Render(doc, format, report.TransactionsFilename(userID, format, now))
}

// ExportAllTransactions is the admin export across users.
func (s *ReportService) ExportAllTransactions(ctx context.Context, filter model.TransactionFilter, rawFormat string) (report.File, error) {
	format, err := parseFormat(rawFormat, report.FormatCSV)
	if err != nil {
		return report.File{}, err
	}
	if err := validateFilter(filter); err != nil {
		return report.File{}, err
	}

	filter.SortBy, filter.SortOrder = "date", "desc"
	items, err := s.transactions.ListAll(ctx, filter, maxAdminExportRows)
	if err != nil {
		return report.File{}, err
	}

	now := s.now()
	doc := report.TransactionsDocument("All Transactions", items, true, now)
	return report.Render(doc, format, report.AdminTransactionsFilename(format, now))
}

// GenerateSystemReport builds one of the overview, financial, user-activity
// or transaction-details reports.
func (s *ReportService) GenerateSystemReport(ctx context.Context, req model.SystemReportRequest) (report.File, error) {
	format, err := parseFormat(req.Format, report.FormatExcel)
	if err != nil {
		return report.File{}, err
	}

	reportType := strings.ToLower(strings.TrimSpace(req.Type))
	if reportType == "" {
		reportType = model.ReportOverview
	}
	switch reportType {
	case model.ReportOverview, model.ReportFinancial, model.ReportUserActivity, model.ReportTransactionDetails:
	default:
		return report.File{}, apierror.BadRequest("invalid report type", reportType)
	}

	period := strings.ToLower(strings.TrimSpace(req.Period))
	if period == "" {
		period = "month"
	}

	from, to, err := ParseDateRange(req.StartDate, req.EndDate)
	if err != nil {
		return report.File{}, err
	}

	data, err := s.systemReport(ctx, reportType, period, model.TransactionFilter{DateFrom: from, DateTo: to})
	if err != nil {
		return report.File{}, err
	}

	now := s.now()
	return report.Render(report.SystemDocument(data, now), format, report.SystemReportFilename(reportType, format, now))
}

func (s *ReportService) systemReport(ctx context.Context, reportType string, period string, filter model.TransactionFilter) (model.SystemReport, error) {
	out := model.SystemReport{Type: reportType, Period: period}

	var err error
	if out.Stats.UserCount, err = s.users.Count(ctx); err != nil {
		return out, err
	}
	if out.Stats.ActiveUserCount, err = s.users.CountActive(ctx); err != nil {
		return out, err
	}

	totals, err := s.transactions.Totals(ctx, filter)
	if err != nil {
		return out, err
	}
	out.Stats.TotalIncome = totals.Income
	out.Stats.TotalExpense = totals.Expense
	out.Stats.Balance = totals.Balance()
	out.Stats.TransactionCount = totals.Count()

	switch reportType {
	case model.ReportTransactionDetails:
		filter.SortBy, filter.SortOrder = "date", "desc"
		out.Transactions, err = s.transactions.ListAll(ctx, filter, maxReportDetailRows)
	case model.ReportUserActivity:
		out.Activities, err = s.transactions.UserActivity(ctx, filter, maxReportActivityRows)
	default:
		expenses := filter
		expenses.Type = model.TypeExpense
		if out.Categories, err = s.transactions.CategoryBreakdown(ctx, expenses, maxReportCategories); err != nil {
			return out, err
		}
		out.Monthly, err = s.transactions.MonthlyTotals(ctx, filter)
	}
	return out, err
}
