package service

import (
	"context"
	"math"
	"strings"
	"time"

	"money-manager/internal/model"
	"money-manager/internal/util"
	"money-manager/pkg/apierror"
)

const (
	RangeMonth = "month"
	RangeYear  = "year"
	RangeAll   = "all"

	recentTransactionLimit = 5
	trendWindow            = 365 * 24 * time.Hour
)

// InsightsService computes the per-user dashboard, statistics and chart data.
type InsightsService struct {
	transactions TransactionStore
	now          func() time.Time
}

func NewInsightsService(transactions TransactionStore) *InsightsService {
	return &InsightsService{transactions: transactions, now: time.Now}
}

// ParseDateRange parses optional from/to bounds. A date-only upper bound
// covers the whole day.
func ParseDateRange(fromRaw string, toRaw string) (*time.Time, *time.Time, error) {
	from, err := util.ParseOptionalDate(fromRaw)
	if err != nil {
		return nil, nil, apierror.BadRequest("invalid date_from format", fromRaw)
	}

	to, err := util.ParseOptionalDate(toRaw)
	if err != nil {
		return nil, nil, apierror.BadRequest("invalid date_to format", toRaw)
	}
	if to != nil {
		end := util.EndOfDay(toRaw, *to)
		to = &end
	}

	if from != nil && to != nil && to.Before(*from) {
		return nil, nil, apierror.BadRequest("date_to must not be before date_from", "")
	}
	return from, to, nil
}

// periodBounds returns the calendar month or year containing now.
func periodBounds(rangeName string, now time.Time) (time.Time, time.Time) {
	now = now.UTC()
	if rangeName == RangeYear {
		start := time.Date(now.Year(), time.January, 1, 0, 0, 0, 0, time.UTC)
		return start, start.AddDate(1, 0, 0).Add(-time.Nanosecond)
	}
	start := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	return start, start.AddDate(0, 1, 0).Add(-time.Nanosecond)
}

func daysBetween(start time.Time, end time.Time) int {
	return int(end.Sub(start).Hours()/24) + 1
}

func (s *InsightsService) Dashboard(ctx context.Context, userID string, rangeName string) (model.Dashboard, error) {
	rangeName = strings.ToLower(strings.TrimSpace(rangeName))
	if rangeName == "" {
		rangeName = RangeMonth
	}
	if rangeName != RangeMonth && rangeName != RangeYear && rangeName != RangeAll {
		return model.Dashboard{}, apierror.BadRequest("range must be one of month, year, all", rangeName)
	}

	now := s.now().UTC()
	filter := model.TransactionFilter{UserID: userID}

	var days int
	if rangeName != RangeAll {
		start, end := periodBounds(rangeName, now)
		filter.DateFrom, filter.DateTo = &start, &end
		days = daysBetween(start, end)
	}

	totals, err := s.transactions.Totals(ctx, filter)
	if err != nil {
		return model.Dashboard{}, err
	}

	expenses := filter
	expenses.Type = model.TypeExpense
	breakdown, err := s.transactions.CategoryBreakdown(ctx, expenses, 0)
	if err != nil {
		return model.Dashboard{}, err
	}

	if rangeName == RangeAll {
		first, err := s.transactions.FirstDate(ctx, userID)
		if err != nil {
			return model.Dashboard{}, err
		}
		if first != nil {
			days = daysBetween(first.UTC(), now)
		}
	}

	recentFilter := filter
	recentFilter.SortBy, recentFilter.SortOrder = "date", "desc"
	recent, err := s.transactions.ListAll(ctx, recentFilter, recentTransactionLimit)
	if err != nil {
		return model.Dashboard{}, err
	}

	monthly := []model.MonthlyTotal{}
	if rangeName == RangeYear {
		monthly, err = s.transactions.MonthlyTotals(ctx, filter)
		if err != nil {
			return model.Dashboard{}, err
		}
	}

	return model.Dashboard{
		TotalIncome:       totals.Income,
		TotalExpense:      totals.Expense,
		Balance:           totals.Balance(),
		CategoryBreakdown: breakdown,
		DailyAverage:      average(totals.Expense, days),
		Recent:            recent,
		MonthlyComparison: monthly,
	}, nil
}

func (s *InsightsService) Statistics(ctx context.Context, userID string, fromRaw string, toRaw string) (model.Statistics, error) {
	from, to, err := ParseDateRange(fromRaw, toRaw)
	if err != nil {
		return model.Statistics{}, err
	}
	filter := model.TransactionFilter{UserID: userID, DateFrom: from, DateTo: to}

	totals, err := s.transactions.Totals(ctx, filter)
	if err != nil {
		return model.Statistics{}, err
	}

	expenses := filter
	expenses.Type = model.TypeExpense
	expenseByCategory, err := s.transactions.CategoryBreakdown(ctx, expenses, 0)
	if err != nil {
		return model.Statistics{}, err
	}

	income := filter
	income.Type = model.TypeIncome
	incomeByCategory, err := s.transactions.CategoryBreakdown(ctx, income, 0)
	if err != nil {
		return model.Statistics{}, err
	}

	trends, err := s.transactions.MonthlyTotals(ctx, filter)
	if err != nil {
		return model.Statistics{}, err
	}

	return model.Statistics{
		Summary: model.StatisticsSummary{
			TotalIncome:      totals.Income,
			TotalExpense:     totals.Expense,
			Balance:          totals.Balance(),
			TransactionCount: totals.Count(),
			AverageIncome:    totals.Income / math.Max(1, float64(totals.IncomeCount)),
			AverageExpense:   totals.Expense / math.Max(1, float64(totals.ExpenseCount)),
		},
		ExpenseByCategory: expenseByCategory,
		IncomeByCategory:  incomeByCategory,
		MonthlyTrends:     trends,
	}, nil
}

// CategoryChart defaults to expenses.
func (s *InsightsService) CategoryChart(ctx context.Context, userID string, entryType string, fromRaw string, toRaw string) (model.CategoryChart, error) {
	entryType = strings.ToLower(strings.TrimSpace(entryType))
	if entryType == "" {
		entryType = model.TypeExpense
	}
	if !model.ValidEntryType(entryType) {
		return model.CategoryChart{}, apierror.BadRequest("type must be either income or expense", entryType)
	}

	from, to, err := ParseDateRange(fromRaw, toRaw)
	if err != nil {
		return model.CategoryChart{}, err
	}

	breakdown, err := s.transactions.CategoryBreakdown(ctx, model.TransactionFilter{
		UserID: userID, Type: entryType, DateFrom: from, DateTo: to,
	}, 0)
	if err != nil {
		return model.CategoryChart{}, err
	}

	points := make([]model.ChartPoint, 0, len(breakdown))
	for _, c := range breakdown {
		points = append(points, model.ChartPoint{Label: c.Category, Amount: c.Total})
	}
	return model.CategoryChart{Type: entryType, Data: points}, nil
}

// MonthlyTrend covers the trailing 365 days.
func (s *InsightsService) MonthlyTrend(ctx context.Context, userID string) (model.TrendChart, error) {
	end := s.now().UTC()
	start := end.Add(-trendWindow)

	data, err := s.transactions.MonthlyTotals(ctx, model.TransactionFilter{UserID: userID, DateFrom: &start, DateTo: &end})
	if err != nil {
		return model.TrendChart{}, err
	}
	return model.TrendChart{Data: data}, nil
}

func average(total float64, days int) float64 {
	if days <= 0 {
		return 0
	}
	return total / float64(days)
}
