package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"

	"money-manager/internal/model"
	"money-manager/internal/util"
	"money-manager/pkg/apierror"
)

const (
	maxNoteLength     = 500
	maxSuggestions    = 20
	maxBulkDeleteSize = 500

	// amounts are stored as NUMERIC(14,2)
	minAmount = 0.01
	maxAmount = 999_999_999_999.99
)

var errTransactionNotFound = apierror.NotFound("transaction not found", "")

type TransactionService struct {
	transactions TransactionStore
	categories   CategoryStore
	now          func() time.Time
}

func NewTransactionService(transactions TransactionStore, categories CategoryStore) *TransactionService {
	return &TransactionService{transactions: transactions, categories: categories, now: time.Now}
}

func (s *TransactionService) Create(ctx context.Context, userID string, req model.CreateTransactionRequest) (model.Transaction, error) {
	amount, err := normalizeAmount(req.Amount)
	if err != nil {
		return model.Transaction{}, err
	}
	if !model.ValidEntryType(req.Type) {
		return model.Transaction{}, apierror.BadRequest("transaction type must be either income or expense", req.Type)
	}

	category, err := s.ownedCategory(ctx, userID, req.CategoryID)
	if err != nil {
		return model.Transaction{}, err
	}

	now := s.now().UTC()
	date := now
	if strings.TrimSpace(req.Date) != "" {
		date, err = util.ParseDate(req.Date)
		if err != nil {
			return model.Transaction{}, apierror.BadRequest("invalid date format", req.Date)
		}
	}

	t := model.Transaction{
		ID:           uuid.NewString(),
		UserID:       userID,
		Amount:       amount,
		Type:         req.Type,
		CategoryID:   category.ID,
		CategoryName: category.Name,
		Date:         date,
		Note:         util.CleanText(req.Note, maxNoteLength),
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.transactions.Create(ctx, t); err != nil {
		return model.Transaction{}, err
	}
	return t, nil
}

// normalizeAmount rounds to cents and keeps the result inside the column range.
func normalizeAmount(amount float64) (float64, error) {
	if math.IsNaN(amount) || math.IsInf(amount, 0) {
		return 0, apierror.BadRequest("amount must be a number", "")
	}
	rounded := math.Round(amount*100) / 100
	if rounded < minAmount {
		return 0, apierror.BadRequest("amount must be at least 0.01", "")
	}
	if rounded > maxAmount {
		return 0, apierror.BadRequest("amount must be at most 999999999999.99", "")
	}
	return rounded, nil
}

func (s *TransactionService) ownedCategory(ctx context.Context, userID string, categoryID string) (model.Category, error) {
	category, err := s.categories.FindByID(ctx, strings.TrimSpace(categoryID))
	if errors.Is(err, model.ErrCategoryNotFound) {
		return model.Category{}, errCategoryNotFound
	}
	if err != nil {
		return model.Category{}, err
	}
	if category.UserID != userID {
		return model.Category{}, errCategoryNotFound
	}
	return category, nil
}

func (s *TransactionService) List(ctx context.Context, filter model.TransactionFilter) ([]model.Transaction, model.Meta, error) {
	if err := validateFilter(filter); err != nil {
		return nil, model.Meta{}, err
	}
	return s.transactions.List(ctx, filter)
}

func validateFilter(filter model.TransactionFilter) error {
	if filter.Type != "" && !model.ValidEntryType(filter.Type) {
		return apierror.BadRequest("type must be either income or expense", filter.Type)
	}
	if filter.DateFrom != nil && filter.DateTo != nil && filter.DateTo.Before(*filter.DateFrom) {
		return apierror.BadRequest("date_to must not be before date_from", "")
	}
	if filter.AmountMin != nil && filter.AmountMax != nil && *filter.AmountMax < *filter.AmountMin {
		return apierror.BadRequest("amount_max must not be less than amount_min", "")
	}
	return nil
}

func (s *TransactionService) Get(ctx context.Context, userID string, id string) (model.Transaction, error) {
	t, err := s.transactions.FindByID(ctx, id, userID)
	if errors.Is(err, model.ErrTransactionNotFound) {
		return model.Transaction{}, errTransactionNotFound
	}
	return t, err
}

// Update applies the fields present in req.
func (s *TransactionService) Update(ctx context.Context, userID string, id string, req model.UpdateTransactionRequest) (model.Transaction, error) {
	t, err := s.Get(ctx, userID, id)
	if err != nil {
		return model.Transaction{}, err
	}

	if req.Amount != nil {
		amount, err := normalizeAmount(*req.Amount)
		if err != nil {
			return model.Transaction{}, err
		}
		t.Amount = amount
	}
	if req.Type != nil {
		if !model.ValidEntryType(*req.Type) {
			return model.Transaction{}, apierror.BadRequest("transaction type must be either income or expense", *req.Type)
		}
		t.Type = *req.Type
	}
	if req.CategoryID != nil {
		category, err := s.ownedCategory(ctx, userID, *req.CategoryID)
		if err != nil {
			return model.Transaction{}, err
		}
		t.CategoryID = category.ID
		t.CategoryName = category.Name
	}
	if req.Date != nil {
		date, err := util.ParseDate(*req.Date)
		if err != nil {
			return model.Transaction{}, apierror.BadRequest("invalid date format", *req.Date)
		}
		t.Date = date
	}
	if req.Note != nil {
		t.Note = util.CleanText(*req.Note, maxNoteLength)
	}

	t.UpdatedAt = s.now().UTC()
	if err := s.transactions.Update(ctx, t); err != nil {
		if errors.Is(err, model.ErrTransactionNotFound) {
			return model.Transaction{}, errTransactionNotFound
		}
		return model.Transaction{}, err
	}
	return t, nil
}

func (s *TransactionService) Delete(ctx context.Context, userID string, id string) error {
	err := s.transactions.Delete(ctx, id, userID)
	if errors.Is(err, model.ErrTransactionNotFound) {
		return errTransactionNotFound
	}
	return err
}

func (s *TransactionService) BulkDelete(ctx context.Context, userID string, ids []string) (model.BulkDeleteResult, error) {
	if len(ids) == 0 {
		return model.BulkDeleteResult{}, apierror.BadRequest("transaction IDs are required", "")
	}
	if len(ids) > maxBulkDeleteSize {
		return model.BulkDeleteResult{}, apierror.BadRequest("too many transaction IDs", fmt.Sprintf("at most %d per request", maxBulkDeleteSize))
	}

	deleted, err := s.transactions.DeleteMany(ctx, userID, ids)
	if err != nil {
		return model.BulkDeleteResult{}, err
	}

	return model.BulkDeleteResult{
		Message:      fmt.Sprintf("%d transactions deleted successfully", deleted),
		DeletedCount: deleted,
	}, nil
}

// Duplicate copies a transaction to the current time.
func (s *TransactionService) Duplicate(ctx context.Context, userID string, id string) (model.Transaction, error) {
	original, err := s.Get(ctx, userID, id)
	if err != nil {
		return model.Transaction{}, err
	}

	now := s.now().UTC()
	clone := original
	clone.ID = uuid.NewString()
	clone.Date = now
	clone.Note = util.CleanText("Copy of: "+original.Note, maxNoteLength)
	clone.CreatedAt = now
	clone.UpdatedAt = now
	clone.UserInfo = nil

	if err := s.transactions.Create(ctx, clone); err != nil {
		return model.Transaction{}, err
	}
	return clone, nil
}

func (s *TransactionService) Suggestions(ctx context.Context, userID string) (model.SearchSuggestions, error) {
	suggestions, err := s.transactions.Suggestions(ctx, userID, maxSuggestions)
	if err != nil {
		return model.SearchSuggestions{}, err
	}
	if suggestions == nil {
		suggestions = []string{}
	}
	return model.SearchSuggestions{Suggestions: suggestions}, nil
}
