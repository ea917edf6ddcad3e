package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"money-manager/internal/model"
	"money-manager/internal/util"
	"money-manager/pkg/apierror"
)

const maxCategoryName = 100

var errCategoryNotFound = apierror.NotFound("category not found", "")

type CategoryService struct {
	categories CategoryStore
	now        func() time.Time
}

func NewCategoryService(categories CategoryStore) *CategoryService {
	return &CategoryService{categories: categories, now: time.Now}
}

func (s *CategoryService) Create(ctx context.Context, userID string, req model.CreateCategoryRequest) (model.Category, error) {
	name := util.CleanText(req.Name, maxCategoryName)
	if name == "" {
		return model.Category{}, apierror.BadRequest("missing required field: name", "")
	}
	if !model.ValidEntryType(req.Type) {
		return model.Category{}, apierror.BadRequest("category type must be either income or expense", req.Type)
	}

	category := model.Category{
		ID:        uuid.NewString(),
		UserID:    userID,
		Name:      name,
		Type:      req.Type,
		IsDefault: false,
		CreatedAt: s.now().UTC(),
	}

	if err := s.categories.Create(ctx, category); err != nil {
		if errors.Is(err, model.ErrConflict) {
			return model.Category{}, apierror.Conflict("category with this name already exists", name)
		}
		return model.Category{}, err
	}
	return category, nil
}

func (s *CategoryService) List(ctx context.Context, userID string, entryType string) ([]model.Category, error) {
	entryType = strings.ToLower(strings.TrimSpace(entryType))
	if entryType != "" && !model.ValidEntryType(entryType) {
		return nil, apierror.BadRequest("type must be either income or expense", entryType)
	}
	return s.categories.List(ctx, userID, entryType)
}

// Get hides categories of other users behind a 404.
func (s *CategoryService) Get(ctx context.Context, userID string, id string) (model.Category, error) {
	category, err := s.categories.FindByID(ctx, id)
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

// Update renames or retypes a custom category; a rename is propagated to
// the owner's transactions.
func (s *CategoryService) Update(ctx context.Context, userID string, id string, req model.UpdateCategoryRequest) (model.Category, error) {
	category, err := s.Get(ctx, userID, id)
	if err != nil {
		return model.Category{}, err
	}
	if category.IsDefault {
		return model.Category{}, apierror.Forbidden("cannot modify default categories")
	}

	renamed := false
	if req.Name != nil {
		name := util.CleanText(*req.Name, maxCategoryName)
		if name == "" {
			return model.Category{}, apierror.BadRequest("category name cannot be empty", "")
		}
		renamed = name != category.Name
		category.Name = name
	}
	if req.Type != nil {
		if !model.ValidEntryType(*req.Type) {
			return model.Category{}, apierror.BadRequest("category type must be either income or expense", *req.Type)
		}
		category.Type = *req.Type
	}

	if err := s.categories.Update(ctx, category, renamed); err != nil {
		switch {
		case errors.Is(err, model.ErrConflict):
			return model.Category{}, apierror.Conflict("another category with this name already exists", category.Name)
		case errors.Is(err, model.ErrCategoryNotFound):
			return model.Category{}, errCategoryNotFound
		}
		return model.Category{}, err
	}
	return category, nil
}

func (s *CategoryService) Delete(ctx context.Context, userID string, id string) error {
	category, err := s.categories.FindByID(ctx, id)
	if errors.Is(err, model.ErrCategoryNotFound) {
		return errCategoryNotFound
	}
	if err != nil {
		return err
	}

	if category.IsDefault {
		return apierror.Forbidden("cannot delete default categories")
	}
	if category.UserID != userID {
		return apierror.Forbidden("access denied")
	}

	count, err := s.categories.CountTransactions(ctx, category.ID, userID)
	if err != nil {
		return err
	}
	if count > 0 {
		return apierror.BadRequest("category is used in transactions and cannot be deleted", "").
			WithData(map[string]int{"transactions_count": count})
	}

	if err := s.categories.Delete(ctx, category.ID, userID); err != nil {
		if errors.Is(err, model.ErrCategoryNotFound) {
			return errCategoryNotFound
		}
		return err
	}
	return nil
}
