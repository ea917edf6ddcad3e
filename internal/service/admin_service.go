package service

import (
	"context"
	"errors"

	"money-manager/internal/event"
	"money-manager/internal/model"
	"money-manager/pkg/apierror"
)

const highSpenderLimit = 5

var errUserNotFound = apierror.NotFound("user not found", "")

type AdminService struct {
	users        UserStore
	transactions TransactionStore
	bus          event.Bus
}

func NewAdminService(users UserStore, transactions TransactionStore, bus event.Bus) *AdminService {
	return &AdminService{users: users, transactions: transactions, bus: bus}
}

func (s *AdminService) ListUsers(ctx context.Context, query model.UserQuery) ([]model.User, model.Meta, error) {
	return s.users.List(ctx, query)
}

func (s *AdminService) GetUser(ctx context.Context, id string) (model.User, error) {
	user, err := s.users.FindByID(ctx, id)
	if errors.Is(err, model.ErrUserNotFound) {
		return model.User{}, errUserNotFound
	}
	return user, err
}

// ToggleStatus flips is_active. An admin cannot deactivate their own account.
func (s *AdminService) ToggleStatus(ctx context.Context, actor model.AuthClaims, id string) (model.StatusToggleResult, error) {
	user, err := s.GetUser(ctx, id)
	if err != nil {
		return model.StatusToggleResult{}, err
	}
	if user.ID == actor.UserID && user.Role == model.RoleAdmin {
		return model.StatusToggleResult{}, apierror.BadRequest("cannot deactivate your own admin account", "")
	}

	active := !user.IsActive
	if err := s.users.SetActive(ctx, user.ID, active); err != nil {
		if errors.Is(err, model.ErrUserNotFound) {
			return model.StatusToggleResult{}, errUserNotFound
		}
		return model.StatusToggleResult{}, err
	}

	s.bus.Publish(event.New(ctx, event.TypeAdminUserStatusChange, event.StatusSuccess, "user:"+user.ID,
		map[string]bool{"is_active": active}))

	status := "deactivated"
	if active {
		status = "activated"
	}
	return model.StatusToggleResult{Message: "User " + status + " successfully", IsActive: active}, nil
}

// DeleteUser removes a user with all of their data.
func (s *AdminService) DeleteUser(ctx context.Context, actor model.AuthClaims, id string) error {
	user, err := s.GetUser(ctx, id)
	if err != nil {
		return err
	}
	if user.ID == actor.UserID && user.Role == model.RoleAdmin {
		return apierror.BadRequest("cannot delete your own admin account", "")
	}

	if err := s.users.Delete(ctx, user.ID); err != nil {
		if errors.Is(err, model.ErrUserNotFound) {
			return errUserNotFound
		}
		return err
	}

	s.bus.Publish(event.New(ctx, event.TypeAdminUserDeleted, event.StatusSuccess, "user:"+user.ID,
		map[string]string{"username": user.Username, "email": user.Email}))
	return nil
}

// ListTransactions lists across all users unless filter.UserID is set.
func (s *AdminService) ListTransactions(ctx context.Context, filter model.TransactionFilter) ([]model.Transaction, model.Meta, error) {
	if err := validateFilter(filter); err != nil {
		return nil, model.Meta{}, err
	}
	return s.transactions.List(ctx, filter)
}

func (s *AdminService) Stats(ctx context.Context) (model.SystemStats, error) {
	return s.systemStats(ctx, model.TransactionFilter{})
}

func (s *AdminService) systemStats(ctx context.Context, filter model.TransactionFilter) (model.SystemStats, error) {
	userCount, err := s.users.Count(ctx)
	if err != nil {
		return model.SystemStats{}, err
	}
	activeCount, err := s.users.CountActive(ctx)
	if err != nil {
		return model.SystemStats{}, err
	}

	totals, err := s.transactions.Totals(ctx, filter)
	if err != nil {
		return model.SystemStats{}, err
	}

	spenders := filter
	spenders.Type = model.TypeExpense
	highSpenders, err := s.transactions.UserActivity(ctx, spenders, highSpenderLimit)
	if err != nil {
		return model.SystemStats{}, err
	}

	return model.SystemStats{
		UserCount:        userCount,
		ActiveUserCount:  activeCount,
		TransactionCount: totals.Count(),
		TotalIncome:      totals.Income,
		TotalExpense:     totals.Expense,
		Balance:          totals.Balance(),
		HighSpenders:     highSpenders,
	}, nil
}
