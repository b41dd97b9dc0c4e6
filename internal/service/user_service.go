package service

import (
	"context"
	"strings"

	"github.com/ndewijer/Finance-Ledger-Backend/internal/apperrors"
	"github.com/ndewijer/Finance-Ledger-Backend/internal/model"
	"github.com/ndewijer/Finance-Ledger-Backend/internal/repository"
)

// UserService handles user-related business logic operations.
type UserService struct {
	repo *repository.UserRepository
}

// NewUserService creates a new UserService with the provided repository.
func NewUserService(repo *repository.UserRepository) *UserService {
	return &UserService{repo: repo}
}

func (s *UserService) GetUsers(ctx context.Context) ([]model.User, error) {
	return s.repo.GetUsers(ctx)
}

func (s *UserService) GetUser(ctx context.Context, id string) (model.User, error) {
	return s.repo.GetUser(ctx, id)
}

// CreateUser stores a new user with the given name.
func (s *UserService) CreateUser(ctx context.Context, name string) (model.User, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return model.User{}, apperrors.ErrMissingRequiredField
	}
	u := model.User{Name: name}
	if err := s.repo.InsertUser(ctx, &u); err != nil {
		return model.User{}, err
	}
	return u, nil
}

// DeleteUser removes a user together with their accounts and entries.
func (s *UserService) DeleteUser(ctx context.Context, id string) error {
	return s.repo.DeleteUser(ctx, id)
}
