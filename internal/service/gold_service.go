package service

import (
	"context"
	"fmt"

	"github.com/ndewijer/Finance-Ledger-Backend/internal/apperrors"
	"github.com/ndewijer/Finance-Ledger-Backend/internal/model"
	"github.com/ndewijer/Finance-Ledger-Backend/internal/repository"
)

// GoldService handles gold purchases and the recorded gold price.
type GoldService struct {
	repo *repository.GoldRepository
}

// NewGoldService creates a new GoldService.
func NewGoldService(repo *repository.GoldRepository) *GoldService {
	return &GoldService{repo: repo}
}

func (s *GoldService) GetEntries(ctx context.Context) ([]model.GoldEntry, error) {
	return s.repo.GetEntries(ctx)
}

// SaveEntry creates the entry, or updates it when g.ID names an existing one.
func (s *GoldService) SaveEntry(ctx context.Context, g model.GoldEntry) (model.GoldEntry, bool, error) {
	if !g.Grams.IsPositive() {
		return model.GoldEntry{}, false, fmt.Errorf("%w: grams must be positive", apperrors.ErrMissingRequiredField)
	}
	if g.Price.IsNegative() {
		return model.GoldEntry{}, false, fmt.Errorf("%w: price must not be negative", apperrors.ErrMissingRequiredField)
	}
	created, err := s.repo.SaveEntry(ctx, &g)
	if err != nil {
		return model.GoldEntry{}, false, err
	}
	return g, created, nil
}

func (s *GoldService) DeleteEntry(ctx context.Context, id string) error {
	return s.repo.DeleteEntry(ctx, id)
}

func (s *GoldService) GetLatestPrice(ctx context.Context) (model.GoldPrice, error) {
	return s.repo.GetLatestPrice(ctx)
}

func (s *GoldService) AddPrice(ctx context.Context, p model.GoldPrice) (model.GoldPrice, error) {
	if !p.Price.IsPositive() {
		return model.GoldPrice{}, fmt.Errorf("%w: price must be positive", apperrors.ErrMissingRequiredField)
	}
	if err := s.repo.InsertPrice(ctx, &p); err != nil {
		return model.GoldPrice{}, err
	}
	return p, nil
}
