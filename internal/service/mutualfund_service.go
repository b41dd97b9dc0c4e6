package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/ndewijer/Finance-Ledger-Backend/internal/apperrors"
	"github.com/ndewijer/Finance-Ledger-Backend/internal/ledger"
	"github.com/ndewijer/Finance-Ledger-Backend/internal/mfapi"
	"github.com/ndewijer/Finance-Ledger-Backend/internal/model"
	"github.com/ndewijer/Finance-Ledger-Backend/internal/repository"
)

// unitsPlaces is the precision of derived mutual fund units.
const unitsPlaces = 4

// MutualFundService handles fund metadata, purchase/redemption entries and lot matching.
type MutualFundService struct {
	repo        *repository.MutualFundRepository
	users       *repository.UserRepository
	coordinator *ledger.Coordinator
	navClient   mfapi.Client
	logger      logrus.FieldLogger
}

// NewMutualFundService creates a new MutualFundService.
func NewMutualFundService(
	repo *repository.MutualFundRepository,
	users *repository.UserRepository,
	coordinator *ledger.Coordinator,
	navClient mfapi.Client,
	logger logrus.FieldLogger,
) *MutualFundService {
	return &MutualFundService{
		repo:        repo,
		users:       users,
		coordinator: coordinator,
		navClient:   navClient,
		logger:      logger,
	}
}

// MatchResult summarizes one reconcile or rematch pass for a user and fund.
type MatchResult struct {
	UserID string `json:"userId"`
	FundID string `json:"fundId"`
	Events int    `json:"events"`
	Error  string `json:"error,omitempty"`
}

func (s *MutualFundService) GetFunds(ctx context.Context) ([]model.FundMetadata, error) {
	return s.repo.GetFunds(ctx)
}

func (s *MutualFundService) CreateFund(ctx context.Context, f model.FundMetadata) (model.FundMetadata, error) {
	f.Name = strings.TrimSpace(f.Name)
	f.SchemeCode = strings.TrimSpace(f.SchemeCode)
	if err := s.repo.InsertFund(ctx, &f); err != nil {
		return model.FundMetadata{}, err
	}
	return f, nil
}

func (s *MutualFundService) UpdateFund(ctx context.Context, f model.FundMetadata) (model.FundMetadata, error) {
	if err := s.repo.UpdateFund(ctx, f); err != nil {
		return model.FundMetadata{}, err
	}
	return s.repo.GetFund(ctx, f.ID)
}

func (s *MutualFundService) DeleteFund(ctx context.Context, id string) error {
	return s.repo.DeleteFund(ctx, id)
}

// GetEntriesByUser lists all purchases and redemptions of a user.
func (s *MutualFundService) GetEntriesByUser(ctx context.Context, userID string) ([]model.FlowEvent, error) {
	if _, err := s.users.GetUser(ctx, userID); err != nil {
		return nil, err
	}
	return s.repo.GetEntriesByUser(ctx, userID)
}

// deriveUnits fills Quantity from Amount and UnitPrice when it is missing.
func deriveUnits(e *model.FlowEvent) {
	if e.Quantity.Valid || !e.UnitPrice.Valid || !e.UnitPrice.Decimal.IsPositive() {
		return
	}
	e.Quantity = decimal.NewNullDecimal(e.Amount.DivRound(e.UnitPrice.Decimal, unitsPlaces))
}

// CreateEntry records a purchase or redemption. Units are derived from amount and NAV when
// not given. Matching is not run; use Reconcile.
func (s *MutualFundService) CreateEntry(ctx context.Context, e model.FlowEvent) (model.FlowEvent, error) {
	fund, err := s.repo.GetFund(ctx, e.InstrumentID)
	if err != nil {
		return model.FlowEvent{}, err
	}
	if _, err := s.users.GetUser(ctx, e.AccountID); err != nil {
		return model.FlowEvent{}, err
	}

	e.Date = e.Date.UTC()
	deriveUnits(&e)
	if err := s.repo.InsertEntry(ctx, &e); err != nil {
		return model.FlowEvent{}, err
	}
	e.FundName = fund.Name
	return e, nil
}

// UpdateEntry changes an entry. When the fund already has matched entries for the user the
// matching is redone from scratch, since the change may alter which lots were consumed.
func (s *MutualFundService) UpdateEntry(ctx context.Context, e model.FlowEvent) (model.FlowEvent, error) {
	current, err := s.repo.GetEntry(ctx, e.ID)
	if err != nil {
		return model.FlowEvent{}, err
	}
	if e.InstrumentID == "" {
		e.InstrumentID = current.InstrumentID
	}
	if _, err := s.repo.GetFund(ctx, e.InstrumentID); err != nil {
		return model.FlowEvent{}, err
	}

	e.AccountID = current.AccountID
	e.Version = current.Version
	e.Date = e.Date.UTC()
	deriveUnits(&e)

	if err := s.repo.UpdateEntry(ctx, &e); err != nil {
		return model.FlowEvent{}, err
	}

	pairs := [][2]string{{current.AccountID, current.InstrumentID}}
	if e.InstrumentID != current.InstrumentID {
		pairs = append(pairs, [2]string{current.AccountID, e.InstrumentID})
	}
	if err := s.rematchIfMatched(ctx, pairs); err != nil {
		return model.FlowEvent{}, err
	}

	return s.repo.GetEntry(ctx, e.ID)
}

// DeleteEntry removes an entry and redoes the matching of its fund when needed.
func (s *MutualFundService) DeleteEntry(ctx context.Context, id string) error {
	current, err := s.repo.GetEntry(ctx, id)
	if err != nil {
		return err
	}
	if err := s.repo.DeleteEntry(ctx, id); err != nil {
		return err
	}
	return s.rematchIfMatched(ctx, [][2]string{{current.AccountID, current.InstrumentID}})
}

func (s *MutualFundService) rematchIfMatched(ctx context.Context, pairs [][2]string) error {
	for _, p := range pairs {
		events, err := s.repo.GetFlowEvents(ctx, p[0], p[1])
		if err != nil {
			return err
		}
		if !anyMatched(events) {
			continue
		}
		if _, err := s.coordinator.Rematch(ctx, p[0], p[1]); err != nil {
			return fmt.Errorf("entry saved but rematch failed: %w", err)
		}
	}
	return nil
}

func anyMatched(events []model.FlowEvent) bool {
	for _, e := range events {
		if e.MatchedQuantity.IsPositive() {
			return true
		}
	}
	return false
}

// LookupNAV returns the latest NAV of a scheme. ok is false when the service has no data or
// cannot be reached; the caller shows blanks in that case.
func (s *MutualFundService) LookupNAV(ctx context.Context, schemeCode string) (mfapi.Quote, bool) {
	quote, err := s.navClient.LatestNAV(ctx, schemeCode)
	if err != nil {
		s.logger.WithError(err).WithField("schemeCode", schemeCode).Warn("nav lookup failed")
		return mfapi.Quote{SchemeCode: schemeCode}, false
	}
	return quote, true
}

// BackfillUnits completes entries without units. Entries without a NAV take the stored NAV on
// or before their date, when one is known. Returns the number of entries updated.
func (s *MutualFundService) BackfillUnits(ctx context.Context) (int, error) {
	updated := 0

	missingNAV, err := s.repo.GetEntriesMissingNAV(ctx)
	if err != nil {
		return 0, err
	}
	for i := range missingNAV {
		e := &missingNAV[i]
		nav, err := s.repo.GetNAVOnOrBefore(ctx, e.InstrumentID, e.Date)
		if errors.Is(err, apperrors.ErrNAVNotFound) {
			continue
		}
		if err != nil {
			return updated, err
		}
		e.UnitPrice = decimal.NewNullDecimal(nav.Price)
		e.Quantity = decimal.NullDecimal{}
		deriveUnits(e)
		if err := s.repo.SetUnits(ctx, e); err != nil {
			return updated, err
		}
		updated++
	}

	missingUnits, err := s.repo.GetEntriesMissingUnits(ctx)
	if err != nil {
		return updated, err
	}
	for i := range missingUnits {
		e := &missingUnits[i]
		deriveUnits(e)
		if !e.Quantity.Valid {
			continue
		}
		if err := s.repo.SetUnits(ctx, e); err != nil {
			return updated, err
		}
		updated++
	}

	s.logger.WithField("entries", updated).Info("backfilled mutual fund units")
	return updated, nil
}

// Reconcile runs FIFO matching for one user and fund, or for every pair when both are empty.
func (s *MutualFundService) Reconcile(ctx context.Context, userID, fundID string) ([]MatchResult, error) {
	return s.forPairs(ctx, userID, fundID, s.coordinator.Reconcile)
}

// Rematch clears and redoes FIFO matching for one user and fund, or for every pair.
func (s *MutualFundService) Rematch(ctx context.Context, userID, fundID string) ([]MatchResult, error) {
	return s.forPairs(ctx, userID, fundID, s.coordinator.Rematch)
}

// ForceNull clears NAV, units and matching results of the selected entries so they can be
// backfilled again. Empty userID or fundID select all.
func (s *MutualFundService) ForceNull(ctx context.Context, userID, fundID string) (int64, error) {
	n, err := s.repo.ForceNull(ctx, userID, fundID)
	if err != nil {
		return 0, err
	}
	s.logger.WithFields(logrus.Fields{"userId": userID, "fundId": fundID, "entries": n}).Info("cleared mutual fund units")
	return n, nil
}

type matchFunc func(ctx context.Context, accountID, instrumentID string) ([]model.FlowEvent, error)

// forPairs runs fn on one pair, or on every pair when userID and fundID are both empty.
// In the all-pairs case a failing pair is reported in its result and the others still run.
func (s *MutualFundService) forPairs(ctx context.Context, userID, fundID string, fn matchFunc) ([]MatchResult, error) {
	if userID != "" || fundID != "" {
		if userID == "" || fundID == "" {
			return nil, fmt.Errorf("%w: userId and fundId go together", apperrors.ErrMissingRequiredField)
		}
		events, err := fn(ctx, userID, fundID)
		if err != nil {
			return nil, err
		}
		return []MatchResult{{UserID: userID, FundID: fundID, Events: len(events)}}, nil
	}

	pairs, err := s.repo.GetUserFundPairs(ctx)
	if err != nil {
		return nil, err
	}
	results := make([]MatchResult, 0, len(pairs))
	for _, p := range pairs {
		r := MatchResult{UserID: p[0], FundID: p[1]}
		events, err := fn(ctx, p[0], p[1])
		if err != nil {
			r.Error = err.Error()
			s.logger.WithError(err).WithFields(logrus.Fields{"userId": p[0], "fundId": p[1]}).Warn("lot matching failed")
		}
		r.Events = len(events)
		results = append(results, r)
	}
	return results, nil
}
