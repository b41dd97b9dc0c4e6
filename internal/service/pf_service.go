package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/ndewijer/Finance-Ledger-Backend/internal/apperrors"
	"github.com/ndewijer/Finance-Ledger-Backend/internal/encryption"
	"github.com/ndewijer/Finance-Ledger-Backend/internal/ledger"
	"github.com/ndewijer/Finance-Ledger-Backend/internal/model"
	"github.com/ndewijer/Finance-Ledger-Backend/internal/repository"
)

// defaultPFTypes are the provident fund types known to the application.
var defaultPFTypes = []model.PFType{
	{Name: "PF", FiscalAligned: true},
	{Name: "PPF", FiscalAligned: true},
	{Name: "VPF", FiscalAligned: true},
}

// PFService handles provident fund types, interest periods, accounts and their ledgers.
// Every ledger mutation after creation goes through the coordinator.
type PFService struct {
	repo        *repository.PFRepository
	users       *repository.UserRepository
	coordinator *ledger.Coordinator
	cipher      *encryption.Cipher
	logger      logrus.FieldLogger
}

// NewPFService creates a new PFService.
func NewPFService(
	repo *repository.PFRepository,
	users *repository.UserRepository,
	coordinator *ledger.Coordinator,
	cipher *encryption.Cipher,
	logger logrus.FieldLogger,
) *PFService {
	return &PFService{
		repo:        repo,
		users:       users,
		coordinator: coordinator,
		cipher:      cipher,
		logger:      logger,
	}
}

func (s *PFService) GetPFTypes(ctx context.Context) ([]model.PFType, error) {
	return s.repo.GetPFTypes(ctx)
}

// SeedPFTypes inserts the default PF types that are missing and returns how many were added.
func (s *PFService) SeedPFTypes(ctx context.Context) (int, error) {
	added := 0
	for _, t := range defaultPFTypes {
		inserted, err := s.repo.InsertPFTypeIfMissing(ctx, t)
		if err != nil {
			return added, err
		}
		if inserted {
			added++
		}
	}
	return added, nil
}

// GetRatePeriods lists interest periods, optionally restricted to one PF type.
func (s *PFService) GetRatePeriods(ctx context.Context, pfTypeID string) ([]model.RatePeriod, error) {
	return s.repo.GetRatePeriods(ctx, pfTypeID)
}

func (s *PFService) GetRatePeriod(ctx context.Context, id string) (model.RatePeriod, error) {
	return s.repo.GetRatePeriod(ctx, id)
}

// CreateRatePeriod stores a new interest period after checking it against the existing ones.
func (s *PFService) CreateRatePeriod(ctx context.Context, p model.RatePeriod) (model.RatePeriod, error) {
	if _, err := s.repo.GetPFType(ctx, p.AccountType); err != nil {
		return model.RatePeriod{}, err
	}
	if err := s.checkRatePeriod(ctx, p); err != nil {
		return model.RatePeriod{}, err
	}
	if err := s.repo.InsertRatePeriod(ctx, &p); err != nil {
		return model.RatePeriod{}, err
	}
	return p, s.recomputeType(ctx, p.AccountType, p.StartDate)
}

// UpdateRatePeriod replaces an interest period and recomputes the ledgers of its PF type
// from the earlier of the old and new start dates.
func (s *PFService) UpdateRatePeriod(ctx context.Context, p model.RatePeriod) (model.RatePeriod, error) {
	old, err := s.repo.GetRatePeriod(ctx, p.ID)
	if err != nil {
		return model.RatePeriod{}, err
	}
	if err := s.checkRatePeriod(ctx, p); err != nil {
		return model.RatePeriod{}, err
	}
	if err := s.repo.UpdateRatePeriod(ctx, p); err != nil {
		return model.RatePeriod{}, err
	}

	from := p.StartDate
	if old.StartDate.Before(from) {
		from = old.StartDate
	}
	if old.AccountType != p.AccountType {
		if err := s.recomputeType(ctx, old.AccountType, old.StartDate); err != nil {
			return p, err
		}
	}
	return p, s.recomputeType(ctx, p.AccountType, from)
}

// DeleteRatePeriod removes an interest period and recomputes the ledgers it covered. Rows
// left without a rate surface as a RateNotFoundError after the delete is committed.
func (s *PFService) DeleteRatePeriod(ctx context.Context, id string) error {
	p, err := s.repo.GetRatePeriod(ctx, id)
	if err != nil {
		return err
	}
	if err := s.repo.DeleteRatePeriod(ctx, id); err != nil {
		return err
	}
	return s.recomputeType(ctx, p.AccountType, p.StartDate)
}

// recomputeType recomputes every ledger of a PF type from the given date on.
func (s *PFService) recomputeType(ctx context.Context, pfTypeID string, from time.Time) error {
	accounts, err := s.repo.GetAccountsByType(ctx, pfTypeID)
	if err != nil {
		return err
	}
	if len(accounts) == 0 {
		return nil
	}
	ids := make([]string, len(accounts))
	for i, a := range accounts {
		ids[i] = a.ID
	}

	n, err := s.coordinator.RecomputeAccountsFrom(ctx, ids, from)
	s.logger.WithFields(logrus.Fields{
		"pfType":   pfTypeID,
		"from":     from.Format("2006-01-02"),
		"accounts": len(ids),
		"rows":     n,
	}).Info("recomputed ledgers after rate change")
	return err
}

func (s *PFService) checkRatePeriod(ctx context.Context, p model.RatePeriod) error {
	if !p.EndDate.IsZero() && !p.EndDate.After(p.StartDate) {
		return apperrors.ErrInvalidDateRange
	}
	existing, err := s.repo.GetRatePeriods(ctx, p.AccountType)
	if err != nil {
		return err
	}
	for _, other := range existing {
		if other.ID != p.ID && p.Overlaps(other) {
			return fmt.Errorf("%w: %s", apperrors.ErrOverlappingRatePeriod, other.ID)
		}
	}
	return nil
}

// CreateAccount opens a PF account for a user. The account number is stored encrypted.
func (s *PFService) CreateAccount(ctx context.Context, userID, pfTypeID, accountNumber string) (model.PFAccount, error) {
	if _, err := s.users.GetUser(ctx, userID); err != nil {
		return model.PFAccount{}, err
	}
	pfType, err := s.repo.GetPFType(ctx, pfTypeID)
	if err != nil {
		return model.PFAccount{}, err
	}

	stored, err := s.cipher.Encrypt(accountNumber)
	if err != nil {
		return model.PFAccount{}, err
	}
	account := model.PFAccount{
		UserID:        userID,
		PFTypeID:      pfType.ID,
		AccountNumber: stored,
	}
	if err := s.repo.InsertAccount(ctx, &account); err != nil {
		return model.PFAccount{}, err
	}

	account.PFTypeName = pfType.Name
	account.FiscalAligned = pfType.FiscalAligned
	account.AccountNumber = accountNumber
	return account, nil
}

// GetAccount returns one account with its account number decrypted.
func (s *PFService) GetAccount(ctx context.Context, id string) (model.PFAccount, error) {
	a, err := s.repo.GetAccount(ctx, id)
	if err != nil {
		return model.PFAccount{}, err
	}
	return s.decrypt(a), nil
}

// GetAccountsByUser lists a user's accounts with account numbers decrypted.
func (s *PFService) GetAccountsByUser(ctx context.Context, userID string) ([]model.PFAccount, error) {
	accounts, err := s.repo.GetAccountsByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	for i := range accounts {
		accounts[i] = s.decrypt(accounts[i])
	}
	return accounts, nil
}

// decrypt replaces the stored account number with its plain text. A value that cannot be
// decrypted is blanked and logged rather than failing the whole listing.
func (s *PFService) decrypt(a model.PFAccount) model.PFAccount {
	plain, err := s.cipher.Decrypt(a.AccountNumber)
	if err != nil {
		s.logger.WithError(err).WithField("account", a.ID).Warn("cannot decrypt account number")
		plain = ""
	}
	a.AccountNumber = plain
	return a
}

// GetEntries returns the ledger rows of an account.
func (s *PFService) GetEntries(ctx context.Context, accountID string) ([]model.LedgerRow, error) {
	if _, err := s.repo.GetAccount(ctx, accountID); err != nil {
		return nil, err
	}
	return s.repo.GetEntries(ctx, accountID, time.Time{})
}

// BulkCreate generates the initial ledger of an account.
func (s *PFService) BulkCreate(ctx context.Context, accountID string, start time.Time, horizon int) ([]model.LedgerRow, error) {
	return s.coordinator.BulkGenerate(ctx, accountID, start, horizon)
}

// DeleteEntries removes the whole ledger of an account.
func (s *PFService) DeleteEntries(ctx context.Context, accountID string) error {
	if _, err := s.repo.GetAccount(ctx, accountID); err != nil {
		return err
	}
	return s.coordinator.Clear(ctx, accountID)
}

// AppendEntry adds a deposit for the month after the last ledger row.
func (s *PFService) AppendEntry(ctx context.Context, accountID string, depositDate time.Time, amount decimal.Decimal) (model.LedgerRow, error) {
	if amount.IsNegative() {
		return model.LedgerRow{}, fmt.Errorf("%w: amount must not be negative", apperrors.ErrMissingRequiredField)
	}
	return s.coordinator.AppendRow(ctx, accountID, depositDate, amount)
}

// UpdateEntry changes the deposit of a ledger row and recomputes every later row.
func (s *PFService) UpdateEntry(ctx context.Context, entryID string, edit ledger.RowEdit) ([]model.LedgerRow, error) {
	entry, err := s.repo.GetEntry(ctx, entryID)
	if err != nil {
		return nil, err
	}
	rows, err := s.coordinator.EditRow(ctx, entry.AccountID, entryID, edit)
	if errors.Is(err, ledger.ErrRowNotFound) {
		return nil, apperrors.ErrPFEntryNotFound
	}
	return rows, err
}

// Recalculate recomputes the full ledger of one account.
func (s *PFService) Recalculate(ctx context.Context, accountID string) ([]model.LedgerRow, error) {
	return s.coordinator.RecomputeFrom(ctx, accountID, time.Time{})
}

// RecalculateAll recomputes every account and returns the number of rows written.
func (s *PFService) RecalculateAll(ctx context.Context) (int, error) {
	accounts, err := s.repo.GetAccounts(ctx)
	if err != nil {
		return 0, err
	}
	ids := make([]string, len(accounts))
	for i, a := range accounts {
		ids[i] = a.ID
	}

	start := time.Now()
	n, err := s.coordinator.RecalculateAll(ctx, ids)
	s.logger.WithFields(logrus.Fields{
		"accounts": len(ids),
		"rows":     n,
		"elapsed":  time.Since(start),
	}).Info("recalculated all pf ledgers")
	return n, err
}
