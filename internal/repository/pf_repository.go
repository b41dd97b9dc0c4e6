package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/ndewijer/Finance-Ledger-Backend/internal/apperrors"
	"github.com/ndewijer/Finance-Ledger-Backend/internal/ledger"
	"github.com/ndewijer/Finance-Ledger-Backend/internal/model"
)

// PFRepository provides data access methods for the pf_type, pf_interest, pf_account and
// pf_entry tables.
type PFRepository struct {
	db *sql.DB
	tx *sql.Tx
}

// NewPFRepository creates a new PFRepository with the provided database connection.
func NewPFRepository(db *sql.DB) *PFRepository {
	return &PFRepository{db: db}
}

func (r *PFRepository) WithTx(tx *sql.Tx) *PFRepository {
	return &PFRepository{
		db: r.db,
		tx: tx,
	}
}

func (r *PFRepository) getQuerier() querier {
	if r.tx != nil {
		return r.tx
	}
	return r.db
}

// GetPFTypes retrieves all PF types ordered by name.
func (r *PFRepository) GetPFTypes(ctx context.Context) ([]model.PFType, error) {
	rows, err := r.getQuerier().QueryContext(ctx, `SELECT id, name, fiscal_aligned FROM pf_type ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("failed to query pf_type table: %w", err)
	}
	defer rows.Close()

	types := []model.PFType{}
	for rows.Next() {
		var t model.PFType
		if err := rows.Scan(&t.ID, &t.Name, &t.FiscalAligned); err != nil {
			return nil, fmt.Errorf("failed to scan pf_type table results: %w", err)
		}
		types = append(types, t)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating pf_type table: %w", err)
	}
	return types, nil
}

func (r *PFRepository) GetPFType(ctx context.Context, id string) (model.PFType, error) {
	var t model.PFType
	err := r.getQuerier().QueryRowContext(ctx,
		`SELECT id, name, fiscal_aligned FROM pf_type WHERE id = ?`, id,
	).Scan(&t.ID, &t.Name, &t.FiscalAligned)
	if err == sql.ErrNoRows {
		return model.PFType{}, apperrors.ErrPFTypeNotFound
	}
	if err != nil {
		return model.PFType{}, fmt.Errorf("failed to query pf_type: %w", err)
	}
	return t, nil
}

// InsertPFTypeIfMissing inserts t unless a type with the same name exists.
// It reports whether a row was inserted.
func (r *PFRepository) InsertPFTypeIfMissing(ctx context.Context, t model.PFType) (bool, error) {
	if t.ID == "" {
		t.ID = uuid.New().String()
	}
	result, err := r.getQuerier().ExecContext(ctx,
		`INSERT OR IGNORE INTO pf_type (id, name, fiscal_aligned) VALUES (?, ?, ?)`,
		t.ID, t.Name, t.FiscalAligned,
	)
	if err != nil {
		return false, fmt.Errorf("failed to insert pf_type: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return n > 0, nil
}

const ratePeriodColumns = `id, pf_type_id, start_date, end_date, rate_of_interest`

// GetRatePeriods retrieves the interest periods of a PF type ordered by start date.
// An empty pfTypeID returns the periods of every type.
func (r *PFRepository) GetRatePeriods(ctx context.Context, pfTypeID string) ([]model.RatePeriod, error) {
	query := `SELECT ` + ratePeriodColumns + ` FROM pf_interest`
	var args []any
	if pfTypeID != "" {
		query += ` WHERE pf_type_id = ?`
		args = append(args, pfTypeID)
	}
	query += ` ORDER BY pf_type_id, start_date`

	rows, err := r.getQuerier().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query pf_interest table: %w", err)
	}
	defer rows.Close()

	periods := []model.RatePeriod{}
	for rows.Next() {
		p, err := scanRatePeriod(rows)
		if err != nil {
			return nil, err
		}
		periods = append(periods, p)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating pf_interest table: %w", err)
	}
	return periods, nil
}

func (r *PFRepository) GetRatePeriod(ctx context.Context, id string) (model.RatePeriod, error) {
	row := r.getQuerier().QueryRowContext(ctx, `SELECT `+ratePeriodColumns+` FROM pf_interest WHERE id = ?`, id)
	p, err := scanRatePeriod(row)
	if err == sql.ErrNoRows {
		return model.RatePeriod{}, apperrors.ErrRatePeriodNotFound
	}
	return p, err
}

func (r *PFRepository) InsertRatePeriod(ctx context.Context, p *model.RatePeriod) error {
	if p.ID == "" {
		p.ID = uuid.New().String()
	}
	_, err := r.getQuerier().ExecContext(ctx,
		`INSERT INTO pf_interest (`+ratePeriodColumns+`) VALUES (?, ?, ?, ?, ?)`,
		p.ID, p.AccountType, formatDate(p.StartDate), nullDate(p.EndDate), p.Rate,
	)
	if isForeignKeyViolation(err) {
		return apperrors.ErrPFTypeNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to insert pf_interest: %w", err)
	}
	return nil
}

func (r *PFRepository) UpdateRatePeriod(ctx context.Context, p model.RatePeriod) error {
	result, err := r.getQuerier().ExecContext(ctx,
		`UPDATE pf_interest SET pf_type_id = ?, start_date = ?, end_date = ?, rate_of_interest = ? WHERE id = ?`,
		p.AccountType, formatDate(p.StartDate), nullDate(p.EndDate), p.Rate, p.ID,
	)
	if isForeignKeyViolation(err) {
		return apperrors.ErrPFTypeNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to update pf_interest: %w", err)
	}
	return checkAffected(result, apperrors.ErrRatePeriodNotFound)
}

func (r *PFRepository) DeleteRatePeriod(ctx context.Context, id string) error {
	result, err := r.getQuerier().ExecContext(ctx, `DELETE FROM pf_interest WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete pf_interest: %w", err)
	}
	return checkAffected(result, apperrors.ErrRatePeriodNotFound)
}

func scanRatePeriod(s scanner) (model.RatePeriod, error) {
	var p model.RatePeriod
	var start string
	var end sql.NullString
	if err := s.Scan(&p.ID, &p.AccountType, &start, &end, &p.Rate); err != nil {
		if err == sql.ErrNoRows {
			return model.RatePeriod{}, err
		}
		return model.RatePeriod{}, fmt.Errorf("failed to scan pf_interest: %w", err)
	}
	var err error
	if p.StartDate, err = ParseTime(start); err != nil {
		return model.RatePeriod{}, err
	}
	if p.EndDate, err = parseNullDate(end); err != nil {
		return model.RatePeriod{}, err
	}
	return p, nil
}

const accountSelect = `
	SELECT a.id, a.user_id, a.pf_type_id, t.name, t.fiscal_aligned, a.account_number, a.created_at
	FROM pf_account a
	JOIN pf_type t ON t.id = a.pf_type_id
`

// GetAccount retrieves one PF account with its type. AccountNumber is returned as stored.
func (r *PFRepository) GetAccount(ctx context.Context, id string) (model.PFAccount, error) {
	row := r.getQuerier().QueryRowContext(ctx, accountSelect+` WHERE a.id = ?`, id)
	a, err := scanAccount(row)
	if err == sql.ErrNoRows {
		return model.PFAccount{}, apperrors.ErrPFAccountNotFound
	}
	return a, err
}

// GetAccountsByUser retrieves the PF accounts of a user ordered by type name.
func (r *PFRepository) GetAccountsByUser(ctx context.Context, userID string) ([]model.PFAccount, error) {
	return r.queryAccounts(ctx, accountSelect+` WHERE a.user_id = ? ORDER BY t.name`, userID)
}

// GetAccountsByType retrieves the PF accounts of one PF type.
func (r *PFRepository) GetAccountsByType(ctx context.Context, pfTypeID string) ([]model.PFAccount, error) {
	return r.queryAccounts(ctx, accountSelect+` WHERE a.pf_type_id = ? ORDER BY a.created_at`, pfTypeID)
}

// GetAccounts retrieves every PF account.
func (r *PFRepository) GetAccounts(ctx context.Context) ([]model.PFAccount, error) {
	return r.queryAccounts(ctx, accountSelect+` ORDER BY a.created_at`)
}

func (r *PFRepository) queryAccounts(ctx context.Context, query string, args ...any) ([]model.PFAccount, error) {
	rows, err := r.getQuerier().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query pf_account table: %w", err)
	}
	defer rows.Close()

	accounts := []model.PFAccount{}
	for rows.Next() {
		a, err := scanAccount(rows)
		if err != nil {
			return nil, err
		}
		accounts = append(accounts, a)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating pf_account table: %w", err)
	}
	return accounts, nil
}

// InsertAccount stores a new account. One account per user and type.
func (r *PFRepository) InsertAccount(ctx context.Context, a *model.PFAccount) error {
	if a.ID == "" {
		a.ID = uuid.New().String()
	}
	if a.CreatedAt.IsZero() {
		a.CreatedAt = time.Now().UTC()
	}
	_, err := r.getQuerier().ExecContext(ctx,
		`INSERT INTO pf_account (id, user_id, pf_type_id, account_number, created_at) VALUES (?, ?, ?, ?, ?)`,
		a.ID, a.UserID, a.PFTypeID, nullString(a.AccountNumber), formatTimestamp(a.CreatedAt),
	)
	if isUniqueViolation(err) {
		return apperrors.ErrDuplicateEntry
	}
	if isForeignKeyViolation(err) {
		return fmt.Errorf("%w: unknown user or pf type", apperrors.ErrMissingRequiredField)
	}
	if err != nil {
		return fmt.Errorf("failed to insert pf_account: %w", err)
	}
	return nil
}

func scanAccount(s scanner) (model.PFAccount, error) {
	var a model.PFAccount
	var number sql.NullString
	var createdAt string
	err := s.Scan(&a.ID, &a.UserID, &a.PFTypeID, &a.PFTypeName, &a.FiscalAligned, &number, &createdAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return model.PFAccount{}, err
		}
		return model.PFAccount{}, fmt.Errorf("failed to scan pf_account: %w", err)
	}
	a.AccountNumber = number.String
	if a.CreatedAt, err = ParseTime(createdAt); err != nil {
		return model.PFAccount{}, err
	}
	return a, nil
}

const entryColumns = `id, pf_account_id, date, deposit_date, amount_deposited, lowest_balance,
	closing_balance, month_interest, pf_interest_id, version`

// GetEntries retrieves the ledger rows of an account dated on or after from, oldest first.
// A zero from returns every row.
func (r *PFRepository) GetEntries(ctx context.Context, accountID string, from time.Time) ([]model.LedgerRow, error) {
	query := `SELECT ` + entryColumns + ` FROM pf_entry WHERE pf_account_id = ?`
	args := []any{accountID}
	if !from.IsZero() {
		query += ` AND date >= ?`
		args = append(args, formatDate(from))
	}
	query += ` ORDER BY date ASC`

	rows, err := r.getQuerier().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query pf_entry table: %w", err)
	}
	defer rows.Close()

	entries := []model.LedgerRow{}
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating pf_entry table: %w", err)
	}
	return entries, nil
}

func (r *PFRepository) GetEntry(ctx context.Context, id string) (model.LedgerRow, error) {
	row := r.getQuerier().QueryRowContext(ctx, `SELECT `+entryColumns+` FROM pf_entry WHERE id = ?`, id)
	e, err := scanEntry(row)
	if err == sql.ErrNoRows {
		return model.LedgerRow{}, apperrors.ErrPFEntryNotFound
	}
	return e, err
}

// PutEntries upserts ledger rows. Rows without an ID are inserted with version 1; the others
// are updated only when their version still matches, else ledger.ErrConcurrentMutation is
// returned. IDs and versions are written back into rows. Call it inside a transaction to make
// the batch atomic.
func (r *PFRepository) PutEntries(ctx context.Context, accountID string, rows []model.LedgerRow) error {
	q := r.getQuerier()
	for i := range rows {
		e := &rows[i]
		if e.ID == "" {
			id := uuid.New().String()
			_, err := q.ExecContext(ctx,
				`INSERT INTO pf_entry (`+entryColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, 1)`,
				id, accountID, formatDate(e.Date), nullDate(e.DepositDate), e.AmountDeposited,
				e.LowestBalance, e.ClosingBalance, e.MonthInterest, nullString(e.RatePeriodID),
			)
			if isUniqueViolation(err) {
				return fmt.Errorf("%w: %s already has a row for %s", ledger.ErrDuplicateInitialization,
					accountID, formatDate(e.Date))
			}
			if err != nil {
				return fmt.Errorf("failed to insert pf_entry: %w", err)
			}
			e.ID = id
			e.AccountID = accountID
			e.Version = 1
			continue
		}

		result, err := q.ExecContext(ctx, `
			UPDATE pf_entry
			SET deposit_date = ?, amount_deposited = ?, lowest_balance = ?, closing_balance = ?,
			    month_interest = ?, pf_interest_id = ?, version = version + 1
			WHERE id = ? AND pf_account_id = ? AND version = ?`,
			nullDate(e.DepositDate), e.AmountDeposited, e.LowestBalance, e.ClosingBalance,
			e.MonthInterest, nullString(e.RatePeriodID), e.ID, accountID, e.Version,
		)
		if err != nil {
			return fmt.Errorf("failed to update pf_entry: %w", err)
		}
		if err := checkAffected(result, fmt.Errorf("%w: pf_entry %s", ledger.ErrConcurrentMutation, e.ID)); err != nil {
			return err
		}
		e.Version++
	}
	return nil
}

// DeleteEntries removes every ledger row of an account.
func (r *PFRepository) DeleteEntries(ctx context.Context, accountID string) (int64, error) {
	result, err := r.getQuerier().ExecContext(ctx, `DELETE FROM pf_entry WHERE pf_account_id = ?`, accountID)
	if err != nil {
		return 0, fmt.Errorf("failed to delete pf_entry rows: %w", err)
	}
	return result.RowsAffected()
}

func scanEntry(s scanner) (model.LedgerRow, error) {
	var e model.LedgerRow
	var date string
	var depositDate, ratePeriodID sql.NullString
	err := s.Scan(&e.ID, &e.AccountID, &date, &depositDate, &e.AmountDeposited, &e.LowestBalance,
		&e.ClosingBalance, &e.MonthInterest, &ratePeriodID, &e.Version)
	if err != nil {
		if err == sql.ErrNoRows {
			return model.LedgerRow{}, err
		}
		return model.LedgerRow{}, fmt.Errorf("failed to scan pf_entry: %w", err)
	}
	if e.Date, err = ParseTime(date); err != nil {
		return model.LedgerRow{}, err
	}
	if e.DepositDate, err = parseNullDate(depositDate); err != nil {
		return model.LedgerRow{}, err
	}
	e.RatePeriodID = ratePeriodID.String
	return e, nil
}
