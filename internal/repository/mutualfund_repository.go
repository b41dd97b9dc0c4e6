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

// MutualFundRepository provides data access methods for the fund_metadata, mutual_fund_entry
// and fund_nav tables.
type MutualFundRepository struct {
	db *sql.DB
	tx *sql.Tx
}

// NewMutualFundRepository creates a new MutualFundRepository with the provided database connection.
func NewMutualFundRepository(db *sql.DB) *MutualFundRepository {
	return &MutualFundRepository{db: db}
}

func (r *MutualFundRepository) WithTx(tx *sql.Tx) *MutualFundRepository {
	return &MutualFundRepository{
		db: r.db,
		tx: tx,
	}
}

func (r *MutualFundRepository) getQuerier() querier {
	if r.tx != nil {
		return r.tx
	}
	return r.db
}

// GetFunds retrieves all fund metadata ordered by name.
func (r *MutualFundRepository) GetFunds(ctx context.Context) ([]model.FundMetadata, error) {
	rows, err := r.getQuerier().QueryContext(ctx, `SELECT id, name, scheme_code FROM fund_metadata ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("failed to query fund_metadata table: %w", err)
	}
	defer rows.Close()

	funds := []model.FundMetadata{}
	for rows.Next() {
		var f model.FundMetadata
		if err := rows.Scan(&f.ID, &f.Name, &f.SchemeCode); err != nil {
			return nil, fmt.Errorf("failed to scan fund_metadata table results: %w", err)
		}
		funds = append(funds, f)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating fund_metadata table: %w", err)
	}
	return funds, nil
}

func (r *MutualFundRepository) GetFund(ctx context.Context, id string) (model.FundMetadata, error) {
	var f model.FundMetadata
	err := r.getQuerier().QueryRowContext(ctx,
		`SELECT id, name, scheme_code FROM fund_metadata WHERE id = ?`, id,
	).Scan(&f.ID, &f.Name, &f.SchemeCode)
	if err == sql.ErrNoRows {
		return model.FundMetadata{}, apperrors.ErrFundNotFound
	}
	if err != nil {
		return model.FundMetadata{}, fmt.Errorf("failed to query fund_metadata: %w", err)
	}
	return f, nil
}

func (r *MutualFundRepository) InsertFund(ctx context.Context, f *model.FundMetadata) error {
	if f.ID == "" {
		f.ID = uuid.New().String()
	}
	_, err := r.getQuerier().ExecContext(ctx,
		`INSERT INTO fund_metadata (id, name, scheme_code) VALUES (?, ?, ?)`, f.ID, f.Name, f.SchemeCode)
	if isUniqueViolation(err) {
		return apperrors.ErrDuplicateEntry
	}
	if err != nil {
		return fmt.Errorf("failed to insert fund_metadata: %w", err)
	}
	return nil
}

func (r *MutualFundRepository) UpdateFund(ctx context.Context, f model.FundMetadata) error {
	result, err := r.getQuerier().ExecContext(ctx,
		`UPDATE fund_metadata SET name = ?, scheme_code = ? WHERE id = ?`, f.Name, f.SchemeCode, f.ID)
	if isUniqueViolation(err) {
		return apperrors.ErrDuplicateEntry
	}
	if err != nil {
		return fmt.Errorf("failed to update fund_metadata: %w", err)
	}
	return checkAffected(result, apperrors.ErrFundNotFound)
}

// DeleteFund removes fund metadata. Funds with entries cannot be deleted.
func (r *MutualFundRepository) DeleteFund(ctx context.Context, id string) error {
	result, err := r.getQuerier().ExecContext(ctx, `DELETE FROM fund_metadata WHERE id = ?`, id)
	if isForeignKeyViolation(err) {
		return apperrors.ErrFundInUse
	}
	if err != nil {
		return fmt.Errorf("failed to delete fund_metadata: %w", err)
	}
	return checkAffected(result, apperrors.ErrFundNotFound)
}

const entrySelect = `
	SELECT e.id, e.seq, e.user_id, e.fund_id, f.name, e.purchase_date, e.invest_type, e.amount,
	       e.nav, e.units, e.matched_units, e.is_redeemed, e.principal_redeem, e.interest_redeem,
	       e.version, e.created_at
	FROM mutual_fund_entry e
	JOIN fund_metadata f ON f.id = e.fund_id
`

// GetEntriesByUser retrieves all entries of a user ordered by fund, date and creation order.
func (r *MutualFundRepository) GetEntriesByUser(ctx context.Context, userID string) ([]model.FlowEvent, error) {
	return r.queryEntries(ctx, entrySelect+` WHERE e.user_id = ? ORDER BY f.name, e.purchase_date, e.seq`, userID)
}

// GetFlowEvents retrieves the entries of one user and fund ordered by date and creation order.
func (r *MutualFundRepository) GetFlowEvents(ctx context.Context, userID, fundID string) ([]model.FlowEvent, error) {
	return r.queryEntries(ctx,
		entrySelect+` WHERE e.user_id = ? AND e.fund_id = ? ORDER BY e.purchase_date, e.seq`, userID, fundID)
}

// GetEntriesMissingUnits retrieves entries that have a NAV but no units yet.
func (r *MutualFundRepository) GetEntriesMissingUnits(ctx context.Context) ([]model.FlowEvent, error) {
	return r.queryEntries(ctx,
		entrySelect+` WHERE e.units IS NULL AND e.nav IS NOT NULL ORDER BY e.purchase_date, e.seq`)
}

// GetEntriesMissingNAV retrieves entries that have no NAV yet.
func (r *MutualFundRepository) GetEntriesMissingNAV(ctx context.Context) ([]model.FlowEvent, error) {
	return r.queryEntries(ctx, entrySelect+` WHERE e.nav IS NULL ORDER BY e.purchase_date, e.seq`)
}

// GetUserFundPairs lists every distinct (user, fund) combination that has entries.
func (r *MutualFundRepository) GetUserFundPairs(ctx context.Context) ([][2]string, error) {
	rows, err := r.getQuerier().QueryContext(ctx,
		`SELECT DISTINCT user_id, fund_id FROM mutual_fund_entry ORDER BY user_id, fund_id`)
	if err != nil {
		return nil, fmt.Errorf("failed to query mutual_fund_entry pairs: %w", err)
	}
	defer rows.Close()

	var pairs [][2]string
	for rows.Next() {
		var p [2]string
		if err := rows.Scan(&p[0], &p[1]); err != nil {
			return nil, fmt.Errorf("failed to scan mutual_fund_entry pair: %w", err)
		}
		pairs = append(pairs, p)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating mutual_fund_entry pairs: %w", err)
	}
	return pairs, nil
}

func (r *MutualFundRepository) GetEntry(ctx context.Context, id string) (model.FlowEvent, error) {
	row := r.getQuerier().QueryRowContext(ctx, entrySelect+` WHERE e.id = ?`, id)
	e, err := scanFlowEvent(row)
	if err == sql.ErrNoRows {
		return model.FlowEvent{}, apperrors.ErrMutualFundEntryNotFound
	}
	return e, err
}

func (r *MutualFundRepository) queryEntries(ctx context.Context, query string, args ...any) ([]model.FlowEvent, error) {
	rows, err := r.getQuerier().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query mutual_fund_entry table: %w", err)
	}
	defer rows.Close()

	events := []model.FlowEvent{}
	for rows.Next() {
		e, err := scanFlowEvent(rows)
		if err != nil {
			return nil, err
		}
		events = append(events, e)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating mutual_fund_entry table: %w", err)
	}
	return events, nil
}

// InsertEntry stores a new entry with no matching results. Seq is assigned from insertion order.
func (r *MutualFundRepository) InsertEntry(ctx context.Context, e *model.FlowEvent) error {
	if e.ID == "" {
		e.ID = uuid.New().String()
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now().UTC()
	}

	err := r.getQuerier().QueryRowContext(ctx, `
		INSERT INTO mutual_fund_entry (id, seq, user_id, fund_id, purchase_date, invest_type, amount, nav, units, created_at)
		VALUES (?, (SELECT COALESCE(MAX(seq), 0) + 1 FROM mutual_fund_entry), ?, ?, ?, ?, ?, ?, ?, ?)
		RETURNING seq`,
		e.ID, e.AccountID, e.InstrumentID, formatDate(e.Date), string(e.Direction), e.Amount,
		e.UnitPrice, e.Quantity, formatTimestamp(e.CreatedAt),
	).Scan(&e.Seq)
	if isForeignKeyViolation(err) {
		return fmt.Errorf("%w: unknown user or fund", apperrors.ErrMissingRequiredField)
	}
	if err != nil {
		return fmt.Errorf("failed to insert mutual_fund_entry: %w", err)
	}
	e.Version = 1
	return nil
}

// UpdateEntry changes the user-editable fields of an entry and bumps its version.
// Matching results are left alone; the caller rematches.
func (r *MutualFundRepository) UpdateEntry(ctx context.Context, e *model.FlowEvent) error {
	result, err := r.getQuerier().ExecContext(ctx, `
		UPDATE mutual_fund_entry
		SET fund_id = ?, purchase_date = ?, invest_type = ?, amount = ?, nav = ?, units = ?, version = version + 1
		WHERE id = ? AND version = ?`,
		e.InstrumentID, formatDate(e.Date), string(e.Direction), e.Amount, e.UnitPrice, e.Quantity,
		e.ID, e.Version,
	)
	if err != nil {
		return fmt.Errorf("failed to update mutual_fund_entry: %w", err)
	}
	if err := checkAffected(result, ledger.ErrConcurrentMutation); err != nil {
		return err
	}
	e.Version++
	return nil
}

func (r *MutualFundRepository) DeleteEntry(ctx context.Context, id string) error {
	result, err := r.getQuerier().ExecContext(ctx, `DELETE FROM mutual_fund_entry WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete mutual_fund_entry: %w", err)
	}
	return checkAffected(result, apperrors.ErrMutualFundEntryNotFound)
}

// PutMatches stores the matching results of events with a version check per event.
// Versions are written back into events.
func (r *MutualFundRepository) PutMatches(ctx context.Context, events []model.FlowEvent) error {
	q := r.getQuerier()
	for i := range events {
		e := &events[i]
		result, err := q.ExecContext(ctx, `
			UPDATE mutual_fund_entry
			SET matched_units = ?, is_redeemed = ?, principal_redeem = ?, interest_redeem = ?, version = version + 1
			WHERE id = ? AND version = ?`,
			e.MatchedQuantity, e.IsFullyMatched, e.RealizedPrincipal, e.RealizedGain, e.ID, e.Version,
		)
		if err != nil {
			return fmt.Errorf("failed to update mutual_fund_entry matches: %w", err)
		}
		if err := checkAffected(result, fmt.Errorf("%w: mutual_fund_entry %s", ledger.ErrConcurrentMutation, e.ID)); err != nil {
			return err
		}
		e.Version++
	}
	return nil
}

// SetUnits stores NAV and units of one entry after a backfill.
func (r *MutualFundRepository) SetUnits(ctx context.Context, e *model.FlowEvent) error {
	result, err := r.getQuerier().ExecContext(ctx,
		`UPDATE mutual_fund_entry SET nav = ?, units = ?, version = version + 1 WHERE id = ? AND version = ?`,
		e.UnitPrice, e.Quantity, e.ID, e.Version)
	if err != nil {
		return fmt.Errorf("failed to update mutual_fund_entry units: %w", err)
	}
	if err := checkAffected(result, ledger.ErrConcurrentMutation); err != nil {
		return err
	}
	e.Version++
	return nil
}

// ForceNull clears NAV, units and matching results of the selected entries. Empty userID or
// fundID select all. Returns the number of entries changed.
func (r *MutualFundRepository) ForceNull(ctx context.Context, userID, fundID string) (int64, error) {
	query := `
		UPDATE mutual_fund_entry
		SET nav = NULL, units = NULL, matched_units = '0', is_redeemed = FALSE,
		    principal_redeem = '0', interest_redeem = '0', version = version + 1
		WHERE 1=1`
	var args []any
	if userID != "" {
		query += ` AND user_id = ?`
		args = append(args, userID)
	}
	if fundID != "" {
		query += ` AND fund_id = ?`
		args = append(args, fundID)
	}

	result, err := r.getQuerier().ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("failed to clear mutual_fund_entry units: %w", err)
	}
	return result.RowsAffected()
}

func scanFlowEvent(s scanner) (model.FlowEvent, error) {
	var e model.FlowEvent
	var date, direction, createdAt string
	err := s.Scan(&e.ID, &e.Seq, &e.AccountID, &e.InstrumentID, &e.FundName, &date, &direction,
		&e.Amount, &e.UnitPrice, &e.Quantity, &e.MatchedQuantity, &e.IsFullyMatched,
		&e.RealizedPrincipal, &e.RealizedGain, &e.Version, &createdAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return model.FlowEvent{}, err
		}
		return model.FlowEvent{}, fmt.Errorf("failed to scan mutual_fund_entry: %w", err)
	}
	e.Direction = model.Direction(direction)
	if e.Date, err = ParseTime(date); err != nil {
		return model.FlowEvent{}, err
	}
	if e.CreatedAt, err = ParseTime(createdAt); err != nil {
		return model.FlowEvent{}, err
	}
	return e, nil
}

// UpsertNAV stores a NAV observation, replacing one for the same fund and date.
func (r *MutualFundRepository) UpsertNAV(ctx context.Context, nav model.NAV) error {
	_, err := r.getQuerier().ExecContext(ctx, `
		INSERT INTO fund_nav (fund_id, date, nav) VALUES (?, ?, ?)
		ON CONFLICT (fund_id, date) DO UPDATE SET nav = excluded.nav`,
		nav.FundID, formatDate(nav.Date), nav.Price)
	if err != nil {
		return fmt.Errorf("failed to upsert fund_nav: %w", err)
	}
	return nil
}

// GetNAVOnOrBefore returns the latest stored NAV of a fund dated on or before date.
func (r *MutualFundRepository) GetNAVOnOrBefore(ctx context.Context, fundID string, date time.Time) (model.NAV, error) {
	nav := model.NAV{FundID: fundID}
	var d string
	err := r.getQuerier().QueryRowContext(ctx,
		`SELECT date, nav FROM fund_nav WHERE fund_id = ? AND date <= ? ORDER BY date DESC LIMIT 1`,
		fundID, formatDate(date),
	).Scan(&d, &nav.Price)
	if err == sql.ErrNoRows {
		return model.NAV{}, apperrors.ErrNAVNotFound
	}
	if err != nil {
		return model.NAV{}, fmt.Errorf("failed to query fund_nav: %w", err)
	}
	if nav.Date, err = ParseTime(d); err != nil {
		return model.NAV{}, err
	}
	return nav, nil
}
