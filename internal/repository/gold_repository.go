package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"github.com/ndewijer/Finance-Ledger-Backend/internal/apperrors"
	"github.com/ndewijer/Finance-Ledger-Backend/internal/model"
)

// GoldRepository provides data access methods for the gold_entry and gold_price tables.
type GoldRepository struct {
	db *sql.DB
}

// NewGoldRepository creates a new GoldRepository with the provided database connection.
func NewGoldRepository(db *sql.DB) *GoldRepository {
	return &GoldRepository{db: db}
}

// GetEntries retrieves all gold purchases, newest first.
func (r *GoldRepository) GetEntries(ctx context.Context) ([]model.GoldEntry, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, purchase_date, grams, price, comments FROM gold_entry ORDER BY purchase_date DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to query gold_entry table: %w", err)
	}
	defer rows.Close()

	entries := []model.GoldEntry{}
	for rows.Next() {
		var g model.GoldEntry
		var date string
		var comments sql.NullString
		if err := rows.Scan(&g.ID, &date, &g.Grams, &g.Price, &comments); err != nil {
			return nil, fmt.Errorf("failed to scan gold_entry table results: %w", err)
		}
		if g.PurchaseDate, err = ParseTime(date); err != nil {
			return nil, err
		}
		g.Comments = comments.String
		entries = append(entries, g)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating gold_entry table: %w", err)
	}
	return entries, nil
}

// SaveEntry inserts g when its ID is empty or unknown, otherwise updates it.
// It reports whether a new row was created.
func (r *GoldRepository) SaveEntry(ctx context.Context, g *model.GoldEntry) (bool, error) {
	if g.ID != "" {
		result, err := r.db.ExecContext(ctx,
			`UPDATE gold_entry SET purchase_date = ?, grams = ?, price = ?, comments = ? WHERE id = ?`,
			formatDate(g.PurchaseDate), g.Grams, g.Price, nullString(g.Comments), g.ID)
		if err != nil {
			return false, fmt.Errorf("failed to update gold_entry: %w", err)
		}
		if n, err := result.RowsAffected(); err == nil && n > 0 {
			return false, nil
		}
	} else {
		g.ID = uuid.New().String()
	}

	_, err := r.db.ExecContext(ctx,
		`INSERT INTO gold_entry (id, purchase_date, grams, price, comments) VALUES (?, ?, ?, ?, ?)`,
		g.ID, formatDate(g.PurchaseDate), g.Grams, g.Price, nullString(g.Comments))
	if err != nil {
		return false, fmt.Errorf("failed to insert gold_entry: %w", err)
	}
	return true, nil
}

func (r *GoldRepository) DeleteEntry(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM gold_entry WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete gold_entry: %w", err)
	}
	return checkAffected(result, apperrors.ErrGoldEntryNotFound)
}

// GetLatestPrice returns the most recently dated gold price.
func (r *GoldRepository) GetLatestPrice(ctx context.Context) (model.GoldPrice, error) {
	var p model.GoldPrice
	var date string
	err := r.db.QueryRowContext(ctx,
		`SELECT id, price, date FROM gold_price ORDER BY date DESC, rowid DESC LIMIT 1`,
	).Scan(&p.ID, &p.Price, &date)
	if err == sql.ErrNoRows {
		return model.GoldPrice{}, apperrors.ErrGoldPriceNotFound
	}
	if err != nil {
		return model.GoldPrice{}, fmt.Errorf("failed to query gold_price: %w", err)
	}
	if p.Date, err = ParseTime(date); err != nil {
		return model.GoldPrice{}, err
	}
	return p, nil
}

func (r *GoldRepository) InsertPrice(ctx context.Context, p *model.GoldPrice) error {
	if p.ID == "" {
		p.ID = uuid.New().String()
	}
	_, err := r.db.ExecContext(ctx, `INSERT INTO gold_price (id, price, date) VALUES (?, ?, ?)`,
		p.ID, p.Price, formatDate(p.Date))
	if err != nil {
		return fmt.Errorf("failed to insert gold_price: %w", err)
	}
	return nil
}
