package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/ndewijer/Finance-Ledger-Backend/internal/apperrors"
	"github.com/ndewijer/Finance-Ledger-Backend/internal/model"
)

// UserRepository provides data access methods for the user table.
type UserRepository struct {
	db *sql.DB
	tx *sql.Tx
}

// NewUserRepository creates a new UserRepository with the provided database connection.
func NewUserRepository(db *sql.DB) *UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) WithTx(tx *sql.Tx) *UserRepository {
	return &UserRepository{
		db: r.db,
		tx: tx,
	}
}

func (r *UserRepository) getQuerier() querier {
	if r.tx != nil {
		return r.tx
	}
	return r.db
}

// GetUsers retrieves all users ordered by name.
// Returns an empty slice if there are none.
func (r *UserRepository) GetUsers(ctx context.Context) ([]model.User, error) {
	rows, err := r.getQuerier().QueryContext(ctx, `SELECT id, name, created_at FROM user ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("failed to query user table: %w", err)
	}
	defer rows.Close()

	users := []model.User{}
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating user table: %w", err)
	}

	return users, nil
}

func (r *UserRepository) GetUser(ctx context.Context, userID string) (model.User, error) {
	row := r.getQuerier().QueryRowContext(ctx, `SELECT id, name, created_at FROM user WHERE id = ?`, userID)
	u, err := scanUser(row)
	if err == sql.ErrNoRows {
		return model.User{}, apperrors.ErrUserNotFound
	}
	return u, err
}

// InsertUser stores a new user. ID and CreatedAt are filled in when empty.
func (r *UserRepository) InsertUser(ctx context.Context, u *model.User) error {
	if u.ID == "" {
		u.ID = uuid.New().String()
	}
	if u.CreatedAt.IsZero() {
		u.CreatedAt = time.Now().UTC()
	}

	_, err := r.getQuerier().ExecContext(ctx,
		`INSERT INTO user (id, name, created_at) VALUES (?, ?, ?)`,
		u.ID, u.Name, formatTimestamp(u.CreatedAt),
	)
	if isUniqueViolation(err) {
		return apperrors.ErrDuplicateEntry
	}
	if err != nil {
		return fmt.Errorf("failed to insert user: %w", err)
	}
	return nil
}

// DeleteUser removes a user; accounts, entries and ledger rows cascade.
func (r *UserRepository) DeleteUser(ctx context.Context, userID string) error {
	result, err := r.getQuerier().ExecContext(ctx, `DELETE FROM user WHERE id = ?`, userID)
	if err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}
	return checkAffected(result, apperrors.ErrUserNotFound)
}

type scanner interface {
	Scan(dest ...any) error
}

func scanUser(s scanner) (model.User, error) {
	var u model.User
	var createdAt string
	if err := s.Scan(&u.ID, &u.Name, &createdAt); err != nil {
		if err == sql.ErrNoRows {
			return model.User{}, err
		}
		return model.User{}, fmt.Errorf("failed to scan user: %w", err)
	}
	t, err := ParseTime(createdAt)
	if err != nil {
		return model.User{}, err
	}
	u.CreatedAt = t
	return u, nil
}
