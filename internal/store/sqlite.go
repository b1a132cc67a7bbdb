package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"
)

var ErrNotFound = errors.New("no token stored")

// TokenRecord is the locally persisted delivery token of this installation.
type TokenRecord struct {
	InstallationID string    `db:"installation_id"`
	Token          string    `db:"token"`
	Registered     bool      `db:"registered"`
	UpdatedAt      time.Time `db:"updated_at"`
}

type SQLiteStore struct {
	db *sqlx.DB
}

// NewSQLiteStore opens the database at path and migrates it. Use ":memory:"
// for a throwaway store.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := sqlx.Connect("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("could not open database: %w", err)
	}
	// a single connection keeps ":memory:" databases shared and serializes writes
	db.SetMaxOpenConns(1)

	if err := Up(db.DB); err != nil {
		db.Close()
		return nil, err
	}
	return &SQLiteStore{db: db}, nil
}

// InstallationID returns the stable id of this installation, creating it on
// first use.
func (s *SQLiteStore) InstallationID(ctx context.Context) (string, error) {
	var id string
	err := s.db.GetContext(ctx, &id, `SELECT installation_id FROM installation WHERE id = 1`)
	if err == nil {
		return id, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return "", fmt.Errorf("error reading installation id: %w", err)
	}

	id = uuid.New().String()
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO installation (id, installation_id, updated_at) VALUES (1, ?, ?)
		 ON CONFLICT(id) DO NOTHING`,
		id, time.Now().UTC())
	if err != nil {
		return "", fmt.Errorf("error creating installation id: %w", err)
	}

	// another writer may have won the insert
	if err := s.db.GetContext(ctx, &id, `SELECT installation_id FROM installation WHERE id = 1`); err != nil {
		return "", fmt.Errorf("error reading installation id: %w", err)
	}
	return id, nil
}

func (s *SQLiteStore) LoadToken(ctx context.Context) (*TokenRecord, error) {
	var rec TokenRecord
	err := s.db.GetContext(ctx, &rec,
		`SELECT installation_id, token, registered, updated_at FROM installation WHERE id = 1`)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("error loading token: %w", err)
	}
	if rec.Token == "" {
		return nil, ErrNotFound
	}
	return &rec, nil
}

// SaveToken stores token as the installation's only token. Saving a
// different value clears the registered flag.
func (s *SQLiteStore) SaveToken(ctx context.Context, token string) error {
	if _, err := s.InstallationID(ctx); err != nil {
		return err
	}

	_, err := s.db.ExecContext(ctx, `
		UPDATE installation
		SET registered = CASE WHEN token = ? THEN registered ELSE 0 END,
		    token = ?,
		    updated_at = ?
		WHERE id = 1`,
		token, token, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("error saving token: %w", err)
	}
	return nil
}

// MarkRegistered flags token as registered if it is still the stored one.
func (s *SQLiteStore) MarkRegistered(ctx context.Context, token string) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE installation SET registered = 1, updated_at = ? WHERE id = 1 AND token = ?`,
		time.Now().UTC(), token)
	if err != nil {
		return fmt.Errorf("error marking token registered: %w", err)
	}
	return nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
