package repository

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/jkoster/folio-backend/internal/apperrors"
)

// SettingRepository provides data access methods for the system_setting table.
type SettingRepository struct {
	db *sql.DB
}

// NewSettingRepository creates a new SettingRepository with the provided database connection.
func NewSettingRepository(db *sql.DB) *SettingRepository {
	return &SettingRepository{db: db}
}

// Get returns the value stored under key.
func (s *SettingRepository) Get(key string) (string, error) {
	var value string

	err := s.db.QueryRow(`SELECT value FROM system_setting WHERE "key" = ?`, key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", apperrors.ErrSettingNotFound
	}
	if err != nil {
		return "", fmt.Errorf("failed to query system_setting: %w", err)
	}

	return value, nil
}

// Set inserts or overwrites the value stored under key.
func (s *SettingRepository) Set(key, value string) error {
	query := `
		INSERT INTO system_setting ("key", value, updated_at)
		VALUES (?, ?, ?)
		ON CONFLICT("key") DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at
	`

	_, err := s.db.Exec(query, key, value, time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("failed to upsert system_setting: %w", err)
	}

	return nil
}
