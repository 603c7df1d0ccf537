package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
)

// SettingStore defines the interface for key/value settings.
type SettingStore interface {
	// Get decodes the value for key into dst. It reports false if the key is unset.
	Get(ctx context.Context, key string, dst any) (bool, error)
	// Set stores value, which must be JSON serializable, under key.
	Set(ctx context.Context, key string, value any) error
	// All returns every setting as raw JSON.
	All(ctx context.Context) (map[string]json.RawMessage, error)
}

// SettingRepo stores settings as JSON documents.
type SettingRepo struct {
	db *sql.DB
}

// NewSettingRepo creates a new SettingRepo.
func NewSettingRepo(db *sql.DB) *SettingRepo {
	return &SettingRepo{db: db}
}

// Get loads a setting into dst.
func (r *SettingRepo) Get(ctx context.Context, key string, dst any) (bool, error) {
	var raw sql.NullString
	err := r.db.QueryRowContext(ctx, "SELECT value FROM settings WHERE key = ?", key).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to query setting %s: %w", key, err)
	}
	if !raw.Valid || raw.String == "" || raw.String == "null" {
		return false, nil
	}
	if err := json.Unmarshal([]byte(raw.String), dst); err != nil {
		return false, fmt.Errorf("failed to decode setting %s: %w", key, err)
	}
	return true, nil
}

// Set stores a setting. A nil value stores JSON null, which Get reports as unset.
func (r *SettingRepo) Set(ctx context.Context, key string, value any) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to encode setting %s: %w", key, err)
	}
	_, err = r.db.ExecContext(ctx,
		"INSERT INTO settings (key, value) VALUES (?, ?) ON CONFLICT (key) DO UPDATE SET value = excluded.value",
		key, string(data),
	)
	if err != nil {
		return fmt.Errorf("failed to store setting %s: %w", key, err)
	}
	return nil
}

// All returns every stored setting.
func (r *SettingRepo) All(ctx context.Context) (map[string]json.RawMessage, error) {
	rows, err := r.db.QueryContext(ctx, "SELECT key, value FROM settings ORDER BY key")
	if err != nil {
		return nil, fmt.Errorf("failed to query settings: %w", err)
	}
	defer func() {
		_ = rows.Close()
	}()

	settings := make(map[string]json.RawMessage)
	for rows.Next() {
		var (
			key string
			raw sql.NullString
		)
		if err := rows.Scan(&key, &raw); err != nil {
			return nil, fmt.Errorf("failed to scan setting: %w", err)
		}
		if !raw.Valid {
			raw.String = "null"
		}
		settings[key] = json.RawMessage(raw.String)
	}
	return settings, rows.Err()
}
