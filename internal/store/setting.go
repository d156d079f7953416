package store

import (
	"context"
	"database/sql"
)

// SettingRepository handles persistence for site-wide key/value settings.
type SettingRepository struct {
	db *sql.DB
}

func NewSettingRepository(db *sql.DB) *SettingRepository {
	return &SettingRepository{db: db}
}

func (r *SettingRepository) All(ctx context.Context) (map[string]string, error) {
	const query = `SELECT setting_key, setting_value FROM site_settings ORDER BY setting_key`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	settings := make(map[string]string)
	for rows.Next() {
		var key, value string
		if err := rows.Scan(&key, &value); err != nil {
			return nil, err
		}
		settings[key] = value
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return settings, nil
}

func (r *SettingRepository) Count(ctx context.Context) (int, error) {
	var count int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(1) FROM site_settings`).Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}

// Upsert writes every pair in one transaction, replacing existing values.
func (r *SettingRepository) Upsert(ctx context.Context, settings map[string]string) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		_ = tx.Rollback()
	}()

	const query = `
		INSERT INTO site_settings (setting_key, setting_value)
		VALUES ($1, $2)
		ON CONFLICT (setting_key) DO UPDATE SET setting_value = EXCLUDED.setting_value`
	for key, value := range settings {
		if _, err := tx.ExecContext(ctx, query, key, value); err != nil {
			return err
		}
	}
	return tx.Commit()
}
