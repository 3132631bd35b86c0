package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/fekuna/chronostore/internal/model"
	"github.com/jmoiron/sqlx"
)

const schema = `
CREATE TABLE IF NOT EXISTS store_settings (
    id         TEXT PRIMARY KEY,
    data       JSONB NOT NULL,
    updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
)`

type settingsRow struct {
	ID   string `db:"id"`
	Data []byte `db:"data"`
}

type PGRepository struct {
	DB *sqlx.DB
}

func NewPGRepository(db *sqlx.DB) *PGRepository {
	return &PGRepository{DB: db}
}

func (r *PGRepository) EnsureSchema(ctx context.Context) error {
	_, err := r.DB.ExecContext(ctx, schema)
	return err
}

func (r *PGRepository) Fetch(ctx context.Context) (*model.Settings, error) {
	var row settingsRow
	query := `SELECT id, data FROM store_settings WHERE id = $1 LIMIT 1`
	err := r.DB.GetContext(ctx, &row, query, model.SettingsKey)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}

	var s model.Settings
	if err := json.Unmarshal(row.Data, &s); err != nil {
		return nil, fmt.Errorf("decode store_settings: %w", err)
	}
	return &s, nil
}

func (r *PGRepository) Save(ctx context.Context, s model.Settings) error {
	data, err := json.Marshal(s)
	if err != nil {
		return err
	}
	query := `
        INSERT INTO store_settings (id, data, updated_at)
        VALUES (:id, :data, now())
        ON CONFLICT (id) DO UPDATE SET data = EXCLUDED.data, updated_at = now()
    `
	_, err = r.DB.NamedExecContext(ctx, query, settingsRow{ID: model.SettingsKey, Data: data})
	return err
}
