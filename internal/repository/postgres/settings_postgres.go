package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"

	"treatviz/internal/model"
	"treatviz/internal/repository"
)

// SettingsPostgres is a PostgreSQL implementation of repository.SettingsRepository.
// The whole settings object lives as JSONB in the single row of app_settings.
type SettingsPostgres struct {
	db *sql.DB
	sq sq.StatementBuilderType
}

const (
	settingsTable = "app_settings"
	settingsRowID = 1
)

// NewSettingsPostgres creates a new SettingsPostgres repository.
func NewSettingsPostgres(db *sql.DB) *SettingsPostgres {
	return &SettingsPostgres{db: db, sq: sq.StatementBuilder.PlaceholderFormat(sq.Dollar)}
}

var _ repository.SettingsRepository = (*SettingsPostgres)(nil)

// Ensure is a no-op; the schema is created by migration.EnsureMigrated at startup.
func (r *SettingsPostgres) Ensure(ctx context.Context) error {
	return nil
}

// Load fetches the settings row and decodes it over the defaults.
func (r *SettingsPostgres) Load(ctx context.Context) (*model.Settings, error) {
	q, args, err := r.sq.Select("data").From(settingsTable).Where(sq.Eq{"id": settingsRowID}).ToSql()
	if err != nil {
		return nil, fmt.Errorf("build settings query: %w", err)
	}
	var data []byte
	if err := r.db.QueryRowContext(ctx, q, args...).Scan(&data); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrSettingsNotFound
		}
		return nil, err
	}
	s, err := model.ParseSettings(data)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// Save upserts the settings row.
func (r *SettingsPostgres) Save(ctx context.Context, s *model.Settings) error {
	data, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("encode settings: %w", err)
	}
	q, args, err := r.sq.Insert(settingsTable).
		Columns("id", "data", "updated_at").
		Values(settingsRowID, data, time.Now().UTC()).
		Suffix("ON CONFLICT (id) DO UPDATE SET data = EXCLUDED.data, updated_at = EXCLUDED.updated_at").
		ToSql()
	if err != nil {
		return fmt.Errorf("build settings upsert: %w", err)
	}
	if _, err := r.db.ExecContext(ctx, q, args...); err != nil {
		return err
	}
	return nil
}

// Ping checks database connectivity.
func (r *SettingsPostgres) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}
