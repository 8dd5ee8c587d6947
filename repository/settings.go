package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	gateway "github.com/goliatone/go-gateway"
	"github.com/uptrace/bun"
)

// SettingModel is the Bun model for persisted shell state: session
// token, cached user, auto-login flag and display preferences.
type SettingModel struct {
	bun.BaseModel `bun:"table:gateway_settings"`

	Key       string    `bun:"key,pk"`
	Value     string    `bun:"value,notnull"`
	UpdatedAt time.Time `bun:"updated_at,default:current_timestamp"`
}

// SettingsStore implements gateway.Store on a Bun database, giving the
// shell a session that survives restarts.
type SettingsStore struct {
	db *bun.DB
}

var _ gateway.Store = (*SettingsStore)(nil)

// NewSettingsStore creates a new store.
func NewSettingsStore(db *bun.DB) *SettingsStore {
	return &SettingsStore{db: db}
}

// Get implements gateway.Store.
func (s *SettingsStore) Get(ctx context.Context, key string) (string, error) {
	var model SettingModel
	err := s.db.NewSelect().
		Model(&model).
		Where("key = ?", key).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", gateway.ErrKeyNotFound
		}
		return "", err
	}
	return model.Value, nil
}

// Set implements gateway.Store.
func (s *SettingsStore) Set(ctx context.Context, key, value string) error {
	model := &SettingModel{
		Key:       key,
		Value:     value,
		UpdatedAt: time.Now(),
	}

	_, err := s.db.NewInsert().
		Model(model).
		On("CONFLICT (key) DO UPDATE").
		Set("value = EXCLUDED.value").
		Set("updated_at = EXCLUDED.updated_at").
		Exec(ctx)

	return err
}

// Delete implements gateway.Store. Deleting an absent key is not an error.
func (s *SettingsStore) Delete(ctx context.Context, key string) error {
	_, err := s.db.NewDelete().
		Model((*SettingModel)(nil)).
		Where("key = ?", key).
		Exec(ctx)
	return err
}
