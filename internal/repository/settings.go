// Package repository contains persistence for the settings document.
// Implementations live in subpackages (file, postgres) and contain no business logic.
package repository

import (
	"context"
	"errors"

	"treatviz/internal/model"
)

// ErrSettingsNotFound is returned by Load when nothing has been persisted yet.
var ErrSettingsNotFound = errors.New("settings not found")

// SettingsRepository persists the whole settings object. Save replaces the
// stored object; there are no partial updates.
type SettingsRepository interface {
	// Ensure idempotently prepares the backing storage (directories, tables).
	Ensure(ctx context.Context) error

	// Load returns the stored settings decoded over the defaults.
	// It returns ErrSettingsNotFound if nothing is stored and a decode error
	// if the stored payload is not a JSON object.
	Load(ctx context.Context) (*model.Settings, error)

	// Save serializes and replaces the stored settings.
	Save(ctx context.Context, s *model.Settings) error

	// Ping checks that the backing storage is reachable.
	Ping(ctx context.Context) error
}
