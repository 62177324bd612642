package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"treatviz/internal/model"
	"treatviz/internal/repository"
)

// SettingsService reads and writes the settings object as a whole.
type SettingsService interface {
	// EnsureStorage idempotently prepares the settings backend. Safe to call on every request.
	EnsureStorage(ctx context.Context) error

	// Read returns the persisted settings merged over the defaults.
	// It never fails: a missing or unreadable store yields the defaults.
	Read(ctx context.Context) model.Settings

	// Write replaces the persisted settings.
	Write(ctx context.Context, s model.Settings) error

	// UpdatePrompts applies a partial prompt override and returns the merged settings.
	UpdatePrompts(ctx context.Context, patch model.PromptsPatch) (model.Settings, error)

	// AppendDocument adds a record to the end of the document list.
	AppendDocument(ctx context.Context, doc model.Document) error

	// Ping checks the settings backend.
	Ping(ctx context.Context) error
}

type settingsService struct {
	repo repository.SettingsRepository
	log  *slog.Logger

	// mu serializes read-modify-write cycles within the process.
	mu sync.Mutex
}

// NewSettingsService constructs a SettingsService over repo.
func NewSettingsService(repo repository.SettingsRepository, log *slog.Logger) SettingsService {
	if log == nil {
		log = slog.Default()
	}
	return &settingsService{repo: repo, log: log}
}

func (s *settingsService) EnsureStorage(ctx context.Context) error {
	if err := s.repo.Ensure(ctx); err != nil {
		return fmt.Errorf("ensure settings storage: %w", err)
	}
	return nil
}

func (s *settingsService) Read(ctx context.Context) model.Settings {
	stored, err := s.repo.Load(ctx)
	if err != nil {
		if !errors.Is(err, repository.ErrSettingsNotFound) {
			s.log.WarnContext(ctx, "settings_unreadable_using_defaults", "error", err)
		}
		return model.DefaultSettings()
	}
	if stored == nil {
		return model.DefaultSettings()
	}
	out := stored.Clone()
	if n := out.SkippedDocuments(); n > 0 {
		s.log.WarnContext(ctx, "settings_documents_skipped", "count", n)
	}
	if out.Documents == nil {
		out.Documents = []model.Document{}
	}
	return out
}

func (s *settingsService) Write(ctx context.Context, st model.Settings) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.save(ctx, st)
}

func (s *settingsService) save(ctx context.Context, st model.Settings) error {
	if st.Documents == nil {
		st.Documents = []model.Document{}
	}
	if err := s.repo.Save(ctx, &st); err != nil {
		return fmt.Errorf("write settings: %w", err)
	}
	return nil
}

func (s *settingsService) UpdatePrompts(ctx context.Context, patch model.PromptsPatch) (model.Settings, error) {
	if err := s.EnsureStorage(ctx); err != nil {
		return model.Settings{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	st := s.Read(ctx)
	st.Prompts = st.Prompts.Apply(patch)
	if err := s.save(ctx, st); err != nil {
		return model.Settings{}, err
	}
	return st, nil
}

func (s *settingsService) AppendDocument(ctx context.Context, doc model.Document) error {
	if err := s.EnsureStorage(ctx); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	st := s.Read(ctx)
	st.Documents = append(st.Documents, doc)
	return s.save(ctx, st)
}

func (s *settingsService) Ping(ctx context.Context) error {
	return s.repo.Ping(ctx)
}
