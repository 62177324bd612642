package mocks

import (
	"context"

	"treatviz/internal/model"
	"github.com/stretchr/testify/mock"
)

type MockSettingsService struct {
	mock.Mock
}

func (m *MockSettingsService) EnsureStorage(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockSettingsService) Read(ctx context.Context) model.Settings {
	args := m.Called(ctx)
	return args.Get(0).(model.Settings)
}

func (m *MockSettingsService) Write(ctx context.Context, s model.Settings) error {
	args := m.Called(ctx, s)
	return args.Error(0)
}

func (m *MockSettingsService) UpdatePrompts(ctx context.Context, patch model.PromptsPatch) (model.Settings, error) {
	args := m.Called(ctx, patch)
	return args.Get(0).(model.Settings), args.Error(1)
}

func (m *MockSettingsService) AppendDocument(ctx context.Context, doc model.Document) error {
	args := m.Called(ctx, doc)
	return args.Error(0)
}

func (m *MockSettingsService) Ping(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}
