package mocks

import (
	"context"

	"treatviz/internal/service"
	"github.com/stretchr/testify/mock"
)

type MockImagingService struct {
	mock.Mock
}

func (m *MockImagingService) Edit(ctx context.Context, img service.ImageInput, prompt, preset string) (string, error) {
	args := m.Called(ctx, img, prompt, preset)
	return args.String(0), args.Error(1)
}

func (m *MockImagingService) Analyze(ctx context.Context, img service.ImageInput, documentIDs []string) (string, error) {
	args := m.Called(ctx, img, documentIDs)
	return args.String(0), args.Error(1)
}
