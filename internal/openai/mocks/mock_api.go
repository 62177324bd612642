package mocks

import (
	"context"

	"treatviz/internal/openai"

	"github.com/stretchr/testify/mock"
)

type MockAPI struct {
	mock.Mock
}

func (m *MockAPI) Configured() bool {
	args := m.Called()
	return args.Bool(0)
}

func (m *MockAPI) EditImage(ctx context.Context, req openai.EditRequest) ([]byte, error) {
	args := m.Called(ctx, req)
	b, _ := args.Get(0).([]byte)
	return b, args.Error(1)
}

func (m *MockAPI) Complete(ctx context.Context, req openai.ChatRequest) (string, error) {
	args := m.Called(ctx, req)
	return args.String(0), args.Error(1)
}
