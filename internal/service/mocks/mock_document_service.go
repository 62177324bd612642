package mocks

import (
	"context"
	"io"

	"treatviz/internal/model"
	"github.com/stretchr/testify/mock"
)

type MockDocumentService struct {
	mock.Mock
}

func (m *MockDocumentService) Ingest(ctx context.Context, r io.Reader, name, mimeType string, size int64) (*model.Document, error) {
	args := m.Called(ctx, r, name, mimeType, size)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Document), args.Error(1)
}

func (m *MockDocumentService) List(ctx context.Context) []model.Document {
	args := m.Called(ctx)
	docs, _ := args.Get(0).([]model.Document)
	return docs
}

func (m *MockDocumentService) Get(ctx context.Context, id string) (*model.Document, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Document), args.Error(1)
}

func (m *MockDocumentService) Text(ctx context.Context, id string) (*model.DocumentText, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.DocumentText), args.Error(1)
}

func (m *MockDocumentService) LoadTexts(ctx context.Context, ids []string) []model.DocumentText {
	args := m.Called(ctx, ids)
	texts, _ := args.Get(0).([]model.DocumentText)
	return texts
}

func (m *MockDocumentService) LoadAllTexts(ctx context.Context) []model.DocumentText {
	args := m.Called(ctx)
	texts, _ := args.Get(0).([]model.DocumentText)
	return texts
}
