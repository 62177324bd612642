package service

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"treatviz/internal/extract"
	"treatviz/internal/logging"
	"treatviz/internal/model"
	"treatviz/internal/repository"
	"treatviz/internal/repository/file"
	repoMocks "treatviz/internal/repository/mocks"
	"treatviz/internal/storage"
	storeMocks "treatviz/internal/storage/mocks"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	dir      string
	settings SettingsService
	store    storage.Storage
	docs     DocumentService
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	dir := t.TempDir()
	settings := NewSettingsService(file.NewSettingsFile(dir), logging.Discard())
	store, err := storage.NewLocal(dir)
	require.NoError(t, err)
	return fixture{
		dir:      dir,
		settings: settings,
		store:    store,
		docs:     NewDocumentService(store, settings, extract.New(), logging.Discard()),
	}
}

func TestDocumentService_Ingest_PlainText(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	doc, err := f.docs.Ingest(ctx, strings.NewReader("hello"), "notes.txt", "text/plain", 5)
	require.NoError(t, err)

	assert.NotEmpty(t, doc.ID)
	assert.Equal(t, "notes.txt", doc.Name)
	assert.Equal(t, "text/plain", doc.MIME)
	assert.Equal(t, int64(5), doc.Size)
	assert.Equal(t, "docs/"+doc.ID+".txt", doc.TextPath)
	assert.Equal(t, model.ExtractionOK, doc.Extraction)
	assert.Equal(t, time.UTC, doc.UploadedAt.Location())

	b, err := os.ReadFile(filepath.Join(f.dir, "docs", doc.ID+".txt"))
	require.NoError(t, err)
	assert.Equal(t, "hello", string(b))

	all := f.docs.LoadAllTexts(ctx)
	assert.Equal(t, []model.DocumentText{{ID: doc.ID, Name: "notes.txt", Text: "hello"}}, all)
	assert.Equal(t, []model.Document{*doc}, f.docs.List(ctx))
}

func TestDocumentService_Ingest_Extraction(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name       string
		body       string
		mime       string
		wantText   string
		wantStatus string
	}{
		{name: "utf-8 text", body: "Varixy a žilní nedostatečnost", mime: "text/plain; charset=utf-8", wantText: "Varixy a žilní nedostatečnost", wantStatus: model.ExtractionOK},
		{name: "malformed pdf still ingests", body: "%PDF-1.7 garbage", mime: "application/pdf", wantText: "", wantStatus: model.ExtractionFailed},
		{name: "unsupported type still ingests", body: "<p>hi</p>", mime: "text/html", wantText: "", wantStatus: model.ExtractionUnsupported},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			doc, err := f.docs.Ingest(ctx, strings.NewReader(tt.body), "file", tt.mime, 0)
			require.NoError(t, err)
			assert.Equal(t, tt.wantStatus, doc.Extraction)
			assert.Equal(t, int64(len(tt.body)), doc.Size)

			text, err := f.docs.Text(ctx, doc.ID)
			require.NoError(t, err)
			assert.Equal(t, tt.wantText, text.Text)
		})
	}
}

func TestDocumentService_Ingest_NilReader(t *testing.T) {
	svc := NewDocumentService(nil, nil, nil, logging.Discard())
	_, err := svc.Ingest(context.Background(), nil, "a.txt", "text/plain", 0)
	assert.ErrorIs(t, err, ErrReaderNil)
}

func failSave(m *repoMocks.MockSettingsRepository, ctx context.Context) {
	m.On("Ensure", ctx).Return(nil)
	m.On("Load", ctx).Return(nil, repository.ErrSettingsNotFound)
	m.On("Save", ctx, mock.Anything).Return(errors.New("settings fail"))
}

func TestDocumentService_Ingest_Failures(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name       string
		setupMocks func(mStore *storeMocks.MockStorage, mRepo *repoMocks.MockSettingsRepository)
		wantErrMsg string
	}{
		{
			name: "storage error",
			setupMocks: func(mStore *storeMocks.MockStorage, mRepo *repoMocks.MockSettingsRepository) {
				mStore.On("Put", ctx, mock.Anything, mock.Anything, mock.Anything).
					Return(storage.ObjectInfo{}, errors.New("disk full"))
			},
			wantErrMsg: "store text: disk full",
		},
		{
			name: "append error with successful rollback",
			setupMocks: func(mStore *storeMocks.MockStorage, mRepo *repoMocks.MockSettingsRepository) {
				mStore.On("Put", ctx, mock.MatchedBy(func(key string) bool {
					return strings.HasPrefix(key, "docs/") && strings.HasSuffix(key, ".txt")
				}), mock.Anything, mock.Anything).
					Return(func(ctx context.Context, key string, r io.Reader, opt storage.PutObjectOptions) storage.ObjectInfo {
						return storage.ObjectInfo{Key: key}
					}, nil)
				failSave(mRepo, ctx)
				mStore.On("Delete", ctx, mock.MatchedBy(func(key string) bool {
					return strings.HasPrefix(key, "docs/")
				})).Return(nil)
			},
			wantErrMsg: "append document failed: write settings: settings fail",
		},
		{
			name: "append error with failed rollback",
			setupMocks: func(mStore *storeMocks.MockStorage, mRepo *repoMocks.MockSettingsRepository) {
				mStore.On("Put", ctx, mock.Anything, mock.Anything, mock.Anything).
					Return(func(ctx context.Context, key string, r io.Reader, opt storage.PutObjectOptions) storage.ObjectInfo {
						return storage.ObjectInfo{Key: key}
					}, nil)
				failSave(mRepo, ctx)
				mStore.On("Delete", ctx, mock.Anything).Return(errors.New("delete fail"))
			},
			wantErrMsg: "rollback delete failed: delete fail",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mStore := new(storeMocks.MockStorage)
			mRepo := new(repoMocks.MockSettingsRepository)
			tt.setupMocks(mStore, mRepo)
			settings := NewSettingsService(mRepo, logging.Discard())
			svc := NewDocumentService(mStore, settings, extract.New(), logging.Discard())

			doc, err := svc.Ingest(ctx, strings.NewReader("hello"), "a.txt", "text/plain", 5)

			assert.Nil(t, doc)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErrMsg)
			mStore.AssertExpectations(t)
			mRepo.AssertExpectations(t)
		})
	}
}

func TestDocumentService_Get(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	doc, err := f.docs.Ingest(ctx, strings.NewReader("x"), "a.txt", "text/plain", 1)
	require.NoError(t, err)

	got, err := f.docs.Get(ctx, doc.ID)
	require.NoError(t, err)
	assert.Equal(t, doc, got)

	_, err = f.docs.Get(ctx, "")
	assert.ErrorIs(t, err, ErrIDRequired)

	_, err = f.docs.Get(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = f.docs.Text(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDocumentService_LoadTexts(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	a, err := f.docs.Ingest(ctx, strings.NewReader("alpha"), "a.txt", "text/plain", 5)
	require.NoError(t, err)
	b, err := f.docs.Ingest(ctx, strings.NewReader("beta"), "b.txt", "text/plain", 4)
	require.NoError(t, err)
	c, err := f.docs.Ingest(ctx, strings.NewReader("gamma"), "c.txt", "text/plain", 5)
	require.NoError(t, err)

	t.Run("settings order regardless of id order", func(t *testing.T) {
		got := f.docs.LoadTexts(ctx, []string{c.ID, a.ID})
		require.Len(t, got, 2)
		assert.Equal(t, a.ID, got[0].ID)
		assert.Equal(t, c.ID, got[1].ID)
	})

	t.Run("unknown id is omitted", func(t *testing.T) {
		got := f.docs.LoadTexts(ctx, []string{"nope", b.ID})
		assert.Equal(t, []model.DocumentText{{ID: b.ID, Name: "b.txt", Text: "beta"}}, got)
	})

	t.Run("no ids yields empty", func(t *testing.T) {
		assert.Empty(t, f.docs.LoadTexts(ctx, nil))
	})

	t.Run("unreadable blob is skipped", func(t *testing.T) {
		require.NoError(t, os.Remove(filepath.Join(f.dir, b.TextPath)))
		got := f.docs.LoadAllTexts(ctx)
		require.Len(t, got, 2)
		assert.Equal(t, "alpha", got[0].Text)
		assert.Equal(t, "gamma", got[1].Text)
	})
}

func TestDocumentService_LoadAllTexts_AbsoluteTextPath(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	require.NoError(t, f.settings.EnsureStorage(ctx))

	legacy := filepath.Join(f.dir, "legacy.txt")
	require.NoError(t, os.WriteFile(legacy, []byte("old text"), 0o644))
	require.NoError(t, f.settings.AppendDocument(ctx, model.Document{ID: "old", Name: "old.txt", TextPath: legacy}))

	assert.Equal(t, []model.DocumentText{{ID: "old", Name: "old.txt", Text: "old text"}}, f.docs.LoadAllTexts(ctx))
}

func TestDocumentService_Ingest_KeepsEarlierRecords(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	stored := `{"prompts":{"week4":"w4"},"documents":[
		{"id":"1","name":"one.txt","size":3,"mime":"text/plain","textPath":"docs/1.txt","uploadedAt":"2025-01-01T00:00:00.000Z"},
		{"id":"2","name":"two.txt","size":"3","mime":"text/plain","textPath":"docs/2.txt","uploadedAt":"2025-01-02T00:00:00.000Z"},
		{"id":3,"name":"broken"}
	]}`
	path := filepath.Join(f.dir, file.SettingsFileName)
	require.NoError(t, os.WriteFile(path, []byte(stored), 0o644))

	doc, err := f.docs.Ingest(ctx, strings.NewReader("hello"), "notes.txt", "text/plain", 5)
	require.NoError(t, err)

	docs := f.docs.List(ctx)
	require.Len(t, docs, 3)
	assert.Equal(t, "1", docs[0].ID)
	assert.Equal(t, "2", docs[1].ID)
	assert.Equal(t, int64(3), docs[1].Size)
	assert.Equal(t, doc.ID, docs[2].ID)
	assert.Equal(t, "w4", f.settings.Read(ctx).Prompts.Week4)

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"name": "broken"`)
}
