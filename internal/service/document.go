package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"

	"treatviz/internal/extract"
	"treatviz/internal/model"
	"treatviz/internal/storage"
)

var (
	ErrIDRequired = errors.New("id is required")
	ErrNotFound   = errors.New("document not found")
	ErrReaderNil  = errors.New("reader is nil")
)

// textPrefix is the blob key prefix for extracted document text.
const textPrefix = "docs"

// DocumentService ingests documents and serves their extracted text as
// retrieval context.
type DocumentService interface {
	// Ingest extracts text from the upload, stores it as a blob and appends a
	// record to the settings. Extraction problems never fail ingestion; they are
	// recorded on the returned document. If the record cannot be appended the
	// text blob is removed again.
	Ingest(ctx context.Context, r io.Reader, name, mimeType string, size int64) (*model.Document, error)

	// List returns all document records in insertion order.
	List(ctx context.Context) []model.Document

	// Get returns a single record by ID.
	Get(ctx context.Context, id string) (*model.Document, error)

	// Text returns the extracted text of one document.
	Text(ctx context.Context, id string) (*model.DocumentText, error)

	// LoadTexts returns the text of the documents whose IDs are in ids, in
	// settings order. Unknown IDs and unreadable blobs are skipped.
	LoadTexts(ctx context.Context, ids []string) []model.DocumentText

	// LoadAllTexts is LoadTexts over every known document.
	LoadAllTexts(ctx context.Context) []model.DocumentText
}

type documentService struct {
	store     storage.Storage
	settings  SettingsService
	extractor extract.Extractor
	log       *slog.Logger
	now       func() time.Time
}

// NewDocumentService constructs a new DocumentService.
func NewDocumentService(store storage.Storage, settings SettingsService, extractor extract.Extractor, log *slog.Logger) DocumentService {
	if extractor == nil {
		extractor = extract.New()
	}
	if log == nil {
		log = slog.Default()
	}
	return &documentService{
		store:     store,
		settings:  settings,
		extractor: extractor,
		log:       log,
		now:       time.Now,
	}
}

func (s *documentService) Ingest(ctx context.Context, r io.Reader, name, mimeType string, size int64) (*model.Document, error) {
	if r == nil {
		return nil, ErrReaderNil
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read upload: %w", err)
	}
	if size <= 0 {
		size = int64(len(data))
	}

	id := uuid.New().String()
	res := s.extractor.Extract(data, mimeType)
	switch res.Status {
	case model.ExtractionFailed:
		s.log.WarnContext(ctx, "text_extraction_failed", "document_id", id, "name", name, "mime", mimeType, "error", res.Err)
	case model.ExtractionUnsupported:
		s.log.InfoContext(ctx, "document_type_unsupported", "document_id", id, "name", name, "mime", mimeType)
	}

	key := path.Join(textPrefix, id+".txt")
	obj, err := s.store.Put(ctx, key, strings.NewReader(res.Text), storage.PutObjectOptions{
		Size:        int64(len(res.Text)),
		ContentType: "text/plain; charset=utf-8",
		Metadata: map[string]string{
			"document-id":       id,
			"original-filename": name,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("store text: %w", err)
	}
	if obj.Key != "" {
		key = obj.Key
	}

	doc := model.Document{
		ID:         id,
		Name:       name,
		Size:       size,
		MIME:       mimeType,
		TextPath:   key,
		UploadedAt: s.now().UTC(),
		Extraction: res.Status,
	}
	if err := s.settings.AppendDocument(ctx, doc); err != nil {
		if delErr := s.store.Delete(ctx, key); delErr != nil {
			return nil, fmt.Errorf("append document failed: %v; rollback delete failed: %v", err, delErr)
		}
		return nil, fmt.Errorf("append document failed: %w", err)
	}
	return &doc, nil
}

func (s *documentService) List(ctx context.Context) []model.Document {
	return s.settings.Read(ctx).Documents
}

func (s *documentService) Get(ctx context.Context, id string) (*model.Document, error) {
	if id == "" {
		return nil, ErrIDRequired
	}
	for _, d := range s.settings.Read(ctx).Documents {
		if d.ID == id {
			doc := d
			return &doc, nil
		}
	}
	return nil, ErrNotFound
}

func (s *documentService) Text(ctx context.Context, id string) (*model.DocumentText, error) {
	doc, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	text, err := s.readText(ctx, doc.TextPath)
	if err != nil {
		return nil, fmt.Errorf("read text of %s: %w", id, err)
	}
	return &model.DocumentText{ID: doc.ID, Name: doc.Name, Text: text}, nil
}

func (s *documentService) LoadTexts(ctx context.Context, ids []string) []model.DocumentText {
	want := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		want[id] = struct{}{}
	}
	return s.load(ctx, func(d model.Document) bool {
		_, ok := want[d.ID]
		return ok
	})
}

func (s *documentService) LoadAllTexts(ctx context.Context) []model.DocumentText {
	return s.load(ctx, func(model.Document) bool { return true })
}

func (s *documentService) load(ctx context.Context, keep func(model.Document) bool) []model.DocumentText {
	out := []model.DocumentText{}
	for _, d := range s.settings.Read(ctx).Documents {
		if !keep(d) {
			continue
		}
		text, err := s.readText(ctx, d.TextPath)
		if err != nil {
			s.log.WarnContext(ctx, "document_text_unreadable", "document_id", d.ID, "text_path", d.TextPath, "error", err)
			continue
		}
		out = append(out, model.DocumentText{ID: d.ID, Name: d.Name, Text: text})
	}
	return out
}

func (s *documentService) readText(ctx context.Context, key string) (string, error) {
	rc, _, err := s.store.Get(ctx, key)
	if err != nil {
		return "", err
	}
	defer rc.Close()
	b, err := io.ReadAll(rc)
	if err != nil {
		return "", err
	}
	return string(b), nil
}
