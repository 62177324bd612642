package handler

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"treatviz/internal/model"
	"treatviz/internal/service"
)

// documentsFormField is the multipart field carrying uploaded documents.
const documentsFormField = "documents"

type documentsResponse struct {
	Documents []model.Document `json:"documents"`
}

// ListDocuments returns every document record in insertion order.
//
// @Summary List documents
// @Tags documents
// @Produce json
// @Success 200 {object} documentsResponse
// @Failure 500 {object} errorPayload
// @Router /api/documents [get]
func ListDocuments(settings service.SettingsService, svc service.DocumentService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if err := settings.EnsureStorage(c.UserContext()); err != nil {
			return writeError(c, fiber.StatusInternalServerError, "STORAGE_ERROR", "settings storage unavailable")
		}
		docs := svc.List(c.UserContext())
		if docs == nil {
			docs = []model.Document{}
		}
		return c.JSON(documentsResponse{Documents: docs})
	}
}

// UploadDocuments ingests one or more files from the "documents" field.
// Files that fail to ingest are left out of the response; the request only
// fails when none succeed.
//
// @Summary Upload documents
// @Tags documents
// @Accept mpfd
// @Produce json
// @Param documents formData file true "plain text or PDF files"
// @Success 201 {object} documentsResponse
// @Failure 400 {object} errorPayload
// @Router /api/documents [post]
func UploadDocuments(svc service.DocumentService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		form, err := c.MultipartForm()
		if err != nil || len(form.File[documentsFormField]) == 0 {
			return writeError(c, fiber.StatusBadRequest, "DOCUMENTS_REQUIRED", "No documents uploaded.")
		}

		saved := []model.Document{}
		var lastErr error
		for _, fh := range form.File[documentsFormField] {
			f, err := fh.Open()
			if err != nil {
				lastErr = err
				continue
			}
			ct := fh.Header.Get("Content-Type")
			if ct == "" {
				ct = "application/octet-stream"
			}
			doc, err := svc.Ingest(c.UserContext(), f, fh.Filename, ct, fh.Size)
			f.Close()
			if err != nil {
				lastErr = err
				continue
			}
			saved = append(saved, *doc)
		}

		if len(saved) == 0 && lastErr != nil {
			return writeError(c, fiber.StatusInternalServerError, "INGEST_FAILED", "could not store the uploaded documents")
		}
		return c.Status(fiber.StatusCreated).JSON(documentsResponse{Documents: saved})
	}
}

// GetDocument returns a single document record.
//
// @Summary Get document
// @Tags documents
// @Produce json
// @Param id path string true "document id"
// @Success 200 {object} model.Document
// @Failure 404 {object} errorPayload
// @Router /api/documents/{id} [get]
func GetDocument(svc service.DocumentService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("id")
		if _, err := uuid.Parse(id); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_ID", "invalid id format")
		}
		doc, err := svc.Get(c.UserContext(), id)
		if err != nil {
			return writeDocumentError(c, err)
		}
		return c.JSON(doc)
	}
}

// GetDocumentText returns the extracted text of a document.
//
// @Summary Get extracted document text
// @Tags documents
// @Produce json
// @Param id path string true "document id"
// @Success 200 {object} model.DocumentText
// @Failure 404 {object} errorPayload
// @Router /api/documents/{id}/text [get]
func GetDocumentText(svc service.DocumentService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("id")
		if _, err := uuid.Parse(id); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_ID", "invalid id format")
		}
		text, err := svc.Text(c.UserContext(), id)
		if err != nil {
			return writeDocumentError(c, err)
		}
		return c.JSON(text)
	}
}

func writeDocumentError(c *fiber.Ctx, err error) error {
	if errors.Is(err, service.ErrNotFound) {
		return writeError(c, fiber.StatusNotFound, "NOT_FOUND", "document not found")
	}
	return writeError(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
}
