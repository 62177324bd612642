package handler

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"strings"

	"github.com/gofiber/fiber/v2"

	"treatviz/internal/openai"
	"treatviz/internal/service"
)

type editImageResponse struct {
	Image string `json:"image"`
}

type analyzeResponse struct {
	Assessment string `json:"assessment"`
}

// EditImage edits the uploaded photo per prompt, or per a stored preset when
// prompt is empty.
//
// @Summary Edit image
// @Tags imaging
// @Accept mpfd
// @Produce json
// @Param image formData file true "PNG or JPEG photo"
// @Param prompt formData string false "edit instruction"
// @Param preset formData string false "week4, week8 or week12"
// @Success 200 {object} editImageResponse
// @Failure 400 {object} errorPayload
// @Failure 502 {object} errorPayload
// @Router /api/edit-image [post]
func EditImage(svc service.ImagingService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		img, err := formImage(c)
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "FILE_OPEN_ERROR", "cannot open uploaded file")
		}
		dataURL, err := svc.Edit(c.UserContext(), img, c.FormValue("prompt"), c.FormValue("preset"))
		if err != nil {
			return writeImagingError(c, err)
		}
		return c.JSON(editImageResponse{Image: dataURL})
	}
}

// Analyze returns a textual assessment of the uploaded photo. The optional
// document_ids field (repeated or comma separated) limits the context documents.
//
// @Summary Analyze image
// @Tags imaging
// @Accept mpfd
// @Produce json
// @Param image formData file true "PNG or JPEG photo"
// @Param document_ids formData string false "comma separated document ids"
// @Success 200 {object} analyzeResponse
// @Failure 400 {object} errorPayload
// @Failure 502 {object} errorPayload
// @Router /api/analyze [post]
func Analyze(svc service.ImagingService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		img, err := formImage(c)
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "FILE_OPEN_ERROR", "cannot open uploaded file")
		}
		assessment, err := svc.Analyze(c.UserContext(), img, documentIDs(c))
		if err != nil {
			return writeImagingError(c, err)
		}
		return c.JSON(analyzeResponse{Assessment: assessment})
	}
}

// formImage reads the "image" file. A missing file yields an empty input so
// the service reports it in its own validation order.
func formImage(c *fiber.Ctx) (service.ImageInput, error) {
	fh, err := c.FormFile("image")
	if err != nil {
		return service.ImageInput{}, nil
	}
	f, err := fh.Open()
	if err != nil {
		return service.ImageInput{}, err
	}
	defer f.Close()
	data, err := io.ReadAll(f)
	if err != nil {
		return service.ImageInput{}, err
	}
	return service.ImageInput{
		Data:     data,
		Filename: fh.Filename,
		MIME:     fh.Header.Get("Content-Type"),
	}, nil
}

func documentIDs(c *fiber.Ctx) []string {
	form, err := c.MultipartForm()
	if err != nil {
		return nil
	}
	var ids []string
	for _, v := range form.Value["document_ids"] {
		for _, id := range strings.Split(v, ",") {
			if id = strings.TrimSpace(id); id != "" {
				ids = append(ids, id)
			}
		}
	}
	return ids
}

const missingCredentialMessage = "OpenAI API key is missing on the server."

// validationErrors maps service input errors to the code and message shown to clients.
var validationErrors = []struct {
	err     error
	code    string
	message string
}{
	{service.ErrImageRequired, "IMAGE_REQUIRED", "An image file is required."},
	{service.ErrAnalysisImageRequired, "IMAGE_REQUIRED", "An image file is required for analysis."},
	{service.ErrPromptRequired, "PROMPT_REQUIRED", "A non-empty prompt is required."},
	{service.ErrUnknownPreset, "UNKNOWN_PRESET", "Unknown prompt preset. Use week4, week8 or week12."},
	{service.ErrUnsupportedImageType, "UNSUPPORTED_MEDIA_TYPE", "Only PNG and JPG images are supported."},
	{service.ErrImageUnreadable, "IMAGE_UNREADABLE", "Could not read the uploaded image size."},
}

func writeImagingError(c *fiber.Ctx, err error) error {
	if errors.Is(err, service.ErrMissingCredential) {
		return writeError(c, fiber.StatusInternalServerError, "CONFIG_ERROR", missingCredentialMessage)
	}
	for _, v := range validationErrors {
		if errors.Is(err, v.err) {
			return writeError(c, fiber.StatusBadRequest, v.code, v.message)
		}
	}

	var apiErr *openai.Error
	switch {
	case errors.As(err, &apiErr):
		return writeError(c, fiber.StatusBadGateway, "UPSTREAM_ERROR",
			fmt.Sprintf("upstream service failed with status %d: %s", apiErr.StatusCode, apiErr.Message))
	case errors.Is(err, openai.ErrNoImage):
		return writeError(c, fiber.StatusBadGateway, "UPSTREAM_ERROR", openai.ErrNoImage.Error())
	case errors.Is(err, openai.ErrEmptyCompletion):
		return writeError(c, fiber.StatusBadGateway, "UPSTREAM_ERROR", openai.ErrEmptyCompletion.Error())
	case errors.Is(err, context.DeadlineExceeded), isTimeout(err):
		return writeError(c, fiber.StatusGatewayTimeout, "UPSTREAM_TIMEOUT", "upstream service timed out")
	}
	return writeError(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
}

func isTimeout(err error) bool {
	var ne net.Error
	return errors.As(err, &ne) && ne.Timeout()
}
