package service

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"log/slog"
	"strings"

	"treatviz/internal/extract"
	"treatviz/internal/model"
	"treatviz/internal/openai"
)

var (
	ErrMissingCredential     = errors.New("openai api key is not configured")
	ErrImageRequired         = errors.New("image is required")
	ErrAnalysisImageRequired = errors.New("image is required for analysis")
	ErrPromptRequired        = errors.New("prompt is required")
	ErrUnknownPreset         = errors.New("unknown prompt preset")
	ErrUnsupportedImageType  = errors.New("unsupported image type")
	ErrImageUnreadable       = errors.New("image dimensions are unreadable")
)

// IsValidation reports whether err is a client input error.
func IsValidation(err error) bool {
	for _, target := range []error{
		ErrImageRequired,
		ErrAnalysisImageRequired,
		ErrPromptRequired,
		ErrUnknownPreset,
		ErrUnsupportedImageType,
		ErrImageUnreadable,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

var acceptedImageTypes = map[string]bool{
	"image/png":  true,
	"image/jpeg": true,
}

const (
	analysisSystemPrompt = "Jsi zkušený cévní lékař zaměřený na žilní onemocnění. Vždy odpovídej česky, strukturovaně a stručně. Přidej krátké sekce: 'Nálezy', 'Možná rizika', 'Co probrat s lékařem'. Ujasni, že jde o edukativní výstup, nikoliv diagnózu."
	analysisInstruction  = "Posuď viditelné žilní problémy na fotografii. Shrň stručně a jasně."
	analysisContextLead  = "Pro kontext použij následující medicínské dokumenty: "
	analysisNoDocuments  = "Bez dodaných dokumentů RAG."

	// DefaultExcerptChars bounds each document excerpt in the analysis context.
	DefaultExcerptChars = 3000
)

// ImageInput is an uploaded photo.
type ImageInput struct {
	Data     []byte
	Filename string
	MIME     string
}

// ImagingService runs the upstream image edit and analysis calls.
type ImagingService interface {
	// Edit applies prompt to the image and returns the result as a PNG data URL.
	// When prompt is blank, preset names a stored prompt template instead.
	Edit(ctx context.Context, img ImageInput, prompt, preset string) (string, error)

	// Analyze asks the vision model for an assessment of the image, using the
	// documents named by documentIDs (all documents when empty) as context.
	Analyze(ctx context.Context, img ImageInput, documentIDs []string) (string, error)
}

type imagingService struct {
	api          openai.API
	settings     SettingsService
	docs         DocumentService
	log          *slog.Logger
	excerptChars int
}

// NewImagingService constructs an ImagingService.
func NewImagingService(api openai.API, settings SettingsService, docs DocumentService, excerptChars int, log *slog.Logger) ImagingService {
	if excerptChars <= 0 {
		excerptChars = DefaultExcerptChars
	}
	if log == nil {
		log = slog.Default()
	}
	return &imagingService{
		api:          api,
		settings:     settings,
		docs:         docs,
		log:          log,
		excerptChars: excerptChars,
	}
}

func (s *imagingService) Edit(ctx context.Context, img ImageInput, prompt, preset string) (string, error) {
	if !s.api.Configured() {
		return "", ErrMissingCredential
	}
	if len(img.Data) == 0 {
		return "", ErrImageRequired
	}
	prompt, err := s.resolvePrompt(ctx, prompt, preset)
	if err != nil {
		return "", err
	}
	mimeType := extract.MediaType(img.MIME)
	if !acceptedImageTypes[mimeType] {
		return "", ErrUnsupportedImageType
	}
	cfg, _, err := image.DecodeConfig(bytes.NewReader(img.Data))
	if err != nil || cfg.Width == 0 || cfg.Height == 0 {
		return "", ErrImageUnreadable
	}

	filename := img.Filename
	if filename == "" {
		filename = "upload." + strings.TrimPrefix(mimeType, "image/")
	}

	edited, err := s.api.EditImage(ctx, openai.EditRequest{
		Image:    img.Data,
		Filename: filename,
		MIME:     mimeType,
		Prompt:   prompt,
	})
	if err != nil {
		return "", fmt.Errorf("edit image: %w", err)
	}
	s.log.InfoContext(ctx, "image_edited", "width", cfg.Width, "height", cfg.Height, "bytes_in", len(img.Data), "bytes_out", len(edited))
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(edited), nil
}

func (s *imagingService) resolvePrompt(ctx context.Context, prompt, preset string) (string, error) {
	if strings.TrimSpace(prompt) != "" {
		return prompt, nil
	}
	if preset == "" {
		return "", ErrPromptRequired
	}
	tmpl, ok := s.settings.Read(ctx).Prompts.Lookup(preset)
	if !ok {
		return "", ErrUnknownPreset
	}
	if strings.TrimSpace(tmpl) == "" {
		return "", ErrPromptRequired
	}
	return tmpl, nil
}

func (s *imagingService) Analyze(ctx context.Context, img ImageInput, documentIDs []string) (string, error) {
	if !s.api.Configured() {
		return "", ErrMissingCredential
	}
	if len(img.Data) == 0 {
		return "", ErrAnalysisImageRequired
	}
	mimeType := extract.MediaType(img.MIME)
	if !acceptedImageTypes[mimeType] {
		return "", ErrUnsupportedImageType
	}

	var texts []model.DocumentText
	if len(documentIDs) > 0 {
		texts = s.docs.LoadTexts(ctx, documentIDs)
	} else {
		texts = s.docs.LoadAllTexts(ctx)
	}

	dataURL := "data:" + mimeType + ";base64," + base64.StdEncoding.EncodeToString(img.Data)
	out, err := s.api.Complete(ctx, openai.ChatRequest{
		System: analysisSystemPrompt,
		Parts: []openai.ContentPart{
			openai.TextPart(analysisInstruction),
			openai.ImagePart(dataURL),
			openai.TextPart(BuildAnalysisContext(texts, s.excerptChars)),
		},
	})
	if err != nil {
		return "", fmt.Errorf("analyze image: %w", err)
	}
	s.log.InfoContext(ctx, "image_analyzed", "documents", len(texts))
	return out, nil
}

// BuildAnalysisContext renders document excerpts for the analysis prompt. Each
// text is cut to limit characters. With no documents it returns a note saying
// none were supplied.
func BuildAnalysisContext(texts []model.DocumentText, limit int) string {
	if len(texts) == 0 {
		return analysisNoDocuments
	}
	parts := make([]string, 0, len(texts))
	for _, t := range texts {
		parts = append(parts, "\nSoubor: "+t.Name+"\nObsah: "+truncateRunes(t.Text, limit))
	}
	return analysisContextLead + strings.Join(parts, "\n\n")
}

func truncateRunes(s string, n int) string {
	if n <= 0 {
		return s
	}
	i := 0
	for pos := range s {
		if i == n {
			return s[:pos]
		}
		i++
	}
	return s
}
