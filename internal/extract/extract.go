// Package extract converts uploaded document bytes into plain text used as
// retrieval context.
package extract

import (
	"bytes"
	"fmt"
	"io"
	"mime"
	"strings"

	"github.com/ledongthuc/pdf"

	"treatviz/internal/model"
)

const (
	mimePlainText = "text/plain"
	mimePDF       = "application/pdf"
)

// Result carries the extracted text together with how it was obtained, so an
// empty document can be told apart from a failed or unsupported extraction.
type Result struct {
	Text   string
	Status string
	Err    error
}

// Failed reports whether extraction was attempted and did not succeed.
func (r Result) Failed() bool { return r.Status == model.ExtractionFailed }

// Extractor turns raw file bytes into text. Implementations never fail the
// caller; problems are reported through Result.
type Extractor interface {
	Extract(data []byte, mimeType string) Result
}

// Default extracts plain text and PDF documents.
type Default struct{}

// New returns the default extractor.
func New() Default { return Default{} }

// Extract decodes text/plain as UTF-8 and runs PDF text extraction for
// application/pdf. Any other media type yields empty text with the
// unsupported status; this is deliberate, uploads of other types still succeed.
func (Default) Extract(data []byte, mimeType string) Result {
	switch MediaType(mimeType) {
	case mimePlainText:
		return Result{Text: strings.ToValidUTF8(string(data), "�"), Status: model.ExtractionOK}
	case mimePDF:
		text, err := pdfText(data)
		if err != nil {
			return Result{Status: model.ExtractionFailed, Err: err}
		}
		return Result{Text: text, Status: model.ExtractionOK}
	default:
		return Result{Status: model.ExtractionUnsupported}
	}
}

// MediaType returns the lower-cased media type without parameters.
func MediaType(v string) string {
	mt, _, err := mime.ParseMediaType(v)
	if err != nil {
		return strings.ToLower(strings.TrimSpace(v))
	}
	return mt
}

func pdfText(data []byte) (text string, err error) {
	// The PDF reader panics on some malformed inputs.
	defer func() {
		if r := recover(); r != nil {
			text, err = "", fmt.Errorf("pdf: %v", r)
		}
	}()

	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("pdf open: %w", err)
	}
	plain, err := r.GetPlainText()
	if err != nil {
		return "", fmt.Errorf("pdf text: %w", err)
	}
	b, err := io.ReadAll(plain)
	if err != nil {
		return "", fmt.Errorf("pdf read: %w", err)
	}
	return strings.ToValidUTF8(string(b), "�"), nil
}
