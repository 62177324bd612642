package extract

import (
	"bytes"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"treatviz/internal/model"
)

func TestExtract(t *testing.T) {
	tests := []struct {
		name       string
		data       []byte
		mime       string
		wantText   string
		wantStatus string
		wantErr    bool
	}{
		{
			name:       "plain text",
			data:       []byte("hello"),
			mime:       "text/plain",
			wantText:   "hello",
			wantStatus: model.ExtractionOK,
		},
		{
			name:       "plain text with charset",
			data:       []byte("žluťoučký kůň"),
			mime:       "text/plain; charset=utf-8",
			wantText:   "žluťoučký kůň",
			wantStatus: model.ExtractionOK,
		},
		{
			name:       "invalid utf-8 is replaced",
			data:       []byte{'a', 0xff, 'b'},
			mime:       "text/plain",
			wantText:   "a�b",
			wantStatus: model.ExtractionOK,
		},
		{
			name:       "empty plain text",
			data:       nil,
			mime:       "text/plain",
			wantText:   "",
			wantStatus: model.ExtractionOK,
		},
		{
			name:       "broken pdf",
			data:       []byte("%PDF-1.4 this is not really a pdf"),
			mime:       "application/pdf",
			wantText:   "",
			wantStatus: model.ExtractionFailed,
			wantErr:    true,
		},
		{
			name:       "garbage pdf",
			data:       []byte{0x00, 0x01, 0x02},
			mime:       "application/pdf",
			wantText:   "",
			wantStatus: model.ExtractionFailed,
			wantErr:    true,
		},
		{
			name:       "unsupported type",
			data:       []byte("<html></html>"),
			mime:       "text/html",
			wantText:   "",
			wantStatus: model.ExtractionUnsupported,
		},
	}

	ex := New()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := ex.Extract(tt.data, tt.mime)
			assert.Equal(t, tt.wantText, res.Text)
			assert.Equal(t, tt.wantStatus, res.Status)
			if tt.wantErr {
				assert.Error(t, res.Err)
				assert.True(t, res.Failed())
			} else {
				assert.NoError(t, res.Err)
				assert.False(t, res.Failed())
			}
		})
	}
}

// onePagePDF builds a minimal single-page PDF that shows text in Helvetica,
// with a correct xref table.
func onePagePDF(text string) []byte {
	content := fmt.Sprintf("BT /F1 24 Tf 72 720 Td (%s) Tj ET", text)
	objects := []string{
		"<< /Type /Catalog /Pages 2 0 R >>",
		"<< /Type /Pages /Kids [3 0 R] /Count 1 >>",
		"<< /Type /Page /Parent 2 0 R /MediaBox [0 0 612 792] /Contents 4 0 R /Resources << /Font << /F1 5 0 R >> >> >>",
		fmt.Sprintf("<< /Length %d >>\nstream\n%s\nendstream", len(content), content),
		"<< /Type /Font /Subtype /Type1 /BaseFont /Helvetica /Encoding /WinAnsiEncoding >>",
	}

	var buf bytes.Buffer
	buf.WriteString("%PDF-1.4\n")
	offsets := make([]int, len(objects))
	for i, obj := range objects {
		offsets[i] = buf.Len()
		fmt.Fprintf(&buf, "%d 0 obj\n%s\nendobj\n", i+1, obj)
	}
	xref := buf.Len()
	fmt.Fprintf(&buf, "xref\n0 %d\n0000000000 65535 f \n", len(objects)+1)
	for _, off := range offsets {
		fmt.Fprintf(&buf, "%010d 00000 n \n", off)
	}
	fmt.Fprintf(&buf, "trailer\n<< /Size %d /Root 1 0 R >>\nstartxref\n%d\n%%%%EOF\n", len(objects)+1, xref)
	return buf.Bytes()
}

func TestExtract_PDF(t *testing.T) {
	res := New().Extract(onePagePDF("Hello PDF"), "application/pdf")

	require.NoError(t, res.Err)
	assert.Equal(t, model.ExtractionOK, res.Status)
	assert.False(t, res.Failed())
	assert.Equal(t, "Hello PDF", strings.TrimSpace(res.Text))
}

func TestMediaType(t *testing.T) {
	assert.Equal(t, "text/plain", MediaType("text/plain; charset=UTF-8"))
	assert.Equal(t, "application/pdf", MediaType("Application/PDF"))
	assert.Equal(t, "", MediaType(""))
}
