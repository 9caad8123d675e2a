package handler

import (
	"bytes"
	"io"
	"mime/multipart"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ignatzorin/engagement-backend/internal/pkg/apperror"
)

var (
	pdfBytes = []byte("%PDF-1.4\n1 0 obj\n<<>>\nendobj\n%%EOF")
	pngBytes = append([]byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR"), make([]byte, 32)...)
)

func fileHeader(t *testing.T, filename string, content []byte) *multipart.FileHeader {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("artifact", filename)
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	form, err := multipart.NewReader(&body, mw.Boundary()).ReadForm(1 << 20)
	require.NoError(t, err)
	t.Cleanup(func() { _ = form.RemoveAll() })
	return form.File["artifact"][0]
}

func TestOpenArtifact(t *testing.T) {
	tests := []struct {
		name     string
		filename string
		content  []byte
		maxBytes int64
		wantType string
		wantErr  bool
	}{
		{name: "pdf", filename: "report.pdf", content: pdfBytes, wantType: "application/pdf"},
		{name: "png upper-case extension", filename: "scan.PNG", content: pngBytes, wantType: "image/png"},
		{name: "extension mismatch", filename: "report.png", content: pdfBytes, wantErr: true},
		{name: "unknown content", filename: "notes.txt", content: []byte("plain text notes"), wantErr: true},
		{name: "too large", filename: "report.pdf", content: pdfBytes, maxBytes: 8, wantErr: true},
		{name: "empty", filename: "report.pdf", content: []byte{}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			artifact, file, err := openArtifact(fileHeader(t, tt.filename, tt.content), tt.maxBytes)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, apperror.IsValidation(err))
				return
			}
			require.NoError(t, err)
			defer file.Close()

			assert.Equal(t, tt.wantType, artifact.ContentType)
			assert.Equal(t, tt.filename, artifact.FileName)
			assert.Equal(t, int64(len(tt.content)), artifact.Size)

			// тело перемотано к началу после определения типа
			data, err := io.ReadAll(artifact.Body)
			require.NoError(t, err)
			assert.Equal(t, tt.content, data)
		})
	}
}
