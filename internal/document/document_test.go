package document

import (
	"archive/zip"
	"bytes"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func buildDOCX(t *testing.T, body string) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	w, err := zw.Create("word/document.xml")
	require.NoError(t, err)
	_, err = w.Write([]byte(`<?xml version="1.0" encoding="UTF-8"?>` +
		`<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"><w:body>` +
		body + `</w:body></w:document>`))
	require.NoError(t, err)
	require.NoError(t, zw.Close())
	return buf.Bytes()
}

func TestDetectType(t *testing.T) {
	assert.Equal(t, MimePDF, DetectType("cv.bin", "application/pdf"))
	assert.Equal(t, MimeText, DetectType("cv", "text/plain; charset=utf-8"))
	assert.Equal(t, MimeDOCX, DetectType("CV.DOCX", "application/octet-stream"))
	assert.Equal(t, MimeDOC, DetectType("cv.doc", ""))
	assert.Equal(t, "", DetectType("cv.png", "image/png"))
	assert.False(t, Allowed("cv.exe", ""))
	assert.True(t, Allowed("cv.pdf", ""))
}

func TestExtractText_Plain(t *testing.T) {
	text, err := NewExtractor().ExtractText("cv.txt", "text/plain", []byte("  Jane Doe\nUniversity of Mannheim  "))
	require.NoError(t, err)
	assert.Equal(t, "Jane Doe\nUniversity of Mannheim", text)
}

func TestExtractText_DOCX(t *testing.T) {
	data := buildDOCX(t, `<w:p><w:r><w:t>Jane Doe</w:t></w:r></w:p>`+
		`<w:p><w:r><w:t xml:space="preserve">Internship </w:t></w:r><w:r><w:t>at KPMG</w:t></w:r></w:p>`)

	text, err := NewExtractor().ExtractText("cv.docx", "", data)
	require.NoError(t, err)
	assert.Equal(t, "Jane Doe\nInternship at KPMG", text)
}

func TestExtractText_Errors(t *testing.T) {
	ex := NewExtractor()

	tests := []struct {
		name     string
		filename string
		ct       string
		data     []byte
	}{
		{"unsupported type", "cv.png", "image/png", []byte{1, 2}},
		{"legacy doc", "cv.doc", MimeDOC, []byte("binary")},
		{"broken pdf", "cv.pdf", MimePDF, []byte("not a pdf")},
		{"broken docx", "cv.docx", "", []byte("not a zip")},
		{"empty text", "cv.txt", "", []byte("   ")},
		{"invalid utf8", "cv.txt", "", []byte{0xff, 0xfe}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ex.ExtractText(tt.filename, tt.ct, tt.data)
			require.Error(t, err)
			var extErr *ExtractionError
			assert.True(t, errors.As(err, &extErr))
		})
	}

	_, err := ex.ExtractText("cv.png", "", nil)
	assert.ErrorIs(t, err, ErrUnsupportedType)
}
