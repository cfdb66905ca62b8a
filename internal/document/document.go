// Package document extracts plain text from uploaded CV files.
package document

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"unicode/utf8"
)

// MIME types accepted for CV uploads.
const (
	MimePDF  = "application/pdf"
	MimeDOC  = "application/msword"
	MimeDOCX = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	MimeText = "text/plain"
)

// ErrUnsupportedType is wrapped by ExtractionError for file types outside the allow list.
var ErrUnsupportedType = errors.New("invalid file type, only PDF, DOC, DOCX and TXT allowed")

// ExtractionError reports why a file could not be turned into text.
type ExtractionError struct {
	Filename string
	Err      error
}

func (e *ExtractionError) Error() string {
	return fmt.Sprintf("extract text from %q: %v", e.Filename, e.Err)
}

func (e *ExtractionError) Unwrap() error { return e.Err }

// Parser converts one document format to text.
type Parser interface {
	CanParse(mimeType string) bool
	Parse(filename string, data []byte) (string, error)
}

// Extractor picks a parser by MIME type or file extension.
type Extractor struct {
	parsers []Parser
}

// NewExtractor returns an Extractor for PDF, DOCX and plain text.
func NewExtractor() *Extractor {
	return &Extractor{parsers: []Parser{pdfParser{}, docxParser{}, textParser{}}}
}

var extensionTypes = map[string]string{
	".pdf":  MimePDF,
	".doc":  MimeDOC,
	".docx": MimeDOCX,
	".txt":  MimeText,
}

// DetectType resolves the effective MIME type from the declared content type
// and, failing that, the file extension.
func DetectType(filename, contentType string) string {
	ct := strings.ToLower(strings.TrimSpace(contentType))
	if i := strings.IndexByte(ct, ';'); i >= 0 {
		ct = strings.TrimSpace(ct[:i])
	}
	switch ct {
	case MimePDF, MimeDOC, MimeDOCX, MimeText:
		return ct
	}
	return extensionTypes[strings.ToLower(filepath.Ext(filename))]
}

// Allowed reports whether the file type is accepted for upload.
func Allowed(filename, contentType string) bool {
	return DetectType(filename, contentType) != ""
}

// ExtractText returns the text content of data.
func (e *Extractor) ExtractText(filename, contentType string, data []byte) (string, error) {
	mime := DetectType(filename, contentType)
	if mime == "" {
		return "", &ExtractionError{Filename: filename, Err: ErrUnsupportedType}
	}
	for _, p := range e.parsers {
		if !p.CanParse(mime) {
			continue
		}
		text, err := p.Parse(filename, data)
		if err != nil {
			return "", &ExtractionError{Filename: filename, Err: err}
		}
		text = strings.TrimSpace(text)
		if text == "" {
			return "", &ExtractionError{Filename: filename, Err: errors.New("no text content found")}
		}
		return text, nil
	}
	return "", &ExtractionError{Filename: filename, Err: fmt.Errorf("%s documents cannot be read, upload a PDF or DOCX", mime)}
}

type textParser struct{}

func (textParser) CanParse(mimeType string) bool { return mimeType == MimeText }

func (textParser) Parse(_ string, data []byte) (string, error) {
	if !utf8.Valid(data) {
		return "", errors.New("text file is not valid UTF-8")
	}
	return string(data), nil
}
