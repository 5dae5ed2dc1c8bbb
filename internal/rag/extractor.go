package rag

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"support-chat-service/internal/models"

	"github.com/ledongthuc/pdf"
)

// ErrUnsupportedType is returned for mime types without an extraction
// strategy.
var ErrUnsupportedType = errors.New("unsupported file type")

// ExtractionError wraps a failure to produce text from an uploaded file.
type ExtractionError struct {
	MimeType string
	Err      error
}

func (e *ExtractionError) Error() string {
	return fmt.Sprintf("text extraction failed for %s: %v", e.MimeType, e.Err)
}

func (e *ExtractionError) Unwrap() error {
	return e.Err
}

// Extractor converts an uploaded file into raw text. Exactly one strategy
// exists per supported mime type; failures are never retried here.
type Extractor struct{}

func NewExtractor() *Extractor {
	return &Extractor{}
}

func (e *Extractor) Extract(data []byte, mimeType string) (string, error) {
	switch mimeType {
	case models.MimeTypePDF:
		return e.extractPDF(data)
	case models.MimeTypeDOCX:
		return e.extractDOCX(data)
	case models.MimeTypeText:
		return e.extractText(data)
	default:
		return "", fmt.Errorf("%w: %s", ErrUnsupportedType, mimeType)
	}
}

func (e *Extractor) extractPDF(data []byte) (string, error) {
	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", &ExtractionError{MimeType: models.MimeTypePDF, Err: err}
	}

	plain, err := reader.GetPlainText()
	if err != nil {
		return "", &ExtractionError{MimeType: models.MimeTypePDF, Err: err}
	}

	var buf bytes.Buffer
	if _, err := buf.ReadFrom(plain); err != nil {
		return "", &ExtractionError{MimeType: models.MimeTypePDF, Err: err}
	}
	return buf.String(), nil
}

// docx files are zip archives; the body text lives in word/document.xml as
// runs of <w:t> elements grouped into paragraphs.
type docxDocument struct {
	Body struct {
		Paragraphs []docxParagraph `xml:"p"`
	} `xml:"body"`
}

type docxParagraph struct {
	Runs []struct {
		Text []struct {
			Content string `xml:",chardata"`
		} `xml:"t"`
	} `xml:"r"`
}

func (e *Extractor) extractDOCX(data []byte) (string, error) {
	archive, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", &ExtractionError{MimeType: models.MimeTypeDOCX, Err: err}
	}

	for _, file := range archive.File {
		if file.Name != "word/document.xml" {
			continue
		}

		rc, err := file.Open()
		if err != nil {
			return "", &ExtractionError{MimeType: models.MimeTypeDOCX, Err: err}
		}
		content, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			return "", &ExtractionError{MimeType: models.MimeTypeDOCX, Err: err}
		}

		var doc docxDocument
		if err := xml.Unmarshal(content, &doc); err != nil {
			return "", &ExtractionError{MimeType: models.MimeTypeDOCX, Err: err}
		}

		var sb strings.Builder
		for i, para := range doc.Body.Paragraphs {
			if i > 0 {
				sb.WriteString("\n")
			}
			for _, run := range para.Runs {
				for _, text := range run.Text {
					sb.WriteString(text.Content)
				}
			}
		}
		return sb.String(), nil
	}

	return "", &ExtractionError{MimeType: models.MimeTypeDOCX, Err: errors.New("missing word/document.xml")}
}

func (e *Extractor) extractText(data []byte) (string, error) {
	if !utf8.Valid(data) {
		return "", &ExtractionError{MimeType: models.MimeTypeText, Err: errors.New("invalid UTF-8 encoding")}
	}
	return string(data), nil
}
