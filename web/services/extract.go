package services

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/ledongthuc/pdf"
	"go.uber.org/zap"
)

// Extractor pulls plain text out of uploaded files.
type Extractor struct {
	logger *zap.Logger
}

func NewExtractor(logger *zap.Logger) *Extractor {
	return &Extractor{logger: logger}
}

// ExtractPDF extracts text from every readable page. Pages that fail to
// parse are skipped rather than failing the whole document.
func (e *Extractor) ExtractPDF(data []byte) (string, error) {
	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("open pdf: %w", err)
	}

	var fullText strings.Builder
	totalPages := reader.NumPage()
	for pageNum := 1; pageNum <= totalPages; pageNum++ {
		page := reader.Page(pageNum)
		if page.V.IsNull() {
			e.logger.Warn("Skipping null PDF page", zap.Int("page", pageNum))
			continue
		}

		text, err := page.GetPlainText(nil)
		if err != nil {
			e.logger.Warn("Failed to extract text from PDF page",
				zap.Int("page", pageNum),
				zap.Error(err))
			continue
		}
		fullText.WriteString(text)
		fullText.WriteString("\n")
	}

	return stripNUL(fullText.String()), nil
}

// ExtractText decodes a plain-text upload, dropping NUL bytes that Postgres
// rejects in TEXT columns.
func (e *Extractor) ExtractText(r io.Reader) (string, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return "", fmt.Errorf("read upload: %w", err)
	}
	return stripNUL(string(data)), nil
}

func stripNUL(s string) string {
	return strings.ReplaceAll(s, "\x00", "")
}
