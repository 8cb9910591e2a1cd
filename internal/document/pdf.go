package document

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/ledongthuc/pdf"
)

// Extraction is the outcome of pulling text out of a document.
// When Err is set the document could not be read and Text is empty.
type Extraction struct {
	Text  string
	Pages int
	Err   error
}

// OK reports whether text was extracted
func (e Extraction) OK() bool {
	return e.Err == nil
}

// Extractor turns a document on disk into text
type Extractor interface {
	Extract(ctx context.Context, path string) Extraction
}

// PDFExtractor reads PDF text page by page
type PDFExtractor struct {
	logger *slog.Logger
}

// NewPDFExtractor creates a new PDF extractor
func NewPDFExtractor(logger *slog.Logger) *PDFExtractor {
	if logger == nil {
		logger = slog.Default()
	}
	return &PDFExtractor{logger: logger}
}

// Extract returns the concatenated text of every page, separated by newlines.
// A malformed PDF produces an Extraction with Err set rather than a panic.
func (e *PDFExtractor) Extract(ctx context.Context, path string) (result Extraction) {
	// The PDF library panics on some malformed inputs
	defer func() {
		if r := recover(); r != nil {
			e.logger.Error("PDF malformed", "path", path, "panic", r)
			result = Extraction{Err: fmt.Errorf("malformed pdf %s: %v", path, r)}
		}
	}()

	f, reader, err := pdf.Open(path)
	if err != nil {
		e.logger.Error("PDF malformed", "path", path, "error", err)
		return Extraction{Err: fmt.Errorf("failed to open pdf: %w", err)}
	}
	defer f.Close()

	totalPages := reader.NumPage()
	pages := make([]string, 0, totalPages)

	for i := 1; i <= totalPages; i++ {
		if err := ctx.Err(); err != nil {
			return Extraction{Err: err}
		}

		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}

		content, err := page.GetPlainText(nil)
		if err != nil {
			e.logger.Warn("Skipping unreadable page", "path", path, "page", i, "error", err)
			continue
		}
		pages = append(pages, content)
	}

	return Extraction{
		Text:  strings.Join(pages, "\n"),
		Pages: totalPages,
	}
}
