package services

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"pdf-contacts/internal/database"
	"pdf-contacts/internal/document"
	"pdf-contacts/internal/metrics"
	"pdf-contacts/internal/parser"
)

var (
	// ErrEmptyUpload is returned when an upload has no content
	ErrEmptyUpload = errors.New("uploaded file is empty")

	// ErrNotPDF is returned when an upload does not start with a PDF header
	ErrNotPDF = errors.New("uploaded file is not a PDF")
)

// pdfMagic is the header every PDF file starts with
var pdfMagic = []byte("%PDF-")

// PDFImporter stores the contacts found in uploaded PDF documents
type PDFImporter struct {
	db         *database.DB
	extractor  document.Extractor
	scratchDir string
	logger     *slog.Logger
}

// ImportResult summarizes one imported document
type ImportResult struct {
	IssueID         int      `json:"issue_id"`
	IssueNumber     string   `json:"issue_number"`
	FileName        string   `json:"file_name"`
	Production      string   `json:"production"`
	Emails          []string `json:"emails"`
	Extracted       int      `json:"extracted"`
	Stored          int      `json:"stored"`
	Skipped         int      `json:"skipped"`
	ExtractionError string   `json:"extraction_error,omitempty"`
}

// NewPDFImporter creates a new PDF importer. Uploads are written to
// scratchDir while they are parsed.
func NewPDFImporter(db *database.DB, extractor document.Extractor, scratchDir string, logger *slog.Logger) *PDFImporter {
	if logger == nil {
		logger = slog.Default()
	}
	if scratchDir == "" {
		scratchDir = os.TempDir()
	}
	return &PDFImporter{
		db:         db,
		extractor:  extractor,
		scratchDir: scratchDir,
		logger:     logger,
	}
}

// Import parses the PDF read from r and stores its issue, production and
// previously unknown email addresses in one transaction. A PDF whose text
// cannot be extracted is still recorded, with no emails and the extraction
// error set on the result.
func (imp *PDFImporter) Import(ctx context.Context, fileName string, r io.Reader) (*ImportResult, error) {
	start := time.Now()
	defer func() {
		metrics.ImportDuration.Observe(time.Since(start).Seconds())
	}()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	baseName := uploadBaseName(fileName)

	header := make([]byte, len(pdfMagic))
	_, err := io.ReadFull(r, header)
	switch {
	case err == io.EOF:
		metrics.RecordImport(metrics.ResultRejected, 0, 0)
		return nil, ErrEmptyUpload
	case err == io.ErrUnexpectedEOF || (err == nil && !bytes.Equal(header, pdfMagic)):
		metrics.RecordImport(metrics.ResultRejected, 0, 0)
		return nil, ErrNotPDF
	case err != nil:
		metrics.RecordImport(metrics.ResultError, 0, 0)
		return nil, fmt.Errorf("failed to read upload: %w", err)
	}

	path, err := imp.writeScratchFile(baseName, io.MultiReader(bytes.NewReader(header), r))
	if path != "" {
		defer func() {
			if rmErr := os.Remove(path); rmErr != nil && !os.IsNotExist(rmErr) {
				imp.logger.Warn("Failed to remove scratch file", "path", path, "error", rmErr)
			}
		}()
	}
	if err != nil {
		metrics.RecordImport(metrics.ResultError, 0, 0)
		return nil, err
	}

	session := document.Open(ctx, imp.extractor, path)
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	emails := parser.ExtractEmailsFunc(session.Text(), func(candidate string, err error) {
		metrics.EmailsRejected.Inc()
		imp.logger.Debug("Candidate rejected", "file", baseName, "candidate", candidate, "reason", err)
	})

	result := &ImportResult{
		IssueNumber: session.IssueNumber(),
		FileName:    baseName,
		Production:  session.ProductionName(),
		Emails:      emails,
		Extracted:   len(emails),
	}

	if extraction := session.Extraction(); !extraction.OK() {
		result.ExtractionError = extraction.Err.Error()
		imp.logger.Warn("PDF text extraction failed", "file", baseName, "path", session.Path(), "error", extraction.Err)
	}

	err = imp.db.WithTx(func(tx *database.Tx) error {
		issue := &database.ProductionIssue{
			IssueNumber:     result.IssueNumber,
			FileName:        baseName,
			ExtractionError: result.ExtractionError,
		}
		if err := tx.Issues.Create(issue); err != nil {
			return fmt.Errorf("failed to create issue: %w", err)
		}
		result.IssueID = issue.ID

		production := &database.Production{
			Name:              result.Production,
			ProductionIssueID: issue.ID,
		}
		if err := tx.Productions.Create(production); err != nil {
			return fmt.Errorf("failed to create production: %w", err)
		}

		for _, address := range emails {
			created, err := tx.Emails.CreateIfNew(address, production.ID)
			if err != nil {
				return fmt.Errorf("failed to store email %s: %w", address, err)
			}
			if created {
				result.Stored++
				continue
			}
			result.Skipped++
			if existing, err := tx.Emails.GetByAddress(address); err == nil {
				imp.logger.Debug("Address already stored",
					"file", baseName, "address", address, "production_id", existing.ProductionID)
			}
		}
		return nil
	})
	if err != nil {
		metrics.RecordImport(metrics.ResultError, 0, 0)
		imp.logger.Error("Failed to store import", "file", baseName, "error", err)
		return nil, err
	}

	outcome := metrics.ResultSuccess
	if result.ExtractionError != "" {
		outcome = metrics.ResultExtractionError
	}
	metrics.RecordImport(outcome, result.Extracted, result.Stored)

	imp.logger.Info("Imported PDF",
		"file", baseName,
		"issue_number", result.IssueNumber,
		"extracted", result.Extracted,
		"stored", result.Stored,
		"skipped", result.Skipped,
		"duration", time.Since(start))

	return result, nil
}

// writeScratchFile copies the upload to a uniquely named file in the scratch
// directory. The returned path is set whenever a file was created, even on error.
func (imp *PDFImporter) writeScratchFile(baseName string, r io.Reader) (string, error) {
	if err := os.MkdirAll(imp.scratchDir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create scratch directory: %w", err)
	}

	path := filepath.Join(imp.scratchDir, uuid.NewString()+"-"+baseName)
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("failed to create scratch file: %w", err)
	}

	if _, err := io.Copy(f, r); err != nil {
		f.Close()
		return path, fmt.Errorf("failed to write scratch file: %w", err)
	}
	if err := f.Close(); err != nil {
		return path, fmt.Errorf("failed to write scratch file: %w", err)
	}
	return path, nil
}

// uploadBaseName strips any client supplied directories from fileName
func uploadBaseName(fileName string) string {
	name := filepath.Base(strings.ReplaceAll(fileName, "\\", "/"))
	if name == "." || name == "/" || name == "" {
		return "upload.pdf"
	}
	return name
}
