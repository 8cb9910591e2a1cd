package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-isatty"

	"pdf-contacts/internal/database"
	"pdf-contacts/internal/services"
)

// DocumentEmails is the result of extracting one local document
type DocumentEmails struct {
	Path            string   `json:"path"`
	IssueNumber     string   `json:"issue_number"`
	Emails          []string `json:"emails"`
	ExtractionError string   `json:"extraction_error,omitempty"`
}

// OutputFormatter handles different output formats
type OutputFormatter struct {
	format   string
	quiet    bool
	useColor bool
	out      io.Writer
	errOut   io.Writer
}

// NewOutputFormatter creates a new plain output formatter writing to stdout
func NewOutputFormatter(format string, quiet bool) *OutputFormatter {
	return &OutputFormatter{
		format: format,
		quiet:  quiet,
		out:    os.Stdout,
		errOut: os.Stderr,
	}
}

// NewOutputFormatterWithColor creates a formatter that colors status lines
// when stdout is a terminal and noColor is false
func NewOutputFormatterWithColor(format string, quiet, noColor bool) *OutputFormatter {
	return &OutputFormatter{
		format:   format,
		quiet:    quiet,
		useColor: !noColor && isatty.IsTerminal(os.Stdout.Fd()),
		out:      os.Stdout,
		errOut:   os.Stderr,
	}
}

// SetOutput redirects normal and error output
func (f *OutputFormatter) SetOutput(out, errOut io.Writer) {
	f.out = out
	f.errOut = errOut
}

var (
	successStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("82"))
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	infoStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("75"))
	headerStyle  = lipgloss.NewStyle().Bold(true)
)

func (f *OutputFormatter) render(style lipgloss.Style, s string) string {
	if !f.useColor {
		return s
	}
	return style.Render(s)
}

func (f *OutputFormatter) encodeJSON(v any) error {
	enc := json.NewEncoder(f.out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// PrintImportResult prints the outcome of an upload
func (f *OutputFormatter) PrintImportResult(result *services.ImportResult) error {
	if f.quiet {
		for _, email := range result.Emails {
			fmt.Fprintln(f.out, email)
		}
		return nil
	}

	switch f.format {
	case "json":
		return f.encodeJSON(result)
	case "table":
		fmt.Fprintf(f.out, "Import ID: %d\n", result.IssueID)
		fmt.Fprintf(f.out, "File: %s\n", result.FileName)
		fmt.Fprintf(f.out, "Issue: %s\n", result.IssueNumber)
		fmt.Fprintf(f.out, "Production: %s\n", result.Production)
		fmt.Fprintf(f.out, "Emails: %d extracted, %d new, %d already known\n", result.Extracted, result.Stored, result.Skipped)
		if result.ExtractionError != "" {
			fmt.Fprintf(f.out, "Extraction error: %s\n", result.ExtractionError)
		}
		for _, email := range result.Emails {
			fmt.Fprintf(f.out, "  %s\n", email)
		}
		return nil
	default:
		return fmt.Errorf("unsupported format: %s", f.format)
	}
}

// PrintImports prints the stored documents and their addresses
func (f *OutputFormatter) PrintImports(issues []database.ProductionIssue) error {
	if f.quiet {
		for _, issue := range issues {
			for _, production := range issue.Productions {
				for _, email := range production.Emails {
					fmt.Fprintln(f.out, email.Address)
				}
			}
		}
		return nil
	}

	switch f.format {
	case "json":
		return f.encodeJSON(issues)
	case "table":
		return f.printImportsTable(issues)
	default:
		return fmt.Errorf("unsupported format: %s", f.format)
	}
}

// PrintDocuments prints locally extracted documents
func (f *OutputFormatter) PrintDocuments(docs []DocumentEmails) error {
	if f.quiet {
		for _, doc := range docs {
			for _, email := range doc.Emails {
				fmt.Fprintln(f.out, email)
			}
		}
		return nil
	}

	switch f.format {
	case "json":
		return f.encodeJSON(docs)
	case "table":
		w := tabwriter.NewWriter(f.out, 0, 0, 2, ' ', 0)
		defer w.Flush()

		fmt.Fprintln(w, f.render(headerStyle, "FILE\tISSUE\tEMAIL"))
		for _, doc := range docs {
			if doc.ExtractionError != "" {
				fmt.Fprintf(w, "%s\t%s\t(%s)\n", truncate(doc.Path, 40), doc.IssueNumber, doc.ExtractionError)
				continue
			}
			if len(doc.Emails) == 0 {
				fmt.Fprintf(w, "%s\t%s\t-\n", truncate(doc.Path, 40), doc.IssueNumber)
				continue
			}
			for _, email := range doc.Emails {
				fmt.Fprintf(w, "%s\t%s\t%s\n", truncate(doc.Path, 40), doc.IssueNumber, email)
			}
		}
		return nil
	default:
		return fmt.Errorf("unsupported format: %s", f.format)
	}
}

// PrintHealth prints the server health report
func (f *OutputFormatter) PrintHealth(status *HealthStatus) error {
	if f.quiet {
		fmt.Fprintln(f.out, status.Status)
		return nil
	}

	switch f.format {
	case "json":
		return f.encodeJSON(status)
	case "table":
		fmt.Fprintf(f.out, "Status: %s\n", status.Status)
		fmt.Fprintf(f.out, "Database: %s\n", status.Database)
		fmt.Fprintf(f.out, "Stored emails: %d\n", status.Emails)
		return nil
	default:
		return fmt.Errorf("unsupported format: %s", f.format)
	}
}

// PrintSuccess prints a success message
func (f *OutputFormatter) PrintSuccess(message string) {
	if !f.quiet {
		fmt.Fprintln(f.out, f.render(successStyle, "✓ "+message))
	}
}

// PrintError prints an error message
func (f *OutputFormatter) PrintError(err error) {
	if !f.quiet {
		fmt.Fprintln(f.errOut, f.render(errorStyle, fmt.Sprintf("✗ Error: %v", err)))
	}
}

// PrintInfo prints an informational message
func (f *OutputFormatter) PrintInfo(message string) {
	if !f.quiet {
		fmt.Fprintln(f.out, f.render(infoStyle, "ℹ "+message))
	}
}

// printImportsTable prints one row per stored address
func (f *OutputFormatter) printImportsTable(issues []database.ProductionIssue) error {
	if len(issues) == 0 {
		fmt.Fprintln(f.out, "No imports found.")
		return nil
	}

	w := tabwriter.NewWriter(f.out, 0, 0, 2, ' ', 0)
	defer w.Flush()

	fmt.Fprintln(w, f.render(headerStyle, "ID\tISSUE\tFILE\tEMAIL\tIMPORTED"))

	for _, issue := range issues {
		imported := issue.CreatedAt.Format("2006-01-02")
		var emails []string
		for _, production := range issue.Productions {
			for _, email := range production.Emails {
				emails = append(emails, email.Address)
			}
		}
		if len(emails) == 0 {
			emails = []string{"-"}
		}
		for _, email := range emails {
			fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\n",
				issue.ID,
				issue.IssueNumber,
				truncate(issue.FileName, 30),
				email,
				imported)
		}
	}

	return nil
}

// truncate truncates a string to the specified number of runes
func truncate(s string, maxLen int) string {
	runes := []rune(s)
	if len(runes) <= maxLen {
		return s
	}
	return string(runes[:maxLen-3]) + "..."
}
