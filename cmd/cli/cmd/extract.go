package cmd

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"runtime"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	cliapi "pdf-contacts/internal/cli"
	"pdf-contacts/internal/document"
)

var jobs int

var extractCmd = &cobra.Command{
	Use:   "extract <file.pdf>...",
	Short: "Extract email addresses from local PDFs",
	Long: `Extract the email addresses from one or more PDF documents without
contacting a server. Documents are processed in parallel and reported in
the order given. A document that cannot be read is reported with its error
and does not stop the others.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runExtract,
}

func init() {
	extractCmd.Flags().IntVarP(&jobs, "jobs", "j", runtime.NumCPU(), "Documents to process in parallel")
	rootCmd.AddCommand(extractCmd)
}

func runExtract(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	formatter := newFormatter(cmd, cfg)

	if jobs < 1 {
		err := fmt.Errorf("--jobs must be at least 1, got %d", jobs)
		formatter.PrintError(err)
		return err
	}

	// Library warnings about unreadable pages would garble table output
	extractor := document.NewPDFExtractor(slog.New(slog.NewTextHandler(io.Discard, nil)))

	docs, err := extractDocuments(cmd.Context(), extractor, args, jobs)
	if err != nil {
		formatter.PrintError(err)
		return err
	}

	return formatter.PrintDocuments(docs)
}

// extractDocuments opens every path with at most limit extractions in
// flight. Results keep the order of paths.
func extractDocuments(ctx context.Context, extractor document.Extractor, paths []string, limit int) ([]cliapi.DocumentEmails, error) {
	docs := make([]cliapi.DocumentEmails, len(paths))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)

	for i, path := range paths {
		g.Go(func() error {
			session := document.Open(ctx, extractor, path)
			if err := ctx.Err(); err != nil {
				return err
			}

			doc := cliapi.DocumentEmails{
				Path:        path,
				IssueNumber: session.IssueNumber(),
				Emails:      session.Emails(),
			}
			if extraction := session.Extraction(); !extraction.OK() {
				doc.ExtractionError = extraction.Err.Error()
			}
			docs[i] = doc
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return docs, nil
}
