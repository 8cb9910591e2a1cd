// Package document holds the text of one source document for the duration of
// a parse session.
package document

import (
	"context"

	"pdf-contacts/internal/parser"
)

// Session owns the text of a single document. The text is extracted once,
// when the session is created, and never changes afterwards. A Session is
// safe for concurrent use.
type Session struct {
	path       string
	extraction Extraction
}

// Open extracts the document at path and returns a session over its text.
// Extraction failures are recorded on the session; the text is then empty.
func Open(ctx context.Context, extractor Extractor, path string) *Session {
	return &Session{
		path:       path,
		extraction: extractor.Extract(ctx, path),
	}
}

// NewSession wraps text that has already been extracted
func NewSession(text string) *Session {
	return &Session{extraction: Extraction{Text: text}}
}

// Path returns the source path, empty for sessions built from raw text
func (s *Session) Path() string {
	return s.path
}

// Text returns the full document text
func (s *Session) Text() string {
	return s.extraction.Text
}

// Extraction returns the raw extraction result, including any read error
func (s *Session) Extraction() Extraction {
	return s.extraction
}

// Emails returns the unique, validated email addresses in the document
func (s *Session) Emails() []string {
	return parser.ExtractEmails(s.extraction.Text)
}

// IssueNumber returns the document's issue number or parser.UnknownIssueNumber
func (s *Session) IssueNumber() string {
	return parser.ExtractIssueNumber(s.extraction.Text)
}

// ProductionName returns the production name for the document
func (s *Session) ProductionName() string {
	return parser.ProductionName
}
