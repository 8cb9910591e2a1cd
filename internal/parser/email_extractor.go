package parser

import (
	"regexp"
)

// UnknownIssueNumber is returned when a document carries no issue marker
const UnknownIssueNumber = "unknown"

// ProductionName is the name given to every production extracted from a document.
// Production names are not derived from the text yet.
const ProductionName = "Extracted Production Name"

var (
	// domainSuffixPattern matches "@" followed by something domain shaped
	domainSuffixPattern = regexp.MustCompile(`@[a-zA-Z0-9][a-zA-Z0-9.-]*\.[a-zA-Z]{2,}`)

	issueNumberPattern = regexp.MustCompile(`(?i)Issue\s+(\d{3,5})`)
)

// Candidate is an "@domain" fragment located in document text
type Candidate struct {
	Suffix string // "@" plus the domain
	Offset int    // byte offset of the "@" within the text
}

// LocateCandidates returns every domain suffix in text, in text order.
// The same literal fragment appearing at several offsets is reported each time.
func LocateCandidates(text string) []Candidate {
	locs := domainSuffixPattern.FindAllStringIndex(text, -1)
	candidates := make([]Candidate, 0, len(locs))
	for _, loc := range locs {
		candidates = append(candidates, Candidate{
			Suffix: text[loc[0]:loc[1]],
			Offset: loc[0],
		})
	}
	return candidates
}

// RejectFunc receives a reconstructed candidate that failed validation
type RejectFunc func(candidate string, err error)

// ExtractEmails reconstructs, validates and deduplicates the email addresses
// found in text. Order follows first occurrence. The result is never nil.
func ExtractEmails(text string) []string {
	return ExtractEmailsFunc(text, nil)
}

// ExtractEmailsFunc is ExtractEmails with a hook called for every
// reconstructed candidate the validator rejects. onReject may be nil.
func ExtractEmailsFunc(text string, onReject RejectFunc) []string {
	emails := []string{}
	seen := make(map[string]bool)

	for _, candidate := range LocateCandidates(text) {
		localPart, ok := ReconstructLocalPart(text, candidate.Offset)
		if !ok {
			continue
		}

		email := localPart + candidate.Suffix
		if err := ValidateEmail(email); err != nil {
			if onReject != nil {
				onReject(email, err)
			}
			continue
		}

		if seen[email] {
			continue
		}
		seen[email] = true
		emails = append(emails, email)
	}

	return emails
}

// ExtractIssueNumber returns the digits of the first "Issue NNNN" marker in
// text, or UnknownIssueNumber
func ExtractIssueNumber(text string) string {
	match := issueNumberPattern.FindStringSubmatch(text)
	if match == nil {
		return UnknownIssueNumber
	}
	return match[1]
}
