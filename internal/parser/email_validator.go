package parser

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"
)

// ErrInvalidEmail is wrapped by every rejection returned from ValidateEmail
var ErrInvalidEmail = errors.New("invalid email")

const (
	maxLocalPartLength = 64
	maxDomainLength    = 255
)

var (
	allUppercasePattern   = regexp.MustCompile(`^[A-Z]+$`)
	embeddedPhonePattern  = regexp.MustCompile(`\d{3}[-\s]?\d{3}[-\s]?\d{4}`)
	stateCodePrefix       = regexp.MustCompile(`^[A-Z]{2}\d`)
	topLevelDomainPattern = regexp.MustCompile(`\.[a-zA-Z]{2,}$`)
)

// ValidateEmail checks a reconstructed address against structural and
// heuristic rules. It returns nil when the address is accepted.
func ValidateEmail(email string) error {
	if strings.Count(email, "@") != 1 {
		return reject("must contain exactly one @")
	}

	local, domain, _ := strings.Cut(email, "@")

	if err := validateLocalPart(local); err != nil {
		return err
	}
	return validateDomain(domain)
}

// IsValidEmail reports whether ValidateEmail accepts email
func IsValidEmail(email string) bool {
	return ValidateEmail(email) == nil
}

func validateLocalPart(local string) error {
	if local == "" || utf8.RuneCountInString(local) > maxLocalPartLength {
		return reject("local part length out of range")
	}
	if strings.HasPrefix(local, ".") || strings.HasSuffix(local, ".") {
		return reject("local part starts or ends with a dot")
	}
	if strings.Contains(local, "..") {
		return reject("local part contains consecutive dots")
	}

	// Uppercase-only local parts are almost always company names
	if allUppercasePattern.MatchString(local) {
		return reject("local part is all uppercase")
	}
	if embeddedPhonePattern.MatchString(local) {
		return reject("local part contains a phone number")
	}
	if stateCodePrefix.MatchString(local) {
		return reject("local part starts with a state code")
	}
	return nil
}

func validateDomain(domain string) error {
	if domain == "" || utf8.RuneCountInString(domain) > maxDomainLength {
		return reject("domain length out of range")
	}
	if strings.HasPrefix(domain, ".") || strings.HasSuffix(domain, ".") {
		return reject("domain starts or ends with a dot")
	}
	if strings.HasPrefix(domain, "-") || strings.HasSuffix(domain, "-") {
		return reject("domain starts or ends with a hyphen")
	}
	if !strings.Contains(domain, ".") {
		return reject("domain has no dot")
	}
	if !topLevelDomainPattern.MatchString(domain) {
		return reject("domain does not end in an alphabetic top-level label")
	}
	return nil
}

func reject(reason string) error {
	return fmt.Errorf("%w: %s", ErrInvalidEmail, reason)
}
