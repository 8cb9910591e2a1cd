package parser

import (
	"regexp"
)

// NoiseRule strips one kind of unrelated field from the front of a raw local part.
//
// PDF text extraction often glues names, phone numbers and postal codes onto
// the start of an address with no whitespace in between. Each rule removes a
// single leading match of its pattern.
type NoiseRule struct {
	Name        string
	Description string
	Pattern     *regexp.Regexp
}

// Matches reports whether the rule would change s
func (r NoiseRule) Matches(s string) bool {
	return r.Pattern.MatchString(s)
}

// Apply removes the rule's leading match from s, if any
func (r NoiseRule) Apply(s string) string {
	loc := r.Pattern.FindStringIndex(s)
	if loc == nil {
		return s
	}
	return s[:loc[0]] + s[loc[1]:]
}

var leadingPunctuation = regexp.MustCompile(`^[^a-zA-Z0-9]+`)

// noiseRules is applied in declaration order. The order matters: later rules
// see what earlier ones left behind, and the final pass cleans up separators
// exposed by the number rules.
var noiseRules = []NoiseRule{
	{
		Name:        "leading-punctuation",
		Description: "Leading run of non-alphanumeric characters",
		Pattern:     leadingPunctuation,
	},
	{
		Name:        "phone-number",
		Description: "Everything up to and including a phone number such as 310-633-2905",
		Pattern:     regexp.MustCompile(`^.*?(\d{3,5}[-\s]?\d{3,4}[-\s]?\d{4})`),
	},
	{
		Name:        "state-code",
		Description: "State code followed by digits, e.g. CA90094",
		Pattern:     regexp.MustCompile(`^[A-Z]{2,}[\d-]+`),
	},
	{
		Name:        "zip-code",
		Description: "Five or more digits with an optional extension",
		Pattern:     regexp.MustCompile(`^\d{5,}[-\s]?\d*`),
	},
	{
		Name:        "code-number",
		Description: "Alphanumeric code followed by a separated number",
		Pattern:     regexp.MustCompile(`^[A-Z\d]+[-\s]\d+[-\s]?\d*`),
	},
	{
		Name:        "exposed-punctuation",
		Description: "Separators left at the front by the number rules",
		Pattern:     leadingPunctuation,
	},
}

// NoiseRules returns a copy of the ordered noise-stripping chain
func NoiseRules() []NoiseRule {
	rules := make([]NoiseRule, len(noiseRules))
	copy(rules, noiseRules)
	return rules
}

// StripNoise runs the full chain over a raw local part
func StripNoise(raw string) string {
	for _, rule := range noiseRules {
		raw = rule.Apply(raw)
	}
	return raw
}
