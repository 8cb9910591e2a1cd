package parser

import (
	"strings"
	"unicode/utf8"
)

const localPartDelimiters = " \t\n\v\f\r,;:()[]<>{}/\\|"

// ReconstructLocalPart walks backward from the "@" at offset at and returns
// the cleaned local part in front of it. ok is false when nothing survives
// noise stripping.
func ReconstructLocalPart(text string, at int) (string, bool) {
	if at <= 0 || at > len(text) {
		return "", false
	}

	start := at
	for start > 0 {
		r, size := utf8.DecodeLastRuneInString(text[:start])
		if strings.ContainsRune(localPartDelimiters, r) {
			break
		}
		if start < at && isFieldBoundary(text[:start-size], r) {
			break
		}
		start -= size
	}

	localPart := StripNoise(text[start:at])
	if localPart == "" {
		return "", false
	}
	return localPart, true
}

// isFieldBoundary reports whether r looks like the start of a word butted up
// against the end of a preceding lowercase word, as in "DoeJane".
func isFieldBoundary(before string, r rune) bool {
	if before == "" || !isUpperASCII(r) {
		return false
	}
	prev, _ := utf8.DecodeLastRuneInString(before)
	return isLowerASCII(prev)
}

func isUpperASCII(r rune) bool {
	return r >= 'A' && r <= 'Z'
}

func isLowerASCII(r rune) bool {
	return r >= 'a' && r <= 'z'
}
