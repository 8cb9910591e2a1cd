package parser

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestReconstructLocalPart(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		expected string
		ok       bool
	}{
		{"Stops at whitespace", "at john.doe@example.com", "john.doe", true},
		{"Walks to start of text", "jane@example.com", "jane", true},
		{"Stops at comma", "Doe,jane@example.com", "jane", true},
		{"Stops at colon", "Email:jane@example.com", "jane", true},
		{"Stops at pipe", "Roe|jane@example.com", "jane", true},
		{"Stops at backslash", `dir\jane@example.com`, "jane", true},
		{"Field boundary ends a preceding name", "DoeJSmith@example.com", "Smith", true},
		{"Field boundary drops the uppercase letter", "ManagerJane.Doe@example.com", "ane.Doe", true},
		{"Leading uppercase at text start is kept", "Jane@example.com", "Jane", true},
		{"Phone prefix stripped", "310-633-2905jane@example.com", "jane", true},
		{"Nothing before the @", "@example.com", "", false},
		{"Delimiter right before the @", "x @example.com", "", false},
		{"Only noise before the @", "604-873-9739@example.com", "", false},
		{"Unicode before the delimiter", "é jösé@example.com", "jösé", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			at := strings.Index(tt.text, "@")
			localPart, ok := ReconstructLocalPart(tt.text, at)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.expected, localPart)
		})
	}
}

func TestReconstructLocalPart_OutOfRange(t *testing.T) {
	_, ok := ReconstructLocalPart("jane@example.com", -1)
	assert.False(t, ok)

	_, ok = ReconstructLocalPart("jane@example.com", 100)
	assert.False(t, ok)
}
