// Package textutil provides filename sanitization helpers for labels that
// come from untrusted callers and end up in filesystem paths.
package textutil

import (
	"strings"

	"golang.org/x/text/unicode/norm"
)

// maxLabelLength bounds sanitized labels so derived filenames stay well under
// common filesystem limits even after an extension is appended.
const maxLabelLength = 120

// fileNameReplacer replaces filesystem-unsafe characters with safe alternatives.
var fileNameReplacer = strings.NewReplacer(
	"/", "-",
	"\\", "-",
	":", "-",
	"*", "-",
	"?", "",
	"\"", "",
	"<", "",
	">", "",
	"|", "",
	"\x00", "",
)

// SanitizeLabel normalizes a free-text label for use in a filename.
// The value is NFKC-folded, filesystem-unsafe characters are replaced,
// whitespace runs collapse to single spaces, and the result is truncated
// to a bounded rune length.
func SanitizeLabel(value string) string {
	value = norm.NFKC.String(strings.TrimSpace(value))
	if value == "" {
		return ""
	}
	value = fileNameReplacer.Replace(value)
	value = strings.Join(strings.Fields(value), " ")
	runes := []rune(value)
	if len(runes) > maxLabelLength {
		value = strings.TrimSpace(string(runes[:maxLabelLength]))
	}
	return value
}
