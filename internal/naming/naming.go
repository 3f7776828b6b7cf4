// Package naming produces filenames that embroidery machines display safely.
package naming

import (
	"path/filepath"
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// FallbackStem replaces a stem that sanitizes to nothing.
const FallbackStem = "output"

var nonAlphanumeric = regexp.MustCompile(`[^a-z0-9]+`)

// SanitizeStem lowercases a file stem and collapses every run of
// non-alphanumeric characters to a single hyphen.
// "Design File" -> "design-file".
// "Rosé__Bouquet (2)" -> "rose-bouquet-2".
// Sanitizing an already sanitized stem returns it unchanged.
func SanitizeStem(stem string) string {
	// Decompose accented characters so the base letter survives.
	s := norm.NFKD.String(stem)

	s = strings.Map(func(r rune) rune {
		if r > unicode.MaxASCII {
			return -1
		}
		return r
	}, s)

	s = strings.ToLower(s)
	s = nonAlphanumeric.ReplaceAllString(s, "-")
	s = strings.Trim(s, "-")

	if s == "" {
		return FallbackStem
	}
	return s
}

// FileName returns the sanitized stem of path joined with ext.
// FileName("/in/Design File.DST", "dst") -> "design-file.dst".
func FileName(path, ext string) string {
	base := filepath.Base(path)
	stem := strings.TrimSuffix(base, filepath.Ext(base))
	ext = strings.ToLower(strings.TrimPrefix(ext, "."))
	if ext == "" {
		return SanitizeStem(stem)
	}
	return SanitizeStem(stem) + "." + ext
}

// Ext returns the lowercase extension of path without the dot.
func Ext(path string) string {
	return strings.ToLower(strings.TrimPrefix(filepath.Ext(path), "."))
}
