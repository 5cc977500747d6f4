// Package naming derives logical asset names and declared scales from
// asset file names.
package naming

import (
	"regexp"
	"strings"
)

var (
	// scaleTokenRe matches a scale token with a word boundary on its right,
	// e.g. "icon@2x" or "icon@3X-dark".
	scaleTokenRe = regexp.MustCompile(`(?i)@(?:1x|2x|3x)\b`)

	// scaleSuffixRe matches a scale token sitting right before an extension
	// separator, e.g. "icon@2x.png".
	scaleSuffixRe = regexp.MustCompile(`(?i)@([123]x)\.`)
)

// Normalize strips scale tokens from a base name (no directory, no
// extension). Names without a scale token are returned unchanged.
func Normalize(base string) string {
	if !strings.Contains(base, "@") {
		return base
	}
	return scaleTokenRe.ReplaceAllString(base, "")
}

// NormalizeFile is Normalize applied to the stem of a file name.
func NormalizeFile(name string) string {
	return Normalize(Stem(name))
}

// Stem returns the file name without its directory and last extension.
func Stem(name string) string {
	if i := strings.LastIndexAny(name, `/\`); i >= 0 {
		name = name[i+1:]
	}
	// A leading dot is part of the name, not an extension separator.
	if i := strings.LastIndex(name, "."); i > 0 {
		return name[:i]
	}
	return name
}

// DetectScale returns the lowercased declared scale ("1x", "2x", "3x") of a
// file name, or "" when none is declared. Only the first match counts.
func DetectScale(name string) string {
	m := scaleSuffixRe.FindStringSubmatch(name)
	if m == nil {
		return ""
	}
	return strings.ToLower(m[1])
}

// Score ranks a declared scale: 3x > 2x > 1x > none.
func Score(scale string) int {
	switch strings.ToLower(scale) {
	case "3x":
		return 3
	case "2x":
		return 2
	case "1x":
		return 1
	default:
		return 0
	}
}
