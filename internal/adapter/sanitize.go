// Package adapter provides implementations for external completion provider integrations.
package adapter

import "regexp"

// citationPattern matches citation-marker artifacts some providers embed in
// generated text, e.g. 【3:2†source】.
var citationPattern = regexp.MustCompile(`【\d+:\d+†source】`)

// boldPatterns match markdown emphasis markers around a span of text.
var boldPatterns = []*regexp.Regexp{
	regexp.MustCompile(`\*\*(.*?)\*\*`),
	regexp.MustCompile(`__(.*?)__`),
}

// StripCitations removes citation-marker artifacts from provider output.
// Text without the pattern is returned unchanged.
func StripCitations(s string) string {
	return citationPattern.ReplaceAllString(s, "")
}

// StripBold removes markdown bold markers, keeping the wrapped text.
func StripBold(s string) string {
	result := s
	for _, pattern := range boldPatterns {
		result = pattern.ReplaceAllString(result, "$1")
	}
	return result
}
