package generator

import (
	"regexp"
	"strings"
)

type redaction struct {
	pattern     *regexp.Regexp
	replacement string
}

// Applied in order on the cumulative text; later rules see earlier placeholders.
var redactions = []redaction{
	{regexp.MustCompile(`(?i)[A-Z0-9._%+-]+@[A-Z0-9.-]+\.[A-Z]{2,}`), "[連絡先]"},
	{regexp.MustCompile(`\b\d{2,4}[-\s]?\d{2,4}[-\s]?\d{3,4}\b`), "[番号]"},
	{regexp.MustCompile(`[一-龥]{1,4}(?:さん|くん|ちゃん)`), "[人物]"},
	{regexp.MustCompile(`[一-龥A-Za-z0-9]+(?:小学校|中学校|高等学校|高校|中学|小学)`), "ある学校"},
	{regexp.MustCompile(`[一-龥A-Za-z0-9]+大会`), "ある大会"},
	{regexp.MustCompile(`[1-6]年[1-9]組`), "ある学年の学級"},
}

// Sanitize redacts contact details, names, schools, competitions and class
// labels before text leaves the process.
func Sanitize(s string) string {
	for _, r := range redactions {
		s = r.pattern.ReplaceAllLiteralString(s, r.replacement)
	}
	return strings.TrimSpace(s)
}

// SanitizeAll applies Sanitize to each item.
func SanitizeAll(items []string) []string {
	out := make([]string, len(items))
	for i, s := range items {
		out[i] = Sanitize(s)
	}
	return out
}
