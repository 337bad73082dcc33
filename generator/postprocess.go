package generator

import (
	"regexp"
	"strings"
)

var (
	quoteEdges    = regexp.MustCompile(`^["'「」]+|["'「」]+$`)
	subjectLine   = regexp.MustCompile(`^(?:件名：|タイトル：|(?i:subject|title):)[^\n]*\n`)
	horizontalWS  = regexp.MustCompile(`[ \t]+`)
	blankLineRuns = regexp.MustCompile(`\n{3,}`)
)

// Cleanup strips wrapping quotes/brackets and a leading subject or title
// line, then normalizes whitespace. It repeats until the text is stable so
// Cleanup(Cleanup(t)) == Cleanup(t).
func Cleanup(text string) string {
	t := text
	for {
		next := cleanupOnce(t)
		if next == t {
			return next
		}
		// each pass only removes characters or turns tabs into spaces
		t = next
	}
}

func cleanupOnce(t string) string {
	t = strings.TrimSpace(quoteEdges.ReplaceAllString(t, ""))
	t = strings.TrimSpace(subjectLine.ReplaceAllString(t, ""))
	t = horizontalWS.ReplaceAllString(t, " ")
	t = blankLineRuns.ReplaceAllString(t, "\n\n")
	return strings.TrimSpace(t)
}
