package generator

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/width"
)

var (
	keywordSplit = regexp.MustCompile(`[、。\s\x{3000}]+`)
	stopWords    = map[string]bool{"こと": true, "もの": true, "ため": true, "について": true}
)

// CheckCoverage flags memos whose keywords all fail to appear in text. A memo
// with no usable keyword is never flagged. Full-width and half-width forms
// compare equal. The result is advisory.
func CheckCoverage(memos []string, text string) []string {
	folded := width.Fold.String(text)
	var missing []string
	for i, memo := range memos {
		keywords := memoKeywords(memo)
		if len(keywords) == 0 {
			continue
		}
		covered := false
		for _, kw := range keywords {
			if strings.Contains(folded, width.Fold.String(kw)) {
				covered = true
				break
			}
		}
		if !covered {
			missing = append(missing, fmt.Sprintf("項目%d: %s", i+1, memo))
		}
	}
	return missing
}

func memoKeywords(memo string) []string {
	var out []string
	for _, w := range keywordSplit.Split(memo, -1) {
		if utf8.RuneCountInString(w) <= 1 || stopWords[w] {
			continue
		}
		out = append(out, w)
	}
	return out
}
