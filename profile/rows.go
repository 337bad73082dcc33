package profile

import (
	"sort"
	"strings"
)

// Row is one line of the two-column profile sheet.
type Row struct {
	Key   string
	Value string
}

// IsArrayKey reports whether key holds a newline separated list on the sheet.
func IsArrayKey(key string) bool {
	switch key {
	case KeyDos, KeyDonts, KeyPhraseBank, KeyClosingPatterns:
		return true
	}
	return false
}

// Serialize emits the schema keys in fixed order followed by any extra keys
// in sorted order. List values are joined with newlines.
func Serialize(p *StyleProfile) []Row {
	if p == nil {
		return nil
	}
	rows := []Row{
		{KeyStyleName, p.StyleName},
		{KeySummary, p.Summary},
		{KeySentenceStructure, p.SentenceStructure},
		{KeyOverallTone, p.OverallTone},
		{KeyDos, strings.Join(p.Dos, "\n")},
		{KeyDonts, strings.Join(p.Donts, "\n")},
		{KeyPhraseBank, strings.Join(p.PhraseBank, "\n")},
		{KeyClosingPatterns, strings.Join(p.ClosingPatterns, "\n")},
	}
	extra := make([]string, 0, len(p.Extra))
	for k := range p.Extra {
		extra = append(extra, k)
	}
	sort.Strings(extra)
	for _, k := range extra {
		rows = append(rows, Row{k, p.Extra[k]})
	}
	return rows
}

// Deserialize is the inverse of Serialize. Rows with a blank key are skipped;
// the result must carry style_name and summary or ErrIncompleteProfile is returned.
func Deserialize(rows []Row) (*StyleProfile, error) {
	p := &StyleProfile{}
	for _, r := range rows {
		key := strings.TrimSpace(r.Key)
		if key == "" {
			continue
		}
		switch key {
		case KeyStyleName:
			p.StyleName = r.Value
		case KeySummary:
			p.Summary = r.Value
		case KeySentenceStructure:
			p.SentenceStructure = r.Value
		case KeyOverallTone:
			p.OverallTone = r.Value
		case KeyDos:
			p.Dos = splitLines(r.Value)
		case KeyDonts:
			p.Donts = splitLines(r.Value)
		case KeyPhraseBank:
			p.PhraseBank = splitLines(r.Value)
		case KeyClosingPatterns:
			p.ClosingPatterns = splitLines(r.Value)
		default:
			if p.Extra == nil {
				p.Extra = make(map[string]string)
			}
			p.Extra[key] = r.Value
		}
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return p, nil
}

func splitLines(s string) []string {
	parts := strings.Split(s, "\n")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		if v := strings.TrimSpace(strings.TrimSuffix(part, "\r")); v != "" {
			out = append(out, v)
		}
	}
	return out
}
