// Package profile models the learned writing style of a teacher and persists
// it together with the API credential in a scoped key/value store.
package profile

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrIncompleteProfile rejects profiles without style_name or summary.
var ErrIncompleteProfile = errors.New("シートからプロファイルを正しく読み込めませんでした。項目名が変更されていないか確認してください。")

// JSON keys fixed by the analysis prompt contract.
const (
	KeyStyleName         = "style_name"
	KeySummary           = "summary"
	KeySentenceStructure = "B_sentence_structure"
	KeyOverallTone       = "D_overall_tone"
	KeyDos               = "dos"
	KeyDonts             = "donts"
	KeyPhraseBank        = "phrase_bank"
	KeyClosingPatterns   = "closing_patterns"
)

// StyleProfile is the structured summary of a teacher's writing habits.
// Keys the model returns beyond the schema are kept in Extra so that the
// profile sheet shows them and a reload does not lose them.
type StyleProfile struct {
	StyleName         string
	Summary           string
	SentenceStructure string
	OverallTone       string
	Dos               []string
	Donts             []string
	PhraseBank        []string
	ClosingPatterns   []string
	Extra             map[string]string
}

// Validate enforces the "absent or at least style_name and summary" invariant.
func (p *StyleProfile) Validate() error {
	if p == nil || strings.TrimSpace(p.StyleName) == "" || strings.TrimSpace(p.Summary) == "" {
		return ErrIncompleteProfile
	}
	return nil
}

// Summary is the short view shown in the sidebar/state endpoint.
type Summary struct {
	StyleName         string    `json:"style_name"`
	Summary           string    `json:"summary"`
	SentenceStructure string    `json:"B_sentence_structure"`
	OverallTone       string    `json:"D_overall_tone"`
	UpdatedAt         time.Time `json:"updatedAt"`
}

func (p *StyleProfile) Summarize(now time.Time) Summary {
	return Summary{
		StyleName:         p.StyleName,
		Summary:           p.Summary,
		SentenceStructure: p.SentenceStructure,
		OverallTone:       p.OverallTone,
		UpdatedAt:         now.UTC(),
	}
}

func (p StyleProfile) MarshalJSON() ([]byte, error) {
	m := make(map[string]any, 8+len(p.Extra))
	for k, v := range p.Extra {
		m[k] = v
	}
	m[KeyStyleName] = p.StyleName
	m[KeySummary] = p.Summary
	m[KeySentenceStructure] = p.SentenceStructure
	m[KeyOverallTone] = p.OverallTone
	m[KeyDos] = nonNil(p.Dos)
	m[KeyDonts] = nonNil(p.Donts)
	m[KeyPhraseBank] = nonNil(p.PhraseBank)
	m[KeyClosingPatterns] = nonNil(p.ClosingPatterns)
	return json.Marshal(m)
}

func (p *StyleProfile) UnmarshalJSON(data []byte) error {
	var m map[string]any
	if err := json.Unmarshal(data, &m); err != nil {
		return err
	}
	*p = *FromMap(m)
	return nil
}

// FromMap decodes a loosely typed JSON object. Array fields accept either a
// list or newline separated text; non-string scalars are stringified.
func FromMap(m map[string]any) *StyleProfile {
	p := &StyleProfile{}
	for k, v := range m {
		switch k {
		case KeyStyleName:
			p.StyleName = scalar(v)
		case KeySummary:
			p.Summary = scalar(v)
		case KeySentenceStructure:
			p.SentenceStructure = scalar(v)
		case KeyOverallTone:
			p.OverallTone = scalar(v)
		case KeyDos:
			p.Dos = list(v)
		case KeyDonts:
			p.Donts = list(v)
		case KeyPhraseBank:
			p.PhraseBank = list(v)
		case KeyClosingPatterns:
			p.ClosingPatterns = list(v)
		default:
			if p.Extra == nil {
				p.Extra = make(map[string]string)
			}
			p.Extra[k] = scalar(v)
		}
	}
	return p
}

func scalar(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case float64, bool:
		return fmt.Sprint(t)
	default:
		b, err := json.Marshal(t)
		if err != nil {
			return fmt.Sprint(t)
		}
		return string(b)
	}
}

func list(v any) []string {
	switch t := v.(type) {
	case []any:
		out := make([]string, 0, len(t))
		for _, item := range t {
			if s := strings.TrimSpace(scalar(item)); s != "" {
				out = append(out, s)
			}
		}
		return out
	case []string:
		return splitLines(strings.Join(t, "\n"))
	default:
		return splitLines(scalar(v))
	}
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
