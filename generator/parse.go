package generator

import (
	"encoding/json"
	"regexp"
	"strings"

	"github.com/tidwall/gjson"

	"class_newsletter_writer/profile"
)

// ExtractText joins the non-empty text parts of the first candidate with
// newlines. Any missing or malformed shape yields "".
func ExtractText(raw RawResponse) string {
	if !gjson.ValidBytes(raw) {
		return ""
	}
	parts := gjson.GetBytes(raw, "candidates.0.content.parts")
	if !parts.IsArray() {
		return ""
	}
	var texts []string
	parts.ForEach(func(_, part gjson.Result) bool {
		if t := part.Get("text"); t.Type == gjson.String && t.Str != "" {
			texts = append(texts, t.Str)
		}
		return true
	})
	return strings.Join(texts, "\n")
}

type jsonStage func(string) (map[string]any, bool)

var (
	fencedJSON = regexp.MustCompile("(?s)```json\\s*(.*?)\\s*```")
	braceSpan  = regexp.MustCompile(`(?s)\{.*\}`)

	looseStages = []jsonStage{parseDirect, parseFenced, parseBraceSpan}
)

// ParseJSONLoose tries a direct parse, then a ```json fenced block, then the
// span from the first "{" to the last "}". Only objects count as success.
func ParseJSONLoose(s string) (map[string]any, bool) {
	for _, stage := range looseStages {
		if v, ok := stage(s); ok {
			return v, true
		}
	}
	return nil, false
}

func parseDirect(s string) (map[string]any, bool) {
	return decodeObject(s)
}

func parseFenced(s string) (map[string]any, bool) {
	m := fencedJSON.FindStringSubmatch(s)
	if m == nil || m[1] == "" {
		return nil, false
	}
	return decodeObject(m[1])
}

func parseBraceSpan(s string) (map[string]any, bool) {
	span := braceSpan.FindString(s)
	if span == "" {
		return nil, false
	}
	return decodeObject(span)
}

func decodeObject(s string) (map[string]any, bool) {
	var v any
	if err := json.Unmarshal([]byte(strings.TrimSpace(s)), &v); err != nil {
		return nil, false
	}
	obj, ok := v.(map[string]any)
	return obj, ok
}

// ParseStyleProfile decodes model output into a profile without validating it.
func ParseStyleProfile(s string) (*profile.StyleProfile, bool) {
	m, ok := ParseJSONLoose(s)
	if !ok {
		return nil, false
	}
	return profile.FromMap(m), true
}
