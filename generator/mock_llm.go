package generator

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
)

var memoLine = regexp.MustCompile(`(?m)^\d+\. (.+)$`)

// MockLLM is an offline client for local runs; it never calls a model.
// Newsletter prompts get the memo lines stitched into polite sentences;
// analysis prompts get a fixed style profile.
type MockLLM struct{}

func (m MockLLM) Invoke(_ context.Context, prompt Prompt) (RawResponse, error) {
	text := prompt.Text()
	var out string
	if strings.Contains(text, "--- サンプル開始 ---") {
		out = mockProfileJSON
	} else {
		materials, _, _ := strings.Cut(text, "【絶対遵守事項】")
		var sb strings.Builder
		for _, match := range memoLine.FindAllStringSubmatch(materials, MaxMemos) {
			fmt.Fprintf(&sb, "%sことをお伝えします。", match[1])
		}
		sb.WriteString("これからも子供たちの成長を温かく見守っていきます。")
		out = sb.String()
	}

	doc := map[string]any{
		"candidates": []any{
			map[string]any{
				"content":      map[string]any{"role": "model", "parts": []any{map[string]any{"text": out}}},
				"finishReason": "STOP",
			},
		},
	}
	return json.Marshal(doc)
}

const mockProfileJSON = `{
  "style_name": "温かい語りかけ型",
  "summary": "保護者に語りかけるような、丁寧で温かい文体。",
  "B_sentence_structure": "一文は短めで、具体的なエピソードの後に気持ちを添える構成。",
  "D_overall_tone": "丁寧で温かく、保護者への感謝がにじむトーン。",
  "dos": ["具体的な様子を描写する", "感謝の言葉を添える"],
  "donts": ["個人名を出す"],
  "phrase_bank": ["子供たちの笑顔が印象的でした", "温かいご声援をありがとうございました"],
  "closing_patterns": ["今後ともよろしくお願いいたします。"]
}`
