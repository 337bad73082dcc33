package generator

import (
	"fmt"
	"strings"

	"class_newsletter_writer/profile"
)

// MaxMemos is the number of memo items passed to the model.
const MaxMemos = 12

var (
	analysisConfig   = GenerationConfig{Temperature: 0.2, TopP: 0.9, MaxOutputTokens: 2048}
	newsletterConfig = GenerationConfig{Temperature: 0.3, TopP: 0.9, MaxOutputTokens: 2048}
)

const analysisInstruction = `あなたは日本語の文章スタイルを分析する専門家です。
以下は、ある教員が過去に作成した「学級通信」の文章サンプルです。
これらの文章から、書き手の文体的な特徴を抽出し、以下のJSON形式で出力してください。

特に次の観点を明確に抽出してください:
B：文の構成（一文の長さ、接続詞の使い方、段落の組み立て、比喩や具体例の使い方）
D：全体的なトーン（丁寧さ、温かみ、客観性、保護者への語りかけ方など）

必ず次のJSONスキーマの1オブジェクトのみを返すこと。前置きやコードブロックは不要。
{
  "style_name": "string",
  "summary": "string",
  "B_sentence_structure": "string",
  "D_overall_tone": "string",
  "dos": ["string"],
  "donts": ["string"],
  "phrase_bank": ["string"],
  "closing_patterns": ["string"]
}`

var privacyGuard = []string{
	"固有名詞（生徒名、学校名、具体的な大会名等）は出力に含めない。",
	"日付や回数などの数値は一般化して表現する（例：「先日」「複数回」など）。",
}

// BuildAnalysisPrompt asks for the style profile JSON. The caller enforces
// the minimum sample count.
func BuildAnalysisPrompt(samples []string) Prompt {
	numbered := make([]string, len(samples))
	for i, s := range samples {
		numbered[i] = fmt.Sprintf("【サンプル%d】\n%s", i+1, s)
	}
	return Prompt{
		Parts: []string{
			analysisInstruction,
			"--- サンプル開始 ---\n" + strings.Join(numbered, "\n\n") + "\n--- サンプル終了 ---",
		},
		Config: analysisConfig,
	}
}

// BuildNewsletterPrompt composes the single generation instruction. Memo
// coverage is the hard requirement; style is advisory.
func BuildNewsletterPrompt(memos []string, goalCode string, sp *profile.StyleProfile, charCount int, gradeLevel string) Prompt {
	goal := GoalSpecFor(goalCode)

	lengthSpec := fmt.Sprintf("文字量の目安: %s。", goal.RecommendedLength)
	if charCount > 0 {
		lengthSpec = fmt.Sprintf("文字量の目安: %d字程度。", charCount)
	}

	purpose := "1. 目的: 箇条書きメモの内容を自然な文章にまとめる"
	if goal.Instruction != "" {
		purpose = "1. 目的: " + goal.Instruction
	}

	if len(memos) > MaxMemos {
		memos = memos[:MaxMemos]
	}

	var sb strings.Builder
	sb.WriteString("あなたはプロの編集者です。以下の【材料】の内容を一つ残らず文章に反映することが最優先の任務です。\n\n")
	sb.WriteString("【材料】（各項目を必ず本文に含めてください）\n---\n")
	for i, m := range memos {
		fmt.Fprintf(&sb, "%d. %s\n", i+1, m)
	}
	sb.WriteString("---\n\n")

	sb.WriteString("【絶対遵守事項】\n")
	sb.WriteString("- 上記の各項目を漏れなく本文に反映する（各項目につき最低1文）\n")
	sb.WriteString("- 材料にない出来事・数値・評価の創作は禁止（言い換えは可、付け足しは不可）\n\n")

	sb.WriteString("【文章の条件】\n")
	sb.WriteString(purpose + "\n")
	sb.WriteString("2. 対象読者: " + GradeGuidance(gradeLevel) + "\n")
	sb.WriteString("3. " + lengthSpec + "\n")
	sb.WriteString("4. 文体（参考程度に適用）: " + StyleGuidance(sp) + "\n")
	sb.WriteString("5. 禁止事項:\n")
	for _, g := range privacyGuard {
		sb.WriteString("   - " + g + "\n")
	}
	sb.WriteString("\n")

	sb.WriteString("【出力形式】\n")
	sb.WriteString("- 完成した日本語の本文のみ出力\n")
	sb.WriteString("- タイトルや前置きは不要\n")
	sb.WriteString("- ポジティブな表現で締めくくる")

	return Prompt{Parts: []string{sb.String()}, Config: newsletterConfig}
}
