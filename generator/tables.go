package generator

import (
	"strings"

	"class_newsletter_writer/profile"
)

// GoalSpec is the purpose line and length hint selected by a goal code.
type GoalSpec struct {
	Instruction       string
	RecommendedLength string
}

// GoalSpecFor resolves a goal code case-insensitively. D, OTHER and その他
// leave the purpose open; unknown codes get a balanced default.
func GoalSpecFor(code string) GoalSpec {
	switch strings.ToUpper(strings.TrimSpace(code)) {
	case "A":
		return GoalSpec{"学校行事（遠足、運動会、学習発表会など）の様子や連絡事項を、保護者に分かりやすく伝える。", "250〜400字"}
	case "B":
		return GoalSpec{"日々の学習や係活動、休み時間など、普段の学校での子供たちの活動の様子を、エピソードを交えて生き生きと描く。", "300〜500字"}
	case "C":
		return GoalSpec{"学級経営方針や、家庭での協力をお願いしたいことなど、保護者へのメッセージや想いを丁寧に伝える。", "250〜450字"}
	case "D", "OTHER", "その他":
		return GoalSpec{"", "200〜600字"}
	default:
		return GoalSpec{"丁寧で温かく、保護者が安心できるようなバランスの取れた学級通信を作成する。", "300〜500字"}
	}
}

var gradeGuidance = map[string]string{
	"elementary_1":  "小学校1年生の保護者向けです。ひらがなを多く使い、簡単な漢字のみを使用してください。短めの文章で、分かりやすく表現してください。",
	"elementary_2":  "小学校2年生の保護者向けです。基本的な漢字を適度に使い、読みやすい文章で表現してください。",
	"elementary_3":  "小学校3年生の保護者向けです。小学校低学年で習う漢字を中心に使い、自然な文章で表現してください。",
	"elementary_4":  "小学校4年生の保護者向けです。小学校中学年レベルの漢字を使い、やや詳しい文章で表現してください。",
	"elementary_5":  "小学校5年生の保護者向けです。小学校高学年レベルの漢字を使い、しっかりとした文章で表現してください。",
	"elementary_6":  "小学校6年生の保護者向けです。小学校で習う漢字を積極的に使い、中学進学を控えた保護者に適した文章レベルで表現してください。",
	"middle_school": "中学生の保護者向けです。中学校レベルの漢字と語彙を使い、落ち着いた文章で表現してください。",
	"high_school":   "高校生の保護者向けです。一般的な大人向けの漢字と語彙を使い、丁寧で読み応えのある文章で表現してください。",
}

const defaultGradeGuidance = "児童・生徒の保護者向けです。適切な漢字レベルで、分かりやすく丁寧な文章で表現してください。"

// GradeGuidance returns the audience sentence for a grade band.
func GradeGuidance(level string) string {
	if g, ok := gradeGuidance[level]; ok {
		return g
	}
	return defaultGradeGuidance
}

// DefaultStyleGuidance is used when no style profile is stored.
const DefaultStyleGuidance = "丁寧で温かく、簡潔かつ客観的な「です・ます調」。"

// StyleGuidance condenses a profile into one advisory line: tone (80 runes),
// sentence structure (60 runes), up to three stock phrases and the polite
// register directive, joined by "。".
func StyleGuidance(p *profile.StyleProfile) string {
	if p == nil {
		return DefaultStyleGuidance
	}
	var parts []string
	if p.OverallTone != "" {
		parts = append(parts, truncateRunes(p.OverallTone, 80))
	}
	if p.SentenceStructure != "" {
		parts = append(parts, "文の構成: "+truncateRunes(p.SentenceStructure, 60))
	}
	if len(p.PhraseBank) > 0 {
		phrases := p.PhraseBank
		if len(phrases) > 3 {
			phrases = phrases[:3]
		}
		parts = append(parts, "参考表現: "+strings.Join(phrases, "、"))
	}
	parts = append(parts, "「です・ます調」で統一")
	return strings.Join(parts, "。")
}

func truncateRunes(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
