package generator

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSanitize(t *testing.T) {
	cases := []struct {
		name, in, want string
	}{
		{"email", "連絡は taro.yamada@Example.com まで", "連絡は [連絡先] まで"},
		{"phone", "電話 090-1234-5678 へ", "電話 [番号] へ"},
		{"phone without separators", "番号は 0312345678 です", "番号は [番号] です"},
		{"honorific", "田中さんが発表しました", "[人物]が発表しました"},
		{"several honorifics", "山田太郎くんと花子ちゃん", "[人物]と[人物]"},
		{"school", "青葉小学校の運動会", "ある学校の運動会"},
		{"high school", "Sakura高校と交流", "ある学校と交流"},
		{"competition", "市内陸上大会で入賞", "ある大会で入賞"},
		{"class label", "3年2組で学習発表会", "ある学年の学級で学習発表会"},
		{"school before class", "東小学校3年1組", "ある学校ある学年の学級"},
		{"trim", "  遠足に行きました \n", "遠足に行きました"},
		{"untouched", "運動会がありました", "運動会がありました"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, Sanitize(tc.in))
		})
	}
}

func TestSanitizeIdempotent(t *testing.T) {
	inputs := []string{
		"田中さんと鈴木くんが青葉小学校の代表として県大会に出場",
		"5年3組 保護者各位 連絡先 sensei@school.ed.jp 03-1234-5678",
		"运动会开催",
		"",
	}
	for _, in := range inputs {
		once := Sanitize(in)
		assert.Equal(t, once, Sanitize(once), in)
	}
}

func TestSanitizeLeavesNoContactDetails(t *testing.T) {
	in := "前文 a.b-c+d@mail.example.org 中文 080 1111 2222 後文"
	out := Sanitize(in)
	assert.False(t, redactions[0].pattern.MatchString(out))
	assert.False(t, redactions[1].pattern.MatchString(out))
	assert.Contains(t, out, "[連絡先]")
	assert.Contains(t, out, "[番号]")
}

func TestSanitizeAll(t *testing.T) {
	assert.Equal(t, []string{"[人物]の発表", "ある大会"}, SanitizeAll([]string{"佐藤さんの発表", "全国大会"}))
}
