package generator

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCheckCoverageWholeMemoKeyword(t *testing.T) {
	memos := []string{"桜の花が咲きました"}

	assert.Empty(t, CheckCoverage(memos, "校庭の桜の花が咲きましたので、みんなで観察しました。"))
	assert.Equal(t, []string{"項目1: 桜の花が咲きました"}, CheckCoverage(memos, "今日は晴れでした。"))
}

func TestCheckCoverageAnyKeywordCovers(t *testing.T) {
	memos := []string{
		"運動会、リレー 応援",
		"こと。もの、ため",
		"音楽会の練習",
	}
	got := CheckCoverage(memos, "リレーでは大きな声援が響きました。")
	assert.Equal(t, []string{"項目3: 音楽会の練習"}, got)
}

func TestCheckCoverageSkipsMemosWithoutKeywords(t *testing.T) {
	memos := []string{"こと、もの。ため", "a b c", "について"}
	assert.Empty(t, CheckCoverage(memos, ""))
}

func TestCheckCoverageFoldsWidth(t *testing.T) {
	memos := []string{"ＡＢＣ発表", "ｶﾚｰ作り"}
	assert.Empty(t, CheckCoverage(memos, "ABC発表とカレー作りをしました。"))
}

func TestCheckCoverageIdeographicSpace(t *testing.T) {
	memos := []string{"遠足　動物園"}
	assert.Empty(t, CheckCoverage(memos, "動物園に行きました。"))
}
