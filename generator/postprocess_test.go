package generator

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCleanup(t *testing.T) {
	cases := []struct {
		name, in, want string
	}{
		{"brackets", "「本文です。」", "本文です。"},
		{"quotes", `"'本文です。'"`, "本文です。"},
		{"subject line", "件名：お知らせ\n\n\n\n本文  です", "本文 です"},
		{"title line", "タイトル：運動会\n本文です。", "本文です。"},
		{"ascii title", "Title: Sports Day\n本文です。", "本文です。"},
		{"subject then title", "件名：A\nタイトル：B\n本文", "本文"},
		{"title inside quotes", "「件名：A\n本文」", "本文"},
		{"tabs and blank runs", "一段落目。\t\t続き。\n\n\n\n二段落目。", "一段落目。 続き。\n\n二段落目。"},
		{"title only", "件名：だけ", "件名：だけ"},
		{"empty", "  ", ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, Cleanup(tc.in))
		})
	}
}

func TestCleanupIdempotent(t *testing.T) {
	inputs := []string{
		"「件名：A\n「タイトル：B\n  本文です。」」",
		"\"\t'  本文\t\tです\n\n\n\n続き' \"",
		"Subject: x\nSubject: y\nbody",
		"普通の文章です。\n\n改行もあります。",
	}
	for _, in := range inputs {
		once := Cleanup(in)
		assert.Equal(t, once, Cleanup(once), in)
	}
}
