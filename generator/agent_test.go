package generator

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"class_newsletter_writer/apperr"
	"class_newsletter_writer/logging"
	"class_newsletter_writer/profile"
)

type fakeLLM struct {
	raw     string
	err     error
	prompts []Prompt
}

func (f *fakeLLM) Invoke(_ context.Context, p Prompt) (RawResponse, error) {
	f.prompts = append(f.prompts, p)
	if f.err != nil {
		return nil, f.err
	}
	return RawResponse(f.raw), nil
}

func newTestAgent(t *testing.T, llm LLMClient) (*Agent, *observer.ObservedLogs) {
	t.Helper()
	core, logs := observer.New(zapcore.DebugLevel)
	a, err := NewAgent(llm, logging.FromZap(zap.New(core)))
	require.NoError(t, err)
	return a, logs
}

func TestGenerateNewsletterCleansOutput(t *testing.T) {
	llm := &fakeLLM{raw: geminiDoc("「件名：運動会\n運動会が開催されました。子供たちの笑顔があふれました。」", "STOP")}
	a, logs := newTestAgent(t, llm)

	gen, err := a.GenerateNewsletter(context.Background(), GenerationRequest{
		Memos:      []string{"運動会が開催", "子供たちの笑顔"},
		GoalCode:   "A",
		GradeLevel: "elementary_3",
	})
	require.NoError(t, err)
	assert.Equal(t, "運動会が開催されました。子供たちの笑顔があふれました。", gen.Text)
	assert.Empty(t, gen.Missing)
	assert.Zero(t, logs.FilterLevelExact(zapcore.WarnLevel).Len())

	require.Len(t, llm.prompts, 1)
	assert.Contains(t, llm.prompts[0].Text(), "1. 運動会が開催")
}

func TestGenerateNewsletterLogsMissingCoverage(t *testing.T) {
	llm := &fakeLLM{raw: geminiDoc("遠足に行きました。", "STOP")}
	a, logs := newTestAgent(t, llm)

	gen, err := a.GenerateNewsletter(context.Background(), GenerationRequest{Memos: []string{"遠足", "音楽会の練習"}})
	require.NoError(t, err)
	assert.Equal(t, []string{"項目2: 音楽会の練習"}, gen.Missing)

	warns := logs.FilterLevelExact(zapcore.WarnLevel).All()
	require.Len(t, warns, 1)
	assert.Equal(t, []interface{}{"項目2: 音楽会の練習"}, warns[0].ContextMap()["missing"])
}

func TestGenerateNewsletterEmpty(t *testing.T) {
	for _, raw := range []string{geminiDoc("   ", "STOP"), geminiDoc("「」", "STOP"), `{"candidates":[{"content":{}}]}`} {
		a, _ := newTestAgent(t, &fakeLLM{raw: raw})
		_, err := a.GenerateNewsletter(context.Background(), GenerationRequest{Memos: []string{"遠足"}})
		require.ErrorIs(t, err, apperr.ErrEmptyGeneration, raw)
	}
}

func TestGenerateNewsletterPropagatesClientError(t *testing.T) {
	blocked := &apperr.SafetyBlockedError{Reason: "SAFETY", Ratings: "不明"}
	a, _ := newTestAgent(t, &fakeLLM{err: blocked})
	_, err := a.GenerateNewsletter(context.Background(), GenerationRequest{Memos: []string{"遠足"}})
	var sb *apperr.SafetyBlockedError
	require.True(t, errors.As(err, &sb))
	assert.Same(t, blocked, sb)
}

func TestAnalyzeStyle(t *testing.T) {
	body := "```json\n" + `{"style_name":"温かい型","summary":"丁寧","B_sentence_structure":"短文","D_overall_tone":"温かい","dos":["感謝"],"phrase_bank":["笑顔"]}` + "\n```"
	llm := &fakeLLM{raw: geminiDoc(body, "STOP")}
	a, _ := newTestAgent(t, llm)

	sp, err := a.AnalyzeStyle(context.Background(), []string{"一", "二", "三"})
	require.NoError(t, err)
	assert.Equal(t, "温かい型", sp.StyleName)
	assert.Equal(t, []string{"感謝"}, sp.Dos)
	require.Len(t, llm.prompts, 1)
	assert.Equal(t, analysisConfig, llm.prompts[0].Config)
}

func TestAnalyzeStyleRejects(t *testing.T) {
	a, _ := newTestAgent(t, &fakeLLM{})
	_, err := a.AnalyzeStyle(context.Background(), []string{"一", "二"})
	require.True(t, apperr.IsValidation(err))

	cases := map[string]string{
		"not json":          "分析できませんでした",
		"missing tone":      `{"style_name":"a","summary":"b","B_sentence_structure":"短文"}`,
		"missing structure": `{"style_name":"a","summary":"b","D_overall_tone":"温かい"}`,
		"missing name":      `{"summary":"b","B_sentence_structure":"短文","D_overall_tone":"温かい"}`,
	}
	for name, text := range cases {
		t.Run(name, func(t *testing.T) {
			a, _ := newTestAgent(t, &fakeLLM{raw: geminiDoc(text, "STOP")})
			_, err := a.AnalyzeStyle(context.Background(), []string{"一", "二", "三"})
			require.ErrorIs(t, err, apperr.ErrAnalysisFailed)
		})
	}
}

func TestMockLLMPipeline(t *testing.T) {
	a, _ := newTestAgent(t, MockLLM{})
	gen, err := a.GenerateNewsletter(context.Background(), GenerationRequest{Memos: []string{"遠足に行った", "雨でも元気"}, GoalCode: "B"})
	require.NoError(t, err)
	assert.Contains(t, gen.Text, "遠足に行った")
	assert.Contains(t, gen.Text, "雨でも元気")
	assert.NotContains(t, gen.Text, "目的")
	assert.Empty(t, gen.Missing)

	sp, err := a.AnalyzeStyle(context.Background(), []string{"一", "二", "三"})
	require.NoError(t, err)
	require.NoError(t, sp.Validate())
	assert.IsType(t, &profile.StyleProfile{}, sp)
}

func TestNewAgentRequiresClient(t *testing.T) {
	_, err := NewAgent(nil, nil)
	require.Error(t, err)
}
