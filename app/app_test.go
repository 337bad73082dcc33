package app

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"class_newsletter_writer/apperr"
	"class_newsletter_writer/generator"
	"class_newsletter_writer/logging"
	"class_newsletter_writer/profile"
	"class_newsletter_writer/publisher"
	"class_newsletter_writer/workbook"
)

type scriptedLLM struct {
	texts   []string
	err     error
	prompts []generator.Prompt
}

func (s *scriptedLLM) Invoke(_ context.Context, p generator.Prompt) (generator.RawResponse, error) {
	s.prompts = append(s.prompts, p)
	if s.err != nil {
		return nil, s.err
	}
	text := s.texts[0]
	if len(s.texts) > 1 {
		s.texts = s.texts[1:]
	}
	body, _ := json.Marshal(map[string]any{
		"candidates": []any{map[string]any{
			"content":      map[string]any{"parts": []any{map[string]any{"text": text}}},
			"finishReason": "STOP",
		}},
	})
	return body, nil
}

type fixture struct {
	svc   *Service
	wb    *workbook.MemoryWorkbook
	props *profile.Properties
	llm   *scriptedLLM
	pub   *publisher.Publisher
}

var fixedNow = time.Date(2026, 4, 10, 8, 0, 0, 0, time.UTC)

func newFixture(t *testing.T, texts ...string) *fixture {
	t.Helper()
	llm := &scriptedLLM{texts: append(texts, "")}
	agent, err := generator.NewAgent(llm, logging.Nop())
	require.NoError(t, err)
	wb := workbook.NewMemoryWorkbook("Sheet1")
	pub, err := publisher.New(wb, logging.Nop())
	require.NoError(t, err)
	pub.WithSleep(func(context.Context, time.Duration) error { return nil })
	props := profile.NewProperties(profile.NewMemoryStore(), "teacher@example.com")
	svc, err := New(props, agent, wb, pub, logging.Nop())
	require.NoError(t, err)
	svc.now = func() time.Time { return fixedNow }
	return &fixture{svc: svc, wb: wb, props: props, llm: llm, pub: pub}
}

func TestGenerateNewsletterSurvivesDeadlineAfterWrite(t *testing.T) {
	f := newFixture(t, "遠足に行きました。")
	f.pub.WithSleep(func(context.Context, time.Duration) error { return context.DeadlineExceeded })
	require.NoError(t, f.wb.SetCursor("Sheet1", workbook.Cell{Row: 1, Col: 1}))

	res, err := f.svc.GenerateNewsletter(context.Background(), GenerateInput{MemoText: "遠足", GoalCode: "A"})
	require.NoError(t, err)
	assert.Equal(t, "Sheet1!A1", res.WrittenTo)
	sh, _ := f.wb.Sheet("Sheet1")
	assert.Equal(t, res.Text, sh.Value(workbook.Cell{Row: 1, Col: 1}))
}

func TestInitStateFresh(t *testing.T) {
	f := newFixture(t)
	st, err := f.svc.InitState(context.Background())
	require.NoError(t, err)
	assert.Equal(t, State{}, st)
}

func TestCredentialLifecycle(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	err := f.svc.SaveCredential(ctx, "   ")
	require.True(t, apperr.IsValidation(err))

	require.NoError(t, f.svc.SaveCredential(ctx, "  AIza-test  "))
	key, err := f.props.Credential(ctx)
	require.NoError(t, err)
	assert.Equal(t, "AIza-test", key)

	st, err := f.svc.InitState(ctx)
	require.NoError(t, err)
	assert.True(t, st.APIKeySaved)

	require.NoError(t, f.props.SeedSharedCredential(ctx, "shared"))
	require.NoError(t, f.svc.DeleteCredential(ctx))
	st, err = f.svc.InitState(ctx)
	require.NoError(t, err)
	assert.False(t, st.APIKeySaved)
}

func TestGenerateNewsletterWritesSelection(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, "「件名：遠足\n遠足に行きました。田中さんも元気でした。」")
	r, _ := workbook.ParseRange("B2:C4")
	require.NoError(t, f.wb.Select("Sheet1", r))

	res, err := f.svc.GenerateNewsletter(ctx, GenerateInput{
		MemoText: "遠足に行きました\r\n\n  田中さんも元気  \n",
		GoalCode: "A",
	})
	require.NoError(t, err)
	assert.Equal(t, "遠足に行きました。田中さんも元気でした。", res.Text)
	assert.Equal(t, "Sheet1!B2", res.WrittenTo)
	assert.Equal(t, 2, res.ProcessedMemos)
	assert.Equal(t, 20, res.TextLength)

	sh, _ := f.wb.Sheet("Sheet1")
	assert.Equal(t, res.Text, sh.Value(workbook.Cell{Row: 2, Col: 2}))

	require.Len(t, f.llm.prompts, 1)
	prompt := f.llm.prompts[0].Text()
	assert.Contains(t, prompt, "1. 遠足に行きました")
	assert.Contains(t, prompt, "2. [人物]も元気")
	assert.NotContains(t, prompt, "田中")
}

func TestGenerateNewsletterValidation(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, "本文")

	for _, in := range []GenerateInput{{GoalCode: "A"}, {MemoText: "遠足"}} {
		_, err := f.svc.GenerateNewsletter(ctx, in)
		var ve *apperr.ValidationError
		require.True(t, errors.As(err, &ve))
		assert.Equal(t, "箇条書きメモと目的を指定してください。", ve.Message)
	}

	_, err := f.svc.GenerateNewsletter(ctx, GenerateInput{MemoText: " \n\r\n ", GoalCode: "A"})
	require.True(t, apperr.IsValidation(err))
	assert.EqualError(t, err, "箇条書きメモが空です。")
	assert.Empty(t, f.llm.prompts, "no model call on invalid input")
}

func TestGenerateNewsletterNoSheet(t *testing.T) {
	f := newFixture(t, "本文")
	f.svc.wb = workbook.NewMemoryWorkbook()
	_, err := f.svc.GenerateNewsletter(context.Background(), GenerateInput{MemoText: "遠足", GoalCode: "A"})
	require.ErrorIs(t, err, workbook.ErrNoWritableSheet)
}

func TestGenerateNewsletterPropagatesModelError(t *testing.T) {
	f := newFixture(t)
	f.llm.err = &apperr.TransportError{Status: 429, Body: "quota"}
	_, err := f.svc.GenerateNewsletter(context.Background(), GenerateInput{MemoText: "遠足", GoalCode: "A"})
	var te *apperr.TransportError
	require.True(t, errors.As(err, &te))
	sh, _ := f.wb.Sheet("Sheet1")
	assert.Empty(t, sh.Value(workbook.Cell{Row: 1, Col: 1}), "nothing is written on failure")
}

const analysisAnswer = "```json\n" + `{"style_name":"温かい報告型","summary":"子供の姿を温かく伝える","B_sentence_structure":"短文中心","D_overall_tone":"穏やか","dos":["感謝を伝える"],"donts":["断定しすぎない"],"phrase_bank":["笑顔があふれました"],"closing_patterns":["今後ともよろしくお願いいたします。"]}` + "\n```"

func seedSamples(t *testing.T, f *fixture, samples ...string) {
	t.Helper()
	require.NoError(t, f.svc.EnsureSampleSheet(context.Background()))
	sh, _ := f.wb.Sheet(workbook.SamplesSheet)
	for i, s := range samples {
		require.NoError(t, sh.SetValue(workbook.Cell{Row: i + 2, Col: 1}, s))
	}
}

func TestAnalyzeStyleRequiresThreeSamples(t *testing.T) {
	f := newFixture(t, analysisAnswer)
	seedSamples(t, f, "一つ目", "二つ目")
	_, err := f.svc.AnalyzeStyle(context.Background())
	require.True(t, apperr.IsValidation(err))
	assert.Contains(t, err.Error(), workbook.SamplesSheet)
	assert.Empty(t, f.llm.prompts)
}

func TestAnalyzeStyleThenReload(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, analysisAnswer, "本文です。")
	seedSamples(t, f, "山田さんの記事", "二つ目の記事", "三つ目の記事")

	sum, err := f.svc.AnalyzeStyle(ctx)
	require.NoError(t, err)
	assert.Equal(t, profile.Summary{
		StyleName:         "温かい報告型",
		Summary:           "子供の姿を温かく伝える",
		SentenceStructure: "短文中心",
		OverallTone:       "穏やか",
		UpdatedAt:         fixedNow,
	}, sum)
	assert.NotContains(t, f.llm.prompts[0].Text(), "山田", "samples are sanitized before analysis")

	active, _ := f.wb.ActiveSheet()
	assert.Equal(t, workbook.ProfileSheet, active.Name())

	// edit the sheet the way a teacher would, then reload
	sh, _ := f.wb.Sheet(workbook.ProfileSheet)
	require.NoError(t, sh.SetValue(workbook.Cell{Row: 2, Col: 2}, "きびきび報告型"))
	require.NoError(t, sh.SetValue(workbook.Cell{Row: 5, Col: 2}, "きびきびした口調"))
	require.NoError(t, sh.SetValue(workbook.Cell{Row: 8, Col: 2}, "笑顔があふれました\n成長を感じました\n"))

	sum, err = f.svc.ReloadProfile(ctx)
	require.NoError(t, err)
	assert.Equal(t, "きびきび報告型", sum.StyleName)

	sp, err := f.props.LoadProfile(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"笑顔があふれました", "成長を感じました"}, sp.PhraseBank)

	st, err := f.svc.InitState(ctx)
	require.NoError(t, err)
	require.NotNil(t, st.StyleProfileSummary)
	assert.Equal(t, "きびきび報告型", st.StyleProfileSummary.StyleName)
	assert.True(t, st.HasSampleSheet)

	// the stored profile flows into the next generation prompt
	require.NoError(t, f.wb.SetCursor("Sheet1", workbook.Cell{Row: 1, Col: 1}))
	_, err = f.svc.GenerateNewsletter(ctx, GenerateInput{MemoText: "遠足", GoalCode: "A"})
	require.NoError(t, err)
	assert.Contains(t, f.llm.prompts[1].Text(), "きびきびした口調")
}

func TestReloadProfileFailures(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	_, err := f.svc.ReloadProfile(ctx)
	require.ErrorIs(t, err, workbook.ErrSheetNotFound)

	require.NoError(t, workbook.WriteProfileSheet(f.wb, &profile.StyleProfile{StyleName: "a", Summary: "b"}))
	sh, _ := f.wb.Sheet(workbook.ProfileSheet)
	require.NoError(t, sh.SetValue(workbook.Cell{Row: 2, Col: 1}, "名前"))
	_, err = f.svc.ReloadProfile(ctx)
	require.ErrorIs(t, err, profile.ErrIncompleteProfile)
}

func TestShowProfileSheet(t *testing.T) {
	f := newFixture(t)
	require.ErrorIs(t, f.svc.ShowProfileSheet(context.Background()), workbook.ErrSheetNotFound)
}

func TestSelectionAndDirectWrite(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	res, err := f.svc.WriteToCell(ctx, "Sheet1", "A3", "一行目")
	require.NoError(t, err)
	assert.Equal(t, "Sheet1!A3", res.WrittenTo)
	_, err = f.svc.WriteToCell(ctx, "Sheet1", "A4", "二行目")
	require.NoError(t, err)

	r, _ := workbook.ParseRange("A1:A5")
	require.NoError(t, f.wb.Select("Sheet1", r))
	assert.Equal(t, "一行目\n二行目", f.svc.SelectedContent(ctx))
}

func TestPreviewHTML(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.PreviewHTML("通信", "  ")
	require.True(t, apperr.IsValidation(err))

	out, err := f.svc.PreviewHTML("通信", "本文です。")
	require.NoError(t, err)
	assert.True(t, strings.Contains(out, "<p>本文です。</p>"))
}

func TestSplitMemos(t *testing.T) {
	assert.Equal(t, []string{"遠足", "[人物]が発表"}, SplitMemos("遠足\r\n\n 佐藤さんが発表 \n"))
	assert.Empty(t, SplitMemos("\n \r\n"))
}
