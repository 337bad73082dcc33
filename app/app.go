// Package app holds the use cases behind the sidebar actions. Every entry
// point is synchronous and runs one user action to completion.
package app

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"class_newsletter_writer/apperr"
	"class_newsletter_writer/generator"
	"class_newsletter_writer/logging"
	"class_newsletter_writer/profile"
	"class_newsletter_writer/publisher"
	"class_newsletter_writer/workbook"
)

// Service wires the generation pipeline to the profile store and workbook.
type Service struct {
	props *profile.Properties
	agent *generator.Agent
	wb    workbook.Workbook
	pub   *publisher.Publisher
	log   *logging.Logger
	now   func() time.Time

	// mu serializes actions that touch the workbook selection or cells.
	mu sync.Mutex
}

func New(props *profile.Properties, agent *generator.Agent, wb workbook.Workbook, pub *publisher.Publisher, log *logging.Logger) (*Service, error) {
	switch {
	case props == nil:
		return nil, errors.New("properties are required")
	case agent == nil:
		return nil, errors.New("agent is required")
	case wb == nil:
		return nil, errors.New("workbook is required")
	case pub == nil:
		return nil, errors.New("publisher is required")
	}
	if log == nil {
		log = logging.Nop()
	}
	return &Service{props: props, agent: agent, wb: wb, pub: pub, log: log, now: time.Now}, nil
}

// State is what the sidebar needs on open.
type State struct {
	APIKeySaved         bool                 `json:"apiKeySaved"`
	StyleProfileSummary *profile.Summary     `json:"styleProfileSummary"`
	HasSampleSheet      bool                 `json:"hasSampleSheet"`
	ActiveInfo          *workbook.ActiveInfo `json:"activeInfo"`
}

func (s *Service) InitState(ctx context.Context) (State, error) {
	saved, err := s.props.HasCredential(ctx)
	if err != nil {
		return State{}, err
	}
	sp, err := s.props.LoadProfile(ctx)
	if err != nil {
		return State{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	st := State{
		APIKeySaved:    saved,
		HasSampleSheet: workbook.HasSampleSheet(s.wb),
		ActiveInfo:     workbook.Active(s.wb),
	}
	if sp != nil {
		sum := sp.Summarize(s.now())
		st.StyleProfileSummary = &sum
	}
	return st, nil
}

func (s *Service) SaveCredential(ctx context.Context, key string) error {
	if err := s.props.SaveCredential(ctx, key); err != nil {
		return err
	}
	s.log.Info("api key saved")
	return nil
}

// DeleteCredential clears the key from both the user and the shared scope.
func (s *Service) DeleteCredential(ctx context.Context) error {
	if err := s.props.DeleteCredential(ctx); err != nil {
		return err
	}
	s.log.Info("api key deleted")
	return nil
}

func (s *Service) EnsureSampleSheet(context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return workbook.EnsureSampleSheet(s.wb)
}

func (s *Service) ShowProfileSheet(context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return workbook.ShowProfileSheet(s.wb)
}

// AnalyzeStyle learns a profile from the samples sheet, writes it to the
// profile sheet and stores it.
func (s *Service) AnalyzeStyle(ctx context.Context) (profile.Summary, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	samples := generator.SanitizeAll(workbook.ReadSamples(s.wb))
	if len(samples) < generator.MinSamples {
		return profile.Summary{}, apperr.Validation("samples", fmt.Sprintf(
			"サンプル文が不足しています。最低3件以上（推奨5件以上）を %s シートのA列に貼り付けてください。", workbook.SamplesSheet))
	}
	s.log.Info("analyzing style", "samples", len(samples))

	sp, err := s.agent.AnalyzeStyle(ctx, samples)
	if err != nil {
		return profile.Summary{}, err
	}
	if err := workbook.WriteProfileSheet(s.wb, sp); err != nil {
		return profile.Summary{}, fmt.Errorf("write profile sheet: %w", err)
	}
	if err := s.props.SaveProfile(ctx, sp); err != nil {
		return profile.Summary{}, err
	}
	s.log.Info("style profile saved", "style_name", sp.StyleName)
	return sp.Summarize(s.now()), nil
}

// ReloadProfile re-reads the edited profile sheet and replaces the stored profile.
func (s *Service) ReloadProfile(ctx context.Context) (profile.Summary, error) {
	s.mu.Lock()
	rows, err := workbook.ReadProfileRows(s.wb)
	s.mu.Unlock()
	if err != nil {
		return profile.Summary{}, err
	}
	sp, err := profile.Deserialize(rows)
	if err != nil {
		return profile.Summary{}, err
	}
	if err := s.props.SaveProfile(ctx, sp); err != nil {
		return profile.Summary{}, err
	}
	s.log.Info("style profile reloaded", "style_name", sp.StyleName, "rows", len(rows))
	return sp.Summarize(s.now()), nil
}

// GenerateInput is the sidebar form.
type GenerateInput struct {
	MemoText   string `json:"memoText"`
	GoalCode   string `json:"goalCode"`
	CharCount  int    `json:"charCount"`
	GradeLevel string `json:"gradeLevel"`
}

// GenerationResult reports what was written where. TextLength counts runes.
type GenerationResult struct {
	Text           string   `json:"text"`
	WrittenTo      string   `json:"writtenTo"`
	ProcessedMemos int      `json:"processedMemos"`
	TextLength     int      `json:"textLength"`
	Missing        []string `json:"missing,omitempty"`
}

var lineBreak = regexp.MustCompile(`\r?\n`)

// SplitMemos splits memo text into trimmed, non-blank, sanitized lines.
func SplitMemos(text string) []string {
	var out []string
	for _, line := range lineBreak.Split(text, -1) {
		if line = strings.TrimSpace(line); line != "" {
			out = append(out, generator.Sanitize(line))
		}
	}
	return out
}

// GenerateNewsletter turns the memo text into a newsletter paragraph and
// writes it to the resolved output cell.
func (s *Service) GenerateNewsletter(ctx context.Context, in GenerateInput) (GenerationResult, error) {
	if in.MemoText == "" || in.GoalCode == "" {
		return GenerationResult{}, apperr.Validation("memoText", "箇条書きメモと目的を指定してください。")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	tgt, err := workbook.ResolveTarget(s.wb)
	if err != nil {
		return GenerationResult{}, err
	}
	sp, err := s.props.LoadProfile(ctx)
	if err != nil {
		return GenerationResult{}, err
	}

	memos := SplitMemos(in.MemoText)
	if len(memos) == 0 {
		return GenerationResult{}, apperr.Validation("memoText", "箇条書きメモが空です。")
	}
	s.log.Debug("generating newsletter", "memos", len(memos), "target", tgt.Descriptor(), "strategy", tgt.Strategy)

	gen, err := s.agent.GenerateNewsletter(ctx, generator.GenerationRequest{
		Memos:      memos,
		GoalCode:   in.GoalCode,
		CharCount:  in.CharCount,
		GradeLevel: in.GradeLevel,
		Profile:    sp,
	})
	if err != nil {
		s.log.Error("generation failed", "error", err)
		return GenerationResult{}, err
	}

	if err := s.pub.Publish(ctx, tgt, gen.Text); err != nil {
		return GenerationResult{}, err
	}
	return GenerationResult{
		Text:           gen.Text,
		WrittenTo:      tgt.Descriptor(),
		ProcessedMemos: len(memos),
		TextLength:     utf8.RuneCountInString(gen.Text),
		Missing:        gen.Missing,
	}, nil
}

// SelectedContent returns the non-blank values of the current selection.
func (s *Service) SelectedContent(context.Context) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return workbook.SelectedContent(s.wb)
}

func (s *Service) WriteToCell(_ context.Context, sheet, a1, text string) (publisher.CellWrite, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pub.WriteToCell(sheet, a1, text)
}

// PreviewHTML renders text as a printable HTML page.
func (s *Service) PreviewHTML(title, text string) (string, error) {
	if strings.TrimSpace(text) == "" {
		return "", apperr.Validation("text", "プレビューする本文がありません。")
	}
	return publisher.RenderHTML(title, text)
}
