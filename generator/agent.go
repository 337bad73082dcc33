package generator

import (
	"context"
	"errors"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"class_newsletter_writer/apperr"
	"class_newsletter_writer/logging"
	"class_newsletter_writer/profile"
)

// MinSamples is the fewest past newsletters style analysis accepts.
const MinSamples = 3

// Agent chains prompt building, the model call and post-processing.
type Agent struct {
	llm    LLMClient
	log    *logging.Logger
	tracer trace.Tracer
}

func NewAgent(llm LLMClient, log *logging.Logger) (*Agent, error) {
	if llm == nil {
		return nil, errors.New("llm client is required")
	}
	if log == nil {
		log = logging.Nop()
	}
	return &Agent{llm: llm, log: log, tracer: otel.Tracer("class_newsletter_writer/generator")}, nil
}

// Generation is the cleaned text plus the advisory coverage findings.
type Generation struct {
	Text    string
	Missing []string
}

// GenerateNewsletter runs prompt -> model -> extract -> cleanup -> coverage.
// Memos are expected to be sanitized already.
func (a *Agent) GenerateNewsletter(ctx context.Context, req GenerationRequest) (Generation, error) {
	ctx, span := a.tracer.Start(ctx, "generator.newsletter", trace.WithAttributes(
		attribute.Int("memos", len(req.Memos)),
		attribute.String("goal_code", req.GoalCode),
		attribute.String("grade_level", req.GradeLevel),
		attribute.Bool("has_profile", req.Profile != nil),
	))
	defer span.End()

	prompt := BuildNewsletterPrompt(req.Memos, req.GoalCode, req.Profile, req.CharCount, req.GradeLevel)
	raw, err := a.llm.Invoke(ctx, prompt)
	if err != nil {
		endWithError(span, err)
		return Generation{}, err
	}

	text := strings.TrimSpace(ExtractText(raw))
	if text == "" {
		endWithError(span, apperr.ErrEmptyGeneration)
		return Generation{}, apperr.ErrEmptyGeneration
	}
	text = Cleanup(text)
	if text == "" {
		endWithError(span, apperr.ErrEmptyGeneration)
		return Generation{}, apperr.ErrEmptyGeneration
	}

	missing := CheckCoverage(req.Memos, text)
	if len(missing) > 0 {
		a.log.Warn("反映不十分な可能性", "missing", missing)
	}
	span.SetAttributes(attribute.Int("text_runes", len([]rune(text))), attribute.Int("missing", len(missing)))
	span.SetStatus(codes.Ok, "")
	return Generation{Text: text, Missing: missing}, nil
}

// AnalyzeStyle infers a style profile from at least MinSamples sanitized samples.
func (a *Agent) AnalyzeStyle(ctx context.Context, samples []string) (*profile.StyleProfile, error) {
	if len(samples) < MinSamples {
		return nil, apperr.Validation("samples", "サンプル文が不足しています。最低3件以上（推奨5件以上）をサンプルシートのA列に貼り付けてください。")
	}

	ctx, span := a.tracer.Start(ctx, "generator.analyze_style", trace.WithAttributes(
		attribute.Int("samples", len(samples)),
	))
	defer span.End()

	raw, err := a.llm.Invoke(ctx, BuildAnalysisPrompt(samples))
	if err != nil {
		endWithError(span, err)
		return nil, err
	}

	sp, ok := ParseStyleProfile(ExtractText(raw))
	if !ok || strings.TrimSpace(sp.SentenceStructure) == "" || strings.TrimSpace(sp.OverallTone) == "" {
		endWithError(span, apperr.ErrAnalysisFailed)
		return nil, apperr.ErrAnalysisFailed
	}
	// A profile without a name or summary could never be stored.
	if sp.Validate() != nil {
		endWithError(span, apperr.ErrAnalysisFailed)
		return nil, apperr.ErrAnalysisFailed
	}
	span.SetStatus(codes.Ok, "")
	return sp, nil
}

func endWithError(span trace.Span, err error) {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}
