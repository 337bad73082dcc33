package publisher

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"html"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/yuin/goldmark"
	gmhtml "github.com/yuin/goldmark/renderer/html"

	"class_newsletter_writer/apperr"
	"class_newsletter_writer/logging"
	"class_newsletter_writer/workbook"
)

const (
	verifyDelay = 500 * time.Millisecond
	retryDelay  = 200 * time.Millisecond
)

// WriteError wraps a host failure while writing the target cell.
type WriteError struct {
	Target string
	Err    error
}

func (e *WriteError) Error() string {
	return fmt.Sprintf("セルへの書き込みに失敗しました: %v\n対象セル: %s", e.Err, e.Target)
}

func (e *WriteError) Unwrap() error { return e.Err }

// Publisher lands generated text in a workbook cell and verifies it by
// reading the value back.
type Publisher struct {
	wb    workbook.Workbook
	log   *logging.Logger
	sleep func(context.Context, time.Duration) error
}

// New creates a Publisher bound to wb.
func New(wb workbook.Workbook, log *logging.Logger) (*Publisher, error) {
	if wb == nil {
		return nil, errors.New("workbook is required")
	}
	if log == nil {
		log = logging.Nop()
	}
	return &Publisher{wb: wb, log: log, sleep: sleepCtx}, nil
}

// WithSleep replaces the wait used between write and read-back.
func (p *Publisher) WithSleep(fn func(context.Context, time.Duration) error) *Publisher {
	p.sleep = fn
	return p
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// Publish writes text to the target cell: clear, set, wrap, flush, wait, then
// read back. A mismatch triggers exactly one unverified rewrite; a failed
// verification is logged and never returned to the caller. Once the first
// write has landed, a cancelled ctx only skips the remaining checks.
func (p *Publisher) Publish(ctx context.Context, tgt workbook.Target, text string) error {
	if tgt.Sheet == nil {
		return workbook.ErrNoWritableSheet
	}
	desc := tgt.Descriptor()

	if err := p.write(tgt, text); err != nil {
		return &WriteError{Target: desc, Err: err}
	}
	if err := p.sleep(ctx, verifyDelay); err != nil {
		p.log.Warn("write verification skipped", "target", desc, "error", err)
		return nil
	}
	if written := tgt.Sheet.Value(tgt.Cell); strings.TrimSpace(written) == strings.TrimSpace(text) && written != "" {
		p.log.Info("cell written", "target", desc, "chars", utf8.RuneCountInString(text))
		return nil
	}

	p.log.Warn("write verification failed, retrying", "target", desc)
	if err := tgt.Sheet.Clear(tgt.Cell); err != nil {
		return &WriteError{Target: desc, Err: err}
	}
	if err := p.sleep(ctx, retryDelay); err != nil {
		// the cell is empty now, so the rewrite still happens
		p.log.Warn("retry wait interrupted", "target", desc, "error", err)
	}
	if err := p.write(tgt, text); err != nil {
		return &WriteError{Target: desc, Err: err}
	}
	p.log.Info("cell rewritten", "target", desc, "chars", utf8.RuneCountInString(text))
	return nil
}

func (p *Publisher) write(tgt workbook.Target, text string) error {
	if err := tgt.Sheet.Clear(tgt.Cell); err != nil {
		return err
	}
	if err := tgt.Sheet.SetValue(tgt.Cell, text); err != nil {
		return err
	}
	if err := tgt.Sheet.SetWrap(tgt.Cell, true); err != nil {
		return err
	}
	return p.wb.Flush()
}

// CellWrite reports a direct write.
type CellWrite struct {
	Success    bool   `json:"success"`
	WrittenTo  string `json:"writtenTo"`
	TextLength int    `json:"textLength"`
}

// WriteToCell writes text to a named sheet, falling back to the active sheet
// when the name is unknown. There is no read-back verification.
func (p *Publisher) WriteToCell(sheetName, a1, text string) (CellWrite, error) {
	sh, ok := p.wb.Sheet(sheetName)
	if !ok {
		if sh, ok = p.wb.ActiveSheet(); !ok {
			return CellWrite{}, fmt.Errorf("書き込みエラー: %w", workbook.ErrNoWritableSheet)
		}
	}
	cell, err := workbook.ParseCell(a1)
	if err != nil {
		return CellWrite{}, apperr.Validation("cellA1", "書き込みエラー: "+err.Error())
	}
	if err := p.write(workbook.Target{Sheet: sh, Cell: cell}, text); err != nil {
		return CellWrite{}, fmt.Errorf("書き込みエラー: %w", err)
	}
	return CellWrite{
		Success:    true,
		WrittenTo:  sh.Name() + "!" + cell.A1(),
		TextLength: utf8.RuneCountInString(text),
	}, nil
}

var renderer = goldmark.New(goldmark.WithRendererOptions(gmhtml.WithHardWraps()))

func mdToHTML(md string) (string, error) {
	var buf bytes.Buffer
	if err := renderer.Convert([]byte(md), &buf); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// RenderHTML wraps text in a printable HTML page, keeping paragraphs and line breaks.
func RenderHTML(title, text string) (string, error) {
	body, err := mdToHTML(text)
	if err != nil {
		return "", err
	}
	var b strings.Builder
	b.WriteString("<!DOCTYPE html>\n<html lang=\"ja\">\n<head>\n<meta charset=\"utf-8\">\n")
	fmt.Fprintf(&b, "<title>%s</title>\n", html.EscapeString(title))
	b.WriteString("<style>body{font-family:serif;line-height:1.9;max-width:40em;margin:2em auto;}p{margin:0 0 1em;text-indent:1em;}</style>\n")
	b.WriteString("</head>\n<body>\n")
	if title != "" {
		fmt.Fprintf(&b, "<h1>%s</h1>\n", html.EscapeString(title))
	}
	b.WriteString(body)
	b.WriteString("</body>\n</html>\n")
	return b.String(), nil
}
