// Package apperr holds the error taxonomy shared by the generation pipeline,
// the use-case layer and the HTTP API.
package apperr

import (
	"errors"
	"fmt"
)

var (
	// ErrMissingCredential is returned before any network access when no API key resolves.
	ErrMissingCredential = errors.New("Gemini APIキーが未設定です。サイドバーの「設定」で保存してください。")
	// ErrEmptyGeneration is returned when the model answered but no usable text came back.
	ErrEmptyGeneration = errors.New("文章の生成に失敗しました。空の結果が返されました。")
	// ErrAnalysisFailed is returned when the style analysis result lacks the required fields.
	ErrAnalysisFailed = errors.New("文体分析の結果を正しく取得できませんでした。もう一度お試しください。")
)

// ValidationError reports missing or malformed user input.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e == nil {
		return ""
	}
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf("invalid %s", e.Field)
}

// Validation builds a *ValidationError.
func Validation(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}

// TransportError carries the status and raw body of a failed generation call.
type TransportError struct {
	Status int
	Body   string
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("Gemini APIエラー (%d): %s", e.Status, e.Body)
}

// SafetyBlockedError reports a candidate that was withheld by the provider.
// Ratings is the JSON text of the safety ratings, or "不明" when absent.
type SafetyBlockedError struct {
	Reason  string
	Ratings string
}

func (e *SafetyBlockedError) Error() string {
	return fmt.Sprintf("出力がブロックされました。理由: %s, 安全性評価: %s。メモの表現をより一般化してください。", e.Reason, e.Ratings)
}

// IsValidation reports whether err wraps a *ValidationError.
func IsValidation(err error) bool {
	var v *ValidationError
	return errors.As(err, &v)
}
