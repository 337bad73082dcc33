package generator

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"class_newsletter_writer/apperr"
	"class_newsletter_writer/logging"
)

const (
	DefaultGeminiModel   = "gemini-2.0-flash-001"
	DefaultGeminiBaseURL = "https://generativelanguage.googleapis.com/v1"
)

type geminiPart struct {
	Text string `json:"text"`
}

type geminiContent struct {
	Role  string       `json:"role"`
	Parts []geminiPart `json:"parts"`
}

type geminiGenerationConfig struct {
	Temperature     float64 `json:"temperature"`
	TopP            float64 `json:"topP"`
	MaxOutputTokens int     `json:"maxOutputTokens"`
}

type geminiRequest struct {
	Contents         []geminiContent        `json:"contents"`
	GenerationConfig geminiGenerationConfig `json:"generationConfig"`
}

func newGeminiRequest(p Prompt) geminiRequest {
	parts := make([]geminiPart, len(p.Parts))
	for i, t := range p.Parts {
		parts[i] = geminiPart{Text: t}
	}
	return geminiRequest{
		Contents: []geminiContent{{Role: "user", Parts: parts}},
		GenerationConfig: geminiGenerationConfig{
			Temperature:     p.Config.Temperature,
			TopP:            p.Config.TopP,
			MaxOutputTokens: p.Config.MaxOutputTokens,
		},
	}
}

// GeminiLLM calls the generateContent REST endpoint with the key as a query
// parameter.
type GeminiLLM struct {
	Model       string
	BaseURL     string
	Credentials CredentialSource
	HTTPClient  *http.Client
	Log         *logging.Logger
}

func NewGeminiLLM(cfg *LLMSettings, creds CredentialSource, log *logging.Logger) (*GeminiLLM, error) {
	if cfg == nil {
		return nil, errors.New("llm config is nil")
	}
	if creds == nil {
		return nil, errors.New("credential source is required")
	}
	model := strings.TrimSpace(cfg.Model)
	if model == "" {
		model = DefaultGeminiModel
	}
	base := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if base == "" {
		base = DefaultGeminiBaseURL
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	if log == nil {
		log = logging.Nop()
	}
	return &GeminiLLM{
		Model:       model,
		BaseURL:     base,
		Credentials: creds,
		HTTPClient:  &http.Client{Timeout: timeout},
		Log:         log,
	}, nil
}

func (g *GeminiLLM) Invoke(ctx context.Context, prompt Prompt) (RawResponse, error) {
	key, err := resolveCredential(ctx, g.Credentials)
	if err != nil {
		return nil, err
	}

	body, err := json.Marshal(newGeminiRequest(prompt))
	if err != nil {
		return nil, fmt.Errorf("encode request: %w", err)
	}

	endpoint := fmt.Sprintf("%s/models/%s:generateContent?key=%s",
		g.BaseURL, url.PathEscape(g.Model), url.QueryEscape(key))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build request: %s", redactKey(err.Error(), key))
	}
	req.Header.Set("Content-Type", "application/json; charset=utf-8")

	start := time.Now()
	resp, err := g.HTTPClient.Do(req)
	if err != nil {
		// *url.Error embeds the URL, which carries the key.
		var uerr *url.Error
		if errors.As(err, &uerr) {
			err = uerr.Err
		}
		return nil, fmt.Errorf("gemini request: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	g.Log.Debug("gemini response", "model", g.Model, "status", resp.StatusCode, "bytes", len(data), "elapsed", time.Since(start))

	if resp.StatusCode >= 400 {
		return nil, &apperr.TransportError{Status: resp.StatusCode, Body: string(data)}
	}
	if !json.Valid(data) {
		return nil, fmt.Errorf("gemini: response is not JSON")
	}
	raw := RawResponse(data)
	if err := checkCandidate(raw); err != nil {
		return nil, err
	}
	return raw, nil
}

func redactKey(s, key string) string {
	if key == "" {
		return s
	}
	s = strings.ReplaceAll(s, url.QueryEscape(key), logging.Redacted)
	return strings.ReplaceAll(s, key, logging.Redacted)
}
