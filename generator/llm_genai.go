package generator

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"google.golang.org/genai"

	"class_newsletter_writer/apperr"
)

// GenAILLM implements LLMClient with the google.golang.org/genai SDK. The SDK
// response is re-encoded so ExtractText reads it like a REST document.
type GenAILLM struct {
	Model       string
	BaseURL     string
	Credentials CredentialSource
	HTTPClient  *http.Client
}

func NewGenAILLM(cfg *LLMSettings, creds CredentialSource) (*GenAILLM, error) {
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
	hc := &http.Client{}
	if cfg.Timeout > 0 {
		hc.Timeout = cfg.Timeout
	}
	return &GenAILLM{Model: model, BaseURL: strings.TrimSpace(cfg.BaseURL), Credentials: creds, HTTPClient: hc}, nil
}

func (g *GenAILLM) Invoke(ctx context.Context, prompt Prompt) (RawResponse, error) {
	key, err := resolveCredential(ctx, g.Credentials)
	if err != nil {
		return nil, err
	}

	cc := &genai.ClientConfig{
		APIKey:     key,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: g.HTTPClient,
	}
	if g.BaseURL != "" {
		cc.HTTPOptions = genai.HTTPOptions{BaseURL: g.BaseURL}
	}
	client, err := genai.NewClient(ctx, cc)
	if err != nil {
		return nil, fmt.Errorf("genai client: %w", err)
	}

	parts := make([]*genai.Part, len(prompt.Parts))
	for i, t := range prompt.Parts {
		parts[i] = genai.NewPartFromText(t)
	}
	contents := []*genai.Content{genai.NewContentFromParts(parts, genai.RoleUser)}
	gc := &genai.GenerateContentConfig{
		Temperature:     genai.Ptr(float32(prompt.Config.Temperature)),
		TopP:            genai.Ptr(float32(prompt.Config.TopP)),
		MaxOutputTokens: int32(prompt.Config.MaxOutputTokens),
	}

	resp, err := client.Models.GenerateContent(ctx, g.Model, contents, gc)
	if err != nil {
		var apiErr genai.APIError
		if errors.As(err, &apiErr) {
			return nil, &apperr.TransportError{Status: apiErr.Code, Body: apiErr.Message}
		}
		return nil, fmt.Errorf("genai generate: %w", err)
	}

	data, err := json.Marshal(resp)
	if err != nil {
		return nil, fmt.Errorf("encode genai response: %w", err)
	}
	raw := RawResponse(data)
	if err := checkCandidate(raw); err != nil {
		return nil, err
	}
	return raw, nil
}
