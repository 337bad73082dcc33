package generator

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	openai "github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"class_newsletter_writer/apperr"
)

// OpenAILLM implements LLMClient using the official openai-go SDK (chat
// completions), for OpenAI-compatible endpoints such as DeepSeek.
type OpenAILLM struct {
	Model       string
	Credentials CredentialSource
	Opts        []option.RequestOption
}

func NewOpenAILLMFromConfig(cfg *LLMSettings, creds CredentialSource) (*OpenAILLM, error) {
	if cfg == nil {
		return nil, errors.New("llm config is nil")
	}
	if creds == nil {
		return nil, errors.New("credential source is required")
	}
	if cfg.Model == "" {
		return nil, errors.New("llm model is required")
	}
	opts := []option.RequestOption{option.WithMaxRetries(0)}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}
	if cfg.Timeout > 0 {
		opts = append(opts, option.WithRequestTimeout(cfg.Timeout))
	}
	return &OpenAILLM{Model: cfg.Model, Credentials: creds, Opts: opts}, nil
}

func (o *OpenAILLM) Invoke(ctx context.Context, prompt Prompt) (RawResponse, error) {
	key, err := resolveCredential(ctx, o.Credentials)
	if err != nil {
		return nil, err
	}
	client := openai.NewClient(append([]option.RequestOption{option.WithAPIKey(key)}, o.Opts...)...)

	resp, err := client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model:       openai.ChatModel(o.Model),
		Messages:    []openai.ChatCompletionMessageParamUnion{openai.UserMessage(prompt.Text())},
		Temperature: openai.Float(prompt.Config.Temperature),
		TopP:        openai.Float(prompt.Config.TopP),
		MaxTokens:   openai.Int(int64(prompt.Config.MaxOutputTokens)),
	})
	if err != nil {
		var apiErr *openai.Error
		if errors.As(err, &apiErr) {
			return nil, &apperr.TransportError{Status: apiErr.StatusCode, Body: apiErr.RawJSON()}
		}
		return nil, fmt.Errorf("openai chat: %w", err)
	}

	raw, err := chatToGenerateContent(resp)
	if err != nil {
		return nil, err
	}
	if err := checkCandidate(raw); err != nil {
		return nil, err
	}
	return raw, nil
}

// chatToGenerateContent re-encodes the first choice as a generateContent document.
func chatToGenerateContent(resp *openai.ChatCompletion) (RawResponse, error) {
	type part struct {
		Text string `json:"text"`
	}
	type content struct {
		Role  string `json:"role"`
		Parts []part `json:"parts"`
	}
	type candidate struct {
		Content      content `json:"content"`
		FinishReason string  `json:"finishReason,omitempty"`
	}
	doc := struct {
		Candidates []candidate `json:"candidates"`
	}{Candidates: []candidate{}}

	if resp != nil && len(resp.Choices) > 0 {
		ch := resp.Choices[0]
		doc.Candidates = append(doc.Candidates, candidate{
			Content:      content{Role: "model", Parts: []part{{Text: ch.Message.Content}}},
			FinishReason: finishReason(ch.FinishReason),
		})
	}
	data, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("encode openai response: %w", err)
	}
	return data, nil
}

func finishReason(r string) string {
	switch r {
	case "content_filter":
		return "SAFETY"
	case "length":
		return "MAX_TOKENS"
	case "":
		return ""
	default:
		return strings.ToUpper(r)
	}
}
