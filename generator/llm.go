package generator

import (
	"context"
	"strings"
	"time"

	"github.com/tidwall/gjson"

	"class_newsletter_writer/apperr"
)

// LLMClient performs one generateContent round trip. There is no retry at
// this layer.
type LLMClient interface {
	Invoke(ctx context.Context, prompt Prompt) (RawResponse, error)
}

// CredentialSource resolves the API key at call time. An empty key means
// none is configured.
type CredentialSource interface {
	Credential(ctx context.Context) (string, error)
}

// StaticCredential is a fixed key, used by tests.
type StaticCredential string

func (s StaticCredential) Credential(context.Context) (string, error) {
	return strings.TrimSpace(string(s)), nil
}

// LLMSettings is the provider-independent configuration handed to each client.
type LLMSettings struct {
	Provider string
	Model    string
	BaseURL  string
	Timeout  time.Duration
}

func resolveCredential(ctx context.Context, src CredentialSource) (string, error) {
	if src == nil {
		return "", apperr.ErrMissingCredential
	}
	key, err := src.Credential(ctx)
	if err != nil {
		return "", err
	}
	if key == "" {
		return "", apperr.ErrMissingCredential
	}
	return key, nil
}

const unknownRatings = "不明"

// checkCandidate rejects documents whose first candidate is absent or was
// stopped for safety.
func checkCandidate(raw RawResponse) error {
	c := gjson.GetBytes(raw, "candidates.0")
	if !c.Exists() {
		reason := gjson.GetBytes(raw, "promptFeedback.blockReason").String()
		if reason == "" {
			reason = "NO_CANDIDATE"
		}
		return &apperr.SafetyBlockedError{Reason: reason, Ratings: ratingsText(gjson.GetBytes(raw, "promptFeedback.safetyRatings"))}
	}
	if reason := c.Get("finishReason").String(); reason == "SAFETY" {
		return &apperr.SafetyBlockedError{Reason: reason, Ratings: ratingsText(c.Get("safetyRatings"))}
	}
	return nil
}

func ratingsText(r gjson.Result) string {
	if !r.Exists() || r.Raw == "" || r.Raw == "null" {
		return unknownRatings
	}
	return r.Raw
}
