package profile

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"class_newsletter_writer/apperr"
)

// Property keys.
const (
	PropAPIKey       = "GEMINI_API_KEY"
	PropStyleProfile = "STYLE_PROFILE_GAKKYU_TSUSHIN_V1"
)

// Properties is the credential and style-profile view of a KVStore for one user.
type Properties struct {
	store KVStore
	user  Scope
}

func NewProperties(store KVStore, userID string) *Properties {
	return &Properties{store: store, user: UserScope(userID)}
}

// Credential resolves the API key from the user scope, then the shared scope.
// An empty string with a nil error means no key is configured.
func (p *Properties) Credential(ctx context.Context) (string, error) {
	for _, scope := range []Scope{p.user, SharedScope} {
		v, err := p.store.Get(ctx, scope, PropAPIKey)
		if errors.Is(err, ErrNotFound) {
			continue
		}
		if err != nil {
			return "", err
		}
		if v = strings.TrimSpace(v); v != "" {
			return v, nil
		}
	}
	return "", nil
}

func (p *Properties) HasCredential(ctx context.Context) (bool, error) {
	v, err := p.Credential(ctx)
	return v != "", err
}

// SaveCredential stores a trimmed key in the user scope.
func (p *Properties) SaveCredential(ctx context.Context, key string) error {
	key = strings.TrimSpace(key)
	if key == "" {
		return apperr.Validation("apiKey", "APIキーが空です。")
	}
	return p.store.Set(ctx, p.user, PropAPIKey, key)
}

// SeedSharedCredential writes the deployment-wide fallback key.
func (p *Properties) SeedSharedCredential(ctx context.Context, key string) error {
	key = strings.TrimSpace(key)
	if key == "" {
		return nil
	}
	return p.store.Set(ctx, SharedScope, PropAPIKey, key)
}

// DeleteCredential clears both the user and the shared scope.
func (p *Properties) DeleteCredential(ctx context.Context) error {
	for _, scope := range []Scope{p.user, SharedScope} {
		if err := p.store.Delete(ctx, scope, PropAPIKey); err != nil {
			return err
		}
	}
	return nil
}

// LoadProfile returns nil, nil when no profile has been saved.
func (p *Properties) LoadProfile(ctx context.Context) (*StyleProfile, error) {
	raw, err := p.store.Get(ctx, p.user, PropStyleProfile)
	if errors.Is(err, ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var sp StyleProfile
	if err := json.Unmarshal([]byte(raw), &sp); err != nil {
		return nil, fmt.Errorf("decode stored profile: %w", err)
	}
	if err := sp.Validate(); err != nil {
		return nil, err
	}
	return &sp, nil
}

// SaveProfile overwrites the stored profile. No history is kept.
func (p *Properties) SaveProfile(ctx context.Context, sp *StyleProfile) error {
	if err := sp.Validate(); err != nil {
		return err
	}
	raw, err := json.Marshal(sp)
	if err != nil {
		return fmt.Errorf("encode profile: %w", err)
	}
	return p.store.Set(ctx, p.user, PropStyleProfile, string(raw))
}
