// Package oauth builds provider authorize URLs for the redirect-based
// login flow. The exchange itself happens server-side; this package only
// sends the user out and validates the CSRF state on the way back.
package oauth

import (
	"fmt"
	"net/url"
	"sync"

	"github.com/google/uuid"

	"github.com/spec-kit/care-session/internal/config"
)

// Provider identifies a supported OAuth provider.
type Provider string

const (
	ProviderKakao  Provider = "kakao"
	ProviderNaver  Provider = "naver"
	ProviderGoogle Provider = "google"
)

var authorizeURLs = map[Provider]string{
	ProviderKakao:  "https://kauth.kakao.com/oauth/authorize",
	ProviderNaver:  "https://nid.naver.com/oauth2.0/authorize",
	ProviderGoogle: "https://accounts.google.com/oauth/authorize",
}

// Flow issues authorize URLs and tracks one-shot CSRF states.
type Flow struct {
	cfg config.OAuthConfig

	mu     sync.Mutex
	states map[string]struct{}
}

// NewFlow builds a Flow from config.
func NewFlow(cfg config.OAuthConfig) *Flow {
	return &Flow{cfg: cfg, states: make(map[string]struct{})}
}

// AuthorizeURL returns the provider authorization URL, or an error when the
// provider is unknown or its client registration is missing.
func (f *Flow) AuthorizeURL(provider Provider) (string, error) {
	base, ok := authorizeURLs[provider]
	if !ok {
		return "", fmt.Errorf("unsupported oauth provider %q", provider)
	}
	reg := f.registration(provider)
	if reg.ClientID == "" || reg.RedirectURI == "" {
		return "", fmt.Errorf("oauth provider %q is not configured", provider)
	}

	params := url.Values{}
	params.Set("client_id", reg.ClientID)
	params.Set("redirect_uri", reg.RedirectURI)
	params.Set("response_type", "code")

	// Naver requires a state round-trip for CSRF protection.
	if provider == ProviderNaver {
		params.Set("state", f.issueState())
	}

	return base + "?" + params.Encode(), nil
}

// ValidateState consumes a previously issued state. Each state is valid
// exactly once.
func (f *Flow) ValidateState(state string) bool {
	if state == "" {
		return false
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.states[state]; !ok {
		return false
	}
	delete(f.states, state)
	return true
}

func (f *Flow) issueState() string {
	state := uuid.NewString()
	f.mu.Lock()
	f.states[state] = struct{}{}
	f.mu.Unlock()
	return state
}

func (f *Flow) registration(provider Provider) config.OAuthProviderConfig {
	switch provider {
	case ProviderKakao:
		return f.cfg.Kakao
	case ProviderNaver:
		return f.cfg.Naver
	case ProviderGoogle:
		return f.cfg.Google
	default:
		return config.OAuthProviderConfig{}
	}
}
