package oauth

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/spec-kit/care-session/internal/config"
)

func testConfig() config.OAuthConfig {
	return config.OAuthConfig{
		Kakao: config.OAuthProviderConfig{ClientID: "kakao-client", RedirectURI: "http://127.0.0.1:3000/auth/kakao/callback"},
		Naver: config.OAuthProviderConfig{ClientID: "naver-client", RedirectURI: "http://127.0.0.1:3000/auth/naver/callback"},
	}
}

func TestAuthorizeURLKakao(t *testing.T) {
	flow := NewFlow(testConfig())

	raw, err := flow.AuthorizeURL(ProviderKakao)
	require.NoError(t, err)

	parsed, err := url.Parse(raw)
	require.NoError(t, err)
	require.Equal(t, "kauth.kakao.com", parsed.Host)

	q := parsed.Query()
	require.Equal(t, "kakao-client", q.Get("client_id"))
	require.Equal(t, "http://127.0.0.1:3000/auth/kakao/callback", q.Get("redirect_uri"))
	require.Equal(t, "code", q.Get("response_type"))
	require.Empty(t, q.Get("state"), "kakao flow does not carry state")
}

func TestAuthorizeURLNaverIssuesOneShotState(t *testing.T) {
	flow := NewFlow(testConfig())

	raw, err := flow.AuthorizeURL(ProviderNaver)
	require.NoError(t, err)

	parsed, err := url.Parse(raw)
	require.NoError(t, err)
	state := parsed.Query().Get("state")
	require.NotEmpty(t, state)

	require.True(t, flow.ValidateState(state))
	require.False(t, flow.ValidateState(state), "state is consumed on first validation")
}

func TestAuthorizeURLUnknownProvider(t *testing.T) {
	flow := NewFlow(testConfig())
	_, err := flow.AuthorizeURL(Provider("github"))
	require.Error(t, err)
}

func TestAuthorizeURLUnconfiguredProvider(t *testing.T) {
	flow := NewFlow(testConfig())
	_, err := flow.AuthorizeURL(ProviderGoogle)
	require.Error(t, err)
}

func TestValidateStateRejectsUnknown(t *testing.T) {
	flow := NewFlow(testConfig())
	require.False(t, flow.ValidateState(""))
	require.False(t, flow.ValidateState("never-issued"))
}
