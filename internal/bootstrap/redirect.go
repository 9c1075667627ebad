package bootstrap

import (
	"encoding/json"
	"fmt"
	"net/url"

	"github.com/spec-kit/care-session/internal/domain"
	"github.com/spec-kit/care-session/pkg/util"
)

// Backends have delivered redirect credentials under several parameter
// names over time. Each alias list is tried in order; the data parameter
// is the last resort, carrying everything as one JSON object.
var (
	accessTokenParams  = []string{"accessToken", "access_token", "token", "jwt"}
	refreshTokenParams = []string{"refreshToken", "refresh_token", "refresh"}
	userParams         = []string{"user", "userInfo", "userData"}
)

// RedirectCredential is the material extracted from a redirect URL.
type RedirectCredential struct {
	AccessToken  string
	RefreshToken string
	User         *domain.User
}

// ParseRedirect extracts credential material from OAuth redirect query
// parameters. A provider-reported error or a missing token is rejected
// explicitly; a user record that fails to parse is skipped, not fatal.
func ParseRedirect(params url.Values) (*RedirectCredential, error) {
	if provErr := params.Get("error"); provErr != "" {
		desc := params.Get("error_description")
		if desc == "" {
			desc = params.Get("message")
		}
		return nil, util.NewRedirectRejected(fmt.Sprintf("provider error: %s %s", provErr, desc), nil)
	}

	cred := &RedirectCredential{}
	cred.AccessToken = firstParam(params, accessTokenParams)
	cred.RefreshToken = firstParam(params, refreshTokenParams)

	for _, name := range userParams {
		raw := params.Get(name)
		if raw == "" {
			continue
		}
		if user := decodeUserParam(raw); user != nil {
			cred.User = user
			break
		}
	}

	if cred.AccessToken == "" {
		if data := params.Get("data"); data != "" {
			fillFromDataParam(cred, data)
		}
	}

	if cred.AccessToken == "" {
		return nil, util.NewRedirectRejected("no access token in redirect parameters", nil)
	}
	return cred, nil
}

func firstParam(params url.Values, names []string) string {
	for _, name := range names {
		if val := params.Get(name); val != "" {
			return val
		}
	}
	return ""
}

func decodeUserParam(raw string) *domain.User {
	// Values may arrive double-encoded depending on how the backend built
	// the redirect URL.
	if decoded, err := url.QueryUnescape(raw); err == nil {
		raw = decoded
	}
	var user domain.User
	if err := json.Unmarshal([]byte(raw), &user); err != nil {
		return nil
	}
	return &user
}

func fillFromDataParam(cred *RedirectCredential, raw string) {
	if decoded, err := url.QueryUnescape(raw); err == nil {
		raw = decoded
	}
	var data struct {
		AccessToken   string       `json:"accessToken"`
		AccessTokenLC string       `json:"access_token"`
		RefreshToken  string       `json:"refreshToken"`
		RefreshLC     string       `json:"refresh_token"`
		User          *domain.User `json:"user"`
	}
	if err := json.Unmarshal([]byte(raw), &data); err != nil {
		return
	}
	if data.AccessToken != "" {
		cred.AccessToken = data.AccessToken
	} else {
		cred.AccessToken = data.AccessTokenLC
	}
	if data.RefreshToken != "" {
		cred.RefreshToken = data.RefreshToken
	} else {
		cred.RefreshToken = data.RefreshLC
	}
	if cred.User == nil {
		cred.User = data.User
	}
}
