package authapi

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spec-kit/care-session/internal/domain"
)

// LoginResult is the canonical outcome of any credential-yielding call.
type LoginResult struct {
	User         domain.User
	AccessToken  string
	RefreshToken string
}

// The backend has shipped more than one response envelope. Known shapes are
// attempted in fixed priority order and normalized into LoginResult; a body
// matching none of them is an explicit decode failure, not a guess.
type flatAuthResponse struct {
	User         *domain.User `json:"user"`
	AccessToken  string       `json:"accessToken"`
	RefreshToken string       `json:"refreshToken"`
}

type wrappedAuthResponse struct {
	Success bool             `json:"success"`
	Message string           `json:"message"`
	Data    flatAuthResponse `json:"data"`
}

type errorResponse struct {
	StatusCode int    `json:"statusCode"`
	Message    string `json:"message"`
	Error      string `json:"error"`
}

func decodeAuthPayload(body []byte) (*LoginResult, error) {
	var flat flatAuthResponse
	if err := json.Unmarshal(body, &flat); err == nil && flat.AccessToken != "" && flat.User != nil {
		return &LoginResult{User: *flat.User, AccessToken: flat.AccessToken, RefreshToken: flat.RefreshToken}, nil
	}

	var wrapped wrappedAuthResponse
	if err := json.Unmarshal(body, &wrapped); err == nil && wrapped.Data.AccessToken != "" && wrapped.Data.User != nil {
		return &LoginResult{
			User:         *wrapped.Data.User,
			AccessToken:  wrapped.Data.AccessToken,
			RefreshToken: wrapped.Data.RefreshToken,
		}, nil
	}

	return nil, errors.New("auth response matched no known shape")
}

func decodeUserPayload(body []byte) (*domain.User, error) {
	var flat struct {
		User *domain.User `json:"user"`
	}
	if err := json.Unmarshal(body, &flat); err == nil && flat.User != nil && flat.User.ID != "" {
		return flat.User, nil
	}

	var wrapped struct {
		Data struct {
			User *domain.User `json:"user"`
		} `json:"data"`
	}
	if err := json.Unmarshal(body, &wrapped); err == nil && wrapped.Data.User != nil && wrapped.Data.User.ID != "" {
		return wrapped.Data.User, nil
	}

	var bare domain.User
	if err := json.Unmarshal(body, &bare); err == nil && bare.ID != "" {
		return &bare, nil
	}

	return nil, errors.New("profile response matched no known shape")
}

func decodeErrorMessage(status int, body []byte) string {
	var er errorResponse
	if err := json.Unmarshal(body, &er); err == nil && er.Message != "" {
		return er.Message
	}
	return fmt.Sprintf("HTTP %d", status)
}
