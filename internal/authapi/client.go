// Package authapi is the HTTP client for the identity/session REST backend.
// The backend's business logic is an external collaborator; this package
// only normalizes its request/response contract.
package authapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"go.uber.org/zap"

	"github.com/spec-kit/care-session/internal/config"
	"github.com/spec-kit/care-session/internal/domain"
	"github.com/spec-kit/care-session/pkg/util"
)

// Client talks to the identity backend.
type Client struct {
	baseURL string
	http    *http.Client
	logger  *zap.Logger
}

// NewClient builds a client from config.
func NewClient(cfg config.AuthAPIConfig, logger *zap.Logger) *Client {
	return &Client{
		baseURL: cfg.BaseURL,
		http:    &http.Client{Timeout: cfg.Timeout()},
		logger:  logger,
	}
}

// Login authenticates with email/password and returns issued credentials.
func (c *Client) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	payload, err := json.Marshal(map[string]string{"email": email, "password": password})
	if err != nil {
		return nil, err
	}
	body, err := c.do(ctx, http.MethodPost, "/auth/login", "", bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	result, err := decodeAuthPayload(body)
	if err != nil {
		return nil, util.NewCredentialMalformed(err)
	}
	return result, nil
}

// ExchangeCode completes the server-side OAuth exchange for an
// authorization code delivered by the provider redirect.
func (c *Client) ExchangeCode(ctx context.Context, provider, code string) (*LoginResult, error) {
	path := fmt.Sprintf("/auth/%s/callback?code=%s", url.PathEscape(provider), url.QueryEscape(code))
	body, err := c.do(ctx, http.MethodGet, path, "", nil)
	if err != nil {
		return nil, err
	}
	result, err := decodeAuthPayload(body)
	if err != nil {
		return nil, util.NewCredentialMalformed(err)
	}
	return result, nil
}

// Me fetches the profile behind a token. Used when a redirect delivers a
// token without an accompanying user record.
func (c *Client) Me(ctx context.Context, token string) (*domain.User, error) {
	body, err := c.do(ctx, http.MethodGet, "/auth/me", token, nil)
	if err != nil {
		return nil, err
	}
	return decodeUserPayload(body)
}

// Logout requests server-side session invalidation. Callers treat failures
// as best-effort: local state is cleared regardless.
func (c *Client) Logout(ctx context.Context, token string) error {
	_, err := c.do(ctx, http.MethodPost, "/auth/logout", token, nil)
	return err
}

func (c *Client) do(ctx context.Context, method, path, token string, body io.Reader) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close() //nolint:errcheck

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode >= 400 {
		msg := decodeErrorMessage(resp.StatusCode, raw)
		c.logger.Warn("auth backend error",
			zap.String("path", path),
			zap.Int("status", resp.StatusCode),
			zap.String("message", msg))
		return nil, util.NewBackendError(resp.StatusCode, msg)
	}
	return raw, nil
}
