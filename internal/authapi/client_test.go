package authapi

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spec-kit/care-session/internal/config"
	"github.com/spec-kit/care-session/internal/domain"
	"github.com/spec-kit/care-session/pkg/util"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(config.AuthAPIConfig{BaseURL: srv.URL, TimeoutSeconds: 2}, zap.NewNop())
}

func TestLoginFlatShape(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/auth/login", r.URL.Path)

		var req map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.Equal(t, "kim@example.com", req["email"])

		_ = json.NewEncoder(w).Encode(map[string]any{
			"user":         domain.User{ID: "1", Name: "Kim", Email: "kim@example.com", Role: domain.RoleCareWorker},
			"accessToken":  "tok-1",
			"refreshToken": "ref-1",
		})
	})

	res, err := client.Login(context.Background(), "kim@example.com", "pw")
	require.NoError(t, err)
	require.Equal(t, "tok-1", res.AccessToken)
	require.Equal(t, "ref-1", res.RefreshToken)
	require.Equal(t, domain.RoleCareWorker, res.User.Role)
}

func TestLoginWrappedShape(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{
			"success": true,
			"data": map[string]any{
				"user":        domain.User{ID: "2", Name: "Lee", Role: domain.RoleSocialWorker},
				"accessToken": "tok-2",
			},
		})
	})

	res, err := client.Login(context.Background(), "lee@example.com", "pw")
	require.NoError(t, err)
	require.Equal(t, "tok-2", res.AccessToken)
	require.Equal(t, "2", res.User.ID)
}

func TestLoginUnknownShape(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{"ok": true})
	})

	_, err := client.Login(context.Background(), "kim@example.com", "pw")
	require.Error(t, err)
	require.Equal(t, util.CodeCredentialMalformed, util.CodeOf(err))
}

func TestLoginBackendError(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"statusCode": 401,
			"message":    "invalid credentials",
			"error":      "Unauthorized",
		})
	})

	_, err := client.Login(context.Background(), "kim@example.com", "bad")
	require.Error(t, err)
	require.Equal(t, util.CodeBackendError, util.CodeOf(err))
	require.Contains(t, err.Error(), "invalid credentials")
}

func TestExchangeCode(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/auth/kakao/callback", r.URL.Path)
		require.Equal(t, "abc123", r.URL.Query().Get("code"))
		_ = json.NewEncoder(w).Encode(map[string]any{
			"user":        domain.User{ID: "4", Role: domain.RoleCareWorker},
			"accessToken": "tok-4",
		})
	})

	res, err := client.ExchangeCode(context.Background(), "kakao", "abc123")
	require.NoError(t, err)
	require.Equal(t, "tok-4", res.AccessToken)
}

func TestMeShapes(t *testing.T) {
	bodies := []any{
		map[string]any{"user": domain.User{ID: "6", Name: "Han", Role: domain.RoleSocialWorker}},
		map[string]any{"data": map[string]any{"user": domain.User{ID: "6", Name: "Han", Role: domain.RoleSocialWorker}}},
		domain.User{ID: "6", Name: "Han", Role: domain.RoleSocialWorker},
	}
	for i, body := range bodies {
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			require.Equal(t, "Bearer tok-6", r.Header.Get("Authorization"))
			_ = json.NewEncoder(w).Encode(body)
		})

		user, err := client.Me(context.Background(), "tok-6")
		require.NoError(t, err, "shape %d", i)
		require.Equal(t, "6", user.ID)
		require.Equal(t, "Han", user.Name)
	}
}

func TestLogoutSendsToken(t *testing.T) {
	var gotAuth string
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		require.Equal(t, "/auth/logout", r.URL.Path)
		_ = json.NewEncoder(w).Encode(map[string]any{"success": true})
	})

	require.NoError(t, client.Logout(context.Background(), "tok-7"))
	require.Equal(t, "Bearer tok-7", gotAuth)
}
