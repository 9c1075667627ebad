package callback

import (
	"net/http"
	"net/url"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/spec-kit/care-session/internal/authapi"
	"github.com/spec-kit/care-session/internal/bootstrap"
	"github.com/spec-kit/care-session/internal/oauth"
)

// loginRedirectDelaySeconds delays the fallback redirect so the user sees
// why their mid-flow login failed before landing back on the login page.
const loginRedirectDelaySeconds = 3

// Handler terminates the OAuth redirect flow.
type Handler struct {
	boot   *bootstrap.Bootstrapper
	flow   *oauth.Flow
	api    *authapi.Client
	logger *zap.Logger
}

// NewHandler constructs the handler.
func NewHandler(boot *bootstrap.Bootstrapper, flow *oauth.Flow, api *authapi.Client, logger *zap.Logger) *Handler {
	return &Handler{boot: boot, flow: flow, api: api, logger: logger}
}

// Authorize handles GET /auth/:provider/authorize by sending the user out
// to the provider's consent page.
func (h *Handler) Authorize(c *fiber.Ctx) error {
	provider := oauth.Provider(c.Params("provider"))
	authorizeURL, err := h.flow.AuthorizeURL(provider)
	if err != nil {
		return fiber.NewError(http.StatusNotFound, err.Error())
	}
	return c.Redirect(authorizeURL, http.StatusFound)
}

// Callback handles GET /auth/:provider/callback. The redirect may carry
// either an authorization code (exchanged server-side) or the token/user
// material directly; both shapes are handled defensively.
func (h *Handler) Callback(c *fiber.Ctx) error {
	provider := c.Params("provider")
	params, err := url.ParseQuery(string(c.Request().URI().QueryString()))
	if err != nil {
		params = url.Values{}
	}

	if provider == string(oauth.ProviderNaver) {
		if state := params.Get("state"); state != "" && !h.flow.ValidateState(state) {
			h.logger.Warn("oauth state mismatch", zap.String("provider", provider))
			return h.renderFailure(c, "login request did not originate here")
		}
	}

	// Authorization-code shape: exchange server-side, then install the
	// issued credentials.
	if code := params.Get("code"); code != "" && !carriesToken(params) {
		result, err := h.api.ExchangeCode(c.UserContext(), provider, code)
		if err != nil {
			h.logger.Warn("code exchange failed", zap.String("provider", provider), zap.Error(err))
			return h.renderFailure(c, "authorization code exchange failed")
		}
		if err := h.boot.SetSession(c.UserContext(), result.AccessToken, result.User); err != nil {
			return err
		}
		res := h.boot.Resolve(c.UserContext())
		return h.renderResult(c, res)
	}

	// Redirect-token shape: the credential material is in the URL itself.
	res := h.boot.ResolveRedirect(c.UserContext(), params)
	return h.renderResult(c, res)
}

func (h *Handler) renderResult(c *fiber.Ctx, res bootstrap.Result) error {
	switch res.Status {
	case bootstrap.StatusAuthenticated:
		return c.Redirect(res.Route, http.StatusFound)
	case bootstrap.StatusError:
		return h.renderFailure(c, res.Err.Message)
	default:
		return c.Redirect(bootstrap.RouteLogin, http.StatusFound)
	}
}

func (h *Handler) renderFailure(c *fiber.Ctx, message string) error {
	c.Set("Refresh", strconv.Itoa(loginRedirectDelaySeconds)+"; url="+bootstrap.RouteLogin)
	return c.Status(http.StatusUnauthorized).JSON(fiber.Map{
		"error":    message,
		"redirect": bootstrap.RouteLogin,
	})
}

func carriesToken(params url.Values) bool {
	for _, name := range []string{"accessToken", "access_token", "token", "jwt", "data"} {
		if params.Get(name) != "" {
			return true
		}
	}
	return false
}
