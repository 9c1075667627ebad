// Package bootstrap resolves an authenticated session from whatever
// identity evidence is available and keeps it in sync with explicit
// login/logout actions. It is the single writer of the durable credential
// store; failures never escape its boundary as panics or raw errors.
package bootstrap

import (
	"context"
	"net/url"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/care-session/internal/domain"
	"github.com/spec-kit/care-session/internal/observability"
	"github.com/spec-kit/care-session/internal/store"
	"github.com/spec-kit/care-session/internal/token"
	"github.com/spec-kit/care-session/pkg/util"
)

// Status summarizes a resolution outcome.
type Status string

const (
	StatusAuthenticated   Status = "authenticated"
	StatusUnauthenticated Status = "unauthenticated"
	StatusError           Status = "error"
)

// Result is the sole output of every bootstrap operation. When Status is
// StatusError, Err carries the surfaceable failure and Route points at the
// login surface for the delayed redirect.
type Result struct {
	Status  Status
	Session *domain.Session
	Route   string
	Err     *util.ClientError
}

// IdentityAPI is the slice of the REST backend bootstrap depends on.
type IdentityAPI interface {
	Me(ctx context.Context, tok string) (*domain.User, error)
	Logout(ctx context.Context, tok string) error
}

// Bootstrapper owns the session for the lifetime of the process.
type Bootstrapper struct {
	store    store.SessionStore
	api      IdentityAPI
	allowDev bool
	logger   *zap.Logger
	metrics  *observability.Metrics
	now      func() time.Time

	mu      sync.Mutex
	session *domain.Session
}

// Options bundles construction dependencies.
type Options struct {
	Store         store.SessionStore
	API           IdentityAPI
	AllowDevToken bool
	Logger        *zap.Logger
	Metrics       *observability.Metrics
	Now           func() time.Time
}

// New builds a Bootstrapper.
func New(opts Options) *Bootstrapper {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Bootstrapper{
		store:    opts.Store,
		api:      opts.API,
		allowDev: opts.AllowDevToken,
		logger:   opts.Logger,
		metrics:  opts.Metrics,
		now:      opts.Now,
	}
}

// Session returns the currently held session, or nil.
func (b *Bootstrapper) Session() *domain.Session {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.session
}

// Resolve rehydrates a session from the durable store. Any failure on this
// path is invisible to the user: the stored pair is evicted and the result
// is simply unauthenticated.
func (b *Bootstrapper) Resolve(ctx context.Context) Result {
	creds, err := b.store.Load(ctx)
	if err != nil {
		b.logger.Warn("credential store read failed", zap.Error(err))
		return b.unauthenticated()
	}
	if creds.AccessToken == "" {
		return b.unauthenticated()
	}

	user, err := b.validate(creds)
	if err != nil {
		b.logger.Info("stored credential rejected",
			zap.String("code", util.CodeOf(err)))
		b.evict(ctx)
		return b.unauthenticated()
	}
	if user == nil {
		// Valid dev token but no stored user record: nothing to trust.
		b.evict(ctx)
		return b.unauthenticated()
	}

	return b.adopt(creds.AccessToken, user)
}

// ResolveRedirect consumes OAuth redirect parameters. The user is mid-flow
// here, so failures are surfaced rather than silently downgraded, and a
// valid credential is persisted before it is returned.
func (b *Bootstrapper) ResolveRedirect(ctx context.Context, params url.Values) Result {
	cred, err := ParseRedirect(params)
	if err != nil {
		return b.redirectFailure(err)
	}

	creds := domain.Credentials{
		AccessToken:  cred.AccessToken,
		RefreshToken: cred.RefreshToken,
		User:         cred.User,
	}
	user, err := b.validate(creds)
	if err != nil {
		return b.redirectFailure(err)
	}

	// Redirect delivered a bare token: fall back to the profile endpoint
	// rather than fabricating a placeholder user.
	if user == nil {
		fetched, ferr := b.api.Me(ctx, creds.AccessToken)
		if ferr != nil {
			return b.redirectFailure(util.NewRedirectRejected("redirect carried no user record and profile fetch failed", ferr))
		}
		if _, rerr := domain.ParseRole(string(fetched.Role)); rerr != nil {
			return b.redirectFailure(rerr)
		}
		user = fetched
		creds.User = fetched
	}

	// First-touch caching: persist before returning the session.
	if serr := b.store.Save(ctx, creds); serr != nil {
		b.logger.Warn("credential store write failed", zap.Error(serr))
	}

	return b.adopt(creds.AccessToken, user)
}

// SetSession unconditionally installs a token/user pair. Validation is the
// caller's responsibility; this path also serves unsigned development
// tokens.
func (b *Bootstrapper) SetSession(ctx context.Context, tok string, user domain.User) error {
	creds := domain.Credentials{AccessToken: tok, User: &user}
	if err := b.store.Save(ctx, creds); err != nil {
		return err
	}
	b.mu.Lock()
	b.session = &domain.Session{User: user, Token: tok, IsAuthenticated: true}
	b.mu.Unlock()
	return nil
}

// Logout clears local state unconditionally and requests server-side
// invalidation on a best-effort basis. It always routes to the login
// surface.
func (b *Bootstrapper) Logout(ctx context.Context) Result {
	b.mu.Lock()
	current := b.session
	b.session = nil
	b.mu.Unlock()

	// Development tokens have no server-side session to invalidate.
	if current != nil && current.Token != "" && !token.IsDev(current.Token) {
		if err := b.api.Logout(ctx, current.Token); err != nil {
			b.logger.Warn("server-side logout failed, clearing locally anyway", zap.Error(err))
		}
	}

	if err := b.store.Clear(ctx); err != nil {
		b.logger.Warn("credential store clear failed", zap.Error(err))
	}

	return Result{Status: StatusUnauthenticated, Route: RouteLogin}
}

// validate applies the per-variant rules and produces the session user.
// For development tokens the stored user record is trusted as-is (there is
// no signature to check); a nil user with a valid production token means
// the payload itself supplied the user. Returns (nil, nil) only when a
// valid token arrived with no resolvable user record.
func (b *Bootstrapper) validate(creds domain.Credentials) (*domain.User, error) {
	identity, variant, err := token.Parse(creds.AccessToken, b.now())
	if err != nil {
		return nil, err
	}

	if variant == token.VariantDevelopment {
		if !b.allowDev {
			return nil, util.NewCredentialMalformed(nil)
		}
		if creds.User == nil {
			return nil, nil
		}
		if _, err := domain.ParseRole(string(creds.User.Role)); err != nil {
			return nil, err
		}
		return creds.User, nil
	}

	return &domain.User{
		ID:    identity.ID,
		Name:  identity.Name,
		Email: identity.Email,
		Role:  identity.Role,
	}, nil
}

func (b *Bootstrapper) adopt(tok string, user *domain.User) Result {
	route, err := RouteFor(user.Role)
	if err != nil {
		return b.redirectFailure(err)
	}

	session := &domain.Session{User: *user, Token: tok, IsAuthenticated: true}
	b.mu.Lock()
	b.session = session
	b.mu.Unlock()

	b.metrics.Inc(observability.MetricResolveAuthenticated)
	return Result{Status: StatusAuthenticated, Session: session, Route: route}
}

func (b *Bootstrapper) unauthenticated() Result {
	b.metrics.Inc(observability.MetricResolveUnauthenticated)
	return Result{Status: StatusUnauthenticated, Route: RouteLogin}
}

func (b *Bootstrapper) redirectFailure(err error) Result {
	b.metrics.Inc(observability.MetricRedirectRejected)
	b.logger.Info("redirect credential rejected", zap.String("code", util.CodeOf(err)))
	return Result{Status: StatusError, Route: RouteLogin, Err: util.ToClientError(err)}
}

func (b *Bootstrapper) evict(ctx context.Context) {
	b.metrics.Inc(observability.MetricCredentialEvicted)
	if err := b.store.Clear(ctx); err != nil {
		b.logger.Warn("credential eviction failed", zap.Error(err))
	}
}
