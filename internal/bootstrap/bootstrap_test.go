package bootstrap

import (
	"context"
	"errors"
	"net/url"
	"testing"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/care-session/internal/domain"
	"github.com/spec-kit/care-session/internal/store"
	"github.com/spec-kit/care-session/internal/token"
	"github.com/spec-kit/care-session/pkg/util"
)

type fakeAPI struct {
	meFunc     func(ctx context.Context, tok string) (*domain.User, error)
	logoutFunc func(ctx context.Context, tok string) error
	logoutSeen int
}

func (f *fakeAPI) Me(ctx context.Context, tok string) (*domain.User, error) {
	if f.meFunc == nil {
		return nil, errors.New("no profile endpoint")
	}
	return f.meFunc(ctx, tok)
}

func (f *fakeAPI) Logout(ctx context.Context, tok string) error {
	f.logoutSeen++
	if f.logoutFunc == nil {
		return nil
	}
	return f.logoutFunc(ctx, tok)
}

func signToken(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := tok.SignedString([]byte("unit-test-secret"))
	require.NoError(t, err)
	return signed
}

func newBootstrapper(st store.SessionStore, api IdentityAPI) *Bootstrapper {
	return New(Options{Store: st, API: api, AllowDevToken: true})
}

func TestResolveNoCredentials(t *testing.T) {
	b := newBootstrapper(store.NewMemoryStore(), &fakeAPI{})

	res := b.Resolve(context.Background())
	require.Equal(t, StatusUnauthenticated, res.Status)
	require.Equal(t, RouteLogin, res.Route)
	require.Nil(t, res.Session)
}

func TestResolveValidProductionToken(t *testing.T) {
	st := store.NewMemoryStore()
	raw := signToken(t, jwt.MapClaims{
		"sub":   "11",
		"name":  "Park",
		"email": "park@example.com",
		"role":  "socialWorker",
		"exp":   time.Now().Add(time.Hour).Unix(),
	})
	require.NoError(t, st.Save(context.Background(), domain.Credentials{AccessToken: raw}))

	b := newBootstrapper(st, &fakeAPI{})
	res := b.Resolve(context.Background())

	require.Equal(t, StatusAuthenticated, res.Status)
	require.Equal(t, RouteSocialWorkerDashboard, res.Route)
	require.Equal(t, domain.RoleSocialWorker, res.Session.User.Role)
	require.Equal(t, raw, res.Session.Token)
}

func TestResolveExpiredTokenEvicts(t *testing.T) {
	st := store.NewMemoryStore()
	raw := signToken(t, jwt.MapClaims{
		"sub":  "11",
		"role": "socialWorker",
		"exp":  time.Now().Add(-time.Minute).Unix(),
	})
	user := domain.User{ID: "11", Role: domain.RoleSocialWorker}
	require.NoError(t, st.Save(context.Background(), domain.Credentials{AccessToken: raw, User: &user}))

	b := newBootstrapper(st, &fakeAPI{})
	res := b.Resolve(context.Background())

	require.Equal(t, StatusUnauthenticated, res.Status)

	creds, err := st.Load(context.Background())
	require.NoError(t, err)
	require.True(t, creds.Empty(), "expired pair must be evicted")
}

func TestResolveDevTokenTrustsStoredUser(t *testing.T) {
	st := store.NewMemoryStore()
	user := domain.User{ID: "3", Name: "Dev", Email: "dev@example.com", Role: domain.RoleCareWorker}
	raw := token.NewDevToken(user.Role, user.ID, time.Now())
	require.NoError(t, st.Save(context.Background(), domain.Credentials{AccessToken: raw, User: &user}))

	b := newBootstrapper(st, &fakeAPI{})
	res := b.Resolve(context.Background())

	require.Equal(t, StatusAuthenticated, res.Status)
	require.Equal(t, user, res.Session.User)
	require.Equal(t, RouteCareWorkerDashboard, res.Route)
}

func TestResolveDevTokenRejectedInProduction(t *testing.T) {
	st := store.NewMemoryStore()
	user := domain.User{ID: "3", Role: domain.RoleCareWorker}
	raw := token.NewDevToken(user.Role, user.ID, time.Now())
	require.NoError(t, st.Save(context.Background(), domain.Credentials{AccessToken: raw, User: &user}))

	b := New(Options{Store: st, API: &fakeAPI{}, AllowDevToken: false})
	res := b.Resolve(context.Background())

	require.Equal(t, StatusUnauthenticated, res.Status)
	creds, err := st.Load(context.Background())
	require.NoError(t, err)
	require.True(t, creds.Empty())
}

func TestSetSessionThenResolveSurvivesReload(t *testing.T) {
	st := store.NewMemoryStore()
	user := domain.User{ID: "5", Name: "Choi", Email: "choi@example.com", Role: domain.RoleSocialWorker}
	raw := token.NewDevToken(user.Role, user.ID, time.Now())

	b := newBootstrapper(st, &fakeAPI{})
	require.NoError(t, b.SetSession(context.Background(), raw, user))

	// A fresh bootstrapper over the same store simulates a page reload.
	b2 := newBootstrapper(st, &fakeAPI{})
	res := b2.Resolve(context.Background())

	require.Equal(t, StatusAuthenticated, res.Status)
	require.Equal(t, user, res.Session.User)
	require.Equal(t, raw, res.Session.Token)
}

func TestLogoutClearsEvenWhenServerFails(t *testing.T) {
	st := store.NewMemoryStore()
	api := &fakeAPI{logoutFunc: func(context.Context, string) error {
		return errors.New("network down")
	}}
	user := domain.User{ID: "9", Role: domain.RoleCareWorker}
	raw := signToken(t, jwt.MapClaims{
		"sub":  "9",
		"role": "careWorker",
		"exp":  time.Now().Add(time.Hour).Unix(),
	})

	b := newBootstrapper(st, api)
	require.NoError(t, b.SetSession(context.Background(), raw, user))

	res := b.Logout(context.Background())
	require.Equal(t, StatusUnauthenticated, res.Status)
	require.Equal(t, RouteLogin, res.Route)
	require.Equal(t, 1, api.logoutSeen)

	after := b.Resolve(context.Background())
	require.Equal(t, StatusUnauthenticated, after.Status)
}

func TestLogoutSkipsServerForDevToken(t *testing.T) {
	st := store.NewMemoryStore()
	api := &fakeAPI{}
	user := domain.User{ID: "3", Role: domain.RoleCareWorker}
	raw := token.NewDevToken(user.Role, user.ID, time.Now())

	b := newBootstrapper(st, api)
	require.NoError(t, b.SetSession(context.Background(), raw, user))

	res := b.Logout(context.Background())
	require.Equal(t, StatusUnauthenticated, res.Status)
	require.Zero(t, api.logoutSeen, "dev tokens have no server session to invalidate")
}

func TestResolveRedirectPersistsAndRoutes(t *testing.T) {
	st := store.NewMemoryStore()
	raw := signToken(t, jwt.MapClaims{
		"sub":   "21",
		"name":  "Jung",
		"email": "jung@example.com",
		"role":  "careWorker",
		"exp":   time.Now().Add(time.Hour).Unix(),
	})
	params := url.Values{}
	params.Set("accessToken", raw)
	params.Set("refreshToken", "refresh-opaque")

	b := newBootstrapper(st, &fakeAPI{})
	res := b.ResolveRedirect(context.Background(), params)

	require.Equal(t, StatusAuthenticated, res.Status)
	require.Equal(t, RouteCareWorkerDashboard, res.Route)

	creds, err := st.Load(context.Background())
	require.NoError(t, err)
	require.Equal(t, raw, creds.AccessToken)
	require.Equal(t, "refresh-opaque", creds.RefreshToken)
}

func TestResolveRedirectUnknownRoleIsSurfaced(t *testing.T) {
	st := store.NewMemoryStore()
	raw := signToken(t, jwt.MapClaims{
		"sub":  "21",
		"role": "unknown_value",
		"exp":  time.Now().Add(time.Hour).Unix(),
	})
	params := url.Values{}
	params.Set("accessToken", raw)

	b := newBootstrapper(st, &fakeAPI{})
	res := b.ResolveRedirect(context.Background(), params)

	require.Equal(t, StatusError, res.Status)
	require.Equal(t, util.CodeUnknownRole, res.Err.Code)
	require.NotEqual(t, RouteSocialWorkerDashboard, res.Route)
	require.NotEqual(t, RouteCareWorkerDashboard, res.Route)
}

func TestResolveRedirectExpiredTokenIsSurfaced(t *testing.T) {
	raw := signToken(t, jwt.MapClaims{
		"sub":  "21",
		"role": "careWorker",
		"exp":  time.Now().Add(-time.Minute).Unix(),
	})
	params := url.Values{}
	params.Set("accessToken", raw)

	b := newBootstrapper(store.NewMemoryStore(), &fakeAPI{})
	res := b.ResolveRedirect(context.Background(), params)

	require.Equal(t, StatusError, res.Status)
	require.Equal(t, util.CodeCredentialExpired, res.Err.Code)
}

func TestResolveRedirectMissingTokenIsSurfaced(t *testing.T) {
	b := newBootstrapper(store.NewMemoryStore(), &fakeAPI{})
	res := b.ResolveRedirect(context.Background(), url.Values{})

	require.Equal(t, StatusError, res.Status)
	require.Equal(t, util.CodeRedirectRejected, res.Err.Code)
}

func TestResolveRedirectDevTokenFetchesProfile(t *testing.T) {
	st := store.NewMemoryStore()
	fetched := domain.User{ID: "3", Name: "Dev", Email: "dev@example.com", Role: domain.RoleCareWorker}
	api := &fakeAPI{meFunc: func(context.Context, string) (*domain.User, error) {
		return &fetched, nil
	}}
	raw := token.NewDevToken(domain.RoleCareWorker, "3", time.Now())
	params := url.Values{}
	params.Set("accessToken", raw)

	b := newBootstrapper(st, api)
	res := b.ResolveRedirect(context.Background(), params)

	require.Equal(t, StatusAuthenticated, res.Status)
	require.Equal(t, fetched, res.Session.User)
}

func TestRouteFor(t *testing.T) {
	route, err := RouteFor(domain.RoleSocialWorker)
	require.NoError(t, err)
	require.Equal(t, RouteSocialWorkerDashboard, route)

	route, err = RouteFor(domain.RoleCareWorker)
	require.NoError(t, err)
	require.Equal(t, RouteCareWorkerDashboard, route)

	_, err = RouteFor(domain.Role("admin"))
	require.Error(t, err)
	require.Equal(t, util.CodeUnknownRole, util.CodeOf(err))
}
