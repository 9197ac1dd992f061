package oidc_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/lestrrat-go/jwx/v3/jwk"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/dmitrymomot/easyauth/modules/oidc"
	"github.com/dmitrymomot/easyauth/pkg/idtoken"
	"github.com/dmitrymomot/easyauth/storage/sqlitestore"
	"github.com/dmitrymomot/easyauth/svc/auth"
	oidcsvc "github.com/dmitrymomot/easyauth/svc/oidc"
)

const (
	appSecret = "test-app-secret-0123456789abcdef"
	siteURL   = "https://id.example.com/"
)

type stubProvider struct {
	profiles map[string]auth.ProviderProfile
}

func (p *stubProvider) ProviderID() string { return auth.ProviderGitHub }

func (p *stubProvider) AuthURL(state string) string {
	return "https://github.example/login/oauth/authorize?state=" + url.QueryEscape(state)
}

func (p *stubProvider) ResolveProfile(_ context.Context, code string) (auth.ProviderProfile, error) {
	profile, ok := p.profiles[code]
	if !ok {
		return auth.ProviderProfile{}, auth.ErrInvalidCode
	}
	return profile, nil
}

type testEnv struct {
	handler  http.Handler
	store    *sqlitestore.Store
	sessions *auth.SessionCodec
	apps     *oidcsvc.AppService
	app      *oidcsvc.App
	admin    auth.Claim
}

func setup(t *testing.T) *testEnv {
	t.Helper()
	ctx := context.Background()

	store, err := sqlitestore.Open(ctx, filepath.Join(t.TempDir(), "easyauth.db"), nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	sessions, err := auth.NewSessionCodec([]byte(appSecret))
	require.NoError(t, err)

	provider := &stubProvider{profiles: map[string]auth.ProviderProfile{
		"gh-new":      {ProviderUserID: "101", Email: "octo@example.com", Name: "octo", AvatarURL: "https://avatars.example.com/101"},
		"gh-existing": {ProviderUserID: "202", Email: "alice@example.com", Name: "alice", AvatarURL: "https://avatars.example.com/202"},
	}}
	authSvc := auth.NewService(store,
		auth.WithBcryptCost(bcrypt.MinCost),
		auth.WithProvider(provider),
		auth.WithCaptcha(auth.CaptchaFunc(func(_ context.Context, token, _ string) error {
			if token == "bad" {
				return auth.ErrCaptchaFailed
			}
			return nil
		})),
	)
	codes := oidcsvc.NewCodeService(store)
	apps := oidcsvc.NewAppService(store)
	exchange := oidcsvc.NewExchange(store, codes)

	admin := auth.ScopeAdmin
	adminUser := &auth.User{ID: uuid.New(), Email: "admin@example.com", Nickname: "admin", Scope: &admin, CreatedAt: time.Now().UTC()}
	require.NoError(t, store.CreateUser(ctx, adminUser))
	adminClaim := auth.ClaimFor(adminUser)

	app, err := apps.Create(ctx, adminClaim, oidcsvc.CreateAppInput{Name: "Demo", RedirectURI: "https://app.example.com/callback"})
	require.NoError(t, err)

	m := oidc.New(oidc.Config{SiteURL: siteURL}, appSecret, oidc.Services{
		Auth:     authSvc,
		Sessions: sessions,
		Exchange: exchange,
		Apps:     apps,
	})

	return &testEnv{
		handler:  m.Handle(),
		store:    store,
		sessions: sessions,
		apps:     apps,
		app:      app,
		admin:    adminClaim,
	}
}

type request struct {
	method  string
	path    string
	json    any
	form    url.Values
	session string
	cookies []*http.Cookie
}

func (e *testEnv) do(t *testing.T, r request) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	switch {
	case r.json != nil:
		body, err := json.Marshal(r.json)
		require.NoError(t, err)
		req = httptest.NewRequest(r.method, r.path, bytes.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	case r.form != nil:
		req = httptest.NewRequest(r.method, r.path, strings.NewReader(r.form.Encode()))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	default:
		req = httptest.NewRequest(r.method, r.path, nil)
	}
	if r.session != "" {
		req.AddCookie(&http.Cookie{Name: auth.SessionCookie, Value: r.session})
	}
	for _, c := range r.cookies {
		req.AddCookie(c)
	}
	rec := httptest.NewRecorder()
	e.handler.ServeHTTP(rec, req)
	return rec
}

func (e *testEnv) sessionFor(t *testing.T, claim auth.Claim) string {
	t.Helper()
	token, err := e.sessions.Sign(claim)
	require.NoError(t, err)
	return token
}

type envelope struct {
	Data  json.RawMessage `json:"data"`
	Error *struct {
		Code    string              `json:"code"`
		Message string              `json:"message"`
		Details map[string][]string `json:"details"`
	} `json:"error"`
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, data any) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env), rec.Body.String())
	if data != nil {
		require.NoError(t, json.Unmarshal(env.Data, data))
	}
	return env
}

func errorCode(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	env := decode(t, rec, nil)
	require.NotNil(t, env.Error, rec.Body.String())
	return env.Error.Code
}

func sessionCookie(rec *httptest.ResponseRecorder) *http.Cookie {
	return cookieNamed(rec, auth.SessionCookie)
}

func cookieNamed(rec *httptest.ResponseRecorder, name string) *http.Cookie {
	for _, c := range rec.Result().Cookies() {
		if c.Name == name {
			return c
		}
	}
	return nil
}

func codeFrom(t *testing.T, redirect string) (code, state string) {
	t.Helper()
	u, err := url.Parse(redirect)
	require.NoError(t, err)
	return u.Query().Get("code"), u.Query().Get("state")
}

func TestSignupTokenInfoFlow(t *testing.T) {
	t.Parallel()
	e := setup(t)

	rec := e.do(t, request{method: http.MethodPost, path: "/signup", json: map[string]string{
		"email":     "Bob@Example.com",
		"password":  "correct horse",
		"cft":       "ok",
		"client_id": e.app.ClientID,
		"state":     "xyz",
	}})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	cookie := sessionCookie(rec)
	require.NotNil(t, cookie)
	assert.True(t, cookie.HttpOnly)
	assert.Equal(t, int(auth.DefaultSessionTTL/time.Second), cookie.MaxAge)

	var redirect struct{ Redirect string }
	decode(t, rec, &redirect)
	assert.True(t, strings.HasPrefix(redirect.Redirect, "https://app.example.com/callback?"))
	code, state := codeFrom(t, redirect.Redirect)
	assert.Len(t, code, oidcsvc.CodeLength)
	assert.Equal(t, "xyz", state)

	tokenPath := "/oidc/token?" + url.Values{
		"code":          {code},
		"client_id":     {e.app.ClientID},
		"client_secret": {e.app.Secret},
	}.Encode()
	rec = e.do(t, request{method: http.MethodGet, path: tokenPath})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var tok struct {
		IDToken string `json:"id_token"`
	}
	decode(t, rec, &tok)
	require.NotEmpty(t, tok.IDToken)

	t.Run("code is single use", func(t *testing.T) {
		rec := e.do(t, request{method: http.MethodGet, path: tokenPath})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "InvalidGrant", errorCode(t, rec))
	})

	t.Run("id token verifies against jwks", func(t *testing.T) {
		rec := e.do(t, request{method: http.MethodGet, path: "/oidc/.well-known/jwks.json?client_id=" + e.app.ClientID})
		require.Equal(t, http.StatusOK, rec.Code)
		set, err := jwk.Parse(rec.Body.Bytes())
		require.NoError(t, err)
		require.Equal(t, 1, set.Len())

		claims, err := idtoken.VerifyKeySet(tok.IDToken, set)
		require.NoError(t, err)
		assert.Nil(t, claims.Scope)
		_, err = uuid.Parse(claims.Subject)
		assert.NoError(t, err)
	})

	t.Run("user info", func(t *testing.T) {
		rec := e.do(t, request{method: http.MethodGet, path: "/info?" + url.Values{
			"client_id":     {e.app.ClientID},
			"client_secret": {e.app.Secret},
			"id_token":      {tok.IDToken},
		}.Encode()})
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		var info struct {
			Email    string `json:"email"`
			Nickname string `json:"nickname"`
		}
		decode(t, rec, &info)
		assert.Equal(t, "bob@example.com", info.Email)
		assert.Equal(t, "bob@example.com", info.Nickname)
	})

	t.Run("wrong client secret", func(t *testing.T) {
		rec := e.do(t, request{method: http.MethodPost, path: "/oidc/token", json: map[string]string{
			"code":          code,
			"client_id":     e.app.ClientID,
			"client_secret": "nope",
		}})
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Equal(t, "InvalidClient", errorCode(t, rec))
	})

	t.Run("missing params", func(t *testing.T) {
		rec := e.do(t, request{method: http.MethodPost, path: "/oidc/token", json: map[string]string{"code": code}})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "ParamsWrong", errorCode(t, rec))
	})
}

func TestSignupAndLoginErrors(t *testing.T) {
	t.Parallel()
	e := setup(t)

	signup := func(email, password, cft string) *httptest.ResponseRecorder {
		return e.do(t, request{method: http.MethodPost, path: "/signup", json: map[string]string{
			"email": email, "password": password, "cft": cft,
		}})
	}

	rec := signup("carol@example.com", "password123", "ok")
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Empty(t, rec.Body.String())
	assert.NotNil(t, sessionCookie(rec))

	tests := []struct {
		name   string
		rec    *httptest.ResponseRecorder
		status int
		code   string
	}{
		{"duplicate email", signup("carol@example.com", "password123", "ok"), http.StatusConflict, "UserExists"},
		{"captcha rejected", signup("dave@example.com", "password123", "bad"), http.StatusForbidden, "CaptchaFailed"},
		{"short password", signup("dave@example.com", "short", "ok"), http.StatusBadRequest, "ParamsWrong"},
		{"malformed email", signup("not-an-email", "password123", "ok"), http.StatusBadRequest, "ParamsWrong"},
		{"wrong password", e.do(t, request{method: http.MethodPost, path: "/login", json: map[string]string{
			"email": "carol@example.com", "password": "wrong-password",
		}}), http.StatusUnauthorized, "InvalidCredentials"},
		{"unknown email", e.do(t, request{method: http.MethodPost, path: "/login", json: map[string]string{
			"email": "nobody@example.com", "password": "password123",
		}}), http.StatusUnauthorized, "InvalidCredentials"},
		{"unknown field", e.do(t, request{method: http.MethodPost, path: "/login", json: map[string]string{
			"email": "carol@example.com", "password": "password123", "remember": "yes",
		}}), http.StatusBadRequest, "ParamsWrong"},
		{"unknown client", e.do(t, request{method: http.MethodPost, path: "/login", json: map[string]string{
			"email": "carol@example.com", "password": "password123", "client_id": "missing",
		}}), http.StatusUnauthorized, "InvalidClient"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.status, tt.rec.Code, tt.rec.Body.String())
			assert.Equal(t, tt.code, errorCode(t, tt.rec))
		})
	}
}

func TestFormLogin(t *testing.T) {
	t.Parallel()
	e := setup(t)

	rec := e.do(t, request{method: http.MethodPost, path: "/signup", form: url.Values{
		"email": {"erin@example.com"}, "password": {"password123"}, "cft": {"ok"},
	}})
	require.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, siteURL, rec.Header().Get("Location"))

	rec = e.do(t, request{method: http.MethodPost, path: "/login", form: url.Values{
		"email":        {"erin@example.com"},
		"password":     {"password123"},
		"client_id":    {e.app.ClientID},
		"redirect_uri": {"https://APP.example.com/other?keep=1"},
	}})
	require.Equal(t, http.StatusSeeOther, rec.Code)
	loc, err := url.Parse(rec.Header().Get("Location"))
	require.NoError(t, err)
	assert.Equal(t, "/other", loc.Path)
	assert.Equal(t, "1", loc.Query().Get("keep"))
	assert.Len(t, loc.Query().Get("code"), oidcsvc.CodeLength)

	rec = e.do(t, request{method: http.MethodPost, path: "/login", form: url.Values{
		"email":        {"erin@example.com"},
		"password":     {"password123"},
		"client_id":    {e.app.ClientID},
		"redirect_uri": {"https://evil.example.net/steal"},
	}})
	require.Equal(t, http.StatusSeeOther, rec.Code)
	assert.True(t, strings.HasPrefix(rec.Header().Get("Location"), "https://app.example.com/callback?"))
}

func TestSessionEndpoints(t *testing.T) {
	t.Parallel()
	e := setup(t)
	ctx := context.Background()

	user := &auth.User{ID: uuid.New(), Email: "frank@example.com", Nickname: "frank", Avatar: "https://a.example.com/f.png", CreatedAt: time.Now().UTC()}
	require.NoError(t, e.store.CreateUser(ctx, user))
	session := e.sessionFor(t, auth.ClaimFor(user))

	t.Run("login check without session", func(t *testing.T) {
		rec := e.do(t, request{method: http.MethodGet, path: "/login/check"})
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Empty(t, rec.Body.String())
	})

	t.Run("login check", func(t *testing.T) {
		rec := e.do(t, request{method: http.MethodGet, path: "/login/check", session: session})
		require.Equal(t, http.StatusOK, rec.Code)
		var got struct{ Nickname, Avatar string }
		decode(t, rec, &got)
		assert.Equal(t, "frank", got.Nickname)
		assert.Equal(t, user.Avatar, got.Avatar)
	})

	t.Run("login ok issues a code", func(t *testing.T) {
		rec := e.do(t, request{method: http.MethodPost, path: "/login/ok", session: session, json: map[string]string{
			"client_id": e.app.ClientID, "state": "s",
		}})
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		var redirect struct{ Redirect string }
		decode(t, rec, &redirect)
		code, state := codeFrom(t, redirect.Redirect)
		assert.Len(t, code, oidcsvc.CodeLength)
		assert.Equal(t, "s", state)
	})

	t.Run("login ok requires session", func(t *testing.T) {
		rec := e.do(t, request{method: http.MethodPost, path: "/login/ok", json: map[string]string{"client_id": e.app.ClientID}})
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Equal(t, "TokenInvalid", errorCode(t, rec))
	})

	t.Run("expired session", func(t *testing.T) {
		past, err := auth.NewSessionCodec([]byte(appSecret), auth.WithSessionClock(func() time.Time {
			return time.Now().Add(-48 * time.Hour)
		}))
		require.NoError(t, err)
		stale, err := past.Sign(auth.ClaimFor(user))
		require.NoError(t, err)

		rec := e.do(t, request{method: http.MethodGet, path: "/profile", session: stale})
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Equal(t, "TokenExpired", errorCode(t, rec))
	})

	t.Run("profile update and password", func(t *testing.T) {
		rec := e.do(t, request{method: http.MethodPatch, path: "/profile", session: session, json: map[string]string{"nickname": "Frankie"}})
		require.Equal(t, http.StatusNoContent, rec.Code, rec.Body.String())

		rec = e.do(t, request{method: http.MethodPut, path: "/password", session: session, json: map[string]string{"password": "brand-new-pass"}})
		require.Equal(t, http.StatusNoContent, rec.Code, rec.Body.String())

		rec = e.do(t, request{method: http.MethodGet, path: "/profile", session: session})
		require.Equal(t, http.StatusOK, rec.Code)
		var got struct {
			Email    string `json:"email"`
			Nickname string `json:"nickname"`
			Accounts []any  `json:"accounts"`
		}
		decode(t, rec, &got)
		assert.Equal(t, "Frankie", got.Nickname)
		assert.Empty(t, got.Accounts)

		rec = e.do(t, request{method: http.MethodPost, path: "/login", json: map[string]string{
			"email": "frank@example.com", "password": "brand-new-pass",
		}})
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("logout clears the cookie", func(t *testing.T) {
		rec := e.do(t, request{method: http.MethodGet, path: "/logout", session: session})
		require.Equal(t, http.StatusOK, rec.Code)
		c := sessionCookie(rec)
		require.NotNil(t, c)
		assert.Empty(t, c.Value)
		assert.Negative(t, c.MaxAge)
	})
}

func TestOAuth(t *testing.T) {
	t.Parallel()
	e := setup(t)

	t.Run("first sign-in registers", func(t *testing.T) {
		rec := e.do(t, request{method: http.MethodPost, path: "/auth/github", json: map[string]string{
			"code": "gh-new", "client_id": e.app.ClientID,
		}})
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
		assert.NotNil(t, sessionCookie(rec))

		rec = e.do(t, request{method: http.MethodPost, path: "/auth/github", json: map[string]string{"code": "gh-new"}})
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	rec := e.do(t, request{method: http.MethodPost, path: "/signup", json: map[string]string{
		"email": "alice@example.com", "password": "password123", "cft": "ok",
	}})
	require.Equal(t, http.StatusCreated, rec.Code)
	alice := sessionCookie(rec).Value

	t.Run("linking without session is refused", func(t *testing.T) {
		rec := e.do(t, request{method: http.MethodPost, path: "/auth/github", json: map[string]string{"code": "gh-existing"}})
		assert.Equal(t, http.StatusForbidden, rec.Code)
		assert.Equal(t, "AccountAlreadyLinked", errorCode(t, rec))
	})

	t.Run("linking with another user's session is refused", func(t *testing.T) {
		rec := e.do(t, request{method: http.MethodPost, path: "/auth/github", session: e.sessionFor(t, e.admin),
			json: map[string]string{"code": "gh-existing"}})
		assert.Equal(t, http.StatusForbidden, rec.Code)
		assert.Equal(t, "AccountAlreadyLinked", errorCode(t, rec))
	})

	t.Run("linking with own session", func(t *testing.T) {
		rec := e.do(t, request{method: http.MethodPost, path: "/auth/github", session: alice,
			json: map[string]string{"code": "gh-existing"}})
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		rec = e.do(t, request{method: http.MethodGet, path: "/profile", session: alice})
		var got struct {
			Avatar   string `json:"avatar"`
			Accounts []struct {
				Provider string `json:"provider"`
				Name     string `json:"name"`
			} `json:"accounts"`
		}
		decode(t, rec, &got)
		assert.Equal(t, "https://avatars.example.com/202", got.Avatar)
		require.Len(t, got.Accounts, 1)
		assert.Equal(t, "github", got.Accounts[0].Provider)

		rec = e.do(t, request{method: http.MethodPut, path: "/auth/github/unlink", session: alice})
		assert.Equal(t, http.StatusNoContent, rec.Code, rec.Body.String())
	})

	t.Run("unknown provider", func(t *testing.T) {
		rec := e.do(t, request{method: http.MethodPost, path: "/auth/gitlab", json: map[string]string{"code": "x"}})
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("redirect flow", func(t *testing.T) {
		rec := e.do(t, request{method: http.MethodGet, path: "/auth/github?client_id=" + e.app.ClientID + "&state=abc"})
		require.Equal(t, http.StatusFound, rec.Code)
		loc, err := url.Parse(rec.Header().Get("Location"))
		require.NoError(t, err)
		state := loc.Query().Get("state")
		require.NotEmpty(t, state)
		nonce := cookieNamed(rec, "oauth_nonce")
		require.NotNil(t, nonce)
		assert.True(t, nonce.HttpOnly)
		callback := "/auth/github/callback?" + url.Values{"code": {"gh-new"}, "state": {state}}.Encode()

		rec = e.do(t, request{method: http.MethodGet, path: callback})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "ParamsWrong", errorCode(t, rec))
		assert.Nil(t, sessionCookie(rec))

		rec = e.do(t, request{method: http.MethodGet, path: callback,
			cookies: []*http.Cookie{{Name: "oauth_nonce", Value: "someone-else"}}})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "ParamsWrong", errorCode(t, rec))

		rec = e.do(t, request{method: http.MethodGet, path: callback,
			cookies: []*http.Cookie{{Name: nonce.Name, Value: nonce.Value}}})
		require.Equal(t, http.StatusSeeOther, rec.Code, rec.Body.String())
		cleared := cookieNamed(rec, "oauth_nonce")
		require.NotNil(t, cleared)
		assert.Negative(t, cleared.MaxAge)
		code, appState := codeFrom(t, rec.Header().Get("Location"))
		assert.Len(t, code, oidcsvc.CodeLength)
		assert.Equal(t, "abc", appState)

		rec = e.do(t, request{method: http.MethodGet, path: "/auth/github/callback?code=gh-new&state=forged"})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "ParamsWrong", errorCode(t, rec))
	})
}

func TestApps(t *testing.T) {
	t.Parallel()
	e := setup(t)
	admin := e.sessionFor(t, e.admin)
	user := e.sessionFor(t, auth.Claim{Subject: uuid.NewString()})

	rec := e.do(t, request{method: http.MethodPost, path: "/app", session: user, json: map[string]string{
		"name": "Nope", "redirect_uri": "https://nope.example.com/cb",
	}})
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "PermissionDenied", errorCode(t, rec))

	rec = e.do(t, request{method: http.MethodPost, path: "/app", session: admin, json: map[string]string{
		"name": "Second", "redirect_uri": "https://second.example.com/cb",
	}})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var created struct {
		ID     string `json:"id"`
		Secret string `json:"secret"`
	}
	decode(t, rec, &created)
	assert.Len(t, created.ID, 32)
	assert.Len(t, created.Secret, 32)

	rec = e.do(t, request{method: http.MethodGet, path: "/app?limit=10", session: admin})
	require.Equal(t, http.StatusOK, rec.Code)
	var list []struct {
		ID   string `json:"id"`
		Name string `json:"name"`
	}
	decode(t, rec, &list)
	ids := make([]string, 0, len(list))
	for _, a := range list {
		ids = append(ids, a.ID)
	}
	assert.ElementsMatch(t, []string{e.app.ClientID, created.ID}, ids)

	rec = e.do(t, request{method: http.MethodGet, path: "/app/info/" + created.ID})
	require.Equal(t, http.StatusOK, rec.Code)
	var info struct{ Name string }
	decode(t, rec, &info)
	assert.Equal(t, "Second", info.Name)

	rec = e.do(t, request{method: http.MethodDelete, path: "/app", session: admin, json: map[string]string{"client_id": created.ID}})
	require.Equal(t, http.StatusNoContent, rec.Code, rec.Body.String())

	rec = e.do(t, request{method: http.MethodGet, path: "/app/info/" + created.ID})
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "NotFound", errorCode(t, rec))
}

func TestHealthz(t *testing.T) {
	t.Parallel()
	e := setup(t)
	rec := e.do(t, request{method: http.MethodGet, path: "/healthz"})
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
}
