package oidc

import (
	"crypto/rand"
	"crypto/subtle"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/dmitrymomot/easyauth/handler"
	"github.com/dmitrymomot/easyauth/pkg/binder"
	"github.com/dmitrymomot/easyauth/pkg/clientip"
	"github.com/dmitrymomot/easyauth/pkg/cookie"
	"github.com/dmitrymomot/easyauth/pkg/token"
	"github.com/dmitrymomot/easyauth/svc/auth"
	oidcsvc "github.com/dmitrymomot/easyauth/svc/oidc"
)

// target identifies the application a sign-in is performed for. An empty
// ClientID means the user signs in to the provider itself.
type target struct {
	ClientID    string `json:"client_id,omitempty"`
	State       string `json:"state,omitempty"`
	RedirectURI string `json:"redirect_uri,omitempty"`
}

type redirectResponse struct {
	Redirect string `json:"redirect"`
}

// issue returns the application redirect carrying a fresh code, or "" when
// no application is involved.
func (m *Module) issue(ctx handler.Context, claim auth.Claim, t target) (string, error) {
	if t.ClientID == "" {
		return "", nil
	}
	return m.svc.Exchange.IssueRedirect(ctx, oidcsvc.IssueRequest{
		ClientID:    t.ClientID,
		State:       t.State,
		RedirectURI: t.RedirectURI,
		Claim:       claim,
	})
}

// complete sets the session cookie and answers the browser: form posts are
// redirected, JSON callers get the redirect in the body.
func (m *Module) complete(ctx handler.Context, claim auth.Claim, t target, status int) handler.Response {
	if err := m.establishSession(ctx, claim); err != nil {
		return fail(err)
	}
	redirect, err := m.issue(ctx, claim, t)
	if err != nil {
		return fail(err)
	}
	return m.respond(ctx, redirect, status)
}

func (m *Module) respond(ctx handler.Context, redirect string, status int) handler.Response {
	if binder.IsForm(ctx.Request()) {
		if redirect == "" {
			redirect = m.cfg.SiteURL
		}
		return handler.Redirect(redirect)
	}
	if redirect == "" {
		return handler.EmptyWithStatus(status)
	}
	return handler.JSON(redirectResponse{Redirect: redirect}, handler.WithJSONStatus(status))
}

type signupRequest struct {
	Email       string `json:"email" form:"email"`
	Password    string `json:"password" form:"password"`
	Captcha     string `json:"cft" form:"cft"`
	ClientID    string `json:"client_id" form:"client_id"`
	State       string `json:"state" form:"state"`
	RedirectURI string `json:"redirect_uri" form:"redirect_uri"`
}

func (m *Module) signup(ctx handler.Context, req signupRequest) handler.Response {
	claim, err := m.svc.Auth.Signup(ctx, auth.SignupInput{
		Email:        req.Email,
		Password:     req.Password,
		CaptchaToken: req.Captcha,
		RemoteIP:     clientip.FromContext(ctx),
	})
	if err != nil {
		return fail(err)
	}
	return m.complete(ctx, claim, target{req.ClientID, req.State, req.RedirectURI}, http.StatusCreated)
}

type loginRequest struct {
	Email       string `json:"email" form:"email"`
	Password    string `json:"password" form:"password"`
	ClientID    string `json:"client_id" form:"client_id"`
	State       string `json:"state" form:"state"`
	RedirectURI string `json:"redirect_uri" form:"redirect_uri"`
}

func (m *Module) login(ctx handler.Context, req loginRequest) handler.Response {
	claim, err := m.svc.Auth.Login(ctx, req.Email, req.Password)
	if err != nil {
		return fail(err)
	}
	return m.complete(ctx, claim, target{req.ClientID, req.State, req.RedirectURI}, http.StatusOK)
}

type loginOKRequest struct {
	ClientID    string `json:"client_id" form:"client_id"`
	State       string `json:"state" form:"state"`
	RedirectURI string `json:"redirect_uri" form:"redirect_uri"`
}

// loginOK continues an existing session into an application.
func (m *Module) loginOK(ctx handler.Context, claim auth.Claim, req loginOKRequest) handler.Response {
	if req.ClientID == "" {
		return fail(oidcsvc.ErrParamsWrong)
	}
	redirect, err := m.issue(ctx, claim, target{req.ClientID, req.State, req.RedirectURI})
	if err != nil {
		return fail(err)
	}
	return m.respond(ctx, redirect, http.StatusOK)
}

type sessionSummary struct {
	Nickname string `json:"nickname"`
	Avatar   string `json:"avatar"`
}

// loginCheck reports who is signed in. Anything short of a valid session
// for an existing user is an empty 200.
func (m *Module) loginCheck(ctx handler.Context, _ struct{}) handler.Response {
	claim := auth.OptionalSession(ctx)
	if claim == nil {
		return handler.EmptyWithStatus(http.StatusOK)
	}
	user, err := m.svc.Auth.User(ctx, *claim)
	if err != nil {
		if errors.Is(err, auth.ErrUserNotFound) || errors.Is(err, auth.ErrTokenInvalid) {
			return handler.EmptyWithStatus(http.StatusOK)
		}
		return fail(err)
	}
	return handler.JSON(sessionSummary{Nickname: user.Nickname, Avatar: user.Avatar})
}

func (m *Module) logout(ctx handler.Context, _ struct{}) handler.Response {
	m.cookies.Delete(ctx.ResponseWriter(), auth.SessionCookie)
	return handler.EmptyWithStatus(http.StatusOK)
}

// oauthNonceCookie binds a provider flow to the browser that started it.
const oauthNonceCookie = "oauth_nonce"

// oauthState round-trips the sign-in target through the provider.
type oauthState struct {
	Target target `json:"t"`
	Nonce  string `json:"n"`
}

type oauthBeginRequest struct {
	Provider    string `path:"provider"`
	ClientID    string `query:"client_id"`
	State       string `query:"state"`
	RedirectURI string `query:"redirect_uri"`
}

// oauthBegin sends the browser to the provider's consent page.
func (m *Module) oauthBegin(ctx handler.Context, req oauthBeginRequest) handler.Response {
	adapter, err := m.svc.Auth.Provider(req.Provider)
	if err != nil {
		return fail(err)
	}
	nonce := rand.Text()
	state, err := token.Generate(oauthState{
		Target: target{req.ClientID, req.State, req.RedirectURI},
		Nonce:  nonce,
	}, m.stateSecret, m.cfg.StateTTL)
	if err != nil {
		return fail(err)
	}
	m.cookies.Set(ctx.ResponseWriter(), oauthNonceCookie, nonce,
		cookie.WithMaxAge(int(m.cfg.StateTTL/time.Second)))
	return handler.RedirectWithCode(adapter.AuthURL(state), http.StatusFound)
}

type oauthCallbackRequest struct {
	Provider string `path:"provider"`
	Code     string `query:"code"`
	State    string `query:"state"`
}

// oauthCallback finishes the server-side provider flow started by
// oauthBegin. The state must carry the nonce set in this browser's cookie.
// Success redirects to the application or SITE_URL.
func (m *Module) oauthCallback(ctx handler.Context, req oauthCallbackRequest) handler.Response {
	st, err := token.Parse[oauthState](req.State, m.stateSecret)
	if err != nil {
		return fail(errors.Join(oidcsvc.ErrParamsWrong, err))
	}
	nonce, err := m.cookies.Get(ctx.Request(), oauthNonceCookie)
	m.cookies.Delete(ctx.ResponseWriter(), oauthNonceCookie)
	if err != nil || st.Nonce == "" || subtle.ConstantTimeCompare([]byte(nonce), []byte(st.Nonce)) != 1 {
		return fail(fmt.Errorf("%w: state was issued to another browser", oidcsvc.ErrParamsWrong))
	}

	claim, _, err := m.svc.Auth.OAuthCallback(ctx, auth.OAuthInput{
		Provider: req.Provider,
		Code:     req.Code,
		Session:  auth.OptionalSession(ctx),
	})
	if err != nil {
		return fail(err)
	}
	if err := m.establishSession(ctx, claim); err != nil {
		return fail(err)
	}

	redirect, err := m.issue(ctx, claim, st.Target)
	if err != nil {
		return fail(err)
	}
	if redirect == "" {
		redirect = m.cfg.SiteURL
	}
	return handler.Redirect(redirect)
}

type oauthExchangeRequest struct {
	Provider    string `path:"provider" json:"-"`
	Code        string `json:"code" form:"code"`
	ClientID    string `json:"client_id" form:"client_id"`
	State       string `json:"state" form:"state"`
	RedirectURI string `json:"redirect_uri" form:"redirect_uri"`
}

// oauthExchange accepts a provider code obtained by the browser. A first
// sign-in registers the user and answers 201.
func (m *Module) oauthExchange(ctx handler.Context, req oauthExchangeRequest) handler.Response {
	claim, created, err := m.svc.Auth.OAuthCallback(ctx, auth.OAuthInput{
		Provider: req.Provider,
		Code:     req.Code,
		Session:  auth.OptionalSession(ctx),
	})
	if err != nil {
		return fail(err)
	}
	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	return m.complete(ctx, claim, target{req.ClientID, req.State, req.RedirectURI}, status)
}
