package oidc

import (
	"time"

	"github.com/dmitrymomot/easyauth/handler"
	oidcsvc "github.com/dmitrymomot/easyauth/svc/oidc"
)

type tokenRequest struct {
	Code         string `json:"code" form:"code" query:"code"`
	ClientID     string `json:"client_id" form:"client_id" query:"client_id"`
	ClientSecret string `json:"client_secret" form:"client_secret" query:"client_secret"`
}

type tokenResponse struct {
	IDToken string `json:"id_token"`
}

// token redeems an authorization code for an ID token.
func (m *Module) token(ctx handler.Context, req tokenRequest) handler.Response {
	idToken, err := m.svc.Exchange.Redeem(ctx, oidcsvc.RedeemRequest{
		ClientID:     req.ClientID,
		ClientSecret: req.ClientSecret,
		Code:         req.Code,
	})
	if err != nil {
		return fail(err)
	}
	return handler.JSON(tokenResponse{IDToken: idToken}, handler.WithHeader("Cache-Control", "no-store"))
}

type jwksRequest struct {
	ClientID string `query:"client_id"`
}

// jwks serves the application's public keys as a bare JWK set.
func (m *Module) jwks(ctx handler.Context, req jwksRequest) handler.Response {
	if req.ClientID == "" {
		return fail(oidcsvc.ErrParamsWrong)
	}
	set, err := m.svc.Apps.JWKS(ctx, req.ClientID)
	if err != nil {
		return fail(err)
	}
	return handler.RawJSON(set, handler.WithHeader("Cache-Control", "public, max-age=300"))
}

type userInfoRequest struct {
	ClientID     string `query:"client_id"`
	ClientSecret string `query:"client_secret"`
	IDToken      string `query:"id_token"`
}

type userInfoResponse struct {
	Email     string    `json:"email"`
	Nickname  string    `json:"nickname"`
	Avatar    string    `json:"avatar"`
	CreatedAt time.Time `json:"created_at"`
}

// userInfo returns the profile behind an ID token to the application it
// was issued to.
func (m *Module) userInfo(ctx handler.Context, req userInfoRequest) handler.Response {
	if req.ClientID == "" || req.ClientSecret == "" || req.IDToken == "" {
		return fail(oidcsvc.ErrParamsWrong)
	}
	claim, err := m.svc.Exchange.VerifyIDToken(ctx, req.ClientID, req.ClientSecret, req.IDToken)
	if err != nil {
		return fail(err)
	}
	user, err := m.svc.Auth.User(ctx, claim)
	if err != nil {
		return fail(err)
	}
	return handler.JSON(userInfoResponse{
		Email:     user.Email,
		Nickname:  user.Nickname,
		Avatar:    user.Avatar,
		CreatedAt: user.CreatedAt,
	})
}
