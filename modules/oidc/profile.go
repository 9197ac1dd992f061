package oidc

import (
	"time"

	"github.com/dmitrymomot/easyauth/handler"
	"github.com/dmitrymomot/easyauth/svc/auth"
)

type accountResponse struct {
	ID       string `json:"id"`
	Provider string `json:"provider"`
	Name     string `json:"name"`
}

type profileResponse struct {
	Email     string            `json:"email"`
	Nickname  string            `json:"nickname"`
	Avatar    string            `json:"avatar"`
	Scope     *string           `json:"scope"`
	CreatedAt time.Time         `json:"created_at"`
	Accounts  []accountResponse `json:"accounts"`
}

func (m *Module) profile(ctx handler.Context, claim auth.Claim, _ struct{}) handler.Response {
	user, err := m.svc.Auth.User(ctx, claim)
	if err != nil {
		return fail(err)
	}
	accounts, err := m.svc.Auth.Accounts(ctx, claim)
	if err != nil {
		return fail(err)
	}

	resp := profileResponse{
		Email:     user.Email,
		Nickname:  user.Nickname,
		Avatar:    user.Avatar,
		Scope:     user.Scope,
		CreatedAt: user.CreatedAt,
		Accounts:  make([]accountResponse, 0, len(accounts)),
	}
	for _, a := range accounts {
		resp.Accounts = append(resp.Accounts, accountResponse{ID: a.ID.String(), Provider: a.Provider, Name: a.Name})
	}
	return handler.JSON(resp)
}

type updateProfileRequest struct {
	Nickname string `json:"nickname" form:"nickname"`
	Avatar   string `json:"avatar" form:"avatar"`
}

func (m *Module) updateProfile(ctx handler.Context, claim auth.Claim, req updateProfileRequest) handler.Response {
	if _, err := m.svc.Auth.UpdateProfile(ctx, claim, auth.ProfileInput{
		Nickname: req.Nickname,
		Avatar:   req.Avatar,
	}); err != nil {
		return fail(err)
	}
	return handler.Empty()
}

type changePasswordRequest struct {
	Password string `json:"password" form:"password"`
}

func (m *Module) changePassword(ctx handler.Context, claim auth.Claim, req changePasswordRequest) handler.Response {
	if err := m.svc.Auth.ChangePassword(ctx, claim, req.Password); err != nil {
		return fail(err)
	}
	return handler.Empty()
}

type unlinkRequest struct {
	Provider string `path:"provider"`
}

func (m *Module) unlink(ctx handler.Context, claim auth.Claim, req unlinkRequest) handler.Response {
	if err := m.svc.Auth.Unlink(ctx, claim, req.Provider); err != nil {
		return fail(err)
	}
	return handler.Empty()
}
