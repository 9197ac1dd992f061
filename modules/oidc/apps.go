package oidc

import (
	"net/http"
	"time"

	"github.com/dmitrymomot/easyauth/handler"
	"github.com/dmitrymomot/easyauth/svc/auth"
	oidcsvc "github.com/dmitrymomot/easyauth/svc/oidc"
)

type appInfoRequest struct {
	ClientID string `path:"client_id"`
}

type appInfoResponse struct {
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

// appInfo is public: the sign-in page shows which application asks.
func (m *Module) appInfo(ctx handler.Context, req appInfoRequest) handler.Response {
	app, err := m.svc.Apps.Get(ctx, req.ClientID)
	if err != nil {
		return fail(err)
	}
	return handler.JSON(appInfoResponse{Name: app.Name, CreatedAt: app.CreatedAt})
}

type listAppsRequest struct {
	Limit  int `query:"limit"`
	Offset int `query:"offset"`
}

type appResponse struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	RedirectURI string    `json:"redirect_uri"`
	CreatedAt   time.Time `json:"created_at"`
}

func (m *Module) listApps(ctx handler.Context, claim auth.Claim, req listAppsRequest) handler.Response {
	apps, err := m.svc.Apps.List(ctx, claim, req.Limit, req.Offset)
	if err != nil {
		return fail(err)
	}
	resp := make([]appResponse, 0, len(apps))
	for _, a := range apps {
		resp = append(resp, appResponse{
			ID:          a.ClientID,
			Name:        a.Name,
			RedirectURI: a.RedirectURI,
			CreatedAt:   a.CreatedAt,
		})
	}
	return handler.JSON(resp)
}

type createAppRequest struct {
	Name        string `json:"name" form:"name"`
	RedirectURI string `json:"redirect_uri" form:"redirect_uri"`
}

type createAppResponse struct {
	ID     string `json:"id"`
	Secret string `json:"secret"`
}

func (m *Module) createApp(ctx handler.Context, claim auth.Claim, req createAppRequest) handler.Response {
	app, err := m.svc.Apps.Create(ctx, claim, oidcsvc.CreateAppInput{
		Name:        req.Name,
		RedirectURI: req.RedirectURI,
	})
	if err != nil {
		return fail(err)
	}
	return handler.JSON(createAppResponse{ID: app.ClientID, Secret: app.Secret},
		handler.WithJSONStatus(http.StatusCreated))
}

type deleteAppRequest struct {
	ClientID string `json:"client_id" query:"client_id"`
}

func (m *Module) deleteApp(ctx handler.Context, claim auth.Claim, req deleteAppRequest) handler.Response {
	if err := m.svc.Apps.Delete(ctx, claim, req.ClientID); err != nil {
		return fail(err)
	}
	return handler.Empty()
}
