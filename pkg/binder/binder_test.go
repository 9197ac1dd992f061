package binder_test

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/easyauth/pkg/binder"
)

type tokenRequest struct {
	Code         string `json:"code" query:"code" form:"code"`
	ClientID     string `json:"client_id" query:"client_id" form:"client_id"`
	ClientSecret string `json:"client_secret" query:"client_secret" form:"client_secret"`
	Limit        int    `json:"-" query:"limit"`
	Password     string `json:"password"`
}

func TestJSON(t *testing.T) {
	t.Parallel()

	bind := binder.JSON()

	t.Run("decodes", func(t *testing.T) {
		t.Parallel()
		req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"code":"c","client_id":"id"}`))
		req.Header.Set("Content-Type", "application/json; charset=utf-8")

		var v tokenRequest
		require.NoError(t, bind(req, &v))
		assert.Equal(t, "c", v.Code)
		assert.Equal(t, "id", v.ClientID)
	})

	t.Run("not applicable without json content type", func(t *testing.T) {
		t.Parallel()
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		var v tokenRequest
		assert.ErrorIs(t, bind(req, &v), binder.ErrBinderNotApplicable)
	})

	t.Run("rejects bad payloads", func(t *testing.T) {
		t.Parallel()
		for _, body := range []string{"", "{", `{"unknown":1}`, `{"code":"a"}{"code":"b"}`, `{"code":1}`} {
			req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
			req.Header.Set("Content-Type", "application/json")
			var v tokenRequest
			err := bind(req, &v)
			assert.ErrorIs(t, err, binder.ErrFailedToParseJSON, "body %q", body)
			assert.True(t, binder.IsBindError(err))
		}
	})
}

func TestQuery(t *testing.T) {
	t.Parallel()

	req := httptest.NewRequest(http.MethodGet, "/?code=c&client_id=id&limit=5&password=leak", nil)
	var v tokenRequest
	require.NoError(t, binder.Query()(req, &v))
	assert.Equal(t, "c", v.Code)
	assert.Equal(t, "id", v.ClientID)
	assert.Equal(t, 5, v.Limit)
	assert.Empty(t, v.Password, "fields without a query tag are not bound")

	bad := httptest.NewRequest(http.MethodGet, "/?limit=ten", nil)
	assert.ErrorIs(t, binder.Query()(bad, &v), binder.ErrFailedToParseQuery)

	var notStruct string
	assert.ErrorIs(t, binder.Query()(req, &notStruct), binder.ErrFailedToParseQuery)
}

func TestForm(t *testing.T) {
	t.Parallel()

	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader("code=c&client_secret=s"))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	assert.True(t, binder.IsForm(req))

	var v tokenRequest
	require.NoError(t, binder.Form()(req, &v))
	assert.Equal(t, "c", v.Code)
	assert.Equal(t, "s", v.ClientSecret)

	jsonReq := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{}`))
	jsonReq.Header.Set("Content-Type", "application/json")
	assert.False(t, binder.IsForm(jsonReq))
	assert.ErrorIs(t, binder.Form()(jsonReq, &v), binder.ErrBinderNotApplicable)
}

func TestPath(t *testing.T) {
	t.Parallel()

	type unlinkRequest struct {
		Provider string `path:"provider"`
		Page     int    `path:"page"`
		Ignored  string
	}
	params := map[string]string{"provider": "github", "page": "3"}
	bind := binder.Path(func(_ *http.Request, name string) string { return params[name] })

	var v unlinkRequest
	require.NoError(t, bind(httptest.NewRequest(http.MethodPut, "/", nil), &v))
	assert.Equal(t, "github", v.Provider)
	assert.Equal(t, 3, v.Page)
	assert.Empty(t, v.Ignored)

	bad := binder.Path(func(_ *http.Request, name string) string { return "x" })
	err := bad(httptest.NewRequest(http.MethodPut, "/", nil), &v)
	require.Error(t, err)
	assert.True(t, binder.IsBindError(err))
}
