package cookie_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/easyauth/pkg/cookie"
)

func TestManager(t *testing.T) {
	t.Parallel()

	t.Run("set with defaults and overrides", func(t *testing.T) {
		t.Parallel()
		m := cookie.NewFromConfig(cookie.Config{Path: "/", Secure: true, SameSite: "strict"})
		rec := httptest.NewRecorder()
		m.Set(rec, "id_token", "abc", cookie.WithMaxAge(86400))

		cookies := rec.Result().Cookies()
		require.Len(t, cookies, 1)
		c := cookies[0]
		assert.Equal(t, "id_token", c.Name)
		assert.Equal(t, "abc", c.Value)
		assert.Equal(t, "/", c.Path)
		assert.Equal(t, 86400, c.MaxAge)
		assert.True(t, c.Secure)
		assert.True(t, c.HttpOnly)
		assert.Equal(t, http.SameSiteStrictMode, c.SameSite)
	})

	t.Run("get", func(t *testing.T) {
		t.Parallel()
		m := cookie.New()
		req := httptest.NewRequest(http.MethodGet, "/", nil)

		_, err := m.Get(req, "id_token")
		assert.ErrorIs(t, err, cookie.ErrCookieNotFound)

		req.AddCookie(&http.Cookie{Name: "id_token", Value: "v"})
		v, err := m.Get(req, "id_token")
		require.NoError(t, err)
		assert.Equal(t, "v", v)
	})

	t.Run("delete", func(t *testing.T) {
		t.Parallel()
		m := cookie.New(cookie.WithDomain("example.com"))
		rec := httptest.NewRecorder()
		m.Delete(rec, "id_token")

		cookies := rec.Result().Cookies()
		require.Len(t, cookies, 1)
		assert.Equal(t, "", cookies[0].Value)
		assert.Less(t, cookies[0].MaxAge, 0)
		assert.Equal(t, "example.com", cookies[0].Domain)
	})
}
