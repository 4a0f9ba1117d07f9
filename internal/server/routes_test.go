package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"

	"storefront/internal/identity"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// テスト用：ヘッダのユーザーIDをそのままidentityに入れる
func fakeAuth(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		if v := c.Request().Header.Get("X-User"); v != "" {
			id, _ := strconv.ParseInt(v, 10, 64)
			req := c.Request()
			c.SetRequest(req.WithContext(identity.WithIdentity(req.Context(), identity.Identity{UserID: id, Role: identity.RoleUser})))
		}
		return next(c)
	}
}

func newLimitedEcho(rps float64) *echo.Echo {
	e := echo.New()
	ok := func(c echo.Context) error { return c.NoContent(http.StatusOK) }
	e.GET("/cart", ok, fakeAuth, cartRateLimiter(rps))
	return e
}

func doGet(e *echo.Echo, user string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/cart", nil)
	if user != "" {
		req.Header.Set("X-User", user)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestCartRateLimiter_WithoutIdentityIsUnauthorized(t *testing.T) {
	e := newLimitedEcho(10)

	rec := doGet(e, "")
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "Unauthorized", body["code"])
}

func TestCartRateLimiter_CountsPerUser(t *testing.T) {
	//burstは1
	e := newLimitedEcho(0.5)

	assert.Equal(t, http.StatusOK, doGet(e, "1").Code)

	rec := doGet(e, "1")
	require.Equal(t, http.StatusTooManyRequests, rec.Code)
	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "RateLimited", body["code"])

	//別ユーザーは別バケット
	assert.Equal(t, http.StatusOK, doGet(e, "2").Code)
}
