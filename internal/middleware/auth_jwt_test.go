package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"storefront/internal/identity"

	"github.com/golang-jwt/jwt/v4"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test_secret"

// =====================
// helper
// =====================

func mustMakeJWT(t *testing.T, secret string, claims jwt.MapClaims, method jwt.SigningMethod) string {
	t.Helper()

	tok := jwt.NewWithClaims(method, claims)
	s, err := tok.SignedString([]byte(secret))
	require.NoError(t, err)
	return s
}

func validClaims(sub interface{}, role string) jwt.MapClaims {
	return jwt.MapClaims{
		"sub":  sub,
		"role": role,
		"exp":  time.Now().Add(time.Hour).Unix(),
	}
}

type okResponse struct {
	UserID int64  `json:"user_id"`
	Role   string `json:"role"`
}

// 認証を通ったら identity をそのまま返すハンドラ
func newAuthEcho(mws ...echo.MiddlewareFunc) *echo.Echo {
	e := echo.New()
	e.GET("/me", func(c echo.Context) error {
		id, ok := identity.FromContext(c.Request().Context())
		if !ok {
			return c.NoContent(http.StatusTeapot)
		}
		return c.JSON(http.StatusOK, okResponse{UserID: id.UserID, Role: string(id.Role)})
	}, mws...)
	return e
}

func doGet(e *echo.Echo, authz string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	if authz != "" {
		req.Header.Set("Authorization", authz)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

// =====================
// AuthJWT
// =====================

func TestAuthJWT_Valid(t *testing.T) {
	e := newAuthEcho(AuthJWT(testSecret))

	tests := []struct {
		name string
		sub  interface{}
	}{
		{name: "numeric sub", sub: 12},
		{name: "string sub", sub: "12"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			token := mustMakeJWT(t, testSecret, validClaims(tt.sub, "USER"), jwt.SigningMethodHS256)
			rec := doGet(e, "Bearer "+token)
			require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

			var got okResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
			assert.Equal(t, int64(12), got.UserID)
			assert.Equal(t, "USER", got.Role)
		})
	}
}

func TestAuthJWT_Rejects(t *testing.T) {
	e := newAuthEcho(AuthJWT(testSecret))

	expired := validClaims(1, "USER")
	expired["exp"] = time.Now().Add(-time.Minute).Unix()

	tests := []struct {
		name  string
		authz string
	}{
		{name: "no header", authz: ""},
		{name: "not bearer", authz: "Basic abc"},
		{name: "empty token", authz: "Bearer "},
		{name: "garbage", authz: "Bearer not.a.jwt"},
		{name: "wrong secret", authz: "Bearer " + mustMakeJWT(t, "other", validClaims(1, "USER"), jwt.SigningMethodHS256)},
		{name: "wrong alg", authz: "Bearer " + mustMakeJWT(t, testSecret, validClaims(1, "USER"), jwt.SigningMethodHS384)},
		{name: "expired", authz: "Bearer " + mustMakeJWT(t, testSecret, expired, jwt.SigningMethodHS256)},
		{name: "no sub", authz: "Bearer " + mustMakeJWT(t, testSecret, jwt.MapClaims{"role": "USER"}, jwt.SigningMethodHS256)},
		{name: "zero sub", authz: "Bearer " + mustMakeJWT(t, testSecret, validClaims(0, "USER"), jwt.SigningMethodHS256)},
		{name: "unknown role", authz: "Bearer " + mustMakeJWT(t, testSecret, validClaims(1, "ROOT"), jwt.SigningMethodHS256)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := doGet(e, tt.authz)
			require.Equal(t, http.StatusUnauthorized, rec.Code)

			var body errorResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.Equal(t, "Unauthorized", body.Code)
		})
	}
}

// =====================
// AdminRoleGuard
// =====================

func TestAdminRoleGuard(t *testing.T) {
	e := newAuthEcho(AuthJWT(testSecret), AdminRoleGuard())

	user := mustMakeJWT(t, testSecret, validClaims(1, "USER"), jwt.SigningMethodHS256)
	rec := doGet(e, "Bearer "+user)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	admin := mustMakeJWT(t, testSecret, validClaims(2, "ADMIN"), jwt.SigningMethodHS256)
	rec = doGet(e, "Bearer "+admin)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestAdminRoleGuard_WithoutAuth(t *testing.T) {
	e := newAuthEcho(AdminRoleGuard())

	rec := doGet(e, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
