package server

import (
	"errors"
	"net/http"
	"strconv"

	"storefront/internal/identity"
	"storefront/internal/metrics"
	"storefront/internal/middleware"

	"github.com/labstack/echo/v4"
	ecM "github.com/labstack/echo/v4/middleware"
	"golang.org/x/time/rate"
)

func Register(e *echo.Echo, d Deps) {
	e.GET("/health/live", func(c echo.Context) error { return c.NoContent(http.StatusOK) })
	e.GET("/health/ready", func(c echo.Context) error {
		if d.Ready != nil {
			if err := d.Ready(c.Request().Context()); err != nil {
				return c.NoContent(http.StatusServiceUnavailable)
			}
		}
		return c.NoContent(http.StatusOK)
	})
	e.GET("/metrics", metrics.Handler())

	auth := middleware.AuthJWT(d.Config.JWTSecret)

	if d.Products != nil {
		d.Products.RegisterRoutes(e)
	}
	if d.Cart != nil {
		d.Cart.RegisterRoutes(e, auth, cartRateLimiter(d.Config.RateLimitRPS))
	}
	if d.AdminProduct != nil {
		d.AdminProduct.RegisterRoutes(e, auth, middleware.AdminRoleGuard())
	}
}

var errNoIdentity = errors.New("rate limiter: no identity in context")

// ユーザー単位のトークンバケット（認証後に置くのでuser idで数える）
func cartRateLimiter(rps float64) echo.MiddlewareFunc {
	burst := int(rps * 2)
	if burst < 1 {
		burst = 1
	}
	store := ecM.NewRateLimiterMemoryStoreWithConfig(ecM.RateLimiterMemoryStoreConfig{
		Rate:  rate.Limit(rps),
		Burst: burst,
	})

	return ecM.RateLimiterWithConfig(ecM.RateLimiterConfig{
		Store: store,
		IdentifierExtractor: func(c echo.Context) (string, error) {
			id, ok := identity.FromContext(c.Request().Context())
			if !ok {
				return "", errNoIdentity
			}
			return "user:" + strconv.FormatInt(id.UserID, 10), nil
		},
		// 認証より前に置かれた場合だけ来る
		ErrorHandler: func(c echo.Context, err error) error {
			return c.JSON(http.StatusUnauthorized, map[string]string{"error": "unauthorized", "code": "Unauthorized"})
		},
		DenyHandler: func(c echo.Context, identifier string, err error) error {
			return c.JSON(http.StatusTooManyRequests, map[string]string{"error": "too many requests", "code": "RateLimited"})
		},
	})
}
