package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"storefront/internal/config"
	"storefront/internal/handler"
	"storefront/internal/metrics"
	"storefront/internal/middleware"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	ecM "github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"
)

type Deps struct {
	Config config.Config
	Logger *zap.Logger

	Cart         *handler.CartHandler
	Products     *handler.ProductHandler
	AdminProduct *handler.AdminProductHandler

	// /health/ready で呼ぶ（DB ping）
	Ready func(ctx context.Context) error
}

// New はミドルウェアとルートを組んだechoを返す
func New(d Deps) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Server.ReadTimeout = 10 * time.Second
	e.Server.WriteTimeout = 15 * time.Second
	e.Server.ReadHeaderTimeout = 3 * time.Second

	e.Pre(ecM.RemoveTrailingSlash())

	e.Use(ecM.Recover())
	e.Use(ecM.RequestIDWithConfig(ecM.RequestIDConfig{
		Generator: uuid.NewString,
	}))
	e.Use(metrics.Middleware())
	e.Use(middleware.RequestLogger(d.Logger))

	origins := []string{"*"}
	if d.Config.FEURL != "" {
		origins = []string{d.Config.FEURL}
	}
	e.Use(ecM.CORSWithConfig(ecM.CORSConfig{
		AllowOrigins: origins,
		AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization},
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete},
	}))

	Register(e, d)
	return e
}

// Run は ctx がキャンセルされるまで待ち、その後 graceful shutdown する
func Run(ctx context.Context, e *echo.Echo, addr string, log *zap.Logger) error {
	errCh := make(chan error, 1)
	go func() {
		log.Info("listening", zap.String("addr", addr))
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return nil
}
