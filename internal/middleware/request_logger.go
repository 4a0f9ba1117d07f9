package middleware

import (
	"time"

	"storefront/internal/logging"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// RequestLogger はリクエストごとのロガーをcontextに入れ、終了時に1行出す。
func RequestLogger(base *zap.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			req := c.Request()

			reqID := c.Response().Header().Get(echo.HeaderXRequestID)
			if reqID == "" {
				reqID = req.Header.Get(echo.HeaderXRequestID)
			}

			l := base.With(zap.String("request_id", reqID))
			c.SetRequest(req.WithContext(logging.IntoContext(req.Context(), l)))

			err := next(c)
			if err != nil {
				// echoのエラーハンドラでレスポンスを確定させる
				c.Error(err)
			}

			status := c.Response().Status
			fields := []zap.Field{
				zap.String("method", req.Method),
				zap.String("path", req.URL.Path),
				zap.Int("status", status),
				zap.Duration("duration", time.Since(start)),
			}
			if uid, ok := c.Get(CtxUserIDKey).(int64); ok {
				fields = append(fields, zap.Int64("user_id", uid))
			}

			switch {
			case status >= 500:
				l.Error("request", append(fields, zap.Error(err))...)
			case status >= 400:
				l.Warn("request", fields...)
			default:
				l.Info("request", fields...)
			}
			return nil
		}
	}
}
