package handler

import (
	"net/http"

	"storefront/internal/identity"
	"storefront/internal/logging"
	"storefront/internal/usecase"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

// Success { message: string }
type SuccessResponse struct {
	Message string `json:"message"`
}

func badRequest(c echo.Context, msg string) error {
	return c.JSON(http.StatusBadRequest, ErrorResponse{Error: msg, Code: string(usecase.KindInvalidInput)})
}

// usecase.Error の種類をHTTPステータスに変換する
func writeError(c echo.Context, err error) error {
	if err == nil {
		return nil
	}

	ue, ok := usecase.AsError(err)
	if !ok {
		//500
		logging.FromContext(c.Request().Context()).Error("unhandled error", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal error", Code: "Internal"})
	}

	status := statusFor(ue.Kind)
	if ue.Retryable() {
		logging.FromContext(c.Request().Context()).Warn("store unavailable", zap.Error(ue))
		c.Response().Header().Set("Retry-After", "1")
	}
	return c.JSON(status, ErrorResponse{Error: ue.Message, Code: string(ue.Kind)})
}

func statusFor(kind usecase.ErrorKind) int {
	switch kind {
	case usecase.KindInsufficientStock, usecase.KindInvalidQuantity, usecase.KindInvalidInput:
		return http.StatusBadRequest
	case usecase.KindVariantNotFound, usecase.KindItemNotFound, usecase.KindCartNotFound, usecase.KindNotFound:
		return http.StatusNotFound
	case usecase.KindUnauthorized:
		return http.StatusUnauthorized
	case usecase.KindForbidden:
		return http.StatusForbidden
	case usecase.KindStoreUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// middleware.AuthJWT がcontextに入れた呼び出し元
func currentUserID(c echo.Context) (int64, bool) {
	id, ok := identity.FromContext(c.Request().Context())
	if !ok {
		return 0, false
	}
	return id.UserID, true
}
