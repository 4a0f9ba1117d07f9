package handler

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"storefront/internal/usecase"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
)

func TestWriteError_StatusMapping(t *testing.T) {
	tests := []struct {
		err        error
		wantStatus int
		wantCode   string
	}{
		{usecase.ErrInsufficientStock, http.StatusBadRequest, "InsufficientStock"},
		{usecase.ErrInvalidQuantity, http.StatusBadRequest, "InvalidQuantity"},
		{usecase.ErrVariantNotFound, http.StatusNotFound, "VariantNotFound"},
		{usecase.ErrItemNotFound, http.StatusNotFound, "ItemNotFound"},
		{usecase.ErrCartNotFound, http.StatusNotFound, "CartNotFound"},
		{usecase.ErrUnauthorized, http.StatusUnauthorized, "Unauthorized"},
		{usecase.ErrForbidden, http.StatusForbidden, "Forbidden"},
		{usecase.ErrStoreUnavailable, http.StatusServiceUnavailable, "StoreUnavailable"},
		{errors.New("boom"), http.StatusInternalServerError, "Internal"},
	}

	e := echo.New()
	for _, tt := range tests {
		rec := httptest.NewRecorder()
		c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), rec)

		assert.NoError(t, writeError(c, tt.err))
		assert.Equal(t, tt.wantStatus, rec.Code, tt.wantCode)
		assert.Contains(t, rec.Body.String(), `"code":"`+tt.wantCode+`"`)

		if tt.wantStatus == http.StatusServiceUnavailable {
			assert.Equal(t, "1", rec.Header().Get("Retry-After"))
		} else {
			assert.Empty(t, rec.Header().Get("Retry-After"))
		}
	}
}
