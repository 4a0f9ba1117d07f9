package handler

import (
	"net/http"
	"strconv"

	"storefront/internal/usecase"

	"github.com/labstack/echo/v4"
)

// /cartのHTTP
type CartHandler struct {
	uc *usecase.CartUsecase
}

// DI
func NewCartHandler(uc *usecase.CartUsecase) *CartHandler {
	return &CartHandler{uc: uc}
}

type AddCartItemRequest struct {
	VariantID int64 `json:"variant_id"`
	Quantity  int64 `json:"quantity"`
}

type UpdateCartItemRequest struct {
	Quantity int64 `json:"quantity"`
}

// /cart, /cart/items/{id} を登録。mwsには認証とレート制限を渡す。
func (h *CartHandler) RegisterRoutes(e *echo.Echo, mws ...echo.MiddlewareFunc) {
	g := e.Group("/cart", mws...)

	g.GET("", h.getCart)
	g.DELETE("", h.deleteCart)
	g.POST("/items", h.addItem)
	g.PATCH("/items/:id", h.patchItem)
	g.DELETE("/items/:id", h.deleteItem)
}

func (h *CartHandler) getCart(c echo.Context) error {
	userID, ok := currentUserID(c)
	if !ok {
		return writeError(c, usecase.ErrUnauthorized)
	}

	out, err := h.uc.GetCart(c.Request().Context(), userID)
	if err != nil {
		return writeError(c, err)
	}

	return c.JSON(http.StatusOK, out)
}

func (h *CartHandler) addItem(c echo.Context) error {
	userID, ok := currentUserID(c)
	if !ok {
		return writeError(c, usecase.ErrUnauthorized)
	}

	var req AddCartItemRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid body")
	}

	out, err := h.uc.AddItem(c.Request().Context(), userID, usecase.AddItemInput{
		VariantID: req.VariantID,
		Quantity:  req.Quantity,
	})
	if err != nil {
		return writeError(c, err)
	}

	return c.JSON(http.StatusCreated, out)
}

func (h *CartHandler) patchItem(c echo.Context) error {
	userID, ok := currentUserID(c)
	if !ok {
		return writeError(c, usecase.ErrUnauthorized)
	}

	itemID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || itemID <= 0 {
		return badRequest(c, "invalid id")
	}

	var req UpdateCartItemRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid body")
	}

	//自分のカート以外は触らせない
	ctx := c.Request().Context()
	cartID, err := h.uc.ResolveCartID(ctx, userID)
	if err != nil {
		return writeError(c, err)
	}

	out, err := h.uc.UpdateQuantity(ctx, cartID, itemID, req.Quantity)
	if err != nil {
		return writeError(c, err)
	}

	return c.JSON(http.StatusOK, out)
}

func (h *CartHandler) deleteItem(c echo.Context) error {
	userID, ok := currentUserID(c)
	if !ok {
		return writeError(c, usecase.ErrUnauthorized)
	}

	itemID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || itemID <= 0 {
		return badRequest(c, "invalid id")
	}

	ctx := c.Request().Context()
	cartID, err := h.uc.ResolveCartID(ctx, userID)
	if err != nil {
		return writeError(c, err)
	}

	out, err := h.uc.RemoveItem(ctx, cartID, itemID)
	if err != nil {
		return writeError(c, err)
	}

	return c.JSON(http.StatusOK, out)
}

func (h *CartHandler) deleteCart(c echo.Context) error {
	userID, ok := currentUserID(c)
	if !ok {
		return writeError(c, usecase.ErrUnauthorized)
	}

	ctx := c.Request().Context()
	cartID, err := h.uc.ResolveCartID(ctx, userID)
	if err != nil {
		return writeError(c, err)
	}

	if err := h.uc.DeleteCart(ctx, cartID); err != nil {
		return writeError(c, err)
	}

	return c.JSON(http.StatusOK, SuccessResponse{Message: "deleted"})
}
