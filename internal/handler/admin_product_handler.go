package handler

import (
	"net/http"
	"strconv"
	"time"

	"storefront/internal/domain/model"
	"storefront/internal/usecase"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
)

type ProductRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	IsActive    bool   `json:"is_active"`
}

type VariantOptionRequest struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// price は "1200.50" でも 1200.5 でもよい
type VariantCreateRequest struct {
	SKU     string                 `json:"sku"`
	Price   decimal.Decimal        `json:"price"`
	Stock   int64                  `json:"stock"`
	Options []VariantOptionRequest `json:"options"`
}

type PriceUpdateRequest struct {
	Price decimal.Decimal `json:"price"`
}

// 在庫更新の入力
type InventoryUpdateRequest struct {
	Stock  int64  `json:"stock"`
	Reason string `json:"reason"`
}

type CreatedResponse struct {
	ID int64 `json:"id"`
}

// /admin 配下（商品・バリアント・在庫・監査ログ）
type AdminProductHandler struct {
	uc *usecase.ProductUsecase
}

// DI
func NewAdminProductHandler(uc *usecase.ProductUsecase) *AdminProductHandler {
	return &AdminProductHandler{uc: uc}
}

// adminを登録。mwsには認証とADMINガードを渡す。
func (h *AdminProductHandler) RegisterRoutes(e *echo.Echo, mws ...echo.MiddlewareFunc) {
	admin := e.Group("/admin", mws...)

	admin.POST("/products", h.createProduct)
	admin.PUT("/products/:id", h.updateProduct)
	admin.DELETE("/products/:id", h.deleteProduct)
	admin.POST("/products/:id/variants", h.createVariant)
	admin.PATCH("/variants/:id/price", h.updatePrice)
	admin.PUT("/inventory/:variant_id", h.updateInventory)
	admin.GET("/audit-logs", h.listAuditLogs)
}

func (h *AdminProductHandler) createProduct(c echo.Context) error {
	var req ProductRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid body")
	}

	adminID, ok := currentUserID(c)
	if !ok {
		return writeError(c, usecase.ErrUnauthorized)
	}

	id, err := h.uc.AdminCreateProduct(c.Request().Context(), adminID, usecase.AdminProductInput{
		Name:        req.Name,
		Description: req.Description,
		IsActive:    req.IsActive,
	})
	if err != nil {
		return writeError(c, err)
	}

	return c.JSON(http.StatusCreated, CreatedResponse{ID: id})
}

func (h *AdminProductHandler) updateProduct(c echo.Context) error {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return badRequest(c, "invalid id")
	}

	var req ProductRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid body")
	}

	adminID, ok := currentUserID(c)
	if !ok {
		return writeError(c, usecase.ErrUnauthorized)
	}

	err = h.uc.AdminUpdateProduct(c.Request().Context(), adminID, id, usecase.AdminProductInput{
		Name:        req.Name,
		Description: req.Description,
		IsActive:    req.IsActive,
	})
	if err != nil {
		return writeError(c, err)
	}

	return c.JSON(http.StatusOK, SuccessResponse{Message: "updated"})
}

func (h *AdminProductHandler) deleteProduct(c echo.Context) error {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return badRequest(c, "invalid id")
	}

	adminID, ok := currentUserID(c)
	if !ok {
		return writeError(c, usecase.ErrUnauthorized)
	}

	if err := h.uc.AdminDeleteProduct(c.Request().Context(), adminID, id); err != nil {
		return writeError(c, err)
	}

	return c.JSON(http.StatusOK, SuccessResponse{Message: "deleted"})
}

func (h *AdminProductHandler) createVariant(c echo.Context) error {
	productID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return badRequest(c, "invalid id")
	}

	var req VariantCreateRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid body")
	}

	adminID, ok := currentUserID(c)
	if !ok {
		return writeError(c, usecase.ErrUnauthorized)
	}

	opts := make([]usecase.VariantOptionInput, 0, len(req.Options))
	for _, o := range req.Options {
		opts = append(opts, usecase.VariantOptionInput{Name: o.Name, Value: o.Value})
	}

	v, err := h.uc.AdminCreateVariant(c.Request().Context(), adminID, productID, usecase.AdminCreateVariantInput{
		SKU:     req.SKU,
		Price:   req.Price,
		Stock:   req.Stock,
		Options: opts,
	})
	if err != nil {
		return writeError(c, err)
	}

	return c.JSON(http.StatusCreated, v)
}

func (h *AdminProductHandler) updatePrice(c echo.Context) error {
	variantID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return badRequest(c, "invalid id")
	}

	var req PriceUpdateRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid body")
	}

	adminID, ok := currentUserID(c)
	if !ok {
		return writeError(c, usecase.ErrUnauthorized)
	}

	if err := h.uc.AdminUpdateVariantPrice(c.Request().Context(), adminID, variantID, req.Price); err != nil {
		return writeError(c, err)
	}

	return c.JSON(http.StatusOK, SuccessResponse{Message: "price updated"})
}

func (h *AdminProductHandler) updateInventory(c echo.Context) error {
	variantID, err := strconv.ParseInt(c.Param("variant_id"), 10, 64)
	if err != nil {
		return badRequest(c, "invalid variant_id")
	}

	var req InventoryUpdateRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid body")
	}

	adminID, ok := currentUserID(c)
	if !ok {
		return writeError(c, usecase.ErrUnauthorized)
	}

	if err := h.uc.AdminUpdateInventory(
		c.Request().Context(),
		adminID,
		variantID,
		req.Stock,
		req.Reason,
	); err != nil {
		return writeError(c, err)
	}

	return c.JSON(http.StatusOK, SuccessResponse{Message: "stock updated"})
}

func (h *AdminProductHandler) listAuditLogs(c echo.Context) error {
	var in usecase.ListAuditLogsInput

	if v := c.QueryParam("actor_user_id"); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return badRequest(c, "invalid actor_user_id")
		}
		in.ActorUserID = &id
	}
	if v := c.QueryParam("resource_id"); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return badRequest(c, "invalid resource_id")
		}
		in.ResourceID = &id
	}
	if v := c.QueryParam("action"); v != "" {
		a := model.AuditAction(v)
		in.Action = &a
	}
	if v := c.QueryParam("resource_type"); v != "" {
		rt := model.AuditResourceType(v)
		in.ResourceType = &rt
	}
	if v := c.QueryParam("from"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return badRequest(c, "invalid from")
		}
		in.CreatedFrom = &t
	}
	if v := c.QueryParam("to"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return badRequest(c, "invalid to")
		}
		in.CreatedTo = &t
	}
	if v := c.QueryParam("limit"); v != "" {
		l, err := strconv.Atoi(v)
		if err != nil {
			return badRequest(c, "invalid limit")
		}
		in.Limit = l
	}
	if v := c.QueryParam("offset"); v != "" {
		o, err := strconv.Atoi(v)
		if err != nil {
			return badRequest(c, "invalid offset")
		}
		in.Offset = o
	}

	logs, err := h.uc.AdminListAuditLogs(c.Request().Context(), in)
	if err != nil {
		return writeError(c, err)
	}

	return c.JSON(http.StatusOK, logs)
}
