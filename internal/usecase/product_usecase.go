package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"storefront/internal/domain/model"
	repo "storefront/internal/repository"

	"github.com/shopspring/decimal"
)

type ProductUsecase struct {
	tx          repo.TransactionManager
	productRepo repo.ProductRepository
	auditRepo   repo.AuditLogRepository
	clock       Clock
}

// DI
func NewProductUsecase(
	tx repo.TransactionManager,
	productRepo repo.ProductRepository,
	auditRepo repo.AuditLogRepository,
	clock Clock,
) *ProductUsecase {
	return &ProductUsecase{
		tx:          tx,
		productRepo: productRepo,
		auditRepo:   auditRepo,
		clock:       clock,
	}
}

// GET /productsの入力DTO
type ListProductsInput struct {
	Page     int
	Limit    int
	Q        string
	MinPrice *decimal.Decimal
	MaxPrice *decimal.Decimal
	Sort     string
}

type ProductListOutput struct {
	Items []model.Product `json:"items"`
	Total int64           `json:"total"`
	Page  int             `json:"page"`
	Limit int             `json:"limit"`
}

func (u *ProductUsecase) ListPublicProducts(ctx context.Context, in ListProductsInput) (ProductListOutput, error) {
	if in.Page < 1 {
		return ProductListOutput{}, invalidInput("invalid page")
	}
	if in.Limit < 1 || in.Limit > 100 {
		return ProductListOutput{}, invalidInput("invalid limit")
	}
	if len(in.Q) > 100 {
		return ProductListOutput{}, invalidInput("q too long")
	}
	if in.MinPrice != nil && in.MinPrice.IsNegative() {
		return ProductListOutput{}, invalidInput("min_price must be >= 0")
	}
	if in.MaxPrice != nil && in.MaxPrice.IsNegative() {
		return ProductListOutput{}, invalidInput("max_price must be >= 0")
	}
	if in.MinPrice != nil && in.MaxPrice != nil && in.MinPrice.GreaterThan(*in.MaxPrice) {
		return ProductListOutput{}, invalidInput("min_price must be <= max_price")
	}
	switch in.Sort {
	case "", "new", "name_asc":
	default:
		return ProductListOutput{}, invalidInput("invalid sort")
	}

	items, total, err := u.productRepo.ListPublic(ctx, repo.ProductListQuery{
		Page:     in.Page,
		Limit:    in.Limit,
		Q:        strings.TrimSpace(in.Q),
		MinPrice: in.MinPrice,
		MaxPrice: in.MaxPrice,
		Sort:     in.Sort,
	})
	if err != nil {
		return ProductListOutput{}, storeUnavailable(err)
	}

	return ProductListOutput{
		Items: items,
		Total: total,
		Page:  in.Page,
		Limit: in.Limit,
	}, nil
}

func (u *ProductUsecase) GetProductDetail(ctx context.Context, productID int64) (model.Product, error) {
	if productID <= 0 {
		return model.Product{}, invalidInput("invalid product id")
	}

	p, err := u.productRepo.FindByID(ctx, productID)
	if errors.Is(err, repo.ErrNotFound) {
		return model.Product{}, ErrNotFound
	}
	if err != nil {
		return model.Product{}, storeUnavailable(err)
	}

	// 非公開は存在しない扱い
	if !p.IsActive {
		return model.Product{}, ErrNotFound
	}
	return p, nil
}

type AdminProductInput struct {
	Name        string
	Description string
	IsActive    bool
}

func (in AdminProductInput) validate() error {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return invalidInput("name required")
	}
	if len(name) > 255 {
		return invalidInput("name too long")
	}
	return nil
}

func (u *ProductUsecase) AdminCreateProduct(ctx context.Context, adminUserID int64, in AdminProductInput) (int64, error) {
	if adminUserID <= 0 {
		return 0, ErrUnauthorized
	}
	if err := in.validate(); err != nil {
		return 0, err
	}

	now := u.clock.Now()
	p, err := u.productRepo.Create(ctx, model.Product{
		Name:        strings.TrimSpace(in.Name),
		Description: in.Description,
		IsActive:    in.IsActive,
		CreatedAt:   now,
		UpdatedAt:   now,
	})
	if err != nil {
		return 0, storeUnavailable(err)
	}
	return p.ID, nil
}

func (u *ProductUsecase) AdminUpdateProduct(ctx context.Context, adminUserID int64, productID int64, in AdminProductInput) error {
	if adminUserID <= 0 {
		return ErrUnauthorized
	}
	if productID <= 0 {
		return invalidInput("invalid product id")
	}
	if err := in.validate(); err != nil {
		return err
	}

	err := u.productRepo.Update(ctx, model.Product{
		ID:          productID,
		Name:        strings.TrimSpace(in.Name),
		Description: in.Description,
		IsActive:    in.IsActive,
		UpdatedAt:   u.clock.Now(),
	})
	if errors.Is(err, repo.ErrNotFound) {
		return ErrNotFound
	}
	if err != nil {
		return storeUnavailable(err)
	}
	return nil
}

// 論理削除。カート明細が参照しているバリアントは残る。
func (u *ProductUsecase) AdminDeleteProduct(ctx context.Context, adminUserID int64, productID int64) error {
	if adminUserID <= 0 {
		return ErrUnauthorized
	}
	if productID <= 0 {
		return invalidInput("invalid product id")
	}

	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		p, err := r.Products().FindByID(ctx, productID)
		if errors.Is(err, repo.ErrNotFound) {
			return ErrNotFound
		}
		if err != nil {
			return storeUnavailable(err)
		}

		if err := r.Products().SoftDelete(ctx, productID); err != nil {
			if errors.Is(err, repo.ErrNotFound) {
				return ErrNotFound
			}
			return storeUnavailable(err)
		}

		if err := r.AuditLogs().Create(ctx, model.AuditLog{
			ActorUserID:  adminUserID,
			Action:       model.AuditActionDeleteProduct,
			ResourceType: model.AuditResourceProduct,
			ResourceID:   productID,
			BeforeJSON:   fmt.Sprintf(`{"name":%q,"is_active":%t}`, p.Name, p.IsActive),
			AfterJSON:    `{"deleted":true}`,
			CreatedAt:    u.clock.Now(),
		}); err != nil {
			return storeUnavailable(err)
		}
		return nil
	})
	return asUsecaseError(err)
}

type VariantOptionInput struct {
	Name  string
	Value string
}

type AdminCreateVariantInput struct {
	SKU     string
	Price   decimal.Decimal
	Stock   int64
	Options []VariantOptionInput
}

func (u *ProductUsecase) AdminCreateVariant(ctx context.Context, adminUserID int64, productID int64, in AdminCreateVariantInput) (model.Variant, error) {
	if adminUserID <= 0 {
		return model.Variant{}, ErrUnauthorized
	}
	if productID <= 0 {
		return model.Variant{}, invalidInput("invalid product id")
	}
	sku := strings.TrimSpace(in.SKU)
	if sku == "" || len(sku) > 64 {
		return model.Variant{}, invalidInput("invalid sku")
	}
	if in.Price.IsNegative() {
		return model.Variant{}, invalidInput("price must be >= 0")
	}
	if in.Stock < 0 {
		return model.Variant{}, invalidInput("stock must be >= 0")
	}

	opts := make([]model.VariantOption, 0, len(in.Options))
	for _, o := range in.Options {
		if strings.TrimSpace(o.Name) == "" || strings.TrimSpace(o.Value) == "" {
			return model.Variant{}, invalidInput("invalid option")
		}
		opts = append(opts, model.VariantOption{Name: strings.TrimSpace(o.Name), Value: strings.TrimSpace(o.Value)})
	}

	var created model.Variant
	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		if _, err := r.Products().FindByID(ctx, productID); err != nil {
			if errors.Is(err, repo.ErrNotFound) {
				return ErrNotFound
			}
			return storeUnavailable(err)
		}

		v, err := r.Variants().Create(ctx, model.Variant{
			ProductID: productID,
			SKU:       sku,
			Price:     in.Price.Round(2),
			Stock:     in.Stock,
			Options:   opts,
		})
		if err != nil {
			return storeUnavailable(err)
		}
		created = v
		return nil
	})
	if err != nil {
		return model.Variant{}, asUsecaseError(err)
	}
	return created, nil
}

// 価格変更。既にカートにある明細の unit_price は変わらない。
func (u *ProductUsecase) AdminUpdateVariantPrice(ctx context.Context, adminUserID int64, variantID int64, price decimal.Decimal) error {
	if adminUserID <= 0 {
		return ErrUnauthorized
	}
	if variantID <= 0 {
		return invalidInput("invalid variant id")
	}
	if price.IsNegative() {
		return invalidInput("price must be >= 0")
	}
	price = price.Round(2)

	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		v, err := r.Variants().FindByIDForUpdate(ctx, variantID)
		if errors.Is(err, repo.ErrNotFound) {
			return ErrVariantNotFound
		}
		if err != nil {
			return storeUnavailable(err)
		}

		if err := r.Variants().UpdatePrice(ctx, variantID, price); err != nil {
			if errors.Is(err, repo.ErrNotFound) {
				return ErrVariantNotFound
			}
			return storeUnavailable(err)
		}

		if err := r.AuditLogs().Create(ctx, model.AuditLog{
			ActorUserID:  adminUserID,
			Action:       model.AuditActionUpdatePrice,
			ResourceType: model.AuditResourceVariant,
			ResourceID:   variantID,
			BeforeJSON:   fmt.Sprintf(`{"price":%q}`, v.Price.StringFixed(2)),
			AfterJSON:    fmt.Sprintf(`{"price":%q}`, price.StringFixed(2)),
			CreatedAt:    u.clock.Now(),
		}); err != nil {
			return storeUnavailable(err)
		}
		return nil
	})
	return asUsecaseError(err)
}

// 在庫の現在値を置き換え、差分の履歴と監査ログを同じTxで残す。
func (u *ProductUsecase) AdminUpdateInventory(ctx context.Context, adminUserID int64, variantID int64, newStock int64, reason string) error {
	if adminUserID <= 0 {
		return ErrUnauthorized
	}
	if variantID <= 0 {
		return invalidInput("invalid variant id")
	}
	if newStock < 0 {
		return invalidInput("stock must be >= 0")
	}
	if strings.TrimSpace(reason) == "" {
		return invalidInput("reason required")
	}

	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		//変更前の在庫（before）
		v, err := r.Variants().FindByIDForUpdate(ctx, variantID)
		if errors.Is(err, repo.ErrNotFound) {
			return ErrVariantNotFound
		}
		if err != nil {
			return storeUnavailable(err)
		}

		if err := r.Inventory().SetStock(ctx, variantID, newStock); err != nil {
			if errors.Is(err, repo.ErrNotFound) {
				return ErrVariantNotFound
			}
			return storeUnavailable(err)
		}

		now := u.clock.Now()

		//履歴を作成（差分）
		if err := r.Inventory().CreateAdjustment(ctx, model.InventoryAdjustment{
			VariantID:   variantID,
			AdminUserID: adminUserID,
			Delta:       newStock - v.Stock,
			Reason:      strings.TrimSpace(reason),
			CreatedAt:   now,
		}); err != nil {
			return storeUnavailable(err)
		}

		//「誰が」「何を」「どの対象に」「どう変えたか」を残す
		if err := r.AuditLogs().Create(ctx, model.AuditLog{
			ActorUserID:  adminUserID,
			Action:       model.AuditActionUpdateStock,
			ResourceType: model.AuditResourceVariant,
			ResourceID:   variantID,
			BeforeJSON:   fmt.Sprintf(`{"stock":%d}`, v.Stock),
			AfterJSON:    fmt.Sprintf(`{"stock":%d}`, newStock),
			CreatedAt:    now,
		}); err != nil {
			return storeUnavailable(err)
		}
		return nil
	})
	return asUsecaseError(err)
}

type ListAuditLogsInput struct {
	ActorUserID  *int64
	Action       *model.AuditAction
	ResourceType *model.AuditResourceType
	ResourceID   *int64
	CreatedFrom  *time.Time
	CreatedTo    *time.Time
	Limit        int
	Offset       int
}

func (u *ProductUsecase) AdminListAuditLogs(ctx context.Context, in ListAuditLogsInput) ([]model.AuditLog, error) {
	if in.Limit == 0 {
		in.Limit = 50
	}
	if in.Limit < 1 || in.Limit > 200 {
		return nil, invalidInput("invalid limit")
	}
	if in.Offset < 0 {
		return nil, invalidInput("invalid offset")
	}
	if in.CreatedFrom != nil && in.CreatedTo != nil && in.CreatedFrom.After(*in.CreatedTo) {
		return nil, invalidInput("from must be <= to")
	}

	logs, err := u.auditRepo.List(ctx, repo.AuditLogFilter{
		ActorUserID:  in.ActorUserID,
		Action:       in.Action,
		ResourceType: in.ResourceType,
		ResourceID:   in.ResourceID,
		CreatedFrom:  in.CreatedFrom,
		CreatedTo:    in.CreatedTo,
		Limit:        in.Limit,
		Offset:       in.Offset,
	})
	if err != nil {
		return nil, storeUnavailable(err)
	}
	return logs, nil
}
