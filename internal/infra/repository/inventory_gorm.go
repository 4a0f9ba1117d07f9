package repository

import (
	"context"
	"errors"

	"storefront/internal/domain/model"
	repo "storefront/internal/repository"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// variants テーブルを扱う（InventoryLedger / InventoryRepository / VariantRepository）
type InventoryGormRepository struct {
	db *gorm.DB
}

func NewInventoryGormRepository(db *gorm.DB) *InventoryGormRepository {
	return &InventoryGormRepository{db: db}
}

// バリアントをオプション付きで取得
func (r *InventoryGormRepository) GetVariant(ctx context.Context, variantID int64) (model.Variant, error) {
	var v model.Variant

	err := r.db.WithContext(ctx).
		Preload("Options", func(db *gorm.DB) *gorm.DB {
			return db.Order("variant_options.id asc")
		}).
		Where("id = ?", variantID).
		First(&v).Error

	if isNotFound(err) {
		return model.Variant{}, repo.ErrNotFound
	}
	if err != nil {
		return model.Variant{}, err
	}
	return v, nil
}

// 在庫数だけ読む
func (r *InventoryGormRepository) GetStock(ctx context.Context, variantID int64) (int64, error) {
	var v model.Variant

	err := r.db.WithContext(ctx).
		Select("id", "stock").
		Where("id = ?", variantID).
		First(&v).Error

	if isNotFound(err) {
		return 0, repo.ErrNotFound
	}
	if err != nil {
		return 0, err
	}
	return v.Stock, nil
}

func (r *InventoryGormRepository) FindByID(ctx context.Context, variantID int64) (model.Variant, error) {
	return r.GetVariant(ctx, variantID)
}

// 在庫の現在値を設定
func (r *InventoryGormRepository) SetStock(ctx context.Context, variantID int64, newStock int64) error {
	res := r.db.WithContext(ctx).
		Model(&model.Variant{}).
		Where("id = ?", variantID).
		Update("stock", newStock)

	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return repo.ErrNotFound
	}
	return nil
}

// 調整履歴作成
func (r *InventoryGormRepository) CreateAdjustment(ctx context.Context, adj model.InventoryAdjustment) error {
	if err := r.db.WithContext(ctx).Create(&adj).Error; err != nil {
		return err
	}
	return nil
}

// バリアントをオプションごと作成
func (r *InventoryGormRepository) Create(ctx context.Context, v model.Variant) (model.Variant, error) {
	if err := r.db.WithContext(ctx).Omit("Product").Create(&v).Error; err != nil {
		return model.Variant{}, err
	}
	return v, nil
}

// 価格変更。カート明細の単価には影響しない。
func (r *InventoryGormRepository) UpdatePrice(ctx context.Context, variantID int64, price decimal.Decimal) error {
	res := r.db.WithContext(ctx).
		Model(&model.Variant{}).
		Where("id = ?", variantID).
		Update("price", price)

	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return repo.ErrNotFound
	}
	return nil
}

func (r *InventoryGormRepository) ListByProduct(ctx context.Context, productID int64) ([]model.Variant, error) {
	var vs []model.Variant

	if err := r.db.WithContext(ctx).
		Preload("Options", func(db *gorm.DB) *gorm.DB {
			return db.Order("variant_options.id asc")
		}).
		Where("product_id = ?", productID).
		Order("id asc").
		Find(&vs).Error; err != nil {
		return []model.Variant{}, err
	}
	return vs, nil
}

// 在庫・価格の変更前に行ロックして読む
func (r *InventoryGormRepository) FindByIDForUpdate(ctx context.Context, variantID int64) (model.Variant, error) {
	var v model.Variant

	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", variantID).
		First(&v).Error

	if isNotFound(err) {
		return model.Variant{}, repo.ErrNotFound
	}
	return v, err
}

func isNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}
