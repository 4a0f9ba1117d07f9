package usecase

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"storefront/internal/domain/model"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestError_IsMatchesByKind(t *testing.T) {
	err := fmt.Errorf("wrapped: %w", &Error{Kind: KindCartNotFound, Message: "cart 7 not found"})

	assert.ErrorIs(t, err, ErrCartNotFound)
	assert.NotErrorIs(t, err, ErrItemNotFound)
}

func TestError_Retryable(t *testing.T) {
	assert.True(t, ErrStoreUnavailable.Retryable())
	for _, e := range []*Error{ErrVariantNotFound, ErrInsufficientStock, ErrInvalidQuantity, ErrItemNotFound, ErrCartNotFound, ErrUnauthorized} {
		assert.False(t, e.Retryable(), string(e.Kind))
	}
}

func TestAsUsecaseError(t *testing.T) {
	assert.NoError(t, asUsecaseError(nil))

	//ドメインのエラーはそのまま
	assert.Same(t, ErrInsufficientStock, asUsecaseError(ErrInsufficientStock))

	//それ以外は StoreUnavailable（原因は残す）
	err := asUsecaseError(context.DeadlineExceeded)
	assert.ErrorIs(t, err, ErrStoreUnavailable)
	assert.True(t, errors.Is(err, context.DeadlineExceeded))
	assert.Contains(t, err.Error(), "StoreUnavailable")
}

func TestMergeQuantity(t *testing.T) {
	tests := []struct {
		existing, add, stock int64
		want                 int64
		clamped              bool
	}{
		{existing: 3, add: 4, stock: 5, want: 5, clamped: true},
		{existing: 1, add: 1, stock: 5, want: 2},
		{existing: 2, add: 3, stock: 5, want: 5},
		//在庫が後から減った場合も在庫数まで下げる
		{existing: 8, add: 1, stock: 5, want: 5, clamped: true},
	}

	for _, tt := range tests {
		got, clamped := mergeQuantity(tt.existing, tt.add, tt.stock)
		assert.Equal(t, tt.want, got)
		assert.Equal(t, tt.clamped, clamped)
	}
}

func TestBuildCartOutput_UsesSnapshotPrice(t *testing.T) {
	cart := model.Cart{
		ID:     1,
		UserID: 2,
		Items: []model.CartItem{
			{
				ID: 10, VariantID: 100, Quantity: 3, UnitPrice: decimal.RequireFromString("19.99"),
				Variant: &model.Variant{
					ID: 100, ProductID: 5, SKU: "A", Price: decimal.RequireFromString("25.00"), Stock: 9,
					Product: &model.Product{ID: 5, Name: "Tee"},
				},
			},
			{ID: 11, VariantID: 101, Quantity: 1, UnitPrice: decimal.RequireFromString("0.01")},
		},
	}

	out := buildCartOutput(cart)

	assert.Equal(t, int64(4), out.ItemCount)
	assert.True(t, decimal.RequireFromString("59.98").Equal(out.Subtotal), out.Subtotal.String())
	assert.True(t, decimal.RequireFromString("59.97").Equal(out.Items[0].LineTotal))
	assert.True(t, decimal.RequireFromString("25").Equal(out.Items[0].CurrentPrice))
	assert.Equal(t, "Tee", out.Items[0].ProductName)
	assert.Empty(t, out.Items[1].SKU)
	assert.NotNil(t, out.Items[1].Options)
}

func TestBuildCartOutput_Empty(t *testing.T) {
	out := buildCartOutput(model.Cart{ID: 1, UserID: 2})

	assert.NotNil(t, out.Items)
	assert.Empty(t, out.Items)
	assert.True(t, out.Subtotal.IsZero())
}
