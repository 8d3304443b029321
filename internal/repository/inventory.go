package repository

import (
	"context"
	"errors"
	"time"

	"github.com/diewo77/cobbler-crm/internal/models"
	"github.com/diewo77/cobbler-crm/internal/store"
)

var ErrInsufficientStock = errors.New("insufficient stock")

type InventoryRepository struct {
	*Collection[models.InventoryItem, *models.InventoryItem]
}

func NewInventoryRepository(a *store.Adapter) *InventoryRepository {
	return &InventoryRepository{Collection: NewCollection[models.InventoryItem](a, store.KeyInventory)}
}

// AdjustQuantity adds delta (negative to consume) to the stock of id.
func (r *InventoryRepository) AdjustQuantity(ctx context.Context, id, delta int) (*models.InventoryItem, error) {
	return r.Mutate(ctx, id, func(it *models.InventoryItem) error {
		if it.Quantity+delta < 0 {
			return ErrInsufficientStock
		}
		it.Quantity += delta
		it.UpdatedAt = time.Now()
		return nil
	})
}

// LowStock lists items at or below their reorder level.
func (r *InventoryRepository) LowStock(ctx context.Context) ([]models.InventoryItem, error) {
	return r.Filter(ctx, func(it *models.InventoryItem) bool { return it.LowStock() })
}
