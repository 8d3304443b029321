package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// InventoryItem is a consumable or spare part kept in the shop.
type InventoryItem struct {
	ID           int             `json:"id" validate:"gt=0"`
	Name         string          `json:"name" validate:"required"`
	Category     string          `json:"category,omitempty"`
	Quantity     int             `json:"quantity"`
	Unit         string          `json:"unit,omitempty"`
	UnitPrice    decimal.Decimal `json:"unitPrice"`
	ReorderLevel int             `json:"reorderLevel"`
	Supplier     string          `json:"supplier,omitempty"`
	UpdatedAt    time.Time       `json:"updatedAt"`
}

func (i *InventoryItem) GetID() int   { return i.ID }
func (i *InventoryItem) SetID(id int) { i.ID = id }

// LowStock returns true when the item should be reordered.
func (i *InventoryItem) LowStock() bool {
	return i.Quantity <= i.ReorderLevel
}

// StockValue is quantity times unit price.
func (i *InventoryItem) StockValue() decimal.Decimal {
	return i.UnitPrice.Mul(decimal.NewFromInt(int64(i.Quantity)))
}
