package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Expense is money spent running the shop.
type Expense struct {
	ID            int             `json:"id" validate:"gt=0"`
	Title         string          `json:"title" validate:"required"`
	Category      string          `json:"category,omitempty"`
	Amount        decimal.Decimal `json:"amount"`
	Date          time.Time       `json:"date"`
	PaymentMethod string          `json:"paymentMethod,omitempty"`
	Notes         string          `json:"notes,omitempty"`
}

func (e *Expense) GetID() int   { return e.ID }
func (e *Expense) SetID(id int) { e.ID = id }
