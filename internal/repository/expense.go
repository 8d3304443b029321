package repository

import (
	"context"
	"time"

	"github.com/diewo77/cobbler-crm/internal/models"
	"github.com/diewo77/cobbler-crm/internal/store"
	"github.com/shopspring/decimal"
)

type ExpenseRepository struct {
	*Collection[models.Expense, *models.Expense]
}

func NewExpenseRepository(a *store.Adapter) *ExpenseRepository {
	return &ExpenseRepository{Collection: NewCollection[models.Expense](a, store.KeyExpenses)}
}

// Between returns expenses dated in [from, to). A zero bound is open.
func (r *ExpenseRepository) Between(ctx context.Context, from, to time.Time) ([]models.Expense, error) {
	return r.Filter(ctx, func(e *models.Expense) bool {
		if !from.IsZero() && e.Date.Before(from) {
			return false
		}
		if !to.IsZero() && !e.Date.Before(to) {
			return false
		}
		return true
	})
}

// Total sums the amounts of expenses.
func Total(expenses []models.Expense) decimal.Decimal {
	sum := decimal.Zero
	for _, e := range expenses {
		sum = sum.Add(e.Amount)
	}
	return sum
}
