package repository

import (
	"context"

	"github.com/diewo77/cobbler-crm/internal/models"
	"github.com/diewo77/cobbler-crm/internal/store"
)

// BusinessRepository holds the single shop profile record.
type BusinessRepository struct {
	adapter *store.Adapter
}

func NewBusinessRepository(a *store.Adapter) *BusinessRepository {
	return &BusinessRepository{adapter: a}
}

func (r *BusinessRepository) Get(ctx context.Context) (models.BusinessInfo, error) {
	return store.Get(ctx, r.adapter, store.KeyBusinessInfo, models.BusinessInfo{})
}

func (r *BusinessRepository) Save(ctx context.Context, info models.BusinessInfo) error {
	return r.adapter.Set(ctx, store.KeyBusinessInfo, info)
}
