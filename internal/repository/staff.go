package repository

import (
	"context"

	"github.com/diewo77/cobbler-crm/internal/models"
	"github.com/diewo77/cobbler-crm/internal/store"
)

type StaffRepository struct {
	*Collection[models.StaffMember, *models.StaffMember]
}

func NewStaffRepository(a *store.Adapter) *StaffRepository {
	return &StaffRepository{Collection: NewCollection[models.StaffMember](a, store.KeyStaff)}
}

// Active lists staff who can take assignments.
func (r *StaffRepository) Active(ctx context.Context) ([]models.StaffMember, error) {
	return r.Filter(ctx, func(s *models.StaffMember) bool { return s.Active })
}
