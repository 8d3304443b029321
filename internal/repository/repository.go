package repository

import (
	"github.com/diewo77/cobbler-crm/internal/images"
	"github.com/diewo77/cobbler-crm/internal/store"
)

// Repositories bundles one repository per entity type. Build it once and
// pass it to whatever needs data access.
type Repositories struct {
	Enquiries *EnquiryRepository
	Inventory *InventoryRepository
	Expenses  *ExpenseRepository
	Staff     *StaffRepository
	Business  *BusinessRepository
}

func New(a *store.Adapter, imgs *images.Store) *Repositories {
	return &Repositories{
		Enquiries: NewEnquiryRepository(a, imgs),
		Inventory: NewInventoryRepository(a),
		Expenses:  NewExpenseRepository(a),
		Staff:     NewStaffRepository(a),
		Business:  NewBusinessRepository(a),
	}
}
