// Package seed prepares the local store on first start and after a schema
// version bump.
package seed

import (
	"context"
	"fmt"
	"time"

	"github.com/diewo77/cobbler-crm/internal/models"
	"github.com/diewo77/cobbler-crm/internal/repository"
	"github.com/diewo77/cobbler-crm/internal/store"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

// Options controls a seed run.
type Options struct {
	// Version is the schema version the running code expects.
	Version string
	// Demo writes sample records after the collections are cleared.
	Demo bool
}

// Run reseeds the store when the stored schema version differs from
// opts.Version. Returns true when a reseed happened. Running it twice with
// the same version is a no-op.
func Run(ctx context.Context, a *store.Adapter, repos *repository.Repositories, opts Options, log *logrus.Logger) (bool, error) {
	if log == nil {
		log = logrus.StandardLogger()
	}
	initialized, err := store.Get(ctx, a, store.KeyInitialized, false)
	if err != nil {
		return false, err
	}
	version, err := store.Get(ctx, a, store.KeySchemaVersion, "")
	if err != nil {
		return false, err
	}
	if initialized && version == opts.Version {
		return false, nil
	}

	log.WithFields(logrus.Fields{
		"module": "seed",
		"from":   version,
		"to":     opts.Version,
		"demo":   opts.Demo,
	}).Info("reseeding local store")

	// Ids restart at 1, so photos of the old records must go with them.
	imageKeys, err := a.Keys(ctx, store.ImageKeyPrefix)
	if err != nil {
		return false, err
	}
	for _, k := range append(append([]string{}, store.CollectionKeys...), imageKeys...) {
		if err := a.Remove(ctx, k); err != nil {
			return false, err
		}
	}
	if opts.Demo {
		if err := demo(ctx, repos, time.Now()); err != nil {
			return false, fmt.Errorf("seed demo data: %w", err)
		}
	}
	if err := a.Set(ctx, store.KeySchemaVersion, opts.Version); err != nil {
		return false, err
	}
	if err := a.Set(ctx, store.KeyInitialized, true); err != nil {
		return false, err
	}
	return true, nil
}

func money(v int64) decimal.Decimal { return decimal.NewFromInt(v) }

func demo(ctx context.Context, repos *repository.Repositories, now time.Time) error {
	if err := repos.Business.Save(ctx, models.BusinessInfo{
		Name:      "Sole Saver Shoe Repair",
		OwnerName: "Ramesh Kumar",
		Phone:     "+91 98765 43210",
		Address:   "14 Market Road, Bengaluru",
		Currency:  "INR",
		TaxRate:   money(18),
	}); err != nil {
		return err
	}

	staff := []models.StaffMember{
		{Name: "Ravi", Role: "pickup", Phone: "+91 90000 11111", Active: true, JoinedAt: now.AddDate(-1, 0, 0)},
		{Name: "Lakshmi", Role: "cobbler", Phone: "+91 90000 22222", Active: true, JoinedAt: now.AddDate(-2, 0, 0)},
	}
	for _, s := range staff {
		if _, err := repos.Staff.Add(ctx, s); err != nil {
			return err
		}
	}

	inventory := []models.InventoryItem{
		{Name: "Rubber sole sheet", Category: "soles", Quantity: 12, Unit: "sheet", UnitPrice: money(220), ReorderLevel: 5, UpdatedAt: now},
		{Name: "Contact adhesive", Category: "adhesives", Quantity: 2, Unit: "tin", UnitPrice: money(340), ReorderLevel: 3, UpdatedAt: now},
		{Name: "Black polish", Category: "polish", Quantity: 20, Unit: "tin", UnitPrice: money(90), ReorderLevel: 6, UpdatedAt: now},
	}
	for _, it := range inventory {
		if _, err := repos.Inventory.Add(ctx, it); err != nil {
			return err
		}
	}

	expenses := []models.Expense{
		{Title: "Shop rent", Category: "rent", Amount: money(12000), Date: now.AddDate(0, 0, -5), PaymentMethod: "bank"},
		{Title: "Leather offcuts", Category: "materials", Amount: money(1850), Date: now.AddDate(0, 0, -2), PaymentMethod: "cash"},
	}
	for _, e := range expenses {
		if _, err := repos.Expenses.Add(ctx, e); err != nil {
			return err
		}
	}

	day := func(n int) time.Time { return now.AddDate(0, 0, -n) }
	enquiries := []models.Enquiry{
		{
			CustomerName: "Meena Iyer", Phone: "+91 98450 12345", Address: "3 Temple Street",
			ProductType: "handbag", Message: "Strap torn at the buckle",
			Source: "walk-in", Status: models.StatusNew, CurrentStage: models.StageEnquiry,
			QuotedAmount: money(450), CreatedAt: day(1), UpdatedAt: day(1),
		},
		{
			CustomerName: "Arjun Rao", Phone: "+91 98450 67890", Address: "22 Lake View",
			ProductType: "boots", Message: "Resole both boots",
			Source: "whatsapp", Status: models.StatusConverted, CurrentStage: models.StagePickup,
			QuotedAmount: money(1200), CreatedAt: day(3), UpdatedAt: day(2),
			PickupDetails: &models.PickupDetails{Status: models.PickupAssigned, AssignedTo: "Ravi"},
			StageHistory:  []models.StageChange{{From: models.StageEnquiry, To: models.StagePickup, At: day(2)}},
		},
		{
			CustomerName: "Fatima Sheikh", Phone: "+91 98450 55555",
			ProductType: "sandals", Message: "Replace heel tips and polish",
			Source: "phone", Status: models.StatusConverted, CurrentStage: models.StageService,
			QuotedAmount: money(350), CreatedAt: day(6), UpdatedAt: day(1),
			ServiceDetails: &models.ServiceDetails{
				Items: []models.ServiceItem{
					{ServiceType: "heel", Status: models.ServiceDone, Cost: money(250)},
					{ServiceType: "polish", Status: models.ServicePending, Cost: money(100)},
				},
				EstimatedCost: money(350),
				ActualCost:    money(350),
			},
			StageHistory: []models.StageChange{
				{From: models.StageEnquiry, To: models.StagePickup, At: day(5)},
				{From: models.StagePickup, To: models.StageService, At: day(4)},
			},
		},
	}
	for _, e := range enquiries {
		if _, err := repos.Enquiries.Add(ctx, e); err != nil {
			return err
		}
	}
	return nil
}
