package services

import (
	"context"
	"time"

	"github.com/diewo77/cobbler-crm/internal/models"
	"github.com/diewo77/cobbler-crm/internal/repository"
	"github.com/diewo77/cobbler-crm/internal/workflow"
	"github.com/shopspring/decimal"
)

// EnquirySource is where the dashboard reads enquiries from: the local
// repositories or a poller over the remote API.
type EnquirySource interface {
	ListEnquiries(ctx context.Context) ([]models.Enquiry, error)
}

type ExpenseSource interface {
	ListExpenses(ctx context.Context) ([]models.Expense, error)
}

type InventorySource interface {
	ListInventory(ctx context.Context) ([]models.InventoryItem, error)
}

// LocalSource serves every dashboard source from the local repositories.
type LocalSource struct {
	Repos *repository.Repositories
}

func (s LocalSource) ListEnquiries(ctx context.Context) ([]models.Enquiry, error) {
	return s.Repos.Enquiries.GetAll(ctx)
}

func (s LocalSource) ListExpenses(ctx context.Context) ([]models.Expense, error) {
	return s.Repos.Expenses.GetAll(ctx)
}

func (s LocalSource) ListInventory(ctx context.Context) ([]models.InventoryItem, error) {
	return s.Repos.Inventory.GetAll(ctx)
}

// Stats feeds the dashboard stat cards.
type Stats struct {
	TotalEnquiries     int                          `json:"totalEnquiries"`
	ByStage            map[models.Stage]int         `json:"byStage"`
	ByStatus           map[models.EnquiryStatus]int `json:"byStatus"`
	PendingPickups     int                          `json:"pendingPickups"`
	InService          int                          `json:"inService"`
	ReadyForDelivery   int                          `json:"readyForDelivery"`
	CompletedThisMonth int                          `json:"completedThisMonth"`
	Revenue            decimal.Decimal              `json:"revenue"`
	Outstanding        decimal.Decimal              `json:"outstanding"`
	Expenses           decimal.Decimal              `json:"expenses"`
	LowStockItems      int                          `json:"lowStockItems"`
	GeneratedAt        time.Time                    `json:"generatedAt"`
}

type DashboardService struct {
	enquiries EnquirySource
	expenses  ExpenseSource
	inventory InventorySource
	now       func() time.Time
}

// NewDashboardService builds the service. expenses and inventory may be nil
// when only enquiries are available.
func NewDashboardService(enq EnquirySource, exp ExpenseSource, inv InventorySource) *DashboardService {
	return &DashboardService{enquiries: enq, expenses: exp, inventory: inv, now: time.Now}
}

func (d *DashboardService) Stats(ctx context.Context) (Stats, error) {
	all, err := d.enquiries.ListEnquiries(ctx)
	if err != nil {
		return Stats{}, err
	}
	now := d.now()
	monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())

	st := Stats{
		TotalEnquiries: len(all),
		ByStage:        workflow.Counts(all),
		ByStatus:       make(map[models.EnquiryStatus]int, len(models.EnquiryStatuses)),
		Revenue:        Revenue(all),
		Outstanding:    Outstanding(all),
		Expenses:       decimal.Zero,
		GeneratedAt:    now,
	}
	for _, s := range models.EnquiryStatuses {
		st.ByStatus[s] = 0
	}
	for i := range all {
		e := &all[i]
		st.ByStatus[e.Status]++
		switch e.CurrentStage {
		case models.StagePickup:
			if e.PickupDetails == nil || e.PickupDetails.Status != models.PickupReceived {
				st.PendingPickups++
			}
		case models.StageService:
			st.InService++
		case models.StageDelivery:
			if e.DeliveryDetails == nil || e.DeliveryDetails.Status != models.DeliveryDelivered {
				st.ReadyForDelivery++
			}
		case models.StageCompleted:
			if !completedAt(e).Before(monthStart) {
				st.CompletedThisMonth++
			}
		}
	}

	if d.expenses != nil {
		exp, err := d.expenses.ListExpenses(ctx)
		if err != nil {
			return Stats{}, err
		}
		st.Expenses = repository.Total(exp)
	}
	if d.inventory != nil {
		items, err := d.inventory.ListInventory(ctx)
		if err != nil {
			return Stats{}, err
		}
		for i := range items {
			if items[i].LowStock() {
				st.LowStockItems++
			}
		}
	}
	return st, nil
}

// completedAt is when e entered the completed stage, falling back to its
// last update.
func completedAt(e *models.Enquiry) time.Time {
	for i := len(e.StageHistory) - 1; i >= 0; i-- {
		if e.StageHistory[i].To == models.StageCompleted {
			return e.StageHistory[i].At
		}
	}
	return e.UpdatedAt
}

// Search backs the searchable tables: a text query plus an optional stage.
func (d *DashboardService) Search(ctx context.Context, q string, stage models.Stage) ([]models.Enquiry, error) {
	all, err := d.enquiries.ListEnquiries(ctx)
	if err != nil {
		return nil, err
	}
	out := []models.Enquiry{}
	for i := range all {
		if stage != "" && all[i].CurrentStage != stage {
			continue
		}
		if all[i].Matches(q) {
			out = append(out, all[i])
		}
	}
	return out, nil
}

// Enquiries returns every enquiry from the source.
func (d *DashboardService) Enquiries(ctx context.Context) ([]models.Enquiry, error) {
	return d.enquiries.ListEnquiries(ctx)
}
