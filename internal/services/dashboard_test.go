package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/diewo77/cobbler-crm/internal/models"
)

type staticSource []models.Enquiry

func (s staticSource) ListEnquiries(context.Context) ([]models.Enquiry, error) { return s, nil }

type brokenSource struct{}

func (brokenSource) ListEnquiries(context.Context) ([]models.Enquiry, error) {
	return nil, errors.New("offline")
}

func TestDashboardService_StatsLocal(t *testing.T) {
	repos := setupRepos(t)
	ctx := context.Background()
	now := time.Date(2024, 6, 20, 12, 0, 0, 0, time.UTC)

	_, _ = repos.Enquiries.Add(ctx, models.Enquiry{CustomerName: "A", Status: models.StatusNew, CurrentStage: models.StageEnquiry})
	_, _ = repos.Enquiries.Add(ctx, models.Enquiry{CustomerName: "B", Status: models.StatusConverted, CurrentStage: models.StagePickup})
	_, _ = repos.Enquiries.Add(ctx, models.Enquiry{CustomerName: "C", Status: models.StatusConverted, CurrentStage: models.StagePickup,
		PickupDetails: &models.PickupDetails{Status: models.PickupReceived}})
	_, _ = repos.Enquiries.Add(ctx, models.Enquiry{CustomerName: "D", Status: models.StatusConverted, CurrentStage: models.StageDelivery,
		DeliveryDetails: &models.DeliveryDetails{Status: models.DeliveryReady}})
	_, _ = repos.Enquiries.Add(ctx, models.Enquiry{CustomerName: "E", Status: models.StatusClosed, CurrentStage: models.StageCompleted,
		StageHistory:   []models.StageChange{{From: models.StageDelivery, To: models.StageCompleted, At: now.AddDate(0, 0, -3)}},
		ServiceDetails: &models.ServiceDetails{BillingDetails: &models.BillingDetails{Total: d("750"), PaidAmount: d("750"), PaymentStatus: models.PaymentPaid}}})
	_, _ = repos.Enquiries.Add(ctx, models.Enquiry{CustomerName: "F", Status: models.StatusClosed, CurrentStage: models.StageCompleted,
		UpdatedAt: now.AddDate(0, -2, 0)})
	_, _ = repos.Expenses.Add(ctx, models.Expense{Title: "Rent", Amount: d("5000")})
	_, _ = repos.Inventory.Add(ctx, models.InventoryItem{Name: "Glue", Quantity: 1, ReorderLevel: 2})
	_, _ = repos.Inventory.Add(ctx, models.InventoryItem{Name: "Soles", Quantity: 40, ReorderLevel: 10})

	src := LocalSource{Repos: repos}
	svc := NewDashboardService(src, src, src)
	svc.now = func() time.Time { return now }

	st, err := svc.Stats(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if st.TotalEnquiries != 6 {
		t.Errorf("total = %d", st.TotalEnquiries)
	}
	if st.ByStage[models.StagePickup] != 2 || st.ByStage[models.StageService] != 0 {
		t.Errorf("byStage = %v", st.ByStage)
	}
	if st.ByStatus[models.StatusConverted] != 3 || st.ByStatus[models.StatusLost] != 0 {
		t.Errorf("byStatus = %v", st.ByStatus)
	}
	if st.PendingPickups != 1 || st.ReadyForDelivery != 1 || st.CompletedThisMonth != 1 {
		t.Errorf("cards: pickups=%d delivery=%d completed=%d", st.PendingPickups, st.ReadyForDelivery, st.CompletedThisMonth)
	}
	if !st.Revenue.Equal(d("750")) || !st.Expenses.Equal(d("5000")) || st.LowStockItems != 1 {
		t.Errorf("money/stock: revenue=%s expenses=%s low=%d", st.Revenue, st.Expenses, st.LowStockItems)
	}
}

func TestDashboardService_EnquiriesOnly(t *testing.T) {
	svc := NewDashboardService(staticSource{{ID: 1, CurrentStage: models.StageService}}, nil, nil)
	st, err := svc.Stats(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if st.InService != 1 || !st.Expenses.IsZero() {
		t.Errorf("stats = %+v", st)
	}
}

func TestDashboardService_SourceError(t *testing.T) {
	svc := NewDashboardService(brokenSource{}, nil, nil)
	if _, err := svc.Stats(context.Background()); err == nil {
		t.Error("expected source error")
	}
}

func TestDashboardService_Search(t *testing.T) {
	svc := NewDashboardService(staticSource{
		{ID: 1, CustomerName: "Meena", CurrentStage: models.StageService},
		{ID: 2, CustomerName: "Meera", CurrentStage: models.StageBilling},
		{ID: 3, CustomerName: "Arjun", CurrentStage: models.StageService},
	}, nil, nil)
	ctx := context.Background()

	got, _ := svc.Search(ctx, "mee", "")
	if len(got) != 2 {
		t.Errorf("text search = %+v", got)
	}
	got, _ = svc.Search(ctx, "mee", models.StageService)
	if len(got) != 1 || got[0].ID != 1 {
		t.Errorf("stage search = %+v", got)
	}
	got, _ = svc.Search(ctx, "zzz", "")
	if got == nil || len(got) != 0 {
		t.Errorf("expected empty non-nil result, got %#v", got)
	}
}
