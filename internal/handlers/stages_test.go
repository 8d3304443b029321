package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/diewo77/cobbler-crm/internal/models"
	"github.com/diewo77/cobbler-crm/internal/repository"
	"github.com/diewo77/cobbler-crm/internal/services"
	"github.com/diewo77/cobbler-crm/internal/workflow"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

func stageMux(repos *repository.Repositories, logger *logrus.Logger) *http.ServeMux {
	wf := workflow.NewService(repos.Enquiries, logger)
	h := NewStageHandler(repos.Enquiries, wf, services.NewBillingService(repos.Enquiries, repos.Business), logger)
	mux := http.NewServeMux()
	mux.HandleFunc("GET /pickup/enquiries", h.List(models.StagePickup))
	mux.HandleFunc("PATCH /pickup/enquiries/{id}/schedule", h.SchedulePickup())
	mux.HandleFunc("PATCH /pickup/enquiries/{id}/assign", h.AssignPickup())
	mux.HandleFunc("PATCH /pickup/enquiries/{id}/collect", h.Collect())
	mux.HandleFunc("PATCH /pickup/enquiries/{id}/receive", h.Receive())
	mux.HandleFunc("PATCH /services/enquiries/{id}/items", h.UpdateServiceItem())
	mux.HandleFunc("PATCH /services/enquiries/{id}/complete", h.CompleteService())
	mux.HandleFunc("POST /billing/enquiries/{id}/generate", h.GenerateBill())
	mux.HandleFunc("POST /billing/enquiries/{id}/payment", h.RecordPayment())
	mux.HandleFunc("PATCH /delivery/enquiries/{id}/schedule", h.ScheduleDelivery())
	mux.HandleFunc("PATCH /delivery/enquiries/{id}/dispatch", h.Dispatch())
	mux.HandleFunc("PATCH /delivery/enquiries/{id}/deliver", h.Deliver())
	return mux
}

func enquiryFrom(t *testing.T, body []byte) models.Enquiry {
	t.Helper()
	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		t.Fatal(err)
	}
	var e models.Enquiry
	if err := json.Unmarshal(env.Data, &e); err != nil {
		t.Fatal(err)
	}
	return e
}

func TestStageHandler_FullJourney(t *testing.T) {
	repos, logger, _ := setup(t)
	mux := stageMux(repos, logger)
	ctx := context.Background()
	_ = repos.Business.Save(ctx, models.BusinessInfo{Name: "Shop", TaxRate: decimal.NewFromInt(18)})
	e, _ := repos.Enquiries.Create(ctx, models.Enquiry{CustomerName: "A", CurrentStage: models.StagePickup})

	steps := []struct {
		method, path, body string
		status             int
	}{
		{http.MethodPatch, "/pickup/enquiries/1/schedule", `{}`, http.StatusBadRequest},
		{http.MethodPatch, "/pickup/enquiries/1/schedule", `{"scheduledAt":"2024-05-11T10:00:00Z","notes":"gate"}`, http.StatusOK},
		{http.MethodPatch, "/pickup/enquiries/1/assign", `{"assignedTo":""}`, http.StatusBadRequest},
		{http.MethodPatch, "/pickup/enquiries/1/assign", `{"assignedTo":"Ravi"}`, http.StatusOK},
		{http.MethodPatch, "/pickup/enquiries/1/collect", `{"notes":"two pairs"}`, http.StatusOK},
		{http.MethodPost, "/billing/enquiries/1/generate", `{}`, http.StatusConflict},
		{http.MethodPatch, "/pickup/enquiries/1/receive", "", http.StatusOK},
		{http.MethodPatch, "/pickup/enquiries/1/receive", "", http.StatusConflict},
		{http.MethodPatch, "/services/enquiries/1/items", `{"serviceType":"sole","status":"broken"}`, http.StatusBadRequest},
		{http.MethodPatch, "/services/enquiries/1/items", `{"serviceType":"sole","status":"in-progress","cost":"400"}`, http.StatusOK},
		{http.MethodPatch, "/services/enquiries/1/complete", "", http.StatusOK},
		{http.MethodPost, "/billing/enquiries/1/payment", `{"amount":"100"}`, http.StatusConflict},
		{http.MethodPost, "/billing/enquiries/1/generate", `{"taxRate":"120"}`, http.StatusBadRequest},
		{http.MethodPost, "/billing/enquiries/1/generate", `{"discount":"0","taxRate":"10"}`, http.StatusOK},
		{http.MethodPost, "/billing/enquiries/1/payment", `{"amount":"0"}`, http.StatusBadRequest},
		{http.MethodPost, "/billing/enquiries/1/payment", `{"amount":"440","paymentMethod":"upi"}`, http.StatusOK},
		{http.MethodPatch, "/delivery/enquiries/1/schedule", `{"method":"drone"}`, http.StatusBadRequest},
		{http.MethodPatch, "/delivery/enquiries/1/deliver", `{"signature":"A"}`, http.StatusConflict},
	}
	for i, s := range steps {
		w := do(mux, s.method, s.path, s.body)
		if w.Code != s.status {
			t.Fatalf("step %d %s %s: status = %d, want %d, body %s", i, s.method, s.path, w.Code, s.status, w.Body)
		}
	}

	if _, err := workflow.NewService(repos.Enquiries, logger).Advance(ctx, e.ID); err != nil {
		t.Fatal(err)
	}
	for _, path := range []string{"/delivery/enquiries/1/schedule", "/delivery/enquiries/1/dispatch"} {
		body := ""
		if path == "/delivery/enquiries/1/schedule" {
			body = `{"method":"home-delivery"}`
		}
		if w := do(mux, http.MethodPatch, path, body); w.Code != http.StatusOK {
			t.Fatalf("%s: %d %s", path, w.Code, w.Body)
		}
	}
	w := do(mux, http.MethodPatch, "/delivery/enquiries/1/deliver", `{"signature":"A"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("deliver: %d %s", w.Code, w.Body)
	}
	got := enquiryFrom(t, w.Body.Bytes())
	if got.CurrentStage != models.StageCompleted {
		t.Errorf("stage = %s", got.CurrentStage)
	}
	b := got.Billing()
	if b == nil || !b.Total.Equal(decimal.NewFromInt(440)) || b.PaymentStatus != models.PaymentPaid {
		t.Errorf("bill = %+v", b)
	}
	if got.PickupDetails.AssignedTo != "Ravi" || got.DeliveryDetails.Signature != "A" {
		t.Errorf("records lost along the way: %+v %+v", got.PickupDetails, got.DeliveryDetails)
	}
}

func TestStageHandler_ListAndMissing(t *testing.T) {
	repos, logger, _ := setup(t)
	mux := stageMux(repos, logger)
	ctx := context.Background()
	_, _ = repos.Enquiries.Create(ctx, models.Enquiry{CustomerName: "A", CurrentStage: models.StagePickup})
	_, _ = repos.Enquiries.Create(ctx, models.Enquiry{CustomerName: "B"})

	var items []models.Enquiry
	_ = json.Unmarshal(decode(t, do(mux, http.MethodGet, "/pickup/enquiries", "")).Data, &items)
	if len(items) != 1 || items[0].CustomerName != "A" {
		t.Errorf("pickup list = %+v", items)
	}
	for _, path := range []string{"/pickup/enquiries/9/receive", "/pickup/enquiries/9/collect", "/delivery/enquiries/9/dispatch"} {
		if w := do(mux, http.MethodPatch, path, ""); w.Code != http.StatusNotFound {
			t.Errorf("%s: status = %d, want 404", path, w.Code)
		}
	}
}
