package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/diewo77/cobbler-crm/internal/models"
	"github.com/diewo77/cobbler-crm/internal/repository"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

func catalogMux(repos *repository.Repositories, logger *logrus.Logger) *http.ServeMux {
	mux := http.NewServeMux()
	ih := NewInventoryHandler(repos.Inventory, logger)
	mux.HandleFunc("GET /inventory", ih.List)
	mux.HandleFunc("POST /inventory", ih.Create)
	mux.HandleFunc("GET /inventory/{id}", ih.Get)
	mux.HandleFunc("PUT /inventory/{id}", ih.Update)
	mux.HandleFunc("DELETE /inventory/{id}", ih.Delete)
	mux.HandleFunc("POST /inventory/{id}/adjust", ih.Adjust)
	xh := NewExpenseHandler(repos.Expenses, logger)
	mux.HandleFunc("GET /expenses", xh.List)
	mux.HandleFunc("POST /expenses", xh.Create)
	sh := NewStaffHandler(repos.Staff, "IN", logger)
	mux.HandleFunc("GET /staff", sh.List)
	mux.HandleFunc("POST /staff", sh.Create)
	mux.HandleFunc("PUT /staff/{id}", sh.Update)
	bh := NewBusinessHandler(repos.Business, "IN", logger)
	mux.HandleFunc("GET /business", bh.Get)
	mux.HandleFunc("PUT /business", bh.Save)
	return mux
}

func TestInventoryHandler(t *testing.T) {
	repos, logger, _ := setup(t)
	mux := catalogMux(repos, logger)

	if w := do(mux, http.MethodPost, "/inventory", `{"name":"","quantity":-1}`); w.Code != http.StatusBadRequest {
		t.Fatalf("invalid create: %d", w.Code)
	}
	if w := do(mux, http.MethodPost, "/inventory", `{"name":"Glue","quantity":5,"reorderLevel":2,"unitPrice":"80"}`); w.Code != http.StatusCreated {
		t.Fatalf("create: %d %s", w.Code, w.Body)
	}
	_ = do(mux, http.MethodPost, "/inventory", `{"name":"Laces","quantity":1,"reorderLevel":3}`)

	if w := do(mux, http.MethodPost, "/inventory/1/adjust", `{"delta":-4}`); w.Code != http.StatusOK {
		t.Fatalf("adjust: %d %s", w.Code, w.Body)
	}
	if w := do(mux, http.MethodPost, "/inventory/1/adjust", `{"delta":-4}`); w.Code != http.StatusConflict {
		t.Errorf("overdraw: %d", w.Code)
	}
	if w := do(mux, http.MethodPost, "/inventory/1/adjust", `{}`); w.Code != http.StatusBadRequest {
		t.Errorf("zero delta: %d", w.Code)
	}
	if w := do(mux, http.MethodPost, "/inventory/8/adjust", `{"delta":1}`); w.Code != http.StatusNotFound {
		t.Errorf("missing item: %d", w.Code)
	}

	var low []models.InventoryItem
	_ = json.Unmarshal(decode(t, do(mux, http.MethodGet, "/inventory?lowStock=true", "")).Data, &low)
	if len(low) != 2 {
		t.Errorf("low stock = %+v", low)
	}

	if w := do(mux, http.MethodPut, "/inventory/2", `{"quantity":-3}`); w.Code != http.StatusBadRequest {
		t.Errorf("negative quantity update: %d", w.Code)
	}
	if w := do(mux, http.MethodPut, "/inventory/2", `{"quantity":"many"}`); w.Code != http.StatusBadRequest {
		t.Errorf("mistyped update: %d", w.Code)
	}
	w := do(mux, http.MethodPut, "/inventory/2", `{"quantity":10}`)
	var it models.InventoryItem
	_ = json.Unmarshal(decode(t, w).Data, &it)
	if w.Code != http.StatusOK || it.Quantity != 10 || it.Name != "Laces" || it.UpdatedAt.IsZero() {
		t.Errorf("update: %d %+v", w.Code, it)
	}
	if w := do(mux, http.MethodDelete, "/inventory/2", ""); w.Code != http.StatusOK || decode(t, w).Message != "inventory deleted" {
		t.Errorf("delete: %d %s", w.Code, w.Body)
	}
}

func TestExpenseHandler_RangeAndSum(t *testing.T) {
	repos, logger, _ := setup(t)
	mux := catalogMux(repos, logger)
	ctx := context.Background()
	day := func(d int) time.Time { return time.Date(2024, 3, d, 9, 0, 0, 0, time.UTC) }
	_, _ = repos.Expenses.Add(ctx, models.Expense{Title: "Rent", Amount: decimal.NewFromInt(5000), Date: day(1)})
	_, _ = repos.Expenses.Add(ctx, models.Expense{Title: "Thread", Amount: decimal.RequireFromString("120.50"), Date: day(12)})

	w := do(mux, http.MethodGet, "/expenses?from=2024-03-02&to=2024-04-01", "")
	var body struct {
		Data []models.Expense `json:"data"`
		Sum  string           `json:"sum"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatal(err)
	}
	if len(body.Data) != 1 || body.Sum != "120.50" {
		t.Errorf("range = %+v", body)
	}
	if w := do(mux, http.MethodGet, "/expenses?from=March", ""); w.Code != http.StatusBadRequest {
		t.Errorf("bad date: %d", w.Code)
	}
	if w := do(mux, http.MethodPost, "/expenses", `{"title":"Tea","amount":"0"}`); w.Code != http.StatusBadRequest {
		t.Errorf("zero amount: %d", w.Code)
	}
	w = do(mux, http.MethodPost, "/expenses", `{"title":"Tea","amount":"40"}`)
	var e models.Expense
	_ = json.Unmarshal(decode(t, w).Data, &e)
	if w.Code != http.StatusCreated || e.ID != 3 || e.Date.IsZero() {
		t.Errorf("create: %d %+v", w.Code, e)
	}
}

func TestStaffHandler_ActiveAndPhone(t *testing.T) {
	repos, logger, _ := setup(t)
	mux := catalogMux(repos, logger)

	if w := do(mux, http.MethodPost, "/staff", `{"name":"Ravi","phone":"123"}`); w.Code != http.StatusBadRequest {
		t.Errorf("bad phone: %d", w.Code)
	}
	_ = do(mux, http.MethodPost, "/staff", `{"name":"Ravi","phone":"9876543210","active":true}`)
	_ = do(mux, http.MethodPost, "/staff", `{"name":"Sunil","active":true}`)
	if w := do(mux, http.MethodPut, "/staff/2", `{"active":false}`); w.Code != http.StatusOK {
		t.Fatalf("deactivate: %d %s", w.Code, w.Body)
	}
	var active []models.StaffMember
	_ = json.Unmarshal(decode(t, do(mux, http.MethodGet, "/staff?active=true", "")).Data, &active)
	if len(active) != 1 || active[0].Name != "Ravi" || active[0].JoinedAt.IsZero() {
		t.Errorf("active = %+v", active)
	}
}

func TestBusinessHandler(t *testing.T) {
	repos, logger, _ := setup(t)
	mux := catalogMux(repos, logger)

	if w := do(mux, http.MethodPut, "/business", `{"name":"Shop","taxRate":"150"}`); w.Code != http.StatusBadRequest {
		t.Errorf("tax out of range: %d", w.Code)
	}
	w := do(mux, http.MethodPut, "/business", `{"name":"Shop","taxRate":"-1"}`)
	if env := decode(t, w); w.Code != http.StatusBadRequest || env.Details["taxRate"] != "out_of_range" {
		t.Errorf("negative tax: %d %+v", w.Code, env.Details)
	}
	if w := do(mux, http.MethodPut, "/business", `{"name":"Sole Saver","currency":"INR","taxRate":"18"}`); w.Code != http.StatusOK {
		t.Fatalf("save: %d %s", w.Code, w.Body)
	}
	var info models.BusinessInfo
	_ = json.Unmarshal(decode(t, do(mux, http.MethodGet, "/business", "")).Data, &info)
	if info.Name != "Sole Saver" || !info.TaxRate.Equal(decimal.NewFromInt(18)) {
		t.Errorf("business = %+v", info)
	}
}
