package handlers

import (
	"net/http"
	"time"

	"github.com/diewo77/cobbler-crm/httpx"
	"github.com/diewo77/cobbler-crm/internal/models"
	"github.com/diewo77/cobbler-crm/internal/repository"
	"github.com/diewo77/cobbler-crm/validation"
	"github.com/sirupsen/logrus"
)

func NewInventoryHandler(repo *repository.InventoryRepository, log *logrus.Logger) *InventoryHandler {
	return &InventoryHandler{
		ResourceHandler: NewResourceHandler("inventory", repo.Collection,
			func(it *models.InventoryItem, v validation.Violations) {
				validation.Required("name", it.Name, v)
				validation.NonNegative("unitPrice", it.UnitPrice, v)
				if it.Quantity < 0 {
					v["quantity"] = "must_not_be_negative"
				}
				if it.ReorderLevel < 0 {
					v["reorderLevel"] = "must_not_be_negative"
				}
			},
			func(it *models.InventoryItem) { it.UpdatedAt = time.Now() },
			log),
		repo: repo,
	}
}

type InventoryHandler struct {
	*ResourceHandler[models.InventoryItem, *models.InventoryItem]
	repo *repository.InventoryRepository
}

// List: GET /inventory, or only the items to reorder with ?lowStock=true.
func (h *InventoryHandler) List(w http.ResponseWriter, r *http.Request) {
	if r.URL.Query().Get("lowStock") != "true" {
		h.ResourceHandler.List(w, r)
		return
	}
	items, err := h.repo.LowStock(r.Context())
	if err != nil {
		writeError(w, h.log, "InventoryHandler.List", err)
		return
	}
	httpx.OK(w, http.StatusOK, items)
}

// Adjust: POST /inventory/{id}/adjust {"delta": -2}
func (h *InventoryHandler) Adjust(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		notFound(w)
		return
	}
	var req struct {
		Delta int `json:"delta"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.Delta == 0 {
		invalid(w, validation.Violations{"delta": "required"})
		return
	}
	it, err := h.repo.AdjustQuantity(r.Context(), id, req.Delta)
	respond(w, h.log, "InventoryHandler.Adjust", it, err)
}

type ExpenseHandler struct {
	*ResourceHandler[models.Expense, *models.Expense]
	repo *repository.ExpenseRepository
}

func NewExpenseHandler(repo *repository.ExpenseRepository, log *logrus.Logger) *ExpenseHandler {
	return &ExpenseHandler{
		ResourceHandler: NewResourceHandler("expense", repo.Collection,
			func(e *models.Expense, v validation.Violations) {
				validation.Required("title", e.Title, v)
				validation.PositiveFloat("amount", e.Amount.InexactFloat64(), v)
			},
			func(e *models.Expense) {
				if e.Date.IsZero() {
					e.Date = time.Now()
				}
			},
			log),
		repo: repo,
	}
}

// List: GET /expenses?from=2024-01-01&to=2024-02-01 (to is exclusive).
func (h *ExpenseHandler) List(w http.ResponseWriter, r *http.Request) {
	var from, to time.Time
	v := make(validation.Violations)
	for key, dst := range map[string]*time.Time{"from": &from, "to": &to} {
		raw := r.URL.Query().Get(key)
		if raw == "" {
			continue
		}
		t, err := time.Parse(time.DateOnly, raw)
		if err != nil {
			v[key] = "invalid_date"
			continue
		}
		*dst = t
	}
	if !v.Empty() {
		invalid(w, v)
		return
	}
	items, err := h.repo.Between(r.Context(), from, to)
	if err != nil {
		writeError(w, h.log, "ExpenseHandler.List", err)
		return
	}
	httpx.JSON(w, http.StatusOK, struct {
		httpx.Envelope
		Sum string `json:"sum"`
	}{httpx.Envelope{Success: true, Data: items}, repository.Total(items).StringFixed(2)})
}

type StaffHandler struct {
	*ResourceHandler[models.StaffMember, *models.StaffMember]
	repo *repository.StaffRepository
}

func NewStaffHandler(repo *repository.StaffRepository, region string, log *logrus.Logger) *StaffHandler {
	return &StaffHandler{
		ResourceHandler: NewResourceHandler("staff", repo.Collection,
			func(s *models.StaffMember, v validation.Violations) {
				validation.Required("name", s.Name, v)
				validation.Phone("phone", s.Phone, region, v)
			},
			func(s *models.StaffMember) {
				if s.JoinedAt.IsZero() {
					s.JoinedAt = time.Now()
				}
			},
			log),
		repo: repo,
	}
}

// List: GET /staff, or only assignable staff with ?active=true.
func (h *StaffHandler) List(w http.ResponseWriter, r *http.Request) {
	if r.URL.Query().Get("active") != "true" {
		h.ResourceHandler.List(w, r)
		return
	}
	items, err := h.repo.Active(r.Context())
	if err != nil {
		writeError(w, h.log, "StaffHandler.List", err)
		return
	}
	httpx.OK(w, http.StatusOK, items)
}

type BusinessHandler struct {
	repo   *repository.BusinessRepository
	region string
	log    *logrus.Logger
}

func NewBusinessHandler(repo *repository.BusinessRepository, region string, log *logrus.Logger) *BusinessHandler {
	return &BusinessHandler{repo: repo, region: region, log: log}
}

func (h *BusinessHandler) Get(w http.ResponseWriter, r *http.Request) {
	info, err := h.repo.Get(r.Context())
	if err != nil {
		writeError(w, h.log, "BusinessHandler.Get", err)
		return
	}
	httpx.OK(w, http.StatusOK, info)
}

// Save: PUT /business replaces the shop profile.
func (h *BusinessHandler) Save(w http.ResponseWriter, r *http.Request) {
	var info models.BusinessInfo
	if !decodeJSON(w, r, &info) {
		return
	}
	v := make(validation.Violations)
	validation.Required("name", info.Name, v)
	validation.Phone("phone", info.Phone, h.region, v)
	validation.RangeFloat("taxRate", info.TaxRate.InexactFloat64(), 0, 100, v)
	if !v.Empty() {
		invalid(w, v)
		return
	}
	if err := h.repo.Save(r.Context(), info); err != nil {
		writeError(w, h.log, "BusinessHandler.Save", err)
		return
	}
	httpx.OK(w, http.StatusOK, info)
}
