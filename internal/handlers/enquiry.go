package handlers

import (
	"net/http"
	"strings"
	"time"

	"github.com/diewo77/cobbler-crm/httpx"
	"github.com/diewo77/cobbler-crm/internal/models"
	"github.com/diewo77/cobbler-crm/internal/repository"
	"github.com/diewo77/cobbler-crm/internal/services"
	"github.com/diewo77/cobbler-crm/internal/workflow"
	"github.com/diewo77/cobbler-crm/validation"
	"github.com/sirupsen/logrus"
)

const (
	defaultLimit = 20
	maxLimit     = 100
)

type EnquiryHandler struct {
	repo   *repository.EnquiryRepository
	wf     *workflow.Service
	region string
	log    *logrus.Logger
}

func NewEnquiryHandler(repo *repository.EnquiryRepository, wf *workflow.Service, region string, log *logrus.Logger) *EnquiryHandler {
	return &EnquiryHandler{repo: repo, wf: wf, region: region, log: log}
}

func stageStrings() []string {
	out := make([]string, len(models.Stages))
	for i, s := range models.Stages {
		out[i] = string(s)
	}
	return out
}

func statusStrings() []string {
	out := make([]string, len(models.EnquiryStatuses))
	for i, s := range models.EnquiryStatuses {
		out[i] = string(s)
	}
	return out
}

// filtered applies the stage, status and q query filters.
func (h *EnquiryHandler) filtered(r *http.Request) ([]models.Enquiry, validation.Violations, error) {
	q := r.URL.Query()
	stage, status := q.Get("stage"), q.Get("status")
	v := make(validation.Violations)
	validation.OneOf("stage", stage, stageStrings(), v)
	validation.OneOf("status", status, statusStrings(), v)
	if !v.Empty() {
		return nil, v, nil
	}
	search := q.Get("q")
	items, err := h.repo.Filter(r.Context(), func(e *models.Enquiry) bool {
		if stage != "" && string(e.CurrentStage) != stage {
			return false
		}
		if status != "" && string(e.Status) != status {
			return false
		}
		return e.Matches(search)
	})
	return items, nil, err
}

// List: GET /enquiries?stage=&status=&q=&page=&limit=
func (h *EnquiryHandler) List(w http.ResponseWriter, r *http.Request) {
	items, v, err := h.filtered(r)
	if v != nil {
		invalid(w, v)
		return
	}
	if err != nil {
		writeError(w, h.log, "EnquiryHandler.List", err)
		return
	}
	limit := queryInt(r, "limit", defaultLimit)
	if limit > maxLimit {
		limit = maxLimit
	}
	page, p := paginate(items, queryInt(r, "page", 1), limit)
	httpx.Paged(w, page, p)
}

func (h *EnquiryHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		notFound(w)
		return
	}
	e, err := h.repo.Get(r.Context(), id)
	respond(w, h.log, "EnquiryHandler.Get", e, err)
}

func (h *EnquiryHandler) validate(e *models.Enquiry, v validation.Violations) {
	validation.Required("customerName", e.CustomerName, v)
	validation.MaxLen("customerName", e.CustomerName, 120, v)
	validation.Phone("phone", e.Phone, h.region, v)
	validation.OneOf("status", string(e.Status), statusStrings(), v)
	validation.MaxLen("message", e.Message, 2000, v)
	validation.NonNegative("quotedAmount", e.QuotedAmount, v)
	if e.Quantity < 0 {
		v["quantity"] = "must_not_be_negative"
	}
}

// Create: POST /enquiries. New enquiries always start at the enquiry stage.
func (h *EnquiryHandler) Create(w http.ResponseWriter, r *http.Request) {
	var e models.Enquiry
	if !decodeJSON(w, r, &e) {
		return
	}
	v := make(validation.Violations)
	h.validate(&e, v)
	if e.CurrentStage != "" && e.CurrentStage != models.StageEnquiry {
		v["currentStage"] = "must_start_at_enquiry"
	}
	if !v.Empty() {
		invalid(w, v)
		return
	}
	e.PickupDetails, e.ServiceDetails, e.DeliveryDetails, e.StageHistory = nil, nil, nil, nil
	created, err := h.repo.Create(r.Context(), e)
	if err != nil {
		writeError(w, h.log, "EnquiryHandler.Create", err)
		return
	}
	httpx.OK(w, http.StatusCreated, created)
}

// readOnly fields change only through the stage endpoints.
var readOnly = []string{"currentStage", "stageHistory", "pickupDetails", "serviceDetails", "deliveryDetails", "createdAt"}

// Update: PUT /enquiries/{id} with a partial JSON object.
func (h *EnquiryHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		notFound(w)
		return
	}
	var patch map[string]any
	if !decodeJSON(w, r, &patch) {
		return
	}
	v := make(validation.Violations)
	for _, k := range readOnly {
		if _, set := patch[k]; set {
			v[k] = "read_only"
		}
	}
	if !v.Empty() {
		invalid(w, v)
		return
	}
	updated, err := h.repo.Mutate(r.Context(), id, func(e *models.Enquiry) error {
		if err := repository.MergePatch(e, patch); err != nil {
			return err
		}
		h.validate(e, v)
		if !v.Empty() {
			return errRejected
		}
		e.UpdatedAt = time.Now()
		return nil
	})
	if !v.Empty() {
		invalid(w, v)
		return
	}
	respond(w, h.log, "EnquiryHandler.Update", updated, err)
}

func (h *EnquiryHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		notFound(w)
		return
	}
	found, err := h.repo.Delete(r.Context(), id)
	if err != nil {
		writeError(w, h.log, "EnquiryHandler.Delete", err)
		return
	}
	if !found {
		notFound(w)
		return
	}
	httpx.Message(w, http.StatusOK, "enquiry deleted", nil)
}

// UpdateStatus: PATCH /enquiries/{id}/status
func (h *EnquiryHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		notFound(w)
		return
	}
	var req models.StatusRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if !req.Status.Valid() {
		invalid(w, validation.Violations{"status": "invalid_choice"})
		return
	}
	e, err := h.repo.SetStatus(r.Context(), id, req.Status)
	respond(w, h.log, "EnquiryHandler.UpdateStatus", e, err)
}

// Transition: PATCH /enquiries/{id}/stage
func (h *EnquiryHandler) Transition(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		notFound(w)
		return
	}
	var req models.StageRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	moved, err := h.wf.TransitionToStage(r.Context(), id, models.Stage(strings.TrimSpace(string(req.Stage))))
	if err != nil {
		writeError(w, h.log, "EnquiryHandler.Transition", err)
		return
	}
	if !moved {
		notFound(w)
		return
	}
	e, err := h.repo.Get(r.Context(), id)
	respond(w, h.log, "EnquiryHandler.Transition", e, err)
}

// Export: GET /enquiries/export?stage=&status=&q= as an XLSX download.
func (h *EnquiryHandler) Export(w http.ResponseWriter, r *http.Request) {
	items, v, err := h.filtered(r)
	if v != nil {
		invalid(w, v)
		return
	}
	if err != nil {
		writeError(w, h.log, "EnquiryHandler.Export", err)
		return
	}
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", `attachment; filename="enquiries.xlsx"`)
	if err := services.ExportEnquiries(w, items); err != nil {
		h.log.WithFields(logrus.Fields{"module": "handlers", "funcName": "EnquiryHandler.Export"}).WithError(err).Error("export failed")
	}
}
