package handlers

import (
	"net/http"
	"time"

	"github.com/diewo77/cobbler-crm/httpx"
	"github.com/diewo77/cobbler-crm/internal/models"
	"github.com/diewo77/cobbler-crm/internal/repository"
	"github.com/diewo77/cobbler-crm/internal/services"
	"github.com/diewo77/cobbler-crm/internal/workflow"
	"github.com/diewo77/cobbler-crm/validation"
	"github.com/sirupsen/logrus"
)

// StageHandler serves the per-stage lists and actions under /pickup,
// /services, /billing and /delivery.
type StageHandler struct {
	repo    *repository.EnquiryRepository
	wf      *workflow.Service
	billing *services.BillingService
	log     *logrus.Logger
}

func NewStageHandler(repo *repository.EnquiryRepository, wf *workflow.Service, billing *services.BillingService, log *logrus.Logger) *StageHandler {
	return &StageHandler{repo: repo, wf: wf, billing: billing, log: log}
}

// List returns a handler listing the enquiries at stage.
func (h *StageHandler) List(stage models.Stage) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		items, err := h.wf.GetByStage(r.Context(), stage)
		if err != nil {
			writeError(w, h.log, "StageHandler.List", err)
			return
		}
		httpx.OK(w, http.StatusOK, items)
	}
}

// action decodes req (when non-nil), runs fn and writes the enquiry.
func action[Req any](h *StageHandler, name string, check func(*Req, validation.Violations), fn func(r *http.Request, id int, req *Req) (*models.Enquiry, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := pathID(r)
		if !ok {
			notFound(w)
			return
		}
		var req Req
		if r.ContentLength != 0 && !decodeJSON(w, r, &req) {
			return
		}
		if check != nil {
			v := make(validation.Violations)
			check(&req, v)
			if !v.Empty() {
				invalid(w, v)
				return
			}
		}
		e, err := fn(r, id, &req)
		respond(w, h.log, name, e, err)
	}
}

type empty struct{}

func (h *StageHandler) SchedulePickup() http.HandlerFunc {
	return action(h, "StageHandler.SchedulePickup",
		func(req *models.SchedulePickupRequest, v validation.Violations) {
			if req.ScheduledAt.IsZero() {
				v["scheduledAt"] = "required"
			}
			validation.MaxLen("notes", req.Notes, 1000, v)
		},
		func(r *http.Request, id int, req *models.SchedulePickupRequest) (*models.Enquiry, error) {
			return h.repo.SchedulePickup(r.Context(), id, req.ScheduledAt, req.Notes)
		})
}

func (h *StageHandler) AssignPickup() http.HandlerFunc {
	return action(h, "StageHandler.AssignPickup",
		func(req *models.AssignRequest, v validation.Violations) {
			validation.Required("assignedTo", req.AssignedTo, v)
		},
		func(r *http.Request, id int, req *models.AssignRequest) (*models.Enquiry, error) {
			return h.repo.AssignPickup(r.Context(), id, req.AssignedTo)
		})
}

func (h *StageHandler) Collect() http.HandlerFunc {
	return action(h, "StageHandler.Collect", nil,
		func(r *http.Request, id int, req *models.CollectRequest) (*models.Enquiry, error) {
			return h.repo.MarkCollected(r.Context(), id, req.Photo, req.Notes)
		})
}

func (h *StageHandler) Receive() http.HandlerFunc {
	return action(h, "StageHandler.Receive", nil,
		func(r *http.Request, id int, _ *empty) (*models.Enquiry, error) {
			return h.wf.Receive(r.Context(), id)
		})
}

func (h *StageHandler) UpdateServiceItem() http.HandlerFunc {
	allowed := []string{string(models.ServicePending), string(models.ServiceInProgress), string(models.ServiceDone)}
	return action(h, "StageHandler.UpdateServiceItem",
		func(req *models.ServiceItemRequest, v validation.Violations) {
			validation.Required("serviceType", req.ServiceType, v)
			validation.OneOf("status", string(req.Status), allowed, v)
			if req.Cost != nil {
				validation.NonNegative("cost", *req.Cost, v)
			}
		},
		func(r *http.Request, id int, req *models.ServiceItemRequest) (*models.Enquiry, error) {
			return h.repo.UpdateServiceItem(r.Context(), id, repository.ServiceItemUpdate{
				ServiceType: req.ServiceType,
				Status:      req.Status,
				BeforePhoto: req.BeforePhoto,
				AfterPhoto:  req.AfterPhoto,
				Cost:        req.Cost,
			})
		})
}

func (h *StageHandler) CompleteService() http.HandlerFunc {
	return action(h, "StageHandler.CompleteService", nil,
		func(r *http.Request, id int, _ *empty) (*models.Enquiry, error) {
			return h.wf.CompleteService(r.Context(), id)
		})
}

// GenerateBill only works on enquiries at the billing stage.
func (h *StageHandler) GenerateBill() http.HandlerFunc {
	return action(h, "StageHandler.GenerateBill",
		func(req *models.BillRequest, v validation.Violations) {
			validation.NonNegative("discount", req.Discount, v)
			if req.TaxRate != nil {
				validation.RangeFloat("taxRate", req.TaxRate.InexactFloat64(), 0, 100, v)
			}
		},
		func(r *http.Request, id int, req *models.BillRequest) (*models.Enquiry, error) {
			return h.billing.Generate(r.Context(), id, services.BillInput{
				Discount:      req.Discount,
				TaxRate:       req.TaxRate,
				PaymentMethod: req.PaymentMethod,
			})
		})
}

func (h *StageHandler) RecordPayment() http.HandlerFunc {
	return action(h, "StageHandler.RecordPayment",
		func(req *models.PaymentRequest, v validation.Violations) {
			validation.PositiveFloat("amount", req.Amount.InexactFloat64(), v)
		},
		func(r *http.Request, id int, req *models.PaymentRequest) (*models.Enquiry, error) {
			return h.repo.RecordPayment(r.Context(), id, req.Amount, req.PaymentMethod)
		})
}

func (h *StageHandler) ScheduleDelivery() http.HandlerFunc {
	return action(h, "StageHandler.ScheduleDelivery",
		func(req *models.ScheduleDeliveryRequest, v validation.Violations) {
			if !req.Method.Valid() {
				v["method"] = "invalid_choice"
			}
		},
		func(r *http.Request, id int, req *models.ScheduleDeliveryRequest) (*models.Enquiry, error) {
			var at time.Time
			if req.ScheduledAt != nil {
				at = *req.ScheduledAt
			}
			return h.repo.ScheduleDelivery(r.Context(), id, req.Method, at)
		})
}

func (h *StageHandler) Dispatch() http.HandlerFunc {
	return action(h, "StageHandler.Dispatch", nil,
		func(r *http.Request, id int, _ *empty) (*models.Enquiry, error) {
			return h.repo.MarkOutForDelivery(r.Context(), id)
		})
}

func (h *StageHandler) Deliver() http.HandlerFunc {
	return action(h, "StageHandler.Deliver", nil,
		func(r *http.Request, id int, req *models.DeliverRequest) (*models.Enquiry, error) {
			return h.wf.Deliver(r.Context(), id, req.Photo, req.Signature, req.Notes)
		})
}
