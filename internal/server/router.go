// Package server assembles the HTTP handler of the local backend and of
// the remote-mode dashboard.
package server

import (
	"net/http"
	"time"

	"github.com/diewo77/cobbler-crm/auth"
	"github.com/diewo77/cobbler-crm/httpx"
	"github.com/diewo77/cobbler-crm/internal/handlers"
	"github.com/diewo77/cobbler-crm/internal/images"
	"github.com/diewo77/cobbler-crm/internal/models"
	"github.com/diewo77/cobbler-crm/internal/repository"
	"github.com/diewo77/cobbler-crm/internal/services"
	"github.com/diewo77/cobbler-crm/internal/workflow"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// Deps is everything the local router serves from.
type Deps struct {
	Repos     *repository.Repositories
	Workflow  *workflow.Service
	Billing   *services.BillingService
	Dashboard *services.DashboardService
	// Images serves GET /images/{ref}; nil leaves the route out.
	Images *images.Store
	Secret string
	Region string
	Log    *logrus.Logger
}

// New constructs the root http.Handler with all routes and middlewares applied.
func New(d Deps) http.Handler {
	mux := http.NewServeMux()
	health(mux)

	eh := handlers.NewEnquiryHandler(d.Repos.Enquiries, d.Workflow, d.Region, d.Log)
	mux.HandleFunc("GET /enquiries", eh.List)
	mux.HandleFunc("POST /enquiries", eh.Create)
	mux.HandleFunc("GET /enquiries/export", eh.Export)
	mux.HandleFunc("GET /enquiries/{id}", eh.Get)
	mux.HandleFunc("PUT /enquiries/{id}", eh.Update)
	mux.HandleFunc("DELETE /enquiries/{id}", eh.Delete)
	mux.HandleFunc("PATCH /enquiries/{id}/status", eh.UpdateStatus)
	mux.HandleFunc("PATCH /enquiries/{id}/stage", eh.Transition)

	sh := handlers.NewStageHandler(d.Repos.Enquiries, d.Workflow, d.Billing, d.Log)
	mux.HandleFunc("GET /pickup/enquiries", sh.List(models.StagePickup))
	mux.HandleFunc("PATCH /pickup/enquiries/{id}/schedule", sh.SchedulePickup())
	mux.HandleFunc("PATCH /pickup/enquiries/{id}/assign", sh.AssignPickup())
	mux.HandleFunc("PATCH /pickup/enquiries/{id}/collect", sh.Collect())
	mux.HandleFunc("PATCH /pickup/enquiries/{id}/receive", sh.Receive())

	mux.HandleFunc("GET /services/enquiries", sh.List(models.StageService))
	mux.HandleFunc("PATCH /services/enquiries/{id}/items", sh.UpdateServiceItem())
	mux.HandleFunc("PATCH /services/enquiries/{id}/complete", sh.CompleteService())

	mux.HandleFunc("GET /billing/enquiries", sh.List(models.StageBilling))
	mux.HandleFunc("POST /billing/enquiries/{id}/generate", sh.GenerateBill())
	mux.HandleFunc("POST /billing/enquiries/{id}/payment", sh.RecordPayment())

	mux.HandleFunc("GET /delivery/enquiries", sh.List(models.StageDelivery))
	mux.HandleFunc("PATCH /delivery/enquiries/{id}/schedule", sh.ScheduleDelivery())
	mux.HandleFunc("PATCH /delivery/enquiries/{id}/dispatch", sh.Dispatch())
	mux.HandleFunc("PATCH /delivery/enquiries/{id}/deliver", sh.Deliver())

	ih := handlers.NewInventoryHandler(d.Repos.Inventory, d.Log)
	mux.HandleFunc("GET /inventory", ih.List)
	mux.HandleFunc("POST /inventory", ih.Create)
	mux.HandleFunc("GET /inventory/{id}", ih.Get)
	mux.HandleFunc("PUT /inventory/{id}", ih.Update)
	mux.HandleFunc("DELETE /inventory/{id}", ih.Delete)
	mux.HandleFunc("POST /inventory/{id}/adjust", ih.Adjust)

	xh := handlers.NewExpenseHandler(d.Repos.Expenses, d.Log)
	mux.HandleFunc("GET /expenses", xh.List)
	mux.HandleFunc("POST /expenses", xh.Create)
	mux.HandleFunc("GET /expenses/{id}", xh.Get)
	mux.HandleFunc("PUT /expenses/{id}", xh.Update)
	mux.HandleFunc("DELETE /expenses/{id}", xh.Delete)

	th := handlers.NewStaffHandler(d.Repos.Staff, d.Region, d.Log)
	mux.HandleFunc("GET /staff", th.List)
	mux.HandleFunc("POST /staff", th.Create)
	mux.HandleFunc("GET /staff/{id}", th.Get)
	mux.HandleFunc("PUT /staff/{id}", th.Update)
	mux.HandleFunc("DELETE /staff/{id}", th.Delete)

	bh := handlers.NewBusinessHandler(d.Repos.Business, d.Region, d.Log)
	mux.HandleFunc("GET /business", bh.Get)
	mux.HandleFunc("PUT /business", bh.Save)

	if d.Images != nil {
		mux.HandleFunc("GET /images/{ref}", handlers.NewImageHandler(d.Images, d.Log).Get)
	}

	dashboard(mux, d.Dashboard, d.Log)

	return wrap(mux, d.Secret, d.Log)
}

// NewRemote serves the dashboard alone, fed by a poller over the remote API.
func NewRemote(dash *services.DashboardService, secret string, log *logrus.Logger) http.Handler {
	mux := http.NewServeMux()
	health(mux)
	dashboard(mux, dash, log)
	return wrap(mux, secret, log)
}

func health(mux *http.ServeMux) {
	//revive:disable:unused-parameter
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		httpx.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	//revive:enable:unused-parameter
}

func dashboard(mux *http.ServeMux, svc *services.DashboardService, log *logrus.Logger) {
	dh := handlers.NewDashboardHandler(svc, log)
	mux.HandleFunc("GET /dashboard/stats", dh.Stats)
	mux.HandleFunc("GET /dashboard/search", dh.Search)
	mux.HandleFunc("GET /dashboard/export", dh.Export)
}

func wrap(mux http.Handler, secret string, log *logrus.Logger) http.Handler {
	return withRecover(withLogging(auth.RequireToken(secret, "/health")(mux), log), log)
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(code int) {
	s.status = code
	s.ResponseWriter.WriteHeader(code)
}

// RequestIDHeader carries the per-request id; one is generated when the
// caller sends none.
const RequestIDHeader = "X-Request-ID"

func withLogging(next http.Handler, log *logrus.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		id := r.Header.Get(RequestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set(RequestIDHeader, id)
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		log.WithFields(logrus.Fields{
			"module":     "server",
			"method":     r.Method,
			"path":       r.URL.Path,
			"status":     rec.status,
			"duration":   time.Since(start).String(),
			"request_id": id,
		}).Info("request")
	})
}

func withRecover(next http.Handler, log *logrus.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				log.WithFields(logrus.Fields{"module": "server", "path": r.URL.Path, "panic": rec}).Error("handler panicked")
				httpx.JSONError(w, http.StatusInternalServerError, "internal_error", nil)
			}
		}()
		next.ServeHTTP(w, r)
	})
}
