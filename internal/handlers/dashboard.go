package handlers

import (
	"net/http"

	"github.com/diewo77/cobbler-crm/httpx"
	"github.com/diewo77/cobbler-crm/internal/models"
	"github.com/diewo77/cobbler-crm/internal/services"
	"github.com/sirupsen/logrus"
)

type DashboardHandler struct {
	svc *services.DashboardService
	log *logrus.Logger
}

func NewDashboardHandler(svc *services.DashboardService, log *logrus.Logger) *DashboardHandler {
	return &DashboardHandler{svc: svc, log: log}
}

// Stats: GET /dashboard/stats
func (h *DashboardHandler) Stats(w http.ResponseWriter, r *http.Request) {
	st, err := h.svc.Stats(r.Context())
	if err != nil {
		writeError(w, h.log, "DashboardHandler.Stats", err)
		return
	}
	httpx.OK(w, http.StatusOK, st)
}

// Search: GET /dashboard/search?q=&stage=
func (h *DashboardHandler) Search(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	var stage models.Stage
	if raw := q.Get("stage"); raw != "" {
		s, err := models.ParseStage(raw)
		if err != nil {
			httpx.Fail(w, http.StatusBadRequest, "unknown_stage", err.Error(), nil)
			return
		}
		stage = s
	}
	items, err := h.svc.Search(r.Context(), q.Get("q"), stage)
	if err != nil {
		writeError(w, h.log, "DashboardHandler.Search", err)
		return
	}
	httpx.OK(w, http.StatusOK, items)
}

// Export: GET /dashboard/export, the XLSX of whatever the dashboard sees.
func (h *DashboardHandler) Export(w http.ResponseWriter, r *http.Request) {
	items, err := h.svc.Enquiries(r.Context())
	if err != nil {
		writeError(w, h.log, "DashboardHandler.Export", err)
		return
	}
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", `attachment; filename="enquiries.xlsx"`)
	if err := services.ExportEnquiries(w, items); err != nil {
		h.log.WithFields(logrus.Fields{"module": "handlers", "funcName": "DashboardHandler.Export"}).WithError(err).Error("export failed")
	}
}
