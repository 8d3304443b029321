package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"testing"

	"github.com/diewo77/cobbler-crm/internal/models"
	"github.com/diewo77/cobbler-crm/internal/services"
)

type failingSource struct{}

func (failingSource) ListEnquiries(context.Context) ([]models.Enquiry, error) {
	return nil, errors.New("upstream unreachable")
}

func TestDashboardHandler(t *testing.T) {
	repos, logger, _ := setup(t)
	ctx := context.Background()
	_, _ = repos.Enquiries.Create(ctx, models.Enquiry{CustomerName: "Meena", ProductType: "handbag"})
	_, _ = repos.Enquiries.Create(ctx, models.Enquiry{CustomerName: "Arjun", CurrentStage: models.StagePickup})

	src := services.LocalSource{Repos: repos}
	h := NewDashboardHandler(services.NewDashboardService(src, src, src), logger)
	mux := http.NewServeMux()
	mux.HandleFunc("GET /dashboard/stats", h.Stats)
	mux.HandleFunc("GET /dashboard/search", h.Search)
	mux.HandleFunc("GET /dashboard/export", h.Export)

	var st services.Stats
	_ = json.Unmarshal(decode(t, do(mux, http.MethodGet, "/dashboard/stats", "")).Data, &st)
	if st.TotalEnquiries != 2 || st.ByStage[models.StagePickup] != 1 || st.PendingPickups != 1 {
		t.Errorf("stats = %+v", st)
	}

	var found []models.Enquiry
	_ = json.Unmarshal(decode(t, do(mux, http.MethodGet, "/dashboard/search?q=bag", "")).Data, &found)
	if len(found) != 1 || found[0].CustomerName != "Meena" {
		t.Errorf("search = %+v", found)
	}
	if w := do(mux, http.MethodGet, "/dashboard/search?stage=lost", ""); w.Code != http.StatusBadRequest {
		t.Errorf("bad stage: %d", w.Code)
	}

	w := do(mux, http.MethodGet, "/dashboard/export", "")
	if w.Code != http.StatusOK || w.Body.Len() == 0 {
		t.Errorf("export: %d, %d bytes", w.Code, w.Body.Len())
	}
	if ct := w.Header().Get("Content-Type"); ct != "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet" {
		t.Errorf("content type = %q", ct)
	}
}

func TestDashboardHandler_SourceError(t *testing.T) {
	_, logger, hook := setup(t)
	h := NewDashboardHandler(services.NewDashboardService(failingSource{}, nil, nil), logger)
	mux := http.NewServeMux()
	mux.HandleFunc("GET /dashboard/stats", h.Stats)

	if w := do(mux, http.MethodGet, "/dashboard/stats", ""); w.Code != http.StatusInternalServerError {
		t.Errorf("status = %d", w.Code)
	}
	if hook.LastEntry() == nil {
		t.Error("expected the failure to be logged")
	}
}
