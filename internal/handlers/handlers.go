// Package handlers exposes the local store over JSON HTTP using the same
// paths and envelope as the remote API.
package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/diewo77/cobbler-crm/httpx"
	"github.com/diewo77/cobbler-crm/internal/config"
	"github.com/diewo77/cobbler-crm/internal/images"
	"github.com/diewo77/cobbler-crm/internal/repository"
	"github.com/diewo77/cobbler-crm/internal/store"
	"github.com/diewo77/cobbler-crm/internal/workflow"
	"github.com/diewo77/cobbler-crm/validation"
	"github.com/sirupsen/logrus"
)

// maxBody bounds request bodies; photos arrive as data URLs.
const maxBody = 16 << 20

func pathID(r *http.Request) (int, bool) {
	id, err := strconv.Atoi(r.PathValue("id"))
	return id, err == nil && id > 0
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBody)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_json", nil)
		return false
	}
	return true
}

func invalid(w http.ResponseWriter, v validation.Violations) {
	httpx.JSONError(w, http.StatusBadRequest, "validation_failed", v)
}

func notFound(w http.ResponseWriter) {
	httpx.JSONError(w, http.StatusNotFound, "not_found", nil)
}

// writeError maps domain errors onto status codes. Anything unexpected is
// logged and reported as a 500.
func writeError(w http.ResponseWriter, log *logrus.Logger, funcName string, err error) {
	switch {
	case errors.Is(err, workflow.ErrIllegalTransition):
		httpx.Fail(w, http.StatusConflict, "invalid_transition", err.Error(), nil)
	case errors.Is(err, workflow.ErrUnknownStage):
		httpx.Fail(w, http.StatusBadRequest, "unknown_stage", err.Error(), nil)
	case errors.Is(err, repository.ErrNoBill):
		httpx.Fail(w, http.StatusConflict, "no_bill", err.Error(), nil)
	case errors.Is(err, repository.ErrInsufficientStock):
		httpx.Fail(w, http.StatusConflict, "insufficient_stock", err.Error(), nil)
	case errors.Is(err, repository.ErrBadPatch):
		httpx.Fail(w, http.StatusBadRequest, "invalid_json", err.Error(), nil)
	case errors.Is(err, repository.ErrInvalidPayment),
		errors.Is(err, repository.ErrUnknownService),
		errors.Is(err, repository.ErrInvalidDelivery),
		errors.Is(err, images.ErrInvalidImage):
		httpx.Fail(w, http.StatusBadRequest, "validation_failed", err.Error(), nil)
	case errors.Is(err, store.ErrQuotaExceeded):
		config.LogError(log, "handlers", funcName, "store full", nil, err)
		httpx.Fail(w, http.StatusInternalServerError, "storage_full", "local storage is full", nil)
	default:
		config.LogError(log, "handlers", funcName, "request failed", nil, err)
		httpx.JSONError(w, http.StatusInternalServerError, "internal_error", nil)
	}
}

// respond writes v, or 404 when v is nil.
func respond[T any](w http.ResponseWriter, log *logrus.Logger, funcName string, v *T, err error) {
	if err != nil {
		writeError(w, log, funcName, err)
		return
	}
	if v == nil {
		notFound(w)
		return
	}
	httpx.OK(w, http.StatusOK, v)
}

func queryInt(r *http.Request, key string, def int) int {
	if n, err := strconv.Atoi(r.URL.Query().Get(key)); err == nil && n > 0 {
		return n
	}
	return def
}

// paginate slices one page out of items. page starts at 1.
func paginate[T any](items []T, page, limit int) ([]T, *httpx.Pagination) {
	p := httpx.NewPagination(len(items), page, limit)
	start := (page - 1) * limit
	if start > len(items) {
		start = len(items)
	}
	end := start + limit
	if end > len(items) {
		end = len(items)
	}
	return items[start:end], p
}
