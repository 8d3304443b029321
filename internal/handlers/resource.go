package handlers

import (
	"errors"
	"net/http"

	"github.com/diewo77/cobbler-crm/httpx"
	"github.com/diewo77/cobbler-crm/internal/repository"
	"github.com/diewo77/cobbler-crm/validation"
	"github.com/sirupsen/logrus"
)

// errRejected aborts a mutation whose result failed validation.
var errRejected = errors.New("rejected")

// ResourceHandler serves plain CRUD over one collection.
type ResourceHandler[T any, P interface {
	*T
	repository.Record
}] struct {
	name     string
	c        *repository.Collection[T, P]
	validate func(v *T, errs validation.Violations)
	prepare  func(v *T)
	log      *logrus.Logger
}

// NewResourceHandler builds the handler. validate checks a full record on
// create and the merged record on update; prepare stamps server-side
// fields before a write. Both may be nil.
func NewResourceHandler[T any, P interface {
	*T
	repository.Record
}](name string, c *repository.Collection[T, P], validate func(*T, validation.Violations), prepare func(*T), log *logrus.Logger) *ResourceHandler[T, P] {
	return &ResourceHandler[T, P]{name: name, c: c, validate: validate, prepare: prepare, log: log}
}

func (h *ResourceHandler[T, P]) List(w http.ResponseWriter, r *http.Request) {
	items, err := h.c.GetAll(r.Context())
	if err != nil {
		writeError(w, h.log, h.name+".List", err)
		return
	}
	httpx.OK(w, http.StatusOK, items)
}

func (h *ResourceHandler[T, P]) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		notFound(w)
		return
	}
	v, err := h.c.Get(r.Context(), id)
	respond(w, h.log, h.name+".Get", v, err)
}

func (h *ResourceHandler[T, P]) Create(w http.ResponseWriter, r *http.Request) {
	var v T
	if !decodeJSON(w, r, &v) {
		return
	}
	if h.validate != nil {
		errs := make(validation.Violations)
		h.validate(&v, errs)
		if !errs.Empty() {
			invalid(w, errs)
			return
		}
	}
	if h.prepare != nil {
		h.prepare(&v)
	}
	created, err := h.c.Add(r.Context(), v)
	if err != nil {
		writeError(w, h.log, h.name+".Create", err)
		return
	}
	httpx.OK(w, http.StatusCreated, created)
}

// Update applies a partial JSON update. The merged record is validated
// before it is written.
func (h *ResourceHandler[T, P]) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		notFound(w)
		return
	}
	var patch map[string]any
	if !decodeJSON(w, r, &patch) {
		return
	}
	var errs validation.Violations
	updated, err := h.c.Mutate(r.Context(), id, func(v *T) error {
		if err := repository.MergePatch(v, patch); err != nil {
			return err
		}
		if h.validate != nil {
			errs = make(validation.Violations)
			h.validate(v, errs)
			if !errs.Empty() {
				return errRejected
			}
		}
		if h.prepare != nil {
			h.prepare(v)
		}
		return nil
	})
	if errors.Is(err, errRejected) {
		invalid(w, errs)
		return
	}
	respond(w, h.log, h.name+".Update", updated, err)
}

func (h *ResourceHandler[T, P]) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		notFound(w)
		return
	}
	found, err := h.c.Delete(r.Context(), id)
	if err != nil {
		writeError(w, h.log, h.name+".Delete", err)
		return
	}
	if !found {
		notFound(w)
		return
	}
	httpx.Message(w, http.StatusOK, h.name+" deleted", nil)
}
