package handlers

import (
	"net/http"

	"github.com/diewo77/cobbler-crm/httpx"
	"github.com/diewo77/cobbler-crm/internal/images"
	"github.com/diewo77/cobbler-crm/internal/store"
	"github.com/sirupsen/logrus"
)

// ImageHandler serves stage photos held in the image side store.
type ImageHandler struct {
	imgs *images.Store
	log  *logrus.Logger
}

func NewImageHandler(imgs *images.Store, log *logrus.Logger) *ImageHandler {
	return &ImageHandler{imgs: imgs, log: log}
}

// Photo is the body of GET /images/{ref}. Evicted is set when the image
// was dropped to free space and Data holds the placeholder.
type Photo struct {
	Ref     string `json:"ref"`
	Data    string `json:"data"`
	Evicted bool   `json:"evicted,omitempty"`
}

// Get: GET /images/{ref} resolves a photo reference stored on an enquiry.
func (h *ImageHandler) Get(w http.ResponseWriter, r *http.Request) {
	ref := r.PathValue("ref")
	if !images.IsRef(ref) {
		notFound(w)
		return
	}
	data, err := h.imgs.Resolve(r.Context(), ref)
	if err != nil {
		writeError(w, h.log, "ImageHandler.Get", err)
		return
	}
	httpx.OK(w, http.StatusOK, Photo{Ref: ref, Data: data, Evicted: data == store.ImagePlaceholder})
}
