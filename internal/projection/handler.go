// internal/projection/handler.go
package projection

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

type Handler struct {
	service Service
}

func NewHandler(service Service) *Handler {
	return &Handler{service: service}
}

// Routes mounts the live inventory endpoints on a chi router.
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/merchants/{id}/live-inventory", h.handleGet)
	r.Post("/merchants/{id}/live-inventory/resync", h.handleResync)
	r.Post("/live-inventory/rebuild", h.handleRebuild)
	return r
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	merchantID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "invalid merchant ID", http.StatusBadRequest)
		return
	}

	li, err := h.service.Get(r.Context(), merchantID)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if li.ListingIDs == nil {
		li.ListingIDs = []uuid.UUID{}
	}
	json.NewEncoder(w).Encode(li)
}

func (h *Handler) handleResync(w http.ResponseWriter, r *http.Request) {
	merchantID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "invalid merchant ID", http.StatusBadRequest)
		return
	}

	if err := h.service.Resync(r.Context(), merchantID); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleRebuild(w http.ResponseWriter, r *http.Request) {
	rebuilt, err := h.service.RebuildAll(r.Context())
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	json.NewEncoder(w).Encode(struct {
		Merchants int `json:"merchants"`
	}{rebuilt})
}
