// internal/snaps/handler.go
package snaps

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"snapit/internal/listings"
)

type Handler struct {
	service Service
}

func NewHandler(service Service) *Handler {
	return &Handler{service: service}
}

// Routes mounts the snap endpoints on a chi router.
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Post("/listings/{id}/snap", h.handleSnap)
	r.Get("/snaps", h.handleList)
	r.Delete("/snaps/{id}", h.handleDelete)
	return r
}

func (h *Handler) handleSnap(w http.ResponseWriter, r *http.Request) {
	listingID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "invalid listing ID", http.StatusBadRequest)
		return
	}
	userID, err := uuid.Parse(r.Header.Get("X-Actor-ID"))
	if err != nil {
		http.Error(w, "missing actor", http.StatusUnauthorized)
		return
	}

	snap, err := h.service.Snap(r.Context(), userID, listingID)
	if err != nil {
		writeError(w, err)
		return
	}

	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(snap)
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	userID, err := uuid.Parse(r.Header.Get("X-Actor-ID"))
	if err != nil {
		http.Error(w, "missing actor", http.StatusUnauthorized)
		return
	}

	snaps, err := h.service.List(r.Context(), userID)
	if err != nil {
		writeError(w, err)
		return
	}
	if snaps == nil {
		snaps = []*Snap{}
	}
	json.NewEncoder(w).Encode(snaps)
}

func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	snapID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "invalid snap ID", http.StatusBadRequest)
		return
	}
	userID, err := uuid.Parse(r.Header.Get("X-Actor-ID"))
	if err != nil {
		http.Error(w, "missing actor", http.StatusUnauthorized)
		return
	}

	if err := h.service.Delete(r.Context(), userID, snapID); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrListingInactive):
		http.Error(w, err.Error(), http.StatusConflict)
	case errors.Is(err, ErrAlreadySnapped):
		http.Error(w, err.Error(), http.StatusConflict)
	case errors.Is(err, ErrSnapNotFound), errors.Is(err, listings.ErrListingNotFound):
		http.Error(w, err.Error(), http.StatusNotFound)
	default:
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}
