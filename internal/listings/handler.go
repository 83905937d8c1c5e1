// internal/listings/handler.go
package listings

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

// Handler exposes the lifecycle manager over HTTP. Authentication happens
// upstream; the gateway forwards the verified actor in X-Actor-ID and
// X-Actor-Role headers.
type Handler struct {
	service Service
}

func NewHandler(service Service) *Handler {
	return &Handler{service: service}
}

// Routes mounts the listing endpoints on a chi router.
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Post("/items", h.handleCreateItem)
	r.Get("/items/{id}", h.handleGetItem)
	r.Delete("/items/ean/{ean}", h.handleHardDeleteByEAN)
	r.Post("/inventories", h.handleCreateInventory)
	r.Post("/inventories/{id}/listings", h.handleUpsertListing)
	r.Post("/inventories/upload-csv", h.handleUploadCSV)
	r.Get("/listings/{id}", h.handleGetListing)
	r.Delete("/listings/{id}", h.handleSoftDeleteListing)
	r.Get("/search", h.handleSearch)
	return r
}

func (h *Handler) handleCreateItem(w http.ResponseWriter, r *http.Request) {
	var item Item
	if err := json.NewDecoder(r.Body).Decode(&item); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	created, err := h.service.CreateItem(r.Context(), actorFromRequest(r), &item)
	if err != nil {
		writeError(w, err)
		return
	}

	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(created)
}

func (h *Handler) handleGetItem(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "invalid item ID", http.StatusBadRequest)
		return
	}

	item, err := h.service.GetItem(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	json.NewEncoder(w).Encode(item)
}

func (h *Handler) handleHardDeleteByEAN(w http.ResponseWriter, r *http.Request) {
	result, err := h.service.HardDeleteByEAN(r.Context(), actorFromRequest(r), chi.URLParam(r, "ean"))
	if err != nil {
		writeError(w, err)
		return
	}
	json.NewEncoder(w).Encode(result)
}

func (h *Handler) handleCreateInventory(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name string `json:"name"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	inv, err := h.service.CreateInventory(r.Context(), actorFromRequest(r), req.Name)
	if err != nil {
		writeError(w, err)
		return
	}

	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(inv)
}

func (h *Handler) handleUpsertListing(w http.ResponseWriter, r *http.Request) {
	inventoryID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "invalid inventory ID", http.StatusBadRequest)
		return
	}

	var in UpsertInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	in.InventoryID = inventoryID

	listing, err := h.service.UpsertListing(r.Context(), actorFromRequest(r), in)
	if err != nil {
		writeError(w, err)
		return
	}

	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(listing)
}

func (h *Handler) handleUploadCSV(w http.ResponseWriter, r *http.Request) {
	file, header, err := r.FormFile("file")
	if err != nil {
		http.Error(w, "CSV file is required", http.StatusBadRequest)
		return
	}
	defer file.Close()

	inv, result, err := h.service.UploadCSV(r.Context(), actorFromRequest(r), header.Filename, file)
	if err != nil {
		writeError(w, err)
		return
	}

	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(struct {
		Inventory *Inventory  `json:"inventory"`
		Result    *BulkResult `json:"result"`
	}{inv, result})
}

func (h *Handler) handleGetListing(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "invalid listing ID", http.StatusBadRequest)
		return
	}

	listing, err := h.service.GetListing(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	json.NewEncoder(w).Encode(listing)
}

func (h *Handler) handleSoftDeleteListing(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "invalid listing ID", http.StatusBadRequest)
		return
	}

	if err := h.service.SoftDeleteListing(r.Context(), actorFromRequest(r), id); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleSearch(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")
	if query == "" {
		http.Error(w, "missing search query", http.StatusBadRequest)
		return
	}

	results, err := h.service.Search(r.Context(), query)
	if err != nil {
		writeError(w, err)
		return
	}
	if results == nil {
		results = []*Listing{}
	}
	json.NewEncoder(w).Encode(results)
}

func actorFromRequest(r *http.Request) Actor {
	actor := Actor{Role: r.Header.Get("X-Actor-Role")}
	if id, err := uuid.Parse(r.Header.Get("X-Actor-ID")); err == nil {
		actor.ID = id
	}
	return actor
}

func writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrInvalidPrice), errors.Is(err, ErrInvalidDateRange):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, ErrNotOwner), errors.Is(err, ErrNotAuthorized):
		http.Error(w, err.Error(), http.StatusForbidden)
	case errors.Is(err, ErrItemNotFound), errors.Is(err, ErrInventoryNotFound), errors.Is(err, ErrListingNotFound):
		http.Error(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, ErrConflict):
		http.Error(w, err.Error(), http.StatusConflict)
	default:
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}
