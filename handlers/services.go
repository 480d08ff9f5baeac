package handlers

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	ierr "github.com/satheeshds/portal/errors"
	"github.com/satheeshds/portal/models"
)

// ListServices lists catalog entries
// @Summary      List services
// @Description  Get the service catalog, optionally filtered by category or active flag.
// @Tags         services
// @Produce      json
// @Param        category  query     string  false  "ITR, GST, ACCOUNTING or OTHER"
// @Param        active    query     bool    false  "Only active (true) or inactive (false) entries"
// @Success      200       {object}  Response{data=[]models.ServiceItem}
// @Failure      400       {object}  Response{error=string}
// @Router       /billing/services [get]
// @Security     BasicAuth
func (h *Handler) ListServices(w http.ResponseWriter, r *http.Request) {
	var filter models.ServiceFilter
	if c := r.URL.Query().Get("category"); c != "" {
		category := models.ServiceCategory(c)
		if err := category.Validate(); err != nil {
			h.writeError(w, r, err)
			return
		}
		filter.Category = &category
	}
	if a := r.URL.Query().Get("active"); a != "" {
		active, err := strconv.ParseBool(a)
		if err != nil {
			h.writeError(w, r, ierr.WithError(err).WithHint("active must be true or false").Mark(ierr.ErrInvalidArgument))
			return
		}
		filter.Active = &active
	}

	services, err := h.catalog.List(r.Context(), filter)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, services)
}

// GetService retrieves a single catalog entry
// @Summary      Get service
// @Tags         services
// @Produce      json
// @Param        id   path      string  true  "Service ID"
// @Success      200  {object}  Response{data=models.ServiceItem}
// @Failure      404  {object}  Response{error=string}
// @Router       /billing/services/{id} [get]
// @Security     BasicAuth
func (h *Handler) GetService(w http.ResponseWriter, r *http.Request) {
	svc, err := h.catalog.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, svc)
}

// CreateService adds a catalog entry
// @Summary      Create service
// @Description  Add a service to the catalog. New entries are active unless is_active is false.
// @Tags         services
// @Accept       json
// @Produce      json
// @Param        service  body      models.ServiceItemInput  true  "Service details"
// @Success      201      {object}  Response{data=models.ServiceItem}
// @Failure      400      {object}  Response{error=string}
// @Router       /billing/services [post]
// @Security     BasicAuth
func (h *Handler) CreateService(w http.ResponseWriter, r *http.Request) {
	var input models.ServiceItemInput
	if err := decodeJSON(r, &input); err != nil {
		h.writeError(w, r, err)
		return
	}
	svc, err := h.catalog.Create(r.Context(), &input)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, svc)
}

// UpdateService edits a catalog entry
// @Summary      Update service
// @Description  Edit a catalog entry. Existing invoices keep the name and price they were created with.
// @Tags         services
// @Accept       json
// @Produce      json
// @Param        id       path      string                   true  "Service ID"
// @Param        service  body      models.ServiceItemInput  true  "Service details"
// @Success      200      {object}  Response{data=models.ServiceItem}
// @Failure      400      {object}  Response{error=string}
// @Failure      404      {object}  Response{error=string}
// @Router       /billing/services/{id} [put]
// @Security     BasicAuth
func (h *Handler) UpdateService(w http.ResponseWriter, r *http.Request) {
	var input models.ServiceItemInput
	if err := decodeJSON(r, &input); err != nil {
		h.writeError(w, r, err)
		return
	}
	svc, err := h.catalog.Update(r.Context(), chi.URLParam(r, "id"), &input)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, svc)
}

// DeleteService removes a catalog entry
// @Summary      Delete service
// @Description  Delete a catalog entry. Entries used on an invoice are deactivated instead.
// @Tags         services
// @Produce      json
// @Param        id   path      string  true  "Service ID"
// @Success      200  {object}  Response{data=map[string]string}
// @Failure      404  {object}  Response{error=string}
// @Router       /billing/services/{id} [delete]
// @Security     BasicAuth
func (h *Handler) DeleteService(w http.ResponseWriter, r *http.Request) {
	outcome, err := h.catalog.Delete(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"outcome": string(outcome)})
}
