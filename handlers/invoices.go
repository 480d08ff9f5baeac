package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/satheeshds/portal/models"
)

// ListInvoices lists invoices
// @Summary      List invoices
// @Description  Get invoices, newest first, optionally for one client or status.
// @Tags         invoices
// @Produce      json
// @Param        clientId  query     string  false  "Filter by client"
// @Param        status    query     string  false  "PENDING, PARTIAL, PAID or CANCELLED"
// @Success      200       {object}  Response{data=[]models.Invoice}
// @Failure      400       {object}  Response{error=string}
// @Router       /billing/invoices [get]
// @Security     BasicAuth
func (h *Handler) ListInvoices(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := models.InvoiceFilter{ClientID: q.Get("clientId")}
	if filter.ClientID == "" {
		filter.ClientID = q.Get("client_id")
	}
	if s := q.Get("status"); s != "" {
		status := models.InvoiceStatus(s)
		if err := status.Validate(); err != nil {
			h.writeError(w, r, err)
			return
		}
		filter.Status = &status
	}

	invoices, err := h.invoices.List(r.Context(), filter)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, invoices)
}

// GetInvoice retrieves a single invoice by ID
// @Summary      Get invoice
// @Description  Get an invoice with its items and payments.
// @Tags         invoices
// @Produce      json
// @Param        id   path      string  true  "Invoice ID"
// @Success      200  {object}  Response{data=models.Invoice}
// @Failure      404  {object}  Response{error=string}
// @Router       /billing/invoices/{id} [get]
// @Security     BasicAuth
func (h *Handler) GetInvoice(w http.ResponseWriter, r *http.Request) {
	inv, err := h.invoices.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, inv)
}

// ViewInvoice returns the printable form of an invoice
// @Summary      Invoice view
// @Description  Get an invoice joined with its client and the issuing company.
// @Tags         invoices
// @Produce      json
// @Param        id   path      string  true  "Invoice ID"
// @Success      200  {object}  Response{data=models.InvoiceView}
// @Failure      404  {object}  Response{error=string}
// @Router       /billing/invoices/{id}/view [get]
// @Security     BasicAuth
func (h *Handler) ViewInvoice(w http.ResponseWriter, r *http.Request) {
	view, err := h.invoices.View(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

// CreateInvoice creates a new invoice
// @Summary      Create invoice
// @Description  Create an invoice. Items may reference catalog services; the number is generated when omitted.
// @Tags         invoices
// @Accept       json
// @Produce      json
// @Param        invoice  body      models.InvoiceInput  true  "Invoice contents"
// @Success      201      {object}  Response{data=models.Invoice}
// @Failure      400      {object}  Response{error=string}
// @Failure      404      {object}  Response{error=string}
// @Failure      409      {object}  Response{error=string}
// @Router       /billing/invoices [post]
// @Security     BasicAuth
func (h *Handler) CreateInvoice(w http.ResponseWriter, r *http.Request) {
	var input models.InvoiceInput
	if err := decodeJSON(r, &input); err != nil {
		h.writeError(w, r, err)
		return
	}
	inv, err := h.invoices.Create(r.Context(), &input)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, inv)
}

// UpdateInvoice edits an invoice
// @Summary      Update invoice
// @Description  Edit items, tax, due date or notes. Totals and status are recomputed; payments are kept.
// @Tags         invoices
// @Accept       json
// @Produce      json
// @Param        id       path      string                     true  "Invoice ID"
// @Param        invoice  body      models.InvoiceUpdateInput  true  "Fields to change"
// @Success      200      {object}  Response{data=models.Invoice}
// @Failure      400      {object}  Response{error=string}
// @Failure      404      {object}  Response{error=string}
// @Failure      409      {object}  Response{error=string}
// @Router       /billing/invoices/{id} [put]
// @Security     BasicAuth
func (h *Handler) UpdateInvoice(w http.ResponseWriter, r *http.Request) {
	var input models.InvoiceUpdateInput
	if err := decodeJSON(r, &input); err != nil {
		h.writeError(w, r, err)
		return
	}
	inv, err := h.invoices.Update(r.Context(), chi.URLParam(r, "id"), &input)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, inv)
}

// SetInvoiceStatus overrides the status of an invoice
// @Summary      Set invoice status
// @Description  Manually set the status. CANCELLED freezes the invoice until another status is set.
// @Tags         invoices
// @Accept       json
// @Produce      json
// @Param        id      path      string              true  "Invoice ID"
// @Param        status  body      models.StatusInput  true  "New status"
// @Success      200     {object}  Response{data=models.Invoice}
// @Failure      400     {object}  Response{error=string}
// @Failure      404     {object}  Response{error=string}
// @Router       /billing/invoices/{id}/status [patch]
// @Security     BasicAuth
func (h *Handler) SetInvoiceStatus(w http.ResponseWriter, r *http.Request) {
	var input models.StatusInput
	if err := decodeJSON(r, &input); err != nil {
		h.writeError(w, r, err)
		return
	}
	if err := input.Validate(); err != nil {
		h.writeError(w, r, err)
		return
	}
	inv, err := h.invoices.SetStatus(r.Context(), chi.URLParam(r, "id"), input.Status)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, inv)
}

// DeleteInvoice deletes an invoice
// @Summary      Delete invoice
// @Description  Permanently delete an invoice and its payments.
// @Tags         invoices
// @Param        id   path      string  true  "Invoice ID"
// @Success      204  "No Content"
// @Failure      404  {object}  Response{error=string}
// @Router       /billing/invoices/{id} [delete]
// @Security     BasicAuth
func (h *Handler) DeleteInvoice(w http.ResponseWriter, r *http.Request) {
	if err := h.invoices.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		h.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
