package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	ierr "github.com/satheeshds/portal/errors"
	"github.com/satheeshds/portal/models"
)

// AddPayment records a payment
// @Summary      Record payment
// @Description  Add a payment to an invoice. Supplying an id makes the request safe to retry.
// @Tags         payments
// @Accept       json
// @Produce      json
// @Param        id       path      string               true  "Invoice ID"
// @Param        payment  body      models.PaymentInput  true  "Payment details"
// @Success      201      {object}  Response{data=models.Invoice}
// @Failure      400      {object}  Response{error=string}
// @Failure      404      {object}  Response{error=string}
// @Failure      409      {object}  Response{error=string}
// @Router       /billing/invoices/{id}/payments [post]
// @Security     BasicAuth
func (h *Handler) AddPayment(w http.ResponseWriter, r *http.Request) {
	var input models.PaymentInput
	if err := decodeJSON(r, &input); err != nil {
		h.writeError(w, r, err)
		return
	}
	inv, err := h.invoices.AddPayment(r.Context(), chi.URLParam(r, "id"), &input)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, inv)
}

// DeletePayment removes a payment
// @Summary      Delete payment
// @Description  Remove a payment from an invoice and recompute its balance and status.
// @Tags         payments
// @Produce      json
// @Param        id         path      string  true  "Invoice ID"
// @Param        paymentId  path      string  true  "Payment ID"
// @Success      200        {object}  Response{data=models.Invoice}
// @Failure      404        {object}  Response{error=string}
// @Failure      409        {object}  Response{error=string}
// @Router       /billing/invoices/{id}/payments/{paymentId} [delete]
// @Security     BasicAuth
func (h *Handler) DeletePayment(w http.ResponseWriter, r *http.Request) {
	inv, err := h.invoices.DeletePayment(r.Context(), chi.URLParam(r, "id"), chi.URLParam(r, "paymentId"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, inv)
}

// GetPaymentStatus summarizes a client's invoices
// @Summary      Client payment status
// @Description  Outstanding and overdue totals for a client, and whether document access is allowed.
// @Tags         payments
// @Produce      json
// @Param        clientId  path      string  true  "Client ID"
// @Success      200       {object}  Response{data=models.PaymentStatusSummary}
// @Failure      404       {object}  Response{error=string}
// @Failure      503       {object}  Response{error=string}
// @Router       /billing/payment-status/{clientId} [get]
// @Security     BasicAuth
func (h *Handler) GetPaymentStatus(w http.ResponseWriter, r *http.Request) {
	clientID := chi.URLParam(r, "clientId")
	if _, err := h.clients.GetClient(r.Context(), clientID); err != nil {
		if !ierr.IsNotFound(err) {
			err = ierr.WithError(err).
				WithHint("billing data is temporarily unavailable").
				Mark(ierr.ErrUpstreamUnavailable)
		}
		h.writeError(w, r, err)
		return
	}
	summary, err := h.evaluator.Evaluate(r.Context(), clientID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}
