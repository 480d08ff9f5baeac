package handlers

import (
	"net/http"
	"slices"
	"time"

	"github.com/samber/lo"
	"github.com/satheeshds/portal/models"
	"github.com/shopspring/decimal"
)

const recentPaymentsLimit = 10

type recentPayment struct {
	InvoiceID     string               `json:"invoice_id"`
	InvoiceNumber string               `json:"invoice_number"`
	ClientID      string               `json:"client_id"`
	Amount        decimal.Decimal      `json:"amount" swaggertype:"string"`
	Date          time.Time            `json:"date"`
	Method        models.PaymentMethod `json:"method"`
}

type dashboardData struct {
	TotalClients   int `json:"total_clients"`
	ActiveServices int `json:"active_services"`

	Receivables models.PaymentStatusSummary `json:"receivables"`

	RecentPayments []recentPayment `json:"recent_payments"`
}

// GetDashboard retrieves billing summary statistics
// @Summary      Get dashboard
// @Description  Totals across all clients: receivables, overdue invoices and the latest payments.
// @Tags         dashboard
// @Produce      json
// @Success      200  {object}  Response{data=dashboardData}
// @Failure      503  {object}  Response{error=string}
// @Router       /billing/dashboard [get]
// @Security     BasicAuth
func (h *Handler) GetDashboard(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	clients, err := h.clients.ListClients(ctx, "")
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	services, err := h.catalog.List(ctx, models.ServiceFilter{Active: lo.ToPtr(true)})
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	summary, invoices, err := h.evaluator.Overview(ctx)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	recent := []recentPayment{}
	for _, inv := range invoices {
		for _, p := range inv.Payments {
			recent = append(recent, recentPayment{
				InvoiceID:     inv.ID,
				InvoiceNumber: inv.InvoiceNumber,
				ClientID:      inv.ClientID,
				Amount:        p.Amount,
				Date:          p.Date,
				Method:        p.Method,
			})
		}
	}
	slices.SortFunc(recent, func(a, b recentPayment) int { return b.Date.Compare(a.Date) })
	if len(recent) > recentPaymentsLimit {
		recent = recent[:recentPaymentsLimit]
	}

	writeJSON(w, http.StatusOK, dashboardData{
		TotalClients:   len(clients),
		ActiveServices: len(services),
		Receivables:    summary,
		RecentPayments: recent,
	})
}
