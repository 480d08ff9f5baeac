package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/satheeshds/portal/billing"
	"github.com/satheeshds/portal/documents"
	ierr "github.com/satheeshds/portal/errors"
)

// Response is the standard JSON envelope for all API responses.
type Response struct {
	Data  any    `json:"data"`
	Error string `json:"error,omitempty"`
	Code  string `json:"code,omitempty"`
}

// Handler serves the billing, client and document APIs.
type Handler struct {
	invoices  *billing.Manager
	catalog   *billing.Catalog
	evaluator *billing.Evaluator
	clients   billing.ClientStore
	gate      *documents.Gate
	documents documents.Storage
	logger    *slog.Logger
}

type Deps struct {
	Invoices  *billing.Manager
	Catalog   *billing.Catalog
	Evaluator *billing.Evaluator
	Clients   billing.ClientStore
	Gate      *documents.Gate
	Documents documents.Storage
	Logger    *slog.Logger
}

func New(d Deps) *Handler {
	if d.Logger == nil {
		d.Logger = slog.Default()
	}
	return &Handler{
		invoices:  d.Invoices,
		catalog:   d.Catalog,
		evaluator: d.Evaluator,
		clients:   d.Clients,
		gate:      d.Gate,
		documents: d.Documents,
		logger:    d.Logger,
	}
}

// Routes registers every endpoint on r.
func (h *Handler) Routes(r chi.Router) {
	r.Route("/billing", func(r chi.Router) {
		r.Get("/services", h.ListServices)
		r.Post("/services", h.CreateService)
		r.Get("/services/{id}", h.GetService)
		r.Put("/services/{id}", h.UpdateService)
		r.Delete("/services/{id}", h.DeleteService)

		r.Get("/invoices", h.ListInvoices)
		r.Post("/invoices", h.CreateInvoice)
		r.Get("/invoices/{id}", h.GetInvoice)
		r.Put("/invoices/{id}", h.UpdateInvoice)
		r.Delete("/invoices/{id}", h.DeleteInvoice)
		r.Get("/invoices/{id}/view", h.ViewInvoice)
		r.Patch("/invoices/{id}/status", h.SetInvoiceStatus)

		r.Post("/invoices/{id}/payments", h.AddPayment)
		r.Delete("/invoices/{id}/payments/{paymentId}", h.DeletePayment)

		r.Get("/payment-status/{clientId}", h.GetPaymentStatus)
		r.Get("/dashboard", h.GetDashboard)
	})

	r.Get("/clients", h.ListClients)
	r.Post("/clients", h.CreateClient)
	r.Get("/clients/{id}", h.GetClient)
	r.Put("/clients/{id}", h.UpdateClient)
	r.Delete("/clients/{id}", h.DeleteClient)

	r.Get("/documents/{clientId}", h.ListDocuments)
	r.Get("/documents/{clientId}/{name}", h.DownloadDocument)
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(Response{Data: data})
}

// writeError maps err to its status code and writes the hint as the message.
func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := ierr.HTTPStatusFromErr(err)
	if status >= http.StatusInternalServerError {
		h.logger.Error("request failed", "method", r.Method, "path", r.URL.Path, "error", err)
	} else {
		h.logger.Debug("request rejected", "method", r.Method, "path", r.URL.Path, "status", status, "error", err)
	}

	msg := ierr.DisplayMessage(err)
	if status == http.StatusInternalServerError && !ierr.Is(err, ierr.ErrSystem) {
		msg = "internal error"
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(Response{Error: msg, Code: ierr.CodeFromErr(err)})
}

// decodeJSON reads the request body into v.
func decodeJSON(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		if ierr.IsInvalidArgument(err) {
			return err
		}
		return ierr.WithError(err).
			WithHint("invalid JSON").
			Mark(ierr.ErrInvalidArgument)
	}
	return nil
}

// BasicAuth is middleware that enforces HTTP Basic Authentication.
// Empty credentials disable it.
func BasicAuth(user, pass string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if user == "" && pass == "" {
			slog.Warn("AUTH_USER and AUTH_PASS not set, API is unauthenticated")
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			u, p, ok := r.BasicAuth()
			if !ok || u != user || p != pass {
				w.Header().Set("WWW-Authenticate", `Basic realm="portal"`)
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusUnauthorized)
				json.NewEncoder(w).Encode(Response{Error: "unauthorized", Code: "unauthorized"})
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
