package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/satheeshds/portal/billing"
	"github.com/satheeshds/portal/db"
	"github.com/satheeshds/portal/documents"
	"github.com/satheeshds/portal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testNow = time.Date(2024, 3, 15, 10, 0, 0, 0, time.UTC)

type envelope struct {
	Data  json.RawMessage `json:"data"`
	Error string          `json:"error"`
	Code  string          `json:"code"`
}

type testServer struct {
	t      *testing.T
	store  *db.Memory
	docDir string
	router http.Handler
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	store := db.NewMemory()
	return newTestServerWith(t, store, store)
}

func newTestServerWith(t *testing.T, store *db.Memory, invoices billing.InvoiceReader) *testServer {
	t.Helper()
	now := func() time.Time { return testNow }
	evaluator := billing.NewEvaluator(invoices, nil, nil, now)
	docDir := t.TempDir()

	h := New(Deps{
		Invoices:  billing.NewManager(billing.Params{Store: store, Now: now}),
		Catalog:   billing.NewCatalog(store, nil),
		Evaluator: evaluator,
		Clients:   store,
		Gate:      documents.NewGate(evaluator, documents.GateConfig{}, nil, nil),
		Documents: documents.NewDirStorage(docDir),
	})
	r := chi.NewRouter()
	h.Routes(r)
	return &testServer{t: t, store: store, docDir: docDir, router: r}
}

func (s *testServer) do(method, path string, body any) (*httptest.ResponseRecorder, envelope) {
	s.t.Helper()
	var reader io.Reader
	if body != nil {
		switch b := body.(type) {
		case string:
			reader = strings.NewReader(b)
		default:
			raw, err := json.Marshal(b)
			require.NoError(s.t, err)
			reader = bytes.NewReader(raw)
		}
	}
	req := httptest.NewRequest(method, path, reader)
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)

	var env envelope
	if strings.HasPrefix(rec.Header().Get("Content-Type"), "application/json") {
		require.NoError(s.t, json.Unmarshal(rec.Body.Bytes(), &env))
	}
	return rec, env
}

func decode[T any](t *testing.T, raw json.RawMessage) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(raw, &v))
	return v
}

func (s *testServer) createClient(name string) models.Client {
	s.t.Helper()
	rec, env := s.do(http.MethodPost, "/clients", map[string]any{"name": name})
	require.Equal(s.t, http.StatusCreated, rec.Code, env.Error)
	return decode[models.Client](s.t, env.Data)
}

func (s *testServer) createInvoice(clientID, dueDate string) models.Invoice {
	s.t.Helper()
	rec, env := s.do(http.MethodPost, "/billing/invoices", map[string]any{
		"client_id": clientID,
		"items": []map[string]any{
			{"name": "Bookkeeping", "quantity": "2", "unit_price": "500"},
			{"name": "GST return", "quantity": 1, "unit_price": 300},
		},
		"tax":      "50",
		"due_date": dueDate,
	})
	require.Equal(s.t, http.StatusCreated, rec.Code, env.Error)
	return decode[models.Invoice](s.t, env.Data)
}

func TestInvoiceAndPaymentFlow(t *testing.T) {
	s := newTestServer(t)
	client := s.createClient("Asha Traders")
	inv := s.createInvoice(client.ID, "2024-04-14")

	assert.Equal(t, "1350", inv.TotalAmount.String())
	assert.Equal(t, models.InvoiceStatusPending, inv.Status)
	assert.Equal(t, "INV-202403-00001", inv.InvoiceNumber)

	rec, env := s.do(http.MethodPost, "/billing/invoices/"+inv.ID+"/payments", map[string]any{
		"amount": "500",
		"date":   "2024-03-16",
		"method": "BANK_TRANSFER",
	})
	require.Equal(t, http.StatusCreated, rec.Code, env.Error)
	paid := decode[models.Invoice](t, env.Data)
	assert.Equal(t, models.InvoiceStatusPartial, paid.Status)
	assert.Equal(t, "850", paid.BalanceAmount.String())
	require.Len(t, paid.Payments, 1)

	rec, env = s.do(http.MethodDelete, "/billing/invoices/"+inv.ID+"/payments/"+paid.Payments[0].ID, nil)
	require.Equal(t, http.StatusOK, rec.Code, env.Error)
	restored := decode[models.Invoice](t, env.Data)
	assert.Equal(t, models.InvoiceStatusPending, restored.Status)
	assert.Equal(t, "1350", restored.BalanceAmount.String())

	rec, env = s.do(http.MethodGet, "/billing/invoices?clientId="+client.ID, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]models.Invoice](t, env.Data), 1)

	rec, env = s.do(http.MethodGet, "/billing/invoices/"+inv.ID+"/view", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	view := decode[models.InvoiceView](t, env.Data)
	assert.Equal(t, "Asha Traders", view.Client.Name)
	assert.Equal(t, models.DefaultCompanyName, view.Issuer.CompanyName)

	rec, _ = s.do(http.MethodDelete, "/billing/invoices/"+inv.ID, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	rec, env = s.do(http.MethodGet, "/billing/invoices/"+inv.ID, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "not_found", env.Code)
}

func TestErrorMapping(t *testing.T) {
	s := newTestServer(t)
	client := s.createClient("Asha Traders")
	inv := s.createInvoice(client.ID, "2024-04-14")

	tests := []struct {
		name   string
		method string
		path   string
		body   any
		status int
		code   string
	}{
		{"malformed json", http.MethodPost, "/billing/invoices", "{", http.StatusBadRequest, "invalid_argument"},
		{"bad date", http.MethodPost, "/billing/invoices", map[string]any{"client_id": client.ID, "due_date": "14/04/2024"}, http.StatusBadRequest, "invalid_argument"},
		{"unknown client", http.MethodPost, "/billing/invoices", map[string]any{
			"client_id": "cli_missing",
			"items":     []map[string]any{{"name": "x", "quantity": 1, "unit_price": 1}},
			"due_date":  "2024-04-14",
		}, http.StatusNotFound, "not_found"},
		{"zero payment", http.MethodPost, "/billing/invoices/" + inv.ID + "/payments", map[string]any{"amount": 0}, http.StatusBadRequest, "invalid_argument"},
		{"unknown payment", http.MethodDelete, "/billing/invoices/" + inv.ID + "/payments/pay_missing", nil, http.StatusNotFound, "not_found"},
		{"bad status", http.MethodPatch, "/billing/invoices/" + inv.ID + "/status", map[string]any{"status": "OVERDUE"}, http.StatusBadRequest, "invalid_argument"},
		{"stale version", http.MethodPut, "/billing/invoices/" + inv.ID, map[string]any{"notes": "x", "version": 99}, http.StatusConflict, "conflict"},
		{"client change", http.MethodPut, "/billing/invoices/" + inv.ID, map[string]any{"client_id": "cli_other"}, http.StatusBadRequest, "invalid_argument"},
		{"bad status filter", http.MethodGet, "/billing/invoices?status=LATE", nil, http.StatusBadRequest, "invalid_argument"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, env := s.do(tt.method, tt.path, tt.body)
			assert.Equal(t, tt.status, rec.Code, env.Error)
			assert.Equal(t, tt.code, env.Code)
			assert.NotEmpty(t, env.Error)
		})
	}
}

func TestCancelledInvoiceRejectsPayments(t *testing.T) {
	s := newTestServer(t)
	client := s.createClient("Asha Traders")
	inv := s.createInvoice(client.ID, "2024-04-14")

	rec, env := s.do(http.MethodPatch, "/billing/invoices/"+inv.ID+"/status", map[string]any{"status": "CANCELLED"})
	require.Equal(t, http.StatusOK, rec.Code, env.Error)

	rec, env = s.do(http.MethodPost, "/billing/invoices/"+inv.ID+"/payments", map[string]any{"amount": 100})
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "invalid_state", env.Code)
}

func TestServiceEndpoints(t *testing.T) {
	s := newTestServer(t)

	rec, env := s.do(http.MethodPost, "/billing/services", map[string]any{
		"name":       "ITR filing",
		"base_price": "2500",
		"category":   "ITR",
	})
	require.Equal(t, http.StatusCreated, rec.Code, env.Error)
	svc := decode[models.ServiceItem](t, env.Data)
	assert.True(t, svc.IsActive)

	rec, env = s.do(http.MethodGet, "/billing/services?category=ITR&active=true", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]models.ServiceItem](t, env.Data), 1)

	rec, env = s.do(http.MethodPut, "/billing/services/"+svc.ID, map[string]any{
		"name":       "ITR filing",
		"base_price": "2800",
		"category":   "ITR",
	})
	require.Equal(t, http.StatusOK, rec.Code, env.Error)
	assert.Equal(t, "2800", decode[models.ServiceItem](t, env.Data).BasePrice.String())

	rec, env = s.do(http.MethodDelete, "/billing/services/"+svc.ID, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, map[string]string{"outcome": "deleted"}, decode[map[string]string](t, env.Data))

	rec, _ = s.do(http.MethodGet, "/billing/services?active=maybe", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestClientEndpoints(t *testing.T) {
	s := newTestServer(t)

	rec, env := s.do(http.MethodPost, "/clients", map[string]any{"name": "Asha", "email": "not-an-email"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, env.Error, "email")

	client := s.createClient("Asha Traders")
	rec, env = s.do(http.MethodPut, "/clients/"+client.ID, map[string]any{"name": "Asha Traders LLP", "phone": "+91 98450 00000"})
	require.Equal(t, http.StatusOK, rec.Code, env.Error)
	assert.Equal(t, "Asha Traders LLP", decode[models.Client](t, env.Data).Name)

	s.createInvoice(client.ID, "2024-04-14")
	rec, env = s.do(http.MethodDelete, "/clients/"+client.ID, nil)
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "invalid_state", env.Code)

	rec, env = s.do(http.MethodGet, "/clients?search=llp", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]models.Client](t, env.Data), 1)
}

func TestPaymentStatusEndpoint(t *testing.T) {
	s := newTestServer(t)
	client := s.createClient("Asha Traders")
	inv := s.createInvoice(client.ID, "2024-03-14")
	rec, env := s.do(http.MethodPost, "/billing/invoices/"+inv.ID+"/payments", map[string]any{"amount": 500})
	require.Equal(t, http.StatusCreated, rec.Code, env.Error)

	rec, env = s.do(http.MethodGet, "/billing/payment-status/"+client.ID, nil)
	require.Equal(t, http.StatusOK, rec.Code, env.Error)
	summary := decode[models.PaymentStatusSummary](t, env.Data)
	assert.Equal(t, 1, summary.OverdueInvoices)
	assert.False(t, summary.HasFileAccess)
	require.Len(t, summary.OverdueDetails, 1)
	assert.Equal(t, "850", summary.OverdueDetails[0].BalanceAmount.String())

	rec, env = s.do(http.MethodGet, "/billing/payment-status/cli_missing", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "not_found", env.Code)
}

func TestDocumentsAreGated(t *testing.T) {
	s := newTestServer(t)
	client := s.createClient("Asha Traders")
	require.NoError(t, os.MkdirAll(filepath.Join(s.docDir, client.ID), 0o755))
	pdf := append([]byte("%PDF-1.7\n"), bytes.Repeat([]byte("x"), 512)...)
	require.NoError(t, os.WriteFile(filepath.Join(s.docDir, client.ID, "itr-2024.pdf"), pdf, 0o644))

	rec, env := s.do(http.MethodGet, "/documents/"+client.ID, nil)
	require.Equal(t, http.StatusOK, rec.Code, env.Error)
	docs := decode[[]documents.Document](t, env.Data)
	require.Len(t, docs, 1)
	assert.Equal(t, "itr-2024.pdf", docs[0].Name)

	rec, _ = s.do(http.MethodGet, "/documents/"+client.ID+"/itr-2024.pdf", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/pdf", rec.Header().Get("Content-Type"))
	assert.Equal(t, pdf, rec.Body.Bytes())

	// an invoice due yesterday blocks both endpoints
	s.createInvoice(client.ID, "2024-03-14")

	rec, env = s.do(http.MethodGet, "/documents/"+client.ID, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "access_blocked", env.Code)
	assert.Contains(t, env.Error, "1 overdue invoice")

	rec, env = s.do(http.MethodGet, "/documents/"+client.ID+"/itr-2024.pdf", nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "access_blocked", env.Code)
}

func TestDashboard(t *testing.T) {
	s := newTestServer(t)
	a := s.createClient("Asha Traders")
	b := s.createClient("Bharat Stores")
	overdue := s.createInvoice(a.ID, "2024-03-01")
	s.createInvoice(b.ID, "2024-04-14")

	rec, env := s.do(http.MethodPost, "/billing/invoices/"+overdue.ID+"/payments", map[string]any{"amount": 350, "method": "CASH"})
	require.Equal(t, http.StatusCreated, rec.Code, env.Error)

	rec, env = s.do(http.MethodGet, "/billing/dashboard", nil)
	require.Equal(t, http.StatusOK, rec.Code, env.Error)
	data := decode[dashboardData](t, env.Data)
	assert.Equal(t, 2, data.TotalClients)
	assert.Equal(t, 2, data.Receivables.TotalInvoices)
	assert.Equal(t, 1, data.Receivables.OverdueInvoices)
	assert.Equal(t, "2350", data.Receivables.TotalOutstanding.String())
	require.Len(t, data.RecentPayments, 1)
	assert.Equal(t, overdue.InvoiceNumber, data.RecentPayments[0].InvoiceNumber)
}

type brokenReader struct{}

func (brokenReader) ListInvoices(context.Context, models.InvoiceFilter) ([]*models.Invoice, error) {
	return nil, errors.New("dial tcp 10.0.0.5:5432: connect: connection refused")
}

func TestDocumentsFailOpenWhenBillingIsDown(t *testing.T) {
	s := newTestServerWith(t, db.NewMemory(), brokenReader{})
	require.NoError(t, os.MkdirAll(filepath.Join(s.docDir, "cli_1"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(s.docDir, "cli_1", "notes.txt"), []byte("hello"), 0o644))

	rec, env := s.do(http.MethodGet, "/documents/cli_1", nil)
	require.Equal(t, http.StatusOK, rec.Code, env.Error)
	assert.Len(t, decode[[]documents.Document](t, env.Data), 1)

	rec, env = s.do(http.MethodGet, "/billing/payment-status/cli_1", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code, "client lookup happens before evaluation")
	assert.Equal(t, "not_found", env.Code)
}

type unreachableClients struct {
	*db.Memory
}

func (unreachableClients) GetClient(context.Context, string) (*models.Client, error) {
	return nil, errors.New("read tcp 10.0.0.5:5432: i/o timeout")
}

func TestPaymentStatusClientLookupFailure(t *testing.T) {
	store := db.NewMemory()
	h := New(Deps{
		Evaluator: billing.NewEvaluator(store, nil, nil, nil),
		Clients:   unreachableClients{store},
	})
	r := chi.NewRouter()
	h.Routes(r)

	req := httptest.NewRequest(http.MethodGet, "/billing/payment-status/cli_1", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	var env envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, "upstream_unavailable", env.Code)
}

func TestBasicAuth(t *testing.T) {
	ok := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusTeapot) })

	t.Run("disabled without credentials", func(t *testing.T) {
		rec := httptest.NewRecorder()
		BasicAuth("", "")(ok).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/clients", nil))
		assert.Equal(t, http.StatusTeapot, rec.Code)
	})

	t.Run("rejects wrong password", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/clients", nil)
		req.SetBasicAuth("admin", "wrong")
		rec := httptest.NewRecorder()
		BasicAuth("admin", "secret")(ok).ServeHTTP(rec, req)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.NotEmpty(t, rec.Header().Get("WWW-Authenticate"))
	})

	t.Run("accepts right password", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/clients", nil)
		req.SetBasicAuth("admin", "secret")
		rec := httptest.NewRecorder()
		BasicAuth("admin", "secret")(ok).ServeHTTP(rec, req)
		assert.Equal(t, http.StatusTeapot, rec.Code)
	})
}
