package db

import (
	"context"
	"slices"
	"strings"
	"sync"

	"github.com/samber/lo"
	"github.com/satheeshds/portal/billing"
	ierr "github.com/satheeshds/portal/errors"
	"github.com/satheeshds/portal/models"
)

var _ billing.Store = (*Memory)(nil)

// Memory is an in-process billing.Store with the same version and
// uniqueness rules as Postgres. Values are copied in and out, so callers
// never share state with the store.
type Memory struct {
	mu        sync.RWMutex
	invoices  map[string]*models.Invoice
	numbers   map[string]string // invoice number -> id
	sequences map[string]int64
	services  map[string]*models.ServiceItem
	clients   map[string]*models.Client
}

func NewMemory() *Memory {
	return &Memory{
		invoices:  make(map[string]*models.Invoice),
		numbers:   make(map[string]string),
		sequences: make(map[string]int64),
		services:  make(map[string]*models.ServiceItem),
		clients:   make(map[string]*models.Client),
	}
}

func notFound(entity string) error {
	return ierr.NewError(entity+" not found").WithHint(entity + " not found").Mark(ierr.ErrNotFound)
}

// --- invoices ---

func (m *Memory) GetInvoice(_ context.Context, id string) (*models.Invoice, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	inv, ok := m.invoices[id]
	if !ok {
		return nil, notFound("invoice")
	}
	return inv.Clone(), nil
}

func (m *Memory) ListInvoices(_ context.Context, filter models.InvoiceFilter) ([]*models.Invoice, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := []*models.Invoice{}
	for _, inv := range m.invoices {
		if filter.ClientID != "" && inv.ClientID != filter.ClientID {
			continue
		}
		if filter.Status != nil && inv.Status != *filter.Status {
			continue
		}
		out = append(out, inv.Clone())
	}
	slices.SortFunc(out, func(a, b *models.Invoice) int {
		return b.CreatedAt.Compare(a.CreatedAt)
	})
	return out, nil
}

func (m *Memory) CreateInvoice(_ context.Context, inv *models.Invoice) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.clients[inv.ClientID]; !ok {
		return notFound("client")
	}
	if _, taken := m.numbers[inv.InvoiceNumber]; taken {
		return ierr.NewError("duplicate invoice number").
			WithHintf("invoice number %s already exists", inv.InvoiceNumber).
			Mark(ierr.ErrConflict)
	}
	if _, exists := m.invoices[inv.ID]; exists {
		return ierr.NewError("duplicate invoice id").WithHint("invoice already exists").Mark(ierr.ErrConflict)
	}
	m.invoices[inv.ID] = inv.Clone()
	m.numbers[inv.InvoiceNumber] = inv.ID
	return nil
}

func (m *Memory) UpdateInvoice(_ context.Context, inv *models.Invoice) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	stored, ok := m.invoices[inv.ID]
	if !ok {
		return notFound("invoice")
	}
	if stored.Version != inv.Version {
		return ierr.NewError("invoice version changed").
			WithHint("invoice was modified concurrently; reload and retry").
			Mark(ierr.ErrConflict)
	}

	next := inv.Clone()
	next.ClientID = stored.ClientID
	next.InvoiceNumber = stored.InvoiceNumber
	next.CreatedAt = stored.CreatedAt
	next.Version = stored.Version + 1
	m.invoices[inv.ID] = next
	inv.Version = next.Version
	return nil
}

func (m *Memory) DeleteInvoice(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	inv, ok := m.invoices[id]
	if !ok {
		return notFound("invoice")
	}
	delete(m.numbers, inv.InvoiceNumber)
	delete(m.invoices, id)
	return nil
}

func (m *Memory) NextInvoiceSequence(_ context.Context, period string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.sequences[period]++
	return m.sequences[period], nil
}

// --- service catalog ---

func (m *Memory) GetService(_ context.Context, id string) (*models.ServiceItem, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	s, ok := m.services[id]
	if !ok {
		return nil, notFound("service")
	}
	c := *s
	return &c, nil
}

func (m *Memory) ListServices(_ context.Context, filter models.ServiceFilter) ([]*models.ServiceItem, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := []*models.ServiceItem{}
	for _, s := range m.services {
		if filter.Category != nil && s.Category != *filter.Category {
			continue
		}
		if filter.Active != nil && s.IsActive != *filter.Active {
			continue
		}
		c := *s
		out = append(out, &c)
	}
	slices.SortFunc(out, func(a, b *models.ServiceItem) int {
		if a.Category != b.Category {
			return strings.Compare(string(a.Category), string(b.Category))
		}
		return strings.Compare(a.Name, b.Name)
	})
	return out, nil
}

func (m *Memory) CreateService(_ context.Context, s *models.ServiceItem) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	c := *s
	m.services[s.ID] = &c
	return nil
}

func (m *Memory) UpdateService(_ context.Context, s *models.ServiceItem) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.services[s.ID]; !ok {
		return notFound("service")
	}
	c := *s
	m.services[s.ID] = &c
	return nil
}

func (m *Memory) DeleteService(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.services[id]; !ok {
		return notFound("service")
	}
	delete(m.services, id)
	return nil
}

func (m *Memory) ServiceInUse(_ context.Context, id string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, inv := range m.invoices {
		if lo.ContainsBy(inv.Items, func(item models.InvoiceItem) bool {
			return item.ServiceID != nil && *item.ServiceID == id
		}) {
			return true, nil
		}
	}
	return false, nil
}

// --- clients ---

func (m *Memory) GetClient(_ context.Context, id string) (*models.Client, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	c, ok := m.clients[id]
	if !ok {
		return nil, notFound("client")
	}
	cp := *c
	return &cp, nil
}

func (m *Memory) ListClients(_ context.Context, search string) ([]*models.Client, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	needle := strings.ToLower(search)
	matches := func(s *string) bool {
		return s != nil && strings.Contains(strings.ToLower(*s), needle)
	}

	out := []*models.Client{}
	for _, c := range m.clients {
		if search != "" && !matches(&c.Name) && !matches(c.Email) && !matches(c.Phone) {
			continue
		}
		cp := *c
		out = append(out, &cp)
	}
	slices.SortFunc(out, func(a, b *models.Client) int {
		return strings.Compare(a.Name, b.Name)
	})
	return out, nil
}

func (m *Memory) CreateClient(_ context.Context, c *models.Client) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	cp := *c
	m.clients[c.ID] = &cp
	return nil
}

func (m *Memory) UpdateClient(_ context.Context, c *models.Client) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.clients[c.ID]; !ok {
		return notFound("client")
	}
	cp := *c
	m.clients[c.ID] = &cp
	return nil
}

func (m *Memory) DeleteClient(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.clients[id]; !ok {
		return notFound("client")
	}
	for _, inv := range m.invoices {
		if inv.ClientID == id {
			return ierr.NewError("client has invoices").
				WithHint("client still has invoices; delete them first").
				Mark(ierr.ErrInvalidState)
		}
	}
	delete(m.clients, id)
	return nil
}
