package db

import (
	"context"
	"database/sql"
	"encoding/json"
	"strconv"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/satheeshds/portal/billing"
	ierr "github.com/satheeshds/portal/errors"
	"github.com/satheeshds/portal/models"
)

var _ billing.Store = (*Postgres)(nil)

// Postgres implements billing.Store on top of database/sql with the pgx driver.
type Postgres struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{db: db}
}

// Postgres error codes we translate
const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
	pgCheckViolation      = "23514"
	pgNumericOutOfRange   = "22003"
)

func mapError(err error, entity string) error {
	if err == nil {
		return nil
	}
	if ierr.Is(err, sql.ErrNoRows) {
		return ierr.WithError(err).WithHintf("%s not found", entity).Mark(ierr.ErrNotFound)
	}
	var pgErr *pgconn.PgError
	if ierr.As(err, &pgErr) {
		switch pgErr.Code {
		case pgUniqueViolation:
			return ierr.WithError(err).WithHintf("%s already exists", entity).Mark(ierr.ErrConflict)
		case pgForeignKeyViolation:
			return ierr.WithError(err).WithHintf("%s is still referenced", entity).Mark(ierr.ErrInvalidState)
		case pgCheckViolation:
			return ierr.WithError(err).WithHintf("%s violates a constraint", entity).Mark(ierr.ErrInvalidArgument)
		case pgNumericOutOfRange:
			return ierr.WithError(err).WithHintf("%s amount is out of range", entity).Mark(ierr.ErrInvalidArgument)
		}
	}
	return ierr.WithError(err).WithHint("database error").Mark(ierr.ErrSystem)
}

// --- invoices ---

const invoiceSelectQuery = `SELECT id, invoice_number, client_id, items, subtotal, tax, total_amount,
		payments, paid_amount, balance_amount, status, issue_date, due_date, notes,
		version, created_at, updated_at
		FROM invoices`

func scanInvoice(scanner interface{ Scan(...any) error }) (*models.Invoice, error) {
	var (
		inv             models.Invoice
		items, payments []byte
	)
	err := scanner.Scan(&inv.ID, &inv.InvoiceNumber, &inv.ClientID, &items, &inv.Subtotal, &inv.Tax,
		&inv.TotalAmount, &payments, &inv.PaidAmount, &inv.BalanceAmount, &inv.Status,
		&inv.IssueDate, &inv.DueDate, &inv.Notes, &inv.Version, &inv.CreatedAt, &inv.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(items, &inv.Items); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(payments, &inv.Payments); err != nil {
		return nil, err
	}
	return &inv, nil
}

func (p *Postgres) GetInvoice(ctx context.Context, id string) (*models.Invoice, error) {
	inv, err := scanInvoice(p.db.QueryRowContext(ctx, invoiceSelectQuery+" WHERE id = $1", id))
	if err != nil {
		return nil, mapError(err, "invoice")
	}
	return inv, nil
}

// ListInvoices runs as a single statement, so the result reflects one snapshot.
func (p *Postgres) ListInvoices(ctx context.Context, filter models.InvoiceFilter) ([]*models.Invoice, error) {
	query := invoiceSelectQuery
	var conditions []string
	var args []any

	if filter.ClientID != "" {
		args = append(args, filter.ClientID)
		conditions = append(conditions, "client_id = $"+strconv.Itoa(len(args)))
	}
	if filter.Status != nil {
		args = append(args, string(*filter.Status))
		conditions = append(conditions, "status = $"+strconv.Itoa(len(args)))
	}
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY created_at DESC"

	rows, err := p.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, mapError(err, "invoice")
	}
	defer rows.Close()

	invoices := []*models.Invoice{}
	for rows.Next() {
		inv, err := scanInvoice(rows)
		if err != nil {
			return nil, mapError(err, "invoice")
		}
		invoices = append(invoices, inv)
	}
	if err := rows.Err(); err != nil {
		return nil, mapError(err, "invoice")
	}
	return invoices, nil
}

func (p *Postgres) CreateInvoice(ctx context.Context, inv *models.Invoice) error {
	items, payments, err := marshalLedger(inv)
	if err != nil {
		return err
	}
	_, err = p.db.ExecContext(ctx, `INSERT INTO invoices (id, invoice_number, client_id, items, subtotal, tax,
		total_amount, payments, paid_amount, balance_amount, status, issue_date, due_date, notes, version,
		created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)`,
		inv.ID, inv.InvoiceNumber, inv.ClientID, items, inv.Subtotal, inv.Tax,
		inv.TotalAmount, payments, inv.PaidAmount, inv.BalanceAmount, string(inv.Status),
		inv.IssueDate, inv.DueDate, inv.Notes, inv.Version, inv.CreatedAt, inv.UpdatedAt)
	var pgErr *pgconn.PgError
	if ierr.As(err, &pgErr) && pgErr.Code == pgForeignKeyViolation {
		return ierr.WithError(err).WithHint("client not found").Mark(ierr.ErrNotFound)
	}
	return mapError(err, "invoice number "+inv.InvoiceNumber)
}

// UpdateInvoice rewrites the mutable columns when the stored version matches.
func (p *Postgres) UpdateInvoice(ctx context.Context, inv *models.Invoice) error {
	items, payments, err := marshalLedger(inv)
	if err != nil {
		return err
	}
	row := p.db.QueryRowContext(ctx, `UPDATE invoices SET items = $1, subtotal = $2, tax = $3, total_amount = $4,
		payments = $5, paid_amount = $6, balance_amount = $7, status = $8, due_date = $9, notes = $10,
		version = version + 1, updated_at = $11
		WHERE id = $12 AND version = $13
		RETURNING version`,
		items, inv.Subtotal, inv.Tax, inv.TotalAmount,
		payments, inv.PaidAmount, inv.BalanceAmount, string(inv.Status), inv.DueDate, inv.Notes,
		inv.UpdatedAt, inv.ID, inv.Version)

	var version int
	if err := row.Scan(&version); err != nil {
		if !ierr.Is(err, sql.ErrNoRows) {
			return mapError(err, "invoice")
		}
		var exists bool
		if err := p.db.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM invoices WHERE id = $1)`, inv.ID).Scan(&exists); err != nil {
			return mapError(err, "invoice")
		}
		if !exists {
			return ierr.NewError("invoice not found").WithHint("invoice not found").Mark(ierr.ErrNotFound)
		}
		return ierr.NewError("invoice version changed").
			WithHint("invoice was modified concurrently; reload and retry").
			Mark(ierr.ErrConflict)
	}
	inv.Version = version
	return nil
}

func (p *Postgres) DeleteInvoice(ctx context.Context, id string) error {
	res, err := p.db.ExecContext(ctx, "DELETE FROM invoices WHERE id = $1", id)
	if err != nil {
		return mapError(err, "invoice")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ierr.NewError("invoice not found").WithHint("invoice not found").Mark(ierr.ErrNotFound)
	}
	return nil
}

func (p *Postgres) NextInvoiceSequence(ctx context.Context, period string) (int64, error) {
	var last int64
	err := p.db.QueryRowContext(ctx, `INSERT INTO invoice_sequences (year_month, last_value, updated_at)
		VALUES ($1, 1, now())
		ON CONFLICT (year_month) DO UPDATE
		SET last_value = invoice_sequences.last_value + 1,
			updated_at = now()
		RETURNING last_value`, period).Scan(&last)
	if err != nil {
		return 0, mapError(err, "invoice sequence")
	}
	return last, nil
}

func marshalLedger(inv *models.Invoice) (items, payments []byte, err error) {
	if items, err = json.Marshal(nonNil(inv.Items)); err != nil {
		return nil, nil, ierr.WithError(err).WithHint("encoding invoice items").Mark(ierr.ErrSystem)
	}
	if payments, err = json.Marshal(nonNil(inv.Payments)); err != nil {
		return nil, nil, ierr.WithError(err).WithHint("encoding invoice payments").Mark(ierr.ErrSystem)
	}
	return items, payments, nil
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}

// --- service catalog ---

const serviceSelectQuery = `SELECT id, name, description, base_price, category, is_active, created_at, updated_at
		FROM service_items`

func scanService(scanner interface{ Scan(...any) error }) (*models.ServiceItem, error) {
	var s models.ServiceItem
	err := scanner.Scan(&s.ID, &s.Name, &s.Description, &s.BasePrice, &s.Category, &s.IsActive,
		&s.CreatedAt, &s.UpdatedAt)
	return &s, err
}

func (p *Postgres) GetService(ctx context.Context, id string) (*models.ServiceItem, error) {
	s, err := scanService(p.db.QueryRowContext(ctx, serviceSelectQuery+" WHERE id = $1", id))
	if err != nil {
		return nil, mapError(err, "service")
	}
	return s, nil
}

func (p *Postgres) ListServices(ctx context.Context, filter models.ServiceFilter) ([]*models.ServiceItem, error) {
	query := serviceSelectQuery
	var conditions []string
	var args []any

	if filter.Category != nil {
		args = append(args, string(*filter.Category))
		conditions = append(conditions, "category = $"+strconv.Itoa(len(args)))
	}
	if filter.Active != nil {
		args = append(args, *filter.Active)
		conditions = append(conditions, "is_active = $"+strconv.Itoa(len(args)))
	}
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY category, name"

	rows, err := p.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, mapError(err, "service")
	}
	defer rows.Close()

	services := []*models.ServiceItem{}
	for rows.Next() {
		s, err := scanService(rows)
		if err != nil {
			return nil, mapError(err, "service")
		}
		services = append(services, s)
	}
	return services, mapError(rows.Err(), "service")
}

func (p *Postgres) CreateService(ctx context.Context, s *models.ServiceItem) error {
	_, err := p.db.ExecContext(ctx, `INSERT INTO service_items (id, name, description, base_price, category,
		is_active, created_at, updated_at) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		s.ID, s.Name, s.Description, s.BasePrice, string(s.Category), s.IsActive, s.CreatedAt, s.UpdatedAt)
	return mapError(err, "service")
}

func (p *Postgres) UpdateService(ctx context.Context, s *models.ServiceItem) error {
	res, err := p.db.ExecContext(ctx, `UPDATE service_items SET name = $1, description = $2, base_price = $3,
		category = $4, is_active = $5, updated_at = $6 WHERE id = $7`,
		s.Name, s.Description, s.BasePrice, string(s.Category), s.IsActive, s.UpdatedAt, s.ID)
	if err != nil {
		return mapError(err, "service")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ierr.NewError("service not found").WithHint("service not found").Mark(ierr.ErrNotFound)
	}
	return nil
}

func (p *Postgres) DeleteService(ctx context.Context, id string) error {
	res, err := p.db.ExecContext(ctx, "DELETE FROM service_items WHERE id = $1", id)
	if err != nil {
		return mapError(err, "service")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ierr.NewError("service not found").WithHint("service not found").Mark(ierr.ErrNotFound)
	}
	return nil
}

func (p *Postgres) ServiceInUse(ctx context.Context, id string) (bool, error) {
	probe, err := json.Marshal([]map[string]string{{"service_id": id}})
	if err != nil {
		return false, ierr.WithError(err).Mark(ierr.ErrSystem)
	}
	var inUse bool
	err = p.db.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM invoices WHERE items @> $1::jsonb)`, probe).Scan(&inUse)
	return inUse, mapError(err, "service")
}

// --- clients ---

const clientSelectQuery = `SELECT id, name, email, phone, created_at, updated_at FROM clients`

func scanClient(scanner interface{ Scan(...any) error }) (*models.Client, error) {
	var c models.Client
	err := scanner.Scan(&c.ID, &c.Name, &c.Email, &c.Phone, &c.CreatedAt, &c.UpdatedAt)
	return &c, err
}

func (p *Postgres) GetClient(ctx context.Context, id string) (*models.Client, error) {
	c, err := scanClient(p.db.QueryRowContext(ctx, clientSelectQuery+" WHERE id = $1", id))
	if err != nil {
		return nil, mapError(err, "client")
	}
	return c, nil
}

func (p *Postgres) ListClients(ctx context.Context, search string) ([]*models.Client, error) {
	query := clientSelectQuery
	var args []any
	if search != "" {
		query += " WHERE name ILIKE $1 OR email ILIKE $1 OR phone ILIKE $1"
		args = append(args, "%"+search+"%")
	}
	query += " ORDER BY name"

	rows, err := p.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, mapError(err, "client")
	}
	defer rows.Close()

	clients := []*models.Client{}
	for rows.Next() {
		c, err := scanClient(rows)
		if err != nil {
			return nil, mapError(err, "client")
		}
		clients = append(clients, c)
	}
	return clients, mapError(rows.Err(), "client")
}

func (p *Postgres) CreateClient(ctx context.Context, c *models.Client) error {
	_, err := p.db.ExecContext(ctx, `INSERT INTO clients (id, name, email, phone, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)`, c.ID, c.Name, c.Email, c.Phone, c.CreatedAt, c.UpdatedAt)
	return mapError(err, "client")
}

func (p *Postgres) UpdateClient(ctx context.Context, c *models.Client) error {
	res, err := p.db.ExecContext(ctx, `UPDATE clients SET name = $1, email = $2, phone = $3, updated_at = $4
		WHERE id = $5`, c.Name, c.Email, c.Phone, c.UpdatedAt, c.ID)
	if err != nil {
		return mapError(err, "client")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ierr.NewError("client not found").WithHint("client not found").Mark(ierr.ErrNotFound)
	}
	return nil
}

func (p *Postgres) DeleteClient(ctx context.Context, id string) error {
	res, err := p.db.ExecContext(ctx, "DELETE FROM clients WHERE id = $1", id)
	if err != nil {
		return mapError(err, "client")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ierr.NewError("client not found").WithHint("client not found").Mark(ierr.ErrNotFound)
	}
	return nil
}
