package billing

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/patientdocs/api/internal/platform/db"
)

const billColumns = `b.id, b.encounter_id, b.patient_id, e.patient_name, COALESCE(p.email, ''),
	b.invoice_number, b.date, b.total, b.created_at, b.updated_at`

const billJoins = ` FROM bills b
	JOIN encounters e ON e.id = b.encounter_id
	LEFT JOIN patients p ON p.id = b.patient_id`

type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type PgRepository struct {
	pool *pgxpool.Pool
}

func NewPgRepository(pool *pgxpool.Pool) *PgRepository {
	return &PgRepository{pool: pool}
}

func (r *PgRepository) conn(ctx context.Context) querier {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	return r.pool
}

func (r *PgRepository) UpsertBill(ctx context.Context, b *Bill) error {
	row := r.conn(ctx).QueryRow(ctx, `
		INSERT INTO bills (encounter_id, patient_id, invoice_number, date, total)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (encounter_id)
		DO UPDATE SET total = EXCLUDED.total, date = EXCLUDED.date, updated_at = now()
		RETURNING id, invoice_number, created_at, updated_at`,
		b.EncounterID, b.PatientID, b.InvoiceNumber, b.Date, b.Total)
	if err := row.Scan(&b.ID, &b.InvoiceNumber, &b.CreatedAt, &b.UpdatedAt); err != nil {
		return fmt.Errorf("upsert bill: %w", err)
	}
	return nil
}

// ReplaceItems swaps out all items of a bill. Runs inside the caller's
// transaction so a failed replace never leaves a half-written bill.
func (r *PgRepository) ReplaceItems(ctx context.Context, billID int64, items []*BillItem) error {
	if _, err := r.conn(ctx).Exec(ctx, `DELETE FROM bill_items WHERE bill_id = $1`, billID); err != nil {
		return fmt.Errorf("clear bill items: %w", err)
	}
	for _, item := range items {
		item.BillID = billID
		err := r.conn(ctx).QueryRow(ctx, `
			INSERT INTO bill_items (bill_id, label, quantity, unit_price, amount)
			VALUES ($1, $2, $3, $4, $5)
			RETURNING id`,
			billID, item.Label, item.Quantity, item.UnitPrice, item.Amount).Scan(&item.ID)
		if err != nil {
			return fmt.Errorf("insert bill item: %w", err)
		}
	}
	return nil
}

func (r *PgRepository) GetByID(ctx context.Context, id int64) (*Bill, error) {
	row := r.conn(ctx).QueryRow(ctx,
		`SELECT `+billColumns+billJoins+` WHERE b.id = $1`, id)
	b, err := scanBill(row)
	if err != nil {
		return nil, db.NotFound(err)
	}
	if err := r.loadItems(ctx, b); err != nil {
		return nil, err
	}
	return b, nil
}

func (r *PgRepository) GetByEncounter(ctx context.Context, encounterID int64) (*Bill, error) {
	row := r.conn(ctx).QueryRow(ctx,
		`SELECT `+billColumns+billJoins+` WHERE b.encounter_id = $1`, encounterID)
	b, err := scanBill(row)
	if err != nil {
		return nil, db.NotFound(err)
	}
	if err := r.loadItems(ctx, b); err != nil {
		return nil, err
	}
	return b, nil
}

func (r *PgRepository) Delete(ctx context.Context, id int64) (bool, error) {
	tag, err := r.conn(ctx).Exec(ctx, `DELETE FROM bills WHERE id = $1`, id)
	if err != nil {
		return false, fmt.Errorf("delete bill: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

// NextInvoiceNumber bumps the yearly counter and formats it. The row upsert
// serializes concurrent callers on the year row lock.
func (r *PgRepository) NextInvoiceNumber(ctx context.Context, year int) (string, error) {
	var counter int
	err := r.conn(ctx).QueryRow(ctx, `
		INSERT INTO invoice_counters (year, counter) VALUES ($1, 1)
		ON CONFLICT (year) DO UPDATE SET counter = invoice_counters.counter + 1
		RETURNING counter`, year).Scan(&counter)
	if err != nil {
		return "", fmt.Errorf("next invoice number: %w", err)
	}
	return fmt.Sprintf("%d-%04d", year, counter), nil
}

func (r *PgRepository) loadItems(ctx context.Context, b *Bill) error {
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT id, bill_id, label, quantity, unit_price, amount
		FROM bill_items WHERE bill_id = $1 ORDER BY id ASC`, b.ID)
	if err != nil {
		return fmt.Errorf("load bill items: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		item := &BillItem{}
		if err := rows.Scan(&item.ID, &item.BillID, &item.Label, &item.Quantity, &item.UnitPrice, &item.Amount); err != nil {
			return fmt.Errorf("scan bill item: %w", err)
		}
		b.Items = append(b.Items, item)
	}
	return rows.Err()
}

func scanBill(row pgx.Row) (*Bill, error) {
	b := &Bill{}
	err := row.Scan(&b.ID, &b.EncounterID, &b.PatientID, &b.PatientName, &b.PatientEmail,
		&b.InvoiceNumber, &b.Date, &b.Total, &b.CreatedAt, &b.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return b, nil
}
