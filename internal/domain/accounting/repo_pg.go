package accounting

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/patientdocs/api/internal/platform/db"
)

const entryColumns = `id, date, invoice_number, beneficiary, payment_method, payment_reference, amount, created_at, updated_at`

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

func (r *PgRepository) Save(ctx context.Context, e *Entry) error {
	if e.ID == 0 {
		row := r.conn(ctx).QueryRow(ctx, `
			INSERT INTO accounting_entries (date, invoice_number, beneficiary, payment_method, payment_reference, amount)
			VALUES ($1, $2, $3, $4, $5, $6)
			RETURNING id, created_at, updated_at`,
			e.Date, e.InvoiceNumber, e.Beneficiary, e.PaymentMethod, e.PaymentReference, e.Amount)
		if err := row.Scan(&e.ID, &e.CreatedAt, &e.UpdatedAt); err != nil {
			return fmt.Errorf("insert accounting entry: %w", err)
		}
		return nil
	}

	row := r.conn(ctx).QueryRow(ctx, `
		UPDATE accounting_entries
		SET date = $2, invoice_number = $3, beneficiary = $4, payment_method = $5,
			payment_reference = $6, amount = $7, updated_at = now()
		WHERE id = $1
		RETURNING created_at, updated_at`,
		e.ID, e.Date, e.InvoiceNumber, e.Beneficiary, e.PaymentMethod, e.PaymentReference, e.Amount)
	if err := row.Scan(&e.CreatedAt, &e.UpdatedAt); err != nil {
		return db.NotFound(err)
	}
	return nil
}

func (r *PgRepository) GetByID(ctx context.Context, id int64) (*Entry, error) {
	row := r.conn(ctx).QueryRow(ctx,
		`SELECT `+entryColumns+` FROM accounting_entries WHERE id = $1`, id)
	e, err := scanEntry(row)
	if err != nil {
		return nil, db.NotFound(err)
	}
	return e, nil
}

func (r *PgRepository) List(ctx context.Context, f Filter, limit, offset int) ([]*Entry, int, error) {
	var conds []string
	var args []any
	if f.Search != "" {
		args = append(args, "%"+f.Search+"%")
		conds = append(conds, fmt.Sprintf("(beneficiary ILIKE $%d OR invoice_number ILIKE $%d)", len(args), len(args)))
	}
	if !f.From.IsZero() {
		args = append(args, f.From)
		conds = append(conds, fmt.Sprintf("date >= $%d", len(args)))
	}
	if !f.To.IsZero() {
		args = append(args, f.To)
		conds = append(conds, fmt.Sprintf("date <= $%d", len(args)))
	}
	where := ""
	if len(conds) > 0 {
		where = " WHERE " + strings.Join(conds, " AND ")
	}

	var total int
	if err := r.conn(ctx).QueryRow(ctx, `SELECT COUNT(*) FROM accounting_entries`+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count accounting entries: %w", err)
	}

	args = append(args, limit, offset)
	sql := fmt.Sprintf(`SELECT %s FROM accounting_entries%s ORDER BY date DESC, id DESC LIMIT $%d OFFSET $%d`,
		entryColumns, where, len(args)-1, len(args))
	rows, err := r.conn(ctx).Query(ctx, sql, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list accounting entries: %w", err)
	}
	defer rows.Close()

	var entries []*Entry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan accounting entry: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, total, rows.Err()
}

func (r *PgRepository) Delete(ctx context.Context, id int64) (bool, error) {
	tag, err := r.conn(ctx).Exec(ctx, `DELETE FROM accounting_entries WHERE id = $1`, id)
	if err != nil {
		return false, fmt.Errorf("delete accounting entry: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

func scanEntry(row pgx.Row) (*Entry, error) {
	e := &Entry{}
	err := row.Scan(&e.ID, &e.Date, &e.InvoiceNumber, &e.Beneficiary, &e.PaymentMethod,
		&e.PaymentReference, &e.Amount, &e.CreatedAt, &e.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return e, nil
}
