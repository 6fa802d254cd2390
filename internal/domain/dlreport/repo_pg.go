package dlreport

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/patientdocs/api/internal/platform/db"
)

const recordColumns = `id, order_number, date, patient_name, cin, license_type, interest_status, file_id, created_at, updated_at`

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

func (r *PgRepository) Save(ctx context.Context, rec *Record) error {
	if rec.ID == 0 {
		row := r.conn(ctx).QueryRow(ctx, `
			INSERT INTO driver_license_records (order_number, date, patient_name, cin, license_type, interest_status)
			VALUES ($1, $2, $3, $4, $5, $6)
			RETURNING id, created_at, updated_at`,
			rec.OrderNumber, rec.Date, rec.PatientName, rec.CIN, rec.LicenseType, rec.InterestStatus)
		if err := row.Scan(&rec.ID, &rec.CreatedAt, &rec.UpdatedAt); err != nil {
			return fmt.Errorf("insert driver license record: %w", err)
		}
		return nil
	}

	row := r.conn(ctx).QueryRow(ctx, `
		UPDATE driver_license_records
		SET order_number = $2, date = $3, patient_name = $4, cin = $5,
			license_type = $6, interest_status = $7, updated_at = now()
		WHERE id = $1
		RETURNING created_at, updated_at`,
		rec.ID, rec.OrderNumber, rec.Date, rec.PatientName, rec.CIN, rec.LicenseType, rec.InterestStatus)
	if err := row.Scan(&rec.CreatedAt, &rec.UpdatedAt); err != nil {
		return db.NotFound(err)
	}
	return nil
}

func (r *PgRepository) GetByID(ctx context.Context, id int64) (*Record, error) {
	row := r.conn(ctx).QueryRow(ctx,
		`SELECT `+recordColumns+` FROM driver_license_records WHERE id = $1`, id)
	rec, err := scanRecord(row)
	if err != nil {
		return nil, db.NotFound(err)
	}
	return rec, nil
}

func (r *PgRepository) List(ctx context.Context, f Filter, limit, offset int) ([]*Record, int, error) {
	where, args := buildFilter(f)

	var total int
	if err := r.conn(ctx).QueryRow(ctx, `SELECT COUNT(*) FROM driver_license_records`+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count driver license records: %w", err)
	}

	args = append(args, limit, offset)
	sql := fmt.Sprintf(`SELECT %s FROM driver_license_records%s ORDER BY date DESC, id DESC LIMIT $%d OFFSET $%d`,
		recordColumns, where, len(args)-1, len(args))
	rows, err := r.conn(ctx).Query(ctx, sql, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list driver license records: %w", err)
	}
	defer rows.Close()

	var records []*Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan driver license record: %w", err)
		}
		records = append(records, rec)
	}
	return records, total, rows.Err()
}

func (r *PgRepository) Delete(ctx context.Context, id int64) (bool, error) {
	tag, err := r.conn(ctx).Exec(ctx, `DELETE FROM driver_license_records WHERE id = $1`, id)
	if err != nil {
		return false, fmt.Errorf("delete driver license record: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

func (r *PgRepository) SetFile(ctx context.Context, id int64, fileID string) (bool, error) {
	tag, err := r.conn(ctx).Exec(ctx,
		`UPDATE driver_license_records SET file_id = $2, updated_at = now() WHERE id = $1`, id, fileID)
	if err != nil {
		return false, fmt.Errorf("set driver license record file: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

// buildFilter renders the WHERE clause for f. Constraints are ANDed; the
// named windows resolve against the database clock so "today" matches what
// the encounter list calls today.
func buildFilter(f Filter) (string, []any) {
	var conds []string
	var args []any

	if f.Search != "" {
		args = append(args, "%"+f.Search+"%")
		conds = append(conds, fmt.Sprintf("(patient_name ILIKE $%d OR cin ILIKE $%d OR order_number ILIKE $%d)",
			len(args), len(args), len(args)))
	}
	switch f.DateFilter {
	case DateFilterToday:
		conds = append(conds, "date::date = CURRENT_DATE")
	case DateFilterWeek:
		conds = append(conds, "date >= date_trunc('week', now()) AND date < date_trunc('week', now()) + interval '7 days'")
	default:
		// custom, or a bare from/to range with no named window
		if !f.From.IsZero() {
			args = append(args, f.From)
			conds = append(conds, fmt.Sprintf("date >= $%d", len(args)))
		}
		if !f.To.IsZero() {
			args = append(args, f.To)
			conds = append(conds, fmt.Sprintf("date <= $%d", len(args)))
		}
	}

	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

func scanRecord(row pgx.Row) (*Record, error) {
	rec := &Record{}
	err := row.Scan(&rec.ID, &rec.OrderNumber, &rec.Date, &rec.PatientName, &rec.CIN,
		&rec.LicenseType, &rec.InterestStatus, &rec.FileID, &rec.CreatedAt, &rec.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return rec, nil
}
