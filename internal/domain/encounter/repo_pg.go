package encounter

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/patientdocs/api/internal/platform/db"
)

const encounterColumns = `id, patient_id, patient_name, doctor_id, doctor_name, date, status, created_at, updated_at`

const appointmentColumns = `id, patient_id, patient_name, doctor_id, date, status, created_at`

type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PgRepository is the pgx-backed Repository.
type PgRepository struct {
	pool *pgxpool.Pool
}

func NewPgRepository(pool *pgxpool.Pool) *PgRepository {
	return &PgRepository{pool: pool}
}

// conn returns the transaction bound to ctx when one is open, otherwise the
// shared pool.
func (r *PgRepository) conn(ctx context.Context) querier {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	return r.pool
}

func (r *PgRepository) Create(ctx context.Context, enc *Encounter) error {
	row := r.conn(ctx).QueryRow(ctx, `
		INSERT INTO encounters (patient_id, patient_name, doctor_id, doctor_name, date, status)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at, updated_at`,
		enc.PatientID, enc.PatientName, enc.DoctorID, enc.DoctorName, enc.Date, enc.Status)
	if err := row.Scan(&enc.ID, &enc.CreatedAt, &enc.UpdatedAt); err != nil {
		return fmt.Errorf("insert encounter: %w", err)
	}
	return nil
}

func (r *PgRepository) GetByID(ctx context.Context, id int64) (*Encounter, error) {
	row := r.conn(ctx).QueryRow(ctx,
		`SELECT `+encounterColumns+` FROM encounters WHERE id = $1`, id)
	enc, err := scanEncounter(row)
	if err != nil {
		return nil, db.NotFound(err)
	}
	return enc, nil
}

// List applies the filter and returns one page plus the total match count.
// Results come back newest first, ties broken by id, so pages are stable.
func (r *PgRepository) List(ctx context.Context, f Filter, limit, offset int) ([]*Encounter, int, error) {
	where, args := buildFilter(f)

	var total int
	countSQL := `SELECT COUNT(*) FROM encounters` + where
	if err := r.conn(ctx).QueryRow(ctx, countSQL, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count encounters: %w", err)
	}

	args = append(args, limit, offset)
	listSQL := fmt.Sprintf(`SELECT %s FROM encounters%s ORDER BY date DESC, id DESC LIMIT $%d OFFSET $%d`,
		encounterColumns, where, len(args)-1, len(args))
	rows, err := r.conn(ctx).Query(ctx, listSQL, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list encounters: %w", err)
	}
	defer rows.Close()

	encs, err := collectEncounters(rows)
	if err != nil {
		return nil, 0, err
	}
	return encs, total, nil
}

func (r *PgRepository) UpdateStatus(ctx context.Context, id int64, status string) (bool, error) {
	tag, err := r.conn(ctx).Exec(ctx,
		`UPDATE encounters SET status = $2, updated_at = now() WHERE id = $1`, id, status)
	if err != nil {
		return false, fmt.Errorf("update encounter status: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

func (r *PgRepository) Delete(ctx context.Context, id int64) (bool, error) {
	tag, err := r.conn(ctx).Exec(ctx, `DELETE FROM encounters WHERE id = $1`, id)
	if err != nil {
		return false, fmt.Errorf("delete encounter: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

func (r *PgRepository) ListAppointmentsByMonth(ctx context.Context, year, month int) ([]*Appointment, error) {
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT `+appointmentColumns+` FROM appointments
		WHERE date_part('year', date) = $1 AND date_part('month', date) = $2
		ORDER BY date ASC, id ASC`, year, month)
	if err != nil {
		return nil, fmt.Errorf("list appointments: %w", err)
	}
	defer rows.Close()

	var appts []*Appointment
	for rows.Next() {
		a := &Appointment{}
		if err := rows.Scan(&a.ID, &a.PatientID, &a.PatientName, &a.DoctorID, &a.Date, &a.Status, &a.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan appointment: %w", err)
		}
		appts = append(appts, a)
	}
	return appts, rows.Err()
}

func (r *PgRepository) DeleteAppointment(ctx context.Context, id int64) (bool, error) {
	tag, err := r.conn(ctx).Exec(ctx, `DELETE FROM appointments WHERE id = $1`, id)
	if err != nil {
		return false, fmt.Errorf("delete appointment: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

func (r *PgRepository) ListPatientIDsByDoctor(ctx context.Context, doctorID int64) ([]int64, error) {
	rows, err := r.conn(ctx).Query(ctx,
		`SELECT DISTINCT patient_id FROM appointments WHERE doctor_id = $1`, doctorID)
	if err != nil {
		return nil, fmt.Errorf("list roster: %w", err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan roster id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// buildFilter renders the WHERE clause for f. Every present constraint is
// ANDed so a narrow search can still be scoped to a date window and status.
func buildFilter(f Filter) (string, []any) {
	var conds []string
	var args []any

	if f.Search != "" {
		args = append(args, "%"+f.Search+"%")
		conds = append(conds, fmt.Sprintf("patient_name ILIKE $%d", len(args)))
	}
	switch f.DateFilter {
	case DateFilterToday:
		conds = append(conds, "date::date = CURRENT_DATE")
	case DateFilterWeek:
		conds = append(conds, "date >= date_trunc('week', now()) AND date < date_trunc('week', now()) + interval '7 days'")
	case DateFilterCustom:
		if !f.From.IsZero() {
			args = append(args, f.From)
			conds = append(conds, fmt.Sprintf("date >= $%d", len(args)))
		}
		if !f.To.IsZero() {
			args = append(args, f.To)
			conds = append(conds, fmt.Sprintf("date <= $%d", len(args)))
		}
	}
	if f.Status != "" && f.Status != "all" {
		args = append(args, f.Status)
		conds = append(conds, fmt.Sprintf("status = $%d", len(args)))
	}

	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

func scanEncounter(row pgx.Row) (*Encounter, error) {
	e := &Encounter{}
	err := row.Scan(&e.ID, &e.PatientID, &e.PatientName, &e.DoctorID, &e.DoctorName,
		&e.Date, &e.Status, &e.CreatedAt, &e.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return e, nil
}

func collectEncounters(rows pgx.Rows) ([]*Encounter, error) {
	var encs []*Encounter
	for rows.Next() {
		e, err := scanEncounter(rows)
		if err != nil {
			return nil, fmt.Errorf("scan encounter: %w", err)
		}
		encs = append(encs, e)
	}
	return encs, rows.Err()
}
