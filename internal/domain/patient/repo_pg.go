package patient

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/patientdocs/api/internal/platform/db"
)

const patientColumns = `id, name, email, phone, birth_date, address, created_at, updated_at`

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

func (r *PgRepository) Create(ctx context.Context, p *Patient) error {
	row := r.conn(ctx).QueryRow(ctx, `
		INSERT INTO patients (name, email, phone, birth_date, address)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at, updated_at`,
		p.Name, p.Email, p.Phone, p.BirthDate, p.Address)
	if err := row.Scan(&p.ID, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return fmt.Errorf("insert patient: %w", err)
	}
	return nil
}

func (r *PgRepository) GetByID(ctx context.Context, id int64) (*Patient, error) {
	row := r.conn(ctx).QueryRow(ctx,
		`SELECT `+patientColumns+` FROM patients WHERE id = $1`, id)
	p, err := scanPatient(row)
	if err != nil {
		return nil, db.NotFound(err)
	}
	return p, nil
}

func (r *PgRepository) List(ctx context.Context, search string, limit, offset int) ([]*Patient, int, error) {
	where := ""
	args := []any{}
	if search != "" {
		where = ` WHERE name ILIKE $1 OR phone ILIKE $1`
		args = append(args, "%"+search+"%")
	}

	var total int
	if err := r.conn(ctx).QueryRow(ctx, `SELECT COUNT(*) FROM patients`+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count patients: %w", err)
	}

	args = append(args, limit, offset)
	sql := fmt.Sprintf(`SELECT %s FROM patients%s ORDER BY name ASC, id ASC LIMIT $%d OFFSET $%d`,
		patientColumns, where, len(args)-1, len(args))
	rows, err := r.conn(ctx).Query(ctx, sql, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list patients: %w", err)
	}
	defer rows.Close()

	var patients []*Patient
	for rows.Next() {
		p, err := scanPatient(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan patient: %w", err)
		}
		patients = append(patients, p)
	}
	return patients, total, rows.Err()
}

func (r *PgRepository) Delete(ctx context.Context, id int64) (bool, error) {
	tag, err := r.conn(ctx).Exec(ctx, `DELETE FROM patients WHERE id = $1`, id)
	if err != nil {
		return false, fmt.Errorf("delete patient: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

// LatestEncounter returns the patient's most recent encounter, or nil when
// the patient has none yet.
func (r *PgRepository) LatestEncounter(ctx context.Context, patientID int64) (*ViewEncounter, error) {
	e := &ViewEncounter{}
	err := r.conn(ctx).QueryRow(ctx, `
		SELECT id, date, status FROM encounters
		WHERE patient_id = $1
		ORDER BY date DESC, id DESC
		LIMIT 1`, patientID).Scan(&e.ID, &e.Date, &e.Status)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("latest encounter: %w", err)
	}
	return e, nil
}

func (r *PgRepository) PrescriptionsForEncounter(ctx context.Context, encounterID int64) ([]*ViewPrescription, error) {
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT id, medication_name, dosage, frequency, duration
		FROM prescriptions
		WHERE encounter_id = $1
		ORDER BY id ASC`, encounterID)
	if err != nil {
		return nil, fmt.Errorf("prescriptions for encounter: %w", err)
	}
	defer rows.Close()

	var out []*ViewPrescription
	for rows.Next() {
		p := &ViewPrescription{}
		if err := rows.Scan(&p.ID, &p.MedicationName, &p.Dosage, &p.Frequency, &p.Duration); err != nil {
			return nil, fmt.Errorf("scan prescription: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func scanPatient(row pgx.Row) (*Patient, error) {
	p := &Patient{}
	err := row.Scan(&p.ID, &p.Name, &p.Email, &p.Phone, &p.BirthDate, &p.Address, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return p, nil
}
