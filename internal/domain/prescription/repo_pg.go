package prescription

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/patientdocs/api/internal/platform/db"
)

const prescriptionColumns = `id, encounter_id, patient_id, medication_name, dosage, frequency, duration, instructions, doctor_id, created_at`

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

func (r *PgRepository) Add(ctx context.Context, p *Prescription) error {
	row := r.conn(ctx).QueryRow(ctx, `
		INSERT INTO prescriptions (encounter_id, patient_id, medication_name, dosage, frequency, duration, instructions, doctor_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, created_at`,
		p.EncounterID, p.PatientID, p.MedicationName, p.Dosage, p.Frequency, p.Duration, p.Instructions, p.DoctorID)
	if err := row.Scan(&p.ID, &p.CreatedAt); err != nil {
		return fmt.Errorf("insert prescription: %w", err)
	}
	return nil
}

func (r *PgRepository) GetByID(ctx context.Context, id int64) (*Prescription, error) {
	row := r.conn(ctx).QueryRow(ctx,
		`SELECT `+prescriptionColumns+` FROM prescriptions WHERE id = $1`, id)
	p, err := scanPrescription(row)
	if err != nil {
		return nil, db.NotFound(err)
	}
	return p, nil
}

func (r *PgRepository) ListByEncounter(ctx context.Context, encounterID int64) ([]*Prescription, error) {
	rows, err := r.conn(ctx).Query(ctx,
		`SELECT `+prescriptionColumns+` FROM prescriptions WHERE encounter_id = $1 ORDER BY id ASC`,
		encounterID)
	if err != nil {
		return nil, fmt.Errorf("list prescriptions: %w", err)
	}
	defer rows.Close()

	var out []*Prescription
	for rows.Next() {
		p, err := scanPrescription(rows)
		if err != nil {
			return nil, fmt.Errorf("scan prescription: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (r *PgRepository) Delete(ctx context.Context, id int64) (bool, error) {
	tag, err := r.conn(ctx).Exec(ctx, `DELETE FROM prescriptions WHERE id = $1`, id)
	if err != nil {
		return false, fmt.Errorf("delete prescription: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

func (r *PgRepository) EncounterInfo(ctx context.Context, encounterID int64) (string, string, time.Time, error) {
	var patientName, doctorName string
	var date time.Time
	err := r.conn(ctx).QueryRow(ctx,
		`SELECT patient_name, doctor_name, date FROM encounters WHERE id = $1`, encounterID).
		Scan(&patientName, &doctorName, &date)
	if err != nil {
		return "", "", time.Time{}, db.NotFound(err)
	}
	return patientName, doctorName, date, nil
}

func scanPrescription(row pgx.Row) (*Prescription, error) {
	p := &Prescription{}
	err := row.Scan(&p.ID, &p.EncounterID, &p.PatientID, &p.MedicationName, &p.Dosage,
		&p.Frequency, &p.Duration, &p.Instructions, &p.DoctorID, &p.CreatedAt)
	if err != nil {
		return nil, err
	}
	return p, nil
}
