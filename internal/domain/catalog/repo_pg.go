package catalog

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/patientdocs/api/internal/platform/db"
)

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

// Dictionary inserts use ON CONFLICT on the name so repeated adds of the
// same entry return the existing id instead of duplicating it.

func (r *PgRepository) AddMedication(ctx context.Context, name string) (*Medication, error) {
	m := &Medication{Name: name}
	err := r.conn(ctx).QueryRow(ctx, `
		INSERT INTO medications (name) VALUES ($1)
		ON CONFLICT (name) DO UPDATE SET name = EXCLUDED.name
		RETURNING id`, name).Scan(&m.ID)
	if err != nil {
		return nil, fmt.Errorf("add medication: %w", err)
	}
	return m, nil
}

func (r *PgRepository) ListMedications(ctx context.Context, search string) ([]*Medication, error) {
	sql := `SELECT id, name FROM medications`
	args := []any{}
	if search != "" {
		sql += ` WHERE name ILIKE $1`
		args = append(args, "%"+search+"%")
	}
	sql += ` ORDER BY name ASC, id ASC`

	rows, err := r.conn(ctx).Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("list medications: %w", err)
	}
	defer rows.Close()

	var out []*Medication
	for rows.Next() {
		m := &Medication{}
		if err := rows.Scan(&m.ID, &m.Name); err != nil {
			return nil, fmt.Errorf("scan medication: %w", err)
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

func (r *PgRepository) AddUltrasoundType(ctx context.Context, name string) (*UltrasoundType, error) {
	t := &UltrasoundType{Name: name}
	err := r.conn(ctx).QueryRow(ctx, `
		INSERT INTO ultrasound_types (name) VALUES ($1)
		ON CONFLICT (name) DO UPDATE SET name = EXCLUDED.name
		RETURNING id`, name).Scan(&t.ID)
	if err != nil {
		return nil, fmt.Errorf("add ultrasound type: %w", err)
	}
	return t, nil
}

func (r *PgRepository) ListUltrasoundTypes(ctx context.Context) ([]*UltrasoundType, error) {
	rows, err := r.conn(ctx).Query(ctx,
		`SELECT id, name FROM ultrasound_types ORDER BY name ASC, id ASC`)
	if err != nil {
		return nil, fmt.Errorf("list ultrasound types: %w", err)
	}
	defer rows.Close()

	var out []*UltrasoundType
	for rows.Next() {
		t := &UltrasoundType{}
		if err := rows.Scan(&t.ID, &t.Name); err != nil {
			return nil, fmt.Errorf("scan ultrasound type: %w", err)
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func (r *PgRepository) AddAnalyseRadioType(ctx context.Context, name string) (*AnalyseRadioType, error) {
	t := &AnalyseRadioType{Name: name}
	err := r.conn(ctx).QueryRow(ctx, `
		INSERT INTO analyse_radio_types (name) VALUES ($1)
		ON CONFLICT (name) DO UPDATE SET name = EXCLUDED.name
		RETURNING id`, name).Scan(&t.ID)
	if err != nil {
		return nil, fmt.Errorf("add analyse radio type: %w", err)
	}
	return t, nil
}

func (r *PgRepository) ListAnalyseRadioTypes(ctx context.Context) ([]*AnalyseRadioType, error) {
	rows, err := r.conn(ctx).Query(ctx,
		`SELECT id, name FROM analyse_radio_types ORDER BY name ASC, id ASC`)
	if err != nil {
		return nil, fmt.Errorf("list analyse radio types: %w", err)
	}
	defer rows.Close()

	var out []*AnalyseRadioType
	for rows.Next() {
		t := &AnalyseRadioType{}
		if err := rows.Scan(&t.ID, &t.Name); err != nil {
			return nil, fmt.Errorf("scan analyse radio type: %w", err)
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func (r *PgRepository) AddPatientUltrasound(ctx context.Context, pu *PatientUltrasound) error {
	err := r.conn(ctx).QueryRow(ctx, `
		INSERT INTO patient_ultrasounds (patient_id, encounter_id, type_id)
		VALUES ($1, $2, $3)
		RETURNING id, created_at`,
		pu.PatientID, pu.EncounterID, pu.TypeID).Scan(&pu.ID, &pu.CreatedAt)
	if err != nil {
		return fmt.Errorf("add patient ultrasound: %w", err)
	}
	return nil
}

func (r *PgRepository) ListPatientUltrasounds(ctx context.Context, encounterID int64) ([]*PatientUltrasound, error) {
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT pu.id, pu.patient_id, pu.encounter_id, pu.type_id, t.name, pu.created_at
		FROM patient_ultrasounds pu
		JOIN ultrasound_types t ON t.id = pu.type_id
		WHERE pu.encounter_id = $1
		ORDER BY pu.id ASC`, encounterID)
	if err != nil {
		return nil, fmt.Errorf("list patient ultrasounds: %w", err)
	}
	defer rows.Close()

	var out []*PatientUltrasound
	for rows.Next() {
		pu := &PatientUltrasound{}
		if err := rows.Scan(&pu.ID, &pu.PatientID, &pu.EncounterID, &pu.TypeID, &pu.TypeName, &pu.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan patient ultrasound: %w", err)
		}
		out = append(out, pu)
	}
	return out, rows.Err()
}

func (r *PgRepository) DeletePatientUltrasound(ctx context.Context, id int64) (bool, error) {
	tag, err := r.conn(ctx).Exec(ctx, `DELETE FROM patient_ultrasounds WHERE id = $1`, id)
	if err != nil {
		return false, fmt.Errorf("delete patient ultrasound: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

func (r *PgRepository) AddPatientAnalyseRadio(ctx context.Context, pa *PatientAnalyseRadio) error {
	err := r.conn(ctx).QueryRow(ctx, `
		INSERT INTO patient_analyse_radios (patient_id, encounter_id, type_id)
		VALUES ($1, $2, $3)
		RETURNING id, created_at`,
		pa.PatientID, pa.EncounterID, pa.TypeID).Scan(&pa.ID, &pa.CreatedAt)
	if err != nil {
		return fmt.Errorf("add patient analyse radio: %w", err)
	}
	return nil
}

func (r *PgRepository) ListPatientAnalyseRadios(ctx context.Context, encounterID int64) ([]*PatientAnalyseRadio, error) {
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT pa.id, pa.patient_id, pa.encounter_id, pa.type_id, t.name, pa.created_at
		FROM patient_analyse_radios pa
		JOIN analyse_radio_types t ON t.id = pa.type_id
		WHERE pa.encounter_id = $1
		ORDER BY pa.id ASC`, encounterID)
	if err != nil {
		return nil, fmt.Errorf("list patient analyse radios: %w", err)
	}
	defer rows.Close()

	var out []*PatientAnalyseRadio
	for rows.Next() {
		pa := &PatientAnalyseRadio{}
		if err := rows.Scan(&pa.ID, &pa.PatientID, &pa.EncounterID, &pa.TypeID, &pa.TypeName, &pa.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan patient analyse radio: %w", err)
		}
		out = append(out, pa)
	}
	return out, rows.Err()
}

func (r *PgRepository) DeletePatientAnalyseRadio(ctx context.Context, id int64) (bool, error) {
	tag, err := r.conn(ctx).Exec(ctx, `DELETE FROM patient_analyse_radios WHERE id = $1`, id)
	if err != nil {
		return false, fmt.Errorf("delete patient analyse radio: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

func (r *PgRepository) EncounterHeader(ctx context.Context, encounterID int64) (string, time.Time, error) {
	var patientName string
	var date time.Time
	err := r.conn(ctx).QueryRow(ctx,
		`SELECT patient_name, date FROM encounters WHERE id = $1`, encounterID).
		Scan(&patientName, &date)
	if err != nil {
		return "", time.Time{}, db.NotFound(err)
	}
	return patientName, date, nil
}
