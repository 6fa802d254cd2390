package document

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/patientdocs/api/internal/platform/db"
)

const documentColumns = `id, encounter_id, document_type, content, is_template, template_name, created_by, created_at, updated_at`

const reportColumns = `id, encounter_id, file_id, file_name, content_type, size, created_by, created_at`

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

// Upsert writes the document for its encounter and type, overwriting the
// content if one already exists. The partial unique index on non-template
// rows backs the ON CONFLICT clause.
func (r *PgRepository) Upsert(ctx context.Context, d *Document) error {
	row := r.conn(ctx).QueryRow(ctx, `
		INSERT INTO documents (encounter_id, document_type, content, is_template, created_by)
		VALUES ($1, $2, $3, false, $4)
		ON CONFLICT (encounter_id, document_type) WHERE NOT is_template
		DO UPDATE SET content = EXCLUDED.content, updated_at = now()
		RETURNING id, created_at, updated_at`,
		d.EncounterID, d.DocumentType, d.Content, d.CreatedBy)
	if err := row.Scan(&d.ID, &d.CreatedAt, &d.UpdatedAt); err != nil {
		return fmt.Errorf("upsert document: %w", err)
	}
	return nil
}

func (r *PgRepository) GetByID(ctx context.Context, id int64) (*Document, error) {
	row := r.conn(ctx).QueryRow(ctx,
		`SELECT `+documentColumns+` FROM documents WHERE id = $1`, id)
	d, err := scanDocument(row)
	if err != nil {
		return nil, db.NotFound(err)
	}
	return d, nil
}

func (r *PgRepository) GetByEncounterAndType(ctx context.Context, encounterID int64, docType string) (*Document, error) {
	row := r.conn(ctx).QueryRow(ctx, `
		SELECT `+documentColumns+` FROM documents
		WHERE encounter_id = $1 AND document_type = $2 AND NOT is_template`,
		encounterID, docType)
	d, err := scanDocument(row)
	if err != nil {
		return nil, db.NotFound(err)
	}
	return d, nil
}

func (r *PgRepository) ListByEncounter(ctx context.Context, encounterID int64) ([]*Document, error) {
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT `+documentColumns+` FROM documents
		WHERE encounter_id = $1 AND NOT is_template
		ORDER BY document_type ASC`, encounterID)
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}
	defer rows.Close()
	return collectDocuments(rows)
}

func (r *PgRepository) CloseEncounter(ctx context.Context, encounterID int64) error {
	_, err := r.conn(ctx).Exec(ctx,
		`UPDATE encounters SET status = 'closed', updated_at = now() WHERE id = $1`, encounterID)
	if err != nil {
		return fmt.Errorf("close encounter: %w", err)
	}
	return nil
}

func (r *PgRepository) SaveTemplate(ctx context.Context, d *Document) error {
	row := r.conn(ctx).QueryRow(ctx, `
		INSERT INTO documents (document_type, content, is_template, template_name, created_by)
		VALUES ($1, $2, true, $3, $4)
		ON CONFLICT (document_type, template_name) WHERE is_template
		DO UPDATE SET content = EXCLUDED.content, updated_at = now()
		RETURNING id, created_at, updated_at`,
		d.DocumentType, d.Content, d.TemplateName, d.CreatedBy)
	if err := row.Scan(&d.ID, &d.CreatedAt, &d.UpdatedAt); err != nil {
		return fmt.Errorf("save template: %w", err)
	}
	d.IsTemplate = true
	return nil
}

func (r *PgRepository) ListTemplates(ctx context.Context, docType string) ([]*Document, error) {
	sql := `SELECT ` + documentColumns + ` FROM documents WHERE is_template`
	args := []any{}
	if docType != "" {
		sql += ` AND document_type = $1`
		args = append(args, docType)
	}
	sql += ` ORDER BY template_name ASC, id ASC`

	rows, err := r.conn(ctx).Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("list templates: %w", err)
	}
	defer rows.Close()
	return collectDocuments(rows)
}

func (r *PgRepository) DeleteTemplate(ctx context.Context, id int64) (bool, error) {
	tag, err := r.conn(ctx).Exec(ctx,
		`DELETE FROM documents WHERE id = $1 AND is_template`, id)
	if err != nil {
		return false, fmt.Errorf("delete template: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

func (r *PgRepository) CreateReport(ctx context.Context, rep *MedicalReport) error {
	row := r.conn(ctx).QueryRow(ctx, `
		INSERT INTO medical_reports (encounter_id, file_id, file_name, content_type, size, created_by)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at`,
		rep.EncounterID, rep.FileID, rep.FileName, rep.ContentType, rep.Size, rep.CreatedBy)
	if err := row.Scan(&rep.ID, &rep.CreatedAt); err != nil {
		return fmt.Errorf("insert medical report: %w", err)
	}
	return nil
}

func (r *PgRepository) ListReportsByEncounter(ctx context.Context, encounterID int64) ([]*MedicalReport, error) {
	rows, err := r.conn(ctx).Query(ctx,
		`SELECT `+reportColumns+` FROM medical_reports WHERE encounter_id = $1 ORDER BY id ASC`,
		encounterID)
	if err != nil {
		return nil, fmt.Errorf("list medical reports: %w", err)
	}
	defer rows.Close()

	var out []*MedicalReport
	for rows.Next() {
		rep := &MedicalReport{}
		if err := rows.Scan(&rep.ID, &rep.EncounterID, &rep.FileID, &rep.FileName,
			&rep.ContentType, &rep.Size, &rep.CreatedBy, &rep.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan medical report: %w", err)
		}
		out = append(out, rep)
	}
	return out, rows.Err()
}

func (r *PgRepository) GetReport(ctx context.Context, id int64) (*MedicalReport, error) {
	rep := &MedicalReport{}
	err := r.conn(ctx).QueryRow(ctx,
		`SELECT `+reportColumns+` FROM medical_reports WHERE id = $1`, id).
		Scan(&rep.ID, &rep.EncounterID, &rep.FileID, &rep.FileName,
			&rep.ContentType, &rep.Size, &rep.CreatedBy, &rep.CreatedAt)
	if err != nil {
		return nil, db.NotFound(err)
	}
	return rep, nil
}

func scanDocument(row pgx.Row) (*Document, error) {
	d := &Document{}
	err := row.Scan(&d.ID, &d.EncounterID, &d.DocumentType, &d.Content, &d.IsTemplate,
		&d.TemplateName, &d.CreatedBy, &d.CreatedAt, &d.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return d, nil
}

func collectDocuments(rows pgx.Rows) ([]*Document, error) {
	var docs []*Document
	for rows.Next() {
		d, err := scanDocument(rows)
		if err != nil {
			return nil, fmt.Errorf("scan document: %w", err)
		}
		docs = append(docs, d)
	}
	return docs, rows.Err()
}
