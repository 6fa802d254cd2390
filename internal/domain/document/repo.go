package document

import "context"

// Repository persists clinical documents, templates and report metadata.
type Repository interface {
	Upsert(ctx context.Context, d *Document) error
	GetByID(ctx context.Context, id int64) (*Document, error)
	GetByEncounterAndType(ctx context.Context, encounterID int64, docType string) (*Document, error)
	ListByEncounter(ctx context.Context, encounterID int64) ([]*Document, error)
	CloseEncounter(ctx context.Context, encounterID int64) error

	SaveTemplate(ctx context.Context, d *Document) error
	ListTemplates(ctx context.Context, docType string) ([]*Document, error)
	DeleteTemplate(ctx context.Context, id int64) (bool, error)

	CreateReport(ctx context.Context, rep *MedicalReport) error
	ListReportsByEncounter(ctx context.Context, encounterID int64) ([]*MedicalReport, error)
	GetReport(ctx context.Context, id int64) (*MedicalReport, error)
}
