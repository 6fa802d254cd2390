package patient

import "context"

// Repository persists patients and reads the patient page aggregates.
type Repository interface {
	Create(ctx context.Context, p *Patient) error
	GetByID(ctx context.Context, id int64) (*Patient, error)
	List(ctx context.Context, search string, limit, offset int) ([]*Patient, int, error)
	Delete(ctx context.Context, id int64) (bool, error)

	LatestEncounter(ctx context.Context, patientID int64) (*ViewEncounter, error)
	PrescriptionsForEncounter(ctx context.Context, encounterID int64) ([]*ViewPrescription, error)
}
