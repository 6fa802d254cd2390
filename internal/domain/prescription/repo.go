package prescription

import (
	"context"
	"time"
)

// Repository persists prescription lines.
type Repository interface {
	Add(ctx context.Context, p *Prescription) error
	GetByID(ctx context.Context, id int64) (*Prescription, error)
	ListByEncounter(ctx context.Context, encounterID int64) ([]*Prescription, error)
	Delete(ctx context.Context, id int64) (bool, error)

	// EncounterInfo resolves the names and date shown on the printed sheet.
	EncounterInfo(ctx context.Context, encounterID int64) (patientName, doctorName string, date time.Time, err error)
}
