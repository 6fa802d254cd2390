package catalog

import (
	"context"
	"time"
)

// Repository persists the exam and medication dictionaries plus the
// per-encounter exam orders.
type Repository interface {
	AddMedication(ctx context.Context, name string) (*Medication, error)
	ListMedications(ctx context.Context, search string) ([]*Medication, error)

	AddUltrasoundType(ctx context.Context, name string) (*UltrasoundType, error)
	ListUltrasoundTypes(ctx context.Context) ([]*UltrasoundType, error)

	AddAnalyseRadioType(ctx context.Context, name string) (*AnalyseRadioType, error)
	ListAnalyseRadioTypes(ctx context.Context) ([]*AnalyseRadioType, error)

	AddPatientUltrasound(ctx context.Context, pu *PatientUltrasound) error
	ListPatientUltrasounds(ctx context.Context, encounterID int64) ([]*PatientUltrasound, error)
	DeletePatientUltrasound(ctx context.Context, id int64) (bool, error)

	AddPatientAnalyseRadio(ctx context.Context, pa *PatientAnalyseRadio) error
	ListPatientAnalyseRadios(ctx context.Context, encounterID int64) ([]*PatientAnalyseRadio, error)
	DeletePatientAnalyseRadio(ctx context.Context, id int64) (bool, error)

	EncounterHeader(ctx context.Context, encounterID int64) (patientName string, date time.Time, err error)
}
