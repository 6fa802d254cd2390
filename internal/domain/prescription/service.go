package prescription

import (
	"context"
	"errors"
)

var (
	ErrMedicationRequired = errors.New("medication name is required")
	ErrEncounterRequired  = errors.New("encounter id is required")
)

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) Add(ctx context.Context, p *Prescription) error {
	if p.EncounterID == 0 {
		return ErrEncounterRequired
	}
	if p.MedicationName == "" {
		return ErrMedicationRequired
	}
	return s.repo.Add(ctx, p)
}

func (s *Service) Get(ctx context.Context, id int64) (*Prescription, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) ListByEncounter(ctx context.Context, encounterID int64) ([]*Prescription, error) {
	return s.repo.ListByEncounter(ctx, encounterID)
}

func (s *Service) Delete(ctx context.Context, id int64) (bool, error) {
	return s.repo.Delete(ctx, id)
}

// PrintData loads the encounter's lines together with the sheet header.
func (s *Service) PrintData(ctx context.Context, encounterID int64) (*PrintData, error) {
	patientName, doctorName, date, err := s.repo.EncounterInfo(ctx, encounterID)
	if err != nil {
		return nil, err
	}
	lines, err := s.repo.ListByEncounter(ctx, encounterID)
	if err != nil {
		return nil, err
	}
	return &PrintData{
		PatientName:   patientName,
		DoctorName:    doctorName,
		Date:          date,
		Prescriptions: lines,
	}, nil
}
