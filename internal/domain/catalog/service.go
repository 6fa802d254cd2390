package catalog

import (
	"context"
	"errors"
	"strings"
)

var (
	ErrNameRequired      = errors.New("name is required")
	ErrTypeRequired      = errors.New("type id is required")
	ErrEncounterRequired = errors.New("encounter id is required")
)

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) AddMedication(ctx context.Context, name string) (*Medication, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrNameRequired
	}
	return s.repo.AddMedication(ctx, name)
}

func (s *Service) ListMedications(ctx context.Context, search string) ([]*Medication, error) {
	return s.repo.ListMedications(ctx, search)
}

func (s *Service) AddUltrasoundType(ctx context.Context, name string) (*UltrasoundType, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrNameRequired
	}
	return s.repo.AddUltrasoundType(ctx, name)
}

func (s *Service) ListUltrasoundTypes(ctx context.Context) ([]*UltrasoundType, error) {
	return s.repo.ListUltrasoundTypes(ctx)
}

func (s *Service) AddAnalyseRadioType(ctx context.Context, name string) (*AnalyseRadioType, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrNameRequired
	}
	return s.repo.AddAnalyseRadioType(ctx, name)
}

func (s *Service) ListAnalyseRadioTypes(ctx context.Context) ([]*AnalyseRadioType, error) {
	return s.repo.ListAnalyseRadioTypes(ctx)
}

func (s *Service) AddPatientUltrasound(ctx context.Context, pu *PatientUltrasound) error {
	if pu.EncounterID == 0 {
		return ErrEncounterRequired
	}
	if pu.TypeID == 0 {
		return ErrTypeRequired
	}
	return s.repo.AddPatientUltrasound(ctx, pu)
}

func (s *Service) ListPatientUltrasounds(ctx context.Context, encounterID int64) ([]*PatientUltrasound, error) {
	return s.repo.ListPatientUltrasounds(ctx, encounterID)
}

func (s *Service) DeletePatientUltrasound(ctx context.Context, id int64) (bool, error) {
	return s.repo.DeletePatientUltrasound(ctx, id)
}

func (s *Service) AddPatientAnalyseRadio(ctx context.Context, pa *PatientAnalyseRadio) error {
	if pa.EncounterID == 0 {
		return ErrEncounterRequired
	}
	if pa.TypeID == 0 {
		return ErrTypeRequired
	}
	return s.repo.AddPatientAnalyseRadio(ctx, pa)
}

func (s *Service) ListPatientAnalyseRadios(ctx context.Context, encounterID int64) ([]*PatientAnalyseRadio, error) {
	return s.repo.ListPatientAnalyseRadios(ctx, encounterID)
}

func (s *Service) DeletePatientAnalyseRadio(ctx context.Context, id int64) (bool, error) {
	return s.repo.DeletePatientAnalyseRadio(ctx, id)
}

// UltrasoundPrintData builds the printable ultrasound request sheet.
func (s *Service) UltrasoundPrintData(ctx context.Context, encounterID int64) (*PrintData, error) {
	patientName, date, err := s.repo.EncounterHeader(ctx, encounterID)
	if err != nil {
		return nil, err
	}
	orders, err := s.repo.ListPatientUltrasounds(ctx, encounterID)
	if err != nil {
		return nil, err
	}
	data := &PrintData{Title: "Ultrasound request", PatientName: patientName, Date: date}
	for _, pu := range orders {
		data.Items = append(data.Items, PrintItem{TypeName: pu.TypeName})
	}
	return data, nil
}

// AnalyseRadioPrintData builds the printable lab and radiology request sheet.
func (s *Service) AnalyseRadioPrintData(ctx context.Context, encounterID int64) (*PrintData, error) {
	patientName, date, err := s.repo.EncounterHeader(ctx, encounterID)
	if err != nil {
		return nil, err
	}
	orders, err := s.repo.ListPatientAnalyseRadios(ctx, encounterID)
	if err != nil {
		return nil, err
	}
	data := &PrintData{Title: "Laboratory and radiology request", PatientName: patientName, Date: date}
	for _, pa := range orders {
		data.Items = append(data.Items, PrintItem{TypeName: pa.TypeName})
	}
	return data, nil
}
