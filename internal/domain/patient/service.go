package patient

import (
	"context"
	"errors"
)

var ErrNameRequired = errors.New("patient name is required")

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) Create(ctx context.Context, p *Patient) error {
	if p.Name == "" {
		return ErrNameRequired
	}
	return s.repo.Create(ctx, p)
}

func (s *Service) Get(ctx context.Context, id int64) (*Patient, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) List(ctx context.Context, search string, limit, offset int) ([]*Patient, int, error) {
	return s.repo.List(ctx, search, limit, offset)
}

func (s *Service) Delete(ctx context.Context, id int64) (bool, error) {
	return s.repo.Delete(ctx, id)
}

// View assembles the patient page aggregate. Prescriptions are only loaded
// when a latest encounter exists, since they hang off that encounter.
func (s *Service) View(ctx context.Context, id int64) (*View, error) {
	p, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	v := &View{Patient: p, Prescriptions: []*ViewPrescription{}}

	enc, err := s.repo.LatestEncounter(ctx, id)
	if err != nil {
		return nil, err
	}
	if enc == nil {
		return v, nil
	}
	v.Encounter = enc

	prescriptions, err := s.repo.PrescriptionsForEncounter(ctx, enc.ID)
	if err != nil {
		return nil, err
	}
	if prescriptions != nil {
		v.Prescriptions = prescriptions
	}
	return v, nil
}
