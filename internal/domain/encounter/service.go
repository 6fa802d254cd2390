package encounter

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// Validation errors surfaced to handlers as 400s.
var (
	ErrInvalidStatus     = errors.New("status must be active or closed")
	ErrInvalidDateFilter = errors.New("date_filter must be all, today, week or custom")
	ErrInvalidDateRange  = errors.New("custom date_filter requires from and to dates")
	ErrInvalidMonth      = errors.New("month must be between 1 and 12")
)

// Service holds encounter and appointment business rules.
type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) Create(ctx context.Context, enc *Encounter) error {
	if enc.Status == "" {
		enc.Status = StatusActive
	}
	if !validStatus(enc.Status) {
		return ErrInvalidStatus
	}
	if enc.Date.IsZero() {
		enc.Date = time.Now()
	}
	return s.repo.Create(ctx, enc)
}

func (s *Service) Get(ctx context.Context, id int64) (*Encounter, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) List(ctx context.Context, f Filter, limit, offset int) ([]*Encounter, int, error) {
	switch f.DateFilter {
	case "", DateFilterAll, DateFilterToday, DateFilterWeek:
	case DateFilterCustom:
		if f.From.IsZero() || f.To.IsZero() {
			return nil, 0, ErrInvalidDateRange
		}
	default:
		return nil, 0, ErrInvalidDateFilter
	}
	if f.Status != "" && f.Status != "all" && !validStatus(f.Status) {
		return nil, 0, ErrInvalidStatus
	}
	return s.repo.List(ctx, f, limit, offset)
}

func (s *Service) UpdateStatus(ctx context.Context, id int64, status string) (bool, error) {
	if !validStatus(status) {
		return false, ErrInvalidStatus
	}
	return s.repo.UpdateStatus(ctx, id, status)
}

func (s *Service) Delete(ctx context.Context, id int64) (bool, error) {
	return s.repo.Delete(ctx, id)
}

func (s *Service) AppointmentsForMonth(ctx context.Context, year, month int) ([]*Appointment, error) {
	if month < 1 || month > 12 {
		return nil, ErrInvalidMonth
	}
	if year == 0 {
		year = time.Now().Year()
	}
	return s.repo.ListAppointmentsByMonth(ctx, year, month)
}

func (s *Service) DeleteAppointment(ctx context.Context, id int64) (bool, error) {
	return s.repo.DeleteAppointment(ctx, id)
}

// ListPatientIDsByDoctor satisfies the access checker's roster source.
func (s *Service) ListPatientIDsByDoctor(ctx context.Context, doctorID int64) ([]int64, error) {
	ids, err := s.repo.ListPatientIDsByDoctor(ctx, doctorID)
	if err != nil {
		return nil, fmt.Errorf("roster for doctor %d: %w", doctorID, err)
	}
	return ids, nil
}

func validStatus(status string) bool {
	return status == StatusActive || status == StatusClosed
}
