package accounting

import (
	"context"
	"errors"
	"time"
)

var (
	ErrBeneficiaryRequired = errors.New("beneficiary is required")
	ErrInvalidMethod       = errors.New("payment method must be cash, cheque, transfer or card")
	ErrInvalidAmount       = errors.New("amount must be positive")
)

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) Save(ctx context.Context, e *Entry) error {
	if e.Beneficiary == "" {
		return ErrBeneficiaryRequired
	}
	if !validMethod(e.PaymentMethod) {
		return ErrInvalidMethod
	}
	if e.Amount <= 0 {
		return ErrInvalidAmount
	}
	if e.Date.IsZero() {
		e.Date = time.Now()
	}
	return s.repo.Save(ctx, e)
}

func (s *Service) Get(ctx context.Context, id int64) (*Entry, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) List(ctx context.Context, f Filter, limit, offset int) ([]*Entry, int, error) {
	return s.repo.List(ctx, f, limit, offset)
}

func (s *Service) Delete(ctx context.Context, id int64) (bool, error) {
	return s.repo.Delete(ctx, id)
}

func validMethod(method string) bool {
	switch method {
	case MethodCash, MethodCheque, MethodTransfer, MethodCard:
		return true
	}
	return false
}
