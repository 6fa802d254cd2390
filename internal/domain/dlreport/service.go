package dlreport

import (
	"context"
	"errors"
	"io"
	"time"

	"github.com/patientdocs/api/internal/platform/db"
	"github.com/patientdocs/api/internal/platform/upload"
)

var (
	ErrPatientNameRequired = errors.New("patient name is required")
	ErrCINRequired         = errors.New("cin is required")
	ErrInvalidLicenseType  = errors.New("license type must be A, B, C, D or E")
	ErrInvalidDateFilter   = errors.New("date_filter must be all, today, week or custom")
	ErrInvalidDateRange    = errors.New("custom date_filter requires from and to dates")
)

type Service struct {
	repo  Repository
	files upload.Store
}

func NewService(repo Repository, files upload.Store) *Service {
	return &Service{repo: repo, files: files}
}

func (s *Service) Save(ctx context.Context, rec *Record) error {
	if rec.PatientName == "" {
		return ErrPatientNameRequired
	}
	if rec.CIN == "" {
		return ErrCINRequired
	}
	if !validLicenseType(rec.LicenseType) {
		return ErrInvalidLicenseType
	}
	if rec.Date.IsZero() {
		rec.Date = time.Now()
	}
	return s.repo.Save(ctx, rec)
}

func (s *Service) Get(ctx context.Context, id int64) (*Record, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) List(ctx context.Context, f Filter, limit, offset int) ([]*Record, int, error) {
	switch f.DateFilter {
	case "", DateFilterAll, DateFilterToday, DateFilterWeek:
	case DateFilterCustom:
		if f.From.IsZero() || f.To.IsZero() {
			return nil, 0, ErrInvalidDateRange
		}
	default:
		return nil, 0, ErrInvalidDateFilter
	}
	return s.repo.List(ctx, f, limit, offset)
}

func (s *Service) Delete(ctx context.Context, id int64) (bool, error) {
	return s.repo.Delete(ctx, id)
}

// AttachFile validates and stores the scanned report, then points the record
// at it. The previous file, if any, is removed from the store.
func (s *Service) AttachFile(ctx context.Context, id int64, fileName, contentType string, content io.Reader) (*Record, error) {
	rec, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	meta, err := s.files.Save(ctx, fileName, contentType, content)
	if err != nil {
		return nil, err
	}
	ok, err := s.repo.SetFile(ctx, id, meta.ID)
	if err != nil {
		_ = s.files.Delete(ctx, meta.ID)
		return nil, err
	}
	if !ok {
		_ = s.files.Delete(ctx, meta.ID)
		return nil, db.ErrNotFound
	}
	if rec.FileID != "" {
		_ = s.files.Delete(ctx, rec.FileID)
	}
	rec.FileID = meta.ID
	return rec, nil
}

// OpenFile streams the scanned report attached to a record.
func (s *Service) OpenFile(ctx context.Context, id int64) (*Record, io.ReadCloser, *upload.FileMeta, error) {
	rec, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, nil, nil, err
	}
	if rec.FileID == "" {
		return nil, nil, nil, db.ErrNotFound
	}
	rc, meta, err := s.files.Open(ctx, rec.FileID)
	if err != nil {
		return nil, nil, nil, err
	}
	return rec, rc, meta, nil
}

func validLicenseType(t string) bool {
	switch t {
	case LicenseTypeA, LicenseTypeB, LicenseTypeC, LicenseTypeD, LicenseTypeE:
		return true
	}
	return false
}
